package notifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"barbybot/internal/shows"
	"barbybot/internal/store"
	kit "barbybot/internal/transport"
	"barbybot/pkg/logx"
)

// fakeSender records every transport call and returns scripted errors.
type sendCall struct {
	kind     string // "text" | "photo"
	chatID   int64
	text     string
	photoURL string
}

type fakeSender struct {
	calls    []sendCall
	textErr  map[int64]error
	photoErr map[int64]error
}

func (f *fakeSender) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) error {
	f.calls = append(f.calls, sendCall{kind: "text", chatID: to.ChatID, text: text})
	return f.textErr[to.ChatID]
}

func (f *fakeSender) SendPhoto(_ context.Context, to kit.ChatTarget, photoURL, caption string, _ *kit.SendOptions) error {
	f.calls = append(f.calls, sendCall{kind: "photo", chatID: to.ChatID, text: caption, photoURL: photoURL})
	return f.photoErr[to.ChatID]
}

// countingRegistry wraps the memory store to observe registry access.
type countingRegistry struct {
	*store.Memory
	countCalls int
	listCalls  int
}

func (c *countingRegistry) SubscriberCount(ctx context.Context) (int, error) {
	c.countCalls++
	return c.Memory.SubscriberCount(ctx)
}

func (c *countingRegistry) Subscribers(ctx context.Context) ([]store.Subscriber, error) {
	c.listCalls++
	return c.Memory.Subscribers(ctx)
}

func newTestService(t *testing.T, sender *fakeSender, reg store.SubscriberRegistry) *Service {
	t.Helper()
	return New(Config{
		TicketBaseURL: "https://barby.co.il",
		ImageBaseURL:  "https://images.barby.co.il/Logos/",
		// zero delays: pacing disabled in tests
	}, sender, reg, logx.Nop())
}

func addSubs(t *testing.T, reg store.SubscriberRegistry, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		if err := reg.AddSubscriber(context.Background(), store.Subscriber{UserID: id}); err != nil {
			t.Fatalf("AddSubscriber(%d): %v", id, err)
		}
	}
}

func TestNotifyEmptyInputTouchesNothing(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	reg := &countingRegistry{Memory: store.NewMemory()}
	svc := newTestService(t, sender, reg)

	rep, err := svc.Notify(context.Background(), nil)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if rep != (Report{}) {
		t.Fatalf("report = %+v, want zero", rep)
	}
	if reg.countCalls != 0 || reg.listCalls != 0 {
		t.Fatalf("registry touched on empty input: count=%d list=%d", reg.countCalls, reg.listCalls)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("transport touched on empty input: %v", sender.calls)
	}
}

func TestNotifyZeroSubscribers(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	reg := &countingRegistry{Memory: store.NewMemory()}
	svc := newTestService(t, sender, reg)

	items := []shows.Show{{ID: "1", Artist: "a"}, {ID: "2", Artist: "b"}, {ID: "3", Artist: "c"}}
	rep, err := svc.Notify(context.Background(), items)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.calls) != 0 {
		t.Fatalf("transport called with zero subscribers: %v", sender.calls)
	}
	if reg.countCalls != 1 {
		t.Fatalf("count queried %d times, want once per batch", reg.countCalls)
	}
	if rep.Delivered != 0 {
		t.Fatalf("delivered = %d, want 0", rep.Delivered)
	}
}

func TestNotifyFanoutOrder(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{}
	reg := store.NewMemory()
	addSubs(t, reg, 1, 2)
	svc := newTestService(t, sender, reg)

	items := []shows.Show{{ID: "10", Artist: "first"}, {ID: "20", Artist: "second"}}
	rep, err := svc.Notify(context.Background(), items)
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if rep.Delivered != 4 {
		t.Fatalf("delivered = %d, want 4", rep.Delivered)
	}

	// Item-level fan-out: each show goes to the whole list before the next.
	wantChats := []int64{1, 2, 1, 2}
	wantArtists := []string{"first", "first", "second", "second"}
	if len(sender.calls) != 4 {
		t.Fatalf("calls = %d, want 4", len(sender.calls))
	}
	for i, call := range sender.calls {
		if call.chatID != wantChats[i] {
			t.Fatalf("call %d chat = %d, want %d", i, call.chatID, wantChats[i])
		}
		if !strings.Contains(call.text, wantArtists[i]) {
			t.Fatalf("call %d text missing artist %q:\n%s", i, wantArtists[i], call.text)
		}
	}
}

func TestNotifyPermanentFailureCleanup(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{
		textErr: map[int64]error{2: errors.New("telegram: Forbidden: bot was blocked by the user (403)")},
	}
	reg := store.NewMemory()
	addSubs(t, reg, 1, 2, 3)
	svc := newTestService(t, sender, reg)

	rep, err := svc.Notify(context.Background(), []shows.Show{{ID: "7", Artist: "a"}})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if ok, _ := reg.SubscriberExists(context.Background(), 2); ok {
		t.Fatal("blocked subscriber still registered")
	}
	for _, id := range []int64{1, 3} {
		if ok, _ := reg.SubscriberExists(context.Background(), id); !ok {
			t.Fatalf("subscriber %d lost", id)
		}
	}

	// Exactly one attempt each for the healthy subscribers.
	attempts := map[int64]int{}
	for _, c := range sender.calls {
		attempts[c.chatID]++
	}
	if attempts[1] != 1 || attempts[3] != 1 {
		t.Fatalf("attempts = %v, want one each for 1 and 3", attempts)
	}
	if rep.Removed != 1 || rep.Failed != 1 || rep.Delivered != 2 {
		t.Fatalf("report = %+v, want removed=1 failed=1 delivered=2", rep)
	}
}

func TestNotifyRemovedSubscriberSkippedForLaterShows(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{
		textErr: map[int64]error{2: errors.New("telegram: Bad Request: chat not found")},
	}
	reg := store.NewMemory()
	addSubs(t, reg, 1, 2, 3)
	svc := newTestService(t, sender, reg)

	items := []shows.Show{{ID: "10", Artist: "a"}, {ID: "20", Artist: "b"}}
	if _, err := svc.Notify(context.Background(), items); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	// The second show lists the registry fresh; user 2 is gone by then.
	var secondShow []int64
	for _, c := range sender.calls {
		if strings.Contains(c.text, "b") && strings.Contains(c.text, "/show/20") {
			secondShow = append(secondShow, c.chatID)
		}
	}
	if len(secondShow) != 2 || secondShow[0] != 1 || secondShow[1] != 3 {
		t.Fatalf("second show recipients = %v, want [1 3]", secondShow)
	}
}

func TestNotifyAttachmentFallback(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{
		photoErr: map[int64]error{1: errors.New("telegram: Bad Request: failed to get HTTP URL content: photo")},
	}
	reg := store.NewMemory()
	addSubs(t, reg, 1)
	svc := newTestService(t, sender, reg)

	rep, err := svc.Notify(context.Background(), []shows.Show{{ID: "9", Artist: "a", Image: "show9.jpg"}})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(sender.calls) != 2 {
		t.Fatalf("calls = %d, want photo then text fallback", len(sender.calls))
	}
	if sender.calls[0].kind != "photo" || sender.calls[1].kind != "text" {
		t.Fatalf("call kinds = %s,%s, want photo,text", sender.calls[0].kind, sender.calls[1].kind)
	}
	if sender.calls[0].photoURL != "https://images.barby.co.il/Logos/show9.jpg" {
		t.Fatalf("photo url = %q", sender.calls[0].photoURL)
	}

	if ok, _ := reg.SubscriberExists(context.Background(), 1); !ok {
		t.Fatal("subscriber removed on attachment failure")
	}
	if rep.Delivered != 1 || rep.Fallbacks != 1 || rep.Removed != 0 {
		t.Fatalf("report = %+v, want delivered=1 fallbacks=1 removed=0", rep)
	}
}

func TestNotifyPermanentDuringPhotoRemovesWithoutFallback(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{
		photoErr: map[int64]error{1: errors.New("telegram: Forbidden: bot was blocked by the user")},
	}
	reg := store.NewMemory()
	addSubs(t, reg, 1)
	svc := newTestService(t, sender, reg)

	rep, err := svc.Notify(context.Background(), []shows.Show{{ID: "9", Artist: "a", Image: "show9.jpg"}})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("calls = %d, want just the photo attempt", len(sender.calls))
	}
	if ok, _ := reg.SubscriberExists(context.Background(), 1); ok {
		t.Fatal("blocked subscriber still registered")
	}
	if rep.Removed != 1 {
		t.Fatalf("removed = %d, want 1", rep.Removed)
	}
}

func TestNotifyTransientFailureNoStateChange(t *testing.T) {
	t.Parallel()
	sender := &fakeSender{
		textErr: map[int64]error{1: errors.New("telegram: Too Many Requests: retry after 3")},
	}
	reg := store.NewMemory()
	addSubs(t, reg, 1, 2)
	svc := newTestService(t, sender, reg)

	rep, err := svc.Notify(context.Background(), []shows.Show{{ID: "5", Artist: "a"}})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if n, _ := reg.SubscriberCount(context.Background()); n != 2 {
		t.Fatalf("count = %d, want 2 (no removal on transient failure)", n)
	}
	if rep.Failed != 1 || rep.Delivered != 1 {
		t.Fatalf("report = %+v, want failed=1 delivered=1", rep)
	}
}
