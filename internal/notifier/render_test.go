package notifier

import (
	"strings"
	"testing"

	"barbybot/internal/shows"
)

const baseURL = "https://barby.co.il"

func TestRenderMessagePriceTBA(t *testing.T) {
	t.Parallel()
	msg := renderMessage(shows.Show{ID: "5286", Artist: "X", Date: "01/10/2026"}, baseURL)

	if !strings.Contains(msg, "💰 TBA") {
		t.Fatalf("missing TBA price line:\n%s", msg)
	}
	if !strings.Contains(msg, `https://barby.co.il/show/5286`) {
		t.Fatalf("missing ticket link:\n%s", msg)
	}
}

func TestRenderMessagePriceAndSeat(t *testing.T) {
	t.Parallel()
	msg := renderMessage(shows.Show{ID: "1", Artist: "X", Price: "120", SeatType: "ישיבה"}, baseURL)

	if !strings.Contains(msg, "💰 ₪120 • ישיבה") {
		t.Fatalf("price/seat line wrong:\n%s", msg)
	}
}

func TestRenderMessageDateTime(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		date string
		tm   string
		want string
	}{
		{name: "both", date: "01/10/2026", tm: "20:30", want: "📅 01/10/2026 20:30"},
		{name: "date only", date: "01/10/2026", tm: "", want: "📅 01/10/2026"},
		{name: "neither", date: "", tm: "", want: "📅 TBA"},
		{name: "time only degrades to TBA", date: "", tm: "20:30", want: "📅 TBA"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			msg := renderMessage(shows.Show{ID: "1", Artist: "X", Date: tt.date, Time: tt.tm}, baseURL)
			if !strings.Contains(msg, tt.want+"\n") {
				t.Fatalf("want %q in:\n%s", tt.want, msg)
			}
		})
	}
}

func TestRenderMessageTitleLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		sh        shows.Show
		wantTitle string // empty means no title line at all
	}{
		{name: "no title", sh: shows.Show{ID: "1", Artist: "X"}},
		{name: "title equals artist", sh: shows.Show{ID: "1", Artist: "X", Title: "X"}},
		{name: "too short", sh: shows.Show{ID: "1", Artist: "X", Title: "abc"}},
		{name: "meaningful title", sh: shows.Show{ID: "1", Artist: "X", Title: "Album Release Show"}, wantTitle: "Album Release Show"},
		{name: "short title fallback", sh: shows.Show{ID: "1", Artist: "X", ShortTitle: "Special Guests"}, wantTitle: "Special Guests"},
		{name: "whitespace normalized", sh: shows.Show{ID: "1", Artist: "X", Title: "  Album \n Release  "}, wantTitle: "Album Release"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			msg := renderMessage(tt.sh, baseURL)
			if tt.wantTitle == "" {
				if strings.Contains(msg, "📝") {
					t.Fatalf("unexpected title line:\n%s", msg)
				}
				return
			}
			if !strings.Contains(msg, "📝 <i>"+tt.wantTitle+"</i>") {
				t.Fatalf("want title %q in:\n%s", tt.wantTitle, msg)
			}
		})
	}
}

func TestRenderMessageSoldOut(t *testing.T) {
	t.Parallel()
	msg := renderMessage(shows.Show{ID: "1", Artist: "X", Price: "100", SoldOut: true}, baseURL)
	if !strings.Contains(msg, "🔴 <b>אזל כרטיסים</b>") {
		t.Fatalf("missing sold out marker:\n%s", msg)
	}

	msg = renderMessage(shows.Show{ID: "1", Artist: "X", Price: "100"}, baseURL)
	if strings.Contains(msg, "אזל כרטיסים") {
		t.Fatalf("sold out marker on available show:\n%s", msg)
	}
}

func TestResolveImageURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		ref  string
		base string
		want string
	}{
		{name: "empty", ref: "", base: "https://images.barby.co.il/Logos/", want: ""},
		{name: "whitespace only", ref: "  ", base: "https://images.barby.co.il/Logos/", want: ""},
		{name: "plain", ref: "show5286.jpg", base: "https://images.barby.co.il/Logos/", want: "https://images.barby.co.il/Logos/show5286.jpg"},
		{name: "trimmed", ref: " show.jpg \n", base: "https://images.barby.co.il/Logos/", want: "https://images.barby.co.il/Logos/show.jpg"},
		{name: "no trailing slash on base", ref: "show.jpg", base: "https://cdn.example.com/img", want: "https://cdn.example.com/img/show.jpg"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveImageURL(tt.ref, tt.base); got != tt.want {
				t.Fatalf("resolveImageURL(%q, %q) = %q, want %q", tt.ref, tt.base, got, tt.want)
			}
		})
	}
}
