package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"barbybot/pkg/logx"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIURL: srv.URL, Timeout: 5 * time.Second}, logx.Nop())
}

func TestFetchShowsArrayPayload(t *testing.T) {
	t.Parallel()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"returnShow":{"show":[
			{"showId":"5286","showName":"Acollective","showDate":"12/09/2026","showTime":"20:00","showPrice":"120","showSold":"40","showSoldMaxBuy":"500","notbybarbtsellsoldout":"0","showImage":"5286.jpg"},
			{"showId":"5290","showName":"Tiny Fingers","showDate":"01/09/2026","showTime":"21:30","showPrice":"90","notbybarbtsellsoldout":"1"}
		]}}`))
	})

	got, err := c.FetchShows(context.Background())
	if err != nil {
		t.Fatalf("FetchShows: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	// Sorted by event date, so the September 1st show comes first.
	if got[0].ID != "5290" || got[1].ID != "5286" {
		t.Fatalf("order = [%s %s], want [5290 5286]", got[0].ID, got[1].ID)
	}
	if !got[0].SoldOut {
		t.Error("flag \"1\" should mark the show sold out")
	}
	if got[1].SoldOut {
		t.Error("flag \"0\" should not mark the show sold out")
	}
	if got[1].Artist != "Acollective" || got[1].Price != "120" || got[1].SoldTickets != 40 || got[1].MaxTickets != "500" {
		t.Fatalf("normalized show = %+v", got[1])
	}
}

func TestFetchShowsSingleObjectPayload(t *testing.T) {
	t.Parallel()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"returnShow":{"show":{"showId":"77","showName":"Solo Act","showDate":"05/10/2026"}}}`))
	})

	got, err := c.FetchShows(context.Background())
	if err != nil {
		t.Fatalf("FetchShows: %v", err)
	}
	if len(got) != 1 || got[0].ID != "77" || got[0].Artist != "Solo Act" {
		t.Fatalf("got %+v, want single show 77", got)
	}
}

func TestFetchShowsNumericFields(t *testing.T) {
	t.Parallel()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"returnShow":{"show":[{"showId":5286,"showName":"x","showPrice":120,"showSold":12,"notbybarbtsellsoldout":1}]}}`))
	})

	got, err := c.FetchShows(context.Background())
	if err != nil {
		t.Fatalf("FetchShows: %v", err)
	}
	if got[0].ID != "5286" || got[0].Price != "120" || got[0].SoldTickets != 12 || !got[0].SoldOut {
		t.Fatalf("numeric fields mis-normalized: %+v", got[0])
	}
}

func TestFetchShowsMissingReturnShow(t *testing.T) {
	t.Parallel()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"maintenance"}`))
	})

	got, err := c.FetchShows(context.Background())
	if err != nil {
		t.Fatalf("FetchShows: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d shows from a structureless body, want 0", len(got))
	}
}

func TestFetchShowsDropsEntriesWithoutID(t *testing.T) {
	t.Parallel()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"returnShow":{"show":[{"showName":"no id"},{"showId":"9","showName":"ok"}]}}`))
	})

	got, err := c.FetchShows(context.Background())
	if err != nil {
		t.Fatalf("FetchShows: %v", err)
	}
	if len(got) != 1 || got[0].ID != "9" {
		t.Fatalf("got %+v, want only show 9", got)
	}
}

func TestFetchShowsHTTPError(t *testing.T) {
	t.Parallel()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := c.FetchShows(context.Background()); err == nil {
		t.Fatal("want error on HTTP 500")
	}
}

func TestFetchShowsBadJSON(t *testing.T) {
	t.Parallel()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	if _, err := c.FetchShows(context.Background()); err == nil {
		t.Fatal("want error on undecodable body")
	}
}

func TestFetchShowsSendsBrowserHeaders(t *testing.T) {
	t.Parallel()
	var gotUA, gotXRW string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotXRW = r.Header.Get("X-Requested-With")
		w.Write([]byte(`{"returnShow":{"show":[]}}`))
	})

	if _, err := c.FetchShows(context.Background()); err != nil {
		t.Fatalf("FetchShows: %v", err)
	}
	if gotUA == "" || gotXRW != "XMLHttpRequest" {
		t.Fatalf("browser headers missing: ua=%q xrw=%q", gotUA, gotXRW)
	}
}

func TestSortByEventDateUnparsableFirst(t *testing.T) {
	t.Parallel()
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"returnShow":{"show":[
			{"showId":"1","showDate":"20/12/2026"},
			{"showId":"2","showDate":"TBD"},
			{"showId":"3","showDate":"02/11/2026"}
		]}}`))
	})

	got, err := c.FetchShows(context.Background())
	if err != nil {
		t.Fatalf("FetchShows: %v", err)
	}
	want := []string{"2", "3", "1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order[%d] = %s, want %s", i, got[i].ID, id)
		}
	}
}
