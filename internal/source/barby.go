// Package source fetches the venue's current show listing and normalizes it
// into the internal show model.
//
// The upstream API is quirky: returnShow.show is an object when exactly one
// show is listed and an array otherwise, and several fields flip between
// string and number encodings. All of that is absorbed here so downstream
// code sees a plain []shows.Show.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"barbybot/internal/shows"
	"barbybot/pkg/logx"
)

type Config struct {
	APIURL  string
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// FetchShows returns the current show list, sorted by event date.
//
// A non-nil error means the fetch itself failed (network, HTTP status,
// undecodable body); the caller must not confuse that with a legitimately
// empty listing, which is (nil-length slice, nil error).
func (c *Client) FetchShows(ctx context.Context) ([]shows.Show, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL, nil)
	if err != nil {
		return nil, err
	}
	setBrowserHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("shows api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("shows api status %d", resp.StatusCode)
	}

	var p payload
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("shows api decode: %w", err)
	}

	if p.ReturnShow == nil {
		c.log.Warn("unexpected shows api response structure (no returnShow)")
		return nil, nil
	}

	list := make([]shows.Show, 0, len(p.ReturnShow.Show))
	for _, raw := range p.ReturnShow.Show {
		sh := raw.normalize()
		if sh.ID == "" {
			c.log.Warn("dropping show without id", logx.String("artist", sh.Artist))
			continue
		}
		list = append(list, sh)
	}

	sortByEventDate(list)

	c.log.Debug("fetched shows", logx.Int("count", len(list)))
	return list, nil
}

// The venue API rejects requests that don't look like its own frontend.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,he;q=0.8")
	req.Header.Set("Referer", "https://barby.co.il/")
	req.Header.Set("Origin", "https://barby.co.il")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
}

// sortByEventDate orders shows by date parsed as dd/mm/yyyy; unparsable
// dates sort first. Parsing happens here for ordering only; the raw display
// strings flow through unchanged.
func sortByEventDate(list []shows.Show) {
	sort.SliceStable(list, func(i, j int) bool {
		return eventDate(list[i]).Before(eventDate(list[j]))
	})
}

func eventDate(sh shows.Show) time.Time {
	t, err := time.Parse("02/01/2006", strings.TrimSpace(sh.Date))
	if err != nil {
		return time.Time{}
	}
	return t
}

// ---- wire format ----

type payload struct {
	ReturnShow *struct {
		Show showList `json:"show"`
	} `json:"returnShow"`
}

// showList tolerates the single-object-vs-array ambiguity.
type showList []apiShow

func (l *showList) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimLeft(string(b), " \t\r\n")
	if strings.HasPrefix(trimmed, "[") {
		var arr []apiShow
		if err := json.Unmarshal(b, &arr); err != nil {
			return err
		}
		*l = arr
		return nil
	}
	var one apiShow
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	*l = showList{one}
	return nil
}

type apiShow struct {
	ID          flexString `json:"showId"`
	Name        string     `json:"showName"`
	Title       string     `json:"showTitle"`
	ShortTitle  string     `json:"showShortTitle"`
	Date        string     `json:"showDate"`
	Time        string     `json:"showTime"`
	Price       flexString `json:"showPrice"`
	Sold        flexString `json:"showSold"`
	SoldMaxBuy  flexString `json:"showSoldMaxBuy"`
	SeatType    string     `json:"showSeatType"`
	SoldOutFlag flexString `json:"notbybarbtsellsoldout"`
	Image       string     `json:"showImage"`
}

func (a apiShow) normalize() shows.Show {
	sold, _ := strconv.Atoi(string(a.Sold))
	return shows.Show{
		ID:          strings.TrimSpace(string(a.ID)),
		Artist:      strings.TrimSpace(a.Name),
		Title:       strings.TrimSpace(a.Title),
		ShortTitle:  strings.TrimSpace(a.ShortTitle),
		Date:        strings.TrimSpace(a.Date),
		Time:        strings.TrimSpace(a.Time),
		Price:       strings.TrimSpace(string(a.Price)),
		SeatType:    strings.TrimSpace(a.SeatType),
		SoldOut:     string(a.SoldOutFlag) == "1",
		Image:       strings.TrimSpace(a.Image),
		SoldTickets: sold,
		MaxTickets:  strings.TrimSpace(string(a.SoldMaxBuy)),
	}
}

// flexString decodes a JSON string or number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
