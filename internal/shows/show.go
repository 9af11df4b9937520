// Package shows holds the normalized show model and the diff that decides
// which shows are newly announced relative to the last snapshot.
package shows

// Show is one upcoming event at the venue, normalized from the upstream API.
//
// Date, Time and Price stay in the source's display format; the diff never
// interprets them. ID is the stable upstream identifier and the only field
// the diff keys on.
type Show struct {
	ID         string `json:"show_id"`
	Artist     string `json:"artist"`
	Title      string `json:"title"`
	ShortTitle string `json:"short_title"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Price      string `json:"price"`
	SeatType   string `json:"seat_type"`
	SoldOut    bool   `json:"is_sold_out"`

	// Image is an opaque upstream reference; the notifier composes it with
	// the venue's asset base URL when attaching a photo.
	Image string `json:"image_ref,omitempty"`

	SoldTickets int    `json:"sold_tickets,omitempty"`
	MaxTickets  string `json:"max_tickets,omitempty"`
}

// Keyed converts a show list into its snapshot form, keyed by show ID.
//
// Duplicate IDs within one list collapse last-write-wins. The upstream data
// contract does not guard against duplicates, so this mirrors what the
// keyed snapshot representation has always done rather than rejecting them.
func Keyed(list []Show) map[string]Show {
	m := make(map[string]Show, len(list))
	for _, s := range list {
		m[s.ID] = s
	}
	return m
}
