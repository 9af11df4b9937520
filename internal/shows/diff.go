package shows

// NewSince returns the shows from current whose ID is absent from previous,
// preserving the order of current.
//
// Membership is the only signal: an existing ID with changed fields (price,
// date, sold-out flag) is not reported. The watcher detects new shows, not
// modified ones.
//
// Pure function; safe to call repeatedly with the same inputs.
func NewSince(current []Show, previous map[string]Show) []Show {
	var fresh []Show
	for _, s := range current {
		if _, seen := previous[s.ID]; !seen {
			fresh = append(fresh, s)
		}
	}
	return fresh
}
