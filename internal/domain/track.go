package domain

// Track is the text a room races on.
type Track struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Budget derives the race time budget in seconds from the track length,
// rounded up to the nearest ten.
func (t Track) Budget() int {
	return (len(t.Text) + 9) / 10 * 10
}
