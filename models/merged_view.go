package models

// MergedView is the single logical view produced by merging every resident
// cache entry: reservations and conversation events keyed by customer.
type MergedView struct {
	Reservations  map[string][]Reservation       `json:"reservations"`
	Conversations map[string][]ConversationEvent `json:"conversations"`
}

// NewMergedView returns an empty view with both maps allocated.
func NewMergedView() MergedView {
	return MergedView{
		Reservations:  make(map[string][]Reservation),
		Conversations: make(map[string][]ConversationEvent),
	}
}
