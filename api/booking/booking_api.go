package booking

import (
	"sched-server/models"
	"sched-server/period"
)

// BookingAPI is the data source the period cache is filled from. Fetches
// must be idempotent and side-effect-free from the cache's perspective;
// failures are opaque errors the prefetch layer swallows.
type BookingAPI interface {
	// FetchReservations returns reservations-by-customer for the period
	// range. When roam is false, cancelled reservations are excluded.
	FetchReservations(rng period.Range, roam bool) (map[string][]models.Reservation, error)
	// FetchConversationEvents returns conversation events-by-customer for
	// the period range.
	FetchConversationEvents(rng period.Range) (map[string][]models.ConversationEvent, error)
}
