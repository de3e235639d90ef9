package services

import (
	"log"

	"sched-server/api/booking"
	"sched-server/cache"
	"sched-server/period"
)

// PrefetchService fills cache gaps for newly resident periods.
type PrefetchService struct {
	cache  *cache.PeriodCache
	source booking.BookingAPI
}

// NewPrefetchService constructs a PrefetchService with its data source.
func NewPrefetchService(periodCache *cache.PeriodCache, source booking.BookingAPI) *PrefetchService {
	return &PrefetchService{
		cache:  periodCache,
		source: source,
	}
}

// PrefetchMissing issues a fire-and-forget fetch for every period not yet
// cached. Errors are swallowed: a failed period simply stays absent and
// is retried on the next window pass, so a slow backend never blocks
// navigation. A fetch whose period is evicted mid-flight still writes its
// result; the merge pass only reads resident keys, so the orphan is
// harmless.
func (ps *PrefetchService) PrefetchMissing(view period.View, keys []string, roam bool) {
	for _, key := range keys {
		if ps.cache.Has(key, roam) {
			continue
		}
		go ps.fetchPeriod(view, key, roam)
	}
}

// RefreshPeriod fetches a period synchronously and overwrites whatever is
// cached, making the entry authoritative again.
func (ps *PrefetchService) RefreshPeriod(view period.View, key string, roam bool) {
	ps.fetch(view, key, roam)
}

func (ps *PrefetchService) fetchPeriod(view period.View, key string, roam bool) {
	// Presence may have changed since the scan; check again before hitting
	// the source.
	if ps.cache.Has(key, roam) {
		return
	}
	ps.fetch(view, key, roam)
}

func (ps *PrefetchService) fetch(view period.View, key string, roam bool) {
	rng := period.Decode(view, key)

	reservations, err := ps.source.FetchReservations(rng, roam)
	if err != nil {
		log.Printf("[PrefetchService] Fetching reservations failed for %s: %v", key, err)
		return
	}
	conversations, err := ps.source.FetchConversationEvents(rng)
	if err != nil {
		// Reservations are still worth caching on their own.
		log.Printf("[PrefetchService] Fetching conversations failed for %s: %v", key, err)
		conversations = nil
	}

	entry := cache.NewEntry()
	if reservations != nil {
		entry.Reservations = reservations
	}
	if conversations != nil {
		entry.Conversations = conversations
	}
	ps.cache.Set(key, roam, entry)
	log.Printf("[PrefetchService] Cached period %s (roam=%t)", key, roam)
}
