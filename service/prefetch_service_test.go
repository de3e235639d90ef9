package services

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"sched-server/cache"
	"sched-server/models"
	"sched-server/period"
)

// stubBookingAPI is an in-memory booking.BookingAPI for service tests.
type stubBookingAPI struct {
	mu            sync.Mutex
	reservations  map[string][]models.Reservation
	conversations map[string][]models.ConversationEvent
	failFetch     bool
	failEvents    bool
	fetchCalls    int
}

func (s *stubBookingAPI) FetchReservations(rng period.Range, roam bool) (map[string][]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchCalls++
	if s.failFetch {
		return nil, fmt.Errorf("reservations backend down")
	}
	return s.reservations, nil
}

func (s *stubBookingAPI) FetchConversationEvents(rng period.Range) (map[string][]models.ConversationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failEvents {
		return nil, fmt.Errorf("conversations backend down")
	}
	return s.conversations, nil
}

func (s *stubBookingAPI) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

func waitForEntry(t *testing.T, c *cache.PeriodCache, key string, roam bool) *cache.Entry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if entry, ok := c.Get(key, roam); ok {
			return entry
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("period %q never appeared in the cache", key)
	return nil
}

func TestRefreshPeriod_OverwritesCachedEntry(t *testing.T) {
	c := cache.NewPeriodCache()
	stale := cache.NewEntry()
	stale.Reservations["966512345678"] = []models.Reservation{
		{ID: 1, CustomerID: "966512345678", Date: "2025-11-03", TimeSlot: "09:00"},
	}
	c.Set("2025-11", false, stale)

	source := &stubBookingAPI{
		reservations: map[string][]models.Reservation{
			"966512345678": {{ID: 1, CustomerID: "966512345678", Date: "2025-11-03", TimeSlot: "10:00"}},
		},
	}
	ps := NewPrefetchService(c, source)

	ps.RefreshPeriod(period.VIEW_MONTH, "2025-11", false)

	entry, ok := c.Get("2025-11", false)
	if !ok {
		t.Fatal("expected entry after refresh")
	}
	if got := entry.Reservations["966512345678"][0].TimeSlot; got != "10:00" {
		t.Errorf("refresh must overwrite the stale entry, got slot %q", got)
	}
}

func TestRefreshPeriod_ConversationFailureDegrades(t *testing.T) {
	c := cache.NewPeriodCache()
	source := &stubBookingAPI{
		reservations: map[string][]models.Reservation{
			"966512345678": {{ID: 1, CustomerID: "966512345678", Date: "2025-11-03", TimeSlot: "10:00"}},
		},
		failEvents: true,
	}
	ps := NewPrefetchService(c, source)

	ps.RefreshPeriod(period.VIEW_MONTH, "2025-11", false)

	entry, ok := c.Get("2025-11", false)
	if !ok {
		t.Fatal("reservations alone are still worth caching")
	}
	if len(entry.Reservations) != 1 || len(entry.Conversations) != 0 {
		t.Errorf("expected reservations without conversations, got %+v", entry)
	}
}

func TestRefreshPeriod_ReservationFailureLeavesCacheUntouched(t *testing.T) {
	c := cache.NewPeriodCache()
	ps := NewPrefetchService(c, &stubBookingAPI{failFetch: true})

	ps.RefreshPeriod(period.VIEW_MONTH, "2025-11", false)

	if c.Has("2025-11", false) {
		t.Error("a failed fetch must not cache an entry")
	}
}

func TestPrefetchMissing_SkipsCachedPeriods(t *testing.T) {
	c := cache.NewPeriodCache()
	c.Set("2025-10", false, cache.NewEntry())
	source := &stubBookingAPI{}
	ps := NewPrefetchService(c, source)

	ps.PrefetchMissing(period.VIEW_MONTH, []string{"2025-10", "2025-11"}, false)

	waitForEntry(t, c, "2025-11", false)
	if got := source.calls(); got != 1 {
		t.Errorf("expected exactly one fetch for the missing period, got %d", got)
	}
}
