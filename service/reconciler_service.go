package services

import (
	"log"
	"sort"
	"sync"
	"time"

	"sched-server/cache"
	"sched-server/models"
	"sched-server/period"
)

// Normalized lifecycle kinds, after stripping the optional
// "reservation_" prefix from the wire type.
const (
	EVENT_CREATED    = "created"
	EVENT_UPDATED    = "updated"
	EVENT_REINSTATED = "reinstated"
	EVENT_CANCELLED  = "cancelled"
)

// now is swapped out by tests exercising the suppression window.
var now = time.Now

// ReconcilerService drains realtime lifecycle events and patches resident
// cache entries in place. Successful reconciliation never refetches; a
// false return from Handle tells the caller the event was unroutable and
// a broad invalidation is the safe fallback.
type ReconcilerService struct {
	cache *cache.PeriodCache

	mu            sync.Mutex
	suppressUntil time.Time

	events      chan models.RealtimeEvent
	onUnhandled func()
}

// NewReconcilerService constructs a reconciler over the period cache.
// onUnhandled is the caller's fallback policy for unroutable events,
// typically ScheduleService.InvalidateAll.
func NewReconcilerService(periodCache *cache.PeriodCache, queueSize int, onUnhandled func()) *ReconcilerService {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &ReconcilerService{
		cache:       periodCache,
		events:      make(chan models.RealtimeEvent, queueSize),
		onUnhandled: onUnhandled,
	}
}

// Enqueue queues an event for the drain loop. Arrival order is preserved;
// delivery is at-least-once, which Handle tolerates by being idempotent.
func (rs *ReconcilerService) Enqueue(evt models.RealtimeEvent) {
	rs.events <- evt
}

// Start launches the background drain loop.
func (rs *ReconcilerService) Start() {
	go rs.drain()
}

func (rs *ReconcilerService) drain() {
	for evt := range rs.events {
		if rs.Handle(evt) {
			continue
		}
		log.Printf("[ReconcilerService] Unroutable event type=%q, falling back to invalidation", evt.Type)
		if rs.onUnhandled != nil {
			rs.onUnhandled()
		}
	}
}

// SuppressUntil ignores incoming events until t. The surrounding app sets
// this while applying its own optimistic edits so the echoed events do not
// thrash the cache.
func (rs *ReconcilerService) SuppressUntil(t time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.suppressUntil = t
}

func (rs *ReconcilerService) suppressed() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return now().Before(rs.suppressUntil)
}

// Handle applies one event to every resident cache entry in a single
// pass. The boolean reports whether the event was recognized and routed;
// handled-but-ignored echoes report true. Handle never panics: malformed
// payloads at worst decline to apply.
func (rs *ReconcilerService) Handle(evt models.RealtimeEvent) bool {
	kind, ok := models.NormalizeEventType(evt.Type)
	if !ok {
		return false
	}

	// Echoes of this client's own optimistic mutations were already
	// applied locally.
	if evt.Data.Origin == models.ORIGIN_SELF || rs.suppressed() {
		return true
	}

	p := evt.Data
	if !p.HasID && p.CustomerID == "" {
		return false
	}

	if p.Date == "" {
		if kind != EVENT_CANCELLED {
			return false
		}
		// Payload too sparse to target a single record: purge instead.
		if p.CustomerID == "" {
			return rs.purgeByID(p.ID)
		}
		rs.purgeByCustomer(p.CustomerID)
		return true
	}

	eventDate, err := time.ParseInLocation("2006-01-02", p.Date, time.Local)
	if err != nil {
		return false
	}

	return rs.sync(kind, p, eventDate)
}

// sync removes any record matching the resolved identity from every
// resident entry, rebuilds a normalized record, and re-inserts it into
// each entry whose range contains the event date. Remove-then-insert
// keeps replays idempotent.
func (rs *ReconcilerService) sync(kind string, p models.ReservationPayload, eventDate time.Time) bool {
	cancelled := kind == EVENT_CANCELLED
	handled := false

	rs.cache.WithEntries(func(entries map[cache.EntryKey]*cache.Entry) {
		matches := func(r models.Reservation) bool {
			if p.HasID && r.ID != 0 {
				return r.ID == p.ID
			}
			return r.CustomerID == p.CustomerID &&
				r.Date == p.Date &&
				models.TruncateTimeSlot(r.TimeSlot) == models.TruncateTimeSlot(p.TimeSlot)
		}

		var prev *models.Reservation
		removedAny := false
		for _, e := range entries {
			for customer, records := range e.Reservations {
				kept := records[:0]
				for _, r := range records {
					if matches(r) {
						replaced := r
						prev = &replaced
						removedAny = true
						continue
					}
					kept = append(kept, r)
				}
				if len(kept) == 0 {
					delete(e.Reservations, customer)
				} else {
					e.Reservations[customer] = kept
				}
			}
		}

		customer := p.CustomerID
		if customer == "" && prev != nil {
			customer = prev.CustomerID
		}
		if customer == "" {
			// No customer to rebuild under; the removal alone is the action.
			handled = removedAny
			return
		}

		record := buildRecord(p, prev, customer, cancelled)

		inserted := false
		for key, e := range entries {
			rng, ok := period.RangeOf(key.Period)
			if !ok || !rng.Contains(eventDate) {
				// The record no longer belongs to this bucket; it stays removed.
				continue
			}
			if cancelled && !key.Roam {
				// Non-roam views never show cancelled reservations.
				continue
			}
			e.Reservations[customer] = append(e.Reservations[customer], record)
			sortReservations(e.Reservations[customer])
			inserted = true
		}
		handled = removedAny || inserted
	})
	return handled
}

// buildRecord assembles the normalized record carried by a sync, filling
// gaps in the payload from the record it replaces.
func buildRecord(p models.ReservationPayload, prev *models.Reservation, customer string, cancelled bool) models.Reservation {
	record := models.Reservation{
		CustomerID: customer,
		Date:       p.Date,
		TimeSlot:   models.TruncateTimeSlot(p.TimeSlot),
		Cancelled:  cancelled,
	}
	if p.HasID {
		record.ID = p.ID
	} else if prev != nil {
		record.ID = prev.ID
	}
	if record.TimeSlot == "" && prev != nil {
		record.TimeSlot = models.TruncateTimeSlot(prev.TimeSlot)
	}
	if p.HasType {
		record.Type = p.Type
	} else if prev != nil {
		record.Type = prev.Type
	}
	// Name fallback chain: payload, then the replaced record, then the
	// customer id itself.
	record.CustomerName = p.CustomerName
	if record.CustomerName == "" && prev != nil {
		record.CustomerName = prev.CustomerName
	}
	if record.CustomerName == "" {
		record.CustomerName = customer
	}
	return record
}

// purgeByCustomer removes all of a customer's reservations from every
// resident entry without reinsertion. Idempotent, so always handled.
func (rs *ReconcilerService) purgeByCustomer(customerID string) {
	rs.cache.WithEntries(func(entries map[cache.EntryKey]*cache.Entry) {
		for _, e := range entries {
			delete(e.Reservations, customerID)
		}
	})
}

// purgeByID removes the record with the given id from every resident
// entry. Reports whether anything was removed, since an id-only purge
// that touches nothing cannot be confirmed as applied.
func (rs *ReconcilerService) purgeByID(id int64) bool {
	removed := false
	rs.cache.WithEntries(func(entries map[cache.EntryKey]*cache.Entry) {
		for _, e := range entries {
			for customer, records := range e.Reservations {
				kept := records[:0]
				for _, r := range records {
					if r.ID == id {
						removed = true
						continue
					}
					kept = append(kept, r)
				}
				if len(kept) == 0 {
					delete(e.Reservations, customer)
				} else {
					e.Reservations[customer] = kept
				}
			}
		}
	})
	return removed
}

// sortReservations keeps a customer's records ordered by date + normalized
// time so consumers can assume chronological order.
func sortReservations(records []models.Reservation) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SortKey() < records[j].SortKey()
	})
}
