package services

import (
	"log"
	"time"

	"sched-server/cache"
	"sched-server/layout"
	"sched-server/models"
	"sched-server/period"
)

// ScheduleService is the query surface the rendering layer talks to:
// resident periods, the merged view, and slot layout.
type ScheduleService struct {
	window   *cache.WindowManager
	cache    *cache.PeriodCache
	prefetch *PrefetchService
}

// NewScheduleService wires the window manager, cache and prefetcher.
func NewScheduleService(
	window *cache.WindowManager,
	periodCache *cache.PeriodCache,
	prefetch *PrefetchService) *ScheduleService {

	return &ScheduleService{
		window:   window,
		cache:    periodCache,
		prefetch: prefetch,
	}
}

// ResidentPeriods recomputes the window for a navigation step, kicks off
// prefetches for the gaps, applies evictions, and returns the keys that
// should be resident. Prefetching is fire-and-forget: the caller gets the
// keys immediately and the cache fills in behind.
func (ss *ScheduleService) ResidentPeriods(view period.View, anchor time.Time, radius int, roam bool) []string {
	result := ss.window.Update(view, anchor, radius, roam)
	if result.Reset {
		log.Printf("[ScheduleService] View changed to %s, window reset", view)
	}
	ss.prefetch.PrefetchMissing(view, result.Added, roam)
	return result.Resident
}

// MergedView merges the given resident periods into one logical view.
func (ss *ScheduleService) MergedView(periods []string, roam bool) models.MergedView {
	return ss.cache.MergeAll(periods, roam)
}

// LayoutSlot positions the entries of one (date, base time) bucket.
func (ss *ScheduleService) LayoutSlot(entries []*models.CalendarEntry, slotDate, slotBaseTime string) []*models.CalendarEntry {
	return layout.LayoutSlot(entries, slotDate, slotBaseTime)
}

// InvalidateAll clears every cached period and refetches the ones still
// resident. This is the conservative fallback for events the reconciler
// cannot route.
func (ss *ScheduleService) InvalidateAll() {
	log.Println("[ScheduleService] Invalidating all cached periods")
	ss.cache.Clear()
	ss.prefetch.PrefetchMissing(ss.window.View(), ss.window.Resident(), ss.window.Roam())
}
