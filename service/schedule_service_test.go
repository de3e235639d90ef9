package services

import (
	"testing"
	"time"

	"sched-server/cache"
	"sched-server/config"
	"sched-server/models"
	"sched-server/period"
)

func newScheduleService(source *stubBookingAPI) (*ScheduleService, *cache.PeriodCache) {
	c := cache.NewPeriodCache()
	window := cache.NewWindowManager(c, config.RESIDENT_BUFFER_SIZE, false)
	return NewScheduleService(window, c, NewPrefetchService(c, source)), c
}

func TestResidentPeriods_ReturnsWindowAndHydrates(t *testing.T) {
	source := &stubBookingAPI{
		reservations: map[string][]models.Reservation{
			"966512345678": {{ID: 101, CustomerID: "966512345678", Date: "2025-11-03", TimeSlot: "10:00"}},
		},
	}
	ss, c := newScheduleService(source)

	periods := ss.ResidentPeriods(period.VIEW_MONTH, time.Date(2025, time.November, 15, 0, 0, 0, 0, time.Local), 1, true)

	want := []string{"2025-10", "2025-11", "2025-12"}
	if len(periods) != len(want) {
		t.Fatalf("resident periods = %v, want %v", periods, want)
	}
	for i := range want {
		if periods[i] != want[i] {
			t.Errorf("periods[%d] = %q, want %q", i, periods[i], want[i])
		}
	}

	for _, k := range want {
		waitForEntry(t, c, k, true)
	}
}

func TestMergedView_CombinesResidentPeriods(t *testing.T) {
	ss, c := newScheduleService(&stubBookingAPI{})

	for _, p := range []string{"2025-10", "2025-11"} {
		e := cache.NewEntry()
		e.Reservations["966512345678"] = []models.Reservation{
			{ID: 1, CustomerID: "966512345678", Date: p + "-03", TimeSlot: "10:00"},
		}
		c.Set(p, false, e)
	}

	merged := ss.MergedView([]string{"2025-10", "2025-11"}, false)

	// Same id in both periods: last writer wins, no duplicate.
	if got := len(merged.Reservations["966512345678"]); got != 1 {
		t.Errorf("expected 1 deduped record, got %d", got)
	}
}

func TestInvalidateAll_ClearsAndRefetchesResidents(t *testing.T) {
	source := &stubBookingAPI{
		reservations: map[string][]models.Reservation{
			"966512345678": {{ID: 101, CustomerID: "966512345678", Date: "2025-11-03", TimeSlot: "10:00"}},
		},
	}
	ss, c := newScheduleService(source)

	resident := ss.ResidentPeriods(period.VIEW_MONTH, time.Date(2025, time.November, 15, 0, 0, 0, 0, time.Local), 1, true)
	for _, k := range resident {
		waitForEntry(t, c, k, true)
	}

	ss.InvalidateAll()

	for _, k := range resident {
		entry := waitForEntry(t, c, k, true)
		if len(entry.Reservations) != 1 {
			t.Errorf("refetched entry %q missing data: %+v", k, entry)
		}
	}
}
