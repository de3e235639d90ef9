package layout

import (
	"sort"
	"strings"
	"time"

	"sched-server/models"
)

// Layout policy: entries in a dense slot (6+) get the short duration so
// the group still fits; a fixed gap separates consecutive entries.
const (
	DENSE_GROUP_SIZE        = 6
	DENSE_DURATION_MINUTES  = 15
	NORMAL_DURATION_MINUTES = 20
	GAP_MINUTES             = 1
)

// LayoutSlot assigns non-overlapping start/end times to every active
// entry in the (slotDate, slotBaseTime) bucket.
//
// Conversation entries and cancelled entries render independently and are
// excluded. The group is ordered by kind ascending then case-insensitive
// title, and each entry gets a sequential sub-range offset from the
// slot's base time. Entries are updated in place; re-running on an
// unchanged group yields identical positions.
func LayoutSlot(entries []*models.CalendarEntry, slotDate, slotBaseTime string) []*models.CalendarEntry {
	base, err := time.ParseInLocation("2006-01-02 15:04", slotDate+" "+models.TruncateTimeSlot(slotBaseTime), time.Local)
	if err != nil {
		// An unparseable bucket cannot be positioned; leave entries as-is.
		return nil
	}

	group := make([]*models.CalendarEntry, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Kind == models.ENTRY_KIND_CONVERSATION || e.Cancelled {
			continue
		}
		if e.SlotDate != slotDate || models.TruncateTimeSlot(e.SlotTime) != models.TruncateTimeSlot(slotBaseTime) {
			continue
		}
		group = append(group, e)
	}

	sort.SliceStable(group, func(i, j int) bool {
		if group[i].Kind != group[j].Kind {
			return group[i].Kind < group[j].Kind
		}
		return strings.ToLower(group[i].Title) < strings.ToLower(group[j].Title)
	})

	duration := NORMAL_DURATION_MINUTES
	if len(group) >= DENSE_GROUP_SIZE {
		duration = DENSE_DURATION_MINUTES
	}

	offset := 0
	for _, e := range group {
		e.Start = base.Add(time.Duration(offset) * time.Minute)
		e.End = e.Start.Add(time.Duration(duration) * time.Minute)
		e.SlotDate = slotDate
		e.SlotTime = models.TruncateTimeSlot(slotBaseTime)
		offset += duration + GAP_MINUTES
	}
	return group
}
