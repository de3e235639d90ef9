package models

import "time"

// Calendar entry kinds as rendered on the grid. Checkup/followup mirror
// the reservation type values; conversations render independently and are
// never time-packed.
const (
	ENTRY_KIND_CHECKUP      = 0
	ENTRY_KIND_FOLLOWUP     = 1
	ENTRY_KIND_CONVERSATION = 2
)

// CalendarEntry is one rendered occupant of the calendar grid. SlotDate
// and SlotTime identify the coarse bucket the entry belongs to; Start/End
// are the concrete collision-free range assigned by the layout engine.
type CalendarEntry struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Kind      int       `json:"kind"`
	Cancelled bool      `json:"cancelled"`
	SlotDate  string    `json:"slot_date"` // YYYY-MM-DD
	SlotTime  string    `json:"slot_time"` // HH:MM
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}
