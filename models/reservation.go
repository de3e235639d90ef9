package models

import "fmt"

// Reservation type values.
const (
	RESERVATION_TYPE_CHECKUP  = 0
	RESERVATION_TYPE_FOLLOWUP = 1
)

// Reservation is a single booked time slot for a customer (wa_id).
type Reservation struct {
	ID           int64  `json:"id,omitempty"`
	CustomerID   string `json:"wa_id"`
	CustomerName string `json:"customer_name,omitempty"`
	Date         string `json:"date"`      // YYYY-MM-DD
	TimeSlot     string `json:"time_slot"` // HH:MM, tolerated as HH:MM:SS on input
	Type         int    `json:"type"`
	Cancelled    bool   `json:"cancelled"`
}

// IdentityKey returns the dedup identity for a reservation: the primary
// key when present, otherwise the (customer, date, truncated slot)
// composite used as a fallback identity.
func (r Reservation) IdentityKey() string {
	if r.ID != 0 {
		return fmt.Sprintf("id:%d", r.ID)
	}
	return r.CustomerID + "|" + r.Date + "|" + TruncateTimeSlot(r.TimeSlot)
}

// SortKey orders reservations chronologically within a customer.
func (r Reservation) SortKey() string {
	return r.Date + " " + TruncateTimeSlot(r.TimeSlot)
}

// TruncateTimeSlot normalizes a time slot to HH:MM, dropping seconds if a
// source sent them.
func TruncateTimeSlot(slot string) string {
	if len(slot) > 5 {
		return slot[:5]
	}
	return slot
}
