package booking

import (
	"fmt"
	"time"

	"sched-server/config"
	"sched-server/models"
	"sched-server/period"
	"sched-server/util"
)

// BookingApiClientMock serves fixture data from disk, filtered to the
// requested period range. Used outside prod so the server runs without an
// upstream booking API.
type BookingApiClientMock struct {
	ReservationsPath  string
	ConversationsPath string
}

// NewBookingApiClientMock creates a mock backed by the bundled resources.
func NewBookingApiClientMock() *BookingApiClientMock {
	return &BookingApiClientMock{
		ReservationsPath:  config.GetResourcePath(config.RESERVATIONS_FIXTURE),
		ConversationsPath: config.GetResourcePath(config.CONVERSATIONS_FIXTURE),
	}
}

// FetchReservations loads the reservations fixture and keeps records whose
// date falls inside the range; cancelled records only survive under roam.
func (c *BookingApiClientMock) FetchReservations(rng period.Range, roam bool) (map[string][]models.Reservation, error) {
	all, err := util.ReadReservationsFromJSON(c.ReservationsPath)
	if err != nil {
		fmt.Println("Could not read reservations fixture from json")
		return nil, err
	}

	result := make(map[string][]models.Reservation)
	for customer, records := range all {
		for _, r := range records {
			if !dateInRange(r.Date, rng) {
				continue
			}
			if r.Cancelled && !roam {
				continue
			}
			result[customer] = append(result[customer], r)
		}
	}
	return result, nil
}

// FetchConversationEvents loads the conversations fixture filtered to the range.
func (c *BookingApiClientMock) FetchConversationEvents(rng period.Range) (map[string][]models.ConversationEvent, error) {
	all, err := util.ReadConversationEventsFromJSON(c.ConversationsPath)
	if err != nil {
		fmt.Println("Could not read conversations fixture from json")
		return nil, err
	}

	result := make(map[string][]models.ConversationEvent)
	for customer, events := range all {
		for _, e := range events {
			if !dateInRange(e.Date, rng) {
				continue
			}
			result[customer] = append(result[customer], e)
		}
	}
	return result, nil
}

func dateInRange(date string, rng period.Range) bool {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return false
	}
	return rng.Contains(d)
}
