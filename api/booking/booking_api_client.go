package booking

import (
	"fmt"

	"sched-server/api"
	"sched-server/models"
	"sched-server/period"
)

// BookingApiClient embeds the common HTTPClient
type BookingApiClient struct {
	*api.HTTPClient // Embed HTTPClient to reuse its methods and properties
}

// NewBookingApiClient creates a new instance of BookingApiClient
func NewBookingApiClient(httpClient *api.HTTPClient) *BookingApiClient {
	return &BookingApiClient{
		HTTPClient: httpClient,
	}
}

// FetchReservations retrieves reservations-by-customer for a period range.
func (c *BookingApiClient) FetchReservations(rng period.Range, roam bool) (map[string][]models.Reservation, error) {
	endpoint := fmt.Sprintf(
		"/reservations?start=%s&end=%s&include_cancelled=%t",
		rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"), roam,
	)
	var response map[string][]models.Reservation
	if err := c.Request("GET", endpoint, nil, nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}

// FetchConversationEvents retrieves conversation events-by-customer for a period range.
func (c *BookingApiClient) FetchConversationEvents(rng period.Range) (map[string][]models.ConversationEvent, error) {
	endpoint := fmt.Sprintf(
		"/conversations?start=%s&end=%s",
		rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"),
	)
	var response map[string][]models.ConversationEvent
	if err := c.Request("GET", endpoint, nil, nil, &response); err != nil {
		return nil, err
	}
	return response, nil
}
