package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sched-server/cache"
	redisdao "sched-server/dao/redis"
	"sched-server/db"
	"sched-server/models"
	"sched-server/period"
	services "sched-server/service"
)

// stubSource serves fixed data so handler tests need no upstream.
type stubSource struct {
	reservations map[string][]models.Reservation
}

func (s *stubSource) FetchReservations(rng period.Range, roam bool) (map[string][]models.Reservation, error) {
	return s.reservations, nil
}

func (s *stubSource) FetchConversationEvents(rng period.Range) (map[string][]models.ConversationEvent, error) {
	return nil, nil
}

func newTestHandler() (*ScheduleHandler, *redisdao.RedisScheduleDAO) {
	periodCache := cache.NewPeriodCache()
	window := cache.NewWindowManager(periodCache, cache.RESIDENT_BUFFER_SIZE, false)
	prefetch := services.NewPrefetchService(periodCache, &stubSource{})
	scheduleService := services.NewScheduleService(window, periodCache, prefetch)
	reconciler := services.NewReconcilerService(periodCache, 8, nil)
	dao := redisdao.NewRedisScheduleDAO(db.NewMockRedisClient(context.Background()))
	return NewScheduleHandler(scheduleService, reconciler, dao), dao
}

func TestGetResidentPeriods(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest("GET", "/v1/schedule/periods?view=dayGridMonth&anchor=2025-11-15&radius=2&roam=true", nil)
	rr := httptest.NewRecorder()

	handler.GetResidentPeriods(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp PeriodsResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2025-09", "2025-10", "2025-11", "2025-12", "2026-01"}, resp.Periods)
}

func TestGetResidentPeriods_BadArguments(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"unknown view", "view=quarterGrid"},
		{"malformed anchor", "anchor=15-11-2025"},
		{"non-numeric radius", "radius=five"},
		{"negative radius", "radius=-1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler, _ := newTestHandler()
			req := httptest.NewRequest("GET", "/v1/schedule/periods?"+test.query, nil)
			rr := httptest.NewRecorder()

			handler.GetResidentPeriods(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestGetMergedView(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest("GET", "/v1/schedule/view?view=dayGridMonth&anchor=2025-11-15&radius=1&roam=true", nil)
	rr := httptest.NewRecorder()

	handler.GetMergedView(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp MergedViewResponse
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"2025-10", "2025-11", "2025-12"}, resp.Periods)
	// Hydration is asynchronous; the response shape is what matters here.
	assert.NotNil(t, resp.Reservations)
	assert.NotNil(t, resp.Conversations)
}

func TestLayoutSlot(t *testing.T) {
	handler, _ := newTestHandler()

	body := LayoutRequest{
		SlotDate: "2025-11-03",
		SlotTime: "10:00",
		Entries: []models.CalendarEntry{
			{ID: "b", Title: "Sara Alqahtani", Kind: models.ENTRY_KIND_CHECKUP, SlotDate: "2025-11-03", SlotTime: "10:00"},
			{ID: "a", Title: "Lina Farouk", Kind: models.ENTRY_KIND_CHECKUP, SlotDate: "2025-11-03", SlotTime: "10:00"},
		},
	}
	data, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/v1/schedule/layout", strings.NewReader(string(data)))
	rr := httptest.NewRecorder()

	handler.LayoutSlot(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var positioned []models.CalendarEntry
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &positioned))
	if assert.Len(t, positioned, 2) {
		assert.Equal(t, "a", positioned[0].ID, "entries sorted by title")
		assert.True(t, positioned[1].Start.After(positioned[0].Start))
	}
}

func TestLayoutSlot_BadRequests(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest("POST", "/v1/schedule/layout", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.LayoutSlot(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest("POST", "/v1/schedule/layout", strings.NewReader(`{"entries": []}`))
	rr = httptest.NewRecorder()
	handler.LayoutSlot(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestIngestEvent_QueuesAndPersists(t *testing.T) {
	handler, dao := newTestHandler()

	body := `{
		"type": "reservation_created",
		"data": {
			"id": 7,
			"wa_id": "966512345678",
			"customer_name": "Sara Alqahtani",
			"date": "2025-11-05",
			"time_slot": "09:00:00"
		}
	}`
	req := httptest.NewRequest("POST", "/v1/events", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.IngestEvent(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])

	// The event is mirrored into the day documents before reconciliation.
	stored, err := dao.FetchReservations(period.Decode(period.VIEW_DAY, "2025-11-05"), true)
	assert.NoError(t, err)
	if assert.Len(t, stored["966512345678"], 1) {
		r := stored["966512345678"][0]
		assert.Equal(t, int64(7), r.ID)
		assert.Equal(t, "09:00", r.TimeSlot)
		assert.False(t, r.Cancelled)
	}
}

func TestIngestEvent_CancellationPersistsFlag(t *testing.T) {
	handler, dao := newTestHandler()

	body := `{
		"type": "cancelled",
		"data": {"id": 7, "wa_id": "966512345678", "date": "2025-11-05", "time_slot": "09:00"}
	}`
	req := httptest.NewRequest("POST", "/v1/events", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.IngestEvent(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	stored, err := dao.FetchReservations(period.Decode(period.VIEW_DAY, "2025-11-05"), true)
	assert.NoError(t, err)
	if assert.Len(t, stored["966512345678"], 1) {
		assert.True(t, stored["966512345678"][0].Cancelled)
	}
}

func TestIngestEvent_Rejections(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest("POST", "/v1/events", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.IngestEvent(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	req = httptest.NewRequest("POST", "/v1/events", strings.NewReader(`{"type": "rescheduled", "data": {}}`))
	rr = httptest.NewRecorder()
	handler.IngestEvent(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPing(t *testing.T) {
	handler, _ := newTestHandler()

	req := httptest.NewRequest("GET", "/ping", nil)
	rr := httptest.NewRecorder()

	handler.Ping(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "{\"status\":\"pong\"}\n", rr.Body.String())
}
