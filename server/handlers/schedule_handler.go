package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sched-server/config"
	redisdao "sched-server/dao/redis"
	"sched-server/models"
	"sched-server/period"
	services "sched-server/service"
)

const (
	VIEW_QUERY_ARG   = "view"
	ANCHOR_QUERY_ARG = "anchor"
	RADIUS_QUERY_ARG = "radius"
	ROAM_QUERY_ARG   = "roam"
)

// PeriodsResponse is returned by GET /v1/schedule/periods.
type PeriodsResponse struct {
	Periods []string `json:"periods"`
}

// MergedViewResponse pairs the resident periods with their merged records.
type MergedViewResponse struct {
	Periods       []string                              `json:"periods"`
	Reservations  map[string][]models.Reservation       `json:"reservations"`
	Conversations map[string][]models.ConversationEvent `json:"conversations"`
}

// LayoutRequest is the body of POST /v1/schedule/layout.
type LayoutRequest struct {
	SlotDate string                 `json:"slot_date"`
	SlotTime string                 `json:"slot_time"`
	Entries  []models.CalendarEntry `json:"entries"`
}

type ScheduleHandler struct {
	scheduleService *services.ScheduleService
	reconciler      *services.ReconcilerService
	scheduleDao     *redisdao.RedisScheduleDAO
}

func NewScheduleHandler(
	scheduleService *services.ScheduleService,
	reconciler *services.ReconcilerService,
	scheduleDao *redisdao.RedisScheduleDAO) *ScheduleHandler {

	return &ScheduleHandler{
		scheduleService: scheduleService,
		reconciler:      reconciler,
		scheduleDao:     scheduleDao,
	}
}

// GetResidentPeriods handles GET /v1/schedule/periods.
func (h *ScheduleHandler) GetResidentPeriods(w http.ResponseWriter, r *http.Request) {
	view, anchor, radius, roam, ok := h.parseArgs(r.URL.Query(), w)
	if !ok {
		return // error already written
	}

	periods := h.scheduleService.ResidentPeriods(view, anchor, radius, roam)

	writeJSON(w, PeriodsResponse{Periods: periods})
}

// GetMergedView handles GET /v1/schedule/view: it advances the window for
// the requested anchor and returns everything currently cached for it.
func (h *ScheduleHandler) GetMergedView(w http.ResponseWriter, r *http.Request) {
	view, anchor, radius, roam, ok := h.parseArgs(r.URL.Query(), w)
	if !ok {
		return
	}

	periods := h.scheduleService.ResidentPeriods(view, anchor, radius, roam)
	merged := h.scheduleService.MergedView(periods, roam)

	writeJSON(w, MergedViewResponse{
		Periods:       periods,
		Reservations:  merged.Reservations,
		Conversations: merged.Conversations,
	})
}

// LayoutSlot handles POST /v1/schedule/layout.
func (h *ScheduleHandler) LayoutSlot(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid layout request body", http.StatusBadRequest)
		return
	}
	if req.SlotDate == "" || req.SlotTime == "" {
		http.Error(w, "slot_date and slot_time are required", http.StatusBadRequest)
		return
	}

	entries := make([]*models.CalendarEntry, len(req.Entries))
	for i := range req.Entries {
		entries[i] = &req.Entries[i]
	}
	positioned := h.scheduleService.LayoutSlot(entries, req.SlotDate, req.SlotTime)

	result := make([]models.CalendarEntry, 0, len(positioned))
	for _, e := range positioned {
		result = append(result, *e)
	}
	writeJSON(w, result)
}

// IngestEvent handles POST /v1/events: the realtime webhook. The event is
// persisted first so a later refetch is authoritative, then queued for
// in-place reconciliation.
func (h *ScheduleHandler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	var evt models.RealtimeEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		http.Error(w, "Invalid event body", http.StatusBadRequest)
		return
	}
	kind, ok := models.NormalizeEventType(evt.Type)
	if !ok {
		http.Error(w, "Unknown event type", http.StatusBadRequest)
		return
	}

	h.persistEvent(kind, evt.Data)
	h.reconciler.Enqueue(evt)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "queued"})
}

// persistEvent mirrors the lifecycle event into the redis day documents.
// Failures only log: the reconciler still patches the cache, and the next
// scheduled refresh retries against whatever redis holds.
func (h *ScheduleHandler) persistEvent(kind string, p models.ReservationPayload) {
	if h.scheduleDao == nil || p.CustomerID == "" || p.Date == "" {
		return
	}
	record := models.Reservation{
		CustomerID:   p.CustomerID,
		CustomerName: p.CustomerName,
		Date:         p.Date,
		TimeSlot:     models.TruncateTimeSlot(p.TimeSlot),
		Type:         p.Type,
		Cancelled:    kind == services.EVENT_CANCELLED,
	}
	if p.HasID {
		record.ID = p.ID
	}
	if err := h.scheduleDao.UpsertReservation(record); err != nil {
		log.Printf("[ScheduleHandler] Failed to persist event for %s: %v", p.CustomerID, err)
	}
}

// Ping handles GET /ping
func (h *ScheduleHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "pong"})
}

func (h *ScheduleHandler) parseArgs(vals url.Values, w http.ResponseWriter) (
	view period.View, anchor time.Time, radius int, roam bool, ok bool,
) {
	view, err := parseArgView(vals)
	if err != nil {
		http.Error(w, "Invalid argument "+VIEW_QUERY_ARG, http.StatusBadRequest)
		return
	}

	anchor = time.Now()
	if v := vals.Get(ANCHOR_QUERY_ARG); v != "" {
		anchor, err = time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			http.Error(w, "Invalid argument "+ANCHOR_QUERY_ARG, http.StatusBadRequest)
			return
		}
	}

	radius = config.DEFAULT_WINDOW_RADIUS
	if v := vals.Get(RADIUS_QUERY_ARG); v != "" {
		radius, err = strconv.Atoi(v)
		if err != nil || radius < 0 {
			http.Error(w, "Invalid argument "+RADIUS_QUERY_ARG, http.StatusBadRequest)
			return
		}
	}

	roam = false
	if v := vals.Get(ROAM_QUERY_ARG); v != "" {
		roam, _ = strconv.ParseBool(v)
	}
	ok = true
	return
}

func parseArgView(vals url.Values) (period.View, error) {
	v := vals.Get(VIEW_QUERY_ARG)
	switch period.View(v) {
	case period.VIEW_YEAR, period.VIEW_MONTH, period.VIEW_WEEK, period.VIEW_DAY:
		return period.View(v), nil
	case "":
		return period.VIEW_MONTH, nil
	}
	return "", fmt.Errorf("unknown view %q", v)
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Println("Error encoding response:", err)
	}
}
