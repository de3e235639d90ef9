package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// ScheduleHandler is the subset of handler methods the router binds;
// router tests swap in a mock.
type ScheduleHandler interface {
	GetResidentPeriods(w http.ResponseWriter, r *http.Request)
	GetMergedView(w http.ResponseWriter, r *http.Request)
	LayoutSlot(w http.ResponseWriter, r *http.Request)
	IngestEvent(w http.ResponseWriter, r *http.Request)
	Ping(w http.ResponseWriter, r *http.Request)
}

type Router struct {
	scheduleHandler ScheduleHandler
	router          *mux.Router
}

// NewRouter creates a router with the app’s routes.
func NewRouter(
	scheduleHandler ScheduleHandler,
	router *mux.Router) *Router {
	return &Router{
		scheduleHandler: scheduleHandler,
		router:          router,
	}
}

func (r *Router) RegisterRoutes() {
	// expects ?view={view}&anchor={YYYY-MM-DD}&radius={int}&roam={bool}
	r.router.HandleFunc("/v1/schedule/periods", r.scheduleHandler.GetResidentPeriods).Methods("GET")
	r.router.HandleFunc("/v1/schedule/view", r.scheduleHandler.GetMergedView).Methods("GET")
	r.router.HandleFunc("/v1/schedule/layout", r.scheduleHandler.LayoutSlot).Methods("POST")

	// realtime lifecycle webhook
	r.router.HandleFunc("/v1/events", r.scheduleHandler.IngestEvent).Methods("POST")

	r.router.HandleFunc("/ping", r.scheduleHandler.Ping).Methods("GET")
}
