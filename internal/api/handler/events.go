package handler

import (
	"net/http"

	"github.com/mcoot/leaguetracker/internal/sse"
)

// EventsHandler streams tracker events
type EventsHandler struct {
	hub *sse.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *sse.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sse.Serve(w, r, h.hub, w.Header().Get("X-Request-ID"))
}
