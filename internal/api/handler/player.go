package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/leaguetracker/internal/api/response"
	"github.com/mcoot/leaguetracker/internal/storage"
)

// PlayerHandler serves recorded player stats
type PlayerHandler struct {
	store storage.Storage
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(store storage.Storage) *PlayerHandler {
	return &PlayerHandler{store: store}
}

// Stats handles GET /api/v1/players/{name}/stats
func (h *PlayerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	snap, err := h.store.LatestSnapshot(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}

	history, err := h.store.ListSnapshots(r.Context(), name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerStatsFromModel(snap, len(history)))
}
