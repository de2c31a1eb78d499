package handler

import (
	"net/http"

	"github.com/mcoot/leaguetracker/internal/api/response"
	"github.com/mcoot/leaguetracker/internal/storage"
)

// LeaderboardHandler serves the cached top players
type LeaderboardHandler struct {
	store storage.Storage
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(store storage.Storage) *LeaderboardHandler {
	return &LeaderboardHandler{store: store}
}

// Get handles GET /api/v1/leaderboard
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.GetLeaderboard(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(entries))
}
