package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/leaguetracker/internal/api/response"
	"github.com/mcoot/leaguetracker/internal/hiscores"
)

// RosterHandler proxies single ranking pages from the hiscores
type RosterHandler struct {
	source hiscores.RosterSource
	logger *slog.Logger
}

// NewRosterHandler creates a new roster handler
func NewRosterHandler(source hiscores.RosterSource, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{source: source, logger: logger}
}

// Page handles GET /api/v1/roster/pages/{page}
func (h *RosterHandler) Page(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["page"])
	if err != nil || index < 0 {
		WriteError(w, NewInvalidRequestError("page must be a non-negative integer"))
		return
	}

	page, err := h.source.FetchPage(r.Context(), index)
	if err != nil {
		h.logger.Warn("roster page fetch failed",
			slog.Int("page", index),
			slog.String("error", err.Error()),
		)
		WriteError(w, NewUpstreamError())
		return
	}

	response.JSON(w, http.StatusOK, response.RosterPageFromSource(page))
}
