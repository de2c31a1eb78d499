package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/leaguetracker/internal/api/request"
	"github.com/mcoot/leaguetracker/internal/api/response"
	"github.com/mcoot/leaguetracker/internal/services/identity"
)

// AccountHandler handles account setup
type AccountHandler struct {
	reconciler *identity.Reconciler
	logger     *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(reconciler *identity.Reconciler, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		reconciler: reconciler,
		logger:     logger,
	}
}

// Setup handles POST /api/v1/accounts/setup
func (h *AccountHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req request.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.AccountHash == "" {
		WriteError(w, NewInvalidRequestError("account_hash is required"))
		return
	}
	if req.DisplayName == "" {
		WriteError(w, NewInvalidRequestError("display_name is required"))
		return
	}

	_, err := h.reconciler.Setup(r.Context(), string(req.AccountHash), req.DisplayName)
	if err != nil {
		h.logger.Error("account setup failed",
			slog.String("account_hash", string(req.AccountHash)),
			slog.String("error", err.Error()),
		)
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.OK{OK: true})
}
