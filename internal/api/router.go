package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/leaguetracker/internal/api/apierr"
	"github.com/mcoot/leaguetracker/internal/api/handler"
	"github.com/mcoot/leaguetracker/internal/api/middleware"
	"github.com/mcoot/leaguetracker/internal/api/response"
	"github.com/mcoot/leaguetracker/internal/hiscores"
	"github.com/mcoot/leaguetracker/internal/services/identity"
	"github.com/mcoot/leaguetracker/internal/sse"
	"github.com/mcoot/leaguetracker/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger     *slog.Logger
	Storage    storage.Storage
	Reconciler *identity.Reconciler
	Roster     hiscores.RosterSource
	// Events serves the live event stream when set
	Events *sse.Hub
	// Gatherer serves /metrics when set
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	accountHandler := handler.NewAccountHandler(cfg.Reconciler, cfg.Logger)
	playerHandler := handler.NewPlayerHandler(cfg.Storage)
	leaderboardHandler := handler.NewLeaderboardHandler(cfg.Storage)
	rosterHandler := handler.NewRosterHandler(cfg.Roster, cfg.Logger)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Tracing())

	route(api, "/accounts/setup", accountHandler.Setup, http.MethodPost)
	route(api, "/leaderboard", leaderboardHandler.Get, http.MethodGet)
	route(api, "/players/{name}/stats", playerHandler.Stats, http.MethodGet)
	route(api, "/roster/pages/{page}", rosterHandler.Page, http.MethodGet)

	if cfg.Events != nil {
		route(api, "/events", handler.NewEventsHandler(cfg.Events).Stream, http.MethodGet)
	}

	route(api, "/health", healthHandler, http.MethodGet)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}

// route registers h for method on path. Any other method on the same path
// gets a 405; the subrouter alone would answer 404.
func route(r *mux.Router, path string, h http.HandlerFunc, method string) {
	r.HandleFunc(path, h).Methods(method)
	r.HandleFunc(path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", method)
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
