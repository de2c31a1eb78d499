// Package leaderboard maintains the cached top-players view.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/leaguetracker/internal/dependencies/clock"
	"github.com/mcoot/leaguetracker/internal/events"
	"github.com/mcoot/leaguetracker/internal/hiscores"
	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage"
)

// Config holds refresh settings
type Config struct {
	// Pages lists the ranking pages copied into the leaderboard, in order
	Pages []int
	// PageDelay is the pause between page fetches
	PageDelay time.Duration
}

// DefaultConfig returns the default refresh settings: the first four pages,
// five seconds apart
func DefaultConfig() Config {
	return Config{
		Pages:     []int{1, 2, 3, 4},
		PageDelay: 5 * time.Second,
	}
}

// Result summarises one refresh
type Result struct {
	Pages  int `json:"pages"`
	Stored int `json:"stored"`
	Failed int `json:"failed"`
}

// Refresher replaces the leaderboard with the top pages of the ranking
type Refresher struct {
	source hiscores.RosterSource
	store  storage.Storage
	clock  clock.Clock
	sink   events.Sink
	cfg    Config
	logger *slog.Logger
}

// New creates a new Refresher
func New(
	source hiscores.RosterSource,
	store storage.Storage,
	clk clock.Clock,
	sink events.Sink,
	cfg Config,
	logger *slog.Logger,
) *Refresher {
	return &Refresher{
		source: source,
		store:  store,
		clock:  clk,
		sink:   sink,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "leaderboard")),
	}
}

// Refresh clears the leaderboard and then appends each configured page in
// turn. A page that fails to fetch or store is skipped, so readers may see a
// partial leaderboard. The only error is failing to clear.
func (r *Refresher) Refresh(ctx context.Context) (Result, error) {
	var result Result

	if err := r.store.ClearLeaderboard(ctx); err != nil {
		r.sink.Emit(ctx, events.Event{Kind: events.LeaderboardClearFailed, Err: err})
		return result, fmt.Errorf("clear leaderboard: %w", err)
	}

	for i, index := range r.cfg.Pages {
		if i > 0 {
			if err := clock.Sleep(ctx, r.clock, r.cfg.PageDelay); err != nil {
				return result, err
			}
		}

		page, err := r.source.FetchPage(ctx, index)
		if err != nil {
			result.Failed++
			r.sink.Emit(ctx, events.Event{Kind: events.LeaderboardPageFailed, Page: index, Err: err})
			continue
		}

		entries := make([]model.LeaderboardEntry, len(page.Entries))
		for j, e := range page.Entries {
			entries[j] = model.LeaderboardEntry{DisplayName: e.Name, Score: e.Score}
		}
		if err := r.store.AppendLeaderboard(ctx, entries); err != nil {
			result.Failed++
			r.sink.Emit(ctx, events.Event{Kind: events.LeaderboardPageFailed, Page: index, Err: err})
			continue
		}
		result.Pages++
		result.Stored += len(entries)
	}

	r.sink.Emit(ctx, events.Event{Kind: events.LeaderboardRefreshed, Count: result.Stored})
	r.logger.Info("leaderboard refreshed",
		slog.Int("pages", result.Pages),
		slog.Int("entries", result.Stored),
		slog.Int("failed_pages", result.Failed),
	)
	return result, nil
}
