// Package snapshot records player stat history, writing a new snapshot only
// when a player's stats have changed.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/leaguetracker/internal/dependencies/clock"
	"github.com/mcoot/leaguetracker/internal/events"
	"github.com/mcoot/leaguetracker/internal/hiscores"
	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage"
)

var tracer = otel.Tracer("github.com/mcoot/leaguetracker/internal/services/snapshot")

// Outcome is the result of tracking a single player
type Outcome int

const (
	OutcomeFailed Outcome = iota
	OutcomeWritten
	OutcomeUnchanged
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWritten:
		return "written"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// Config holds scheduler settings
type Config struct {
	// Concurrency bounds in-flight player tasks. Zero means one task per player
	// with no bound.
	Concurrency int
}

// DefaultConfig returns the default scheduler settings
func DefaultConfig() Config {
	return Config{Concurrency: 16}
}

// PhaseResult summarises one snapshot phase
type PhaseResult struct {
	Players   int `json:"players"`
	Written   int `json:"written"`
	Unchanged int `json:"unchanged"`
	NotFound  int `json:"notFound"`
	Failed    int `json:"failed"`
}

func (r *PhaseResult) add(o Outcome) {
	switch o {
	case OutcomeWritten:
		r.Written++
	case OutcomeUnchanged:
		r.Unchanged++
	case OutcomeNotFound:
		r.NotFound++
	default:
		r.Failed++
	}
}

// Scheduler fans out one fetch/compare/write task per known player
type Scheduler struct {
	stats    hiscores.StatSource
	store    storage.Storage
	clock    clock.Clock
	sink     events.Sink
	detector ChangeDetector
	cfg      Config
	logger   *slog.Logger
}

// New creates a new Scheduler using Changed as its change detector
func New(
	stats hiscores.StatSource,
	store storage.Storage,
	clk clock.Clock,
	sink events.Sink,
	cfg Config,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		stats:    stats,
		store:    store,
		clock:    clk,
		sink:     sink,
		detector: ChangeDetectorFunc(Changed),
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "snapshot")),
	}
}

// WithDetector replaces the change detector
func (s *Scheduler) WithDetector(d ChangeDetector) *Scheduler {
	s.detector = d
	return s
}

// RunPhase reads the roster once and tracks every player on it. It returns
// only after every task has settled. A failing player never affects another;
// the only error is failing to read the roster.
func (s *Scheduler) RunPhase(ctx context.Context) (result PhaseResult, err error) {
	ctx, span := tracer.Start(ctx, "RunPhase")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return PhaseResult{}, fmt.Errorf("read roster: %w", err)
	}
	result.Players = len(players)

	var (
		mu sync.Mutex
		// Tasks never return an error, so Wait is only a join barrier and a
		// failing task cannot cancel its siblings
		g errgroup.Group
	)
	if s.cfg.Concurrency > 0 {
		g.SetLimit(s.cfg.Concurrency)
	}

	for _, player := range players {
		name := player.DisplayName
		g.Go(func() error {
			outcome, _ := s.Track(ctx, name)
			mu.Lock()
			result.add(outcome)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("snapshot.players", result.Players),
		attribute.Int("snapshot.written", result.Written),
		attribute.Int("snapshot.failed", result.Failed),
	)
	s.sink.Emit(ctx, events.Event{Kind: events.SnapshotPhaseDone, Count: result.Written})
	s.logger.Info("snapshot phase complete",
		slog.Int("players", result.Players),
		slog.Int("written", result.Written),
		slog.Int("unchanged", result.Unchanged),
		slog.Int("not_found", result.NotFound),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// Track fetches one player's stats and appends a snapshot if they differ
// from the latest stored one. The outcome is also reported to the sink.
func (s *Scheduler) Track(ctx context.Context, displayName string) (Outcome, error) {
	outcome, err := s.track(ctx, displayName)

	ev := events.Event{Player: displayName, Err: err}
	switch outcome {
	case OutcomeWritten:
		ev.Kind = events.SnapshotWritten
	case OutcomeUnchanged:
		ev.Kind = events.SnapshotUnchanged
	case OutcomeNotFound:
		ev.Kind = events.SnapshotNotFound
	default:
		ev.Kind = events.SnapshotFailed
	}
	s.sink.Emit(ctx, ev)
	return outcome, err
}

func (s *Scheduler) track(ctx context.Context, displayName string) (Outcome, error) {
	stats, err := s.stats.FetchStats(ctx, displayName)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return OutcomeNotFound, nil
		}
		return OutcomeFailed, fmt.Errorf("fetch stats: %w", err)
	}

	prev, err := s.store.LatestSnapshot(ctx, displayName)
	if err != nil {
		if !errors.Is(err, model.ErrSnapshotNotFound) {
			return OutcomeFailed, fmt.Errorf("read latest snapshot: %w", err)
		}
		prev = nil
	}

	if !s.detector.Changed(prev, *stats) {
		return OutcomeUnchanged, nil
	}

	snapshot := &model.StatSnapshot{
		DisplayName: displayName,
		Timestamp:   s.clock.Now(),
		Stats:       *stats,
	}
	if err := s.store.AppendSnapshot(ctx, snapshot); err != nil {
		return OutcomeFailed, fmt.Errorf("append snapshot: %w", err)
	}
	return OutcomeWritten, nil
}
