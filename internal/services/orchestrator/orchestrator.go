// Package orchestrator drives the snapshot and leaderboard phases in a
// repeating cycle.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mcoot/leaguetracker/internal/dependencies/clock"
	"github.com/mcoot/leaguetracker/internal/services/leaderboard"
	"github.com/mcoot/leaguetracker/internal/services/roster"
	"github.com/mcoot/leaguetracker/internal/services/snapshot"
)

var tracer = otel.Tracer("github.com/mcoot/leaguetracker/internal/services/orchestrator")

// Phase identifies where the orchestrator is in its cycle
type Phase int

const (
	PhaseSnapshots Phase = iota
	PhaseLeaderboard
	PhaseSleep
)

func (p Phase) String() string {
	switch p {
	case PhaseSnapshots:
		return "snapshots"
	case PhaseLeaderboard:
		return "leaderboard"
	case PhaseSleep:
		return "sleep"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// SnapshotRunner runs one snapshot phase
type SnapshotRunner interface {
	RunPhase(ctx context.Context) (snapshot.PhaseResult, error)
}

// LeaderboardRunner refreshes the leaderboard
type LeaderboardRunner interface {
	Refresh(ctx context.Context) (leaderboard.Result, error)
}

// RosterRunner runs one roster ingestion cycle
type RosterRunner interface {
	RunCycle(ctx context.Context) roster.Result
}

// Config holds orchestrator settings
type Config struct {
	// CycleDelay is the pause after the leaderboard phase
	CycleDelay time.Duration
	// IngestInline runs a roster cycle before each snapshot phase
	IngestInline bool
}

// DefaultConfig returns the default orchestrator settings
func DefaultConfig() Config {
	return Config{CycleDelay: 15 * time.Minute}
}

// Status is a point-in-time view of the orchestrator
type Status struct {
	Phase   string `json:"phase"`
	CycleID string `json:"cycleId,omitempty"`
	Cycles  int    `json:"cycles"`
}

// Orchestrator is a state machine over PhaseSnapshots, PhaseLeaderboard and
// PhaseSleep. It only stops when its context is cancelled.
type Orchestrator struct {
	snapshots SnapshotRunner
	board     LeaderboardRunner
	roster    RosterRunner
	clock     clock.Clock
	cfg       Config
	logger    *slog.Logger

	mu      sync.Mutex
	phase   Phase
	cycleID string
	cycles  int
}

// New creates a new Orchestrator starting at PhaseSnapshots. rosterRunner may
// be nil when roster ingestion runs on its own loop.
func New(
	snapshots SnapshotRunner,
	board LeaderboardRunner,
	rosterRunner RosterRunner,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		snapshots: snapshots,
		board:     board,
		roster:    rosterRunner,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "orchestrator")),
		phase:     PhaseSnapshots,
	}
}

// Phase returns the phase the next Step will execute
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Status returns the current phase and cycle
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{Phase: o.phase.String(), CycleID: o.cycleID, Cycles: o.cycles}
}

// Step executes the current phase and advances to the next one. A phase error
// is returned after advancing, so the cycle carries on past it. Cancellation
// while sleeping leaves the orchestrator in PhaseSleep.
func (o *Orchestrator) Step(ctx context.Context) error {
	o.mu.Lock()
	phase := o.phase
	if phase == PhaseSnapshots {
		o.cycleID = uuid.NewString()
	}
	cycleID := o.cycleID
	o.mu.Unlock()

	ctx, span := tracer.Start(ctx, "Step")
	span.SetAttributes(
		attribute.String("phase", phase.String()),
		attribute.String("cycle_id", cycleID),
	)
	defer span.End()

	logger := o.logger.With(slog.String("cycle_id", cycleID), slog.String("phase", phase.String()))

	var err error
	next := phase
	switch phase {
	case PhaseSnapshots:
		err = o.runSnapshots(ctx, logger)
		next = PhaseLeaderboard
	case PhaseLeaderboard:
		var result leaderboard.Result
		result, err = o.board.Refresh(ctx)
		if err == nil {
			logger.Info("leaderboard phase complete", slog.Int("entries", result.Stored))
		}
		next = PhaseSleep
	case PhaseSleep:
		logger.Debug("sleeping", slog.Duration("delay", o.cfg.CycleDelay))
		if err = clock.Sleep(ctx, o.clock, o.cfg.CycleDelay); err != nil {
			return err
		}
		next = PhaseSnapshots
	}

	o.mu.Lock()
	o.phase = next
	if phase == PhaseSleep {
		o.cycles++
	}
	o.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("phase failed", slog.String("error", err.Error()))
		return fmt.Errorf("%s phase: %w", phase, err)
	}
	return nil
}

func (o *Orchestrator) runSnapshots(ctx context.Context, logger *slog.Logger) error {
	if o.cfg.IngestInline && o.roster != nil {
		// Roster failures are reported by the ingestor and do not block the phase
		r := o.roster.RunCycle(ctx)
		logger.Debug("inline roster cycle", slog.Int("pages", r.Pages), slog.Int("names", len(r.Names)))
	}

	result, err := o.snapshots.RunPhase(ctx)
	if err != nil {
		return err
	}
	logger.Info("snapshot phase complete",
		slog.Int("players", result.Players),
		slog.Int("written", result.Written),
		slog.Int("failed", result.Failed),
	)
	return nil
}

// Run steps through phases until ctx is cancelled
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator started", slog.Duration("cycle_delay", o.cfg.CycleDelay))
	for {
		if err := ctx.Err(); err != nil {
			o.logger.Info("orchestrator stopped")
			return err
		}
		// Phase errors are logged by Step and never end the loop
		_ = o.Step(ctx)
	}
}
