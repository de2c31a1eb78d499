// Package events carries progress and failure reports out of the polling
// services. Services never fail because of a single player or page; they
// emit an event instead and carry on.
package events

import (
	"context"
	"sync"
)

// Kind identifies what happened
type Kind string

const (
	RosterPageStored    Kind = "roster_page_stored"
	RosterPageFailed    Kind = "roster_page_failed"
	RosterUpsertFailed  Kind = "roster_upsert_failed"
	RosterCycleComplete Kind = "roster_cycle_complete"

	SnapshotWritten   Kind = "snapshot_written"
	SnapshotUnchanged Kind = "snapshot_unchanged"
	SnapshotNotFound  Kind = "snapshot_player_not_found"
	SnapshotFailed    Kind = "snapshot_failed"
	SnapshotPhaseDone Kind = "snapshot_phase_complete"

	LeaderboardClearFailed Kind = "leaderboard_clear_failed"
	LeaderboardPageFailed  Kind = "leaderboard_page_failed"
	LeaderboardRefreshed   Kind = "leaderboard_refreshed"

	SetupRetry    Kind = "setup_retry"
	SetupFailed   Kind = "setup_failed"
	SetupComplete Kind = "setup_complete"
)

// Event is a single report. Fields that do not apply to Kind are zero.
type Event struct {
	Kind    Kind
	Player  string
	Page    int
	Attempt int
	Count   int
	Err     error
}

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// Multi fans every event out to each sink in order
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev Event) {
	for _, s := range m {
		s.Emit(ctx, ev)
	}
}

// Discard drops every event
type Discard struct{}

func (Discard) Emit(context.Context, Event) {}

// Recorder keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of everything recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind were recorded
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// Players returns the player names of every event of kind
func (r *Recorder) Players(kind Kind) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for _, ev := range r.events {
		if ev.Kind == kind {
			names = append(names, ev.Player)
		}
	}
	return names
}
