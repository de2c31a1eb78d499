package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players     map[string]struct{}
	accounts    map[string]model.AccountRecord
	snapshots   map[string][]*model.StatSnapshot
	leaderboard []model.LeaderboardEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:   make(map[string]struct{}),
		accounts:  make(map[string]model.AccountRecord),
		snapshots: make(map[string][]*model.StatSnapshot),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// Player operations

func (s *Storage) UpsertPlayer(ctx context.Context, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[displayName] = struct{}{}
	return nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]model.PlayerIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]model.PlayerIdentity, 0, len(s.players))
	for name := range s.players {
		players = append(players, model.PlayerIdentity{DisplayName: name})
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].DisplayName < players[j].DisplayName
	})
	return players, nil
}

func (s *Storage) PlayerExists(ctx context.Context, displayName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.players[displayName]
	return ok, nil
}

// Account operations

func (s *Storage) GetAccount(ctx context.Context, accountHash string) (*model.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.accounts[accountHash]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return &record, nil
}

// Snapshot operations

func (s *Storage) AppendSnapshot(ctx context.Context, snapshot *model.StatSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.snapshots[snapshot.DisplayName], cloneSnapshot(snapshot))
	// Keep history ordered by timestamp even if writers race
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})
	s.snapshots[snapshot.DisplayName] = history
	return nil
}

func (s *Storage) LatestSnapshot(ctx context.Context, displayName string) (*model.StatSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.snapshots[displayName]
	if len(history) == 0 {
		return nil, model.ErrSnapshotNotFound
	}
	return cloneSnapshot(history[len(history)-1]), nil
}

func (s *Storage) ListSnapshots(ctx context.Context, displayName string) ([]*model.StatSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.snapshots[displayName]
	out := make([]*model.StatSnapshot, len(history))
	for i, snap := range history {
		out[i] = cloneSnapshot(snap)
	}
	return out, nil
}

// Leaderboard operations

func (s *Storage) ClearLeaderboard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaderboard = nil
	return nil
}

func (s *Storage) AppendLeaderboard(ctx context.Context, entries []model.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaderboard = append(s.leaderboard, entries...)
	return nil
}

func (s *Storage) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.LeaderboardEntry, len(s.leaderboard))
	copy(out, s.leaderboard)
	return out, nil
}

// Transactions

// RunInTx holds the write lock for the whole transaction, so transactions
// are serialised and never conflict. Writes are staged and applied only
// when fn succeeds.
func (s *Storage) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		s:        s,
		accounts: make(map[string]model.AccountRecord),
		players:  make(map[string]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for hash, record := range tx.accounts {
		s.accounts[hash] = record
	}
	for name, keep := range tx.players {
		if keep {
			s.players[name] = struct{}{}
		} else {
			delete(s.players, name)
		}
	}
	return nil
}

// IsRetryable reports whether err was marked transient
func (s *Storage) IsRetryable(err error) bool {
	return errors.Is(err, storage.ErrTransient)
}

// memTx stages writes on top of the store. The store's lock is held by
// RunInTx for the lifetime of the transaction.
type memTx struct {
	s        *Storage
	accounts map[string]model.AccountRecord
	players  map[string]bool
}

func (t *memTx) SwapAccount(ctx context.Context, record model.AccountRecord) (*model.AccountRecord, error) {
	previous, ok := t.accounts[record.AccountHash]
	if !ok {
		previous, ok = t.s.accounts[record.AccountHash]
	}
	t.accounts[record.AccountHash] = record
	if !ok {
		return nil, nil
	}
	return &previous, nil
}

func (t *memTx) UpsertPlayer(ctx context.Context, displayName string) error {
	t.players[displayName] = true
	return nil
}

func (t *memTx) DeletePlayer(ctx context.Context, displayName string) error {
	t.players[displayName] = false
	return nil
}

// cloneSnapshot keeps stored history isolated from callers
func cloneSnapshot(snap *model.StatSnapshot) *model.StatSnapshot {
	out := *snap
	out.Stats = snap.Stats.Clone()
	return &out
}
