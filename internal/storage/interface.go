package storage

import (
	"context"
	"errors"

	"github.com/mcoot/leaguetracker/internal/model"
)

// ErrTransient marks a storage failure that is safe to retry, such as a
// write conflict or a commit whose outcome is unknown
var ErrTransient = errors.New("transient storage error")

// Storage defines the interface for data persistence.
// Implementations must be safe for concurrent use by many goroutines.
type Storage interface {
	Transactor

	// Player (usernames) operations
	UpsertPlayer(ctx context.Context, displayName string) error
	ListPlayers(ctx context.Context) ([]model.PlayerIdentity, error)
	PlayerExists(ctx context.Context, displayName string) (bool, error)

	// Account operations
	GetAccount(ctx context.Context, accountHash string) (*model.AccountRecord, error)

	// Snapshot operations
	AppendSnapshot(ctx context.Context, snapshot *model.StatSnapshot) error
	LatestSnapshot(ctx context.Context, displayName string) (*model.StatSnapshot, error)
	ListSnapshots(ctx context.Context, displayName string) ([]*model.StatSnapshot, error)

	// Leaderboard operations
	ClearLeaderboard(ctx context.Context) error
	AppendLeaderboard(ctx context.Context, entries []model.LeaderboardEntry) error
	GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)

	Close() error
}

// Tx is the set of operations available inside a transaction
type Tx interface {
	// SwapAccount installs record and returns the record it replaced, or nil
	// if there was none. The read and the replace are a single atomic step.
	SwapAccount(ctx context.Context, record model.AccountRecord) (*model.AccountRecord, error)
	UpsertPlayer(ctx context.Context, displayName string) error
	DeletePlayer(ctx context.Context, displayName string) error
}

// Transactor runs multi-document transactions against the store
type Transactor interface {
	// RunInTx runs fn in a single transaction attempt and commits it.
	// If fn returns an error nothing is applied.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// IsRetryable reports whether a RunInTx failure may be resolved by
	// running the whole transaction again
	IsRetryable(err error) bool
}
