// Package sqlite provides a SQLite-backed implementation of the storage
// interface.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage"
)

//go:embed schema.sql
var schema string

// Storage persists tracker state in a single SQLite database
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
// Transactions take the write lock on BEGIN so concurrent reconciliations
// serialise instead of failing mid-transaction.
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the SQLite handle
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Player operations

func (s *Storage) UpsertPlayer(ctx context.Context, displayName string) error {
	return upsertPlayer(ctx, s.db, displayName)
}

func upsertPlayer(ctx context.Context, e execer, displayName string) error {
	_, err := e.ExecContext(ctx,
		`INSERT INTO usernames (display_name) VALUES (?) ON CONFLICT (display_name) DO NOTHING`,
		displayName,
	)
	if err != nil {
		return fmt.Errorf("upsert username %s: %w", displayName, err)
	}
	return nil
}

func (s *Storage) ListPlayers(ctx context.Context) ([]model.PlayerIdentity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT display_name FROM usernames ORDER BY display_name`)
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	defer rows.Close()

	players := []model.PlayerIdentity{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		players = append(players, model.PlayerIdentity{DisplayName: name})
	}
	return players, rows.Err()
}

func (s *Storage) PlayerExists(ctx context.Context, displayName string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM usernames WHERE display_name = ?`, displayName,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup username %s: %w", displayName, err)
	}
	return true, nil
}

// Account operations

func (s *Storage) GetAccount(ctx context.Context, accountHash string) (*model.AccountRecord, error) {
	return getAccount(ctx, s.db, accountHash)
}

func getAccount(ctx context.Context, e execer, accountHash string) (*model.AccountRecord, error) {
	record := model.AccountRecord{AccountHash: accountHash}
	err := e.QueryRowContext(ctx,
		`SELECT display_name FROM accounts WHERE account_hash = ?`, accountHash,
	).Scan(&record.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account %s: %w", accountHash, err)
	}
	return &record, nil
}

// Snapshot operations

func (s *Storage) AppendSnapshot(ctx context.Context, snapshot *model.StatSnapshot) error {
	data, err := json.Marshal(snapshot.Stats)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO stats (display_name, recorded_at, stats) VALUES (?, ?, ?)`,
		snapshot.DisplayName, snapshot.Timestamp.UnixNano(), string(data),
	)
	if err != nil {
		return fmt.Errorf("append snapshot for %s: %w", snapshot.DisplayName, err)
	}
	return nil
}

func (s *Storage) LatestSnapshot(ctx context.Context, displayName string) (*model.StatSnapshot, error) {
	var (
		recordedAt int64
		data       string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT recorded_at, stats FROM stats WHERE display_name = ?
		 ORDER BY recorded_at DESC, id DESC LIMIT 1`,
		displayName,
	).Scan(&recordedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot for %s: %w", displayName, err)
	}
	return decodeSnapshot(displayName, recordedAt, data)
}

func (s *Storage) ListSnapshots(ctx context.Context, displayName string) ([]*model.StatSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT recorded_at, stats FROM stats WHERE display_name = ? ORDER BY recorded_at, id`,
		displayName,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for %s: %w", displayName, err)
	}
	defer rows.Close()

	snapshots := []*model.StatSnapshot{}
	for rows.Next() {
		var (
			recordedAt int64
			data       string
		)
		if err := rows.Scan(&recordedAt, &data); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshot, err := decodeSnapshot(displayName, recordedAt, data)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

func decodeSnapshot(displayName string, recordedAt int64, data string) (*model.StatSnapshot, error) {
	snapshot := &model.StatSnapshot{
		DisplayName: displayName,
		Timestamp:   time.Unix(0, recordedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(data), &snapshot.Stats); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", displayName, err)
	}
	return snapshot, nil
}

// Leaderboard operations

func (s *Storage) ClearLeaderboard(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM top_players`); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	return nil
}

func (s *Storage) AppendLeaderboard(ctx context.Context, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin leaderboard append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO top_players (display_name, league_points) VALUES (?, ?)`,
			entry.DisplayName, entry.Score,
		); err != nil {
			return fmt.Errorf("append leaderboard entry %s: %w", entry.DisplayName, err)
		}
	}
	return tx.Commit()
}

func (s *Storage) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT display_name, league_points FROM top_players ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var entry model.LeaderboardEntry
		if err := rows.Scan(&entry.DisplayName, &entry.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Transactions

func (s *Storage) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &sqliteTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsRetryable reports whether err came from lock contention on the database
func (s *Storage) IsRetryable(err error) bool {
	if errors.Is(err, storage.ErrTransient) {
		return true
	}
	return isSQLiteBusyError(err)
}

func isSQLiteBusyError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_BUSY || code == sqlite3lib.SQLITE_LOCKED
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) SwapAccount(ctx context.Context, record model.AccountRecord) (*model.AccountRecord, error) {
	previous, err := getAccount(ctx, t.tx, record.AccountHash)
	if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	_, err = t.tx.ExecContext(ctx,
		`INSERT INTO accounts (account_hash, display_name) VALUES (?, ?)
		 ON CONFLICT (account_hash) DO UPDATE SET display_name = excluded.display_name`,
		record.AccountHash, record.DisplayName,
	)
	if err != nil {
		return nil, fmt.Errorf("replace account %s: %w", record.AccountHash, err)
	}
	return previous, nil
}

func (t *sqliteTx) UpsertPlayer(ctx context.Context, displayName string) error {
	return upsertPlayer(ctx, t.tx, displayName)
}

func (t *sqliteTx) DeletePlayer(ctx context.Context, displayName string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM usernames WHERE display_name = ?`, displayName); err != nil {
		return fmt.Errorf("delete username %s: %w", displayName, err)
	}
	return nil
}
