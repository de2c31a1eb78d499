package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) UpsertPlayer(ctx context.Context, displayName string) error {
	return s.client.SAdd(ctx, usernamesKey(), displayName).Err()
}

func (s *Storage) ListPlayers(ctx context.Context) ([]model.PlayerIdentity, error) {
	names, err := s.client.SMembers(ctx, usernamesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}

	players := make([]model.PlayerIdentity, 0, len(names))
	for _, name := range names {
		players = append(players, model.PlayerIdentity{DisplayName: name})
	}
	return players, nil
}

func (s *Storage) PlayerExists(ctx context.Context, displayName string) (bool, error) {
	return s.client.SIsMember(ctx, usernamesKey(), displayName).Result()
}

// Account operations

func (s *Storage) GetAccount(ctx context.Context, accountHash string) (*model.AccountRecord, error) {
	return getAccount(ctx, s.client, accountHash)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// getAccount reads an account through either the plain client or a WATCH
// transaction
func getAccount(ctx context.Context, c getter, accountHash string) (*model.AccountRecord, error) {
	data, err := c.Get(ctx, accountKey(accountHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var record model.AccountRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode account %s: %w", accountHash, err)
	}
	return &record, nil
}

// Snapshot operations

func (s *Storage) AppendSnapshot(ctx context.Context, snapshot *model.StatSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	return s.client.ZAdd(ctx, statsKey(snapshot.DisplayName), redis.Z{
		Score:  float64(snapshot.Timestamp.UnixMilli()),
		Member: data,
	}).Err()
}

func (s *Storage) LatestSnapshot(ctx context.Context, displayName string) (*model.StatSnapshot, error) {
	values, err := s.client.ZRevRange(ctx, statsKey(displayName), 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, model.ErrSnapshotNotFound
	}

	var snapshot model.StatSnapshot
	if err := json.Unmarshal([]byte(values[0]), &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", displayName, err)
	}
	return &snapshot, nil
}

func (s *Storage) ListSnapshots(ctx context.Context, displayName string) ([]*model.StatSnapshot, error) {
	values, err := s.client.ZRange(ctx, statsKey(displayName), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	snapshots := make([]*model.StatSnapshot, 0, len(values))
	for _, val := range values {
		var snapshot model.StatSnapshot
		if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
			continue // Skip invalid data
		}
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, nil
}

// Leaderboard operations

func (s *Storage) ClearLeaderboard(ctx context.Context) error {
	return s.client.Del(ctx, topPlayersKey()).Err()
}

func (s *Storage) AppendLeaderboard(ctx context.Context, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	members := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		members = append(members, data)
	}
	return s.client.RPush(ctx, topPlayersKey(), members...).Err()
}

func (s *Storage) GetLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	values, err := s.client.LRange(ctx, topPlayersKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]model.LeaderboardEntry, 0, len(values))
	for _, val := range values {
		var entry model.LeaderboardEntry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			continue // Skip invalid data
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Transactions

// RunInTx runs fn as an optimistic transaction. Keys read through the Tx are
// WATCHed and all writes are queued into a single MULTI/EXEC. If a watched
// key changes before EXEC the transaction fails with redis.TxFailedErr.
func (s *Storage) RunInTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return s.client.Watch(ctx, func(rtx *redis.Tx) error {
		t := &redisTx{
			rtx:    rtx,
			staged: make(map[string]model.AccountRecord),
		}
		if err := fn(ctx, t); err != nil {
			return err
		}
		if len(t.ops) == 0 {
			return nil
		}

		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, op := range t.ops {
				op(pipe)
			}
			return nil
		})
		return err
	})
}

// IsRetryable reports whether err is an optimistic lock failure or a
// transient server condition
func (s *Storage) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, redis.TxFailedErr) || errors.Is(err, storage.ErrTransient) {
		return true
	}
	if redis.HasErrorPrefix(err, "TRYAGAIN") || redis.HasErrorPrefix(err, "LOADING") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type redisTx struct {
	rtx    *redis.Tx
	ops    []func(redis.Pipeliner)
	staged map[string]model.AccountRecord
}

func (t *redisTx) SwapAccount(ctx context.Context, record model.AccountRecord) (*model.AccountRecord, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	var previous *model.AccountRecord
	if staged, ok := t.staged[record.AccountHash]; ok {
		previous = &staged
	} else {
		key := accountKey(record.AccountHash)
		if err := t.rtx.Watch(ctx, key).Err(); err != nil {
			return nil, err
		}
		previous, err = getAccount(ctx, t.rtx, record.AccountHash)
		if err != nil && !errors.Is(err, model.ErrAccountNotFound) {
			return nil, err
		}
	}

	t.staged[record.AccountHash] = record
	key := accountKey(record.AccountHash)
	t.ops = append(t.ops, func(pipe redis.Pipeliner) {
		pipe.Set(ctx, key, data, 0)
	})
	return previous, nil
}

func (t *redisTx) UpsertPlayer(ctx context.Context, displayName string) error {
	t.ops = append(t.ops, func(pipe redis.Pipeliner) {
		pipe.SAdd(ctx, usernamesKey(), displayName)
	})
	return nil
}

func (t *redisTx) DeletePlayer(ctx context.Context, displayName string) error {
	t.ops = append(t.ops, func(pipe redis.Pipeliner) {
		pipe.SRem(ctx, usernamesKey(), displayName)
	})
	return nil
}
