package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	client  *redis.Client
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	s.client = redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(s.client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Player tests

func (s *StorageSuite) TestUpsertPlayerIsIdempotent() {
	s.Require().NoError(s.storage.UpsertPlayer(s.ctx, "Alice"))
	s.Require().NoError(s.storage.UpsertPlayer(s.ctx, "Alice"))

	players, err := s.storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.PlayerIdentity{{DisplayName: "Alice"}}, players)

	exists, err := s.storage.PlayerExists(s.ctx, "Alice")
	s.Require().NoError(err)
	s.True(exists)
}

// Account tests

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, "missing")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

// Snapshot tests

func (s *StorageSuite) TestSnapshotHistory() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := &model.StatSnapshot{DisplayName: "Alice", Timestamp: base, Stats: model.NewStats()}
	second := &model.StatSnapshot{DisplayName: "Alice", Timestamp: base.Add(time.Hour), Stats: model.NewStats()}
	second.Stats.Skills[model.SkillOverall] = model.SkillEntry{Rank: 1, Level: 50, XP: 1000}

	s.Require().NoError(s.storage.AppendSnapshot(s.ctx, first))
	s.Require().NoError(s.storage.AppendSnapshot(s.ctx, second))

	latest, err := s.storage.LatestSnapshot(s.ctx, "Alice")
	s.Require().NoError(err)
	s.True(second.Timestamp.Equal(latest.Timestamp))
	s.Equal(50, latest.Stats.Skills[model.SkillOverall].Level)

	history, err := s.storage.ListSnapshots(s.ctx, "Alice")
	s.Require().NoError(err)
	s.Len(history, 2)
}

func (s *StorageSuite) TestLatestSnapshotNotFound() {
	_, err := s.storage.LatestSnapshot(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *StorageSuite) TestHistoryKeepsEverySnapshot() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 50; i++ {
		stats := model.NewStats()
		stats.Skills[model.SkillOverall] = model.SkillEntry{Rank: 1, Level: 1, XP: i}
		snap := &model.StatSnapshot{DisplayName: "Alice", Timestamp: base.Add(time.Duration(i) * time.Minute), Stats: stats}
		s.Require().NoError(s.storage.AppendSnapshot(s.ctx, snap))
	}

	history, err := s.storage.ListSnapshots(s.ctx, "Alice")
	s.Require().NoError(err)
	s.Require().Len(history, 50)
	s.True(base.Equal(history[0].Timestamp))
	s.True(base.Add(49 * time.Minute).Equal(history[49].Timestamp))
}

// Leaderboard tests

func (s *StorageSuite) TestLeaderboardReplace() {
	s.Require().NoError(s.storage.AppendLeaderboard(s.ctx, []model.LeaderboardEntry{{DisplayName: "Old", Score: 5}}))
	s.Require().NoError(s.storage.ClearLeaderboard(s.ctx))
	s.Require().NoError(s.storage.AppendLeaderboard(s.ctx, []model.LeaderboardEntry{
		{DisplayName: "Alice", Score: 300},
		{DisplayName: "Bob", Score: 200},
	}))
	s.Require().NoError(s.storage.AppendLeaderboard(s.ctx, nil))

	board, err := s.storage.GetLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.LeaderboardEntry{
		{DisplayName: "Alice", Score: 300},
		{DisplayName: "Bob", Score: 200},
	}, board)
}

// Transaction tests

func (s *StorageSuite) TestRenameTransaction() {
	s.Require().NoError(s.storage.UpsertPlayer(s.ctx, "Alice"))
	s.Require().NoError(s.storage.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.SwapAccount(ctx, model.AccountRecord{AccountHash: "42", DisplayName: "Alice"})
		return err
	}))

	var previous *model.AccountRecord
	err := s.storage.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		previous, err = tx.SwapAccount(ctx, model.AccountRecord{AccountHash: "42", DisplayName: "Alicia"})
		if err != nil {
			return err
		}
		if err := tx.UpsertPlayer(ctx, "Alicia"); err != nil {
			return err
		}
		return tx.DeletePlayer(ctx, previous.DisplayName)
	})
	s.Require().NoError(err)
	s.Equal("Alice", previous.DisplayName)

	record, err := s.storage.GetAccount(s.ctx, "42")
	s.Require().NoError(err)
	s.Equal("Alicia", record.DisplayName)

	players, err := s.storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.PlayerIdentity{{DisplayName: "Alicia"}}, players)
}

func (s *StorageSuite) TestConcurrentWriteAbortsTransaction() {
	err := s.storage.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.SwapAccount(ctx, model.AccountRecord{AccountHash: "42", DisplayName: "Alice"}); err != nil {
			return err
		}
		// Another writer touches the watched key before EXEC
		return s.client.Set(ctx, accountKey("42"), `{"accountHash":"42","displayName":"Mallory"}`, 0).Err()
	})
	s.Require().Error(err)
	s.ErrorIs(err, redis.TxFailedErr)
	s.True(s.storage.IsRetryable(err))

	record, err := s.storage.GetAccount(s.ctx, "42")
	s.Require().NoError(err)
	s.Equal("Mallory", record.DisplayName)
}

func (s *StorageSuite) TestFailedTxAppliesNothing() {
	boom := errors.New("boom")
	err := s.storage.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.UpsertPlayer(ctx, "Alice"); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
	s.False(s.storage.IsRetryable(err))

	exists, err := s.storage.PlayerExists(s.ctx, "Alice")
	s.Require().NoError(err)
	s.False(exists)
}
