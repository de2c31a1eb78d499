package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	st, err := Open(filepath.Join(s.T().TempDir(), "tracker.db"))
	s.Require().NoError(err)
	s.storage = st
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

// Player tests

func (s *StorageSuite) TestUpsertPlayerIsIdempotent() {
	s.Require().NoError(s.storage.UpsertPlayer(s.ctx, "Bob"))
	s.Require().NoError(s.storage.UpsertPlayer(s.ctx, "Alice"))
	s.Require().NoError(s.storage.UpsertPlayer(s.ctx, "Alice"))

	players, err := s.storage.ListPlayers(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.PlayerIdentity{{DisplayName: "Alice"}, {DisplayName: "Bob"}}, players)

	exists, err := s.storage.PlayerExists(s.ctx, "Carol")
	s.Require().NoError(err)
	s.False(exists)
}

// Snapshot tests

func (s *StorageSuite) TestSnapshotRoundTrip() {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 8, time.UTC)
	stats := model.NewStats()
	stats.Skills[model.SkillAttack] = model.SkillEntry{Rank: 10, Level: 99, XP: 13034431}
	stats.Activities[model.ActivityLeaguePoints] = model.ActivityEntry{Rank: 3, Score: 12000}

	s.Require().NoError(s.storage.AppendSnapshot(s.ctx, &model.StatSnapshot{
		DisplayName: "Alice",
		Timestamp:   ts,
		Stats:       stats,
	}))

	latest, err := s.storage.LatestSnapshot(s.ctx, "Alice")
	s.Require().NoError(err)
	s.True(ts.Equal(latest.Timestamp))
	s.Equal(stats, latest.Stats)

	_, err = s.storage.LatestSnapshot(s.ctx, "Bob")
	s.ErrorIs(err, model.ErrSnapshotNotFound)
}

func (s *StorageSuite) TestListSnapshotsOrdered() {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		s.Require().NoError(s.storage.AppendSnapshot(s.ctx, &model.StatSnapshot{
			DisplayName: "Alice",
			Timestamp:   base.Add(offset),
			Stats:       model.NewStats(),
		}))
	}

	history, err := s.storage.ListSnapshots(s.ctx, "Alice")
	s.Require().NoError(err)
	s.Require().Len(history, 3)
	s.True(base.Equal(history[0].Timestamp))
	s.True(base.Add(2 * time.Hour).Equal(history[2].Timestamp))
}

// Leaderboard tests

func (s *StorageSuite) TestLeaderboardKeepsInsertionOrder() {
	s.Require().NoError(s.storage.AppendLeaderboard(s.ctx, []model.LeaderboardEntry{{DisplayName: "Old", Score: 1}}))
	s.Require().NoError(s.storage.ClearLeaderboard(s.ctx))
	s.Require().NoError(s.storage.AppendLeaderboard(s.ctx, []model.LeaderboardEntry{
		{DisplayName: "Zed", Score: 300},
		{DisplayName: "Amy", Score: 200},
	}))

	board, err := s.storage.GetLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Equal([]model.LeaderboardEntry{
		{DisplayName: "Zed", Score: 300},
		{DisplayName: "Amy", Score: 200},
	}, board)
}

// Transaction tests

func (s *StorageSuite) TestSwapAccount() {
	var previous *model.AccountRecord
	swap := func(name string) {
		err := s.storage.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
			var err error
			previous, err = tx.SwapAccount(ctx, model.AccountRecord{AccountHash: "42", DisplayName: name})
			return err
		})
		s.Require().NoError(err)
	}

	swap("Alice")
	s.Nil(previous)

	swap("Alicia")
	s.Require().NotNil(previous)
	s.Equal("Alice", previous.DisplayName)

	record, err := s.storage.GetAccount(s.ctx, "42")
	s.Require().NoError(err)
	s.Equal("Alicia", record.DisplayName)
}

func (s *StorageSuite) TestFailedTxRollsBack() {
	boom := errors.New("boom")
	err := s.storage.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		if _, err := tx.SwapAccount(ctx, model.AccountRecord{AccountHash: "7", DisplayName: "Bob"}); err != nil {
			return err
		}
		if err := tx.UpsertPlayer(ctx, "Bob"); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)
	s.False(s.storage.IsRetryable(err))

	_, err = s.storage.GetAccount(s.ctx, "7")
	s.ErrorIs(err, model.ErrAccountNotFound)

	exists, err := s.storage.PlayerExists(s.ctx, "Bob")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestTxDeletesPlayer() {
	s.Require().NoError(s.storage.UpsertPlayer(s.ctx, "Alice"))
	s.Require().NoError(s.storage.RunInTx(s.ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.DeletePlayer(ctx, "Alice")
	}))

	exists, err := s.storage.PlayerExists(s.ctx, "Alice")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestIsRetryableMarksTransient() {
	s.True(s.storage.IsRetryable(storage.ErrTransient))
	s.False(s.storage.IsRetryable(nil))
}
