package snapshot

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/leaguetracker/internal/dependencies/mocks"
	"github.com/mcoot/leaguetracker/internal/events"
	"github.com/mcoot/leaguetracker/internal/model"
	"github.com/mcoot/leaguetracker/internal/storage/memory"
	"github.com/mcoot/leaguetracker/internal/testutil"
)

type SchedulerSuite struct {
	suite.Suite
	storage   *memory.Storage
	stats     *mocks.MockStatSource
	clock     *mocks.MockClock
	recorder  *events.Recorder
	scheduler *Scheduler
	data      *testutil.DataGenerator
	ctx       context.Context
}

func TestSchedulerSuite(t *testing.T) {
	suite.Run(t, new(SchedulerSuite))
}

func (s *SchedulerSuite) SetupTest() {
	s.storage = memory.New()
	s.stats = mocks.NewMockStatSource()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.recorder = &events.Recorder{}
	s.scheduler = New(s.stats, s.storage, s.clock, s.recorder, DefaultConfig(), testutil.NopLogger())
	s.data = testutil.NewDataGenerator(42)
	s.ctx = context.Background()
}

func (s *SchedulerSuite) addPlayers(names ...string) {
	for _, name := range names {
		s.Require().NoError(s.storage.UpsertPlayer(s.ctx, name))
	}
}

func (s *SchedulerSuite) history(name string) []*model.StatSnapshot {
	h, err := s.storage.ListSnapshots(s.ctx, name)
	s.Require().NoError(err)
	return h
}

func (s *SchedulerSuite) TestFirstPhaseWritesBaseline() {
	s.addPlayers("Alice", "Bob")
	s.stats.SetStats("Alice", s.data.Stats())
	s.stats.SetStats("Bob", s.data.Stats())

	result, err := s.scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)

	s.Equal(PhaseResult{Players: 2, Written: 2}, result)
	s.Len(s.history("Alice"), 1)
	s.Len(s.history("Bob"), 1)
}

func (s *SchedulerSuite) TestUnchangedStatsAreNotRewritten() {
	s.addPlayers("Alice")
	s.stats.SetStats("Alice", s.data.Stats())

	_, err := s.scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		s.clock.Advance(time.Minute)
		result, err := s.scheduler.RunPhase(s.ctx)
		s.Require().NoError(err)
		s.Equal(PhaseResult{Players: 1, Unchanged: 1}, result)
	}

	s.Len(s.history("Alice"), 1)
}

func (s *SchedulerSuite) TestChangeTriggersWrite() {
	s.addPlayers("Alice")
	before := s.data.Stats()
	s.stats.SetStats("Alice", before)
	_, err := s.scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)

	s.clock.Advance(15 * time.Minute)
	after := s.data.Stats()
	s.stats.SetStats("Alice", after)
	result, err := s.scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Written)

	history := s.history("Alice")
	s.Require().Len(history, 2)
	s.True(history[1].Timestamp.After(history[0].Timestamp))
	s.Equal(after, history[1].Stats)
}

func (s *SchedulerSuite) TestActivityAppearingCountsAsChange() {
	s.addPlayers("Alice")
	stats := s.data.Stats()
	s.stats.SetStats("Alice", stats)
	_, err := s.scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)

	next := model.NewStats()
	for k, v := range stats.Skills {
		next.Skills[k] = v
	}
	for k, v := range stats.Activities {
		next.Activities[k] = v
	}
	next.Activities[model.ActivityZulrah] = model.ActivityEntry{Rank: 1, Score: 1}
	s.stats.SetStats("Alice", next)

	result, err := s.scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Written)
}

func (s *SchedulerSuite) TestFailuresAreIsolated() {
	names := s.data.PlayerNames(20)
	s.addPlayers(names...)
	for i, name := range names {
		switch i % 4 {
		case 0:
			s.stats.Fail(name, errors.New("timeout"))
		case 1:
			// left unset: not found
		default:
			s.stats.SetStats(name, s.data.Stats())
		}
	}

	result, err := s.scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)

	s.Equal(20, result.Players)
	s.Equal(5, result.Failed)
	s.Equal(5, result.NotFound)
	s.Equal(10, result.Written)
	s.Equal(5, s.recorder.Count(events.SnapshotFailed))
	s.Equal(5, s.recorder.Count(events.SnapshotNotFound))

	// Every player was attempted exactly once
	for _, name := range names {
		s.Equal(1, s.stats.Calls(name), name)
	}
	s.Equal(20, s.stats.TotalCalls())
}

func (s *SchedulerSuite) TestStoreFailureIsIsolated() {
	s.addPlayers("Alice", "Bob")
	s.stats.SetStats("Alice", s.data.Stats())
	s.stats.SetStats("Bob", s.data.Stats())

	store := &failingAppendStore{Storage: s.storage, fail: "Alice"}
	scheduler := New(s.stats, store, s.clock, s.recorder, DefaultConfig(), testutil.NopLogger())

	result, err := scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Failed)
	s.Equal(1, result.Written)
	s.Len(s.history("Bob"), 1)
	s.Empty(s.history("Alice"))
}

func (s *SchedulerSuite) TestConcurrencyIsBounded() {
	names := s.data.PlayerNames(12)
	s.addPlayers(names...)

	source := newGatedStatSource(s.data.Stats())
	scheduler := New(source, s.storage, s.clock, s.recorder, Config{Concurrency: 3}, testutil.NopLogger())

	result, err := scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)

	s.Equal(12, result.Written)
	s.LessOrEqual(source.maxInFlight.Load(), int32(3))
	s.Equal(int32(12), source.total.Load())
}

func (s *SchedulerSuite) TestUnboundedConcurrencyStillJoins() {
	names := s.data.PlayerNames(8)
	s.addPlayers(names...)

	source := newGatedStatSource(s.data.Stats())
	scheduler := New(source, s.storage, s.clock, s.recorder, Config{Concurrency: 0}, testutil.NopLogger())

	result, err := scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)
	s.Equal(8, result.Written)
	s.Equal(int32(8), source.total.Load())
}

func (s *SchedulerSuite) TestCustomDetector() {
	s.addPlayers("Alice")
	s.stats.SetStats("Alice", s.data.Stats())
	s.scheduler.WithDetector(ChangeDetectorFunc(func(*model.StatSnapshot, model.Stats) bool { return false }))

	result, err := s.scheduler.RunPhase(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, result.Unchanged)
}

func (s *SchedulerSuite) TestTrackSinglePlayer() {
	s.stats.SetStats("Alice", s.data.Stats())

	outcome, err := s.scheduler.Track(s.ctx, "Alice")
	s.Require().NoError(err)
	s.Equal(OutcomeWritten, outcome)

	outcome, err = s.scheduler.Track(s.ctx, "Alice")
	s.Require().NoError(err)
	s.Equal(OutcomeUnchanged, outcome)

	outcome, err = s.scheduler.Track(s.ctx, "Nobody")
	s.Require().NoError(err)
	s.Equal(OutcomeNotFound, outcome)
}

func TestChanged(t *testing.T) {
	base := model.NewStats()
	base.Skills[model.SkillAttack] = model.SkillEntry{Rank: 1, Level: 2, XP: 3}

	same := model.Stats{Skills: map[model.Skill]model.SkillEntry{
		model.SkillAttack: {Rank: 1, Level: 2, XP: 3},
	}}
	if Changed(&model.StatSnapshot{Stats: base}, same) {
		t.Fatal("nil and empty activity maps should compare equal")
	}

	if !Changed(nil, base) {
		t.Fatal("first snapshot should always count as a change")
	}

	rankOnly := model.NewStats()
	rankOnly.Skills[model.SkillAttack] = model.SkillEntry{Rank: 2, Level: 2, XP: 3}
	if !Changed(&model.StatSnapshot{Stats: base}, rankOnly) {
		t.Fatal("a rank change should count as a change")
	}
}

// gatedStatSource records how many fetches overlap
type gatedStatSource struct {
	stats       model.Stats
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	total       atomic.Int32
	mu          sync.Mutex
}

func newGatedStatSource(stats model.Stats) *gatedStatSource {
	return &gatedStatSource{stats: stats}
}

func (g *gatedStatSource) FetchStats(ctx context.Context, name string) (*model.Stats, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	g.total.Add(1)

	g.mu.Lock()
	if n > g.maxInFlight.Load() {
		g.maxInFlight.Store(n)
	}
	g.mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	stats := g.stats
	return &stats, nil
}

type failingAppendStore struct {
	*memory.Storage
	fail string
}

func (f *failingAppendStore) AppendSnapshot(ctx context.Context, snap *model.StatSnapshot) error {
	if snap.DisplayName == f.fail {
		return errors.New("disk full")
	}
	return f.Storage.AppendSnapshot(ctx, snap)
}
