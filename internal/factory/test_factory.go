package factory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/leaguetracker/internal/dependencies/mocks"
	"github.com/mcoot/leaguetracker/internal/events"
	"github.com/mcoot/leaguetracker/internal/storage"
	"github.com/mcoot/leaguetracker/internal/storage/memory"
	"github.com/mcoot/leaguetracker/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockRoster *mocks.MockRosterSource
	MockStats  *mocks.MockStatSource
	Recorder   *events.Recorder
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and an in-memory store
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New(), DefaultConfig())
}

// NewTestAppWithStorage creates a TestApp over the given store
func NewTestAppWithStorage(store storage.Storage, cfg Config) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockRoster := mocks.NewMockRosterSource()
	mockStats := mocks.NewMockStatSource()
	recorder := &events.Recorder{}

	deps := dependencies{
		store:    store,
		clock:    mockClock,
		random:   mockRandom,
		roster:   mockRoster,
		stats:    mockStats,
		registry: prometheus.NewRegistry(),
		extra:    recorder,
	}
	logger := cfg.Logger
	if logger == nil {
		logger = testutil.NopLogger()
	}
	app := newWithDependencies(deps, cfg, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockRoster: mockRoster,
		MockStats:  mockStats,
		Recorder:   recorder,
	}
}
