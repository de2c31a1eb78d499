package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/mcoot/leaguetracker/internal/config"
	"github.com/mcoot/leaguetracker/internal/dependencies/clock"
	"github.com/mcoot/leaguetracker/internal/dependencies/random"
	"github.com/mcoot/leaguetracker/internal/events"
	"github.com/mcoot/leaguetracker/internal/hiscores"
	"github.com/mcoot/leaguetracker/internal/services/identity"
	"github.com/mcoot/leaguetracker/internal/services/leaderboard"
	"github.com/mcoot/leaguetracker/internal/services/orchestrator"
	"github.com/mcoot/leaguetracker/internal/services/roster"
	"github.com/mcoot/leaguetracker/internal/services/snapshot"
	"github.com/mcoot/leaguetracker/internal/sse"
	"github.com/mcoot/leaguetracker/internal/storage"
	"github.com/mcoot/leaguetracker/internal/storage/memory"
	redisstorage "github.com/mcoot/leaguetracker/internal/storage/redis"
	"github.com/mcoot/leaguetracker/internal/storage/sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Roster hiscores.RosterSource
	Stats  hiscores.StatSource

	// Observability
	Registry *prometheus.Registry
	Events   events.Sink
	// Hub streams every event to SSE clients once its Run loop is started
	Hub *sse.Hub

	// Services
	Ingestor     *roster.Ingestor
	Scheduler    *snapshot.Scheduler
	Reconciler   *identity.Reconciler
	Refresher    *leaderboard.Refresher
	Orchestrator *orchestrator.Orchestrator
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string

	Hiscores     hiscores.Config
	Roster       roster.Config
	Snapshot     snapshot.Config
	Identity     identity.Config
	Leaderboard  leaderboard.Config
	Orchestrator orchestrator.Config
}

// DefaultConfig returns a memory-backed configuration with every service at
// its defaults
func DefaultConfig() Config {
	return Config{
		StorageType:  config.StorageTypeMemory,
		Hiscores:     hiscores.DefaultConfig(),
		Roster:       roster.DefaultConfig(),
		Snapshot:     snapshot.DefaultConfig(),
		Identity:     identity.DefaultConfig(),
		Leaderboard:  leaderboard.DefaultConfig(),
		Orchestrator: orchestrator.DefaultConfig(),
	}
}

// ConfigFromEnv maps process configuration onto factory configuration
func ConfigFromEnv(c config.Config, logger *slog.Logger) Config {
	redisCfg := c.Redis()
	return Config{
		Logger:      logger,
		StorageType: c.StorageType,
		RedisConfig: &redisCfg,
		SQLitePath:  c.SQLitePath,
		Hiscores:    c.Hiscores(),
		Roster: roster.Config{
			Interval: c.RosterInterval,
			MaxPages: c.RosterMaxPages,
		},
		Snapshot: snapshot.Config{Concurrency: c.SnapshotConcurrency},
		Identity: identity.Config{
			RetryBackoff: c.SetupRetryBackoff,
			MaxAttempts:  c.SetupMaxAttempts,
		},
		Leaderboard: leaderboard.Config{
			Pages:     c.LeaderboardPages,
			PageDelay: c.LeaderboardDelay,
		},
		Orchestrator: orchestrator.Config{
			CycleDelay:   c.CycleDelay,
			IngestInline: c.IngestInline,
		},
	}
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	client := hiscores.NewClient(cfg.Hiscores, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := dependencies{
		store:    store,
		clock:    clock.New(),
		random:   random.New(),
		roster:   client,
		stats:    client,
		registry: registry,
	}
	return newWithDependencies(deps, cfg, logger), nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageTypeMemory
	}

	switch storageType {
	case config.StorageTypeMemory:
		return memory.New(), nil
	case config.StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return redisStore, nil
	case config.StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqliteStore, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// dependencies are the swappable edges of the application
type dependencies struct {
	store    storage.Storage
	clock    clock.Clock
	random   random.Random
	roster   hiscores.RosterSource
	stats    hiscores.StatSource
	registry *prometheus.Registry
	// extra receives every event alongside the log and metrics sinks
	extra events.Sink
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(deps dependencies, cfg Config, logger *slog.Logger) *App {
	hub := sse.NewHub(logger)
	sinks := events.Multi{
		events.NewLogSink(logger),
		events.NewMetricsSink(deps.registry),
		hub,
	}
	if deps.extra != nil {
		sinks = append(sinks, deps.extra)
	}

	ingestor := roster.New(deps.roster, deps.store, deps.clock, sinks, cfg.Roster, logger)
	scheduler := snapshot.New(deps.stats, deps.store, deps.clock, sinks, cfg.Snapshot, logger)
	reconciler := identity.New(deps.store, deps.clock, deps.random, sinks, cfg.Identity, logger)
	refresher := leaderboard.New(deps.roster, deps.store, deps.clock, sinks, cfg.Leaderboard, logger)
	orch := orchestrator.New(scheduler, refresher, ingestor, deps.clock, cfg.Orchestrator, logger)

	return &App{
		Storage:      deps.store,
		Clock:        deps.clock,
		Random:       deps.random,
		Roster:       deps.roster,
		Stats:        deps.stats,
		Registry:     deps.registry,
		Events:       sinks,
		Hub:          hub,
		Ingestor:     ingestor,
		Scheduler:    scheduler,
		Reconciler:   reconciler,
		Refresher:    refresher,
		Orchestrator: orch,
	}
}
