// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/leaguetracker/internal/hiscores"
	redisstorage "github.com/mcoot/leaguetracker/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// Config is the full server configuration
type Config struct {
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"leaguetracker.db"`

	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	HiscoresBaseURL string        `env:"HISCORES_BASE_URL" envDefault:"https://secure.runescape.com/m=hiscore_oldschool_seasonal"`
	HiscoresRPS     float64       `env:"HISCORES_RPS" envDefault:"5"`
	HiscoresTimeout time.Duration `env:"HISCORES_TIMEOUT" envDefault:"30s"`

	SnapshotConcurrency int           `env:"SNAPSHOT_CONCURRENCY" envDefault:"16"`
	CycleDelay          time.Duration `env:"CYCLE_DELAY" envDefault:"15m"`
	RosterInterval      time.Duration `env:"ROSTER_INTERVAL" envDefault:"30s"`
	RosterMaxPages      int           `env:"ROSTER_MAX_PAGES" envDefault:"0"`
	LeaderboardPages    []int         `env:"LEADERBOARD_PAGES" envSeparator:"," envDefault:"1,2,3,4"`
	LeaderboardDelay    time.Duration `env:"LEADERBOARD_PAGE_DELAY" envDefault:"5s"`
	SetupRetryBackoff   time.Duration `env:"SETUP_RETRY_BACKOFF" envDefault:"50ms"`
	SetupMaxAttempts    int           `env:"SETUP_MAX_ATTEMPTS" envDefault:"0"`
	IngestInline        bool          `env:"INGEST_INLINE" envDefault:"false"`

	// PollingEnabled runs the roster and snapshot loops alongside the API
	PollingEnabled bool `env:"POLLING_ENABLED" envDefault:"true"`

	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	OTelEndpoint string     `env:"OTEL_ENDPOINT"`
}

// Load parses the configuration from environment variables and validates it
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageTypeMemory, StorageTypeSQLite:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, redis or sqlite", c.StorageType)
	}
	if c.SnapshotConcurrency < 0 {
		return errors.New("SNAPSHOT_CONCURRENCY must not be negative")
	}
	for _, page := range c.LeaderboardPages {
		if page < 1 {
			return fmt.Errorf("invalid leaderboard page %d", page)
		}
	}
	return nil
}

// Hiscores returns the hiscores client settings
func (c Config) Hiscores() hiscores.Config {
	cfg := hiscores.DefaultConfig()
	cfg.BaseURL = c.HiscoresBaseURL
	cfg.RequestsPerSecond = c.HiscoresRPS
	cfg.Timeout = c.HiscoresTimeout
	return cfg
}

// Redis returns the redis store settings
func (c Config) Redis() redisstorage.Config {
	cfg := redisstorage.DefaultConfig()
	cfg.URL = c.RedisURL
	return cfg
}
