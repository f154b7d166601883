package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Snapshot store backends
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	// MLB Stats API
	StatsAPIBaseURL   string        `envconfig:"STATSAPI_BASE_URL" default:"https://statsapi.mlb.com/api/v1"`
	StatsAPILeagueIDs string        `envconfig:"STATSAPI_LEAGUE_IDS" default:"103,104"`
	FetchTimeout      time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	FetchThrottle     time.Duration `envconfig:"FETCH_THROTTLE" default:"300ms"`
	FetchMaxRetries   int           `envconfig:"FETCH_MAX_RETRIES" default:"3"`

	// Snapshot store
	SnapshotBackend string `envconfig:"SNAPSHOT_BACKEND" default:"file"`
	DataDir         string `envconfig:"DATA_DIR" default:"data"`

	// Database (postgres backend only)
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"mlb_standings"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"standings_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" default:""`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis fetch cache
	RedisEnabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Caching TTL
	CacheTTLStandings time.Duration `envconfig:"CACHE_TTL_STANDINGS" default:"720h"` // 30 days

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Season heuristics
	StaleGamesThreshold int    `envconfig:"STALE_GAMES_THRESHOLD" default:"140"`
	SeasonEndWindow     int    `envconfig:"SEASON_END_WINDOW" default:"10"`
	MaxDiscoverySteps   int    `envconfig:"MAX_DISCOVERY_STEPS" default:"60"`
	MaxSeasonDays       int    `envconfig:"MAX_SEASON_DAYS" default:"250"`
	OpeningDayGuess     string `envconfig:"OPENING_DAY_GUESS" default:""` // YYYY-MM-DD, overrides the built-in guess

	// Scheduler (serve mode)
	UpdateCron string `envconfig:"UPDATE_CRON" default:"0 9 * * *"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.SnapshotBackend {
	case BackendFile:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR is required for the file backend")
		}
	case BackendPostgres:
		if c.DatabasePassword == "" {
			return fmt.Errorf("DATABASE_PASSWORD is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown SNAPSHOT_BACKEND %q", c.SnapshotBackend)
	}

	if c.FetchThrottle < 0 {
		return fmt.Errorf("FETCH_THROTTLE must not be negative")
	}

	if c.SeasonEndWindow < 2 {
		return fmt.Errorf("SEASON_END_WINDOW must be at least 2")
	}

	if c.StaleGamesThreshold <= 0 || c.MaxDiscoverySteps <= 0 || c.MaxSeasonDays <= 0 {
		return fmt.Errorf("season bounds must be positive")
	}

	if c.OpeningDayGuess != "" {
		if _, err := time.Parse("2006-01-02", c.OpeningDayGuess); err != nil {
			return fmt.Errorf("OPENING_DAY_GUESS must be YYYY-MM-DD: %w", err)
		}
	}

	return nil
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}
