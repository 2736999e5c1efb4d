// Package config defines service configuration and how it is loaded.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Store selects the persistence backend: memory or postgres.
	Store       string `koanf:"store"`
	DatabaseURL string `koanf:"database_url"`
	// AutoMigrate applies pending migrations at start-up.
	AutoMigrate bool `koanf:"auto_migrate"`
	DBMaxConns  int  `koanf:"db_max_conns"`

	// RedisAddr enables the response cache when set.
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	CacheTTL      time.Duration `koanf:"cache_ttl"`

	// JWTSecret is the auth provider's HS256 signing secret.
	JWTSecret   string `koanf:"jwt_secret"`
	JWTAudience string `koanf:"jwt_audience"`

	// SubmitRate and SubmitBurst bound per-IP write requests (tokens per second).
	SubmitRate  float64  `koanf:"submit_rate"`
	SubmitBurst int      `koanf:"submit_burst"`
	CORSOrigins []string `koanf:"cors_origins"`

	// MaxLeaderboardLimit caps ?limit on ranking endpoints.
	MaxLeaderboardLimit     int `koanf:"max_leaderboard_limit"`
	DefaultLeaderboardLimit int `koanf:"default_leaderboard_limit"`
	// CurvePoints is the number of distribution curve intervals.
	CurvePoints int `koanf:"curve_points"`

	// EventQueueSize bounds the post-commit event queue.
	EventQueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of post-commit workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the submission id cache.
	DedupeSize int `koanf:"dedupe_size"`

	// UserTags maps user ids to display tags shown on leaderboards.
	UserTags map[string]string `koanf:"user_tags"`
	// BannedTerms extends the built-in username blocklist.
	BannedTerms []string `koanf:"banned_terms"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		ShutdownTimeout:         15 * time.Second,
		Store:                   StoreMemory,
		DBMaxConns:              10,
		CacheTTL:                30 * time.Second,
		SubmitRate:              2,
		SubmitBurst:             10,
		CORSOrigins:             []string{"http://localhost:3000"},
		MaxLeaderboardLimit:     100,
		DefaultLeaderboardLimit: 25,
		CurvePoints:             100,
		EventQueueSize:          1024,
		WorkerCount:             runtime.NumCPU(),
		DedupeSize:              50_000,
		UserTags:                map[string]string{},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StorePostgres, c.Store)
	case c.Store == StorePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	case c.CurvePoints < 1:
		return fmt.Errorf("%w: curve_points must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit < 1 || c.DefaultLeaderboardLimit < 1 || c.DefaultLeaderboardLimit > c.MaxLeaderboardLimit:
		return fmt.Errorf("%w: leaderboard limits must satisfy 1 <= default <= max", ErrInvalidConfig)
	case c.SubmitRate <= 0 || c.SubmitBurst < 1:
		return fmt.Errorf("%w: submit_rate and submit_burst must be positive", ErrInvalidConfig)
	case c.EventQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.CacheTTL <= 0:
		return fmt.Errorf("%w: cache_ttl must be positive", ErrInvalidConfig)
	}
	return nil
}
