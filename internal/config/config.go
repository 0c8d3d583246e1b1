// Package config loads the BFA configuration from the environment.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // DISPLAY_TIMEZONE must resolve in minimal images

	"github.com/kelseyhightower/envconfig"
)

// History backends accepted by HISTORY_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// External services
	ProfileAPIURL       string `envconfig:"PROFILE_API_URL" default:"http://localhost:8081"`
	NotificationsAPIURL string `envconfig:"NOTIFICATIONS_API_URL" default:"http://localhost:8082"`
	CampaignsAPIURL     string `envconfig:"CAMPAIGNS_API_URL" default:"http://localhost:8083"`

	// HTTP client
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// Resilience
	MaxRetries     int           `envconfig:"MAX_RETRIES" default:"3"`
	InitialBackoff time.Duration `envconfig:"INITIAL_BACKOFF" default:"100ms"`
	MaxConcurrency int           `envconfig:"MAX_CONCURRENCY" default:"50"`

	// Cache, how long a caller's last campaign snapshot can stand in during an outage
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"1m"`

	// Observability
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`

	// Fund history persistence
	HistoryBackend string        `envconfig:"HISTORY_BACKEND" default:"memory"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisTTL       time.Duration `envconfig:"REDIS_TTL" default:"0s"`
	SQLitePath     string        `envconfig:"SQLITE_PATH" default:"data/fund_history.db"`

	// Display
	DisplayTimezone string `envconfig:"DISPLAY_TIMEZONE" default:"UTC"`

	// JWT / Auth
	JWTSecret string `envconfig:"JWT_SECRET" default:"bfa-default-dev-secret-change-me"`

	// Rate limiting, requests per minute per IP on /v1
	RateLimit int `envconfig:"RATE_LIMIT" default:"120"`

	location *time.Location
}

// Load reads configuration from environment variables with defaults and
// validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.HistoryBackend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("HISTORY_BACKEND must be one of memory, redis, sqlite; got %q", c.HistoryBackend)
	}

	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return fmt.Errorf("DISPLAY_TIMEZONE %q: %w", c.DisplayTimezone, err)
	}
	c.location = loc

	if c.MaxRetries < 0 {
		return fmt.Errorf("MAX_RETRIES must not be negative")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive")
	}
	return nil
}

// Location is the display time zone for ledger dates.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
