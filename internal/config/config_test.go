package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, config.BackendMemory, cfg.HistoryBackend)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HISTORY_BACKEND", "redis")
	t.Setenv("REDIS_TTL", "24h")
	t.Setenv("DISPLAY_TIMEZONE", "Africa/Abidjan")
	t.Setenv("INITIAL_BACKOFF", "250ms")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, config.BackendRedis, cfg.HistoryBackend)
	assert.Equal(t, 24*time.Hour, cfg.RedisTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.InitialBackoff)
	assert.Equal(t, "Africa/Abidjan", cfg.Location().String())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"HISTORY_BACKEND":  "postgres",
		"DISPLAY_TIMEZONE": "Mars/Olympus",
		"PORT":             "not-a-port",
		"RATE_LIMIT":       "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\nCACHE_TTL=30s\n"), 0o600))
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("CACHE_TTL", "")
	os.Unsetenv("CACHE_TTL")

	require.NoError(t, config.LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("CACHE_TTL") })

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}
