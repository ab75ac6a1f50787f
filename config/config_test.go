package config

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/dashsync/model"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "nats", cfg.Storage.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }},
		{"nats without url", func(c *Config) { c.Storage.URL = "" }},
		{"missing base url", func(c *Config) { c.Fetch.BaseURL = "" }},
		{"non-positive refresh", func(c *Config) { c.Refresh.Interval = 0 }},
		{"negative retries", func(c *Config) { c.Retry.MaxAttempts = -1 }},
		{"unknown ttl entity", func(c *Config) {
			c.Cache.TTL = map[string]time.Duration{"leaderboard": time.Minute}
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMergePrecedence(t *testing.T) {
	base := DefaultConfig()
	base.Merge(&Config{
		Storage: StorageConfig{Backend: "memory"},
		Fetch:   FetchConfig{BaseURL: "https://api.example.com"},
		Refresh: RefreshConfig{Interval: time.Minute},
		Log:     LogConfig{Level: "debug"},
	})

	assert.Equal(t, "memory", base.Storage.Backend)
	assert.Equal(t, "https://api.example.com", base.Fetch.BaseURL)
	assert.Equal(t, time.Minute, base.Refresh.Interval)
	assert.Equal(t, "debug", base.Log.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, 3, base.Retry.MaxAttempts)
	assert.Equal(t, 15*time.Second, base.Fetch.Timeout)
}

func TestTTLOverrides(t *testing.T) {
	cfg := DefaultConfig()
	assert.Nil(t, cfg.TTLOverrides())

	cfg.Cache.TTL = map[string]time.Duration{"ranking": 90 * time.Second}
	require.NoError(t, cfg.Validate())

	overrides := cfg.TTLOverrides()
	assert.Equal(t, 90*time.Second, overrides[model.EntityRanking])
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dashsync.yaml")

	cfg := DefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Fetch.BaseURL = "https://api.example.com"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", loaded.Storage.Backend)
	assert.Equal(t, "https://api.example.com", loaded.Fetch.BaseURL)
}

func TestLoaderExplicitPathWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashsync.yaml")
	cfg := DefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Log.Level = "warn"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, source, err := NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, source)
	assert.Equal(t, "memory", loaded.Storage.Backend)
	assert.Equal(t, "warn", loaded.Log.Level)
}

func TestLoaderMissingUserConfigIsQuiet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	_, _, err := NewLoader(logger).Load("")
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Failed to load user config",
		"a missing user config is the normal case, not a warning")
}

func TestLoaderExplicitPathMissingFails(t *testing.T) {
	_, _, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
