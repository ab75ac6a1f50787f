// Package config provides configuration loading and management for dashsync.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brightpath/dashsync/model"
)

// Config represents the complete dashsync configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Refresh RefreshConfig `yaml:"refresh"`
	Retry   RetryConfig   `yaml:"retry"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig configures the persistent key-value store
type StorageConfig struct {
	// Backend selects the store: "nats" or "memory"
	Backend string `yaml:"backend"`
	// URL is the NATS server URL (ignored for the memory backend)
	URL string `yaml:"url"`
}

// FetchConfig configures the remote entity fetchers
type FetchConfig struct {
	// BaseURL is the dashboard API base (e.g. https://api.example.com)
	BaseURL string `yaml:"base_url"`
	// Timeout is the per-request timeout
	Timeout time.Duration `yaml:"timeout"`
}

// RefreshConfig configures the periodic background refresh
type RefreshConfig struct {
	// Interval between automatic refreshes while foregrounded
	Interval time.Duration `yaml:"interval"`
}

// RetryConfig configures the orchestration retry policy
type RetryConfig struct {
	// MaxAttempts is the number of consecutive automatic retries
	MaxAttempts int `yaml:"max_attempts"`
	// BackoffBase is the first retry delay; doubles per retry
	BackoffBase time.Duration `yaml:"backoff_base"`
}

// CacheConfig configures per-entity cache behavior
type CacheConfig struct {
	// TTL overrides the default time-to-live per entity type
	TTL map[string]time.Duration `yaml:"ttl"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "nats",
			URL:     "nats://localhost:4222",
		},
		Fetch: FetchConfig{
			BaseURL: "http://localhost:8080",
			Timeout: 15 * time.Second,
		},
		Refresh: RefreshConfig{
			Interval: 5 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffBase: time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "nats", "memory":
	default:
		return fmt.Errorf("storage.backend must be nats or memory, got %q", c.Storage.Backend)
	}
	if c.Storage.Backend == "nats" && c.Storage.URL == "" {
		return fmt.Errorf("storage.url is required for the nats backend")
	}
	if c.Fetch.BaseURL == "" {
		return fmt.Errorf("fetch.base_url is required")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh.interval must be positive")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must not be negative")
	}
	for name := range c.Cache.TTL {
		if _, err := model.ParseEntityType(name); err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
	}
	return nil
}

// TTLOverrides converts the cache TTL section into typed overrides. Validate
// must have accepted the config first.
func (c *Config) TTLOverrides() map[model.EntityType]time.Duration {
	if len(c.Cache.TTL) == 0 {
		return nil
	}
	out := make(map[model.EntityType]time.Duration, len(c.Cache.TTL))
	for name, d := range c.Cache.TTL {
		out[model.EntityType(name)] = d
	}
	return out
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Storage
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.URL != "" {
		c.Storage.URL = other.Storage.URL
	}

	// Fetch
	if other.Fetch.BaseURL != "" {
		c.Fetch.BaseURL = other.Fetch.BaseURL
	}
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}

	// Refresh
	if other.Refresh.Interval != 0 {
		c.Refresh.Interval = other.Refresh.Interval
	}

	// Retry
	if other.Retry.MaxAttempts != 0 {
		c.Retry.MaxAttempts = other.Retry.MaxAttempts
	}
	if other.Retry.BackoffBase != 0 {
		c.Retry.BackoffBase = other.Retry.BackoffBase
	}

	// Cache
	if len(other.Cache.TTL) > 0 {
		c.Cache.TTL = other.Cache.TTL
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
