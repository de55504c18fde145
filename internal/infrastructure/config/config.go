// Package config loads engine configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces every engine variable (TERMUL_DATA_DIR, ...).
const envPrefix = "TERMUL"

// Config holds all engine configuration.
type Config struct {
	Data        DataConfig
	Persistence PersistenceConfig
	Terminal    TerminalConfig
	Rollback    RollbackConfig
	Logging     LogConfig
}

// DataConfig locates the storage root.
type DataConfig struct {
	// Dir overrides the platform application-data directory when set.
	Dir string `envconfig:"DATA_DIR" default:""`
}

// PersistenceConfig tunes the write-behind coalescer.
type PersistenceConfig struct {
	DebounceMs int `envconfig:"DEBOUNCE_MS" default:"500"`
}

// TerminalConfig tunes terminal capture and creation.
type TerminalConfig struct {
	// DefaultShell is the global shell default in the fallback chain.
	DefaultShell       string `envconfig:"DEFAULT_SHELL" default:""`
	MaxScrollbackLines int    `envconfig:"MAX_SCROLLBACK_LINES" default:"1000"`
}

// RollbackConfig bounds version preservation.
type RollbackConfig struct {
	Retention int `envconfig:"ROLLBACK_RETENTION" default:"3"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// Debounce returns the coalescer delay as a duration.
func (c PersistenceConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Persistence: PersistenceConfig{DebounceMs: 500},
		Terminal:    TerminalConfig{MaxScrollbackLines: 1000},
		Rollback:    RollbackConfig{Retention: 3},
		Logging:     LogConfig{Level: "info"},
	}
}
