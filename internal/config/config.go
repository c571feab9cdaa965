// Package config loads the TOML configuration for the ledger tooling.
// The file lives at ~/.tradewave/config.toml (TRADEWAVE_HOME overrides the
// data directory); a missing file means defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Credit  CreditConfig  `toml:"credit"`
	Metrics MetricsConfig `toml:"metrics"`
}

// StoreConfig tunes the SQLite ledger store.
type StoreConfig struct {
	Path          string `toml:"path"`            // Data directory holding tradewave.db
	BusyTimeoutMS int    `toml:"busy_timeout_ms"` // Writer lock wait before a retry
	MaxRetries    int    `toml:"max_retries"`     // Attempts before reporting a conflict
}

// CreditConfig sets issuance defaults.
type CreditConfig struct {
	DefaultExpiryDays int `toml:"default_expiry_days"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{
			Path:          DataDir(),
			BusyTimeoutMS: 5000,
			MaxRetries:    5,
		},
		Credit: CreditConfig{
			DefaultExpiryDays: 365,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DataDir returns the tradewave data directory.
func DataDir() string {
	if env := os.Getenv("TRADEWAVE_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tradewave")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.toml")
}

// Load reads the config at path, filling unset fields with defaults.
// A missing file is not an error — defaults apply.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DataDir()
	}
	if cfg.Store.BusyTimeoutMS <= 0 {
		cfg.Store.BusyTimeoutMS = 5000
	}
	if cfg.Store.MaxRetries <= 0 {
		cfg.Store.MaxRetries = 5
	}
	if cfg.Credit.DefaultExpiryDays <= 0 {
		cfg.Credit.DefaultExpiryDays = 365
	}
	return cfg, nil
}

// BusyTimeout returns the configured writer lock wait as a duration.
func (c StoreConfig) BusyTimeout() time.Duration {
	return time.Duration(c.BusyTimeoutMS) * time.Millisecond
}

// DefaultExpiry returns the configured credit lifetime as a duration.
func (c CreditConfig) DefaultExpiry() time.Duration {
	return time.Duration(c.DefaultExpiryDays) * 24 * time.Hour
}
