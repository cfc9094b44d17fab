// Package config defines service configuration and its loader.
//
// Conventions:
//   - New(ctx) returns a Config with defaults.
//   - Load(ctx) layers a YAML file and TRIBESCORE_* env vars on top.
//   - Validation errors wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// Addr is the ops HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// QueueSize bounds the in-memory compile job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of compile workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the request key dedupe cache. 0 means unbounded.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxStandingsLimit caps how many entries a standings read returns.
	MaxStandingsLimit int `koanf:"max_standings_limit"`

	// SurvivalCap caps the per-episode survival bonus; 0 disables it.
	SurvivalCap int `koanf:"survival_cap"`
	// PreserveStreak keeps streaks alive across pick changes.
	PreserveStreak bool `koanf:"preserve_streak"`
	// TribePointsToCastaways credits tribe points to every castaway on the tribe.
	TribePointsToCastaways bool `koanf:"tribe_points_to_castaways"`

	// SeasonFile is an optional season file compiled at startup.
	SeasonFile string `koanf:"season_file"`
}

// New creates a Config with defaults. The context is reserved for
// loaders that need it.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		QueueSize:              1_024,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             10_000,
		MaxStandingsLimit:      100,
		SurvivalCap:            5,
		PreserveStreak:         true,
		TribePointsToCastaways: true,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.MaxStandingsLimit <= 0:
		return fmt.Errorf("%w: max_standings_limit must be positive, got %d", ErrInvalidConfig, c.MaxStandingsLimit)
	case c.SurvivalCap < 0:
		return fmt.Errorf("%w: survival_cap must not be negative, got %d", ErrInvalidConfig, c.SurvivalCap)
	}
	return nil
}
