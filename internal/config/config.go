// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All loading functions accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DatabaseDSN is the Postgres connection string.
	DatabaseDSN string `koanf:"db_dsn"`

	// AutoMigrate runs schema migration on startup.
	AutoMigrate bool `koanf:"auto_migrate"`

	// RefreshQueueSize bounds the in-memory refresh task queue.
	RefreshQueueSize int `koanf:"refresh_queue_size"`

	// RefreshWorkerCount sets the number of refresh workers.
	RefreshWorkerCount int `koanf:"refresh_worker_count"`

	// DedupeSize sets the size of the in-flight deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultTopN caps match results when the request does not specify one.
	DefaultTopN int `koanf:"default_top_n"`

	// MaxTopN bounds the number of candidates a single run may request.
	MaxTopN int `koanf:"max_top_n"`

	// MonthlyCapacityHours is the full-time monthly hour base used to
	// derive available hours from workload percent.
	MonthlyCapacityHours float64 `koanf:"monthly_capacity_hours"`

	// SolutionRoles lists role codes scored with the solution formula.
	SolutionRoles []string `koanf:"solution_roles"`

	// Thresholds optionally overrides the per-priority acceptance
	// thresholds, keyed P1..P5.
	Thresholds map[string]float64 `koanf:"thresholds"`

	// Weights optionally overrides the six dimension weights, keyed
	// skill, domain, attitude, quality, workload, special. All six must
	// be present and sum to 1 when set.
	Weights map[string]float64 `koanf:"weights"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		DatabaseDSN:          "host=localhost port=5432 user=roster dbname=roster sslmode=disable",
		AutoMigrate:          true,
		RefreshQueueSize:     10_000,
		RefreshWorkerCount:   runtime.NumCPU(),
		DedupeSize:           50_000,
		DefaultTopN:          10,
		MaxTopN:              50,
		MonthlyCapacityHours: 160,
		SolutionRoles:        []string{"SOLUTION_ARCHITECT", "SOLUTION_LEAD"},
	}
	return c
}
