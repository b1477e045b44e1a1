// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package config loads and validates gateway configuration via Koanf v2
// with layered sources: struct defaults, then an optional YAML file,
// then environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full gateway configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Redirect RedirectConfig `koanf:"redirect"`
	Archive  ArchiveConfig  `koanf:"archive"`
}

// ServerConfig tunes the public HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per minute per client IP on the public
	// redirect endpoint. Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit" validate:"gte=0"`
}

// DatabaseConfig tunes the embedded entity store.
type DatabaseConfig struct {
	// Path to the database file. Empty opens an in-memory database.
	Path string `koanf:"path"`

	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`

	// QueryTimeout bounds every store call so a stuck disk surfaces as
	// a request error instead of a hung handler.
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// RedirectConfig carries the resolver's tunables. The product constants
// (crawler view sources, state branding table, special tenant ids) are
// compiled in; only operational knobs live here.
type RedirectConfig struct {
	// CanonicalSite is the public site unknown paths redirect to and
	// the base of the expired page's browse-all-jobs fallback.
	CanonicalSite string `koanf:"canonical_site" validate:"required,url"`

	// NewJobWindow is how long after first sighting a job is considered
	// too new for microsite routing (propagation delay).
	NewJobWindow time.Duration `koanf:"new_job_window" validate:"gt=0"`
}

// ArchiveConfig tunes the partition-maintenance task.
type ArchiveConfig struct {
	Enabled bool `koanf:"enabled"`

	// Interval between archival sweeps.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`

	// ExpireAfter is how long a job stays expired in the active
	// partition before moving to the archive.
	ExpireAfter time.Duration `koanf:"expire_after" validate:"gt=0"`

	// LeaseTTL bounds how long a crashed holder blocks the next sweep.
	LeaseTTL time.Duration `koanf:"lease_ttl" validate:"gt=0"`
}

// Validate checks the configuration beyond what struct tags express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Archive.Enabled && c.Archive.LeaseTTL <= c.Archive.Interval/100 {
		return fmt.Errorf("archive lease_ttl %s is implausibly short for interval %s",
			c.Archive.LeaseTTL, c.Archive.Interval)
	}
	return nil
}
