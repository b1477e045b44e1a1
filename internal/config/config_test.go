// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8087, cfg.Server.Port)
	assert.Equal(t, "http://www.my.jobs", cfg.Redirect.CanonicalSite)
	assert.Equal(t, 30*24*time.Hour, cfg.Archive.ExpireAfter)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"canonical site not a url", func(c *Config) { c.Redirect.CanonicalSite = "my.jobs" }},
		{"zero new job window", func(c *Config) { c.Redirect.NewJobWindow = 0 }},
		{"zero query timeout", func(c *Config) { c.Database.QueryTimeout = 0 }},
		{"zero archive interval", func(c *Config) { c.Archive.Interval = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateArchiveLeaseSanity(t *testing.T) {
	cfg := Default()
	cfg.Archive.Interval = time.Hour
	cfg.Archive.LeaseTTL = 10 * time.Second
	assert.Error(t, cfg.Validate(), "a lease shorter than 1% of the interval cannot cover a sweep")

	// The check only applies while the archiver runs.
	cfg.Archive.Enabled = false
	assert.NoError(t, cfg.Validate())
}

func TestEnvTransformFunc(t *testing.T) {
	cases := map[string]string{
		"SIGNPOST_SERVER_PORT":             "server.port",
		"SIGNPOST_SERVER_RATE_LIMIT":       "server.rate_limit",
		"SIGNPOST_DATABASE_QUERY_TIMEOUT":  "database.query_timeout",
		"SIGNPOST_LOGGING_LEVEL":           "logging.level",
		"SIGNPOST_REDIRECT_NEW_JOB_WINDOW": "redirect.new_job_window",
		"SIGNPOST_ARCHIVE_EXPIRE_AFTER":    "archive.expire_after",
	}
	for in, want := range cases {
		assert.Equal(t, want, envTransformFunc(in), in)
	}
}

func TestLoadLayersFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 8088
  rate_limit: 100
redirect:
  canonical_site: "http://jobs.example.com"
archive:
  enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("SIGNPOST_SERVER_PORT", "9999")
	t.Setenv("SIGNPOST_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	// Environment beats file beats defaults.
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, "http://jobs.example.com", cfg.Redirect.CanonicalSite)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format, "untouched keys keep defaults")
	assert.Equal(t, time.Hour, cfg.Archive.Interval)
}

func TestLoadRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SIGNPOST_LOGGING_LEVEL", "shouting")

	_, err := Load()
	assert.ErrorContains(t, err, "validation failed")
}
