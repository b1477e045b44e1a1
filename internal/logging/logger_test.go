// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

// resetAfter restores the default global logger when the test ends, so
// tests that rebind the output do not leak into each other.
func resetAfter(t *testing.T) {
	t.Cleanup(func() { Init(Config{}) })
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"debug":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		"warn":     zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"ERROR":    zerolog.ErrorLevel,
		"fatal":    zerolog.FatalLevel,
		"panic":    zerolog.PanicLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestInitEmitsJSON(t *testing.T) {
	resetAfter(t)
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})

	Info().Str("guid", "abc").Msg("resolved")

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"guid":"abc"`)
	assert.Contains(t, out, `"message":"resolved"`)
}

func TestCtxCarriesRequestID(t *testing.T) {
	resetAfter(t)
	var buf bytes.Buffer
	Init(Config{Output: &buf})

	ctx := ContextWithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))

	Ctx(ctx).Info().Msg("correlated")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	Ctx(context.Background()).Info().Msg("bare")
	assert.NotContains(t, buf.String(), "request_id")
}

func TestChildLoggerFields(t *testing.T) {
	resetAfter(t)
	var buf bytes.Buffer
	Init(Config{Output: &buf})

	child := With().Str("component", "archiver").Logger()
	child.Info().Msg("sweep complete")
	assert.Contains(t, buf.String(), `"component":"archiver"`)
}

func TestSlogBridge(t *testing.T) {
	resetAfter(t)
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})

	l := NewSlogLogger()
	l.Info("service started", "service", "archiver", slog.Int("restarts", 2))

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"message":"service started"`)
	assert.Contains(t, out, `"service":"archiver"`)
	assert.Contains(t, out, `"restarts":2`)
}

func TestSlogBridgeFlattensGroups(t *testing.T) {
	resetAfter(t)
	var buf bytes.Buffer
	Init(Config{Output: &buf})

	l := NewSlogLogger().With(slog.String("layer", "jobs")).WithGroup("supervisor")
	l.Warn("service backoff", "service", "archiver")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"layer":"jobs"`)
	// Group names are dropped, not prefixed.
	assert.Contains(t, out, `"service":"archiver"`)
	assert.NotContains(t, out, "supervisor.service")
}

func TestNewTestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewTestLogger(&buf)
	l.Error().Msg("boom")
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"message":"boom"`)
}
