// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package archive moves long-expired postings from the active
// partition into the archive and brings back rows whose expiration was
// retracted upstream. One sweep runs at a time across the whole
// deployment, guarded by a store-level lease.
package archive

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/signpost/internal/config"
	"github.com/tomtom215/signpost/internal/database"
	"github.com/tomtom215/signpost/internal/logging"
	"github.com/tomtom215/signpost/internal/metrics"
)

// Archiver runs the periodic partition sweep. It implements
// suture.Service and restarts under the supervision tree on failure.
type Archiver struct {
	store  database.Store
	cfg    *config.ArchiveConfig
	holder string

	now func() time.Time
}

// New builds an Archiver. The holder identity is stable for the
// process lifetime so lease renewal across sweeps is idempotent.
func New(store database.Store, cfg *config.ArchiveConfig) *Archiver {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "signpost"
	}
	return &Archiver{
		store:  store,
		cfg:    cfg,
		holder: fmt.Sprintf("%s-%s", hostname, uuid.New().String()[:8]),
		now:    time.Now,
	}
}

// Serve implements suture.Service. It sweeps immediately on start so a
// freshly deployed instance does not wait a full interval, then ticks.
func (a *Archiver) Serve(ctx context.Context) error {
	logging.Info().
		Str("holder", a.holder).
		Dur("interval", a.cfg.Interval).
		Dur("expire_after", a.cfg.ExpireAfter).
		Msg("Archiver started")

	if err := a.Sweep(ctx); err != nil {
		logging.Error().Err(err).Msg("Archive sweep failed")
	}

	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Archiver stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := a.Sweep(ctx); err != nil {
				logging.Error().Err(err).Msg("Archive sweep failed")
			}
		}
	}
}

// String implements fmt.Stringer for supervision logs.
func (a *Archiver) String() string {
	return "archiver"
}

// Sweep runs one lease-guarded archival pass: restore rows whose
// expiration was retracted, then move rows expired longer than the
// retention window. Skipping because another instance holds the lease
// is a normal outcome, not an error.
func (a *Archiver) Sweep(ctx context.Context) error {
	acquired, err := a.store.AcquireLease(ctx, database.LeaseName, a.holder, a.cfg.LeaseTTL)
	if err != nil {
		metrics.ArchiveSweeps.WithLabelValues("error").Inc()
		return fmt.Errorf("acquiring archive lease: %w", err)
	}
	if !acquired {
		metrics.ArchiveSweeps.WithLabelValues("lease_held").Inc()
		logging.Debug().Msg("Archive lease held elsewhere, skipping sweep")
		return nil
	}
	defer func() {
		if err := a.store.ReleaseLease(ctx, database.LeaseName, a.holder); err != nil {
			logging.Warn().Err(err).Msg("Failed to release archive lease")
		}
	}()

	restored, err := a.store.RestoreUnexpired(ctx)
	if err != nil {
		metrics.ArchiveSweeps.WithLabelValues("error").Inc()
		return fmt.Errorf("restoring unexpired rows: %w", err)
	}
	if restored > 0 {
		metrics.ArchiveRowsMoved.WithLabelValues("to_active").Add(float64(restored))
	}

	cutoff := a.now().Add(-a.cfg.ExpireAfter)
	archived, err := a.store.ArchiveExpired(ctx, cutoff)
	if err != nil {
		metrics.ArchiveSweeps.WithLabelValues("error").Inc()
		return fmt.Errorf("archiving expired rows: %w", err)
	}
	if archived > 0 {
		metrics.ArchiveRowsMoved.WithLabelValues("to_archive").Add(float64(archived))
	}

	metrics.ArchiveSweeps.WithLabelValues("ok").Inc()
	logging.Info().
		Int64("archived", archived).
		Int64("restored", restored).
		Time("cutoff", cutoff).
		Msg("Archive sweep completed")
	return nil
}
