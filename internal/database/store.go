// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package database implements the entity store behind the redirect
// gateway: the two redirect partitions (active and archive), the
// per-tenant manipulation rules, canonical microsites, and the
// exclusion tables.
//
// The store presents a single logical view: a guid is resolved across
// both partitions transparently, active partition first. The archival
// operations move rows between partitions copy-then-delete, and a named
// lease row serializes the archival task across processes.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/signpost/internal/models"
)

// ErrNotFound is returned when a guid exists in neither partition, or a
// tenant has no row for the requested configuration entity.
var ErrNotFound = errors.New("database: not found")

// LeaseName is the archival task's lock row.
const LeaseName = "archive"

// Store is the read/maintenance surface the gateway needs. Rows are
// created and mutated by external administrative collaborators; the
// resolver only reads. The exclusion insert methods exist for those
// collaborators' in-process path and fire cache invalidation.
type Store interface {
	// GetRedirect resolves guid across both partitions, active first.
	GetRedirect(ctx context.Context, guid string) (*models.Redirect, error)

	// GetMicrosite returns the tenant's canonical microsite, if any.
	GetMicrosite(ctx context.Context, buid int) (*models.CanonicalMicrosite, error)

	// GetManipulations returns all rules for (buid, viewSource) ordered
	// by action_type. An empty slice means no rules configured.
	GetManipulations(ctx context.Context, buid, viewSource int) ([]models.DestinationManipulation, error)

	// GetManipulation returns the single rule at (buid, viewSource,
	// actionType), or ErrNotFound.
	GetManipulation(ctx context.Context, buid, viewSource, actionType int) (*models.DestinationManipulation, error)

	// Exclusion table reads, consumed by the exclusion cache.
	ListExcludedViewSources(ctx context.Context) ([]models.ExcludedViewSource, error)
	ListCustomExclusions(ctx context.Context) ([]models.CustomExcludedViewSource, error)

	// Exclusion table writes. Each write triggers the invalidation hook.
	InsertExcludedViewSource(ctx context.Context, viewSource int) error
	InsertCustomExclusion(ctx context.Context, buid, viewSource int) error

	// SetExclusionHook registers the callback fired after every
	// exclusion write, used to invalidate the exclusion cache.
	SetExclusionHook(fn func())

	// ArchiveExpired copies every active row expired at or before
	// cutoff into the archive partition, then deletes the source rows.
	// Returns the number of rows moved.
	ArchiveExpired(ctx context.Context, cutoff time.Time) (int64, error)

	// RestoreUnexpired copies every archive row with no expiration back
	// into the active partition, then deletes the source rows. Returns
	// the number of rows moved.
	RestoreUnexpired(ctx context.Context) (int64, error)

	// AcquireLease takes the named lease for holder if it is free,
	// expired, or already held by the same holder. Returns false when
	// another live holder owns it.
	AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)

	// ReleaseLease drops the named lease if holder owns it.
	ReleaseLease(ctx context.Context, name, holder string) error

	// Close releases the underlying connection.
	Close() error
}
