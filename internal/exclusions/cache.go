// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package exclusions caches the microsite-routing exclusion sets.
//
// The backing tables change rarely (admin writes only) but are read on
// every resolution, so the cache holds both sets as one immutable
// snapshot swapped atomically. There is no TTL: the snapshot lives until
// Invalidate is called by a write to either table. Concurrent
// repopulation after an invalidate is harmless; both loaders run the
// same queries and last writer wins.
package exclusions

import (
	"context"
	"sync/atomic"

	"github.com/tomtom215/signpost/internal/metrics"
	"github.com/tomtom215/signpost/internal/models"
)

// Source loads the exclusion tables. Implemented by the entity store.
type Source interface {
	ListExcludedViewSources(ctx context.Context) ([]models.ExcludedViewSource, error)
	ListCustomExclusions(ctx context.Context) ([]models.CustomExcludedViewSource, error)
}

// snapshot is one immutable view of both exclusion sets, tagged with
// the generation it was loaded under.
type snapshot struct {
	gen    uint64
	global map[int]struct{}
	custom map[models.ExclusionKey]struct{}
}

// Cache is the process-wide exclusion cache. The zero value is not
// usable; construct with New. Reads repopulate on miss; writes to the
// backing tables must call Invalidate.
type Cache struct {
	source Source
	gen    atomic.Uint64
	snap   atomic.Pointer[snapshot]
}

// New returns an empty cache reading from source. The first lookup
// populates it.
func New(source Source) *Cache {
	return &Cache{source: source}
}

// Global returns the set of globally excluded view sources.
func (c *Cache) Global(ctx context.Context) (map[int]struct{}, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.global, nil
}

// Custom returns the set of per-tenant excluded (buid, view source)
// pairs.
func (c *Cache) Custom(ctx context.Context) (map[models.ExclusionKey]struct{}, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return snap.custom, nil
}

// GlobalExcluded reports whether viewSource is globally excluded from
// microsite routing.
func (c *Cache) GlobalExcluded(ctx context.Context, viewSource int) (bool, error) {
	set, err := c.Global(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[viewSource]
	return ok, nil
}

// CustomExcluded reports whether the (buid, viewSource) pair is
// excluded for that tenant.
func (c *Cache) CustomExcluded(ctx context.Context, buid, viewSource int) (bool, error) {
	set, err := c.Custom(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[models.ExclusionKey{BUID: buid, ViewSource: viewSource}]
	return ok, nil
}

// Invalidate discards the current snapshot. The next read repopulates
// from the source. Safe to call from any goroutine, including
// concurrently with reads.
func (c *Cache) Invalidate() {
	c.gen.Add(1)
}

// current returns a snapshot for the present generation, loading one if
// the cached snapshot is missing or stale.
func (c *Cache) current(ctx context.Context) (*snapshot, error) {
	gen := c.gen.Load()
	if snap := c.snap.Load(); snap != nil && snap.gen == gen {
		return snap, nil
	}
	return c.populate(ctx, gen)
}

// populate loads both sets and installs them under gen. No lock is
// held across the store reads; a racing populate for the same
// generation produces an identical snapshot, so the swap order does not
// matter.
func (c *Cache) populate(ctx context.Context, gen uint64) (*snapshot, error) {
	globalRows, err := c.source.ListExcludedViewSources(ctx)
	if err != nil {
		return nil, err
	}
	customRows, err := c.source.ListCustomExclusions(ctx)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		gen:    gen,
		global: make(map[int]struct{}, len(globalRows)),
		custom: make(map[models.ExclusionKey]struct{}, len(customRows)),
	}
	for _, row := range globalRows {
		snap.global[row.ViewSource] = struct{}{}
	}
	for _, row := range customRows {
		snap.custom[models.ExclusionKey{BUID: row.BUID, ViewSource: row.ViewSource}] = struct{}{}
	}

	c.snap.Store(snap)
	metrics.ExclusionCacheReloads.Inc()
	return snap, nil
}
