// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/signpost/internal/models"
)

// MemoryStore is a map-backed Store used in tests and for local
// development without a database file. Behavior mirrors the DuckDB
// implementation: active partition wins on guid lookup, rule chains
// come back ordered by action_type, exclusion writes fire the
// invalidation hook.
type MemoryStore struct {
	mu sync.RWMutex

	active  map[string]models.Redirect
	archive map[string]models.Redirect

	manipulations map[models.ExclusionKey][]models.DestinationManipulation
	microsites    map[int]models.CanonicalMicrosite

	globalExcluded map[int]struct{}
	customExcluded map[models.ExclusionKey]struct{}

	leases map[string]memoryLease

	onExclusionWrite func()
}

type memoryLease struct {
	holder  string
	expires time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		active:         make(map[string]models.Redirect),
		archive:        make(map[string]models.Redirect),
		manipulations:  make(map[models.ExclusionKey][]models.DestinationManipulation),
		microsites:     make(map[int]models.CanonicalMicrosite),
		globalExcluded: make(map[int]struct{}),
		customExcluded: make(map[models.ExclusionKey]struct{}),
		leases:         make(map[string]memoryLease),
	}
}

// SetExclusionHook registers the exclusion-write callback.
func (s *MemoryStore) SetExclusionHook(fn func()) {
	s.mu.Lock()
	s.onExclusionWrite = fn
	s.mu.Unlock()
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// AddRedirect seeds a row into the active partition.
func (s *MemoryStore) AddRedirect(r models.Redirect) {
	s.mu.Lock()
	s.active[models.CleanGUID(r.GUID)] = r
	s.mu.Unlock()
}

// AddArchivedRedirect seeds a row into the archive partition.
func (s *MemoryStore) AddArchivedRedirect(r models.Redirect) {
	s.mu.Lock()
	s.archive[models.CleanGUID(r.GUID)] = r
	s.mu.Unlock()
}

// AddManipulation seeds one rule row.
func (s *MemoryStore) AddManipulation(m models.DestinationManipulation) {
	key := models.ExclusionKey{BUID: m.BUID, ViewSource: m.ViewSource}
	s.mu.Lock()
	s.manipulations[key] = append(s.manipulations[key], m)
	sort.SliceStable(s.manipulations[key], func(i, j int) bool {
		return s.manipulations[key][i].ActionType < s.manipulations[key][j].ActionType
	})
	s.mu.Unlock()
}

// AddMicrosite seeds a canonical microsite row.
func (s *MemoryStore) AddMicrosite(m models.CanonicalMicrosite) {
	s.mu.Lock()
	s.microsites[m.BUID] = m
	s.mu.Unlock()
}

// InActive reports whether guid currently lives in the active partition.
func (s *MemoryStore) InActive(guid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.active[models.CleanGUID(guid)]
	return ok
}

// InArchive reports whether guid currently lives in the archive partition.
func (s *MemoryStore) InArchive(guid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.archive[models.CleanGUID(guid)]
	return ok
}

// GetRedirect implements Store.
func (s *MemoryStore) GetRedirect(_ context.Context, guid string) (*models.Redirect, error) {
	guid = models.CleanGUID(guid)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.active[guid]; ok {
		out := r
		return &out, nil
	}
	if r, ok := s.archive[guid]; ok {
		out := r
		return &out, nil
	}
	return nil, ErrNotFound
}

// GetMicrosite implements Store.
func (s *MemoryStore) GetMicrosite(_ context.Context, buid int) (*models.CanonicalMicrosite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.microsites[buid]; ok {
		out := m
		return &out, nil
	}
	return nil, ErrNotFound
}

// GetManipulations implements Store.
func (s *MemoryStore) GetManipulations(_ context.Context, buid, viewSource int) ([]models.DestinationManipulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := s.manipulations[models.ExclusionKey{BUID: buid, ViewSource: viewSource}]
	out := make([]models.DestinationManipulation, len(rules))
	copy(out, rules)
	return out, nil
}

// GetManipulation implements Store.
func (s *MemoryStore) GetManipulation(_ context.Context, buid, viewSource, actionType int) (*models.DestinationManipulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.manipulations[models.ExclusionKey{BUID: buid, ViewSource: viewSource}] {
		if m.ActionType == actionType {
			out := m
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// ListExcludedViewSources implements Store.
func (s *MemoryStore) ListExcludedViewSources(_ context.Context) ([]models.ExcludedViewSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ExcludedViewSource, 0, len(s.globalExcluded))
	for vs := range s.globalExcluded {
		out = append(out, models.ExcludedViewSource{ViewSource: vs})
	}
	return out, nil
}

// ListCustomExclusions implements Store.
func (s *MemoryStore) ListCustomExclusions(_ context.Context) ([]models.CustomExcludedViewSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CustomExcludedViewSource, 0, len(s.customExcluded))
	for key := range s.customExcluded {
		out = append(out, models.CustomExcludedViewSource{BUID: key.BUID, ViewSource: key.ViewSource})
	}
	return out, nil
}

// InsertExcludedViewSource implements Store.
func (s *MemoryStore) InsertExcludedViewSource(_ context.Context, viewSource int) error {
	s.mu.Lock()
	s.globalExcluded[viewSource] = struct{}{}
	hook := s.onExclusionWrite
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// InsertCustomExclusion implements Store.
func (s *MemoryStore) InsertCustomExclusion(_ context.Context, buid, viewSource int) error {
	s.mu.Lock()
	s.customExcluded[models.ExclusionKey{BUID: buid, ViewSource: viewSource}] = struct{}{}
	hook := s.onExclusionWrite
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

// ArchiveExpired implements Store.
func (s *MemoryStore) ArchiveExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var moved int64
	for guid, r := range s.active {
		if r.ExpiredDate != nil && !r.ExpiredDate.After(cutoff) {
			s.archive[guid] = r
			delete(s.active, guid)
			moved++
		}
	}
	return moved, nil
}

// RestoreUnexpired implements Store.
func (s *MemoryStore) RestoreUnexpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var moved int64
	for guid, r := range s.archive {
		if r.ExpiredDate == nil {
			s.active[guid] = r
			delete(s.archive, guid)
			moved++
		}
	}
	return moved, nil
}

// AcquireLease implements Store.
func (s *MemoryStore) AcquireLease(_ context.Context, name, holder string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if lease, ok := s.leases[name]; ok && lease.holder != holder && lease.expires.After(now) {
		return false, nil
	}
	s.leases[name] = memoryLease{holder: holder, expires: now.Add(ttl)}
	return true, nil
}

// ReleaseLease implements Store.
func (s *MemoryStore) ReleaseLease(_ context.Context, name, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lease, ok := s.leases[name]; ok && lease.holder == holder {
		delete(s.leases, name)
	}
	return nil
}
