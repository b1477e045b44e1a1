// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/signpost/internal/models"
)

const (
	guidA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	guidB = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	guidC = "cccccccccccccccccccccccccccccccc"
)

func redirect(guid string, buid int, url string) models.Redirect {
	return models.Redirect{GUID: guid, BUID: buid, UID: 1, URL: url, NewDate: time.Now()}
}

func TestGetRedirectActivePartitionWins(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.AddArchivedRedirect(redirect(guidA, 1, "http://old.example.com/"))
	store.AddRedirect(redirect(guidA, 1, "http://new.example.com/"))

	got, err := store.GetRedirect(ctx, guidA)
	require.NoError(t, err)
	assert.Equal(t, "http://new.example.com/", got.URL)
}

func TestGetRedirectFallsBackToArchive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	expired := time.Now().Add(-60 * 24 * time.Hour)
	row := redirect(guidA, 1, "http://archived.example.com/")
	row.ExpiredDate = &expired
	store.AddArchivedRedirect(row)

	got, err := store.GetRedirect(ctx, guidA)
	require.NoError(t, err)
	assert.Equal(t, "http://archived.example.com/", got.URL)

	_, err = store.GetRedirect(ctx, guidB)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetRedirectCleansGUID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	store.AddRedirect(redirect(guidA, 1, "http://ex.com/"))

	got, err := store.GetRedirect(ctx, "{aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa}")
	require.NoError(t, err)
	assert.Equal(t, guidA, got.GUID)
}

func TestGetManipulationsOrderedByActionType(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.AddManipulation(models.DestinationManipulation{BUID: 1, ViewSource: 10, ActionType: 2, Action: "micrositetag"})
	store.AddManipulation(models.DestinationManipulation{BUID: 1, ViewSource: 10, ActionType: 1, Action: "sourcecodetag"})

	rules, err := store.GetManipulations(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, 1, rules[0].ActionType)
	assert.Equal(t, 2, rules[1].ActionType)

	rules, err = store.GetManipulations(ctx, 1, 99)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestGetManipulationByActionType(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.AddManipulation(models.DestinationManipulation{BUID: 1, ViewSource: 10, ActionType: 1, Action: "micrositetag"})
	store.AddManipulation(models.DestinationManipulation{BUID: 1, ViewSource: 10, ActionType: 2, Action: "sourcecodetag", Value1: "?src=x"})

	rule, err := store.GetManipulation(ctx, 1, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, "sourcecodetag", rule.Action)

	_, err = store.GetManipulation(ctx, 1, 10, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArchiveExpiredMovesOnlyPastCutoff(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	longGone := now.Add(-45 * 24 * time.Hour)
	recent := now.Add(-24 * time.Hour)

	a := redirect(guidA, 1, "http://a/")
	a.ExpiredDate = &longGone
	b := redirect(guidB, 1, "http://b/")
	b.ExpiredDate = &recent
	c := redirect(guidC, 1, "http://c/")

	store.AddRedirect(a)
	store.AddRedirect(b)
	store.AddRedirect(c)

	moved, err := store.ArchiveExpired(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)
	assert.True(t, store.InArchive(guidA))
	assert.True(t, store.InActive(guidB), "recently expired stays active")
	assert.True(t, store.InActive(guidC), "live jobs never move")
}

func TestArchiveExpiredCutoffIsInclusive(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	cutoff := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	row := redirect(guidA, 1, "http://a/")
	row.ExpiredDate = &cutoff
	store.AddRedirect(row)

	moved, err := store.ArchiveExpired(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)
}

func TestRestoreUnexpiredBringsBackRetractedExpirations(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	expired := time.Now().Add(-60 * 24 * time.Hour)
	dead := redirect(guidA, 1, "http://a/")
	dead.ExpiredDate = &expired
	store.AddArchivedRedirect(dead)
	store.AddArchivedRedirect(redirect(guidB, 1, "http://b/"))

	moved, err := store.RestoreUnexpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), moved)
	assert.True(t, store.InActive(guidB))
	assert.True(t, store.InArchive(guidA))
}

func TestLeaseAcquisition(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.AcquireLease(ctx, "archive", "host-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// A live lease blocks other holders but renews for its own.
	ok, err = store.AcquireLease(ctx, "archive", "host-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = store.AcquireLease(ctx, "archive", "host-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Release frees it for anyone; a release by a non-holder is a no-op.
	require.NoError(t, store.ReleaseLease(ctx, "archive", "host-2"))
	ok, err = store.AcquireLease(ctx, "archive", "host-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.ReleaseLease(ctx, "archive", "host-1"))
	ok, err = store.AcquireLease(ctx, "archive", "host-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLeaseExpiryAllowsTakeover(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.AcquireLease(ctx, "archive", "host-1", -time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.AcquireLease(ctx, "archive", "host-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired lease is free for the taking")
}

func TestExclusionWritesFireHook(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var fired int
	store.SetExclusionHook(func() { fired++ })

	require.NoError(t, store.InsertExcludedViewSource(ctx, 99))
	require.NoError(t, store.InsertCustomExclusion(ctx, 7, 42))
	assert.Equal(t, 2, fired)

	global, err := store.ListExcludedViewSources(ctx)
	require.NoError(t, err)
	require.Len(t, global, 1)
	assert.Equal(t, 99, global[0].ViewSource)

	custom, err := store.ListCustomExclusions(ctx)
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, models.CustomExcludedViewSource{BUID: 7, ViewSource: 42}, custom[0])
}
