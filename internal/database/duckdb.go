// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/signpost/internal/config"
	"github.com/tomtom215/signpost/internal/logging"
	"github.com/tomtom215/signpost/internal/models"
)

// DB wraps the DuckDB connection and implements Store.
type DB struct {
	conn         *sql.DB
	queryTimeout time.Duration

	// onExclusionWrite is called synchronously after any write to the
	// exclusion tables so the exclusion cache can drop its snapshot.
	onExclusionWrite func()
}

// New opens (or creates) the database at cfg.Path and bootstraps the
// schema. An empty path opens an in-memory database, useful for
// development.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != "" {
		// Ensure parent directory exists for the database file.
		// 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn:         conn,
		queryTimeout: cfg.QueryTimeout,
	}
	if db.queryTimeout <= 0 {
		db.queryTimeout = 5 * time.Second
	}

	if err := db.initSchema(); err != nil {
		conn.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Int("threads", numThreads).
		Msg("Database opened")

	return db, nil
}

// SetExclusionHook registers the callback fired after exclusion-table
// writes. Typically wired to the exclusion cache's Invalidate.
func (d *DB) SetExclusionHook(fn func()) {
	d.onExclusionWrite = fn
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// bound derives a context carrying the store's query timeout. Every
// store call is bounded; a dead disk surfaces as a request error, not a
// hung handler.
func (d *DB) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.queryTimeout)
}

const redirectColumns = "guid, buid, uid, url, new_date, expired_date, job_location, job_title, company_name"

// GetRedirect resolves guid across both partitions. The active
// partition wins when a guid exists in both, which can happen briefly
// while a sweep is restoring a retracted expiration.
func (d *DB) GetRedirect(ctx context.Context, guid string) (*models.Redirect, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	for _, table := range []string{"redirects", "redirects_archive"} {
		row := d.conn.QueryRowContext(ctx,
			"SELECT "+redirectColumns+" FROM "+table+" WHERE guid = ?", guid)
		r, err := scanRedirect(row)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("query %s: %w", table, err)
		}
	}
	return nil, ErrNotFound
}

func scanRedirect(row *sql.Row) (*models.Redirect, error) {
	var r models.Redirect
	var expired sql.NullTime
	err := row.Scan(&r.GUID, &r.BUID, &r.UID, &r.URL, &r.NewDate, &expired,
		&r.JobLocation, &r.JobTitle, &r.CompanyName)
	if err != nil {
		return nil, err
	}
	if expired.Valid {
		t := expired.Time
		r.ExpiredDate = &t
	}
	return &r, nil
}

// GetMicrosite returns the tenant's canonical microsite row.
func (d *DB) GetMicrosite(ctx context.Context, buid int) (*models.CanonicalMicrosite, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	var m models.CanonicalMicrosite
	err := d.conn.QueryRowContext(ctx,
		"SELECT buid, canonical_microsite_url FROM canonical_microsites WHERE buid = ?",
		buid).Scan(&m.BUID, &m.CanonicalMicrositeURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query canonical_microsites: %w", err)
	}
	return &m, nil
}

// GetManipulations returns the ordered rule chain for (buid, viewSource).
func (d *DB) GetManipulations(ctx context.Context, buid, viewSource int) ([]models.DestinationManipulation, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	rows, err := d.conn.QueryContext(ctx,
		`SELECT buid, view_source, action_type, action, value_1, value_2
		 FROM destination_manipulations
		 WHERE buid = ? AND view_source = ?
		 ORDER BY action_type`, buid, viewSource)
	if err != nil {
		return nil, fmt.Errorf("query destination_manipulations: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only

	var out []models.DestinationManipulation
	for rows.Next() {
		var m models.DestinationManipulation
		if err := rows.Scan(&m.BUID, &m.ViewSource, &m.ActionType, &m.Action, &m.Value1, &m.Value2); err != nil {
			return nil, fmt.Errorf("scan destination_manipulations: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetManipulation returns the single rule at the full key.
func (d *DB) GetManipulation(ctx context.Context, buid, viewSource, actionType int) (*models.DestinationManipulation, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	var m models.DestinationManipulation
	err := d.conn.QueryRowContext(ctx,
		`SELECT buid, view_source, action_type, action, value_1, value_2
		 FROM destination_manipulations
		 WHERE buid = ? AND view_source = ? AND action_type = ?`,
		buid, viewSource, actionType).
		Scan(&m.BUID, &m.ViewSource, &m.ActionType, &m.Action, &m.Value1, &m.Value2)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query destination_manipulations: %w", err)
	}
	return &m, nil
}

// ListExcludedViewSources returns the global exclusion table.
func (d *DB) ListExcludedViewSources(ctx context.Context) ([]models.ExcludedViewSource, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	rows, err := d.conn.QueryContext(ctx, "SELECT view_source FROM excluded_view_sources")
	if err != nil {
		return nil, fmt.Errorf("query excluded_view_sources: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only

	var out []models.ExcludedViewSource
	for rows.Next() {
		var e models.ExcludedViewSource
		if err := rows.Scan(&e.ViewSource); err != nil {
			return nil, fmt.Errorf("scan excluded_view_sources: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListCustomExclusions returns the per-tenant exclusion table.
func (d *DB) ListCustomExclusions(ctx context.Context) ([]models.CustomExcludedViewSource, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	rows, err := d.conn.QueryContext(ctx, "SELECT buid, view_source FROM custom_excluded_view_sources")
	if err != nil {
		return nil, fmt.Errorf("query custom_excluded_view_sources: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only

	var out []models.CustomExcludedViewSource
	for rows.Next() {
		var e models.CustomExcludedViewSource
		if err := rows.Scan(&e.BUID, &e.ViewSource); err != nil {
			return nil, fmt.Errorf("scan custom_excluded_view_sources: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertExcludedViewSource adds a global exclusion and invalidates the
// exclusion cache.
func (d *DB) InsertExcludedViewSource(ctx context.Context, viewSource int) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	_, err := d.conn.ExecContext(ctx,
		"INSERT INTO excluded_view_sources (view_source) VALUES (?)", viewSource)
	if err != nil {
		return fmt.Errorf("insert excluded_view_sources: %w", err)
	}
	d.fireExclusionHook()
	return nil
}

// InsertCustomExclusion adds a per-tenant exclusion and invalidates the
// exclusion cache.
func (d *DB) InsertCustomExclusion(ctx context.Context, buid, viewSource int) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	_, err := d.conn.ExecContext(ctx,
		"INSERT INTO custom_excluded_view_sources (buid, view_source) VALUES (?, ?)",
		buid, viewSource)
	if err != nil {
		return fmt.Errorf("insert custom_excluded_view_sources: %w", err)
	}
	d.fireExclusionHook()
	return nil
}

func (d *DB) fireExclusionHook() {
	if d.onExclusionWrite != nil {
		d.onExclusionWrite()
	}
}
