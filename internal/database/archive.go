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
	"time"
)

// ArchiveExpired moves long-expired rows from the active partition to
// the archive. Copy-then-delete inside one transaction, field for
// field; re-running with the same cutoff is a no-op.
func (d *DB) ArchiveExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	const predicate = "expired_date IS NOT NULL AND expired_date <= ?"

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO redirects_archive SELECT "+redirectColumns+" FROM redirects WHERE "+predicate,
		cutoff); err != nil {
		return 0, fmt.Errorf("copy to archive: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM redirects WHERE "+predicate, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete archived rows: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit archive tx: %w", err)
	}
	return moved, nil
}

// RestoreUnexpired moves archive rows that were never actually expired
// back into the active partition.
func (d *DB) RestoreUnexpired(ctx context.Context) (int64, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin restore tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO redirects SELECT "+redirectColumns+" FROM redirects_archive WHERE expired_date IS NULL"); err != nil {
		return 0, fmt.Errorf("copy to active: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM redirects_archive WHERE expired_date IS NULL")
	if err != nil {
		return 0, fmt.Errorf("delete restored rows: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit restore tx: %w", err)
	}
	return moved, nil
}

// AcquireLease takes the named lease when it is free, expired, or held
// by the same holder. The row is the archival task's cross-process
// lock.
func (d *DB) AcquireLease(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin lease tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC()
	expires := now.Add(ttl)

	var current string
	var until time.Time
	err = tx.QueryRowContext(ctx,
		"SELECT holder, expires FROM leases WHERE name = ?", name).Scan(&current, &until)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO leases (name, holder, expires) VALUES (?, ?, ?)",
			name, holder, expires); err != nil {
			return false, fmt.Errorf("insert lease: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("query lease: %w", err)
	case current != holder && until.After(now):
		// Live lease owned by someone else.
		return false, tx.Commit()
	default:
		if _, err := tx.ExecContext(ctx,
			"UPDATE leases SET holder = ?, expires = ? WHERE name = ?",
			holder, expires, name); err != nil {
			return false, fmt.Errorf("update lease: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit lease tx: %w", err)
	}
	return true, nil
}

// ReleaseLease drops the named lease if holder still owns it.
func (d *DB) ReleaseLease(ctx context.Context, name, holder string) error {
	ctx, cancel := d.bound(ctx)
	defer cancel()

	if _, err := d.conn.ExecContext(ctx,
		"DELETE FROM leases WHERE name = ? AND holder = ?", name, holder); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}
