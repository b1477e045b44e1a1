// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package database

import (
	"context"
	"fmt"
)

// schemaStatements bootstraps the gateway's tables. The two redirect
// partitions are structurally identical; rows move between them via the
// archival operations only.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS redirects (
		guid VARCHAR PRIMARY KEY,
		buid INTEGER NOT NULL,
		uid BIGINT NOT NULL,
		url VARCHAR NOT NULL,
		new_date TIMESTAMP NOT NULL,
		expired_date TIMESTAMP,
		job_location VARCHAR NOT NULL DEFAULT '',
		job_title VARCHAR NOT NULL DEFAULT '',
		company_name VARCHAR NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS redirects_archive (
		guid VARCHAR PRIMARY KEY,
		buid INTEGER NOT NULL,
		uid BIGINT NOT NULL,
		url VARCHAR NOT NULL,
		new_date TIMESTAMP NOT NULL,
		expired_date TIMESTAMP,
		job_location VARCHAR NOT NULL DEFAULT '',
		job_title VARCHAR NOT NULL DEFAULT '',
		company_name VARCHAR NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS destination_manipulations (
		buid INTEGER NOT NULL,
		view_source INTEGER NOT NULL,
		action_type INTEGER NOT NULL,
		action VARCHAR NOT NULL,
		value_1 VARCHAR NOT NULL DEFAULT '',
		value_2 VARCHAR NOT NULL DEFAULT '',
		PRIMARY KEY (buid, view_source, action_type)
	)`,
	`CREATE TABLE IF NOT EXISTS canonical_microsites (
		buid INTEGER PRIMARY KEY,
		canonical_microsite_url VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS excluded_view_sources (
		view_source INTEGER PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS custom_excluded_view_sources (
		buid INTEGER NOT NULL,
		view_source INTEGER NOT NULL,
		PRIMARY KEY (buid, view_source)
	)`,
	`CREATE TABLE IF NOT EXISTS leases (
		name VARCHAR PRIMARY KEY,
		holder VARCHAR NOT NULL,
		expires TIMESTAMP NOT NULL
	)`,
}

func (d *DB) initSchema() error {
	ctx, cancel := d.bound(context.Background())
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := d.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
