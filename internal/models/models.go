// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package models defines the persisted record types shared across the
// gateway: redirect rows, per-tenant manipulation rules, canonical
// microsites, and the microsite exclusion tables. All of these are
// administered by external collaborators; the gateway only reads them.
package models

import (
	"strings"
	"time"
)

// UniqueIDToken is the placeholder embedded in destination URL templates
// that gets substituted with the job's upstream unique id.
const UniqueIDToken = "[Unique_ID]"

// BlankSentinel marks a chained manipulation rule that is configured but
// intentionally empty. Rules carrying it must not be applied.
const BlankSentinel = "[blank]"

// Redirect is one job posting's routing record. Rows live in one of two
// partitions (active or archive); the partitions are structurally
// identical and the store resolves a guid across both.
type Redirect struct {
	GUID        string     // 32 hex digits, braces/hyphens stripped on ingest
	BUID        int        // tenant / business unit id
	UID         int64      // unique upstream job id
	URL         string     // destination template, may contain UniqueIDToken
	NewDate     time.Time  // when the job was first seen
	ExpiredDate *time.Time // nil while the job is live
	JobLocation string
	JobTitle    string
	CompanyName string
}

// Expired reports whether the posting has an expiration date set.
func (r *Redirect) Expired() bool {
	return r.ExpiredDate != nil
}

// DestinationManipulation is one URL-rewrite rule, keyed by
// (buid, view_source, action_type). ActionType 1 is the primary rule,
// 2 the chained/secondary rule resolved after a microsite-family action.
type DestinationManipulation struct {
	BUID       int
	ViewSource int
	ActionType int
	Action     string // name into the manipulate registry
	Value1     string
	Value2     string
}

// CanonicalMicrosite maps a tenant to its employer-branded job site.
// At most one row per buid.
type CanonicalMicrosite struct {
	BUID                  int
	CanonicalMicrositeURL string
}

// ExcludedViewSource is a view source globally barred from microsite
// routing.
type ExcludedViewSource struct {
	ViewSource int
}

// CustomExcludedViewSource bars one (tenant, view source) pair from
// microsite routing without affecting other tenants.
type CustomExcludedViewSource struct {
	BUID       int
	ViewSource int
}

// ExclusionKey identifies a custom exclusion in cached set form.
type ExclusionKey struct {
	BUID       int
	ViewSource int
}

// CleanGUID strips the characters that braced-UUID forms carry
// ("{", "}", "-"), leaving the bare 32-hex representation that the
// partitions are keyed by.
func CleanGUID(guid string) string {
	guid = strings.ReplaceAll(guid, "{", "")
	guid = strings.ReplaceAll(guid, "}", "")
	return strings.ReplaceAll(guid, "-", "")
}

// ValidGUID reports whether guid is exactly 32 hex digits after cleaning.
func ValidGUID(guid string) bool {
	guid = CleanGUID(guid)
	if len(guid) != 32 {
		return false
	}
	for i := 0; i < len(guid); i++ {
		c := guid[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
