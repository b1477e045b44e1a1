// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package resolver

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/tomtom215/signpost/internal/manipulate"
	"github.com/tomtom215/signpost/internal/models"
)

// Expiration copy classes. The analytics pipeline keys retention
// reporting off these codes.
const (
	expiredGeneric   = "XIN" // generic employer copy
	expiredJobCenter = "XJC" // job center tenants
	expiredState     = "XST" // state job bank tenants
)

// jobCenterBUIDs get the job center expiration copy.
var jobCenterBUIDs = map[int]bool{
	1228: true,
	5480: true,
}

// State job banks occupy a contiguous tenant id range.
const (
	stateBUIDLow  = 2650
	stateBUIDHigh = 2703
)

// stateBrandingBUID is the shared national job center tenant whose
// postings are rebranded onto per-state hosts by location prefix.
const stateBrandingBUID = 1228

type stateBranding struct {
	buid int
	host string
}

// stateMap keys on the lowercased first three characters of the job
// location.
var stateMap = map[string]stateBranding{
	"ct-": {2656, "connecticut.us.jobs"},
	"ms-": {2674, "mississippi.us.jobs"},
	"nj-": {2680, "newjersey.us.jobs"},
	"nv-": {2678, "nevada.us.jobs"},
	"ny-": {2682, "newyork.us.jobs"},
	"pr-": {2701, "puertorico.us.jobs"},
	"gu-": {2703, "guam.us.jobs"},
}

func stateFor(job *models.Redirect) (stateBranding, bool) {
	if job.BUID != stateBrandingBUID || len(job.JobLocation) < 3 {
		return stateBranding{}, false
	}
	branding, ok := stateMap[strings.ToLower(job.JobLocation[:3])]
	return branding, ok
}

// brandStateURL swaps the national host for the state job bank host
// when the posting belongs to the shared job center tenant and its
// location carries a recognized state prefix.
func brandStateURL(job *models.Redirect, dest string) string {
	branding, ok := stateFor(job)
	if !ok {
		return dest
	}
	return strings.ReplaceAll(dest, "us.jobs", branding.host)
}

// trackingBUID reports the state job bank's own tenant id for
// rebranded postings so their traffic is attributed to the state.
func trackingBUID(job *models.Redirect) int {
	if branding, ok := stateFor(job); ok {
		return branding.buid
	}
	return job.BUID
}

// buildTracking assembles the analytics header value. expiredFor is
// the age past expiration, meaningful only when expired is set.
func buildTracking(job *models.Redirect, req *Request, dest, vsid, aguid string, expired bool, expiredFor time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "jcnlx.ref=%s", manipulate.QuoteString(req.Referer))
	fmt.Fprintf(&b, "&jcnlx.url=%s", manipulate.QuoteString(dest))
	fmt.Fprintf(&b, "&jcnlx.buid=%d", trackingBUID(job))
	fmt.Fprintf(&b, "&jcnlx.vsid=%s", vsid)
	fmt.Fprintf(&b, "&jcnlx.aguid=%s", aguid)
	fmt.Fprintf(&b, "&jcnlx.myguid=%s", req.MyGUID)

	if expired {
		code := expiredGeneric
		switch {
		case jobCenterBUIDs[job.BUID]:
			code = expiredJobCenter
		case job.BUID >= stateBUIDLow && job.BUID <= stateBUIDHigh:
			code = expiredState
		}
		fmt.Fprintf(&b, "&jcnlx.err=%s", code)
		fmt.Fprintf(&b, "&jcnlx.xhr=%d", int(expiredFor.Hours()))
	}
	return b.String()
}

// slugify lowercases and dashes a company name for the browse
// fallback path, keeping only letters, digits and existing dashes.
func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// traceLog collects the per-step decision log for debug requests. A
// nil-enabled trace discards everything without formatting.
type traceLog struct {
	enabled bool
	lines   []string
}

func newTrace(enabled bool) *traceLog {
	return &traceLog{enabled: enabled}
}

func (t *traceLog) addf(format string, args ...any) {
	if !t.enabled {
		return
	}
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}
