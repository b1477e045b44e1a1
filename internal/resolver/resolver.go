// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package resolver implements the redirect decision pipeline: given a
// job guid and an optional referring view source, pick a routing
// strategy (manipulation chain, employer microsite, or fixed
// special-case), apply it, and produce the terminal response state
// together with tracking and cookie directives.
//
// The resolver owns no HTTP concerns. It consumes a Request assembled
// by the front controller and returns a Result; rendering 301/404/410
// and attaching headers is the api package's job.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/signpost/internal/database"
	"github.com/tomtom215/signpost/internal/exclusions"
	"github.com/tomtom215/signpost/internal/logging"
	"github.com/tomtom215/signpost/internal/manipulate"
	"github.com/tomtom215/signpost/internal/metrics"
	"github.com/tomtom215/signpost/internal/models"
)

// Crawler view sources assigned to social preview bots. A matching
// User-Agent short-circuits resolution into an Open Graph response.
const (
	facebookCrawlerVS = "1593"
	twitterCrawlerVS  = "1596"
	linkedinCrawlerVS = "1548"
)

// Fixed-route view sources handled outside the normal decision tree.
const (
	msccnReferralVS = "1604"
	facebookAppVS   = "294"
)

// ErrStoreUnavailable wraps store failures, including a tripped
// circuit breaker, so the front controller can answer 500 without
// inspecting driver errors.
var ErrStoreUnavailable = errors.New("resolver: entity store unavailable")

// Store is the read surface the resolver needs.
type Store interface {
	GetRedirect(ctx context.Context, guid string) (*models.Redirect, error)
	GetMicrosite(ctx context.Context, buid int) (*models.CanonicalMicrosite, error)
	GetManipulations(ctx context.Context, buid, viewSource int) ([]models.DestinationManipulation, error)
	GetManipulation(ctx context.Context, buid, viewSource, actionType int) (*models.DestinationManipulation, error)
}

// Request carries one click, already validated by the front controller
// (guid shape is the router's problem, not ours).
type Request struct {
	GUID     string // 32 hex digits
	PathVSID string // trailing digits from the path, "" if none
	Debug    bool

	Query    url.Values // parsed query parameters
	RawQuery string     // original encoded query string

	UserAgent string
	Referer   string
	Host      string
	ClientIP  string

	AGUID  string // aguid cookie value, possibly percent-encoded
	MyGUID string // myguid cookie value
}

// State is the resolver's terminal state.
type State int

const (
	StateNotFound State = iota
	StateOpenGraph
	StateGone
	StateRedirect
	StateDebug
)

// String names the state for logs and metrics.
func (s State) String() string {
	switch s {
	case StateNotFound:
		return "not_found"
	case StateOpenGraph:
		return "opengraph"
	case StateGone:
		return "gone"
	case StateRedirect:
		return "redirect"
	case StateDebug:
		return "debug"
	}
	return "unknown"
}

// OpenGraphData feeds the social-crawler preview page.
type OpenGraphData struct {
	Title      string
	Company    string // custom-encoded
	GUID       string
	ViewSource string
}

// ExpiredData feeds the 410 page.
type ExpiredData struct {
	JobLocation string
	JobTitle    string
	CompanyName string
	ExpiredURL  string
	BrowseURL   string
}

// Result is the resolver's answer for one click.
type Result struct {
	State    State
	Location string // redirect target for StateRedirect

	// Tracking is the analytics string attached as a response header,
	// never as part of the redirect Location.
	Tracking string

	// AGUID is the normalized visitor id to persist; CookieDomain ""
	// means skip the cookie entirely (no Host header).
	AGUID        string
	CookieDomain string

	OpenGraph *OpenGraphData
	Expired   *ExpiredData

	// Trace holds the step-by-step decision log in debug mode.
	Trace []string
}

// Resolver is the redirect decision engine. Safe for concurrent use.
type Resolver struct {
	store      Store
	exclusions *exclusions.Cache

	canonicalSite string
	newJobWindow  time.Duration

	breaker *gobreaker.CircuitBreaker[*models.Redirect]

	now func() time.Time
}

// New builds a Resolver. canonicalSite is the public site base used for
// the expired page's browse fallback; newJobWindow is how long a fresh
// job bypasses microsite routing.
func New(store Store, excl *exclusions.Cache, canonicalSite string, newJobWindow time.Duration) *Resolver {
	breaker := gobreaker.NewCircuitBreaker[*models.Redirect](gobreaker.Settings{
		Name:    "entity-store",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A miss is an answer, not a store failure.
			return err == nil || errors.Is(err, database.ErrNotFound)
		},
	})

	return &Resolver{
		store:         store,
		exclusions:    excl,
		canonicalSite: strings.TrimSuffix(canonicalSite, "/"),
		newJobWindow:  newJobWindow,
		breaker:       breaker,
		now:           time.Now,
	}
}

// Resolve runs the full decision pipeline for one click. It has no
// side effects beyond metrics and logs; in particular debug requests
// persist nothing.
func (r *Resolver) Resolve(ctx context.Context, req *Request) (*Result, error) {
	start := r.now()
	res, err := r.resolve(ctx, req)
	if err != nil {
		metrics.RecordResolution("error", time.Since(start))
		return nil, err
	}
	metrics.RecordResolution(res.State.String(), time.Since(start))
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, req *Request) (*Result, error) {
	job, err := r.lookupJob(ctx, req.GUID)
	if errors.Is(err, database.ErrNotFound) {
		return &Result{State: StateNotFound}, nil
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("get_redirect").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	// Work on a copy; strategies rewrite the url as the chain advances.
	local := *job
	job = &local

	guid := models.CleanGUID(job.GUID)

	// Social crawler short-circuit: preview metadata only, no cookies,
	// no tracking.
	if vs := crawlerViewSource(req.UserAgent); vs != "" {
		return &Result{
			State: StateOpenGraph,
			OpenGraph: &OpenGraphData{
				Title:      job.JobTitle,
				Company:    manipulate.QuoteString(job.CompanyName),
				GUID:       guid,
				ViewSource: vs,
			},
		}, nil
	}

	pathVSID := req.PathVSID
	if pathVSID == "" {
		pathVSID = "0"
	}

	trace := newTrace(req.Debug)
	trace.addf("ip=%s", req.ClientIP)
	trace.addf("GUID=%s", guid)
	if enableCustomQueries(req) {
		trace.addf("CustomParameters=%s", req.RawQuery)
	}
	trace.addf("RetLink(original)=%s", job.URL)

	var redirectURL, browseURL, effectiveVSID string
	switch pathVSID {
	case msccnReferralVS:
		redirectURL = fmt.Sprintf("http://us.jobs/msccn-referral.asp?gi=%s%s&cp=%s&u=%d",
			guid, pathVSID, manipulate.QuoteString(job.CompanyName), job.UID)
		effectiveVSID = pathVSID
	case facebookAppVS:
		redirectURL = fmt.Sprintf("http://apps.facebook.com/us-jobs/?jvid=%s%s", guid, pathVSID)
		effectiveVSID = pathVSID
	default:
		redirectURL, browseURL, effectiveVSID, err = r.route(ctx, job, pathVSID, req, trace)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}

	// No strategy produced a destination: fall back to the stored url,
	// still honoring custom parameter passthrough.
	if redirectURL == "" {
		redirectURL = job.URL
		trace.addf("ManipulatedLink(No Manipulation)=%s", redirectURL)
		if enableCustomQueries(req) {
			redirectURL = manipulate.MergeQuery(redirectURL, "&"+req.RawQuery, passthroughExclusions)
			trace.addf("ManipulatedLink(Custom Parameters)=%s", redirectURL)
		}
	}

	redirectURL = brandStateURL(job, redirectURL)
	trace.addf("RetLink=%s", redirectURL)

	res := &Result{
		State:    StateRedirect,
		Location: redirectURL,
		Trace:    trace.lines,
	}

	var expiredFor time.Duration
	if job.Expired() {
		res.State = StateGone
		expiredFor = r.now().Sub(*job.ExpiredDate)
		if browseURL == "" {
			browseURL = fmt.Sprintf("%s/%s/careers/", r.canonicalSite, slugify(job.CompanyName))
		}
		res.Expired = &ExpiredData{
			JobLocation: job.JobLocation,
			JobTitle:    job.JobTitle,
			CompanyName: job.CompanyName,
			ExpiredURL:  redirectURL,
			BrowseURL:   browseURL,
		}
	}

	aguid := normalizeAGUID(req.AGUID)
	res.AGUID = aguid
	res.CookieDomain = cookieDomain(req.Host)
	res.Tracking = buildTracking(job, req, redirectURL, effectiveVSID, aguid, job.Expired(), expiredFor)

	if req.Debug {
		res.State = StateDebug
	}
	return res, nil
}

// lookupJob resolves the guid through the circuit breaker so a dead
// store fails fast instead of stacking up blocked handlers.
func (r *Resolver) lookupJob(ctx context.Context, guid string) (*models.Redirect, error) {
	return r.breaker.Execute(func() (*models.Redirect, error) {
		return r.store.GetRedirect(ctx, models.CleanGUID(guid))
	})
}

// crawlerViewSource maps a social preview bot's User-Agent to its
// synthetic view source, or "" for a human.
func crawlerViewSource(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "facebookexternalhit"):
		return facebookCrawlerVS
	case strings.Contains(userAgent, "twitterbot"):
		return twitterCrawlerVS
	case strings.Contains(userAgent, "linkedinbot"):
		return linkedinCrawlerVS
	}
	return ""
}

func enableCustomQueries(req *Request) bool {
	return req.Query.Get("z") == "1"
}

// passthroughExclusions are the routing parameters never copied into a
// destination by custom parameter passthrough.
var passthroughExclusions = []string{"vs", "z"}

// normalizeAGUID returns the visitor's stable id: the cookie value if
// usable, a fresh one otherwise. Percent-encoded cookie values are
// decoded and reduced to bare hex.
func normalizeAGUID(cookie string) string {
	if cookie == "" {
		return strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	if strings.Contains(cookie, "%") {
		decoded, err := url.QueryUnescape(cookie)
		if err == nil {
			if parsed, err := uuid.Parse(decoded); err == nil {
				return strings.ReplaceAll(parsed.String(), "-", "")
			}
		}
		logging.Debug().Str("aguid", cookie).Msg("Unparseable aguid cookie, minting new id")
		return strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	return cookie
}

// cookieDomain derives the registrable domain the aguid cookie is
// scoped to: strip the port, keep the last two labels. Returns "" when
// the Host header is absent, in which case no cookie is set.
func cookieDomain(host string) string {
	if host == "" {
		return ""
	}
	host = strings.Split(host, ":")[0]
	labels := strings.Split(host, ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return "." + strings.Join(labels, ".")
}
