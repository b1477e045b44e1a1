// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

package api

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/tomtom215/signpost/internal/config"
	"github.com/tomtom215/signpost/internal/database"
	"github.com/tomtom215/signpost/internal/logging"
	"github.com/tomtom215/signpost/internal/resolver"
)

// clickToken matches the public link shape: 32 hex guid digits,
// optional trailing view source digits, optional "+" debug marker.
var clickToken = regexp.MustCompile(`^/?([0-9A-Fa-f]{32})([0-9]*)(\+?)$`)

// trackingHeader carries the analytics string consumed by the edge
// log pipeline. It never appears in the Location url.
const trackingHeader = "X-REDIRECT"

// aguidCookieTTL is how long the visitor id cookie lives.
const aguidCookieTTL = 365 * 24 * time.Hour

// Handler renders resolver results as HTTP responses.
type Handler struct {
	resolver *resolver.Resolver
	store    database.Store
	cfg      *config.Config

	startTime time.Time
}

// NewHandler creates a Handler.
func NewHandler(res *resolver.Resolver, store database.Store, cfg *config.Config) *Handler {
	return &Handler{
		resolver:  res,
		store:     store,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// HandleClick serves every public path. Guid-shaped tokens go through
// the resolver; everything else is bounced to the canonical site.
func (h *Handler) HandleClick(w http.ResponseWriter, r *http.Request) {
	m := clickToken.FindStringSubmatch(r.URL.Path)
	if m == nil {
		http.Redirect(w, r, h.cfg.Redirect.CanonicalSite, http.StatusMovedPermanently)
		return
	}

	req := &resolver.Request{
		GUID:      m[1],
		PathVSID:  m[2],
		Debug:     m[3] == "+",
		Query:     r.URL.Query(),
		RawQuery:  r.URL.RawQuery,
		UserAgent: strings.ToLower(r.UserAgent()),
		Referer:   r.Referer(),
		Host:      r.Host,
		ClientIP:  r.RemoteAddr,
	}
	if c, err := r.Cookie("aguid"); err == nil {
		req.AGUID = c.Value
	}
	if c, err := r.Cookie("myguid"); err == nil {
		req.MyGUID = c.Value
	}

	res, err := h.resolver.Resolve(r.Context(), req)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("guid", req.GUID).Msg("Resolution failed")
		renderServerError(w)
		return
	}

	switch res.State {
	case resolver.StateNotFound:
		renderNotFound(w)
	case resolver.StateOpenGraph:
		renderOpenGraph(w, res.OpenGraph)
	case resolver.StateGone:
		h.decorate(w, r, res)
		renderExpired(w, res.Expired)
	case resolver.StateDebug:
		// Debug renders carry no tracking header or cookie; inspecting
		// a link must not count as a click.
		renderDebug(w, res)
	case resolver.StateRedirect:
		h.decorate(w, r, res)
		http.Redirect(w, r, res.Location, http.StatusMovedPermanently)
	default:
		renderServerError(w)
	}
}

// decorate attaches the tracking header and the visitor id cookie to a
// terminal response.
func (h *Handler) decorate(w http.ResponseWriter, r *http.Request, res *resolver.Result) {
	if res.Tracking != "" {
		w.Header().Set(trackingHeader, res.Tracking)
	}
	if res.CookieDomain == "" || res.AGUID == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:    "aguid",
		Value:   res.AGUID,
		Domain:  res.CookieDomain,
		Path:    "/",
		Expires: time.Now().Add(aguidCookieTTL),
	})
}
