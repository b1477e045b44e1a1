// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package api is the HTTP front controller: it parses click tokens,
// hands them to the resolver, and renders the terminal state as a
// redirect, an expired page, a not-found page, or crawler preview
// metadata.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/signpost/internal/config"
	"github.com/tomtom215/signpost/internal/middleware"
)

// Router wires handlers into the chi mux.
type Router struct {
	handler *Handler
	cfg     *config.ServerConfig
}

// NewRouter creates a Router around an assembled Handler.
func NewRouter(handler *Handler, cfg *config.ServerConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup builds the full route tree.
//
// The redirect route is deliberately last and catches every path: the
// gateway's public surface is "any guid-shaped token", and anything
// else bounces to the canonical site rather than erroring, since these
// links live in decade-old emails and job boards.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.Route("/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, time.Minute))
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if router.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(router.cfg.RateLimit, time.Minute))
		}
		r.Get("/*", router.handler.HandleClick)
	})

	return r
}
