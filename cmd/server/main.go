// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package main is the entry point for the Signpost gateway.
//
// Signpost resolves job posting click tokens (a 32-hex guid plus an
// optional view source id) into their final destination URL, applying
// per-tenant URL rewrite rules, employer microsite routing, exclusion
// lists and expiration handling along the way. Components start in
// order:
//
//  1. Configuration: Koanf v2 layering of defaults, config.yaml, and
//     SIGNPOST_* environment variables
//  2. Store: DuckDB-backed entity store (active + archive partitions),
//     or an in-memory store when no database path is configured
//  3. Exclusion cache: snapshot of the view-source exclusion lists,
//     invalidated on writes
//  4. Archiver: lease-guarded periodic sweep moving long-expired
//     postings into the archive partition
//  5. HTTP server: the public redirect surface plus health and
//     metrics endpoints
//
// The archiver and HTTP server run under a suture supervision tree
// and shut down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/signpost/internal/api"
	"github.com/tomtom215/signpost/internal/archive"
	"github.com/tomtom215/signpost/internal/config"
	"github.com/tomtom215/signpost/internal/database"
	"github.com/tomtom215/signpost/internal/exclusions"
	"github.com/tomtom215/signpost/internal/logging"
	"github.com/tomtom215/signpost/internal/resolver"
	"github.com/tomtom215/signpost/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("Starting Signpost")

	var store database.Store
	if cfg.Database.Path == "" {
		logging.Warn().Msg("No database path configured, using in-memory store")
		store = database.NewMemoryStore()
	} else {
		db, err := database.New(&cfg.Database)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open database")
		}
		store = db
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close store")
		}
	}()

	excl := exclusions.New(store)
	store.SetExclusionHook(excl.Invalidate)

	res := resolver.New(store, excl, cfg.Redirect.CanonicalSite, cfg.Redirect.NewJobWindow)
	handler := api.NewHandler(res, store, cfg)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)

	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	if cfg.Archive.Enabled {
		tree.AddJobService(archive.New(store, &cfg.Archive))
	} else {
		logging.Info().Msg("Archiver disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := tree.ServeBackground(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor exited with error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Fatal().Err(err).Msg("Supervisor exited unexpectedly")
		}
	}

	logging.Info().Msg("Signpost stopped")
}
