// Signpost - Job Posting Redirect and Dispatch Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/signpost

// Package metrics exposes Prometheus instrumentation for the gateway:
// resolution outcomes, manipulation configuration gaps, exclusion-cache
// reloads, archival sweeps, and HTTP request latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolution Metrics
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signpost_resolutions_total",
			Help: "Total redirect resolutions by terminal state",
		},
		[]string{"outcome"}, // redirect, gone, not_found, opengraph, debug, error
	)

	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "signpost_resolution_duration_seconds",
			Help:    "Duration of redirect resolution in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ConfigurationGaps counts rules that could not be applied at
	// request time: unknown action names and malformed rule values.
	ConfigurationGaps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signpost_configuration_gaps_total",
			Help: "Manipulation rules skipped due to unknown actions or malformed values",
		},
		[]string{"action"},
	)

	// Exclusion Cache Metrics
	ExclusionCacheReloads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signpost_exclusion_cache_reloads_total",
			Help: "Times the exclusion cache repopulated from the store",
		},
	)

	// Archival Metrics
	ArchiveSweeps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signpost_archive_sweeps_total",
			Help: "Archival task sweeps by result",
		},
		[]string{"result"}, // ok, error, lease_held
	)

	ArchiveRowsMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signpost_archive_rows_moved_total",
			Help: "Rows moved between redirect partitions",
		},
		[]string{"direction"}, // to_archive, to_active
	)

	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signpost_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signpost_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signpost_http_active_requests",
			Help: "In-flight HTTP requests",
		},
	)

	// Store Metrics
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signpost_store_errors_total",
			Help: "Entity store failures by operation",
		},
		[]string{"operation"},
	)
)

// RecordResolution records one terminal resolver state and its latency.
func RecordResolution(outcome string, duration time.Duration) {
	ResolutionsTotal.WithLabelValues(outcome).Inc()
	ResolutionDuration.Observe(duration.Seconds())
}

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, status).Inc()
	HTTPRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}
