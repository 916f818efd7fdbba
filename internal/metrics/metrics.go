// Soundtrail - Self-Hosted Listening History Analytics
// Copyright 2026 Soundtrail Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/soundtrail/soundtrail

// Package metrics provides Prometheus instrumentation for the API surface,
// the ingestion gate, the playback poller, and the provider client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Ingestion gate metrics
	PlaysRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plays_recorded_total",
			Help: "Total number of plays accepted by the ingestion gate",
		},
		[]string{"source"}, // "api" or "poller"
	)

	PlaysDeduplicatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plays_deduplicated_total",
			Help: "Total number of plays rejected as duplicates",
		},
		[]string{"source"},
	)

	// Poller metrics
	PollerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poller_runs_total",
			Help: "Total number of playback polling cycles",
		},
	)

	PollerErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poller_errors_total",
			Help: "Total number of per-listener polling failures",
		},
		[]string{"reason"}, // "token_refresh", "provider", "store"
	)

	PollerTrackedListeners = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poller_tracked_listeners",
			Help: "Number of listeners with tracking enabled in the last cycle",
		},
	)

	PollerCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poller_cycle_duration_seconds",
			Help:    "Duration of one full polling cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Provider client metrics
	SpotifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spotify_requests_total",
			Help: "Total number of requests to the Spotify API",
		},
		[]string{"endpoint", "status"},
	)

	SpotifyRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spotify_request_duration_seconds",
			Help:    "Spotify API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	SpotifyCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotify_circuit_breaker_state",
			Help: "Circuit breaker state for the Spotify API (0=closed, 1=half-open, 2=open)",
		},
	)

	// Storage metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"},
	)

	// Analytics cache metrics
	AnalyticsCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_cache_hits_total",
			Help: "Total number of analytics cache hits",
		},
	)

	AnalyticsCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_cache_misses_total",
			Help: "Total number of analytics cache misses",
		},
	)
)

// RecordAPIRequest records one finished API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPlayOutcome records one ingestion attempt by source.
func RecordPlayOutcome(source string, recorded bool) {
	if recorded {
		PlaysRecordedTotal.WithLabelValues(source).Inc()
	} else {
		PlaysDeduplicatedTotal.WithLabelValues(source).Inc()
	}
}

// RecordSpotifyRequest records one provider API call.
func RecordSpotifyRequest(endpoint, status string, duration time.Duration) {
	SpotifyRequestsTotal.WithLabelValues(endpoint, status).Inc()
	SpotifyRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// ObserveDBQuery records the duration of one database query by operation name.
func ObserveDBQuery(operation string, start time.Time) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
