// Copyright (C) 2025 Verdanta Labs (oss@verdanta.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the scoring
// service.
//
// # Description
//
// Metrics cover the HTTP surface and the scoring pipeline:
//   - Request counters by endpoint and status
//   - Latency histograms for requests and guild scoring
//   - Guild size distribution
//
// # Integration
//
// Metrics are exposed via the /metrics endpoint. Use with Prometheus +
// Grafana for dashboards and alerting.
//
// # Thread Safety
//
// All metric operations are thread-safe via Prometheus's internal
// locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "guildcore"

// Subsystem for scoring-service metrics
const scoringSubsystem = "scoring"

// ScoringMetrics holds all Prometheus metrics for the scoring service.
//
// Initialize once at startup via InitMetrics(); tests construct their
// own instance against an isolated registry with NewScoringMetrics.
type ScoringMetrics struct {
	// RequestsTotal counts HTTP requests by endpoint and status.
	// Labels: endpoint (score, explain, search, species), status (success, client_error, server_error)
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds measures HTTP request duration.
	// Labels: endpoint
	RequestDurationSeconds *prometheus.HistogramVec

	// ScoreDurationSeconds measures end-to-end guild scoring duration,
	// cache misses only.
	// Labels: context (climate tier)
	ScoreDurationSeconds *prometheus.HistogramVec

	// GuildSize records the size distribution of scored guilds.
	GuildSize prometheus.Histogram

	// ErrorsTotal counts request failures by endpoint and error code.
	// Labels: endpoint, error_code (invalid_guild, species_not_found, internal)
	ErrorsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance initialized by InitMetrics().
var DefaultMetrics *ScoringMetrics

// NewScoringMetrics creates a metrics instance registered on reg.
func NewScoringMetrics(reg prometheus.Registerer) *ScoringMetrics {
	factory := promauto.With(reg)
	return &ScoringMetrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: scoringSubsystem,
				Name:      "requests_total",
				Help:      "Total HTTP requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		RequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: scoringSubsystem,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint"},
		),

		ScoreDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: scoringSubsystem,
				Name:      "score_duration_seconds",
				Help:      "Guild scoring duration in seconds (cache misses)",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
			[]string{"context"},
		),

		GuildSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: scoringSubsystem,
				Name:      "guild_size",
				Help:      "Size distribution of scored guilds",
				Buckets:   []float64{1, 2, 3, 5, 7, 10, 15, 20, 30, 40},
			},
		),

		ErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: scoringSubsystem,
				Name:      "errors_total",
				Help:      "Total request failures by endpoint and error code",
			},
			[]string{"endpoint", "error_code"},
		),
	}
}

// InitMetrics initializes the default metrics instance on the global
// registry. Call once at startup; panics on duplicate registration.
func InitMetrics() *ScoringMetrics {
	DefaultMetrics = NewScoringMetrics(prometheus.DefaultRegisterer)
	return DefaultMetrics
}

// =============================================================================
// Error Codes
// =============================================================================

// Error code label values for ErrorsTotal.
const (
	ErrCodeInvalidGuild    = "invalid_guild"
	ErrCodeSpeciesNotFound = "species_not_found"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeInternal        = "internal"
)
