// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package metrics provides Prometheus instrumentation for Playbridge:
// inbound webhook traffic, debounce engine decisions, chapter resolution,
// and outbound delivery outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Inbound webhook metrics
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playbridge_webhook_events_total",
			Help: "Total number of Jellyfin webhook notifications received",
		},
		[]string{"notification_type"},
	)

	EventsFilteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playbridge_events_filtered_total",
			Help: "Total number of inbound notifications dropped during normalization",
		},
		[]string{"reason"}, // "device_not_allowed", "unknown_type", "missing_device"
	)

	// Debounce engine metrics
	DerivedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playbridge_derived_events_total",
			Help: "Total number of derived events produced by the debounce engine",
		},
		[]string{"event"}, // "play", "pause", "media_end", "PlaybackStop"
	)

	SeekArtifactsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "playbridge_seek_artifacts_total",
			Help: "Total number of transient pauses discarded as seek artifacts",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playbridge_active_sessions",
			Help: "Current number of tracked device sessions",
		},
	)

	PendingPauseTimers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playbridge_pending_pause_timers",
			Help: "Current number of outstanding pause-confirmation timers",
		},
	)

	// Chapter resolver metrics
	ChapterLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playbridge_chapter_lookups_total",
			Help: "Total number of credits-offset resolutions by outcome",
		},
		[]string{"outcome"}, // "cached", "chapter", "no_match", "error", "disabled"
	)

	// Outbound delivery metrics
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playbridge_deliveries_total",
			Help: "Total number of outbound webhook delivery attempts by outcome",
		},
		[]string{"outcome"}, // "success", "error", "breaker_open", "dropped"
	)

	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playbridge_delivery_duration_seconds",
			Help:    "Outbound webhook delivery duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playbridge_api_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playbridge_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playbridge_api_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)
)

// RecordAPIRequest records one completed HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(active bool) {
	if active {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDelivery records one outbound delivery attempt.
func RecordDelivery(outcome string, duration time.Duration) {
	DeliveriesTotal.WithLabelValues(outcome).Inc()
	if outcome == "success" || outcome == "error" {
		DeliveryDuration.Observe(duration.Seconds())
	}
}
