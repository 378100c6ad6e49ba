// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/playbridge/internal/config"
	"github.com/tomtom215/playbridge/internal/middleware"
)

// NewRouter builds the HTTP routing table with the full middleware stack.
func NewRouter(h *Handler, rl config.RateLimitConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(rateLimiter(rl))

	r.Post("/jellyfin", h.JellyfinWebhook)

	r.Get("/health", h.Health)
	r.Get("/health/live", h.Liveness)
	r.Get("/health/ready", h.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// rateLimiter returns an IP-keyed rate limit middleware, or a no-op when
// disabled. Webhook traffic is machine-generated; the limit only has to
// contain a misconfigured or hostile sender.
func rateLimiter(rl config.RateLimitConfig) func(http.Handler) http.Handler {
	if rl.Disabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	window := rl.Window
	if window <= 0 {
		window = time.Minute
	}

	return httprate.Limit(
		rl.Requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}
