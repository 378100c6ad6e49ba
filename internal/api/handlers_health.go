// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/playbridge/internal/models"
)

const pingTimeout = 3 * time.Second

// Health reports overall service health. The Jellyfin connection is
// optional, so an unreachable server degrades the status without
// failing the check.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Status:         "healthy",
		Version:        h.version,
		ActiveSessions: h.engine.ActiveSessions(),
		Uptime:         time.Since(h.startTime).Seconds(),
	}

	if h.jellyfin != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := h.jellyfin.Ping(ctx); err != nil {
			status.Status = "degraded"
		} else {
			status.JellyfinConnected = true
		}
	}

	if h.chapters != nil {
		stats := h.chapters.CacheStats()
		hitRate := 0.0
		if total := stats.Hits + stats.Misses; total > 0 {
			hitRate = float64(stats.Hits) / float64(total) * 100
		}
		status.ChapterCache = &models.CacheHealth{
			Keys:    stats.TotalKeys,
			Hits:    stats.Hits,
			Misses:  stats.Misses,
			HitRate: hitRate,
		}
	}

	respondOK(w, status)
}

// Liveness reports process liveness. Always 200 while the process can
// serve requests.
func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	respondOK(w, map[string]string{"status": "alive"})
}

// Readiness reports readiness to receive webhooks. The bridge has no
// hard dependencies at ingest time, so readiness follows liveness; the
// Jellyfin flag is informational.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ready := map[string]interface{}{"status": "ready"}
	if h.jellyfin != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		ready["jellyfin_connected"] = h.jellyfin.Ping(ctx) == nil
	}
	respondOK(w, ready)
}
