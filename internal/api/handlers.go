// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/playbridge/internal/cache"
	"github.com/tomtom215/playbridge/internal/engine"
	"github.com/tomtom215/playbridge/internal/ingest"
	"github.com/tomtom215/playbridge/internal/logging"
	"github.com/tomtom215/playbridge/internal/models"
)

// maxWebhookBody caps inbound payload size. Jellyfin webhook bodies are
// a few KB; anything near the limit is hostile.
const maxWebhookBody = 1 << 20

// Pinger checks reachability of the Jellyfin server for readiness
// reporting. nil means no Jellyfin connection is configured.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ChapterStats reports chapter-resolver cache statistics for health
// reporting. nil means chapter lookups are disabled.
type ChapterStats interface {
	CacheStats() cache.Stats
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	normalizer *ingest.Normalizer
	engine     *engine.Engine
	jellyfin   Pinger
	chapters   ChapterStats
	version    string
	startTime  time.Time
}

// NewHandler creates the handler set. jellyfin and chapters may be nil.
func NewHandler(normalizer *ingest.Normalizer, eng *engine.Engine, jellyfin Pinger, chapters ChapterStats, version string) *Handler {
	return &Handler{
		normalizer: normalizer,
		engine:     eng,
		jellyfin:   jellyfin,
		chapters:   chapters,
		version:    version,
		startTime:  time.Now(),
	}
}

// JellyfinWebhook ingests one Jellyfin webhook notification.
//
// Malformed JSON is the only client error: everything parseable returns
// 200 so that Jellyfin's webhook plugin never starts retrying, including
// notifications the allow-list or type filter drops.
func (h *Handler) JellyfinWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Failed to read request body", err)
		return
	}

	var payload models.JellyfinWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PAYLOAD", "Request body is not valid JSON", err)
		return
	}

	logger := logging.Ctx(r.Context())
	logger.Debug().
		Str("notification_type", sanitizeLogValue(payload.NotificationType)).
		Str("device", sanitizeLogValue(payload.DeviceName)).
		Str("media", sanitizeLogValue(payload.ItemName)).
		Msg("Webhook received")

	ev, ok := h.normalizer.Normalize(&payload)
	if !ok {
		// Filtered input still acknowledges with 200.
		respondOK(w, map[string]string{"result": "filtered"})
		return
	}

	h.engine.HandleEvent(r.Context(), ev)
	respondOK(w, map[string]string{"result": "processed"})
}
