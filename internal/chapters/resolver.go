// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package chapters resolves the credits start offset for a media item from
// Jellyfin chapter metadata.
//
// Resolution is two-tier: when a chapter whose name matches a known credits
// label exists, its start offset is authoritative; otherwise callers fall
// back to percentage-based detection. Results (including negative ones) are
// cached per media item so repeated sessions for the same title do not
// re-query the media server.
package chapters

import (
	"context"
	"strings"
	"time"

	"github.com/tomtom215/playbridge/internal/cache"
	"github.com/tomtom215/playbridge/internal/jellyfin"
	"github.com/tomtom215/playbridge/internal/logging"
	"github.com/tomtom215/playbridge/internal/metrics"
	"github.com/tomtom215/playbridge/internal/models"
)

// creditsLabels are the chapter names recognized as the start of end
// credits, compared case-insensitively. The set mirrors the labels media
// scanners commonly write.
var creditsLabels = []string{
	"end credits",
	"credits",
	"closing credits",
	"créditos",
	"creditos",
	"abspann",
	"générique",
	"generique",
	"titoli di coda",
	"outro",
}

// cacheTTL keeps resolved offsets effectively for the process lifetime.
// Chapter markers do not change for a given item while it is being played.
const cacheTTL = 30 * 24 * time.Hour

// resolution is the cached per-item outcome.
type resolution struct {
	ticks int64
	found bool
}

// Resolver resolves and caches the credits offset per media item.
type Resolver struct {
	client jellyfin.ClientInterface
	cache  *cache.Cache
}

// NewResolver creates a resolver backed by the given Jellyfin client.
// A nil client disables chapter lookups; every resolution then reports
// "no chapter data" and callers use the percentage fallback.
func NewResolver(client jellyfin.ClientInterface) *Resolver {
	return &Resolver{
		client: client,
		cache:  cache.New(cacheTTL),
	}
}

// ResolveCreditsOffset returns the credits start offset in ticks for the
// given item, and whether chapter data produced one. Failures are non-fatal:
// they are logged, cached as "no chapter data", and the caller falls back to
// percentage detection.
func (r *Resolver) ResolveCreditsOffset(ctx context.Context, itemID string) (int64, bool) {
	if itemID == "" {
		return 0, false
	}

	if v, ok := r.cache.Get(itemID); ok {
		res := v.(resolution)
		metrics.ChapterLookupsTotal.WithLabelValues("cached").Inc()
		return res.ticks, res.found
	}

	if r.client == nil {
		metrics.ChapterLookupsTotal.WithLabelValues("disabled").Inc()
		return 0, false
	}

	item, err := r.client.GetItem(ctx, itemID)
	if err != nil {
		// Treated identically to "no chapter data". Cached so a flapping
		// media server is not hammered once per progress flood.
		logging.Warn().Err(err).Str("item_id", itemID).Msg("Chapter lookup failed, using percentage fallback")
		metrics.ChapterLookupsTotal.WithLabelValues("error").Inc()
		r.cache.Set(itemID, resolution{})
		return 0, false
	}

	ticks, found := findCreditsChapter(item.Chapters)
	r.cache.Set(itemID, resolution{ticks: ticks, found: found})

	if found {
		logging.Info().
			Str("item_id", itemID).
			Dur("offset", models.TicksToDuration(ticks)).
			Msg("Credits chapter resolved")
		metrics.ChapterLookupsTotal.WithLabelValues("chapter").Inc()
	} else {
		logging.Debug().Str("item_id", itemID).Msg("No credits chapter found")
		metrics.ChapterLookupsTotal.WithLabelValues("no_match").Inc()
	}

	return ticks, found
}

// CacheStats exposes resolver cache statistics for health reporting.
func (r *Resolver) CacheStats() cache.Stats {
	return r.cache.GetStats()
}

// findCreditsChapter scans an ordered chapter list for the first chapter
// whose name matches a known credits label.
func findCreditsChapter(chs []jellyfin.Chapter) (int64, bool) {
	for _, ch := range chs {
		name := strings.ToLower(strings.TrimSpace(ch.Name))
		for _, label := range creditsLabels {
			if name == label {
				return ch.StartPositionTicks, true
			}
		}
	}
	return 0, false
}
