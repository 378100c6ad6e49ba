// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package models

import "time"

// APIResponse is the standard envelope for all HTTP API responses.
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data,omitempty"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
}

// APIError describes an error response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthStatus reports process and dependency health.
type HealthStatus struct {
	Status            string       `json:"status"` // healthy | degraded
	Version           string       `json:"version"`
	JellyfinConnected bool         `json:"jellyfin_connected"`
	ActiveSessions    int          `json:"active_sessions"`
	Uptime            float64      `json:"uptime_seconds"`
	ChapterCache      *CacheHealth `json:"chapter_cache,omitempty"`
}

// CacheHealth summarizes chapter-cache effectiveness. Present only when
// the Jellyfin connection (and with it the chapter resolver) is configured.
type CacheHealth struct {
	Keys    int64   `json:"keys"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate_pct"`
}
