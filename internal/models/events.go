// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package models

import (
	"math"
	"time"
)

// TicksPerSecond is the Jellyfin tick resolution (1 tick = 100ns).
const TicksPerSecond = 10_000_000

// Derived event names emitted to Home Assistant.
const (
	EventPlay         = "play"
	EventPause        = "pause"
	EventMediaEnd     = "media_end"
	EventPlaybackStop = "PlaybackStop"
)

// InboundEvent is the normalized form of a Jellyfin webhook notification,
// consumed by the debounce engine. It is ephemeral: processed once and
// discarded.
type InboundEvent struct {
	Type          string
	DeviceID      string
	DeviceName    string
	ClientName    string
	ItemID        string
	MediaName     string
	MediaType     string
	IsPaused      bool
	PositionTicks int64
	RunTimeTicks  int64
	Timestamp     time.Time
}

// DerivedEvent is the simplified event delivered to the Home Assistant
// webhook. The JSON field names are the outbound wire contract and must not
// change.
type DerivedEvent struct {
	Event       string  `json:"event"`
	Device      string  `json:"device"`
	Client      string  `json:"client"`
	Media       string  `json:"media"`
	MediaType   string  `json:"media_type"`
	PositionPct float64 `json:"position_pct"`
	Timestamp   string  `json:"timestamp"`
}

// PositionPercent converts a position within a runtime to a percentage,
// rounded to one decimal place. Returns 0 when the runtime is unknown.
func PositionPercent(positionTicks, runTimeTicks int64) float64 {
	if runTimeTicks <= 0 {
		return 0
	}
	pct := float64(positionTicks) / float64(runTimeTicks) * 100
	return math.Round(pct*10) / 10
}

// TicksToDuration converts Jellyfin ticks to a time.Duration.
func TicksToDuration(ticks int64) time.Duration {
	return time.Duration(ticks * 100)
}

// DurationToTicks converts a time.Duration to Jellyfin ticks.
func DurationToTicks(d time.Duration) int64 {
	return int64(d / 100)
}
