// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package models defines the wire and domain types shared across Playbridge.
package models

// Jellyfin webhook plugin notification types handled by Playbridge.
// Any other NotificationType is dropped during normalization.
const (
	NotificationPlaybackStart    = "PlaybackStart"
	NotificationPlaybackProgress = "PlaybackProgress"
	NotificationPlaybackStop     = "PlaybackStop"
)

// JellyfinWebhook is the raw payload posted by the Jellyfin webhook plugin.
// Field names follow the plugin's PascalCase convention.
type JellyfinWebhook struct {
	NotificationType string `json:"NotificationType"`

	ServerName string `json:"ServerName,omitempty"`
	ServerID   string `json:"ServerId,omitempty"`

	ItemID   string `json:"ItemId,omitempty"`
	ItemName string `json:"Name,omitempty"`
	ItemType string `json:"ItemType,omitempty"`

	DeviceID   string `json:"DeviceId,omitempty"`
	DeviceName string `json:"DeviceName,omitempty"`
	ClientName string `json:"ClientName,omitempty"`

	IsPaused              bool  `json:"IsPaused,omitempty"`
	PlaybackPositionTicks int64 `json:"PlaybackPositionTicks,omitempty"`
	RunTimeTicks          int64 `json:"RunTimeTicks,omitempty"`

	Timestamp string `json:"Timestamp,omitempty"`
}
