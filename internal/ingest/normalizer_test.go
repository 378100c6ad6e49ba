// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package ingest

import (
	"testing"

	"github.com/tomtom215/playbridge/internal/models"
)

func validWebhook() *models.JellyfinWebhook {
	return &models.JellyfinWebhook{
		NotificationType:      models.NotificationPlaybackProgress,
		DeviceID:              "abc123",
		DeviceName:            "Living Room TV",
		ClientName:            "Jellyfin Media Player",
		ItemID:                "item-1",
		ItemName:              "Some Movie",
		ItemType:              "Movie",
		IsPaused:              true,
		PlaybackPositionTicks: 18_000_000_000,
		RunTimeTicks:          36_000_000_000,
	}
}

func TestNormalizeMapsFields(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	ev, ok := n.Normalize(validWebhook())
	if !ok {
		t.Fatal("expected webhook to pass normalization")
	}

	if ev.Type != models.NotificationPlaybackProgress {
		t.Errorf("Type = %q", ev.Type)
	}
	if ev.DeviceID != "abc123" {
		t.Errorf("DeviceID = %q", ev.DeviceID)
	}
	if ev.DeviceName != "Living Room TV" {
		t.Errorf("DeviceName = %q", ev.DeviceName)
	}
	if ev.MediaName != "Some Movie" {
		t.Errorf("MediaName = %q", ev.MediaName)
	}
	if ev.MediaType != "Movie" {
		t.Errorf("MediaType = %q", ev.MediaType)
	}
	if !ev.IsPaused {
		t.Error("IsPaused = false, want true")
	}
	if ev.PositionTicks != 18_000_000_000 {
		t.Errorf("PositionTicks = %d", ev.PositionTicks)
	}
	if ev.RunTimeTicks != 36_000_000_000 {
		t.Errorf("RunTimeTicks = %d", ev.RunTimeTicks)
	}
	if ev.Timestamp.IsZero() {
		t.Error("Timestamp not set")
	}
}

func TestNormalizeFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		mutate  func(w *models.JellyfinWebhook)
		wantOK  bool
	}{
		{
			name:   "unhandled notification type",
			mutate: func(w *models.JellyfinWebhook) { w.NotificationType = "ItemAdded" },
			wantOK: false,
		},
		{
			name:   "empty notification type",
			mutate: func(w *models.JellyfinWebhook) { w.NotificationType = "" },
			wantOK: false,
		},
		{
			name:   "missing device id",
			mutate: func(w *models.JellyfinWebhook) { w.DeviceID = "" },
			wantOK: false,
		},
		{
			name:    "device on allow-list",
			allowed: []string{"Living Room TV"},
			mutate:  func(w *models.JellyfinWebhook) {},
			wantOK:  true,
		},
		{
			name:    "allow-list match is case-insensitive",
			allowed: []string{"living room tv"},
			mutate:  func(w *models.JellyfinWebhook) { w.DeviceName = "LIVING ROOM TV" },
			wantOK:  true,
		},
		{
			name:    "allow-list entries are trimmed",
			allowed: []string{"  Living Room TV  "},
			mutate:  func(w *models.JellyfinWebhook) {},
			wantOK:  true,
		},
		{
			name:    "device not on allow-list",
			allowed: []string{"Bedroom TV"},
			mutate:  func(w *models.JellyfinWebhook) {},
			wantOK:  false,
		},
		{
			name:    "empty allow-list passes everything",
			allowed: nil,
			mutate:  func(w *models.JellyfinWebhook) { w.DeviceName = "Anything" },
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := NewNormalizer(tt.allowed)
			w := validWebhook()
			tt.mutate(w)

			_, ok := n.Normalize(w)
			if ok != tt.wantOK {
				t.Errorf("Normalize ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestNormalizeAllNotificationTypes(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(nil)
	for _, typ := range []string{
		models.NotificationPlaybackStart,
		models.NotificationPlaybackProgress,
		models.NotificationPlaybackStop,
	} {
		w := validWebhook()
		w.NotificationType = typ
		if _, ok := n.Normalize(w); !ok {
			t.Errorf("type %s filtered, want pass", typ)
		}
	}
}
