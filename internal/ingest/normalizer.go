// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package ingest normalizes raw Jellyfin webhook payloads into the internal
// event shape consumed by the debounce engine, applying the device
// allow-list filter.
package ingest

import (
	"strings"
	"time"

	"github.com/tomtom215/playbridge/internal/logging"
	"github.com/tomtom215/playbridge/internal/metrics"
	"github.com/tomtom215/playbridge/internal/models"
)

// Normalizer translates raw webhook payloads into InboundEvents.
type Normalizer struct {
	// allowed holds lower-cased device names. Empty means all devices pass.
	allowed map[string]struct{}
}

// NewNormalizer creates a normalizer with the given device allow-list.
// Names are matched case-insensitively after trimming whitespace.
func NewNormalizer(allowedDevices []string) *Normalizer {
	allowed := make(map[string]struct{}, len(allowedDevices))
	for _, d := range allowedDevices {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			allowed[d] = struct{}{}
		}
	}
	return &Normalizer{allowed: allowed}
}

// Normalize maps a webhook payload to an InboundEvent. The second return
// value is false when the payload is filtered out: missing device ID,
// unhandled notification type, or a device not on a non-empty allow-list.
// Filtering is silent (debug log only); it is not an error.
func (n *Normalizer) Normalize(w *models.JellyfinWebhook) (*models.InboundEvent, bool) {
	metrics.WebhookEventsTotal.WithLabelValues(w.NotificationType).Inc()

	switch w.NotificationType {
	case models.NotificationPlaybackStart,
		models.NotificationPlaybackProgress,
		models.NotificationPlaybackStop:
	default:
		logging.Debug().
			Str("notification_type", w.NotificationType).
			Msg("Skipping unhandled notification type")
		metrics.EventsFilteredTotal.WithLabelValues("unknown_type").Inc()
		return nil, false
	}

	if w.DeviceID == "" {
		metrics.EventsFilteredTotal.WithLabelValues("missing_device").Inc()
		return nil, false
	}

	if len(n.allowed) > 0 {
		name := strings.ToLower(strings.TrimSpace(w.DeviceName))
		if _, ok := n.allowed[name]; !ok {
			logging.Debug().
				Str("device", w.DeviceName).
				Msg("Skipping device not on allow-list")
			metrics.EventsFilteredTotal.WithLabelValues("device_not_allowed").Inc()
			return nil, false
		}
	}

	return &models.InboundEvent{
		Type:          w.NotificationType,
		DeviceID:      w.DeviceID,
		DeviceName:    w.DeviceName,
		ClientName:    w.ClientName,
		ItemID:        w.ItemID,
		MediaName:     w.ItemName,
		MediaType:     w.ItemType,
		IsPaused:      w.IsPaused,
		PositionTicks: w.PlaybackPositionTicks,
		RunTimeTicks:  w.RunTimeTicks,
		Timestamp:     time.Now().UTC(),
	}, true
}
