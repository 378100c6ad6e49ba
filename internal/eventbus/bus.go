// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package eventbus decouples the debounce engine from outbound delivery
// with an in-process publish/subscribe channel. The engine publishes
// derived events under a session lock; delivery to Home Assistant happens
// on the consumer goroutine so a slow or failing webhook never stalls
// webhook ingestion.
package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/playbridge/internal/models"
)

// TopicPlaybackEvents carries serialized derived events. A single
// subscriber consumes it, which preserves per-device emission order.
const TopicPlaybackEvents = "playback.events"

// Bus wraps an in-process Go channel Pub/Sub.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// New creates the bus. The output buffer absorbs delivery latency spikes
// without blocking publishers.
func New() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 256,
			},
			newWatermillLogger(),
		),
	}
}

// PublishDerived serializes a derived event onto the playback topic.
// Implements the engine's Publisher interface.
func (b *Bus) PublishDerived(_ context.Context, ev *models.DerivedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal derived event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	if err := b.pubsub.Publish(TopicPlaybackEvents, msg); err != nil {
		return fmt.Errorf("publish derived event: %w", err)
	}
	return nil
}

// Subscribe returns the playback topic's message stream. The subscription
// ends when ctx is canceled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, TopicPlaybackEvents)
}

// Close shuts the bus down. Outstanding subscriptions drain and close.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
