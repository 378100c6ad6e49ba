// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/playbridge/internal/logging"
	"github.com/tomtom215/playbridge/internal/models"
)

// Sender delivers a derived event to its destination.
type Sender interface {
	Send(ctx context.Context, ev *models.DerivedEvent) error
}

// Consumer is the single subscriber on the playback topic. It implements
// suture.Service and runs under the supervision tree. Every message is
// acked regardless of delivery outcome: derived events are point-in-time
// state signals and a stale retry is worse than a gap.
type Consumer struct {
	bus    *Bus
	sender Sender
}

// NewConsumer creates the consumer service.
func NewConsumer(bus *Bus, sender Sender) *Consumer {
	return &Consumer{bus: bus, sender: sender}
}

// String implements fmt.Stringer for supervisor logs.
func (c *Consumer) String() string {
	return "playback-event-consumer"
}

// Serve subscribes and processes messages until ctx is canceled or the
// bus closes.
func (c *Consumer) Serve(ctx context.Context) error {
	messages, err := c.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicPlaybackEvents, err)
	}

	logging.Info().
		Str("topic", TopicPlaybackEvents).
		Msg("Playback event consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				// Bus closed: shutdown, not a failure.
				return suture.ErrDoNotRestart
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg *message.Message) {
	// Ack unconditionally; see the Consumer doc comment.
	defer msg.Ack()

	var ev models.DerivedEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		logging.Error().
			Err(err).
			Str("message_id", msg.UUID).
			Msg("Dropping undecodable playback event")
		return
	}

	if err := c.sender.Send(ctx, &ev); err != nil {
		logging.Error().
			Err(err).
			Str("event", ev.Event).
			Str("device", ev.Device).
			Msg("Derived event delivery failed")
	}
}
