// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/playbridge/internal/models"
)

func TestPublishSubscribeRoundtrip(t *testing.T) {
	t.Parallel()

	bus := New()
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	want := &models.DerivedEvent{
		Event:       models.EventPause,
		Device:      "Living Room TV",
		PositionPct: 33.3,
	}
	if err := bus.PublishDerived(ctx, want); err != nil {
		t.Fatalf("PublishDerived failed: %v", err)
	}

	select {
	case msg := <-messages:
		var got models.DerivedEvent
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.Event != want.Event || got.Device != want.Device || got.PositionPct != want.PositionPct {
			t.Errorf("got %+v, want %+v", got, want)
		}
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishPreservesOrder(t *testing.T) {
	t.Parallel()

	bus := New()
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, err := bus.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	names := []string{"play", "pause", "play", "media_end", "PlaybackStop"}
	for _, name := range names {
		if err := bus.PublishDerived(ctx, &models.DerivedEvent{Event: name}); err != nil {
			t.Fatalf("publish %s: %v", name, err)
		}
	}

	for i, want := range names {
		select {
		case msg := <-messages:
			var got models.DerivedEvent
			if err := json.Unmarshal(msg.Payload, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.Event != want {
				t.Errorf("message %d = %s, want %s", i, got.Event, want)
			}
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}
}

type recordingSender struct {
	mu     sync.Mutex
	events []*models.DerivedEvent
	err    error
}

func (s *recordingSender) Send(_ context.Context, ev *models.DerivedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestConsumerDeliversEvents(t *testing.T) {
	t.Parallel()

	bus := New()
	defer func() { _ = bus.Close() }()

	sender := &recordingSender{}
	consumer := NewConsumer(bus, sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- consumer.Serve(ctx) }()

	for i := 0; i < 3; i++ {
		if err := bus.PublishDerived(ctx, &models.DerivedEvent{Event: models.EventPlay}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && sender.count() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	if sender.count() != 3 {
		t.Fatalf("delivered = %d, want 3", sender.count())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}

func TestConsumerContinuesAfterSendFailure(t *testing.T) {
	t.Parallel()

	bus := New()
	defer func() { _ = bus.Close() }()

	sender := &recordingSender{err: errors.New("endpoint down")}
	consumer := NewConsumer(bus, sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = consumer.Serve(ctx) }()

	// Delivery failures must not wedge the consumer; every message is
	// still acked and the next one processed.
	for i := 0; i < 3; i++ {
		if err := bus.PublishDerived(ctx, &models.DerivedEvent{Event: models.EventPause}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && sender.count() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	if sender.count() != 3 {
		t.Errorf("attempted deliveries = %d, want 3", sender.count())
	}
}

func TestConsumerString(t *testing.T) {
	t.Parallel()

	c := NewConsumer(New(), &recordingSender{})
	if c.String() == "" {
		t.Error("String() is empty")
	}
}
