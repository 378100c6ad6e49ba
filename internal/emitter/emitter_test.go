// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package emitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/playbridge/internal/config"
	"github.com/tomtom215/playbridge/internal/models"
)

func testEvent() *models.DerivedEvent {
	return &models.DerivedEvent{
		Event:       models.EventPlay,
		Device:      "Living Room TV",
		Client:      "Jellyfin Media Player",
		Media:       "Some Movie",
		MediaType:   "Movie",
		PositionPct: 42.5,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}

func TestSendPostsWireFormat(t *testing.T) {
	t.Parallel()

	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := New(config.HomeAssistantConfig{WebhookURL: srv.URL, Timeout: time.Second})
	if err := e.Send(context.Background(), testEvent()); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	for _, key := range []string{"event", "device", "client", "media", "media_type", "position_pct", "timestamp"} {
		if _, ok := got[key]; !ok {
			t.Errorf("payload missing field %q: %v", key, got)
		}
	}
	if got["event"] != "play" {
		t.Errorf("event = %v", got["event"])
	}
	if got["position_pct"] != 42.5 {
		t.Errorf("position_pct = %v", got["position_pct"])
	}
}

func TestSendNoWebhookURLDropsSilently(t *testing.T) {
	t.Parallel()

	e := New(config.HomeAssistantConfig{})
	if err := e.Send(context.Background(), testEvent()); err != nil {
		t.Errorf("Send with no URL returned error: %v", err)
	}
}

func TestSendNon2xxIsError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := New(config.HomeAssistantConfig{WebhookURL: srv.URL, Timeout: time.Second})
	if err := e.Send(context.Background(), testEvent()); err == nil {
		t.Error("Send succeeded against a 502 endpoint")
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := New(config.HomeAssistantConfig{WebhookURL: srv.URL, Timeout: time.Second})
	ctx := context.Background()

	// Five consecutive failures trip the breaker.
	for i := 0; i < 5; i++ {
		if err := e.Send(ctx, testEvent()); err == nil {
			t.Fatalf("send %d succeeded unexpectedly", i)
		}
	}
	tripped := requests.Load()

	// Subsequent sends fail fast without reaching the endpoint.
	for i := 0; i < 10; i++ {
		if err := e.Send(ctx, testEvent()); err == nil {
			t.Fatalf("send with open breaker succeeded")
		}
	}
	if requests.Load() != tripped {
		t.Errorf("requests after trip = %d, want %d (breaker should fail fast)", requests.Load(), tripped)
	}
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	e := New(config.HomeAssistantConfig{WebhookURL: srv.URL, Timeout: time.Second})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := e.Send(ctx, testEvent()); err != nil {
			t.Fatalf("send %d failed: %v", i, err)
		}
	}
	if requests.Load() != 10 {
		t.Errorf("requests = %d, want 10", requests.Load())
	}
}
