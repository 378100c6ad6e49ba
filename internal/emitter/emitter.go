// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package emitter posts derived events to the Home Assistant webhook.
// Delivery is fire-and-forget with a circuit breaker: a derived event
// describes player state at a moment in time, so failed deliveries are
// dropped rather than retried, and a dead endpoint stops consuming
// connection attempts until the breaker half-opens.
package emitter

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/playbridge/internal/config"
	"github.com/tomtom215/playbridge/internal/logging"
	"github.com/tomtom215/playbridge/internal/metrics"
	"github.com/tomtom215/playbridge/internal/models"
)

const defaultTimeout = 10 * time.Second

// Emitter delivers derived events over HTTP.
type Emitter struct {
	webhookURL string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
}

// New creates an emitter for the configured webhook. An empty webhook URL
// is allowed: events are then logged and dropped, which keeps a bare
// deployment observable without Home Assistant.
func New(cfg config.HomeAssistantConfig) *Emitter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	settings := gobreaker.Settings{
		Name:    "homeassistant-webhook",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &Emitter{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Send posts one derived event. Implements the consumer's Sender
// interface. Errors are returned for logging only; the caller never
// retries.
func (e *Emitter) Send(ctx context.Context, ev *models.DerivedEvent) error {
	if e.webhookURL == "" {
		metrics.RecordDelivery("dropped", 0)
		logging.Warn().
			Str("event", ev.Event).
			Str("device", ev.Device).
			Msg("No webhook URL configured, dropping derived event")
		return nil
	}

	start := time.Now()
	_, err := e.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, e.post(ctx, ev)
	})
	duration := time.Since(start)

	if err != nil {
		metrics.RecordDelivery("error", duration)
		return err
	}

	metrics.RecordDelivery("success", duration)
	logging.Debug().
		Str("event", ev.Event).
		Str("device", ev.Device).
		Dur("duration", duration).
		Msg("Derived event delivered")
	return nil
}

func (e *Emitter) post(ctx context.Context, ev *models.DerivedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Playbridge")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
