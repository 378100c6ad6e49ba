// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package main is the entry point for the Playbridge server.
//
// Playbridge sits between the Jellyfin webhook plugin and a Home
// Assistant webhook trigger. It turns Jellyfin's noisy playback
// notification stream into clean state-change events: debounced pauses,
// seek-artifact suppression, and a single media_end when playback
// reaches the credits.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (PLAYBRIDGE_* or the legacy flat names
//     such as HA_WEBHOOK_URL, PAUSE_DEBOUNCE_SECS)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Minimal setup:
//
//	export HA_WEBHOOK_URL=http://homeassistant:8123/api/webhook/jellyfin
//	./playbridge
//
// With chapter-based credits detection:
//
//	export HA_WEBHOOK_URL=http://homeassistant:8123/api/webhook/jellyfin
//	export JELLYFIN_URL=http://jellyfin:8096
//	export JELLYFIN_API_KEY=your-api-key
//	./playbridge
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the event bus closes, and the delivery consumer
// finishes its queue within the supervisor's shutdown timeout.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/playbridge/internal/api"
	"github.com/tomtom215/playbridge/internal/chapters"
	"github.com/tomtom215/playbridge/internal/config"
	"github.com/tomtom215/playbridge/internal/emitter"
	"github.com/tomtom215/playbridge/internal/engine"
	"github.com/tomtom215/playbridge/internal/eventbus"
	"github.com/tomtom215/playbridge/internal/ingest"
	"github.com/tomtom215/playbridge/internal/jellyfin"
	"github.com/tomtom215/playbridge/internal/logging"
	"github.com/tomtom215/playbridge/internal/supervisor"
	"github.com/tomtom215/playbridge/internal/supervisor/services"
)

// version is overridable at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Bool("jellyfin_enabled", cfg.Jellyfin.Enabled()).
		Bool("webhook_configured", cfg.HomeAssistant.WebhookURL != "").
		Float64("pause_debounce_secs", cfg.Debounce.PauseSecs).
		Float64("credits_threshold_pct", cfg.Debounce.CreditsThresholdPct).
		Msg("Starting Playbridge")

	if cfg.HomeAssistant.WebhookURL == "" {
		logging.Warn().Msg("HA_WEBHOOK_URL not set - derived events will be logged and dropped")
	}

	// Optional Jellyfin connection for chapter-based credits detection.
	var jellyfinClient *jellyfin.Client
	if cfg.Jellyfin.Enabled() {
		jellyfinClient = jellyfin.NewClient(cfg.Jellyfin.URL, cfg.Jellyfin.APIKey, cfg.Jellyfin.Timeout)
		if err := jellyfinClient.Ping(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Jellyfin unreachable, chapter lookups will retry per item")
		} else {
			logging.Info().Str("url", cfg.Jellyfin.URL).Msg("Connected to Jellyfin")
		}
	} else {
		logging.Info().Msg("Jellyfin API not configured - credits detection uses percentage threshold only")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var resolver *chapters.Resolver
	var creditsResolver engine.CreditsResolver
	if jellyfinClient != nil {
		resolver = chapters.NewResolver(jellyfinClient)
		creditsResolver = resolver
	}

	bus := eventbus.New()
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	store := engine.NewStore()
	eng := engine.New(engine.Config{
		PauseDebounce:       cfg.Debounce.PauseDebounce(),
		CreditsThresholdPct: cfg.Debounce.CreditsThresholdPct,
	}, store, creditsResolver, bus)

	normalizer := ingest.NewNormalizer(cfg.Devices.Allowed)

	var pinger api.Pinger
	if jellyfinClient != nil {
		pinger = jellyfinClient
	}
	var chapterStats api.ChapterStats
	if resolver != nil {
		chapterStats = resolver
	}
	handler := api.NewHandler(normalizer, eng, pinger, chapterStats, version)
	router := api.NewRouter(handler, cfg.RateLimit)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Bridge zerolog to slog for supervisor event reporting.
	slogLogger := slog.New(logging.NewSlogHandler())

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(slogLogger, treeCfg)

	sender := emitter.New(cfg.HomeAssistant)
	tree.AddDeliveryService(eventbus.NewConsumer(bus, sender))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Playbridge stopped gracefully")
}
