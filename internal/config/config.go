// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package config loads and validates the Playbridge configuration using
// Koanf v2 with layered sources: built-in defaults, an optional YAML config
// file, and environment variables (highest priority).
package config

import "time"

// Config is the root configuration for Playbridge.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Debounce      DebounceConfig      `koanf:"debounce"`
	Jellyfin      JellyfinConfig      `koanf:"jellyfin"`
	HomeAssistant HomeAssistantConfig `koanf:"homeassistant"`
	Devices       DevicesConfig       `koanf:"devices"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DebounceConfig holds the event-interpretation tuning knobs.
type DebounceConfig struct {
	// PauseSecs is how long a paused notification must persist before it is
	// confirmed as a real pause rather than a seek artifact.
	PauseSecs float64 `koanf:"pause_secs" validate:"gt=0"`

	// CreditsThresholdPct is the runtime percentage used for media_end
	// detection when no chapter data is available.
	CreditsThresholdPct float64 `koanf:"credits_threshold_pct" validate:"gt=0,lte=100"`
}

// PauseDebounce returns the pause debounce window as a duration.
func (d DebounceConfig) PauseDebounce() time.Duration {
	return time.Duration(d.PauseSecs * float64(time.Second))
}

// JellyfinConfig holds the optional media-server connection used for
// chapter lookups. When URL is empty the chapter resolver is disabled and
// credits detection falls back to the runtime percentage.
type JellyfinConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// Enabled reports whether the Jellyfin API connection is configured.
func (j JellyfinConfig) Enabled() bool {
	return j.URL != ""
}

// HomeAssistantConfig holds the outbound automation endpoint.
type HomeAssistantConfig struct {
	WebhookURL string        `koanf:"webhook_url"`
	Timeout    time.Duration `koanf:"timeout"`
}

// DevicesConfig holds the inbound device allow-list. An empty list means
// all devices are processed.
type DevicesConfig struct {
	Allowed []string `koanf:"allowed"`
}

// RateLimitConfig holds inbound rate limiting settings.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Disabled bool          `koanf:"disabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
