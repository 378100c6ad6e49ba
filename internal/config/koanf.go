// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/playbridge/config.yaml",
	"/etc/playbridge/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8099,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Debounce: DebounceConfig{
			PauseSecs:           2,
			CreditsThresholdPct: 95,
		},
		Jellyfin: JellyfinConfig{
			URL:     "",
			APIKey:  "",
			Timeout: 30 * time.Second,
		},
		HomeAssistant: HomeAssistantConfig{
			WebhookURL: "",
			Timeout:    10 * time.Second,
		},
		Devices: DevicesConfig{
			Allowed: []string{},
		},
		RateLimit: RateLimitConfig{
			Requests: 300,
			Window:   time.Minute,
			Disabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration with layered sources:
//  1. Defaults: built-in values
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as comma-separated
// slices when supplied through environment variables.
var sliceConfigPaths = []string{
	"devices.allowed",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings, but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML file).
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// legacyEnvMap maps the flat environment variable names (kept compatible
// with the original deployment) onto nested koanf paths.
var legacyEnvMap = map[string]string{
	"PORT":                  "server.port",
	"LISTEN_HOST":           "server.host",
	"PAUSE_DEBOUNCE_SECS":   "debounce.pause_secs",
	"CREDITS_THRESHOLD_PCT": "debounce.credits_threshold_pct",
	"JELLYFIN_URL":          "jellyfin.url",
	"JELLYFIN_API_KEY":      "jellyfin.api_key",
	"HA_WEBHOOK_URL":        "homeassistant.webhook_url",
	"ALLOWED_DEVICES":       "devices.allowed",
	"LOG_LEVEL":             "logging.level",
	"LOG_FORMAT":            "logging.format",
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Legacy flat names are mapped explicitly; any PLAYBRIDGE_-prefixed
// variable maps section_key onto section.key:
//
//	HA_WEBHOOK_URL               -> homeassistant.webhook_url
//	PLAYBRIDGE_SERVER_PORT       -> server.port
//	PLAYBRIDGE_RATELIMIT_WINDOW  -> ratelimit.window
func envTransformFunc(key string) string {
	if path, ok := legacyEnvMap[key]; ok {
		return path
	}

	if rest, ok := strings.CutPrefix(key, "PLAYBRIDGE_"); ok {
		rest = strings.ToLower(rest)
		// First segment is the config section, the remainder is the key.
		if section, field, found := strings.Cut(rest, "_"); found {
			return section + "." + field
		}
		return rest
	}

	// Unknown variables are ignored.
	return ""
}
