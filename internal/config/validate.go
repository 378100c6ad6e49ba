// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

package config

import (
	"fmt"
	"net/url"

	"github.com/tomtom215/playbridge/internal/validation"
)

// Validate checks the configuration for errors that would prevent the
// service from operating. It combines struct-tag validation with checks
// the tags cannot express (URL syntax, cross-field requirements).
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if c.HomeAssistant.WebhookURL != "" {
		if err := validateHTTPURL(c.HomeAssistant.WebhookURL); err != nil {
			return fmt.Errorf("homeassistant.webhook_url: %w", err)
		}
	}

	if c.Jellyfin.URL != "" {
		if err := validateHTTPURL(c.Jellyfin.URL); err != nil {
			return fmt.Errorf("jellyfin.url: %w", err)
		}
		if c.Jellyfin.APIKey == "" {
			return fmt.Errorf("jellyfin.api_key is required when jellyfin.url is set")
		}
	}

	if !c.RateLimit.Disabled {
		if c.RateLimit.Requests <= 0 {
			return fmt.Errorf("ratelimit.requests must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("ratelimit.window must be positive")
		}
	}

	return nil
}

// validateHTTPURL checks that a string parses as an absolute http(s) URL.
func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL host is empty")
	}
	return nil
}
