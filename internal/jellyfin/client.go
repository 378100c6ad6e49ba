// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

// Package jellyfin implements a minimal REST client for the Jellyfin media
// server, used to fetch chapter metadata for credits detection.
//
// API Reference: https://api.jellyfin.org/
package jellyfin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ClientInterface defines the Jellyfin API operations used by Playbridge.
type ClientInterface interface {
	Ping(ctx context.Context) error
	GetItem(ctx context.Context, itemID string) (*Item, error)
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// Client provides access to the Jellyfin REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Item is the subset of the Jellyfin item DTO that Playbridge consumes.
type Item struct {
	ID           string    `json:"Id"`
	Name         string    `json:"Name"`
	Type         string    `json:"Type"`
	RunTimeTicks int64     `json:"RunTimeTicks"`
	Chapters     []Chapter `json:"Chapters"`
}

// Chapter is a single chapter marker within an item.
type Chapter struct {
	Name               string `json:"Name"`
	StartPositionTicks int64  `json:"StartPositionTicks"`
}

// NewClient creates a new Jellyfin API client.
//
// Parameters:
//   - baseURL: Jellyfin server URL (e.g., http://localhost:8096)
//   - apiKey: Jellyfin API key from Admin Dashboard > API Keys
//   - timeout: HTTP client timeout; zero selects a 30s default
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ping checks connectivity to the Jellyfin server.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, "/System/Info/Public")
	if err != nil {
		return fmt.Errorf("jellyfin ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jellyfin ping returned status %d", resp.StatusCode)
	}
	return nil
}

// GetItem fetches a single item including its chapter list.
func (c *Client) GetItem(ctx context.Context, itemID string) (*Item, error) {
	endpoint := fmt.Sprintf("/Items/%s?fields=Chapters", itemID)

	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("jellyfin item request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, rerr := io.ReadAll(resp.Body)
		if rerr != nil {
			return nil, fmt.Errorf("jellyfin item returned status %d (failed to read body)", resp.StatusCode)
		}
		return nil, fmt.Errorf("jellyfin item returned status %d: %s", resp.StatusCode, string(body))
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to decode jellyfin item: %w", err)
	}

	return &item, nil
}

// doRequest performs an HTTP GET request to the Jellyfin API.
func (c *Client) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	fullURL := c.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Emby-Token", c.apiKey)
	req.Header.Set("X-Emby-Client", "Playbridge")
	req.Header.Set("X-Emby-Device-Name", "Playbridge")
	req.Header.Set("X-Emby-Device-Id", "playbridge")
	req.Header.Set("X-Emby-Client-Version", "1.0.0")
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}
