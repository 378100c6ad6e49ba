// Playbridge - Jellyfin to Home Assistant Playback Event Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/playbridge

/*
Package api provides the HTTP surface of the bridge.

Endpoints:

  - POST /jellyfin: webhook ingestion from the Jellyfin webhook plugin
  - GET /health: overall status including Jellyfin reachability
  - GET /health/live, /health/ready: probe endpoints
  - GET /metrics: Prometheus exposition

The webhook endpoint answers 200 for every parseable payload, including
ones the device allow-list or notification-type filter drops, so that the
sender never retries. Only unparseable JSON earns a 400.

The middleware stack (request IDs, Prometheus instrumentation, panic
recovery, IP rate limiting) applies to all routes.
*/
package api
