// Package api hosts the ranking HTTP server. Routes:
//   - GET /api ranks a region's resorts by distance from coords.
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
package api
