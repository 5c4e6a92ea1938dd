// Package api defines the request and response bodies of the TextScore HTTP API.
//
// # Endpoints
//
//	GET  /healthz                 liveness check
//	GET  /readyz                  readiness check (cache, store)
//	GET  /version                 build information
//	POST /api/v1/segment          segment reference/candidate pairs
//	POST /api/v1/score            score pairs with one or more metrics
//	POST /api/v1/compare          score a single pair, per-metric failures reported inline
//	GET  /api/v1/metrics          metrics with a registered scorer
//	GET  /api/v1/reports          recent reports, newest first
//	GET  /api/v1/reports/{id}     a stored report
//
// Prometheus metrics are served at /metrics, on a separate port unless
// server.metrics_port is 0.
//
// Every JSON endpoint except the health checks wraps its payload in the envelope
// defined by handlers.Response.
package api
