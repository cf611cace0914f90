// Package api hosts the HTTP server, middleware, and handlers for the score
// service. Notable routes:
//   - GET /log for tracking-pixel submissions.
//   - GET / and /search for the HTML views.
//   - GET /healthz / readyz for Kubernetes liveness and readiness checks.
//   - GET /metrics for Prometheus scraping.
package api
