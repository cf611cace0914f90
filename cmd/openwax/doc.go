// Package main hosts the openwax service entrypoint.
//
// Architecture overview:
//   - HTTP: internal/api.Server serves the tracking pixel (/log), the recent
//     scores page (/), the domain search page (/search), health checks and /metrics.
//   - Domain: internal/score validates submissions, applies them to the store
//     (read, bump times, overwrite, upsert) and computes search aggregates.
//   - Persistence: the score.Store contract is implemented by Postgres (pgx
//     pool, default), SQLite (modernc, pure Go) and an in-memory map.
//   - Plumbing: Viper loads config from an optional YAML file and OPENWAX_*
//     env vars; zap provides structured logging; Prometheus counters and
//     histograms are exported at /metrics.
//
// Quick checklist:
//   - Run locally: go run ./cmd/openwax 8117 --config config.yaml
//   - Without Postgres: OPENWAX_STORE_DRIVER=sqlite OPENWAX_STORE_DSN=./data/openwax.db
//   - Shutdown: SIGINT/SIGTERM drain in-flight requests within
//     server.shutdown_seconds and close the store.
package main
