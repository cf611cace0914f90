// Package metrics exposes Prometheus collectors for the score service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search result labels.
const (
	SearchEmpty = "empty"
	SearchHit   = "hit"
	SearchMiss  = "miss"
)

// OutcomeAccepted labels submissions that reached the store.
const OutcomeAccepted = "accepted"

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	submissionsTotal           *prometheus.CounterVec
	searchQueriesTotal         *prometheus.CounterVec
	storeErrorsTotal           *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openwax_http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "openwax_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
			},
			[]string{"method", "route"},
		)

		submissionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openwax_submissions_total",
				Help: "Tracking submissions, labeled by outcome (accepted or the rejection reason).",
			},
			[]string{"outcome"},
		)

		searchQueriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openwax_search_queries_total",
				Help: "Search requests, labeled by result (empty, hit, miss).",
			},
			[]string{"result"},
		)

		storeErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openwax_store_errors_total",
				Help: "Store failures surfaced to HTTP handlers, labeled by operation.",
			},
			[]string{"op"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveSubmission counts one tracking submission. outcome is
// OutcomeAccepted or a rejection reason.
func ObserveSubmission(outcome string) {
	submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSearch counts one search by its result class.
func ObserveSearch(result string) {
	searchQueriesTotal.WithLabelValues(result).Inc()
}

// ObserveStoreError counts a store failure for op.
func ObserveStoreError(op string) {
	storeErrorsTotal.WithLabelValues(op).Inc()
}
