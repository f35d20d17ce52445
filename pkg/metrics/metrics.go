// Package metrics exposes Prometheus instrumentation for the marketplace
// backend: contract lifecycle transition counts and HTTP latency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	transitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_contract_transitions_total",
			Help: "Contract lifecycle operations by operation name and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_notifications_total",
			Help: "Notification deliveries by event and outcome.",
		},
		[]string{"event", "outcome"},
	)
)

// RecordTransition counts one lifecycle operation result.
func RecordTransition(operation, outcome string) {
	transitionsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveRequest records one HTTP request's latency.
func ObserveRequest(method, route, status string, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}

// RecordNotification counts one notification delivery attempt.
func RecordNotification(event, outcome string) {
	notificationsTotal.WithLabelValues(event, outcome).Inc()
}

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
