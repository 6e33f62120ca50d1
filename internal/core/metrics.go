// AngelaMos | 2026
// metrics.go

package core

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "core"

// Auth outcome labels.
const (
	AuthSuccess  = "success"
	AuthFailure  = "failure"
	AuthRejected = "rejected"
	AuthLocked   = "locked"
)

var (
	HTTPInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "http_in_flight_requests",
		Help:      "In-flight HTTP requests.",
	})

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "auth_attempts_total",
			Help:      "Authentication attempts by method and outcome.",
		},
		[]string{"method", "outcome"},
	)

	registerOnce sync.Once
)

// InitMetrics registers the collectors with the default registry.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPInFlight,
			HTTPRequestsTotal,
			HTTPRequestDuration,
			authAttempts,
		)
	})
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthAttempt counts one authentication attempt. Method is one of
// login, refresh, bearer, api_key.
func RecordAuthAttempt(method, outcome string) {
	authAttempts.WithLabelValues(method, outcome).Inc()
}
