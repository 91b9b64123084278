// Package metrics holds the Prometheus collectors of the workspace service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "workspace"

// Outcome labels
const (
	OutcomeAllow = "allow"
	OutcomeDeny  = "deny"
	OutcomeError = "error"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	// AuthzDecisions counts authorization check results.
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authz_decisions_total",
			Help:      "Total number of authorization check decisions",
		},
		[]string{"check", "outcome"},
	)

	// LifecycleOperations counts lifecycle operations by result.
	LifecycleOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_operations_total",
			Help:      "Total number of lifecycle operations",
		},
		[]string{"operation", "result"},
	)

	// LifecycleDuration observes lifecycle operation latency.
	LifecycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lifecycle_operation_duration_seconds",
			Help:      "Duration of lifecycle operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// RequestDuration observes HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordDecision counts one authorization decision.
func RecordDecision(check, outcome string) {
	AuthzDecisions.WithLabelValues(check, outcome).Inc()
}

// TrackOperation returns a function that records the result and duration
// of a lifecycle operation. Call it with the operation's error.
func TrackOperation(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		result := ResultSuccess
		if err != nil {
			result = ResultError
		}
		LifecycleOperations.WithLabelValues(operation, result).Inc()
		LifecycleDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

// ObserveRequest records the duration of an HTTP request.
func ObserveRequest(method, route string, status int, start time.Time) {
	RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
