// Package metrics exposes Prometheus instrumentation for search service calls.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aisearch"

// Metrics holds all aisearch Prometheus metrics.
type Metrics struct {
	// Search API calls
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RetriesTotal    *prometheus.CounterVec

	// Service operations
	OperationsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the metrics on reg. A nil reg uses a fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "searchapi",
			Name:      "requests_total",
			Help:      "Search API HTTP attempts by operation, method and status class.",
		}, []string{"operation", "method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "searchapi",
			Name:      "request_duration_seconds",
			Help:      "Search API HTTP attempt latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "searchapi",
			Name:      "retries_total",
			Help:      "Search API retries by operation.",
		}, []string{"operation"}),
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "operations_total",
			Help:      "Mutating control-plane operations by type and outcome.",
		}, []string{"type", "outcome"}),
		gatherer: reg,
	}
}

// ObserveRequest records one HTTP attempt. statusCode 0 means no response.
func (m *Metrics) ObserveRequest(op, method string, statusCode int, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(op, method, statusClass(statusCode)).Inc()
	m.RequestDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// ObserveRetry records a retry.
func (m *Metrics) ObserveRetry(op string) {
	m.RetriesTotal.WithLabelValues(op).Inc()
}

// ObserveOperation records the outcome of a service operation.
func (m *Metrics) ObserveOperation(opType string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.OperationsTotal.WithLabelValues(opType, outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func statusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return strconv.Itoa(code/100) + "xx"
}
