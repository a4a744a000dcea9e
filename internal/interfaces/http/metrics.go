package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsRegistry holds all Prometheus metrics for the compliance service
type MetricsRegistry struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	// Ledger operations by op (bank|apply) and outcome (ok|rejected|error)
	LedgerOps *prometheus.CounterVec

	PoolsCreated prometheus.Counter

	registry *prometheus.Registry
}

// NewMetricsRegistry creates and registers all service metrics
func NewMetricsRegistry() *MetricsRegistry {
	m := &MetricsRegistry{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fueleu_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"path", "method", "status"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fueleu_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		LedgerOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fueleu_ledger_operations_total",
				Help: "Banking ledger operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		PoolsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fueleu_pools_created_total",
				Help: "Total compliance pools created",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(m.RequestDuration, m.RequestsTotal, m.LedgerOps, m.PoolsCreated)

	return m
}

// Handler returns the /metrics endpoint handler
func (m *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
