// Package metrics provides Prometheus and no-op implementations of ports.Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/caseledger/internal/domain"
)

// PrometheusMetrics implements ports.Metrics using Prometheus.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	callsTotal    *prometheus.CounterVec
	callsInFlight prometheus.Gauge
	callDuration  *prometheus.HistogramVec
	sessionStatus *prometheus.GaugeVec
}

var statuses = []domain.Status{
	domain.StatusDisconnected,
	domain.StatusConnecting,
	domain.StatusConnected,
	domain.StatusError,
}

// NewPrometheusMetrics creates metrics registered on a private registry.
func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &PrometheusMetrics{
		registry: registry,

		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatcher",
				Name:      "calls_total",
				Help:      "Total number of dispatcher calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		callsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "dispatcher",
				Name:      "calls_in_flight",
				Help:      "Number of dispatcher calls currently outstanding",
			},
		),
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatcher",
				Name:      "call_duration_seconds",
				Help:      "Dispatcher call latency including confirmation wait",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60},
			},
			[]string{"operation"},
		),
		sessionStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "status",
				Help:      "1 for the current session status, 0 otherwise",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.callsTotal,
		m.callsInFlight,
		m.callDuration,
		m.sessionStatus,
	)
	m.SessionStatus(domain.StatusDisconnected.String())

	return m
}

// CallStarted increments the in-flight gauge.
func (m *PrometheusMetrics) CallStarted(op string) {
	m.callsInFlight.Inc()
}

// CallFinished records the outcome and latency of a call.
func (m *PrometheusMetrics) CallFinished(op, outcome string, duration time.Duration) {
	m.callsInFlight.Dec()
	m.callsTotal.WithLabelValues(op, outcome).Inc()
	m.callDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SessionStatus sets the status gauge to the given status.
func (m *PrometheusMetrics) SessionStatus(status string) {
	for _, s := range statuses {
		v := 0.0
		if s.String() == status {
			v = 1
		}
		m.sessionStatus.WithLabelValues(s.String()).Set(v)
	}
}

// Registry returns the underlying registry.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
