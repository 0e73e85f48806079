// Package metrics exposes Prometheus counters for authentication outcomes,
// administrative operations and store health.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

const namespace = "keybind"

// Metrics owns a private registry so tests and multiple servers in one
// process don't collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	authAttempts  *prometheus.CounterVec
	authDuration  prometheus.Histogram
	adminOps      *prometheus.CounterVec
	bindConflicts prometheus.Counter
	breakerState  *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Authentication calls by outcome.",
		}, []string{"outcome"}),
		authDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "auth_duration_seconds",
			Help:      "Time spent deciding an authentication call.",
			Buckets:   prometheus.DefBuckets,
		}),
		adminOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admin_operations_total",
			Help:      "Administrative operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		bindConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bind_conflicts_total",
			Help:      "Conditional updates that lost a race and were re-evaluated.",
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_breaker_state",
			Help:      "Store circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}, []string{"name"}),
	}

	m.registry.MustRegister(
		m.authAttempts,
		m.authDuration,
		m.adminOps,
		m.bindConflicts,
		m.breakerState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveAuthentication(outcome string, d time.Duration) {
	m.authAttempts.WithLabelValues(outcome).Inc()
	m.authDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveAdminOperation(operation, outcome string) {
	m.adminOps.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveBindConflict() {
	m.bindConflicts.Inc()
}

// BreakerStateChanged matches gobreaker.Settings.OnStateChange.
func (m *Metrics) BreakerStateChanged(name string, _, to gobreaker.State) {
	m.breakerState.WithLabelValues(name).Set(float64(to))
}

// Registry is exposed for callers that want to add their own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
