// Package metrics exposes engine counters on a private Prometheus registry.
// All methods are nil-safe so components can run without metrics wired.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "stylefix"

// Metrics groups the collectors the engine updates.
type Metrics struct {
	registry *prometheus.Registry

	pollCycles   prometheus.Counter
	pollFailures prometheus.Counter
	applied      *prometheus.CounterVec
	applyFailed  *prometheus.CounterVec
	rolledBack   prometheus.Counter
	active       prometheus.Gauge
}

// New builds and registers the collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		pollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Sync cycles run against the fix source.",
		}),
		pollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Sync cycles aborted by a fetch failure.",
		}),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_applied_total",
			Help:      "Fixes materialised into the style sheet.",
		}, []string{"source"}),
		applyFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_apply_failed_total",
			Help:      "Fixes that could not be applied, by type.",
		}, []string{"type"}),
		rolledBack: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fixes_rolled_back_total",
			Help:      "Fixes removed from the style sheet.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fixes_active",
			Help:      "Fixes currently in the applied registry.",
		}),
	}
	reg.MustRegister(
		m.pollCycles, m.pollFailures, m.applied, m.applyFailed, m.rolledBack, m.active,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) PollCycle() {
	if m != nil {
		m.pollCycles.Inc()
	}
}

func (m *Metrics) PollFailed() {
	if m != nil {
		m.pollFailures.Inc()
	}
}

// Applied records a successful apply. source is "poll" or "manual".
func (m *Metrics) Applied(source string) {
	if m != nil {
		m.applied.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) ApplyFailed(fixType string) {
	if m != nil {
		m.applyFailed.WithLabelValues(fixType).Inc()
	}
}

func (m *Metrics) RolledBack() {
	if m != nil {
		m.rolledBack.Inc()
	}
}

// SetActive records the registry size.
func (m *Metrics) SetActive(n int) {
	if m != nil {
		m.active.Set(float64(n))
	}
}
