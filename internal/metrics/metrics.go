// Package metrics exposes Prometheus counters for costing activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can create as many as they like.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	edits   *prometheus.CounterVec
	saves   *prometheus.CounterVec
	drafts  *prometheus.CounterVec
	exports *prometheus.CounterVec
}

// New registers the service counters plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressworks",
			Name:      "breakdown_edits_total",
			Help:      "Breakdown edits applied, by edit kind.",
		}, []string{"kind"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressworks",
			Name:      "breakdown_saves_total",
			Help:      "Breakdowns persisted onto job orders, by breakdown kind.",
		}, []string{"breakdown"}),
		drafts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressworks",
			Name:      "drafts_total",
			Help:      "Text drafting requests, by draft kind and outcome.",
		}, []string{"kind", "outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pressworks",
			Name:      "exports_total",
			Help:      "Cost sheet exports, by format.",
		}, []string{"format"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.edits, m.saves, m.drafts, m.exports,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveEdit(kind string) {
	if m != nil {
		m.edits.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) ObserveSave(breakdown string) {
	if m != nil {
		m.saves.WithLabelValues(breakdown).Inc()
	}
}

func (m *Metrics) ObserveDraft(kind, outcome string) {
	if m != nil {
		m.drafts.WithLabelValues(kind, outcome).Inc()
	}
}

func (m *Metrics) ObserveExport(format string) {
	if m != nil {
		m.exports.WithLabelValues(format).Inc()
	}
}
