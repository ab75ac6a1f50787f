package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/brightpath/dashsync/model"
)

// Metrics collects engine counters on a dedicated registry so the host can
// expose them without inheriting the global collector set.
type Metrics struct {
	registry *prometheus.Registry

	fetchTotal    *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	cycleTotal    *prometheus.CounterVec
	superseded    prometheus.Counter
	retryTotal    prometheus.Counter
	updatesDirect prometheus.Counter
}

// NewMetrics creates and registers the engine metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashsync",
			Name:      "fetch_total",
			Help:      "Remote entity fetch outcomes.",
		}, []string{"entity", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashsync",
			Name:      "cache_lookups_total",
			Help:      "Cache hydration lookups by result.",
		}, []string{"entity", "result"}),
		cycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dashsync",
			Name:      "cycles_total",
			Help:      "Orchestration cycle outcomes.",
		}, []string{"outcome"}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashsync",
			Name:      "sessions_superseded_total",
			Help:      "Fetch sessions cancelled by a newer session.",
		}),
		retryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashsync",
			Name:      "retries_total",
			Help:      "Automatic cycle retries scheduled.",
		}),
		updatesDirect: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dashsync",
			Name:      "optimistic_updates_total",
			Help:      "Optimistic local updates applied without a fetch.",
		}),
	}
	m.registry.MustRegister(
		m.fetchTotal,
		m.cacheLookups,
		m.cycleTotal,
		m.superseded,
		m.retryTotal,
		m.updatesDirect,
	)
	return m
}

// Registry returns the registry holding the engine metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) fetchOutcome(t model.EntityType, ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.fetchTotal.WithLabelValues(string(t), outcome).Inc()
}

func (m *Metrics) cacheLookup(t model.EntityType, hit bool) {
	result := "hit"
	if !hit {
		result = "miss"
	}
	m.cacheLookups.WithLabelValues(string(t), result).Inc()
}

func (m *Metrics) cycleOutcome(outcome string) {
	m.cycleTotal.WithLabelValues(outcome).Inc()
}
