// Package metrics holds the Prometheus instruments for external-source
// reconciliation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Syncs         *prometheus.CounterVec
	SourceErrors  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	CacheHits     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Syncs: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetworks_reconcile_syncs_total",
			Help: "Per-asset sync attempts, by outcome.",
		}, []string{"outcome"}),
		SourceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetworks_reconcile_source_errors_total",
			Help: "Source fetch failures, by source and category.",
		}, []string{"source", "category"}),
		FetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleetworks_reconcile_fetch_seconds",
			Help:    "External source fetch latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		CacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetworks_reconcile_cache_total",
			Help: "Lookup cache hits and misses, by source.",
		}, []string{"source", "result"}),
	}
}

func (m *Metrics) ObserveSync(outcome string) {
	if m == nil {
		return
	}
	m.Syncs.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSourceError(source, category string) {
	if m == nil {
		return
	}
	m.SourceErrors.WithLabelValues(source, category).Inc()
}

func (m *Metrics) ObserveFetch(source string, seconds float64) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(seconds)
}

func (m *Metrics) ObserveCache(source, result string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(source, result).Inc()
}
