// Package metrics holds the Prometheus instruments for reminder dispatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions     *prometheus.CounterVec
	SweepFailures prometheus.Counter
	SweepDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetworks_reminder_decisions_total",
			Help: "Reminder decisions published, by compliance status.",
		}, []string{"status"}),
		SweepFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetworks_reminder_sweep_failures_total",
			Help: "Assets that could not be evaluated during a reminder sweep.",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fleetworks_reminder_sweep_duration_seconds",
			Help:    "Wall time of a full reminder sweep.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

func (m *Metrics) ObserveDecision(status string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveSweepFailure() {
	if m == nil {
		return
	}
	m.SweepFailures.Inc()
}

func (m *Metrics) ObserveSweepDuration(seconds float64) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(seconds)
}
