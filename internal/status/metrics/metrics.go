// Package metrics holds the Prometheus instruments for status reads.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Classifications *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		Classifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetworks_status_classifications_total",
			Help: "Compliance classifications computed, by resulting status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveClassification(status string) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(status).Inc()
}
