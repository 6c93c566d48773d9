// Package metrics holds the Prometheus instruments for the history ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EntriesRecorded  *prometheus.CounterVec
	FactWrites       prometheus.Counter
	FieldTruncations prometheus.Counter
	TypeCoercions    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		EntriesRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetworks_ledger_entries_total",
			Help: "History entries appended, by actor kind.",
		}, []string{"actor_kind"}),
		FactWrites: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetworks_ledger_fact_writes_total",
			Help: "Current-fact upserts applied through the ledger.",
		}),
		FieldTruncations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetworks_ledger_field_truncations_total",
			Help: "Field names truncated to the 100 character bound.",
		}),
		TypeCoercions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fleetworks_ledger_type_coercions_total",
			Help: "Legacy value-type tags coerced to a supported kind.",
		}),
	}
}

func (m *Metrics) ObserveEntry(actorKind string) {
	if m == nil {
		return
	}
	m.EntriesRecorded.WithLabelValues(actorKind).Inc()
}

func (m *Metrics) ObserveFactWrite() {
	if m == nil {
		return
	}
	m.FactWrites.Inc()
}

func (m *Metrics) ObserveTruncation() {
	if m == nil {
		return
	}
	m.FieldTruncations.Inc()
}

func (m *Metrics) ObserveCoercion() {
	if m == nil {
		return
	}
	m.TypeCoercions.Inc()
}
