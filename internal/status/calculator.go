// Package status derives compliance classifications at read time. Nothing in
// this package performs I/O or mutates state: classification is a pure
// function over a fact, its category, and a current reading, so every
// consumer (asset views, reminder sweeps) sees the same answer.
package status

import (
	"fleetworks/internal/category"
	"fleetworks/internal/ledger"
	"fleetworks/internal/threshold"
)

// Calculator classifies facts under a fixed set of due-soon windows. The
// windows come from deployment configuration, never from individual
// categories.
type Calculator struct {
	windows threshold.Windows
}

func NewCalculator(w threshold.Windows) *Calculator {
	return &Calculator{windows: w}
}

// Classify returns the compliance status for one (fact, category, reading)
// triple. A nil fact, a valueless fact, or a missing-but-required reading is
// unknown, never a guess. Facts flagged as a first-due date classify as
// not_yet_due while the date is comfortably ahead, since the asset has no
// test to be overdue against.
func (c *Calculator) Classify(fact *ledger.Fact, cat *category.Category, reading *threshold.Reading) threshold.Status {
	if !fact.HasValue() || cat == nil {
		return threshold.StatusUnknown
	}
	if reading == nil {
		return threshold.StatusUnknown
	}

	due, ok := dueReading(cat.ThresholdType, fact.Value)
	if !ok {
		return threshold.StatusUnknown
	}

	compare, err := threshold.CompareFor(cat.ThresholdType, c.windows)
	if err != nil {
		return threshold.StatusUnknown
	}
	status := compare(*reading, due)

	if fact.FirstDue && status == threshold.StatusOK {
		return threshold.StatusNotYetDue
	}
	return status
}

// dueReading converts a stored fact value into the comparison reading for a
// threshold type. A stored value of the wrong kind (a text note under a
// mileage category) cannot be classified.
func dueReading(t threshold.ThresholdType, v threshold.Value) (threshold.Reading, bool) {
	switch t {
	case threshold.ThresholdDate:
		if v.Type != threshold.ValueDate {
			return threshold.Reading{}, false
		}
		return threshold.DateReading(v.Date), true
	case threshold.ThresholdMileage, threshold.ThresholdHours:
		if v.Type != threshold.ValueMileage {
			return threshold.Reading{}, false
		}
		return threshold.MeterReading(v.Mileage), true
	default:
		return threshold.Reading{}, false
	}
}
