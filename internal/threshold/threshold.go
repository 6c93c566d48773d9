// Package threshold defines the obligation vocabulary: threshold types, value
// types, compliance statuses, and the comparison semantics each threshold
// type carries. Consumers dispatch on these types instead of raw strings.
package threshold

import (
	"time"

	dErrors "fleetworks/pkg/domain-errors"
)

// ThresholdType is the unit family an obligation is measured in.
type ThresholdType string

const (
	ThresholdDate    ThresholdType = "date"
	ThresholdMileage ThresholdType = "mileage"
	ThresholdHours   ThresholdType = "hours"
)

// ParseThresholdType validates a stored threshold type string.
func ParseThresholdType(s string) (ThresholdType, error) {
	switch t := ThresholdType(s); t {
	case ThresholdDate, ThresholdMileage, ThresholdHours:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown threshold type: "+s)
	}
}

// NeedsReading reports whether classification requires a current meter
// reading. Date thresholds compare against the calendar instead.
func (t ThresholdType) NeedsReading() bool {
	return t == ThresholdMileage || t == ThresholdHours
}

// ValueType is one of the four persisted value kinds. The stored schema
// constrains the column to exactly these values.
type ValueType string

const (
	ValueDate    ValueType = "date"
	ValueMileage ValueType = "mileage"
	ValueBoolean ValueType = "boolean"
	ValueText    ValueType = "text"
)

// ParseValueType validates a stored value type string. Legacy free-text tags
// are handled separately by the ledger's coercion table, not here.
func ParseValueType(s string) (ValueType, error) {
	switch v := ValueType(s); v {
	case ValueDate, ValueMileage, ValueBoolean, ValueText:
		return v, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown value type: "+s)
	}
}

// Status is the derived compliance classification. It is computed at read
// time and never persisted.
type Status string

const (
	StatusOK        Status = "ok"
	StatusDueSoon   Status = "due_soon"
	StatusOverdue   Status = "overdue"
	StatusNotYetDue Status = "not_yet_due"
	StatusUnknown   Status = "unknown"
)

// Windows carries the configured due-soon leads, one per threshold type.
// They are deployment configuration, never hard-coded per category.
type Windows struct {
	DateLeadDays int
	MileageLead  int64
	HoursLead    int64
}

// DefaultWindows are the leads used when configuration does not override
// them: fourteen days, five hundred miles, twenty meter-hours.
func DefaultWindows() Windows {
	return Windows{DateLeadDays: 14, MileageLead: 500, HoursLead: 20}
}

// Reading carries whichever current measurement a comparison needs: the
// calendar date for date thresholds, the odometer or hour-meter value
// otherwise.
type Reading struct {
	Date  time.Time
	Value int64
}

// DateReading builds a reading for date thresholds.
func DateReading(today time.Time) Reading { return Reading{Date: today} }

// MeterReading builds a reading for mileage and hours thresholds.
func MeterReading(v int64) Reading { return Reading{Value: v} }

// CompareFunc classifies a current reading against the value at which the
// obligation falls due. Boundary semantics are uniform across types: a
// reading exactly at the due-soon window edge is due_soon, and equality with
// the threshold itself is already overdue.
type CompareFunc func(current, due Reading) Status

// CompareFor returns the comparison function for a threshold type under the
// given windows.
func CompareFor(t ThresholdType, w Windows) (CompareFunc, error) {
	switch t {
	case ThresholdDate:
		return compareDate(w.DateLeadDays), nil
	case ThresholdMileage:
		return compareMeter(w.MileageLead), nil
	case ThresholdHours:
		return compareMeter(w.HoursLead), nil
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown threshold type: "+string(t))
	}
}

func compareDate(leadDays int) CompareFunc {
	return func(current, due Reading) Status {
		today := truncateToDay(current.Date)
		dueDay := truncateToDay(due.Date)
		if !today.Before(dueDay) {
			return StatusOverdue
		}
		windowEdge := dueDay.AddDate(0, 0, -leadDays)
		if !today.Before(windowEdge) {
			return StatusDueSoon
		}
		return StatusOK
	}
}

func compareMeter(lead int64) CompareFunc {
	return func(current, due Reading) Status {
		if current.Value >= due.Value {
			return StatusOverdue
		}
		if due.Value-current.Value <= lead {
			return StatusDueSoon
		}
		return StatusOK
	}
}

// truncateToDay drops time-of-day so classification is stable across the day
// regardless of when a reading was captured.
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
