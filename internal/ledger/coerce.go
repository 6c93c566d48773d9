package ledger

import (
	"fleetworks/internal/threshold"
	dErrors "fleetworks/pkg/domain-errors"
)

// legacyValueTypes maps free-text type tags written before the four-way
// constraint existed onto the persisted kinds. The numeric family collapses
// onto mileage because the constraint recognizes no separate hours kind.
// This is a known lossy mapping, kept in one place on purpose.
var legacyValueTypes = map[string]threshold.ValueType{
	"hours":    threshold.ValueMileage,
	"numeric":  threshold.ValueMileage,
	"number":   threshold.ValueMileage,
	"integer":  threshold.ValueMileage,
	"bool":     threshold.ValueBoolean,
	"string":   threshold.ValueText,
	"datetime": threshold.ValueDate,
}

// CoerceValueType resolves a stored value-type tag, accepting the four
// supported kinds directly and mapping recognized legacy tags best-effort.
// The second result reports whether a lossy coercion happened.
func CoerceValueType(raw string) (threshold.ValueType, bool, error) {
	if vt, err := threshold.ParseValueType(raw); err == nil {
		return vt, false, nil
	}
	if vt, ok := legacyValueTypes[raw]; ok {
		return vt, true, nil
	}
	return "", false, dErrors.New(dErrors.CodeInvalidInput, "unrecognized value type: "+raw)
}
