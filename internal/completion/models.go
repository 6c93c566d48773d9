// Package completion converts the typed field updates collected when a
// workshop task is marked complete into validated fact writes, applied
// atomically with the task's status transition.
package completion

import (
	"fleetworks/internal/ledger"
	"fleetworks/internal/task"
	"fleetworks/internal/threshold"
)

// FieldUpdate is one raw field value as submitted by the caller. Order is
// preserved so validation errors and history entries follow the form.
type FieldUpdate struct {
	FieldName string `json:"field_name"`
	RawValue  string `json:"raw_value"`
}

// Request is the completion payload: zero or more field updates plus the
// completion flag itself.
type Request struct {
	Updates      []FieldUpdate `json:"updates"`
	MarkComplete bool          `json:"mark_complete"`
}

// Result is the combined outcome: the transitioned task and every fact the
// completion wrote.
type Result struct {
	Task  *task.Task     `json:"task"`
	Facts []*ledger.Fact `json:"facts"`
}

// validatedField pairs a field spec with its parsed value, ready to apply.
type validatedField struct {
	fieldName string
	value     threshold.Value
}
