package completion

import (
	"fmt"
	"strings"

	"fleetworks/internal/category"
	"fleetworks/internal/threshold"
	dErrors "fleetworks/pkg/domain-errors"
)

// validateFields checks every submitted update against the category's field
// specs and collects every failure before reporting, so the caller learns all
// offending fields in one round trip. Parsing itself dispatches on value type
// through the threshold package's parser table.
func validateFields(cat *category.Category, updates []FieldUpdate) ([]validatedField, error) {
	submitted := make(map[string]string, len(updates))
	var failed []string
	var reasons []string

	fail := func(field, reason string) {
		failed = append(failed, field)
		reasons = append(reasons, fmt.Sprintf("%s: %s", field, reason))
	}

	out := make([]validatedField, 0, len(updates))
	for _, u := range updates {
		spec, ok := cat.FieldSpec(u.FieldName)
		if !ok {
			fail(u.FieldName, "not a completion field of category "+cat.Name)
			continue
		}
		if _, dup := submitted[u.FieldName]; dup {
			fail(u.FieldName, "submitted more than once")
			continue
		}
		submitted[u.FieldName] = u.RawValue

		raw := strings.TrimSpace(u.RawValue)
		if raw == "" {
			if spec.Required {
				fail(u.FieldName, "required field is empty")
			}
			// Optional and empty: nothing to write.
			continue
		}

		value, err := threshold.ParseValue(spec.ValueType, raw)
		if err != nil {
			fail(u.FieldName, err.Error())
			continue
		}
		out = append(out, validatedField{fieldName: spec.FieldName, value: value})
	}

	for _, spec := range cat.Fields {
		if !spec.Required {
			continue
		}
		if _, ok := submitted[spec.FieldName]; !ok {
			fail(spec.FieldName, "required field is missing")
		}
	}

	if len(failed) > 0 {
		return nil, dErrors.NewValidation(
			"completion fields invalid: "+strings.Join(reasons, "; "),
			failed...,
		)
	}
	return out, nil
}
