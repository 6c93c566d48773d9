// Package category holds the maintenance obligation configuration: what an
// obligation is measured in, who acts on it, and which typed fields a
// workshop completion may write back.
package category

import (
	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
)

// Responsibility names the organizational unit that acts on an obligation.
type Responsibility string

const (
	ResponsibilityOffice   Responsibility = "office"
	ResponsibilityWorkshop Responsibility = "workshop"
)

// AssetClass is the kind of asset an obligation can apply to.
type AssetClass string

const (
	ClassVehicle AssetClass = "vehicle"
	ClassPlant   AssetClass = "plant"
)

// ExternalSource marks categories whose facts arrive from the reconciler
// rather than from workshop completions.
type ExternalSource string

const (
	SourceNone ExternalSource = ""
	// SourceTestHistory: periodic safety test due dates from the test-history
	// source, with registration-derived fallback.
	SourceTestHistory ExternalSource = "test_history"
	// SourceRegistration: road-use tax due dates from the registration source.
	SourceRegistration ExternalSource = "registration"
)

// MaxFieldNameLength is a hard external-interface constraint: the stored
// field_name column is bounded to 100 characters.
const MaxFieldNameLength = 100

// CompletionFieldSpec is one typed field a category collects when a workshop
// task is marked complete. FieldName is the join key the completion feedback
// processor writes facts under, unique within its category.
type CompletionFieldSpec struct {
	FieldName string
	Label     string
	ValueType threshold.ValueType
	Required  bool
	HelpText  string
}

// Category is a named maintenance obligation type. Once referenced by
// history it is soft-deactivated, never hard-deleted.
type Category struct {
	ID             domain.CategoryID
	Name           string
	ThresholdType  threshold.ThresholdType
	AppliesTo      []AssetClass
	Responsibility Responsibility
	Visible        bool
	RemindInApp    bool
	RemindEmail    bool
	Source         ExternalSource
	Fields         []CompletionFieldSpec
	Active         bool
}

// AppliesToClass reports whether the obligation covers the given asset class.
func (c Category) AppliesToClass(class AssetClass) bool {
	for _, a := range c.AppliesTo {
		if a == class {
			return true
		}
	}
	return false
}

// FieldSpec looks up a completion field by its join key.
func (c Category) FieldSpec(fieldName string) (CompletionFieldSpec, bool) {
	for _, f := range c.Fields {
		if f.FieldName == fieldName {
			return f, true
		}
	}
	return CompletionFieldSpec{}, false
}

// Validate enforces the configuration invariants before a category is saved.
func (c Category) Validate() error {
	if c.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "category name is required")
	}
	if _, err := threshold.ParseThresholdType(string(c.ThresholdType)); err != nil {
		return err
	}
	if len(c.AppliesTo) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "category must apply to at least one asset class")
	}
	for _, class := range c.AppliesTo {
		if class != ClassVehicle && class != ClassPlant {
			return dErrors.New(dErrors.CodeInvalidInput, "unknown asset class: "+string(class))
		}
	}
	switch c.Responsibility {
	case ResponsibilityOffice, ResponsibilityWorkshop:
	default:
		return dErrors.New(dErrors.CodeInvalidInput, "unknown responsibility: "+string(c.Responsibility))
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f.FieldName == "" {
			return dErrors.New(dErrors.CodeInvalidInput, "completion field name is required")
		}
		if len(f.FieldName) > MaxFieldNameLength {
			return dErrors.New(dErrors.CodeInvalidInput, "completion field name exceeds 100 characters: "+f.FieldName)
		}
		if seen[f.FieldName] {
			return dErrors.New(dErrors.CodeInvalidInput, "duplicate completion field name: "+f.FieldName)
		}
		seen[f.FieldName] = true
		if _, err := threshold.ParseValueType(string(f.ValueType)); err != nil {
			return err
		}
	}
	return nil
}
