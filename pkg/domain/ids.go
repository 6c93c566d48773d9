// Package domain holds shared domain primitives: typed identifiers and the
// actor attribution type used by the history ledger. Typed IDs keep an asset
// ID from ever being passed where a category ID is expected.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "fleetworks/pkg/domain-errors"
)

// AssetID identifies a fleet or plant asset.
type AssetID uuid.UUID

// CategoryID identifies a maintenance category.
type CategoryID uuid.UUID

// TaskID identifies a workshop task.
type TaskID uuid.UUID

func parseUUID(s, kind string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}

// ParseAssetID validates and returns an AssetID.
func ParseAssetID(s string) (AssetID, error) {
	u, err := parseUUID(s, "asset")
	return AssetID(u), err
}

// ParseCategoryID validates and returns a CategoryID.
func ParseCategoryID(s string) (CategoryID, error) {
	u, err := parseUUID(s, "category")
	return CategoryID(u), err
}

// ParseTaskID validates and returns a TaskID.
func ParseTaskID(s string) (TaskID, error) {
	u, err := parseUUID(s, "task")
	return TaskID(u), err
}

func (id AssetID) String() string    { return uuid.UUID(id).String() }
func (id CategoryID) String() string { return uuid.UUID(id).String() }
func (id TaskID) String() string     { return uuid.UUID(id).String() }

func (id AssetID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id CategoryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id TaskID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// Defined types do not inherit uuid.UUID's marshaling, so spell it out or
// JSON would render the raw byte array.

func (id AssetID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }
func (id CategoryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id TaskID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *AssetID) UnmarshalText(b []byte) error {
	parsed, err := ParseAssetID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *CategoryID) UnmarshalText(b []byte) error {
	parsed, err := ParseCategoryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *TaskID) UnmarshalText(b []byte) error {
	parsed, err := ParseTaskID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// VRM is a normalized vehicle registration mark: uppercase with all
// whitespace stripped. External sources are keyed by this form.
type VRM string

const maxVRMLength = 14

// ParseVRM normalizes and validates a registration mark.
func ParseVRM(s string) (VRM, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if normalized == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "registration must not be empty")
	}
	if len(normalized) > maxVRMLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "registration too long")
	}
	for _, r := range normalized {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' {
			return "", dErrors.New(dErrors.CodeInvalidInput, "registration contains invalid characters")
		}
	}
	return VRM(normalized), nil
}

func (v VRM) String() string { return string(v) }
func (v VRM) IsNil() bool    { return v == "" }
