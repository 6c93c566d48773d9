// Package ledger owns the two records at the core of the engine: the mutable
// current fact per (asset, category) and the append-only history of every
// change to it. No fact mutation path may bypass the history.
package ledger

import (
	"time"

	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
)

// SyncStatus tracks the outcome of the most recent external-source sync for
// externally-fed facts.
type SyncStatus string

const (
	SyncNever SyncStatus = "never"
	SyncOK    SyncStatus = "ok"
	SyncError SyncStatus = "error"
)

// Fact is the single authoritative current value of one obligation for one
// asset. At most one exists per (asset, category); it is never deleted while
// the asset exists. Mutation is last-writer-wins, but every mutation appends
// a HistoryEntry.
type Fact struct {
	AssetID    domain.AssetID    `json:"asset_id"`
	CategoryID domain.CategoryID `json:"category_id"`
	// FieldName is the history join key that last wrote this fact.
	FieldName string          `json:"field_name"`
	Value     threshold.Value `json:"value"`
	// FirstDue marks a value sourced from a "first test due" date for an
	// asset too new to have been tested.
	FirstDue  bool      `json:"first_due,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`

	SyncStatus SyncStatus `json:"sync_status,omitempty"`
	SyncAt     *time.Time `json:"sync_at,omitempty"`
	SyncDetail string     `json:"sync_detail,omitempty"`
}

// HasValue reports whether the fact carries a usable value. A fact created
// only to record a sync failure has none.
func (f *Fact) HasValue() bool {
	return f != nil && !f.Value.IsZero()
}

// HistoryEntry is one immutable audit row: who changed what, when, and why.
// It is the sole source of truth for that question.
type HistoryEntry struct {
	ID        int64
	AssetID   domain.AssetID
	FieldName string
	ValueType threshold.ValueType
	// OldValue is nil for the first write of a field.
	OldValue  *string
	NewValue  string
	Comment   string
	Actor     domain.Actor
	CreatedAt time.Time
}

// FactChange describes one intended fact mutation. Apply validates it,
// upserts the fact, and appends the paired history entry in one transaction.
type FactChange struct {
	AssetID    domain.AssetID
	CategoryID domain.CategoryID
	FieldName  string
	Value      threshold.Value
	FirstDue   bool
	Comment    string
	Actor      domain.Actor
	// MarkSynced stamps the fact as externally synced at apply time.
	MarkSynced bool
}
