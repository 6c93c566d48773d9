package ledger

import (
	"context"
	"time"

	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
)

// ErrFactNotFound keeps fact lookups consistent across implementations.
var ErrFactNotFound = dErrors.New(dErrors.CodeNotFound, "maintenance fact not found")

// FactStore persists current facts. Upsert semantics are well-defined by the
// unique (asset, category) constraint.
type FactStore interface {
	Find(ctx context.Context, assetID domain.AssetID, categoryID domain.CategoryID) (*Fact, error)
	ListByAsset(ctx context.Context, assetID domain.AssetID) ([]*Fact, error)
	Upsert(ctx context.Context, fact *Fact) error
	// MarkSyncError records a failed sync without touching the stored value.
	// A fact row is created if none exists so the failure is visible.
	MarkSyncError(ctx context.Context, assetID domain.AssetID, categoryID domain.CategoryID, detail string, at time.Time) error
}

// HistoryStore persists immutable history entries.
type HistoryStore interface {
	Append(ctx context.Context, entry *HistoryEntry) error
	// List returns entries newest first, optionally filtered to one field
	// (pass "" for all).
	List(ctx context.Context, assetID domain.AssetID, fieldName string) ([]*HistoryEntry, error)
}

// TxRunner provides the single transactional boundary shared by fact and
// history writes, so "fact updated but no history row" cannot occur even
// under partial failure.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
