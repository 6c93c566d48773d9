package category

import (
	"context"

	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
)

// ErrNotFound keeps category lookups consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "category not found")

// Store persists maintenance categories.
type Store interface {
	Save(ctx context.Context, c *Category) error
	FindByID(ctx context.Context, id domain.CategoryID) (*Category, error)
	// ListActive returns active categories, optionally filtered to an asset
	// class. Pass "" for all classes.
	ListActive(ctx context.Context, class AssetClass) ([]*Category, error)
	// FindBySource returns active categories fed by the given external source.
	FindBySource(ctx context.Context, source ExternalSource) ([]*Category, error)
	// Deactivate soft-deletes; the row survives for history references.
	Deactivate(ctx context.Context, id domain.CategoryID) error
}
