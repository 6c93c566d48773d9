package category

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
)

// Service orchestrates category administration. Categories are
// configuration-as-data: create and update freely, deactivate instead of
// delete once anything references them.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("category store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

// List returns active categories, optionally filtered to one asset class.
func (s *Service) List(ctx context.Context, class AssetClass) ([]*Category, error) {
	if class != "" && class != ClassVehicle && class != ClassPlant {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown asset class: "+string(class))
	}
	return s.store.ListActive(ctx, class)
}

func (s *Service) Get(ctx context.Context, id domain.CategoryID) (*Category, error) {
	return s.store.FindByID(ctx, id)
}

// Create validates and persists a new category.
func (s *Service) Create(ctx context.Context, c *Category) (*Category, error) {
	if c == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "category is required")
	}
	c.ID = domain.CategoryID(uuid.New())
	c.Active = true
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save category")
	}
	s.logger.InfoContext(ctx, "category created", "category_id", c.ID, "name", c.Name)
	return c, nil
}

// Update replaces a category's configuration in place. The ID and active
// flag are not updatable through this path.
func (s *Service) Update(ctx context.Context, id domain.CategoryID, c *Category) (*Category, error) {
	if c == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "category is required")
	}
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.Active = existing.Active
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save category")
	}
	s.logger.InfoContext(ctx, "category updated", "category_id", c.ID, "name", c.Name)
	return c, nil
}

// Deactivate soft-deletes. History rows keep pointing at the row.
func (s *Service) Deactivate(ctx context.Context, id domain.CategoryID) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category deactivated", "category_id", id)
	return nil
}
