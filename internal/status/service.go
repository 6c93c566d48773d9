package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fleetworks/internal/asset"
	"fleetworks/internal/category"
	"fleetworks/internal/ledger"
	"fleetworks/internal/status/metrics"
	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
	"fleetworks/pkg/requestcontext"
)

// CategoryStore is the category read surface status assembly needs.
type CategoryStore interface {
	ListActive(ctx context.Context, class category.AssetClass) ([]*category.Category, error)
}

// AssetStore is the asset read surface status assembly needs.
type AssetStore interface {
	FindByID(ctx context.Context, id domain.AssetID) (*asset.Asset, error)
}

// FactStore is the fact read surface status assembly needs.
type FactStore interface {
	ListByAsset(ctx context.Context, assetID domain.AssetID) ([]*ledger.Fact, error)
}

// Item is one category's classification for one asset.
type Item struct {
	CategoryID     domain.CategoryID       `json:"category_id"`
	CategoryName   string                  `json:"category_name"`
	ThresholdType  threshold.ThresholdType `json:"threshold_type"`
	Responsibility category.Responsibility `json:"responsibility"`
	Status         threshold.Status        `json:"status"`
	Value          string                  `json:"value,omitempty"`
	SyncStatus     ledger.SyncStatus       `json:"sync_status,omitempty"`
	UpdatedAt      *time.Time              `json:"updated_at,omitempty"`
}

// AssetCompliance is the full classification of one asset at one instant.
type AssetCompliance struct {
	AssetID      domain.AssetID `json:"asset_id"`
	Registration string         `json:"registration"`
	ComputedAt   time.Time      `json:"computed_at"`
	Items        []Item         `json:"items"`
}

// Service assembles per-asset compliance: every active category that applies
// to the asset's class, classified against the asset's current readings.
type Service struct {
	calc       *Calculator
	assets     AssetStore
	categories CategoryStore
	facts      FactStore
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewService(calc *Calculator, assets AssetStore, categories CategoryStore, facts FactStore, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if calc == nil || assets == nil || categories == nil || facts == nil {
		return nil, errors.New("calculator and stores are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{calc: calc, assets: assets, categories: categories, facts: facts, logger: logger, metrics: m}, nil
}

// ForAsset classifies every applicable category for one asset. Categories
// with no fact or no usable reading come back unknown rather than being
// omitted, so consumers see the full obligation set.
func (s *Service) ForAsset(ctx context.Context, assetID domain.AssetID) (*AssetCompliance, error) {
	a, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	cats, err := s.categories.ListActive(ctx, a.Class)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	facts, err := s.facts.ListByAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	byCategory := make(map[domain.CategoryID]*ledger.Fact, len(facts))
	for _, f := range facts {
		byCategory[f.CategoryID] = f
	}

	now := requestcontext.Now(ctx)
	out := &AssetCompliance{
		AssetID:      a.ID,
		Registration: string(a.Registration),
		ComputedAt:   now,
		Items:        make([]Item, 0, len(cats)),
	}
	for _, cat := range cats {
		fact := byCategory[cat.ID]
		reading := s.readingFor(a, cat.ThresholdType, now)
		st := s.calc.Classify(fact, cat, reading)
		s.metrics.ObserveClassification(string(st))

		item := Item{
			CategoryID:     cat.ID,
			CategoryName:   cat.Name,
			ThresholdType:  cat.ThresholdType,
			Responsibility: cat.Responsibility,
			Status:         st,
		}
		if fact.HasValue() {
			item.Value = fact.Value.String()
			item.SyncStatus = fact.SyncStatus
			at := fact.UpdatedAt
			item.UpdatedAt = &at
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// readingFor picks the current reading a threshold type compares against.
// Date categories always have one (today); meter categories only when the
// asset has a reading on file.
func (s *Service) readingFor(a *asset.Asset, t threshold.ThresholdType, now time.Time) *threshold.Reading {
	if !t.NeedsReading() {
		r := threshold.DateReading(now)
		return &r
	}
	meter := a.MeterFor(t == threshold.ThresholdHours)
	if meter == nil {
		return nil
	}
	r := threshold.MeterReading(meter.Value)
	return &r
}
