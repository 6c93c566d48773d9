package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fleetworks/internal/asset"
	"fleetworks/internal/category"
	"fleetworks/internal/notify/metrics"
	"fleetworks/internal/routing"
	"fleetworks/internal/status"
	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
	"fleetworks/pkg/requestcontext"
)

// ComplianceSource classifies one asset against its applicable categories.
type ComplianceSource interface {
	ForAsset(ctx context.Context, assetID domain.AssetID) (*status.AssetCompliance, error)
}

// AssetStore is the asset read surface the sweep needs.
type AssetStore interface {
	List(ctx context.Context) ([]*asset.Asset, error)
	FindByID(ctx context.Context, id domain.AssetID) (*asset.Asset, error)
}

// CategoryStore is the category read surface the sweep needs.
type CategoryStore interface {
	ListActive(ctx context.Context, class category.AssetClass) ([]*category.Category, error)
}

// Sweeper walks the fleet, classifies every applicable obligation, and
// publishes a reminder decision for each one that is due soon or overdue on
// a category with at least one reminder channel enabled.
type Sweeper struct {
	compliance ComplianceSource
	assets     AssetStore
	categories CategoryStore
	router     *routing.Router
	publisher  Publisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewSweeper(compliance ComplianceSource, assets AssetStore, categories CategoryStore, router *routing.Router, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) (*Sweeper, error) {
	if compliance == nil || assets == nil || categories == nil {
		return nil, errors.New("compliance source and stores are required")
	}
	if router == nil {
		return nil, errors.New("router is required")
	}
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		compliance: compliance,
		assets:     assets,
		categories: categories,
		router:     router,
		publisher:  publisher,
		logger:     logger,
		metrics:    m,
	}, nil
}

// Sweep evaluates every asset once. An asset that fails to evaluate is
// logged and skipped so one bad record never stalls the rest of the fleet.
func (s *Sweeper) Sweep(ctx context.Context) error {
	start := time.Now()
	assets, err := s.assets.List(ctx)
	if err != nil {
		return fmt.Errorf("list assets: %w", err)
	}

	var published, failed int
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := s.SweepAsset(ctx, a.ID)
		if err != nil {
			failed++
			s.metrics.ObserveSweepFailure()
			s.logger.ErrorContext(ctx, "reminder sweep skipped asset",
				"asset_id", a.ID,
				"registration", a.Registration,
				"error", err,
			)
			continue
		}
		published += n
	}

	s.metrics.ObserveSweepDuration(time.Since(start).Seconds())
	s.logger.InfoContext(ctx, "reminder sweep finished",
		"assets", len(assets),
		"decisions", published,
		"failed", failed,
	)
	if failed > 0 {
		return fmt.Errorf("reminder sweep: %d of %d assets failed", failed, len(assets))
	}
	return nil
}

// SweepAsset evaluates one asset and returns how many decisions it published.
func (s *Sweeper) SweepAsset(ctx context.Context, assetID domain.AssetID) (int, error) {
	a, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return 0, err
	}
	compliance, err := s.compliance.ForAsset(ctx, assetID)
	if err != nil {
		return 0, err
	}
	cats, err := s.categories.ListActive(ctx, a.Class)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	byID := make(map[domain.CategoryID]*category.Category, len(cats))
	for _, cat := range cats {
		byID[cat.ID] = cat
	}

	now := requestcontext.Now(ctx)
	var published int
	for _, item := range compliance.Items {
		if item.Status != threshold.StatusDueSoon && item.Status != threshold.StatusOverdue {
			continue
		}
		cat := byID[item.CategoryID]
		if cat == nil {
			continue
		}
		channels := channelsFor(cat)
		if len(channels) == 0 {
			continue
		}
		route := s.router.Resolve(cat)

		d := Decision{
			AssetID:        compliance.AssetID,
			Registration:   compliance.Registration,
			CategoryID:     cat.ID,
			CategoryName:   cat.Name,
			Status:         item.Status,
			Value:          item.Value,
			Responsibility: route.Responsibility,
			Recipients:     route.Recipients,
			Channels:       channels,
			DecidedAt:      now,
		}
		if err := s.publisher.Publish(ctx, d); err != nil {
			return published, fmt.Errorf("publish decision for category %s: %w", cat.ID, err)
		}
		s.metrics.ObserveDecision(string(item.Status))
		published++
	}
	return published, nil
}

func channelsFor(cat *category.Category) []Channel {
	var out []Channel
	if cat.RemindInApp {
		out = append(out, ChannelInApp)
	}
	if cat.RemindEmail {
		out = append(out, ChannelEmail)
	}
	return out
}
