package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"fleetworks/internal/asset"
	"fleetworks/internal/category"
	"fleetworks/internal/ledger"
	"fleetworks/internal/reconcile/metrics"
	"fleetworks/internal/reconcile/source"
	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
)

// Fact field names written by the reconciler. They double as history join
// keys, so renaming one orphans prior history.
const (
	fieldTestDue = "motTestDueDate"
	fieldTaxDue  = "taxDueDate"
)

// System actors attributed in the ledger for each source's writes.
const (
	actorTestSync = "mot-sync"
	actorTaxSync  = "ves-sync"
)

// CategoryStore is the category read surface the reconciler needs.
type CategoryStore interface {
	FindBySource(ctx context.Context, src category.ExternalSource) ([]*category.Category, error)
}

// AssetStore is the asset read surface the reconciler needs.
type AssetStore interface {
	FindByID(ctx context.Context, id domain.AssetID) (*asset.Asset, error)
	List(ctx context.Context) ([]*asset.Asset, error)
}

// Ledger is the write surface: every reconciler outcome lands through it so
// no sync can mutate a fact without a history entry.
type Ledger interface {
	Apply(ctx context.Context, change ledger.FactChange) (*ledger.Fact, error)
	MarkSyncError(ctx context.Context, assetID domain.AssetID, categoryID domain.CategoryID, detail string) error
}

// Service merges the two external sources into authoritative facts.
type Service struct {
	history    source.TestHistoryClient
	reg        source.RegistrationClient
	categories CategoryStore
	assets     AssetStore
	ledger     Ledger
	fixtures   map[domain.VRM]struct{}
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

func NewService(historyClient source.TestHistoryClient, regClient source.RegistrationClient,
	categories CategoryStore, assets AssetStore, ldg Ledger,
	fixtures []domain.VRM, logger *slog.Logger, m *metrics.Metrics, tracer trace.Tracer,
) (*Service, error) {
	if historyClient == nil || regClient == nil {
		return nil, errors.New("source clients are required")
	}
	if categories == nil || assets == nil || ldg == nil {
		return nil, errors.New("stores and ledger are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("reconcile")
	}
	fixtureSet := make(map[domain.VRM]struct{}, len(fixtures))
	for _, f := range fixtures {
		fixtureSet[f] = struct{}{}
	}
	return &Service{
		history:    historyClient,
		reg:        regClient,
		categories: categories,
		assets:     assets,
		ledger:     ldg,
		fixtures:   fixtureSet,
		logger:     logger,
		metrics:    m,
		tracer:     tracer,
	}, nil
}

// SyncAsset reconciles every externally-sourced category for one asset. On
// source failure the affected facts get sync status error but keep their
// values; only confirmed data overwrites.
func (s *Service) SyncAsset(ctx context.Context, assetID domain.AssetID) error {
	ctx, span := s.tracer.Start(ctx, "reconcile.SyncAsset",
		trace.WithAttributes(attribute.String("asset_id", assetID.String())))
	defer span.End()

	a, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		return err
	}

	testCats, err := s.applicableCategories(ctx, category.SourceTestHistory, a.Class)
	if err != nil {
		return err
	}
	regCats, err := s.applicableCategories(ctx, category.SourceRegistration, a.Class)
	if err != nil {
		return err
	}
	if len(testCats) == 0 && len(regCats) == 0 {
		s.metrics.ObserveSync("no_categories")
		return nil
	}

	history, historyErr, reg, regErr := s.fetch(ctx, a.Registration, len(testCats) > 0)

	switch ResolveRecognition(a.Registration, s.fixtures, history, historyErr, reg, regErr) {
	case NotRecognized:
		detail := fmt.Sprintf("registration %s not recognized by external sources", a.Registration)
		s.markAll(ctx, a.ID, append(testCats, regCats...), detail)
		s.metrics.ObserveSync("not_recognized")
		return dErrors.New(dErrors.CodeAssetNotRecognized, detail)
	case Indeterminate:
		if history == nil && reg == nil {
			// Neither source answered; record the failure and keep every
			// prior value.
			err := firstSourceErr(historyErr, regErr)
			s.markAll(ctx, a.ID, append(testCats, regCats...), err.Error())
			s.metrics.ObserveSync("sources_failed")
			return translate(err)
		}
	}

	var failures []error

	res := ResolveDueDate(history, reg)
	for _, cat := range testCats {
		if err := s.applyTestDue(ctx, a, cat, res, historyErr); err != nil {
			failures = append(failures, err)
		}
	}
	for _, cat := range regCats {
		if err := s.applyTaxDue(ctx, a, cat, reg, regErr); err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		s.metrics.ObserveSync("partial")
		return errors.Join(failures...)
	}
	s.metrics.ObserveSync("ok")
	return nil
}

// SyncResult summarizes a fleet-wide sweep.
type SyncResult struct {
	Assets   int
	Failures int
}

// SyncAll reconciles every asset. Per-asset failures are logged and counted
// but do not stop the sweep.
func (s *Service) SyncAll(ctx context.Context) (SyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "reconcile.SyncAll")
	defer span.End()

	assets, err := s.assets.List(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{Assets: len(assets)}
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.SyncAsset(ctx, a.ID); err != nil {
			result.Failures++
			s.logger.WarnContext(ctx, "asset sync failed",
				"asset_id", a.ID,
				"registration", a.Registration,
				"error", err,
			)
		}
	}
	return result, nil
}

func (s *Service) applicableCategories(ctx context.Context, src category.ExternalSource, class category.AssetClass) ([]*category.Category, error) {
	cats, err := s.categories.FindBySource(ctx, src)
	if err != nil {
		return nil, err
	}
	out := cats[:0]
	for _, c := range cats {
		if c.AppliesToClass(class) {
			out = append(out, c)
		}
	}
	return out, nil
}

// fetch queries both sources concurrently. Source errors are returned per
// source, not joined: the precedence policy needs to know which answered.
func (s *Service) fetch(ctx context.Context, vrm domain.VRM, wantHistory bool) (*source.VehicleHistory, error, *source.RegistrationRecord, error) {
	var (
		history    *source.VehicleHistory
		historyErr error
		reg        *source.RegistrationRecord
		regErr     error
	)

	g, gctx := errgroup.WithContext(ctx)
	if wantHistory {
		g.Go(func() error {
			start := time.Now()
			history, historyErr = s.history.Lookup(gctx, vrm)
			s.metrics.ObserveFetch(string(source.NameTestHistory), time.Since(start).Seconds())
			return nil
		})
	}
	g.Go(func() error {
		start := time.Now()
		reg, regErr = s.reg.Lookup(gctx, vrm)
		s.metrics.ObserveFetch(string(source.NameRegistration), time.Since(start).Seconds())
		return nil
	})
	_ = g.Wait()

	if historyErr != nil {
		s.metrics.ObserveSourceError(string(source.NameTestHistory), string(source.CategoryOf(historyErr)))
	}
	if regErr != nil {
		s.metrics.ObserveSourceError(string(source.NameRegistration), string(source.CategoryOf(regErr)))
	}
	return history, historyErr, reg, regErr
}

func (s *Service) applyTestDue(ctx context.Context, a *asset.Asset, cat *category.Category, res Resolution, historyErr error) error {
	if historyErr != nil {
		// The registration fallback only applies when the history source
		// answered "no passed test"; a failed fetch is not that answer. Keep
		// the prior value, whatever the registration source said.
		if err := s.ledger.MarkSyncError(ctx, a.ID, cat.ID, historyErr.Error()); err != nil {
			return err
		}
		return translate(historyErr)
	}
	if res.DueDate == nil {
		// Sources answered but had nothing. Unknown is the honest state.
		return nil
	}

	comment := fmt.Sprintf("synced from %s source", res.Winner)
	if res.FirstDue {
		comment = "first test due date " + comment
	}
	_, err := s.ledger.Apply(ctx, ledger.FactChange{
		AssetID:    a.ID,
		CategoryID: cat.ID,
		FieldName:  fieldTestDue,
		Value:      threshold.DateValue(*res.DueDate),
		FirstDue:   res.FirstDue,
		Comment:    comment,
		Actor:      domain.SystemActor(actorTestSync),
		MarkSynced: true,
	})
	return err
}

func (s *Service) applyTaxDue(ctx context.Context, a *asset.Asset, cat *category.Category, reg *source.RegistrationRecord, regErr error) error {
	if reg == nil || reg.TaxDueDate == nil {
		if regErr != nil {
			if err := s.ledger.MarkSyncError(ctx, a.ID, cat.ID, regErr.Error()); err != nil {
				return err
			}
			return translate(regErr)
		}
		return nil
	}

	_, err := s.ledger.Apply(ctx, ledger.FactChange{
		AssetID:    a.ID,
		CategoryID: cat.ID,
		FieldName:  fieldTaxDue,
		Value:      threshold.DateValue(*reg.TaxDueDate),
		Comment:    "synced from registration source",
		Actor:      domain.SystemActor(actorTaxSync),
		MarkSynced: true,
	})
	return err
}

func (s *Service) markAll(ctx context.Context, assetID domain.AssetID, cats []*category.Category, detail string) {
	for _, cat := range cats {
		if err := s.ledger.MarkSyncError(ctx, assetID, cat.ID, detail); err != nil {
			s.logger.ErrorContext(ctx, "failed to record sync error",
				"asset_id", assetID,
				"category_id", cat.ID,
				"error", err,
			)
		}
	}
}

func firstSourceErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return errors.New("source fetch failed")
}

// translate maps the source failure taxonomy onto the engine's error codes.
// No transport-level error crosses this boundary.
func translate(err error) error {
	switch source.CategoryOf(err) {
	case source.ErrorAuthentication:
		return dErrors.Wrap(err, dErrors.CodeAuthenticationFailure, "external source authentication failed")
	case source.ErrorRateLimited:
		return dErrors.Wrap(err, dErrors.CodeRateLimited, "external source rate limited")
	case source.ErrorTimeout, source.ErrorOutage, source.ErrorBadData:
		return dErrors.Wrap(err, dErrors.CodeSourceUnavailable, "external source unavailable")
	default:
		return err
	}
}
