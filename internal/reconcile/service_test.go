package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fleetworks/internal/asset"
	"fleetworks/internal/category"
	"fleetworks/internal/ledger"
	"fleetworks/internal/reconcile/source"
	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/requestcontext"
)

// =============================================================================
// Reconciler Service Test Suite
// =============================================================================
// The reconciler owns the only writes driven by fallible external systems.
// These tests pin the precedence policy outcomes, the never-erase-on-failure
// rule, and the error taxonomy crossing the component boundary.

type stubHistory struct {
	history *source.VehicleHistory
	err     error
}

func (s *stubHistory) Lookup(context.Context, domain.VRM) (*source.VehicleHistory, error) {
	return s.history, s.err
}

type stubRegistration struct {
	record *source.RegistrationRecord
	err    error
}

func (s *stubRegistration) Lookup(context.Context, domain.VRM) (*source.RegistrationRecord, error) {
	return s.record, s.err
}

type ReconcileServiceSuite struct {
	suite.Suite
	assets     *asset.InMemoryStore
	categories *category.InMemoryStore
	store      *ledger.InMemoryLedger
	ledger     *ledger.Service
	historySrc *stubHistory
	regSrc     *stubRegistration
	service    *Service
	now        time.Time
	ctx        context.Context

	vehicle *asset.Asset
	motCat  *category.Category
	taxCat  *category.Category
}

func TestReconcileServiceSuite(t *testing.T) {
	suite.Run(t, new(ReconcileServiceSuite))
}

func (s *ReconcileServiceSuite) SetupTest() {
	s.assets = asset.NewInMemoryStore()
	s.categories = category.NewInMemoryStore()
	s.store = ledger.NewInMemoryLedger()
	s.now = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	var err error
	s.ledger, err = ledger.NewService(s.store, s.store, s.store, nil, nil)
	s.Require().NoError(err)

	s.historySrc = &stubHistory{}
	s.regSrc = &stubRegistration{}

	s.service, err = NewService(s.historySrc, s.regSrc, s.categories, s.assets, s.ledger,
		[]domain.VRM{"TESTFIX1"}, nil, nil, nil)
	s.Require().NoError(err)

	s.vehicle = &asset.Asset{
		ID:           domain.AssetID(uuid.New()),
		Registration: "AB12CDE",
		Class:        category.ClassVehicle,
		Make:         "Ford",
		Model:        "Transit",
	}
	s.Require().NoError(s.assets.Save(s.ctx, s.vehicle))

	s.motCat = &category.Category{
		ID:             domain.CategoryID(uuid.New()),
		Name:           "mot",
		ThresholdType:  threshold.ThresholdDate,
		AppliesTo:      []category.AssetClass{category.ClassVehicle},
		Responsibility: category.ResponsibilityOffice,
		Source:         category.SourceTestHistory,
		Active:         true,
	}
	s.Require().NoError(s.categories.Save(s.ctx, s.motCat))

	s.taxCat = &category.Category{
		ID:             domain.CategoryID(uuid.New()),
		Name:           "road tax",
		ThresholdType:  threshold.ThresholdDate,
		AppliesTo:      []category.AssetClass{category.ClassVehicle},
		Responsibility: category.ResponsibilityOffice,
		Source:         category.SourceRegistration,
		Active:         true,
	}
	s.Require().NoError(s.categories.Save(s.ctx, s.taxCat))
}

func (s *ReconcileServiceSuite) findFact(categoryID domain.CategoryID) *ledger.Fact {
	fact, err := s.store.Find(s.ctx, s.vehicle.ID, categoryID)
	s.Require().NoError(err)
	return fact
}

func (s *ReconcileServiceSuite) TestPassedExpiryBecomesFact() {
	expiry := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = &source.VehicleHistory{
		Registration: s.vehicle.Registration,
		Make:         "Ford",
		Tests: []source.TestRecord{
			{CompletedDate: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), Result: source.ResultPassed, ExpiryDate: &expiry},
		},
	}

	s.Require().NoError(s.service.SyncAsset(s.ctx, s.vehicle.ID))

	fact := s.findFact(s.motCat.ID)
	s.Equal("2026-03-09", fact.Value.String())
	s.Equal(ledger.SyncOK, fact.SyncStatus)
	s.False(fact.FirstDue)

	entries, err := s.ledger.History(s.ctx, s.vehicle.ID, "motTestDueDate")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(domain.ActorSystem, entries[0].Actor.Kind)
	s.Equal("mot-sync", entries[0].Actor.Name)
}

func (s *ReconcileServiceSuite) TestFirstTestDueSetsFlag() {
	due := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = &source.VehicleHistory{
		Registration: s.vehicle.Registration,
		FirstTestDue: &due,
	}

	s.Require().NoError(s.service.SyncAsset(s.ctx, s.vehicle.ID))

	fact := s.findFact(s.motCat.ID)
	s.Equal("2025-12-01", fact.Value.String())
	s.True(fact.FirstDue)
}

func (s *ReconcileServiceSuite) TestRegistrationFallbackWidensToMonthEnd() {
	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = &source.VehicleHistory{Registration: s.vehicle.Registration}
	s.regSrc.record = &source.RegistrationRecord{
		Registration:    s.vehicle.Registration,
		FirstRegistered: &first,
	}

	s.Require().NoError(s.service.SyncAsset(s.ctx, s.vehicle.ID))

	fact := s.findFact(s.motCat.ID)
	s.Equal("2024-03-31", fact.Value.String())
}

func (s *ReconcileServiceSuite) TestTaxDueDateWrittenForRegistrationCategory() {
	taxDue := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = &source.VehicleHistory{Registration: s.vehicle.Registration}
	s.regSrc.record = &source.RegistrationRecord{
		Registration: s.vehicle.Registration,
		TaxDueDate:   &taxDue,
	}

	s.Require().NoError(s.service.SyncAsset(s.ctx, s.vehicle.ID))

	fact := s.findFact(s.taxCat.ID)
	s.Equal("2025-11-01", fact.Value.String())

	entries, err := s.ledger.History(s.ctx, s.vehicle.ID, "taxDueDate")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("ves-sync", entries[0].Actor.Name)
}

func (s *ReconcileServiceSuite) TestNoDataWritesNothing() {
	// Sources know the asset but have no dates to offer.
	s.historySrc.history = &source.VehicleHistory{Registration: s.vehicle.Registration}
	s.regSrc.record = &source.RegistrationRecord{Registration: s.vehicle.Registration}

	s.Require().NoError(s.service.SyncAsset(s.ctx, s.vehicle.ID))

	_, err := s.store.Find(s.ctx, s.vehicle.ID, s.motCat.ID)
	s.ErrorIs(err, ledger.ErrFactNotFound)
	entries, err := s.ledger.History(s.ctx, s.vehicle.ID, "")
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ReconcileServiceSuite) TestSourceFailurePreservesPriorFact() {
	// A good sync first.
	expiry := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = &source.VehicleHistory{
		Registration: s.vehicle.Registration,
		Tests: []source.TestRecord{
			{CompletedDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Result: source.ResultPassed, ExpiryDate: &expiry},
		},
	}
	s.regSrc.record = &source.RegistrationRecord{Registration: s.vehicle.Registration}
	s.Require().NoError(s.service.SyncAsset(s.ctx, s.vehicle.ID))

	// Then both sources go dark.
	s.historySrc.history = nil
	s.historySrc.err = source.NewError(source.NameTestHistory, source.ErrorOutage, "upstream 503", nil)
	s.regSrc.record = nil
	s.regSrc.err = source.NewError(source.NameRegistration, source.ErrorTimeout, "deadline exceeded", nil)

	err := s.service.SyncAsset(s.ctx, s.vehicle.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSourceUnavailable))

	fact := s.findFact(s.motCat.ID)
	s.Equal(ledger.SyncError, fact.SyncStatus)
	s.Equal("2026-03-09", fact.Value.String(), "failure degrades confidence, it does not erase data")
}

func (s *ReconcileServiceSuite) TestHistoryFailureBlocksRegistrationFallback() {
	// A good sync from a passed test first.
	expiry := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = &source.VehicleHistory{
		Registration: s.vehicle.Registration,
		Tests: []source.TestRecord{
			{CompletedDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Result: source.ResultPassed, ExpiryDate: &expiry},
		},
	}
	s.regSrc.record = &source.RegistrationRecord{Registration: s.vehicle.Registration}
	s.Require().NoError(s.service.SyncAsset(s.ctx, s.vehicle.ID))

	// History goes dark while registration still answers with a month of
	// first registration. The fallback must not replace the passed-test
	// expiry: "no passed test exists" is unknowable when the source failed.
	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = nil
	s.historySrc.err = source.NewError(source.NameTestHistory, source.ErrorOutage, "upstream 503", nil)
	s.regSrc.record = &source.RegistrationRecord{
		Registration:    s.vehicle.Registration,
		FirstRegistered: &first,
	}

	err := s.service.SyncAsset(s.ctx, s.vehicle.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeSourceUnavailable))

	fact := s.findFact(s.motCat.ID)
	s.Equal("2026-03-09", fact.Value.String(), "failure degrades confidence, it does not erase data")
	s.Equal(ledger.SyncError, fact.SyncStatus)

	entries, err := s.ledger.History(s.ctx, s.vehicle.ID, "motTestDueDate")
	s.Require().NoError(err)
	s.Len(entries, 1, "the failed sync must not write a second history row")
}

func (s *ReconcileServiceSuite) TestAuthenticationFailureSurfacedDistinctly() {
	s.historySrc.err = source.NewError(source.NameTestHistory, source.ErrorAuthentication, "token exchange failed", nil)
	s.regSrc.err = source.NewError(source.NameRegistration, source.ErrorOutage, "upstream 502", nil)

	err := s.service.SyncAsset(s.ctx, s.vehicle.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAuthenticationFailure))
}

func (s *ReconcileServiceSuite) TestRateLimitSurfacedDistinctly() {
	s.historySrc.err = source.NewError(source.NameTestHistory, source.ErrorRateLimited, "429", nil)
	s.regSrc.record = &source.RegistrationRecord{Registration: s.vehicle.Registration}

	err := s.service.SyncAsset(s.ctx, s.vehicle.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRateLimited))
}

func (s *ReconcileServiceSuite) TestUnrecognizedAsset() {
	// Both sources answered definitively: no record anywhere.
	err := s.service.SyncAsset(s.ctx, s.vehicle.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAssetNotRecognized))

	fact := s.findFact(s.motCat.ID)
	s.Equal(ledger.SyncError, fact.SyncStatus)
	s.False(fact.HasValue())
}

func (s *ReconcileServiceSuite) TestFixtureRegistrationNeverRecognized() {
	fixture := &asset.Asset{
		ID:           domain.AssetID(uuid.New()),
		Registration: "TESTFIX1",
		Class:        category.ClassVehicle,
	}
	s.Require().NoError(s.assets.Save(s.ctx, fixture))
	due := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = &source.VehicleHistory{Registration: "TESTFIX1", FirstTestDue: &due}

	err := s.service.SyncAsset(s.ctx, fixture.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAssetNotRecognized))
}

func (s *ReconcileServiceSuite) TestSyncAllCountsFailures() {
	second := &asset.Asset{
		ID:           domain.AssetID(uuid.New()),
		Registration: "CD34EFG",
		Class:        category.ClassVehicle,
	}
	s.Require().NoError(s.assets.Save(s.ctx, second))

	// Every lookup misses: all assets unrecognized.
	result, err := s.service.SyncAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, result.Assets)
	s.Equal(2, result.Failures)
}

func (s *ReconcileServiceSuite) TestRepeatedSyncIsDeterministic() {
	expiry := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	sameStamp := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	otherExpiry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.historySrc.history = &source.VehicleHistory{
		Registration: s.vehicle.Registration,
		Tests: []source.TestRecord{
			{CompletedDate: sameStamp, Result: source.ResultPassed, ExpiryDate: &expiry},
			{CompletedDate: sameStamp, Result: source.ResultPassed, ExpiryDate: &otherExpiry},
		},
	}

	for i := 0; i < 5; i++ {
		s.Require().NoError(s.service.SyncAsset(s.ctx, s.vehicle.ID))
		fact := s.findFact(s.motCat.ID)
		s.Equal("2026-03-09", fact.Value.String(), "tied timestamps keep source order")
	}
}
