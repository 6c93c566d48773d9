package asset

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"fleetworks/internal/category"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/requestcontext"
)

// Meter names which of an asset's meters a reading belongs to.
type Meter string

const (
	MeterOdometer Meter = "odometer"
	MeterHours    Meter = "hours"
)

// Service orchestrates the fleet record: registration, class, and the meter
// readings classification runs against.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("asset store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

func (s *Service) List(ctx context.Context) ([]*Asset, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id domain.AssetID) (*Asset, error) {
	return s.store.FindByID(ctx, id)
}

// Create registers an asset. The registration mark is normalized before
// storage so external-source lookups and duplicates compare consistently.
func (s *Service) Create(ctx context.Context, registration string, class category.AssetClass, make, model string) (*Asset, error) {
	vrm, err := domain.ParseVRM(registration)
	if err != nil {
		return nil, err
	}
	if class != category.ClassVehicle && class != category.ClassPlant {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown asset class: "+string(class))
	}
	if existing, err := s.store.FindByRegistration(ctx, vrm); err == nil && existing != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "registration already in use: "+vrm.String())
	}

	a := &Asset{
		ID:           domain.AssetID(uuid.New()),
		Registration: vrm,
		Class:        class,
		Make:         make,
		Model:        model,
	}
	if err := s.store.Save(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save asset")
	}
	s.logger.InfoContext(ctx, "asset created", "asset_id", a.ID, "registration", a.Registration)
	return a, nil
}

// RecordReading captures a new meter value. Values may only move forward;
// a lower value than the one on file means a typo or a meter swap, and a
// meter swap is an administrative correction, not a reading.
func (s *Service) RecordReading(ctx context.Context, id domain.AssetID, meter Meter, value int64) (*Asset, error) {
	if value < 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reading must not be negative")
	}

	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	reading := &Reading{Value: value, ReadAt: requestcontext.Now(ctx)}
	switch meter {
	case MeterOdometer:
		if a.Odometer != nil && value < a.Odometer.Value {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "odometer reading below current value")
		}
		a.Odometer = reading
	case MeterHours:
		if a.HourMeter != nil && value < a.HourMeter.Value {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "hour-meter reading below current value")
		}
		a.HourMeter = reading
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown meter: "+string(meter))
	}

	if err := s.store.Save(ctx, a); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save asset")
	}
	s.logger.InfoContext(ctx, "meter reading recorded",
		"asset_id", a.ID,
		"meter", meter,
		"value", value,
	)
	return a, nil
}
