// Package asset carries the slice of the fleet record the engine needs:
// identity, class, and the latest meter readings classification runs against.
package asset

import (
	"context"
	"time"

	"fleetworks/internal/category"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "asset not found")

// Reading is one captured meter value with its capture time. A nil reading
// means the engine has nothing on file and mileage/hours categories classify
// as unknown.
type Reading struct {
	Value  int64
	ReadAt time.Time
}

// Asset is a fleet vehicle or item of plant.
type Asset struct {
	ID           domain.AssetID
	Registration domain.VRM
	Class        category.AssetClass
	Make         string
	Model        string
	Odometer     *Reading
	HourMeter    *Reading
}

// MeterFor returns the reading a threshold type compares against, or nil
// when none is on file.
func (a *Asset) MeterFor(needsHours bool) *Reading {
	if needsHours {
		return a.HourMeter
	}
	return a.Odometer
}

// Store persists assets.
type Store interface {
	Save(ctx context.Context, a *Asset) error
	FindByID(ctx context.Context, id domain.AssetID) (*Asset, error)
	FindByRegistration(ctx context.Context, vrm domain.VRM) (*Asset, error)
	List(ctx context.Context) ([]*Asset, error)
}
