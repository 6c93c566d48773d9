package asset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleetworks/internal/category"
	"fleetworks/pkg/domain"
	"fleetworks/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, a *Asset) error {
	query := `
		INSERT INTO assets (
			id, registration, class, make, model,
			odometer, odometer_read_at, hour_meter, hour_meter_read_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			registration = EXCLUDED.registration,
			class = EXCLUDED.class,
			make = EXCLUDED.make,
			model = EXCLUDED.model,
			odometer = EXCLUDED.odometer,
			odometer_read_at = EXCLUDED.odometer_read_at,
			hour_meter = EXCLUDED.hour_meter,
			hour_meter_read_at = EXCLUDED.hour_meter_read_at
	`
	var (
		odometer, hourMeter     *int64
		odometerAt, hourMeterAt *time.Time
	)
	if a.Odometer != nil {
		odometer, odometerAt = &a.Odometer.Value, &a.Odometer.ReadAt
	}
	if a.HourMeter != nil {
		hourMeter, hourMeterAt = &a.HourMeter.Value, &a.HourMeter.ReadAt
	}

	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		a.Registration.String(),
		string(a.Class),
		a.Make,
		a.Model,
		odometer,
		odometerAt,
		hourMeter,
		hourMeterAt,
	)
	if err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}
	return nil
}

const assetColumns = `
	id, registration, class, make, model,
	odometer, odometer_read_at, hour_meter, hour_meter_read_at
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AssetID) (*Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	a, err := scanAsset(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find asset: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) FindByRegistration(ctx context.Context, vrm domain.VRM) (*Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE registration = $1`
	a, err := scanAsset(tx.Pick(ctx, s.db).QueryRowContext(ctx, query, vrm.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find asset by registration: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY registration`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*Asset, error) {
	var (
		a                       Asset
		id                      uuid.UUID
		registration, class     string
		odometer, hourMeter     *int64
		odometerAt, hourMeterAt *time.Time
	)
	err := row.Scan(&id, &registration, &class, &a.Make, &a.Model,
		&odometer, &odometerAt, &hourMeter, &hourMeterAt)
	if err != nil {
		return nil, err
	}
	a.ID = domain.AssetID(id)
	a.Registration = domain.VRM(registration)
	a.Class = category.AssetClass(class)
	if odometer != nil && odometerAt != nil {
		a.Odometer = &Reading{Value: *odometer, ReadAt: *odometerAt}
	}
	if hourMeter != nil && hourMeterAt != nil {
		a.HourMeter = &Reading{Value: *hourMeter, ReadAt: *hourMeterAt}
	}
	return &a, nil
}
