//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Schema is the full DDL applied to a fresh integration database.
const Schema = `
CREATE TABLE IF NOT EXISTS assets (
	id            uuid PRIMARY KEY,
	registration  text NOT NULL UNIQUE,
	class         text NOT NULL,
	make          text NOT NULL DEFAULT '',
	model         text NOT NULL DEFAULT '',
	odometer      bigint,
	odometer_at   timestamptz,
	hour_meter    bigint,
	hour_meter_at timestamptz
);

CREATE TABLE IF NOT EXISTS maintenance_categories (
	id             uuid PRIMARY KEY,
	name           text NOT NULL,
	threshold_type text NOT NULL,
	applies_to     jsonb NOT NULL,
	responsibility text NOT NULL,
	visible        boolean NOT NULL DEFAULT true,
	remind_in_app  boolean NOT NULL DEFAULT false,
	remind_email   boolean NOT NULL DEFAULT false,
	source         text NOT NULL DEFAULT '',
	fields         jsonb NOT NULL DEFAULT '[]',
	active         boolean NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS workshop_tasks (
	id           uuid PRIMARY KEY,
	asset_id     uuid NOT NULL,
	category_id  uuid NOT NULL,
	title        text NOT NULL,
	status       text NOT NULL,
	completed_at timestamptz,
	completed_by text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS maintenance_facts (
	asset_id    uuid NOT NULL,
	category_id uuid NOT NULL,
	field_name  text NOT NULL,
	value_type  text,
	value       text,
	first_due   boolean NOT NULL DEFAULT false,
	updated_at  timestamptz NOT NULL,
	sync_status text NOT NULL DEFAULT 'never',
	sync_at     timestamptz,
	sync_detail text NOT NULL DEFAULT '',
	PRIMARY KEY (asset_id, category_id)
);

CREATE TABLE IF NOT EXISTS maintenance_history (
	id         bigserial PRIMARY KEY,
	asset_id   uuid NOT NULL,
	field_name text NOT NULL,
	value_type text NOT NULL,
	old_value  text,
	new_value  text NOT NULL,
	comment    text NOT NULL,
	actor      text NOT NULL,
	created_at timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS maintenance_history_asset_field
	ON maintenance_history (asset_id, field_name, id DESC);
`

// PostgresContainer wraps a testcontainers Postgres instance with the schema
// already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("fleetworks_test"),
		tcpostgres.WithUsername("fleetworks"),
		tcpostgres.WithPassword("fleetworks"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	stmt := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, stmt)
	return err
}
