package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
	"fleetworks/pkg/platform/tx"
)

// PostgresFactStore persists the one-row-per-(asset, category) fact table.
// Values are stored in their canonical string encoding next to their type so
// a row round-trips without schema changes per value type.
type PostgresFactStore struct {
	db *sql.DB
}

func NewPostgresFactStore(db *sql.DB) *PostgresFactStore {
	return &PostgresFactStore{db: db}
}

const factColumns = `
	asset_id, category_id, field_name, value_type, value, first_due,
	updated_at, sync_status, sync_at, sync_detail
`

func (s *PostgresFactStore) Find(ctx context.Context, assetID domain.AssetID, categoryID domain.CategoryID) (*Fact, error) {
	query := `SELECT ` + factColumns + ` FROM maintenance_facts WHERE asset_id = $1 AND category_id = $2`
	row := tx.Pick(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(assetID), uuid.UUID(categoryID))
	f, err := scanFact(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFactNotFound
		}
		return nil, fmt.Errorf("find fact: %w", err)
	}
	return f, nil
}

func (s *PostgresFactStore) ListByAsset(ctx context.Context, assetID domain.AssetID) ([]*Fact, error) {
	query := `SELECT ` + factColumns + ` FROM maintenance_facts WHERE asset_id = $1`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, uuid.UUID(assetID))
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	defer rows.Close()

	var out []*Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *PostgresFactStore) Upsert(ctx context.Context, fact *Fact) error {
	var valueType, value *string
	if fact.HasValue() {
		vt := string(fact.Value.Type)
		v := fact.Value.String()
		valueType, value = &vt, &v
	}

	query := `
		INSERT INTO maintenance_facts (
			asset_id, category_id, field_name, value_type, value, first_due,
			updated_at, sync_status, sync_at, sync_detail
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (asset_id, category_id) DO UPDATE SET
			field_name = EXCLUDED.field_name,
			value_type = EXCLUDED.value_type,
			value = EXCLUDED.value,
			first_due = EXCLUDED.first_due,
			updated_at = EXCLUDED.updated_at,
			sync_status = EXCLUDED.sync_status,
			sync_at = EXCLUDED.sync_at,
			sync_detail = EXCLUDED.sync_detail
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(fact.AssetID),
		uuid.UUID(fact.CategoryID),
		fact.FieldName,
		valueType,
		value,
		fact.FirstDue,
		fact.UpdatedAt,
		string(fact.SyncStatus),
		fact.SyncAt,
		fact.SyncDetail,
	)
	if err != nil {
		return fmt.Errorf("upsert fact: %w", err)
	}
	return nil
}

// MarkSyncError records a failed sync without touching the stored value, so
// the last good value keeps driving status while the failure stays visible.
func (s *PostgresFactStore) MarkSyncError(ctx context.Context, assetID domain.AssetID, categoryID domain.CategoryID, detail string, at time.Time) error {
	query := `
		INSERT INTO maintenance_facts (
			asset_id, category_id, field_name, first_due,
			updated_at, sync_status, sync_at, sync_detail
		)
		VALUES ($1, $2, '', false, $3, $4, $3, $5)
		ON CONFLICT (asset_id, category_id) DO UPDATE SET
			sync_status = EXCLUDED.sync_status,
			sync_at = EXCLUDED.sync_at,
			sync_detail = EXCLUDED.sync_detail
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(assetID), uuid.UUID(categoryID), at, string(SyncError), detail)
	if err != nil {
		return fmt.Errorf("mark sync error: %w", err)
	}
	return nil
}

func scanFact(row interface{ Scan(dest ...any) error }) (*Fact, error) {
	var (
		f          Fact
		assetID    uuid.UUID
		categoryID uuid.UUID
		valueType  sql.NullString
		value      sql.NullString
		syncStatus string
	)
	err := row.Scan(
		&assetID,
		&categoryID,
		&f.FieldName,
		&valueType,
		&value,
		&f.FirstDue,
		&f.UpdatedAt,
		&syncStatus,
		&f.SyncAt,
		&f.SyncDetail,
	)
	if err != nil {
		return nil, err
	}

	f.AssetID = domain.AssetID(assetID)
	f.CategoryID = domain.CategoryID(categoryID)
	f.SyncStatus = SyncStatus(syncStatus)
	if valueType.Valid && value.Valid {
		v, err := threshold.ParseValue(threshold.ValueType(valueType.String), value.String)
		if err != nil {
			return nil, fmt.Errorf("decode stored value: %w", err)
		}
		f.Value = v
	}
	return &f, nil
}

// PostgresHistoryStore persists the append-only change log. Rows are never
// updated or deleted.
type PostgresHistoryStore struct {
	db *sql.DB
}

func NewPostgresHistoryStore(db *sql.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

func (s *PostgresHistoryStore) Append(ctx context.Context, entry *HistoryEntry) error {
	query := `
		INSERT INTO maintenance_history (
			asset_id, field_name, value_type, old_value, new_value,
			comment, actor, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(entry.AssetID),
		entry.FieldName,
		string(entry.ValueType),
		entry.OldValue,
		entry.NewValue,
		entry.Comment,
		entry.Actor.String(),
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) List(ctx context.Context, assetID domain.AssetID, fieldName string) ([]*HistoryEntry, error) {
	query := `
		SELECT id, asset_id, field_name, value_type, old_value, new_value,
		       comment, actor, created_at
		FROM maintenance_history
		WHERE asset_id = $1 AND ($2 = '' OR field_name = $2)
		ORDER BY id DESC
	`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, uuid.UUID(assetID), fieldName)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*HistoryEntry
	for rows.Next() {
		var (
			e       HistoryEntry
			assetID uuid.UUID
			vt      string
			actor   string
		)
		err := rows.Scan(&e.ID, &assetID, &e.FieldName, &vt, &e.OldValue,
			&e.NewValue, &e.Comment, &actor, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.AssetID = domain.AssetID(assetID)
		e.ValueType = threshold.ValueType(vt)
		e.Actor = domain.ParseActor(actor)
		out = append(out, &e)
	}
	return out, rows.Err()
}

// PostgresTxRunner opens one SQL transaction, binds it to the context, and
// commits or rolls back around the callback. Calls that already carry a
// transaction join it rather than nesting.
type PostgresTxRunner struct {
	db *sql.DB
}

func NewPostgresTxRunner(db *sql.DB) *PostgresTxRunner {
	return &PostgresTxRunner{db: db}
}

func (r *PostgresTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := tx.From(ctx); ok {
		return fn(ctx)
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
