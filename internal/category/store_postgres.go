package category

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
	"fleetworks/pkg/platform/tx"
)

// PostgresStore persists categories. AppliesTo and Fields are stored as
// jsonb so the schema follows the configuration-as-data shape.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type fieldSpecRow struct {
	FieldName string `json:"field_name"`
	Label     string `json:"label"`
	ValueType string `json:"value_type"`
	Required  bool   `json:"required"`
	HelpText  string `json:"help_text,omitempty"`
}

func (s *PostgresStore) Save(ctx context.Context, c *Category) error {
	if err := c.Validate(); err != nil {
		return err
	}

	appliesTo, err := json.Marshal(c.AppliesTo)
	if err != nil {
		return fmt.Errorf("marshal applies_to: %w", err)
	}
	fields := make([]fieldSpecRow, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, fieldSpecRow{
			FieldName: f.FieldName,
			Label:     f.Label,
			ValueType: string(f.ValueType),
			Required:  f.Required,
			HelpText:  f.HelpText,
		})
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal completion fields: %w", err)
	}

	query := `
		INSERT INTO maintenance_categories (
			id, name, threshold_type, applies_to, responsibility,
			visible, remind_in_app, remind_email, source, fields, active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			threshold_type = EXCLUDED.threshold_type,
			applies_to = EXCLUDED.applies_to,
			responsibility = EXCLUDED.responsibility,
			visible = EXCLUDED.visible,
			remind_in_app = EXCLUDED.remind_in_app,
			remind_email = EXCLUDED.remind_email,
			source = EXCLUDED.source,
			fields = EXCLUDED.fields,
			active = EXCLUDED.active
	`
	_, err = tx.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID),
		c.Name,
		string(c.ThresholdType),
		appliesTo,
		string(c.Responsibility),
		c.Visible,
		c.RemindInApp,
		c.RemindEmail,
		string(c.Source),
		fieldsJSON,
		c.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

const categoryColumns = `
	id, name, threshold_type, applies_to, responsibility,
	visible, remind_in_app, remind_email, source, fields, active
`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CategoryID) (*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM maintenance_categories WHERE id = $1`
	row := tx.Pick(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	c, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListActive(ctx context.Context, class AssetClass) ([]*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM maintenance_categories WHERE active ORDER BY name`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if class != "" && !c.AppliesToClass(class) {
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindBySource(ctx context.Context, source ExternalSource) ([]*Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM maintenance_categories WHERE active AND source = $1 ORDER BY name`
	rows, err := tx.Pick(ctx, s.db).QueryContext(ctx, query, string(source))
	if err != nil {
		return nil, fmt.Errorf("list categories by source: %w", err)
	}
	defer rows.Close()

	var out []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Deactivate(ctx context.Context, id domain.CategoryID) error {
	query := `UPDATE maintenance_categories SET active = false WHERE id = $1`
	res, err := tx.Pick(ctx, s.db).ExecContext(ctx, query, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate category: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*Category, error) {
	var (
		c              Category
		id             uuid.UUID
		thresholdType  string
		responsibility string
		source         string
		appliesTo      []byte
		fieldsJSON     []byte
	)
	err := row.Scan(
		&id,
		&c.Name,
		&thresholdType,
		&appliesTo,
		&responsibility,
		&c.Visible,
		&c.RemindInApp,
		&c.RemindEmail,
		&source,
		&fieldsJSON,
		&c.Active,
	)
	if err != nil {
		return nil, err
	}

	c.ID = domain.CategoryID(id)
	c.ThresholdType = threshold.ThresholdType(thresholdType)
	c.Responsibility = Responsibility(responsibility)
	c.Source = ExternalSource(source)

	if err := json.Unmarshal(appliesTo, &c.AppliesTo); err != nil {
		return nil, fmt.Errorf("unmarshal applies_to: %w", err)
	}
	var fields []fieldSpecRow
	if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal completion fields: %w", err)
	}
	for _, f := range fields {
		c.Fields = append(c.Fields, CompletionFieldSpec{
			FieldName: f.FieldName,
			Label:     f.Label,
			ValueType: threshold.ValueType(f.ValueType),
			Required:  f.Required,
			HelpText:  f.HelpText,
		})
	}
	return &c, nil
}
