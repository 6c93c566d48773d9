package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fleetworks/pkg/domain"
	"fleetworks/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO workshop_tasks (id, asset_id, category_id, title, status, completed_at, completed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			completed_by = EXCLUDED.completed_by
	`
	_, err := tx.Pick(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(t.ID),
		uuid.UUID(t.AssetID),
		uuid.UUID(t.CategoryID),
		t.Title,
		string(t.Status),
		t.CompletedAt,
		t.CompletedBy,
	)
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.TaskID) (*Task, error) {
	query := `
		SELECT id, asset_id, category_id, title, status, completed_at, completed_by
		FROM workshop_tasks
		WHERE id = $1
	`
	var (
		t                           Task
		taskID, assetID, categoryID uuid.UUID
		status                      string
	)
	err := tx.Pick(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)).Scan(
		&taskID, &assetID, &categoryID, &t.Title, &status, &t.CompletedAt, &t.CompletedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	t.ID = domain.TaskID(taskID)
	t.AssetID = domain.AssetID(assetID)
	t.CategoryID = domain.CategoryID(categoryID)
	t.Status = Status(status)
	return &t, nil
}
