// Package task carries the thin slice of workshop tasks the completion
// feedback processor needs: the open/completed transition and its
// attribution. Task taxonomy, comments, and scheduling live elsewhere.
package task

import (
	"context"
	"time"

	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
)

var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "task not found")

type Status string

const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
)

// Task is a workshop job attached to an asset, optionally linked to the
// maintenance category whose completion fields it collects.
type Task struct {
	ID          domain.TaskID     `json:"id"`
	AssetID     domain.AssetID    `json:"asset_id"`
	CategoryID  domain.CategoryID `json:"category_id"`
	Title       string            `json:"title"`
	Status      Status            `json:"status"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CompletedBy string            `json:"completed_by,omitempty"`
}

// Store persists workshop tasks.
type Store interface {
	Save(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id domain.TaskID) (*Task, error)
}
