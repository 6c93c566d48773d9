package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fleetworks/internal/category"
	"fleetworks/internal/ledger"
	"fleetworks/internal/task"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/requestcontext"
)

// CategoryStore is the category read surface the processor needs.
type CategoryStore interface {
	FindByID(ctx context.Context, id domain.CategoryID) (*category.Category, error)
}

// TaskStore persists the task transition alongside the fact writes.
type TaskStore interface {
	Save(ctx context.Context, t *task.Task) error
	FindByID(ctx context.Context, id domain.TaskID) (*task.Task, error)
}

// Ledger is the write surface. ApplyInTx runs inside the transaction opened
// by RunInTx, so the task transition and every fact write land together.
type Ledger interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	ApplyInTx(ctx context.Context, change ledger.FactChange) (*ledger.Fact, error)
}

// Service applies completion feedback: validate everything, then apply
// everything, or apply nothing.
type Service struct {
	tasks      TaskStore
	categories CategoryStore
	ledger     Ledger
	logger     *slog.Logger
}

func NewService(tasks TaskStore, categories CategoryStore, ldg Ledger, logger *slog.Logger) (*Service, error) {
	if tasks == nil || categories == nil || ldg == nil {
		return nil, errors.New("task store, category store, and ledger are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tasks: tasks, categories: categories, ledger: ldg, logger: logger}, nil
}

// Complete validates the submitted fields against the task's category, then
// applies the task transition and all fact writes in one transaction. Any
// invalid field blocks the whole operation; the error names every offender.
func (s *Service) Complete(ctx context.Context, taskID domain.TaskID, req Request) (*Result, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "completion requires an authenticated actor")
	}

	t, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if t.Status == task.StatusCompleted {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "task is already completed")
	}

	var fields []validatedField
	if len(req.Updates) > 0 {
		cat, err := s.categories.FindByID(ctx, t.CategoryID)
		if err != nil {
			return nil, err
		}
		fields, err = validateFields(cat, req.Updates)
		if err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	result := &Result{}

	err = s.ledger.RunInTx(ctx, func(ctx context.Context) error {
		for _, f := range fields {
			fact, err := s.ledger.ApplyInTx(ctx, ledger.FactChange{
				AssetID:    t.AssetID,
				CategoryID: t.CategoryID,
				FieldName:  f.fieldName,
				Value:      f.value,
				Comment:    fmt.Sprintf("completion of task %q", t.Title),
				Actor:      actor,
			})
			if err != nil {
				return err
			}
			result.Facts = append(result.Facts, fact)
		}

		if req.MarkComplete {
			t.Status = task.StatusCompleted
			t.CompletedAt = &now
			t.CompletedBy = actor.Name
			if err := s.tasks.Save(ctx, t); err != nil {
				return fmt.Errorf("save task transition: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Task = t
	s.logger.InfoContext(ctx, "task completion applied",
		"task_id", t.ID,
		"asset_id", t.AssetID,
		"fields", len(result.Facts),
		"marked_complete", req.MarkComplete,
	)
	return result, nil
}
