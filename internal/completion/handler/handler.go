// Package handler exposes task completion over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetworks/internal/completion"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/platform/httputil"
	"fleetworks/pkg/requestcontext"
)

// Service defines the completion operations the handler needs.
type Service interface {
	Complete(ctx context.Context, taskID domain.TaskID, req completion.Request) (*completion.Result, error)
}

// Handler wires completion endpoints to the completion service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a completion handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts completion endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/tasks/{taskID}/complete", h.HandleComplete)
}

// HandleComplete handles POST /tasks/{taskID}/complete requests.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	taskID, err := domain.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[completion.Request](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Complete(ctx, taskID, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "task completion failed",
			"request_id", requestID,
			"task_id", taskID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
