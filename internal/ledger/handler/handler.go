// Package handler exposes the change history over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetworks/internal/ledger"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/platform/httputil"
	"fleetworks/pkg/requestcontext"
)

// Service defines the history read operations the handler needs.
type Service interface {
	History(ctx context.Context, assetID domain.AssetID, fieldName string) ([]*ledger.HistoryEntry, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts history endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/assets/{assetID}/history", h.HandleHistory)
}

// Entry is one history row on the wire.
type Entry struct {
	ID        int64          `json:"id"`
	AssetID   domain.AssetID `json:"asset_id"`
	FieldName string         `json:"field_name"`
	ValueType string         `json:"value_type"`
	OldValue  *string        `json:"old_value"`
	NewValue  string         `json:"new_value"`
	Comment   string         `json:"comment,omitempty"`
	Actor     string         `json:"actor"`
	CreatedAt time.Time      `json:"created_at"`
}

// HandleHistory handles GET /assets/{assetID}/history requests, newest
// first, optionally filtered with ?field=<name>.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	assetID, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.service.History(ctx, assetID, r.URL.Query().Get("field"))
	if err != nil {
		h.logger.ErrorContext(ctx, "history read failed",
			"request_id", requestID,
			"asset_id", assetID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{
			ID:        e.ID,
			AssetID:   e.AssetID,
			FieldName: e.FieldName,
			ValueType: string(e.ValueType),
			OldValue:  e.OldValue,
			NewValue:  e.NewValue,
			Comment:   e.Comment,
			Actor:     e.Actor.String(),
			CreatedAt: e.CreatedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
