// Package handler exposes on-demand reconciliation over HTTP. The scheduled
// sweep covers the fleet; this endpoint covers "the office is on the phone
// about one van right now".
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/platform/httputil"
	"fleetworks/pkg/requestcontext"
)

// Service defines the reconciliation operations the handler needs.
type Service interface {
	SyncAsset(ctx context.Context, assetID domain.AssetID) error
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

// Register mounts reconciliation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/assets/{assetID}/sync", h.HandleSyncAsset)
}

// HandleSyncAsset handles POST /assets/{assetID}/sync requests.
func (h *Handler) HandleSyncAsset(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.SyncAsset(ctx, assetID); err != nil {
		h.logger.WarnContext(ctx, "on-demand sync failed",
			"request_id", requestID,
			"asset_id", assetID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}
