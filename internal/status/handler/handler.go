// Package handler exposes compliance reads over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetworks/internal/status"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/platform/httputil"
	"fleetworks/pkg/requestcontext"
)

// Service defines the compliance read operations the handler needs.
type Service interface {
	ForAsset(ctx context.Context, assetID domain.AssetID) (*status.AssetCompliance, error)
}

// Handler wires compliance endpoints to the status service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a compliance handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts compliance endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/assets/{assetID}/compliance", h.HandleAssetCompliance)
}

// HandleAssetCompliance handles GET /assets/{assetID}/compliance requests.
func (h *Handler) HandleAssetCompliance(w http.ResponseWriter, r *http.Request) {
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

	out, err := h.service.ForAsset(ctx, assetID)
	if err != nil {
		h.logger.ErrorContext(ctx, "asset compliance read failed",
			"request_id", requestID,
			"asset_id", assetID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, out)
}
