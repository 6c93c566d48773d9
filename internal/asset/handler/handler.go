// Package handler exposes the fleet record over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetworks/internal/asset"
	"fleetworks/internal/category"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/platform/httputil"
	"fleetworks/pkg/requestcontext"
)

// Service defines the asset operations the handler needs.
type Service interface {
	List(ctx context.Context) ([]*asset.Asset, error)
	Get(ctx context.Context, id domain.AssetID) (*asset.Asset, error)
	Create(ctx context.Context, registration string, class category.AssetClass, make, model string) (*asset.Asset, error)
	RecordReading(ctx context.Context, id domain.AssetID, meter asset.Meter, value int64) (*asset.Asset, error)
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

// Register mounts asset endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/assets", h.HandleList)
	r.Post("/assets", h.HandleCreate)
	r.Get("/assets/{assetID}", h.HandleGet)
	r.Post("/assets/{assetID}/readings", h.HandleRecordReading)
}

// CreateRequest is the asset registration payload.
type CreateRequest struct {
	Registration string `json:"registration"`
	Class        string `json:"class"`
	Make         string `json:"make"`
	Model        string `json:"model"`
}

// ReadingRequest records one meter value.
type ReadingRequest struct {
	Meter string `json:"meter"`
	Value int64  `json:"value"`
}

// ReadingResponse is one meter reading on the wire.
type ReadingResponse struct {
	Value  int64     `json:"value"`
	ReadAt time.Time `json:"read_at"`
}

// Response is one asset on the wire.
type Response struct {
	ID           domain.AssetID   `json:"id"`
	Registration string           `json:"registration"`
	Class        string           `json:"class"`
	Make         string           `json:"make"`
	Model        string           `json:"model"`
	Odometer     *ReadingResponse `json:"odometer,omitempty"`
	HourMeter    *ReadingResponse `json:"hour_meter,omitempty"`
}

func toResponse(a *asset.Asset) Response {
	out := Response{
		ID:           a.ID,
		Registration: a.Registration.String(),
		Class:        string(a.Class),
		Make:         a.Make,
		Model:        a.Model,
	}
	if a.Odometer != nil {
		out.Odometer = &ReadingResponse{Value: a.Odometer.Value, ReadAt: a.Odometer.ReadAt}
	}
	if a.HourMeter != nil {
		out.HourMeter = &ReadingResponse{Value: a.HourMeter.Value, ReadAt: a.HourMeter.ReadAt}
	}
	return out
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	assets, err := h.service.List(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]Response, 0, len(assets))
	for _, a := range assets {
		out = append(out, toResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	a, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[CreateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	a, err := h.service.Create(ctx, req.Registration, category.AssetClass(req.Class), req.Make, req.Model)
	if err != nil {
		h.logger.WarnContext(ctx, "asset create rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(a))
}

func (h *Handler) HandleRecordReading(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReadingRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	a, err := h.service.RecordReading(ctx, id, asset.Meter(req.Meter), req.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "meter reading rejected",
			"request_id", requestID,
			"asset_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(a))
}
