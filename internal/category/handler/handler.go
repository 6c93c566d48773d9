// Package handler exposes category administration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fleetworks/internal/category"
	"fleetworks/internal/threshold"
	"fleetworks/pkg/domain"
	dErrors "fleetworks/pkg/domain-errors"
	"fleetworks/pkg/platform/httputil"
	"fleetworks/pkg/requestcontext"
)

// Service defines the category administration operations the handler needs.
type Service interface {
	List(ctx context.Context, class category.AssetClass) ([]*category.Category, error)
	Get(ctx context.Context, id domain.CategoryID) (*category.Category, error)
	Create(ctx context.Context, c *category.Category) (*category.Category, error)
	Update(ctx context.Context, id domain.CategoryID, c *category.Category) (*category.Category, error)
	Deactivate(ctx context.Context, id domain.CategoryID) error
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

// Register mounts category administration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/categories", h.HandleList)
	r.Post("/categories", h.HandleCreate)
	r.Get("/categories/{categoryID}", h.HandleGet)
	r.Put("/categories/{categoryID}", h.HandleUpdate)
	r.Post("/categories/{categoryID}/deactivate", h.HandleDeactivate)
}

// FieldSpec mirrors category.CompletionFieldSpec on the wire.
type FieldSpec struct {
	FieldName string `json:"field_name"`
	Label     string `json:"label"`
	ValueType string `json:"value_type"`
	Required  bool   `json:"required"`
	HelpText  string `json:"help_text,omitempty"`
}

// Request is the create/update payload.
type Request struct {
	Name           string      `json:"name"`
	ThresholdType  string      `json:"threshold_type"`
	AppliesTo      []string    `json:"applies_to"`
	Responsibility string      `json:"responsibility"`
	Visible        bool        `json:"visible"`
	RemindInApp    bool        `json:"remind_in_app"`
	RemindEmail    bool        `json:"remind_email"`
	Source         string      `json:"source,omitempty"`
	Fields         []FieldSpec `json:"fields,omitempty"`
}

// Response is one category on the wire.
type Response struct {
	ID             domain.CategoryID `json:"id"`
	Name           string            `json:"name"`
	ThresholdType  string            `json:"threshold_type"`
	AppliesTo      []string          `json:"applies_to"`
	Responsibility string            `json:"responsibility"`
	Visible        bool              `json:"visible"`
	RemindInApp    bool              `json:"remind_in_app"`
	RemindEmail    bool              `json:"remind_email"`
	Source         string            `json:"source,omitempty"`
	Fields         []FieldSpec       `json:"fields,omitempty"`
	Active         bool              `json:"active"`
}

func (req Request) toModel() *category.Category {
	classes := make([]category.AssetClass, 0, len(req.AppliesTo))
	for _, c := range req.AppliesTo {
		classes = append(classes, category.AssetClass(c))
	}
	fields := make([]category.CompletionFieldSpec, 0, len(req.Fields))
	for _, f := range req.Fields {
		fields = append(fields, category.CompletionFieldSpec{
			FieldName: f.FieldName,
			Label:     f.Label,
			ValueType: threshold.ValueType(f.ValueType),
			Required:  f.Required,
			HelpText:  f.HelpText,
		})
	}
	return &category.Category{
		Name:           req.Name,
		ThresholdType:  threshold.ThresholdType(req.ThresholdType),
		AppliesTo:      classes,
		Responsibility: category.Responsibility(req.Responsibility),
		Visible:        req.Visible,
		RemindInApp:    req.RemindInApp,
		RemindEmail:    req.RemindEmail,
		Source:         category.ExternalSource(req.Source),
		Fields:         fields,
	}
}

func toResponse(c *category.Category) Response {
	classes := make([]string, 0, len(c.AppliesTo))
	for _, cl := range c.AppliesTo {
		classes = append(classes, string(cl))
	}
	fields := make([]FieldSpec, 0, len(c.Fields))
	for _, f := range c.Fields {
		fields = append(fields, FieldSpec{
			FieldName: f.FieldName,
			Label:     f.Label,
			ValueType: string(f.ValueType),
			Required:  f.Required,
			HelpText:  f.HelpText,
		})
	}
	return Response{
		ID:             c.ID,
		Name:           c.Name,
		ThresholdType:  string(c.ThresholdType),
		AppliesTo:      classes,
		Responsibility: string(c.Responsibility),
		Visible:        c.Visible,
		RemindInApp:    c.RemindInApp,
		RemindEmail:    c.RemindEmail,
		Source:         string(c.Source),
		Fields:         fields,
		Active:         c.Active,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	class := category.AssetClass(r.URL.Query().Get("class"))
	cats, err := h.service.List(ctx, class)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]Response, 0, len(cats))
	for _, c := range cats {
		out = append(out, toResponse(c))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.service.Get(ctx, id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[Request](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, req.toModel())
	if err != nil {
		h.logger.WarnContext(ctx, "category create rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[Request](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Update(ctx, id, req.toModel())
	if err != nil {
		h.logger.WarnContext(ctx, "category update rejected",
			"request_id", requestID,
			"category_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.Actor(ctx).IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	id, err := domain.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Deactivate(ctx, id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
