// Package httpapi assembles the HTTP surface: middleware chain, operational
// endpoints, and every domain handler group. Handlers stay thin; this
// package only wires them together.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fleetworks/internal/platform/metrics"
	"fleetworks/internal/platform/middleware"
)

// Registrar is any handler group that can mount itself on a router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the full router. Everything under the authenticated group
// requires a valid bearer token; /healthz and /metrics do not.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, validator middleware.JWTValidator, groups ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Latency(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(validator, logger))
		for _, g := range groups {
			g.Register(r)
		}
	})

	return r
}
