package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the worker's operational HTTP surface: liveness and
// readiness probes plus a read-only debug endpoint. Nothing here is meant
// for browsers or end users, so there is no auth or CORS layer.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/debug/videos/{id}", h.GetVideo)

	return r
}
