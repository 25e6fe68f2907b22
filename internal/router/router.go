// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up the HTTP routes of the dynamic path. Everything
// except the health check falls through to the public page handler, which
// resolves the URL itself.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"staticpress/internal/handlers"
	"staticpress/internal/middleware"
)

// New creates the chi router. budget may be nil.
func New(public *handlers.Public, budget *middleware.RenderBudget) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	// Health check, outside the render budget.
	r.Get("/health", healthHandler)

	// Public pages, rendered on demand.
	r.Group(func(r chi.Router) {
		r.Use(budget.Middleware)
		for _, pattern := range []string{"/", "/*"} {
			r.Get(pattern, public.Serve)
			r.Head(pattern, public.Serve)
		}
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
