// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/epigraphlabs/epigraph/internal/middleware"
)

// NewRouter assembles the route tree with the shared middleware stack.
func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Prometheus)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(h.cfg.Server.RateLimitRequests, h.cfg.Server.RateLimitWindow))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", h.GetRecommendations)
			r.Get("/related", h.GetRelated)
			r.Get("/daily", h.GetDaily)
			r.Get("/books", h.GetBooks)
		})

		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", h.ListQuotes)
			r.Get("/popular", h.PopularQuotes)
			r.Get("/{id}", h.GetQuote)
			r.Post("/materialize", h.MaterializeQuote)
		})

		r.Post("/bookmarks/toggle", h.ToggleBookmark)
	})

	return r
}
