// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds transport-level settings for the router.
type RouterConfig struct {
	// AdminRateLimit is the number of admin requests allowed per window.
	AdminRateLimit int

	// AdminRateWindow is the admin rate limiting window.
	AdminRateWindow time.Duration
}

// NewRouter builds the chi router for the control plane API.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.AdminRateLimit <= 0 {
		cfg.AdminRateLimit = 30
	}
	if cfg.AdminRateWindow <= 0 {
		cfg.AdminRateWindow = time.Minute
	}

	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/recommend/{userID}", h.Recommend)
		r.Get("/trace/{requestID}", h.GetTrace)
		r.Get("/model", h.Describe)

		// Admin routes carry a stricter rate limit; switches and
		// analyses are operator actions, not request traffic.
		r.Route("/admin", func(r chi.Router) {
			r.Use(httprate.Limit(
				cfg.AdminRateLimit,
				cfg.AdminRateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
			))

			r.Post("/switch", h.AdminSwitch)
			r.Get("/rollout", h.GetRollout)
			r.Put("/rollout", h.UpdateRollout)
			r.Post("/analyze", h.Analyze)
			r.Get("/counters", h.GetCounters)
			r.Post("/counters/reset", h.ResetCounters)
		})
	})

	return r
}

// requestID ensures every request carries an X-Request-ID, generating
// one when the client did not supply it. The id flows through the facade
// into the provenance store, so the response header is the lookup key
// for GET /api/v1/trace/{requestID}.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
			r.Header.Set("X-Request-ID", id)
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}
