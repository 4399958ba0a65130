// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package api provides the HTTP surface of the control plane. All
// handlers talk only to the ControlPlaneFacade; transport concerns
// (routing, rate limits, request ids) stay out of the core.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/modelgate/internal/controlplane"
	"github.com/tomtom215/modelgate/internal/models"
)

// Handler holds the HTTP handlers for the control plane.
type Handler struct {
	facade         *controlplane.Facade
	requestTimeout time.Duration
}

// NewHandler creates a Handler over the facade.
func NewHandler(facade *controlplane.Facade, requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	return &Handler{facade: facade, requestTimeout: requestTimeout}
}

// recommendResponse is the payload for GET /recommend/{userID}.
type recommendResponse struct {
	UserID  int    `json:"user_id"`
	Model   string `json:"model"`
	Version string `json:"version"`
	Variant string `json:"variant,omitempty"`
	Items   []int  `json:"items"`
}

// Recommend handles GET /api/v1/recommend/{userID}.
// Query parameters: k (item count, default 20), version (explicit pin).
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_USER_ID", "user id must be an integer", err)
		return
	}

	k := 20
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		if parsed, err := strconv.Atoi(kStr); err == nil && parsed > 0 {
			k = parsed
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	items, rec, err := h.facade.Serve(ctx, controlplane.ServeRequest{
		UserID:          userID,
		K:               k,
		ExplicitVersion: r.URL.Query().Get("version"),
		RequestID:       r.Header.Get("X-Request-ID"),
	})
	w.Header().Set("X-Request-ID", rec.RequestID)
	if err != nil {
		respondKindError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: recommendResponse{
			UserID:  userID,
			Model:   rec.ModelName,
			Version: rec.ModelVersion,
			Variant: rec.Variant,
			Items:   items,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: rec.RequestID,
			LatencyMS: rec.LatencyMS,
		},
	})
}

// GetTrace handles GET /api/v1/trace/{requestID}.
func (h *Handler) GetTrace(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")

	rec, found := h.facade.GetTrace(requestID)
	if !found {
		respondError(w, http.StatusNotFound, "TRACE_NOT_FOUND", "no trace for request id", nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     rec,
		Metadata: models.Metadata{Timestamp: time.Now(), RequestID: requestID},
	})
}

// Describe handles GET /api/v1/model.
// Returns the active model's provenance metadata.
func (h *Handler) Describe(w http.ResponseWriter, r *http.Request) {
	meta, err := h.facade.Describe()
	if err != nil {
		respondKindError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     meta,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]string{
			"status":  "ok",
			"version": h.facade.CurrentVersion(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
