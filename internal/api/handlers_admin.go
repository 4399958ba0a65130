// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/modelgate/internal/controlplane"
	"github.com/tomtom215/modelgate/internal/experiment"
	"github.com/tomtom215/modelgate/internal/models"
)

// switchRequest is the payload for POST /api/v1/admin/switch.
type switchRequest struct {
	Version string `json:"version"`
}

// switchResponse reports the audit trail of a switch.
type switchResponse struct {
	Version         string `json:"version"`
	PreviousVersion string `json:"previous_version"`
	Meta            any    `json:"meta"`
}

// AdminSwitch handles POST /api/v1/admin/switch.
// Loads the requested version and publishes it as active. A failed
// switch leaves the previous version fully serving.
func (h *Handler) AdminSwitch(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}
	if req.Version == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "version is required", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	previous, meta, err := h.facade.AdminSwitch(ctx, req.Version)
	if err != nil {
		respondKindError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: switchResponse{
			Version:         req.Version,
			PreviousVersion: previous,
			Meta:            meta,
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetRollout handles GET /api/v1/admin/rollout.
func (h *Handler) GetRollout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     h.facade.Rollout(),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// UpdateRollout handles PUT /api/v1/admin/rollout.
// Accepts a partial update; omitted fields keep their current values.
func (h *Handler) UpdateRollout(w http.ResponseWriter, r *http.Request) {
	var update controlplane.RolloutUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
		return
	}

	if err := h.facade.AdminUpdateRollout(update); err != nil {
		respondKindError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     h.facade.Rollout(),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// analyzeRequest optionally carries explicit window counters. When the
// body is empty the live counters accumulated by the facade are used.
type analyzeRequest struct {
	SuccessesA *int `json:"successes_a,omitempty"`
	TrialsA    *int `json:"trials_a,omitempty"`
	SuccessesB *int `json:"successes_b,omitempty"`
	TrialsB    *int `json:"trials_b,omitempty"`
}

// Analyze handles POST /api/v1/admin/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	snap := h.facade.Counters()

	if r.ContentLength > 0 {
		var req analyzeRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", err)
			return
		}
		if req.SuccessesA != nil && req.TrialsA != nil && req.SuccessesB != nil && req.TrialsB != nil {
			snap = experiment.CountersSnapshot{
				A: experiment.VariantSnapshot{Requests: int64(*req.TrialsA), Successes: int64(*req.SuccessesA)},
				B: experiment.VariantSnapshot{Requests: int64(*req.TrialsB), Successes: int64(*req.SuccessesB)},
			}
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	report, err := h.facade.Analyze(ctx, snap)
	if err != nil {
		respondKindError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     report,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// GetCounters handles GET /api/v1/admin/counters.
func (h *Handler) GetCounters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     h.facade.Counters(),
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// ResetCounters handles POST /api/v1/admin/counters/reset.
func (h *Handler) ResetCounters(w http.ResponseWriter, r *http.Request) {
	h.facade.ResetCounters()
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     map[string]string{"status": "reset"},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
