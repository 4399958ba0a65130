// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/modelgate/internal/errs"
	"github.com/tomtom215/modelgate/internal/logging"
	"github.com/tomtom215/modelgate/internal/models"
)

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError sends a structured error response.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("api error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondKindError maps a control-plane error kind to an HTTP status and
// error code. NotFound and InvalidInput are client errors; Unavailable
// means the plane has no active model yet; everything else is internal.
func respondKindError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		respondError(w, http.StatusNotFound, "MODEL_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, errs.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, errs.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "MODEL_UNAVAILABLE", err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "SCORING_ERROR", "internal error", err)
	}
}

// decodeJSON decodes a request body into v, bounding the body size.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
