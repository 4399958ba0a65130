// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package models defines shared API response envelopes.
package models

import "time"

// APIResponse is the standard response envelope for all endpoints.
//
// Example success:
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2026-08-31T12:00:00Z", "request_id": "..."}
//	}
//
// Example error:
//
//	{
//	  "status": "error",
//	  "error": {"code": "MODEL_NOT_FOUND", "message": "version v9 not found"},
//	  "metadata": {"timestamp": "2026-08-31T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`

	// RequestID is the provenance request identifier, echoed so clients
	// can retrieve the full decision trace later.
	RequestID string `json:"request_id,omitempty"`

	// LatencyMS is the server-side handling time in milliseconds.
	LatencyMS int64 `json:"latency_ms,omitempty"`
}

// APIError represents a structured error response.
//
// Common codes: VALIDATION_ERROR, MODEL_NOT_FOUND, MODEL_UNAVAILABLE,
// SCORING_ERROR, TRACE_NOT_FOUND, RATE_LIMIT_EXCEEDED.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
