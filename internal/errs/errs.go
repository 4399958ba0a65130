// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package errs defines the closed set of error kinds used across the
// control plane. Callers match kinds with errors.Is instead of string
// matching, so the HTTP layer can map each kind to a status code and
// operators can tell "never initialized" apart from "model is broken".
package errs

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error produced by the control plane wraps
// exactly one of these.
var (
	// ErrNotFound indicates a requested model version does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnavailable indicates no model is active yet.
	ErrUnavailable = errors.New("unavailable")

	// ErrInvalidInput indicates malformed input to a statistical or
	// configuration operation (zero trials, empty samples, bad strategy).
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an unexpected failure (scorer crash, I/O error).
	ErrInternal = errors.New("internal error")
)

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Unavailablef returns an error wrapping ErrUnavailable.
func Unavailablef(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrUnavailable)
}

// InvalidInputf returns an error wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// Internalf returns an error wrapping ErrInternal.
func Internalf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInternal)
}

// Kind returns a short string label for the error's kind, suitable for
// metrics labels and API error codes. Unwrapped errors report "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}
