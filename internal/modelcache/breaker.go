// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package modelcache

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/modelgate/internal/artifact"
	"github.com/tomtom215/modelgate/internal/errs"
	"github.com/tomtom215/modelgate/internal/logging"
	"github.com/tomtom215/modelgate/internal/metrics"
)

// BreakerStore wraps an artifact.Store with a circuit breaker so a
// flapping registry backend cannot stall every Switch call behind slow
// I/O. NotFound is a client mistake, not a backend failure, and does not
// count against the breaker.
//
// The breaker uses real time for its interval and timeout; this governs
// recovery behavior, not data integrity. Tests exercise the wrapped
// store directly.
type BreakerStore struct {
	inner artifact.Store
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewBreakerStore wraps store with a circuit breaker. The breaker opens
// after a 60% failure rate over at least 5 requests and probes again
// after 30 seconds.
func NewBreakerStore(store artifact.Store) *BreakerStore {
	const cbName = "artifact-store"

	metrics.BreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},

		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errs.ErrNotFound)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", stateLabel(from)).
				Str("to", stateLabel(to)).
				Msg("artifact store circuit breaker state change")

			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.BreakerTransitions.WithLabelValues(name, stateLabel(from), stateLabel(to)).Inc()
		},
	})

	return &BreakerStore{inner: store, cb: cb, name: cbName}
}

// ListVersions implements artifact.Store.
func (b *BreakerStore) ListVersions(ctx context.Context) ([]string, error) {
	v, err := b.execute(func() (any, error) {
		return b.inner.ListVersions(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// LoadMeta implements artifact.Store.
func (b *BreakerStore) LoadMeta(ctx context.Context, name, version string) (artifact.Meta, error) {
	v, err := b.execute(func() (any, error) {
		return b.inner.LoadMeta(ctx, name, version)
	})
	if err != nil {
		return artifact.Meta{}, err
	}
	return v.(artifact.Meta), nil
}

// LoadScorer implements artifact.Store.
func (b *BreakerStore) LoadScorer(ctx context.Context, name, version string) (artifact.Scorer, error) {
	v, err := b.execute(func() (any, error) {
		return b.inner.LoadScorer(ctx, name, version)
	})
	if err != nil {
		return nil, err
	}
	return v.(artifact.Scorer), nil
}

// execute routes a store call through the breaker, mapping an open
// circuit to ErrUnavailable so callers see a recoverable kind.
func (b *BreakerStore) execute(fn func() (any, error)) (any, error) {
	v, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, errs.Unavailablef("artifact store circuit open")
		}
		return nil, err
	}
	return v, nil
}

func stateLabel(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half_open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
