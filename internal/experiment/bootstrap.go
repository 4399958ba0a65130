// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package experiment

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/modelgate/internal/errs"
)

// Bootstrap defaults. DefaultBootstrapSeed is part of the public contract:
// two analyses of the same samples with default options produce identical
// intervals.
const (
	DefaultResamples     = 10000
	DefaultCILevel       = 0.95
	DefaultBootstrapSeed = 42

	// ctxCheckInterval is how many resamples run between context checks.
	ctxCheckInterval = 1024
)

// BootstrapOptions configures BootstrapCI. The zero value selects the
// documented defaults.
type BootstrapOptions struct {
	// MetricFn computes the per-group metric. Default: mean.
	MetricFn func([]float64) float64

	// Resamples is the bootstrap iteration count. Default: 10000.
	Resamples int

	// CILevel is the confidence level. Default: 0.95.
	CILevel float64

	// Seed seeds the resampling RNG. Default: 42.
	Seed int64
}

// BootstrapCI estimates a percentile-method confidence interval for the
// difference in a metric between two sample groups (B minus A).
//
// Each iteration resamples both groups with replacement to their own
// original sizes and records metric(B*) - metric(A*). The interval is
// read off the empirical percentiles of the recorded deltas, without
// assuming normality.
//
// BootstrapCI is CPU-bound; with large resample counts callers should
// bound it with a context deadline. Cancellation is checked periodically
// and returns ctx.Err() wrapped.
//
// Returns errs.ErrInvalidInput on empty input.
func BootstrapCI(ctx context.Context, samplesA, samplesB []float64, opts BootstrapOptions) (BootstrapResult, error) {
	if len(samplesA) == 0 || len(samplesB) == 0 {
		return BootstrapResult{}, errs.InvalidInputf("cannot bootstrap with empty samples")
	}

	metricFn := opts.MetricFn
	if metricFn == nil {
		metricFn = func(xs []float64) float64 { return stat.Mean(xs, nil) }
	}
	resamples := opts.Resamples
	if resamples <= 0 {
		resamples = DefaultResamples
	}
	ciLevel := opts.CILevel
	if ciLevel <= 0 || ciLevel >= 1 {
		ciLevel = DefaultCILevel
	}
	seed := opts.Seed
	if seed == 0 {
		seed = DefaultBootstrapSeed
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducibility matters here, not crypto strength

	deltas := make([]float64, 0, resamples)
	bufA := make([]float64, len(samplesA))
	bufB := make([]float64, len(samplesB))

	for i := 0; i < resamples; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return BootstrapResult{}, errs.InvalidInputf("bootstrap canceled after %d resamples: %v", i, err)
			}
		}

		resample(rng, samplesA, bufA)
		resample(rng, samplesB, bufB)
		deltas = append(deltas, metricFn(bufB)-metricFn(bufA))
	}

	deltaMean := stat.Mean(deltas, nil)

	sort.Float64s(deltas)
	alpha := 1 - ciLevel

	return BootstrapResult{
		DeltaMean: deltaMean,
		CILower:   percentile(deltas, 100*alpha/2),
		CIUpper:   percentile(deltas, 100*(1-alpha/2)),
		CILevel:   ciLevel,
		Resamples: resamples,
	}, nil
}

// resample fills dst with len(dst) draws from src with replacement.
func resample(rng *rand.Rand, src, dst []float64) {
	for i := range dst {
		dst[i] = src[rng.Intn(len(src))]
	}
}

// percentile returns the p-th percentile (0-100) of sorted data using
// linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
