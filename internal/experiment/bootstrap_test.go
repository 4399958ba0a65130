// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/modelgate/internal/errs"
)

func constantSamples(v float64, n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = v
	}
	return xs
}

func TestBootstrapCI_ConstantShift(t *testing.T) {
	// Every resample of a constant group has the same mean, so the delta
	// distribution collapses to a point.
	a := constantSamples(1.0, 100)
	b := constantSamples(2.0, 100)

	result, err := BootstrapCI(context.Background(), a, b, BootstrapOptions{Resamples: 1000})
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}

	if math.Abs(result.DeltaMean-1.0) > 1e-12 {
		t.Errorf("DeltaMean = %g, want 1.0", result.DeltaMean)
	}
	if math.Abs(result.CILower-1.0) > 1e-12 || math.Abs(result.CIUpper-1.0) > 1e-12 {
		t.Errorf("CI [%g, %g], want degenerate [1, 1]", result.CILower, result.CIUpper)
	}
	if result.Resamples != 1000 {
		t.Errorf("Resamples = %d, want 1000", result.Resamples)
	}
	if result.CILevel != DefaultCILevel {
		t.Errorf("CILevel = %g, want %g", result.CILevel, DefaultCILevel)
	}
}

func TestBootstrapCI_SeparatedGroups(t *testing.T) {
	// Groups far apart: the interval must exclude zero.
	a := []float64{10, 11, 9, 10.5, 9.5, 10, 11, 10, 9, 10.2}
	b := []float64{20, 21, 19, 20.5, 19.5, 20, 21, 20, 19, 20.2}

	result, err := BootstrapCI(context.Background(), a, b, BootstrapOptions{Resamples: 2000})
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}

	if result.CILower <= 0 {
		t.Errorf("CILower = %g, want > 0 for clearly separated groups", result.CILower)
	}
	if result.DeltaMean < 9 || result.DeltaMean > 11 {
		t.Errorf("DeltaMean = %g, want ~10", result.DeltaMean)
	}
	if result.CIUpper < result.CILower {
		t.Errorf("CI [%g, %g] inverted", result.CILower, result.CIUpper)
	}
}

func TestBootstrapCI_Reproducible(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	b := []float64{2, 3, 4, 5, 6, 7, 8, 9}

	opts := BootstrapOptions{Resamples: 500, Seed: 42}
	first, err := BootstrapCI(context.Background(), a, b, opts)
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}
	second, err := BootstrapCI(context.Background(), a, b, opts)
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}

	if first != second {
		t.Errorf("same seed produced different results:\n%+v\n%+v", first, second)
	}

	// A different seed almost surely moves the interval bounds.
	third, err := BootstrapCI(context.Background(), a, b, BootstrapOptions{Resamples: 500, Seed: 7})
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}
	if first == third {
		t.Error("different seeds produced identical results")
	}
}

func TestBootstrapCI_DefaultSeed(t *testing.T) {
	a := []float64{1, 2, 3, 4, 5}
	b := []float64{3, 4, 5, 6, 7}

	zeroSeed, err := BootstrapCI(context.Background(), a, b, BootstrapOptions{Resamples: 200})
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}
	explicit, err := BootstrapCI(context.Background(), a, b, BootstrapOptions{Resamples: 200, Seed: DefaultBootstrapSeed})
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}
	if zeroSeed != explicit {
		t.Error("zero seed does not behave like the documented default seed")
	}
}

func TestBootstrapCI_EmptySamples(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
	}{
		{name: "empty A", a: nil, b: []float64{1, 2}},
		{name: "empty B", a: []float64{1, 2}, b: nil},
		{name: "both empty", a: nil, b: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BootstrapCI(context.Background(), tt.a, tt.b, BootstrapOptions{})
			if err == nil {
				t.Fatal("BootstrapCI() error = nil, want error")
			}
			if !errors.Is(err, errs.ErrInvalidInput) {
				t.Errorf("error = %v, want invalid input kind", err)
			}
		})
	}
}

func TestBootstrapCI_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := constantSamples(1.0, 50)
	b := constantSamples(2.0, 50)

	_, err := BootstrapCI(ctx, a, b, BootstrapOptions{Resamples: 100000})
	if err == nil {
		t.Fatal("BootstrapCI() with canceled context error = nil, want error")
	}
}

func TestBootstrapCI_CustomMetric(t *testing.T) {
	// Median of constants is as degenerate as the mean.
	a := constantSamples(3.0, 20)
	b := constantSamples(7.0, 20)

	median := func(xs []float64) float64 {
		// Constant input, any element is the median.
		return xs[0]
	}

	result, err := BootstrapCI(context.Background(), a, b, BootstrapOptions{
		MetricFn:  median,
		Resamples: 100,
	})
	if err != nil {
		t.Fatalf("BootstrapCI() error = %v", err)
	}
	if result.DeltaMean != 4.0 {
		t.Errorf("DeltaMean = %g, want 4.0", result.DeltaMean)
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{name: "zeroth", p: 0, want: 1},
		{name: "hundredth", p: 100, want: 5},
		{name: "median", p: 50, want: 3},
		{name: "interpolated", p: 25, want: 2},
		{name: "between ranks", p: 10, want: 1.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := percentile(sorted, tt.p); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("percentile(%g) = %g, want %g", tt.p, got, tt.want)
			}
		})
	}

	t.Run("single element", func(t *testing.T) {
		if got := percentile([]float64{7}, 95); got != 7 {
			t.Errorf("percentile(single, 95) = %g, want 7", got)
		}
	})
}
