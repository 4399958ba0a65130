// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package experiment

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tomtom215/modelgate/internal/errs"
)

// DefaultAlpha is the significance level used when callers pass 0.
const DefaultAlpha = 0.05

// stdNormal is the standard normal used for p-values and quantiles.
var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// TwoProportionZTest tests whether the success proportions of two
// variants differ.
//
// H0: pA == pB, H1: pA != pB. The z-statistic uses the pooled proportion
// standard error; the confidence interval for delta uses the unpooled
// standard error with the 1-alpha/2 normal quantile.
//
// Returns errs.ErrInvalidInput if either trial count is zero.
func TwoProportionZTest(successesA, trialsA, successesB, trialsB int, alpha float64) (ProportionTestResult, error) {
	if trialsA == 0 || trialsB == 0 {
		return ProportionTestResult{}, errs.InvalidInputf("cannot test proportions with zero trials")
	}
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	rateA := float64(successesA) / float64(trialsA)
	rateB := float64(successesB) / float64(trialsB)
	delta := rateB - rateA

	// Pooled proportion under the null hypothesis.
	pooled := float64(successesA+successesB) / float64(trialsA+trialsB)
	seNull := math.Sqrt(pooled * (1 - pooled) * (1/float64(trialsA) + 1/float64(trialsB)))

	z := 0.0
	if seNull > 0 {
		z = delta / seNull
	}

	pValue := 2 * (1 - stdNormal.CDF(math.Abs(z)))

	// Unpooled standard error for the CI around delta.
	seDiff := math.Sqrt(rateA*(1-rateA)/float64(trialsA) + rateB*(1-rateB)/float64(trialsB))
	zCrit := stdNormal.Quantile(1 - alpha/2)

	return ProportionTestResult{
		ZStatistic:   z,
		PValue:       pValue,
		CILower:      delta - zCrit*seDiff,
		CIUpper:      delta + zCrit*seDiff,
		Delta:        delta,
		VariantARate: rateA,
		VariantBRate: rateB,
		SampleSizeA:  trialsA,
		SampleSizeB:  trialsB,
		Significant:  pValue < alpha,
	}, nil
}

// SampleSize returns the required per-variant sample size to detect an
// absolute effect of mde over baselineRate at the given significance
// level and power (Fleiss 1981).
func SampleSize(baselineRate, mde, alpha, power float64) int {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	if power <= 0 {
		power = 0.80
	}

	zAlpha := stdNormal.Quantile(1 - alpha/2)
	zBeta := stdNormal.Quantile(power)

	pAvg := baselineRate + mde/2
	numerator := (zAlpha + zBeta) * (zAlpha + zBeta) * 2 * pAvg * (1 - pAvg)

	return int(math.Ceil(numerator / (mde * mde)))
}
