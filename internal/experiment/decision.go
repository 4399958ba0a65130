// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package experiment

import "fmt"

// Decision defaults used when callers pass zero values.
const (
	DefaultMinEffect     = 0.01
	DefaultMinSampleSize = 1000
)

// Decide turns a test result into a ship/no-ship decision.
//
// The checks run in order and the first match wins:
//  1. either sample below minSampleSize    -> inconclusive
//  2. not statistically significant        -> no difference
//  3. |delta| below minEffect              -> no difference (not practical)
//  4. delta > 0 -> ship B, otherwise ship A
//
// The sample-size check deliberately short-circuits: a significant result
// on an undersized sample is still inconclusive.
func Decide(result ProportionTestResult, minEffect float64, minSampleSize int) (Decision, string) {
	if minEffect <= 0 {
		minEffect = DefaultMinEffect
	}
	if minSampleSize <= 0 {
		minSampleSize = DefaultMinSampleSize
	}

	if result.SampleSizeA < minSampleSize || result.SampleSizeB < minSampleSize {
		return DecisionInconclusive, fmt.Sprintf(
			"Insufficient sample size (need >=%d per variant). Continue experiment.", minSampleSize)
	}

	if !result.Significant {
		return DecisionNoDifference, fmt.Sprintf(
			"No statistically significant difference (p=%.4f). Safe to ship either variant or choose based on other criteria.",
			result.PValue)
	}

	if abs(result.Delta) < minEffect {
		return DecisionNoDifference, fmt.Sprintf(
			"Statistically significant but effect size too small (%.4f < %g). No practical difference.",
			result.Delta, minEffect)
	}

	if result.Delta > 0 {
		return DecisionShipVariantB, fmt.Sprintf(
			"Variant B is significantly better (+%.4f, p=%.4f). Recommend shipping Variant B.",
			result.Delta, result.PValue)
	}
	return DecisionShipVariantA, fmt.Sprintf(
		"Variant A is significantly better (%.4f, p=%.4f). Keep Variant A.",
		result.Delta, result.PValue)
}

// AnalyzeExperiment runs the z-test and decision policy in one call.
// It carries no state beyond its inputs.
func AnalyzeExperiment(successesA, trialsA, successesB, trialsB int, metricName string) (AnalysisReport, error) {
	if metricName == "" {
		metricName = "conversion_rate"
	}

	result, err := TwoProportionZTest(successesA, trialsA, successesB, trialsB, DefaultAlpha)
	if err != nil {
		return AnalysisReport{}, err
	}

	decision, rationale := Decide(result, DefaultMinEffect, DefaultMinSampleSize)

	return AnalysisReport{
		Metric:    metricName,
		Test:      "two_proportion_z_test",
		Result:    result,
		Decision:  decision,
		Rationale: rationale,
	}, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
