// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package experiment provides the statistical machinery for A/B rollout
// analysis: a two-proportion z-test, bootstrap confidence intervals,
// power-analysis sample sizing, and the ship/no-ship decision policy.
package experiment

// ProportionTestResult holds the outcome of a two-proportion z-test.
type ProportionTestResult struct {
	// ZStatistic is delta over the pooled standard error.
	ZStatistic float64 `json:"z_statistic"`

	// PValue is the two-tailed p-value under the standard normal.
	PValue float64 `json:"p_value"`

	// CILower and CIUpper bound the confidence interval for delta,
	// computed with the unpooled standard error.
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`

	// Delta is variant B rate minus variant A rate.
	Delta float64 `json:"delta"`

	// VariantARate and VariantBRate are the observed success rates.
	VariantARate float64 `json:"variant_a_rate"`
	VariantBRate float64 `json:"variant_b_rate"`

	// SampleSizeA and SampleSizeB are the per-variant trial counts.
	SampleSizeA int `json:"sample_size_a"`
	SampleSizeB int `json:"sample_size_b"`

	// Significant reports whether PValue < alpha.
	Significant bool `json:"significant"`
}

// BootstrapResult holds a percentile-method bootstrap confidence interval
// for the difference of a metric between two sample groups.
type BootstrapResult struct {
	// DeltaMean is the mean of the resampled metric deltas (B minus A).
	DeltaMean float64 `json:"delta_mean"`

	// CILower and CIUpper are the empirical percentile bounds.
	CILower float64 `json:"ci_lower"`
	CIUpper float64 `json:"ci_upper"`

	// CILevel is the configured confidence level, e.g. 0.95.
	CILevel float64 `json:"ci_level"`

	// Resamples is the number of bootstrap iterations performed.
	Resamples int `json:"resamples"`
}

// Decision is the outcome of an experiment analysis.
type Decision int

const (
	// DecisionInconclusive means the sample is too small to decide.
	DecisionInconclusive Decision = iota
	// DecisionNoDifference means no significant or practical difference.
	DecisionNoDifference
	// DecisionShipVariantA means variant A is significantly better.
	DecisionShipVariantA
	// DecisionShipVariantB means variant B is significantly better.
	DecisionShipVariantB
)

// String returns the wire name of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionInconclusive:
		return "inconclusive"
	case DecisionNoDifference:
		return "no_difference"
	case DecisionShipVariantA:
		return "ship_variant_a"
	case DecisionShipVariantB:
		return "ship_variant_b"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so decisions serialize
// as their wire names.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// AnalysisReport is the combined output of AnalyzeExperiment.
type AnalysisReport struct {
	// Metric names the success metric under test.
	Metric string `json:"metric"`

	// Test identifies the statistical test used.
	Test string `json:"test"`

	// Result holds the raw test statistics.
	Result ProportionTestResult `json:"results"`

	// Decision is the ship/no-ship recommendation.
	Decision Decision `json:"decision"`

	// Rationale is a human-readable explanation of the decision.
	Rationale string `json:"recommendation"`
}
