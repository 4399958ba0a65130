// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package rollout implements deterministic traffic splitting between model
// versions. Select is a pure function of (config, user ID): no clock, no
// RNG, no hidden state. Replaying the same inputs always yields the same
// routed version, which keeps published experiment results reproducible.
package rollout

import (
	"github.com/tomtom215/modelgate/internal/errs"
)

// Strategy is the traffic-splitting policy.
type Strategy int

const (
	// StrategyFixed sends all traffic to the primary version.
	StrategyFixed Strategy = iota
	// StrategyCanary routes userID%100 < percentage to the canary.
	StrategyCanary
	// StrategyABTest assigns variants by user ID parity:
	// even -> primary (A), odd -> canary (B).
	StrategyABTest
	// StrategyShadow always serves the primary; the canary is evaluated
	// out-of-band and never affects the served response.
	StrategyShadow
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyFixed:
		return "fixed"
	case StrategyCanary:
		return "canary"
	case StrategyABTest:
		return "ab_test"
	case StrategyShadow:
		return "shadow"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a wire name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "fixed":
		return StrategyFixed, nil
	case "canary":
		return StrategyCanary, nil
	case "ab_test":
		return StrategyABTest, nil
	case "shadow":
		return StrategyShadow, nil
	default:
		return StrategyFixed, errs.InvalidInputf("unknown rollout strategy %q", s)
	}
}

// Config is an immutable traffic-splitting policy. Updates replace the
// whole value (copy-on-write); fields are never mutated in place, so
// in-flight Select calls always observe a consistent snapshot.
type Config struct {
	strategy         Strategy
	primaryVersion   string
	canaryVersion    string
	canaryPercentage float64
}

// NewConfig constructs a Config, clamping canaryPercentage to [0,100].
func NewConfig(strategy Strategy, primaryVersion, canaryVersion string, canaryPercentage float64) Config {
	if canaryPercentage < 0 {
		canaryPercentage = 0
	}
	if canaryPercentage > 100 {
		canaryPercentage = 100
	}
	return Config{
		strategy:         strategy,
		primaryVersion:   primaryVersion,
		canaryVersion:    canaryVersion,
		canaryPercentage: canaryPercentage,
	}
}

// Strategy returns the configured strategy.
func (c Config) Strategy() Strategy { return c.strategy }

// PrimaryVersion returns the primary model version.
func (c Config) PrimaryVersion() string { return c.primaryVersion }

// CanaryVersion returns the canary model version, empty if unset.
func (c Config) CanaryVersion() string { return c.canaryVersion }

// CanaryPercentage returns the canary traffic share in [0,100].
func (c Config) CanaryPercentage() float64 { return c.canaryPercentage }

// Select returns the model version that should answer a request from
// userID. It is deterministic: two calls with equal arguments return
// equal results.
//
// A canary or A/B config with no canary version falls back to the
// primary, behaving exactly like the fixed strategy. This mirrors the
// upstream registry behavior and is intentional; callers that want a
// hard failure should validate at update time.
func Select(c Config, userID int) string {
	switch c.strategy {
	case StrategyFixed:
		return c.primaryVersion

	case StrategyCanary:
		if c.canaryVersion == "" {
			return c.primaryVersion
		}
		if bucket(userID, 100) < c.canaryPercentage {
			return c.canaryVersion
		}
		return c.primaryVersion

	case StrategyABTest:
		if c.canaryVersion == "" {
			return c.primaryVersion
		}
		if userID%2 == 0 {
			return c.primaryVersion
		}
		return c.canaryVersion

	case StrategyShadow:
		return c.primaryVersion
	}

	return c.primaryVersion
}

// Variant returns the experiment arm label for userID under an A/B
// config: "A" for even IDs, "B" for odd. Non-A/B strategies have no
// variant and return "".
func Variant(c Config, userID int) string {
	if c.strategy != StrategyABTest || c.canaryVersion == "" {
		return ""
	}
	if userID%2 == 0 {
		return "A"
	}
	return "B"
}

// bucket maps a user ID (including negatives) to [0, mod).
func bucket(userID, mod int) float64 {
	b := userID % mod
	if b < 0 {
		b += mod
	}
	return float64(b)
}

// ToMap exports the config for the admin API.
func (c Config) ToMap() map[string]any {
	return map[string]any{
		"strategy":          c.strategy.String(),
		"primary_version":   c.primaryVersion,
		"canary_version":    c.canaryVersion,
		"canary_percentage": c.canaryPercentage,
	}
}
