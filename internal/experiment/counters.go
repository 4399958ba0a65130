// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package experiment

import (
	"sync"
	"sync/atomic"
)

// DefaultMaxLatencySamples bounds the per-variant latency reservoir.
const DefaultMaxLatencySamples = 10000

// Counters accumulates per-variant experiment observations. Request and
// success counts use atomics so the serving path never contends on a
// lock; latency samples go into a bounded ring guarded by a per-variant
// mutex.
//
// Counters is the read-only input to the analyzer: Snapshot copies the
// current state so analysis never races with accumulation.
type Counters struct {
	a VariantCounters
	b VariantCounters
}

// NewCounters creates counters with the given latency reservoir bound
// per variant. maxLatencySamples <= 0 selects the default.
func NewCounters(maxLatencySamples int) *Counters {
	if maxLatencySamples <= 0 {
		maxLatencySamples = DefaultMaxLatencySamples
	}
	return &Counters{
		a: VariantCounters{latencies: make([]float64, 0, maxLatencySamples), maxSamples: maxLatencySamples},
		b: VariantCounters{latencies: make([]float64, 0, maxLatencySamples), maxSamples: maxLatencySamples},
	}
}

// Record adds one observation for the given variant ("A" or "B").
// Unknown variant labels are ignored; non-experiment traffic carries no
// variant.
func (c *Counters) Record(variant string, success bool, latencySeconds float64) {
	switch variant {
	case "A":
		c.a.record(success, latencySeconds)
	case "B":
		c.b.record(success, latencySeconds)
	}
}

// Reset clears both variants, typically at experiment window boundaries.
func (c *Counters) Reset() {
	c.a.reset()
	c.b.reset()
}

// Snapshot returns a consistent copy of both variants for analysis.
func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		A: c.a.snapshot(),
		B: c.b.snapshot(),
	}
}

// VariantCounters holds one traffic arm's observations.
type VariantCounters struct {
	requests  atomic.Int64
	successes atomic.Int64

	mu         sync.Mutex
	latencies  []float64
	next       int
	maxSamples int
}

func (v *VariantCounters) record(success bool, latencySeconds float64) {
	v.requests.Add(1)
	if success {
		v.successes.Add(1)
	}

	v.mu.Lock()
	if len(v.latencies) < v.maxSamples {
		v.latencies = append(v.latencies, latencySeconds)
	} else {
		// Ring overwrite: oldest sample goes first.
		v.latencies[v.next] = latencySeconds
		v.next = (v.next + 1) % v.maxSamples
	}
	v.mu.Unlock()
}

func (v *VariantCounters) reset() {
	v.requests.Store(0)
	v.successes.Store(0)

	v.mu.Lock()
	v.latencies = v.latencies[:0]
	v.next = 0
	v.mu.Unlock()
}

func (v *VariantCounters) snapshot() VariantSnapshot {
	v.mu.Lock()
	latencies := make([]float64, len(v.latencies))
	copy(latencies, v.latencies)
	v.mu.Unlock()

	return VariantSnapshot{
		Requests:  v.requests.Load(),
		Successes: v.successes.Load(),
		Latencies: latencies,
	}
}

// CountersSnapshot is an immutable copy of both variants.
type CountersSnapshot struct {
	A VariantSnapshot `json:"variant_a"`
	B VariantSnapshot `json:"variant_b"`
}

// VariantSnapshot is an immutable copy of one variant's observations.
type VariantSnapshot struct {
	Requests  int64     `json:"requests"`
	Successes int64     `json:"successes"`
	Latencies []float64 `json:"-"`
}
