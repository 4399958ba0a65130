// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package metrics provides Prometheus instrumentation for the serving
// control plane: request routing, model cache switches, artifact loads,
// circuit breaker state, and trace store occupancy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Serving metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelgate_recommend_requests_total",
			Help: "Total recommendation requests by served version, variant and status",
		},
		[]string{"version", "variant", "status"},
	)

	RecommendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "modelgate_recommend_latency_seconds",
			Help:    "Recommendation request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"version"},
	)

	// Model cache metrics
	ModelSwitches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelgate_model_switches_total",
			Help: "Total model version switches by outcome",
		},
		[]string{"outcome"}, // "success", "not_found", "error"
	)

	ModelLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "modelgate_model_load_duration_seconds",
			Help:    "Duration of model artifact loads in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	ModelsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelgate_models_loaded",
			Help: "Number of model entries currently held in the cache",
		},
	)

	// Circuit breaker metrics (artifact store loads)
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "modelgate_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelgate_circuit_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Trace store metrics
	TraceStoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelgate_trace_store_entries",
			Help: "Current number of provenance trace records held",
		},
	)

	TraceEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "modelgate_trace_evictions_total",
			Help: "Total provenance trace records evicted by the FIFO bound",
		},
	)

	// Registry watch metrics
	RegistryVersions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "modelgate_registry_versions",
			Help: "Number of model versions visible in the artifact registry",
		},
	)

	// Experiment metrics
	ExperimentAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "modelgate_experiment_analyses_total",
			Help: "Total experiment analyses by decision",
		},
		[]string{"decision"},
	)
)
