// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package controlplane composes routing, model resolution, experiment
// accounting and provenance tracing behind a single facade. The facade
// owns all mutable serving state; the HTTP layer holds one instance and
// calls plain methods. No package-level mutable state exists anywhere in
// the serving path.
package controlplane

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/modelgate/internal/artifact"
	"github.com/tomtom215/modelgate/internal/config"
	"github.com/tomtom215/modelgate/internal/errs"
	"github.com/tomtom215/modelgate/internal/experiment"
	"github.com/tomtom215/modelgate/internal/metrics"
	"github.com/tomtom215/modelgate/internal/modelcache"
	"github.com/tomtom215/modelgate/internal/provenance"
	"github.com/tomtom215/modelgate/internal/rollout"
	"github.com/tomtom215/modelgate/internal/validation"
)

// Facade is the single entry point for the serving control plane.
type Facade struct {
	cache    *modelcache.Cache
	tracer   *provenance.Tracer
	counters *experiment.Counters
	logger   zerolog.Logger

	// rolloutCfg is replaced wholesale on update; in-flight selects
	// always see a consistent snapshot.
	rolloutCfg atomic.Pointer[rollout.Config]

	expCfg       config.ExperimentConfig
	startVersion string
	modelName    string
}

// New creates a facade over the given artifact store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.Config, store artifact.Store, logger zerolog.Logger) (*Facade, error) {
	strategy, err := rollout.ParseStrategy(cfg.Rollout.Strategy)
	if err != nil {
		return nil, err
	}

	f := &Facade{
		cache:        modelcache.New(store, cfg.Registry.ModelName, logger),
		tracer:       provenance.NewTracer(cfg.Trace.MaxTraces),
		counters:     experiment.NewCounters(cfg.Experiment.MaxLatencySamples),
		logger:       logger.With().Str("component", "controlplane").Logger(),
		expCfg:       cfg.Experiment,
		startVersion: cfg.Registry.Version,
		modelName:    cfg.Registry.ModelName,
	}

	rc := rollout.NewConfig(strategy, cfg.Rollout.PrimaryVersion, cfg.Rollout.CanaryVersion, cfg.Rollout.CanaryPercentage)
	f.rolloutCfg.Store(&rc)

	return f, nil
}

// Start activates the configured startup version. A missing startup
// version is not fatal: the facade serves Unavailable until the first
// successful switch.
func (f *Facade) Start(ctx context.Context) error {
	if f.startVersion == "" {
		return nil
	}
	return f.cache.Activate(ctx, f.modelName, f.startVersion)
}

// ServeRequest is one scoring request.
type ServeRequest struct {
	// UserID identifies the requesting user.
	UserID int

	// K is the number of items requested.
	K int

	// ExplicitVersion pins a model version, bypassing rollout routing.
	// Empty means route by the current rollout policy.
	ExplicitVersion string

	// RequestID propagates an inbound request id. Empty means the
	// tracer generates one; a caller-provided id is used verbatim.
	RequestID string
}

// Serve answers one scoring request: route, resolve, score, trace.
//
// A Serve call in flight when a Switch lands completes against the
// version it started with; it is never retargeted mid-flight.
func (f *Facade) Serve(ctx context.Context, req ServeRequest) ([]int, provenance.TraceRecord, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = provenance.NewRequestID()
	}

	target, variant := f.route(req)

	entry, err := f.resolveTarget(ctx, target)
	if err != nil {
		rec := f.trace(requestID, req.UserID, nil, variant, start, errs.Kind(err))
		f.observe(target, variant, false, start, errs.Kind(err))
		return nil, rec, err
	}

	items, err := entry.Scorer.Score(ctx, req.UserID, req.K)
	if err != nil {
		err = errs.Internalf("scorer %s/%s: %v", entry.Name, entry.Version, err)
		rec := f.trace(requestID, req.UserID, entry, variant, start, errs.Kind(err))
		f.observe(entry.Version, variant, false, start, errs.Kind(err))
		return nil, rec, err
	}

	rec := f.trace(requestID, req.UserID, entry, variant, start, "ok")
	f.observe(entry.Version, variant, true, start, "ok")

	f.logger.Debug().
		Str("request_id", requestID).
		Int("user_id", req.UserID).
		Str("version", entry.Version).
		Str("variant", variant).
		Int("items", len(items)).
		Msg("request served")

	return items, rec, nil
}

// route picks the target version and variant label for a request.
// An explicit version pin bypasses the rollout policy and carries no
// experiment variant.
func (f *Facade) route(req ServeRequest) (version, variant string) {
	if req.ExplicitVersion != "" {
		return req.ExplicitVersion, ""
	}
	cfg := *f.rolloutCfg.Load()
	return rollout.Select(cfg, req.UserID), rollout.Variant(cfg, req.UserID)
}

// resolveTarget resolves the routed version, falling back to the active
// entry when routing yields no version (no rollout primary configured).
func (f *Facade) resolveTarget(ctx context.Context, target string) (*modelcache.Entry, error) {
	if target == "" {
		e := f.cache.Active()
		if e == nil {
			return nil, errs.Unavailablef("no model active and no rollout primary configured")
		}
		return e, nil
	}
	return f.cache.Resolve(ctx, "", target)
}

// trace builds and stores the provenance record for a request.
func (f *Facade) trace(requestID string, userID int, entry *modelcache.Entry, variant string, start time.Time, status string) provenance.TraceRecord {
	rec := provenance.TraceRecord{
		RequestID: requestID,
		UserID:    userID,
		Variant:   variant,
		LatencyMS: time.Since(start).Milliseconds(),
		Status:    status,
		Timestamp: start,
	}
	if entry != nil {
		rec.ModelName = entry.Name
		rec.ModelVersion = entry.Version
		rec.GitSHA = entry.Meta.GitSHA
		rec.DataSnapshotID = entry.Meta.DataSnapshotID
		rec.ImageDigest = entry.Meta.ImageDigest
	}
	f.tracer.Store(requestID, rec)
	return rec
}

// observe updates experiment counters and Prometheus metrics.
func (f *Facade) observe(version, variant string, success bool, start time.Time, status string) {
	if variant != "" {
		f.counters.Record(variant, success, time.Since(start).Seconds())
	}
	if version == "" {
		version = "none"
	}
	metrics.RecommendRequests.WithLabelValues(version, variantLabel(variant), status).Inc()
	metrics.RecommendLatency.WithLabelValues(version).Observe(time.Since(start).Seconds())
}

func variantLabel(variant string) string {
	if variant == "" {
		return "none"
	}
	return variant
}

// AdminSwitch activates a version and makes it the rollout primary, so
// both pinned and routed traffic converge on it. A failed switch leaves
// the previous version fully serving and the rollout policy untouched.
func (f *Facade) AdminSwitch(ctx context.Context, version string) (previous string, meta artifact.Meta, err error) {
	previous, meta, err = f.cache.Switch(ctx, version, "")
	if err != nil {
		return "", artifact.Meta{}, err
	}

	old := *f.rolloutCfg.Load()
	nc := rollout.NewConfig(old.Strategy(), version, old.CanaryVersion(), old.CanaryPercentage())
	f.rolloutCfg.Store(&nc)

	return previous, meta, nil
}

// RolloutUpdate is a partial rollout policy update. Nil fields keep the
// current value.
type RolloutUpdate struct {
	Strategy         string   `json:"strategy,omitempty" validate:"omitempty,oneof=fixed canary ab_test shadow"`
	PrimaryVersion   *string  `json:"primary_version,omitempty"`
	CanaryVersion    *string  `json:"canary_version,omitempty"`
	CanaryPercentage *float64 `json:"canary_percentage,omitempty" validate:"omitempty,min=0,max=100"`
}

// AdminUpdateRollout replaces the rollout policy copy-on-write. In-flight
// selects keep the snapshot they started with.
func (f *Facade) AdminUpdateRollout(update RolloutUpdate) error {
	if verr := validation.ValidateStruct(&update); verr != nil {
		return errs.InvalidInputf("rollout update: %v", verr)
	}

	old := *f.rolloutCfg.Load()

	strategy := old.Strategy()
	if update.Strategy != "" {
		var err error
		strategy, err = rollout.ParseStrategy(update.Strategy)
		if err != nil {
			return err
		}
	}

	primary := old.PrimaryVersion()
	if update.PrimaryVersion != nil {
		primary = *update.PrimaryVersion
	}
	canary := old.CanaryVersion()
	if update.CanaryVersion != nil {
		canary = *update.CanaryVersion
	}
	pct := old.CanaryPercentage()
	if update.CanaryPercentage != nil {
		pct = *update.CanaryPercentage
	}

	nc := rollout.NewConfig(strategy, primary, canary, pct)
	f.rolloutCfg.Store(&nc)

	f.logger.Info().
		Str("strategy", nc.Strategy().String()).
		Str("primary_version", nc.PrimaryVersion()).
		Str("canary_version", nc.CanaryVersion()).
		Float64("canary_percentage", nc.CanaryPercentage()).
		Msg("rollout policy updated")

	return nil
}

// Rollout exports the current rollout policy.
func (f *Facade) Rollout() map[string]any {
	return f.rolloutCfg.Load().ToMap()
}

// CurrentVersion returns the active model version, "" if none.
func (f *Facade) CurrentVersion() string {
	return f.cache.CurrentVersion()
}

// Describe returns the active model's provenance metadata.
func (f *Facade) Describe() (artifact.Meta, error) {
	return f.cache.Describe()
}

// GetTrace retrieves the provenance record for a request id.
func (f *Facade) GetTrace(requestID string) (provenance.TraceRecord, bool) {
	return f.tracer.Get(requestID)
}

// Counters returns a snapshot of the live experiment counters.
func (f *Facade) Counters() experiment.CountersSnapshot {
	return f.counters.Snapshot()
}

// ResetCounters clears the live experiment counters, typically at a new
// experiment window boundary.
func (f *Facade) ResetCounters() {
	f.counters.Reset()
}

// AnalysisReport combines the success-rate hypothesis test with an
// optional latency bootstrap when both arms carry samples.
type AnalysisReport struct {
	experiment.AnalysisReport

	LatencyBootstrap *experiment.BootstrapResult `json:"latency_bootstrap,omitempty"`
}

// Analyze runs the experiment analysis over a counters snapshot. The
// bootstrap honors ctx, so callers can bound the CPU-heavy resampling
// with a deadline.
func (f *Facade) Analyze(ctx context.Context, snap experiment.CountersSnapshot) (AnalysisReport, error) {
	result, err := experiment.TwoProportionZTest(
		int(snap.A.Successes), int(snap.A.Requests),
		int(snap.B.Successes), int(snap.B.Requests),
		f.expCfg.Alpha,
	)
	if err != nil {
		return AnalysisReport{}, err
	}

	decision, rationale := experiment.Decide(result, f.expCfg.MinEffect, f.expCfg.MinSampleSize)
	metrics.ExperimentAnalyses.WithLabelValues(decision.String()).Inc()

	report := AnalysisReport{
		AnalysisReport: experiment.AnalysisReport{
			Metric:    "success_rate",
			Test:      "two_proportion_z_test",
			Result:    result,
			Decision:  decision,
			Rationale: rationale,
		},
	}

	if len(snap.A.Latencies) > 0 && len(snap.B.Latencies) > 0 {
		boot, err := experiment.BootstrapCI(ctx, snap.A.Latencies, snap.B.Latencies, experiment.BootstrapOptions{
			Resamples: f.expCfg.BootstrapResamples,
			Seed:      f.expCfg.BootstrapSeed,
		})
		if err != nil {
			f.logger.Warn().Err(err).Msg("latency bootstrap skipped")
		} else {
			report.LatencyBootstrap = &boot
		}
	}

	return report, nil
}
