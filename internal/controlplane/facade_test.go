// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package controlplane

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/modelgate/internal/artifact"
	"github.com/tomtom215/modelgate/internal/config"
	"github.com/tomtom215/modelgate/internal/errs"
	"github.com/tomtom215/modelgate/internal/experiment"
)

func testConfig() *config.Config {
	return &config.Config{
		Registry: config.RegistryConfig{
			ModelName: "als",
			Version:   "v0.3",
		},
		Rollout: config.RolloutConfig{
			Strategy:       "fixed",
			PrimaryVersion: "v0.3",
		},
		Trace: config.TraceConfig{MaxTraces: 100},
		Experiment: config.ExperimentConfig{
			Alpha:              0.05,
			MinEffect:          0.01,
			MinSampleSize:      1000,
			BootstrapResamples: 500,
			BootstrapSeed:      42,
			MaxLatencySamples:  1000,
		},
	}
}

func testStore() *artifact.StaticStore {
	store := artifact.NewStaticStore()
	scorer := func(items []int) artifact.Scorer {
		return artifact.ScorerFunc(func(_ context.Context, _, k int) ([]int, error) {
			if k <= 0 || k > len(items) {
				k = len(items)
			}
			return items[:k], nil
		})
	}
	store.Register("als", "v0.3", scorer([]int{1, 2, 3, 4, 5}), artifact.Meta{
		GitSHA:         "sha-v03",
		DataSnapshotID: "snap-03",
		ImageDigest:    "sha256:v03",
	})
	store.Register("als", "v0.4", scorer([]int{9, 8, 7}), artifact.Meta{
		GitSHA: "sha-v04",
	})
	return store
}

func newTestFacade(t *testing.T, cfg *config.Config) *Facade {
	t.Helper()
	f, err := New(cfg, testStore(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return f
}

func TestFacade_ServeFixed(t *testing.T) {
	f := newTestFacade(t, testConfig())
	ctx := context.Background()

	items, rec, err := f.Serve(ctx, ServeRequest{UserID: 7, K: 3})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if len(items) != 3 {
		t.Errorf("len(items) = %d, want 3", len(items))
	}
	if rec.ModelVersion != "v0.3" {
		t.Errorf("trace version = %q, want v0.3", rec.ModelVersion)
	}
	if rec.Variant != "" {
		t.Errorf("variant = %q under fixed strategy, want empty", rec.Variant)
	}
	if rec.Status != "ok" {
		t.Errorf("status = %q, want ok", rec.Status)
	}
	if rec.GitSHA != "sha-v03" || rec.DataSnapshotID != "snap-03" {
		t.Errorf("provenance attrs missing: %+v", rec)
	}
	if rec.RequestID == "" {
		t.Error("trace has no request id")
	}
}

func TestFacade_ServeTraceRetrievable(t *testing.T) {
	f := newTestFacade(t, testConfig())

	_, rec, err := f.Serve(context.Background(), ServeRequest{UserID: 1, K: 2, RequestID: "req-abc"})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if rec.RequestID != "req-abc" {
		t.Errorf("RequestID = %q, want caller-provided req-abc", rec.RequestID)
	}

	stored, ok := f.GetTrace("req-abc")
	if !ok {
		t.Fatal("GetTrace(req-abc) not found")
	}
	if stored.ModelVersion != rec.ModelVersion || stored.UserID != 1 {
		t.Errorf("stored trace %+v does not match served %+v", stored, rec)
	}
}

func TestFacade_ServeExplicitVersionPin(t *testing.T) {
	cfg := testConfig()
	cfg.Rollout.Strategy = "ab_test"
	cfg.Rollout.CanaryVersion = "v0.4"
	f := newTestFacade(t, cfg)

	// Pin overrides routing and carries no experiment variant.
	items, rec, err := f.Serve(context.Background(), ServeRequest{UserID: 1, K: 1, ExplicitVersion: "v0.3"})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if rec.ModelVersion != "v0.3" {
		t.Errorf("pinned version = %q, want v0.3", rec.ModelVersion)
	}
	if rec.Variant != "" {
		t.Errorf("variant = %q for pinned request, want empty", rec.Variant)
	}
	if items[0] != 1 {
		t.Errorf("item = %d, want 1 from v0.3", items[0])
	}
}

func TestFacade_ServeABRouting(t *testing.T) {
	cfg := testConfig()
	cfg.Rollout.Strategy = "ab_test"
	cfg.Rollout.CanaryVersion = "v0.4"
	f := newTestFacade(t, cfg)
	ctx := context.Background()

	_, recEven, err := f.Serve(ctx, ServeRequest{UserID: 2, K: 1})
	if err != nil {
		t.Fatalf("Serve(even) error = %v", err)
	}
	if recEven.ModelVersion != "v0.3" || recEven.Variant != "A" {
		t.Errorf("even user served %s/%s, want v0.3/A", recEven.ModelVersion, recEven.Variant)
	}

	_, recOdd, err := f.Serve(ctx, ServeRequest{UserID: 3, K: 1})
	if err != nil {
		t.Fatalf("Serve(odd) error = %v", err)
	}
	if recOdd.ModelVersion != "v0.4" || recOdd.Variant != "B" {
		t.Errorf("odd user served %s/%s, want v0.4/B", recOdd.ModelVersion, recOdd.Variant)
	}

	// Variant traffic feeds the experiment counters.
	snap := f.Counters()
	if snap.A.Requests != 1 || snap.B.Requests != 1 {
		t.Errorf("counters A=%d B=%d, want 1/1", snap.A.Requests, snap.B.Requests)
	}
}

func TestFacade_ServeUnknownVersionTraced(t *testing.T) {
	f := newTestFacade(t, testConfig())

	_, rec, err := f.Serve(context.Background(), ServeRequest{UserID: 1, K: 1, ExplicitVersion: "v9.9", RequestID: "req-err"})
	if err == nil {
		t.Fatal("Serve(v9.9) error = nil, want not found")
	}
	if !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("error = %v, want not found kind", err)
	}
	if rec.Status != "not_found" {
		t.Errorf("trace status = %q, want not_found", rec.Status)
	}

	// Error paths are traced too.
	if _, ok := f.GetTrace("req-err"); !ok {
		t.Error("failed request left no trace record")
	}
}

func TestFacade_NoActiveNoPrimary(t *testing.T) {
	cfg := testConfig()
	cfg.Registry.Version = ""
	cfg.Rollout.PrimaryVersion = ""
	f, err := New(cfg, testStore(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	_, _, err = f.Serve(context.Background(), ServeRequest{UserID: 1, K: 1})
	if !errors.Is(err, errs.ErrUnavailable) {
		t.Errorf("Serve() error = %v, want unavailable", err)
	}
}

func TestFacade_EmptyPrimaryFallsBackToActive(t *testing.T) {
	cfg := testConfig()
	cfg.Rollout.PrimaryVersion = ""
	f := newTestFacade(t, cfg)

	// No rollout primary, but v0.3 is active from startup.
	_, rec, err := f.Serve(context.Background(), ServeRequest{UserID: 1, K: 1})
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}
	if rec.ModelVersion != "v0.3" {
		t.Errorf("served %q, want active v0.3", rec.ModelVersion)
	}
}

func TestFacade_AdminSwitch(t *testing.T) {
	f := newTestFacade(t, testConfig())
	ctx := context.Background()

	prev, meta, err := f.AdminSwitch(ctx, "v0.4")
	if err != nil {
		t.Fatalf("AdminSwitch() error = %v", err)
	}
	if prev != "v0.3" {
		t.Errorf("previous = %q, want v0.3", prev)
	}
	if meta.GitSHA != "sha-v04" {
		t.Errorf("meta.GitSHA = %q, want sha-v04", meta.GitSHA)
	}
	if v := f.CurrentVersion(); v != "v0.4" {
		t.Errorf("CurrentVersion() = %q, want v0.4", v)
	}

	// Routed traffic converges on the switched version.
	if got := f.Rollout()["primary_version"]; got != "v0.4" {
		t.Errorf("rollout primary = %v, want v0.4", got)
	}
	_, rec, err := f.Serve(ctx, ServeRequest{UserID: 1, K: 1})
	if err != nil {
		t.Fatalf("Serve() after switch error = %v", err)
	}
	if rec.ModelVersion != "v0.4" {
		t.Errorf("served %q after switch, want v0.4", rec.ModelVersion)
	}
}

func TestFacade_AdminSwitchFailureIsolated(t *testing.T) {
	f := newTestFacade(t, testConfig())

	_, _, err := f.AdminSwitch(context.Background(), "v9.9")
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("AdminSwitch(v9.9) error = %v, want not found", err)
	}

	if v := f.CurrentVersion(); v != "v0.3" {
		t.Errorf("CurrentVersion() = %q after failed switch, want v0.3", v)
	}
	if got := f.Rollout()["primary_version"]; got != "v0.3" {
		t.Errorf("rollout primary = %v after failed switch, want v0.3", got)
	}
}

func TestFacade_AdminUpdateRollout(t *testing.T) {
	f := newTestFacade(t, testConfig())

	canary := "v0.4"
	pct := 25.0
	err := f.AdminUpdateRollout(RolloutUpdate{
		Strategy:         "canary",
		CanaryVersion:    &canary,
		CanaryPercentage: &pct,
	})
	if err != nil {
		t.Fatalf("AdminUpdateRollout() error = %v", err)
	}

	m := f.Rollout()
	if m["strategy"] != "canary" {
		t.Errorf("strategy = %v, want canary", m["strategy"])
	}
	if m["canary_version"] != "v0.4" {
		t.Errorf("canary_version = %v, want v0.4", m["canary_version"])
	}
	if m["canary_percentage"] != 25.0 {
		t.Errorf("canary_percentage = %v, want 25", m["canary_percentage"])
	}
	// Untouched fields survive partial updates.
	if m["primary_version"] != "v0.3" {
		t.Errorf("primary_version = %v, want unchanged v0.3", m["primary_version"])
	}
}

func TestFacade_AdminUpdateRolloutValidation(t *testing.T) {
	f := newTestFacade(t, testConfig())

	t.Run("unknown strategy", func(t *testing.T) {
		err := f.AdminUpdateRollout(RolloutUpdate{Strategy: "random"})
		if !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("error = %v, want invalid input", err)
		}
	})

	t.Run("percentage out of range", func(t *testing.T) {
		pct := 150.0
		err := f.AdminUpdateRollout(RolloutUpdate{CanaryPercentage: &pct})
		if !errors.Is(err, errs.ErrInvalidInput) {
			t.Errorf("error = %v, want invalid input", err)
		}
	})

	t.Run("rejected update leaves policy unchanged", func(t *testing.T) {
		before := f.Rollout()
		pct := -1.0
		_ = f.AdminUpdateRollout(RolloutUpdate{CanaryPercentage: &pct})
		after := f.Rollout()
		if before["strategy"] != after["strategy"] || before["canary_percentage"] != after["canary_percentage"] {
			t.Errorf("policy changed by rejected update: %v -> %v", before, after)
		}
	})
}

func TestFacade_Describe(t *testing.T) {
	f := newTestFacade(t, testConfig())

	meta, err := f.Describe()
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if meta.Version != "v0.3" || meta.GitSHA != "sha-v03" {
		t.Errorf("meta = %+v, want v0.3/sha-v03", meta)
	}
}

func TestFacade_AnalyzeCounters(t *testing.T) {
	f := newTestFacade(t, testConfig())
	ctx := context.Background()

	snap := experiment.CountersSnapshot{
		A: experiment.VariantSnapshot{Requests: 2000, Successes: 800, Latencies: []float64{0.010, 0.012, 0.011}},
		B: experiment.VariantSnapshot{Requests: 2000, Successes: 1000, Latencies: []float64{0.020, 0.022, 0.021}},
	}

	report, err := f.Analyze(ctx, snap)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.Decision != experiment.DecisionShipVariantB {
		t.Errorf("Decision = %v, want ship_variant_b", report.Decision)
	}
	if report.Metric != "success_rate" {
		t.Errorf("Metric = %q, want success_rate", report.Metric)
	}
	if report.LatencyBootstrap == nil {
		t.Fatal("LatencyBootstrap = nil, want bootstrap when both arms carry samples")
	}
	if report.LatencyBootstrap.DeltaMean <= 0 {
		t.Errorf("latency DeltaMean = %g, want > 0 (B is slower)", report.LatencyBootstrap.DeltaMean)
	}
}

func TestFacade_AnalyzeWithoutLatencies(t *testing.T) {
	f := newTestFacade(t, testConfig())

	snap := experiment.CountersSnapshot{
		A: experiment.VariantSnapshot{Requests: 2000, Successes: 800},
		B: experiment.VariantSnapshot{Requests: 2000, Successes: 1000},
	}

	report, err := f.Analyze(context.Background(), snap)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if report.LatencyBootstrap != nil {
		t.Error("LatencyBootstrap set without latency samples")
	}
}

func TestFacade_AnalyzeZeroTraffic(t *testing.T) {
	f := newTestFacade(t, testConfig())

	_, err := f.Analyze(context.Background(), experiment.CountersSnapshot{})
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Errorf("Analyze() on empty counters error = %v, want invalid input", err)
	}
}

func TestFacade_ResetCounters(t *testing.T) {
	cfg := testConfig()
	cfg.Rollout.Strategy = "ab_test"
	cfg.Rollout.CanaryVersion = "v0.4"
	f := newTestFacade(t, cfg)
	ctx := context.Background()

	for id := 0; id < 10; id++ {
		if _, _, err := f.Serve(ctx, ServeRequest{UserID: id, K: 1}); err != nil {
			t.Fatalf("Serve(%d) error = %v", id, err)
		}
	}
	if snap := f.Counters(); snap.A.Requests == 0 || snap.B.Requests == 0 {
		t.Fatal("counters not accumulating")
	}

	f.ResetCounters()

	snap := f.Counters()
	if snap.A.Requests != 0 || snap.B.Requests != 0 {
		t.Errorf("counters after reset A=%d B=%d, want 0/0", snap.A.Requests, snap.B.Requests)
	}
}

func TestNew_RejectsBadStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.Rollout.Strategy = "surprise"
	if _, err := New(cfg, testStore(), zerolog.Nop()); err == nil {
		t.Error("New() with unknown strategy error = nil, want error")
	}
}
