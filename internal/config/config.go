// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package config provides layered configuration for Modelgate using Koanf v2.
// Precedence: environment variables > config file > built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Registry   RegistryConfig   `koanf:"registry"`
	Rollout    RolloutConfig    `koanf:"rollout"`
	Trace      TraceConfig      `koanf:"trace"`
	Experiment ExperimentConfig `koanf:"experiment"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RequestTimeout bounds a single scoring request.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// AdminRateLimit is the number of admin requests allowed per window.
	AdminRateLimit int `koanf:"admin_rate_limit"`

	// AdminRateWindow is the admin rate limiting window.
	AdminRateWindow time.Duration `koanf:"admin_rate_window"`
}

// RegistryConfig holds model registry settings.
type RegistryConfig struct {
	// Path is the root directory of the model registry,
	// laid out as <path>/<version>/<model>/.
	Path string `koanf:"path"`

	// ModelName is the default model family served.
	ModelName string `koanf:"model_name"`

	// Version is the model version activated at startup.
	Version string `koanf:"version"`

	// ImageDigest is the container image digest recorded in provenance.
	// Typically injected at deploy time via MODELGATE_REGISTRY_IMAGE_DIGEST.
	ImageDigest string `koanf:"image_digest"`

	// LoadTimeout bounds a single artifact load.
	LoadTimeout time.Duration `koanf:"load_timeout"`

	// ScanInterval is how often the registry watcher lists versions.
	ScanInterval time.Duration `koanf:"scan_interval"`
}

// RolloutConfig holds the initial traffic-splitting policy.
// The live policy is owned by the control plane and hot-updatable
// through the admin API; this section only seeds it.
type RolloutConfig struct {
	// Strategy is one of fixed, canary, ab_test, shadow.
	Strategy string `koanf:"strategy"`

	// PrimaryVersion receives traffic not routed to the canary.
	PrimaryVersion string `koanf:"primary_version"`

	// CanaryVersion receives the canary/B share of traffic. Optional.
	CanaryVersion string `koanf:"canary_version"`

	// CanaryPercentage is the canary traffic share in [0,100].
	CanaryPercentage float64 `koanf:"canary_percentage"`
}

// TraceConfig holds provenance trace store settings.
type TraceConfig struct {
	// MaxTraces bounds the in-memory trace store. Oldest records are
	// evicted first once the bound is reached.
	MaxTraces int `koanf:"max_traces"`
}

// ExperimentConfig holds experiment analysis settings.
type ExperimentConfig struct {
	// Alpha is the significance level for hypothesis tests.
	Alpha float64 `koanf:"alpha"`

	// MinEffect is the minimum practical effect size (absolute).
	MinEffect float64 `koanf:"min_effect"`

	// MinSampleSize is the minimum per-variant sample size before a
	// ship decision is considered.
	MinSampleSize int `koanf:"min_sample_size"`

	// BootstrapResamples is the bootstrap iteration count.
	BootstrapResamples int `koanf:"bootstrap_resamples"`

	// BootstrapSeed seeds the bootstrap RNG for reproducible analyses.
	BootstrapSeed int64 `koanf:"bootstrap_seed"`

	// MaxLatencySamples bounds the per-variant latency reservoir.
	MaxLatencySamples int `koanf:"max_latency_samples"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  10 * time.Second,
			AdminRateLimit:  30,
			AdminRateWindow: time.Minute,
		},
		Registry: RegistryConfig{
			Path:         "model_registry",
			ModelName:    "als",
			Version:      "v0.3",
			LoadTimeout:  30 * time.Second,
			ScanInterval: 30 * time.Second,
		},
		Rollout: RolloutConfig{
			Strategy:         "fixed",
			PrimaryVersion:   "v0.3",
			CanaryVersion:    "",
			CanaryPercentage: 0,
		},
		Trace: TraceConfig{
			MaxTraces: 1000,
		},
		Experiment: ExperimentConfig{
			Alpha:              0.05,
			MinEffect:          0.01,
			MinSampleSize:      1000,
			BootstrapResamples: 10000,
			BootstrapSeed:      42,
			MaxLatencySamples:  10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if c.Registry.Path == "" {
		return fmt.Errorf("registry.path must not be empty")
	}
	if c.Registry.ModelName == "" {
		return fmt.Errorf("registry.model_name must not be empty")
	}
	if c.Trace.MaxTraces <= 0 {
		return fmt.Errorf("trace.max_traces must be positive, got %d", c.Trace.MaxTraces)
	}
	if c.Experiment.Alpha <= 0 || c.Experiment.Alpha >= 1 {
		return fmt.Errorf("experiment.alpha must be in (0,1), got %g", c.Experiment.Alpha)
	}
	if c.Experiment.BootstrapResamples <= 0 {
		return fmt.Errorf("experiment.bootstrap_resamples must be positive, got %d", c.Experiment.BootstrapResamples)
	}
	if c.Rollout.CanaryPercentage < 0 || c.Rollout.CanaryPercentage > 100 {
		return fmt.Errorf("rollout.canary_percentage must be in [0,100], got %g", c.Rollout.CanaryPercentage)
	}
	return nil
}
