// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package main is the entry point for the Modelgate server.
//
// Modelgate is a recommendation-serving control plane. It loads versioned
// model artifacts from a filesystem registry, routes traffic between
// versions (fixed, canary percentage, A/B split, shadow), records per-request
// provenance, and analyzes live experiment counters.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file (Koanf v2)
//  2. Artifact store: filesystem registry wrapped in a circuit breaker
//  3. Control plane facade: model cache, rollout policy, tracer, counters
//  4. Supervisor tree: registry watcher and HTTP server under suture
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables with the MODELGATE_ prefix
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// Common settings:
//   - MODELGATE_SERVER_ADDR: listen address (default :8080)
//   - MODELGATE_REGISTRY_PATH: registry root directory
//   - MODELGATE_REGISTRY_VERSION: version activated at startup
//   - MODELGATE_ROLLOUT_STRATEGY: fixed, canary, ab_test or shadow
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (shutdown timeout)
//   - Stops the registry watcher
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/modelgate/internal/api"
	"github.com/tomtom215/modelgate/internal/artifact"
	"github.com/tomtom215/modelgate/internal/config"
	"github.com/tomtom215/modelgate/internal/controlplane"
	"github.com/tomtom215/modelgate/internal/logging"
	"github.com/tomtom215/modelgate/internal/modelcache"
	"github.com/tomtom215/modelgate/internal/supervisor"
	"github.com/tomtom215/modelgate/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("registry_path", cfg.Registry.Path).
		Str("model", cfg.Registry.ModelName).
		Str("start_version", cfg.Registry.Version).
		Str("rollout_strategy", cfg.Rollout.Strategy).
		Msg("Starting Modelgate")

	// Filesystem registry behind a circuit breaker so a failing artifact
	// store cannot stall request-path loads indefinitely.
	var store artifact.Store = modelcache.NewBreakerStore(
		artifact.NewFSStore(cfg.Registry.Path, cfg.Registry.ImageDigest),
	)

	facade, err := controlplane.New(cfg, store, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize control plane")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, cfg.Registry.LoadTimeout)
	if err := facade.Start(startCtx); err != nil {
		// Non-fatal: the server can come up degraded and activate a
		// version later through the admin API.
		logging.Warn().Err(err).
			Str("version", cfg.Registry.Version).
			Msg("Startup model activation failed, serving degraded")
	} else if v := facade.CurrentVersion(); v != "" {
		logging.Info().Str("version", v).Msg("Model activated")
	}
	startCancel()

	handler := api.NewHandler(facade, cfg.Server.RequestTimeout)
	router := api.NewRouter(handler, api.RouterConfig{
		AdminRateLimit:  cfg.Server.AdminRateLimit,
		AdminRateWindow: cfg.Server.AdminRateWindow,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.Server.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Structured logger for supervisor events, bridged zerolog -> slog
	// for sutureslog compatibility.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddControlService(services.NewRegistryWatchService(store, cfg.Registry.ScanInterval))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
