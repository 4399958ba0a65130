// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

/*
Package supervisor provides process supervision for Modelgate using suture v4.

This package implements a hierarchical supervisor tree that manages the
lifecycle of all long-running services in the application, with Erlang/OTP-style
automatic restart, failure isolation, and graceful shutdown.

# Overview

The supervisor tree organizes services into two layers for failure isolation:

	RootSupervisor ("modelgate")
	├── ControlSupervisor ("control-layer")
	│   └── RegistryWatchService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that a crash in the registry watcher never takes the
HTTP API down with it, and each layer restarts independently with its own
failure counting.

# Usage

	logger := logging.NewSlogLogger()
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    log.Fatal(err)
	}

	tree.AddControlService(services.NewRegistryWatchService(store, interval))
	tree.AddAPIService(services.NewHTTPServerService(server, shutdownTimeout))

	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil {
	    log.Printf("supervisor stopped: %v", err)
	}

# Configuration

TreeConfig controls restart behavior. Defaults match suture's production
defaults:

  - FailureThreshold: 5 failures before backoff
  - FailureDecay: 30 seconds for the failure counter to decay
  - FailureBackoff: 15 second restart delay once the threshold is exceeded
  - ShutdownTimeout: 10 seconds per service during shutdown

# Service Interface

All services implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Returning an error triggers a restart; returning after context cancellation
is a clean shutdown. Services that fail to stop within the timeout show up
in UnstoppedServiceReport.

Supervisor events (starts, stops, failures, backoff) are logged through the
sutureslog adapter, which feeds the application's zerolog logger via
logging.NewSlogLogger.
*/
package supervisor
