// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

/*
Package services provides suture.Service wrappers for Modelgate components.

Each wrapper adapts a component's lifecycle to suture's context-aware Serve
pattern and implements fmt.Stringer so supervisor logs identify the service
by name.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts the ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining in-flight requests

Registry Watcher (RegistryWatchService):
  - Polls the artifact registry on an interval
  - Reports available model versions via logs and the
    modelgate_registry_versions gauge
  - Never loads artifacts; loading stays demand-driven in the model cache

# Error Handling

Return values determine supervisor behavior:

	nil       -> service stopped cleanly, no restart
	error     -> service crashed, supervisor restarts it
	ctx.Err() -> shutdown requested, normal termination
*/
package services
