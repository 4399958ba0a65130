// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package services

import (
	"context"
	"time"

	"github.com/tomtom215/modelgate/internal/artifact"
	"github.com/tomtom215/modelgate/internal/logging"
	"github.com/tomtom215/modelgate/internal/metrics"
)

// RegistryWatchService periodically lists the artifact registry and reports
// the set of available model versions.
//
// The watcher never loads artifacts itself; loading stays demand-driven
// through the model cache. Its job is visibility: operators see new versions
// appear in logs and in the modelgate_registry_versions gauge before they
// switch traffic to them.
type RegistryWatchService struct {
	store    artifact.Store
	interval time.Duration
	name     string

	known map[string]struct{}
}

// NewRegistryWatchService creates a registry watcher polling at the given
// interval. Intervals below one second are raised to the 30s default.
func NewRegistryWatchService(store artifact.Store, interval time.Duration) *RegistryWatchService {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	return &RegistryWatchService{
		store:    store,
		interval: interval,
		name:     "registry-watch",
		known:    make(map[string]struct{}),
	}
}

// Serve implements suture.Service.
//
// Scans once at startup and then on every tick until the context is
// canceled. Scan failures are logged and retried on the next tick; the
// service itself only exits on shutdown.
func (s *RegistryWatchService) Serve(ctx context.Context) error {
	s.scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *RegistryWatchService) scan(ctx context.Context) {
	versions, err := s.store.ListVersions(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Registry scan failed")
		return
	}

	metrics.RegistryVersions.Set(float64(len(versions)))

	for _, v := range versions {
		if _, ok := s.known[v]; !ok {
			s.known[v] = struct{}{}
			logging.Info().Str("version", v).Msg("Registry version discovered")
		}
	}
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *RegistryWatchService) String() string {
	return s.name
}
