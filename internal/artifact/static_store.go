// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package artifact

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/modelgate/internal/errs"
)

// StaticStore is an in-memory registry used in tests and for wiring a
// fixed set of model adapters without a filesystem registry.
type StaticStore struct {
	mu      sync.RWMutex
	entries map[string]staticEntry // keyed by version + "/" + name
}

type staticEntry struct {
	scorer Scorer
	meta   Meta
}

// NewStaticStore creates an empty in-memory registry.
func NewStaticStore() *StaticStore {
	return &StaticStore{entries: make(map[string]staticEntry)}
}

// Register adds a model version to the registry, overwriting any
// previous registration for the same (name, version).
func (s *StaticStore) Register(name, version string, scorer Scorer, meta Meta) {
	meta.ModelName = name
	meta.Version = version

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[version+"/"+name] = staticEntry{scorer: scorer, meta: meta}
}

// ListVersions returns registered versions, sorted and deduplicated.
func (s *StaticStore) ListVersions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{}, len(s.entries))
	versions := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		if _, ok := seen[e.meta.Version]; ok {
			continue
		}
		seen[e.meta.Version] = struct{}{}
		versions = append(versions, e.meta.Version)
	}
	sort.Strings(versions)
	return versions, nil
}

// LoadMeta implements Store.
func (s *StaticStore) LoadMeta(_ context.Context, name, version string) (Meta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[version+"/"+name]
	if !ok {
		return Meta{}, errs.NotFoundf("model %s version %s not registered", name, version)
	}
	return e.meta, nil
}

// LoadScorer implements Store.
func (s *StaticStore) LoadScorer(_ context.Context, name, version string) (Scorer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[version+"/"+name]
	if !ok {
		return nil, errs.NotFoundf("model %s version %s not registered", name, version)
	}
	return e.scorer, nil
}
