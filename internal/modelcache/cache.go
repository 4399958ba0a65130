// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package modelcache owns the set of loaded model instances and the
// atomic hot-swap of the active version.
//
// Concurrency discipline: artifact loads (I/O-bound) happen before the
// publish step. Publishing is a single atomic pointer swap under a mutex
// held only for the swap itself, so readers are wait-free and writer
// exclusion is bounded by a pointer copy regardless of artifact size.
package modelcache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/modelgate/internal/artifact"
	"github.com/tomtom215/modelgate/internal/errs"
	"github.com/tomtom215/modelgate/internal/metrics"
)

// Entry is one loaded model instance. Entries are immutable after
// creation and reference-shared: a given (name, version) is loaded into
// memory at most once and repeated requests return the same instance.
type Entry struct {
	Name    string
	Version string
	Scorer  artifact.Scorer
	Meta    artifact.Meta
}

// key returns the cache key for (name, version).
func key(name, version string) string {
	return name + "/" + version
}

// Cache resolves, holds and hot-swaps model versions.
type Cache struct {
	store       artifact.Store
	logger      zerolog.Logger
	defaultName string

	// entriesMu guards the entry map. Entries are never evicted
	// implicitly; version counts are expected to stay small.
	entriesMu sync.RWMutex
	entries   map[string]*Entry

	// publishMu serializes publish steps so two concurrent switches
	// cannot interleave; the loser's entry stays cached but inactive.
	publishMu sync.Mutex
	active    atomic.Pointer[Entry]
}

// New creates a cache over the given artifact store. defaultName is the
// model family used when callers do not name one.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(store artifact.Store, defaultName string, logger zerolog.Logger) *Cache {
	return &Cache{
		store:       store,
		logger:      logger.With().Str("component", "modelcache").Logger(),
		defaultName: defaultName,
		entries:     make(map[string]*Entry),
	}
}

// Resolve returns the entry for (name, version), loading it from the
// artifact store on first demand. An empty name selects the default
// model family. Returns errs.ErrNotFound if the store has no such
// version. Resolve never changes the active pointer.
func (c *Cache) Resolve(ctx context.Context, name, version string) (*Entry, error) {
	if name == "" {
		name = c.defaultName
	}

	c.entriesMu.RLock()
	e, ok := c.entries[key(name, version)]
	c.entriesMu.RUnlock()
	if ok {
		return e, nil
	}

	return c.load(ctx, name, version)
}

// load fetches scorer and metadata from the store, then inserts the
// entry. If a concurrent load for the same key won the insert race, the
// winner's entry is returned and ours is dropped, preserving the
// one-instance-per-key invariant.
func (c *Cache) load(ctx context.Context, name, version string) (*Entry, error) {
	start := time.Now()

	scorer, err := c.store.LoadScorer(ctx, name, version)
	if err != nil {
		return nil, err
	}
	meta, err := c.store.LoadMeta(ctx, name, version)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Internalf("load of %s/%s canceled: %v", name, version, err)
	}

	metrics.ModelLoadDuration.Observe(time.Since(start).Seconds())

	e := &Entry{Name: name, Version: version, Scorer: scorer, Meta: meta}

	c.entriesMu.Lock()
	defer c.entriesMu.Unlock()
	if existing, ok := c.entries[key(name, version)]; ok {
		return existing, nil
	}
	c.entries[key(name, version)] = e
	metrics.ModelsLoaded.Set(float64(len(c.entries)))

	c.logger.Info().
		Str("model", name).
		Str("version", version).
		Dur("load_time", time.Since(start)).
		Msg("model loaded")

	return e, nil
}

// Activate loads (name, version) if absent and publishes it as active.
// The switch is all-or-nothing: on any failure, including context
// cancellation during the load, the previously active pointer is
// unchanged and still serving.
func (c *Cache) Activate(ctx context.Context, name, version string) error {
	e, err := c.Resolve(ctx, name, version)
	if err != nil {
		return err
	}

	c.publishMu.Lock()
	c.active.Store(e)
	c.publishMu.Unlock()

	c.logger.Info().
		Str("model", e.Name).
		Str("version", e.Version).
		Msg("model activated")

	return nil
}

// Switch activates (name, version) and reports what was active before,
// for audit and metrics. An empty name keeps the currently active model
// family, falling back to the default when nothing is active yet.
func (c *Cache) Switch(ctx context.Context, version, name string) (previous string, meta artifact.Meta, err error) {
	if name == "" {
		if cur := c.active.Load(); cur != nil {
			name = cur.Name
		} else {
			name = c.defaultName
		}
	}

	e, err := c.Resolve(ctx, name, version)
	if err != nil {
		metrics.ModelSwitches.WithLabelValues(errs.Kind(err)).Inc()
		return "", artifact.Meta{}, err
	}

	c.publishMu.Lock()
	prev := c.active.Swap(e)
	c.publishMu.Unlock()

	if prev != nil {
		previous = prev.Version
	}
	metrics.ModelSwitches.WithLabelValues("success").Inc()

	c.logger.Info().
		Str("model", e.Name).
		Str("version", e.Version).
		Str("previous_version", previous).
		Msg("model switched")

	return previous, e.Meta, nil
}

// Active returns the active entry, or nil if nothing is active yet.
// The read is wait-free.
func (c *Cache) Active() *Entry {
	return c.active.Load()
}

// CurrentVersion returns the active version, or "" if nothing is active.
func (c *Cache) CurrentVersion() string {
	if e := c.active.Load(); e != nil {
		return e.Version
	}
	return ""
}

// Describe returns the active entry's metadata. Returns
// errs.ErrUnavailable if no model is active yet.
func (c *Cache) Describe() (artifact.Meta, error) {
	e := c.active.Load()
	if e == nil {
		return artifact.Meta{}, errs.Unavailablef("no model active")
	}
	return e.Meta, nil
}

// Score delegates to the active entry's scorer. Returns
// errs.ErrUnavailable if no model is active yet, which callers can tell
// apart from a scorer's own internal failure.
func (c *Cache) Score(ctx context.Context, userID, k int) ([]int, *Entry, error) {
	e := c.active.Load()
	if e == nil {
		return nil, nil, errs.Unavailablef("no model active")
	}

	items, err := e.Scorer.Score(ctx, userID, k)
	if err != nil {
		return nil, e, errs.Internalf("scorer %s/%s: %v", e.Name, e.Version, err)
	}
	return items, e, nil
}

// Loaded returns the number of entries currently held.
func (c *Cache) Loaded() int {
	c.entriesMu.RLock()
	defer c.entriesMu.RUnlock()
	return len(c.entries)
}

// Clear drops all cached entries except the active one. The active
// entry keeps serving; dropped versions reload on next demand. This is
// the only eviction path.
func (c *Cache) Clear() {
	active := c.active.Load()

	c.entriesMu.Lock()
	c.entries = make(map[string]*Entry)
	if active != nil {
		c.entries[key(active.Name, active.Version)] = active
	}
	metrics.ModelsLoaded.Set(float64(len(c.entries)))
	c.entriesMu.Unlock()

	c.logger.Debug().Msg("model cache cleared")
}
