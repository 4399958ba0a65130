// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package provenance records the decision trail of every scoring request:
// which version answered, under which variant, built from which commit and
// data snapshot. Records live in a bounded in-memory store with strict
// FIFO eviction, giving a hard memory ceiling independent of request
// volume.
package provenance

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/modelgate/internal/metrics"
)

// DefaultMaxTraces is the default trace store capacity.
const DefaultMaxTraces = 1000

// TraceRecord is an immutable snapshot of one request's routing and
// scoring decision. It is inserted once and never updated.
type TraceRecord struct {
	RequestID      string    `json:"request_id"`
	UserID         int       `json:"user_id"`
	ModelName      string    `json:"model_name"`
	ModelVersion   string    `json:"model_version"`
	Variant        string    `json:"variant,omitempty"`
	GitSHA         string    `json:"git_sha,omitempty"`
	DataSnapshotID string    `json:"data_snapshot_id,omitempty"`
	ImageDigest    string    `json:"image_digest,omitempty"`
	LatencyMS      int64     `json:"latency_ms"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`

	// StoredAt is set by the tracer at insertion time.
	StoredAt time.Time `json:"stored_at"`
}

// NewRequestID generates a globally unique request identifier. Callers
// propagating an inbound id (e.g. from an X-Request-ID header) use that
// id verbatim instead; the tracer never overwrites a caller-provided id.
func NewRequestID() string {
	return uuid.NewString()
}

// entry is a node in the insertion-ordered list.
type entry struct {
	key    string
	record TraceRecord
	prev   *entry
	next   *entry
}

// Tracer is a bounded, concurrency-safe trace store.
//
// Eviction is strict insertion-order FIFO: once the store holds maxTraces
// records, inserting a new one evicts the single oldest surviving record,
// regardless of how often it was read. Reads never affect eviction order.
// A doubly-linked list plus map gives O(1) insert, lookup and eviction,
// after the pattern used by the house LRU cache but without move-to-front.
type Tracer struct {
	mu sync.RWMutex

	maxTraces int
	items     map[string]*entry

	// head.next is the oldest entry, tail.prev the newest.
	head *entry
	tail *entry
}

// NewTracer creates a trace store holding at most maxTraces records.
// maxTraces <= 0 selects the default of 1000.
func NewTracer(maxTraces int) *Tracer {
	if maxTraces <= 0 {
		maxTraces = DefaultMaxTraces
	}

	t := &Tracer{
		maxTraces: maxTraces,
		items:     make(map[string]*entry, maxTraces),
		head:      &entry{},
		tail:      &entry{},
	}
	t.head.next = t.tail
	t.tail.prev = t.head
	return t
}

// Store inserts a record under requestID, overwriting any existing record
// with the same id (the overwrite keeps the original insertion position).
// Inserting beyond capacity evicts the oldest surviving record. The insert
// is atomic from a reader's point of view.
func (t *Tracer) Store(requestID string, record TraceRecord) {
	record.RequestID = requestID
	record.StoredAt = time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.items[requestID]; ok {
		e.record = record
		return
	}

	e := &entry{key: requestID, record: record}
	t.items[requestID] = e

	// Append at the tail (newest position).
	e.prev = t.tail.prev
	e.next = t.tail
	t.tail.prev.next = e
	t.tail.prev = e

	if len(t.items) > t.maxTraces {
		oldest := t.head.next
		t.unlink(oldest)
		delete(t.items, oldest.key)
		metrics.TraceEvictions.Inc()
	}

	metrics.TraceStoreSize.Set(float64(len(t.items)))
}

// Get retrieves the record stored under requestID.
func (t *Tracer) Get(requestID string) (TraceRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.items[requestID]
	if !ok {
		return TraceRecord{}, false
	}
	return e.record, true
}

// Len returns the number of records currently held.
func (t *Tracer) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// unlink removes e from the list. Must be called with mu held.
func (t *Tracer) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = nil
	e.next = nil
}
