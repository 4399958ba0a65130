// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/modelgate/internal/artifact"
)

// countingStore is a registry double that counts ListVersions calls.
type countingStore struct {
	versions  []string
	listErr   error
	listCount atomic.Int32
}

func (s *countingStore) ListVersions(_ context.Context) ([]string, error) {
	s.listCount.Add(1)
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.versions, nil
}

func (s *countingStore) LoadMeta(_ context.Context, _, _ string) (artifact.Meta, error) {
	return artifact.Meta{}, errors.New("not implemented")
}

func (s *countingStore) LoadScorer(_ context.Context, _, _ string) (artifact.Scorer, error) {
	return nil, errors.New("not implemented")
}

func TestRegistryWatchService_Interface(t *testing.T) {
	var _ suture.Service = (*RegistryWatchService)(nil)
}

func TestNewRegistryWatchService_DefaultInterval(t *testing.T) {
	svc := NewRegistryWatchService(&countingStore{}, 0)
	if svc.interval != 30*time.Second {
		t.Errorf("interval = %v, want default 30s", svc.interval)
	}

	svc = NewRegistryWatchService(&countingStore{}, 500*time.Millisecond)
	if svc.interval != 30*time.Second {
		t.Errorf("interval = %v, want default 30s for sub-second input", svc.interval)
	}

	svc = NewRegistryWatchService(&countingStore{}, 5*time.Second)
	if svc.interval != 5*time.Second {
		t.Errorf("interval = %v, want 5s", svc.interval)
	}
}

func TestRegistryWatchService_Serve(t *testing.T) {
	t.Run("scans once at startup and exits on cancellation", func(t *testing.T) {
		store := &countingStore{versions: []string{"v0.3", "v0.4"}}
		svc := NewRegistryWatchService(store, time.Hour)

		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		deadline := time.Now().Add(time.Second)
		for store.listCount.Load() == 0 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		if store.listCount.Load() != 1 {
			t.Fatalf("ListVersions calls = %d, want 1 startup scan", store.listCount.Load())
		}

		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after context cancellation")
		}
	})

	t.Run("rescans on every tick", func(t *testing.T) {
		store := &countingStore{versions: []string{"v0.3"}}
		svc := NewRegistryWatchService(store, time.Hour)
		svc.interval = 20 * time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		deadline := time.Now().Add(2 * time.Second)
		for store.listCount.Load() < 3 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if got := store.listCount.Load(); got < 3 {
			t.Errorf("ListVersions calls = %d, want at least 3", got)
		}

		cancel()
		<-errCh
	})

	t.Run("survives scan failures", func(t *testing.T) {
		store := &countingStore{listErr: errors.New("registry unreachable")}
		svc := NewRegistryWatchService(store, time.Hour)
		svc.interval = 20 * time.Millisecond

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		deadline := time.Now().Add(2 * time.Second)
		for store.listCount.Load() < 2 && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
		if got := store.listCount.Load(); got < 2 {
			t.Errorf("ListVersions calls = %d, want retries after failure", got)
		}

		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
	})
}

func TestRegistryWatchService_TracksKnownVersions(t *testing.T) {
	store := &countingStore{versions: []string{"v0.3"}}
	svc := NewRegistryWatchService(store, time.Hour)

	svc.scan(context.Background())
	if _, ok := svc.known["v0.3"]; !ok {
		t.Error("v0.3 not recorded as known after scan")
	}

	store.versions = []string{"v0.3", "v0.4"}
	svc.scan(context.Background())
	if _, ok := svc.known["v0.4"]; !ok {
		t.Error("v0.4 not recorded as known after second scan")
	}
	if len(svc.known) != 2 {
		t.Errorf("known versions = %d, want 2", len(svc.known))
	}
}

func TestRegistryWatchService_String(t *testing.T) {
	svc := NewRegistryWatchService(&countingStore{}, time.Minute)
	if svc.String() != "registry-watch" {
		t.Errorf("String() = %q, want registry-watch", svc.String())
	}
}
