// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

// Package artifact defines the model registry capability consumed by the
// control plane, plus a filesystem-backed implementation. The registry is
// addressed by (version, model name) and holds a metadata document with
// provenance attributes alongside the model artifact itself.
package artifact

import "context"

// Scorer is the scoring capability every concrete model adapter implements.
// The cache stores this interface type; the control plane never sees a
// concrete model.
type Scorer interface {
	// Score returns up to k ranked item IDs for the user.
	Score(ctx context.Context, userID, k int) ([]int, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(ctx context.Context, userID, k int) ([]int, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, userID, k int) ([]int, error) {
	return f(ctx, userID, k)
}

// Meta holds provenance attributes for a model version.
type Meta struct {
	// ModelName is the model family, e.g. "als".
	ModelName string `json:"model_name"`

	// Version is the model version, e.g. "v0.3".
	Version string `json:"version"`

	// GitSHA is the commit the training run was built from.
	GitSHA string `json:"git_sha,omitempty"`

	// DataSnapshotID identifies the training data snapshot.
	DataSnapshotID string `json:"data_snapshot_id,omitempty"`

	// ImageDigest is the container image digest of the training run.
	ImageDigest string `json:"image_digest,omitempty"`

	// Training carries arbitrary key/value training metadata
	// (hyperparameters, offline metrics).
	Training map[string]any `json:"training,omitempty"`
}

// Store is the registry capability the control plane depends on.
// Implementations must return errs.ErrNotFound (wrapped) for versions
// that do not exist.
type Store interface {
	// ListVersions returns the versions present in the registry.
	ListVersions(ctx context.Context) ([]string, error)

	// LoadMeta loads the metadata document for (name, version).
	LoadMeta(ctx context.Context, name, version string) (Meta, error)

	// LoadScorer loads the scoring artifact for (name, version).
	LoadScorer(ctx context.Context, name, version string) (Scorer, error)
}
