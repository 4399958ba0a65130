// Modelgate - Model Serving Control Plane
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelgate

package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-json"
	kyaml "github.com/knadh/koanf/parsers/yaml"

	"github.com/tomtom215/modelgate/internal/errs"
)

// Registry layout:
//
//	<root>/<version>/meta.json|meta.yaml|meta.yml   version-level provenance
//	<root>/<version>/<model>/meta.json              model-level training metadata
//	<root>/<version>/<model>/items.json             ranked item IDs (baseline scorer)
//
// Real deployments plug in their own Scorer adapters; items.json backs the
// popularity baseline shipped with the registry exporter.
var metaFiles = []string{"meta.json", "meta.yaml", "meta.yml"}

// FSStore is a filesystem-backed registry.
type FSStore struct {
	root string

	// imageDigest overrides the metadata image digest when set,
	// typically injected at deploy time.
	imageDigest string
}

// NewFSStore creates a registry rooted at dir. imageDigest may be empty.
func NewFSStore(dir, imageDigest string) *FSStore {
	return &FSStore{root: dir, imageDigest: imageDigest}
}

// ListVersions returns the version directories present under the root,
// sorted lexicographically.
func (s *FSStore) ListVersions(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.NotFoundf("registry root %s", s.root)
		}
		return nil, errs.Internalf("read registry root %s: %v", s.root, err)
	}

	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// LoadMeta loads and merges version-level and model-level metadata for
// (name, version). Returns errs.ErrNotFound if the model directory is absent.
func (s *FSStore) LoadMeta(_ context.Context, name, version string) (Meta, error) {
	modelDir, err := s.modelDir(name, version)
	if err != nil {
		return Meta{}, err
	}

	meta := Meta{ModelName: name, Version: version}

	// Version-level provenance document.
	versionDir := filepath.Dir(modelDir)
	for _, fname := range metaFiles {
		raw, err := os.ReadFile(filepath.Join(versionDir, fname))
		if err != nil {
			continue
		}
		doc, err := parseMetaDoc(fname, raw)
		if err != nil {
			return Meta{}, errs.Internalf("parse %s for %s/%s: %v", fname, version, name, err)
		}
		applyVersionDoc(&meta, doc)
		break
	}

	// Model-level training metadata.
	if raw, err := os.ReadFile(filepath.Join(modelDir, "meta.json")); err == nil {
		training := map[string]any{}
		if err := json.Unmarshal(raw, &training); err != nil {
			return Meta{}, errs.Internalf("parse model meta for %s/%s: %v", version, name, err)
		}
		meta.Training = training
	}

	if s.imageDigest != "" {
		meta.ImageDigest = s.imageDigest
	}

	return meta, nil
}

// LoadScorer loads the baseline popularity scorer for (name, version).
// The artifact is a ranked item list; scoring returns its top-k slice.
func (s *FSStore) LoadScorer(_ context.Context, name, version string) (Scorer, error) {
	modelDir, err := s.modelDir(name, version)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(modelDir, "items.json"))
	if err != nil {
		return nil, errs.Internalf("read scorer artifact for %s/%s: %v", version, name, err)
	}

	var items []int
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errs.Internalf("parse scorer artifact for %s/%s: %v", version, name, err)
	}
	if len(items) == 0 {
		return nil, errs.Internalf("empty scorer artifact for %s/%s", version, name)
	}

	return &rankedScorer{items: items}, nil
}

// modelDir resolves the model directory, mapping absence to NotFound.
func (s *FSStore) modelDir(name, version string) (string, error) {
	dir := filepath.Join(s.root, version, name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", errs.NotFoundf("model %s version %s not found at %s", name, version, dir)
	}
	return dir, nil
}

// parseMetaDoc parses a version-level metadata document. JSON and YAML
// are both accepted; YAML goes through the same parser the config layer uses.
func parseMetaDoc(fname string, raw []byte) (map[string]any, error) {
	if filepath.Ext(fname) == ".json" {
		doc := map[string]any{}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return kyaml.Parser().Unmarshal(raw)
}

// applyVersionDoc copies known provenance keys from a metadata document.
func applyVersionDoc(meta *Meta, doc map[string]any) {
	meta.GitSHA = stringKey(doc, "git_sha")
	meta.DataSnapshotID = stringKey(doc, "data_snapshot_id")
	meta.ImageDigest = stringKey(doc, "image_digest")
}

func stringKey(doc map[string]any, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

// rankedScorer serves the top-k of a pre-ranked item list.
type rankedScorer struct {
	items []int
}

// Score implements Scorer.
func (r *rankedScorer) Score(ctx context.Context, userID, k int) ([]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring canceled: %w", err)
	}
	if k <= 0 || k > len(r.items) {
		k = len(r.items)
	}
	out := make([]int, k)
	copy(out, r.items[:k])
	return out, nil
}
