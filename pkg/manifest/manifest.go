// Package manifest describes the deployable resource set of a web application:
// the Resource Table (logical path to content fingerprint) and the Core Set
// (the application shell fetched before a coordinator can be installed).
//
// A manifest is produced by an external build step and is immutable for the
// lifetime of the coordinator that consumes it.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/opencontainers/go-digest"
)

// RootKey is the logical key of the entry document (the bare origin).
const RootKey = "/"

// ErrInvalid is returned when a manifest document violates its invariants.
var ErrInvalid = errors.New("invalid manifest")

// ResourceTable maps a logical path to its content fingerprint.
type ResourceTable map[string]string

// Has reports whether key is a resource owned by the table.
func (t ResourceTable) Has(key string) bool {
	return t[key] != ""
}

// Keys returns the table's logical keys in lexical order.
func (t ResourceTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stale reports whether a cached entry for key must be evicted when this
// table supersedes prior: the key was removed upstream, or its fingerprint
// changed since prior was applied.
func (t ResourceTable) Stale(prior ResourceTable, key string) bool {
	if !t.Has(key) {
		return true
	}
	return t[key] != prior[key]
}

// Missing returns, in lexical order, the table's keys not present in cached.
func (t ResourceTable) Missing(cached map[string]struct{}) []string {
	var missing []string
	for _, k := range t.Keys() {
		if _, ok := cached[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Encode returns the JSON form persisted in the manifest partition.
func (t ResourceTable) Encode() ([]byte, error) {
	return json.Marshal(map[string]string(t))
}

// DecodeTable parses a persisted Resource Table.
func DecodeTable(data []byte) (ResourceTable, error) {
	var t ResourceTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode resource table: %w", err)
	}
	if t == nil {
		t = ResourceTable{}
	}
	return t, nil
}

// Manifest is the build-time input: every deployable resource plus the
// ordered application shell.
type Manifest struct {
	Resources ResourceTable `json:"resources"`
	Core      []string      `json:"core"`
}

// Validate checks that the table is non-empty, that fingerprints are
// non-empty and that the Core Set is a subset of the table.
func (m *Manifest) Validate() error {
	if len(m.Resources) == 0 {
		return fmt.Errorf("%w: resource table is empty", ErrInvalid)
	}
	for k, fp := range m.Resources {
		if k == "" {
			return fmt.Errorf("%w: empty resource key", ErrInvalid)
		}
		if fp == "" {
			return fmt.Errorf("%w: resource %q has no fingerprint", ErrInvalid, k)
		}
	}
	seen := make(map[string]struct{}, len(m.Core))
	for _, k := range m.Core {
		if !m.Resources.Has(k) {
			return fmt.Errorf("%w: core resource %q is not in the resource table", ErrInvalid, k)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: core resource %q listed twice", ErrInvalid, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// Digest identifies the manifest contents. Two manifests with the same
// resources and core set share a digest regardless of key order.
func (m *Manifest) Digest() digest.Digest {
	// encoding/json sorts map keys, so the encoding is canonical.
	data, _ := json.Marshal(m)
	return digest.FromBytes(data)
}

// Parse decodes and validates a manifest document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and validates the manifest stored at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %q: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %q: %w", path, err)
	}
	return m, nil
}
