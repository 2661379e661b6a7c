// Package program holds the allow-list of programs the server may answer about.
//
// The Registry is built once at startup and is read-only afterwards, so it is
// shared across concurrent tool calls without locking.
package program

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"plaingov/pkg/platform/sentinel"
)

//go:embed programs.yaml
var defaultCatalog []byte

// Registry maps program ids to descriptors.
type Registry struct {
	programs map[string]Descriptor
	ids      []string
}

type catalog struct {
	Programs []Descriptor `yaml:"programs"`
}

// New builds a Registry, rejecting invalid or duplicate descriptors.
func New(descriptors []Descriptor) (*Registry, error) {
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("program catalog is empty")
	}
	r := &Registry{programs: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.programs[d.ID]; exists {
			return nil, fmt.Errorf("program %s registered twice", d.ID)
		}
		r.programs[d.ID] = d
		r.ids = append(r.ids, d.ID)
	}
	slices.Sort(r.ids)
	return r, nil
}

// Load parses a YAML catalog.
func Load(data []byte) (*Registry, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse program catalog: %w", err)
	}
	return New(c.Programs)
}

// Default returns the built-in catalog of official sources.
func Default() (*Registry, error) {
	return Load(defaultCatalog)
}

// Lookup returns the descriptor for id. Unknown ids wrap sentinel.ErrNotFound.
func (r *Registry) Lookup(id string) (Descriptor, error) {
	d, ok := r.programs[id]
	if !ok {
		return Descriptor{}, fmt.Errorf("program %q: %w", id, sentinel.ErrNotFound)
	}
	return d, nil
}

// IDs returns the sorted program ids.
func (r *Registry) IDs() []string {
	return slices.Clone(r.ids)
}

// All returns every descriptor in id order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.programs[id])
	}
	return out
}
