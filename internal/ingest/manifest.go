// Package ingest loads a building model from a YAML manifest listing
// categories, storeys and elements whose geometry comes from STL files,
// OpenSCAD sources or box primitives
package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the on-disk model description
type Manifest struct {
	Name       string        `yaml:"name"`
	Categories []CategorySpec `yaml:"categories,omitempty"`
	Storeys    []StoreySpec   `yaml:"storeys,omitempty"`
	Elements   []ElementSpec  `yaml:"elements,omitempty"`
}

// CategorySpec declares a category
type CategorySpec struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Color   string `yaml:"color,omitempty"`
	Visible *bool  `yaml:"visible,omitempty"`
}

// StoreySpec declares a storey; elements join it through their storey field
type StoreySpec struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Elevation float64 `yaml:"elevation"`
}

// BoxSpec is an axis-aligned box primitive
type BoxSpec struct {
	Min [3]float64 `yaml:"min"`
	Max [3]float64 `yaml:"max"`
}

// TransformSpec places an element
type TransformSpec struct {
	Position  [3]float64 `yaml:"position"`
	RotationY float64    `yaml:"rotation_y"`
	Scale     float64    `yaml:"scale"`
}

// ElementSpec declares one element. Exactly one of Mesh and Box is set.
type ElementSpec struct {
	ID        string         `yaml:"id,omitempty"`
	Name      string         `yaml:"name,omitempty"`
	Category  string         `yaml:"category"`
	Storey    string         `yaml:"storey,omitempty"`
	Color     string         `yaml:"color,omitempty"`
	Mesh      string         `yaml:"mesh,omitempty"`
	Box       *BoxSpec       `yaml:"box,omitempty"`
	Transform *TransformSpec `yaml:"transform,omitempty"`
}

// ReadManifest decodes a manifest file
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// WriteManifest encodes a manifest file
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
