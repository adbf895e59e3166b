// Package bim holds the building model data consumed by the scene core:
// elements, categories, storeys, the visibility state and the model root.
package bim

import (
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
	"github.com/philipparndt/gobim/pkg/scene"
)

// Element is one discrete model element. Elements are immutable once
// ingested; Geometry is shared and never modified by consumers.
type Element struct {
	ID             string
	Name           string
	CategoryID     string
	Geometry       *mesh.Geometry
	WorldTransform geometry.Matrix4
	Color          Color

	// Node is the element's detailed representation in the scene, if any
	Node scene.Handle
}

// Bounds returns the element's bounds after its world transform
func (e Element) Bounds() geometry.BoundingBox {
	return e.Geometry.BoundingBox().Transform(e.WorldTransform)
}

// Category groups elements by type
type Category struct {
	ID            string
	DisplayName   string
	Count         int
	Visible       bool
	ColorOverride *Color
}

// Storey is a named building level and the elements on it
type Storey struct {
	ID        string
	Name      string
	Elevation float64
	Elements  []string
}

// Root is the model's root transform. Original is the pre-alignment
// reference; Current is what the scene displays.
type Root struct {
	Original geometry.Transform
	Current  geometry.Transform
	Node     scene.Handle
}

// NewRoot creates a root whose current transform equals the original
func NewRoot(t geometry.Transform) *Root {
	return &Root{Original: t, Current: t}
}

// Reset restores the original transform
func (r *Root) Reset() {
	r.Current = r.Original
}
