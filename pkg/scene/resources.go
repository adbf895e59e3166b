package scene

import (
	"fmt"
	"image/color"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
)

// markerCube is the shared unit geometry drawn for marker nodes
var markerCube = mesh.Cube(1)

// Buffer is geometry uploaded for drawing. It is owned by the component
// that uploaded it and must be disposed by that component.
type Buffer struct {
	geometry *mesh.Geometry
	bounds   geometry.BoundingBox
	disposed bool
	owner    *Scene
}

func newBuffer(g *mesh.Geometry) *Buffer {
	return &Buffer{geometry: g, bounds: g.BoundingBox()}
}

// Upload validates geometry and wraps it in a drawable buffer. The scene
// keeps a count of live buffers so leaks show up in tests.
func (s *Scene) Upload(g *mesh.Geometry) (*Buffer, error) {
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	b := newBuffer(g)
	b.owner = s
	s.liveBuffer++
	return b, nil
}

// Geometry returns the uploaded geometry
func (b *Buffer) Geometry() *mesh.Geometry {
	return b.geometry
}

// Bounds returns the local-space bounding box
func (b *Buffer) Bounds() geometry.BoundingBox {
	return b.bounds
}

// Disposed reports whether Dispose has been called
func (b *Buffer) Disposed() bool {
	return b.disposed
}

// Dispose releases the buffer. Disposing twice returns ErrDisposed.
func (b *Buffer) Dispose() error {
	if b.disposed {
		return ErrDisposed
	}
	b.disposed = true
	b.geometry = nil
	if b.owner != nil {
		b.owner.liveBuffer--
	}
	return nil
}

// Material is a flat color with opacity
type Material struct {
	Color    color.NRGBA
	disposed bool
	owner    *Scene
}

// NewMaterial creates a material tracked by the scene
func (s *Scene) NewMaterial(c color.NRGBA) *Material {
	s.liveMats++
	return &Material{Color: c, owner: s}
}

// Disposed reports whether Dispose has been called
func (m *Material) Disposed() bool {
	return m.disposed
}

// Dispose releases the material. Disposing twice returns ErrDisposed.
func (m *Material) Dispose() error {
	if m.disposed {
		return ErrDisposed
	}
	m.disposed = true
	if m.owner != nil {
		m.owner.liveMats--
	}
	return nil
}

// LiveBuffers returns the number of uploaded, not yet disposed buffers
func (s *Scene) LiveBuffers() int {
	return s.liveBuffer
}

// LiveMaterials returns the number of created, not yet disposed materials
func (s *Scene) LiveMaterials() int {
	return s.liveMats
}
