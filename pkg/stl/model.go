package stl

import (
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
)

// Model represents a complete STL model
type Model struct {
	Name      string
	Triangles []geometry.Triangle
}

// NewModel creates a new STL model
func NewModel(name string) *Model {
	return &Model{
		Name:      name,
		Triangles: make([]geometry.Triangle, 0),
	}
}

// AddTriangle adds a triangle to the model
func (m *Model) AddTriangle(triangle geometry.Triangle) {
	m.Triangles = append(m.Triangles, triangle)
}

// TriangleCount returns the number of triangles in the model
func (m *Model) TriangleCount() int {
	return len(m.Triangles)
}

// BoundingBox calculates the bounding box of the entire model
func (m *Model) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for _, triangle := range m.Triangles {
		bbox.Extend(triangle.V1)
		bbox.Extend(triangle.V2)
		bbox.Extend(triangle.V3)
	}
	return bbox
}

// Geometry converts the facet list into an indexed mesh. STL has no shared
// vertices, so every facet gets three vertices carrying the facet normal.
// Facets with a zero stored normal get one computed from their winding.
func (m *Model) Geometry() *mesh.Geometry {
	vertexCount := len(m.Triangles) * 3
	g := &mesh.Geometry{
		Positions: make([]float32, 0, vertexCount*3),
		Normals:   make([]float32, 0, vertexCount*3),
		Indices:   make([]uint32, 0, vertexCount),
	}

	for i, triangle := range m.Triangles {
		normal := triangle.Normal
		if normal.IsZero() {
			normal = triangle.CalculateNormal()
		}
		for _, v := range [3]geometry.Vector3{triangle.V1, triangle.V2, triangle.V3} {
			g.Positions = append(g.Positions, float32(v.X), float32(v.Y), float32(v.Z))
			g.Normals = append(g.Normals, float32(normal.X), float32(normal.Y), float32(normal.Z))
		}
		base := uint32(i * 3)
		g.Indices = append(g.Indices, base, base+1, base+2)
	}

	return g
}
