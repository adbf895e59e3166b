// Package mesh holds indexed triangle buffers in the flat layout a GPU
// upload expects, plus the transforms and merges applied to them.
package mesh

import (
	"errors"
	"fmt"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// ErrMalformed is returned for buffers that cannot describe triangles
var ErrMalformed = errors.New("malformed geometry")

// Geometry is an indexed triangle mesh. Positions and Normals hold xyz
// triples; Indices reference vertices three at a time. Normals may be empty.
type Geometry struct {
	Positions []float32
	Normals   []float32
	Indices   []uint32
}

// VertexCount returns the number of vertices
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// TriangleCount returns the number of triangles
func (g *Geometry) TriangleCount() int {
	return len(g.Indices) / 3
}

// Validate checks buffer lengths and index ranges
func (g *Geometry) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil geometry", ErrMalformed)
	}
	if len(g.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position floats is not a multiple of 3", ErrMalformed, len(g.Positions))
	}
	if len(g.Normals) != 0 && len(g.Normals) != len(g.Positions) {
		return fmt.Errorf("%w: %d normal floats for %d position floats", ErrMalformed, len(g.Normals), len(g.Positions))
	}
	if len(g.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices is not a multiple of 3", ErrMalformed, len(g.Indices))
	}
	vertexCount := uint32(g.VertexCount())
	for i, idx := range g.Indices {
		if idx >= vertexCount {
			return fmt.Errorf("%w: index %d at %d out of range (%d vertices)", ErrMalformed, idx, i, vertexCount)
		}
	}
	return nil
}

// Vertex returns vertex i as a vector
func (g *Geometry) Vertex(i uint32) geometry.Vector3 {
	o := i * 3
	return geometry.NewVector3(float64(g.Positions[o]), float64(g.Positions[o+1]), float64(g.Positions[o+2]))
}

// Triangle returns triangle i with its face normal
func (g *Geometry) Triangle(i int) geometry.Triangle {
	v1 := g.Vertex(g.Indices[i*3])
	v2 := g.Vertex(g.Indices[i*3+1])
	v3 := g.Vertex(g.Indices[i*3+2])
	tri := geometry.NewTriangle(geometry.Vector3{}, v1, v2, v3)
	tri.Normal = tri.CalculateNormal()
	return tri
}

// BoundingBox returns the bounds of all vertices
func (g *Geometry) BoundingBox() geometry.BoundingBox {
	bbox := geometry.NewBoundingBox()
	for i := 0; i < g.VertexCount(); i++ {
		bbox.Extend(g.Vertex(uint32(i)))
	}
	return bbox
}

// Clone returns a deep copy
func (g *Geometry) Clone() *Geometry {
	out := &Geometry{
		Positions: make([]float32, len(g.Positions)),
		Normals:   make([]float32, len(g.Normals)),
		Indices:   make([]uint32, len(g.Indices)),
	}
	copy(out.Positions, g.Positions)
	copy(out.Normals, g.Normals)
	copy(out.Indices, g.Indices)
	return out
}

// ApplyMatrix transforms positions and normals in place
func (g *Geometry) ApplyMatrix(m geometry.Matrix4) {
	normalMatrix, ok := m.NormalMatrix()
	writeTransformed(g.Positions, g.Positions, m, false)
	if ok {
		writeTransformed(g.Normals, g.Normals, normalMatrix, true)
	}
}

// writeTransformed writes src transformed by m into dst (which may alias src)
func writeTransformed(dst, src []float32, m geometry.Matrix4, direction bool) {
	for o := 0; o+2 < len(src); o += 3 {
		v := geometry.NewVector3(float64(src[o]), float64(src[o+1]), float64(src[o+2]))
		if direction {
			v = m.TransformDirection(v).Normalize()
		} else {
			v = m.TransformPoint(v)
		}
		dst[o] = float32(v.X)
		dst[o+1] = float32(v.Y)
		dst[o+2] = float32(v.Z)
	}
}
