package mesh

import "github.com/philipparndt/gobim/pkg/geometry"

// boxFaces lists the four corner indices of each face (outward winding)
// together with the face normal.
var boxFaces = [6]struct {
	corners [4]int
	normal  [3]float32
}{
	{[4]int{0, 3, 2, 1}, [3]float32{0, 0, -1}},
	{[4]int{4, 5, 6, 7}, [3]float32{0, 0, 1}},
	{[4]int{0, 4, 7, 3}, [3]float32{-1, 0, 0}},
	{[4]int{1, 2, 6, 5}, [3]float32{1, 0, 0}},
	{[4]int{0, 1, 5, 4}, [3]float32{0, -1, 0}},
	{[4]int{3, 7, 6, 2}, [3]float32{0, 1, 0}},
}

// Box creates an axis-aligned box with flat-shaded faces
func Box(min, max geometry.Vector3) *Geometry {
	bbox := geometry.BoundingBox{Min: min, Max: max}
	corners := bbox.Corners()

	g := &Geometry{
		Positions: make([]float32, 0, 6*4*3),
		Normals:   make([]float32, 0, 6*4*3),
		Indices:   make([]uint32, 0, 6*6),
	}
	for _, face := range boxFaces {
		base := uint32(len(g.Positions) / 3)
		for _, c := range face.corners {
			p := corners[c]
			g.Positions = append(g.Positions, float32(p.X), float32(p.Y), float32(p.Z))
			g.Normals = append(g.Normals, face.normal[0], face.normal[1], face.normal[2])
		}
		g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return g
}

// Cube creates a box of the given edge length centered at the origin
func Cube(size float64) *Geometry {
	h := size / 2
	return Box(geometry.NewVector3(-h, -h, -h), geometry.NewVector3(h, h, h))
}

// Quad creates a horizontal rectangle at height y facing +Y
func Quad(min, max geometry.Vector3, y float64) *Geometry {
	return &Geometry{
		Positions: []float32{
			float32(min.X), float32(y), float32(min.Z),
			float32(min.X), float32(y), float32(max.Z),
			float32(max.X), float32(y), float32(max.Z),
			float32(max.X), float32(y), float32(min.Z),
		},
		Normals: []float32{0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}
