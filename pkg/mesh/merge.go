package mesh

import (
	"fmt"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// Part is a source geometry together with the transform to bake into it
// when merged. The source buffers are only read.
type Part struct {
	Geometry  *Geometry
	Transform geometry.Matrix4
}

// MergeTransformed concatenates all parts into a single geometry, writing
// each part's transformed vertices directly into the merged buffers. The
// output is sized once up front. If any part is malformed the whole merge
// fails and nothing is returned.
func MergeTransformed(parts []Part) (*Geometry, error) {
	var positions, indices int
	withNormals := true
	for i, p := range parts {
		if err := p.Geometry.Validate(); err != nil {
			return nil, fmt.Errorf("part %d: %w", i, err)
		}
		positions += len(p.Geometry.Positions)
		indices += len(p.Geometry.Indices)
		if len(p.Geometry.Normals) == 0 && len(p.Geometry.Positions) > 0 {
			withNormals = false
		}
	}

	merged := &Geometry{
		Positions: make([]float32, positions),
		Indices:   make([]uint32, indices),
	}
	if withNormals {
		merged.Normals = make([]float32, positions)
	}

	posOffset, idxOffset := 0, 0
	for _, p := range parts {
		src := p.Geometry
		n := len(src.Positions)
		writeTransformed(merged.Positions[posOffset:posOffset+n], src.Positions, p.Transform, false)
		if withNormals {
			normalMatrix, ok := p.Transform.NormalMatrix()
			if !ok {
				return nil, fmt.Errorf("%w: singular transform", ErrMalformed)
			}
			writeTransformed(merged.Normals[posOffset:posOffset+n], src.Normals, normalMatrix, true)
		}

		base := uint32(posOffset / 3)
		for i, idx := range src.Indices {
			merged.Indices[idxOffset+i] = idx + base
		}

		posOffset += n
		idxOffset += len(src.Indices)
	}

	return merged, nil
}
