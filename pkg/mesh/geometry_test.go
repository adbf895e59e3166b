package mesh

import (
	"testing"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsOutOfRangeIndex(t *testing.T) {
	g := &Geometry{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 3},
	}
	assert.ErrorIs(t, g.Validate(), ErrMalformed)
}

func TestValidateRejectsNormalMismatch(t *testing.T) {
	g := &Geometry{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:   []float32{0, 0, 1},
		Indices:   []uint32{0, 1, 2},
	}
	assert.ErrorIs(t, g.Validate(), ErrMalformed)
}

func TestBoxIsValid(t *testing.T) {
	g := Box(geometry.NewVector3(0, 0, 0), geometry.NewVector3(1, 2, 3))
	require.NoError(t, g.Validate())
	assert.Equal(t, 24, g.VertexCount())
	assert.Equal(t, 12, g.TriangleCount())

	bbox := g.BoundingBox()
	assert.Equal(t, geometry.NewVector3(1, 2, 3), bbox.Max)

	// Every face normal points away from the center
	center := bbox.Center()
	for i := 0; i < g.TriangleCount(); i++ {
		tri := g.Triangle(i)
		outward := tri.Center().Sub(center)
		assert.Greater(t, tri.Normal.Dot(outward), 0.0, "triangle %d faces inward", i)
	}
}

func TestCloneDoesNotShareBuffers(t *testing.T) {
	g := Cube(1)
	c := g.Clone()
	c.ApplyMatrix(geometry.Translation(geometry.NewVector3(5, 0, 0)))

	assert.InDelta(t, -0.5, g.Positions[0], 1e-6)
	assert.InDelta(t, 4.5, c.Positions[0], 1e-6)
}

func TestMergeTransformedOffsetsIndices(t *testing.T) {
	a := Cube(1)
	b := Cube(1)
	aPositions := append([]float32(nil), a.Positions...)

	merged, err := MergeTransformed([]Part{
		{Geometry: a, Transform: geometry.Identity()},
		{Geometry: b, Transform: geometry.Translation(geometry.NewVector3(10, 0, 0))},
	})
	require.NoError(t, err)
	require.NoError(t, merged.Validate())

	assert.Equal(t, a.VertexCount()+b.VertexCount(), merged.VertexCount())
	assert.Equal(t, a.TriangleCount()+b.TriangleCount(), merged.TriangleCount())
	assert.Equal(t, uint32(a.VertexCount()), merged.Indices[len(a.Indices)])
	assert.InDelta(t, 10.5, merged.BoundingBox().Max.X, 1e-6)

	// Sources are never mutated
	assert.Equal(t, aPositions, a.Positions)
}

func TestMergeTransformedFailsOnMalformedPart(t *testing.T) {
	bad := &Geometry{Positions: []float32{0, 0}}
	_, err := MergeTransformed([]Part{
		{Geometry: Cube(1), Transform: geometry.Identity()},
		{Geometry: bad, Transform: geometry.Identity()},
	})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestMergeTransformedDropsNormalsWhenMissing(t *testing.T) {
	plain := &Geometry{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}
	merged, err := MergeTransformed([]Part{
		{Geometry: Cube(1), Transform: geometry.Identity()},
		{Geometry: plain, Transform: geometry.Identity()},
	})
	require.NoError(t, err)
	assert.Empty(t, merged.Normals)
	assert.NoError(t, merged.Validate())
}
