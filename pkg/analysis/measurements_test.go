package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/gobim/internal/batch"
	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
)

func testRegistry(t *testing.T) *bim.Registry {
	t.Helper()
	v := geometry.NewVector3
	unit := mesh.Box(v(0, 0, 0), v(1, 1, 1))
	elements := []bim.Element{
		{ID: "a", CategoryID: "wall", Geometry: unit, WorldTransform: geometry.Identity(), Color: bim.Opaque(1, 0, 0)},
		{ID: "b", CategoryID: "wall", Geometry: unit, WorldTransform: geometry.Translation(v(3, 0, 0)), Color: bim.Opaque(1, 0, 0)},
		{ID: "c", CategoryID: "slab", Geometry: unit, WorldTransform: geometry.UniformScaling(2), Color: bim.Opaque(0, 0, 1)},
	}
	storeys := []bim.Storey{{ID: "L0", Name: "Ground", Elements: []string{"a", "b", "c"}}}
	reg, err := bim.NewRegistry(elements, nil, storeys)
	require.NoError(t, err)
	return reg
}

func TestAnalyzeModel(t *testing.T) {
	reg := testRegistry(t)
	red := bim.Opaque(1, 0, 0)
	require.NoError(t, reg.SetCategoryColor("slab", &red))

	groups := []*batch.Group{{}}
	result := AnalyzeModel(reg, groups)

	assert.Equal(t, 3, result.ElementCount)
	assert.Equal(t, 36, result.TriangleCount)
	assert.Equal(t, 108, result.EdgeCount)

	// Two unit cubes and one scaled by two
	assert.InDelta(t, 6+6+24, result.SurfaceArea, 1e-9)
	assert.InDelta(t, 1.0, result.MinEdgeLength, 1e-9)
	assert.InDelta(t, 2*1.4142135623730951, result.MaxEdgeLength, 1e-9)

	assert.Equal(t, geometry.NewVector3(4, 2, 2), result.Dimensions)
	assert.InDelta(t, 16.0, result.Volume, 1e-9)

	require.Len(t, result.Categories, 2)
	assert.Equal(t, "wall", result.Categories[0].ID)
	assert.Equal(t, 2, result.Categories[0].ElementCount)
	assert.Equal(t, 24, result.Categories[0].TriangleCount)
	assert.Equal(t, red.Hex(), result.Categories[1].Override)

	require.Len(t, result.Storeys, 1)
	assert.Equal(t, 3, result.Storeys[0].ElementCount)

	assert.Equal(t, DrawCalls{Detailed: 3, Batched: 1, Reduction: 1 - 1.0/3}, result.DrawCalls)
}

func TestFindLargestElements(t *testing.T) {
	v := geometry.NewVector3
	elements := []bim.Element{
		{ID: "small", CategoryID: "x", Geometry: mesh.Quad(v(0, 0, 0), v(1, 0, 1), 0), WorldTransform: geometry.Identity()},
		{ID: "big", CategoryID: "x", Geometry: mesh.Cube(1), WorldTransform: geometry.Identity()},
	}
	reg, err := bim.NewRegistry(elements, nil, nil)
	require.NoError(t, err)
	result := AnalyzeModel(reg, nil)

	largest := FindLargestElements(result, 5)
	require.Len(t, largest, 2)
	assert.Equal(t, "big", largest[0].ID)
	assert.Len(t, FindLargestElements(result, 1), 1)
	assert.Equal(t, 1.0, result.DrawCalls.Reduction)
}

func TestFindNearestElement(t *testing.T) {
	result := AnalyzeModel(testRegistry(t), nil)

	e, d, ok := FindNearestElement(result, geometry.NewVector3(3.5, 0.5, 0.5))
	require.True(t, ok)
	assert.Equal(t, "b", e.ID)
	assert.Equal(t, 0.0, d)

	e, d, ok = FindNearestElement(result, geometry.NewVector3(3.5, 1.5, 0.5))
	require.True(t, ok)
	assert.Equal(t, "b", e.ID)
	assert.InDelta(t, 0.5, d, 1e-9)

	_, _, ok = FindNearestElement(&MeasurementResult{}, geometry.Vector3{})
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.500000 units", FormatMeasurement(1.5, ""))
	assert.Equal(t, "2.000000 m", FormatMeasurement(2, "m"))
	assert.Equal(t, "(1.000000, 2.000000, 3.000000)", FormatVector(geometry.NewVector3(1, 2, 3)))
}
