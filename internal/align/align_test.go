package align

import (
	"bytes"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/pkg/geometry"
)

func assertPlanar(t *testing.T, expected, actual geometry.Vector3) {
	t.Helper()
	scale := math.Max(1, math.Hypot(expected.X, expected.Z))
	assert.InDelta(t, expected.X, actual.X, 1e-6*scale, "x")
	assert.InDelta(t, expected.Z, actual.Z, 1e-6*scale, "z")
}

func TestSolveQuarterTurn(t *testing.T) {
	pA := geometry.NewVector3(0, 0, 0)
	pB := geometry.NewVector3(10, 0, 0)
	pT1 := geometry.NewVector3(0, 0, 0)
	pT2 := geometry.NewVector3(0, 0, 10)

	sim, err := Solve(pA, pB, pT1, pT2)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim.Scale, 1e-9)
	assert.InDelta(t, 90.0, sim.AngleDegrees(), 1e-9)

	m := sim.Matrix()
	assertPlanar(t, pT1, m.TransformPoint(pA))
	assertPlanar(t, pT2, m.TransformPoint(pB))
}

func TestSolveReferenceDrawing(t *testing.T) {
	// Model and drawing points from a real registration
	pA := geometry.NewVector3(-139.6, 0, -120.1)
	pB := geometry.NewVector3(139.6, 0, -120.1)
	pT1 := geometry.NewVector3(-91.2, 0, -10.7)
	pT2 := geometry.NewVector3(140.9, 0, -17.0)

	sim, err := Solve(pA, pB, pT1, pT2)
	require.NoError(t, err)

	expectedScale := math.Hypot(140.9+91.2, -17.0+10.7) / 279.2
	assert.InDelta(t, expectedScale, sim.Scale, 1e-12)

	m := sim.Matrix()
	assertPlanar(t, pT1, m.TransformPoint(pA))
	assertPlanar(t, pT2, m.TransformPoint(pB))
}

func TestResidualOfSolvedPairsIsZero(t *testing.T) {
	source := []geometry.Vector3{
		geometry.NewVector3(-139.6, 0, -120.1),
		geometry.NewVector3(139.6, 0, -120.1),
	}
	target := []geometry.Vector3{
		geometry.NewVector3(-91.2, 0, -10.7),
		geometry.NewVector3(140.9, 0, -17.0),
	}
	sim, err := Solve(source[0], source[1], target[0], target[1])
	require.NoError(t, err)

	assert.InDelta(t, 0, sim.Residual(source, target), 1e-9)
	for i := range source {
		assertPlanar(t, target[i], sim.Apply(source[i]))
	}

	// A displaced target shows up as residual
	moved := []geometry.Vector3{target[0], target[1].Add(geometry.NewVector3(3, 0, 4))}
	assert.InDelta(t, 5, sim.Residual(source, moved), 1e-9)

	// Unmatched points are ignored
	assert.InDelta(t, 0, sim.Residual(source, target[:1]), 1e-9)
}

func TestSolveScalesAndIgnoresHeight(t *testing.T) {
	pA := geometry.NewVector3(1, 5, 1)
	pB := geometry.NewVector3(3, -2, 1)
	pT1 := geometry.NewVector3(10, 0, 10)
	pT2 := geometry.NewVector3(10, 0, 4)

	sim, err := Solve(pA, pB, pT1, pT2)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, sim.Scale, 1e-12)
	assert.InDelta(t, -90.0, sim.AngleDegrees(), 1e-9)
	assert.Zero(t, sim.Translation.Y)

	m := sim.Matrix()
	assertPlanar(t, pT1, m.TransformPoint(pA))
	assertPlanar(t, pT2, m.TransformPoint(pB))
}

func TestSolveRejectsCoincidentPoints(t *testing.T) {
	p := geometry.NewVector3(1, 0, 1)
	_, err := Solve(p, geometry.NewVector3(1, 7, 1), geometry.Vector3{}, geometry.NewVector3(1, 0, 0))
	assert.ErrorIs(t, err, ErrDegenerateInput)

	_, err = Solve(p, geometry.NewVector3(2, 0, 1), geometry.Vector3{}, geometry.Vector3{})
	assert.ErrorIs(t, err, ErrDegenerateInput)
}

type outcomes struct {
	ok, failed int
}

func (o *outcomes) ObserveSolve(ok bool) {
	if ok {
		o.ok++
	} else {
		o.failed++
	}
}

func TestAlignDegenerateLeavesRootUntouched(t *testing.T) {
	original := geometry.Transform{
		Position: geometry.NewVector3(1, 2, 3),
		Rotation: geometry.QuaternionFromAxisAngle(geometry.NewVector3(0, 1, 0), 0.4),
		Scale:    geometry.NewVector3(1, 1, 1),
	}
	root := bim.NewRoot(original)
	before := *root
	obs := &outcomes{}
	aligner := &Aligner{Observer: obs, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}

	p := geometry.NewVector3(4, 0, 4)
	_, err := aligner.Align(root, mesh1x1(), p, p, geometry.Vector3{}, geometry.NewVector3(1, 0, 0))
	assert.ErrorIs(t, err, ErrDegenerateInput)
	assert.Equal(t, before, *root)
	assert.Equal(t, 1, obs.failed)
}

func mesh1x1() geometry.BoundingBox {
	return geometry.BoundingBox{Min: geometry.NewVector3(-0.5, -0.5, -0.5), Max: geometry.NewVector3(0.5, 0.5, 0.5)}
}

func TestAlignRestsModelOnPlane(t *testing.T) {
	root := bim.NewRoot(geometry.IdentityTransform())
	aligner := &Aligner{PlaneHeight: 2, Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}

	sim, err := aligner.Align(root, mesh1x1(),
		geometry.NewVector3(0, 0, 0), geometry.NewVector3(1, 0, 0),
		geometry.NewVector3(5, 0, 5), geometry.NewVector3(5, 0, 7))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, sim.Scale, 1e-12)

	m := root.Current.Matrix()
	assert.InDelta(t, 2.0, mesh1x1().Transform(m).Min.Y, 1e-9)
	assertPlanar(t, geometry.NewVector3(5, 0, 5), m.TransformPoint(geometry.Vector3{}))
	assertPlanar(t, geometry.NewVector3(5, 0, 7), m.TransformPoint(geometry.NewVector3(1, 0, 0)))
	assert.Equal(t, geometry.IdentityTransform(), root.Original)
}

func TestApplyIsIdempotent(t *testing.T) {
	root := bim.NewRoot(geometry.Transform{
		Position: geometry.NewVector3(0, 1, 0),
		Rotation: geometry.IdentityQuaternion(),
		Scale:    geometry.NewVector3(1, 1, 1),
	})
	aligner := &Aligner{}
	sim, err := Solve(geometry.Vector3{}, geometry.NewVector3(4, 0, 0), geometry.NewVector3(1, 0, 1), geometry.NewVector3(1, 0, 9))
	require.NoError(t, err)

	aligner.Apply(root, sim, mesh1x1())
	first := root.Current
	aligner.Apply(root, sim, mesh1x1())
	assert.Equal(t, first, root.Current)
}

func TestRealignWithDisplayedPointsIsStable(t *testing.T) {
	root := bim.NewRoot(geometry.IdentityTransform())
	aligner := &Aligner{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))}
	pA, pB := geometry.NewVector3(-3, 0, 2), geometry.NewVector3(6, 0, -1)
	pT1, pT2 := geometry.NewVector3(10, 0, 10), geometry.NewVector3(12, 0, 30)

	_, err := aligner.Align(root, mesh1x1(), pA, pB, pT1, pT2)
	require.NoError(t, err)
	first := root.Current

	// Picking the same features on the aligned model solves to the same result
	m := first.Matrix()
	_, err = aligner.Align(root, mesh1x1(), m.TransformPoint(pA), m.TransformPoint(pB), pT1, pT2)
	require.NoError(t, err)
	assert.True(t, first.ApproxEqual(root.Current, 1e-9))
}

func TestPointPairAlternates(t *testing.T) {
	var pair PointPair
	assert.Equal(t, SourceA, pair.Next())

	_, _, _, _, err := pair.Points()
	assert.ErrorIs(t, err, ErrIncomplete)

	assert.Equal(t, SourceA, pair.Add(geometry.NewVector3(1, 0, 0)))
	assert.Equal(t, TargetA, pair.Add(geometry.NewVector3(2, 0, 0)))
	assert.True(t, pair.Next().IsSource())
	assert.Equal(t, SourceB, pair.Add(geometry.NewVector3(3, 0, 0)))
	assert.Equal(t, TargetB, pair.Add(geometry.NewVector3(4, 0, 0)))
	assert.Equal(t, Complete, pair.Add(geometry.NewVector3(5, 0, 0)))
	assert.Equal(t, 4, pair.Len())

	pA, pB, pT1, pT2, err := pair.Points()
	require.NoError(t, err)
	assert.Equal(t, 1.0, pA.X)
	assert.Equal(t, 3.0, pB.X)
	assert.Equal(t, 2.0, pT1.X)
	assert.Equal(t, 4.0, pT2.X)

	pair.Clear()
	assert.Equal(t, 0, pair.Len())
	_, ok := pair.Point(SourceA)
	assert.False(t, ok)
}
