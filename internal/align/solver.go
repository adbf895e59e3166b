// Package align registers a model against a horizontal reference plane
// from two point correspondences.
package align

import (
	"errors"
	"fmt"
	"math"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// ErrDegenerateInput is returned when the source or target points coincide
// in the plane, so no scale can be derived
var ErrDegenerateInput = errors.New("degenerate alignment input")

// coincidence is the in-plane distance below which two points are treated
// as the same point
const coincidence = 1e-9

// Similarity is a uniform scale, a counter-clockwise rotation in the (X, Z)
// plane and a horizontal translation, applied in that order
type Similarity struct {
	Scale       float64
	Angle       float64
	Translation geometry.Vector3
}

// Matrix returns translate * rotate * scale. A counter-clockwise planar
// angle is a rotation of -Angle about +Y.
func (s Similarity) Matrix() geometry.Matrix4 {
	return geometry.Translation(s.Translation).
		Mul(geometry.RotationY(-s.Angle)).
		Mul(geometry.UniformScaling(s.Scale))
}

// Apply maps a point through the similarity
func (s Similarity) Apply(p geometry.Vector3) geometry.Vector3 {
	return s.Matrix().TransformPoint(p)
}

// Residual is the root of the summed squared in-plane distances between
// each transformed source point and its target. Extra points in the longer
// slice are ignored.
func (s Similarity) Residual(source, target []geometry.Vector3) float64 {
	n := min(len(source), len(target))
	var sum float64
	for i := 0; i < n; i++ {
		sum += toPlanar(s.Apply(source[i])).sub(toPlanar(target[i])).norm2()
	}
	return math.Sqrt(sum)
}

// AngleDegrees returns the rotation in degrees
func (s Similarity) AngleDegrees() float64 {
	return geometry.RadToDeg(s.Angle)
}

// planar is a point in the (X, Z) plane
type planar struct {
	x, z float64
}

func toPlanar(v geometry.Vector3) planar {
	return planar{x: v.X, z: v.Z}
}

func (p planar) sub(o planar) planar {
	return planar{x: p.x - o.x, z: p.z - o.z}
}

func (p planar) norm2() float64 {
	return p.x*p.x + p.z*p.z
}

func midpoint(a, b planar) planar {
	return planar{x: (a.x + b.x) / 2, z: (a.z + b.z) / 2}
}

// Solve computes the similarity that maps pA onto pT1 and pB onto pT2 in
// the (X, Z) plane. Vertical components are ignored.
func Solve(pA, pB, pT1, pT2 geometry.Vector3) (Similarity, error) {
	a, b := toPlanar(pA), toPlanar(pB)
	t1, t2 := toPlanar(pT1), toPlanar(pT2)

	if b.sub(a).norm2() < coincidence*coincidence {
		return Similarity{}, fmt.Errorf("%w: source points coincide", ErrDegenerateInput)
	}
	if t2.sub(t1).norm2() < coincidence*coincidence {
		return Similarity{}, fmt.Errorf("%w: target points coincide", ErrDegenerateInput)
	}

	centroidM := midpoint(a, b)
	centroidT := midpoint(t1, t2)
	m := [2]planar{a.sub(centroidM), b.sub(centroidM)}
	t := [2]planar{t1.sub(centroidT), t2.sub(centroidT)}

	rmsM := math.Sqrt((m[0].norm2() + m[1].norm2()) / 2)
	rmsT := math.Sqrt((t[0].norm2() + t[1].norm2()) / 2)
	scale := rmsT / rmsM

	var cross, dot float64
	for i := range m {
		sx, sz := m[i].x*scale, m[i].z*scale
		cross += sx*t[i].z - sz*t[i].x
		dot += sx*t[i].x + sz*t[i].z
	}
	angle := math.Atan2(cross, dot)

	// translation = centroid_T - scale * R(angle) * centroid_M
	cos, sin := math.Cos(angle), math.Sin(angle)
	rx := scale * (cos*centroidM.x - sin*centroidM.z)
	rz := scale * (sin*centroidM.x + cos*centroidM.z)

	return Similarity{
		Scale:       scale,
		Angle:       angle,
		Translation: geometry.NewVector3(centroidT.x-rx, 0, centroidT.z-rz),
	}, nil
}
