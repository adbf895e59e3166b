package geometry

import (
	"math"
	"testing"
)

func TestMatrixMulAppliesRightFirst(t *testing.T) {
	m := Translation(NewVector3(10, 0, 0)).Mul(UniformScaling(2))
	result := m.TransformPoint(NewVector3(1, 1, 1))

	expected := NewVector3(12, 2, 2)
	if result != expected {
		t.Errorf("Mul failed: expected %v, got %v", expected, result)
	}
}

func TestRotationYQuarterTurn(t *testing.T) {
	result := RotationY(math.Pi / 2).TransformPoint(NewVector3(1, 0, 0))

	expected := NewVector3(0, 0, -1)
	if result.Distance(expected) > 1e-12 {
		t.Errorf("RotationY failed: expected %v, got %v", expected, result)
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	original := Transform{
		Position: NewVector3(3, -2, 7),
		Rotation: QuaternionFromAxisAngle(NewVector3(0, 1, 0), 0.7),
		Scale:    NewVector3(2.5, 2.5, 2.5),
	}

	decomposed := Decompose(original.Matrix())

	if !decomposed.ApproxEqual(original, 1e-9) {
		t.Errorf("Decompose failed: expected %v, got %v", original, decomposed)
	}
	if math.Abs(decomposed.Scale.X-2.5) > 1e-9 {
		t.Errorf("Decompose scale failed: expected 2.5, got %v", decomposed.Scale.X)
	}
	if math.Abs(decomposed.Rotation.YawAngle()-0.7) > 1e-9 {
		t.Errorf("Decompose yaw failed: expected 0.7, got %v", decomposed.Rotation.YawAngle())
	}
}

func TestNormalMatrixUnderNonUniformScale(t *testing.T) {
	m := Scaling(NewVector3(2, 1, 1))
	n, ok := m.NormalMatrix()
	if !ok {
		t.Fatal("NormalMatrix reported singular matrix")
	}

	// A 45 degree normal in XY must tilt towards Y after stretching X
	normal := n.TransformDirection(NewVector3(1, 1, 0).Normalize()).Normalize()
	if normal.Y <= normal.X {
		t.Errorf("NormalMatrix failed: expected Y > X, got %v", normal)
	}
}

func TestTriangleIntersectSimple(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(-1, -1, 0),
		NewVector3(1, -1, 0),
		NewVector3(0, 1, 0),
	)

	dist, ok := tri.Intersect(NewRay(NewVector3(0, 0, 5), NewVector3(0, 0, -1)))
	if !ok || math.Abs(dist-5) > 1e-12 {
		t.Errorf("Intersect failed: expected hit at 5, got %v (%v)", dist, ok)
	}

	if _, ok := tri.Intersect(NewRay(NewVector3(5, 5, 5), NewVector3(0, 0, -1))); ok {
		t.Error("Intersect failed: expected miss outside the triangle")
	}
}

func TestRayIntersectBox(t *testing.T) {
	bbox := NewBoundingBox()
	bbox.Extend(NewVector3(-1, -1, -1))
	bbox.Extend(NewVector3(1, 1, 1))

	if !NewRay(NewVector3(0, 0, 10), NewVector3(0, 0, -1)).IntersectBox(bbox) {
		t.Error("IntersectBox failed: expected hit")
	}
	if NewRay(NewVector3(0, 5, 10), NewVector3(0, 0, -1)).IntersectBox(bbox) {
		t.Error("IntersectBox failed: expected miss")
	}
}

func TestInverse(t *testing.T) {
	m := Translation(NewVector3(4, -1, 2)).Mul(RotationY(0.3)).Mul(UniformScaling(3))
	inv, ok := m.Inverse()
	if !ok {
		t.Fatalf("Inverse failed: matrix reported singular")
	}

	if !m.Mul(inv).ApproxEqual(Identity(), 1e-12) {
		t.Errorf("Inverse failed: m * inv = %v", m.Mul(inv))
	}

	p := NewVector3(1, 2, 3)
	if back := inv.TransformPoint(m.TransformPoint(p)); back.Distance(p) > 1e-12 {
		t.Errorf("Inverse failed: expected %v, got %v", p, back)
	}

	if _, ok := UniformScaling(0).Inverse(); ok {
		t.Errorf("Inverse failed: zero scaling should be singular")
	}
}
