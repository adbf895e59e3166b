package geometry

import (
	"math"
	"testing"
)

func TestTriangleArea(t *testing.T) {
	// Create a right triangle with sides 3, 4, 5
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)

	area := tri.Area()
	expected := 6.0 // (3 * 4) / 2 = 6

	if math.Abs(area-expected) > 1e-10 {
		t.Errorf("Area failed: expected %v, got %v", expected, area)
	}
}

func TestTriangleEdgeLengths(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)

	lengths := tri.EdgeLengths()

	// Expected lengths: 3, 5, 4 (Pythagorean triple)
	if math.Abs(lengths[0]-3.0) > 1e-10 {
		t.Errorf("Edge 0 length failed: expected 3.0, got %v", lengths[0])
	}
	if math.Abs(lengths[1]-5.0) > 1e-10 {
		t.Errorf("Edge 1 length failed: expected 5.0, got %v", lengths[1])
	}
	if math.Abs(lengths[2]-4.0) > 1e-10 {
		t.Errorf("Edge 2 length failed: expected 4.0, got %v", lengths[2])
	}
}

func TestTrianglePerimeter(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)

	perimeter := tri.Perimeter()
	expected := 12.0 // 3 + 4 + 5 = 12

	if math.Abs(perimeter-expected) > 1e-10 {
		t.Errorf("Perimeter failed: expected %v, got %v", expected, perimeter)
	}
}

func TestTriangleCenter(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 3, 0),
	)

	center := tri.Center()
	expected := NewVector3(1, 1, 0)

	if center != expected {
		t.Errorf("Center failed: expected %v, got %v", expected, center)
	}
}

func TestTriangleIntersect(t *testing.T) {
	tri := NewTriangle(
		NewVector3(0, 0, 1),
		NewVector3(0, 0, 0),
		NewVector3(3, 0, 0),
		NewVector3(0, 4, 0),
	)
	down := NewVector3(0, 0, -1)

	tests := []struct {
		name     string
		ray      Ray
		hit      bool
		distance float64
	}{
		{"interior", NewRay(NewVector3(1, 1, 5), down), true, 5},
		{"on edge", NewRay(NewVector3(1.5, 0, 5), down), true, 5},
		{"on vertex", NewRay(NewVector3(0, 0, 2), down), true, 2},
		{"back face", NewRay(NewVector3(1, 1, -5), NewVector3(0, 0, 1)), true, 5},
		{"outside edge", NewRay(NewVector3(1.5, -0.01, 5), down), false, 0},
		{"outside hypotenuse", NewRay(NewVector3(2, 3, 5), down), false, 0},
		{"behind origin", NewRay(NewVector3(1, 1, 5), NewVector3(0, 0, 1)), false, 0},
		{"parallel", NewRay(NewVector3(-1, 1, 0), NewVector3(1, 0, 0)), false, 0},
		{"oblique", NewRay(NewVector3(1, 0, 3), NewVector3(0, 0.6, -0.8)), true, 3.75},
	}
	for _, tt := range tests {
		dist, ok := tri.Intersect(tt.ray)
		if ok != tt.hit {
			t.Errorf("%s: expected hit=%v, got %v", tt.name, tt.hit, ok)
			continue
		}
		if ok && math.Abs(dist-tt.distance) > 1e-10 {
			t.Errorf("%s: expected distance %v, got %v", tt.name, tt.distance, dist)
		}
	}
}
