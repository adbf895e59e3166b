package geometry

import "math"

// Ray is a half-line starting at Origin heading along the unit Direction
type Ray struct {
	Origin    Vector3
	Direction Vector3
}

// NewRay creates a ray, normalizing the direction
func NewRay(origin, direction Vector3) Ray {
	return Ray{Origin: origin, Direction: direction.Normalize()}
}

// At returns the point at distance t along the ray
func (r Ray) At(t float64) Vector3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectBox reports whether the ray hits the box, using the slab method
func (r Ray) IntersectBox(b BoundingBox) bool {
	if b.IsEmpty() {
		return false
	}
	tMin, tMax := 0.0, math.Inf(1)
	origin := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-15 {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / dir[i]
		t2 := (hi[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return true
}
