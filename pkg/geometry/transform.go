package geometry

import "math"

// Transform is a position / rotation / scale decomposition of an affine matrix
type Transform struct {
	Position Vector3
	Rotation Quaternion
	Scale    Vector3
}

// IdentityTransform returns a transform that leaves points unchanged
func IdentityTransform() Transform {
	return Transform{
		Rotation: IdentityQuaternion(),
		Scale:    NewVector3(1, 1, 1),
	}
}

// Matrix composes translate * rotate * scale
func (t Transform) Matrix() Matrix4 {
	m := t.Rotation.Normalize().Matrix()
	for r := 0; r < 3; r++ {
		m[r*4+0] *= t.Scale.X
		m[r*4+1] *= t.Scale.Y
		m[r*4+2] *= t.Scale.Z
	}
	m[3], m[7], m[11] = t.Position.X, t.Position.Y, t.Position.Z
	return m
}

// Decompose splits an affine matrix without shear into position, rotation
// and scale. A negative determinant is folded into the X scale.
func Decompose(m Matrix4) Transform {
	sx := NewVector3(m[0], m[4], m[8]).Length()
	sy := NewVector3(m[1], m[5], m[9]).Length()
	sz := NewVector3(m[2], m[6], m[10]).Length()
	if m.Determinant3() < 0 {
		sx = -sx
	}

	rot := Identity()
	if sx != 0 && sy != 0 && sz != 0 {
		for r := 0; r < 3; r++ {
			rot[r*4+0] = m[r*4+0] / sx
			rot[r*4+1] = m[r*4+1] / sy
			rot[r*4+2] = m[r*4+2] / sz
		}
	}

	return Transform{
		Position: m.Position(),
		Rotation: QuaternionFromMatrix(rot).Normalize(),
		Scale:    NewVector3(sx, sy, sz),
	}
}

// ApproxEqual compares the composed matrices of two transforms
func (t Transform) ApproxEqual(other Transform, tol float64) bool {
	return t.Matrix().ApproxEqual(other.Matrix(), tol)
}

// DegToRad converts degrees to radians
func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadToDeg converts radians to degrees
func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
