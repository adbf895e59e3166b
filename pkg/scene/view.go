package scene

import (
	"math"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// View describes a camera as an orthonormal basis. Right x Down = Forward,
// so screen x grows along Right and screen y along Down.
type View struct {
	Eye     geometry.Vector3
	Forward geometry.Vector3
	Right   geometry.Vector3
	Down    geometry.Vector3

	// Orthographic selects parallel projection. HalfWidth and HalfHeight
	// are world extents in that mode and tangents of the half field of
	// view otherwise.
	Orthographic bool
	HalfWidth    float64
	HalfHeight   float64
	Near         float64
}

// LookAt builds a perspective view from eye towards target
func LookAt(eye, target, up geometry.Vector3, fovY, aspect float64) View {
	v := basis(eye, target, up)
	v.HalfHeight = math.Tan(fovY / 2)
	v.HalfWidth = v.HalfHeight * aspect
	v.Near = 0.01
	return v
}

// OrthoLookAt builds a parallel view from eye towards target covering
// halfWidth x halfHeight world units on either side of the axis
func OrthoLookAt(eye, target, up geometry.Vector3, halfWidth, halfHeight float64) View {
	v := basis(eye, target, up)
	v.Orthographic = true
	v.HalfWidth = halfWidth
	v.HalfHeight = halfHeight
	v.Near = 0.01
	return v
}

func basis(eye, target, up geometry.Vector3) View {
	forward := target.Sub(eye).Normalize()
	right := forward.Cross(up)
	if right.Length() < 1e-9 {
		// up is parallel to the view direction, pick any perpendicular
		right = forward.Cross(geometry.NewVector3(0, 0, -1))
		if right.Length() < 1e-9 {
			right = forward.Cross(geometry.NewVector3(1, 0, 0))
		}
	}
	right = right.Normalize()
	return View{
		Eye:     eye,
		Forward: forward,
		Right:   right,
		Down:    forward.Cross(right),
	}
}

// Matrix returns the world-to-camera matrix. Camera space x, y, z run along
// Right, Down and Forward.
func (v View) Matrix() geometry.Matrix4 {
	return geometry.Matrix4{
		v.Right.X, v.Right.Y, v.Right.Z, -v.Right.Dot(v.Eye),
		v.Down.X, v.Down.Y, v.Down.Z, -v.Down.Dot(v.Eye),
		v.Forward.X, v.Forward.Y, v.Forward.Z, -v.Forward.Dot(v.Eye),
		0, 0, 0, 1,
	}
}

// Project maps a camera space point to screen coordinates and a depth key
// that grows towards the viewer and interpolates linearly across the screen
func (v View) Project(c geometry.Vector3, width, height int) (x, y, depth float64) {
	var ndcX, ndcY float64
	if v.Orthographic {
		ndcX = c.X / v.HalfWidth
		ndcY = c.Y / v.HalfHeight
		depth = -c.Z
	} else {
		ndcX = c.X / (c.Z * v.HalfWidth)
		ndcY = c.Y / (c.Z * v.HalfHeight)
		depth = 1 / c.Z
	}
	x = (ndcX + 1) / 2 * float64(width)
	y = (ndcY + 1) / 2 * float64(height)
	return x, y, depth
}

// Unproject returns the world ray through the screen position (x, y)
func (v View) Unproject(x, y float64, width, height int) geometry.Ray {
	ndcX := x/float64(width)*2 - 1
	ndcY := y/float64(height)*2 - 1
	if v.Orthographic {
		origin := v.Eye.
			Add(v.Right.Mul(ndcX * v.HalfWidth)).
			Add(v.Down.Mul(ndcY * v.HalfHeight))
		return geometry.NewRay(origin, v.Forward)
	}
	dir := v.Forward.
		Add(v.Right.Mul(ndcX * v.HalfWidth)).
		Add(v.Down.Mul(ndcY * v.HalfHeight))
	return geometry.NewRay(v.Eye, dir)
}

// Face is one of the six axis-aligned capture directions
type Face int

const (
	FacePosX Face = iota
	FaceNegX
	FacePosY
	FaceNegY
	FacePosZ
	FaceNegZ
)

// Faces lists the capture order
var Faces = [6]Face{FacePosX, FaceNegX, FacePosY, FaceNegY, FacePosZ, FaceNegZ}

func (f Face) String() string {
	return [...]string{"+x", "-x", "+y", "-y", "+z", "-z"}[f]
}

type faceBasis struct {
	forward, right, down geometry.Vector3
}

var faceBases = [6]faceBasis{
	FacePosX: {geometry.NewVector3(1, 0, 0), geometry.NewVector3(0, 0, 1), geometry.NewVector3(0, -1, 0)},
	FaceNegX: {geometry.NewVector3(-1, 0, 0), geometry.NewVector3(0, 0, -1), geometry.NewVector3(0, -1, 0)},
	FacePosY: {geometry.NewVector3(0, 1, 0), geometry.NewVector3(1, 0, 0), geometry.NewVector3(0, 0, -1)},
	FaceNegY: {geometry.NewVector3(0, -1, 0), geometry.NewVector3(1, 0, 0), geometry.NewVector3(0, 0, 1)},
	FacePosZ: {geometry.NewVector3(0, 0, 1), geometry.NewVector3(-1, 0, 0), geometry.NewVector3(0, -1, 0)},
	FaceNegZ: {geometry.NewVector3(0, 0, -1), geometry.NewVector3(1, 0, 0), geometry.NewVector3(0, -1, 0)},
}

// Basis returns the forward, right and down axes of the face. A face pixel
// at normalized coordinates (u, v) in [-1, 1] looks along
// forward + u*right + v*down.
func (f Face) Basis() (forward, right, down geometry.Vector3) {
	b := faceBases[f]
	return b.forward, b.right, b.down
}

// FaceView returns the 90 degree square view of face f from point
func FaceView(point geometry.Vector3, f Face) View {
	forward, right, down := f.Basis()
	return View{
		Eye:        point,
		Forward:    forward,
		Right:      right,
		Down:       down,
		HalfWidth:  1,
		HalfHeight: 1,
		Near:       0.01,
	}
}
