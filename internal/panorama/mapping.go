package panorama

import (
	"fmt"
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/scene"
)

// Direction returns the unit view direction of equirectangular pixel
// (x, y) in a width x height image. Latitude 0 is straight up.
func Direction(x, y, width, height int, yaw float64) geometry.Vector3 {
	lon := float64(x)/float64(width)*2*math.Pi - math.Pi + yaw
	lat := float64(y) / float64(height) * math.Pi
	sinLat := math.Sin(lat)
	return geometry.NewVector3(sinLat*math.Cos(lon), math.Cos(lat), sinLat*math.Sin(lon))
}

// DirectionToFace selects the cube face of the dominant axis and returns
// the in-face coordinates u, v in [-1, 1]. The face pixel at (u, v) looks
// along forward + u*right + v*down of the face's basis.
func DirectionToFace(d geometry.Vector3) (face scene.Face, u, v float64) {
	ax, ay, az := math.Abs(d.X), math.Abs(d.Y), math.Abs(d.Z)
	switch {
	case ax >= ay && ax >= az:
		if d.X > 0 {
			return scene.FacePosX, d.Z / ax, -d.Y / ax
		}
		return scene.FaceNegX, -d.Z / ax, -d.Y / ax
	case ay >= az:
		if d.Y > 0 {
			return scene.FacePosY, d.X / ay, -d.Z / ay
		}
		return scene.FaceNegY, d.X / ay, d.Z / ay
	default:
		if d.Z > 0 {
			return scene.FacePosZ, -d.X / az, -d.Y / az
		}
		return scene.FaceNegZ, d.X / az, -d.Y / az
	}
}

// FaceToDirection is the inverse of DirectionToFace
func FaceToDirection(face scene.Face, u, v float64) geometry.Vector3 {
	forward, right, down := face.Basis()
	return forward.Add(right.Mul(u)).Add(down.Mul(v)).Normalize()
}

// facePixel maps an in-face coordinate to a pixel index, nearest neighbor
func facePixel(c float64, size int) int {
	p := int(math.Floor((c + 1) / 2 * float64(size)))
	return max(0, min(size-1, p))
}

// Remap builds a width x height equirectangular image from six face
// captures ordered as scene.Faces. All faces must be square and of equal
// size. Output alpha is always opaque.
func Remap(faces [6]image.Image, width, height int, yaw float64) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: output %dx%d", ErrInvalidRequest, width, height)
	}
	var rgba [6]*image.RGBA
	size := 0
	for i, f := range faces {
		if f == nil {
			return nil, fmt.Errorf("%w: face %s missing", ErrInvalidFaces, scene.Faces[i])
		}
		b := f.Bounds()
		if b.Dx() != b.Dy() || b.Dx() == 0 || (size != 0 && b.Dx() != size) {
			return nil, fmt.Errorf("%w: face %s is %dx%d", ErrInvalidFaces, scene.Faces[i], b.Dx(), b.Dy())
		}
		size = b.Dx()
		if r, ok := f.(*image.RGBA); ok {
			rgba[i] = r
		} else {
			rgba[i] = clone.AsRGBA(f)
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			face, u, v := DirectionToFace(Direction(x, y, width, height, yaw))
			src := rgba[face]
			origin := src.Bounds().Min
			si := src.PixOffset(origin.X+facePixel(u, size), origin.Y+facePixel(v, size))
			di := out.PixOffset(x, y)
			out.Pix[di] = src.Pix[si]
			out.Pix[di+1] = src.Pix[si+1]
			out.Pix[di+2] = src.Pix[si+2]
			out.Pix[di+3] = 255
		}
	}
	return out, nil
}
