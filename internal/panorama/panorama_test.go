package panorama

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
	"github.com/philipparndt/gobim/pkg/scene"
)

var faceColors = [6]color.RGBA{
	scene.FacePosX: {R: 255, A: 255},
	scene.FaceNegX: {G: 255, A: 255},
	scene.FacePosY: {B: 255, A: 255},
	scene.FaceNegY: {R: 255, G: 255, A: 255},
	scene.FacePosZ: {R: 255, B: 255, A: 255},
	scene.FaceNegZ: {G: 255, B: 255, A: 255},
}

func solidFaces(size int, alpha uint8) [6]image.Image {
	var faces [6]image.Image
	for i, c := range faceColors {
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		c.A = alpha
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		faces[i] = img
	}
	return faces
}

func TestFaceMappingRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		d := geometry.NewVector3(rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()).Normalize()
		face, u, v := DirectionToFace(d)
		require.LessOrEqual(t, math.Abs(u), 1.0+1e-12)
		require.LessOrEqual(t, math.Abs(v), 1.0+1e-12)

		back := FaceToDirection(face, u, v)
		require.InDelta(t, 0, back.Distance(d), 1e-9, "direction %v face %s", d, face)
	}
}

func TestFaceCentersMapToAxes(t *testing.T) {
	for _, f := range scene.Faces {
		forward, _, _ := f.Basis()
		face, u, v := DirectionToFace(forward)
		assert.Equal(t, f, face)
		assert.InDelta(t, 0, u, 1e-12)
		assert.InDelta(t, 0, v, 1e-12)
	}
}

func TestDirection(t *testing.T) {
	d := Direction(50, 25, 100, 50, 0)
	assert.InDelta(t, 1, d.X, 1e-12)
	assert.InDelta(t, 0, d.Y, 1e-12)

	up := Direction(10, 0, 100, 50, 0)
	assert.InDelta(t, 1, up.Y, 1e-12)

	yawed := Direction(50, 25, 100, 50, math.Pi/2)
	assert.InDelta(t, 1, yawed.Z, 1e-12)
}

func TestRemapSelectsFaces(t *testing.T) {
	out, err := Remap(solidFaces(8, 0), 64, 32, 0)
	require.NoError(t, err)

	opaque := func(c color.RGBA) color.RGBA {
		c.A = 255
		return c
	}
	assert.Equal(t, opaque(faceColors[scene.FacePosX]), out.RGBAAt(32, 16))
	assert.Equal(t, opaque(faceColors[scene.FaceNegX]), out.RGBAAt(0, 16))
	assert.Equal(t, opaque(faceColors[scene.FaceNegZ]), out.RGBAAt(16, 16))
	assert.Equal(t, opaque(faceColors[scene.FacePosZ]), out.RGBAAt(48, 16))
	assert.Equal(t, opaque(faceColors[scene.FacePosY]), out.RGBAAt(5, 0))
	assert.Equal(t, opaque(faceColors[scene.FaceNegY]), out.RGBAAt(5, 31))
}

func TestRemapRejectsBadFaces(t *testing.T) {
	faces := solidFaces(8, 255)
	faces[2] = image.NewRGBA(image.Rect(0, 0, 8, 4))
	_, err := Remap(faces, 16, 8, 0)
	assert.ErrorIs(t, err, ErrInvalidFaces)

	faces = solidFaces(8, 255)
	faces[5] = nil
	_, err = Remap(faces, 16, 8, 0)
	assert.ErrorIs(t, err, ErrInvalidFaces)

	_, err = Remap(solidFaces(8, 255), 0, 8, 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRemapAcceptsOtherImageTypes(t *testing.T) {
	var faces [6]image.Image
	for i := range faces {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i * 40)
			img.Pix[p+3] = 255
		}
		faces[i] = img
	}
	out, err := Remap(faces, 16, 8, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(int(scene.FaceNegX)*40), out.RGBAAt(0, 4).R)
	assert.Equal(t, uint8(255), out.RGBAAt(0, 4).A)
}

type representation struct {
	truth  []scene.Handle
	hidden []scene.Handle
}

func (r representation) GroundTruth() []scene.Handle { return r.truth }
func (r representation) Hidden() []scene.Handle      { return r.hidden }

type fixture struct {
	scene  *scene.Scene
	truth  scene.Handle
	detail scene.Handle
	marker scene.Handle
	synth  *Synthesizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := scene.New()
	add := func(center geometry.Vector3, visible bool) scene.Handle {
		buf, err := s.Upload(mesh.Cube(2))
		require.NoError(t, err)
		h, err := s.AddNode(scene.Node{
			Kind:      scene.KindMesh,
			Visible:   visible,
			Buffer:    buf,
			Material:  s.NewMaterial(color.NRGBA{R: 40, G: 200, B: 40, A: 255}),
			Transform: geometry.Translation(center),
		})
		require.NoError(t, err)
		return h
	}

	f := &fixture{scene: s}
	f.truth = add(geometry.NewVector3(6, 0, 0), false)
	f.detail = add(geometry.NewVector3(-6, 0, 0), true)
	marker, err := s.AddNode(scene.Node{Kind: scene.KindMarker, Visible: true, Size: 1, Transform: geometry.Translation(geometry.NewVector3(2, 0, 0))})
	require.NoError(t, err)
	f.marker = marker

	f.synth = New(s, representation{truth: []scene.Handle{f.truth}, hidden: []scene.Handle{f.detail}}, Options{
		Transient: func() []scene.Handle { return []scene.Handle{f.marker} },
	})
	return f
}

func TestCaptureUsesGroundTruthAndRestores(t *testing.T) {
	f := newFixture(t)
	img, err := f.synth.Capture(Request{FaceResolution: 32, Width: 64, Height: 32})
	require.NoError(t, err)

	bg := f.scene.Background
	front := img.RGBAAt(32, 16)
	assert.NotEqual(t, bg, front, "ground truth is drawn")
	assert.NotEqual(t, color.RGBA{R: 255, G: 64, B: 64, A: 255}, front, "marker is hidden")
	assert.Equal(t, bg, img.RGBAAt(0, 16), "inactive representation is hidden")

	visible := func(h scene.Handle) bool {
		v, err := f.scene.Visible(h)
		require.NoError(t, err)
		return v
	}
	assert.False(t, visible(f.truth))
	assert.True(t, visible(f.detail))
	assert.True(t, visible(f.marker))
}

func TestCaptureIsDeterministic(t *testing.T) {
	f := newFixture(t)
	req := Request{Viewpoint: geometry.NewVector3(0, 0.5, 0.3), Yaw: 0.4, FaceResolution: 24, Width: 96, Height: 48}
	first, err := f.synth.Capture(req)
	require.NoError(t, err)
	second, err := f.synth.Capture(req)
	require.NoError(t, err)
	assert.Equal(t, first.Pix, second.Pix)
}

func TestCaptureEmptySceneIsUniform(t *testing.T) {
	s := scene.New()
	synth := New(s, nil, Options{})
	img, err := synth.Capture(Request{FaceResolution: 8, Width: 32, Height: 16})
	require.NoError(t, err)
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			require.Equal(t, s.Background, img.RGBAAt(x, y))
		}
	}
}

func TestCaptureRejectsInvalidRequest(t *testing.T) {
	synth := New(scene.New(), nil, Options{})
	_, err := synth.Capture(Request{FaceResolution: 0, Width: 32, Height: 16})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSaveAndLoad(t *testing.T) {
	img, err := Remap(solidFaces(4, 255), 16, 8, 0)
	require.NoError(t, err)
	dir := t.TempDir()

	for _, name := range []string{"pano.png", "pano.bmp", "pano.jpg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, img), name)
		loaded, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, img.Bounds(), loaded.Bounds(), name)
	}

	png, err := Load(filepath.Join(dir, "pano.png"))
	require.NoError(t, err)
	r, g, b, a := png.At(8, 4).RGBA()
	er, eg, eb, ea := img.At(8, 4).RGBA()
	assert.Equal(t, []uint32{er, eg, eb, ea}, []uint32{r, g, b, a})

	assert.Error(t, Save(filepath.Join(dir, "pano.tiff"), img))
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	thumb := Thumbnail(img, 50)
	assert.Equal(t, 50, thumb.Bounds().Dx())
	assert.Equal(t, 25, thumb.Bounds().Dy())
	assert.Equal(t, "out/pano.thumb.png", ThumbnailPath("out/pano.png"))
}
