package scene

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
)

func addCube(t *testing.T, s *Scene, center geometry.Vector3, size float64) Handle {
	t.Helper()
	buf, err := s.Upload(mesh.Cube(size))
	require.NoError(t, err)
	h, err := s.AddNode(Node{
		Kind:      KindMesh,
		Transform: geometry.Translation(center),
		Visible:   true,
		Buffer:    buf,
		Material:  s.NewMaterial(color.NRGBA{R: 200, G: 100, B: 50, A: 255}),
	})
	require.NoError(t, err)
	return h
}

func TestHandlesAreGenerationChecked(t *testing.T) {
	s := New()
	h, err := s.AddNode(Node{Kind: KindGroup, Visible: true})
	require.NoError(t, err)
	assert.True(t, s.Contains(h))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.RemoveNode(h))
	assert.False(t, s.Contains(h))
	assert.ErrorIs(t, s.RemoveNode(h), ErrUnknownHandle)

	// The slot is reused, the old handle stays dead
	h2, err := s.AddNode(Node{Kind: KindGroup})
	require.NoError(t, err)
	assert.NotEqual(t, h, h2)
	assert.False(t, s.Contains(h))
	assert.True(t, s.Contains(h2))

	_, err = s.Node(0)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestRemoveNodeRemovesDescendants(t *testing.T) {
	s := New()
	root, _ := s.AddNode(Node{Kind: KindGroup, Visible: true})
	child, _ := s.AddNode(Node{Kind: KindGroup, Parent: root, Visible: true})
	grandchild, _ := s.AddNode(Node{Kind: KindGroup, Parent: child, Visible: true})
	other, _ := s.AddNode(Node{Kind: KindGroup, Visible: true})

	require.NoError(t, s.RemoveNode(root))
	assert.False(t, s.Contains(child))
	assert.False(t, s.Contains(grandchild))
	assert.True(t, s.Contains(other))
	assert.Equal(t, []Handle{other}, s.Handles())
}

func TestAddNodeRejectsUnknownParent(t *testing.T) {
	s := New()
	_, err := s.AddNode(Node{Kind: KindGroup, Parent: makeHandle(7, 1)})
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestWorldMatrixAndVisibility(t *testing.T) {
	s := New()
	root, _ := s.AddNode(Node{Kind: KindGroup, Visible: true, Transform: geometry.Translation(geometry.NewVector3(10, 0, 0))})
	child, _ := s.AddNode(Node{Kind: KindGroup, Parent: root, Visible: true, Transform: geometry.Translation(geometry.NewVector3(0, 2, 0))})

	m, err := s.WorldMatrix(child)
	require.NoError(t, err)
	assert.Equal(t, geometry.NewVector3(10, 2, 0), m.Position())

	assert.True(t, s.EffectivelyVisible(child))
	require.NoError(t, s.SetVisible(root, false))
	assert.False(t, s.EffectivelyVisible(child))
	visible, err := s.Visible(child)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestResourcesDisposeOnce(t *testing.T) {
	s := New()
	buf, err := s.Upload(mesh.Cube(1))
	require.NoError(t, err)
	mat := s.NewMaterial(color.NRGBA{A: 255})
	assert.Equal(t, 1, s.LiveBuffers())
	assert.Equal(t, 1, s.LiveMaterials())

	require.NoError(t, buf.Dispose())
	require.NoError(t, mat.Dispose())
	assert.ErrorIs(t, buf.Dispose(), ErrDisposed)
	assert.ErrorIs(t, mat.Dispose(), ErrDisposed)
	assert.Equal(t, 0, s.LiveBuffers())
	assert.Equal(t, 0, s.LiveMaterials())
}

func TestUploadRejectsMalformedGeometry(t *testing.T) {
	s := New()
	_, err := s.Upload(&mesh.Geometry{Positions: []float32{0, 0, 0}, Indices: []uint32{0, 1, 2}})
	assert.ErrorIs(t, err, mesh.ErrMalformed)
	assert.Equal(t, 0, s.LiveBuffers())
}

func TestRaycastSortsHitsByDistance(t *testing.T) {
	s := New()
	far := addCube(t, s, geometry.NewVector3(0, 0, -10), 1)
	near := addCube(t, s, geometry.NewVector3(0, 0, -5), 1)
	hidden := addCube(t, s, geometry.NewVector3(0, 0, -3), 1)
	require.NoError(t, s.SetVisible(hidden, false))

	hits := s.Raycast(geometry.NewRay(geometry.NewVector3(0.1, 0.2, 0), geometry.NewVector3(0, 0, -1)), nil)
	require.Len(t, hits, 2)
	assert.Equal(t, near, hits[0].Handle)
	assert.InDelta(t, 4.5, hits[0].Distance, 1e-9)
	assert.InDelta(t, -4.5, hits[0].Point.Z, 1e-9)
	assert.Equal(t, far, hits[1].Handle)
	assert.InDelta(t, 9.5, hits[1].Distance, 1e-9)

	all := s.Raycast(geometry.NewRay(geometry.NewVector3(0.1, 0.2, 0), geometry.NewVector3(0, 0, -1)), func(Handle, Node) bool { return true })
	require.Len(t, all, 3)
	assert.Equal(t, hidden, all[0].Handle)

	miss := s.Raycast(geometry.NewRay(geometry.Vector3{}, geometry.NewVector3(0, 1, 0)), nil)
	assert.Empty(t, miss)
}

func TestRenderEmptySceneIsBackground(t *testing.T) {
	s := New()
	img := s.Render(LookAt(geometry.NewVector3(0, 0, 5), geometry.Vector3{}, geometry.NewVector3(0, 1, 0), geometry.DegToRad(60), 1), 8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, s.Background, img.RGBAAt(x, y))
		}
	}
}

func TestRenderDrawsVisibleMesh(t *testing.T) {
	s := New()
	h := addCube(t, s, geometry.Vector3{}, 2)
	view := LookAt(geometry.NewVector3(0, 0, 5), geometry.Vector3{}, geometry.NewVector3(0, 1, 0), geometry.DegToRad(60), 1)

	img := s.Render(view, 32, 32)
	assert.NotEqual(t, s.Background, img.RGBAAt(16, 16))
	assert.Equal(t, s.Background, img.RGBAAt(0, 0))

	require.NoError(t, s.SetVisible(h, false))
	img = s.Render(view, 32, 32)
	assert.Equal(t, s.Background, img.RGBAAt(16, 16))
}

func TestRenderDepthOrder(t *testing.T) {
	s := New()
	buf, err := s.Upload(mesh.Cube(1))
	require.NoError(t, err)
	red := s.NewMaterial(color.NRGBA{R: 255, A: 255})
	blue := s.NewMaterial(color.NRGBA{B: 255, A: 255})

	// Near blue cube is added after the far red one and must win either way
	_, _ = s.AddNode(Node{Kind: KindMesh, Visible: true, Buffer: buf, Material: blue, Transform: geometry.Translation(geometry.NewVector3(0, 0, -3))})
	_, _ = s.AddNode(Node{Kind: KindMesh, Visible: true, Buffer: buf, Material: red, Transform: geometry.Translation(geometry.NewVector3(0, 0, -6))})

	view := LookAt(geometry.Vector3{}, geometry.NewVector3(0, 0, -1), geometry.NewVector3(0, 1, 0), geometry.DegToRad(60), 1)
	px := s.Render(view, 16, 16).RGBAAt(8, 8)
	assert.Zero(t, px.R)
	assert.NotZero(t, px.B)
}

func TestOrthographicTopView(t *testing.T) {
	s := New()
	addCube(t, s, geometry.NewVector3(5, 0, 0), 2)
	view := OrthoLookAt(geometry.NewVector3(0, 20, 0), geometry.Vector3{}, geometry.NewVector3(0, 0, -1), 10, 10)

	assert.Equal(t, geometry.NewVector3(1, 0, 0), view.Right)
	img := s.Render(view, 20, 20)
	// x = 5 maps to column 15
	assert.NotEqual(t, s.Background, img.RGBAAt(15, 10))
	assert.Equal(t, s.Background, img.RGBAAt(5, 10))
}

func TestCaptureDirectional(t *testing.T) {
	s := New()
	addCube(t, s, geometry.NewVector3(5, 0, 0), 1)

	faces := s.CaptureDirectional(geometry.Vector3{}, 16)
	for _, f := range Faces {
		require.NotNil(t, faces[f])
		assert.Equal(t, 16, faces[f].Bounds().Dx())
	}
	assert.NotEqual(t, s.Background, faces[FacePosX].RGBAAt(8, 8))
	assert.Equal(t, s.Background, faces[FaceNegX].RGBAAt(8, 8))
	assert.Equal(t, s.Background, faces[FacePosZ].RGBAAt(8, 8))
}

func TestFaceBasesAreRightHanded(t *testing.T) {
	for _, f := range Faces {
		forward, right, down := f.Basis()
		cross := right.Cross(down)
		assert.InDelta(t, forward.X, cross.X, 1e-12, f.String())
		assert.InDelta(t, forward.Y, cross.Y, 1e-12, f.String())
		assert.InDelta(t, forward.Z, cross.Z, 1e-12, f.String())
	}
}

func TestUnprojectCenterLooksForward(t *testing.T) {
	view := LookAt(geometry.NewVector3(0, 0, 5), geometry.Vector3{}, geometry.NewVector3(0, 1, 0), geometry.DegToRad(45), 2)
	ray := view.Unproject(50, 25, 100, 50)
	assert.InDelta(t, -1, ray.Direction.Z, 1e-12)

	x, y, _ := view.Project(view.Matrix().TransformPoint(ray.At(3)), 100, 50)
	assert.InDelta(t, 50, x, 1e-9)
	assert.InDelta(t, 25, y, 1e-9)
}

func TestClipNear(t *testing.T) {
	var out [4]geometry.Vector3
	n := clipNear([3]geometry.Vector3{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: -1}, {X: 0, Y: 1, Z: 1}}, 0.1, &out)
	assert.Equal(t, 4, n)
	for i := 0; i < n; i++ {
		assert.GreaterOrEqual(t, out[i].Z, 0.1-1e-12)
	}

	n = clipNear([3]geometry.Vector3{{Z: -1}, {X: 1, Z: -1}, {Y: 1, Z: -2}}, 0.1, &out)
	assert.Equal(t, 0, n)
}

func TestMarkersAndLinesRender(t *testing.T) {
	s := New()
	s.Background = color.RGBA{A: 255}
	_, err := s.AddNode(Node{Kind: KindMarker, Visible: true, Size: 1, Transform: geometry.Translation(geometry.NewVector3(0, 0, -5))})
	require.NoError(t, err)
	_, err = s.AddNode(Node{Kind: KindLine, Visible: true, From: geometry.NewVector3(-1, 0.5, -5), To: geometry.NewVector3(1, 0.5, -5)})
	require.NoError(t, err)

	view := LookAt(geometry.Vector3{}, geometry.NewVector3(0, 0, -1), geometry.NewVector3(0, 1, 0), geometry.DegToRad(60), 1)
	img := s.Render(view, 64, 64)
	assert.Equal(t, toRGBA(DefaultOverlayColor), img.RGBAAt(32, 32))
}

func TestSetMaterial(t *testing.T) {
	s := New()
	h := addCube(t, s, geometry.Vector3{}, 1)
	green := s.NewMaterial(color.NRGBA{G: 255, A: 255})
	require.NoError(t, s.SetMaterial(h, green))
	n, err := s.Node(h)
	require.NoError(t, err)
	assert.Same(t, green, n.Material)
	assert.ErrorIs(t, s.SetMaterial(0, green), ErrUnknownHandle)
}

func TestDrawablesResolveVisibleNodes(t *testing.T) {
	s := New()
	group, err := s.AddNode(Node{Kind: KindGroup, Visible: true, Transform: geometry.Translation(geometry.NewVector3(0, 5, 0))})
	require.NoError(t, err)

	buf, err := s.Upload(mesh.Cube(1))
	require.NoError(t, err)
	plain, err := s.AddNode(Node{Kind: KindMesh, Parent: group, Visible: true, Buffer: buf})
	require.NoError(t, err)
	colored := addCube(t, s, geometry.NewVector3(3, 0, 0), 1)
	marker, err := s.AddNode(Node{Kind: KindMarker, Visible: true, Size: 2, Transform: geometry.Translation(geometry.NewVector3(1, 0, 0))})
	require.NoError(t, err)
	line, err := s.AddNode(Node{Kind: KindLine, Visible: true, From: geometry.NewVector3(0, 0, 0), To: geometry.NewVector3(1, 1, 1)})
	require.NoError(t, err)

	hiddenBuf, err := s.Upload(mesh.Cube(1))
	require.NoError(t, err)
	_, err = s.AddNode(Node{Kind: KindMesh, Visible: false, Buffer: hiddenBuf})
	require.NoError(t, err)
	disposedBuf, err := s.Upload(mesh.Cube(1))
	require.NoError(t, err)
	_, err = s.AddNode(Node{Kind: KindMesh, Visible: true, Buffer: disposedBuf})
	require.NoError(t, err)
	require.NoError(t, disposedBuf.Dispose())

	drawables := s.Drawables()
	require.Len(t, drawables, 4)
	byHandle := make(map[Handle]Drawable)
	for _, d := range drawables {
		byHandle[d.Handle] = d
	}

	d := byHandle[plain]
	assert.Equal(t, KindMesh, d.Kind)
	assert.Same(t, buf, d.Buffer)
	assert.Equal(t, defaultColor, d.Color)
	assert.Equal(t, geometry.NewVector3(0, 5, 0), d.World.TransformPoint(geometry.Vector3{}))

	assert.Equal(t, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, byHandle[colored].Color)

	d = byHandle[marker]
	assert.Equal(t, DefaultOverlayColor, d.Color)
	assert.NotNil(t, d.Buffer)
	assert.Equal(t, geometry.NewVector3(2, 0, 0), d.World.TransformPoint(geometry.NewVector3(0.5, 0, 0)))

	d = byHandle[line]
	assert.Nil(t, d.Buffer)
	assert.Equal(t, geometry.NewVector3(1, 1, 1), d.To)

	// Hiding the parent hides the child
	require.NoError(t, s.SetVisible(group, false))
	for _, d := range s.Drawables() {
		assert.NotEqual(t, plain, d.Handle)
	}
}

func TestShadeIsDoubleSided(t *testing.T) {
	base := color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	up := Shade(base, geometry.NewVector3(0, 1, 0))
	down := Shade(base, geometry.NewVector3(0, -1, 0))
	assert.Equal(t, up, down)
	assert.Equal(t, uint8(255), up.A)
	assert.LessOrEqual(t, up.R, base.R)

	grazing := Shade(base, lightDir.Cross(geometry.NewVector3(1, 0, 0)).Normalize())
	assert.Equal(t, uint8(math.Round(200*ambient)), grazing.R)
}
