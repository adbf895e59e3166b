package scene

import (
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/gobim/pkg/geometry"
)

var (
	defaultColor = color.NRGBA{R: 180, G: 180, B: 180, A: 255}
	lightDir     = geometry.NewVector3(0.3, 1, 0.5).Normalize()
)

const ambient = 0.35

// camVertex is a vertex in camera space plus its world position
type camVertex struct {
	cam   geometry.Vector3
	world geometry.Vector3
}

// Render draws all effectively visible nodes into a new image
func (s *Scene) Render(v View, width, height int) *image.RGBA {
	t := newTarget(width, height, s.Background)
	s.draw(t, v)
	return t.img
}

// CaptureDirectional renders the six axis-aligned 90 degree views from
// point, in the order of Faces, each resolution x resolution pixels
func (s *Scene) CaptureDirectional(point geometry.Vector3, resolution int) [6]*image.RGBA {
	var faces [6]*image.RGBA
	for _, f := range Faces {
		faces[f] = s.Render(FaceView(point, f), resolution, resolution)
	}
	return faces
}

func (s *Scene) draw(t *target, v View) {
	viewMatrix := v.Matrix()
	var lines []Drawable

	for _, d := range s.Drawables() {
		switch d.Kind {
		case KindMesh, KindMarker:
			s.drawMesh(t, v, viewMatrix, d.World, d.Buffer, d.Color, d.Kind == KindMesh)
		case KindLine:
			lines = append(lines, d)
		}
	}

	// Lines are overlays and go last
	for _, d := range lines {
		m := viewMatrix.Mul(d.World)
		a, b, ok := clipSegment(m.TransformPoint(d.From), m.TransformPoint(d.To), v.Near)
		if !ok {
			continue
		}
		x1, y1, _ := v.Project(a, t.width, t.height)
		x2, y2, _ := v.Project(b, t.width, t.height)
		t.drawLine(int(math.Floor(x1)), int(math.Floor(y1)), int(math.Floor(x2)), int(math.Floor(y2)), toRGBA(d.Color))
	}
}

func (s *Scene) drawMesh(t *target, v View, viewMatrix, world geometry.Matrix4, buf *Buffer, base color.NRGBA, lit bool) {
	g := buf.Geometry()
	camMatrix := viewMatrix.Mul(world)

	verts := make([]camVertex, g.VertexCount())
	for i := range verts {
		p := g.Vertex(uint32(i))
		verts[i] = camVertex{cam: camMatrix.TransformPoint(p), world: world.TransformPoint(p)}
	}

	var poly [4]geometry.Vector3
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a, b, c := verts[g.Indices[i]], verts[g.Indices[i+1]], verts[g.Indices[i+2]]

		col := toRGBA(base)
		if lit {
			normal := b.world.Sub(a.world).Cross(c.world.Sub(a.world)).Normalize()
			col = Shade(base, normal)
		}

		n := clipNear([3]geometry.Vector3{a.cam, b.cam, c.cam}, v.Near, &poly)
		if n < 3 {
			continue
		}
		var sv [4]screenVertex
		for k := 0; k < n; k++ {
			x, y, z := v.Project(poly[k], t.width, t.height)
			sv[k] = screenVertex{x: x, y: y, z: z}
		}
		t.fillTriangle(sv[0], sv[1], sv[2], col)
		if n == 4 {
			t.fillTriangle(sv[0], sv[2], sv[3], col)
		}
	}
}

// Shade applies double-sided Lambert lighting to a flat color
func Shade(base color.NRGBA, normal geometry.Vector3) color.RGBA {
	intensity := ambient + (1-ambient)*math.Abs(normal.Dot(lightDir))
	scale := func(c uint8) uint8 {
		return uint8(math.Min(255, math.Round(float64(c)*intensity)))
	}
	return color.RGBA{R: scale(base.R), G: scale(base.G), B: scale(base.B), A: base.A}
}

func toRGBA(c color.NRGBA) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// clipNear clips a camera space triangle against z >= near and writes the
// resulting convex polygon (3 or 4 vertices) into out
func clipNear(tri [3]geometry.Vector3, near float64, out *[4]geometry.Vector3) int {
	n := 0
	for i := 0; i < 3; i++ {
		cur := tri[i]
		next := tri[(i+1)%3]
		curIn := cur.Z >= near
		nextIn := next.Z >= near
		if curIn {
			if n == 4 {
				return n
			}
			out[n] = cur
			n++
		}
		if curIn != nextIn {
			if n == 4 {
				return n
			}
			s := (near - cur.Z) / (next.Z - cur.Z)
			out[n] = cur.Lerp(next, s)
			n++
		}
	}
	return n
}

// clipSegment clips a camera space segment against z >= near
func clipSegment(a, b geometry.Vector3, near float64) (geometry.Vector3, geometry.Vector3, bool) {
	aIn, bIn := a.Z >= near, b.Z >= near
	switch {
	case aIn && bIn:
		return a, b, true
	case !aIn && !bIn:
		return a, b, false
	case aIn:
		return a, a.Lerp(b, (near-a.Z)/(b.Z-a.Z)), true
	default:
		return b.Lerp(a, (near-b.Z)/(a.Z-b.Z)), b, true
	}
}
