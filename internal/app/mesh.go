package app

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
	"github.com/philipparndt/gobim/pkg/scene"
)

var xAxis = geometry.NewVector3(1, 0, 0)

// meshData expands indexed geometry into flat shaded triangles with the
// lighting baked into the vertex colors
func meshData(g *mesh.Geometry, base color.NRGBA) (vertices, normals []float32, colors []uint8) {
	triangles := g.TriangleCount()
	vertices = make([]float32, 0, triangles*9)
	normals = make([]float32, 0, triangles*9)
	colors = make([]uint8, 0, triangles*12)

	for i := 0; i < triangles; i++ {
		tri := g.Triangle(i)
		normal := tri.Normal
		lit := scene.Shade(base, normal)
		for _, v := range []geometry.Vector3{tri.V1, tri.V2, tri.V3} {
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, float32(normal.X), float32(normal.Y), float32(normal.Z))
			colors = append(colors, lit.R, lit.G, lit.B, lit.A)
		}
	}
	return vertices, normals, colors
}

// uploadMesh converts geometry to a raylib mesh and uploads it
func uploadMesh(g *mesh.Geometry, base color.NRGBA) rl.Mesh {
	vertices, normals, colors := meshData(g, base)
	vertexCount := len(vertices) / 3
	texcoords := make([]float32, vertexCount*2)

	m := rl.Mesh{
		VertexCount:   int32(vertexCount),
		TriangleCount: int32(vertexCount / 3),
	}
	if vertexCount > 0 {
		m.Vertices = &vertices[0]
		m.Normals = &normals[0]
		m.Texcoords = &texcoords[0]
		m.Colors = &colors[0]
	}
	rl.UploadMesh(&m, false)
	return m
}

// meshFor returns the GPU mesh of a buffer in a color, uploading it on
// first use
func (d *ModelData) meshFor(buf *scene.Buffer, c color.NRGBA) rl.Mesh {
	key := meshKey{buffer: buf, color: c}
	if m, ok := d.meshes[key]; ok {
		return m
	}
	m := uploadMesh(buf.Geometry(), c)
	d.meshes[key] = m
	return m
}

// sweep unloads every mesh not in used. Disposed buffers are never used,
// so their meshes go here.
func (d *ModelData) sweep(used map[meshKey]bool) int {
	n := 0
	for key, m := range d.meshes {
		if used[key] {
			continue
		}
		rl.UnloadMesh(&m)
		delete(d.meshes, key)
		n++
	}
	return n
}

func (d *ModelData) unloadAll() {
	d.sweep(nil)
}

// toMatrix converts a row-major matrix to raylib's column-major layout
func toMatrix(m geometry.Matrix4) rl.Matrix {
	f := func(i int) float32 { return float32(m[i]) }
	return rl.Matrix{
		M0: f(0), M4: f(1), M8: f(2), M12: f(3),
		M1: f(4), M5: f(5), M9: f(6), M13: f(7),
		M2: f(8), M6: f(9), M10: f(10), M14: f(11),
		M3: f(12), M7: f(13), M11: f(14), M15: f(15),
	}
}

func toVector(v geometry.Vector3) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

func fromVector(v rl.Vector3) geometry.Vector3 {
	return geometry.NewVector3(float64(v.X), float64(v.Y), float64(v.Z))
}

// toCamera converts a view to a raylib camera. Perspective views store the
// tangent of the half field of view; orthographic ones the half height in
// world units, which raylib expects doubled in Fovy. A negative orthographic
// near plane moves the raylib eye back, since raylib clips at a fixed near
// distance in front of the eye.
func toCamera(v scene.View) rl.Camera3D {
	cam := rl.Camera3D{
		Position:   toVector(v.Eye),
		Target:     toVector(v.Eye.Add(v.Forward)),
		Up:         toVector(v.Down.Mul(-1)),
		Fovy:       float32(geometry.RadToDeg(2 * math.Atan(v.HalfHeight))),
		Projection: rl.CameraPerspective,
	}
	if v.Orthographic {
		cam.Fovy = float32(2 * v.HalfHeight)
		cam.Projection = rl.CameraOrthographic
		if v.Near < 0 {
			cam.Position = toVector(v.Eye.Add(v.Forward.Mul(v.Near)))
		}
	}
	return cam
}

// nearestHit returns the closest hit of a frame's collisions
func nearestHit(hits []rl.RayCollision) (rl.RayCollision, bool) {
	var best rl.RayCollision
	found := false
	for _, h := range hits {
		if !h.Hit {
			continue
		}
		if !found || h.Distance < best.Distance {
			best = h
			found = true
		}
	}
	return best, found
}
