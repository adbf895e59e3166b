package scene

import (
	"math"
	"sort"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// Hit is the nearest intersection of a ray with one node
type Hit struct {
	Handle   Handle
	Distance float64
	Point    geometry.Vector3
	Triangle int
}

// Filter selects nodes considered by Raycast
type Filter func(h Handle, n Node) bool

// Raycast intersects the ray with mesh nodes and returns one hit per node,
// nearest first. A nil filter selects effectively visible mesh nodes.
func (s *Scene) Raycast(ray geometry.Ray, filter Filter) []Hit {
	var hits []Hit
	for _, h := range s.Handles() {
		sl, _ := s.lookup(h)
		n := sl.node
		if n.Kind != KindMesh || n.Buffer == nil || n.Buffer.Disposed() {
			continue
		}
		if filter == nil {
			if !s.EffectivelyVisible(h) {
				continue
			}
		} else if !filter(h, n) {
			continue
		}

		world, err := s.WorldMatrix(h)
		if err != nil {
			continue
		}
		if !ray.IntersectBox(n.Buffer.Bounds().Transform(world)) {
			continue
		}

		if hit, ok := intersectBuffer(ray, n.Buffer, world); ok {
			hit.Handle = h
			hits = append(hits, hit)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}

func intersectBuffer(ray geometry.Ray, b *Buffer, world geometry.Matrix4) (Hit, bool) {
	g := b.Geometry()
	best := Hit{Distance: math.Inf(1), Triangle: -1}
	for i := 0; i < g.TriangleCount(); i++ {
		tri := g.Triangle(i)
		tri.V1 = world.TransformPoint(tri.V1)
		tri.V2 = world.TransformPoint(tri.V2)
		tri.V3 = world.TransformPoint(tri.V3)
		if d, ok := tri.Intersect(ray); ok && d < best.Distance {
			best.Distance = d
			best.Triangle = i
		}
	}
	if best.Triangle < 0 {
		return Hit{}, false
	}
	best.Point = ray.At(best.Distance)
	return best, true
}
