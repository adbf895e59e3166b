package scene

import (
	"image/color"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// Drawable is an effectively visible node resolved for drawing
type Drawable struct {
	Handle Handle
	Kind   Kind
	// Buffer is nil for lines
	Buffer *Buffer
	// Color is the material color of meshes or the overlay color
	Color color.NRGBA
	// World includes the marker size for markers
	World    geometry.Matrix4
	From, To geometry.Vector3
}

// Drawables lists the nodes a frame draws, in handle order. Mesh nodes
// without a live buffer are skipped.
func (s *Scene) Drawables() []Drawable {
	var out []Drawable
	for _, h := range s.Handles() {
		if !s.EffectivelyVisible(h) {
			continue
		}
		sl, _ := s.lookup(h)
		n := sl.node
		world, err := s.WorldMatrix(h)
		if err != nil {
			continue
		}

		d := Drawable{Handle: h, Kind: n.Kind, World: world}
		switch n.Kind {
		case KindMesh:
			if n.Buffer == nil || n.Buffer.Disposed() {
				continue
			}
			d.Buffer = n.Buffer
			d.Color = defaultColor
			if n.Material != nil && !n.Material.Disposed() {
				d.Color = n.Material.Color
			}
		case KindMarker:
			d.Buffer = n.Buffer
			d.Color = n.Color
			d.World = world.Mul(geometry.UniformScaling(n.Size))
		case KindLine:
			d.Color = n.Color
			d.From, d.To = n.From, n.To
		default:
			continue
		}
		out = append(out, d)
	}
	return out
}
