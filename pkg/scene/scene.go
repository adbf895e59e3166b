// Package scene is an in-memory scene substrate: a flat arena of drawable
// nodes addressed by handles, with visibility flags, ray casting and a
// software rasterizer for views and six-way directional captures.
package scene

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/philipparndt/gobim/pkg/geometry"
)

var (
	// ErrUnknownHandle is returned for handles that were never issued or
	// whose node has been removed
	ErrUnknownHandle = errors.New("unknown scene handle")
	// ErrDisposed is returned when a resource is disposed twice
	ErrDisposed = errors.New("resource already disposed")
)

// Handle addresses a node in the arena. The zero handle is never issued.
// The low 32 bits index the slot and the high 32 bits carry the slot
// generation, so handles to removed nodes stay invalid after slot reuse.
type Handle uint64

// Valid reports whether h could refer to a node
func (h Handle) Valid() bool {
	return h != 0
}

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

func (h Handle) index() uint32 {
	return uint32(h)
}

func (h Handle) generation() uint32 {
	return uint32(h >> 32)
}

// Kind identifies how a node is drawn
type Kind int

const (
	KindGroup Kind = iota
	KindMesh
	KindMarker
	KindLine
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindMesh:
		return "mesh"
	case KindMarker:
		return "marker"
	case KindLine:
		return "line"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is the description of a drawable. Parent is a handle, not a pointer.
type Node struct {
	Kind      Kind
	Name      string
	Parent    Handle
	Transform geometry.Matrix4
	Visible   bool

	// Mesh nodes
	Buffer   *Buffer
	Material *Material

	// Marker nodes are drawn as a cube of Size at the node origin, line
	// nodes as a segment From-To in the parent's space
	Color color.NRGBA
	Size  float64
	From  geometry.Vector3
	To    geometry.Vector3
}

// Overlay defaults for markers and lines
var (
	DefaultMarkerSize   = 0.25
	DefaultOverlayColor = color.NRGBA{R: 255, G: 64, B: 64, A: 255}
)

type slot struct {
	node  Node
	gen   uint32
	alive bool
}

// Scene owns the node arena and the resources uploaded through it
type Scene struct {
	slots      []slot
	free       []uint32
	liveBuffer int
	liveMats   int

	// Background fills pixels no geometry covers
	Background color.RGBA
}

// New creates an empty scene
func New() *Scene {
	return &Scene{
		Background: color.RGBA{R: 15, G: 18, B: 25, A: 255},
	}
}

// AddNode inserts a node and returns its handle
func (s *Scene) AddNode(n Node) (Handle, error) {
	if n.Parent.Valid() {
		if _, err := s.lookup(n.Parent); err != nil {
			return 0, fmt.Errorf("parent: %w", err)
		}
	}
	if n.Transform == (geometry.Matrix4{}) {
		n.Transform = geometry.Identity()
	}
	if n.Kind == KindMarker {
		if n.Buffer == nil {
			n.Buffer = newBuffer(markerCube)
		}
		if n.Size == 0 {
			n.Size = DefaultMarkerSize
		}
	}
	if (n.Kind == KindMarker || n.Kind == KindLine) && n.Color == (color.NRGBA{}) {
		n.Color = DefaultOverlayColor
	}

	var index uint32
	if len(s.free) > 0 {
		index = s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
	} else {
		s.slots = append(s.slots, slot{})
		index = uint32(len(s.slots) - 1)
	}

	sl := &s.slots[index]
	sl.gen++
	sl.alive = true
	sl.node = n
	return makeHandle(index, sl.gen), nil
}

// RemoveNode removes a node and all of its descendants. Resources attached
// to removed nodes are not disposed; their owner does that.
func (s *Scene) RemoveNode(h Handle) error {
	if _, err := s.lookup(h); err != nil {
		return err
	}
	for _, child := range s.Children(h) {
		if err := s.RemoveNode(child); err != nil {
			return err
		}
	}
	index := h.index()
	s.slots[index].alive = false
	s.slots[index].node = Node{}
	s.free = append(s.free, index)
	return nil
}

// Node returns a copy of the node stored under h
func (s *Scene) Node(h Handle) (Node, error) {
	sl, err := s.lookup(h)
	if err != nil {
		return Node{}, err
	}
	return sl.node, nil
}

// Contains reports whether h refers to a live node
func (s *Scene) Contains(h Handle) bool {
	_, err := s.lookup(h)
	return err == nil
}

// SetVisible sets the visibility flag of a node
func (s *Scene) SetVisible(h Handle, visible bool) error {
	sl, err := s.lookup(h)
	if err != nil {
		return err
	}
	sl.node.Visible = visible
	return nil
}

// Visible returns the node's own visibility flag
func (s *Scene) Visible(h Handle) (bool, error) {
	sl, err := s.lookup(h)
	if err != nil {
		return false, err
	}
	return sl.node.Visible, nil
}

// EffectivelyVisible reports whether the node and all its ancestors are visible
func (s *Scene) EffectivelyVisible(h Handle) bool {
	for h.Valid() {
		sl, err := s.lookup(h)
		if err != nil || !sl.node.Visible {
			return false
		}
		h = sl.node.Parent
	}
	return true
}

// SetTransform replaces the node's local transform
func (s *Scene) SetTransform(h Handle, m geometry.Matrix4) error {
	sl, err := s.lookup(h)
	if err != nil {
		return err
	}
	sl.node.Transform = m
	return nil
}

// SetMaterial replaces the material of a mesh node
func (s *Scene) SetMaterial(h Handle, m *Material) error {
	sl, err := s.lookup(h)
	if err != nil {
		return err
	}
	sl.node.Material = m
	return nil
}

// WorldMatrix returns the product of the node's transform and all ancestors'
func (s *Scene) WorldMatrix(h Handle) (geometry.Matrix4, error) {
	sl, err := s.lookup(h)
	if err != nil {
		return geometry.Identity(), err
	}
	m := sl.node.Transform
	for parent := sl.node.Parent; parent.Valid(); {
		p, err := s.lookup(parent)
		if err != nil {
			return geometry.Identity(), err
		}
		m = p.node.Transform.Mul(m)
		parent = p.node.Parent
	}
	return m, nil
}

// Handles returns all live handles in arena order
func (s *Scene) Handles() []Handle {
	handles := make([]Handle, 0, len(s.slots))
	for i := range s.slots {
		if s.slots[i].alive {
			handles = append(handles, makeHandle(uint32(i), s.slots[i].gen))
		}
	}
	return handles
}

// Children returns the direct children of h in arena order
func (s *Scene) Children(h Handle) []Handle {
	var children []Handle
	for i := range s.slots {
		if s.slots[i].alive && s.slots[i].node.Parent == h {
			children = append(children, makeHandle(uint32(i), s.slots[i].gen))
		}
	}
	return children
}

// Len returns the number of live nodes
func (s *Scene) Len() int {
	return len(s.slots) - len(s.free)
}

func (s *Scene) lookup(h Handle) (*slot, error) {
	index := h.index()
	if !h.Valid() || int(index) >= len(s.slots) {
		return nil, fmt.Errorf("%w: %#x", ErrUnknownHandle, uint64(h))
	}
	sl := &s.slots[index]
	if !sl.alive || sl.gen != h.generation() {
		return nil, fmt.Errorf("%w: %#x", ErrUnknownHandle, uint64(h))
	}
	return sl, nil
}
