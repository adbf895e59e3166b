package session

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/philipparndt/gobim/internal/align"
	"github.com/philipparndt/gobim/internal/orbit"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/scene"
)

// PickMode decides what a click on the viewport does
type PickMode int

const (
	// PickNone focuses the camera on the clicked point
	PickNone PickMode = iota
	// PickAlignment collects alignment point pairs
	PickAlignment
	// PickPanorama captures a panorama at the clicked point
	PickPanorama
)

func (m PickMode) String() string {
	return [...]string{"none", "alignment", "panorama"}[m]
}

// EventKind classifies the outcome of a click
type EventKind int

const (
	EventNone EventKind = iota
	// EventMiss is a click that hit nothing pickable
	EventMiss
	EventFocus
	// EventAlignmentPoint is a stored alignment point; Role tells which
	EventAlignmentPoint
	EventAligned
	// EventAlignmentRejected carries the solver error in Err
	EventAlignmentRejected
	EventPanorama
)

func (k EventKind) String() string {
	return [...]string{"none", "miss", "focus", "alignment point", "aligned", "alignment rejected", "panorama"}[k]
}

// Event reports what a click did
type Event struct {
	Kind       EventKind
	Point      geometry.Vector3
	Role       align.Role
	Similarity align.Similarity
	Image      *image.RGBA
	Err        error
}

var (
	sourceColor = color.NRGBA{R: 255, G: 140, A: 255}
	targetColor = color.NRGBA{G: 200, B: 255, A: 255}
	pairColor   = color.NRGBA{R: 255, G: 220, A: 255}
	focusColor  = color.NRGBA{R: 255, G: 64, B: 64, A: 255}
)

type pickState struct {
	mode      PickMode
	pair      align.PointPair
	overlays  []scene.Handle
	eyeHeight float64
	yaw       float64
}

// PickMode returns the active pick mode
func (s *Session) PickMode() PickMode {
	return s.pick.mode
}

// AlignmentProgress returns the role the next alignment point fills
func (s *Session) AlignmentProgress() align.Role {
	return s.pick.pair.Next()
}

// BeginAlignment starts collecting alignment points. Sources are picked on
// the model, targets on the reference plane, alternating.
func (s *Session) BeginAlignment() error {
	if s.model == nil {
		return ErrNoModel
	}
	s.cancelPick()
	s.pick.mode = PickAlignment
	s.log.Debug("alignment picking started")
	return nil
}

// CancelAlignment drops the collected points and their markers. The model
// transform is not touched.
func (s *Session) CancelAlignment() error {
	if s.pick.mode != PickAlignment {
		return ErrWrongMode
	}
	s.cancelPick()
	return nil
}

// BeginPanoramaPick arms a single panorama capture at the next clicked
// point, raised by eyeHeight
func (s *Session) BeginPanoramaPick(eyeHeight, yaw float64) error {
	if s.model == nil {
		return ErrNoModel
	}
	s.cancelPick()
	s.pick.mode = PickPanorama
	s.pick.eyeHeight = eyeHeight
	s.pick.yaw = yaw
	return nil
}

// CancelPanoramaPick disarms a pending panorama capture
func (s *Session) CancelPanoramaPick() error {
	if s.pick.mode != PickPanorama {
		return ErrWrongMode
	}
	s.cancelPick()
	return nil
}

func (s *Session) cancelPick() {
	for _, h := range s.pick.overlays {
		if err := s.scene.RemoveNode(h); err != nil {
			s.log.Debug("overlay already gone", "error", err)
		}
	}
	s.pick = pickState{}
}

// AddAlignmentPoint stores the next alignment point. The fourth point
// solves and applies the alignment; picking ends either way.
func (s *Session) AddAlignmentPoint(p geometry.Vector3) (Event, error) {
	if s.pick.mode != PickAlignment {
		return Event{}, ErrWrongMode
	}
	role := s.pick.pair.Add(p)

	marker := sourceColor
	if !role.IsSource() {
		marker = targetColor
	}
	if err := s.addOverlay(scene.Node{
		Kind:      scene.KindMarker,
		Name:      role.String(),
		Transform: geometry.Translation(p),
		Visible:   true,
		Color:     marker,
		Size:      s.markerSize(),
	}); err != nil {
		return Event{}, err
	}
	if !role.IsSource() {
		source, _ := s.pick.pair.Point(role - 1)
		if err := s.addOverlay(scene.Node{
			Kind:    scene.KindLine,
			Name:    "pair",
			Visible: true,
			Color:   pairColor,
			From:    source,
			To:      p,
		}); err != nil {
			return Event{}, err
		}
	}

	if s.pick.pair.Next() != align.Complete {
		return Event{Kind: EventAlignmentPoint, Point: p, Role: role}, nil
	}

	pA, pB, pT1, pT2, err := s.pick.pair.Points()
	if err != nil {
		return Event{}, err
	}
	s.cancelPick()
	sim, err := s.SolveAlignment(pA, pB, pT1, pT2)
	if err != nil {
		s.log.Warn("alignment rejected", "error", err)
		return Event{Kind: EventAlignmentRejected, Point: p, Role: role, Err: err}, nil
	}
	return Event{Kind: EventAligned, Point: p, Role: role, Similarity: sim}, nil
}

func (s *Session) addOverlay(n scene.Node) error {
	h, err := s.scene.AddNode(n)
	if err != nil {
		return err
	}
	s.pick.overlays = append(s.pick.overlays, h)
	return nil
}

func (s *Session) markerSize() float64 {
	return s.camera.ModelSize() * 0.01
}

// PointerDown starts a camera gesture
func (s *Session) PointerDown(x, y float64, button orbit.Button, modifier bool) {
	s.camera.PointerDown(x, y, button, modifier)
}

// PointerMove feeds a pointer position to the active gesture
func (s *Session) PointerMove(x, y float64) {
	s.camera.PointerMove(x, y)
}

// PointerUp ends a gesture. A click is dispatched to the active pick mode;
// a drag only moved the camera.
func (s *Session) PointerUp(x, y float64, width, height int) Event {
	if s.camera.PointerUp(x, y) != orbit.GestureClick {
		return Event{}
	}
	return s.Click(x, y, width, height)
}

// CancelGesture abandons a pointer sequence, for example when the pointer
// leaves the viewport
func (s *Session) CancelGesture() {
	s.camera.Cancel()
}

// Click handles a click at viewport pixel x, y
func (s *Session) Click(x, y float64, width, height int) Event {
	if s.model == nil {
		return Event{Kind: EventMiss, Err: ErrNoModel}
	}
	if width <= 0 || height <= 0 {
		return Event{Kind: EventMiss}
	}
	ray := s.View(width, height).Unproject(x, y, width, height)

	switch s.pick.mode {
	case PickAlignment:
		var (
			p  geometry.Vector3
			ok bool
		)
		if s.pick.pair.Next().IsSource() {
			p, ok = s.pickModel(ray)
		} else {
			p, ok = intersectPlane(ray, s.cfg.Align.PlaneHeight)
		}
		if !ok {
			return Event{Kind: EventMiss}
		}
		ev, err := s.AddAlignmentPoint(p)
		if err != nil {
			return Event{Kind: EventMiss, Err: err}
		}
		return ev

	case PickPanorama:
		p, ok := s.pickModel(ray)
		if !ok {
			return Event{Kind: EventMiss}
		}
		viewpoint := p.Add(geometry.NewVector3(0, s.pick.eyeHeight, 0))
		yaw := s.pick.yaw
		s.cancelPick()
		img, err := s.CapturePanorama(viewpoint, yaw)
		if err != nil {
			return Event{Kind: EventPanorama, Point: viewpoint, Err: fmt.Errorf("capture at %v: %w", viewpoint, err)}
		}
		return Event{Kind: EventPanorama, Point: viewpoint, Image: img}

	default:
		p, ok := s.pickModel(ray)
		if !ok {
			return Event{Kind: EventMiss}
		}
		if err := s.Focus(p); err != nil {
			return Event{Kind: EventFocus, Point: p, Err: err}
		}
		return Event{Kind: EventFocus, Point: p}
	}
}

// pickModel returns the nearest visible model surface point on ray
func (s *Session) pickModel(ray geometry.Ray) (geometry.Vector3, bool) {
	hits := s.scene.Raycast(ray, nil)
	if len(hits) == 0 {
		return geometry.Vector3{}, false
	}
	return hits[0].Point, true
}

// intersectPlane intersects ray with the horizontal plane y = height
func intersectPlane(ray geometry.Ray, height float64) (geometry.Vector3, bool) {
	if math.Abs(ray.Direction.Y) < 1e-12 {
		return geometry.Vector3{}, false
	}
	t := (height - ray.Origin.Y) / ray.Direction.Y
	if t < 0 {
		return geometry.Vector3{}, false
	}
	return ray.At(t), true
}
