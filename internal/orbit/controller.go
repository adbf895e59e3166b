// Package orbit implements spherical orbit navigation around a target with
// a perspective/orthographic switch and click/drag disambiguation.
package orbit

import (
	"math"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/scene"
)

// Projection selects the camera projection
type Projection int

const (
	Perspective Projection = iota
	Orthographic
)

func (p Projection) String() string {
	if p == Orthographic {
		return "orthographic"
	}
	return "perspective"
}

// State is the gesture state of the controller
type State int

const (
	Idle State = iota
	Orbiting
	Panning
)

func (s State) String() string {
	return [...]string{"idle", "orbiting", "panning"}[s]
}

// Button identifies the pointer button starting a gesture
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Gesture is the classification of a finished pointer sequence
type Gesture int

const (
	GestureNone Gesture = iota
	GestureClick
	GestureDrag
)

func (g Gesture) String() string {
	return [...]string{"none", "click", "drag"}[g]
}

// Camera is the orbit state. Phi is the polar angle from +Y, Theta the
// azimuth around +Y measured from +Z.
type Camera struct {
	Target     geometry.Vector3
	Radius     float64
	Phi        float64
	Theta      float64
	Projection Projection
}

const (
	defaultPhi   = math.Pi / 4
	defaultTheta = math.Pi / 4
	fitDistance  = 1.5
)

// Controller owns the camera state
type Controller struct {
	opts      Options
	cam       Camera
	modelSize float64
	home      geometry.Vector3

	state     State
	lastX     float64
	lastY     float64
	travelled float64
}

// New creates a controller for a model of unit size at the origin
func New(opts Options) *Controller {
	c := &Controller{opts: opts, modelSize: 1}
	c.cam = Camera{Radius: fitDistance, Phi: defaultPhi, Theta: defaultTheta}
	return c
}

// Camera returns a copy of the camera state
func (c *Controller) Camera() Camera {
	return c.cam
}

// State returns the gesture state
func (c *Controller) State() State {
	return c.state
}

// ModelSize returns the size the zoom range is derived from
func (c *Controller) ModelSize() float64 {
	return c.modelSize
}

// Fit frames bounds: the target moves to the center and the radius is
// derived from the largest dimension, which also sets the zoom range
func (c *Controller) Fit(bounds geometry.BoundingBox) {
	size := bounds.MaxDimension()
	if size <= 0 {
		size = 1
	}
	c.modelSize = size
	c.home = bounds.Center()
	c.Reset()
}

// Reset returns to the framed perspective view
func (c *Controller) Reset() {
	c.cam = Camera{
		Target: c.home,
		Radius: c.clampRadius(c.modelSize * fitDistance),
		Phi:    defaultPhi,
		Theta:  defaultTheta,
	}
}

// TopView looks straight down on the framed model in orthographic mode
func (c *Controller) TopView() {
	c.cam.Target = c.home
	c.cam.Theta = 0
	c.SetProjection(Orthographic)
}

// SetProjection switches the projection mode
func (c *Controller) SetProjection(p Projection) {
	c.cam.Projection = p
	c.state = Idle
}

// Orbit rotates around the target. It does nothing in orthographic mode.
func (c *Controller) Orbit(dx, dy float64) {
	if c.cam.Projection == Orthographic {
		return
	}
	c.cam.Theta += dx * c.opts.OrbitSpeed
	c.cam.Phi = c.clampPhi(c.cam.Phi - dy*c.opts.OrbitSpeed)
}

// Pan moves the target in the camera's right/up plane, or along the ground
// axes in orthographic mode
func (c *Controller) Pan(dx, dy float64) {
	speed := c.cam.Radius * c.opts.PanSpeed
	if c.cam.Projection == Orthographic {
		// The top view has +X to the right and +Z down the screen
		c.cam.Target = c.cam.Target.Add(geometry.NewVector3(-dx*speed, 0, -dy*speed))
		return
	}

	v := c.View(1)
	up := v.Down.Mul(-1)
	c.cam.Target = c.cam.Target.
		Add(v.Right.Mul(-dx * speed)).
		Add(up.Mul(dy * speed))
}

// Zoom scales the radius by ZoomFactor per tick; positive deltas move away.
// Non-finite deltas are ignored.
func (c *Controller) Zoom(delta float64) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return
	}
	c.cam.Radius = c.clampRadius(c.cam.Radius * math.Pow(c.opts.ZoomFactor, delta))
}

// Focus makes point the new orbit target
func (c *Controller) Focus(point geometry.Vector3) {
	c.cam.Target = point
}

// PointerDown starts a gesture. The primary button orbits in perspective
// mode; the secondary button, the modifier or orthographic mode pan.
func (c *Controller) PointerDown(x, y float64, button Button, modifier bool) {
	c.state = Panning
	if button == ButtonPrimary && !modifier && c.cam.Projection == Perspective {
		c.state = Orbiting
	}
	c.lastX, c.lastY = x, y
	c.travelled = 0
}

// PointerMove feeds a pointer position while a gesture is active
func (c *Controller) PointerMove(x, y float64) {
	if c.state == Idle {
		return
	}
	dx, dy := x-c.lastX, y-c.lastY
	c.travelled += math.Hypot(dx, dy)
	c.lastX, c.lastY = x, y

	switch c.state {
	case Orbiting:
		c.Orbit(dx, dy)
	case Panning:
		c.Pan(dx, dy)
	}
}

// PointerUp ends the gesture and classifies it. Travel below the click
// threshold is a click, travel at or above it a drag.
func (c *Controller) PointerUp(x, y float64) Gesture {
	if c.state == Idle {
		return GestureNone
	}
	c.PointerMove(x, y)
	c.state = Idle
	if c.travelled < c.opts.ClickThreshold {
		return GestureClick
	}
	return GestureDrag
}

// Cancel abandons the active gesture without classifying it
func (c *Controller) Cancel() {
	c.state = Idle
}

// Position returns the camera position derived from the spherical state
func (c *Controller) Position() geometry.Vector3 {
	if c.cam.Projection == Orthographic {
		return c.cam.Target.Add(geometry.NewVector3(0, c.cam.Radius, 0))
	}
	sinPhi := math.Sin(c.cam.Phi)
	offset := geometry.NewVector3(
		sinPhi*math.Sin(c.cam.Theta),
		math.Cos(c.cam.Phi),
		sinPhi*math.Cos(c.cam.Theta),
	)
	return c.cam.Target.Add(offset.Mul(c.cam.Radius))
}

// OrthoExtents returns the orthographic half width and half height
func (c *Controller) OrthoExtents(aspect float64) (float64, float64) {
	halfHeight := c.cam.Radius * c.opts.OrthoScale
	return halfHeight * aspect, halfHeight
}

// View returns the scene view for the given aspect ratio
func (c *Controller) View(aspect float64) scene.View {
	eye := c.Position()
	if c.cam.Projection == Orthographic {
		halfWidth, halfHeight := c.OrthoExtents(aspect)
		v := scene.OrthoLookAt(eye, c.cam.Target, geometry.NewVector3(0, 0, -1), halfWidth, halfHeight)
		v.Near = -c.far()
		return v
	}
	v := scene.LookAt(eye, c.cam.Target, geometry.NewVector3(0, 1, 0), geometry.DegToRad(c.opts.FOV), aspect)
	v.Near = math.Max(1e-3, c.cam.Radius*1e-3)
	return v
}

// far bounds how far behind the orthographic eye geometry is still drawn
func (c *Controller) far() float64 {
	return c.modelSize * 10
}

// MinRadius and MaxRadius bound the zoom range
func (c *Controller) MinRadius() float64 {
	return 0.1 * c.modelSize
}

func (c *Controller) MaxRadius() float64 {
	return 10 * c.modelSize
}

func (c *Controller) clampRadius(r float64) float64 {
	if math.IsNaN(r) {
		return c.MaxRadius()
	}
	return math.Max(c.MinRadius(), math.Min(c.MaxRadius(), r))
}

func (c *Controller) clampPhi(phi float64) float64 {
	eps := c.opts.PolarEpsilon
	return math.Max(eps, math.Min(math.Pi/2-eps, phi))
}
