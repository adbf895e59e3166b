// Package panorama renders 360 degree equirectangular images from a point
// in the scene by remapping six directional captures.
package panorama

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/scene"
)

var (
	// ErrInvalidRequest is returned for non-positive sizes
	ErrInvalidRequest = errors.New("invalid panorama request")
	// ErrInvalidFaces is returned when captures are missing or not square
	ErrInvalidFaces = errors.New("invalid cube faces")
)

// Request describes one capture
type Request struct {
	Viewpoint      geometry.Vector3
	Yaw            float64
	FaceResolution int
	Width          int
	Height         int
}

// Substrate is the part of the scene a capture needs
type Substrate interface {
	CaptureDirectional(point geometry.Vector3, resolution int) [6]*image.RGBA
	Visible(h scene.Handle) (bool, error)
	SetVisible(h scene.Handle, visible bool) error
}

// Representation tells which model nodes are ground truth and which
// belong to the inactive representation
type Representation interface {
	GroundTruth() []scene.Handle
	Hidden() []scene.Handle
}

// Observer receives capture statistics
type Observer interface {
	ObserveCapture(duration time.Duration)
}

// Options configures a synthesizer
type Options struct {
	// Transient returns overlay nodes (markers, lines) hidden while capturing
	Transient func() []scene.Handle
	Logger    *slog.Logger
	Observer  Observer
}

// Synthesizer captures panoramas. Visibility it changes for a capture is
// restored before Capture returns.
type Synthesizer struct {
	scene     Substrate
	rep       Representation
	transient func() []scene.Handle
	log       *slog.Logger
	observer  Observer
}

// New creates a synthesizer
func New(s Substrate, rep Representation, opts Options) *Synthesizer {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Synthesizer{scene: s, rep: rep, transient: opts.Transient, log: log, observer: opts.Observer}
}

type savedVisibility struct {
	node    scene.Handle
	visible bool
}

// Capture renders the panorama described by req. An empty scene yields a
// uniform background image.
func (p *Synthesizer) Capture(req Request) (*image.RGBA, error) {
	if req.FaceResolution <= 0 || req.Width <= 0 || req.Height <= 0 {
		return nil, fmt.Errorf("%w: face %d, output %dx%d", ErrInvalidRequest, req.FaceResolution, req.Width, req.Height)
	}
	start := time.Now()

	saved := p.prepare()
	defer p.restore(saved)

	captured := p.scene.CaptureDirectional(req.Viewpoint, req.FaceResolution)
	var faces [6]image.Image
	for i, f := range captured {
		faces[i] = f
	}
	img, err := Remap(faces, req.Width, req.Height, req.Yaw)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	p.log.Debug("captured panorama", "faces", req.FaceResolution, "width", req.Width, "height", req.Height, "duration", elapsed)
	if p.observer != nil {
		p.observer.ObserveCapture(elapsed)
	}
	return img, nil
}

// prepare shows the ground truth representation, hides the other one and
// all transient overlays, and returns what it touched
func (p *Synthesizer) prepare() []savedVisibility {
	var saved []savedVisibility
	set := func(h scene.Handle, visible bool) {
		prior, err := p.scene.Visible(h)
		if err != nil {
			p.log.Warn("capture skipped unknown node", "error", err)
			return
		}
		saved = append(saved, savedVisibility{node: h, visible: prior})
		if prior != visible {
			_ = p.scene.SetVisible(h, visible)
		}
	}

	if p.rep != nil {
		for _, h := range p.rep.GroundTruth() {
			set(h, true)
		}
		for _, h := range p.rep.Hidden() {
			set(h, false)
		}
	}
	if p.transient != nil {
		for _, h := range p.transient() {
			set(h, false)
		}
	}
	return saved
}

// restore reapplies the recorded flags in reverse order so a node touched
// twice ends with its original value
func (p *Synthesizer) restore(saved []savedVisibility) {
	for i := len(saved) - 1; i >= 0; i-- {
		if err := p.scene.SetVisible(saved[i].node, saved[i].visible); err != nil {
			p.log.Warn("restoring visibility failed", "error", err)
		}
	}
}
