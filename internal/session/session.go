// Package session ties the model registry, the scene, the batch compositor,
// the camera, alignment and panorama capture together behind the
// operations the viewer and the CLI use. A Session is not safe for
// concurrent use; callers drive it from one goroutine.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/philipparndt/gobim/internal/align"
	"github.com/philipparndt/gobim/internal/batch"
	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/internal/config"
	"github.com/philipparndt/gobim/internal/ingest"
	"github.com/philipparndt/gobim/internal/metrics"
	"github.com/philipparndt/gobim/internal/orbit"
	"github.com/philipparndt/gobim/internal/panorama"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
	"github.com/philipparndt/gobim/pkg/scene"
)

var (
	// ErrNoModel is returned by operations that need a loaded model
	ErrNoModel = errors.New("no model loaded")
	// ErrWrongMode is returned when an operation does not fit the active pick mode
	ErrWrongMode = errors.New("not available in current pick mode")
)

// Options configures a session
type Options struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// modelState holds everything built for one loaded model
type modelState struct {
	name       string
	sources    []string
	registry   *bim.Registry
	root       *bim.Root
	node       scene.Handle
	compositor *batch.Compositor
	buffers    []*scene.Buffer
	materials  map[color.NRGBA]*scene.Material
	storey     string
	last       batch.Result
}

// Session is the state of one viewer
type Session struct {
	cfg     config.Config
	log     *slog.Logger
	metrics *metrics.Metrics

	scene   *scene.Scene
	camera  *orbit.Controller
	aligner *align.Aligner
	synth   *panorama.Synthesizer

	model *modelState
	pick  pickState
	focus scene.Handle
}

// New creates an empty session
func New(opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Session{
		cfg:     opts.Config,
		log:     log,
		metrics: opts.Metrics,
		scene:   scene.New(),
		camera:  orbit.New(opts.Config.Orbit()),
	}
	bg := opts.Config.Background().NRGBA()
	s.scene.Background = color.RGBA{R: bg.R, G: bg.G, B: bg.B, A: 255}

	s.aligner = &align.Aligner{PlaneHeight: opts.Config.Align.PlaneHeight, Logger: log}
	if s.metrics != nil {
		s.aligner.Observer = s.metrics
	}
	return s
}

// Scene returns the scene substrate
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// Camera returns the orbit controller
func (s *Session) Camera() *orbit.Controller {
	return s.camera
}

// Config returns the session settings
func (s *Session) Config() config.Config {
	return s.cfg
}

// Loaded reports whether a model is loaded
func (s *Session) Loaded() bool {
	return s.model != nil
}

// Name returns the loaded model's name
func (s *Session) Name() string {
	if s.model == nil {
		return ""
	}
	return s.model.name
}

// Sources returns the files the loaded model was built from
func (s *Session) Sources() []string {
	if s.model == nil {
		return nil
	}
	return s.model.sources
}

// Registry returns the loaded model's registry
func (s *Session) Registry() (*bim.Registry, error) {
	if s.model == nil {
		return nil, ErrNoModel
	}
	return s.model.registry, nil
}

// Compositor returns the loaded model's batch compositor
func (s *Session) Compositor() (*batch.Compositor, error) {
	if s.model == nil {
		return nil, ErrNoModel
	}
	return s.model.compositor, nil
}

// Root returns the loaded model's root transform
func (s *Session) Root() (*bim.Root, error) {
	if s.model == nil {
		return nil, ErrNoModel
	}
	return s.model.root, nil
}

// Load replaces the current model. The new model is built and installed
// before the previous one is released. On reload the camera keeps its
// orientation and distance; the first load fits the camera to the model.
func (s *Session) Load(m *ingest.Model) (batch.Result, error) {
	registry, err := m.Registry()
	if err != nil {
		return batch.Result{}, err
	}

	next, err := s.build(m, registry)
	if err != nil {
		return batch.Result{}, err
	}

	previous := s.model
	s.cancelPick()
	if previous != nil {
		carryOver(previous, next)
	}
	s.model = next
	if err := s.syncRoot(); err != nil {
		s.log.Warn("model root missing", "error", err)
	}
	result := s.rebuild()

	if previous != nil {
		s.release(previous)
		s.log.Info("reloaded model", "name", next.name, "elements", len(registry.Elements()), "groups", len(result.Groups))
	} else {
		s.camera.Fit(s.worldBounds())
		s.log.Info("loaded model", "name", next.name, "elements", len(registry.Elements()), "groups", len(result.Groups))
	}
	return result, nil
}

func (s *Session) build(m *ingest.Model, registry *bim.Registry) (*modelState, error) {
	state := &modelState{
		name:      m.Name,
		sources:   m.Sources,
		registry:  registry,
		root:      bim.NewRoot(geometry.IdentityTransform()),
		materials: make(map[color.NRGBA]*scene.Material),
	}

	node, err := s.scene.AddNode(scene.Node{Kind: scene.KindGroup, Name: m.Name, Visible: true})
	if err != nil {
		return nil, err
	}
	state.node = node
	state.root.Node = node

	// One detailed node per element; geometry shared between elements is
	// uploaded once
	uploaded := make(map[*mesh.Geometry]*scene.Buffer)
	for _, e := range registry.Elements() {
		buf, ok := uploaded[e.Geometry]
		if !ok {
			buf, err = s.scene.Upload(e.Geometry)
			if err != nil {
				s.release(state)
				return nil, fmt.Errorf("element %s: %w", e.ID, err)
			}
			uploaded[e.Geometry] = buf
			state.buffers = append(state.buffers, buf)
		}
		h, err := s.scene.AddNode(scene.Node{
			Kind:      scene.KindMesh,
			Name:      e.ID,
			Parent:    node,
			Transform: e.WorldTransform,
			Buffer:    buf,
			Material:  state.material(s.scene, e.Color.NRGBA()),
		})
		if err != nil {
			s.release(state)
			return nil, err
		}
		registry.SetNode(e.ID, h)
	}

	opts := batch.Options{
		ColorPrecision: s.cfg.Batch.ColorPrecision,
		Mode:           s.cfg.Mode(),
		Logger:         s.log,
	}
	if s.metrics != nil {
		opts.Observer = s.metrics
	}
	state.compositor, err = batch.New(s.scene, node, opts)
	if err != nil {
		s.release(state)
		return nil, err
	}
	return state, nil
}

// carryOver keeps the user's choices across a reload: the alignment, the
// storey filter and category flags and colors of categories that still exist
func carryOver(previous, next *modelState) {
	next.root.Current = previous.root.Current
	next.storey = previous.storey
	for _, c := range previous.registry.Categories() {
		if _, ok := next.registry.Category(c.ID); !ok {
			continue
		}
		_ = next.registry.SetCategoryVisible(c.ID, c.Visible)
		_ = next.registry.SetCategoryColor(c.ID, c.ColorOverride)
	}
}

func (m *modelState) material(sc *scene.Scene, c color.NRGBA) *scene.Material {
	mat, ok := m.materials[c]
	if !ok {
		mat = sc.NewMaterial(c)
		m.materials[c] = mat
	}
	return mat
}

// release removes a model's nodes and disposes its resources
func (s *Session) release(m *modelState) {
	if m.compositor != nil {
		m.compositor.Dispose()
	}
	if m.node.Valid() {
		if err := s.scene.RemoveNode(m.node); err != nil {
			s.log.Warn("removing model node failed", "name", m.name, "error", err)
		}
	}
	for _, b := range m.buffers {
		if err := b.Dispose(); err != nil {
			s.log.Warn("disposing element geometry failed", "error", err)
		}
	}
	for _, mat := range m.materials {
		if err := mat.Dispose(); err != nil {
			s.log.Warn("disposing element material failed", "error", err)
		}
	}
}

// Close releases the loaded model
func (s *Session) Close() {
	s.cancelPick()
	s.clearFocus()
	if s.model != nil {
		s.release(s.model)
		s.model = nil
	}
}

// rebuild recomputes the batch groups from the registry's visibility and
// refreshes detailed node colors
func (s *Session) rebuild() batch.Result {
	m := s.model
	vis, err := m.registry.Visibility(m.storey)
	if err != nil {
		// The storey vanished on reload; fall back to the whole model
		s.log.Warn("storey filter dropped", "storey", m.storey, "error", err)
		m.storey = ""
		vis, _ = m.registry.Visibility("")
	}
	colors := m.registry.CategoryColors()
	for _, e := range m.registry.Elements() {
		c := e.Color
		if override, ok := colors[e.CategoryID]; ok {
			c = override
		}
		if err := s.scene.SetMaterial(e.Node, m.material(s.scene, c.NRGBA())); err != nil {
			s.log.Warn("element node missing", "element", e.ID, "error", err)
		}
	}
	m.last = m.compositor.Rebuild(m.registry.Elements(), vis, colors)
	return m.last
}

// RebuildBatches recomputes the batch groups for the current visibility
func (s *Session) RebuildBatches() (batch.Result, error) {
	if s.model == nil {
		return batch.Result{}, ErrNoModel
	}
	return s.rebuild(), nil
}

// LastRebuild returns the result of the most recent rebuild
func (s *Session) LastRebuild() (batch.Result, error) {
	if s.model == nil {
		return batch.Result{}, ErrNoModel
	}
	return s.model.last, nil
}

// SetCategoryVisible toggles a category and rebuilds
func (s *Session) SetCategoryVisible(id string, visible bool) (batch.Result, error) {
	if s.model == nil {
		return batch.Result{}, ErrNoModel
	}
	if err := s.model.registry.SetCategoryVisible(id, visible); err != nil {
		return batch.Result{}, err
	}
	return s.rebuild(), nil
}

// SetCategoryColor sets or clears a category color override and rebuilds
func (s *Session) SetCategoryColor(id string, c *bim.Color) (batch.Result, error) {
	if s.model == nil {
		return batch.Result{}, ErrNoModel
	}
	if err := s.model.registry.SetCategoryColor(id, c); err != nil {
		return batch.Result{}, err
	}
	return s.rebuild(), nil
}

// SelectStorey restricts the model to one storey's elements. An empty id
// shows all storeys.
func (s *Session) SelectStorey(id string) (batch.Result, error) {
	if s.model == nil {
		return batch.Result{}, ErrNoModel
	}
	if id != "" {
		if _, err := s.model.registry.Visibility(id); err != nil {
			return batch.Result{}, err
		}
	}
	s.model.storey = id
	return s.rebuild(), nil
}

// Storey returns the selected storey id, empty if none
func (s *Session) Storey() string {
	if s.model == nil {
		return ""
	}
	return s.model.storey
}

// SetMode switches between batched and detailed drawing
func (s *Session) SetMode(m batch.Mode) error {
	if s.model == nil {
		return ErrNoModel
	}
	s.model.compositor.SetMode(m)
	s.log.Debug("render mode changed", "mode", m.String())
	return nil
}

// Mode returns the active drawing mode
func (s *Session) Mode() batch.Mode {
	if s.model == nil {
		return s.cfg.Mode()
	}
	return s.model.compositor.Mode()
}

// bounds returns the model's bounds in its own space
func (s *Session) bounds() geometry.BoundingBox {
	return s.model.registry.Bounds()
}

// worldBounds returns the model's bounds as currently displayed
func (s *Session) worldBounds() geometry.BoundingBox {
	return s.bounds().Transform(s.model.root.Current.Matrix())
}

// WorldBounds returns the displayed model bounds
func (s *Session) WorldBounds() (geometry.BoundingBox, error) {
	if s.model == nil {
		return geometry.BoundingBox{}, ErrNoModel
	}
	return s.worldBounds(), nil
}

// SolveAlignment maps pA, pB onto pT1, pT2 and applies the result to the
// model root. On any error the model is left untouched.
func (s *Session) SolveAlignment(pA, pB, pT1, pT2 geometry.Vector3) (align.Similarity, error) {
	if s.model == nil {
		return align.Similarity{}, ErrNoModel
	}
	staged := *s.model.root
	sim, err := s.aligner.Align(&staged, s.bounds(), pA, pB, pT1, pT2)
	if err != nil {
		return sim, err
	}
	if err := s.commitRoot(staged.Current); err != nil {
		return sim, err
	}
	return sim, nil
}

// ResetAlignment restores the model's ingested placement
func (s *Session) ResetAlignment() error {
	if s.model == nil {
		return ErrNoModel
	}
	return s.commitRoot(s.model.root.Original)
}

func (s *Session) syncRoot() error {
	return s.scene.SetTransform(s.model.node, s.model.root.Current.Matrix())
}

// commitRoot moves the model node to t and only then records t as the
// root's current transform
func (s *Session) commitRoot(t geometry.Transform) error {
	if err := s.scene.SetTransform(s.model.node, t.Matrix()); err != nil {
		return err
	}
	s.model.root.Current = t
	return nil
}

// transient returns overlay nodes that must not appear in captures
func (s *Session) transient() []scene.Handle {
	handles := append([]scene.Handle(nil), s.pick.overlays...)
	if s.focus.Valid() {
		handles = append(handles, s.focus)
	}
	return handles
}

func (s *Session) synthesizer() *panorama.Synthesizer {
	if s.synth == nil {
		opts := panorama.Options{Transient: s.transient, Logger: s.log}
		if s.metrics != nil {
			opts.Observer = s.metrics
		}
		s.synth = panorama.New(s.scene, representation{s}, opts)
	}
	return s.synth
}

// representation exposes the current compositor to the synthesizer
// across reloads
type representation struct {
	s *Session
}

func (r representation) GroundTruth() []scene.Handle {
	if r.s.model == nil {
		return nil
	}
	return r.s.model.compositor.GroundTruth()
}

func (r representation) Hidden() []scene.Handle {
	if r.s.model == nil {
		return nil
	}
	return r.s.model.compositor.Hidden()
}

// CapturePanorama renders an equirectangular panorama at viewpoint using
// the configured resolutions
func (s *Session) CapturePanorama(viewpoint geometry.Vector3, yaw float64) (*image.RGBA, error) {
	if s.model == nil {
		return nil, ErrNoModel
	}
	return s.synthesizer().Capture(panorama.Request{
		Viewpoint:      viewpoint,
		Yaw:            yaw,
		FaceResolution: s.cfg.Panorama.FaceResolution,
		Width:          s.cfg.Panorama.Width,
		Height:         s.cfg.Panorama.Height,
	})
}

// View returns the camera view for a viewport
func (s *Session) View(width, height int) scene.View {
	aspect := 1.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}
	return s.camera.View(aspect)
}

// Render draws the scene from the camera
func (s *Session) Render(width, height int) *image.RGBA {
	return s.scene.Render(s.View(width, height), width, height)
}

// ResetCamera fits the camera to the displayed model
func (s *Session) ResetCamera() {
	if s.model == nil {
		s.camera.Reset()
		return
	}
	s.camera.Fit(s.worldBounds())
}

// Focus recenters the camera on point and marks it
func (s *Session) Focus(point geometry.Vector3) error {
	s.camera.Focus(point)
	if s.focus.Valid() && s.scene.Contains(s.focus) {
		if err := s.scene.SetTransform(s.focus, geometry.Translation(point)); err != nil {
			return err
		}
		return s.scene.SetVisible(s.focus, true)
	}
	h, err := s.scene.AddNode(scene.Node{
		Kind:      scene.KindMarker,
		Name:      "focus",
		Transform: geometry.Translation(point),
		Visible:   true,
		Color:     focusColor,
	})
	if err != nil {
		return err
	}
	s.focus = h
	return nil
}

func (s *Session) clearFocus() {
	if !s.focus.Valid() {
		return
	}
	if err := s.scene.RemoveNode(s.focus); err != nil {
		s.log.Debug("focus marker already gone", "error", err)
	}
	s.focus = 0
}
