// Package batch merges visible element geometry into one drawable per
// quantized color, so the scene issues one draw call per material instead
// of one per element.
package batch

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/pkg/mesh"
	"github.com/philipparndt/gobim/pkg/scene"
)

// ErrBucketMerge marks a color bucket that could not be merged
var ErrBucketMerge = errors.New("bucket merge failed")

// ErrInvalidPrecision is returned for color precisions outside 0..MaxColorPrecision
var ErrInvalidPrecision = errors.New("invalid color precision")

// MergeError describes one skipped bucket. It matches ErrBucketMerge and
// the underlying cause with errors.Is.
type MergeError struct {
	Key      ColorKey
	Elements []string
	Err      error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%v %s (%d elements): %v", ErrBucketMerge, e.Key, len(e.Elements), e.Err)
}

func (e *MergeError) Unwrap() []error {
	return []error{ErrBucketMerge, e.Err}
}

// Mode selects which representation of the model is drawn
type Mode int

const (
	// ModeBatched draws merged batch groups
	ModeBatched Mode = iota
	// ModeDetailed draws one node per element
	ModeDetailed
)

func (m Mode) String() string {
	if m == ModeDetailed {
		return "detailed"
	}
	return "batched"
}

// ParseMode parses "batched" or "detailed"
func ParseMode(s string) (Mode, error) {
	switch s {
	case "batched", "":
		return ModeBatched, nil
	case "detailed":
		return ModeDetailed, nil
	}
	return ModeBatched, fmt.Errorf("unknown mode %q", s)
}

// Group is one merged drawable covering all visible elements that share a
// color key
type Group struct {
	Key      ColorKey
	Color    bim.Color
	Elements []string
	Geometry *mesh.Geometry
	Buffer   *scene.Buffer
	Material *scene.Material
	Node     scene.Handle
}

// Result is the outcome of a rebuild
type Result struct {
	Groups   []*Group
	Skipped  []*MergeError
	Admitted int
	Duration time.Duration
}

// Observer receives rebuild statistics
type Observer interface {
	ObserveRebuild(duration time.Duration, groups, skipped int)
}

// Options configures a compositor
type Options struct {
	ColorPrecision int
	Mode           Mode
	Logger         *slog.Logger
	Observer       Observer
}

type detailNode struct {
	node     scene.Handle
	admitted bool
}

// Compositor owns the batch group set installed under a parent node
type Compositor struct {
	scene     *scene.Scene
	parent    scene.Handle
	precision int
	mode      Mode
	log       *slog.Logger
	observer  Observer

	groups []*Group
	detail []detailNode
}

// New creates a compositor installing groups under parent
func New(s *scene.Scene, parent scene.Handle, opts Options) (*Compositor, error) {
	if opts.ColorPrecision < 0 || opts.ColorPrecision > MaxColorPrecision {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrecision, opts.ColorPrecision)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Compositor{
		scene:     s,
		parent:    parent,
		precision: opts.ColorPrecision,
		mode:      opts.Mode,
		log:       log,
		observer:  opts.Observer,
	}, nil
}

type bucket struct {
	key   ColorKey
	parts []mesh.Part
	ids   []string
}

// Rebuild replaces the batch group set with one covering exactly the
// elements admitted by vis. Category colors override element colors. A
// bucket that fails to merge is logged and left out. The previous groups
// are disposed only after the new set is installed.
func (c *Compositor) Rebuild(elements []bim.Element, vis bim.VisibilityState, categoryColors map[string]bim.Color) Result {
	start := time.Now()
	vis = vis.Snapshot()

	// One pass: bucket the admitted elements
	buckets := make(map[ColorKey]*bucket)
	detail := make([]detailNode, 0, len(elements))
	admitted := 0
	for i := range elements {
		e := &elements[i]
		ok := vis.Admits(e)
		if e.Node.Valid() {
			detail = append(detail, detailNode{node: e.Node, admitted: ok})
		}
		if !ok {
			continue
		}
		admitted++

		col := e.Color
		if override, found := categoryColors[e.CategoryID]; found {
			col = override
		}
		key := Quantize(col, c.precision)
		b := buckets[key]
		if b == nil {
			b = &bucket{key: key}
			buckets[key] = b
		}
		b.parts = append(b.parts, mesh.Part{Geometry: e.Geometry, Transform: e.WorldTransform})
		b.ids = append(b.ids, e.ID)
	}

	keys := make([]ColorKey, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Less(keys[j])
	})

	result := Result{Admitted: admitted}
	groups := make([]*Group, 0, len(keys))
	for _, key := range keys {
		b := buckets[key]
		group, err := c.build(b)
		if err != nil {
			mergeErr := &MergeError{Key: key, Elements: b.ids, Err: err}
			c.log.Warn("skipping batch bucket", "key", key.String(), "elements", len(b.ids), "error", err)
			result.Skipped = append(result.Skipped, mergeErr)
			continue
		}
		groups = append(groups, group)
	}

	// Install the new generation, then release the old one
	old := c.groups
	c.groups = groups
	c.detail = detail
	c.applyMode()
	c.release(old)

	result.Groups = groups
	result.Duration = time.Since(start)
	c.log.Debug("rebuilt batches", "groups", len(groups), "elements", admitted, "skipped", len(result.Skipped), "duration", result.Duration)
	if c.observer != nil {
		c.observer.ObserveRebuild(result.Duration, len(groups), len(result.Skipped))
	}
	return result
}

func (c *Compositor) build(b *bucket) (*Group, error) {
	merged, err := mesh.MergeTransformed(b.parts)
	if err != nil {
		return nil, err
	}
	buf, err := c.scene.Upload(merged)
	if err != nil {
		return nil, err
	}
	col := b.key.Color(c.precision)
	mat := c.scene.NewMaterial(col.NRGBA())
	node, err := c.scene.AddNode(scene.Node{
		Kind:     scene.KindMesh,
		Name:     "batch " + b.key.String(),
		Parent:   c.parent,
		Visible:  false,
		Buffer:   buf,
		Material: mat,
	})
	if err != nil {
		c.dispose(buf, mat)
		return nil, err
	}
	return &Group{
		Key:      b.key,
		Color:    col,
		Elements: b.ids,
		Geometry: merged,
		Buffer:   buf,
		Material: mat,
		Node:     node,
	}, nil
}

func (c *Compositor) release(groups []*Group) {
	for _, g := range groups {
		if err := c.scene.RemoveNode(g.Node); err != nil {
			c.log.Warn("removing batch node failed", "key", g.Key.String(), "error", err)
		}
		c.dispose(g.Buffer, g.Material)
	}
}

func (c *Compositor) dispose(buf *scene.Buffer, mat *scene.Material) {
	if err := buf.Dispose(); err != nil {
		c.log.Warn("disposing batch geometry failed", "error", err)
	}
	if err := mat.Dispose(); err != nil {
		c.log.Warn("disposing batch material failed", "error", err)
	}
}

// applyMode sets node visibility for the active mode: group nodes in
// batched mode, admitted element nodes in detailed mode
func (c *Compositor) applyMode() {
	for _, g := range c.groups {
		if err := c.scene.SetVisible(g.Node, c.mode == ModeBatched); err != nil {
			c.log.Warn("batch node missing", "key", g.Key.String(), "error", err)
		}
	}
	for _, d := range c.detail {
		if err := c.scene.SetVisible(d.node, c.mode == ModeDetailed && d.admitted); err != nil {
			c.log.Warn("element node missing", "error", err)
		}
	}
}

// SetMode switches the drawn representation without rebuilding
func (c *Compositor) SetMode(m Mode) {
	if m == c.mode {
		return
	}
	c.mode = m
	c.applyMode()
}

// Mode returns the active mode
func (c *Compositor) Mode() Mode {
	return c.mode
}

// Precision returns the color precision in decimal digits
func (c *Compositor) Precision() int {
	return c.precision
}

// Groups returns the installed batch groups ordered by key
func (c *Compositor) Groups() []*Group {
	return c.groups
}

// GroundTruth returns the nodes that make up the visible model in the
// active mode: batch groups when batched, admitted element nodes when
// detailed
func (c *Compositor) GroundTruth() []scene.Handle {
	var handles []scene.Handle
	if c.mode == ModeBatched {
		for _, g := range c.groups {
			handles = append(handles, g.Node)
		}
		return handles
	}
	for _, d := range c.detail {
		if d.admitted {
			handles = append(handles, d.node)
		}
	}
	return handles
}

// Hidden returns the nodes of the representation that is not active
func (c *Compositor) Hidden() []scene.Handle {
	var handles []scene.Handle
	if c.mode == ModeBatched {
		for _, d := range c.detail {
			handles = append(handles, d.node)
		}
		return handles
	}
	for _, g := range c.groups {
		handles = append(handles, g.Node)
	}
	return handles
}

// Dispose removes and releases all groups
func (c *Compositor) Dispose() {
	c.release(c.groups)
	c.groups = nil
}
