package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/mesh"
	"github.com/philipparndt/gobim/pkg/openscad"
	"github.com/philipparndt/gobim/pkg/stl"
)

// ErrInvalidElement is returned for elements without usable geometry
var ErrInvalidElement = errors.New("invalid element")

// DefaultColor is used for elements without a color
var DefaultColor = bim.Opaque(0.75, 0.75, 0.75)

// Model is the result of loading a manifest
type Model struct {
	Name       string
	Elements   []bim.Element
	Categories []bim.Category
	Storeys    []bim.Storey

	// Sources lists every file the model was built from: the manifest,
	// mesh files and OpenSCAD dependencies
	Sources []string
}

// Registry indexes the loaded model
func (m *Model) Registry() (*bim.Registry, error) {
	return bim.NewRegistry(m.Elements, m.Categories, m.Storeys)
}

// Loader turns manifests into models. Mesh files referenced several times
// are parsed once and their geometry is shared.
type Loader struct {
	Logger *slog.Logger

	meshes map[string]*mesh.Geometry
}

// Load reads the manifest at path and all geometry it references
func (l *Loader) Load(ctx context.Context, path string) (*Model, error) {
	manifest, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	absManifest, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	l.meshes = make(map[string]*mesh.Geometry)

	model := &Model{Name: manifest.Name, Sources: []string{absManifest}}
	baseDir := filepath.Dir(absManifest)
	seen := map[string]bool{absManifest: true}
	addSource := func(p string) {
		if !seen[p] {
			seen[p] = true
			model.Sources = append(model.Sources, p)
		}
	}

	for _, spec := range manifest.Categories {
		c := bim.Category{ID: spec.ID, DisplayName: spec.Name, Visible: true}
		if c.DisplayName == "" {
			c.DisplayName = spec.ID
		}
		if spec.Visible != nil {
			c.Visible = *spec.Visible
		}
		if spec.Color != "" {
			col, err := bim.ParseHex(spec.Color)
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", spec.ID, err)
			}
			c.ColorOverride = &col
		}
		model.Categories = append(model.Categories, c)
	}

	storeyIndex := make(map[string]int, len(manifest.Storeys))
	for i, spec := range manifest.Storeys {
		model.Storeys = append(model.Storeys, bim.Storey{ID: spec.ID, Name: spec.Name, Elevation: spec.Elevation})
		storeyIndex[spec.ID] = i
	}

	for i, spec := range manifest.Elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id := spec.ID
		if id == "" {
			id = uuid.NewString()
		}

		g, sources, err := l.geometry(ctx, baseDir, spec)
		if err != nil {
			return nil, fmt.Errorf("element %d (%s): %w", i, id, err)
		}
		for _, s := range sources {
			addSource(s)
		}

		col := DefaultColor
		if spec.Color != "" {
			col, err = bim.ParseHex(spec.Color)
			if err != nil {
				return nil, fmt.Errorf("element %s: %w", id, err)
			}
		}

		if spec.Storey != "" {
			si, ok := storeyIndex[spec.Storey]
			if !ok {
				return nil, fmt.Errorf("element %s: %w: %s", id, bim.ErrUnknownStorey, spec.Storey)
			}
			model.Storeys[si].Elements = append(model.Storeys[si].Elements, id)
		}

		model.Elements = append(model.Elements, bim.Element{
			ID:             id,
			Name:           spec.Name,
			CategoryID:     spec.Category,
			Geometry:       g,
			WorldTransform: transformMatrix(spec.Transform),
			Color:          col,
		})
	}

	l.logger().Debug("loaded manifest", "path", absManifest, "elements", len(model.Elements), "categories", len(model.Categories), "meshes", len(l.meshes))
	return model, nil
}

func (l *Loader) geometry(ctx context.Context, baseDir string, spec ElementSpec) (*mesh.Geometry, []string, error) {
	switch {
	case spec.Mesh != "" && spec.Box != nil:
		return nil, nil, fmt.Errorf("%w: both mesh and box given", ErrInvalidElement)
	case spec.Box != nil:
		lo := geometry.NewVector3(spec.Box.Min[0], spec.Box.Min[1], spec.Box.Min[2])
		hi := geometry.NewVector3(spec.Box.Max[0], spec.Box.Max[1], spec.Box.Max[2])
		if lo.X >= hi.X || lo.Y >= hi.Y || lo.Z >= hi.Z {
			return nil, nil, fmt.Errorf("%w: empty box", ErrInvalidElement)
		}
		return mesh.Box(lo, hi), nil, nil
	case spec.Mesh != "":
		path := spec.Mesh
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return l.loadMesh(ctx, path)
	}
	return nil, nil, fmt.Errorf("%w: no mesh or box", ErrInvalidElement)
}

func (l *Loader) loadMesh(ctx context.Context, path string) (*mesh.Geometry, []string, error) {
	sources := []string{path}
	isSCAD := strings.EqualFold(filepath.Ext(path), ".scad")
	if isSCAD {
		deps, err := openscad.NewRenderer(filepath.Dir(path)).ResolveDependencies(path)
		if err != nil {
			return nil, nil, err
		}
		sources = deps
	}

	if g, ok := l.meshes[path]; ok {
		return g, sources, nil
	}

	var model *stl.Model
	var err error
	if isSCAD {
		model, err = openscad.NewRenderer(filepath.Dir(path)).Render(ctx, path)
	} else {
		model, err = stl.Parse(path)
	}
	if err != nil {
		return nil, nil, err
	}

	g := model.Geometry()
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}
	l.meshes[path] = g
	return g, sources, nil
}

// transformMatrix composes position * rotation about Y * uniform scale
func transformMatrix(spec *TransformSpec) geometry.Matrix4 {
	if spec == nil {
		return geometry.Identity()
	}
	scale := spec.Scale
	if scale == 0 {
		scale = 1
	}
	t := geometry.Transform{
		Position: geometry.NewVector3(spec.Position[0], spec.Position[1], spec.Position[2]),
		Rotation: geometry.QuaternionFromAxisAngle(geometry.NewVector3(0, 1, 0), geometry.DegToRad(spec.RotationY)),
		Scale:    geometry.NewVector3(scale, scale, scale),
	}
	return t.Matrix()
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default()
	}
	return l.Logger
}
