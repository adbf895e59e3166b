package bim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/philipparndt/gobim/pkg/geometry"
	"github.com/philipparndt/gobim/pkg/scene"
)

var (
	// ErrUnknownCategory is returned for category ids not in the registry
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownStorey is returned for storey ids not in the registry
	ErrUnknownStorey = errors.New("unknown storey")
	// ErrDuplicateElement is returned when two elements share an id
	ErrDuplicateElement = errors.New("duplicate element id")
)

// Registry is the set of elements, categories and storeys of one loaded
// model together with the UI's current visibility choices
type Registry struct {
	elements   []Element
	byID       map[string]int
	categories []Category
	catIndex   map[string]int
	storeys    []Storey
	storeyIdx  map[string]int
}

// NewRegistry indexes elements and derives category counts. Categories
// referenced by elements but not listed are added with their id as name.
func NewRegistry(elements []Element, categories []Category, storeys []Storey) (*Registry, error) {
	r := &Registry{
		elements:   make([]Element, len(elements)),
		byID:       make(map[string]int, len(elements)),
		categories: make([]Category, len(categories)),
		catIndex:   make(map[string]int, len(categories)),
		storeys:    make([]Storey, len(storeys)),
		storeyIdx:  make(map[string]int, len(storeys)),
	}
	copy(r.elements, elements)
	copy(r.categories, categories)
	copy(r.storeys, storeys)

	for i := range r.categories {
		r.categories[i].Count = 0
		r.catIndex[r.categories[i].ID] = i
	}
	for i, e := range r.elements {
		if _, exists := r.byID[e.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateElement, e.ID)
		}
		r.byID[e.ID] = i
		ci, ok := r.catIndex[e.CategoryID]
		if !ok {
			r.categories = append(r.categories, Category{ID: e.CategoryID, DisplayName: e.CategoryID, Visible: true})
			ci = len(r.categories) - 1
			r.catIndex[e.CategoryID] = ci
		}
		r.categories[ci].Count++
	}
	for i, s := range r.storeys {
		r.storeyIdx[s.ID] = i
	}
	return r, nil
}

// Elements returns the elements in ingestion order. The slice must not be
// modified.
func (r *Registry) Elements() []Element {
	return r.elements
}

// Element looks up an element by id
func (r *Registry) Element(id string) (*Element, bool) {
	i, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	return &r.elements[i], true
}

// Categories returns the categories in registration order
func (r *Registry) Categories() []Category {
	return r.categories
}

// Category looks up a category by id
func (r *Registry) Category(id string) (*Category, bool) {
	i, ok := r.catIndex[id]
	if !ok {
		return nil, false
	}
	return &r.categories[i], true
}

// Storeys returns the storeys sorted by elevation
func (r *Registry) Storeys() []Storey {
	out := make([]Storey, len(r.storeys))
	copy(out, r.storeys)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Elevation < out[j].Elevation
	})
	return out
}

// SetCategoryVisible toggles a category
func (r *Registry) SetCategoryVisible(id string, visible bool) error {
	c, ok := r.Category(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, id)
	}
	c.Visible = visible
	return nil
}

// SetCategoryColor sets or, with nil, clears a category color override
func (r *Registry) SetCategoryColor(id string, c *Color) error {
	cat, ok := r.Category(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCategory, id)
	}
	if c == nil {
		cat.ColorOverride = nil
		return nil
	}
	override := *c
	cat.ColorOverride = &override
	return nil
}

// CategoryColors returns the active color overrides by category id
func (r *Registry) CategoryColors() map[string]Color {
	colors := make(map[string]Color)
	for _, c := range r.categories {
		if c.ColorOverride != nil {
			colors[c.ID] = *c.ColorOverride
		}
	}
	return colors
}

// Visibility builds a visibility state from the category flags and, if
// storey is not empty, that storey's element set
func (r *Registry) Visibility(storey string) (VisibilityState, error) {
	v := NewVisibilityState()
	for _, c := range r.categories {
		v.CategoryVisibility[c.ID] = c.Visible
	}
	if storey == "" {
		return v, nil
	}
	i, ok := r.storeyIdx[storey]
	if !ok {
		return v, fmt.Errorf("%w: %s", ErrUnknownStorey, storey)
	}
	filter := &StoreyFilter{Storey: storey, Elements: make(map[string]bool, len(r.storeys[i].Elements))}
	for _, id := range r.storeys[i].Elements {
		filter.Elements[id] = true
	}
	v.StoreyFilter = filter
	return v, nil
}

// Bounds returns the bounds of all elements in model space
func (r *Registry) Bounds() geometry.BoundingBox {
	bounds := geometry.NewBoundingBox()
	for i := range r.elements {
		bounds = bounds.Union(r.elements[i].Bounds())
	}
	return bounds
}

// TriangleCount returns the number of triangles over all elements
func (r *Registry) TriangleCount() int {
	total := 0
	for i := range r.elements {
		total += r.elements[i].Geometry.TriangleCount()
	}
	return total
}

// SetNode records the detailed scene node of an element
func (r *Registry) SetNode(id string, h scene.Handle) bool {
	e, ok := r.Element(id)
	if !ok {
		return false
	}
	e.Node = h
	return true
}
