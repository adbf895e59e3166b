package bim

import (
	"github.com/jinzhu/copier"
)

// StoreyFilter restricts visibility to the elements of one storey
type StoreyFilter struct {
	Storey   string
	Elements map[string]bool
}

// VisibilityState is the input to a batch rebuild. A category without an
// entry in CategoryVisibility is visible. A nil StoreyFilter admits all
// elements.
type VisibilityState struct {
	CategoryVisibility map[string]bool
	StoreyFilter       *StoreyFilter
}

// NewVisibilityState creates a state with every category visible
func NewVisibilityState() VisibilityState {
	return VisibilityState{CategoryVisibility: map[string]bool{}}
}

// CategoryVisible reports whether elements of the category pass the
// category filter
func (v VisibilityState) CategoryVisible(categoryID string) bool {
	visible, ok := v.CategoryVisibility[categoryID]
	return !ok || visible
}

// Admits reports whether the element passes both the category and the
// storey filter
func (v VisibilityState) Admits(e *Element) bool {
	if !v.CategoryVisible(e.CategoryID) {
		return false
	}
	if v.StoreyFilter != nil && !v.StoreyFilter.Elements[e.ID] {
		return false
	}
	return true
}

// Snapshot returns a deep copy that later UI mutations cannot reach
func (v VisibilityState) Snapshot() VisibilityState {
	var out VisibilityState
	if err := copier.CopyWithOption(&out, &v, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on type mismatches, fall back to a manual copy
		return v.copyManually()
	}
	if v.StoreyFilter == nil {
		out.StoreyFilter = nil
	}
	return out
}

func (v VisibilityState) copyManually() VisibilityState {
	out := VisibilityState{CategoryVisibility: make(map[string]bool, len(v.CategoryVisibility))}
	for k, vis := range v.CategoryVisibility {
		out.CategoryVisibility[k] = vis
	}
	if v.StoreyFilter != nil {
		out.StoreyFilter = &StoreyFilter{Storey: v.StoreyFilter.Storey, Elements: make(map[string]bool, len(v.StoreyFilter.Elements))}
		for id := range v.StoreyFilter.Elements {
			out.StoreyFilter.Elements[id] = true
		}
	}
	return out
}
