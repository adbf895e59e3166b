package align

import (
	"errors"

	"github.com/philipparndt/gobim/pkg/geometry"
)

// ErrIncomplete is returned when not all four points have been picked
var ErrIncomplete = errors.New("alignment points incomplete")

// Role names a slot in a point pair
type Role int

const (
	SourceA Role = iota
	TargetA
	SourceB
	TargetB
	// Complete means all slots are filled
	Complete
)

func (r Role) String() string {
	return [...]string{"source A", "target A", "source B", "target B", "complete"}[r]
}

// IsSource reports whether the role is a point on the model
func (r Role) IsSource() bool {
	return r == SourceA || r == SourceB
}

// PointPair collects the two source and two target points. Picks alternate
// source and target, so each model point is followed by its target.
type PointPair struct {
	points [4]geometry.Vector3
	next   Role
}

// Next returns the role the next picked point fills
func (p *PointPair) Next() Role {
	return p.next
}

// Add stores a point in the next free slot and returns the filled role.
// Adding to a complete pair returns Complete and stores nothing.
func (p *PointPair) Add(v geometry.Vector3) Role {
	if p.next == Complete {
		return Complete
	}
	role := p.next
	p.points[role] = v
	p.next++
	return role
}

// Len returns the number of stored points
func (p *PointPair) Len() int {
	return int(p.next)
}

// Point returns the point stored for a role
func (p *PointPair) Point(r Role) (geometry.Vector3, bool) {
	if r >= p.next {
		return geometry.Vector3{}, false
	}
	return p.points[r], true
}

// Points returns pA, pB, pT1, pT2 once all four are set
func (p *PointPair) Points() (pA, pB, pT1, pT2 geometry.Vector3, err error) {
	if p.next != Complete {
		return pA, pB, pT1, pT2, ErrIncomplete
	}
	return p.points[SourceA], p.points[SourceB], p.points[TargetA], p.points[TargetB], nil
}

// Clear empties the pair
func (p *PointPair) Clear() {
	*p = PointPair{}
}
