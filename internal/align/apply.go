package align

import (
	"fmt"
	"log/slog"

	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/pkg/geometry"
)

// Observer receives the outcome of every solve
type Observer interface {
	ObserveSolve(ok bool)
}

// Aligner applies solved similarities to a model root
type Aligner struct {
	// PlaneHeight is the height of the reference plane the model is
	// rested on after alignment
	PlaneHeight float64
	Logger      *slog.Logger
	Observer    Observer
}

// Align solves for the similarity mapping pA, pB to pT1, pT2 and applies it
// to root. The model points are picked on the displayed model, so they are
// first mapped back into the pre-alignment frame. bounds are the model's
// bounds in root-local space. On error root is not modified.
func (a *Aligner) Align(root *bim.Root, bounds geometry.BoundingBox, pA, pB, pT1, pT2 geometry.Vector3) (Similarity, error) {
	toReference, ok := a.referenceMatrix(root)
	if !ok {
		a.observe(false)
		return Similarity{}, fmt.Errorf("%w: model transform is singular", ErrDegenerateInput)
	}

	sim, err := Solve(toReference.TransformPoint(pA), toReference.TransformPoint(pB), pT1, pT2)
	if err != nil {
		a.observe(false)
		return Similarity{}, err
	}

	a.Apply(root, sim, bounds)
	a.observe(true)
	a.logger().Info("alignment applied",
		"scale", sim.Scale,
		"angle", sim.AngleDegrees(),
		"translation", sim.Translation)
	return sim, nil
}

// Apply left-multiplies sim onto the root's original transform, lifts the
// result so the lowest point of bounds rests on the plane, and stores the
// decomposition as the current transform. Applying the same similarity
// again yields the same transform.
func (a *Aligner) Apply(root *bim.Root, sim Similarity, bounds geometry.BoundingBox) {
	m := sim.Matrix().Mul(root.Original.Matrix())
	if !bounds.IsEmpty() {
		lowest := bounds.Transform(m).Min.Y
		m = geometry.Translation(geometry.NewVector3(0, a.PlaneHeight-lowest, 0)).Mul(m)
	}
	root.Current = geometry.Decompose(m)
}

// referenceMatrix maps displayed world points to pre-alignment world points
func (a *Aligner) referenceMatrix(root *bim.Root) (geometry.Matrix4, bool) {
	inv, ok := root.Current.Matrix().Inverse()
	if !ok {
		return geometry.Identity(), false
	}
	return root.Original.Matrix().Mul(inv), true
}

func (a *Aligner) observe(ok bool) {
	if a.Observer != nil {
		a.Observer.ObserveSolve(ok)
	}
}

func (a *Aligner) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
