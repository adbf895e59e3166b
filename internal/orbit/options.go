package orbit

// Options tunes the controller
type Options struct {
	// FOV is the vertical field of view in degrees
	FOV float64
	// OrbitSpeed is radians per pixel of drag
	OrbitSpeed float64
	// PanSpeed is the pan distance per pixel as a fraction of the radius
	PanSpeed float64
	// ZoomFactor is the radius multiplier per wheel tick
	ZoomFactor float64
	// ClickThreshold is the pointer travel in pixels at which a gesture
	// becomes a drag
	ClickThreshold float64
	// PolarEpsilon keeps the polar angle away from the pole and the horizon
	PolarEpsilon float64
	// OrthoScale is the orthographic half height per unit of radius
	OrthoScale float64
}

// DefaultOptions returns the stock controller tuning
func DefaultOptions() Options {
	return Options{
		FOV:            45,
		OrbitSpeed:     0.01,
		PanSpeed:       0.001,
		ZoomFactor:     1.1,
		ClickThreshold: 5,
		PolarEpsilon:   0.01,
		OrthoScale:     0.5,
	}
}
