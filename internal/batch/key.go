package batch

import (
	"fmt"
	"math"

	"github.com/philipparndt/gobim/internal/bim"
)

const (
	// DefaultColorPrecision is the number of decimal digits kept per color
	// component when bucketing
	DefaultColorPrecision = 2
	// MaxColorPrecision is the largest supported precision
	MaxColorPrecision = 6
)

// ColorKey is a quantized RGBA color. Each component is
// round(c * 10^precision) of the clamped component, so keys are plain
// comparable integers independent of float formatting.
type ColorKey struct {
	R, G, B, A int
}

// Quantize computes the bucket key of a color at the given precision
func Quantize(c bim.Color, precision int) ColorKey {
	scale := math.Pow(10, float64(precision))
	c = c.Clamp()
	q := func(v float64) int {
		return int(math.Round(v * scale))
	}
	return ColorKey{R: q(c.R), G: q(c.G), B: q(c.B), A: q(c.A)}
}

// Color returns the representative color of the bucket
func (k ColorKey) Color(precision int) bim.Color {
	scale := math.Pow(10, float64(precision))
	return bim.Color{
		R: float64(k.R) / scale,
		G: float64(k.G) / scale,
		B: float64(k.B) / scale,
		A: float64(k.A) / scale,
	}
}

// Less orders keys component-wise
func (k ColorKey) Less(other ColorKey) bool {
	if k.R != other.R {
		return k.R < other.R
	}
	if k.G != other.G {
		return k.G < other.G
	}
	if k.B != other.B {
		return k.B < other.B
	}
	return k.A < other.A
}

func (k ColorKey) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", k.R, k.G, k.B, k.A)
}
