package bim

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Color is a linear RGBA color with components in [0, 1]
type Color struct {
	R, G, B, A float64
}

// Opaque returns an opaque color
func Opaque(r, g, b float64) Color {
	return Color{R: r, G: g, B: b, A: 1}
}

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa"
func ParseHex(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{
		R: float64(v>>24&0xff) / 255,
		G: float64(v>>16&0xff) / 255,
		B: float64(v>>8&0xff) / 255,
		A: float64(v&0xff) / 255,
	}, nil
}

// Hex formats the color as "#rrggbbaa"
func (c Color) Hex() string {
	n := c.NRGBA()
	return fmt.Sprintf("#%02x%02x%02x%02x", n.R, n.G, n.B, n.A)
}

// NRGBA converts to an 8-bit non-premultiplied color
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: channel(c.R), G: channel(c.G), B: channel(c.B), A: channel(c.A)}
}

// Clamp limits all components to [0, 1]. NaN components become 0.
func (c Color) Clamp() Color {
	clamp := func(v float64) float64 {
		if math.IsNaN(v) {
			return 0
		}
		return math.Max(0, math.Min(1, v))
	}
	return Color{R: clamp(c.R), G: clamp(c.G), B: clamp(c.B), A: clamp(c.A)}
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
