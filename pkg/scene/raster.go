package scene

import (
	"image"
	"image/color"
	"math"
)

// target is a color buffer with a depth buffer of the same size. Depth keys
// grow towards the viewer.
type target struct {
	img    *image.RGBA
	depth  []float64
	width  int
	height int
}

func newTarget(width, height int, background color.RGBA) *target {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = background.R
		img.Pix[i+1] = background.G
		img.Pix[i+2] = background.B
		img.Pix[i+3] = background.A
	}
	depth := make([]float64, width*height)
	for i := range depth {
		depth[i] = math.Inf(-1)
	}
	return &target{img: img, depth: depth, width: width, height: height}
}

// screenVertex is a projected vertex: pixel position and depth key
type screenVertex struct {
	x, y, z float64
}

// fillTriangle fills a triangle with depth testing, sampling at pixel
// centers. Translucent colors are blended and do not write depth.
func (t *target) fillTriangle(a, b, c screenVertex, col color.RGBA) {
	// Sort vertices by Y coordinate (top to bottom)
	if a.y > b.y {
		a, b = b, a
	}
	if b.y > c.y {
		b, c = c, b
	}
	if a.y > b.y {
		a, b = b, a
	}

	yStart := max(0, int(math.Ceil(a.y-0.5)))
	yEnd := min(t.height-1, int(math.Floor(c.y-0.5)))

	for y := yStart; y <= yEnd; y++ {
		fy := float64(y) + 0.5

		// Long edge a-c on one side, a-b or b-c on the other
		xl, zl := edgeAt(a, c, fy)
		var xr, zr float64
		if fy < b.y {
			xr, zr = edgeAt(a, b, fy)
		} else {
			xr, zr = edgeAt(b, c, fy)
		}
		if xl > xr {
			xl, xr = xr, xl
			zl, zr = zr, zl
		}

		xStart := max(0, int(math.Ceil(xl-0.5)))
		xEnd := min(t.width-1, int(math.Floor(xr-0.5)))
		for x := xStart; x <= xEnd; x++ {
			z := zl
			if xr > xl {
				z = zl + (float64(x)+0.5-xl)/(xr-xl)*(zr-zl)
			}
			t.plot(x, y, z, col)
		}
	}
}

func edgeAt(p, q screenVertex, fy float64) (x, z float64) {
	if q.y == p.y {
		return p.x, p.z
	}
	s := (fy - p.y) / (q.y - p.y)
	return p.x + s*(q.x-p.x), p.z + s*(q.z-p.z)
}

func (t *target) plot(x, y int, z float64, col color.RGBA) {
	idx := y*t.width + x
	if z <= t.depth[idx] {
		return
	}
	if col.A == 255 {
		t.depth[idx] = z
		t.img.SetRGBA(x, y, col)
		return
	}
	t.img.SetRGBA(x, y, blend(t.img.RGBAAt(x, y), col))
}

// blend composites a non-premultiplied color over dst
func blend(dst, src color.RGBA) color.RGBA {
	a := uint32(src.A)
	mix := func(d, s uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a)) / 255)
	}
	return color.RGBA{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B), A: 255}
}

// drawLine draws a line using Bresenham's algorithm, on top of everything
func (t *target) drawLine(x1, y1, x2, y2 int, col color.RGBA) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	var sx, sy int
	if x1 < x2 {
		sx = 1
	} else {
		sx = -1
	}
	if y1 < y2 {
		sy = 1
	} else {
		sy = -1
	}

	err := dx - dy

	for {
		if x1 >= 0 && x1 < t.width && y1 >= 0 && y1 < t.height {
			t.img.SetRGBA(x1, y1, col)
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
