// Package raster renders shaped glyph runs into 8-bit coverage
// canvases and derives the scalar match metrics used by font-matching
// optimizers.
package raster

import (
	"errors"
	"fmt"
)

// Canvas is a single-channel 8-bit coverage image in row-major order.
// A value of 0 is empty, 255 is fully inked.
type Canvas struct {
	W, H int
	Pix  []uint8 // len == W*H
}

// NewCanvas allocates a zeroed canvas. Dimensions must be positive.
func NewCanvas(w, h int) (*Canvas, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: invalid canvas %dx%d", w, h)
	}
	return &Canvas{W: w, H: h, Pix: make([]uint8, w*h)}, nil
}

// At returns the coverage at (x, y) without bounds checking beyond the
// slice's own.
func (c *Canvas) At(x, y int) uint8 {
	return c.Pix[y*c.W+x]
}

// Clone returns a deep copy of the canvas.
func (c *Canvas) Clone() *Canvas {
	pix := make([]uint8, len(c.Pix))
	copy(pix, c.Pix)
	return &Canvas{W: c.W, H: c.H, Pix: pix}
}

// Inverted returns a copy with coverage flipped, i.e. ink black on a
// white background, the form used for image payloads.
func (c *Canvas) Inverted() *Canvas {
	out := &Canvas{W: c.W, H: c.H, Pix: make([]uint8, len(c.Pix))}
	for i, p := range c.Pix {
		out.Pix[i] = 255 - p
	}
	return out
}

// Bounds returns the bounding box of nonzero coverage as half-open
// pixel ranges. ok is false for an empty canvas.
func (c *Canvas) Bounds() (minX, minY, maxX, maxY int, ok bool) {
	minX, minY = c.W, c.H
	maxX, maxY = -1, -1
	for y := 0; y < c.H; y++ {
		row := c.Pix[y*c.W : (y+1)*c.W]
		for x, p := range row {
			if p == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return 0, 0, 0, 0, false
	}
	return minX, minY, maxX + 1, maxY + 1, true
}

// ErrDimensionMismatch is returned when comparing canvases of
// different sizes.
var ErrDimensionMismatch = errors.New("raster: canvas dimensions differ")
