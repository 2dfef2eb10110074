package raster

import (
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"golang.org/x/image/vector"

	"github.com/glyphforge/glyphforge/shape"
)

// baselineFraction places the text baseline at this fraction of the
// canvas height, leaving room for ascenders above and descenders below.
const baselineFraction = 0.75

// maskPool recycles per-glyph alpha masks between Draw calls.
type pooledMask struct {
	img image.Alpha
}

var maskPool = sync.Pool{
	New: func() any { return new(pooledMask) },
}

func (m *pooledMask) reset(w, h int) *image.Alpha {
	need := w * h
	if cap(m.img.Pix) < need {
		m.img.Pix = make([]uint8, need)
	}
	m.img.Pix = m.img.Pix[:need]
	clear(m.img.Pix)
	m.img.Stride = w
	m.img.Rect = image.Rect(0, 0, w, h)
	return &m.img
}

// Draw rasterizes a shaped run onto the canvas.
//
// The pen starts at the left edge with the baseline at 75% of the
// canvas height; glyph outlines are scaled by size/upem from font
// units to pixels and scan-converted with anti-aliasing. Coverage from
// overlapping glyphs accumulates saturating. Glyphs without an outline
// (spaces, bitmap-only entries) contribute advance but no ink; parts
// of glyphs outside the canvas are clipped.
//
// The face must match the instance the run was shaped with, and must
// not be used concurrently by another goroutine.
func Draw(c *Canvas, face *font.Face, run shape.Run, size, upem float64) {
	if upem <= 0 {
		upem = 1000
	}
	scale := size / upem
	baseline := baselineFraction * float64(c.H)

	var r vector.Rasterizer
	for _, g := range run.Glyphs {
		outline, ok := face.GlyphData(g.GID).(font.GlyphOutline)
		if !ok || len(outline.Segments) == 0 {
			continue
		}
		// Glyph origin on the canvas. Font Y grows up, raster Y grows
		// down, so the outline is flipped around the baseline.
		drawOutline(c, &r, outline.Segments, scale, g.X, baseline-g.Y)
	}
}

// drawOutline scan-converts one glyph outline at origin (ox, oy).
func drawOutline(c *Canvas, r *vector.Rasterizer, segments []font.Segment, scale, ox, oy float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	visit := func(p font.SegmentPoint) (float64, float64) {
		x := ox + float64(p.X)*scale
		y := oy - float64(p.Y)*scale
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
		return x, y
	}

	// First pass: bounds of the transformed outline.
	for _, seg := range segments {
		for i := 0; i < segmentPointCount(seg.Op); i++ {
			visit(seg.Args[i])
		}
	}
	if minX > maxX {
		return
	}

	left := int(math.Floor(minX))
	top := int(math.Floor(minY))
	w := int(math.Ceil(maxX)) - left + 1
	h := int(math.Ceil(maxY)) - top + 1
	if w <= 0 || h <= 0 {
		return
	}

	// Second pass: trace into a glyph-local rasterizer. The offset
	// keeps coordinates in the positive quadrant the rasterizer needs.
	r.Reset(w, h)
	r.DrawOp = draw.Src
	point := func(p font.SegmentPoint) (float32, float32) {
		x := ox + float64(p.X)*scale - float64(left)
		y := oy - float64(p.Y)*scale - float64(top)
		return float32(x), float32(y)
	}
	for _, seg := range segments {
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			x, y := point(seg.Args[0])
			r.MoveTo(x, y)
		case ot.SegmentOpLineTo:
			x, y := point(seg.Args[0])
			r.LineTo(x, y)
		case ot.SegmentOpQuadTo:
			cx, cy := point(seg.Args[0])
			x, y := point(seg.Args[1])
			r.QuadTo(cx, cy, x, y)
		case ot.SegmentOpCubeTo:
			c1x, c1y := point(seg.Args[0])
			c2x, c2y := point(seg.Args[1])
			x, y := point(seg.Args[2])
			r.CubeTo(c1x, c1y, c2x, c2y, x, y)
		}
	}

	pm := maskPool.Get().(*pooledMask)
	mask := pm.reset(w, h)
	r.Draw(mask, mask.Rect, image.Opaque, image.Point{})

	blend(c, mask, left, top)
	maskPool.Put(pm)
}

// segmentPointCount returns how many of a segment's Args are in use.
func segmentPointCount(op ot.SegmentOp) int {
	switch op {
	case ot.SegmentOpQuadTo:
		return 2
	case ot.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}

// blend accumulates a glyph mask into the canvas at (left, top) with
// saturating addition, clipping to the canvas.
func blend(c *Canvas, mask *image.Alpha, left, top int) {
	for my := 0; my < mask.Rect.Dy(); my++ {
		cy := top + my
		if cy < 0 || cy >= c.H {
			continue
		}
		srcRow := mask.Pix[my*mask.Stride : my*mask.Stride+mask.Rect.Dx()]
		dstRow := c.Pix[cy*c.W : (cy+1)*c.W]
		for mx, a := range srcRow {
			if a == 0 {
				continue
			}
			cx := left + mx
			if cx < 0 || cx >= c.W {
				continue
			}
			sum := uint16(dstRow[cx]) + uint16(a)
			if sum > 255 {
				sum = 255
			}
			dstRow[cx] = uint8(sum)
		}
	}
}
