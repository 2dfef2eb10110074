package raster

// Density returns the fraction of total possible ink on the canvas:
// the coverage sum normalized by a fully-inked canvas. Always in
// [0, 1].
func Density(c *Canvas) float64 {
	if len(c.Pix) == 0 {
		return 0
	}
	var sum uint64
	for _, p := range c.Pix {
		sum += uint64(p)
	}
	d := float64(sum) / (float64(len(c.Pix)) * 255)
	return clamp01(d)
}

// Beam returns the longest contiguous run of inked pixels in row-major
// order, normalized by the total pixel count. It acts as a secondary
// shape descriptor alongside Density: wide solid strokes score high,
// sparse or fragmented ink scores low. Always in [0, 1].
func Beam(c *Canvas) float64 {
	if len(c.Pix) == 0 {
		return 0
	}
	var longest, current int
	for _, p := range c.Pix {
		if p != 0 {
			current++
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}
	}
	return clamp01(float64(longest) / float64(len(c.Pix)))
}

// Delta returns the mean absolute per-pixel difference between two
// canvases, normalized to [0, 1]. Zero means identical images.
func Delta(a, b *Canvas) (float64, error) {
	if a.W != b.W || a.H != b.H {
		return 0, ErrDimensionMismatch
	}
	if len(a.Pix) == 0 {
		return 0, nil
	}
	var sum uint64
	for i, p := range a.Pix {
		q := b.Pix[i]
		if p > q {
			sum += uint64(p - q)
		} else {
			sum += uint64(q - p)
		}
	}
	return clamp01(float64(sum) / (float64(len(a.Pix)) * 255)), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
