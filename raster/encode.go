package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
)

// EncodePGM serializes the canvas as a binary PGM (P5) image.
func EncodePGM(c *Canvas) []byte {
	header := fmt.Sprintf("P5\n%d %d\n255\n", c.W, c.H)
	out := make([]byte, 0, len(header)+len(c.Pix))
	out = append(out, header...)
	out = append(out, c.Pix...)
	return out
}

// EncodePNG serializes the canvas as an 8-bit grayscale PNG.
func EncodePNG(c *Canvas) ([]byte, error) {
	img := &image.Gray{
		Pix:    c.Pix,
		Stride: c.W,
		Rect:   image.Rect(0, 0, c.W, c.H),
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("raster: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
