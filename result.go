package glyphforge

import (
	"encoding/json"
	"fmt"
	"io"
)

// Status of a completed job.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Timing holds per-phase wall times of one job in milliseconds.
// ShapeMS covers shaping only, RenderMS covers rasterization and
// metrics, TotalMS covers the whole call including cache interaction,
// so TotalMS >= ShapeMS+RenderMS. On a glyph-cache hit the shape and
// render phases did not run and report zero.
type Timing struct {
	ShapeMS  float64 `json:"shape_ms"`
	RenderMS float64 `json:"render_ms"`
	TotalMS  float64 `json:"total_ms"`
}

// RenderedImage is the image payload of a successful pgm/png job.
type RenderedImage struct {
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	// Data is the base64-encoded image container (PGM or PNG bytes).
	Data string `json:"data"`
}

// Metrics are the scalar match descriptors of a rendered run, both
// normalized to [0, 1].
type Metrics struct {
	// Density is the fraction of canvas ink coverage.
	Density float64 `json:"density"`

	// Beam is the longest contiguous inked pixel run relative to the
	// canvas size, a secondary shape descriptor.
	Beam float64 `json:"beam"`
}

// JobResult is the outcome of one job. On success exactly one of
// Rendering and Metrics is set, depending on the requested format; on
// error neither is, and Error carries a human-readable message naming
// the failing condition.
type JobResult struct {
	ID        string         `json:"id"`
	Status    Status         `json:"status"`
	Timing    Timing         `json:"timing"`
	Rendering *RenderedImage `json:"rendering,omitempty"`
	Metrics   *Metrics       `json:"metrics,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// errorResult builds a job-local failure result.
func errorResult(id, msg string) JobResult {
	return JobResult{ID: id, Status: StatusError, Error: msg}
}

// WriteResults drains results and writes them to w as JSONL, one
// result per line in arrival order. It returns the number of results
// written and the first write or encode error.
func WriteResults(w io.Writer, results <-chan JobResult) (int, error) {
	enc := json.NewEncoder(w)
	n := 0
	for res := range results {
		if err := enc.Encode(res); err != nil {
			return n, fmt.Errorf("glyphforge: write result %q: %w", res.ID, err)
		}
		n++
	}
	return n, nil
}
