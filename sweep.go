package glyphforge

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// SweepConfig describes a variation sweep: one text run rendered
// across many variable-font coordinate sets.
type SweepConfig struct {
	Font   FontRef `json:"font"`
	Text   string  `json:"text"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// SweepPoint is the outcome for one coordinate set. Points preserve
// input order: point i corresponds to coordSets[i], and Coords echoes
// that set verbatim so callers can index results positionally.
type SweepPoint struct {
	Coords map[string]float64 `json:"coords"`

	// Metrics is nil when this point failed; Err then carries the
	// job-local message.
	Metrics *Metrics `json:"metrics,omitempty"`

	// RenderMS is the wall time spent rendering this point.
	RenderMS float64 `json:"render_ms"`

	Err string `json:"error,omitempty"`
}

// RenderSweep renders cfg's text once per coordinate set, in parallel
// across the engine's worker pool, sharing the engine's caches so
// revisited coordinates (common during iterative optimization
// refinement) hit the rendered-glyph tier.
//
// The returned slice has exactly len(coordSets) points in input order.
// Config-level problems (invalid text, canvas or font size) fail the
// call itself; per-point failures yield a point with a nil Metrics and
// an Err message, and never abort the sweep.
func (e *Engine) RenderSweep(ctx context.Context, cfg SweepConfig, coordSets []map[string]float64) ([]SweepPoint, error) {
	template := JobSpec{
		ID:   "sweep",
		Font: cfg.Font,
		Text: TextRun{Content: cfg.Text},
		Rendering: RenderRequest{
			Format: FormatMetrics,
			Width:  cfg.Width,
			Height: cfg.Height,
		},
	}
	if err := template.Validate(); err != nil {
		return nil, fmt.Errorf("glyphforge: invalid sweep config: %w", err)
	}

	points := make([]SweepPoint, len(coordSets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, coords := range coordSets {
		i, coords := i, coords
		g.Go(func() error {
			job := template
			job.ID = strconv.Itoa(i)
			job.Font.Variations = coords

			res := e.Render(ctx, job)
			point := SweepPoint{
				Coords:   coords,
				RenderMS: res.Timing.TotalMS,
			}
			if res.Status == StatusError {
				point.Err = res.Error
			} else {
				point.Metrics = res.Metrics
			}
			points[i] = point
			// Point failures are recorded, never sweep-fatal.
			return nil
		})
	}
	// No task returns an error; Wait only synchronizes completion.
	_ = g.Wait()

	return points, nil
}
