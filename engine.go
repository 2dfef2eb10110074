package glyphforge

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/glyphforge/glyphforge/cache"
	"github.com/glyphforge/glyphforge/fonts"
	"github.com/glyphforge/glyphforge/raster"
	"github.com/glyphforge/glyphforge/shape"
)

// CacheStats is a point-in-time snapshot of an engine's two cache
// tiers: font instances and rendered glyphs. Advisory only.
type CacheStats struct {
	Capacity      int    `json:"capacity"`
	Entries       int    `json:"entries"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	GlyphCapacity int    `json:"glyph_capacity"`
	GlyphEntries  int    `json:"glyph_entries"`
	GlyphHits     uint64 `json:"glyph_hits"`
	GlyphMisses   uint64 `json:"glyph_misses"`
}

// rendered is a glyph-cache value: the coverage canvas of one shaped
// and rasterized run plus its metrics. Immutable once inserted.
type rendered struct {
	canvas  *raster.Canvas
	density float64
	beam    float64
}

// Engine executes rendering jobs over a pair of owned cache tiers.
//
// An Engine is safe for concurrent use. Each Engine owns independent
// cache state with its own lifecycle; create one per batch call for
// short-lived work, or keep one alive inside a [Session] for repeated
// low-latency calls.
type Engine struct {
	fonts  *fonts.Cache
	glyphs *cache.Cache[*rendered]
	shaper *shape.Shaper

	workers    int
	jobTimeout time.Duration
}

// NewEngine creates an engine with the given options.
// The font source panics only on an unresolvable base directory,
// which is a configuration error; use [WithBaseDir] with care.
func NewEngine(opts ...Option) *Engine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	source, err := fonts.NewSource(o.baseDir)
	if err != nil {
		// An unresolvable base directory cannot be reported lazily
		// without poisoning every job; treat it as a programmer error.
		panic(fmt.Sprintf("glyphforge: invalid base directory: %v", err))
	}

	e := &Engine{
		fonts:      fonts.NewCache(source, o.fontCacheSize),
		glyphs:     cache.New[*rendered](o.glyphCacheSize),
		shaper:     shape.NewShaper(),
		workers:    o.workers,
		jobTimeout: o.jobTimeout,
	}
	Logger().Info("engine created",
		"workers", e.workers,
		"font_cache", o.fontCacheSize,
		"glyph_cache", o.glyphCacheSize)
	return e
}

// Render executes one job synchronously. It never panics and never
// returns a Go error: every failure is encoded in the result with
// [StatusError] and a message naming the failing condition.
func (e *Engine) Render(ctx context.Context, job JobSpec) JobResult {
	start := time.Now()

	if e.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.jobTimeout)
		defer cancel()
	}

	res := e.render(ctx, job)
	res.ID = job.ID
	res.Timing.TotalMS = msSince(start)

	if res.Status == StatusError {
		Logger().Warn("job failed", "id", job.ID, "error", res.Error)
	}
	return res
}

// render runs the validate/load/shape/raster/assemble pipeline.
// The caller fills in ID and TotalMS.
func (e *Engine) render(ctx context.Context, job JobSpec) JobResult {
	if err := job.Validate(); err != nil {
		return errorResult(job.ID, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return errorResult(job.ID, deadlineMessage(err))
	}

	inst, err := e.fonts.Get(fonts.Ref{
		Path:       job.Font.Path,
		FaceIndex:  job.Font.FaceIndex,
		Variations: job.Font.Variations,
	})
	if err != nil {
		return errorResult(job.ID, fmt.Sprintf("font load failed: %v", err))
	}
	if err := ctx.Err(); err != nil {
		return errorResult(job.ID, deadlineMessage(err))
	}

	var timing Timing
	key := glyphKey(inst, job)
	r, err := e.glyphs.GetOrLoad(key, func() (*rendered, error) {
		return e.shapeAndRaster(inst, job, &timing)
	})
	if err != nil {
		return errorResult(job.ID, err.Error())
	}
	if err := ctx.Err(); err != nil {
		return errorResult(job.ID, deadlineMessage(err))
	}

	return e.assemble(job, r, timing)
}

// shapeAndRaster is the glyph-cache loader: shape the run, rasterize
// it, compute metrics. Runs at most once per distinct key across all
// concurrent jobs.
func (e *Engine) shapeAndRaster(inst *fonts.Instance, job JobSpec, timing *Timing) (*rendered, error) {
	face := inst.Face()

	shapeStart := time.Now()
	run, err := e.shaper.Shape(face, job.Text.Content, job.Font.Size, shape.Options{
		Script:    job.Text.Script,
		Direction: job.Text.Direction,
		Language:  job.Text.Language,
		Features:  job.Text.Features,
	})
	timing.ShapeMS = msSince(shapeStart)
	if err != nil {
		return nil, fmt.Errorf("shaping failed: %w", err)
	}

	renderStart := time.Now()
	canvas, err := raster.NewCanvas(job.Rendering.Width, job.Rendering.Height)
	if err != nil {
		return nil, err
	}
	raster.Draw(canvas, face, run, job.Font.Size, inst.UnitsPerEm())

	r := &rendered{
		canvas:  canvas,
		density: raster.Density(canvas),
		beam:    raster.Beam(canvas),
	}
	timing.RenderMS = msSince(renderStart)
	return r, nil
}

// assemble builds the success result for the requested format.
func (e *Engine) assemble(job JobSpec, r *rendered, timing Timing) JobResult {
	res := JobResult{
		ID:     job.ID,
		Status: StatusSuccess,
		Timing: timing,
	}

	if job.Rendering.Format == FormatMetrics {
		res.Metrics = &Metrics{Density: r.density, Beam: r.beam}
		return res
	}

	// Image payloads carry ink black on white.
	img := r.canvas.Inverted()
	var data []byte
	switch job.Rendering.Format {
	case FormatPGM:
		data = raster.EncodePGM(img)
	case FormatPNG:
		var err error
		data, err = raster.EncodePNG(img)
		if err != nil {
			return errorResult(job.ID, err.Error())
		}
	}

	res.Rendering = &RenderedImage{
		Format: job.Rendering.Format,
		Width:  job.Rendering.Width,
		Height: job.Rendering.Height,
		Data:   base64.StdEncoding.EncodeToString(data),
	}
	return res
}

// glyphKey is the rendered-glyph cache key: font identity, the exact
// text run, size and canvas dimensions. Format and encoding are
// excluded because they do not change pixels, so structurally
// identical jobs share one entry regardless of output container.
func glyphKey(inst *fonts.Instance, job JobSpec) string {
	var b strings.Builder
	b.WriteString(inst.Key())
	b.WriteByte(0)
	b.WriteString(job.Text.Content)
	b.WriteByte(0)
	b.WriteString(job.Text.Script)
	b.WriteByte(0)
	b.WriteString(job.Text.Direction)
	b.WriteByte(0)
	b.WriteString(job.Text.Language)
	b.WriteByte(0)
	b.WriteString(strings.Join(job.Text.Features, ","))
	b.WriteByte(0)
	b.WriteString(strconv.FormatFloat(job.Font.Size, 'g', -1, 64))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(job.Rendering.Width))
	b.WriteByte('x')
	b.WriteString(strconv.Itoa(job.Rendering.Height))
	return b.String()
}

// CacheStats snapshots both cache tiers.
func (e *Engine) CacheStats() CacheStats {
	fs := e.fonts.Stats()
	gs := e.glyphs.Stats()
	return CacheStats{
		Capacity:      fs.Capacity,
		Entries:       fs.Entries,
		Hits:          fs.Hits,
		Misses:        fs.Misses,
		GlyphCapacity: gs.Capacity,
		GlyphEntries:  gs.Entries,
		GlyphHits:     gs.Hits,
		GlyphMisses:   gs.Misses,
	}
}

// SetFontCacheSize resizes the font-instance tier. Shrinking evicts
// least-recently-used instances; zero disables the tier.
func (e *Engine) SetFontCacheSize(n int) {
	Logger().Info("font cache resized", "capacity", n)
	e.fonts.SetCapacity(n)
}

// SetGlyphCacheSize resizes the rendered-glyph tier. Shrinking evicts
// least-recently-used entries; zero disables the tier.
func (e *Engine) SetGlyphCacheSize(n int) {
	Logger().Info("glyph cache resized", "capacity", n)
	e.glyphs.SetCapacity(n)
}

// ClearCaches drops both tiers' contents. In-flight jobs holding
// references to evicted values are unaffected.
func (e *Engine) ClearCaches() {
	e.fonts.Clear()
	e.glyphs.Clear()
}

// deadlineMessage maps a context error to a job-local message.
func deadlineMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "job timed out"
	}
	return "job canceled"
}

// msSince returns the wall time since start in milliseconds.
func msSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
