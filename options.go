package glyphforge

import (
	"runtime"
	"time"
)

// Default cache capacities.
const (
	// DefaultFontCacheSize is the default font-instance tier capacity.
	DefaultFontCacheSize = 32

	// DefaultGlyphCacheSize is the default rendered-glyph tier capacity.
	DefaultGlyphCacheSize = 1024
)

// Option configures an [Engine] or [Session] during creation.
//
// Example:
//
//	engine := glyphforge.NewEngine(
//	    glyphforge.WithWorkers(4),
//	    glyphforge.WithJobTimeout(2*time.Second),
//	)
type Option func(*engineOptions)

// engineOptions holds optional engine configuration.
type engineOptions struct {
	workers        int
	jobTimeout     time.Duration
	fontCacheSize  int
	glyphCacheSize int
	baseDir        string
}

// defaultEngineOptions returns the default engine configuration.
func defaultEngineOptions() engineOptions {
	return engineOptions{
		workers:        runtime.GOMAXPROCS(0),
		fontCacheSize:  DefaultFontCacheSize,
		glyphCacheSize: DefaultGlyphCacheSize,
	}
}

// WithWorkers bounds the worker pool used by batch execution and
// variation sweeps. Values below 1 keep the default (available
// parallelism).
func WithWorkers(n int) Option {
	return func(o *engineOptions) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithJobTimeout bounds a single job's wall time. On expiry the job's
// result is an error; other jobs continue unaffected. Zero disables
// the per-job timeout.
func WithJobTimeout(d time.Duration) Option {
	return func(o *engineOptions) {
		if d > 0 {
			o.jobTimeout = d
		}
	}
}

// WithFontCacheSize sets the font-instance tier capacity.
// Zero disables font caching.
func WithFontCacheSize(n int) Option {
	return func(o *engineOptions) {
		if n >= 0 {
			o.fontCacheSize = n
		}
	}
}

// WithGlyphCacheSize sets the rendered-glyph tier capacity.
// Zero disables glyph caching.
func WithGlyphCacheSize(n int) Option {
	return func(o *engineOptions) {
		if n >= 0 {
			o.glyphCacheSize = n
		}
	}
}

// WithBaseDir restricts font path resolution to dir: relative paths
// resolve under it and paths escaping it are rejected. Empty (the
// default) allows any path.
func WithBaseDir(dir string) Option {
	return func(o *engineOptions) {
		o.baseDir = dir
	}
}
