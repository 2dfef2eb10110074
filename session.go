package glyphforge

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Session is a long-lived wrapper around an engine for repeated
// low-latency calls, e.g. inside an optimizer loop. It owns its cache
// lifecycle explicitly: capacities are adjustable while the session
// lives, and Close releases cache contents.
//
// All methods are safe for concurrent use. After Close, Render and the
// cache controls fail with [ErrSessionClosed]; that error is
// session-fatal and distinct from a per-job error result.
type Session struct {
	engine *Engine
	closed atomic.Bool
}

// NewSession creates a session with its own engine and caches.
func NewSession(opts ...Option) *Session {
	return &Session{engine: NewEngine(opts...)}
}

// Render executes one job. The returned error is non-nil only for the
// session-fatal closed state; job-local failures are encoded in the
// result per the engine contract.
func (s *Session) Render(ctx context.Context, job JobSpec) (JobResult, error) {
	if s.closed.Load() {
		return JobResult{}, ErrSessionClosed
	}
	return s.engine.Render(ctx, job), nil
}

// WarmUp touches the cache subsystem without requiring a font, used
// as a readiness probe. Returns false once the session is closed.
func (s *Session) WarmUp() bool {
	if s.closed.Load() {
		return false
	}
	// A stats read plus a throwaway lookup exercises both tiers.
	_ = s.engine.CacheStats()
	_, _ = s.engine.glyphs.Get("\x00warmup")
	return true
}

// Ping is a pure liveness probe with no cache interaction.
func (s *Session) Ping() bool {
	return !s.closed.Load()
}

// CacheStats snapshots the session's cache tiers.
func (s *Session) CacheStats() (CacheStats, error) {
	if s.closed.Load() {
		return CacheStats{}, ErrSessionClosed
	}
	return s.engine.CacheStats(), nil
}

// SetCacheSize resizes the font-instance tier. The font tier cannot be
// disabled: n below 1 is an error.
func (s *Session) SetCacheSize(n int) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if n < 1 {
		return fmt.Errorf("glyphforge: font cache size must be at least 1, got %d", n)
	}
	s.engine.SetFontCacheSize(n)
	return nil
}

// SetGlyphCacheSize resizes the rendered-glyph tier. Zero disables
// glyph caching; negative sizes are an error.
func (s *Session) SetGlyphCacheSize(n int) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if n < 0 {
		return fmt.Errorf("glyphforge: glyph cache size must not be negative, got %d", n)
	}
	s.engine.SetGlyphCacheSize(n)
	return nil
}

// Close releases the session's cache contents. Idempotent: closing an
// already-closed session is a no-op. In-flight renders keep their own
// references and finish normally.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.engine.ClearCaches()
	Logger().Info("session closed")
}
