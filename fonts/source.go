// Package fonts loads and caches variation-instanced font faces for
// the rendering engine.
//
// Parsed font.Font objects are read-only and safe for concurrent use;
// font.Face is not. The package therefore caches fonts plus their
// resolved variation coordinates and hands out a fresh Face per caller.
package fonts

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-text/typesetting/font"
)

// Errors returned by the font layer.
var (
	// ErrOutsideBase is returned when a font path resolves outside the
	// configured base directory.
	ErrOutsideBase = errors.New("fonts: path escapes base directory")

	// ErrBadFaceIndex is returned when a collection does not contain
	// the requested face index.
	ErrBadFaceIndex = errors.New("fonts: face index out of range")
)

// Source resolves font paths and parses font files.
//
// An optional base directory restricts resolution: paths that escape it
// after cleaning are rejected. The zero value resolves any path.
type Source struct {
	baseDir string
}

// NewSource creates a Source. baseDir may be empty to allow any path.
func NewSource(baseDir string) (*Source, error) {
	if baseDir == "" {
		return &Source{}, nil
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("fonts: resolve base directory: %w", err)
	}
	return &Source{baseDir: abs}, nil
}

// Resolve canonicalizes a font path, enforcing the base directory
// restriction when one is configured. The returned path is absolute
// and cleaned, suitable as a cache-key component.
func (s *Source) Resolve(path string) (string, error) {
	if path == "" {
		return "", errors.New("fonts: empty font path")
	}

	p := path
	if s.baseDir != "" && !filepath.IsAbs(p) {
		p = filepath.Join(s.baseDir, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("fonts: resolve %q: %w", path, err)
	}
	if s.baseDir != "" && !within(s.baseDir, abs) {
		return "", fmt.Errorf("%w: %q", ErrOutsideBase, path)
	}
	return abs, nil
}

// within reports whether path is base or inside base.
func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Load reads and parses the font file at the resolved path, selecting
// faceIndex within a collection. faceIndex 0 works for both single
// fonts and collections.
func (s *Source) Load(resolved string, faceIndex int) (*font.Font, error) {
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("fonts: read %q: %w", resolved, err)
	}
	return Parse(data, faceIndex)
}

// Parse parses in-memory font data, selecting faceIndex within a
// collection.
func Parse(data []byte, faceIndex int) (*font.Font, error) {
	if faceIndex == 0 {
		face, err := font.ParseTTF(bytes.NewReader(data))
		if err == nil {
			return face.Font, nil
		}
		// Fall through: the data may be a collection.
	}

	faces, err := font.ParseTTC(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fonts: parse font data: %w", err)
	}
	if faceIndex < 0 || faceIndex >= len(faces) {
		return nil, fmt.Errorf("%w: %d of %d", ErrBadFaceIndex, faceIndex, len(faces))
	}
	return faces[faceIndex].Font, nil
}
