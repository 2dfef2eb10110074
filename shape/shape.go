// Package shape turns a single text run into positioned glyphs using
// HarfBuzz shaping via go-text/typesetting.
//
// It supports OpenType feature toggles, right-to-left scripts and
// vertical directions, but performs no line breaking or bidi
// segmentation: a run is shaped as one unit.
package shape

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	xlanguage "golang.org/x/text/language"
)

// Errors returned by the shaper.
var (
	// ErrEmptyText is returned when the input run has no content.
	ErrEmptyText = errors.New("shape: empty text")

	// ErrNoGlyphs is returned when shaping a non-empty run produced no
	// glyphs, which indicates a font/script mismatch.
	ErrNoGlyphs = errors.New("shape: shaping produced no glyphs")
)

// Glyph is one positioned glyph of a shaped run.
// Positions and advances are in pixels at the requested size.
type Glyph struct {
	// GID is the glyph index in the font.
	GID font.GID

	// X, Y is the pen position for this glyph, including shaping
	// offsets. Y grows upward from the baseline (font convention).
	X, Y float64

	// XAdvance and YAdvance move the pen after this glyph; exactly one
	// is nonzero depending on the run direction.
	XAdvance float64
	YAdvance float64

	// Cluster is the rune index in the source text this glyph maps to.
	Cluster int
}

// Run is the result of shaping one text run.
type Run struct {
	Glyphs []Glyph

	// Advance is the total pen travel of the run in pixels.
	Advance float64

	// Vertical reports whether the run was shaped top-to-bottom or
	// bottom-to-top.
	Vertical bool
}

// Options carries the optional shaping controls of a text run.
// Zero values select defaults: LTR direction, autodetected script,
// no language, no feature toggles.
type Options struct {
	// Script is a 4-character OpenType script tag (e.g. "Latn").
	// Empty means detect from the first significant rune.
	Script string

	// Direction is one of "ltr", "rtl", "ttb", "btt". Empty means LTR.
	Direction string

	// Language is a BCP 47 language tag.
	Language string

	// Features toggles OpenType features: "liga" enables, "-liga"
	// disables, "ss01=2" selects an alternate value.
	Features []string
}

// Shaper shapes text runs. It is safe for concurrent use: the
// underlying HarfBuzz shapers carry mutable buffers and are pooled,
// one per in-flight call.
//
// The face passed to Shape is NOT safe for concurrent use; each
// goroutine needs its own (see fonts.Instance.Face).
type Shaper struct {
	pool sync.Pool
}

// NewShaper creates a Shaper.
func NewShaper() *Shaper {
	return &Shaper{
		pool: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
	}
}

// Shape shapes text against face at the given pixel size.
func (s *Shaper) Shape(face *font.Face, text string, size float64, opts Options) (Run, error) {
	if text == "" {
		return Run{}, ErrEmptyText
	}

	dir, err := parseDirection(opts.Direction)
	if err != nil {
		return Run{}, err
	}

	runes := []rune(text)

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: dir,
		Face:      face,
		Size:      floatToFixed(size),
		Script:    resolveScript(opts.Script, runes),
		Language:  language.NewLanguage(languageOrDefault(opts.Language)),
	}
	if len(opts.Features) > 0 {
		input.FontFeatures = parseFeatures(opts.Features)
	}

	// HarfbuzzShaper is not concurrent-safe; each call borrows one
	// from the pool.
	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	output := hb.Shape(input)
	s.pool.Put(hb)

	if len(output.Glyphs) == 0 {
		return Run{}, fmt.Errorf("%w (script %q)", ErrNoGlyphs, opts.Script)
	}

	return convertRun(output.Glyphs, dir), nil
}

// parseDirection maps a job direction string to go-text's di.Direction.
func parseDirection(s string) (di.Direction, error) {
	switch s {
	case "", "ltr":
		return di.DirectionLTR, nil
	case "rtl":
		return di.DirectionRTL, nil
	case "ttb":
		return di.DirectionTTB, nil
	case "btt":
		return di.DirectionBTT, nil
	default:
		return di.DirectionLTR, fmt.Errorf("shape: unsupported direction %q", s)
	}
}

// resolveScript returns the script to shape with: the explicit
// 4-character tag when given, else the script of the first
// non-whitespace rune.
func resolveScript(tag string, runes []rune) language.Script {
	if len(tag) == 4 {
		return language.Script(uint32(tag[0])<<24 | uint32(tag[1])<<16 | uint32(tag[2])<<8 | uint32(tag[3]))
	}
	return detectScript(runes)
}

// detectScript inspects the runes and returns the script of the first
// non-space character. For mixed-script text callers should split runs
// by script before shaping.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

// languageOrDefault canonicalizes a BCP 47 tag (underscores tolerated,
// case normalized). Tags that do not parse pass through unchanged so
// the shaper can apply its own fallback.
func languageOrDefault(lang string) string {
	if lang == "" {
		return "en"
	}
	tag, err := xlanguage.Parse(strings.ReplaceAll(lang, "_", "-"))
	if err != nil {
		return lang
	}
	return tag.String()
}

// parseFeatures converts feature strings into shaping feature settings.
// "liga" enables a feature, "-liga" disables it, "ss01=2" sets an
// explicit value. Malformed entries are skipped.
func parseFeatures(specs []string) []shaping.FontFeature {
	out := make([]shaping.FontFeature, 0, len(specs))
	for _, spec := range specs {
		value := uint32(1)
		if len(spec) > 0 && spec[0] == '-' {
			value = 0
			spec = spec[1:]
		}
		if i := strings.IndexByte(spec, '='); i >= 0 {
			if n, err := strconv.ParseUint(spec[i+1:], 10, 32); err == nil {
				value = uint32(n)
			}
			spec = spec[:i]
		}
		if len(spec) == 0 || len(spec) > 4 {
			continue
		}
		// OpenType tags are space-padded to four characters.
		for len(spec) < 4 {
			spec += " "
		}
		out = append(out, shaping.FontFeature{
			Tag:   font.Tag(uint32(spec[0])<<24 | uint32(spec[1])<<16 | uint32(spec[2])<<8 | uint32(spec[3])),
			Value: value,
		})
	}
	return out
}

// floatToFixed converts a float64 size to 26.6 fixed point.
func floatToFixed(size float64) fixed.Int26_6 {
	return fixed.Int26_6(size * 64)
}

// fixedToFloat converts a 26.6 fixed-point value to float64.
func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}

// convertRun converts shaping output into a Run, accumulating pen
// positions along the run's axis.
func convertRun(glyphs []shaping.Glyph, dir di.Direction) Run {
	run := Run{
		Glyphs:   make([]Glyph, len(glyphs)),
		Vertical: dir.IsVertical(),
	}

	var x, y float64
	for i, g := range glyphs {
		xOff := fixedToFloat(g.XOffset)
		yOff := fixedToFloat(g.YOffset)

		run.Glyphs[i] = Glyph{
			GID:     g.GlyphID,
			Cluster: g.TextIndex(),
			X:       x + xOff,
			Y:       y + yOff,
		}

		adv := fixedToFloat(g.Advance)
		if dir.IsVertical() {
			run.Glyphs[i].YAdvance = adv
			y += adv
		} else {
			run.Glyphs[i].XAdvance = adv
			x += adv
		}
	}

	if run.Vertical {
		run.Advance = abs(y)
	} else {
		run.Advance = abs(x)
	}
	return run
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
