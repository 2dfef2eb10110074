package glyphforge

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// BatchVersion is the only batch envelope version the engine accepts.
const BatchVersion = "1.0"

// Validation bounds for job fields.
const (
	maxFontSize   = 10000
	maxTextLen    = 10000
	maxLangLen    = 32
	maxFeatures   = 64
	maxCanvasSide = 10000
)

// Render formats.
const (
	FormatPGM     = "pgm"
	FormatPNG     = "png"
	FormatMetrics = "metrics"
)

// FontRef identifies the font a job renders with.
type FontRef struct {
	// Path locates the font file. Resolution may be restricted to a
	// base directory via [WithBaseDir].
	Path string `json:"path"`

	// Size is the render size in points. Must be in [1, 10000].
	Size float64 `json:"size"`

	// Variations selects a variable-font instance, axis tag to value.
	Variations map[string]float64 `json:"variations,omitempty"`

	// FaceIndex selects a face within a collection file. Defaults to 0.
	FaceIndex int `json:"face_index,omitempty"`
}

// TextRun is the text a job shapes and renders, with optional shaping
// controls. Zero values mean: autodetected script, LTR direction, no
// language, no feature toggles.
type TextRun struct {
	Content   string   `json:"content"`
	Script    string   `json:"script,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Language  string   `json:"language,omitempty"`
	Features  []string `json:"features,omitempty"`
}

// RenderRequest describes the output a job produces.
type RenderRequest struct {
	// Format is "pgm", "png" or "metrics". The metrics format skips
	// image assembly and returns density/beam only.
	Format string `json:"format"`

	// Encoding of image payloads; "base64" (the default) is the only
	// byte encoding. Ignored for the metrics format.
	Encoding string `json:"encoding,omitempty"`

	// Width and height of the canvas in pixels, each in [1, 10000].
	Width  int `json:"width"`
	Height int `json:"height"`
}

// JobSpec is one rendering request. Immutable once constructed.
type JobSpec struct {
	// ID correlates the job with its result. IDs need not be unique;
	// results echo them verbatim.
	ID        string        `json:"id"`
	Font      FontRef       `json:"font"`
	Text      TextRun       `json:"text"`
	Rendering RenderRequest `json:"rendering"`
}

// BatchSpec is a request batch envelope.
type BatchSpec struct {
	Version string    `json:"version"`
	Jobs    []JobSpec `json:"jobs"`
}

// ParseBatch decodes and checks a batch envelope.
//
// It fails with [ErrInvalidInput] for malformed JSON, with
// [ErrUnsupportedVersion] for a version other than "1.0", and with
// [ErrEmptyBatch] for an empty job list. These checks are batch-fatal
// and happen before any rendering; per-job structural problems are
// deferred to execution and reported per job.
func ParseBatch(raw []byte) (*BatchSpec, error) {
	var batch BatchSpec
	if err := json.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Validate checks the envelope-level invariants of a batch.
func (b *BatchSpec) Validate() error {
	if b.Version != BatchVersion {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, b.Version)
	}
	if len(b.Jobs) == 0 {
		return ErrEmptyBatch
	}
	return nil
}

// Validate checks the job's structural invariants. A non-nil error is
// job-local: the executor reports it as a [JobResult] with
// [StatusError] rather than failing the batch.
func (j *JobSpec) Validate() error {
	if j.Font.Path == "" {
		return fmt.Errorf("font.path is required")
	}
	if j.Font.Size < 1 || j.Font.Size > maxFontSize {
		return fmt.Errorf("font.size %g out of range [1, %d]", j.Font.Size, maxFontSize)
	}
	if j.Font.FaceIndex < 0 {
		return fmt.Errorf("font.face_index %d must not be negative", j.Font.FaceIndex)
	}

	if j.Text.Content == "" {
		return fmt.Errorf("text.content is required")
	}
	if n := utf8.RuneCountInString(j.Text.Content); n > maxTextLen {
		return fmt.Errorf("text.content has %d characters, limit %d", n, maxTextLen)
	}
	switch j.Text.Direction {
	case "", "ltr", "rtl", "ttb", "btt":
	default:
		return fmt.Errorf("unsupported direction %q", j.Text.Direction)
	}
	if err := validateLanguage(j.Text.Language); err != nil {
		return err
	}
	if len(j.Text.Features) > maxFeatures {
		return fmt.Errorf("%d features exceed limit %d", len(j.Text.Features), maxFeatures)
	}
	for _, f := range j.Text.Features {
		if f == "" {
			return fmt.Errorf("features must not contain empty entries")
		}
	}

	switch j.Rendering.Format {
	case FormatPGM, FormatPNG, FormatMetrics:
	default:
		return fmt.Errorf("unsupported format %q", j.Rendering.Format)
	}
	switch j.Rendering.Encoding {
	case "", "base64", "json":
	default:
		return fmt.Errorf("unsupported encoding %q", j.Rendering.Encoding)
	}
	if w, h := j.Rendering.Width, j.Rendering.Height; w < 1 || w > maxCanvasSide || h < 1 || h > maxCanvasSide {
		return fmt.Errorf("invalid canvas %dx%d: dimensions must be in [1, %d]", w, h, maxCanvasSide)
	}
	return nil
}

// validateLanguage enforces the language-tag shape: at most 32
// characters, alphanumeric plus '-' and '_'.
func validateLanguage(lang string) error {
	if len(lang) > maxLangLen {
		return fmt.Errorf("language tag exceeds %d characters", maxLangLen)
	}
	for _, r := range lang {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("language tag contains invalid character %q", r)
		}
	}
	return nil
}
