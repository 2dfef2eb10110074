package shape

import (
	"errors"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/glyphforge/glyphforge/fonts"
)

// testInstance parses Go Regular once per test.
func testInstance(t *testing.T) *fonts.Instance {
	t.Helper()
	inst, err := fonts.FromData(goregular.TTF, 0, nil)
	if err != nil {
		t.Fatalf("load test font: %v", err)
	}
	return inst
}

func TestShapeBasicLatin(t *testing.T) {
	inst := testInstance(t)
	shaper := NewShaper()

	run, err := shaper.Shape(inst.Face(), "Hello", 16, Options{})
	if err != nil {
		t.Fatalf("Shape() error = %v", err)
	}
	if len(run.Glyphs) != 5 {
		t.Fatalf("Shape(\"Hello\") produced %d glyphs, want 5", len(run.Glyphs))
	}
	if run.Vertical {
		t.Error("Vertical = true, want false for LTR")
	}
	if run.Advance <= 0 {
		t.Errorf("Advance = %g, want > 0", run.Advance)
	}

	// Pen positions must be non-decreasing along the run.
	prevX := -1.0
	for i, g := range run.Glyphs {
		if g.X < prevX {
			t.Errorf("glyph %d at X=%g, before previous %g", i, g.X, prevX)
		}
		if g.XAdvance <= 0 {
			t.Errorf("glyph %d XAdvance = %g, want > 0", i, g.XAdvance)
		}
		prevX = g.X
	}
}

func TestShapeEmptyText(t *testing.T) {
	inst := testInstance(t)
	shaper := NewShaper()

	if _, err := shaper.Shape(inst.Face(), "", 16, Options{}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Shape(\"\") error = %v, want ErrEmptyText", err)
	}
}

func TestShapeBadDirection(t *testing.T) {
	inst := testInstance(t)
	shaper := NewShaper()

	if _, err := shaper.Shape(inst.Face(), "x", 16, Options{Direction: "up"}); err == nil {
		t.Error("Shape() error = nil, want unsupported direction error")
	}
}

func TestShapeKerning(t *testing.T) {
	inst := testInstance(t)
	shaper := NewShaper()

	av, err := shaper.Shape(inst.Face(), "AV", 64, Options{})
	if err != nil {
		t.Fatalf("Shape(\"AV\") error = %v", err)
	}
	a, err := shaper.Shape(inst.Face(), "A", 64, Options{})
	if err != nil {
		t.Fatalf("Shape(\"A\") error = %v", err)
	}
	v, err := shaper.Shape(inst.Face(), "V", 64, Options{})
	if err != nil {
		t.Fatalf("Shape(\"V\") error = %v", err)
	}

	// Go Regular kerns AV; the pair is never wider than the parts.
	if av.Advance > a.Advance+v.Advance {
		t.Errorf("Advance(AV) = %g, want <= %g", av.Advance, a.Advance+v.Advance)
	}
}

func TestShapeVertical(t *testing.T) {
	inst := testInstance(t)
	shaper := NewShaper()

	run, err := shaper.Shape(inst.Face(), "Hi", 16, Options{Direction: "ttb"})
	if err != nil {
		t.Fatalf("Shape() error = %v", err)
	}
	if !run.Vertical {
		t.Error("Vertical = false, want true for ttb")
	}
	if run.Advance <= 0 {
		t.Errorf("Advance = %g, want > 0", run.Advance)
	}
	for i, g := range run.Glyphs {
		if g.YAdvance == 0 {
			t.Errorf("glyph %d YAdvance = 0, want vertical advance", i)
		}
		if g.XAdvance != 0 {
			t.Errorf("glyph %d XAdvance = %g, want 0 in vertical run", i, g.XAdvance)
		}
	}
}

func TestShapeExplicitScriptAndLanguage(t *testing.T) {
	inst := testInstance(t)
	shaper := NewShaper()

	run, err := shaper.Shape(inst.Face(), "Hello", 16, Options{
		Script:   "Latn",
		Language: "en-US",
	})
	if err != nil {
		t.Fatalf("Shape() error = %v", err)
	}
	if len(run.Glyphs) != 5 {
		t.Errorf("Shape() produced %d glyphs, want 5", len(run.Glyphs))
	}
}

func TestShapeClusters(t *testing.T) {
	inst := testInstance(t)
	shaper := NewShaper()

	run, err := shaper.Shape(inst.Face(), "abc", 16, Options{})
	if err != nil {
		t.Fatalf("Shape() error = %v", err)
	}
	for i, g := range run.Glyphs {
		if g.Cluster != i {
			t.Errorf("glyph %d Cluster = %d, want %d", i, g.Cluster, i)
		}
	}
}

func TestParseFeatures(t *testing.T) {
	tests := []struct {
		spec      string
		wantTag   string
		wantValue uint32
	}{
		{"liga", "liga", 1},
		{"-liga", "liga", 0},
		{"ss01=2", "ss01", 2},
		{"kern=0", "kern", 0},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got := parseFeatures([]string{tt.spec})
			if len(got) != 1 {
				t.Fatalf("parseFeatures(%q) returned %d features, want 1", tt.spec, len(got))
			}
			wantTag := uint32(tt.wantTag[0])<<24 | uint32(tt.wantTag[1])<<16 | uint32(tt.wantTag[2])<<8 | uint32(tt.wantTag[3])
			if uint32(got[0].Tag) != wantTag {
				t.Errorf("Tag = %#x, want %#x", uint32(got[0].Tag), wantTag)
			}
			if got[0].Value != tt.wantValue {
				t.Errorf("Value = %d, want %d", got[0].Value, tt.wantValue)
			}
		})
	}

	if got := parseFeatures([]string{"", "waytoolong"}); len(got) != 0 {
		t.Errorf("parseFeatures(malformed) returned %d features, want 0", len(got))
	}
}

func TestShapeConcurrent(t *testing.T) {
	inst := testInstance(t)
	shaper := NewShaper()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Faces are per-goroutine; the shaper itself is shared.
			face := inst.Face()
			for i := 0; i < 50; i++ {
				run, err := shaper.Shape(face, "concurrent", 12, Options{})
				if err != nil {
					t.Errorf("Shape() error = %v", err)
					return
				}
				if len(run.Glyphs) == 0 {
					t.Error("Shape() produced no glyphs")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestLanguageOrDefault(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "en"},
		{"en", "en"},
		{"EN-us", "en-US"},
		{"zh_Hans", "zh-Hans"},
		{"not a tag!", "not a tag!"},
	}
	for _, tt := range tests {
		if got := languageOrDefault(tt.in); got != tt.want {
			t.Errorf("languageOrDefault(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
