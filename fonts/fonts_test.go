package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"
)

// writeTestFont writes Go Regular to a temp file and returns its path.
func writeTestFont(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "goregular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o600); err != nil {
		t.Fatalf("write test font: %v", err)
	}
	return path
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	src, err := NewSource(dir)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}

	t.Run("relative inside base", func(t *testing.T) {
		got, err := src.Resolve("sub/a.ttf")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		want := filepath.Join(dir, "sub", "a.ttf")
		if got != want {
			t.Errorf("Resolve() = %q, want %q", got, want)
		}
	})

	t.Run("escape rejected", func(t *testing.T) {
		_, err := src.Resolve("../escape.ttf")
		if !errors.Is(err, ErrOutsideBase) {
			t.Errorf("Resolve() error = %v, want ErrOutsideBase", err)
		}
	})

	t.Run("absolute outside base rejected", func(t *testing.T) {
		_, err := src.Resolve("/etc/passwd")
		if !errors.Is(err, ErrOutsideBase) {
			t.Errorf("Resolve() error = %v, want ErrOutsideBase", err)
		}
	})

	t.Run("empty path rejected", func(t *testing.T) {
		if _, err := src.Resolve(""); err == nil {
			t.Error("Resolve(\"\") error = nil, want error")
		}
	})

	t.Run("unrestricted source", func(t *testing.T) {
		open := &Source{}
		if _, err := open.Resolve("/anywhere/a.ttf"); err != nil {
			t.Errorf("Resolve() error = %v, want nil", err)
		}
	})
}

func TestClampCoords(t *testing.T) {
	coords := clampCoords(map[string]float64{
		"wght": 1200,
		"wdth": 10,
		"slnt": -8,
	})

	// Sorted by tag: slnt, wdth, wght.
	if len(coords) != 3 {
		t.Fatalf("clampCoords() returned %d coords, want 3", len(coords))
	}
	wantTags := []string{"slnt", "wdth", "wght"}
	wantValues := []float32{-8, 50, 900}
	for i, c := range coords {
		if got := tagString(c.Tag); got != wantTags[i] {
			t.Errorf("coords[%d].Tag = %q, want %q", i, got, wantTags[i])
		}
		if c.Value != wantValues[i] {
			t.Errorf("coords[%d].Value = %g, want %g", i, c.Value, wantValues[i])
		}
	}
}

func TestClampCoordsDropsInvalid(t *testing.T) {
	nan := float64(0)
	nan = nan / nan

	coords := clampCoords(map[string]float64{
		"wght":       nan, // non-finite
		"xx":         7,   // malformed tag
		"toolongtag": 1,   // malformed tag
		"wdth":       100,
	})
	if len(coords) != 1 {
		t.Fatalf("clampCoords() returned %d coords, want 1", len(coords))
	}
	if got := tagString(coords[0].Tag); got != "wdth" {
		t.Errorf("surviving tag = %q, want wdth", got)
	}
}

func TestCoordsKey(t *testing.T) {
	key := coordsKey(clampCoords(map[string]float64{
		"wght": 700,
		"wdth": 100,
	}))
	if key != "wdth=100,wght=700" {
		t.Errorf("coordsKey() = %q, want %q", key, "wdth=100,wght=700")
	}

	if got := coordsKey(nil); got != "" {
		t.Errorf("coordsKey(nil) = %q, want empty", got)
	}
}

func TestTagRoundTrip(t *testing.T) {
	for _, tag := range []string{"wght", "wdth", "slnt", "opsz"} {
		if got := tagString(makeTag(tag)); got != tag {
			t.Errorf("tagString(makeTag(%q)) = %q", tag, got)
		}
	}
}

func TestCacheGet(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFont(t, dir)

	c := NewCache(nil, 4)

	inst, err := c.Get(Ref{Path: path})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if inst.UnitsPerEm() <= 0 {
		t.Errorf("UnitsPerEm() = %g, want > 0", inst.UnitsPerEm())
	}
	if inst.Face() == nil {
		t.Error("Face() = nil")
	}

	// Second lookup is a hit on the same instance.
	again, err := c.Get(Ref{Path: path})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again != inst {
		t.Error("Get() returned a different instance on warm lookup")
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Stats() = %d hits / %d misses, want 1/1", stats.Hits, stats.Misses)
	}
}

func TestCacheGetCoordOrderIrrelevant(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFont(t, dir)

	c := NewCache(nil, 4)

	a, err := c.Get(Ref{Path: path, Variations: map[string]float64{"wght": 700, "wdth": 100}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	b, err := c.Get(Ref{Path: path, Variations: map[string]float64{"wdth": 100, "wght": 700}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if a != b {
		t.Error("structurally identical refs produced distinct instances")
	}
}

func TestCacheGetMissingFont(t *testing.T) {
	c := NewCache(nil, 4)

	_, err := c.Get(Ref{Path: filepath.Join(t.TempDir(), "nope.ttf")})
	if err == nil {
		t.Fatal("Get() error = nil, want error")
	}
	if !strings.Contains(err.Error(), "nope.ttf") {
		t.Errorf("Get() error = %q, want mention of the path", err)
	}
}

func TestCacheGetCorruptFont(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.ttf")
	if err := os.WriteFile(path, []byte("not a font"), 0o600); err != nil {
		t.Fatalf("write corrupt font: %v", err)
	}

	c := NewCache(nil, 4)
	if _, err := c.Get(Ref{Path: path}); err == nil {
		t.Error("Get() error = nil, want parse error")
	}
}

func TestFromData(t *testing.T) {
	inst, err := FromData(goregular.TTF, 0, map[string]float64{"wght": 700})
	if err != nil {
		t.Fatalf("FromData() error = %v", err)
	}
	if inst.UnitsPerEm() <= 0 {
		t.Errorf("UnitsPerEm() = %g, want > 0", inst.UnitsPerEm())
	}
	if inst.Key() == "" {
		t.Error("Key() = empty")
	}
}

func TestParseBadFaceIndex(t *testing.T) {
	// Go Regular is not a collection: any nonzero index must fail,
	// either as a collection-parse error or as an index error.
	if _, err := Parse(goregular.TTF, 5); err == nil {
		t.Error("Parse() error = nil, want error for face index 5")
	}
}
