package fonts

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-text/typesetting/font"
)

// Hard clamps for the registered axes most commonly driven by
// optimizers. Coordinates outside these ranges produce degenerate
// instances on many fonts, so they are narrowed before the font's own
// axis bounds apply.
var axisClamps = map[string][2]float64{
	"wght": {100, 900},
	"wdth": {50, 200},
}

// clampCoords normalizes a variation-coordinate map into a sorted,
// deduplicated list ready for Face.SetVariations.
//
// Rules: non-finite values and malformed tags (length != 4) are
// dropped; registered axes with hard clamps are narrowed to them; the
// result is sorted by tag so identical coordinate maps always produce
// identical instances and cache keys. Axes the font does not declare
// are ignored downstream by the face itself.
func clampCoords(coords map[string]float64) []font.Variation {
	if len(coords) == 0 {
		return nil
	}

	tags := make([]string, 0, len(coords))
	for tag := range coords {
		if len(tag) != 4 {
			continue
		}
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	out := make([]font.Variation, 0, len(tags))
	for _, tag := range tags {
		v := coords[tag]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if clamp, ok := axisClamps[tag]; ok {
			v = math.Max(clamp[0], math.Min(clamp[1], v))
		}
		out = append(out, font.Variation{
			Tag:   makeTag(tag),
			Value: float32(v),
		})
	}
	return out
}

// makeTag packs a 4-character axis tag into its OpenType representation.
func makeTag(s string) font.Tag {
	return font.Tag(uint32(s[0])<<24 | uint32(s[1])<<16 | uint32(s[2])<<8 | uint32(s[3]))
}

// tagString unpacks an OpenType tag back into its 4-character form.
func tagString(t font.Tag) string {
	u := uint32(t)
	return string([]byte{byte(u >> 24), byte(u >> 16), byte(u >> 8), byte(u)})
}

// coordsKey renders a clamped coordinate list as a canonical string,
// e.g. "wdth=100,wght=700". Used as a cache-key component.
func coordsKey(coords []font.Variation) string {
	if len(coords) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range coords {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tagString(c.Tag))
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(float64(c.Value), 'g', -1, 32))
	}
	return b.String()
}
