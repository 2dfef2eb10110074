package fonts

import (
	"fmt"
	"strconv"

	"github.com/go-text/typesetting/font"

	"github.com/glyphforge/glyphforge/cache"
)

// DefaultCapacity is the default number of font instances retained.
const DefaultCapacity = 32

// Ref identifies a font instance to load: a path, a face index within
// a collection, and variable-axis coordinates.
type Ref struct {
	Path       string
	FaceIndex  int
	Variations map[string]float64
}

// Instance is a loaded font with resolved variation coordinates.
//
// The underlying font.Font is immutable and shared between all holders
// of the instance; Face constructs a per-caller view, because faces
// carry mutable shaping state and must not be used concurrently.
type Instance struct {
	fnt    *font.Font
	upem   float64
	coords []font.Variation
	key    string
}

// Face returns a fresh face for this instance with its variation
// coordinates applied. Each caller (goroutine) needs its own face.
func (in *Instance) Face() *font.Face {
	face := font.NewFace(in.fnt)
	if len(in.coords) > 0 {
		face.SetVariations(in.coords)
	}
	return face
}

// UnitsPerEm returns the font's design grid size.
func (in *Instance) UnitsPerEm() float64 { return in.upem }

// Key returns the canonical identity of this instance: path, face
// index and clamped coordinates. Downstream caches embed it in their
// own keys.
func (in *Instance) Key() string { return in.key }

// Cache loads font instances through an LRU tier with single-flight
// de-duplication, so concurrent jobs referencing the same font parse
// it once.
type Cache struct {
	source *Source
	tier   *cache.Cache[*Instance]
}

// NewCache creates a font cache over the given source. A nil source
// resolves any filesystem path.
func NewCache(source *Source, capacity int) *Cache {
	if source == nil {
		source = &Source{}
	}
	return &Cache{
		source: source,
		tier:   cache.New[*Instance](capacity),
	}
}

// Get returns the instance for ref, loading and caching it on a miss.
func (c *Cache) Get(ref Ref) (*Instance, error) {
	resolved, err := c.source.Resolve(ref.Path)
	if err != nil {
		return nil, err
	}

	coords := clampCoords(ref.Variations)
	key := resolved + "\x00" + strconv.Itoa(ref.FaceIndex) + "\x00" + coordsKey(coords)

	return c.tier.GetOrLoad(key, func() (*Instance, error) {
		fnt, err := c.source.Load(resolved, ref.FaceIndex)
		if err != nil {
			return nil, err
		}
		return &Instance{
			fnt:    fnt,
			upem:   float64(fnt.Upem()),
			coords: coords,
			key:    key,
		}, nil
	})
}

// FromData builds an uncached instance from in-memory font data.
// Used by callers that already hold font bytes (tests, embedded fonts).
func FromData(data []byte, faceIndex int, variations map[string]float64) (*Instance, error) {
	fnt, err := Parse(data, faceIndex)
	if err != nil {
		return nil, err
	}
	coords := clampCoords(variations)
	return &Instance{
		fnt:    fnt,
		upem:   float64(fnt.Upem()),
		coords: coords,
		key:    fmt.Sprintf("mem\x00%d\x00%s", faceIndex, coordsKey(coords)),
	}, nil
}

// SetCapacity resizes the instance tier. Shrinking evicts
// least-recently-used instances; zero disables caching.
func (c *Cache) SetCapacity(n int) { c.tier.SetCapacity(n) }

// Clear drops all cached instances.
func (c *Cache) Clear() { c.tier.Clear() }

// Stats returns a snapshot of the instance tier.
func (c *Cache) Stats() cache.Stats { return c.tier.Stats() }
