/*
Package palette implements the registry of paintable colors used to quantize
an image into a grid of cells.

A registry always has a palette to match against. Until a palette detected
from the host environment is registered, the built-in fallback of 31 canonical
colors is used. Matching is by Euclidean distance in RGB space with ties going
to the entry registered first.
*/
package palette

import (
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidPalette is returned when a palette cannot be registered.
var ErrInvalidPalette = errors.New("palette: invalid palette")

// RGB is an opaque 8-bit per channel color.
type RGB struct {
	R, G, B uint8
}

// RGBA implements the color.Color interface.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{c.R, c.G, c.B, 0xff}.RGBA()
}

// Hex returns the color formatted as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses a #rrggbb or #rgb color.
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("palette: %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

// Entry is a single paintable color.
type Entry struct {
	ID    int
	Name  string
	Color RGB
}

// Copied from color.sqDiff, but on 8-bit channels there is no need to shift
func sqDiff(x, y uint8) uint32 {
	d := int32(x) - int32(y)
	return uint32(d * d)
}

func distance(a, b RGB) uint32 {
	return sqDiff(a.R, b.R) + sqDiff(a.G, b.G) + sqDiff(a.B, b.B)
}

// Registry owns the ordered list of paintable colors. It is safe for
// concurrent use. The zero value uses the fallback palette.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
	dynamic bool
}

// active returns the registered palette, or the fallback if there is none.
// The caller must hold r.mu.
func (r *Registry) active() []Entry {
	if len(r.entries) == 0 {
		return fallback
	}
	return r.entries
}

// NewRegistry returns a registry using the fallback palette.
func NewRegistry() *Registry {
	return &Registry{
		entries: Fallback(),
	}
}

func validate(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidPalette)
	}
	seen := make(map[int]struct{}, len(entries))
	for _, e := range entries {
		if e.ID < 1 {
			return fmt.Errorf("%w: id %d is less than 1", ErrInvalidPalette, e.ID)
		}
		if _, ok := seen[e.ID]; ok {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidPalette, e.ID)
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}

// Register replaces the active palette with entries. The order of entries
// defines the tie-break priority in Nearest. Nothing is changed if the
// palette is rejected.
func (r *Registry) Register(entries []Entry) error {
	if err := validate(entries); err != nil {
		return err
	}

	dup := append(entries[:0:0], entries...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = dup
	r.dynamic = true

	return nil
}

// HasDynamicPalette returns true once a palette has been registered.
func (r *Registry) HasDynamicPalette() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dynamic
}

// Entries returns a copy of the active palette.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.active()
	return append(entries[:0:0], entries...)
}

// Snapshot returns an independent copy of r that later calls to Register on
// r do not affect.
func (r *Registry) Snapshot() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := r.active()
	return &Registry{
		entries: append(entries[:0:0], entries...),
		dynamic: r.dynamic,
	}
}

// Lookup returns the entry with the given id.
func (r *Registry) Lookup(id int) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.active() {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Nearest returns the entry closest to c. Equidistant entries resolve to the
// one registered first.
func (r *Registry) Nearest(c RGB) Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.active()
	best := entries[0]
	bestSum := distance(c, best.Color)
	for _, e := range entries[1:] {
		if bestSum == 0 {
			break
		}
		// Strictly less so the earlier entry wins a tie
		if sum := distance(c, e.Color); sum < bestSum {
			best, bestSum = e, sum
		}
	}
	return best
}
