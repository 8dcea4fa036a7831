/*
Package projector converts between view coordinates, those of the pannable
and zoomable surface, and grid cell coordinates.

Going from view to grid floors, so a round trip lands on the top-left corner
of the containing cell rather than the original point.
*/
package projector

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidScale is returned for a scale that is not a positive finite
// number.
var ErrInvalidScale = errors.New("projector: invalid scale")

// Point is a position in view space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Transform is the pan offset and uniform zoom applied to the grid.
type Transform struct {
	Offset Point
	// View units per grid unit
	Scale float64
}

// Identity returns the initial transform: the grid top-left at (100, 100)
// with one view unit per cell.
func Identity() Transform {
	return Transform{
		Offset: Point{100, 100},
		Scale:  1,
	}
}

// ValidScale reports whether s can be used as a cell scale.
func ValidScale(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}

// Quotients this close to an integer are treated as lying on the cell edge
const edgeEpsilon = 1e-9

func floorCell(v float64) int {
	if r := math.Round(v); math.Abs(v-r) < edgeEpsilon {
		return int(r)
	}
	return int(math.Floor(v))
}

// ViewToGrid returns the cell containing p, floor((p - offset) / scale) on
// each axis. Any point maps to some cell, including negative or out of range
// ones. A quotient within 1e-9 of an integer is taken to be on that cell
// edge, so a point a hair short of an edge belongs to the cell after it; this
// keeps ViewToGrid(GridToView(gx, gy, t), t) == (gx, gy) when the scale is not
// exactly representable.
func ViewToGrid(p Point, t Transform) (int, int) {
	return floorCell((p.X - t.Offset.X) / t.Scale), floorCell((p.Y - t.Offset.Y) / t.Scale)
}

// GridToView returns the view position of the top-left corner of cell
// (gx, gy).
func GridToView(gx, gy int, t Transform) Point {
	return Point{
		X: t.Offset.X + float64(gx)*t.Scale,
		Y: t.Offset.Y + float64(gy)*t.Scale,
	}
}

// Pan moves the grid by d view units.
func (t *Transform) Pan(d Point) {
	t.Offset = t.Offset.Add(d)
}

// SetScale replaces the cell scale. The transform is unchanged on error.
func (t *Transform) SetScale(s float64) error {
	if !ValidScale(s) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, s)
	}
	t.Scale = s
	return nil
}

// ZoomAt changes the cell scale to s while keeping the grid position under
// anchor fixed on screen.
func (t *Transform) ZoomAt(anchor Point, s float64) error {
	if !ValidScale(s) {
		return fmt.Errorf("%w: %v", ErrInvalidScale, s)
	}
	// Grid-space position under the anchor, unfloored
	gx := (anchor.X - t.Offset.X) / t.Scale
	gy := (anchor.Y - t.Offset.Y) / t.Scale
	t.Offset = Point{anchor.X - gx*s, anchor.Y - gy*s}
	t.Scale = s
	return nil
}
