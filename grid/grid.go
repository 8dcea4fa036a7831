/*
Package grid implements the quantized raster of paintable cells.

A Grid has fixed dimensions but only stores the cells that survived
quantization, so the number of cells may be smaller than Width*Height. Cells
are always enumerated row-major, by y then x, which is the order completion
state is persisted in.
*/
package grid

import (
	"errors"
	"fmt"

	"github.com/bodgit/pixeloverlay/palette"
)

// ErrInvalidDimensions is returned when a grid would have a zero or negative
// width or height.
var ErrInvalidDimensions = errors.New("grid: invalid dimensions")

// Cell is one retained grid position.
type Cell struct {
	X, Y      int
	Source    palette.RGB
	PaletteID int
	Done      bool
}

// Grid is the full quantized raster, addressed by cell coordinates.
type Grid struct {
	Width, Height int

	// Indexed by y*Width+x, -1 when there is no cell
	index []int
	cells []Cell
}

// New returns an empty grid of the given dimensions.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	index := make([]int, width*height)
	for i := range index {
		index[i] = -1
	}
	return &Grid{
		Width:  width,
		Height: height,
		index:  index,
	}, nil
}

// FromRows builds a grid from cells grouped by row. Each row must already be
// sorted by x; rows[y] only holds cells with that y.
func FromRows(width, height int, rows [][]Cell) (*Grid, error) {
	g, err := New(width, height)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		for _, c := range row {
			if err := g.Add(c); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func (g *Grid) contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

// Add appends a cell. Cells must be added in row-major order.
func (g *Grid) Add(c Cell) error {
	if !g.contains(c.X, c.Y) {
		return fmt.Errorf("grid: cell (%d, %d) outside %dx%d", c.X, c.Y, g.Width, g.Height)
	}
	i := c.Y*g.Width + c.X
	if g.index[i] >= 0 {
		return fmt.Errorf("grid: duplicate cell (%d, %d)", c.X, c.Y)
	}
	if n := len(g.cells); n > 0 {
		if last := g.cells[n-1]; last.Y*g.Width+last.X > i {
			return fmt.Errorf("grid: cell (%d, %d) out of order", c.X, c.Y)
		}
	}
	g.index[i] = len(g.cells)
	g.cells = append(g.cells, c)
	return nil
}

// CellCount returns the number of retained cells.
func (g *Grid) CellCount() int {
	return len(g.cells)
}

// At returns the cell at (x, y), if there is one.
func (g *Grid) At(x, y int) (Cell, bool) {
	if !g.contains(x, y) {
		return Cell{}, false
	}
	i := g.index[y*g.Width+x]
	if i < 0 {
		return Cell{}, false
	}
	return g.cells[i], true
}

// Cells returns a copy of every cell in row-major order.
func (g *Grid) Cells() []Cell {
	return append(g.cells[:0:0], g.cells...)
}

// SetDone sets the completion flag of the cell at (x, y). It returns false
// if there is no such cell.
func (g *Grid) SetDone(x, y int, done bool) bool {
	if !g.contains(x, y) {
		return false
	}
	i := g.index[y*g.Width+x]
	if i < 0 {
		return false
	}
	g.cells[i].Done = done
	return true
}

// Completion returns the done flags in row-major order.
func (g *Grid) Completion() []bool {
	done := make([]bool, len(g.cells))
	for i, c := range g.cells {
		done[i] = c.Done
	}
	return done
}

// ApplyCompletion sets the done flags from a row-major sequence, which must
// have exactly one flag per cell.
func (g *Grid) ApplyCompletion(done []bool) error {
	if len(done) != len(g.cells) {
		return fmt.Errorf("grid: %d flags for %d cells", len(done), len(g.cells))
	}
	for i := range g.cells {
		g.cells[i].Done = done[i]
	}
	return nil
}

// Reset clears every done flag.
func (g *Grid) Reset() {
	for i := range g.cells {
		g.cells[i].Done = false
	}
}

// DoneCount returns the number of completed cells.
func (g *Grid) DoneCount() (n int) {
	for _, c := range g.cells {
		if c.Done {
			n++
		}
	}
	return
}
