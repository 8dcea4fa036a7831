/*
Package quantize converts a raster image into a grid of paintable cells.

The image is resampled to the target grid size with nearest-neighbor
interpolation so hard pixel-art edges survive, then every pixel that is
neither too transparent nor near-white is matched to the closest palette
color.
*/
package quantize

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"github.com/bodgit/pixeloverlay/grid"
	"github.com/bodgit/pixeloverlay/palette"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultAlphaThreshold discards pixels with an alpha below this value
	DefaultAlphaThreshold = 100
	// DefaultWhiteThreshold discards pixels with every channel at or above
	// this value
	DefaultWhiteThreshold = 250

	rowsPerBand = 32
)

// ErrInvalidDimensions is returned when the target grid size is not
// positive.
var ErrInvalidDimensions = grid.ErrInvalidDimensions

// Config holds the retention thresholds.
type Config struct {
	AlphaThreshold uint8 `yaml:"alpha_threshold"`
	WhiteThreshold uint8 `yaml:"white_threshold"`
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		AlphaThreshold: DefaultAlphaThreshold,
		WhiteThreshold: DefaultWhiteThreshold,
	}
}

// Retain reports whether a pixel becomes a cell.
func (c Config) Retain(r, g, b, a uint8) bool {
	if a < c.AlphaThreshold {
		return false
	}
	if r >= c.WhiteThreshold && g >= c.WhiteThreshold && b >= c.WhiteThreshold {
		return false
	}
	return true
}

// Matcher resolves a sample to a palette entry. *palette.Registry
// implements it.
type Matcher interface {
	Nearest(palette.RGB) palette.Entry
}

// Resample scales m to exactly width by height pixels using nearest-neighbor
// interpolation. The result is not premultiplied.
func Resample(m image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return imaging.Resize(m, width, height, imaging.NearestNeighbor), nil
}

func quantizeRow(m *image.NRGBA, y int, reg Matcher, cfg Config) []grid.Cell {
	var row []grid.Cell
	for x := 0; x < m.Rect.Dx(); x++ {
		i := m.PixOffset(m.Rect.Min.X+x, m.Rect.Min.Y+y)
		r, g, b, a := m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]
		if !cfg.Retain(r, g, b, a) {
			continue
		}
		c := palette.RGB{R: r, G: g, B: b}
		row = append(row, grid.Cell{
			X:         x,
			Y:         y,
			Source:    c,
			PaletteID: reg.Nearest(c).ID,
		})
	}
	return row
}

// Quantize resamples m to width by height and returns the grid of retained
// cells. Rows are processed in bands across several goroutines; the result
// only depends on the image, the thresholds and the palette.
func Quantize(ctx context.Context, m image.Image, width, height int, reg Matcher, cfg Config) (*grid.Grid, error) {
	rm, err := Resample(m, width, height)
	if err != nil {
		return nil, err
	}

	rows := make([][]grid.Cell, height)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for start := 0; start < height; start += rowsPerBand {
		start := start
		end := min(start+rowsPerBand, height)
		g.Go(func() error {
			for y := start; y < end; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				rows[y] = quantizeRow(rm, y, reg, cfg)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return grid.FromRows(width, height, rows)
}
