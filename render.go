package pixeloverlay

import (
	"image"
	"image/color"
	"image/draw"
)

var gridLine = color.NRGBA{0, 0, 0, 77}

// Render draws the overlay with each cell cellSize pixels square. Pending
// cells are drawn in their source color at half opacity, done cells are left
// transparent and, when the overlay is visible, every cell gets an outline.
// It returns nil when no image is loaded.
func (o *Overlay) Render(cellSize int) *image.NRGBA {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.grid == nil || cellSize <= 0 {
		return nil
	}

	m := image.NewNRGBA(image.Rect(0, 0, o.grid.Width*cellSize, o.grid.Height*cellSize))
	line := image.NewUniform(gridLine)

	for _, c := range o.grid.Cells() {
		r := image.Rect(c.X*cellSize, c.Y*cellSize, (c.X+1)*cellSize, (c.Y+1)*cellSize)
		if !c.Done {
			fill := color.NRGBA{c.Source.R, c.Source.G, c.Source.B, 128}
			draw.Draw(m, r, image.NewUniform(fill), image.Point{}, draw.Src)
		}
		if o.flags.Visible {
			draw.Draw(m, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1), line, image.Point{}, draw.Over)
			draw.Draw(m, image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y), line, image.Point{}, draw.Over)
			draw.Draw(m, image.Rect(r.Min.X, r.Min.Y+1, r.Min.X+1, r.Max.Y-1), line, image.Point{}, draw.Over)
			draw.Draw(m, image.Rect(r.Max.X-1, r.Min.Y+1, r.Max.X, r.Max.Y-1), line, image.Point{}, draw.Over)
		}
	}

	return m
}
