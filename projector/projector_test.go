package projector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewToGrid(t *testing.T) {
	tr := Transform{Offset: Point{100, 100}, Scale: 10}

	tests := []struct {
		p      Point
		gx, gy int
	}{
		{Point{115, 125}, 1, 2},
		{Point{100, 100}, 0, 0},
		{Point{109.99, 100}, 0, 0},
		{Point{99, 99}, -1, -1},
		{Point{0, 0}, -10, -10},
		{Point{1000, 100}, 90, 0},
	}

	for _, table := range tests {
		gx, gy := ViewToGrid(table.p, tr)
		assert.Equal(t, table.gx, gx, "%v", table.p)
		assert.Equal(t, table.gy, gy, "%v", table.p)
	}
}

func TestInversion(t *testing.T) {
	transforms := []Transform{
		Identity(),
		{Offset: Point{100, 100}, Scale: 10},
		{Offset: Point{-37.5, 12.25}, Scale: 2.5},
		{Offset: Point{0, 0}, Scale: 0.5},
		{Offset: Point{3, -8}, Scale: 16},
		{Offset: Point{0.3, 0.7}, Scale: 0.1},
		{Offset: Point{1.0 / 3, 2.0 / 3}, Scale: 1.0 / 3},
	}

	for _, tr := range transforms {
		for gy := -20; gy <= 20; gy += 3 {
			for gx := -20; gx <= 20; gx += 3 {
				x, y := ViewToGrid(GridToView(gx, gy, tr), tr)
				assert.Equal(t, gx, x)
				assert.Equal(t, gy, y)
			}
		}
	}
}

func TestViewToGridEdge(t *testing.T) {
	tr := Transform{Offset: Point{0, 0}, Scale: 1}

	// Within the edge tolerance a point counts as on the edge
	gx, _ := ViewToGrid(Point{2 - 5e-10, 0}, tr)
	assert.Equal(t, 2, gx)
	gx, _ = ViewToGrid(Point{-1 - 5e-10, 0}, tr)
	assert.Equal(t, -1, gx)

	// Beyond it plain flooring applies
	gx, _ = ViewToGrid(Point{2 - 1e-6, 0}, tr)
	assert.Equal(t, 1, gx)
	gx, _ = ViewToGrid(Point{2 + 1e-6, 0}, tr)
	assert.Equal(t, 2, gx)
}

func TestRoundTripIsLossy(t *testing.T) {
	tr := Transform{Offset: Point{100, 100}, Scale: 10}
	gx, gy := ViewToGrid(Point{115, 125}, tr)
	assert.Equal(t, Point{110, 120}, GridToView(gx, gy, tr))
}

func TestPan(t *testing.T) {
	tr := Identity()
	tr.Pan(Point{5, -10})
	tr.Pan(Point{1, 1})
	assert.Equal(t, Point{106, 91}, tr.Offset)
	assert.Equal(t, 1.0, tr.Scale)
}

func TestSetScale(t *testing.T) {
	tr := Identity()
	for _, s := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		assert.ErrorIs(t, tr.SetScale(s), ErrInvalidScale)
		assert.Equal(t, Identity(), tr)
	}

	require.NoError(t, tr.SetScale(4))
	assert.Equal(t, 4.0, tr.Scale)
	assert.Equal(t, Point{100, 100}, tr.Offset)
}

func TestZoomAt(t *testing.T) {
	tr := Transform{Offset: Point{100, 100}, Scale: 10}
	anchor := Point{150, 130}

	require.NoError(t, tr.ZoomAt(anchor, 20))
	assert.Equal(t, 20.0, tr.Scale)
	// The cell under the anchor is unchanged
	gx, gy := ViewToGrid(anchor, tr)
	assert.Equal(t, 5, gx)
	assert.Equal(t, 3, gy)
	assert.Equal(t, Point{50, 70}, tr.Offset)

	assert.ErrorIs(t, tr.ZoomAt(anchor, 0), ErrInvalidScale)
	assert.Equal(t, 20.0, tr.Scale)
}
