package quantize

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/bodgit/pixeloverlay/palette"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioImage() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	m.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 0})
	m.SetNRGBA(1, 0, color.NRGBA{255, 255, 255, 255})
	m.SetNRGBA(0, 1, color.NRGBA{0, 0, 0, 255})
	m.SetNRGBA(1, 1, color.NRGBA{237, 28, 36, 255})
	return m
}

func randomImage(seed int64, w, h int) *image.NRGBA {
	r := rand.New(rand.NewSource(seed))
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	r.Read(m.Pix)
	return m
}

func TestQuantizeScenario(t *testing.T) {
	g, err := Quantize(context.Background(), scenarioImage(), 2, 2, palette.NewRegistry(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, g.Width)
	assert.Equal(t, 2, g.Height)
	require.Equal(t, 2, g.CellCount())

	black, ok := g.At(0, 1)
	require.True(t, ok)
	assert.Equal(t, 1, black.PaletteID)
	assert.Equal(t, palette.RGB{}, black.Source)

	red, ok := g.At(1, 1)
	require.True(t, ok)
	assert.Equal(t, 7, red.PaletteID)
	assert.False(t, red.Done)

	_, ok = g.At(0, 0)
	assert.False(t, ok)
	_, ok = g.At(1, 0)
	assert.False(t, ok)
}

func TestQuantizeDimensions(t *testing.T) {
	reg := palette.NewRegistry()
	m := randomImage(1, 7, 5)

	for _, dims := range [][2]int{{0, 4}, {4, 0}, {-2, -2}} {
		_, err := Quantize(context.Background(), m, dims[0], dims[1], reg, DefaultConfig())
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	}

	for _, dims := range [][2]int{{7, 5}, {3, 2}, {20, 40}, {1, 1}} {
		g, err := Quantize(context.Background(), m, dims[0], dims[1], reg, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, dims[0], g.Width)
		assert.Equal(t, dims[1], g.Height)
		assert.LessOrEqual(t, g.CellCount(), dims[0]*dims[1])
	}
}

func TestQuantizeNearestNeighbor(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	m.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 255})
	m.SetNRGBA(1, 0, color.NRGBA{237, 28, 36, 255})

	g, err := Quantize(context.Background(), m, 4, 2, palette.NewRegistry(), DefaultConfig())
	require.NoError(t, err)
	require.Equal(t, 8, g.CellCount())

	// No blending, every cell is an exact source color
	for _, c := range g.Cells() {
		if c.X < 2 {
			assert.Equal(t, palette.RGB{}, c.Source)
		} else {
			assert.Equal(t, palette.RGB{R: 237, G: 28, B: 36}, c.Source)
		}
	}
}

func TestQuantizeMonotonic(t *testing.T) {
	reg := palette.NewRegistry()
	m := randomImage(42, 64, 48)

	last := -1
	for alpha := 0; alpha <= 255; alpha += 15 {
		g, err := Quantize(context.Background(), m, 64, 48, reg, Config{AlphaThreshold: uint8(alpha), WhiteThreshold: 255})
		require.NoError(t, err)
		if last >= 0 {
			assert.LessOrEqual(t, g.CellCount(), last)
		}
		last = g.CellCount()
	}

	last = -1
	for white := 255; white >= 0; white -= 15 {
		g, err := Quantize(context.Background(), m, 64, 48, reg, Config{AlphaThreshold: 0, WhiteThreshold: uint8(white)})
		require.NoError(t, err)
		if last >= 0 {
			assert.LessOrEqual(t, g.CellCount(), last)
		}
		last = g.CellCount()
	}
}

func TestQuantizeDeterministic(t *testing.T) {
	reg := palette.NewRegistry()
	m := randomImage(7, 100, 150)

	first, err := Quantize(context.Background(), m, 100, 150, reg, DefaultConfig())
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		g, err := Quantize(context.Background(), m, 100, 150, reg, DefaultConfig())
		require.NoError(t, err)
		assert.Equal(t, first.Cells(), g.Cells())
	}
}

func TestQuantizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := Quantize(ctx, randomImage(3, 10, 10), 10, 10, palette.NewRegistry(), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, g)
}

func TestDecode(t *testing.T) {
	b := new(bytes.Buffer)
	require.NoError(t, png.Encode(b, scenarioImage()))

	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), m.Bounds())

	_, err = Decode(bytes.NewReader([]byte("not an image")))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, image.ErrFormat)
}
