package palette

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallback(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.HasDynamicPalette())

	entries := r.Entries()
	require.Len(t, entries, 31)
	for i, e := range entries {
		assert.Equal(t, i+1, e.ID)
	}

	red, ok := r.Lookup(7)
	require.True(t, ok)
	assert.Equal(t, "Red", red.Name)
	assert.Equal(t, red, r.Nearest(RGB{237, 28, 36}))
	assert.Equal(t, 1, r.Nearest(RGB{0, 0, 0}).ID)
}

func TestNearest(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register([]Entry{
		{ID: 1, Color: RGB{0, 0, 0}},
		{ID: 2, Color: RGB{60, 60, 60}},
	}))
	assert.True(t, r.HasDynamicPalette())
	assert.Equal(t, 1, r.Nearest(RGB{10, 10, 10}).ID)
	assert.Equal(t, 2, r.Nearest(RGB{50, 50, 50}).ID)

	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, r.Nearest(RGB{10, 10, 10}).ID)
	}
}

func TestNearestTie(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    int
	}{
		{
			"first registered wins",
			[]Entry{{ID: 4, Color: RGB{0, 0, 0}}, {ID: 9, Color: RGB{20, 0, 0}}},
			4,
		},
		{
			"order not id",
			[]Entry{{ID: 9, Color: RGB{20, 0, 0}}, {ID: 4, Color: RGB{0, 0, 0}}},
			9,
		},
	}

	for _, table := range tests {
		t.Run(table.name, func(t *testing.T) {
			r := NewRegistry()
			require.NoError(t, r.Register(table.entries))
			assert.Equal(t, table.want, r.Nearest(RGB{10, 0, 0}).ID)
		})
	}
}

func TestRegisterInvalid(t *testing.T) {
	tests := map[string][]Entry{
		"empty":     nil,
		"duplicate": {{ID: 1}, {ID: 2}, {ID: 1}},
		"zero id":   {{ID: 0}},
	}

	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			r := NewRegistry()
			assert.ErrorIs(t, r.Register(entries), ErrInvalidPalette)
			assert.False(t, r.HasDynamicPalette())
			assert.Len(t, r.Entries(), 31)
		})
	}
}

func TestRegisterCopies(t *testing.T) {
	entries := []Entry{{ID: 1, Name: "a"}}
	r := NewRegistry()
	require.NoError(t, r.Register(entries))
	entries[0].Name = "b"
	e, _ := r.Lookup(1)
	assert.Equal(t, "a", e.Name)
}

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#ed1c24")
	require.NoError(t, err)
	assert.Equal(t, RGB{237, 28, 36}, c)
	assert.Equal(t, "#ed1c24", c.Hex())

	_, err = ParseHex("red")
	assert.Error(t, err)
}

func TestFromImage(t *testing.T) {
	m := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				m.Set(x, y, color.NRGBA{255, 0, 0, 255})
			} else {
				m.Set(x, y, color.NRGBA{0, 0, 255, 255})
			}
		}
	}

	entries := FromImage(m, 2)
	require.NotEmpty(t, entries)
	assert.LessOrEqual(t, len(entries), 2)
	assert.Equal(t, 1, entries[0].ID)
	assert.Nil(t, FromImage(m, 0))
}

func TestSnapshot(t *testing.T) {
	r := NewRegistry()
	s := r.Snapshot()

	require.NoError(t, r.Register([]Entry{{ID: 3, Name: "Only", Color: RGB{1, 2, 3}}}))

	assert.True(t, r.HasDynamicPalette())
	assert.False(t, s.HasDynamicPalette())
	assert.Equal(t, Fallback(), s.Entries())
	assert.Equal(t, 1, s.Nearest(RGB{}).ID)
}

func TestZeroRegistry(t *testing.T) {
	var r Registry

	assert.Equal(t, 1, r.Nearest(RGB{1, 2, 3}).ID)
	assert.Equal(t, 7, r.Nearest(RGB{237, 28, 36}).ID)
	assert.False(t, r.HasDynamicPalette())
	assert.Equal(t, Fallback(), r.Entries())

	e, ok := r.Lookup(31)
	require.True(t, ok)
	assert.Equal(t, "Beige", e.Name)

	assert.Equal(t, Fallback(), r.Snapshot().Entries())
}
