package progress

import (
	"context"
	"testing"

	"github.com/bodgit/pixeloverlay/grid"
	"github.com/bodgit/pixeloverlay/kv/memory"
	"github.com/bodgit/pixeloverlay/projector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowGrid(t *testing.T, width int, xs ...int) *grid.Grid {
	t.Helper()
	cells := make([]grid.Cell, 0, len(xs))
	for _, x := range xs {
		cells = append(cells, grid.Cell{X: x, Y: 0, PaletteID: 1})
	}
	g, err := grid.FromRows(width, 1, [][]grid.Cell{cells})
	require.NoError(t, err)
	return g
}

func fiveCells(t *testing.T) *grid.Grid {
	return rowGrid(t, 5, 0, 1, 2, 3, 4)
}

func encode(t *testing.T, s State) []byte {
	t.Helper()
	b, err := Encode(s)
	require.NoError(t, err)
	return b
}

func TestRestoreApplied(t *testing.T) {
	g := fiveCells(t)
	tr := projector.Transform{Offset: projector.Point{X: 12, Y: 34}, Scale: 4}
	require.True(t, g.SetDone(2, 0, true))

	b := encode(t, Save(g, tr, Flags{Visible: true}))

	fresh := fiveCells(t)
	r := Restore(b, fresh)
	assert.Equal(t, Applied, r.Outcome)
	assert.Empty(t, r.Reason)
	assert.Equal(t, []bool{false, false, true, false, false}, fresh.Completion())
	require.NotNil(t, r.Transform)
	assert.Equal(t, tr, *r.Transform)
	require.NotNil(t, r.Flags)
	assert.Equal(t, Flags{Visible: true}, *r.Flags)
}

func TestRestoreShapeChanged(t *testing.T) {
	g := fiveCells(t)
	require.True(t, g.SetDone(2, 0, true))
	b := encode(t, Save(g, projector.Identity(), Flags{Locked: true}))

	six := rowGrid(t, 6, 0, 1, 2, 3, 4, 5)
	r := Restore(b, six)
	assert.Equal(t, Skipped, r.Outcome)
	assert.Equal(t, ReasonShapeChanged, r.Reason)
	assert.Equal(t, 0, six.DoneCount())
	assert.Len(t, six.Completion(), 6)

	// The view is still restored
	require.NotNil(t, r.Transform)
	assert.Equal(t, projector.Identity(), *r.Transform)
	assert.Equal(t, Flags{Locked: true}, *r.Flags)
}

func TestRestoreSameCountDifferentShape(t *testing.T) {
	g := fiveCells(t)
	g.SetDone(0, 0, true)
	b := encode(t, Save(g, projector.Identity(), Flags{}))

	positions, err := grid.FromRows(5, 2, [][]grid.Cell{
		{{X: 0, Y: 0}, {X: 1, Y: 0}},
		{{X: 0, Y: 1}, {X: 3, Y: 1}, {X: 4, Y: 1}},
	})
	require.NoError(t, err)

	tests := map[string]*grid.Grid{
		"dimensions": rowGrid(t, 7, 0, 1, 2, 3, 4),
		"positions":  positions,
	}

	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			r := Restore(b, target)
			assert.Equal(t, Skipped, r.Outcome)
			assert.Equal(t, ReasonShapeChanged, r.Reason)
			assert.Equal(t, 0, target.DoneCount())
		})
	}
}

func TestRestoreCorrupt(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"garbage":        "{not json",
		"null":           "null",
		"no completion":  `{"offset":{"x":1,"y":2},"cellScale":3}`,
		"count mismatch": `{"cellCount":3,"completion":[true]}`,
		"wrong type":     `{"completion":"yes"}`,
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			g := fiveCells(t)
			r := Restore([]byte(payload), g)
			assert.Equal(t, Skipped, r.Outcome)
			assert.Equal(t, ReasonNoState, r.Reason)
			assert.Nil(t, r.Transform)
			assert.Equal(t, 0, g.DoneCount())
		})
	}
}

func TestRestoreLegacy(t *testing.T) {
	payload := `{"position":{"x":50,"y":60},"scale":8,"pixels":[true,false,false,true,false]}`

	g := fiveCells(t)
	r := Restore([]byte(payload), g)
	assert.Equal(t, Applied, r.Outcome)
	assert.Equal(t, []bool{true, false, false, true, false}, g.Completion())
	require.NotNil(t, r.Transform)
	assert.Equal(t, projector.Transform{Offset: projector.Point{X: 50, Y: 60}, Scale: 8}, *r.Transform)

	// Only the length is checked for legacy records
	r = Restore([]byte(payload), rowGrid(t, 9, 1, 3, 5, 7, 8))
	assert.Equal(t, Applied, r.Outcome)

	r = Restore([]byte(payload), rowGrid(t, 4, 0, 1, 2, 3))
	assert.Equal(t, Skipped, r.Outcome)
}

func TestRestoreInvalidScale(t *testing.T) {
	g := fiveCells(t)
	s := Save(g, projector.Transform{Scale: 0}, Flags{})
	r := Restore(encode(t, s), fiveCells(t))
	assert.Equal(t, Applied, r.Outcome)
	assert.Nil(t, r.Transform)
}

func TestEncodeIdempotent(t *testing.T) {
	g := fiveCells(t)
	g.SetDone(1, 0, true)
	tr := projector.Transform{Offset: projector.Point{X: 1.5, Y: -2}, Scale: 3}

	first := encode(t, Save(g, tr, Flags{Visible: true}))
	second := encode(t, Save(g, tr, Flags{Visible: true}))
	assert.Equal(t, first, second)

	s, err := Parse(first)
	require.NoError(t, err)
	assert.Equal(t, 5, s.GridWidth)
	assert.Equal(t, 1, s.GridHeight)
	assert.Equal(t, 5, s.CellCount)
	assert.Equal(t, Fingerprint(g), s.Fingerprint)
}

func TestRestoreView(t *testing.T) {
	b := encode(t, Save(fiveCells(t), projector.Identity(), Flags{Visible: true}))
	r := RestoreView(b)
	assert.Equal(t, Skipped, r.Outcome)
	require.NotNil(t, r.Transform)
	assert.Equal(t, projector.Identity(), *r.Transform)

	r = RestoreView([]byte("nope"))
	assert.Equal(t, ReasonNoState, r.Reason)
	assert.Nil(t, r.Flags)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memory.New(), "")
	assert.Equal(t, DefaultKey, s.Key())

	b, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, b)

	g := fiveCells(t)
	g.SetDone(4, 0, true)
	require.NoError(t, s.Write(ctx, Save(g, projector.Identity(), Flags{})))

	b, err = s.Load(ctx)
	require.NoError(t, err)

	fresh := fiveCells(t)
	assert.Equal(t, Applied, Restore(b, fresh).Outcome)
	assert.Equal(t, 1, fresh.DoneCount())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", Applied.String())
	assert.Equal(t, "skipped", Skipped.String())
}
