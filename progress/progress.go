/*
Package progress serializes completion state and view configuration, and
restores it onto a freshly quantized grid.

A restore is all or nothing. Completion flags are only applied when the
persisted record was taken from a grid of the same shape: the same number of
retained cells and, when recorded, the same dimensions and the same set of
cell positions. Anything else, including a corrupt payload, leaves every cell
pending and is reported as a skipped restore rather than an error.
*/
package progress

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/bodgit/pixeloverlay/grid"
	"github.com/bodgit/pixeloverlay/projector"
)

// Reasons reported by a skipped restore.
const (
	ReasonNoState      = "no valid state"
	ReasonShapeChanged = "grid shape changed"
)

var errNoCompletion = errors.New("progress: payload has no completion data")

// Flags are the persisted view toggles.
type Flags struct {
	Visible bool
	Locked  bool
}

// State is the persisted record.
type State struct {
	Offset      projector.Point `json:"offset"`
	CellScale   float64         `json:"cellScale"`
	GridWidth   int             `json:"gridWidth"`
	GridHeight  int             `json:"gridHeight"`
	CellCount   int             `json:"cellCount"`
	Fingerprint string          `json:"fingerprint,omitempty"`
	Completion  []bool          `json:"completion"`
	Visible     bool            `json:"visible"`
	Locked      bool            `json:"locked"`
}

// Transform returns the persisted view transform.
func (s State) Transform() projector.Transform {
	return projector.Transform{Offset: s.Offset, Scale: s.CellScale}
}

// Flags returns the persisted view toggles.
func (s State) Flags() Flags {
	return Flags{Visible: s.Visible, Locked: s.Locked}
}

// Fingerprint returns a checksum of the positions of every retained cell in
// g. Palette ids are not included.
func Fingerprint(g *grid.Grid) string {
	h := crc32.NewIEEE()
	var b [8]byte
	for _, c := range g.Cells() {
		binary.LittleEndian.PutUint32(b[0:], uint32(c.X))
		binary.LittleEndian.PutUint32(b[4:], uint32(c.Y))
		h.Write(b[:])
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

// Save captures the completion state of g in row-major order together with
// the view.
func Save(g *grid.Grid, t projector.Transform, f Flags) State {
	return State{
		Offset:      t.Offset,
		CellScale:   t.Scale,
		GridWidth:   g.Width,
		GridHeight:  g.Height,
		CellCount:   g.CellCount(),
		Fingerprint: Fingerprint(g),
		Completion:  g.Completion(),
		Visible:     f.Visible,
		Locked:      f.Locked,
	}
}

// Encode returns the text form of s. Equal states encode to identical bytes.
func Encode(s State) ([]byte, error) {
	if s.Completion == nil {
		s.Completion = []bool{}
	}
	return json.Marshal(s)
}

// legacy holds the fields written by older releases:
// {position, scale, pixels}.
type legacy struct {
	Position *projector.Point `json:"position"`
	Scale    *float64         `json:"scale"`
	Pixels   []bool           `json:"pixels"`
}

type payload struct {
	State
	legacy
}

// Parse decodes a persisted record. Records in the legacy layout are
// converted; they carry no dimensions or fingerprint.
func Parse(b []byte) (State, error) {
	var p payload
	if err := json.Unmarshal(b, &p); err != nil {
		return State{}, fmt.Errorf("progress: %w", err)
	}

	s := p.State
	if s.Completion == nil && p.Pixels != nil {
		s = State{Completion: p.Pixels}
		if p.Position != nil {
			s.Offset = *p.Position
		}
		if p.Scale != nil {
			s.CellScale = *p.Scale
		}
		s.CellCount = len(p.Pixels)
	}

	if s.Completion == nil {
		return State{}, errNoCompletion
	}
	if s.CellCount == 0 {
		s.CellCount = len(s.Completion)
	}
	if s.CellCount != len(s.Completion) {
		return State{}, fmt.Errorf("progress: cell count %d does not match %d completion flags", s.CellCount, len(s.Completion))
	}

	return s, nil
}

// Compatible reports whether the completion data in s belongs to a grid
// shaped like g.
func Compatible(s State, g *grid.Grid) bool {
	if len(s.Completion) != g.CellCount() {
		return false
	}
	if (s.GridWidth != 0 || s.GridHeight != 0) && (s.GridWidth != g.Width || s.GridHeight != g.Height) {
		return false
	}
	if s.Fingerprint != "" && s.Fingerprint != Fingerprint(g) {
		return false
	}
	return true
}

// Outcome is the result of a restore.
type Outcome int

const (
	// Skipped means no completion data was applied
	Skipped Outcome = iota
	// Applied means every cell took its persisted completion flag
	Applied
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	default:
		return "skipped"
	}
}

// Result describes a restore. Transform and Flags are set whenever the
// payload carried a usable view, even if the completion data was skipped.
type Result struct {
	Outcome   Outcome
	Reason    string
	Transform *projector.Transform
	Flags     *Flags
}

func view(s State) Result {
	r := Result{Outcome: Skipped}
	if t := s.Transform(); projector.ValidScale(t.Scale) {
		r.Transform = &t
	}
	f := s.Flags()
	r.Flags = &f
	return r
}

// RestoreView decodes only the view part of a persisted record.
func RestoreView(b []byte) Result {
	s, err := Parse(b)
	if err != nil {
		return Result{Outcome: Skipped, Reason: ReasonNoState}
	}
	return view(s)
}

// Restore applies a persisted record to g. It never fails; anything that
// prevents the completion data being applied is reported as Skipped and g is
// left untouched.
func Restore(b []byte, g *grid.Grid) Result {
	s, err := Parse(b)
	if err != nil {
		return Result{Outcome: Skipped, Reason: ReasonNoState}
	}

	r := view(s)
	if !Compatible(s, g) {
		r.Reason = ReasonShapeChanged
		return r
	}
	if err := g.ApplyCompletion(s.Completion); err != nil {
		r.Reason = ReasonShapeChanged
		return r
	}
	r.Outcome = Applied
	return r
}
