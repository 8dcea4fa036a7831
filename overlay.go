/*
Package pixeloverlay is a library for overlaying a palette-quantized image on
a pannable, zoomable canvas and tracking which of its cells have been painted.

An Overlay owns the active grid, the view transform and the view toggles.
Every operation that changes completion or the view is persisted straight
away through a progress.Store, and loading an image restores any earlier
progress provided the grid still has the same shape.
*/
package pixeloverlay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"math"
	"sync"

	"github.com/bodgit/pixeloverlay/grid"
	"github.com/bodgit/pixeloverlay/palette"
	"github.com/bodgit/pixeloverlay/progress"
	"github.com/bodgit/pixeloverlay/projector"
	"github.com/bodgit/pixeloverlay/quantize"
)

var (
	// ErrNotLoaded is returned by operations that need a grid when no
	// image has been loaded.
	ErrNotLoaded = errors.New("pixeloverlay: no image loaded")
	// ErrSuperseded is returned by LoadImage when a later load finished
	// first; its grid is discarded.
	ErrSuperseded = errors.New("pixeloverlay: load superseded")
	// ErrLocked is returned by Pan and ZoomAt while the overlay is locked
	// in place.
	ErrLocked = errors.New("pixeloverlay: overlay is locked")
)

// State is the lifecycle state of an Overlay.
type State int

const (
	// Empty means no image has been loaded
	Empty State = iota
	// Loaded means a grid is installed
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "empty"
}

// ActivationResult is the outcome of Activate.
type ActivationResult int

const (
	// NoCell means there is no cell at the coordinates
	NoCell ActivationResult = iota
	// Activated means the cell was activated and marked done
	Activated
)

func (r ActivationResult) String() string {
	if r == Activated {
		return "activated"
	}
	return "no cell"
}

// Progress summarizes completion.
type Progress struct {
	Done    int
	Total   int
	Percent int
}

// Overlay is the overlay engine. It is safe for concurrent use.
type Overlay struct {
	mu sync.Mutex

	cfg       Config
	registry  *palette.Registry
	store     *progress.Store
	activator CellActivator
	logger    *log.Logger
	metrics   *Metrics

	grid      *grid.Grid
	transform projector.Transform
	flags     progress.Flags

	// load sequence numbers: the last issued, the one whose grid is
	// installed and those still quantizing
	seq       uint64
	installed uint64
	pending   map[uint64]struct{}
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithRegistry sets the palette registry, otherwise one using the fallback
// palette is created.
func WithRegistry(r *palette.Registry) Option {
	return func(o *Overlay) {
		o.registry = r
	}
}

// WithActivator sets the collaborator invoked for every activated cell.
func WithActivator(a CellActivator) Option {
	return func(o *Overlay) {
		o.activator = a
	}
}

// WithLogger sets the logger, by default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(o *Overlay) {
		o.logger = l
	}
}

// WithMetrics enables metrics collection.
func WithMetrics(m *Metrics) Option {
	return func(o *Overlay) {
		o.metrics = m
	}
}

// New returns an empty Overlay persisting to store.
func New(cfg Config, store *progress.Store, opts ...Option) *Overlay {
	o := &Overlay{
		cfg:       cfg,
		store:     store,
		activator: NopActivator{},
		logger:    log.New(io.Discard, "", 0),
		transform: projector.Identity(),
		pending:   make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.registry == nil {
		o.registry = palette.NewRegistry()
	}
	return o
}

// Registry returns the palette registry used for quantization.
func (o *Overlay) Registry() *palette.Registry {
	return o.registry
}

// State returns the lifecycle state.
func (o *Overlay) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.grid == nil {
		return Empty
	}
	return Loaded
}

// Transform returns a copy of the current view transform.
func (o *Overlay) Transform() projector.Transform {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transform
}

// Flags returns the current view toggles.
func (o *Overlay) Flags() progress.Flags {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.flags
}

// Grid returns the active grid, or nil when Empty. The grid must not be
// modified.
func (o *Overlay) Grid() *grid.Grid {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.grid
}

func (o *Overlay) load(ctx context.Context) []byte {
	b, err := o.store.Load(ctx)
	if err != nil {
		o.logger.Printf("Unable to read progress from \"%s\": %v\n", o.store.Key(), err)
		return nil
	}
	return b
}

func (o *Overlay) applyView(r progress.Result) {
	if r.Transform != nil {
		o.transform = *r.Transform
	}
	if r.Flags != nil {
		o.flags = *r.Flags
	}
}

// RestoreView reads the persisted record and applies only the view
// transform and toggles. It is meant to be called once at startup, before
// any image is loaded.
func (o *Overlay) RestoreView(ctx context.Context) progress.Result {
	b := o.load(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	r := progress.RestoreView(b)
	o.applyView(r)
	return r
}

// LoadReader decodes an image from r and loads it. A decode failure is
// returned as a *quantize.DecodeError and leaves the overlay untouched.
func (o *Overlay) LoadReader(ctx context.Context, r io.Reader, width, height int) (progress.Result, error) {
	m, err := quantize.Decode(r)
	if err != nil {
		return progress.Result{}, err
	}
	return o.LoadImage(ctx, m, width, height)
}

// superseded reports whether a load started after gen has either installed
// its grid or is still running. Loads that failed do not count.
func (o *Overlay) superseded(gen uint64) bool {
	if o.installed > gen {
		return true
	}
	for p := range o.pending {
		if p > gen {
			return true
		}
	}
	return false
}

// LoadImage quantizes m into a width by height grid, restores any
// compatible persisted progress onto it and installs it, replacing any
// previous grid. If a later call is still running or has already installed
// its grid, this one returns ErrSuperseded and installs nothing. A later call
// that fails does not supersede it.
func (o *Overlay) LoadImage(ctx context.Context, m image.Image, width, height int) (progress.Result, error) {
	if width <= 0 || height <= 0 {
		return progress.Result{}, fmt.Errorf("%w: %dx%d", quantize.ErrInvalidDimensions, width, height)
	}

	o.mu.Lock()
	o.seq++
	gen := o.seq
	o.pending[gen] = struct{}{}
	o.mu.Unlock()

	g, err := quantize.Quantize(ctx, m, width, height, o.registry.Snapshot(), o.cfg.Quantize())
	if err != nil {
		o.mu.Lock()
		delete(o.pending, gen)
		o.mu.Unlock()
		return progress.Result{}, err
	}

	b := o.load(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.pending, gen)
	if o.superseded(gen) {
		return progress.Result{}, ErrSuperseded
	}
	o.installed = gen

	r := progress.Restore(b, g)
	o.applyView(r)
	o.grid = g

	o.logger.Printf("Loaded %dx%d grid with %d cells, restore %s %s\n", width, height, g.CellCount(), r.Outcome, r.Reason)
	o.metrics.loaded(g, r)

	return r, nil
}

func (o *Overlay) persist(ctx context.Context) error {
	if err := o.store.Write(ctx, progress.Save(o.grid, o.transform, o.flags)); err != nil {
		return fmt.Errorf("pixeloverlay: save progress: %w", err)
	}
	o.metrics.saved(o.grid)
	return nil
}

// Activate invokes the CellActivator for the cell at (gx, gy) and marks it
// done. Activating a cell that is already done still reports Activated.
func (o *Overlay) Activate(ctx context.Context, gx, gy int) (ActivationResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.grid == nil {
		return NoCell, ErrNotLoaded
	}

	c, ok := o.grid.At(gx, gy)
	if !ok {
		o.metrics.activated(NoCell)
		return NoCell, nil
	}

	if err := o.activator.Activate(ctx, c.PaletteID); err != nil {
		o.logger.Printf("Unable to select color %d for cell (%d, %d): %v\n", c.PaletteID, gx, gy, err)
	}
	o.grid.SetDone(gx, gy, true)
	o.metrics.activated(Activated)

	return Activated, o.persist(ctx)
}

// ActivateAt activates the cell under the view point p.
func (o *Overlay) ActivateAt(ctx context.Context, p projector.Point) (ActivationResult, error) {
	gx, gy := projector.ViewToGrid(p, o.Transform())
	return o.Activate(ctx, gx, gy)
}

// Inspect returns the cell under the view point p together with its palette
// entry.
func (o *Overlay) Inspect(p projector.Point) (grid.Cell, palette.Entry, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.grid == nil {
		return grid.Cell{}, palette.Entry{}, false
	}
	gx, gy := projector.ViewToGrid(p, o.transform)
	c, ok := o.grid.At(gx, gy)
	if !ok {
		return grid.Cell{}, palette.Entry{}, false
	}
	e, ok := o.registry.Lookup(c.PaletteID)
	if !ok {
		e = palette.Entry{ID: c.PaletteID}
	}
	return c, e, true
}

// Reset marks every cell as not done.
func (o *Overlay) Reset(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.grid == nil {
		return ErrNotLoaded
	}
	o.grid.Reset()
	return o.persist(ctx)
}

// Progress returns the number of done cells, the total and the rounded
// percentage.
func (o *Overlay) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.grid == nil {
		return Progress{}
	}
	p := Progress{
		Done:  o.grid.DoneCount(),
		Total: o.grid.CellCount(),
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Done) / float64(p.Total) * 100))
	}
	return p
}

func (o *Overlay) mutateView(ctx context.Context, fn func() error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.grid == nil {
		return ErrNotLoaded
	}
	if err := fn(); err != nil {
		return err
	}
	return o.persist(ctx)
}

// Pan moves the grid by d view units. It returns ErrLocked if the overlay is
// locked.
func (o *Overlay) Pan(ctx context.Context, d projector.Point) error {
	return o.mutateView(ctx, func() error {
		if o.flags.Locked {
			return ErrLocked
		}
		o.transform.Pan(d)
		return nil
	})
}

// SetScale sets the number of view units per cell.
func (o *Overlay) SetScale(ctx context.Context, s float64) error {
	return o.mutateView(ctx, func() error {
		return o.transform.SetScale(s)
	})
}

// ZoomAt sets the scale keeping the grid position under anchor in place.
// Like Pan it moves the grid, so it returns ErrLocked if the overlay is
// locked.
func (o *Overlay) ZoomAt(ctx context.Context, anchor projector.Point, s float64) error {
	return o.mutateView(ctx, func() error {
		if o.flags.Locked {
			return ErrLocked
		}
		return o.transform.ZoomAt(anchor, s)
	})
}

// SetVisible toggles drawing of grid lines.
func (o *Overlay) SetVisible(ctx context.Context, visible bool) error {
	return o.mutateView(ctx, func() error {
		o.flags.Visible = visible
		return nil
	})
}

// SetLocked toggles whether the overlay is locked in place. A locked overlay
// cannot be panned or zoomed about a point, though its scale can still be set.
func (o *Overlay) SetLocked(ctx context.Context, locked bool) error {
	return o.mutateView(ctx, func() error {
		o.flags.Locked = locked
		return nil
	})
}
