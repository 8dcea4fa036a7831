package pixeloverlay

import (
	"context"
	"fmt"
	"time"

	"github.com/bodgit/pixeloverlay/palette"
)

// ColorSource detects the palette offered by the host environment. An empty
// result means no palette could be found (yet).
type ColorSource interface {
	Detect(ctx context.Context) ([]palette.Entry, error)
}

// CellActivator selects a palette color in the host environment. It is best
// effort; Overlay logs but otherwise ignores any error.
type CellActivator interface {
	Activate(ctx context.Context, paletteID int) error
}

// NopActivator is a CellActivator that does nothing.
type NopActivator struct{}

// Activate does nothing.
func (NopActivator) Activate(context.Context, int) error { return nil }

// Backoff is the polling policy for DetectPalette. Attempt n waits n times
// Interval before trying again.
type Backoff struct {
	Attempts int           `yaml:"attempts"`
	Interval time.Duration `yaml:"interval"`
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DetectPalette polls src until it reports a palette, which is then
// registered with reg. If every attempt comes back empty or fails, reg keeps
// its current palette and false is returned without an error; only an
// invalid palette or a cancelled context is reported as one.
func DetectPalette(ctx context.Context, src ColorSource, reg *palette.Registry, b Backoff) (bool, error) {
	attempts := max(b.Attempts, 1)
	for i := 0; i < attempts; i++ {
		entries, err := src.Detect(ctx)
		if err == nil && len(entries) > 0 {
			if err := reg.Register(entries); err != nil {
				return false, fmt.Errorf("pixeloverlay: detected palette: %w", err)
			}
			return true, nil
		}
		if i == attempts-1 {
			break
		}
		if err := sleepCtx(ctx, time.Duration(i+1)*b.Interval); err != nil {
			return false, err
		}
	}
	return false, nil
}
