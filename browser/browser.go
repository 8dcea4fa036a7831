/*
Package browser drives the host drawing page through a Chrome instance. It
reads the palette the page offers and clicks its color buttons, serving as
both the pixeloverlay.ColorSource and the pixeloverlay.CellActivator.

Palette buttons are expected to carry an id of the form "color-N" where N is
the palette id, a name in their aria-label or title attribute and their color
as the computed background.
*/
package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bodgit/pixeloverlay/palette"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const detectScript = `() => JSON.stringify(
	Array.from(document.querySelectorAll('[id^="color-"]')).map(el => ({
		id: el.id,
		name: el.getAttribute("aria-label") || el.getAttribute("title") || "",
		color: getComputedStyle(el).backgroundColor,
	}))
)`

var errBadColor = errors.New("browser: unrecognized color")

// Config says which Chrome to use and which page to open.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome. Empty
	// launches a local headless one.
	RemoteURL string `yaml:"remote_url"`
	PageURL   string `yaml:"page_url"`
	// LoadTimeout bounds navigation. Default: 30s.
	LoadTimeout time.Duration `yaml:"load_timeout"`
}

// Page is an open tab on the drawing page.
type Page struct {
	browser  *rod.Browser
	page     *rod.Page
	launcher *launcher.Launcher
	logger   *log.Logger
}

// Open connects to Chrome and navigates to cfg.PageURL.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Page, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 30 * time.Second
	}

	p := &Page{logger: logger}

	u := cfg.RemoteURL
	if u == "" {
		p.launcher = launcher.New().Headless(true)
		var err error
		if u, err = p.launcher.Launch(); err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		logger.Printf("Launched local Chrome at %s\n", u)
	}

	p.browser = rod.New().ControlURL(u).Context(ctx)
	if err := p.browser.Connect(); err != nil {
		p.Close()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	page, err := p.browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	p.page = page

	navCtx, cancel := context.WithTimeout(ctx, cfg.LoadTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(cfg.PageURL); err != nil {
		p.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", cfg.PageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		logger.Printf("Timed out waiting for %s to load: %v\n", cfg.PageURL, err)
	}

	return p, nil
}

type button struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Detect returns the palette currently shown on the page, or nothing if the
// palette has not been rendered yet.
func (p *Page) Detect(ctx context.Context) ([]palette.Entry, error) {
	res, err := p.page.Context(ctx).Eval(detectScript)
	if err != nil {
		return nil, fmt.Errorf("browser: detect palette: %w", err)
	}

	var buttons []button
	if err := json.Unmarshal([]byte(res.Value.Str()), &buttons); err != nil {
		return nil, fmt.Errorf("browser: detect palette: %w", err)
	}

	return p.entries(buttons), nil
}

// entries converts the scraped buttons, skipping any it cannot make sense
// of. The first button wins if an id appears more than once.
func (p *Page) entries(buttons []button) []palette.Entry {
	entries := make([]palette.Entry, 0, len(buttons))
	seen := make(map[int]struct{}, len(buttons))
	for _, b := range buttons {
		id, err := strconv.Atoi(strings.TrimPrefix(b.ID, "color-"))
		if err != nil || id < 1 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		rgb, err := parseCSSColor(b.Color)
		if err != nil {
			p.logger.Printf("Skipping palette button %s: %v\n", b.ID, err)
			continue
		}
		name := b.Name
		if name == "" {
			name = "Color " + strconv.Itoa(id)
		}
		seen[id] = struct{}{}
		entries = append(entries, palette.Entry{ID: id, Name: name, Color: rgb})
	}
	return entries
}

// Activate clicks the button for paletteID.
func (p *Page) Activate(ctx context.Context, paletteID int) error {
	sel := "#color-" + strconv.Itoa(paletteID)

	has, el, err := p.page.Context(ctx).Has(sel)
	if err != nil {
		return fmt.Errorf("browser: find %s: %w", sel, err)
	}
	if !has {
		return fmt.Errorf("browser: no button %s", sel)
	}

	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Close closes the tab and the browser, and stops Chrome if it was launched.
func (p *Page) Close() error {
	if p.page != nil {
		p.page.Close()
		p.page = nil
	}
	if p.browser != nil {
		p.browser.Close()
		p.browser = nil
	}
	if p.launcher != nil {
		p.launcher.Cleanup()
		p.launcher = nil
	}
	return nil
}

// parseCSSColor understands the forms getComputedStyle produces, rgb() and
// rgba(), plus hex.
func parseCSSColor(s string) (palette.RGB, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "#") {
		return palette.ParseHex(s)
	}

	var args string
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		args = s[len("rgba(") : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		args = s[len("rgb(") : len(s)-1]
	default:
		return palette.RGB{}, fmt.Errorf("%w: %q", errBadColor, s)
	}

	// Both "r, g, b" and "r g b / a" are valid
	args = strings.ReplaceAll(args, "/", " ")
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' '
	})
	if len(fields) < 3 || len(fields) > 4 {
		return palette.RGB{}, fmt.Errorf("%w: %q", errBadColor, s)
	}

	var c [3]uint8
	for i := range c {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || v < 0 || v > 255 {
			return palette.RGB{}, fmt.Errorf("%w: %q", errBadColor, s)
		}
		c[i] = uint8(math.Round(v))
	}

	return palette.RGB{R: c[0], G: c[1], B: c[2]}, nil
}
