package main

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"os"
	"slices"
	"strconv"

	"github.com/bodgit/pixeloverlay"
	"github.com/bodgit/pixeloverlay/browser"
	"github.com/bodgit/pixeloverlay/kv"
	"github.com/bodgit/pixeloverlay/palette"
	"github.com/bodgit/pixeloverlay/progress"
	"github.com/bodgit/pixeloverlay/projector"
	"github.com/bodgit/pixeloverlay/quantize"
	"github.com/urfave/cli/v2"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

// session is everything a command needs, built from the global flags.
type session struct {
	cfg     pixeloverlay.Config
	logger  *log.Logger
	store   kv.Store
	page    *browser.Page
	overlay *pixeloverlay.Overlay
}

func (s *session) Close() {
	if s.page != nil {
		s.page.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func loadConfig(c *cli.Context) (pixeloverlay.Config, error) {
	cfg := pixeloverlay.DefaultConfig()
	if c.IsSet("config") {
		var err error
		if cfg, err = pixeloverlay.LoadConfig(c.String("config")); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("storage-driver") {
		cfg.Storage.Driver = kv.Driver(c.String("storage-driver"))
	}
	if c.IsSet("storage-path") {
		cfg.Storage.Path = c.String("storage-path")
	}
	if c.IsSet("key") {
		cfg.StorageKey = c.String("key")
	}
	return cfg, nil
}

func openBrowser(c *cli.Context, logger *log.Logger) (*browser.Page, error) {
	return browser.Open(c.Context, browser.Config{
		RemoteURL: c.String("remote"),
		PageURL:   c.String("url"),
	}, logger)
}

// open builds a session. If load is set the image named by the global flags
// is quantized and any saved progress restored, otherwise only the saved
// view is.
func open(c *cli.Context, load bool) (*session, error) {
	s := &session{logger: newLogger(c)}

	var err error
	if s.cfg, err = loadConfig(c); err != nil {
		return nil, err
	}

	reg := palette.NewRegistry()
	entries, err := s.cfg.PaletteEntries()
	if err != nil {
		return nil, err
	}
	if entries != nil {
		if err := reg.Register(entries); err != nil {
			return nil, err
		}
	}

	if s.store, err = pixeloverlay.OpenStore(c.Context, s.cfg.Storage); err != nil {
		return nil, err
	}

	opts := []pixeloverlay.Option{
		pixeloverlay.WithLogger(s.logger),
		pixeloverlay.WithRegistry(reg),
	}

	if c.IsSet("url") {
		if s.page, err = openBrowser(c, s.logger); err != nil {
			s.Close()
			return nil, err
		}
		ok, err := pixeloverlay.DetectPalette(c.Context, s.page, reg, s.cfg.Detect)
		if err != nil {
			s.Close()
			return nil, err
		}
		if !ok {
			s.logger.Println("No palette found on page, using fallback")
		}
		opts = append(opts, pixeloverlay.WithActivator(s.page))
	}

	s.overlay = pixeloverlay.New(s.cfg, progress.NewStore(s.store, s.cfg.StorageKey), opts...)

	if !load {
		s.overlay.RestoreView(c.Context)
		return s, nil
	}

	if !c.IsSet("image") {
		s.Close()
		return nil, errors.New("--image is required")
	}

	f, err := os.Open(c.String("image"))
	if err != nil {
		s.Close()
		return nil, err
	}
	defer f.Close()

	r, err := s.overlay.LoadReader(c.Context, f, c.Int("width"), c.Int("height"))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.logger.Printf("Restore %s %s\n", r.Outcome, r.Reason)

	return s, nil
}

func float(c *cli.Context, i int) (float64, error) {
	return strconv.ParseFloat(c.Args().Get(i), 64)
}

func integer(c *cli.Context, i int) (int, error) {
	return strconv.Atoi(c.Args().Get(i))
}

func printStatus(s *session) {
	p := s.overlay.Progress()
	t := s.overlay.Transform()
	f := s.overlay.Flags()
	fmt.Printf("progress: %d/%d (%d%%)\n", p.Done, p.Total, p.Percent)
	fmt.Printf("offset: %g,%g scale: %g\n", t.Offset.X, t.Offset.Y, t.Scale)
	fmt.Printf("grid lines: %t locked: %t\n", f.Visible, f.Locked)
}

// withSession wraps a command action that needs a session. If nargs is
// given the command must have one of those numbers of arguments, which is
// checked before anything is opened.
func withSession(load bool, fn func(*cli.Context, *session) error, nargs ...int) cli.ActionFunc {
	return func(c *cli.Context) error {
		if len(nargs) > 0 && !slices.Contains(nargs, c.NArg()) {
			_ = cli.ShowCommandHelp(c, c.Command.FullName())
			return cli.Exit(fmt.Sprintf("%s: wrong number of arguments", c.Command.FullName()), 1)
		}

		s, err := open(c, load)
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer s.Close()

		if err := fn(c, s); err != nil {
			return cli.Exit(err, 1)
		}
		return nil
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "pixeloverlay"
	app.Usage = "Palette-quantized image overlay with saved progress"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"PIXELOVERLAY_CONFIG"},
			Usage:   "path to YAML configuration",
		},
		&cli.StringFlag{
			Name:    "storage-driver",
			EnvVars: []string{"PIXELOVERLAY_STORAGE_DRIVER"},
			Usage:   "memory, file, sqlite, postgres or s3",
		},
		&cli.StringFlag{
			Name:    "storage-path",
			EnvVars: []string{"PIXELOVERLAY_STORAGE_PATH"},
			Usage:   "directory or database file for the file and sqlite drivers",
		},
		&cli.StringFlag{
			Name:    "key",
			EnvVars: []string{"PIXELOVERLAY_KEY"},
			Usage:   "key progress is stored under",
		},
		&cli.StringFlag{
			Name:    "image",
			Aliases: []string{"i"},
			Usage:   "image to overlay",
		},
		&cli.IntFlag{
			Name:  "width",
			Value: 64,
			Usage: "grid width in cells",
		},
		&cli.IntFlag{
			Name:  "height",
			Value: 64,
			Usage: "grid height in cells",
		},
		&cli.StringFlag{
			Name:    "url",
			EnvVars: []string{"PIXELOVERLAY_URL"},
			Usage:   "drawing page to read the palette from and click colors on",
		},
		&cli.StringFlag{
			Name:    "remote",
			EnvVars: []string{"PIXELOVERLAY_REMOTE"},
			Usage:   "DevTools URL of a running Chrome, otherwise one is launched",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:  "load",
			Usage: "Quantize an image, restore progress and show status",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "preview",
					Usage: "write the rendered overlay as PNG",
				},
				&cli.IntFlag{
					Name:  "cell-size",
					Value: 8,
					Usage: "preview pixels per cell",
				},
			},
			Action: withSession(true, func(c *cli.Context, s *session) error {
				printStatus(s)

				if !c.IsSet("preview") {
					return nil
				}
				m := s.overlay.Render(c.Int("cell-size"))
				if m == nil {
					return fmt.Errorf("invalid cell size %d", c.Int("cell-size"))
				}
				f, err := os.Create(c.String("preview"))
				if err != nil {
					return err
				}
				defer f.Close()
				return png.Encode(f, m)
			}),
		},
		{
			Name:      "activate",
			Usage:     "Activate the cell at grid coordinates",
			ArgsUsage: "X Y",
			Action: withSession(true, func(c *cli.Context, s *session) error {
				x, err := integer(c, 0)
				if err != nil {
					return err
				}
				y, err := integer(c, 1)
				if err != nil {
					return err
				}
				r, err := s.overlay.Activate(c.Context, x, y)
				if err != nil {
					return err
				}
				fmt.Println(r)
				return nil
			}, 2),
		},
		{
			Name:      "click",
			Usage:     "Activate the cell under view coordinates",
			ArgsUsage: "X Y",
			Action: withSession(true, func(c *cli.Context, s *session) error {
				x, err := float(c, 0)
				if err != nil {
					return err
				}
				y, err := float(c, 1)
				if err != nil {
					return err
				}
				p := projector.Point{X: x, Y: y}
				if cell, e, ok := s.overlay.Inspect(p); ok {
					fmt.Printf("(%d, %d) %s %s\n", cell.X, cell.Y, e.Name, e.Color.Hex())
				}
				r, err := s.overlay.ActivateAt(c.Context, p)
				if err != nil {
					return err
				}
				fmt.Println(r)
				return nil
			}, 2),
		},
		{
			Name:  "reset",
			Usage: "Mark every cell as not done",
			Action: withSession(true, func(c *cli.Context, s *session) error {
				return s.overlay.Reset(c.Context)
			}),
		},
		{
			Name:      "pan",
			Usage:     "Move the overlay",
			ArgsUsage: "DX DY",
			Action: withSession(true, func(c *cli.Context, s *session) error {
				dx, err := float(c, 0)
				if err != nil {
					return err
				}
				dy, err := float(c, 1)
				if err != nil {
					return err
				}
				return s.overlay.Pan(c.Context, projector.Point{X: dx, Y: dy})
			}, 2),
		},
		{
			Name:      "zoom",
			Usage:     "Set the cell scale, optionally about an anchor point",
			ArgsUsage: "SCALE [X Y]",
			Action: withSession(true, func(c *cli.Context, s *session) error {
				scale, err := float(c, 0)
				if err != nil {
					return err
				}
				if c.NArg() == 1 {
					return s.overlay.SetScale(c.Context, scale)
				}
				x, err := float(c, 1)
				if err != nil {
					return err
				}
				y, err := float(c, 2)
				if err != nil {
					return err
				}
				return s.overlay.ZoomAt(c.Context, projector.Point{X: x, Y: y}, scale)
			}, 1, 3),
		},
		{
			Name:      "grid",
			Usage:     "Show or hide grid lines",
			ArgsUsage: "on|off",
			Action: withSession(true, func(c *cli.Context, s *session) error {
				v, err := strconv.ParseBool(c.Args().First())
				if err != nil {
					v = c.Args().First() == "on"
				}
				return s.overlay.SetVisible(c.Context, v)
			}, 1),
		},
		{
			Name:      "lock",
			Usage:     "Lock or unlock the overlay",
			ArgsUsage: "on|off",
			Action: withSession(true, func(c *cli.Context, s *session) error {
				v, err := strconv.ParseBool(c.Args().First())
				if err != nil {
					v = c.Args().First() == "on"
				}
				return s.overlay.SetLocked(c.Context, v)
			}, 1),
		},
		{
			Name:  "view",
			Usage: "Show the saved view without loading an image",
			Action: withSession(false, func(c *cli.Context, s *session) error {
				printStatus(s)
				return nil
			}),
		},
		{
			Name:  "palette",
			Usage: "List the palette, or derive one from an image",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "derive",
					Usage: "derive this many colors from --image",
				},
			},
			Action: withSession(false, func(c *cli.Context, s *session) error {
				entries := s.overlay.Registry().Entries()
				if n := c.Int("derive"); n > 0 {
					f, err := os.Open(c.String("image"))
					if err != nil {
						return err
					}
					defer f.Close()
					m, err := quantize.Decode(f)
					if err != nil {
						return err
					}
					entries = palette.FromImage(m, n)
				}
				for _, e := range entries {
					fmt.Printf("%d\t%s\t%s\n", e.ID, e.Color.Hex(), e.Name)
				}
				return nil
			}),
		},
	}

	return app
}

func main() {
	if err := newApp().RunContext(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
