package pixeloverlay

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bodgit/pixeloverlay/kv"
	"github.com/bodgit/pixeloverlay/kv/file"
	"github.com/bodgit/pixeloverlay/kv/memory"
	"github.com/bodgit/pixeloverlay/kv/postgres"
	"github.com/bodgit/pixeloverlay/kv/s3"
	"github.com/bodgit/pixeloverlay/kv/sqlite"
	"github.com/bodgit/pixeloverlay/palette"
	"github.com/bodgit/pixeloverlay/progress"
	"github.com/bodgit/pixeloverlay/quantize"
	"gopkg.in/yaml.v3"
)

// Config parameterizes an Overlay and the stores around it.
type Config struct {
	AlphaThreshold uint8         `yaml:"alpha_threshold"`
	WhiteThreshold uint8         `yaml:"white_threshold"`
	StorageKey     string        `yaml:"storage_key"`
	Storage        StorageConfig `yaml:"storage"`
	Palette        []ColorConfig `yaml:"palette"`
	Detect         Backoff       `yaml:"detect"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Driver kv.Driver `yaml:"driver"`
	Path   string    `yaml:"path"` // directory for file, database for sqlite
	DSN    string    `yaml:"dsn"`  // postgres
	S3     s3.Config `yaml:"s3"`
}

// ColorConfig is a palette entry written as a hex color.
type ColorConfig struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// DefaultConfig returns the default configuration: alpha
// below 100 and near-white from 250 are discarded, progress is kept in a
// local SQLite database.
func DefaultConfig() Config {
	return Config{
		AlphaThreshold: quantize.DefaultAlphaThreshold,
		WhiteThreshold: quantize.DefaultWhiteThreshold,
		StorageKey:     progress.DefaultKey,
		Storage: StorageConfig{
			Driver: kv.DriverSQLite,
			Path:   "pixeloverlay.db",
		},
		Detect: Backoff{
			Attempts: 10,
			Interval: 500 * time.Millisecond,
		},
	}
}

// LoadConfig reads a YAML configuration file. Anything not set in the file
// keeps its default.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("pixeloverlay: %s: %w", path, err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.StorageKey == "" {
		c.StorageKey = progress.DefaultKey
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = kv.DriverSQLite
	}
	if c.Detect.Attempts <= 0 {
		c.Detect.Attempts = 1
	}
}

// Quantize returns the retention thresholds.
func (c Config) Quantize() quantize.Config {
	return quantize.Config{
		AlphaThreshold: c.AlphaThreshold,
		WhiteThreshold: c.WhiteThreshold,
	}
}

// PaletteEntries converts the configured palette. It returns nil if no
// palette is configured.
func (c Config) PaletteEntries() ([]palette.Entry, error) {
	if len(c.Palette) == 0 {
		return nil, nil
	}
	entries := make([]palette.Entry, 0, len(c.Palette))
	for _, p := range c.Palette {
		rgb, err := palette.ParseHex(p.Color)
		if err != nil {
			return nil, err
		}
		entries = append(entries, palette.Entry{ID: p.ID, Name: p.Name, Color: rgb})
	}
	return entries, nil
}

// OpenStore opens the configured key-value backend.
func OpenStore(ctx context.Context, cfg StorageConfig) (kv.Store, error) {
	switch cfg.Driver {
	case kv.DriverMemory:
		return memory.New(), nil
	case kv.DriverFile:
		return file.New(cfg.Path)
	case kv.DriverSQLite, "":
		return sqlite.New(cfg.Path)
	case kv.DriverPostgres:
		return postgres.New(ctx, cfg.DSN)
	case kv.DriverS3:
		return s3.New(ctx, s3.ConfigFromEnv(cfg.S3))
	default:
		return nil, fmt.Errorf("pixeloverlay: unknown storage driver %q", cfg.Driver)
	}
}
