package histogram

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"gonum.org/v1/plot/vg"
)

// Scale selects how an axis maps values to positions.
type Scale string

const (
	// ScaleLinear maps equal differences to equal distances.
	ScaleLinear Scale = "linear"
	// ScaleLog maps equal ratios to equal distances.
	ScaleLog Scale = "log"
)

const (
	// DefaultBins matches the usual plotting default of ten equal-width bins.
	DefaultBins = 10
	// DefaultOutput is the image written when no path is given.
	DefaultOutput = "histogram.png"
	// DefaultFormat is the raster format used when it cannot be inferred.
	DefaultFormat = "png"
)

var (
	// DefaultWidth is the default canvas width.
	DefaultWidth = 12 * vg.Inch //nolint:gochecknoglobals // Config constant
	// DefaultHeight is the default canvas height.
	DefaultHeight = 8 * vg.Inch //nolint:gochecknoglobals // Config constant
)

var (
	// ErrUnknownScale is returned for an axis scale other than linear or log.
	ErrUnknownScale = errors.New("unknown axis scale")
	// ErrUnknownFormat is returned for an image format that is not a raster format.
	ErrUnknownFormat = errors.New("unknown raster format")
)

// rasterFormats are the headless raster backends gonum/plot can encode.
//
//nolint:gochecknoglobals // Lookup table
var rasterFormats = []string{"png", "jpg", "jpeg", "tif", "tiff"}

// ParseScale parses "linear" or "log" (case-insensitive).
func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case ScaleLinear, "":
		return ScaleLinear, nil
	case ScaleLog:
		return ScaleLog, nil
	default:
		return "", fmt.Errorf("%w %q: must be %q or %q", ErrUnknownScale, s, ScaleLinear, ScaleLog)
	}
}

// Config describes how a histogram figure is drawn.
type Config struct {
	// Title is drawn above the plot when non-empty.
	Title string
	// XScale is the horizontal axis scale.
	XScale Scale
	// Bins is the number of equal-width bins; 0 uses the square root of
	// the sample count.
	Bins int
	// Width and Height are the canvas dimensions.
	Width  vg.Length
	Height vg.Length
	// Format is the raster backend; empty infers it from the output path.
	Format string
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		XScale: ScaleLinear,
		Bins:   DefaultBins,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
}

// withDefaults fills zero-valued dimensions and normalizes the scale.
func (c Config) withDefaults() Config {
	if scale, err := ParseScale(string(c.XScale)); err == nil {
		c.XScale = scale
	}

	if c.Width == 0 {
		c.Width = DefaultWidth
	}

	if c.Height == 0 {
		c.Height = DefaultHeight
	}

	return c
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := ParseScale(string(c.XScale)); err != nil {
		return err
	}

	if c.Bins < 0 {
		return fmt.Errorf("bins cannot be negative: %d", c.Bins)
	}

	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("canvas size cannot be negative: %v x %v", c.Width, c.Height)
	}

	if c.Format != "" && !slices.Contains(rasterFormats, strings.ToLower(c.Format)) {
		return fmt.Errorf("%w %q: must be one of %v", ErrUnknownFormat, c.Format, rasterFormats)
	}

	return nil
}

// ResolveFormat picks the raster format for path: the configured one if
// set, else the file extension, else png.
func ResolveFormat(path, configured string) (string, error) {
	if configured != "" {
		format := strings.ToLower(configured)
		if !slices.Contains(rasterFormats, format) {
			return "", fmt.Errorf("%w %q: must be one of %v", ErrUnknownFormat, configured, rasterFormats)
		}

		return format, nil
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch {
	case ext == "":
		return DefaultFormat, nil
	case slices.Contains(rasterFormats, ext):
		return ext, nil
	default:
		return "", fmt.Errorf("%w %q: must be one of %v", ErrUnknownFormat, ext, rasterFormats)
	}
}
