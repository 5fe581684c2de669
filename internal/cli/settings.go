package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot/vg"

	"github.com/idelchi/sizehist/internal/config"
	"github.com/idelchi/sizehist/internal/histogram"
	"github.com/idelchi/sizehist/internal/sizes"
)

// settings holds the merged configuration for one run.
type settings struct {
	// Root is the directory to analyze.
	Root string
	// Suffix is the file name suffix to match.
	Suffix string
	// Output is the image path.
	Output string
	// Format is the raster format; empty infers it from Output.
	Format string
	// XScale is the size axis scale.
	XScale string
	// Bins is the bin count (0=automatic).
	Bins int
	// Width and Height are vg length strings such as "12in".
	Width  string
	Height string
	// Title is the figure title.
	Title string
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// Excludes contains regex patterns to exclude.
	Excludes []string
	// Follow indicates whether symbolic links are followed.
	Follow bool
	// MinSize is the smallest file size sampled (e.g. 1KB).
	MinSize string
	// Summary indicates whether to print a summary.
	Summary bool
	// SummaryFormat is table or json.
	SummaryFormat string
	// ConfigPath is an optional TOML file.
	ConfigPath string
	// LogLevel is the zerolog level name.
	LogLevel string
	// Debug forces the debug log level.
	Debug bool

	minSizeBytes int64
}

//nolint:gochecknoglobals // Config constant
var allowedSummaryFormats = []string{"table", "json"}

func defaultSettings() settings {
	return settings{
		Root:   sizes.DefaultRoot,
		Suffix: sizes.DefaultSuffix,
		Output: histogram.DefaultOutput,
		XScale: string(histogram.ScaleLinear),
		Bins:   histogram.DefaultBins,
		Width:  "12in",
		Height: "8in",

		MinSize:       "0B",
		SummaryFormat: "table",
	}
}

// load merges the config file into s. A value from the file only applies
// when the matching flag was not set explicitly.
//
//nolint:cyclop // One branch per key.
func (s *settings) load(changed func(string) bool) error {
	if s.ConfigPath != "" {
		file, err := config.Load(s.ConfigPath)
		if err != nil {
			return err
		}

		setString := func(flag string, dst *string, value string) {
			if value != "" && !changed(flag) {
				*dst = value
			}
		}

		setString("root", &s.Root, file.Root)
		setString("suffix", &s.Suffix, file.Suffix)
		setString("output", &s.Output, file.Output)
		setString("format", &s.Format, file.Format)
		setString("x-scale", &s.XScale, file.XScale)
		setString("width", &s.Width, file.Width)
		setString("height", &s.Height, file.Height)
		setString("title", &s.Title, file.Title)
		setString("log-level", &s.LogLevel, file.LogLevel)
		setString("min-size", &s.MinSize, file.MinSize)
		setString("summary-format", &s.SummaryFormat, file.SummaryFormat)

		if file.Bins != nil && !changed("bins") {
			s.Bins = *file.Bins
		}

		if file.Depth != nil && !changed("depth") {
			s.Depth = *file.Depth
		}

		if file.Excludes != nil && !changed("exclude") {
			s.Excludes = file.Excludes
		}

		if file.Follow != nil && !changed("follow") {
			s.Follow = *file.Follow
		}

		if file.Summary != nil && !changed("summary") {
			s.Summary = *file.Summary
		}
	}

	if s.Debug {
		s.LogLevel = "debug"
	}

	return s.validate()
}

// validate rejects invalid values before any filesystem access.
func (s *settings) validate() error {
	if s.Depth < 0 {
		return errors.New("depth cannot be negative")
	}

	if s.Output == "" {
		return errors.New("output path cannot be empty")
	}

	if !slices.Contains(allowedSummaryFormats, s.SummaryFormat) {
		return fmt.Errorf("invalid summary format %q: must be one of %v", s.SummaryFormat, allowedSummaryFormats)
	}

	s.minSizeBytes = 0

	if s.MinSize != "" {
		size, err := humanize.ParseBytes(s.MinSize)
		if err != nil {
			return fmt.Errorf("invalid min-size: %w", err)
		}

		s.minSizeBytes = int64(size) //nolint:gosec // Size conversion from humanize is safe
	}

	cfg, err := s.histogramConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if _, err := histogram.ResolveFormat(s.Output, s.Format); err != nil {
		return err
	}

	if dir := filepath.Dir(s.Output); dir != "." {
		if info, err := os.Stat(dir); err != nil {
			return fmt.Errorf("accessing output directory %q: %w", dir, err)
		} else if !info.IsDir() {
			return fmt.Errorf("output directory %q is not a directory", dir)
		}
	}

	return nil
}

// collectOptions converts the settings for the collector.
func (s *settings) collectOptions() sizes.Options {
	return sizes.Options{
		Root:     s.Root,
		Suffix:   s.Suffix,
		Excludes: s.Excludes,
		Depth:    s.Depth,
		Follow:   s.Follow,
		MinSize:  s.minSizeBytes,
	}
}

// histogramConfig converts the settings for the plotter.
func (s *settings) histogramConfig() (histogram.Config, error) {
	scale, err := histogram.ParseScale(s.XScale)
	if err != nil {
		return histogram.Config{}, err
	}

	width, err := vg.ParseLength(s.Width)
	if err != nil {
		return histogram.Config{}, fmt.Errorf("invalid width %q: %w", s.Width, err)
	}

	height, err := vg.ParseLength(s.Height)
	if err != nil {
		return histogram.Config{}, fmt.Errorf("invalid height %q: %w", s.Height, err)
	}

	if width <= 0 || height <= 0 {
		return histogram.Config{}, fmt.Errorf("canvas size must be positive: %s x %s", s.Width, s.Height)
	}

	return histogram.Config{
		Title:  s.Title,
		XScale: scale,
		Bins:   s.Bins,
		Width:  width,
		Height: height,
		Format: s.Format,
	}, nil
}
