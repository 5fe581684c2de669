package histogram

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

// logFloor is the lower bound of the count axis. It sits below 1 so that
// single-file bins remain visible on a log scale.
const logFloor = 0.5

// EmptyTitle is drawn on the placeholder figure written for an empty sample set.
const EmptyTitle = "no samples"

// Bin is one histogram bucket covering [Min, Max).
type Bin struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Figure is a rendered histogram ready to be saved.
type Figure struct {
	plot *plot.Plot
	cfg  Config
	// Bins holds the buckets drawn, empty for the placeholder figure.
	Bins []Bin
	// Dropped is the number of samples that could not be placed on the axes.
	Dropped int
}

// Empty reports whether the figure is the no-data placeholder.
func (f *Figure) Empty() bool {
	return len(f.Bins) == 0
}

// byteTicks labels the ticks of an underlying ticker with human-readable
// byte sizes.
type byteTicks struct {
	base plot.Ticker
}

// Ticks implements plot.Ticker.
func (b byteTicks) Ticks(lo, hi float64) []plot.Tick {
	ticks := b.base.Ticks(lo, hi)

	for i := range ticks {
		if ticks[i].Label == "" || ticks[i].Value < 0 {
			continue
		}

		ticks[i].Label = humanize.IBytes(uint64(math.Round(ticks[i].Value)))
	}

	return ticks
}

// binCount returns the number of bins for n samples. A configured count of
// zero selects ceil(sqrt(n)), never less than one bin.
func binCount(configured, n int) int {
	if configured > 0 {
		return configured
	}

	return max(1, int(math.Ceil(math.Sqrt(float64(n)))))
}

// positive returns the values strictly greater than zero and how many were removed.
func positive(values []float64) ([]float64, int) {
	out := make([]float64, 0, len(values))

	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}

	return out, len(values) - len(out)
}

// Render builds a histogram of samples.
//
// An empty sample set yields a placeholder figure with linear axes and the
// title EmptyTitle instead of an error. With a log XScale, zero-valued
// samples cannot be placed and are dropped; Figure.Dropped counts them.
func Render(samples []float64, cfg Config) (*Figure, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = cfg.Title
	p.X.Label.Text = "file size"
	p.Y.Label.Text = "files"

	values := samples
	dropped := 0

	if cfg.XScale == ScaleLog {
		values, dropped = positive(samples)
		if dropped > 0 {
			log.Warn().Int("dropped", dropped).Msg("zero-byte samples cannot be drawn on a log size axis")
		}
	}

	fig := &Figure{plot: p, cfg: cfg, Dropped: dropped}

	if len(values) == 0 {
		log.Warn().Msg("no samples to plot, writing placeholder figure")

		if p.Title.Text == "" {
			p.Title.Text = EmptyTitle
		} else {
			p.Title.Text += " (" + EmptyTitle + ")"
		}

		return fig, nil
	}

	hist, err := plotter.NewHist(plotter.Values(values), binCount(cfg.Bins, len(values)))
	if err != nil {
		return nil, fmt.Errorf("building histogram: %w", err)
	}

	hist.LogY = true
	p.Add(hist)

	maxCount := 0.0
	fig.Bins = make([]Bin, len(hist.Bins))

	for i, b := range hist.Bins {
		fig.Bins[i] = Bin{Min: b.Min, Max: b.Max, Count: int(b.Weight)}
		maxCount = math.Max(maxCount, b.Weight)
	}

	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Min = logFloor
	p.Y.Max = maxCount * 2

	if cfg.XScale == ScaleLog {
		p.X.Scale = plot.LogScale{}
		p.X.Tick.Marker = byteTicks{base: plot.LogTicks{Prec: -1}}
	} else {
		p.X.Tick.Marker = byteTicks{base: plot.DefaultTicks{}}
	}

	log.Debug().
		Int("samples", len(values)).
		Int("bins", len(fig.Bins)).
		Str("x_scale", string(cfg.XScale)).
		Msg("histogram rendered")

	return fig, nil
}

// createTemp creates an empty file next to path with mode 0o666, so the
// process umask applies as it would for a plain create.
func createTemp(path string) (*os.File, error) {
	dir, base := filepath.Split(path)

	for range 10 {
		name := filepath.Join(dir, "."+base+"."+strconv.FormatUint(rand.Uint64(), 36)+".tmp")

		f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666) //nolint:gosec,mnd // Umask applies
		if errors.Is(err, fs.ErrExist) {
			continue
		}

		return f, err
	}

	return nil, fmt.Errorf("no unused temporary name next to %q", path)
}

// Save encodes the figure to path, replacing any existing file.
//
// The image is written to a temporary file next to path and renamed into
// place, so a failure never leaves a truncated image behind. An existing
// file keeps its permission bits.
func (f *Figure) Save(path string) (err error) {
	format, err := ResolveFormat(path, f.cfg.Format)
	if err != nil {
		return err
	}

	wt, err := f.plot.WriterTo(f.cfg.Width, f.cfg.Height, format)
	if err != nil {
		return fmt.Errorf("creating %s canvas: %w", format, err)
	}

	tmp, err := createTemp(path)
	if err != nil {
		return fmt.Errorf("creating temporary image file: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = wt.WriteTo(tmp); err != nil {
		return fmt.Errorf("encoding %s image: %w", format, err)
	}

	if existing, statErr := os.Stat(path); statErr == nil {
		if err = tmp.Chmod(existing.Mode().Perm()); err != nil {
			return fmt.Errorf("setting image permissions: %w", err)
		}
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary image file: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %q: %w", path, err)
	}

	log.Debug().Str("path", path).Str("format", format).Msg("histogram written")

	return nil
}

// Write renders samples and saves the figure to path.
func Write(samples []float64, cfg Config, path string) (*Figure, error) {
	fig, err := Render(samples, cfg)
	if err != nil {
		return nil, err
	}

	if err := fig.Save(path); err != nil {
		return nil, err
	}

	return fig, nil
}
