package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/idelchi/sizehist/internal/histogram"
	"github.com/idelchi/sizehist/internal/logger"
	"github.com/idelchi/sizehist/internal/sizes"
)

// logic runs collection, reporting and plotting in that order. A failed
// collection returns before anything is printed or written.
func logic(ctx context.Context, options settings, stdout, stderr io.Writer) error {
	enableProgress := options.LogLevel != "debug" && logger.IsTerminal(stderr)

	// Simple progress callback that prints directly to stderr
	var progressHook func(files, bytes int64)

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(files, bytes int64) {
			msg := fmt.Sprintf("Scanning… %d files, %s",
				files, humanize.IBytes(uint64(bytes))) //nolint:gosec // Bytes is always positive
			fmt.Fprintf(stderr, "\r\033[2K%s\r", msg)
		}
	}

	result, err := sizes.Collect(ctx, options.collectOptions(), progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	cfg, err := options.histogramConfig()
	if err != nil {
		return err
	}

	// Render before printing so a plotting failure leaves no output at all.
	fig, err := histogram.Render(result.Samples.Float64s(), cfg)
	if err != nil {
		return fmt.Errorf("rendering histogram: %w", err)
	}

	if err := PrintCount(stdout, result.Count()); err != nil {
		return err
	}

	if err := fig.Save(options.Output); err != nil {
		return fmt.Errorf("writing histogram: %w", err)
	}

	log.Info().
		Str("output", options.Output).
		Int("files", result.Count()).
		Str("total", humanize.IBytes(uint64(result.Samples.Total()))). //nolint:gosec // Sizes are never negative
		Dur("elapsed", result.Elapsed).
		Msg("histogram written")

	if !options.Summary {
		return nil
	}

	switch options.SummaryFormat {
	case "json":
		return PrintJSON(result, fig, stderr)
	default:
		return PrintSummary(result, fig, stderr)
	}
}
