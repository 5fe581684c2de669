package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/sizehist/internal/histogram"
	"github.com/idelchi/sizehist/internal/sizes"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// PrintCount writes the single report line for n collected sizes.
func PrintCount(writer io.Writer, n int) error {
	if _, err := fmt.Fprintf(writer, "Sizes number: %d\n", n); err != nil {
		return fmt.Errorf("printing count: %w", err)
	}

	return nil
}

// summary is the JSON form of a run.
type summary struct {
	*sizes.Result

	Count   int             `json:"count"`
	Total   int64           `json:"total_bytes"`
	Min     int64           `json:"min_bytes"`
	Max     int64           `json:"max_bytes"`
	Mean    float64         `json:"mean_bytes"`
	Median  float64         `json:"median_bytes"`
	Bins    []histogram.Bin `json:"bins"`
	Dropped int             `json:"not_plotted"`
}

// PrintJSON outputs the collection statistics and histogram bins in JSON format.
func PrintJSON(result *sizes.Result, fig *histogram.Figure, writer io.Writer) error {
	out := summary{
		Result: result,
		Count:  result.Count(),
		Total:  result.Samples.Total(),
		Min:    result.Samples.Min(),
		Max:    result.Samples.Max(),
		Mean:   result.Samples.Mean(),
		Median: result.Samples.Median(),
		Bins:   []histogram.Bin{},
	}

	if fig != nil {
		out.Bins = append(out.Bins, fig.Bins...)
		out.Dropped = fig.Dropped
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// ibytes formats a non-negative byte amount.
func ibytes(v float64) string {
	return humanize.IBytes(uint64(math.Max(0, math.Round(v))))
}

// PrintSummary outputs the collection statistics and histogram bins in
// human-readable table format.
func PrintSummary(result *sizes.Result, fig *histogram.Figure, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	samples := result.Samples

	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Root:\t%s\n", result.Root)
	fmt.Fprintf(w, "Suffix:\t%s\n", result.Suffix)
	fmt.Fprintf(w, "Files:\t%d (%d skipped)\n", len(samples), result.Skipped)

	if result.BelowMinSize > 0 {
		fmt.Fprintf(w, "Below min size:\t%d\n", result.BelowMinSize)
	}
	fmt.Fprintf(w, "Total size:\t%s (%d bytes)\n", ibytes(float64(samples.Total())), samples.Total())

	if len(samples) > 0 {
		fmt.Fprintf(w, "Smallest:\t%s\n", ibytes(float64(samples.Min())))
		fmt.Fprintf(w, "Largest:\t%s\n", ibytes(float64(samples.Max())))
		fmt.Fprintf(w, "Mean:\t%s\n", ibytes(samples.Mean()))
		fmt.Fprintf(w, "Median:\t%s\n", ibytes(samples.Median()))
	}

	if fig != nil && !fig.Empty() {
		fmt.Fprintln(w, "\nBins:\t\t")

		for i, b := range fig.Bins {
			fmt.Fprintf(w, "  %d) %s - %s:\t%d files\n", i+1, ibytes(b.Min), ibytes(b.Max), b.Count)
		}
	}

	if fig != nil && fig.Dropped > 0 {
		fmt.Fprintf(w, "\nNot plotted:\t%d zero-byte files\n", fig.Dropped)
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", result.Elapsed)

	return w.Flush()
}
