package sizes

import (
	"slices"
	"sync"
	"time"
)

// DefaultSuffix is the file name suffix matched when none is configured.
const DefaultSuffix = ".html"

// DefaultRoot is the directory scanned when none is configured.
const DefaultRoot = "./site"

// Samples is the sequence of collected file sizes in bytes.
// Its order follows traversal order and carries no meaning.
type Samples []int64

// Min returns the smallest sample, or 0 for an empty set.
func (s Samples) Min() int64 {
	if len(s) == 0 {
		return 0
	}

	return slices.Min(s)
}

// Max returns the largest sample, or 0 for an empty set.
func (s Samples) Max() int64 {
	if len(s) == 0 {
		return 0
	}

	return slices.Max(s)
}

// Total returns the sum of all samples.
func (s Samples) Total() int64 {
	var total int64
	for _, v := range s {
		total += v
	}

	return total
}

// Mean returns the arithmetic mean, or 0 for an empty set.
func (s Samples) Mean() float64 {
	if len(s) == 0 {
		return 0
	}

	return float64(s.Total()) / float64(len(s))
}

// Median returns the median sample, or 0 for an empty set.
// The receiver is not modified.
func (s Samples) Median() float64 {
	n := len(s)
	if n == 0 {
		return 0
	}

	sorted := slices.Clone(s)
	slices.Sort(sorted)

	if n%2 == 1 {
		return float64(sorted[n/2])
	}

	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

// Float64s converts the samples for numeric consumers such as plotting.
func (s Samples) Float64s() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}

	return out
}

// Result holds the outcome of a collection run.
type Result struct {
	// Root is the cleaned root directory that was walked.
	Root string `json:"root"`
	// Suffix is the file name suffix that was matched.
	Suffix string `json:"suffix"`
	// Samples holds one size per matching file.
	Samples Samples `json:"samples"`
	// Skipped is the number of regular files that did not match the suffix.
	Skipped int64 `json:"skipped"`
	// BelowMinSize is the number of matching files smaller than the minimum size.
	BelowMinSize int64 `json:"below_min_size"`
	// Elapsed is the time spent walking.
	Elapsed time.Duration `json:"elapsed"`
}

// Count returns the number of collected samples.
func (r *Result) Count() int {
	return len(r.Samples)
}

// Options configures a collection run.
type Options struct {
	// Root is the directory to walk.
	Root string
	// Suffix is the literal, case-sensitive file name suffix to match.
	Suffix string
	// Excludes contains regex patterns to exclude.
	Excludes []string
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// MinSize is the minimum file size in bytes; smaller matches are not sampled.
	MinSize int64
	// Follow indicates whether symbolic links to directories are descended into.
	// Links to files are always resolved.
	Follow bool
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
}

// collector aggregates samples from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu           sync.Mutex // Protect concurrent access
	samples      Samples
	totalBytes   int64
	skipped      int64
	belowMinSize int64
}

func newCollector() *collector {
	return &collector{samples: make(Samples, 0)}
}

// add records one matching file size.
func (c *collector) add(size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.samples = append(c.samples, size)
	c.totalBytes += size
}

// skip counts a regular file rejected by the suffix filter.
func (c *collector) skip() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.skipped++
}

// tooSmall counts a matching file rejected by the minimum size.
func (c *collector) tooSmall() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.belowMinSize++
}

// snapshot returns the current file count and byte total.
func (c *collector) snapshot() (int64, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return int64(len(c.samples)), c.totalBytes
}

// finalize produces the Result from the collected data.
func (c *collector) finalize(root, suffix string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &Result{
		Root:         root,
		Suffix:       suffix,
		Samples:      c.samples,
		Skipped:      c.skipped,
		BelowMinSize: c.belowMinSize,
	}
}
