package sizes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog/log"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// ErrNotDirectory is returned when the root exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// matchExclude returns the first exclusion regex matching path, if any.
func matchExclude(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// hasSuffix reports whether a file name qualifies. The comparison is a
// literal, case-sensitive suffix check.
func hasSuffix(name, suffix string) bool {
	return strings.HasSuffix(name, suffix)
}

// compileExcludes compiles all exclusion patterns.
func compileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		out = append(out, re)
	}

	return out, nil
}

// startProgressReporter invokes hook(files, bytes) on each tick until the
// returned stop function is called. Stop waits for a running hook to return.
//
//nolint:varnamelen // c is idiomatic for collector
func startProgressReporter(ctx context.Context, c *collector, hook func(int64, int64), interval time.Duration) func() {
	if hook == nil {
		return func() {}
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(interval)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(c.snapshot())
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

// Collect walks opt.Root and returns the size of every regular file whose
// name ends with opt.Suffix.
//
// The walk fails as a whole on the first inaccessible file or directory.
// It can be cancelled via ctx. Progress updates are sent to progressHook if
// provided.
//
//nolint:gocognit,funlen // Single walk callback keeps the filter order readable.
func Collect(ctx context.Context, opt Options, progressHook func(int64, int64)) (*Result, error) {
	if opt.Root == "" {
		opt.Root = DefaultRoot
	}

	if opt.Suffix == "" {
		opt.Suffix = DefaultSuffix
	}

	if opt.Depth < 0 {
		return nil, errors.New("depth cannot be negative")
	}

	// Normalize to native format to handle both C:/Path and C:\Path inputs
	opt.Root = filepath.Clean(opt.Root)

	// validate path exists and is accessible
	if statInfo, err := os.Stat(opt.Root); err != nil {
		return nil, fmt.Errorf("accessing root %q: %w", opt.Root, err)
	} else if !statInfo.IsDir() {
		return nil, fmt.Errorf("root %q: %w", opt.Root, ErrNotDirectory)
	}

	excludeRegexes, err := compileExcludes(opt.Excludes)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("root", opt.Root).
		Str("suffix", opt.Suffix).
		Int("depth", opt.Depth).
		Strs("excludes", opt.Excludes).
		Bool("follow", opt.Follow).
		Int64("min_size", opt.MinSize).
		Msg("collecting file sizes")

	collector := newCollector()

	stopProgress := startProgressReporter(ctx, collector, progressHook, opt.ProgressInterval)
	defer stopProgress()

	start := time.Now()

	conf := &fastwalk.Config{
		Follow: opt.Follow,
	}

	//nolint:varnamelen // d is standard for DirEntry
	walkErr := fastwalk.Walk(conf, opt.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %q: %w", path, err)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		currentDepth := calculateDepth(path, opt.Root)
		if opt.Depth > 0 && currentDepth > opt.Depth {
			if d.IsDir() {
				log.Debug().Str("path", path).Int("depth", opt.Depth).Msg("skipping directory beyond depth")

				return filepath.SkipDir
			}

			return nil
		}

		if re := matchExclude(path, excludeRegexes); re != nil {
			log.Debug().Str("path", filepath.ToSlash(path)).Str("regex", re.String()).Msg("excluding")

			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() {
			return nil
		}

		var info fs.FileInfo

		switch {
		case d.Type().IsRegular():
			info, err = d.Info()
		case d.Type()&fs.ModeSymlink != 0:
			if !hasSuffix(d.Name(), opt.Suffix) {
				return nil
			}

			// Links count at their target's size; a dangling link fails the walk.
			info, err = fastwalk.StatDirEntry(path, d)
		default:
			return nil
		}

		if err != nil {
			return fmt.Errorf("reading metadata of %q: %w", path, err)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		if !hasSuffix(d.Name(), opt.Suffix) {
			collector.skip()

			return nil
		}

		if info.Size() < opt.MinSize {
			collector.tooSmall()

			return nil
		}

		collector.add(info.Size())

		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	result := collector.finalize(opt.Root, opt.Suffix)
	result.Elapsed = time.Since(start)

	log.Debug().
		Int("files", result.Count()).
		Int64("skipped", result.Skipped).
		Int64("below_min_size", result.BelowMinSize).
		Dur("elapsed", result.Elapsed).
		Msg("collection finished")

	return result, nil
}
