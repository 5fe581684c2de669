package sizes

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree creates files relative to root; the value is the file size.
func writeTree(t *testing.T, root string, files map[string]int) {
	t.Helper()

	for name, size := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644))
	}
}

func TestCollect_Scenario(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"a.html":     10,
		"sub/b.html": 20,
		"sub/c.txt":  5,
	})

	res, err := Collect(context.Background(), Options{Root: root}, nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []int64{10, 20}, res.Samples)
	assert.Equal(t, 2, res.Count())
	assert.Equal(t, int64(1), res.Skipped)
	assert.Equal(t, DefaultSuffix, res.Suffix)
}

func TestCollect_CountIgnoresNestingAndOtherFiles(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]int
		want  int
	}{
		{"empty tree", map[string]int{}, 0},
		{"only other files", map[string]int{"a.txt": 1, "b/c.css": 2}, 0},
		{"flat", map[string]int{"a.html": 1, "b.html": 2, "c.js": 3}, 2},
		{
			"deep",
			map[string]int{
				"x/y/z/a.html": 1,
				"x/y/b.html":   0,
				"x/c.html":     3,
				"x/y/z/d.png":  4,
				"e.htm":        5,
			},
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files)

			res, err := Collect(context.Background(), Options{Root: root}, nil)
			require.NoError(t, err)
			assert.Len(t, res.Samples, tt.want)
		})
	}
}

func TestCollect_SuffixIsLiteralAndCaseSensitive(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"a.html":     1,
		"B.HTML":     2,
		"c.html.bak": 3,
		"dhtml":      4,
		"e.xhtml":    5,
	})

	res, err := Collect(context.Background(), Options{Root: root}, nil)
	require.NoError(t, err)

	// "e.xhtml" ends with "html" but not ".html"; it must not match.
	assert.ElementsMatch(t, []int64{1}, res.Samples)
}

func TestCollect_CustomSuffix(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a.html": 1, "b.md": 7, "sub/c.md": 9})

	res, err := Collect(context.Background(), Options{Root: root, Suffix: ".md"}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{7, 9}, res.Samples)
}

func TestCollect_DirectoryNamedLikeSuffixIsNotSampled(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pages.html"), 0o755))
	writeTree(t, root, map[string]int{"pages.html/index.html": 12})

	res, err := Collect(context.Background(), Options{Root: root}, nil)
	require.NoError(t, err)
	assert.Equal(t, Samples{12}, res.Samples)
}

func TestCollect_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")

	res, err := Collect(context.Background(), Options{Root: root}, nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCollect_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a.html": 1})

	_, err := Collect(context.Background(), Options{Root: filepath.Join(root, "a.html")}, nil)
	require.ErrorIs(t, err, ErrNotDirectory)
}

func TestCollect_UnreadableDirectoryFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	root := t.TempDir()
	writeTree(t, root, map[string]int{"a.html": 1, "locked/b.html": 2})

	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	res, err := Collect(context.Background(), Options{Root: root}, nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestCollect_Depth(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"a.html":       1,
		"d1/b.html":    2,
		"d1/d2/c.html": 3,
	})

	res, err := Collect(context.Background(), Options{Root: root, Depth: 2}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, res.Samples)

	_, err = Collect(context.Background(), Options{Root: root, Depth: -1}, nil)
	require.Error(t, err)
}

func TestCollect_Excludes(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{
		"a.html":        1,
		"drafts/b.html": 2,
		"c-old.html":    3,
	})

	res, err := Collect(context.Background(), Options{
		Root:     root,
		Excludes: []string{`/drafts$`, `-old\.html$`},
	}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1}, res.Samples)

	_, err = Collect(context.Background(), Options{Root: root, Excludes: []string{"("}}, nil)
	require.Error(t, err)
}

// symlink creates a link or skips the test where links are unsupported.
func symlink(t *testing.T, target, link string) {
	t.Helper()

	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
}

func TestCollect_FileSymlinksCountAtTargetSize(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	writeTree(t, root, map[string]int{"a.html": 10})
	writeTree(t, target, map[string]int{"b.html": 20, "c.txt": 3})

	symlink(t, filepath.Join(target, "b.html"), filepath.Join(root, "link.html"))
	symlink(t, filepath.Join(target, "c.txt"), filepath.Join(root, "other.txt"))

	res, err := Collect(context.Background(), Options{Root: root}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{10, 20}, res.Samples)
}

func TestCollect_DanglingSymlinkFails(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a.html": 10})

	symlink(t, filepath.Join(root, "gone.html"), filepath.Join(root, "dangling.html"))

	res, err := Collect(context.Background(), Options{Root: root}, nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "dangling.html")
}

func TestCollect_FollowDescendsIntoLinkedDirectories(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	writeTree(t, root, map[string]int{"a.html": 1})
	writeTree(t, target, map[string]int{"b.html": 2})

	symlink(t, target, filepath.Join(root, "linked"))

	res, err := Collect(context.Background(), Options{Root: root}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1}, res.Samples)

	res, err = Collect(context.Background(), Options{Root: root, Follow: true}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2}, res.Samples)
}

func TestCollect_MinSize(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a.html": 10, "b.html": 100, "c.html": 1000, "d.txt": 5000})

	res, err := Collect(context.Background(), Options{Root: root, MinSize: 100}, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{100, 1000}, res.Samples)
	assert.Equal(t, int64(1), res.BelowMinSize)
	assert.Equal(t, int64(1), res.Skipped)
}

func TestCollect_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]int{"a.html": 1, "b/c.html": 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, Options{Root: root}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStartProgressReporter(t *testing.T) {
	c := newCollector()
	c.add(10)
	c.add(32)

	var calls atomic.Int64

	var gotBytes atomic.Int64

	stop := startProgressReporter(context.Background(), c, func(files, bytes int64) {
		calls.Add(1)
		gotBytes.Store(bytes)
	}, time.Millisecond)

	assert.Eventually(t, func() bool { return calls.Load() > 0 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(42), gotBytes.Load())

	stop()

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no ticks once stop has returned")
}

func TestStartProgressReporter_StopWaitsForRunningHook(t *testing.T) {
	c := newCollector()

	entered := make(chan struct{})
	release := make(chan struct{})

	var finished atomic.Bool

	var once sync.Once

	stop := startProgressReporter(context.Background(), c, func(int64, int64) {
		once.Do(func() {
			close(entered)
			<-release
			finished.Store(true)
		})
	}, time.Millisecond)

	<-entered

	stopped := make(chan struct{})

	go func() {
		stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("stop returned while the hook was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	<-stopped
	assert.True(t, finished.Load())
}

func TestStartProgressReporter_NilHook(t *testing.T) {
	stop := startProgressReporter(context.Background(), newCollector(), nil, 0)
	stop()
}

func TestCalculateDepth(t *testing.T) {
	sep := string(filepath.Separator)
	root := "root"

	assert.Equal(t, 0, calculateDepth(root, root))
	assert.Equal(t, 1, calculateDepth(root+sep+"a.html", root))
	assert.Equal(t, 3, calculateDepth(root+sep+"a"+sep+"b"+sep+"c.html", root))
}
