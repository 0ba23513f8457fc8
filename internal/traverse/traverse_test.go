package traverse

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastdel/internal/fsops"
	"fastdel/internal/limiter"
	"fastdel/internal/stats"
)

func mustWriteFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func mustMkdir(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.Mkdir(path, 0o755))
}

// buildTree creates the same fixture shape used across tests:
// root/{a.txt,b.txt,sub1/{c.txt,nested/d.txt},sub2/}
// Returns total file count, dir count (excluding root), and total bytes.
func buildTree(t *testing.T, root string) (files, dirs, bytes int64) {
	t.Helper()
	mustWriteFile(t, filepath.Join(root, "a.txt"), 100)
	mustWriteFile(t, filepath.Join(root, "b.txt"), 200)
	mustMkdir(t, filepath.Join(root, "sub1"))
	mustWriteFile(t, filepath.Join(root, "sub1", "c.txt"), 300)
	mustMkdir(t, filepath.Join(root, "sub1", "nested"))
	mustWriteFile(t, filepath.Join(root, "sub1", "nested", "d.txt"), 400)
	mustMkdir(t, filepath.Join(root, "sub2"))
	return 4, 3, 1000
}

func newTraverser(collector *stats.Collector, concurrency int, opts Options) *Traverser {
	return New(fsops.OSDeleter{}, collector, limiter.New(concurrency), opts)
}

func TestProcessEmptiesDirectoryButKeepsIt(t *testing.T) {
	root := t.TempDir()
	files, dirs, bytes := buildTree(t, root)

	collector := stats.NewCollector()
	tr := newTraverser(collector, 8, Options{})
	tr.Process(context.Background(), root)

	// Root itself stays; its removal belongs to the caller
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "root must be left empty")

	snap := collector.Snapshot()
	assert.Equal(t, files, snap.FilesDeleted)
	assert.Equal(t, dirs, snap.DirsDeleted)
	assert.Equal(t, bytes, snap.BytesFreed)
	assert.Equal(t, int64(0), snap.ErrorsEncountered)
}

// With sequential files and a bound of one, the fake deleter observes a
// strict post-order: every child's removal precedes its parent's.
func TestPostOrderRemoval(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	mustMkdir(t, sub)
	mustWriteFile(t, filepath.Join(sub, "file.txt"), 10)

	fake := &fsops.FakeDeleter{}
	collector := stats.NewCollector()
	tr := New(fake, collector, limiter.New(1), Options{SequentialFiles: true})
	tr.Process(context.Background(), root)

	calls := fake.CallsSnapshot()
	require.Len(t, calls, 2)
	assert.Equal(t, "rm:"+filepath.Join(sub, "file.txt"), calls[0])
	assert.Equal(t, "rmdir:"+sub, calls[1])
}

func TestDeepNesting(t *testing.T) {
	root := t.TempDir()

	// 1000 levels of single-child directories, a file at the bottom
	const depth = 1000
	path := root
	for i := 0; i < depth; i++ {
		path = filepath.Join(path, "d")
		require.NoError(t, os.Mkdir(path, 0o755))
	}
	mustWriteFile(t, filepath.Join(path, "leaf.txt"), 1)

	collector := stats.NewCollector()
	tr := newTraverser(collector, 4, Options{})
	tr.Process(context.Background(), root)

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.FilesDeleted)
	assert.Equal(t, int64(depth), snap.DirsDeleted)
	assert.Equal(t, int64(0), snap.ErrorsEncountered)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSymlinkRemovedNotFollowed(t *testing.T) {
	external := t.TempDir()
	mustWriteFile(t, filepath.Join(external, "keep.txt"), 50)

	root := t.TempDir()
	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(external, link))

	collector := stats.NewCollector()
	tr := newTraverser(collector, 4, Options{})
	tr.Process(context.Background(), root)

	// The link entry is deleted as a file-like entry, contributing no bytes
	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.FilesDeleted)
	assert.Equal(t, int64(0), snap.DirsDeleted)
	assert.Equal(t, int64(0), snap.BytesFreed)

	_, err := os.Lstat(link)
	assert.True(t, os.IsNotExist(err), "link entry must be gone")

	// The link's target was never entered or modified
	_, err = os.Stat(filepath.Join(external, "keep.txt"))
	assert.NoError(t, err, "link target contents must be untouched")
}

func TestFailedChildLeavesParentFailureRecorded(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	mustMkdir(t, sub)
	blocked := filepath.Join(sub, "blocked.txt")
	mustWriteFile(t, blocked, 10)

	fake := &fsops.FakeDeleter{FailWith: map[string]error{
		blocked: os.ErrPermission,
		// The parent is left non-empty, so its own removal fails too
		sub: os.ErrExist,
	}}
	collector := stats.NewCollector()
	tr := New(fake, collector, limiter.New(2), Options{})
	tr.Process(context.Background(), root)

	snap := collector.Snapshot()
	assert.Equal(t, int64(0), snap.FilesDeleted)
	assert.Equal(t, int64(2), snap.ErrorsEncountered, "child failure and parent rmdir failure both count")
}

func TestAlreadyAbsentCountsAsDeleted(t *testing.T) {
	root := t.TempDir()
	ghost := filepath.Join(root, "ghost.txt")
	mustWriteFile(t, ghost, 10)

	fake := &fsops.FakeDeleter{FailWith: map[string]error{
		ghost: os.ErrNotExist,
	}}
	collector := stats.NewCollector()
	tr := New(fake, collector, limiter.New(2), Options{})
	tr.Process(context.Background(), root)

	snap := collector.Snapshot()
	assert.Equal(t, int64(1), snap.FilesDeleted, "already-gone entries are success")
	assert.Equal(t, int64(0), snap.BytesFreed, "an entry that was already gone freed nothing")
	assert.Equal(t, int64(0), snap.ErrorsEncountered)
}

// A wide directory of subdirectories must not pin one open directory
// handle per sibling: with the file descriptor limit lowered well below
// the sibling count, the walk still completes without a single error,
// even under the sequential file policy with a bound of one.
func TestWideTreeUnderLowFDLimit(t *testing.T) {
	var saved syscall.Rlimit
	require.NoError(t, syscall.Getrlimit(syscall.RLIMIT_NOFILE, &saved))

	lowered := saved
	lowered.Cur = 128
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &lowered); err != nil {
		t.Skipf("cannot lower RLIMIT_NOFILE: %v", err)
	}
	defer func() {
		if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &saved); err != nil {
			t.Fatalf("failed to restore RLIMIT_NOFILE: %v", err)
		}
	}()

	root := t.TempDir()
	const siblings = 512
	for i := 0; i < siblings; i++ {
		dir := filepath.Join(root, "d"+strconv.Itoa(i))
		mustMkdir(t, dir)
		mustWriteFile(t, filepath.Join(dir, "f.txt"), 1)
	}

	collector := stats.NewCollector()
	tr := newTraverser(collector, 1, Options{SequentialFiles: true})
	tr.Process(context.Background(), root)

	snap := collector.Snapshot()
	assert.Equal(t, int64(0), snap.ErrorsEncountered)
	assert.Equal(t, int64(siblings), snap.FilesDeleted)
	assert.Equal(t, int64(siblings), snap.DirsDeleted)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSinkReceivesEveryEntry(t *testing.T) {
	root := t.TempDir()
	files, dirs, _ := buildTree(t, root)

	sink := &recordingSink{}
	collector := stats.NewCollector()
	tr := newTraverser(collector, 8, Options{Sink: sink})
	tr.Process(context.Background(), root)

	events := sink.snapshot()
	assert.Len(t, events, int(files+dirs))

	var fileEvents, dirEvents int
	for _, ev := range events {
		assert.False(t, ev.Outcome.Failed())
		assert.True(t, strings.HasPrefix(ev.Path, root))
		if ev.Kind == KindDir {
			dirEvents++
		} else {
			fileEvents++
		}
	}
	assert.Equal(t, int(files), fileEvents)
	assert.Equal(t, int(dirs), dirEvents)
}

// The final counters must not depend on the concurrency bound.
func TestConcurrencyBoundDoesNotChangeOutcome(t *testing.T) {
	for _, bound := range []int{1, 8} {
		root := t.TempDir()
		files, dirs, bytes := buildTree(t, root)

		collector := stats.NewCollector()
		tr := newTraverser(collector, bound, Options{SequentialFiles: bound == 1})
		tr.Process(context.Background(), root)

		snap := collector.Snapshot()
		assert.Equal(t, files, snap.FilesDeleted, "bound=%d", bound)
		assert.Equal(t, dirs, snap.DirsDeleted, "bound=%d", bound)
		assert.Equal(t, bytes, snap.BytesFreed, "bound=%d", bound)
	}
}

func TestWideFanOut(t *testing.T) {
	root := t.TempDir()

	// More entries than one ReadDir batch to exercise streaming
	const count = 1000
	for i := 0; i < count; i++ {
		mustWriteFile(t, filepath.Join(root, "f"+strconv.Itoa(i)), 1)
	}

	collector := stats.NewCollector()
	tr := newTraverser(collector, 16, Options{})
	tr.Process(context.Background(), root)

	snap := collector.Snapshot()
	assert.Equal(t, int64(count), snap.FilesDeleted)
	assert.Equal(t, int64(count), snap.BytesFreed)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Entry(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
