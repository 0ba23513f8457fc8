package traverse

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"fastdel/internal/fsops"
	"fastdel/internal/limiter"
	"fastdel/internal/stats"
)

// readBatchSize is the number of directory entries requested per ReadDir
// call. Entries are streamed in batches so a directory with huge fan-out
// never has its full child list in memory at once.
const readBatchSize = 256

// Logger is the subset of logging the traverser needs.
type Logger interface {
	Warn(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Debug(string, ...interface{}) {}

// Options configures a Traverser beyond its required collaborators.
type Options struct {
	// SequentialFiles removes sibling files one at a time instead of
	// dispatching them concurrently under the limiter.
	SequentialFiles bool
	// Sink, when non-nil, receives one event per processed entry.
	Sink Sink
	// Logger, when non-nil, receives per-entry failure details.
	Logger Logger
}

// Traverser empties directory trees depth-first in post-order: every
// descendant of a directory is visited, and its removal attempted, before
// the directory's own removal.
type Traverser struct {
	deleter         fsops.Deleter
	stats           *stats.Collector
	lim             *limiter.Limiter
	sink            Sink
	logger          Logger
	fanout          int
	sequentialFiles bool
}

func New(d fsops.Deleter, st *stats.Collector, lim *limiter.Limiter, opts Options) *Traverser {
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Traverser{
		deleter:         d,
		stats:           st,
		lim:             lim,
		sink:            opts.Sink,
		logger:          logger,
		fanout:          lim.Cap(),
		sequentialFiles: opts.SequentialFiles,
	}
}

// pendingRemoval is a file removal deferred until the directory handle
// is closed.
type pendingRemoval struct {
	path string
	size int64
}

// Process deletes the contents of dir, leaving dir itself present but
// empty. Children are streamed in batches; files and symlink entries are
// dispatched through the admission limiter, and each subdirectory is
// emptied in its own goroutine before its removal is attempted. Every
// child has resolved, successfully or with a recorded failure, by the time
// Process returns.
//
// Each descent runs on a fresh goroutine, so native stack depth stays
// constant no matter how deeply the tree nests. Goroutines per directory
// are capped at the limiter's bound, so a wide directory never pins one
// goroutine and one open directory handle per subdirectory at once.
//
// Per-entry failures are absorbed: they increment the error counter and
// traversal continues with siblings and with the parent's own removal,
// which fails separately if children were left behind.
func (t *Traverser) Process(ctx context.Context, dir string) {
	f, err := os.Open(dir)
	if err != nil {
		t.stats.RecordError()
		t.logger.Warn("failed to read directory", "path", dir, "error", err)
		return
	}

	var g errgroup.Group
	g.SetLimit(t.fanout)

	// Sequential removals wait on the limiter one at a time; they run
	// after f.Close() so the wait never holds a directory handle.
	var deferred []pendingRemoval

	for {
		entries, readErr := f.ReadDir(readBatchSize)
		for _, ent := range entries {
			child := filepath.Join(dir, ent.Name())
			if ent.IsDir() {
				g.Go(func() error {
					t.Process(ctx, child)
					t.RemoveDir(ctx, child)
					return nil
				})
				continue
			}
			// Regular file, symlink, or other non-directory entry.
			// Symlinks are never IsDir here: the dirent reports the
			// link itself, so link targets are never entered.
			size := entrySize(ent)
			if t.sequentialFiles {
				deferred = append(deferred, pendingRemoval{path: child, size: size})
			} else {
				g.Go(func() error {
					t.removeFile(ctx, child, size)
					return nil
				})
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				t.stats.RecordError()
				t.logger.Warn("failed to read directory", "path", dir, "error", readErr)
			}
			break
		}
	}

	// Release the directory handle before any removal waits on the
	// limiter and before joining the children.
	f.Close()
	for _, p := range deferred {
		t.removeFile(ctx, p.path, p.size)
	}
	_ = g.Wait()
}

// RemoveDir attempts removal of a single directory and records the outcome.
// The caller is responsible for having emptied it first.
func (t *Traverser) RemoveDir(ctx context.Context, path string) {
	if err := t.lim.Acquire(ctx); err != nil {
		t.stats.RecordError()
		return
	}
	err := t.deleter.RemoveDir(path)
	t.lim.Release()
	t.record(path, KindDir, fsops.Classify(err), 0, err)
}

// entrySize reports the bytes a regular file occupies; symlinks and other
// non-regular entries contribute zero.
func entrySize(ent os.DirEntry) int64 {
	info, err := ent.Info()
	if err != nil || !info.Mode().IsRegular() {
		return 0
	}
	return info.Size()
}

func (t *Traverser) removeFile(ctx context.Context, path string, size int64) {
	if err := t.lim.Acquire(ctx); err != nil {
		t.stats.RecordError()
		return
	}
	err := t.deleter.RemoveFile(path)
	t.lim.Release()
	t.record(path, KindFile, fsops.Classify(err), size, err)
}

func (t *Traverser) record(path string, kind Kind, outcome fsops.Outcome, size int64, err error) {
	if outcome.Failed() {
		t.stats.RecordError()
		t.logger.Warn("failed to delete", "path", path, "outcome", outcome.String(), "error", err)
	} else {
		switch kind {
		case KindDir:
			t.stats.RecordDirDeleted()
		default:
			// An entry that was already gone freed nothing
			if outcome != fsops.Deleted {
				size = 0
			}
			t.stats.RecordFileDeleted(size)
		}
		t.logger.Debug("deleted", "path", path)
	}
	if t.sink != nil {
		t.sink.Entry(Event{Path: path, Kind: kind, Outcome: outcome})
	}
}
