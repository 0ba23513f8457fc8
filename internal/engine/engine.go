package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"fastdel/internal/config"
	"fastdel/internal/fsops"
	"fastdel/internal/history"
	"fastdel/internal/limiter"
	"fastdel/internal/logging"
	"fastdel/internal/metrics"
	"fastdel/internal/pathres"
	"fastdel/internal/safety"
	"fastdel/internal/stats"
	"fastdel/internal/traverse"
)

// Summary is the immutable snapshot of one completed run, handed to the
// reporting layer. The error count never breaks failures down by category.
type Summary struct {
	Target            string
	FilesDeleted      int64
	DirsDeleted       int64
	ErrorsEncountered int64
	BytesFreed        int64
	Elapsed           time.Duration
}

// Metrics receives run-level aggregates after completion
type Metrics interface {
	RecordRun(s *Summary)
}

// promMetrics wraps the global Prometheus metrics to implement Metrics
type promMetrics struct{}

func (promMetrics) RecordRun(s *Summary) {
	metrics.RecordRun(s.FilesDeleted, s.DirsDeleted, s.ErrorsEncountered, s.BytesFreed, s.Elapsed)
}

// Options configures an Engine. Zero values select working defaults.
type Options struct {
	// Concurrency bounds simultaneously in-flight removal operations.
	// Values below one fall back to config.DefaultConcurrency.
	Concurrency int
	// SequentialFiles removes sibling files one at a time.
	SequentialFiles bool
	// Deleter performs the actual removals; nil uses the real filesystem.
	Deleter fsops.Deleter
	// Validator guards against protected targets; nil uses the default set.
	Validator *safety.Validator
	// Sink, when non-nil, receives one progress event per processed entry.
	Sink traverse.Sink
	// History, when non-nil, records a row per completed run.
	History *history.DB
	// Metrics receives run aggregates; nil uses the global Prometheus
	// metrics.
	Metrics Metrics
	// Logger for operational output; nil uses the default logger.
	Logger *log.Logger
}

// Engine orchestrates one directory deletion run: resolve the target,
// refuse protected paths, empty the tree, remove the root, then snapshot
// the statistics into a Summary.
type Engine struct {
	deleter         fsops.Deleter
	validator       *safety.Validator
	sink            traverse.Sink
	historyDB       *history.DB
	metrics         Metrics
	logger          *logging.Leveled
	concurrency     int
	sequentialFiles bool
}

func New(opts Options) *Engine {
	deleter := opts.Deleter
	if deleter == nil {
		deleter = fsops.OSDeleter{}
	}
	validator := opts.Validator
	if validator == nil {
		validator = safety.NewValidator(nil)
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = config.DefaultConcurrency
	}
	m := opts.Metrics
	if m == nil {
		metrics.Init()
		m = promMetrics{}
	}
	return &Engine{
		deleter:         deleter,
		validator:       validator,
		sink:            opts.Sink,
		historyDB:       opts.History,
		metrics:         m,
		logger:          logging.NewLeveled(opts.Logger),
		concurrency:     concurrency,
		sequentialFiles: opts.SequentialFiles,
	}
}

// Delete removes the tree rooted at input, including the root itself.
//
// Validation failures (missing target, non-directory, protected path)
// abort before any deletion with zero side effects. Every per-entry
// failure after that point is absorbed into the summary's error count;
// the run always completes and reports.
func (e *Engine) Delete(ctx context.Context, input string) (*Summary, error) {
	target, err := pathres.Resolve(input)
	if err != nil {
		return nil, err
	}
	if err := e.validator.ValidateDeleteTarget(target); err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}

	e.logger.Info("starting deletion",
		"target", target,
		"concurrency", e.concurrency,
		"sequential_files", e.sequentialFiles,
	)

	start := time.Now()
	collector := stats.NewCollector()
	lim := limiter.New(e.concurrency)
	walker := traverse.New(e.deleter, collector, lim, traverse.Options{
		SequentialFiles: e.sequentialFiles,
		Sink:            e.sink,
		Logger:          e.logger,
	})

	// Empty the root, then attempt the root's own removal. If children
	// were left behind the root removal fails and is counted like any
	// other per-entry failure.
	walker.Process(ctx, target)
	walker.RemoveDir(ctx, target)

	snap := collector.Snapshot()
	summary := &Summary{
		Target:            target,
		FilesDeleted:      snap.FilesDeleted,
		DirsDeleted:       snap.DirsDeleted,
		ErrorsEncountered: snap.ErrorsEncountered,
		BytesFreed:        snap.BytesFreed,
		Elapsed:           time.Since(start),
	}

	e.metrics.RecordRun(summary)

	if e.historyDB != nil {
		run := history.Run{
			StartedAt:         start,
			Target:            summary.Target,
			FilesDeleted:      summary.FilesDeleted,
			DirsDeleted:       summary.DirsDeleted,
			ErrorsEncountered: summary.ErrorsEncountered,
			BytesFreed:        summary.BytesFreed,
			ElapsedMS:         summary.Elapsed.Milliseconds(),
		}
		if dbErr := e.historyDB.RecordRun(run); dbErr != nil {
			// A history write failure never fails the run
			e.logger.Error("failed to record run history", "error", dbErr)
		}
	}

	e.logger.Info("deletion complete",
		"target", target,
		"files", summary.FilesDeleted,
		"dirs", summary.DirsDeleted,
		"errors", summary.ErrorsEncountered,
		"bytes_freed", summary.BytesFreed,
		"duration", summary.Elapsed,
	)

	return summary, nil
}

// FilesPerSecond derives throughput for reporting; zero when the run was
// too fast to measure.
func (s *Summary) FilesPerSecond() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 || s.FilesDeleted == 0 {
		return 0
	}
	return float64(s.FilesDeleted) / secs
}
