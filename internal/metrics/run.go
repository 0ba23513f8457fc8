package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run metrics
var (
	// FilesDeletedTotal tracks total files and symlink entries deleted
	FilesDeletedTotal prometheus.Counter

	// DirsDeletedTotal tracks total directories deleted
	DirsDeletedTotal prometheus.Counter

	// BytesFreedTotal tracks total bytes freed across all runs
	BytesFreedTotal prometheus.Counter

	// ErrorsTotal tracks per-entry deletion failures
	ErrorsTotal prometheus.Counter

	// RunDuration tracks how long deletion runs take
	RunDuration prometheus.Histogram

	// LastRunTimestamp records Unix timestamp of the last completed run
	LastRunTimestamp prometheus.Gauge
)

// initRunMetrics initializes all run metrics
func initRunMetrics() {
	FilesDeletedTotal = NewCounter(
		"fastdel_files_deleted_total",
		"Total number of files and symlink entries deleted.",
	)

	DirsDeletedTotal = NewCounter(
		"fastdel_dirs_deleted_total",
		"Total number of directories deleted.",
	)

	BytesFreedTotal = NewBytesCounter(
		"fastdel_bytes_freed_total",
		"Total bytes freed by deletion runs.",
	)

	ErrorsTotal = NewCounter(
		"fastdel_errors_total",
		"Total number of per-entry deletion failures.",
	)

	RunDuration = NewDurationHistogram(
		"fastdel_run_duration_seconds",
		"Duration of deletion runs in seconds.",
	)

	LastRunTimestamp = NewGauge(
		"fastdel_last_run_timestamp_seconds",
		"Unix timestamp of the last completed deletion run.",
	)
}

// registerRunMetrics registers all run metrics with Prometheus
func registerRunMetrics() {
	prometheus.MustRegister(FilesDeletedTotal)
	prometheus.MustRegister(DirsDeletedTotal)
	prometheus.MustRegister(BytesFreedTotal)
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(LastRunTimestamp)
}

// RecordRun folds one completed run's aggregates into the metrics.
func RecordRun(files, dirs, errs, bytes int64, elapsed time.Duration) {
	FilesDeletedTotal.Add(float64(files))
	DirsDeletedTotal.Add(float64(dirs))
	ErrorsTotal.Add(float64(errs))
	BytesFreedTotal.Add(float64(bytes))
	RunDuration.Observe(elapsed.Seconds())
	LastRunTimestamp.Set(float64(time.Now().Unix()))
}
