package history

import (
	"fmt"
	"time"
)

const runColumns = `id, started_at, target, files_deleted, dirs_deleted,
	errors_encountered, bytes_freed, elapsed_ms`

// RecentRuns returns the N most recent runs.
func (d *DB) RecentRuns(limit int) ([]Run, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM runs
	ORDER BY started_at DESC
	LIMIT ?
	`, runColumns)

	return d.queryRuns(query, limit)
}

// LargestRuns returns the N runs that freed the most bytes.
func (d *DB) LargestRuns(limit int) ([]Run, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM runs
	ORDER BY bytes_freed DESC
	LIMIT ?
	`, runColumns)

	return d.queryRuns(query, limit)
}

// RunsForTarget returns runs whose target matches a pattern (SQL LIKE).
func (d *DB) RunsForTarget(pattern string) ([]Run, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM runs
	WHERE target LIKE ?
	ORDER BY started_at DESC
	`, runColumns)

	return d.queryRuns(query, pattern)
}

// Stats aggregates run history over a period.
type Stats struct {
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalRuns   int64     `json:"total_runs"`
	TotalFiles  int64     `json:"total_files"`
	TotalDirs   int64     `json:"total_dirs"`
	TotalErrors int64     `json:"total_errors"`
	TotalBytes  int64     `json:"total_bytes"`
}

// RunStats aggregates history over the last N days.
func (d *DB) RunStats(days int) (*Stats, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	query := `
	SELECT COUNT(*),
	       COALESCE(SUM(files_deleted), 0),
	       COALESCE(SUM(dirs_deleted), 0),
	       COALESCE(SUM(errors_encountered), 0),
	       COALESCE(SUM(bytes_freed), 0)
	FROM runs
	WHERE started_at BETWEEN ? AND ?
	`

	s := &Stats{StartDate: start, EndDate: end}
	err := d.db.QueryRow(query, start, end).Scan(
		&s.TotalRuns, &s.TotalFiles, &s.TotalDirs, &s.TotalErrors, &s.TotalBytes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate run stats: %w", err)
	}
	return s, nil
}

func (d *DB) queryRuns(query string, args ...interface{}) ([]Run, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		err := rows.Scan(
			&r.ID, &r.StartedAt, &r.Target,
			&r.FilesDeleted, &r.DirsDeleted, &r.ErrorsEncountered,
			&r.BytesFreed, &r.ElapsedMS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
