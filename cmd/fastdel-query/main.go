package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"fastdel/internal/exitcodes"
	"fastdel/internal/history"
)

func main() {
	dbPath := flag.String("db", "/var/lib/fastdel/history.db", "Path to run-history database")
	recent := flag.Int("recent", 0, "Show N most recent runs")
	largest := flag.Int("largest", 0, "Show N runs that freed the most space")
	target := flag.String("target", "", "Filter by target pattern (SQL LIKE syntax)")
	stats := flag.Bool("stats", false, "Show aggregate statistics")
	days := flag.Int("days", 30, "Number of days for statistics (default: 30)")
	jsonOutput := flag.Bool("json", false, "Output in JSON format")
	flag.Parse()

	db, err := history.Open(*dbPath)
	if err != nil {
		log.Fatalf("ERROR: Failed to open database %s: %v", *dbPath, err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database: %v", err)
		}
	}()

	switch {
	case *stats:
		showStats(db, *days, *jsonOutput)
	case *recent > 0:
		showRuns(db.RecentRuns(*recent))(*jsonOutput)
	case *largest > 0:
		showRuns(db.LargestRuns(*largest))(*jsonOutput)
	case *target != "":
		showRuns(db.RunsForTarget(*target))(*jsonOutput)
	default:
		flag.Usage()
		fmt.Println("\nExamples:")
		fmt.Println("  fastdel-query --recent 10           # Show 10 most recent runs")
		fmt.Println("  fastdel-query --largest 5           # Show 5 runs that freed the most space")
		fmt.Println("  fastdel-query --target '/tmp/%'     # Show runs under /tmp")
		fmt.Println("  fastdel-query --stats --days 7      # Aggregate last week")
		os.Exit(exitcodes.InvalidArgs)
	}
}

func showStats(db *history.DB, days int, jsonOutput bool) {
	stats, err := db.RunStats(days)
	if err != nil {
		log.Fatalf("ERROR: Failed to get statistics: %v", err)
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Deletion Run Statistics (Last %d days)\n", days)
	fmt.Printf("Period: %s to %s\n\n", stats.StartDate.Format("2006-01-02"), stats.EndDate.Format("2006-01-02"))
	fmt.Printf("Total Runs:        %d\n", stats.TotalRuns)
	fmt.Printf("Files Deleted:     %s\n", humanize.Comma(stats.TotalFiles))
	fmt.Printf("Dirs Deleted:      %s\n", humanize.Comma(stats.TotalDirs))
	fmt.Printf("Errors:            %s\n", humanize.Comma(stats.TotalErrors))
	fmt.Printf("Space Freed:       %s\n", humanize.IBytes(uint64(stats.TotalBytes)))
}

func showRuns(runs []history.Run, err error) func(jsonOutput bool) {
	return func(jsonOutput bool) {
		if err != nil {
			log.Fatalf("ERROR: Failed to query runs: %v", err)
		}

		if jsonOutput {
			data, _ := json.MarshalIndent(runs, "", "  ")
			fmt.Println(string(data))
			return
		}

		if len(runs) == 0 {
			fmt.Println("No runs found.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tTARGET\tFILES\tDIRS\tERRORS\tFREED\tELAPSED")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Target,
				r.FilesDeleted,
				r.DirsDeleted,
				r.ErrorsEncountered,
				humanize.IBytes(uint64(r.BytesFreed)),
				(time.Duration(r.ElapsedMS) * time.Millisecond).String(),
			)
		}
		w.Flush()
	}
}
