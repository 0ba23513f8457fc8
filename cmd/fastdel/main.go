package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"fastdel/internal/config"
	"fastdel/internal/disk"
	"fastdel/internal/engine"
	"fastdel/internal/exitcodes"
	"fastdel/internal/history"
	"fastdel/internal/logging"
	"fastdel/internal/metrics"
	"fastdel/internal/pathres"
	"fastdel/internal/safety"
	"fastdel/internal/traverse"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	yes := flag.Bool("y", false, "Skip confirmation prompt and delete immediately")
	verbose := flag.Bool("verbose", false, "Log every processed entry")
	concurrency := flag.Int("concurrency", 0, "Max simultaneous removal operations (overrides config)")
	sequential := flag.Bool("sequential", false, "Remove sibling files one at a time")
	metricsPort := flag.Int("metrics", 0, "Port for the Prometheus metrics server (overrides config, 0 disables)")
	historyPath := flag.String("history", "", "Path to run-history database (overrides config)")
	noHistory := flag.Bool("no-history", false, "Disable run-history recording")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		return exitcodes.InvalidArgs
	}

	// Load configuration
	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to load config: %v\n", err)
			return exitcodes.InvalidArgs
		}
		cfg = loaded
	}
	if *concurrency > 0 {
		cfg.Delete.Concurrency = *concurrency
	}
	if *sequential {
		cfg.Delete.FilePolicy = config.FilePolicySequential
	}
	if *metricsPort > 0 {
		cfg.Prometheus.Port = *metricsPort
	}
	if *noHistory {
		cfg.HistoryPath = ""
	} else if *historyPath != "" {
		cfg.HistoryPath = *historyPath
	}

	logger := logging.New()
	if *configPath != "" {
		logger = logging.NewWithConfig(cfg)
	}

	// Resolve up front so the confirmation prompt shows the real target.
	// The engine resolves again; both resolutions are metadata-only.
	target, err := pathres.Resolve(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return exitcodes.ValidationFailed
	}

	if !*yes && !confirmDeletion(target) {
		fmt.Println("Deletion cancelled.")
		return exitcodes.Success
	}

	// Initialize metrics (Prometheus)
	metrics.Init()
	if cfg.Prometheus.Port > 0 {
		metrics.StartServer(cfg.PrometheusAddress(), logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			metrics.Shutdown(ctx, logger)
		}()
	}

	// Open run-history database
	var db *history.DB
	if cfg.HistoryPath != "" {
		db, err = history.Open(cfg.HistoryPath)
		if err != nil {
			logger.Printf("WARN: run history disabled: %v", err)
		} else {
			defer func() {
				if err := db.Close(); err != nil {
					logger.Printf("ERROR: failed to close history database: %v", err)
				}
			}()
		}
	}

	var sink traverse.Sink
	if *verbose {
		sink = &logSink{logger: logging.NewLeveled(logger)}
	}

	eng := engine.New(engine.Options{
		Concurrency:     cfg.Delete.Concurrency,
		SequentialFiles: cfg.SequentialFiles(),
		Validator:       safety.NewValidator(cfg.ProtectedPaths),
		Sink:            sink,
		History:         db,
		Logger:          logger,
	})

	summary, err := eng.Delete(context.Background(), target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		if errors.Is(err, pathres.ErrNotFound) ||
			errors.Is(err, pathres.ErrNotADirectory) ||
			errors.Is(err, safety.ErrProtectedPath) {
			return exitcodes.ValidationFailed
		}
		return exitcodes.RuntimeError
	}

	printSummary(summary)

	if summary.ErrorsEncountered > 0 {
		return exitcodes.PartialFailure
	}
	return exitcodes.Success
}

// confirmDeletion prompts before an irreversible run
func confirmDeletion(target string) bool {
	fmt.Println("WARNING: you are about to permanently delete:")
	fmt.Printf("  %s\n\n", target)
	fmt.Print("Are you sure you want to continue? (y/N): ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printSummary(s *engine.Summary) {
	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Files deleted:       %s\n", humanize.Comma(s.FilesDeleted))
	fmt.Printf("  Directories deleted: %s\n", humanize.Comma(s.DirsDeleted))
	fmt.Printf("  Space freed:         %s\n", humanize.IBytes(uint64(s.BytesFreed)))
	fmt.Printf("  Time taken:          %.2fs\n", s.Elapsed.Seconds())
	if fps := s.FilesPerSecond(); fps > 0 {
		fmt.Printf("  Performance:         %.0f files/sec\n", fps)
	}
	if s.ErrorsEncountered > 0 {
		fmt.Printf("  Errors encountered:  %s\n", humanize.Comma(s.ErrorsEncountered))
	}

	// The target is gone; report free space for its parent filesystem
	if freePercent, err := disk.GetFreePercent(filepath.Dir(s.Target)); err == nil {
		fmt.Printf("  Filesystem now:      %.1f%% free\n", freePercent)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: fastdel [options] <directory>")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Deletes an entire directory tree as fast as possible. Optimized for")
	fmt.Fprintln(os.Stderr, "trees with very large entry counts, such as node_modules.")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Options:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Examples:")
	fmt.Fprintln(os.Stderr, "  fastdel ./node_modules")
	fmt.Fprintln(os.Stderr, "  fastdel -y -concurrency 64 /tmp/build-cache")
	fmt.Fprintln(os.Stderr, "  fastdel -config /etc/fastdel/config.yaml -verbose ./target")
}

// logSink logs one line per processed entry in verbose mode
type logSink struct {
	logger *logging.Leveled
}

func (s *logSink) Entry(ev traverse.Event) {
	if ev.Outcome.Failed() {
		s.logger.Warn("failed", "kind", ev.Kind.String(), "path", ev.Path, "outcome", ev.Outcome.String())
		return
	}
	s.logger.Debug("deleted", "kind", ev.Kind.String(), "path", ev.Path)
}
