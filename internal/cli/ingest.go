package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/entigraph/entigest/internal/pipeline"
	"github.com/entigraph/entigest/internal/search"
	"github.com/entigraph/entigest/internal/store"
)

var (
	storePath   string
	batchSize   int
	workers     int
	endpoint    string
	noCache     bool
	noProgress  bool
	ensureIndex bool
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest <dump>",
	Short: "Ingest a compressed knowledge-graph dump",
	Long: `Ingest streams a .bz2 or .gz entity dump, classifies every line and
persists the derived item, object, literal and type records.

Taxonomy sets and superclass chains are resolved against the configured
SPARQL endpoint. Malformed lines are skipped; per-entity failures land
in the store's error log without stopping the run.

Example:
  entigest ingest latest-all.json.bz2
  entigest ingest dump.json.gz --workers 32 --store ./data
  entigest ingest dump.json.bz2 --no-cache --ensure-search-index`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&storePath, "store", "", "store directory (default from config)")
	ingestCmd.Flags().IntVar(&batchSize, "batch-size", 0, "records per write batch (default from config)")
	ingestCmd.Flags().IntVar(&workers, "workers", 0, "classification workers (default from config)")
	ingestCmd.Flags().StringVar(&endpoint, "endpoint", "", "SPARQL endpoint (default from config)")
	ingestCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the query-response cache")
	ingestCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	ingestCmd.Flags().BoolVar(&ensureIndex, "ensure-search-index", false, "create the lookup search index before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	dumpPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	if batchSize > 0 {
		cfg.Store.BatchSize = batchSize
	}
	if workers > 0 {
		cfg.Concurrency.Workers = workers
	}
	if endpoint != "" {
		cfg.SPARQL.Endpoint = endpoint
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noProgress {
		cfg.Output.Progress = false
	}

	logger := newLogger(cfg.Output.Verbose)
	ctx := context.Background()

	if verbose {
		fmt.Fprintf(os.Stderr, "Dump: %s\n", dumpPath)
		fmt.Fprintf(os.Stderr, "Store: %s\n", cfg.Store.Path)
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Concurrency.Workers)
		fmt.Fprintln(os.Stderr)
	}

	if ensureIndex {
		searchClient, err := search.NewClient(cfg.Search, logger)
		if err != nil {
			return err
		}
		if err := searchClient.EnsureIndex(ctx, cfg.Search.Shards, cfg.Search.Replicas); err != nil {
			return err
		}
	}

	s, err := store.Open(cfg.Store.Path, cfg.Store.InMemory, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	var progress pipeline.Progress
	if cfg.Output.Progress {
		bar := progressbar.NewOptions64(-1,
			progressbar.OptionSetDescription("ingesting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("entities"),
		)
		defer bar.Finish()
		progress = func(lines, total int64) {
			bar.ChangeMax64(total)
			_ = bar.Set64(lines)
		}
	}

	stats, err := pipeline.New(cfg, s, logger).Run(ctx, dumpPath, progress)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr)
	fmt.Printf("Processed: %d\n", stats.Processed)
	fmt.Printf("Skipped:   %d\n", stats.Skipped)
	fmt.Printf("Failed:    %d\n", stats.Failed)
	if stats.FailedFlush > 0 {
		fmt.Printf("Failed flushes: %d\n", stats.FailedFlush)
	}
	fmt.Printf("Resolved types: %d\n", stats.ResolvedTypes)
	fmt.Printf("Elapsed:   %s\n", stats.Elapsed.Round(10*time.Millisecond))

	return nil
}

// newLogger builds the process logger; verbose lowers the level to debug.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
