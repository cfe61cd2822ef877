package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/entigraph/entigest/internal/store"
	"github.com/entigraph/entigest/internal/summary"
)

var summaryStorePath string

// summaryCmd represents the summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate claim counts per predicate",
	Long: `Summary runs the post-hoc aggregation over an ingested store: claim
counts per predicate for the object and literal collections, decorated
with each predicate's English label and stored sorted by count.

Example:
  entigest summary --store ./data`,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)

	summaryCmd.Flags().StringVar(&summaryStorePath, "store", "", "store directory (default from config)")
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if summaryStorePath != "" {
		cfg.Store.Path = summaryStorePath
	}

	logger := newLogger(cfg.Output.Verbose)

	s, err := store.Open(cfg.Store.Path, cfg.Store.InMemory, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	report, err := summary.NewJob(s, logger).Run()
	if err != nil {
		return err
	}

	fmt.Printf("Object predicates:  %d\n", report.ObjectPredicates)
	fmt.Printf("Literal predicates: %d\n", report.LiteralPredicates)
	fmt.Printf("Elapsed:            %s\n", report.Elapsed.Round(10*time.Millisecond))

	return nil
}
