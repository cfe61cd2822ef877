package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/entigraph/entigest/internal/model"
	"github.com/entigraph/entigest/internal/search"
	"github.com/entigraph/entigest/internal/store"
)

var indexStorePath string

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Push ingested items into the lookup search index",
	Long: `Index walks the item records of an ingested store and pushes one
search document per surface form (label or alias) into the lookup
index, creating the index with its mapping first if needed.

Example:
  entigest index --store ./data`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVar(&indexStorePath, "store", "", "store directory (default from config)")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if indexStorePath != "" {
		cfg.Store.Path = indexStorePath
	}

	logger := newLogger(cfg.Output.Verbose)
	ctx := context.Background()

	searchClient, err := search.NewClient(cfg.Search, logger)
	if err != nil {
		return err
	}
	if err := searchClient.EnsureIndex(ctx, cfg.Search.Shards, cfg.Search.Replicas); err != nil {
		return err
	}

	s, err := store.Open(cfg.Store.Path, cfg.Store.InMemory, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	start := time.Now()
	var indexed int
	err = s.Scan(store.KindItems, func(entity string, value []byte) error {
		var item model.ItemRecord
		if err := json.Unmarshal(value, &item); err != nil {
			return fmt.Errorf("decode item %s: %w", entity, err)
		}
		if err := searchClient.IndexItem(ctx, &item); err != nil {
			return err
		}
		indexed++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Indexed items: %d\n", indexed)
	fmt.Printf("Elapsed:       %s\n", time.Since(start).Round(10*time.Millisecond))

	return nil
}
