package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/entigraph/entigest/internal/cache"
	"github.com/entigraph/entigest/internal/classify"
	"github.com/entigraph/entigest/internal/dump"
	"github.com/entigraph/entigest/internal/model"
	"github.com/entigraph/entigest/internal/sparql"
	"github.com/entigraph/entigest/internal/store"
	"github.com/entigraph/entigest/internal/taxonomy"
	"github.com/entigraph/entigest/internal/worker"
)

// Stats summarizes a completed run. Skipped counts malformed lines, Failed
// counts entities that reached the error log.
type Stats struct {
	Processed     int64
	Skipped       int64
	Failed        int64
	FailedFlush   int64
	ResolvedTypes int
	Elapsed       time.Duration
}

// Progress receives the line count and the current total estimate as the
// stream advances. Reporting only; the estimate refines and may shrink.
type Progress func(lines, estimatedTotal int64)

// Pipeline wires the dump stream through classification workers into the
// batch writer, with the error sink as a side channel. Fatal errors —
// unreadable archive, unavailable store — abort the run; everything else is
// per-record.
type Pipeline struct {
	cfg    *model.Config
	store  *store.Store
	logger *slog.Logger
}

// New prepares a pipeline over an already-open store.
func New(cfg *model.Config, s *store.Store, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{cfg: cfg, store: s, logger: logger}
}

// Run ingests one dump archive.
func (p *Pipeline) Run(ctx context.Context, dumpPath string, progress Progress) (*Stats, error) {
	start := time.Now()

	if err := p.store.EnsureIndexes(); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	var responses cache.Cache
	if p.cfg.Cache.Enabled {
		responses = cache.NewLayeredCache(p.cfg.Cache.MemoryTTL, p.cfg.Cache.Dir, p.cfg.Cache.DiskTTL)
	}
	client := sparql.NewClient(p.cfg.SPARQL, responses)

	// The taxonomy is resolved once up front; a degraded branch logs a
	// warning and costs recall, not the run.
	p.logger.Info("resolving taxonomy sets")
	tax := taxonomy.Build(ctx, taxonomy.NewResolver(client, p.logger))
	p.logger.Info("taxonomy resolved",
		"organizations", len(tax.Organizations), "locations", len(tax.Locations))

	superclasses := taxonomy.NewSuperclassCache(client, p.cfg.SPARQL.MaxRetries, p.cfg.SPARQL.RetryDelay, p.logger)
	classifier := classify.New(tax, superclasses)

	reader, err := dump.Open(dumpPath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	writer := store.NewBatchWriter(p.store, p.cfg.Store.BatchSize, p.logger)
	sink, err := store.NewErrorSink(p.store, p.logger)
	if err != nil {
		return nil, fmt.Errorf("open error sink: %w", err)
	}
	defer sink.Close()

	pool := worker.NewPool(ctx, p.cfg.Concurrency.Workers)
	pool.Start()

	stats := &Stats{}
	var tally sync.WaitGroup
	tally.Add(1)
	go func() {
		defer tally.Done()
		for result := range pool.Results() {
			outcome := result.(*entityResult)
			switch {
			case outcome.skipped:
				stats.Skipped++
			case outcome.err != nil:
				stats.Failed++
			default:
				stats.Processed++
			}
		}
	}()

	// The sequence index is assigned here, at dispatch, so it reflects
	// stream order no matter which worker finishes first.
	var index uint64
	for {
		line, ok := reader.Next()
		if !ok {
			break
		}
		pool.Submit(&classifyJob{
			line:       line,
			index:      index,
			classifier: classifier,
			writer:     writer,
			sink:       sink,
		})
		index++

		if progress != nil && index%512 == 0 {
			progress(reader.Lines(), reader.EstimatedTotal())
		}
	}
	if err := reader.Err(); err != nil {
		p.logger.Warn("dump stream ended with error", "err", err)
	}

	pool.Done()
	tally.Wait()

	// End of stream: drain every buffer and join in-flight flushes before
	// declaring the run finished.
	writer.FlushAll()

	stats.FailedFlush = writer.Failures()
	stats.ResolvedTypes = superclasses.Len()
	stats.Elapsed = time.Since(start)

	p.logger.Info("ingestion finished",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"failed_flushes", stats.FailedFlush,
		"resolved_types", stats.ResolvedTypes,
		"elapsed", stats.Elapsed)
	return stats, nil
}
