package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/entigraph/entigest/internal/model"
)

// DefaultBatchSize is the per-kind buffer threshold.
const DefaultBatchSize = 100

type kv struct {
	key   []byte
	value []byte
}

// BatchWriter accumulates derived records per kind and bulk-writes each
// kind's buffer once it reaches the batch size. Appends may come from many
// workers; buffer mutation is mutex-serialized. Flushes run asynchronously —
// producers never wait on storage — and Join must be called before the run
// is declared finished. A failed flush is logged and counted; records from
// earlier successful flushes stay put.
type BatchWriter struct {
	store     *Store
	batchSize int
	logger    *slog.Logger

	mu      sync.Mutex
	buffers map[Kind][]any

	flights  sync.WaitGroup
	flushes  atomic.Int64
	failures atomic.Int64
}

// NewBatchWriter creates a writer over the store.
func NewBatchWriter(s *Store, batchSize int, logger *slog.Logger) *BatchWriter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	buffers := make(map[Kind][]any, len(Kinds))
	for _, kind := range Kinds {
		buffers[kind] = nil
	}
	return &BatchWriter{
		store:     s,
		batchSize: batchSize,
		logger:    logger,
		buffers:   buffers,
	}
}

// Append buffers one record. When the kind's buffer reaches the batch size
// it is handed off to an asynchronous flush and replaced by an empty one;
// other kinds are untouched.
func (w *BatchWriter) Append(kind Kind, record any) {
	w.mu.Lock()
	w.buffers[kind] = append(w.buffers[kind], record)
	var batch []any
	if len(w.buffers[kind]) >= w.batchSize {
		batch = w.buffers[kind]
		w.buffers[kind] = nil
	}
	w.mu.Unlock()

	if batch != nil {
		w.dispatch(kind, batch)
	}
}

// AppendDerived buffers all four records of one entity.
func (w *BatchWriter) AppendDerived(d *model.Derived) {
	w.Append(KindItems, d.Item)
	w.Append(KindObjects, d.Objects)
	w.Append(KindLiterals, d.Literals)
	w.Append(KindTypes, d.Types)
}

// Flush forces out the kind's buffer regardless of size.
func (w *BatchWriter) Flush(kind Kind) {
	w.mu.Lock()
	batch := w.buffers[kind]
	w.buffers[kind] = nil
	w.mu.Unlock()

	if len(batch) > 0 {
		w.dispatch(kind, batch)
	}
}

// FlushAll flushes every non-empty buffer and joins all in-flight flushes.
// Called once at end of stream.
func (w *BatchWriter) FlushAll() {
	for _, kind := range Kinds {
		w.Flush(kind)
	}
	w.Join()
}

// Join blocks until every dispatched flush has completed.
func (w *BatchWriter) Join() {
	w.flights.Wait()
}

// Buffered reports the current buffer length for a kind.
func (w *BatchWriter) Buffered(kind Kind) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffers[kind])
}

// Flushes reports how many batches have been written.
func (w *BatchWriter) Flushes() int64 {
	return w.flushes.Load()
}

// Failures reports how many flushes failed.
func (w *BatchWriter) Failures() int64 {
	return w.failures.Load()
}

func (w *BatchWriter) dispatch(kind Kind, batch []any) {
	w.flights.Add(1)
	go func() {
		defer w.flights.Done()
		if err := w.write(kind, batch); err != nil {
			w.failures.Add(1)
			w.logger.Error("batch flush failed", "kind", kind, "records", len(batch), "err", err)
			return
		}
		w.flushes.Add(1)
	}()
}

// write bulk-inserts one batch: primary records plus, for items, the
// secondary index entries.
func (w *BatchWriter) write(kind Kind, batch []any) error {
	wb := w.store.db.NewWriteBatch()
	defer wb.Cancel()

	for _, record := range batch {
		entries, err := encode(kind, record)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := wb.Set(entry.key, entry.value); err != nil {
				return fmt.Errorf("batch set: %w", err)
			}
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("batch flush: %w", err)
	}
	return nil
}

// encode turns one record into its key/value entries.
func encode(kind Kind, record any) ([]kv, error) {
	value, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshal %s record: %w", kind, err)
	}

	switch rec := record.(type) {
	case model.ItemRecord:
		return []kv{
			{primaryKey(kind, rec.Entity), value},
			{categoryKey(rec.Category, rec.Entity), []byte(rec.Entity)},
			{popularityKey(rec.Popularity, rec.Entity), []byte(rec.Entity)},
			{sequenceKey(rec.Index), []byte(rec.Entity)},
			{entityCategoryKey(rec.Entity, rec.Category), []byte(rec.Entity)},
		}, nil
	case model.ObjectRecord:
		return []kv{{primaryKey(kind, rec.Entity), value}}, nil
	case model.LiteralRecord:
		return []kv{{primaryKey(kind, rec.Entity), value}}, nil
	case model.TypeRecord:
		return []kv{{primaryKey(kind, rec.Entity), value}}, nil
	default:
		return nil, fmt.Errorf("unsupported record type %T for kind %s", record, kind)
	}
}
