package store

import (
	"encoding/json"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/entigraph/entigest/internal/model"
)

// ErrorSink appends per-entity processing failures to the error log.
// Recording never blocks or fails the caller: a sink that cannot write
// degrades to a local warning so ingestion keeps moving. The log is
// append-only and read back only by operators, never by the pipeline.
type ErrorSink struct {
	store  *Store
	seq    *badger.Sequence
	logger *slog.Logger
}

// NewErrorSink opens the sink over the store's error-log sequence.
func NewErrorSink(s *Store, logger *slog.Logger) (*ErrorSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seq, err := s.db.GetSequence([]byte(errorSeqKey), 128)
	if err != nil {
		return nil, err
	}
	return &ErrorSink{store: s, seq: seq, logger: logger}, nil
}

// Record appends one failure with its context.
func (e *ErrorSink) Record(entityID string, err error, context string) {
	record := model.ErrorRecord{
		Entity:  entityID,
		Message: err.Error(),
		Context: context,
	}

	value, marshalErr := json.Marshal(record)
	if marshalErr != nil {
		e.logger.Warn("error sink: marshal failed", "entity", entityID, "err", marshalErr)
		return
	}

	n, seqErr := e.seq.Next()
	if seqErr != nil {
		e.logger.Warn("error sink: sequence failed", "entity", entityID, "err", seqErr)
		return
	}

	writeErr := e.store.db.Update(func(tx *badger.Txn) error {
		return tx.Set(errorKey(n), value)
	})
	if writeErr != nil {
		e.logger.Warn("error sink: write failed", "entity", entityID, "err", writeErr)
	}
}

// Errors reads back every recorded failure, in append order.
func (e *ErrorSink) Errors() ([]model.ErrorRecord, error) {
	var records []model.ErrorRecord
	err := e.store.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(errorsPrefix)
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record model.ErrorRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return records, err
}

// Close releases the sequence.
func (e *ErrorSink) Close() error {
	return e.seq.Release()
}
