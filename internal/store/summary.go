package store

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/entigraph/entigest/internal/model"
)

// PutSummaries replaces the summary rows for one source ("objects" or
// "literals"). Keys embed the inverted count, so Summaries iterates busiest
// predicates first.
func (s *Store) PutSummaries(source string, records []model.SummaryRecord) error {
	batch := s.db.NewWriteBatch()
	defer batch.Cancel()

	for _, record := range records {
		value, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("encode summary %s: %w", record.Predicate, err)
		}
		predicate := record.Predicate
		if record.LiteralType != "" {
			predicate = string(record.LiteralType) + ":" + predicate
		}
		if err := batch.Set(summaryKey(source, record.Count, predicate), value); err != nil {
			return fmt.Errorf("write summary %s: %w", record.Predicate, err)
		}
	}
	return batch.Flush()
}

// Summaries reads back one source's rows, ordered by descending count.
func (s *Store) Summaries(source string) ([]model.SummaryRecord, error) {
	var records []model.SummaryRecord
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(summaryPrefix + source + ":")
		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record model.SummaryRecord
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
