// Package summary runs the post-hoc aggregation job over an ingested store:
// claim counts per predicate for both the object and literal collections,
// decorated with the predicates' English labels.
package summary

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/entigraph/entigest/internal/model"
	"github.com/entigraph/entigest/internal/store"
)

// unknownLabel stands in when the predicate was never ingested as an item or
// carries no English label.
const unknownLabel = "Unknown Label"

// Report summarizes one aggregation run.
type Report struct {
	ObjectPredicates  int
	LiteralPredicates int
	Elapsed           time.Duration
}

// Job aggregates one store.
type Job struct {
	store  *store.Store
	logger *slog.Logger
}

// NewJob prepares an aggregation over an already-open store.
func NewJob(s *store.Store, logger *slog.Logger) *Job {
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{store: s, logger: logger}
}

// Run scans both collections, counts claims per predicate, resolves labels
// and persists the rows sorted by descending count.
func (j *Job) Run() (*Report, error) {
	start := time.Now()

	objectCounts, err := j.countObjects()
	if err != nil {
		return nil, fmt.Errorf("aggregate objects: %w", err)
	}
	literalCounts, err := j.countLiterals()
	if err != nil {
		return nil, fmt.Errorf("aggregate literals: %w", err)
	}

	objectRows := j.decorate(objectRecords(objectCounts))
	literalRows := j.decorate(literalRecords(literalCounts))

	if err := j.store.PutSummaries("objects", objectRows); err != nil {
		return nil, fmt.Errorf("persist object summary: %w", err)
	}
	if err := j.store.PutSummaries("literals", literalRows); err != nil {
		return nil, fmt.Errorf("persist literal summary: %w", err)
	}

	report := &Report{
		ObjectPredicates:  len(objectRows),
		LiteralPredicates: len(literalRows),
		Elapsed:           time.Since(start),
	}
	j.logger.Info("summary finished",
		"object_predicates", report.ObjectPredicates,
		"literal_predicates", report.LiteralPredicates,
		"elapsed", report.Elapsed)
	return report, nil
}

// countObjects tallies one hit per linked entity per predicate.
func (j *Job) countObjects() (map[string]uint64, error) {
	counts := make(map[string]uint64)
	err := j.store.Scan(store.KindObjects, func(entity string, value []byte) error {
		var record model.ObjectRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return fmt.Errorf("decode objects for %s: %w", entity, err)
		}
		for _, predicates := range record.Objects {
			for _, predicate := range predicates {
				counts[predicate]++
			}
		}
		return nil
	})
	return counts, err
}

type literalGroup struct {
	kind      model.LiteralKind
	predicate string
}

// countLiterals tallies one hit per stored value per (kind, predicate) pair.
func (j *Job) countLiterals() (map[literalGroup]uint64, error) {
	counts := make(map[literalGroup]uint64)
	err := j.store.Scan(store.KindLiterals, func(entity string, value []byte) error {
		var record model.LiteralRecord
		if err := json.Unmarshal(value, &record); err != nil {
			return fmt.Errorf("decode literals for %s: %w", entity, err)
		}
		for kind, byPredicate := range record.Literals {
			for predicate, values := range byPredicate {
				counts[literalGroup{kind, predicate}] += uint64(len(values))
			}
		}
		return nil
	})
	return counts, err
}

func objectRecords(counts map[string]uint64) []model.SummaryRecord {
	records := make([]model.SummaryRecord, 0, len(counts))
	for predicate, count := range counts {
		records = append(records, model.SummaryRecord{Predicate: predicate, Count: count})
	}
	return records
}

func literalRecords(counts map[literalGroup]uint64) []model.SummaryRecord {
	records := make([]model.SummaryRecord, 0, len(counts))
	for group, count := range counts {
		records = append(records, model.SummaryRecord{
			LiteralType: group.kind,
			Predicate:   group.predicate,
			Count:       count,
		})
	}
	return records
}

// decorate attaches English predicate labels and fixes the output order;
// predicates missing from the item collection keep a placeholder label.
func (j *Job) decorate(records []model.SummaryRecord) []model.SummaryRecord {
	for i := range records {
		records[i].Label = j.labelFor(records[i].Predicate)
	}
	sort.Slice(records, func(a, b int) bool {
		if records[a].Count != records[b].Count {
			return records[a].Count > records[b].Count
		}
		return records[a].Predicate < records[b].Predicate
	})
	return records
}

func (j *Job) labelFor(predicate string) string {
	var item model.ItemRecord
	found, err := j.store.Get(store.KindItems, predicate, &item)
	if err != nil || !found {
		return unknownLabel
	}
	if label, ok := item.Labels["en"]; ok && label != "" {
		return label
	}
	return unknownLabel
}
