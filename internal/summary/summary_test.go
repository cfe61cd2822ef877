package summary

import (
	"log/slog"
	"testing"

	"github.com/entigraph/entigest/internal/model"
	"github.com/entigraph/entigest/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("", true, slog.Default())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s *store.Store, kind store.Kind, records ...any) {
	t.Helper()
	w := store.NewBatchWriter(s, store.DefaultBatchSize, slog.Default())
	for _, record := range records {
		w.Append(kind, record)
	}
	w.FlushAll()
	if w.Failures() != 0 {
		t.Fatalf("seed flush failed")
	}
}

func TestRun_AggregatesObjectPredicates(t *testing.T) {
	s := openStore(t)
	seed(t, s, store.KindObjects,
		model.ObjectRecord{Entity: "Q1", Objects: map[string][]string{
			"Q5":  {"P31"},
			"Q64": {"P19", "P31"},
		}},
		model.ObjectRecord{Entity: "Q2", Objects: map[string][]string{
			"Q5": {"P31"},
		}},
	)
	seed(t, s, store.KindItems,
		model.ItemRecord{Entity: "P31", Labels: map[string]string{"en": "instance of"}},
	)

	report, err := NewJob(s, slog.Default()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ObjectPredicates != 2 {
		t.Errorf("ObjectPredicates = %d, want 2", report.ObjectPredicates)
	}

	rows, err := s.Summaries("objects")
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	// Busiest predicate first.
	if rows[0].Predicate != "P31" || rows[0].Count != 3 {
		t.Errorf("rows[0] = %+v, want P31 count 3", rows[0])
	}
	if rows[0].Label != "instance of" {
		t.Errorf("rows[0].Label = %q, want %q", rows[0].Label, "instance of")
	}
	if rows[1].Predicate != "P19" || rows[1].Count != 1 {
		t.Errorf("rows[1] = %+v, want P19 count 1", rows[1])
	}
	if rows[1].Label != unknownLabel {
		t.Errorf("rows[1].Label = %q, want placeholder", rows[1].Label)
	}
}

func TestRun_AggregatesLiteralsByKindAndPredicate(t *testing.T) {
	s := openStore(t)
	seed(t, s, store.KindLiterals,
		model.LiteralRecord{Entity: "Q1", Literals: map[model.LiteralKind]map[string][]string{
			model.LiteralString:   {"P1476": {"a title", "another title"}},
			model.LiteralDatetime: {"P569": {"+1952-03-11T00:00:00Z"}},
		}},
		model.LiteralRecord{Entity: "Q2", Literals: map[model.LiteralKind]map[string][]string{
			model.LiteralString: {"P1476": {"third title"}},
		}},
	)

	report, err := NewJob(s, slog.Default()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.LiteralPredicates != 2 {
		t.Errorf("LiteralPredicates = %d, want 2", report.LiteralPredicates)
	}

	rows, err := s.Summaries("literals")
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Predicate != "P1476" || rows[0].LiteralType != model.LiteralString || rows[0].Count != 3 {
		t.Errorf("rows[0] = %+v, want STRING P1476 count 3", rows[0])
	}
	if rows[1].Predicate != "P569" || rows[1].LiteralType != model.LiteralDatetime || rows[1].Count != 1 {
		t.Errorf("rows[1] = %+v, want DATETIME P569 count 1", rows[1])
	}
}

func TestRun_EmptyStore(t *testing.T) {
	s := openStore(t)

	report, err := NewJob(s, slog.Default()).Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.ObjectPredicates != 0 || report.LiteralPredicates != 0 {
		t.Errorf("report = %+v, want zero rows", report)
	}
}
