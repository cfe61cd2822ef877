package pipeline

import (
	"context"
	"errors"

	"github.com/entigraph/entigest/internal/classify"
	"github.com/entigraph/entigest/internal/store"
	"github.com/entigraph/entigest/internal/worker"
)

// classifyJob turns one dump line into derived records. Malformed lines are
// skipped silently; classification failures go to the error sink and count
// against the run, never abort it.
type classifyJob struct {
	line       []byte
	index      uint64
	classifier *classify.Classifier
	writer     *store.BatchWriter
	sink       *store.ErrorSink
}

type entityResult struct {
	entity  string
	skipped bool
	err     error
}

func (r *entityResult) GetError() error {
	return r.err
}

func (j *classifyJob) Execute(ctx context.Context) worker.Result {
	raw, err := j.classifier.Parse(j.line)
	if err != nil {
		if errors.Is(err, classify.ErrMalformedLine) {
			return &entityResult{skipped: true}
		}
		return &entityResult{err: err}
	}

	derived, err := j.classifier.Classify(ctx, raw, j.index)
	if err != nil {
		j.sink.Record(raw.ID, err, "classify")
		return &entityResult{entity: raw.ID, err: err}
	}

	j.writer.AppendDerived(derived)
	return &entityResult{entity: raw.ID}
}
