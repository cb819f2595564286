// Package operator implements the stateless/lightly-stateful chunk-in
// chunk-out transformers that make up a pipeline: Filter, Project,
// Transform, Limit, Sort, Aggregate, GroupBy and HashJoin. Grounded on
// the teacher's query/query.go, whose single hardcoded query function
// (filterStripe/aggregate/reorder helpers) this package generalizes
// into independent, composable stages implementing one common interface.
package operator

import "github.com/kodekit/colexec/column"

// OperatorResult is what process/finish hand back to the pipeline
// executor: an optional output chunk (nil means "no output yet", the
// implicit empty-on-buffering signal spec ch. 4.4 describes) and a
// done flag telling the executor to stop feeding this operator.
type OperatorResult struct {
	Chunk *column.Chunk
	Done  bool
}

// Operator is one pipeline stage (spec ch. 4.4).
type Operator interface {
	Name() string
	OutputSchema() *column.Schema
	Process(chunk *column.Chunk) (OperatorResult, error)
	Finish() (OperatorResult, error)
	Reset()
}
