package operator

import (
	"github.com/kodekit/colexec/column"
	"github.com/kodekit/colexec/expr"
)

// Filter compiles a predicate against the input schema and, for each
// input chunk, installs a selection vector over the rows that match
// (spec ch. 4.4.1). Grounded on the teacher's query.go filterStripe,
// generalized from its single bitmap-driven pass into a reusable
// operator working over any chunk via the compiled-predicate layer.
type Filter struct {
	schema  *column.Schema
	pred    expr.CompiledPredicate
	scratch []uint32
}

// NewFilter compiles predicate against schema, maxChunkSize sizing the
// reusable scratch selection buffer.
func NewFilter(predicate expr.Expression, schema *column.Schema, maxChunkSize int) (*Filter, error) {
	pred, err := expr.CompilePredicate(predicate, schema)
	if err != nil {
		return nil, err
	}
	return &Filter{schema: schema, pred: pred, scratch: make([]uint32, 0, maxChunkSize)}, nil
}

func (f *Filter) Name() string                    { return "filter" }
func (f *Filter) OutputSchema() *column.Schema    { return f.schema }

func (f *Filter) Process(chunk *column.Chunk) (OperatorResult, error) {
	f.scratch = f.scratch[:0]
	n := chunk.Len()
	for row := 0; row < n; row++ {
		if f.pred(chunk, row) {
			f.scratch = append(f.scratch, uint32(chunk.PhysicalRow(row)))
		}
	}
	if len(f.scratch) == 0 {
		return OperatorResult{}, nil
	}
	if len(f.scratch) == n && chunk.Selection() == nil {
		return OperatorResult{Chunk: chunk}, nil
	}
	sel := make([]uint32, len(f.scratch))
	copy(sel, f.scratch)
	return OperatorResult{Chunk: chunk.WithSelection(sel)}, nil
}

func (f *Filter) Finish() (OperatorResult, error) { return OperatorResult{}, nil }

func (f *Filter) Reset() { f.scratch = f.scratch[:0] }
