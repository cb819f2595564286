package operator

import "github.com/kodekit/colexec/column"

// Limit(count, offset) skips the first offset rows then passes at most
// count rows through, signaling done once count rows have been emitted
// (spec ch. 4.4.4).
type Limit struct {
	schema  *column.Schema
	count   int
	offset  int
	skipped int
	passed  int
}

func NewLimit(count, offset int, schema *column.Schema) *Limit {
	return &Limit{schema: schema, count: count, offset: offset}
}

func (l *Limit) Name() string                 { return "limit" }
func (l *Limit) OutputSchema() *column.Schema { return l.schema }

func (l *Limit) Process(chunk *column.Chunk) (OperatorResult, error) {
	n := chunk.Len()
	startRow := 0
	if l.skipped < l.offset {
		toSkip := l.offset - l.skipped
		if toSkip >= n {
			l.skipped += n
			return OperatorResult{}, nil
		}
		startRow = toSkip
		l.skipped += toSkip
	}
	remaining := l.count - l.passed
	if remaining <= 0 {
		return OperatorResult{Done: true}, nil
	}
	available := n - startRow
	take := available
	done := false
	if take >= remaining {
		take = remaining
		done = true
	}
	if take <= 0 {
		return OperatorResult{Done: done}, nil
	}
	l.passed += take
	if startRow == 0 && take == n && chunk.Selection() == nil {
		return OperatorResult{Chunk: chunk, Done: done}, nil
	}
	sel := make([]uint32, take)
	for i := 0; i < take; i++ {
		sel[i] = uint32(chunk.PhysicalRow(startRow + i))
	}
	return OperatorResult{Chunk: chunk.WithSelection(sel), Done: done}, nil
}

func (l *Limit) Finish() (OperatorResult, error) { return OperatorResult{}, nil }

func (l *Limit) Reset() { l.skipped, l.passed = 0, 0 }
