package operator

import (
	"github.com/kodekit/colexec/column"
	"github.com/kodekit/colexec/engine"
	"github.com/kodekit/colexec/expr"
)

// AggregateSpec names one output column of a full-table Aggregate: Name
// is the output column, Agg the aggregation expression (built with
// expr.Sum/Avg/Min/Max/First/Last/Count/CountAll).
type AggregateSpec struct {
	Name string
	Agg  *expr.Aggregation
}

type aggState struct {
	op       expr.AggOp
	inner    expr.CompiledValue // nil for Count(*)
	dtype    column.DType
	sum      float64
	count    int64
	minVal   any
	maxVal   any
	hasMin   bool
	first    any
	last     any
	hasFirst bool
}

// Aggregate computes one row of aggregated results over the entire
// input, with no grouping (spec ch. 4.4.6). Grounded on the teacher's
// query.go aggregate() function's per-aggregation accumulator slots,
// specialized here to the ungrouped (single implicit group) case.
type Aggregate struct {
	outputSchema *column.Schema
	states       []*aggState
}

// NewAggregate compiles each spec's aggregation against inputSchema.
func NewAggregate(specs []AggregateSpec, inputSchema *column.Schema) (*Aggregate, error) {
	states := make([]*aggState, len(specs))
	defs := make([]column.ColumnDef, len(specs))
	for i, spec := range specs {
		info, err := expr.Infer(spec.Agg, inputSchema)
		if err != nil {
			return nil, err
		}
		if !info.Aggregate {
			return nil, engine.Errorf(engine.ErrInvalidAggregation, "%q is not an aggregation", spec.Name)
		}
		st := &aggState{op: spec.Agg.Op, dtype: info.Type}
		if spec.Agg.Inner != nil {
			fn, err := expr.CompileValueUntyped(spec.Agg.Inner, inputSchema)
			if err != nil {
				return nil, err
			}
			st.inner = fn
		}
		st.reset()
		states[i] = st
		defs[i] = column.ColumnDef{Name: spec.Name, Type: info.Type}
	}
	schema, err := column.NewSchema(defs...)
	if err != nil {
		return nil, err
	}
	return &Aggregate{outputSchema: schema, states: states}, nil
}

func (st *aggState) reset() {
	st.sum, st.count = 0, 0
	st.minVal, st.maxVal = nil, nil
	st.hasMin, st.hasFirst = false, false
	st.first, st.last = nil, nil
}

// scalarLess orders two non-null scalars of the same underlying type:
// byte-lexicographic for strings, numeric otherwise (spec ch. 8).
func scalarLess(a, b any) bool {
	if as, ok := a.(string); ok {
		bs, _ := b.(string)
		return as < bs
	}
	af, _ := toFloatScalar(a)
	bf, _ := toFloatScalar(b)
	return af < bf
}

func (st *aggState) accumulate(c *column.Chunk, row int) {
	var v any
	var ok bool
	if st.inner != nil {
		v, ok = st.inner(c, row)
	}
	switch st.op {
	case expr.AggCount:
		if st.inner == nil {
			st.count++
			return
		}
		if ok {
			st.count++
		}
	case expr.AggSum, expr.AggAvg:
		if !ok {
			return
		}
		f, _ := toFloatScalar(v)
		st.sum += f
		st.count++
	case expr.AggMin:
		if !ok {
			return
		}
		if !st.hasMin || scalarLess(v, st.minVal) {
			st.minVal = v
		}
		st.hasMin = true
	case expr.AggMax:
		if !ok {
			return
		}
		if !st.hasMin || scalarLess(st.maxVal, v) {
			st.maxVal = v
		}
		st.hasMin = true
	case expr.AggFirst, expr.AggLast:
		if !ok {
			return
		}
		if !st.hasFirst {
			st.first = v
		}
		st.last = v
		st.hasFirst = true
	}
}

func (st *aggState) result() (any, bool) {
	switch st.op {
	case expr.AggCount:
		return st.count, true
	case expr.AggSum:
		if st.count == 0 {
			return nil, false
		}
		return st.sum, true
	case expr.AggAvg:
		if st.count == 0 {
			return nil, false
		}
		return st.sum / float64(st.count), true
	case expr.AggMin:
		if !st.hasMin {
			return nil, false
		}
		return st.minVal, true
	case expr.AggMax:
		if !st.hasMin {
			return nil, false
		}
		return st.maxVal, true
	case expr.AggFirst:
		if !st.hasFirst {
			return nil, false
		}
		return st.first, true
	case expr.AggLast:
		if !st.hasFirst {
			return nil, false
		}
		return st.last, true
	}
	return nil, false
}

func toFloatScalar(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (a *Aggregate) Name() string                 { return "aggregate" }
func (a *Aggregate) OutputSchema() *column.Schema { return a.outputSchema }

func (a *Aggregate) Process(chunk *column.Chunk) (OperatorResult, error) {
	n := chunk.Len()
	for _, st := range a.states {
		for row := 0; row < n; row++ {
			st.accumulate(chunk, row)
		}
	}
	return OperatorResult{}, nil
}

func (a *Aggregate) Finish() (OperatorResult, error) {
	dict := column.NewDictionary(0)
	cols := make([]*column.ColumnBuffer, len(a.states))
	for i, st := range a.states {
		buf, err := column.NewColumnBuffer(st.dtype.Kind, true, 1)
		if err != nil {
			return OperatorResult{}, err
		}
		v, ok := st.result()
		if err := appendScalar(buf, st.dtype.Kind, v, ok, dict); err != nil {
			return OperatorResult{}, err
		}
		cols[i] = buf
	}
	out, err := column.NewChunkFromColumns(a.outputSchema, dict, cols)
	if err != nil {
		return OperatorResult{}, err
	}
	return OperatorResult{Chunk: out, Done: true}, nil
}

func (a *Aggregate) Reset() {
	for _, st := range a.states {
		st.reset()
	}
}
