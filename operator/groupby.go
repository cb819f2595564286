package operator

import (
	"strconv"
	"strings"

	"github.com/kodekit/colexec/column"
	"github.com/kodekit/colexec/engine"
	"github.com/kodekit/colexec/expr"
)

// GroupByAggSpec names one aggregation output column of a GroupBy: Name
// is the output column, Agg the aggregation expression.
type GroupByAggSpec struct {
	Name string
	Agg  *expr.Aggregation
}

// groupByAgg is one aggregation's per-group-id dense state (spec
// ch. 4.4.7: "batch aggregator... a dense values[] ... a dense
// has_value[] byte mask"). Min/Max/First/Last keep boxed scalars since
// their output dtype is the inner expression's dtype, not always
// numeric; Sum/Avg/Count keep plain float64/int64 arrays.
type groupByAgg struct {
	op         expr.AggOp
	dtype      column.DType
	value      expr.CompiledValue // nil only for CountAll
	isCountAll bool

	sums    []float64
	counts  []int64
	hasVal  []bool
	mins    []any
	maxs    []any
	firsts  []any
	lasts   []any
}

func newGroupByAgg(op expr.AggOp, dtype column.DType, value expr.CompiledValue, isCountAll bool) *groupByAgg {
	return &groupByAgg{op: op, dtype: dtype, value: value, isCountAll: isCountAll}
}

// grow extends every dense array up to n groups, zero/false-initialising
// new slots (spec: "grow policy: doubling with sentinel re-initialization").
func (a *groupByAgg) grow(n int) {
	for len(a.sums) < n {
		a.sums = append(a.sums, 0)
		a.counts = append(a.counts, 0)
		a.hasVal = append(a.hasVal, false)
		a.mins = append(a.mins, nil)
		a.maxs = append(a.maxs, nil)
		a.firsts = append(a.firsts, nil)
		a.lasts = append(a.lasts, nil)
	}
}

// accumulate updates group gid's state from one row. Called once per
// input row during the accumulation phase; for CountAll the caller
// passes ok=true, v=nil unconditionally.
func (a *groupByAgg) accumulate(gid int, v any, ok bool) {
	switch a.op {
	case expr.AggCount:
		if a.isCountAll {
			a.counts[gid]++
			return
		}
		if ok {
			a.counts[gid]++
		}
	case expr.AggSum, expr.AggAvg:
		if !ok {
			return
		}
		f, _ := toFloatScalar(v)
		a.sums[gid] += f
		a.counts[gid]++
	case expr.AggMin:
		if !ok {
			return
		}
		if !a.hasVal[gid] || scalarLess(v, a.mins[gid]) {
			a.mins[gid] = v
		}
		a.hasVal[gid] = true
	case expr.AggMax:
		if !ok {
			return
		}
		if !a.hasVal[gid] || scalarLess(a.maxs[gid], v) {
			a.maxs[gid] = v
		}
		a.hasVal[gid] = true
	case expr.AggFirst:
		if !ok {
			return
		}
		if !a.hasVal[gid] {
			a.firsts[gid] = v
			a.hasVal[gid] = true
		}
	case expr.AggLast:
		if !ok {
			return
		}
		a.lasts[gid] = v
		a.hasVal[gid] = true
	}
}

func (a *groupByAgg) result(gid int) (any, bool) {
	switch a.op {
	case expr.AggCount:
		return a.counts[gid], true
	case expr.AggSum:
		if a.counts[gid] == 0 {
			return nil, false
		}
		return a.sums[gid], true
	case expr.AggAvg:
		if a.counts[gid] == 0 {
			return nil, false
		}
		return a.sums[gid] / float64(a.counts[gid]), true
	case expr.AggMin:
		if !a.hasVal[gid] {
			return nil, false
		}
		return a.mins[gid], true
	case expr.AggMax:
		if !a.hasVal[gid] {
			return nil, false
		}
		return a.maxs[gid], true
	case expr.AggFirst:
		if !a.hasVal[gid] {
			return nil, false
		}
		return a.firsts[gid], true
	case expr.AggLast:
		if !a.hasVal[gid] {
			return nil, false
		}
		return a.lasts[gid], true
	}
	return nil, false
}

// groupKey is one key column's stored value for a group: a boxed
// numeric/bool scalar, a dictionary index into the GroupBy's own
// dictionary for string keys, or nil for a null key.
type groupKey struct {
	isString bool
	strIdx   uint32
	val      any
	isNull   bool
}

// GroupBy assigns each input row to a dense group id by its key-column
// tuple and feeds every configured aggregation through a per-group dense
// accumulator (spec ch. 4.4.7). Grounded on the teacher's query.go
// aggregate(): its `groups map[uint64]uint64` bucket table and two-phase
// hash-then-accumulate loop are the model for Process's key-hashing
// phase followed by an accumulation phase; this repo replaces the
// teacher's whole-dataset hash-of-the-evaluated-column approach with a
// per-row tuple hash since keys here may span multiple named columns.
type GroupBy struct {
	inputSchema  *column.Schema
	outputSchema *column.Schema

	keyCols  []int
	keyKinds []column.DTypeKind
	keyDefs  []column.ColumnDef

	aggs     []*groupByAgg
	aggNames []string

	dict       *column.Dictionary // this operator's own dictionary for string keys
	strCache   map[uint32]uint32  // input dict index -> this dict index
	cacheDict  *column.Dictionary // input dictionary strCache's keys belong to
	groups     map[string]int
	groupKeys  [][]groupKey // group_id -> key tuple
	numGroups  int
}

// NewGroupBy validates keys/aggregations and compiles each aggregation's
// inner expression against inputSchema.
func NewGroupBy(keys []string, aggs []GroupByAggSpec, inputSchema *column.Schema) (*GroupBy, error) {
	if len(keys) == 0 {
		return nil, engine.Errorf(engine.ErrInvalidPipeline, "groupBy requires at least one key column")
	}
	keyCols := make([]int, len(keys))
	keyKinds := make([]column.DTypeKind, len(keys))
	keyDefs := make([]column.ColumnDef, len(keys))
	for i, name := range keys {
		idx, err := inputSchema.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		keyCols[i] = idx
		cd := inputSchema.Column(idx)
		keyKinds[i] = cd.Type.Kind
		keyDefs[i] = cd
	}

	aggStates := make([]*groupByAgg, len(aggs))
	aggNames := make([]string, len(aggs))
	aggDefs := make([]column.ColumnDef, len(aggs))
	for i, spec := range aggs {
		info, err := expr.Infer(spec.Agg, inputSchema)
		if err != nil {
			return nil, err
		}
		if !info.Aggregate {
			return nil, engine.Errorf(engine.ErrInvalidAggregation, "%q is not an aggregation", spec.Name)
		}
		isCountAll := spec.Agg.Op == expr.AggCount && spec.Agg.Inner == nil
		var fn expr.CompiledValue
		if !isCountAll {
			fn, err = expr.CompileValueUntyped(spec.Agg.Inner, inputSchema)
			if err != nil {
				return nil, err
			}
		}
		aggStates[i] = newGroupByAgg(spec.Agg.Op, info.Type, fn, isCountAll)
		aggNames[i] = spec.Name
		aggDefs[i] = column.ColumnDef{Name: spec.Name, Type: info.Type}
	}

	schema, err := column.NewSchema(append(append([]column.ColumnDef{}, keyDefs...), aggDefs...)...)
	if err != nil {
		return nil, err
	}

	return &GroupBy{
		inputSchema:  inputSchema,
		outputSchema: schema,
		keyCols:      keyCols,
		keyKinds:     keyKinds,
		keyDefs:      keyDefs,
		aggs:         aggStates,
		aggNames:     aggNames,
		dict:         column.NewDictionary(0),
		strCache:     make(map[uint32]uint32),
		groups:       make(map[string]int),
	}, nil
}

func (g *GroupBy) Name() string                 { return "group_by" }
func (g *GroupBy) OutputSchema() *column.Schema { return g.outputSchema }

// reindexString converts an input-dictionary string index to a
// byte-equal index in this operator's own dictionary, caching the
// mapping per distinct input index (spec ch. 4.4.7 step 1). The cache is
// cleared whenever a chunk arrives with a different input dictionary.
func (g *GroupBy) reindexString(inputDict *column.Dictionary, idx uint32) uint32 {
	if inputDict != g.cacheDict {
		g.strCache = make(map[uint32]uint32)
		g.cacheDict = inputDict
	}
	if out, ok := g.strCache[idx]; ok {
		return out
	}
	out := inputDict.Reindex(idx, g.dict)
	g.strCache[idx] = out
	return out
}

// keyTupleAndString builds the boxed key tuple for row plus a stable
// string serialization used as the group-lookup map key.
func (g *GroupBy) keyTupleAndString(chunk *column.Chunk, row int) ([]groupKey, string) {
	tuple := make([]groupKey, len(g.keyCols))
	var sb strings.Builder
	for i, col := range g.keyCols {
		if chunk.IsNull(col, row) {
			tuple[i] = groupKey{isNull: true}
			sb.WriteByte(0)
			sb.WriteByte('|')
			continue
		}
		if g.keyKinds[i] == column.KindString {
			buf := chunk.Column(col)
			srcIdx := buf.GetStringIndex(chunk.PhysicalRow(row))
			idx := g.reindexString(chunk.Dictionary(), srcIdx)
			tuple[i] = groupKey{isString: true, strIdx: idx}
			sb.WriteByte(1)
			sb.WriteString(g.dict.GetString(idx))
			sb.WriteByte('|')
			continue
		}
		v := chunk.GetValue(col, row)
		tuple[i] = groupKey{val: v}
		sb.WriteByte(2)
		sb.WriteString(strconv.FormatInt(int64(g.keyKinds[i]), 10))
		sb.WriteByte(':')
		writeScalarKey(&sb, v)
		sb.WriteByte('|')
	}
	return tuple, sb.String()
}

func writeScalarKey(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case int64:
		sb.WriteString(strconv.FormatInt(x, 10))
	case uint64:
		sb.WriteString(strconv.FormatUint(x, 10))
	case float64:
		sb.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		if x {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
}

func (g *GroupBy) groupIDFor(chunk *column.Chunk, row int) int {
	tuple, key := g.keyTupleAndString(chunk, row)
	if gid, ok := g.groups[key]; ok {
		return gid
	}
	gid := g.numGroups
	g.groups[key] = gid
	g.groupKeys = append(g.groupKeys, tuple)
	g.numGroups++
	for _, a := range g.aggs {
		a.grow(g.numGroups)
	}
	return gid
}

func (g *GroupBy) Process(chunk *column.Chunk) (OperatorResult, error) {
	n := chunk.Len()
	if n == 0 {
		return OperatorResult{}, nil
	}
	chunkGroupIDs := make([]int, n)
	for row := 0; row < n; row++ {
		chunkGroupIDs[row] = g.groupIDFor(chunk, row)
	}
	for _, a := range g.aggs {
		if a.isCountAll {
			for row := 0; row < n; row++ {
				a.accumulate(chunkGroupIDs[row], nil, true)
			}
			continue
		}
		for row := 0; row < n; row++ {
			v, ok := a.value(chunk, row)
			a.accumulate(chunkGroupIDs[row], v, ok)
		}
	}
	return OperatorResult{}, nil
}

func (g *GroupBy) Finish() (OperatorResult, error) {
	if g.numGroups == 0 {
		return OperatorResult{}, nil
	}
	keyCols := make([]*column.ColumnBuffer, len(g.keyCols))
	for i, def := range g.keyDefs {
		buf, err := column.NewColumnBuffer(def.Type.Kind, true, g.numGroups)
		if err != nil {
			return OperatorResult{}, err
		}
		keyCols[i] = buf
	}
	for gid := 0; gid < g.numGroups; gid++ {
		tuple := g.groupKeys[gid]
		for i, k := range tuple {
			buf := keyCols[i]
			switch {
			case k.isNull:
				if err := buf.AppendNull(); err != nil {
					return OperatorResult{}, err
				}
			case k.isString:
				if err := buf.AppendStringIndex(k.strIdx); err != nil {
					return OperatorResult{}, err
				}
			default:
				if err := appendScalar(buf, g.keyKinds[i], k.val, true, g.dict); err != nil {
					return OperatorResult{}, err
				}
			}
		}
	}
	aggCols := make([]*column.ColumnBuffer, len(g.aggs))
	for i, a := range g.aggs {
		buf, err := column.NewColumnBuffer(a.dtype.Kind, true, g.numGroups)
		if err != nil {
			return OperatorResult{}, err
		}
		for gid := 0; gid < g.numGroups; gid++ {
			v, ok := a.result(gid)
			if err := appendScalar(buf, a.dtype.Kind, v, ok, g.dict); err != nil {
				return OperatorResult{}, err
			}
		}
		aggCols[i] = buf
	}
	out, err := column.NewChunkFromColumns(g.outputSchema, g.dict, append(keyCols, aggCols...))
	if err != nil {
		return OperatorResult{}, err
	}
	return OperatorResult{Chunk: out, Done: true}, nil
}

func (g *GroupBy) Reset() {
	g.dict = column.NewDictionary(0)
	g.strCache = make(map[uint32]uint32)
	g.groups = make(map[string]int)
	g.groupKeys = nil
	g.numGroups = 0
	for _, a := range g.aggs {
		*a = *newGroupByAgg(a.op, a.dtype, a.value, a.isCountAll)
	}
}
