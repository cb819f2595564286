package operator

import (
	"strings"

	"github.com/kodekit/colexec/column"
)

// JoinType enumerates the supported HashJoin variants (spec ch. 4.4.8).
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
)

// HashJoinConfig configures a HashJoin: LeftKey/RightKey name the join
// columns on each side, Suffix disambiguates a right-side column whose
// name collides with a left-side one that survives the key-dedup rule.
type HashJoinConfig struct {
	LeftKey  string
	RightKey string
	Type     JoinType
	Suffix   string
}

type joinRowRef struct {
	chunkIdx int
	row      int
}

// HashJoin is a build-probe join with the right side as build (spec
// ch. 4.4.8). It has no direct analogue in the teacher, which never
// joins two datasets; it is grounded on the teacher's own hashing idiom
// (the same row-tuple-to-string-key approach GroupBy uses here) applied
// to a new problem: build a hash table from the right side, skipping
// null keys, then probe with each left row.
type HashJoin struct {
	cfg HashJoinConfig

	leftSchema  *column.Schema
	rightSchema *column.Schema
	leftKeyIdx  int
	rightKeyIdx int

	// output schema bookkeeping
	outputSchema *column.Schema
	rightCols    []int  // right-schema column indices included in the output, in order
	dropRightKey bool   // true when right key coincides with left key by name

	// build side: accumulated right chunks plus the probe index
	rightChunks []*column.Chunk
	buildIndex  map[string][]joinRowRef
	matched     map[joinRowRef]bool

	leftChunks []*column.Chunk // only buffered for a Right join's final unmatched pass
}

// NewHashJoin validates the join keys against both schemas and builds
// the output schema: left columns then right columns minus the right
// key when its name coincides with the left key; colliding names take
// cfg.Suffix.
func NewHashJoin(cfg HashJoinConfig, leftSchema, rightSchema *column.Schema) (*HashJoin, error) {
	leftIdx, err := leftSchema.ColumnIndex(cfg.LeftKey)
	if err != nil {
		return nil, err
	}
	rightIdx, err := rightSchema.ColumnIndex(cfg.RightKey)
	if err != nil {
		return nil, err
	}

	dropRightKey := cfg.RightKey == cfg.LeftKey
	leftNames := make(map[string]bool, leftSchema.Len())
	for _, cd := range leftSchema.Columns {
		leftNames[cd.Name] = true
	}

	defs := make([]column.ColumnDef, 0, leftSchema.Len()+rightSchema.Len())
	for _, cd := range leftSchema.Columns {
		t := cd.Type
		if cfg.Type == JoinRight {
			t.Nullable = true
		}
		defs = append(defs, column.ColumnDef{Name: cd.Name, Type: t})
	}
	var rightCols []int
	for i, cd := range rightSchema.Columns {
		if dropRightKey && i == rightIdx {
			continue
		}
		name := cd.Name
		if leftNames[name] {
			name = name + cfg.Suffix
		}
		t := cd.Type
		if cfg.Type == JoinLeft {
			t.Nullable = true
		}
		defs = append(defs, column.ColumnDef{Name: name, Type: t})
		rightCols = append(rightCols, i)
	}
	schema, err := column.NewSchema(defs...)
	if err != nil {
		return nil, err
	}

	return &HashJoin{
		cfg:          cfg,
		leftSchema:   leftSchema,
		rightSchema:  rightSchema,
		leftKeyIdx:   leftIdx,
		rightKeyIdx:  rightIdx,
		outputSchema: schema,
		rightCols:    rightCols,
		dropRightKey: dropRightKey,
		buildIndex:   make(map[string][]joinRowRef),
		matched:      make(map[joinRowRef]bool),
	}, nil
}

func (j *HashJoin) Name() string                 { return "hash_join" }
func (j *HashJoin) OutputSchema() *column.Schema { return j.outputSchema }

// BuildRight feeds one chunk of the right (build) side into the join's
// hash table, ahead of any left-side Process calls; skips rows with a
// null join key (spec ch. 4.4.8 step 1).
func (j *HashJoin) BuildRight(chunk *column.Chunk) {
	ci := len(j.rightChunks)
	j.rightChunks = append(j.rightChunks, chunk)
	for row := 0; row < chunk.Len(); row++ {
		if chunk.IsNull(j.rightKeyIdx, row) {
			continue
		}
		key := j.joinKeyString(chunk, j.rightKeyIdx, row)
		ref := joinRowRef{chunkIdx: ci, row: row}
		j.buildIndex[key] = append(j.buildIndex[key], ref)
	}
}

func (j *HashJoin) joinKeyString(chunk *column.Chunk, col, row int) string {
	kind := chunk.Schema().Column(col).Type.Kind
	if kind == column.KindString {
		s, _ := chunk.GetStringValue(col, row)
		return "s:" + s
	}
	var sb strings.Builder
	sb.WriteString("v:")
	writeScalarKey(&sb, chunk.GetValue(col, row))
	return sb.String()
}

// Process probes the right-side hash table with one left chunk (spec
// ch. 4.4.8 step 2). The right side must have already been fully built
// via BuildRight before the first Process call.
func (j *HashJoin) Process(chunk *column.Chunk) (OperatorResult, error) {
	if j.cfg.Type == JoinRight {
		j.leftChunks = append(j.leftChunks, chunk)
	}
	leftDict := chunk.Dictionary()
	dict := leftDict
	if dict == nil {
		dict = column.NewDictionary(0)
	}
	n := chunk.Len()
	outCols := make([]*column.ColumnBuffer, j.outputSchema.Len())
	for i, cd := range j.outputSchema.Columns {
		buf, err := column.NewColumnBuffer(cd.Type.Kind, cd.Type.Nullable, n)
		if err != nil {
			return OperatorResult{}, err
		}
		outCols[i] = buf
	}
	nLeft := j.leftSchema.Len()

	appendLeftRow := func(row int) error {
		for i := 0; i < nLeft; i++ {
			if err := outCols[i].AppendFrom(chunk.Column(i), chunk.PhysicalRow(row)); err != nil {
				return err
			}
		}
		return nil
	}
	appendRightNulls := func() error {
		for i := nLeft; i < j.outputSchema.Len(); i++ {
			if err := outCols[i].AppendNull(); err != nil {
				return err
			}
		}
		return nil
	}
	appendRightRow := func(ref joinRowRef) error {
		rc := j.rightChunks[ref.chunkIdx]
		for k, srcCol := range j.rightCols {
			dstCol := nLeft + k
			dst := outCols[dstCol]
			src := rc.Column(srcCol)
			pr := rc.PhysicalRow(ref.row)
			if src.IsNull(pr) {
				if err := dst.AppendNull(); err != nil {
					return err
				}
				continue
			}
			if src.Kind() == column.KindString {
				idx := src.GetStringIndex(pr)
				newIdx := rc.Dictionary().Reindex(idx, dict)
				if err := dst.AppendStringIndex(newIdx); err != nil {
					return err
				}
				continue
			}
			if err := dst.AppendFrom(src, pr); err != nil {
				return err
			}
		}
		return nil
	}

	for row := 0; row < n; row++ {
		if chunk.IsNull(j.leftKeyIdx, row) {
			// unmatched left rows are only preserved for a Left join; a
			// Right join keeps all right rows (via Finish) but only
			// matched left rows, an Inner join keeps neither.
			if j.cfg.Type != JoinLeft {
				continue
			}
			if err := appendLeftRow(row); err != nil {
				return OperatorResult{}, err
			}
			if err := appendRightNulls(); err != nil {
				return OperatorResult{}, err
			}
			continue
		}
		key := j.joinKeyString(chunk, j.leftKeyIdx, row)
		matches := j.buildIndex[key]
		if len(matches) == 0 {
			if j.cfg.Type != JoinLeft {
				continue
			}
			if err := appendLeftRow(row); err != nil {
				return OperatorResult{}, err
			}
			if err := appendRightNulls(); err != nil {
				return OperatorResult{}, err
			}
			continue
		}
		for _, ref := range matches {
			if j.cfg.Type == JoinRight {
				j.matched[ref] = true
			}
			if err := appendLeftRow(row); err != nil {
				return OperatorResult{}, err
			}
			if err := appendRightRow(ref); err != nil {
				return OperatorResult{}, err
			}
		}
	}

	out, err := column.NewChunkFromColumns(j.outputSchema, dict, outCols)
	if err != nil {
		return OperatorResult{}, err
	}
	if out.Len() == 0 {
		return OperatorResult{}, nil
	}
	return OperatorResult{Chunk: out}, nil
}

// Finish emits the unmatched right rows for a Right join, padded with
// left nulls, in a fresh chunk carrying a fresh dictionary (spec
// ch. 4.4.8 step 3; ch. 5: "HashJoin Right-unmatched... own a fresh
// one").
func (j *HashJoin) Finish() (OperatorResult, error) {
	if j.cfg.Type != JoinRight {
		return OperatorResult{}, nil
	}
	dict := column.NewDictionary(0)
	outCols := make([]*column.ColumnBuffer, j.outputSchema.Len())
	for i, cd := range j.outputSchema.Columns {
		buf, err := column.NewColumnBuffer(cd.Type.Kind, true, 0)
		if err != nil {
			return OperatorResult{}, err
		}
		outCols[i] = buf
	}
	nLeft := j.leftSchema.Len()
	anyUnmatched := false
	for ci, rc := range j.rightChunks {
		for row := 0; row < rc.Len(); row++ {
			ref := joinRowRef{chunkIdx: ci, row: row}
			if j.matched[ref] {
				continue
			}
			anyUnmatched = true
			for i := 0; i < nLeft; i++ {
				if err := outCols[i].AppendNull(); err != nil {
					return OperatorResult{}, err
				}
			}
			for k, srcCol := range j.rightCols {
				dst := outCols[nLeft+k]
				src := rc.Column(srcCol)
				pr := rc.PhysicalRow(row)
				if src.IsNull(pr) {
					if err := dst.AppendNull(); err != nil {
						return OperatorResult{}, err
					}
					continue
				}
				if src.Kind() == column.KindString {
					idx := src.GetStringIndex(pr)
					newIdx := rc.Dictionary().Reindex(idx, dict)
					if err := dst.AppendStringIndex(newIdx); err != nil {
						return OperatorResult{}, err
					}
					continue
				}
				if err := dst.AppendFrom(src, pr); err != nil {
					return OperatorResult{}, err
				}
			}
		}
	}
	if !anyUnmatched {
		return OperatorResult{Done: true}, nil
	}
	out, err := column.NewChunkFromColumns(j.outputSchema, dict, outCols)
	if err != nil {
		return OperatorResult{}, err
	}
	return OperatorResult{Chunk: out, Done: true}, nil
}

func (j *HashJoin) Reset() {
	j.rightChunks = nil
	j.leftChunks = nil
	j.buildIndex = make(map[string][]joinRowRef)
	j.matched = make(map[joinRowRef]bool)
}
