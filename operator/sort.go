package operator

import (
	"sort"

	"github.com/kodekit/colexec/column"
)

// SortKey is one ORDER BY key: Column identifies the sort column by
// position in the schema, NullsFirst/Descending control null placement
// and direction independently (spec ch. 4.4.5).
type SortKey struct {
	Column     int
	Descending bool
	NullsFirst bool
}

type rowRef struct {
	chunk int
	row   int
}

// Sort is a buffering operator: it accumulates every input chunk, then
// on Finish stable-sorts a permutation of (chunk, row) pairs and copies
// rows out in sorted order into one dense output chunk (spec ch. 4.4.5).
// Grounded on the teacher's query.go reorder()/Result sort.Interface,
// generalized from its single fixed sort-by-column-list to a list of
// SortKeys each with independent direction and null placement.
type Sort struct {
	schema  *column.Schema
	keys    []SortKey
	buffers []*column.Chunk
}

func NewSort(keys []SortKey, schema *column.Schema) *Sort {
	return &Sort{schema: schema, keys: keys}
}

func (s *Sort) Name() string                 { return "sort" }
func (s *Sort) OutputSchema() *column.Schema { return s.schema }

func (s *Sort) Process(chunk *column.Chunk) (OperatorResult, error) {
	s.buffers = append(s.buffers, chunk)
	return OperatorResult{}, nil
}

func (s *Sort) Finish() (OperatorResult, error) {
	total := 0
	for _, c := range s.buffers {
		total += c.Len()
	}
	if total == 0 {
		return OperatorResult{}, nil
	}
	refs := make([]rowRef, 0, total)
	for ci, c := range s.buffers {
		for r := 0; r < c.Len(); r++ {
			refs = append(refs, rowRef{chunk: ci, row: r})
		}
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return s.less(refs[i], refs[j])
	})

	var dict *column.Dictionary
	for _, c := range s.buffers {
		if c.Dictionary() != nil {
			dict = c.Dictionary()
			break
		}
	}
	outCols := make([]*column.ColumnBuffer, s.schema.Len())
	for i, cd := range s.schema.Columns {
		buf, err := column.NewColumnBuffer(cd.Type.Kind, cd.Type.Nullable, total)
		if err != nil {
			return OperatorResult{}, err
		}
		outCols[i] = buf
	}
	for _, ref := range refs {
		src := s.buffers[ref.chunk]
		physical := src.PhysicalRow(ref.row)
		for col := 0; col < s.schema.Len(); col++ {
			if err := outCols[col].AppendFrom(src.Column(col), physical); err != nil {
				return OperatorResult{}, err
			}
		}
	}
	out, err := column.NewChunkFromColumns(s.schema, dict, outCols)
	if err != nil {
		return OperatorResult{}, err
	}
	return OperatorResult{Chunk: out, Done: true}, nil
}

func (s *Sort) Reset() { s.buffers = nil }

func (s *Sort) less(a, b rowRef) bool {
	ca, cb := s.buffers[a.chunk], s.buffers[b.chunk]
	ra, rb := a.row, b.row
	for _, key := range s.keys {
		aNull := ca.IsNull(key.Column, ra)
		bNull := cb.IsNull(key.Column, rb)
		if aNull && bNull {
			continue
		}
		if aNull || bNull {
			if aNull {
				return key.NullsFirst
			}
			return !key.NullsFirst
		}
		cmp := compareColumnValues(ca, key.Column, ra, cb, key.Column, rb)
		if cmp == 0 {
			continue
		}
		if key.Descending {
			cmp = -cmp
		}
		return cmp < 0
	}
	return false
}

// compareColumnValues compares two non-null values at possibly
// different chunks/columns of the same dtype kind: numeric ordering
// for numbers, byte-lexicographic for strings (spec ch. 4.4.5, ch. 8).
func compareColumnValues(ca *column.Chunk, colA, rowA int, cb *column.Chunk, colB, rowB int) int {
	kind := ca.Schema().Column(colA).Type.Kind
	bufA, bufB := ca.Column(colA), cb.Column(colB)
	pa, pb := ca.PhysicalRow(rowA), cb.PhysicalRow(rowB)
	switch {
	case kind == column.KindString:
		sa, _ := ca.GetStringValue(colA, rowA)
		sb, _ := cb.GetStringValue(colB, rowB)
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	case kind == column.KindBool:
		va, vb := bufA.GetBool(pa), bufB.GetBool(pb)
		if va == vb {
			return 0
		}
		if !va {
			return -1
		}
		return 1
	case kind.IsFloat():
		va, vb := bufA.GetFloat(pa), bufB.GetFloat(pb)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		default:
			return 0
		}
	case kind.IsUnsigned():
		va, vb := bufA.GetUint(pa), bufB.GetUint(pb)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		default:
			return 0
		}
	default:
		va, vb := bufA.GetInt(pa), bufB.GetInt(pb)
		switch {
		case va < vb:
			return -1
		case va > vb:
			return 1
		default:
			return 0
		}
	}
}
