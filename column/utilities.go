package column

import (
	"errors"
	"hash/fnv"
	"strings"

	"github.com/kodekit/colexec/engine"
)

var (
	errEmptyConcat  = errors.New("concat: no chunks given")
	errConcatSchema = errors.New("concat: chunks have differing schemas")
)

// FillNull replaces every null in buf with a single constant value,
// clearing the null bit wherever it fires. value's dynamic type must
// match buf's kind the way Append* expects (int64/uint64/float64/bool),
// or be a string for a KindString buffer (interned once into dict and
// reused for every null row). Grounded on the teacher's column/cast.go
// coercion pattern of doing the type-appropriate conversion once up
// front rather than per row.
func FillNull(buf *ColumnBuffer, dict *Dictionary, value any) (*ColumnBuffer, error) {
	out := buf.Clone()
	if !buf.nullable {
		return out, nil
	}
	var stringIdx uint32
	if buf.kind == KindString {
		s, ok := value.(string)
		if !ok {
			return nil, engine.Errorf(engine.ErrInvalidFillValue, "fill value for string column must be a string")
		}
		stringIdx = dict.Intern([]byte(s))
	}
	for row := 0; row < out.Len(); row++ {
		if !out.IsNull(row) {
			continue
		}
		if err := setFillValue(out, row, value, stringIdx); err != nil {
			return nil, err
		}
		out.SetNull(row, false)
	}
	return out, nil
}

func setFillValue(out *ColumnBuffer, row int, value any, stringIdx uint32) error {
	switch out.kind {
	case KindString:
		out.SetStringIndex(row, stringIdx)
		return nil
	case KindBool:
		v, ok := value.(bool)
		if !ok {
			return engine.Errorf(engine.ErrInvalidFillValue, "fill value must be bool")
		}
		return overwriteBool(out, row, v)
	default:
		switch v := value.(type) {
		case int64:
			return overwriteInt(out, row, v)
		case int:
			return overwriteInt(out, row, int64(v))
		case uint64:
			return overwriteUint(out, row, v)
		case float64:
			return overwriteFloat(out, row, v)
		default:
			return engine.Errorf(engine.ErrInvalidFillValue, "unsupported fill value type %T", value)
		}
	}
}

func overwriteInt(out *ColumnBuffer, row int, v int64) error {
	switch out.kind {
	case KindInt8:
		out.i8[row] = int8(v)
	case KindInt16:
		out.i16[row] = int16(v)
	case KindInt32, KindDate:
		out.i32[row] = int32(v)
	case KindInt64, KindTimestamp:
		out.i64[row] = v
	case KindUint8:
		out.u8[row] = uint8(v)
	case KindUint16:
		out.u16[row] = uint16(v)
	case KindUint32:
		out.u32[row] = uint32(v)
	case KindUint64:
		out.u64[row] = uint64(v)
	case KindFloat32:
		out.f32[row] = float32(v)
	case KindFloat64:
		out.f64[row] = float64(v)
	default:
		return engine.Errorf(engine.ErrTypeMismatch, "cannot fill %v with an integer", out.kind)
	}
	return nil
}

func overwriteUint(out *ColumnBuffer, row int, v uint64) error {
	return overwriteInt(out, row, int64(v))
}

func overwriteFloat(out *ColumnBuffer, row int, v float64) error {
	switch out.kind {
	case KindFloat32:
		out.f32[row] = float32(v)
	case KindFloat64:
		out.f64[row] = v
	default:
		return overwriteInt(out, row, int64(v))
	}
	return nil
}

func overwriteBool(out *ColumnBuffer, row int, v bool) error {
	if out.kind != KindBool {
		return engine.Errorf(engine.ErrTypeMismatch, "cannot fill %v with a bool", out.kind)
	}
	out.b.Set(row, v)
	return nil
}

// FillForward replaces each null with the nearest preceding non-null
// value in row order; leading nulls are left null.
func FillForward(buf *ColumnBuffer) *ColumnBuffer {
	out := buf.Clone()
	if !buf.nullable {
		return out
	}
	haveLast := false
	for row := 0; row < out.Len(); row++ {
		if !out.IsNull(row) {
			haveLast = true
			continue
		}
		if !haveLast {
			continue
		}
		copyRowValue(out, row-1, row)
		out.SetNull(row, false)
	}
	return out
}

// FillBackward replaces each null with the nearest following non-null
// value; trailing nulls are left null.
func FillBackward(buf *ColumnBuffer) *ColumnBuffer {
	out := buf.Clone()
	if !buf.nullable {
		return out
	}
	haveNext := false
	for row := out.Len() - 1; row >= 0; row-- {
		if !out.IsNull(row) {
			haveNext = true
			continue
		}
		if !haveNext {
			continue
		}
		copyRowValue(out, row+1, row)
		out.SetNull(row, false)
	}
	return out
}

func copyRowValue(buf *ColumnBuffer, src, dst int) {
	switch buf.kind {
	case KindInt8:
		buf.i8[dst] = buf.i8[src]
	case KindInt16:
		buf.i16[dst] = buf.i16[src]
	case KindInt32, KindDate:
		buf.i32[dst] = buf.i32[src]
	case KindInt64, KindTimestamp:
		buf.i64[dst] = buf.i64[src]
	case KindUint8:
		buf.u8[dst] = buf.u8[src]
	case KindUint16:
		buf.u16[dst] = buf.u16[src]
	case KindUint32:
		buf.u32[dst] = buf.u32[src]
	case KindUint64:
		buf.u64[dst] = buf.u64[src]
	case KindFloat32:
		buf.f32[dst] = buf.f32[src]
	case KindFloat64:
		buf.f64[dst] = buf.f64[src]
	case KindBool:
		buf.b.Set(dst, buf.b.Get(src))
	case KindString:
		buf.s[dst] = buf.s[src]
	}
}

// DropNullSelection builds a selection vector over chunk retaining only
// rows that are non-null across every column in cols (AND semantics); an
// empty cols means "every nullable column in the schema" (spec ch. 4.3).
func DropNullSelection(chunk *Chunk, cols []int) []uint32 {
	if len(cols) == 0 {
		for i, cd := range chunk.schema.Columns {
			if cd.Type.Nullable {
				cols = append(cols, i)
			}
		}
	}
	sel := make([]uint32, 0, chunk.Len())
	for row := 0; row < chunk.Len(); row++ {
		keep := true
		for _, col := range cols {
			if chunk.IsNull(col, row) {
				keep = false
				break
			}
		}
		if keep {
			sel = append(sel, uint32(chunk.physicalRow(row)))
		}
	}
	return sel
}

// rowHash hashes the values of cols at row into an FNV-1a digest,
// treating a null as a distinguished byte distinct from any real value
// (spec ch. 4.3: unique/distinct semantics).
func rowHash(chunk *Chunk, cols []int, row int) uint64 {
	h := fnv.New64a()
	var scratch [8]byte
	for _, col := range cols {
		if chunk.IsNull(col, row) {
			h.Write([]byte{0xFF})
			continue
		}
		h.Write([]byte{0x01})
		buf := chunk.columns[col]
		pr := chunk.physicalRow(row)
		switch {
		case buf.kind == KindString:
			idx := buf.GetStringIndex(pr)
			h.Write([]byte(chunk.dict.GetString(idx)))
		case buf.kind == KindBool:
			if buf.GetBool(pr) {
				h.Write([]byte{1})
			} else {
				h.Write([]byte{0})
			}
		case buf.kind.IsFloat():
			putUint64(scratch[:], uint64(buf.GetFloat(pr)))
			h.Write(scratch[:])
		case buf.kind.IsUnsigned():
			putUint64(scratch[:], buf.GetUint(pr))
			h.Write(scratch[:])
		default:
			putUint64(scratch[:], uint64(buf.GetInt(pr)))
			h.Write(scratch[:])
		}
	}
	return h.Sum64()
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func rowsEqual(chunk *Chunk, cols []int, a, b int) bool {
	for _, col := range cols {
		an, bn := chunk.IsNull(col, a), chunk.IsNull(col, b)
		if an != bn {
			return false
		}
		if an {
			continue
		}
		if chunk.columns[col].kind == KindString {
			sa, _ := chunk.GetStringValue(col, a)
			sb, _ := chunk.GetStringValue(col, b)
			if sa != sb {
				return false
			}
			continue
		}
		if chunk.GetValue(col, a) != chunk.GetValue(col, b) {
			return false
		}
	}
	return true
}

// UniqueSelection builds a selection vector retaining one row per
// distinct combination of cols (empty cols means every column),
// hashing with rowHash and rechecking on collision via rowsEqual
// (spec ch. 4.3). keepLast selects the last occurrence instead of the
// first.
func UniqueSelection(chunk *Chunk, cols []int, keepLast bool) []uint32 {
	if len(cols) == 0 {
		cols = make([]int, chunk.NumColumns())
		for i := range cols {
			cols[i] = i
		}
	}
	seen := make(map[uint64][]int, chunk.Len())
	var order []int
	for row := 0; row < chunk.Len(); row++ {
		h := rowHash(chunk, cols, row)
		bucket := seen[h]
		dup := -1
		for _, prior := range bucket {
			if rowsEqual(chunk, cols, prior, row) {
				dup = prior
				break
			}
		}
		if dup == -1 {
			seen[h] = append(bucket, row)
			order = append(order, row)
			continue
		}
		if keepLast {
			for i, o := range order {
				if o == dup {
					order[i] = row
					break
				}
			}
			for i, prior := range bucket {
				if prior == dup {
					bucket[i] = row
					break
				}
			}
			seen[h] = bucket
		}
	}
	sel := make([]uint32, len(order))
	for i, row := range order {
		sel[i] = uint32(chunk.physicalRow(row))
	}
	return sel
}

// stringTransform rewrites every distinct value referenced by buf
// through fn exactly once, interning the result into dict and returning
// a buffer with the remapped indices - the pattern spec ch. 4.3 fixes
// for trim/replace/upper/lower/pad/substring: "transform the dictionary
// once, not per row."
func stringTransform(buf *ColumnBuffer, dict *Dictionary, fn func(string) string) (*ColumnBuffer, error) {
	if buf.kind != KindString {
		return nil, engine.Errorf(engine.ErrTypeMismatch, "string transform on %v buffer", buf.kind)
	}
	out, err := NewColumnBuffer(KindString, buf.nullable, buf.capacity)
	if err != nil {
		return nil, err
	}
	remap := make(map[uint32]uint32)
	for row := 0; row < buf.Len(); row++ {
		if buf.IsNull(row) {
			if err := out.AppendNull(); err != nil {
				return nil, err
			}
			continue
		}
		idx := buf.GetStringIndex(row)
		newIdx, ok := remap[idx]
		if !ok {
			newIdx = dict.Intern([]byte(fn(dict.GetString(idx))))
			remap[idx] = newIdx
		}
		if err := out.AppendStringIndex(newIdx); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func Upper(buf *ColumnBuffer, dict *Dictionary) (*ColumnBuffer, error) {
	return stringTransform(buf, dict, strings.ToUpper)
}

func Lower(buf *ColumnBuffer, dict *Dictionary) (*ColumnBuffer, error) {
	return stringTransform(buf, dict, strings.ToLower)
}

func Trim(buf *ColumnBuffer, dict *Dictionary, cutset string) (*ColumnBuffer, error) {
	if cutset == "" {
		return stringTransform(buf, dict, strings.TrimSpace)
	}
	return stringTransform(buf, dict, func(s string) string { return strings.Trim(s, cutset) })
}

func Replace(buf *ColumnBuffer, dict *Dictionary, old, new string) (*ColumnBuffer, error) {
	return stringTransform(buf, dict, func(s string) string { return strings.ReplaceAll(s, old, new) })
}

func PadLeft(buf *ColumnBuffer, dict *Dictionary, width int, pad byte) (*ColumnBuffer, error) {
	return stringTransform(buf, dict, func(s string) string {
		if len(s) >= width {
			return s
		}
		return strings.Repeat(string(pad), width-len(s)) + s
	})
}

func PadRight(buf *ColumnBuffer, dict *Dictionary, width int, pad byte) (*ColumnBuffer, error) {
	return stringTransform(buf, dict, func(s string) string {
		if len(s) >= width {
			return s
		}
		return s + strings.Repeat(string(pad), width-len(s))
	})
}

// Substring extracts [start, start+length) byte-wise (negative start or
// out-of-range length clamp to the string's bounds rather than erroring,
// matching the teacher's forgiving column.functions.go string helpers).
func Substring(buf *ColumnBuffer, dict *Dictionary, start, length int) (*ColumnBuffer, error) {
	return stringTransform(buf, dict, func(s string) string {
		if start < 0 {
			start = 0
		}
		if start >= len(s) {
			return ""
		}
		end := start + length
		if length < 0 || end > len(s) {
			end = len(s)
		}
		return s[start:end]
	})
}

// Concat vertically concatenates chunks sharing an equal schema into one
// new chunk, re-interning string values into the first chunk's
// dictionary whenever a later chunk carries a different one (spec
// ch. 4.3).
func Concat(chunks []*Chunk) (*Chunk, error) {
	if len(chunks) == 0 {
		return nil, engine.WithCode(engine.ErrEmptyInput, errEmptyConcat)
	}
	first := chunks[0]
	total := 0
	for _, c := range chunks {
		if !c.schema.Equal(first.schema) {
			return nil, engine.WithCode(engine.ErrSchemaMismatch, errConcatSchema)
		}
		total += c.Len()
	}
	outDict := first.dict
	outCols := make([]*ColumnBuffer, first.NumColumns())
	for i, cd := range first.schema.Columns {
		buf, err := NewColumnBuffer(cd.Type.Kind, cd.Type.Nullable, total)
		if err != nil {
			return nil, err
		}
		outCols[i] = buf
	}
	for _, c := range chunks {
		for col := 0; col < c.NumColumns(); col++ {
			dst := outCols[col]
			src := c.columns[col]
			if src.kind != KindString || c.dict == outDict || outDict == nil {
				if err := dst.CopyFrom(src, c.selection); err != nil {
					return nil, err
				}
				continue
			}
			if err := appendReindexed(dst, src, c.dict, outDict, c.selection); err != nil {
				return nil, err
			}
		}
	}
	return &Chunk{schema: first.schema, dict: outDict, columns: outCols}, nil
}

func appendReindexed(dst, src *ColumnBuffer, srcDict, dstDict *Dictionary, selection []uint32) error {
	n := src.Len()
	if selection != nil {
		n = len(selection)
	}
	for i := 0; i < n; i++ {
		row := i
		if selection != nil {
			row = int(selection[i])
		}
		if src.IsNull(row) {
			if err := dst.AppendNull(); err != nil {
				return err
			}
			continue
		}
		idx := src.GetStringIndex(row)
		if err := dst.AppendStringIndex(srcDict.Reindex(idx, dstDict)); err != nil {
			return err
		}
	}
	return nil
}
