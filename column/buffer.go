package column

import (
	"fmt"

	"github.com/kodekit/colexec/bitmap"
	"github.com/kodekit/colexec/engine"
)

// ColumnBuffer is a typed vector of fixed capacity storing elements of
// one dtype contiguously, with an optional parallel null bitmap (spec
// ch. 3). It generalises the teacher's per-dtype chunk structs
// (column.ChunkInts, column.ChunkFloats, column.ChunkBools,
// column.ChunkStrings in chunk.go) into one struct carrying one active
// typed slice selected by Kind, so operators can hold a slice of
// *ColumnBuffer uniformly instead of switching on a Chunk interface's
// concrete type at every call site.
type ColumnBuffer struct {
	kind     DTypeKind
	nullable bool
	capacity int
	length   int

	i8  []int8
	i16 []int16
	i32 []int32 // also used for date (days since epoch)
	i64 []int64 // also used for timestamp (ms since epoch)
	u8  []uint8
	u16 []uint16
	u32 []uint32
	u64 []uint64
	f32 []float32
	f64 []float64
	b   *bitmap.Bitmap // bool values, one bit per row
	s   []uint32       // dictionary indices for string columns

	nulls *bitmap.Bitmap // bit 1 = null; lazily allocated
}

// NewColumnBuffer allocates a buffer of the given kind/nullability/capacity.
func NewColumnBuffer(kind DTypeKind, nullable bool, capacity int) (*ColumnBuffer, error) {
	if capacity < 0 {
		return nil, engine.WithCode(engine.ErrInvalidCapacity, fmt.Errorf("negative capacity: %d", capacity))
	}
	buf := &ColumnBuffer{kind: kind, nullable: nullable, capacity: capacity}
	switch kind {
	case KindInt8:
		buf.i8 = make([]int8, 0, capacity)
	case KindInt16:
		buf.i16 = make([]int16, 0, capacity)
	case KindInt32, KindDate:
		buf.i32 = make([]int32, 0, capacity)
	case KindInt64, KindTimestamp:
		buf.i64 = make([]int64, 0, capacity)
	case KindUint8:
		buf.u8 = make([]uint8, 0, capacity)
	case KindUint16:
		buf.u16 = make([]uint16, 0, capacity)
	case KindUint32:
		buf.u32 = make([]uint32, 0, capacity)
	case KindUint64:
		buf.u64 = make([]uint64, 0, capacity)
	case KindFloat32:
		buf.f32 = make([]float32, 0, capacity)
	case KindFloat64:
		buf.f64 = make([]float64, 0, capacity)
	case KindBool:
		buf.b = bitmap.NewBitmap(0)
	case KindString:
		buf.s = make([]uint32, 0, capacity)
	default:
		return nil, engine.WithCode(engine.ErrInvalidCapacity, fmt.Errorf("unsupported dtype kind: %v", kind))
	}
	return buf, nil
}

func (b *ColumnBuffer) Kind() DTypeKind  { return b.kind }
func (b *ColumnBuffer) Nullable() bool   { return b.nullable }
func (b *ColumnBuffer) Len() int         { return b.length }
func (b *ColumnBuffer) Cap() int         { return b.capacity }

// SetLength advances the logical length directly - used after a bulk
// CopyFrom that writes into the slices without going through Append.
func (b *ColumnBuffer) SetLength(n int) { b.length = n }

// IsNull reports whether row is null. Always false for non-nullable
// buffers (spec ch. 8 invariant).
func (b *ColumnBuffer) IsNull(row int) bool {
	if !b.nullable {
		return false
	}
	if b.nulls != nil {
		return b.nulls.Get(row)
	}
	if b.kind == KindString {
		return b.s[row] == dictNullIndex
	}
	return false
}

// SetNull marks row null/non-null. Panics if the buffer is not nullable -
// contract violations at the chunk boundary are caller bugs (spec ch. 7).
func (b *ColumnBuffer) SetNull(row int, isNull bool) {
	if !b.nullable {
		panic("colexec: cannot set null on a non-nullable column buffer")
	}
	if b.nulls == nil {
		if !isNull {
			return
		}
		b.nulls = bitmap.NewBitmap(b.capacity)
	}
	b.nulls.Set(row, isNull)
	if b.kind == KindString && isNull {
		b.s[row] = dictNullIndex
	}
}

var errFull = engine.Errorf(engine.ErrBufferFull, "column buffer at capacity")

func (b *ColumnBuffer) checkAppend() error {
	if b.length >= b.capacity && b.capacity > 0 {
		return errFull
	}
	return nil
}

// AppendInt appends a signed integer value, truncated to the buffer's
// concrete width.
func (b *ColumnBuffer) AppendInt(v int64) error {
	if err := b.checkAppend(); err != nil {
		return err
	}
	switch b.kind {
	case KindInt8:
		b.i8 = append(b.i8, int8(v))
	case KindInt16:
		b.i16 = append(b.i16, int16(v))
	case KindInt32, KindDate:
		b.i32 = append(b.i32, int32(v))
	case KindInt64, KindTimestamp:
		b.i64 = append(b.i64, v)
	default:
		return engine.Errorf(engine.ErrTypeMismatch, "AppendInt on %v buffer", b.kind)
	}
	b.length++
	return nil
}

// AppendUint appends an unsigned integer value, truncated to width.
func (b *ColumnBuffer) AppendUint(v uint64) error {
	if err := b.checkAppend(); err != nil {
		return err
	}
	switch b.kind {
	case KindUint8:
		b.u8 = append(b.u8, uint8(v))
	case KindUint16:
		b.u16 = append(b.u16, uint16(v))
	case KindUint32:
		b.u32 = append(b.u32, uint32(v))
	case KindUint64:
		b.u64 = append(b.u64, v)
	default:
		return engine.Errorf(engine.ErrTypeMismatch, "AppendUint on %v buffer", b.kind)
	}
	b.length++
	return nil
}

// AppendFloat appends a floating point value.
func (b *ColumnBuffer) AppendFloat(v float64) error {
	if err := b.checkAppend(); err != nil {
		return err
	}
	switch b.kind {
	case KindFloat32:
		b.f32 = append(b.f32, float32(v))
	case KindFloat64:
		b.f64 = append(b.f64, v)
	default:
		return engine.Errorf(engine.ErrTypeMismatch, "AppendFloat on %v buffer", b.kind)
	}
	b.length++
	return nil
}

// AppendBool appends a boolean value.
func (b *ColumnBuffer) AppendBool(v bool) error {
	if err := b.checkAppend(); err != nil {
		return err
	}
	if b.kind != KindBool {
		return engine.Errorf(engine.ErrTypeMismatch, "AppendBool on %v buffer", b.kind)
	}
	b.b.Set(b.length, v)
	b.length++
	return nil
}

// AppendStringIndex appends a dictionary index for a string column.
func (b *ColumnBuffer) AppendStringIndex(idx uint32) error {
	if err := b.checkAppend(); err != nil {
		return err
	}
	if b.kind != KindString {
		return engine.Errorf(engine.ErrTypeMismatch, "AppendStringIndex on %v buffer", b.kind)
	}
	b.s = append(b.s, idx)
	b.length++
	return nil
}

// AppendNull appends a null placeholder and marks it null. The buffer
// must be nullable.
func (b *ColumnBuffer) AppendNull() error {
	if !b.nullable {
		return engine.Errorf(engine.ErrInvalidFillValue, "cannot append null to non-nullable buffer")
	}
	switch b.kind {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindDate, KindTimestamp:
		if err := b.AppendInt(0); err != nil {
			return err
		}
	case KindUint8, KindUint16, KindUint32, KindUint64:
		if err := b.AppendUint(0); err != nil {
			return err
		}
	case KindFloat32, KindFloat64:
		if err := b.AppendFloat(0); err != nil {
			return err
		}
	case KindBool:
		if err := b.AppendBool(false); err != nil {
			return err
		}
	case KindString:
		if err := b.AppendStringIndex(dictNullIndex); err != nil {
			return err
		}
	}
	b.SetNull(b.length-1, true)
	return nil
}

// GetInt returns row as a signed 64-bit integer, sign-extended.
func (b *ColumnBuffer) GetInt(row int) int64 {
	switch b.kind {
	case KindInt8:
		return int64(b.i8[row])
	case KindInt16:
		return int64(b.i16[row])
	case KindInt32, KindDate:
		return int64(b.i32[row])
	case KindInt64, KindTimestamp:
		return b.i64[row]
	}
	panic(fmt.Sprintf("colexec: GetInt on %v buffer", b.kind))
}

// GetUint returns row as an unsigned 64-bit integer.
func (b *ColumnBuffer) GetUint(row int) uint64 {
	switch b.kind {
	case KindUint8:
		return uint64(b.u8[row])
	case KindUint16:
		return uint64(b.u16[row])
	case KindUint32:
		return uint64(b.u32[row])
	case KindUint64:
		return b.u64[row]
	}
	panic(fmt.Sprintf("colexec: GetUint on %v buffer", b.kind))
}

// GetFloat returns row as a float64.
func (b *ColumnBuffer) GetFloat(row int) float64 {
	switch b.kind {
	case KindFloat32:
		return float64(b.f32[row])
	case KindFloat64:
		return b.f64[row]
	}
	panic(fmt.Sprintf("colexec: GetFloat on %v buffer", b.kind))
}

// GetBool returns row as a bool.
func (b *ColumnBuffer) GetBool(row int) bool {
	if b.kind != KindBool {
		panic(fmt.Sprintf("colexec: GetBool on %v buffer", b.kind))
	}
	return b.b.Get(row)
}

// GetStringIndex returns row's dictionary index.
func (b *ColumnBuffer) GetStringIndex(row int) uint32 {
	if b.kind != KindString {
		panic(fmt.Sprintf("colexec: GetStringIndex on %v buffer", b.kind))
	}
	return b.s[row]
}

// SetStringIndex overwrites row's dictionary index in place - used by
// string-remapping utilities (trim/replace/upper/lower/...) that remap
// an old index to a new one without touching the dictionary arena.
func (b *ColumnBuffer) SetStringIndex(row int, idx uint32) {
	b.s[row] = idx
}

// Value returns row's value boxed as any (number, bool, string index, or
// nil if null). Convenience accessor for code paths that need a uniform
// representation (e.g. GroupBy's key-tuple serialisation, Unique's row
// hashing); hot loops should use the typed Get* accessors instead.
func (b *ColumnBuffer) Value(row int) any {
	if b.IsNull(row) {
		return nil
	}
	switch {
	case b.kind.IsInteger() && !b.kind.IsUnsigned():
		return b.GetInt(row)
	case b.kind.IsUnsigned():
		return b.GetUint(row)
	case b.kind.IsFloat():
		return b.GetFloat(row)
	case b.kind == KindBool:
		return b.GetBool(row)
	case b.kind == KindString:
		return b.GetStringIndex(row)
	case b.kind == KindDate:
		return b.GetInt(row)
	case b.kind == KindTimestamp:
		return b.GetInt(row)
	}
	return nil
}

// Reset clears length to zero without releasing backing storage, leaving
// capacity intact for reuse by a buffer pool. Recycle is its exported
// form for pool callers (spec ch. 3: "recycle() zeros the null bitmap and
// resets length but does not clear data").
func (b *ColumnBuffer) Reset() {
	b.length = 0
	switch b.kind {
	case KindInt8:
		b.i8 = b.i8[:0]
	case KindInt16:
		b.i16 = b.i16[:0]
	case KindInt32, KindDate:
		b.i32 = b.i32[:0]
	case KindInt64, KindTimestamp:
		b.i64 = b.i64[:0]
	case KindUint8:
		b.u8 = b.u8[:0]
	case KindUint16:
		b.u16 = b.u16[:0]
	case KindUint32:
		b.u32 = b.u32[:0]
	case KindUint64:
		b.u64 = b.u64[:0]
	case KindFloat32:
		b.f32 = b.f32[:0]
	case KindFloat64:
		b.f64 = b.f64[:0]
	case KindBool:
		b.b = bitmap.NewBitmap(0)
	case KindString:
		b.s = b.s[:0]
	}
	b.nulls = nil
}

func (b *ColumnBuffer) Recycle() { b.Reset() }

// AppendFrom copies the value at srcRow of src into this buffer - used by
// CopyFrom and by operators that materialise selected rows one at a time
// (Transform's materialisation path, Sort's final permutation copy).
func (b *ColumnBuffer) AppendFrom(src *ColumnBuffer, srcRow int) error {
	if src.IsNull(srcRow) {
		return b.AppendNull()
	}
	switch {
	case b.kind.IsInteger() && !b.kind.IsUnsigned(), b.kind == KindDate, b.kind == KindTimestamp:
		return b.AppendInt(src.GetInt(srcRow))
	case b.kind.IsUnsigned():
		return b.AppendUint(src.GetUint(srcRow))
	case b.kind.IsFloat():
		return b.AppendFloat(src.GetFloat(srcRow))
	case b.kind == KindBool:
		return b.AppendBool(src.GetBool(srcRow))
	case b.kind == KindString:
		return b.AppendStringIndex(src.GetStringIndex(srcRow))
	}
	return engine.Errorf(engine.ErrTypeMismatch, "AppendFrom: unsupported kind %v", b.kind)
}

// CopyFrom bulk-copies rows from src into this (initially empty) buffer,
// following selection (logical row order); selection may be nil, meaning
// "every row of src in order". This is the buffer-level primitive behind
// Chunk materialisation.
func (b *ColumnBuffer) CopyFrom(src *ColumnBuffer, selection []uint32) error {
	n := src.Len()
	if selection != nil {
		n = len(selection)
	}
	for i := 0; i < n; i++ {
		row := i
		if selection != nil {
			row = int(selection[i])
		}
		if err := b.AppendFrom(src, row); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of this buffer, fresh backing storage.
func (b *ColumnBuffer) Clone() *ColumnBuffer {
	out, err := NewColumnBuffer(b.kind, b.nullable, b.capacity)
	if err != nil {
		panic(err)
	}
	if err := out.CopyFrom(b, nil); err != nil {
		panic(err)
	}
	return out
}
