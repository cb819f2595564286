package column

import (
	"fmt"

	"github.com/kodekit/colexec/engine"
)

// Chunk is a batch of columns conforming to one Schema, sharing one
// Dictionary, optionally virtualised by a selection vector (spec ch. 3).
// Modelled on the teacher's column.Chunk (an interface over per-dtype
// structs in chunk.go), collapsed here into one concrete struct that
// holds a slice of *ColumnBuffer plus the dictionary and selection layer
// spec.md requires and the teacher does not have.
type Chunk struct {
	schema    *Schema
	dict      *Dictionary
	columns   []*ColumnBuffer
	selection []uint32 // nil = no selection, every buffer row is live
}

// NewChunk builds an empty chunk over schema, allocating one ColumnBuffer
// per column with the given capacity. dict may be nil for chunks with no
// string columns.
func NewChunk(schema *Schema, dict *Dictionary, capacity int) (*Chunk, error) {
	cols := make([]*ColumnBuffer, schema.Len())
	for i, cd := range schema.Columns {
		buf, err := NewColumnBuffer(cd.Type.Kind, cd.Type.Nullable, capacity)
		if err != nil {
			return nil, err
		}
		cols[i] = buf
	}
	return &Chunk{schema: schema, dict: dict, columns: cols}, nil
}

// NewChunkFromColumns builds a chunk directly from pre-populated buffers.
// All buffers must have equal Len() (before any selection is applied).
func NewChunkFromColumns(schema *Schema, dict *Dictionary, cols []*ColumnBuffer) (*Chunk, error) {
	if len(cols) == 0 {
		return nil, engine.WithCode(engine.ErrSchemaMismatch, fmt.Errorf("no columns"))
	}
	n := cols[0].Len()
	for _, c := range cols {
		if c.Len() != n {
			return nil, engine.WithCode(engine.ErrSchemaMismatch, fmt.Errorf("columns of differing length"))
		}
	}
	return &Chunk{schema: schema, dict: dict, columns: cols}, nil
}

// NewProjectedChunk builds a chunk directly from a reordered/subset
// column array, sharing dict and selection with whatever chunk cols came
// from - the primitive behind the Project/Rename operator (spec
// ch. 4.4.2: "constructs a new chunk sharing the input dictionary and
// selection vector but with a reordered column array and the new
// schema").
func NewProjectedChunk(schema *Schema, dict *Dictionary, cols []*ColumnBuffer, selection []uint32) *Chunk {
	return &Chunk{schema: schema, dict: dict, columns: cols, selection: selection}
}

func (c *Chunk) Schema() *Schema      { return c.schema }
func (c *Chunk) Dictionary() *Dictionary { return c.dict }
func (c *Chunk) NumColumns() int      { return len(c.columns) }

// Column returns the underlying buffer for column idx. Callers that need
// the raw (non-virtualised) buffer for materialisation purposes use this;
// everyone else should go through the selection-aware accessors below.
func (c *Chunk) Column(idx int) *ColumnBuffer { return c.columns[idx] }

// Selection returns the chunk's current selection vector, or nil.
func (c *Chunk) Selection() []uint32 { return c.selection }

// Len returns the chunk's logical row count, honouring any selection.
func (c *Chunk) Len() int {
	if c.selection != nil {
		return len(c.selection)
	}
	if len(c.columns) == 0 {
		return 0
	}
	return c.columns[0].Len()
}

func (c *Chunk) physicalRow(row int) int {
	if c.selection != nil {
		return int(c.selection[row])
	}
	return row
}

// PhysicalRow translates a logical row index through any installed
// selection vector, returning the underlying buffer index. Operators
// that build a new selection vector over an already-selected chunk (a
// selection always replaces, never stacks on, a prior one - spec ch. 3)
// use this to resolve the physical index to record.
func (c *Chunk) PhysicalRow(row int) int { return c.physicalRow(row) }

// WithSelection returns a new Chunk sharing this one's columns and
// dictionary, but with sel installed as its selection vector - applying a
// new selection always replaces any prior one (spec ch. 3). sel must
// contain strictly increasing indices in [0, physical row count).
func (c *Chunk) WithSelection(sel []uint32) *Chunk {
	return &Chunk{schema: c.schema, dict: c.dict, columns: c.columns, selection: sel}
}

// IsNull reports whether (col, row) is null, translating row through any
// selection vector.
func (c *Chunk) IsNull(col, row int) bool {
	return c.columns[col].IsNull(c.physicalRow(row))
}

// GetValue returns the raw value at (col, row) as int64/uint64/float64/
// bool, or nil if null, translating row through any selection vector. For
// a string column it returns the uint32 dictionary index - use
// GetStringValue for the string itself.
func (c *Chunk) GetValue(col, row int) any {
	return c.columns[col].Value(c.physicalRow(row))
}

// GetStringValue returns the materialised string at (col, row), or ("",
// false) if null. Translates row through any selection vector.
func (c *Chunk) GetStringValue(col, row int) (string, bool) {
	buf := c.columns[col]
	pr := c.physicalRow(row)
	if buf.IsNull(pr) {
		return "", false
	}
	idx := buf.GetStringIndex(pr)
	return c.dict.GetString(idx), true
}

// Materialize produces an equivalent chunk with no selection vector, by
// copying selected rows into fresh column buffers (spec ch. 3) - used by
// Transform, which appends computed columns and so needs dense,
// selection-free indexing.
func (c *Chunk) Materialize() (*Chunk, error) {
	if c.selection == nil {
		return c, nil
	}
	n := len(c.selection)
	outCols := make([]*ColumnBuffer, len(c.columns))
	for i, src := range c.columns {
		dst, err := NewColumnBuffer(src.Kind(), src.Nullable(), n)
		if err != nil {
			return nil, err
		}
		if err := dst.CopyFrom(src, c.selection); err != nil {
			return nil, err
		}
		outCols[i] = dst
	}
	return &Chunk{schema: c.schema, dict: c.dict, columns: outCols}, nil
}

// Append appends another chunk's rows onto this one's column buffers in
// place; both chunks must share an equal schema. Any selection on other
// is honoured (its rows are materialised as they're appended); this
// chunk's own selection, if any, is discarded since new rows are being
// appended to the physical buffers directly.
func (c *Chunk) Append(other *Chunk) error {
	if !c.schema.Equal(other.schema) {
		return engine.WithCode(engine.ErrSchemaMismatch, fmt.Errorf("cannot append chunks of differing schemas"))
	}
	c.selection = nil
	for i, dst := range c.columns {
		src := other.columns[i]
		if other.selection != nil {
			if err := dst.CopyFrom(src, other.selection); err != nil {
				return err
			}
			continue
		}
		if err := dst.CopyFrom(src, nil); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of this chunk (fresh column buffers,
// preserving any selection vector and the dictionary reference).
func (c *Chunk) Clone() *Chunk {
	cols := make([]*ColumnBuffer, len(c.columns))
	for i, col := range c.columns {
		cols[i] = col.Clone()
	}
	sel := c.selection
	if sel != nil {
		sel = append([]uint32(nil), sel...)
	}
	return &Chunk{schema: c.schema, dict: c.dict, columns: cols, selection: sel}
}
