package column

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kodekit/colexec/engine"
)

var (
	errEmptyName  = errors.New("column name must not be empty")
	errBadName    = errors.New("column name must match [A-Za-z_][A-Za-z0-9_]*")
	errDupName    = errors.New("duplicate column name")
	errNoColumns  = errors.New("schema must have at least one column")
	errNoSuchCol  = errors.New("no such column")
)

// ColumnDef describes one column of a Schema.
type ColumnDef struct {
	Name      string `json:"name"`
	Type      DType  `json:"type"`
	RowOffset int    `json:"row_offset"`
}

// Schema is an ordered, named, typed list of columns plus an auxiliary
// name to index map - modelled on the teacher's column.Schema, widened
// from a single-column description to the table-level schema the teacher
// keeps as a bare []column.Schema (its database.TableSchema).
type Schema struct {
	Columns []ColumnDef
	index   map[string]int
}

func isValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// NewSchema validates and builds a Schema from an ordered column list,
// computing each column's RowOffset as the cumulative byte width of the
// preceding columns.
func NewSchema(cols ...ColumnDef) (*Schema, error) {
	if len(cols) == 0 {
		return nil, engine.WithCode(engine.ErrEmptySchema, errNoColumns)
	}
	index := make(map[string]int, len(cols))
	offset := 0
	out := make([]ColumnDef, len(cols))
	for i, c := range cols {
		if c.Name == "" {
			return nil, engine.WithCode(engine.ErrInvalidColumnName, errEmptyName)
		}
		if !isValidName(c.Name) {
			return nil, engine.WithCode(engine.ErrInvalidColumnName, fmt.Errorf("%w: %q", errBadName, c.Name))
		}
		if _, ok := index[c.Name]; ok {
			return nil, engine.WithCode(engine.ErrDuplicateColumn, fmt.Errorf("%w: %q", errDupName, c.Name))
		}
		index[c.Name] = i
		c.RowOffset = offset
		out[i] = c
		offset += c.Type.Kind.Width()
	}
	return &Schema{Columns: out, index: index}, nil
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.Columns) }

// ColumnIndex returns the index of name, case-sensitively.
func (s *Schema) ColumnIndex(name string) (int, error) {
	if idx, ok := s.index[name]; ok {
		return idx, nil
	}
	return -1, engine.WithCode(engine.ErrUnknownColumn, fmt.Errorf("%w: %q", errNoSuchCol, name))
}

// ColumnIndexCaseInsensitive looks a column up ignoring case - a
// convenience kept for parity with the teacher's unquoted-identifier
// lookup (database.TableSchema.LocateColumnCaseInsensitive); the
// case-sensitive ColumnIndex remains the schema's primary contract.
func (s *Schema) ColumnIndexCaseInsensitive(name string) (int, error) {
	lname := strings.ToLower(name)
	for i, c := range s.Columns {
		if strings.ToLower(c.Name) == lname {
			return i, nil
		}
	}
	return -1, engine.WithCode(engine.ErrUnknownColumn, fmt.Errorf("%w: %q", errNoSuchCol, name))
}

// Column returns the ColumnDef at idx.
func (s *Schema) Column(idx int) ColumnDef { return s.Columns[idx] }

// Names returns the ordered column names.
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether two schemas have the same column count, names,
// dtype kinds and nullability, in order - the contract an input Chunk
// must satisfy against a pipeline's declared input schema (spec ch. 6).
func (s *Schema) Equal(o *Schema) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i, c := range s.Columns {
		oc := o.Columns[i]
		if c.Name != oc.Name || c.Type.Kind != oc.Type.Kind || c.Type.Nullable != oc.Type.Nullable {
			return false
		}
	}
	return true
}

// With returns a new Schema with one additional trailing column - used
// by Transform to grow a schema as computed columns are appended.
func (s *Schema) With(def ColumnDef) (*Schema, error) {
	cols := make([]ColumnDef, 0, len(s.Columns)+1)
	cols = append(cols, s.Columns...)
	cols = append(cols, def)
	return NewSchema(cols...)
}

// Project returns a new Schema containing only the named columns, in the
// given order, optionally renamed via rename (a nil rename slice or an
// empty entry keeps the source name).
func (s *Schema) Project(sourceNames []string, rename []string) (*Schema, error) {
	cols := make([]ColumnDef, len(sourceNames))
	for i, name := range sourceNames {
		idx, err := s.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		col := s.Columns[idx]
		if rename != nil && rename[i] != "" {
			col.Name = rename[i]
		}
		cols[i] = col
	}
	return NewSchema(cols...)
}
