package operator

import (
	"github.com/kodekit/colexec/column"
	"github.com/kodekit/colexec/engine"
	"github.com/kodekit/colexec/expr"
)

// TransformColumn names one computed output column: Name is the new
// column's name, Expr the expression producing its values.
type TransformColumn struct {
	Name string
	Expr expr.Expression
}

// Transform computes new columns and appends them to the input chunk
// (spec ch. 4.4.3). Each new column's expression is compiled against the
// progressively growing schema, so a later column may reference an
// earlier one in the same Transform.
type Transform struct {
	inputSchema  *column.Schema
	outputSchema *column.Schema
	compiled     []expr.CompiledValue
	names        []string
	types        []column.DType
}

// NewTransform compiles each spec's expression in order, growing schema
// with each new column before compiling the next.
func NewTransform(specs []TransformColumn, inputSchema *column.Schema) (*Transform, error) {
	schema := inputSchema
	compiled := make([]expr.CompiledValue, len(specs))
	names := make([]string, len(specs))
	types := make([]column.DType, len(specs))
	for i, spec := range specs {
		fn, dtype, err := expr.CompileValue(spec.Expr, schema)
		if err != nil {
			return nil, err
		}
		compiled[i] = fn
		names[i] = spec.Name
		types[i] = dtype
		next, err := schema.With(column.ColumnDef{Name: spec.Name, Type: dtype})
		if err != nil {
			return nil, err
		}
		schema = next
	}
	return &Transform{inputSchema: inputSchema, outputSchema: schema, compiled: compiled, names: names, types: types}, nil
}

func (t *Transform) Name() string                 { return "transform" }
func (t *Transform) OutputSchema() *column.Schema { return t.outputSchema }

func (t *Transform) Process(chunk *column.Chunk) (OperatorResult, error) {
	dense, err := chunk.Materialize()
	if err != nil {
		return OperatorResult{}, err
	}
	n := dense.Len()
	baseCols := make([]*column.ColumnBuffer, dense.NumColumns())
	for i := 0; i < dense.NumColumns(); i++ {
		baseCols[i] = dense.Column(i)
	}
	dict := dense.Dictionary()
	newCols := make([]*column.ColumnBuffer, len(t.compiled))
	cur := dense
	for i, fn := range t.compiled {
		buf, err := column.NewColumnBuffer(t.types[i].Kind, true, n)
		if err != nil {
			return OperatorResult{}, err
		}
		for row := 0; row < n; row++ {
			v, ok := fn(cur, row)
			if err := appendScalar(buf, t.types[i].Kind, v, ok, dict); err != nil {
				return OperatorResult{}, err
			}
		}
		newCols[i] = buf
		if i+1 < len(t.compiled) {
			// the next expression was compiled against the schema grown by
			// every column computed so far, so evaluate it on that chunk
			partial, err := column.NewSchema(t.outputSchema.Columns[:len(baseCols)+i+1]...)
			if err != nil {
				return OperatorResult{}, err
			}
			cols := append(append([]*column.ColumnBuffer{}, baseCols...), newCols[:i+1]...)
			if cur, err = column.NewChunkFromColumns(partial, dict, cols); err != nil {
				return OperatorResult{}, err
			}
		}
	}
	out, err := column.NewChunkFromColumns(t.outputSchema, dict, append(baseCols, newCols...))
	if err != nil {
		return OperatorResult{}, err
	}
	return OperatorResult{Chunk: out}, nil
}

func (t *Transform) Finish() (OperatorResult, error) { return OperatorResult{}, nil }

func (t *Transform) Reset() {}

// appendScalar writes a CompiledValue result into buf, interning
// strings into dict. Shared by Transform and Aggregate/GroupBy
// finalization.
func appendScalar(buf *column.ColumnBuffer, kind column.DTypeKind, v any, ok bool, dict *column.Dictionary) error {
	if !ok {
		return buf.AppendNull()
	}
	switch kind {
	case column.KindString:
		s, _ := v.(string)
		return buf.AppendStringIndex(dict.Intern([]byte(s)))
	case column.KindBool:
		b, _ := v.(bool)
		return buf.AppendBool(b)
	default:
		if kind.IsUnsigned() {
			switch x := v.(type) {
			case uint64:
				return buf.AppendUint(x)
			case int64:
				return buf.AppendUint(uint64(x))
			case float64:
				return buf.AppendUint(uint64(x))
			}
			return engine.Errorf(engine.ErrTypeMismatch, "cannot append %T to %v buffer", v, kind)
		}
		if kind.IsFloat() {
			switch x := v.(type) {
			case float64:
				return buf.AppendFloat(x)
			case int64:
				return buf.AppendFloat(float64(x))
			case uint64:
				return buf.AppendFloat(float64(x))
			}
			return engine.Errorf(engine.ErrTypeMismatch, "cannot append %T to %v buffer", v, kind)
		}
		switch x := v.(type) {
		case int64:
			return buf.AppendInt(x)
		case uint64:
			return buf.AppendInt(int64(x))
		case float64:
			return buf.AppendInt(int64(x))
		}
		return engine.Errorf(engine.ErrTypeMismatch, "cannot append %T to %v buffer", v, kind)
	}
}
