package expr

import (
	"github.com/kodekit/colexec/column"
	"github.com/kodekit/colexec/engine"
)

// Info is the result of type inference: a result dtype plus whether the
// expression is an aggregation (spec ch. 4.1: "(dtype, is_aggregate)").
type Info struct {
	Type      column.DType
	Aggregate bool
}

// Infer walks expr against schema and produces its (dtype, is_aggregate)
// pair, grounded on the teacher's ReturnType methods (expr/types.go) -
// generalised from the teacher's parser-bound node set to this engine's
// fixed AST variant list.
func Infer(e Expression, schema *column.Schema) (Info, error) {
	switch n := e.(type) {
	case *ColumnRef:
		idx, err := schema.ColumnIndex(n.Name)
		if err != nil {
			return Info{}, engine.WithCode(engine.ErrColumnNotFound, err)
		}
		return Info{Type: schema.Column(idx).Type}, nil

	case *LiteralValue:
		return inferLiteral(n)

	case *Compare:
		l, err := Infer(n.Left, schema)
		if err != nil {
			return Info{}, err
		}
		r, err := Infer(n.Right, schema)
		if err != nil {
			return Info{}, err
		}
		if !comparable(l.Type.Kind, r.Type.Kind) {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "cannot compare %v and %v", l.Type.Kind, r.Type.Kind)
		}
		return Info{Type: column.DType{Kind: column.KindBool}, Aggregate: l.Aggregate || r.Aggregate}, nil

	case *Between:
		v, err := Infer(n.Value, schema)
		if err != nil {
			return Info{}, err
		}
		lo, err := Infer(n.Low, schema)
		if err != nil {
			return Info{}, err
		}
		hi, err := Infer(n.High, schema)
		if err != nil {
			return Info{}, err
		}
		if !comparable(v.Type.Kind, lo.Type.Kind) || !comparable(v.Type.Kind, hi.Type.Kind) {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "between operands are not comparable")
		}
		return Info{Type: column.DType{Kind: column.KindBool}, Aggregate: v.Aggregate || lo.Aggregate || hi.Aggregate}, nil

	case *NullCheck:
		inner, err := Infer(n.Inner, schema)
		if err != nil {
			return Info{}, err
		}
		return Info{Type: column.DType{Kind: column.KindBool}, Aggregate: inner.Aggregate}, nil

	case *And:
		return inferBoolNary(n.Operands, schema)
	case *Or:
		return inferBoolNary(n.Operands, schema)

	case *Not:
		inner, err := Infer(n.Inner, schema)
		if err != nil {
			return Info{}, err
		}
		if inner.Type.Kind != column.KindBool {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "NOT requires a boolean operand")
		}
		return Info{Type: column.DType{Kind: column.KindBool, Nullable: inner.Type.Nullable}, Aggregate: inner.Aggregate}, nil

	case *Arith:
		l, err := Infer(n.Left, schema)
		if err != nil {
			return Info{}, err
		}
		r, err := Infer(n.Right, schema)
		if err != nil {
			return Info{}, err
		}
		if !l.Type.Kind.IsNumeric() || !r.Type.Kind.IsNumeric() {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "arithmetic requires numeric operands, got %v and %v", l.Type.Kind, r.Type.Kind)
		}
		result := promoteNumeric(l.Type.Kind, r.Type.Kind)
		nullable := l.Type.Nullable || r.Type.Nullable
		if n.Op == OpDiv || n.Op == OpMod {
			nullable = true // division/modulo by zero degrades to null (spec ch. 7)
		}
		return Info{Type: column.DType{Kind: result, Nullable: nullable}, Aggregate: l.Aggregate || r.Aggregate}, nil

	case *Neg:
		inner, err := Infer(n.Inner, schema)
		if err != nil {
			return Info{}, err
		}
		if !inner.Type.Kind.IsNumeric() {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "NEG requires a numeric operand")
		}
		return inner, nil

	case *StringTest:
		ref, ok := n.Inner.(*ColumnRef)
		if !ok {
			return Info{}, engine.Errorf(engine.ErrInvalidExpression, "string predicates require a column reference")
		}
		inner, err := Infer(ref, schema)
		if err != nil {
			return Info{}, err
		}
		if inner.Type.Kind != column.KindString {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "string predicate on non-string column %s", ref.Name)
		}
		return Info{Type: column.DType{Kind: column.KindBool, Nullable: inner.Type.Nullable}}, nil

	case *Aggregation:
		return inferAggregation(n, schema)

	case *CastExpr:
		inner, err := Infer(n.Inner, schema)
		if err != nil {
			return Info{}, err
		}
		nullable := inner.Type.Nullable
		if inner.Type.Kind == column.KindString && n.Target != column.KindString {
			nullable = true // string->X casts can fail to parse (spec ch. 4.3)
		}
		return Info{Type: column.DType{Kind: n.Target, Nullable: nullable}, Aggregate: inner.Aggregate}, nil

	case *CoalesceExpr:
		return inferCoalesce(n, schema)

	case *AliasExpr:
		return Infer(n.Inner, schema)

	case *NullIfExpr:
		a, err := Infer(n.A, schema)
		if err != nil {
			return Info{}, err
		}
		b, err := Infer(n.B, schema)
		if err != nil {
			return Info{}, err
		}
		if !comparable(a.Type.Kind, b.Type.Kind) {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "nullif operands are not comparable")
		}
		return Info{Type: column.DType{Kind: a.Type.Kind, Nullable: true}, Aggregate: a.Aggregate || b.Aggregate}, nil

	case *RoundExpr:
		inner, err := Infer(n.Inner, schema)
		if err != nil {
			return Info{}, err
		}
		if !inner.Type.Kind.IsNumeric() {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "round requires a numeric operand")
		}
		return Info{Type: column.DType{Kind: column.KindFloat64, Nullable: inner.Type.Nullable}, Aggregate: inner.Aggregate}, nil
	}
	return Info{}, engine.Errorf(engine.ErrInvalidExpression, "unrecognized expression node %T", e)
}

func inferBoolNary(ops []Expression, schema *column.Schema) (Info, error) {
	nullable := false
	aggregate := false
	for _, op := range ops {
		info, err := Infer(op, schema)
		if err != nil {
			return Info{}, err
		}
		if info.Type.Kind != column.KindBool {
			return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "AND/OR operands must be boolean")
		}
		nullable = nullable || info.Type.Nullable
		aggregate = aggregate || info.Aggregate
	}
	return Info{Type: column.DType{Kind: column.KindBool, Nullable: nullable}, Aggregate: aggregate}, nil
}

func inferLiteral(n *LiteralValue) (Info, error) {
	if n.Hint != nil {
		return Info{Type: *n.Hint}, nil
	}
	switch v := n.Value.(type) {
	case nil:
		return Info{Type: column.DType{Kind: column.KindInt32, Nullable: true}}, nil
	case int:
		return inferIntLiteral(int64(v)), nil
	case int32:
		return inferIntLiteral(int64(v)), nil
	case int64:
		return inferIntLiteral(v), nil
	case float32:
		return Info{Type: column.DType{Kind: column.KindFloat64}}, nil
	case float64:
		return Info{Type: column.DType{Kind: column.KindFloat64}}, nil
	case string:
		return Info{Type: column.DType{Kind: column.KindString}}, nil
	case bool:
		return Info{Type: column.DType{Kind: column.KindBool}}, nil
	}
	return Info{}, engine.Errorf(engine.ErrInvalidExpression, "unsupported literal value type %T", n.Value)
}

func inferIntLiteral(v int64) Info {
	if v >= -(1<<31) && v < (1<<31) {
		return Info{Type: column.DType{Kind: column.KindInt32}}
	}
	return Info{Type: column.DType{Kind: column.KindInt64}}
}

func inferAggregation(n *Aggregation, schema *column.Schema) (Info, error) {
	if n.Inner != nil {
		if agg, ok := n.Inner.(*Aggregation); ok {
			_ = agg
			return Info{}, engine.Errorf(engine.ErrInvalidAggregation, "cannot nest aggregations")
		}
	}
	switch n.Op {
	case AggCount:
		return Info{Type: column.DType{Kind: column.KindInt64}, Aggregate: true}, nil
	case AggSum, AggAvg:
		if n.Inner == nil {
			return Info{}, engine.Errorf(engine.ErrInvalidAggregation, "sum/avg require an argument")
		}
		inner, err := Infer(n.Inner, schema)
		if err != nil {
			return Info{}, err
		}
		if !inner.Type.Kind.IsNumeric() {
			return Info{}, engine.Errorf(engine.ErrInvalidAggregation, "sum/avg require a numeric argument")
		}
		return Info{Type: column.DType{Kind: column.KindFloat64, Nullable: true}, Aggregate: true}, nil
	case AggMin, AggMax, AggFirst, AggLast:
		if n.Inner == nil {
			return Info{}, engine.Errorf(engine.ErrInvalidAggregation, "min/max/first/last require an argument")
		}
		inner, err := Infer(n.Inner, schema)
		if err != nil {
			return Info{}, err
		}
		return Info{Type: column.DType{Kind: inner.Type.Kind, Nullable: true}, Aggregate: true}, nil
	}
	return Info{}, engine.Errorf(engine.ErrInvalidAggregation, "unrecognized aggregation")
}

func inferCoalesce(n *CoalesceExpr, schema *column.Schema) (Info, error) {
	if len(n.Operands) == 0 {
		return Info{}, engine.Errorf(engine.ErrInvalidExpression, "coalesce requires at least one operand")
	}
	first, err := Infer(n.Operands[0], schema)
	if err != nil {
		return Info{}, err
	}
	candidate := first.Type.Kind
	nullable := first.Type.Nullable
	aggregate := first.Aggregate
	for _, op := range n.Operands[1:] {
		info, err := Infer(op, schema)
		if err != nil {
			return Info{}, err
		}
		aggregate = aggregate || info.Aggregate
		if !info.Type.Nullable {
			nullable = false
		}
		if info.Type.Kind == candidate {
			continue
		}
		if info.Type.Kind.IsNumeric() && candidate.IsNumeric() {
			candidate = promoteNumeric(candidate, info.Type.Kind)
			continue
		}
		return Info{}, engine.Errorf(engine.ErrTypeIncompatible, "coalesce operands do not unify: %v vs %v", candidate, info.Type.Kind)
	}
	return Info{Type: column.DType{Kind: candidate, Nullable: nullable}, Aggregate: aggregate}, nil
}

// comparable mirrors the teacher's comparableTypes (expr/expression.go),
// generalised from int/float-only to the full numeric kind set.
func comparable(a, b column.DTypeKind) bool {
	if a == b {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return false
}

// promoteNumeric implements the arithmetic promotion ladder (spec
// ch. 4.1): float64 beats float32 beats 64-bit beats 32-bit beats
// 16-bit; two 8-bit operands promote to int16 to avoid overflow.
func promoteNumeric(a, b column.DTypeKind) column.DTypeKind {
	if a == column.KindFloat64 || b == column.KindFloat64 {
		return column.KindFloat64
	}
	if a == column.KindFloat32 || b == column.KindFloat32 {
		return column.KindFloat32
	}
	if is64bit(a) || is64bit(b) {
		if a.IsUnsigned() && b.IsUnsigned() {
			return column.KindUint64
		}
		return column.KindInt64
	}
	if is32bit(a) || is32bit(b) {
		if a.IsUnsigned() && b.IsUnsigned() {
			return column.KindUint32
		}
		return column.KindInt32
	}
	if is16bit(a) || is16bit(b) {
		if a.IsUnsigned() && b.IsUnsigned() {
			return column.KindUint16
		}
		return column.KindInt16
	}
	return column.KindInt16
}

func is64bit(k column.DTypeKind) bool { return k == column.KindInt64 || k == column.KindUint64 }
func is32bit(k column.DTypeKind) bool { return k == column.KindInt32 || k == column.KindUint32 }
func is16bit(k column.DTypeKind) bool { return k == column.KindInt16 || k == column.KindUint16 }
