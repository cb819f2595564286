// Package expr implements the expression subsystem: an immutable AST,
// a type-inference pass, and a compiler turning a validated tree into
// per-row closures bound to a concrete schema. Grounded on the
// teacher's query/expr package (expression.go's Expression interface,
// types.go's per-node-kind structs), generalised from its
// parser-produced Identifier/Integer/Float/Bool/Function/Infix/Prefix
// shape into the fixed node-variant list this engine's type system
// needs (no string parser here - trees are built via the constructor
// factories below).
package expr

import "github.com/kodekit/colexec/column"

// Expression is the common interface implemented by every AST node.
type Expression interface {
	Children() []Expression
}

// ColumnRef references a schema column by name.
type ColumnRef struct {
	Name string
}

func Col(name string) *ColumnRef { return &ColumnRef{Name: name} }

func (e *ColumnRef) Children() []Expression { return nil }

// LiteralValue is a constant. Value holds an int64, float64, string,
// bool, or nil (a typed null). Hint, if non-nil, overrides the
// inference default for the literal's Go type.
type LiteralValue struct {
	Value any
	Hint  *column.DType
}

func Lit(v any) *LiteralValue { return &LiteralValue{Value: v} }

func LitHint(v any, hint column.DType) *LiteralValue {
	return &LiteralValue{Value: v, Hint: &hint}
}

func (e *LiteralValue) Children() []Expression { return nil }

// CompareOp enumerates the comparison operators.
type CompareOp int

const (
	OpEq CompareOp = iota
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
)

// Compare is a binary comparison node.
type Compare struct {
	Op          CompareOp
	Left, Right Expression
}

func Eq(l, r Expression) *Compare  { return &Compare{Op: OpEq, Left: l, Right: r} }
func Neq(l, r Expression) *Compare { return &Compare{Op: OpNeq, Left: l, Right: r} }
func Lt(l, r Expression) *Compare  { return &Compare{Op: OpLt, Left: l, Right: r} }
func Lte(l, r Expression) *Compare { return &Compare{Op: OpLte, Left: l, Right: r} }
func Gt(l, r Expression) *Compare  { return &Compare{Op: OpGt, Left: l, Right: r} }
func Gte(l, r Expression) *Compare { return &Compare{Op: OpGte, Left: l, Right: r} }

func (e *Compare) Children() []Expression { return []Expression{e.Left, e.Right} }

// Between is `Value BETWEEN Low AND High`.
type Between struct {
	Value, Low, High Expression
}

func NewBetween(v, lo, hi Expression) *Between { return &Between{Value: v, Low: lo, High: hi} }

func (e *Between) Children() []Expression { return []Expression{e.Value, e.Low, e.High} }

// NullCheck is IsNull (Not=false) or IsNotNull (Not=true).
type NullCheck struct {
	Inner Expression
	Not   bool
}

func IsNull(e Expression) *NullCheck    { return &NullCheck{Inner: e, Not: false} }
func IsNotNull(e Expression) *NullCheck { return &NullCheck{Inner: e, Not: true} }

func (e *NullCheck) Children() []Expression { return []Expression{e.Inner} }

// And is an n-ary conjunction.
type And struct{ Operands []Expression }

func NewAnd(ops ...Expression) *And { return &And{Operands: ops} }

func (e *And) Children() []Expression { return e.Operands }

// Or is an n-ary disjunction.
type Or struct{ Operands []Expression }

func NewOr(ops ...Expression) *Or { return &Or{Operands: ops} }

func (e *Or) Children() []Expression { return e.Operands }

// Not negates a boolean expression.
type Not struct{ Inner Expression }

func NewNot(e Expression) *Not { return &Not{Inner: e} }

func (e *Not) Children() []Expression { return []Expression{e.Inner} }

// ArithOp enumerates the arithmetic operators.
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
)

// Arith is a binary arithmetic node.
type Arith struct {
	Op          ArithOp
	Left, Right Expression
}

func Add(l, r Expression) *Arith { return &Arith{Op: OpAdd, Left: l, Right: r} }
func Sub(l, r Expression) *Arith { return &Arith{Op: OpSub, Left: l, Right: r} }
func Mul(l, r Expression) *Arith { return &Arith{Op: OpMul, Left: l, Right: r} }
func Div(l, r Expression) *Arith { return &Arith{Op: OpDiv, Left: l, Right: r} }
func Mod(l, r Expression) *Arith { return &Arith{Op: OpMod, Left: l, Right: r} }

func (e *Arith) Children() []Expression { return []Expression{e.Left, e.Right} }

// Neg negates a numeric expression.
type Neg struct{ Inner Expression }

func NewNeg(e Expression) *Neg { return &Neg{Inner: e} }

func (e *Neg) Children() []Expression { return []Expression{e.Inner} }

// StringOp enumerates the string predicate tests.
type StringOp int

const (
	OpContains StringOp = iota
	OpStartsWith
	OpEndsWith
)

// StringTest is a string predicate: Inner must be a column reference;
// Pattern is a literal string (spec ch. 4.1).
type StringTest struct {
	Op      StringOp
	Inner   Expression
	Pattern string
}

func Contains(e Expression, pattern string) *StringTest {
	return &StringTest{Op: OpContains, Inner: e, Pattern: pattern}
}
func StartsWith(e Expression, pattern string) *StringTest {
	return &StringTest{Op: OpStartsWith, Inner: e, Pattern: pattern}
}
func EndsWith(e Expression, pattern string) *StringTest {
	return &StringTest{Op: OpEndsWith, Inner: e, Pattern: pattern}
}

func (e *StringTest) Children() []Expression { return []Expression{e.Inner} }

// AggOp enumerates the aggregation functions.
type AggOp int

const (
	AggSum AggOp = iota
	AggAvg
	AggMin
	AggMax
	AggFirst
	AggLast
	AggCount
)

// Aggregation is Sum/Avg/Min/Max/First/Last/Count(expr|*). Inner is nil
// for Count(*).
type Aggregation struct {
	Op    AggOp
	Inner Expression
}

func Sum(e Expression) *Aggregation   { return &Aggregation{Op: AggSum, Inner: e} }
func Avg(e Expression) *Aggregation   { return &Aggregation{Op: AggAvg, Inner: e} }
func Min(e Expression) *Aggregation   { return &Aggregation{Op: AggMin, Inner: e} }
func Max(e Expression) *Aggregation   { return &Aggregation{Op: AggMax, Inner: e} }
func First(e Expression) *Aggregation { return &Aggregation{Op: AggFirst, Inner: e} }
func Last(e Expression) *Aggregation  { return &Aggregation{Op: AggLast, Inner: e} }
func Count(e Expression) *Aggregation { return &Aggregation{Op: AggCount, Inner: e} }
func CountAll() *Aggregation          { return &Aggregation{Op: AggCount, Inner: nil} }

func (e *Aggregation) Children() []Expression {
	if e.Inner == nil {
		return nil
	}
	return []Expression{e.Inner}
}

// CastExpr converts Inner to Target at runtime.
type CastExpr struct {
	Inner  Expression
	Target column.DTypeKind
}

func Cast(e Expression, target column.DTypeKind) *CastExpr {
	return &CastExpr{Inner: e, Target: target}
}

func (e *CastExpr) Children() []Expression { return []Expression{e.Inner} }

// CoalesceExpr returns the first non-null operand.
type CoalesceExpr struct{ Operands []Expression }

func Coalesce(ops ...Expression) *CoalesceExpr { return &CoalesceExpr{Operands: ops} }

func (e *CoalesceExpr) Children() []Expression { return e.Operands }

// AliasExpr renames Inner's output column.
type AliasExpr struct {
	Inner Expression
	Name  string
}

func Alias(e Expression, name string) *AliasExpr { return &AliasExpr{Inner: e, Name: name} }

func (e *AliasExpr) Children() []Expression { return []Expression{e.Inner} }

// NullIfExpr returns null where A == B, else A's value (supplemented
// function restored from the teacher's column/functions.go "nullif").
type NullIfExpr struct{ A, B Expression }

func NullIf(a, b Expression) *NullIfExpr { return &NullIfExpr{A: a, B: b} }

func (e *NullIfExpr) Children() []Expression { return []Expression{e.A, e.B} }

// RoundExpr rounds a float to Digits decimal places (supplemented
// function restored from the teacher's "round").
type RoundExpr struct {
	Inner  Expression
	Digits int
}

func Round(e Expression, digits int) *RoundExpr { return &RoundExpr{Inner: e, Digits: digits} }

func (e *RoundExpr) Children() []Expression { return []Expression{e.Inner} }
