package expr

import (
	"math"
	"strconv"
	"strings"

	"github.com/kodekit/colexec/column"
	"github.com/kodekit/colexec/engine"
)

// CompiledValue evaluates an expression at one (chunk, row), returning
// the scalar result and whether it is non-null. Scalars are represented
// as int64 (signed integer kinds), uint64 (unsigned kinds), float64,
// bool or string - the boxed shapes column.ColumnBuffer.Value produces,
// except that strings are materialised where Value gives the dictionary
// index - so compiled values can feed straight into GroupBy key building
// and Aggregate's accumulate step.
type CompiledValue func(chunk *column.Chunk, row int) (any, bool)

// CompiledPredicate evaluates a boolean expression at one (chunk, row).
// Null operands collapse to false throughout (spec ch. 4.2, ch. 9).
type CompiledPredicate func(chunk *column.Chunk, row int) bool

// CompileValue specializes expr against schema into a CompiledValue,
// capturing resolved column indices rather than names (spec ch. 4.2).
// Grounded on the teacher's eval.go dispatch switch, generalized from a
// per-row re-dispatch into a one-time closure build - the teacher's own
// eval.go comments flag the repeated tree-walk as an unaddressed OPTIM,
// which compiling here resolves.
func CompileValue(e Expression, schema *column.Schema) (CompiledValue, column.DType, error) {
	info, err := Infer(e, schema)
	if err != nil {
		return nil, column.DType{}, err
	}
	fn, err := compileValue(e, schema, info)
	if err != nil {
		return nil, column.DType{}, err
	}
	return fn, info.Type, nil
}

func compileValue(e Expression, schema *column.Schema, info Info) (CompiledValue, error) {
	switch n := e.(type) {
	case *ColumnRef:
		idx, err := schema.ColumnIndex(n.Name)
		if err != nil {
			return nil, engine.WithCode(engine.ErrColumnNotFound, err)
		}
		kind := schema.Column(idx).Type.Kind
		if kind == column.KindString {
			return func(c *column.Chunk, row int) (any, bool) {
				return c.GetStringValue(idx, row)
			}, nil
		}
		return func(c *column.Chunk, row int) (any, bool) {
			if c.IsNull(idx, row) {
				return nil, false
			}
			return c.GetValue(idx, row), true
		}, nil

	case *LiteralValue:
		v := n.Value
		if v == nil {
			return func(*column.Chunk, int) (any, bool) { return nil, false }, nil
		}
		return func(*column.Chunk, int) (any, bool) { return v, true }, nil

	case *Arith:
		return compileArith(n, schema, info)

	case *Neg:
		inner, err := CompileValueUntyped(n.Inner, schema)
		if err != nil {
			return nil, err
		}
		isFloat := info.Type.Kind.IsFloat()
		return func(c *column.Chunk, row int) (any, bool) {
			v, ok := inner(c, row)
			if !ok {
				return nil, false
			}
			if isFloat {
				f, _ := toFloat64(v)
				return -f, true
			}
			i, _ := asInt64(v)
			return -i, true
		}, nil

	case *CastExpr:
		return compileCast(n, schema)

	case *CoalesceExpr:
		compiled := make([]CompiledValue, len(n.Operands))
		for i, op := range n.Operands {
			c, err := CompileValueUntyped(op, schema)
			if err != nil {
				return nil, err
			}
			compiled[i] = c
		}
		return func(c *column.Chunk, row int) (any, bool) {
			for _, fn := range compiled {
				if v, ok := fn(c, row); ok {
					return v, true
				}
			}
			return nil, false
		}, nil

	case *AliasExpr:
		return CompileValueUntyped(n.Inner, schema)

	case *NullIfExpr:
		a, err := CompileValueUntyped(n.A, schema)
		if err != nil {
			return nil, err
		}
		b, err := CompileValueUntyped(n.B, schema)
		if err != nil {
			return nil, err
		}
		return func(c *column.Chunk, row int) (any, bool) {
			av, aok := a(c, row)
			bv, bok := b(c, row)
			if aok && bok && scalarEqual(av, bv) {
				return nil, false
			}
			if !aok {
				return nil, false
			}
			return av, true
		}, nil

	case *RoundExpr:
		inner, err := CompileValueUntyped(n.Inner, schema)
		if err != nil {
			return nil, err
		}
		digits := n.Digits
		return func(c *column.Chunk, row int) (any, bool) {
			v, ok := inner(c, row)
			if !ok {
				return nil, false
			}
			f, _ := toFloat64(v)
			scale := math.Pow(10, float64(digits))
			return math.Round(f*scale) / scale, true
		}, nil

	case *Aggregation:
		return nil, engine.Errorf(engine.ErrInvalidExpression, "aggregations cannot be compiled as a row-wise value")
	}
	return nil, engine.Errorf(engine.ErrInvalidExpression, "unsupported value expression %T", e)
}

// CompileValueUntyped is CompileValue without returning the dtype -
// convenience for sub-expression compilation where the caller only needs
// the closure.
func CompileValueUntyped(e Expression, schema *column.Schema) (CompiledValue, error) {
	fn, _, err := CompileValue(e, schema)
	return fn, err
}

func compileArith(n *Arith, schema *column.Schema, info Info) (CompiledValue, error) {
	l, err := CompileValueUntyped(n.Left, schema)
	if err != nil {
		return nil, err
	}
	r, err := CompileValueUntyped(n.Right, schema)
	if err != nil {
		return nil, err
	}
	op := n.Op
	if info.Type.Kind.IsFloat() {
		return func(c *column.Chunk, row int) (any, bool) {
			lv, lok := l(c, row)
			rv, rok := r(c, row)
			if !lok || !rok {
				return nil, false
			}
			lf, _ := toFloat64(lv)
			rf, _ := toFloat64(rv)
			switch op {
			case OpAdd:
				return lf + rf, true
			case OpSub:
				return lf - rf, true
			case OpMul:
				return lf * rf, true
			case OpDiv:
				if rf == 0 {
					return nil, false
				}
				return lf / rf, true
			case OpMod:
				if rf == 0 {
					return nil, false
				}
				return math.Mod(lf, rf), true
			}
			return nil, false
		}, nil
	}
	if info.Type.Kind.IsUnsigned() {
		return func(c *column.Chunk, row int) (any, bool) {
			lv, lok := l(c, row)
			rv, rok := r(c, row)
			if !lok || !rok {
				return nil, false
			}
			lu, _ := asUint64(lv)
			ru, _ := asUint64(rv)
			switch op {
			case OpAdd:
				return lu + ru, true
			case OpSub:
				return lu - ru, true
			case OpMul:
				return lu * ru, true
			case OpDiv:
				if ru == 0 {
					return nil, false
				}
				return lu / ru, true
			case OpMod:
				if ru == 0 {
					return nil, false
				}
				return lu % ru, true
			}
			return nil, false
		}, nil
	}
	return func(c *column.Chunk, row int) (any, bool) {
		lv, lok := l(c, row)
		rv, rok := r(c, row)
		if !lok || !rok {
			return nil, false
		}
		li, _ := asInt64(lv)
		ri, _ := asInt64(rv)
		switch op {
		case OpAdd:
			return li + ri, true
		case OpSub:
			return li - ri, true
		case OpMul:
			return li * ri, true
		case OpDiv:
			if ri == 0 {
				return nil, false
			}
			return li / ri, true
		case OpMod:
			if ri == 0 {
				return nil, false
			}
			return li % ri, true
		}
		return nil, false
	}, nil
}

func compileCast(n *CastExpr, schema *column.Schema) (CompiledValue, error) {
	inner, err := CompileValueUntyped(n.Inner, schema)
	if err != nil {
		return nil, err
	}
	target := n.Target
	return func(c *column.Chunk, row int) (any, bool) {
		v, ok := inner(c, row)
		if !ok {
			return nil, false
		}
		return convertScalar(v, target)
	}, nil
}

// convertScalar implements the expression-level (per-row) Cast
// conversion; integer targets truncate toward zero, string targets
// stringify, string sources parse and degrade to null on failure
// (spec ch. 4.2).
func convertScalar(v any, target column.DTypeKind) (any, bool) {
	if target == column.KindString {
		return stringifyScalar(v), true
	}
	if target == column.KindBool {
		switch x := v.(type) {
		case bool:
			return x, true
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, false
			}
			return b, true
		default:
			f, ok := toFloat64(v)
			return f != 0, ok
		}
	}
	if target == column.KindDate {
		if s, ok := v.(string); ok {
			days, err := column.ParseDate(s)
			if err != nil {
				return nil, false
			}
			return int64(days), true
		}
		f, ok := toFloat64(v)
		return int64(f), ok
	}
	if target == column.KindTimestamp {
		if s, ok := v.(string); ok {
			ms, err := column.ParseTimestamp(s)
			if err != nil {
				return nil, false
			}
			return ms, true
		}
		f, ok := toFloat64(v)
		return int64(f), ok
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		if target.IsFloat() {
			return f, true
		}
		if target.IsUnsigned() {
			return uint64(int64(f)), true
		}
		return int64(f), true
	}
	f, ok := toFloat64(v)
	if !ok {
		return nil, false
	}
	if target.IsFloat() {
		return f, true
	}
	if target.IsUnsigned() {
		return uint64(int64(f)), true
	}
	return int64(f), true
}

func stringifyScalar(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	return ""
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case float64:
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// asInt64 unboxes v as a signed 64-bit integer with no float64
// round-trip - used by the integer path of arithmetic/negation, where a
// statically-typed engine branches on dtype once at compile time rather
// than promoting every row through a lossy float64 intermediate (spec
// ch. 4.1: "the int64/uint64/timestamp path uses native 64-bit
// integers").
func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	}
	return 0, false
}

// asUint64 is asInt64's unsigned counterpart.
func asUint64(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case int64:
		return uint64(x), true
	}
	return 0, false
}

func scalarEqual(a, b any) bool {
	if ai, aok := a.(int64); aok {
		switch bv := b.(type) {
		case int64:
			return ai == bv
		case uint64:
			return ai >= 0 && uint64(ai) == bv
		}
	}
	if au, aok := a.(uint64); aok {
		switch bv := b.(type) {
		case uint64:
			return au == bv
		case int64:
			return bv >= 0 && au == uint64(bv)
		}
	}
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr || bIsStr {
		return aIsStr && bIsStr && as == bs
	}
	if af, aok := toFloat64(a); aok {
		if bf, bok := toFloat64(b); bok {
			return af == bf
		}
	}
	return false
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareScalars returns (cmp, ok): cmp is -1/0/1, ok is false if the
// values are not comparable (treated as a false predicate result by the
// caller). Strings compare lexicographically; int64/uint64 compare
// natively (no float64 intermediate, so values beyond 2^53 still order
// correctly); any other numeric mix (float, or a bare bool literal)
// falls back to a float64 comparison (spec ch. 4.2).
func compareScalars(a, b any) (int, bool) {
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr || bIsStr {
		if !aIsStr || !bIsStr {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	if ai, aok := a.(int64); aok {
		switch bv := b.(type) {
		case int64:
			return cmpInt64(ai, bv), true
		case uint64:
			if ai < 0 {
				return -1, true
			}
			return cmpUint64(uint64(ai), bv), true
		}
	}
	if au, aok := a.(uint64); aok {
		switch bv := b.(type) {
		case uint64:
			return cmpUint64(au, bv), true
		case int64:
			if bv < 0 {
				return 1, true
			}
			return cmpUint64(au, uint64(bv)), true
		}
	}
	af, aok := toFloat64(a)
	bf, bok := toFloat64(b)
	if !aok || !bok {
		return 0, false
	}
	return cmpFloat64(af, bf), true
}

// CompilePredicate specializes expr into a CompiledPredicate (spec
// ch. 4.2): comparisons, between, null checks, logical connectives and
// string tests, plus a bare boolean column/literal used directly as a
// filter condition.
func CompilePredicate(e Expression, schema *column.Schema) (CompiledPredicate, error) {
	switch n := e.(type) {
	case *Compare:
		l, err := CompileValueUntyped(n.Left, schema)
		if err != nil {
			return nil, err
		}
		r, err := CompileValueUntyped(n.Right, schema)
		if err != nil {
			return nil, err
		}
		op := n.Op
		return func(c *column.Chunk, row int) bool {
			lv, lok := l(c, row)
			rv, rok := r(c, row)
			if !lok || !rok {
				return false
			}
			if op == OpEq || op == OpNeq {
				eq := scalarEqual(lv, rv)
				if op == OpEq {
					return eq
				}
				return !eq
			}
			cmp, ok := compareScalars(lv, rv)
			if !ok {
				return false
			}
			switch op {
			case OpLt:
				return cmp < 0
			case OpLte:
				return cmp <= 0
			case OpGt:
				return cmp > 0
			case OpGte:
				return cmp >= 0
			}
			return false
		}, nil

	case *Between:
		v, err := CompileValueUntyped(n.Value, schema)
		if err != nil {
			return nil, err
		}
		lo, err := CompileValueUntyped(n.Low, schema)
		if err != nil {
			return nil, err
		}
		hi, err := CompileValueUntyped(n.High, schema)
		if err != nil {
			return nil, err
		}
		return func(c *column.Chunk, row int) bool {
			vv, vok := v(c, row)
			lv, lok := lo(c, row)
			hv, hok := hi(c, row)
			if !vok || !lok || !hok {
				return false
			}
			cl, ok := compareScalars(vv, lv)
			if !ok || cl < 0 {
				return false
			}
			ch, ok := compareScalars(vv, hv)
			if !ok || ch > 0 {
				return false
			}
			return true
		}, nil

	case *NullCheck:
		if ref, ok := n.Inner.(*ColumnRef); ok {
			idx, err := schema.ColumnIndex(ref.Name)
			if err != nil {
				return nil, engine.WithCode(engine.ErrColumnNotFound, err)
			}
			not := n.Not
			return func(c *column.Chunk, row int) bool {
				null := c.IsNull(idx, row)
				if not {
					return !null
				}
				return null
			}, nil
		}
		inner, err := CompileValueUntyped(n.Inner, schema)
		if err != nil {
			return nil, err
		}
		not := n.Not
		return func(c *column.Chunk, row int) bool {
			_, ok := inner(c, row)
			if not {
				return ok
			}
			return !ok
		}, nil

	case *And:
		preds := make([]CompiledPredicate, len(n.Operands))
		for i, op := range n.Operands {
			p, err := CompilePredicate(op, schema)
			if err != nil {
				return nil, err
			}
			preds[i] = p
		}
		return func(c *column.Chunk, row int) bool {
			for _, p := range preds {
				if !p(c, row) {
					return false
				}
			}
			return true
		}, nil

	case *Or:
		preds := make([]CompiledPredicate, len(n.Operands))
		for i, op := range n.Operands {
			p, err := CompilePredicate(op, schema)
			if err != nil {
				return nil, err
			}
			preds[i] = p
		}
		return func(c *column.Chunk, row int) bool {
			for _, p := range preds {
				if p(c, row) {
					return true
				}
			}
			return false
		}, nil

	case *Not:
		inner, err := CompilePredicate(n.Inner, schema)
		if err != nil {
			return nil, err
		}
		return func(c *column.Chunk, row int) bool { return !inner(c, row) }, nil

	case *StringTest:
		ref, ok := n.Inner.(*ColumnRef)
		if !ok {
			return nil, engine.Errorf(engine.ErrInvalidExpression, "string predicates require a column reference")
		}
		idx, err := schema.ColumnIndex(ref.Name)
		if err != nil {
			return nil, engine.WithCode(engine.ErrColumnNotFound, err)
		}
		pattern := n.Pattern
		op := n.Op
		return func(c *column.Chunk, row int) bool {
			s, ok := c.GetStringValue(idx, row)
			if !ok {
				return false
			}
			switch op {
			case OpContains:
				return strings.Contains(s, pattern)
			case OpStartsWith:
				return strings.HasPrefix(s, pattern)
			case OpEndsWith:
				return strings.HasSuffix(s, pattern)
			}
			return false
		}, nil

	case *ColumnRef:
		idx, err := schema.ColumnIndex(n.Name)
		if err != nil {
			return nil, engine.WithCode(engine.ErrColumnNotFound, err)
		}
		if schema.Column(idx).Type.Kind != column.KindBool {
			return nil, engine.Errorf(engine.ErrTypeIncompatible, "column %s is not boolean", n.Name)
		}
		return func(c *column.Chunk, row int) bool {
			if c.IsNull(idx, row) {
				return false
			}
			return c.GetValue(idx, row).(bool)
		}, nil

	case *LiteralValue:
		if n.Value == nil {
			return func(*column.Chunk, int) bool { return false }, nil
		}
		b, ok := n.Value.(bool)
		if !ok {
			return nil, engine.Errorf(engine.ErrTypeIncompatible, "literal predicate must be boolean")
		}
		return func(*column.Chunk, int) bool { return b }, nil
	}
	return nil, engine.Errorf(engine.ErrInvalidExpression, "unsupported predicate expression %T", e)
}
