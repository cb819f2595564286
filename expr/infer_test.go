package expr

import (
	"testing"

	"github.com/kodekit/colexec/column"
)

func testSchema(t *testing.T) *column.Schema {
	t.Helper()
	schema, err := column.NewSchema(
		column.ColumnDef{Name: "id", Type: column.DType{Kind: column.KindInt32}},
		column.ColumnDef{Name: "amount", Type: column.DType{Kind: column.KindFloat64, Nullable: true}},
		column.ColumnDef{Name: "name", Type: column.DType{Kind: column.KindString, Nullable: true}},
		column.ColumnDef{Name: "active", Type: column.DType{Kind: column.KindBool}},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema
}

func TestInferColumnRef(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(Col("amount"), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.Type.Kind != column.KindFloat64 || !info.Type.Nullable {
		t.Errorf("unexpected type for amount: %+v", info.Type)
	}
}

func TestInferColumnRefUnknown(t *testing.T) {
	schema := testSchema(t)
	if _, err := Infer(Col("missing"), schema); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestInferCompareNumeric(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(Gt(Col("id"), Lit(int64(5))), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.Type.Kind != column.KindBool {
		t.Errorf("Compare should infer bool, got %v", info.Type.Kind)
	}
}

func TestInferCompareIncompatible(t *testing.T) {
	schema := testSchema(t)
	if _, err := Infer(Eq(Col("name"), Col("id")), schema); err == nil {
		t.Fatalf("expected incompatible-type error comparing string to int")
	}
}

func TestInferArithPromotion(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(Add(Col("id"), Lit(1.5)), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.Type.Kind != column.KindFloat64 {
		t.Errorf("int32+float64 should promote to float64, got %v", info.Type.Kind)
	}
}

func TestInferArithDivIsNullable(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(Div(Col("id"), Lit(int64(2))), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !info.Type.Nullable {
		t.Errorf("division result should be nullable (divide by zero degrades to null)")
	}
}

func TestInferArithNonNumericErrors(t *testing.T) {
	schema := testSchema(t)
	if _, err := Infer(Add(Col("name"), Lit(int64(1))), schema); err == nil {
		t.Fatalf("expected error adding a string")
	}
}

func TestInferAndOr(t *testing.T) {
	schema := testSchema(t)
	expr := NewAnd(Gt(Col("id"), Lit(int64(0))), Col("active"))
	// expr uses active as a bare bool column operand; expr2 wraps it in a Compare.
	expr2 := NewAnd(Gt(Col("id"), Lit(int64(0))), Eq(Col("active"), Lit(true)))
	if _, err := Infer(expr, schema); err != nil {
		t.Fatalf("Infer(AND with bool column): %v", err)
	}
	info, err := Infer(expr2, schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.Type.Kind != column.KindBool {
		t.Errorf("AND should infer bool")
	}
}

func TestInferAggregationSum(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(Sum(Col("amount")), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !info.Aggregate {
		t.Errorf("Sum should be marked aggregate")
	}
	if info.Type.Kind != column.KindFloat64 {
		t.Errorf("Sum should infer float64, got %v", info.Type.Kind)
	}
}

func TestInferAggregationCountAll(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(CountAll(), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !info.Aggregate || info.Type.Kind != column.KindInt64 {
		t.Errorf("CountAll should infer aggregate int64, got %+v", info)
	}
}

func TestInferAggregationNestedRejected(t *testing.T) {
	schema := testSchema(t)
	if _, err := Infer(Sum(Sum(Col("amount"))), schema); err == nil {
		t.Fatalf("expected error for nested aggregation")
	}
}

func TestInferCastNullableForStringSource(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(Cast(Col("name"), column.KindInt32), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !info.Type.Nullable {
		t.Errorf("string->int32 cast should be nullable (may fail to parse)")
	}
}

func TestInferCoalesceUnifiesNumeric(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(Coalesce(Col("id"), Lit(1.5)), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.Type.Kind != column.KindFloat64 {
		t.Errorf("coalesce(int32, float64) should unify to float64, got %v", info.Type.Kind)
	}
}

func TestInferCoalesceRejectsIncompatible(t *testing.T) {
	schema := testSchema(t)
	if _, err := Infer(Coalesce(Col("id"), Col("name")), schema); err == nil {
		t.Fatalf("expected error unifying int32 with string in coalesce")
	}
}

func TestInferRoundRequiresNumeric(t *testing.T) {
	schema := testSchema(t)
	if _, err := Infer(Round(Col("name"), 2), schema); err == nil {
		t.Fatalf("expected error rounding a string column")
	}
	info, err := Infer(Round(Col("amount"), 2), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if info.Type.Kind != column.KindFloat64 {
		t.Errorf("Round should infer float64, got %v", info.Type.Kind)
	}
}

func TestInferNullIf(t *testing.T) {
	schema := testSchema(t)
	info, err := Infer(NullIf(Col("id"), Lit(int64(0))), schema)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if !info.Type.Nullable {
		t.Errorf("NullIf should always produce a nullable result")
	}
}

func TestPromoteNumericLadder(t *testing.T) {
	cases := []struct {
		a, b, want column.DTypeKind
	}{
		{column.KindFloat64, column.KindInt32, column.KindFloat64},
		{column.KindInt64, column.KindInt32, column.KindInt64},
		{column.KindUint64, column.KindUint32, column.KindUint64},
		{column.KindInt32, column.KindInt16, column.KindInt32},
		{column.KindInt8, column.KindInt8, column.KindInt16},
	}
	for _, c := range cases {
		if got := promoteNumeric(c.a, c.b); got != c.want {
			t.Errorf("promoteNumeric(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
