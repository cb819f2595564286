package operator

import (
	"testing"

	"github.com/kodekit/colexec/expr"
)

func TestGroupBySumByStringKey(t *testing.T) {
	schema := sampleSchema(t)
	chunk := sampleChunk(t, schema, []sampleRow{
		{id: 1, amount: 10, name: "a", active: true},
		{id: 2, amount: 5, name: "b", active: true},
		{id: 3, amount: 20, name: "a", active: true},
	})
	g, err := NewGroupBy([]string{"name"}, []GroupByAggSpec{
		{Name: "total", Agg: expr.Sum(expr.Col("amount"))},
		{Name: "n", Agg: expr.CountAll()},
	}, schema)
	if err != nil {
		t.Fatalf("NewGroupBy: %v", err)
	}
	if _, err := g.Process(chunk); err != nil {
		t.Fatalf("Process: %v", err)
	}
	res, err := g.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !res.Done {
		t.Errorf("GroupBy.Finish should signal done")
	}
	if res.Chunk.Len() != 2 {
		t.Fatalf("expected 2 groups, got %d", res.Chunk.Len())
	}
	nameIdx, _ := g.OutputSchema().ColumnIndex("name")
	totalIdx, _ := g.OutputSchema().ColumnIndex("total")
	nIdx, _ := g.OutputSchema().ColumnIndex("n")

	totals := map[string]float64{}
	counts := map[string]int64{}
	for row := 0; row < res.Chunk.Len(); row++ {
		name, _ := res.Chunk.GetStringValue(nameIdx, row)
		totals[name] = res.Chunk.GetValue(totalIdx, row).(float64)
		counts[name] = res.Chunk.GetValue(nIdx, row).(int64)
	}
	if totals["a"] != 30 {
		t.Errorf("group a total = %v, want 30", totals["a"])
	}
	if totals["b"] != 5 {
		t.Errorf("group b total = %v, want 5", totals["b"])
	}
	if counts["a"] != 2 || counts["b"] != 1 {
		t.Errorf("unexpected group counts: %v", counts)
	}
}

func TestGroupByAcrossMultipleChunks(t *testing.T) {
	schema := sampleSchema(t)
	chunk1 := sampleChunk(t, schema, []sampleRow{{id: 1, amount: 1, name: "x", active: true}})
	chunk2 := sampleChunk(t, schema, []sampleRow{{id: 2, amount: 2, name: "x", active: true}})
	g, err := NewGroupBy([]string{"name"}, []GroupByAggSpec{
		{Name: "total", Agg: expr.Sum(expr.Col("amount"))},
	}, schema)
	if err != nil {
		t.Fatalf("NewGroupBy: %v", err)
	}
	if _, err := g.Process(chunk1); err != nil {
		t.Fatalf("Process chunk1: %v", err)
	}
	if _, err := g.Process(chunk2); err != nil {
		t.Fatalf("Process chunk2: %v", err)
	}
	res, err := g.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Chunk.Len() != 1 {
		t.Fatalf("expected a single merged group, got %d", res.Chunk.Len())
	}
	totalIdx, _ := g.OutputSchema().ColumnIndex("total")
	if res.Chunk.GetValue(totalIdx, 0) != float64(3) {
		t.Errorf("merged total = %v, want 3", res.Chunk.GetValue(totalIdx, 0))
	}
}

func TestGroupByNullKeyGroupsTogether(t *testing.T) {
	schema := sampleSchema(t)
	chunk := sampleChunk(t, schema, []sampleRow{
		{id: 1, amount: 0, amountNull: true, name: "a", active: true},
		{id: 2, amount: 5, name: "b", active: true},
		{id: 3, amount: 0, amountNull: true, name: "c", active: true},
	})
	g, err := NewGroupBy([]string{"amount"}, []GroupByAggSpec{
		{Name: "n", Agg: expr.CountAll()},
	}, schema)
	if err != nil {
		t.Fatalf("NewGroupBy: %v", err)
	}
	if _, err := g.Process(chunk); err != nil {
		t.Fatalf("Process: %v", err)
	}
	res, err := g.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	amountIdx, _ := g.OutputSchema().ColumnIndex("amount")
	nIdx, _ := g.OutputSchema().ColumnIndex("n")
	foundNullGroup := false
	for row := 0; row < res.Chunk.Len(); row++ {
		if res.Chunk.IsNull(amountIdx, row) {
			foundNullGroup = true
			if res.Chunk.GetValue(nIdx, row) != int64(2) {
				t.Errorf("null-keyed group count = %v, want 2", res.Chunk.GetValue(nIdx, row))
			}
		}
	}
	if !foundNullGroup {
		t.Errorf("expected a group for the null amount key")
	}
}

func TestGroupByEmptyInputYieldsNoChunk(t *testing.T) {
	schema := sampleSchema(t)
	g, err := NewGroupBy([]string{"name"}, []GroupByAggSpec{
		{Name: "n", Agg: expr.CountAll()},
	}, schema)
	if err != nil {
		t.Fatalf("NewGroupBy: %v", err)
	}
	res, err := g.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Chunk != nil {
		t.Errorf("Finish with no groups should produce no chunk")
	}
}

func TestGroupByRejectsUnknownKey(t *testing.T) {
	schema := sampleSchema(t)
	if _, err := NewGroupBy([]string{"missing"}, nil, schema); err == nil {
		t.Fatalf("expected error for unknown key column")
	}
}
