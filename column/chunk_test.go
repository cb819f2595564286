package column

import "testing"

func intChunk(t *testing.T, vals []int64) *Chunk {
	t.Helper()
	schema, err := NewSchema(ColumnDef{Name: "v", Type: DType{Kind: KindInt32}})
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	chunk, err := NewChunk(schema, nil, len(vals))
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	for _, v := range vals {
		if err := chunk.Column(0).AppendInt(v); err != nil {
			t.Fatalf("AppendInt: %v", err)
		}
	}
	return chunk
}

func TestChunkLenNoSelection(t *testing.T) {
	chunk := intChunk(t, []int64{1, 2, 3})
	if chunk.Len() != 3 {
		t.Errorf("Len() = %d, want 3", chunk.Len())
	}
}

func TestChunkWithSelection(t *testing.T) {
	chunk := intChunk(t, []int64{10, 20, 30, 40})
	sel := chunk.WithSelection([]uint32{3, 0})
	if sel.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", sel.Len())
	}
	if got := sel.GetValue(0, 0); got != int64(40) {
		t.Errorf("GetValue(0,0) = %v, want 40", got)
	}
	if got := sel.GetValue(0, 1); got != int64(10) {
		t.Errorf("GetValue(0,1) = %v, want 10", got)
	}
	if chunk.Len() != 4 {
		t.Errorf("original chunk should be untouched, Len() = %d, want 4", chunk.Len())
	}
}

func TestChunkMaterialize(t *testing.T) {
	chunk := intChunk(t, []int64{10, 20, 30, 40})
	sel := chunk.WithSelection([]uint32{2, 3})
	mat, err := sel.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if mat.Selection() != nil {
		t.Errorf("materialized chunk should carry no selection")
	}
	if mat.Len() != 2 || mat.GetValue(0, 0) != int64(30) || mat.GetValue(0, 1) != int64(40) {
		t.Errorf("unexpected materialized values: len=%d", mat.Len())
	}
}

func TestChunkMaterializeNoSelectionIsNoop(t *testing.T) {
	chunk := intChunk(t, []int64{1, 2})
	mat, err := chunk.Materialize()
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if mat != chunk {
		t.Errorf("Materialize with no selection should return the same chunk")
	}
}

func TestChunkStringValueWithDictionary(t *testing.T) {
	schema, _ := NewSchema(ColumnDef{Name: "s", Type: DType{Kind: KindString, Nullable: true}})
	dict := NewDictionary(0)
	idx := dict.Intern([]byte("hello"))
	chunk, err := NewChunk(schema, dict, 2)
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	_ = chunk.Column(0).AppendStringIndex(idx)
	_ = chunk.Column(0).AppendNull()
	s, ok := chunk.GetStringValue(0, 0)
	if !ok || s != "hello" {
		t.Errorf("GetStringValue(0,0) = %q, %v, want hello, true", s, ok)
	}
	if _, ok := chunk.GetStringValue(0, 1); ok {
		t.Errorf("GetStringValue(0,1) should report null")
	}
}

func TestChunkAppend(t *testing.T) {
	schema, _ := NewSchema(ColumnDef{Name: "v", Type: DType{Kind: KindInt32}})
	dst, _ := NewChunk(schema, nil, 0)
	_ = dst.Column(0).AppendInt(1)
	src, _ := NewChunk(schema, nil, 0)
	_ = src.Column(0).AppendInt(2)
	_ = src.Column(0).AppendInt(3)
	if err := dst.Append(src); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if dst.Len() != 3 {
		t.Fatalf("Len() after Append = %d, want 3", dst.Len())
	}
	want := []int64{1, 2, 3}
	for i, w := range want {
		if got := dst.GetValue(0, i); got != w {
			t.Errorf("row %d = %v, want %d", i, got, w)
		}
	}
}

func TestChunkAppendSchemaMismatch(t *testing.T) {
	a, _ := NewSchema(ColumnDef{Name: "v", Type: DType{Kind: KindInt32}})
	b, _ := NewSchema(ColumnDef{Name: "v", Type: DType{Kind: KindInt64}})
	dst, _ := NewChunk(a, nil, 0)
	src, _ := NewChunk(b, nil, 0)
	if err := dst.Append(src); err == nil {
		t.Fatalf("expected schema mismatch error")
	}
}

func TestChunkClone(t *testing.T) {
	chunk := intChunk(t, []int64{1, 2, 3})
	clone := chunk.Clone()
	if clone.Len() != chunk.Len() {
		t.Errorf("clone length mismatch")
	}
	if clone.GetValue(0, 1) != chunk.GetValue(0, 1) {
		t.Errorf("clone should carry the same values")
	}
}
