package operator

import "testing"

func TestProjectReordersAndRenames(t *testing.T) {
	schema := sampleSchema(t)
	chunk := sampleChunk(t, schema, []sampleRow{
		{id: 1, amount: 10, name: "alice", active: true},
		{id: 2, amount: 20, name: "bob", active: false},
	})
	p, err := NewProject([]ProjectColumn{
		{Source: "name"},
		{Source: "id", Target: "identifier"},
	}, schema)
	if err != nil {
		t.Fatalf("NewProject: %v", err)
	}
	if p.OutputSchema().Names()[0] != "name" || p.OutputSchema().Names()[1] != "identifier" {
		t.Fatalf("unexpected output schema names: %v", p.OutputSchema().Names())
	}
	res, err := p.Process(chunk)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	s0, _ := res.Chunk.GetStringValue(0, 0)
	if s0 != "alice" {
		t.Errorf("row 0 col 0 = %q, want alice", s0)
	}
	if res.Chunk.GetValue(1, 1) != int64(2) {
		t.Errorf("row 1 identifier = %v, want 2", res.Chunk.GetValue(1, 1))
	}
}

func TestProjectRejectsUnknownSource(t *testing.T) {
	schema := sampleSchema(t)
	if _, err := NewProject([]ProjectColumn{{Source: "missing"}}, schema); err == nil {
		t.Fatalf("expected error for unknown source column")
	}
}

func TestProjectRejectsDuplicateTargets(t *testing.T) {
	schema := sampleSchema(t)
	_, err := NewProject([]ProjectColumn{
		{Source: "id", Target: "x"},
		{Source: "amount", Target: "x"},
	}, schema)
	if err == nil {
		t.Fatalf("expected error for duplicate output column name")
	}
}
