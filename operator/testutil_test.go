package operator

import (
	"testing"

	"github.com/kodekit/colexec/column"
)

// sampleSchema is shared across operator tests: id (int32), amount
// (float64, nullable), name (string, nullable), active (bool).
func sampleSchema(t *testing.T) *column.Schema {
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

type sampleRow struct {
	id          int64
	amount      float64
	amountNull  bool
	name        string
	active      bool
}

func sampleChunk(t *testing.T, schema *column.Schema, rows []sampleRow) *column.Chunk {
	t.Helper()
	dict := column.NewDictionary(0)
	chunk, err := column.NewChunk(schema, dict, len(rows))
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	for _, r := range rows {
		_ = chunk.Column(0).AppendInt(r.id)
		if r.amountNull {
			_ = chunk.Column(1).AppendNull()
		} else {
			_ = chunk.Column(1).AppendFloat(r.amount)
		}
		idx := dict.Intern([]byte(r.name))
		_ = chunk.Column(2).AppendStringIndex(idx)
		_ = chunk.Column(3).AppendBool(r.active)
	}
	return chunk
}
