package operator

import (
	"testing"

	"github.com/kodekit/colexec/column"
)

func usersSchema(t *testing.T) *column.Schema {
	t.Helper()
	schema, err := column.NewSchema(
		column.ColumnDef{Name: "id", Type: column.DType{Kind: column.KindInt32}},
		column.ColumnDef{Name: "name", Type: column.DType{Kind: column.KindString, Nullable: true}},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema
}

func usersChunk(t *testing.T, schema *column.Schema, ids []int64, names []string, nameNull []bool) *column.Chunk {
	t.Helper()
	dict := column.NewDictionary(0)
	chunk, err := column.NewChunk(schema, dict, len(ids))
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	for i, id := range ids {
		_ = chunk.Column(0).AppendInt(id)
		if nameNull != nil && nameNull[i] {
			_ = chunk.Column(1).AppendNull()
			continue
		}
		idx := dict.Intern([]byte(names[i]))
		_ = chunk.Column(1).AppendStringIndex(idx)
	}
	return chunk
}

func ordersSchema(t *testing.T) *column.Schema {
	t.Helper()
	schema, err := column.NewSchema(
		column.ColumnDef{Name: "user_id", Type: column.DType{Kind: column.KindInt32, Nullable: true}},
		column.ColumnDef{Name: "amount", Type: column.DType{Kind: column.KindFloat64}},
	)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return schema
}

func ordersChunk(t *testing.T, schema *column.Schema, userIDs []int64, userIDNull []bool, amounts []float64) *column.Chunk {
	t.Helper()
	dict := column.NewDictionary(0)
	chunk, err := column.NewChunk(schema, dict, len(userIDs))
	if err != nil {
		t.Fatalf("NewChunk: %v", err)
	}
	for i, id := range userIDs {
		if userIDNull != nil && userIDNull[i] {
			_ = chunk.Column(0).AppendNull()
		} else {
			_ = chunk.Column(0).AppendInt(id)
		}
		_ = chunk.Column(1).AppendFloat(amounts[i])
	}
	return chunk
}

func TestHashJoinInnerMatchesRows(t *testing.T) {
	left := usersSchema(t)
	right := ordersSchema(t)
	lc := usersChunk(t, left, []int64{1, 2, 3}, []string{"alice", "bob", "carol"}, nil)
	rc := ordersChunk(t, right, []int64{1, 1, 2}, nil, []float64{10, 20, 30})

	j, err := NewHashJoin(HashJoinConfig{LeftKey: "id", RightKey: "user_id", Type: JoinInner}, left, right)
	if err != nil {
		t.Fatalf("NewHashJoin: %v", err)
	}
	j.BuildRight(rc)
	res, err := j.Process(lc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Chunk == nil || res.Chunk.Len() != 3 {
		t.Fatalf("expected 3 matched rows (user 1 x2, user 2 x1), got %+v", res.Chunk)
	}
	amountIdx, _ := j.OutputSchema().ColumnIndex("amount")
	var total float64
	for row := 0; row < res.Chunk.Len(); row++ {
		total += res.Chunk.GetValue(amountIdx, row).(float64)
	}
	if total != 60 {
		t.Errorf("total joined amount = %v, want 60", total)
	}
}

func TestHashJoinInnerDropsUnmatchedLeftAndRight(t *testing.T) {
	left := usersSchema(t)
	right := ordersSchema(t)
	lc := usersChunk(t, left, []int64{1, 2}, []string{"alice", "bob"}, nil)
	rc := ordersChunk(t, right, []int64{1, 99}, nil, []float64{10, 999})

	j, err := NewHashJoin(HashJoinConfig{LeftKey: "id", RightKey: "user_id", Type: JoinInner}, left, right)
	if err != nil {
		t.Fatalf("NewHashJoin: %v", err)
	}
	j.BuildRight(rc)
	res, err := j.Process(lc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Chunk.Len() != 1 {
		t.Fatalf("expected 1 matched row, got %d", res.Chunk.Len())
	}
}

func TestHashJoinLeftPreservesUnmatchedLeftRows(t *testing.T) {
	left := usersSchema(t)
	right := ordersSchema(t)
	lc := usersChunk(t, left, []int64{1, 2}, []string{"alice", "bob"}, nil)
	rc := ordersChunk(t, right, []int64{1}, nil, []float64{10})

	j, err := NewHashJoin(HashJoinConfig{LeftKey: "id", RightKey: "user_id", Type: JoinLeft}, left, right)
	if err != nil {
		t.Fatalf("NewHashJoin: %v", err)
	}
	j.BuildRight(rc)
	res, err := j.Process(lc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Chunk.Len() != 2 {
		t.Fatalf("expected both left rows to survive, got %d", res.Chunk.Len())
	}
	nameIdx, _ := j.OutputSchema().ColumnIndex("name")
	amountIdx, _ := j.OutputSchema().ColumnIndex("amount")
	foundUnmatchedBob := false
	for row := 0; row < res.Chunk.Len(); row++ {
		name, _ := res.Chunk.GetStringValue(nameIdx, row)
		if name == "bob" {
			foundUnmatchedBob = true
			if !res.Chunk.IsNull(amountIdx, row) {
				t.Errorf("unmatched left row should have a null right side")
			}
		}
	}
	if !foundUnmatchedBob {
		t.Errorf("expected to find bob's unmatched row")
	}
}

func TestHashJoinRightEmitsUnmatchedRightRowsOnFinish(t *testing.T) {
	left := usersSchema(t)
	right := ordersSchema(t)
	lc := usersChunk(t, left, []int64{1}, []string{"alice"}, nil)
	rc := ordersChunk(t, right, []int64{1, 2}, nil, []float64{10, 20})

	j, err := NewHashJoin(HashJoinConfig{LeftKey: "id", RightKey: "user_id", Type: JoinRight}, left, right)
	if err != nil {
		t.Fatalf("NewHashJoin: %v", err)
	}
	j.BuildRight(rc)
	res, err := j.Process(lc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Chunk.Len() != 1 {
		t.Fatalf("expected 1 matched row from Process, got %d", res.Chunk.Len())
	}

	fin, err := j.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if !fin.Done {
		t.Errorf("Right join Finish should signal done")
	}
	if fin.Chunk == nil || fin.Chunk.Len() != 1 {
		t.Fatalf("expected 1 unmatched right row from Finish, got %+v", fin.Chunk)
	}
	amountIdx, _ := j.OutputSchema().ColumnIndex("amount")
	if fin.Chunk.GetValue(amountIdx, 0) != float64(20) {
		t.Errorf("unmatched right row amount = %v, want 20", fin.Chunk.GetValue(amountIdx, 0))
	}
}

func TestHashJoinInnerFinishIsNotDone(t *testing.T) {
	left := usersSchema(t)
	right := ordersSchema(t)
	j, err := NewHashJoin(HashJoinConfig{LeftKey: "id", RightKey: "user_id", Type: JoinInner}, left, right)
	if err != nil {
		t.Fatalf("NewHashJoin: %v", err)
	}
	res, err := j.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if res.Done {
		t.Errorf("an Inner/Left join's Finish never signals done itself; the pipeline drives completion from Process")
	}
}

func TestHashJoinNullKeysNeverMatch(t *testing.T) {
	left := usersSchema(t)
	right := ordersSchema(t)
	lc := usersChunk(t, left, []int64{1}, []string{"alice"}, nil)
	rc := ordersChunk(t, right, []int64{0}, []bool{true}, []float64{10})

	j, err := NewHashJoin(HashJoinConfig{LeftKey: "id", RightKey: "user_id", Type: JoinInner}, left, right)
	if err != nil {
		t.Fatalf("NewHashJoin: %v", err)
	}
	j.BuildRight(rc)
	res, err := j.Process(lc)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Chunk != nil {
		t.Errorf("a null build-side key should never be indexed or matched")
	}
}

func TestHashJoinRejectsUnknownKeyColumn(t *testing.T) {
	left := usersSchema(t)
	right := ordersSchema(t)
	if _, err := NewHashJoin(HashJoinConfig{LeftKey: "missing", RightKey: "user_id"}, left, right); err == nil {
		t.Fatalf("expected error for unknown left key column")
	}
}
