package column

import "testing"

func int32Buffer(t *testing.T, vals []int64) *ColumnBuffer {
	t.Helper()
	buf, err := NewColumnBuffer(KindInt32, false, len(vals))
	if err != nil {
		t.Fatalf("NewColumnBuffer: %v", err)
	}
	for _, v := range vals {
		if err := buf.AppendInt(v); err != nil {
			t.Fatalf("AppendInt: %v", err)
		}
	}
	return buf
}

func stringBuffer(t *testing.T, dict *Dictionary, vals []string) *ColumnBuffer {
	t.Helper()
	buf, err := NewColumnBuffer(KindString, false, len(vals))
	if err != nil {
		t.Fatalf("NewColumnBuffer: %v", err)
	}
	for _, v := range vals {
		idx := dict.Intern([]byte(v))
		if err := buf.AppendStringIndex(idx); err != nil {
			t.Fatalf("AppendStringIndex: %v", err)
		}
	}
	return buf
}

func TestCastColumnSameKindClones(t *testing.T) {
	buf := int32Buffer(t, []int64{1, 2, 3})
	out, err := CastColumn(buf, nil, KindInt32, nil)
	if err != nil {
		t.Fatalf("CastColumn: %v", err)
	}
	if out == buf {
		t.Errorf("same-kind cast should return a clone, not the same buffer")
	}
	for i := 0; i < 3; i++ {
		if out.GetInt(i) != buf.GetInt(i) {
			t.Errorf("row %d differs after clone", i)
		}
	}
}

func TestCastColumnNumericToNumeric(t *testing.T) {
	buf := int32Buffer(t, []int64{1, 2, 3})
	out, err := CastColumn(buf, nil, KindInt64, nil)
	if err != nil {
		t.Fatalf("CastColumn: %v", err)
	}
	if out.Kind() != KindInt64 {
		t.Fatalf("Kind() = %v, want int64", out.Kind())
	}
	for i, want := range []int64{1, 2, 3} {
		if got := out.GetInt(i); got != want {
			t.Errorf("row %d = %d, want %d", i, got, want)
		}
	}
}

func TestCastColumnNumericToString(t *testing.T) {
	buf := int32Buffer(t, []int64{1, 2, 1})
	dict := NewDictionary(0)
	out, err := CastColumn(buf, nil, KindString, dict)
	if err != nil {
		t.Fatalf("CastColumn: %v", err)
	}
	want := []string{"1", "2", "1"}
	for i, w := range want {
		if dict.GetString(out.GetStringIndex(i)) != w {
			t.Errorf("row %d = %q, want %q", i, dict.GetString(out.GetStringIndex(i)), w)
		}
	}
	if out.GetStringIndex(0) != out.GetStringIndex(2) {
		t.Errorf("repeated values should share a dictionary index")
	}
}

func TestCastColumnStringToNumeric(t *testing.T) {
	dict := NewDictionary(0)
	buf := stringBuffer(t, dict, []string{"10", "20", "not-a-number"})
	out, err := CastColumn(buf, dict, KindInt32, nil)
	if err != nil {
		t.Fatalf("CastColumn: %v", err)
	}
	if out.GetInt(0) != 10 || out.GetInt(1) != 20 {
		t.Errorf("unexpected numeric values: %d, %d", out.GetInt(0), out.GetInt(1))
	}
	if !out.IsNull(2) {
		t.Errorf("unparseable string should cast to null, not error")
	}
}

func TestCastColumnBoolToString(t *testing.T) {
	buf, _ := NewColumnBuffer(KindBool, false, 2)
	_ = buf.AppendBool(true)
	_ = buf.AppendBool(false)
	dict := NewDictionary(0)
	out, err := CastColumn(buf, nil, KindString, dict)
	if err != nil {
		t.Fatalf("CastColumn: %v", err)
	}
	if dict.GetString(out.GetStringIndex(0)) != "true" {
		t.Errorf("row 0 should stringify to true")
	}
	if dict.GetString(out.GetStringIndex(1)) != "false" {
		t.Errorf("row 1 should stringify to false")
	}
}

func TestCastColumnStringToDateAndTimestamp(t *testing.T) {
	dict := NewDictionary(0)
	buf := stringBuffer(t, dict, []string{"2024-03-15"})
	out, err := CastColumn(buf, dict, KindDate, nil)
	if err != nil {
		t.Fatalf("CastColumn to date: %v", err)
	}
	if formatDate(int32(out.GetInt(0))) != "2024-03-15" {
		t.Errorf("unexpected date value")
	}
	ts, err := CastColumn(buf, dict, KindTimestamp, nil)
	if err != nil {
		t.Fatalf("CastColumn to timestamp: %v", err)
	}
	if formatDatetime(ts.GetInt(0)) != "2024-03-15T00:00:00Z" {
		t.Errorf("unexpected timestamp value")
	}
}

func TestCastColumnDateTimestampRoundTrip(t *testing.T) {
	buf, _ := NewColumnBuffer(KindDate, false, 1)
	_ = buf.AppendInt(19797) // 2024-03-15 in days since epoch
	ts, err := CastColumn(buf, nil, KindTimestamp, nil)
	if err != nil {
		t.Fatalf("date->timestamp: %v", err)
	}
	back, err := CastColumn(ts, nil, KindDate, nil)
	if err != nil {
		t.Fatalf("timestamp->date: %v", err)
	}
	if back.GetInt(0) != 19797 {
		t.Errorf("round trip date = %d, want 19797", back.GetInt(0))
	}
}

func TestCastColumnUnsupported(t *testing.T) {
	buf, _ := NewColumnBuffer(KindBool, false, 1)
	_ = buf.AppendBool(true)
	if _, err := CastColumn(buf, nil, KindDate, nil); err == nil {
		t.Fatalf("expected unsupported-cast error for bool->date")
	}
}
