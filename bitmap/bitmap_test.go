package bitmap

import "testing"

func TestBitmapSetsGets(t *testing.T) {
	vals := []bool{true, false, false, false, true, true, false}
	bm := NewBitmap(0)
	for j, v := range vals {
		bm.Set(j, v)
	}
	for j, v := range vals {
		if bm.Get(j) != v {
			t.Fatalf("position %v: expected %v, got %v", j, v, bm.Get(j))
		}
	}
}

func TestBitmapUnsetBitsDefaultFalse(t *testing.T) {
	bm := NewBitmap(10)
	if bm.Get(9) {
		t.Errorf("unset bit should read false")
	}
}

func TestBitmapGrowsOnOutOfRangeSet(t *testing.T) {
	bm := NewBitmap(0)
	bm.Set(300, true)
	if !bm.Get(300) {
		t.Fatalf("bit 300 should read true after being set past the initial capacity")
	}
	if bm.Get(299) {
		t.Errorf("growing the bitmap should not set neighboring bits")
	}
}

func TestBitmapGrowsOnOutOfRangeGet(t *testing.T) {
	bm := NewBitmap(0)
	if bm.Get(127) {
		t.Fatalf("reading past capacity should grow the bitmap and report false, not panic")
	}
}

func TestBitmapSetCanClearABit(t *testing.T) {
	bm := NewBitmap(8)
	bm.Set(3, true)
	bm.Set(3, false)
	if bm.Get(3) {
		t.Errorf("Set(n, false) should clear a previously set bit")
	}
}

func TestBitmapBitsAreIndependentAcrossWordBoundary(t *testing.T) {
	bm := NewBitmap(0)
	bm.Set(63, true)
	bm.Set(64, false)
	if !bm.Get(63) {
		t.Errorf("bit 63 should remain set")
	}
	if bm.Get(64) {
		t.Errorf("bit 64 (next word) should be unaffected")
	}
}
