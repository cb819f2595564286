package column

import "testing"

func TestParseIntValue(t *testing.T) {
	v, err := parseIntValue("-42")
	if err != nil || v != -42 {
		t.Errorf("parseIntValue(-42) = %d, %v", v, err)
	}
	if _, err := parseIntValue("abc"); err == nil {
		t.Errorf("expected error for non-numeric input")
	}
}

func TestParseUintValue(t *testing.T) {
	v, err := parseUintValue("42")
	if err != nil || v != 42 {
		t.Errorf("parseUintValue(42) = %d, %v", v, err)
	}
	if _, err := parseUintValue("-1"); err == nil {
		t.Errorf("expected error for negative input")
	}
}

func TestParseFloatValue(t *testing.T) {
	v, err := parseFloatValue("3.14")
	if err != nil || v != 3.14 {
		t.Errorf("parseFloatValue(3.14) = %v, %v", v, err)
	}
	if _, err := parseFloatValue("nope"); err == nil {
		t.Errorf("expected error for non-numeric input")
	}
}

func TestParseBoolValue(t *testing.T) {
	truthy := []string{"t", "T", "true", "TRUE"}
	falsy := []string{"f", "F", "false", "FALSE"}
	for _, s := range truthy {
		v, err := parseBoolValue(s)
		if err != nil || !v {
			t.Errorf("parseBoolValue(%q) = %v, %v, want true, nil", s, v, err)
		}
	}
	for _, s := range falsy {
		v, err := parseBoolValue(s)
		if err != nil || v {
			t.Errorf("parseBoolValue(%q) = %v, %v, want false, nil", s, v, err)
		}
	}
	if _, err := parseBoolValue("yes"); err == nil {
		t.Errorf("expected error for unrecognised literal")
	}
}
