package column

import "testing"

func TestParseDateRoundTrip(t *testing.T) {
	days, err := parseDate("2024-03-15")
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if got := formatDate(days); got != "2024-03-15" {
		t.Errorf("formatDate(%d) = %q, want 2024-03-15", days, got)
	}
}

func TestParseDateEpoch(t *testing.T) {
	days, err := parseDate("1970-01-01")
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if days != 0 {
		t.Errorf("epoch date should encode as day 0, got %d", days)
	}
}

func TestParseDateInvalid(t *testing.T) {
	if _, err := parseDate("not-a-date"); err == nil {
		t.Fatalf("expected error for invalid date")
	}
	if _, err := parseDate("2024-13-40"); err == nil {
		t.Fatalf("expected error for out-of-range date")
	}
}

func TestParseDatetimeLayouts(t *testing.T) {
	cases := []string{
		"2024-03-15T10:30:00Z",
		"2024-03-15 10:30:00",
		"2024-03-15T10:30:00",
		"2024-03-15",
	}
	for _, s := range cases {
		if _, err := parseDatetime(s); err != nil {
			t.Errorf("parseDatetime(%q): %v", s, err)
		}
	}
}

func TestParseDatetimeInvalid(t *testing.T) {
	if _, err := parseDatetime("nonsense"); err == nil {
		t.Fatalf("expected error for invalid datetime")
	}
}

func TestFormatDatetimeRFC3339(t *testing.T) {
	ms, err := parseDatetime("2024-03-15T10:30:00Z")
	if err != nil {
		t.Fatalf("parseDatetime: %v", err)
	}
	if got := formatDatetime(ms); got != "2024-03-15T10:30:00Z" {
		t.Errorf("formatDatetime(%d) = %q, want 2024-03-15T10:30:00Z", ms, got)
	}
}

func TestExportedDateTimestampWrappers(t *testing.T) {
	days, err := ParseDate("2000-01-01")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if FormatDate(days) != "2000-01-01" {
		t.Errorf("FormatDate/ParseDate round trip failed")
	}
	ms, err := ParseTimestamp("2000-01-01T00:00:00Z")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if FormatTimestamp(ms) != "2000-01-01T00:00:00Z" {
		t.Errorf("FormatTimestamp/ParseTimestamp round trip failed")
	}
}
