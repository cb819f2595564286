package column

import (
	"errors"
	"fmt"
	"time"
)

// date is represented as days since the Unix epoch, stored as int32;
// datetime (spec's "timestamp") as milliseconds since the epoch, stored
// as int64 - the epoch-offset encoding spec.md fixes as the core
// contract (see SPEC_FULL.md's Open Question resolution), in place of
// the teacher's own bit-packed year/month/day/hour encoding
// (column/date.go upstream). The function shapes - package-level
// parseDate/parseDatetime, formatDate/formatDatetime formatters, the same
// sentinel-error names - are kept from the teacher.
var (
	errInvalidDate     = errors.New("date is not valid")
	errInvalidDatetime = errors.New("datetime is not valid")
)

const dateLayout = "2006-01-02"

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	dateLayout,
}

const secondsPerDay = 86400

// parseDate parses s as a calendar date and returns days since epoch.
func parseDate(s string) (int32, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidDate, err)
	}
	days := t.Unix() / secondsPerDay
	return int32(days), nil
}

// parseDatetime parses s against a small set of accepted layouts and
// returns milliseconds since epoch.
func parseDatetime(s string) (int64, error) {
	var (
		t   time.Time
		err error
	)
	for _, layout := range datetimeLayouts {
		t, err = time.Parse(layout, s)
		if err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("%w: %v", errInvalidDatetime, err)
}

// formatDate renders days-since-epoch as YYYY-MM-DD.
func formatDate(days int32) string {
	t := time.Unix(int64(days)*secondsPerDay, 0).UTC()
	return t.Format(dateLayout)
}

// formatDatetime renders ms-since-epoch as RFC3339.
func formatDatetime(ms int64) string {
	t := time.UnixMilli(ms).UTC()
	return t.Format(time.RFC3339)
}

// ParseDate, ParseTimestamp, FormatDate and FormatTimestamp are exported
// wrappers used by the expression compiler's scalar Cast node, which
// converts a single value at a time rather than a whole column.
func ParseDate(s string) (int32, error)      { return parseDate(s) }
func ParseTimestamp(s string) (int64, error) { return parseDatetime(s) }
func FormatDate(days int32) string           { return formatDate(days) }
func FormatTimestamp(ms int64) string        { return formatDatetime(ms) }
