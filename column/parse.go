package column

import (
	"errors"
	"strconv"
)

// parseIntValue/parseUintValue/parseFloatValue/parseBoolValue are the
// single-value parsing primitives used both by CastColumn (string->
// numeric, once per distinct dictionary entry) and by the expression
// compiler's Cast node. Grounded on the teacher's column/schema.go
// parseInt/parseFloat/parseBool helpers.
func parseIntValue(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseUintValue(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func parseFloatValue(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

var errNotBool = errors.New("not a bool")

// parseBoolValue accepts the same literal set as the teacher's
// column.parseBool: single-letter t/T/f/F and full true/TRUE/false/FALSE.
func parseBoolValue(s string) (bool, error) {
	switch s {
	case "t", "T", "true", "TRUE":
		return true, nil
	case "f", "F", "false", "FALSE":
		return false, nil
	}
	return false, errNotBool
}
