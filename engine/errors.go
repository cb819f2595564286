// Package engine holds the cross-cutting pieces shared by every layer of
// the execution engine: the closed error-code taxonomy and the runtime
// configuration struct.
package engine

import (
	"errors"
	"fmt"
)

// ErrCode is a closed enumeration of error categories the engine can
// return. Construction- and compile-time errors surface one of these
// immediately; a handful of runtime mishaps (division by zero, an
// unparseable cast) degrade to a null value instead of an error - see
// the docs on column.CastColumn and expr.CompileValue.
type ErrCode uint8

const (
	ErrNone ErrCode = iota

	// buffer
	ErrBufferFull
	ErrInvalidCapacity
	ErrInvalidOffset
	ErrBufferOverflow

	// schema
	ErrEmptySchema
	ErrUnknownColumn
	ErrDuplicateColumn
	ErrInvalidColumnName
	ErrTypeMismatch
	ErrSchemaMismatch

	// expression
	ErrInvalidExpression
	ErrColumnNotFound
	ErrTypeIncompatible
	ErrInvalidOperand
	ErrDivisionByZero // reserved: the engine returns null instead at runtime
	ErrInvalidAggregation

	// cast / fill
	ErrCastNotSupported
	ErrCastOverflow
	ErrInvalidFillValue

	// pipeline
	ErrInvalidPipeline
	ErrExecutionFailed
	ErrEmptyInput
)

var errCodeNames = [...]string{
	ErrNone:                "no error",
	ErrBufferFull:          "buffer full",
	ErrInvalidCapacity:     "invalid capacity",
	ErrInvalidOffset:       "invalid offset",
	ErrBufferOverflow:      "buffer overflow",
	ErrEmptySchema:         "schema must have at least one column",
	ErrUnknownColumn:       "unknown column",
	ErrDuplicateColumn:     "duplicate column name",
	ErrInvalidColumnName:   "invalid column name",
	ErrTypeMismatch:        "type mismatch",
	ErrSchemaMismatch:      "schema mismatch",
	ErrInvalidExpression:   "invalid expression",
	ErrColumnNotFound:      "column not found",
	ErrTypeIncompatible:    "incompatible operand types",
	ErrInvalidOperand:      "invalid operand",
	ErrDivisionByZero:      "division by zero",
	ErrInvalidAggregation:  "invalid aggregation",
	ErrCastNotSupported:    "cast not supported",
	ErrCastOverflow:        "cast overflow",
	ErrInvalidFillValue:    "invalid fill value",
	ErrInvalidPipeline:     "invalid pipeline",
	ErrExecutionFailed:     "execution failed",
	ErrEmptyInput:          "empty input",
}

// String returns the human-readable message registered for this code.
func (c ErrCode) String() string {
	if int(c) >= len(errCodeNames) {
		return "unknown error code"
	}
	return errCodeNames[c]
}

// Error wraps an ErrCode with contextual detail. It implements the
// standard error interface and supports errors.Is/errors.As against both
// the wrapped sentinel (via Unwrap) and other *Error values with the same
// Code (via Is).
type Error struct {
	Code ErrCode
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.err)
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same Code, so callers
// can do errors.Is(err, engine.Errorf(engine.ErrColumnNotFound, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Errorf builds an *Error of the given code, wrapping the error formatted
// from format and args (format may be empty, in which case the code's
// registered message is used verbatim).
func Errorf(code ErrCode, format string, args ...any) *Error {
	if format == "" {
		return &Error{Code: code}
	}
	return &Error{Code: code, err: fmt.Errorf(format, args...)}
}

// WithCode wraps an existing error under the given code, preserving it
// for errors.Is/As/Unwrap.
func WithCode(code ErrCode, err error) *Error {
	return &Error{Code: code, err: err}
}

// CodeOf extracts the ErrCode from err, if err is (or wraps) an *Error.
// Returns ErrNone for any other error, including nil.
func CodeOf(err error) ErrCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrNone
}
