// Package column implements the columnar buffer layer: typed column
// buffers with null bitmaps, a string-interning Dictionary, and Chunk, a
// batch of columns sharing one schema and one dictionary.
//
// The layout and naming follow github.com/kokes/smda's column package
// (Dtype, Schema, Chunk), generalised with a dictionary-encoded string
// representation and a selection-vector-virtualised Chunk, neither of
// which the teacher's chunk.go has (it stores strings inline per chunk as
// a byte arena + offsets, with no cross-chunk interning or row-id
// virtualisation).
package column

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DTypeKind is a closed enumeration of primitive data kinds.
type DTypeKind uint8

const (
	KindInvalid DTypeKind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindDate
	KindTimestamp
	kindMax
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindInt8:      "int8",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindUint8:     "uint8",
	KindUint16:    "uint16",
	KindUint32:    "uint32",
	KindUint64:    "uint64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindBool:      "bool",
	KindString:    "string",
	KindDate:      "date",
	KindTimestamp: "timestamp",
}

// elementWidth gives the fixed byte width of one element of each kind.
// String columns store a 32-bit dictionary index, not the payload itself.
var elementWidth = [...]int{
	KindInvalid:   0,
	KindInt8:      1,
	KindInt16:     2,
	KindInt32:     4,
	KindInt64:     8,
	KindUint8:     1,
	KindUint16:    2,
	KindUint32:    4,
	KindUint64:    8,
	KindFloat32:   4,
	KindFloat64:   8,
	KindBool:      1,
	KindString:    4,
	KindDate:      4,
	KindTimestamp: 8,
}

func (k DTypeKind) String() string {
	if int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Width returns the fixed element width, in bytes, of this kind.
func (k DTypeKind) Width() int {
	if int(k) >= len(elementWidth) {
		return 0
	}
	return elementWidth[k]
}

// IsInteger reports whether k is one of the signed/unsigned integer kinds.
func (k DTypeKind) IsInteger() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64, KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
	return false
}

// IsUnsigned reports whether k is one of the unsigned integer kinds.
func (k DTypeKind) IsUnsigned() bool {
	switch k {
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
	return false
}

// IsFloat reports whether k is float32 or float64.
func (k DTypeKind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}

// IsNumeric reports whether k is any integer or float kind.
func (k DTypeKind) IsNumeric() bool {
	return k.IsInteger() || k.IsFloat()
}

// MarshalJSON renders a DTypeKind as its string name, not a bare integer.
func (k DTypeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (k *DTypeKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDTypeKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

var errUnknownDtype = errors.New("unknown dtype")

func ParseDTypeKind(s string) (DTypeKind, error) {
	for k, name := range kindNames {
		if name == s {
			return DTypeKind(k), nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: %v", errUnknownDtype, s)
}

// DType pairs a kind with a nullable flag.
type DType struct {
	Kind     DTypeKind `json:"kind"`
	Nullable bool      `json:"nullable"`
}

func (dt DType) String() string {
	if dt.Nullable {
		return dt.Kind.String() + "?"
	}
	return dt.Kind.String()
}

// MarshalJSON renders a DType as {"kind": "...", "nullable": bool} - we
// want Dtypes to marshal correctly everywhere they're embedded, the same
// way the teacher's Dtype.MarshalJSON exists purely so Schema serialises
// as a string rather than a bare integer.
func (dt DType) MarshalJSON() ([]byte, error) {
	type alias DType
	return json.Marshal(alias(dt))
}
