// Package sample defines the fixed sample-type contract shared by the stream
// blocks: each block carries samples of exactly one type, and the type fixes
// the item size used for all byte accounting.
package sample

import "fmt"

// Type identifies the numeric encoding of one stream item.
type Type int

const (
	// Complex64 is an interleaved float32 I/Q pair (8 bytes per item).
	Complex64 Type = iota
	// Float32 is a single-precision float (4 bytes per item).
	Float32
	// Int32 is a signed 32-bit integer (4 bytes per item).
	Int32
	// Int16 is a signed 16-bit integer (2 bytes per item).
	Int16
	// Int8 is a signed 8-bit integer (1 byte per item).
	Int8
)

// ItemSize returns the size of one sample item in bytes.
func (t Type) ItemSize() int {
	switch t {
	case Complex64:
		return 8
	case Float32, Int32:
		return 4
	case Int16:
		return 2
	case Int8:
		return 1
	default:
		return 0
	}
}

// String returns the canonical name of the sample type.
func (t Type) String() string {
	switch t {
	case Complex64:
		return "complex64"
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case Int16:
		return "int16"
	case Int8:
		return "int8"
	default:
		return fmt.Sprintf("sample.Type(%d)", int(t))
	}
}

// Valid reports whether t is one of the defined sample types.
func (t Type) Valid() bool {
	return t >= Complex64 && t <= Int8
}

// Parse maps a configuration name to a sample type. Both Go type names
// ("complex64") and the legacy flowgraph names ("complex", "float", "int",
// "short", "byte") are accepted.
func Parse(name string) (Type, error) {
	switch name {
	case "complex", "complex64":
		return Complex64, nil
	case "float", "float32":
		return Float32, nil
	case "int", "int32":
		return Int32, nil
	case "short", "int16":
		return Int16, nil
	case "byte", "int8":
		return Int8, nil
	default:
		return 0, fmt.Errorf("unknown sample type: %q", name)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so Type can be used
// directly in configuration structs.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid sample type: %d", int(t))
	}
	return []byte(t.String()), nil
}
