// Package types implements the QPL binary type registry: the closed set of
// scalar and compound value types recognized by the bytecode, each with a
// stable index, a byte size, and parse/encode rules.
package types

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Tag is a binary type tag. The zero value is not a valid tag; tags start
// at 1 so that an unset field is detectably invalid.
type Tag int

const (
	Void Tag = iota + 1
	Bool
	Ptr
	RPtr
	Int
	Int8
	Int16
	Int32
	Int64
	Float
	Float32
	Float64
	Str
	Raw
	Local
	Arg
)

// order fixes the canonical name/index table. Index 0 is never assigned;
// indices run 1..len(order).
var order = []Tag{Void, Bool, Ptr, RPtr, Int, Int8, Int16, Int32, Int64, Float, Float32, Float64, Str, Raw, Local, Arg}

var names = map[Tag]string{
	Void: "void", Bool: "bool", Ptr: "ptr", RPtr: "rptr",
	Int: "int", Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Float: "float", Float32: "float32", Float64: "float64",
	Str: "str", Raw: "raw", Local: "local", Arg: "arg",
}

var byName = func() map[string]Tag {
	m := make(map[string]Tag, len(names))
	for tag, name := range names {
		m[name] = tag
	}
	return m
}()

var index = func() map[Tag]int {
	m := make(map[Tag]int, len(order))
	for i, tag := range order {
		m[tag] = i + 1
	}
	return m
}()

var byIndex = func() map[int]Tag {
	m := make(map[int]Tag, len(order))
	for i, tag := range order {
		m[i+1] = tag
	}
	return m
}()

// String returns the QSM-level name of the type, e.g. "int8".
func (t Tag) String() string {
	if name, ok := names[t]; ok {
		return name
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// Index returns the type's stable 1-based numeric index.
func (t Tag) Index() int {
	return index[t]
}

// Lookup resolves a QSM type name to its Tag. The second result is false for
// an unknown name.
func Lookup(name string) (Tag, bool) {
	tag, ok := byName[name]
	return tag, ok
}

// ByIndex resolves a 1-byte wire index back to its Tag.
func ByIndex(i int) (Tag, bool) {
	tag, ok := byIndex[i]
	return tag, ok
}

// Count returns the number of built-in type tags. A type registry that
// assigns indices to user-defined compound types numbers them starting
// after this range, so a single byte can still distinguish every type in
// a compiled module.
func Count() int {
	return len(order)
}

// fixedSizes holds the byte size for every tag whose width does not depend
// on the target architecture's word size.
var fixedSizes = map[Tag]int{
	Void: 0, Bool: 1, Int8: 1, Int16: 2, Int32: 4, Int64: 8,
	Float32: 4, Float64: 8, Local: 1, Arg: 1,
}

// Size returns the on-wire byte size of the type for the given native word
// size (the size of int, float, ptr, rptr, str and raw, all of which are
// native-word-width).
func (t Tag) Size(wordSize int) int {
	if size, ok := fixedSizes[t]; ok {
		return size
	}
	switch t {
	case Ptr, RPtr, Int, Float, Str, Raw:
		return wordSize
	default:
		return 0
	}
}

// IsIntegral reports whether the type's value is represented as an int64 by
// Parse/ToBytes.
func (t Tag) IsIntegral() bool {
	switch t {
	case Int, Int8, Int16, Int32, Int64, Ptr, RPtr, Local, Arg:
		return true
	default:
		return false
	}
}

// Parse interprets the text of a literal token into the type's Go-level
// value representation: int64 for integral types, float64 for float types,
// bool for Bool, and string for Str/Raw.
func (t Tag) Parse(text string) (any, error) {
	switch t {
	case Void:
		return nil, nil
	case Bool:
		switch text {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return nil, fmt.Errorf("types: invalid bool literal %q", text)
		}
	case Int, Int8, Int16, Int32, Int64, Ptr, RPtr, Local, Arg:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("types: invalid %s literal %q: %w", t, text, err)
		}
		return v, nil
	case Float, Float32, Float64:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("types: invalid %s literal %q: %w", t, text, err)
		}
		return v, nil
	case Str, Raw:
		return text, nil
	default:
		return nil, fmt.Errorf("types: %s has no literal form", t)
	}
}

// ToBytes encodes a parsed value into its on-wire representation for the
// given word size and byte order.
func (t Tag) ToBytes(v any, wordSize int, order binary.ByteOrder) ([]byte, error) {
	switch t {
	case Void:
		return nil, nil
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("types: expected bool, got %T", v)
		}
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case Int, Ptr:
		return encodeInt(v, wordSize, order)
	case RPtr:
		return encodeInt(v, wordSize, order)
	case Int8, Local, Arg:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		return []byte{byte(n)}, nil
	case Int16:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 2)
		order.PutUint16(buf, uint16(n))
		return buf, nil
	case Int32:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		order.PutUint32(buf, uint32(n))
		return buf, nil
	case Int64:
		n, err := asInt64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 8)
		order.PutUint64(buf, uint64(n))
		return buf, nil
	case Float:
		return encodeFloat(v, wordSize, order)
	case Float32:
		f, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 4)
		order.PutUint32(buf, math.Float32bits(float32(f)))
		return buf, nil
	case Float64:
		f, err := asFloat64(v)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 8)
		order.PutUint64(buf, math.Float64bits(f))
		return buf, nil
	case Str, Raw:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("types: expected string, got %T", v)
		}
		return []byte(s), nil
	default:
		return nil, fmt.Errorf("types: %s cannot be encoded", t)
	}
}

func asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("types: expected integer, got %T", v)
	}
}

func asFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("types: expected float, got %T", v)
	}
}

func encodeInt(v any, wordSize int, order binary.ByteOrder) ([]byte, error) {
	n, err := asInt64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, wordSize)
	switch wordSize {
	case 4:
		order.PutUint32(buf, uint32(n))
	case 8:
		order.PutUint64(buf, uint64(n))
	default:
		return nil, fmt.Errorf("types: unsupported word size %d", wordSize)
	}
	return buf, nil
}

func encodeFloat(v any, wordSize int, order binary.ByteOrder) ([]byte, error) {
	f, err := asFloat64(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, wordSize)
	switch wordSize {
	case 4:
		order.PutUint32(buf, math.Float32bits(float32(f)))
	case 8:
		order.PutUint64(buf, math.Float64bits(f))
	default:
		return nil, fmt.Errorf("types: unsupported word size %d", wordSize)
	}
	return buf, nil
}

// DecodeInt reads an architecture-native signed integer (int, ptr, rptr)
// from raw bytes.
func DecodeInt(b []byte, order binary.ByteOrder) (int64, error) {
	switch len(b) {
	case 4:
		return int64(int32(order.Uint32(b))), nil
	case 8:
		return int64(order.Uint64(b)), nil
	default:
		return 0, fmt.Errorf("types: unsupported word size %d", len(b))
	}
}
