// Package object implements the QPL container format: the 16-byte file
// header, the section table, and the compiled-function export table that
// a QPL file carries alongside its code, data, and type sections.
package object

import (
	"encoding/binary"
	"fmt"
)

// Signature is the required first 4 bytes of every QPL file.
var Signature = [4]byte{'Q', 'P', 'L', 0}

// Flags are header-level feature bits.
type Flags uint8

const (
	HasEntryPoint Flags = 1 << iota
	HasExports
	RelativeAddressing
)

const (
	architectureMask = 0x7F
	byteOrderMask    = 0x80
)

// Architecture packs a native word size (in bytes) and byte order into the
// header's single architecture byte: the low 7 bits hold the word size,
// the high bit is set for big-endian.
type Architecture struct {
	WordSize     int
	LittleEndian bool
}

// NativeArchitecture returns the Architecture this program is compiled for.
func NativeArchitecture() Architecture {
	return Architecture{WordSize: 8, LittleEndian: true}
}

func (a Architecture) byteOrder() binary.ByteOrder {
	if a.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// ByteOrder returns the binary.ByteOrder matching this architecture's
// endianness, for callers outside the package that need to encode or
// decode word-sized integers (the assembler, when writing data/config
// section literals and export/import tables).
func (a Architecture) ByteOrder() binary.ByteOrder { return a.byteOrder() }

// Byte encodes the architecture into the header's single architecture byte.
func (a Architecture) Byte() (byte, error) {
	if a.WordSize <= 0 || a.WordSize > architectureMask {
		return 0, fmt.Errorf("object: word size %d out of range [1, %d]", a.WordSize, architectureMask)
	}
	b := byte(a.WordSize) & architectureMask
	if !a.LittleEndian {
		b |= byteOrderMask
	}
	return b, nil
}

func (a Architecture) String() string {
	order := "little"
	if !a.LittleEndian {
		order = "big"
	}
	return fmt.Sprintf("%d bit, %s-endian", 8*a.WordSize, order)
}

// ArchitectureFromByte decodes the header's architecture byte.
func ArchitectureFromByte(b byte) Architecture {
	return Architecture{
		WordSize:     int(b & architectureMask),
		LittleEndian: b&byteOrderMask == 0,
	}
}

// HeaderSize is the fixed on-disk size of a Header.
const HeaderSize = 16

// Header is the 16-byte prologue of a QPL file: signature, flags,
// architecture, section count, and a two-part version.
type Header struct {
	Flags        Flags
	Architecture Architecture
	NumSections  uint8
	VersionMajor uint16
	VersionMinor uint16
}

// HasFlag reports whether flag is set.
func (h Header) HasFlag(flag Flags) bool { return h.Flags&flag != 0 }

// Bytes encodes the header to its 16-byte wire form.
func (h Header) Bytes() ([]byte, error) {
	archByte, err := h.Architecture.Byte()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], Signature[:])
	buf[4] = byte(h.Flags)
	buf[5] = archByte
	buf[6] = h.NumSections
	// buf[7] reserved
	order := h.Architecture.byteOrder()
	order.PutUint16(buf[8:10], h.VersionMajor)
	order.PutUint16(buf[10:12], h.VersionMinor)
	// buf[12:16] reserved
	return buf, nil
}

// HeaderFromBytes decodes a 16-byte Header, validating the signature.
func HeaderFromBytes(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("object: header requires %d bytes, got %d", HeaderSize, len(data))
	}
	var sig [4]byte
	copy(sig[:], data[0:4])
	if sig != Signature {
		return Header{}, &FormatError{Reason: fmt.Sprintf("bad signature %v, want %v", sig, Signature)}
	}
	arch := ArchitectureFromByte(data[5])
	order := arch.byteOrder()
	return Header{
		Flags:        Flags(data[4]),
		Architecture: arch,
		NumSections:  data[6],
		VersionMajor: order.Uint16(data[8:10]),
		VersionMinor: order.Uint16(data[10:12]),
	}, nil
}

// FormatError reports a structurally invalid QPL file.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "object: malformed QPL file: " + e.Reason }
