package object

import (
	"encoding/binary"
	"fmt"
)

// MaxSectionNameLength is the fixed width of a section name on disk.
const MaxSectionNameLength = 8

// SectionTableEntrySize is the fixed on-disk size of a SectionTableEntry.
const SectionTableEntrySize = MaxSectionNameLength + 4 + 4

// SectionNames lists the fixed logical section order a QPL file always
// writes, regardless of which sections are actually populated.
var SectionNames = []string{"config", "types", "data", "code", "imports", "exports"}

// SectionTableEntry locates one section's bytes within a QPL file.
type SectionTableEntry struct {
	Name   string
	Size   uint32
	Offset uint32
}

// Bytes encodes the entry to its 16-byte wire form.
func (e SectionTableEntry) Bytes(order binary.ByteOrder) ([]byte, error) {
	if len(e.Name) > MaxSectionNameLength {
		return nil, fmt.Errorf("object: section name %q exceeds %d bytes", e.Name, MaxSectionNameLength)
	}
	buf := make([]byte, SectionTableEntrySize)
	copy(buf[0:MaxSectionNameLength], e.Name)
	order.PutUint32(buf[8:12], e.Size)
	order.PutUint32(buf[12:16], e.Offset)
	return buf, nil
}

// SectionTableEntryFromBytes decodes one 16-byte section table entry.
func SectionTableEntryFromBytes(data []byte, order binary.ByteOrder) (SectionTableEntry, error) {
	if len(data) < SectionTableEntrySize {
		return SectionTableEntry{}, &FormatError{Reason: fmt.Sprintf("section entry requires %d bytes, got %d", SectionTableEntrySize, len(data))}
	}
	name := string(trimTrailingZeros(data[0:MaxSectionNameLength]))
	return SectionTableEntry{
		Name:   name,
		Size:   order.Uint32(data[8:12]),
		Offset: order.Uint32(data[12:16]),
	}, nil
}

func trimTrailingZeros(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	return b[:i]
}

// SectionTable holds one SectionTableEntry per populated section, keyed by
// name, in insertion order.
type SectionTable struct {
	names   []string
	entries map[string]SectionTableEntry
}

// NewSectionTable constructs an empty SectionTable.
func NewSectionTable() *SectionTable {
	return &SectionTable{entries: make(map[string]SectionTableEntry)}
}

// Names returns the section names in the order they were added.
func (t *SectionTable) Names() []string { return append([]string(nil), t.names...) }

// Entries returns every entry, in insertion order.
func (t *SectionTable) Entries() []SectionTableEntry {
	out := make([]SectionTableEntry, len(t.names))
	for i, name := range t.names {
		out[i] = t.entries[name]
	}
	return out
}

// Add inserts entry, returning an error if its name is already present.
func (t *SectionTable) Add(entry SectionTableEntry) error {
	if _, exists := t.entries[entry.Name]; exists {
		return fmt.Errorf("object: section %q already exists in the table", entry.Name)
	}
	t.names = append(t.names, entry.Name)
	t.entries[entry.Name] = entry
	return nil
}

// Set overwrites (or inserts) entry under its name.
func (t *SectionTable) Set(entry SectionTableEntry) {
	if _, exists := t.entries[entry.Name]; !exists {
		t.names = append(t.names, entry.Name)
	}
	t.entries[entry.Name] = entry
}

// Get looks up an entry by name.
func (t *SectionTable) Get(name string) (SectionTableEntry, bool) {
	e, ok := t.entries[name]
	return e, ok
}
