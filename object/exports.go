package object

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"qasm/types"
)

// ExportTableEntry describes one exported function: its name, its byte
// offset into the code section, its signature, and its local-slot count.
type ExportTableEntry struct {
	Name       string
	Offset     uint64
	ReturnType types.Tag
	Parameters []types.Tag
	NumLocals  uint8
}

// Bytes encodes the entry: a null-terminated ASCII name, a native-word
// offset, a 1-byte return type index, one 1-byte parameter type index per
// parameter, a 1-byte types.Void terminator, and a 1-byte local count.
func (e ExportTableEntry) Bytes(wordSize int, order binary.ByteOrder) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(e.Name)
	buf.WriteByte(0)

	offsetBytes := make([]byte, wordSize)
	switch wordSize {
	case 4:
		order.PutUint32(offsetBytes, uint32(e.Offset))
	case 8:
		order.PutUint64(offsetBytes, e.Offset)
	default:
		return nil, fmt.Errorf("object: unsupported word size %d", wordSize)
	}
	buf.Write(offsetBytes)

	buf.WriteByte(byte(e.ReturnType.Index()))
	for _, p := range e.Parameters {
		buf.WriteByte(byte(p.Index()))
	}
	buf.WriteByte(byte(types.Void.Index()))
	buf.WriteByte(e.NumLocals)

	return buf.Bytes(), nil
}

// ExportTableEntryFromReader decodes one entry, returning the number of
// bytes consumed from data starting at offset.
func ExportTableEntryFromReader(data []byte, offset int, wordSize int, order binary.ByteOrder) (ExportTableEntry, int, error) {
	start := offset
	nameEnd := offset
	for nameEnd < len(data) && data[nameEnd] != 0 {
		nameEnd++
	}
	if nameEnd >= len(data) {
		return ExportTableEntry{}, 0, &FormatError{Reason: "unterminated export name"}
	}
	name := string(data[offset:nameEnd])
	offset = nameEnd + 1

	if offset+wordSize > len(data) {
		return ExportTableEntry{}, 0, &FormatError{Reason: "truncated export offset"}
	}
	var wordOffset uint64
	switch wordSize {
	case 4:
		wordOffset = uint64(order.Uint32(data[offset : offset+4]))
	case 8:
		wordOffset = order.Uint64(data[offset : offset+8])
	default:
		return ExportTableEntry{}, 0, fmt.Errorf("object: unsupported word size %d", wordSize)
	}
	offset += wordSize

	if offset >= len(data) {
		return ExportTableEntry{}, 0, &FormatError{Reason: "truncated export return type"}
	}
	returnType, ok := types.ByIndex(int(data[offset]))
	if !ok {
		return ExportTableEntry{}, 0, &FormatError{Reason: fmt.Sprintf("unknown return type index %d", data[offset])}
	}
	offset++

	var params []types.Tag
	for {
		if offset >= len(data) {
			return ExportTableEntry{}, 0, &FormatError{Reason: "unterminated export parameter list"}
		}
		tag, ok := types.ByIndex(int(data[offset]))
		if !ok {
			return ExportTableEntry{}, 0, &FormatError{Reason: fmt.Sprintf("unknown parameter type index %d", data[offset])}
		}
		offset++
		if tag == types.Void {
			break
		}
		params = append(params, tag)
	}

	if offset >= len(data) {
		return ExportTableEntry{}, 0, &FormatError{Reason: "truncated export local count"}
	}
	numLocals := data[offset]
	offset++

	return ExportTableEntry{
		Name:       name,
		Offset:     wordOffset,
		ReturnType: returnType,
		Parameters: params,
		NumLocals:  numLocals,
	}, offset - start, nil
}

// ExportTable is the ordered set of a compiled module's exported functions.
type ExportTable struct {
	names   []string
	exports map[string]ExportTableEntry
}

// NewExportTable constructs an empty ExportTable.
func NewExportTable() *ExportTable {
	return &ExportTable{exports: make(map[string]ExportTableEntry)}
}

// Add inserts an export, returning an error if the name is already exported.
func (t *ExportTable) Add(entry ExportTableEntry) error {
	if _, exists := t.exports[entry.Name]; exists {
		return fmt.Errorf("object: function %q is already exported", entry.Name)
	}
	t.names = append(t.names, entry.Name)
	t.exports[entry.Name] = entry
	return nil
}

// Get looks up an export by name.
func (t *ExportTable) Get(name string) (ExportTableEntry, bool) {
	e, ok := t.exports[name]
	return e, ok
}

// Entries returns every export, in insertion order.
func (t *ExportTable) Entries() []ExportTableEntry {
	out := make([]ExportTableEntry, len(t.names))
	for i, name := range t.names {
		out[i] = t.exports[name]
	}
	return out
}

// Bytes encodes the table: a native-word export count followed by each
// entry's encoding in insertion order.
func (t *ExportTable) Bytes(wordSize int, order binary.ByteOrder) ([]byte, error) {
	var buf bytes.Buffer
	countBytes := make([]byte, wordSize)
	switch wordSize {
	case 4:
		order.PutUint32(countBytes, uint32(len(t.names)))
	case 8:
		order.PutUint64(countBytes, uint64(len(t.names)))
	default:
		return nil, fmt.Errorf("object: unsupported word size %d", wordSize)
	}
	buf.Write(countBytes)
	for _, name := range t.names {
		entryBytes, err := t.exports[name].Bytes(wordSize, order)
		if err != nil {
			return nil, err
		}
		buf.Write(entryBytes)
	}
	return buf.Bytes(), nil
}

// ExportTableFromBytes decodes a complete export table.
func ExportTableFromBytes(data []byte, wordSize int, order binary.ByteOrder) (*ExportTable, error) {
	if len(data) < wordSize {
		return nil, &FormatError{Reason: "truncated export table count"}
	}
	var count uint64
	switch wordSize {
	case 4:
		count = uint64(order.Uint32(data[0:4]))
	case 8:
		count = order.Uint64(data[0:8])
	default:
		return nil, fmt.Errorf("object: unsupported word size %d", wordSize)
	}
	offset := wordSize
	table := NewExportTable()
	for i := uint64(0); i < count; i++ {
		entry, consumed, err := ExportTableEntryFromReader(data, offset, wordSize, order)
		if err != nil {
			return nil, err
		}
		if err := table.Add(entry); err != nil {
			return nil, err
		}
		offset += consumed
	}
	return table, nil
}
