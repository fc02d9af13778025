package assembler

import (
	"fmt"

	"qasm/object"
	"qasm/types"
)

// ExportSection is not addressable from source; it is populated
// automatically with every function definition carrying the `export`
// modifier.
type ExportSection struct {
	table *object.ExportTable
	names []string
	fns   map[string]*Label
}

// NewExportSection constructs an empty ExportSection.
func NewExportSection() *ExportSection {
	return &ExportSection{table: object.NewExportTable(), fns: make(map[string]*Label)}
}

func (s *ExportSection) Name() string { return "exports" }

// HasExports reports whether any function has been exported, used to
// decide whether the file's HasExports flag should be set.
func (s *ExportSection) HasExports() bool { return len(s.names) > 0 }

// Add records that label (a function label) should be exported under
// name. The export table entry itself is built lazily in Bytes, once
// every label's offset has been finalized by the relocation pass.
func (s *ExportSection) Add(name string, label *Label) error {
	if _, exists := s.fns[name]; exists {
		return &SemanticError{Reason: fmt.Sprintf("function %q is already exported", name)}
	}
	s.names = append(s.names, name)
	s.fns[name] = label
	return nil
}

// SizeHint returns the section's serialized length without requiring any
// label to have its final offset yet; an entry's byte length depends only
// on its name and signature shape, not the offset value it carries.
func (s *ExportSection) SizeHint(asm *Assembler) (int64, error) {
	total := int64(asm.Architecture.WordSize)
	for _, name := range s.names {
		entry, err := exportEntry(name, s.fns[name])
		if err != nil {
			return 0, err
		}
		total += int64(len(entry.Name)) + 1 + int64(asm.Architecture.WordSize) + 1 + int64(len(entry.Parameters)) + 1 + 1
	}
	return total, nil
}

func (s *ExportSection) Bytes(asm *Assembler) ([]byte, error) {
	for _, name := range s.names {
		label := s.fns[name]
		entry, err := exportEntry(name, label)
		if err != nil {
			return nil, err
		}
		if err := s.table.Add(entry); err != nil {
			return nil, err
		}
	}
	return s.table.Bytes(asm.Architecture.WordSize, asm.Architecture.ByteOrder())
}

// exportEntry converts a resolved function label's signature into the
// wire format's built-in-only shape, failing if the function's signature
// involves a compound type the export table cannot describe.
func exportEntry(name string, label *Label) (object.ExportTableEntry, error) {
	sig := label.Signature
	if sig == nil {
		return object.ExportTableEntry{}, &SemanticError{Reason: fmt.Sprintf("%q cannot be exported: it is not a function", name)}
	}
	returnType, ok := sig.ReturnType.(types.Tag)
	if !ok {
		return object.ExportTableEntry{}, &SemanticError{Reason: fmt.Sprintf("function %q returns a compound type, which the export table cannot describe", name)}
	}
	params := make([]types.Tag, len(sig.Parameters))
	for i, p := range sig.Parameters {
		tag, ok := p.(types.Tag)
		if !ok {
			return object.ExportTableEntry{}, &SemanticError{Reason: fmt.Sprintf("function %q takes a compound-typed parameter, which the export table cannot describe", name)}
		}
		params[i] = tag
	}
	return object.ExportTableEntry{
		Name:       name,
		Offset:     uint64(label.Offset),
		ReturnType: returnType,
		Parameters: params,
		NumLocals:  sig.NumLocals,
	}, nil
}
