package assembler

import (
	"fmt"
	"os"

	"qasm/object"
)

// ImportSection holds the raw bytes of every companion file loaded with
// `load`, concatenated in load order. A `load` makes that file's export
// table the current one for subsequent `import` statements; an `import`
// resolves a named export against it and creates a label at the imported
// function's offset, shifted by the cumulative import-section data
// already appended (i.e. where that file's own bytes begin once this
// module is assembled).
type ImportSection struct {
	data            []byte
	labels          []*Label
	lastExportTable *object.ExportTable
	lastLoadBase    int64
	imported        map[string]bool
}

// NewImportSection constructs an empty ImportSection.
func NewImportSection() *ImportSection {
	return &ImportSection{imported: make(map[string]bool)}
}

func (s *ImportSection) Name() string      { return "imports" }
func (s *ImportSection) Size() int64       { return int64(len(s.data)) }
func (s *ImportSection) AddLabel(l *Label) { s.labels = append(s.labels, l) }
func (s *ImportSection) Labels() []*Label  { return s.labels }

// Load reads path, embeds its raw bytes into this section, and makes its
// export table available to subsequent Import calls. requiredVersion is
// this assembler's own format version as a "vMAJOR.MINOR.0" string, checked
// against the loaded file's header so a file built for an incompatible
// format is rejected before any of its exports are trusted.
func (s *ImportSection) Load(path string, arch object.Architecture, requiredVersion string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &SemanticError{Reason: fmt.Sprintf("could not load %q: %v", path, err)}
	}
	file, err := object.ReadBytes(raw)
	if err != nil {
		return err
	}
	if err := file.Header.CheckVersion(requiredVersion); err != nil {
		return &SemanticError{Reason: fmt.Sprintf("%q: %v", path, err)}
	}
	exportBytes, ok := file.Section["exports"]
	if !ok {
		return &SemanticError{Reason: fmt.Sprintf("%q exports no functions", path)}
	}
	table, err := object.ExportTableFromBytes(exportBytes, arch.WordSize, arch.ByteOrder())
	if err != nil {
		return err
	}
	s.lastExportTable = table
	s.lastLoadBase = int64(len(s.data))
	s.data = append(s.data, raw...)
	return nil
}

// Import resolves funcName against the most recently loaded file's
// export table and returns a label bound to localName at its shifted
// offset. The caller is responsible for registering the label with the
// assembler's LabelManager and this section's own label list.
func (s *ImportSection) Import(funcName, localName string) (*Label, error) {
	if s.lastExportTable == nil {
		return nil, &SemanticError{Reason: "can't import a function without loading a file first; use `load \"file\"` before importing"}
	}
	if s.imported[funcName] {
		return nil, &SemanticError{Reason: fmt.Sprintf("function %q was already imported; import it under another local name", funcName)}
	}
	entry, ok := s.lastExportTable.Get(funcName)
	if !ok {
		return nil, &SemanticError{Reason: fmt.Sprintf("no exported function named %q", funcName)}
	}
	s.imported[funcName] = true

	params := make([]TypeRef, len(entry.Parameters))
	for i, p := range entry.Parameters {
		params[i] = p
	}
	return &Label{
		Name:   localName,
		Offset: s.lastLoadBase + int64(entry.Offset),
		Signature: &FunctionSignature{
			ReturnType: entry.ReturnType,
			Parameters: params,
			NumLocals:  entry.NumLocals,
		},
	}, nil
}

func (s *ImportSection) Bytes(asm *Assembler) ([]byte, error) {
	return append([]byte(nil), s.data...), nil
}
