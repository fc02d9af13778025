package assembler

// TypesSection owns the `types` section: a running cursor that each field
// of a declared compound type advances by its own byte size. No labels are
// added to it; type names live only in the TypeRegistry.
// The section's on-disk bytes carry no useful payload of their own — like
// the original, its contents are a placeholder run of filler bytes sized
// to match the type table's total footprint — since the field layout
// itself lives in the TypeRegistry consulted at assemble time and in
// future imports of this module.
type TypesSection struct {
	registry *TypeRegistry
	cursor   int64
	labels   []*Label
}

// NewTypesSection constructs a TypesSection backed by registry.
func NewTypesSection(registry *TypeRegistry) *TypesSection {
	return &TypesSection{registry: registry}
}

func (s *TypesSection) Name() string      { return "types" }
func (s *TypesSection) Size() int64       { return s.cursor }
func (s *TypesSection) AddLabel(l *Label) { s.labels = append(s.labels, l) }
func (s *TypesSection) Labels() []*Label  { return s.labels }

// AddField advances the named type's size by the field's own byte size
// and the section's running cursor in step.
func (s *TypesSection) AddField(typeName, fieldName string, fieldType TypeRef, wordSize int) error {
	ut, ok := s.registry.Get(typeName)
	if !ok {
		return &SemanticError{Reason: "can't define a field outside a type definition"}
	}
	if _, err := ut.addField(fieldName, fieldType, wordSize); err != nil {
		return err
	}
	s.cursor += int64(fieldType.Size(wordSize))
	return nil
}

func (s *TypesSection) Bytes(asm *Assembler) ([]byte, error) {
	filler := make([]byte, s.cursor)
	for i := range filler {
		filler[i] = 0xCA
	}
	return filler, nil
}
