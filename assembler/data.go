package assembler

import (
	"encoding/binary"

	"qasm/types"
)

// DataSection concatenates the encoded bytes of every top-level global
// variable's initializer, in source order. Each global is also given a
// label at its own offset so code can reference it by name.
type DataSection struct {
	data   []byte
	labels []*Label
}

// NewDataSection constructs an empty DataSection.
func NewDataSection() *DataSection { return &DataSection{} }

func (s *DataSection) Name() string      { return "data" }
func (s *DataSection) Size() int64       { return int64(len(s.data)) }
func (s *DataSection) AddLabel(l *Label) { s.labels = append(s.labels, l) }
func (s *DataSection) Labels() []*Label  { return s.labels }

// Append encodes value under tag and appends it to the section, returning
// the section-relative offset it was written at.
func (s *DataSection) Append(tag types.Tag, value any, wordSize int, order binary.ByteOrder) (int64, error) {
	encoded, err := tag.ToBytes(value, wordSize, order)
	if err != nil {
		return 0, err
	}
	offset := int64(len(s.data))
	s.data = append(s.data, encoded...)
	return offset, nil
}

func (s *DataSection) Bytes(asm *Assembler) ([]byte, error) {
	return append([]byte(nil), s.data...), nil
}
