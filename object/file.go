package object

import (
	"bytes"
	"io"
)

// File is an in-memory QPL object: a header, a section table, and the raw
// bytes of each populated section. Sections are always serialized in the
// fixed logical order given by SectionNames, regardless of the order they
// were added in.
type File struct {
	Header  Header
	Table   *SectionTable
	Section map[string][]byte
}

// New constructs an empty File.
func New() *File {
	return &File{Table: NewSectionTable(), Section: make(map[string][]byte)}
}

// AddSection attaches data under name. name must not already be present.
func (f *File) AddSection(name string, data []byte) error {
	if _, exists := f.Section[name]; exists {
		return &FormatError{Reason: "section \"" + name + "\" is already defined"}
	}
	f.Section[name] = data
	return f.Table.Add(SectionTableEntry{Name: name, Size: uint32(len(data))})
}

// orderedSectionNames returns the names of populated sections in
// SectionNames order, followed by any section the caller added outside that
// fixed set (defensive; the assembler never produces one).
func (f *File) orderedSectionNames() []string {
	var names []string
	seen := make(map[string]bool)
	for _, name := range SectionNames {
		if _, ok := f.Section[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	for _, name := range f.Table.Names() {
		if !seen[name] {
			names = append(names, name)
		}
	}
	return names
}

// calculateOffsets recomputes each section's absolute file offset given the
// current set of populated sections.
func (f *File) calculateOffsets() {
	names := f.orderedSectionNames()
	offset := uint32(HeaderSize + SectionTableEntrySize*len(names))
	for _, name := range names {
		data := f.Section[name]
		f.Table.Set(SectionTableEntry{Name: name, Size: uint32(len(data)), Offset: offset})
		offset += uint32(len(data))
	}
}

// Bytes serializes the file: header, then the section table (in
// SectionNames order), then the section payloads.
func (f *File) Bytes(flags Flags, arch Architecture, versionMajor, versionMinor uint16) ([]byte, error) {
	names := f.orderedSectionNames()
	f.Header = Header{
		Flags:        flags,
		Architecture: arch,
		NumSections:  uint8(len(names)),
		VersionMajor: versionMajor,
		VersionMinor: versionMinor,
	}
	f.calculateOffsets()

	var buf bytes.Buffer
	headerBytes, err := f.Header.Bytes()
	if err != nil {
		return nil, err
	}
	buf.Write(headerBytes)

	order := arch.byteOrder()
	for _, name := range names {
		entry, _ := f.Table.Get(name)
		entryBytes, err := entry.Bytes(order)
		if err != nil {
			return nil, err
		}
		buf.Write(entryBytes)
	}
	for _, name := range names {
		buf.Write(f.Section[name])
	}
	return buf.Bytes(), nil
}

// WriteTo writes the serialized file to w.
func (f *File) WriteTo(w io.Writer, flags Flags, arch Architecture, versionMajor, versionMinor uint16) error {
	data, err := f.Bytes(flags, arch, versionMajor, versionMinor)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ReadFrom parses a complete QPL file from r.
func ReadFrom(r io.ReaderAt) (*File, error) {
	headerBuf := make([]byte, HeaderSize)
	if _, err := r.ReadAt(headerBuf, 0); err != nil {
		return nil, err
	}
	header, err := HeaderFromBytes(headerBuf)
	if err != nil {
		return nil, err
	}

	order := header.Architecture.byteOrder()
	file := New()
	file.Header = header

	entryOffset := int64(HeaderSize)
	entries := make([]SectionTableEntry, header.NumSections)
	for i := range entries {
		buf := make([]byte, SectionTableEntrySize)
		if _, err := r.ReadAt(buf, entryOffset); err != nil {
			return nil, err
		}
		entry, err := SectionTableEntryFromBytes(buf, order)
		if err != nil {
			return nil, err
		}
		entries[i] = entry
		entryOffset += SectionTableEntrySize
	}

	for _, entry := range entries {
		data := make([]byte, entry.Size)
		if entry.Size > 0 {
			if _, err := r.ReadAt(data, int64(entry.Offset)); err != nil {
				return nil, err
			}
		}
		if err := file.AddSection(entry.Name, data); err != nil {
			return nil, err
		}
	}
	file.calculateOffsets()
	return file, nil
}

// ReadBytes parses a complete QPL file from an in-memory byte slice.
func ReadBytes(data []byte) (*File, error) {
	return ReadFrom(bytes.NewReader(data))
}
