package object

import (
	"bytes"
	"testing"

	"qasm/types"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Flags:        HasEntryPoint | HasExports,
		Architecture: NativeArchitecture(),
		NumSections:  3,
		VersionMajor: 1,
		VersionMinor: 2,
	}
	data, err := h.Bytes()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != HeaderSize {
		t.Fatalf("header encoded to %d bytes, want %d", len(data), HeaderSize)
	}
	if !bytes.Equal(data[0:4], Signature[:]) {
		t.Fatalf("signature mismatch: %v", data[0:4])
	}
	got, err := HeaderFromBytes(data)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got != h {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestHeaderBadSignature(t *testing.T) {
	data := make([]byte, HeaderSize)
	copy(data, "BAD\x00")
	if _, err := HeaderFromBytes(data); err == nil {
		t.Fatalf("expected an error for a bad signature")
	}
}

func TestSectionTableEntryRoundTrip(t *testing.T) {
	e := SectionTableEntry{Name: "code", Size: 128, Offset: 64}
	order := NativeArchitecture().byteOrder()
	data, err := e.Bytes(order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != SectionTableEntrySize {
		t.Fatalf("entry encoded to %d bytes, want %d", len(data), SectionTableEntrySize)
	}
	got, err := SectionTableEntryFromBytes(data, order)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got != e {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, e)
	}
}

func TestFileRoundTrip(t *testing.T) {
	f := New()
	if err := f.AddSection("code", []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.AddSection("data", []byte{5, 6}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := f.Bytes(HasExports, NativeArchitecture(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := ReadBytes(data)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if !bytes.Equal(got.Section["code"], []byte{1, 2, 3, 4}) {
		t.Errorf("code section mismatch: %v", got.Section["code"])
	}
	if !bytes.Equal(got.Section["data"], []byte{5, 6}) {
		t.Errorf("data section mismatch: %v", got.Section["data"])
	}
	if !got.Header.HasFlag(HasExports) {
		t.Errorf("expected HasExports flag to survive the round trip")
	}
}

func TestFileSectionOrderIsFixedRegardlessOfInsertionOrder(t *testing.T) {
	f := New()
	_ = f.AddSection("exports", []byte{9})
	_ = f.AddSection("code", []byte{1})
	_ = f.AddSection("config", []byte{2})

	names := f.orderedSectionNames()
	want := []string{"config", "code", "exports"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestExportTableEntryRoundTrip(t *testing.T) {
	e := ExportTableEntry{
		Name:       "add",
		Offset:     128,
		ReturnType: types.Int,
		Parameters: []types.Tag{types.Int, types.Int},
		NumLocals:  2,
	}
	order := NativeArchitecture().byteOrder()
	data, err := e.Bytes(8, order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, consumed, err := ExportTableEntryFromReader(data, 0, 8, order)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if consumed != len(data) {
		t.Errorf("consumed %d bytes, want %d", consumed, len(data))
	}
	if got.Name != e.Name || got.Offset != e.Offset || got.ReturnType != e.ReturnType || got.NumLocals != e.NumLocals {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, e)
	}
	if len(got.Parameters) != 2 || got.Parameters[0] != types.Int || got.Parameters[1] != types.Int {
		t.Errorf("unexpected parameters: %+v", got.Parameters)
	}
}

func TestExportTableRoundTrip(t *testing.T) {
	table := NewExportTable()
	if err := table.Add(ExportTableEntry{Name: "f", ReturnType: types.Void, NumLocals: 0}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := table.Add(ExportTableEntry{Name: "g", ReturnType: types.Bool, Parameters: []types.Tag{types.Int}, NumLocals: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := NativeArchitecture().byteOrder()
	data, err := table.Bytes(8, order)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := ExportTableFromBytes(data, 8, order)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	entries := got.Entries()
	if len(entries) != 2 || entries[0].Name != "f" || entries[1].Name != "g" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestExportTableRejectsDuplicateNames(t *testing.T) {
	table := NewExportTable()
	_ = table.Add(ExportTableEntry{Name: "f", ReturnType: types.Void})
	if err := table.Add(ExportTableEntry{Name: "f", ReturnType: types.Void}); err == nil {
		t.Fatalf("expected an error for a duplicate export name")
	}
}

func TestCheckVersionMatchesMajorAndMinMinor(t *testing.T) {
	h := Header{VersionMajor: 1, VersionMinor: 3}
	if err := h.CheckVersion("v1.2.0"); err != nil {
		t.Errorf("unexpected error for a satisfied minimum: %v", err)
	}
	if err := h.CheckVersion("v1.4.0"); err == nil {
		t.Errorf("expected an error when the file is older than required")
	}
	if err := h.CheckVersion("v2.0.0"); err == nil {
		t.Errorf("expected an error for a major version mismatch")
	}
}
