package assembler

import (
	"testing"

	"qasm/isa"
	"qasm/lexer"
	"qasm/object"
	"qasm/parser"
	"qasm/stack"
	"qasm/types"
)

func testArchitecture() object.Architecture {
	return object.Architecture{WordSize: 8, LittleEndian: true}
}

func assemble(t *testing.T, source string) *object.File {
	t.Helper()
	doc, err := parser.New(lexer.New(source)).Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	data, err := New(Options{Architecture: testArchitecture(), VersionMajor: 1, VersionMinor: 0}).Assemble(doc)
	if err != nil {
		t.Fatalf("unexpected assemble error: %v", err)
	}
	file, err := object.ReadBytes(data)
	if err != nil {
		t.Fatalf("assembled output does not parse as an object file: %v", err)
	}
	return file
}

func assembleErr(t *testing.T, source string) error {
	t.Helper()
	doc, err := parser.New(lexer.New(source)).Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, err = New(Options{Architecture: testArchitecture(), VersionMajor: 1, VersionMinor: 0}).Assemble(doc)
	if err == nil {
		t.Fatalf("expected an assemble error, got none")
	}
	return err
}

func opcode(t *testing.T, name string) int8 {
	t.Helper()
	tmpl, err := isa.Get(name)
	if err != nil {
		t.Fatalf("unknown instruction %q: %v", name, err)
	}
	return tmpl.Opcode
}

// S1: a document with no functions, globals, types or imports produces an
// object file with zero sections and no flags set.
func TestAssembleEmptyDocument(t *testing.T) {
	file := assemble(t, "")
	if file.Header.NumSections != 0 {
		t.Errorf("num sections = %d, want 0", file.Header.NumSections)
	}
	if file.Header.HasFlag(object.HasEntryPoint) {
		t.Errorf("did not expect HasEntryPoint")
	}
	if file.Header.HasFlag(object.HasExports) {
		t.Errorf("did not expect HasExports")
	}
}

// S2: a void `main` with an explicit `ret` gets an implicit `push 0` ahead
// of it, and the file's entry config option points at main's code offset.
func TestAssembleVoidMainImplicitPush(t *testing.T) {
	file := assemble(t, `
func main(): void {
	ret
}
`)
	if !file.Header.HasFlag(object.HasEntryPoint) {
		t.Fatalf("expected HasEntryPoint")
	}
	code, ok := file.Section["code"]
	if !ok {
		t.Fatalf("expected a code section")
	}
	want := []byte{byte(opcode(t, "push")), byte(types.Void.Index()), 0, byte(opcode(t, "ret"))}
	if string(code) != string(want) {
		t.Errorf("code = %v, want %v", code, want)
	}

	config, ok := file.Section["config"]
	if !ok {
		t.Fatalf("expected a config section")
	}
	wordSize := testArchitecture().WordSize
	if len(config) != wordSize {
		t.Fatalf("config section length = %d, want %d", len(config), wordSize)
	}
	entryOffset, err := types.DecodeInt(config, testArchitecture().ByteOrder())
	if err != nil {
		t.Fatalf("could not decode entry offset: %v", err)
	}
	codeEntry, ok := file.Table.Get("code")
	if !ok {
		t.Fatalf("expected a code entry in the section table")
	}
	if uint64(entryOffset) != uint64(codeEntry.Offset) {
		t.Errorf("entry offset = %d, want %d (start of code section)", entryOffset, codeEntry.Offset)
	}
}

// S3: an exported function gets an export table entry describing its
// signature and code offset.
func TestAssembleExportedFunction(t *testing.T) {
	file := assemble(t, `
func add(int a, int b): int export {
	push arg.a
	push arg.b
	add int, int
	ret
}
`)
	if !file.Header.HasFlag(object.HasExports) {
		t.Fatalf("expected HasExports")
	}
	exportBytes, ok := file.Section["exports"]
	if !ok {
		t.Fatalf("expected an exports section")
	}
	table, err := object.ExportTableFromBytes(exportBytes, testArchitecture().WordSize, testArchitecture().ByteOrder())
	if err != nil {
		t.Fatalf("could not decode export table: %v", err)
	}
	entry, ok := table.Get("add")
	if !ok {
		t.Fatalf("expected an export entry for \"add\"")
	}
	if entry.ReturnType != types.Int {
		t.Errorf("return type = %s, want int", entry.ReturnType)
	}
	if len(entry.Parameters) != 2 || entry.Parameters[0] != types.Int || entry.Parameters[1] != types.Int {
		t.Errorf("unexpected parameters: %+v", entry.Parameters)
	}
	codeEntry, ok := file.Table.Get("code")
	if !ok {
		t.Fatalf("expected a code entry in the section table")
	}
	if entry.Offset != uint64(codeEntry.Offset) {
		t.Errorf("export offset = %d, want %d (start of code section)", entry.Offset, codeEntry.Offset)
	}
}

// S4: a call to a function defined later in the document resolves to a
// correct relative rptr once relocation has run.
func TestAssembleForwardCall(t *testing.T) {
	file := assemble(t, `
func main(): void {
	call helper
	ret
}

func helper(): void {
	ret
}
`)
	code, ok := file.Section["code"]
	if !ok {
		t.Fatalf("expected a code section")
	}
	if code[0] != byte(opcode(t, "call")) {
		t.Fatalf("first instruction opcode = %d, want call (%d)", code[0], opcode(t, "call"))
	}
	wordSize := testArchitecture().WordSize
	rptr, err := types.DecodeInt(code[1:1+wordSize], testArchitecture().ByteOrder())
	if err != nil {
		t.Fatalf("could not decode rptr: %v", err)
	}
	// main's call sits at code-relative offset 0. Before helper's label,
	// main still emits: the call itself (1 opcode + wordSize rptr + 2
	// trailing call bytes), then its void ret's implicit `push 0` (1
	// opcode + 2 var-param bytes), then the ret itself (1 opcode byte).
	callSize := int64(1) + int64(wordSize) + 2
	implicitPushSize := int64(1 + 2)
	retSize := int64(1)
	wantRptr := callSize + implicitPushSize + retSize
	if rptr != wantRptr {
		t.Errorf("rptr = %d, want %d", rptr, wantRptr)
	}
}

// S5: a `Type.field` argument resolves to the field's intra-type byte
// offset rather than being treated as a plain symbolic reference.
func TestAssemblePushFieldReference(t *testing.T) {
	file := assemble(t, `
type Point {
	var x: int
	var y: int
}

func main(): void {
	push Point.y
	ret
}
`)
	code, ok := file.Section["code"]
	if !ok {
		t.Fatalf("expected a code section")
	}
	if code[0] != byte(opcode(t, "push")) {
		t.Fatalf("first opcode = %d, want push (%d)", code[0], opcode(t, "push"))
	}
	// push Point.y: var-param encoded as (type_index, field_offset); y is
	// the second int-sized field of Point, so its offset is wordSize.
	if int(code[1]) != types.Int.Index() {
		t.Errorf("push arg type index = %d, want %d", code[1], types.Int.Index())
	}
	if int(code[2]) != testArchitecture().WordSize {
		t.Errorf("push arg value = %d, want field offset %d", code[2], testArchitecture().WordSize)
	}
}

// push_mem's own two type arguments are ordinary type names, resolved
// independently of the field-offset substitution rule.
func TestAssemblePushMem(t *testing.T) {
	file := assemble(t, `
func main(int** p): void {
	push arg.p
	push_mem int, int
	ret
}
`)
	code, ok := file.Section["code"]
	if !ok {
		t.Fatalf("expected a code section")
	}
	pushMemOp := byte(opcode(t, "push_mem"))
	idx := -1
	for i, b := range code {
		if b == pushMemOp {
			idx = i
			break
		}
	}
	if idx == -1 {
		t.Fatalf("push_mem opcode not found in code: %v", code)
	}
	if int(code[idx+1]) != types.Int.Index() || int(code[idx+2]) != types.Int.Index() {
		t.Errorf("push_mem type args = %d, %d, want %d, %d", code[idx+1], code[idx+2], types.Int.Index(), types.Int.Index())
	}
}

// S6: a stack-underflow instruction sequence is rejected before any bytes
// are produced.
func TestAssembleStackUnderflow(t *testing.T) {
	err := assembleErr(t, `
func main(): void {
	add int, int
	ret
}
`)
	typeErr, ok := err.(*TypeError)
	if !ok {
		t.Fatalf("expected a *TypeError, got %T: %v", err, err)
	}
	if _, ok := typeErr.Err.(*stack.NotEnoughValues); !ok {
		t.Errorf("expected the wrapped error to be *stack.NotEnoughValues, got %T: %v", typeErr.Err, typeErr.Err)
	}
}

func TestAssembleDuplicateLabelRejected(t *testing.T) {
	err := assembleErr(t, `
func dup(): void {
	ret
}

func dup(): void {
	ret
}
`)
	if _, ok := err.(*SemanticError); !ok {
		t.Fatalf("expected a *SemanticError, got %T: %v", err, err)
	}
}

func TestAssembleUndefinedCallRejected(t *testing.T) {
	err := assembleErr(t, `
func main(): void {
	call nonexistent
	ret
}
`)
	if _, ok := err.(*SemanticError); !ok {
		t.Fatalf("expected a *SemanticError, got %T: %v", err, err)
	}
}

func TestAssembleGlobalDataSection(t *testing.T) {
	file := assemble(t, "var counter: int = 7\n")
	data, ok := file.Section["data"]
	if !ok {
		t.Fatalf("expected a data section")
	}
	value, err := types.DecodeInt(data, testArchitecture().ByteOrder())
	if err != nil {
		t.Fatalf("could not decode global value: %v", err)
	}
	if value != 7 {
		t.Errorf("global value = %d, want 7", value)
	}
}
