package parser

import (
	"testing"

	"qasm/ast"
	"qasm/lexer"
	"qasm/token"
)

func parse(t *testing.T, source string) *ast.Document {
	t.Helper()
	doc, err := New(lexer.New(source)).Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	return doc
}

func TestParseFunctionDefinition(t *testing.T) {
	doc := parse(t, `
func add(int a, int b): int export {
	var tmp: int
	a
	b
	add
	ret
}
`)
	if len(doc.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(doc.Functions))
	}
	fn := doc.Functions[0]
	if fn.Name.String() != "add" {
		t.Errorf("name = %q, want add", fn.Name.String())
	}
	if len(fn.Parameters) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(fn.Parameters))
	}
	if fn.Parameters[0].Name.Lexeme != "a" || fn.Parameters[0].TypeName.Name() != "int" {
		t.Errorf("unexpected first parameter: %+v", fn.Parameters[0])
	}
	if !fn.IsExported() {
		t.Errorf("expected function to be exported")
	}
	if len(fn.Locals) != 1 || fn.Locals[0].Name.String() != "tmp" {
		t.Errorf("unexpected locals: %+v", fn.Locals)
	}
	if len(fn.Body) != 4 {
		t.Fatalf("expected 4 instructions, got %d", len(fn.Body))
	}
}

func TestParseAnonymousParameters(t *testing.T) {
	doc := parse(t, `
func f(int, int): void {
}
`)
	fn := doc.Functions[0]
	if fn.Parameters[0].Name.Lexeme != "0" || fn.Parameters[1].Name.Lexeme != "1" {
		t.Errorf("expected positional names 0, 1; got %q, %q", fn.Parameters[0].Name.Lexeme, fn.Parameters[1].Name.Lexeme)
	}
}

func TestParsePointerType(t *testing.T) {
	doc := parse(t, `
func f(int** p): void {
}
`)
	typ := doc.Functions[0].Parameters[0].TypeName
	ptr, ok := typ.(ast.PointerType)
	if !ok {
		t.Fatalf("expected PointerType, got %T", typ)
	}
	if ptr.Stars != 2 {
		t.Errorf("stars = %d, want 2", ptr.Stars)
	}
	if ptr.Name() != "int" {
		t.Errorf("base name = %q, want int", ptr.Name())
	}
}

func TestParseGlobalVariable(t *testing.T) {
	doc := parse(t, "var counter: int readonly = 0\n")
	if len(doc.Globals) != 1 {
		t.Fatalf("expected 1 global, got %d", len(doc.Globals))
	}
	g := doc.Globals[0]
	if g.Name.String() != "counter" {
		t.Errorf("name = %q, want counter", g.Name.String())
	}
	if len(g.Modifiers) != 1 || g.Modifiers[0].Lexeme != "readonly" {
		t.Errorf("unexpected modifiers: %+v", g.Modifiers)
	}
	if g.Value.Kind != token.LiteralInt {
		t.Errorf("value kind = %s, want LITERAL_INT", g.Value.Kind)
	}
}

func TestParseTypeDefinition(t *testing.T) {
	doc := parse(t, `
type Point {
	var x: int
	var y: int
}
`)
	if len(doc.Types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(doc.Types))
	}
	typ := doc.Types[0]
	if typ.Name.String() != "Point" {
		t.Errorf("name = %q, want Point", typ.Name.String())
	}
	if len(typ.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(typ.Fields))
	}
}

func TestParseInstructionWithFieldArgument(t *testing.T) {
	doc := parse(t, `
func f(): void {
	push Point.y
}
`)
	instr := doc.Functions[0].Body[0]
	if instr.Name.String() != "push" {
		t.Fatalf("unexpected instruction name: %s", instr.Name.String())
	}
	arg := instr.Arguments[0]
	if arg.Name == nil {
		t.Fatalf("expected a named argument")
	}
	if arg.Name.String() != "Point.y" {
		t.Errorf("argument name = %q, want Point.y", arg.Name.String())
	}
}

func TestParseInstructionWithTypedLiteralArgument(t *testing.T) {
	doc := parse(t, `
func f(): void {
	push 42: int8
}
`)
	arg := doc.Functions[0].Body[0].Arguments[0]
	if arg.Name != nil {
		t.Fatalf("expected an unnamed literal argument, got %+v", arg.Name)
	}
	if arg.Value.Literal != int64(42) {
		t.Errorf("value = %v, want 42", arg.Value.Literal)
	}
	if arg.Type == nil || arg.Type.Name() != "int8" {
		t.Errorf("unexpected type annotation: %+v", arg.Type)
	}
}

func TestParseInstructionWithMultipleArguments(t *testing.T) {
	doc := parse(t, `
func f(): void {
	store 1, 2
}
`)
	args := doc.Functions[0].Body[0].Arguments
	if len(args) != 2 {
		t.Fatalf("expected 2 arguments, got %d", len(args))
	}
}

func TestParseImportStatementWithBlock(t *testing.T) {
	doc := parse(t, `
import "math.qpl" {
	func add
	var pi
	type Vector
}
`)
	if len(doc.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(doc.Imports))
	}
	stmt := doc.Imports[0]
	if stmt.File.Literal != "math.qpl" {
		t.Errorf("file = %v, want math.qpl", stmt.File.Literal)
	}
	if len(stmt.Imports) != 3 {
		t.Fatalf("expected 3 import declarations, got %d", len(stmt.Imports))
	}
	if stmt.Imports[0].Kind != ast.ImportFunction || stmt.Imports[0].Name.String() != "add" {
		t.Errorf("unexpected first import declaration: %+v", stmt.Imports[0])
	}
	if stmt.Imports[1].Kind != ast.ImportVariable {
		t.Errorf("expected second declaration to be a variable import")
	}
	if stmt.Imports[2].Kind != ast.ImportType {
		t.Errorf("expected third declaration to be a type import")
	}
}

func TestParseImportStatementBare(t *testing.T) {
	doc := parse(t, "import \"raw.qpl\"\n")
	if len(doc.Imports) != 1 {
		t.Fatalf("expected 1 import, got %d", len(doc.Imports))
	}
	if len(doc.Imports[0].Imports) != 0 {
		t.Errorf("expected no import declarations for a bare import")
	}
}

func TestParseUnexpectedTopLevelToken(t *testing.T) {
	_, err := New(lexer.New(`123`)).Parse()
	if err == nil {
		t.Fatalf("expected an error for a malformed top-level construct")
	}
	if _, ok := err.(*UnexpectedTokenError); !ok {
		t.Errorf("expected *UnexpectedTokenError, got %T", err)
	}
}

func TestParseMultipleFunctionsAndGlobalsInOrder(t *testing.T) {
	doc := parse(t, `
var a: int = 1

func f(): void {
}

var b: int = 2

func g(): void {
}
`)
	if len(doc.Globals) != 2 || len(doc.Functions) != 2 {
		t.Fatalf("expected 2 globals and 2 functions, got %d globals, %d functions", len(doc.Globals), len(doc.Functions))
	}
	if doc.Globals[0].Name.String() != "a" || doc.Globals[1].Name.String() != "b" {
		t.Errorf("globals out of source order: %q, %q", doc.Globals[0].Name.String(), doc.Globals[1].Name.String())
	}
	if doc.Functions[0].Name.String() != "f" || doc.Functions[1].Name.String() != "g" {
		t.Errorf("functions out of source order: %q, %q", doc.Functions[0].Name.String(), doc.Functions[1].Name.String())
	}
}

func TestParseCommentsAreIgnored(t *testing.T) {
	doc := parse(t, `
; a leading comment
var a: int = 1 ; trailing comment
`)
	if len(doc.Globals) != 1 {
		t.Fatalf("expected 1 global, got %d", len(doc.Globals))
	}
}
