package ast

import "qasm/token"

// ImportKind is the kind of symbol named by an ImportDeclaration.
type ImportKind int

const (
	ImportVariable ImportKind = iota
	ImportFunction
	ImportType
)

// ImportDeclaration names one symbol imported from a loaded file.
type ImportDeclaration struct {
	Keyword token.Token
	Kind    ImportKind
	Name    FullyQualifiedName
	// LocalName is the name the import is bound to locally. The parser has
	// no alias syntax, so it always sets LocalName equal to Name.
	LocalName FullyQualifiedName
}

// ImportStatement is a top-level `import "path" { ... }` construct.
type ImportStatement struct {
	Keyword   token.Token
	File      token.Token
	Modifiers []token.Token
	Imports   []ImportDeclaration
}

// Parameter is one entry of a function signature's parameter list.
// Name is the zero Token when the parameter is anonymous; the parser
// assigns it a positional name in that case.
type Parameter struct {
	Name     token.Token
	TypeName Type
}

// FunctionDeclaration is a function signature with no body: `func name(params): type`.
type FunctionDeclaration struct {
	Keyword    token.Token
	Name       FullyQualifiedName
	Parameters []Parameter
	ReturnType Type
}

// TypeDeclaration is a bare `type Name` reference with no body.
type TypeDeclaration struct {
	Keyword token.Token
	Name    FullyQualifiedName
}

// VariableDeclaration is `var name : type` with no initializer.
type VariableDeclaration struct {
	Keyword token.Token
	Name    FullyQualifiedName
	Type    Type
}

// InstructionArgument is one comma-separated argument of an Instruction.
// Type is nil unless the argument carried an explicit `: Type` annotation.
// Name is non-nil when the argument is a symbolic reference (a bare
// identifier or a dotted field path); otherwise Value carries the literal
// token directly.
type InstructionArgument struct {
	Name  *FullyQualifiedName
	Value token.Token
	Type  Type
}

// Instruction is one instruction occurrence inside a function body.
type Instruction struct {
	Name      FullyQualifiedName
	Arguments []InstructionArgument
}

// FunctionDefinition is a function declaration with a body.
type FunctionDefinition struct {
	FunctionDeclaration
	Modifiers []token.Token
	Body      []Instruction
	Locals    []VariableDeclaration
}

// IsExported reports whether the function carries the "export" modifier.
func (f *FunctionDefinition) IsExported() bool {
	for _, m := range f.Modifiers {
		if m.Lexeme == "export" {
			return true
		}
	}
	return false
}

// TypeDefinition is a type declaration with a body of fields and methods.
type TypeDefinition struct {
	TypeDeclaration
	Modifiers []token.Token
	Fields    []VariableDeclaration
	Functions []FunctionDefinition
}

// VariableDefinition is a global variable declaration with an initializer.
type VariableDefinition struct {
	VariableDeclaration
	Modifiers []token.Token
	Value     token.Token
}

// Document is the root of the AST: every top-level construct in one
// source file, bucketed by kind, each bucket in source order.
type Document struct {
	Imports   []ImportStatement
	Functions []FunctionDefinition
	Globals   []VariableDefinition
	Types     []TypeDefinition
}

func (d *Document) AddImport(i ImportStatement)         { d.Imports = append(d.Imports, i) }
func (d *Document) AddFunction(f FunctionDefinition)     { d.Functions = append(d.Functions, f) }
func (d *Document) AddGlobal(v VariableDefinition)       { d.Globals = append(d.Globals, v) }
func (d *Document) AddType(t TypeDefinition)             { d.Types = append(d.Types, t) }
