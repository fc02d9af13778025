// Package ast defines the document produced by the parser: imports,
// globals, type definitions, and function definitions with bodies and
// locals. There is a single consumer of this tree (the assembler), walking
// a closed, non-recursive node set, so nodes are plain structs rather than
// a visitor hierarchy.
package ast

import "qasm/token"

// Type is either a NamedType or a PointerType.
type Type interface {
	isType()
	// Name returns the base identifier the type ultimately refers to,
	// ignoring any pointer wrapping.
	Name() string
}

// NamedType is a bare identifier type reference, e.g. "int" or "Point".
type NamedType struct {
	Identifier token.Token
}

func (NamedType) isType()        {}
func (t NamedType) Name() string { return t.Identifier.Lexeme }

// PointerType wraps an inner type with a count of trailing '*' suffixes,
// e.g. "int**" is PointerType{Inner: NamedType{int}, Stars: 2}.
type PointerType struct {
	Inner Type
	Stars int
}

func (PointerType) isType()        {}
func (t PointerType) Name() string { return t.Inner.Name() }

// FullyQualifiedName is a non-empty, dot-joined sequence of identifiers.
type FullyQualifiedName struct {
	Parts []token.Token
}

// String returns the dot-joined textual form, e.g. "math.add".
func (n FullyQualifiedName) String() string {
	out := ""
	for i, part := range n.Parts {
		if i > 0 {
			out += "."
		}
		out += part.Lexeme
	}
	return out
}
