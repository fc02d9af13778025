// Package parser implements the QSM recursive-descent parser: one token of
// lookahead over the tokenizer, producing an ast.Document. QSM is
// line-oriented: declarations and instructions are terminated by a newline
// (or EOF) rather than an explicit punctuation mark, and ';' begins a
// comment that runs to end of line.
package parser

import (
	"fmt"

	"qasm/ast"
	"qasm/lexer"
	"qasm/token"
)

// Option names one of the Parser's boolean behavior switches.
type Option int

const (
	AllowFunctionModifiers Option = iota
	AllowVariableModifiers
	numOptions
)

// Parser consumes a lexer.Tokenizer and produces an ast.Document.
type Parser struct {
	tok     *lexer.Tokenizer
	current token.Token
	options [numOptions]bool
}

// New constructs a Parser over tok. The tokenizer must not have been
// advanced yet. Newline tokens are enabled for the lifetime of the parser,
// since they are the statement terminator.
func New(tok *lexer.Tokenizer) *Parser {
	tok.Acquire(lexer.EmitNewline)
	return &Parser{tok: tok}
}

func (p *Parser) advance() error {
	t, err := p.tok.Advance()
	if err != nil {
		return err
	}
	p.current = t
	return nil
}

func (p *Parser) get(opt Option) bool    { return p.options[opt] }
func (p *Parser) set(opt Option, v bool) { p.options[opt] = v }

// acquire temporarily enables the given options and returns a function that
// restores their prior values.
func (p *Parser) acquire(opts ...Option) func() {
	previous := make([]bool, len(opts))
	for i, opt := range opts {
		previous[i] = p.options[opt]
		p.set(opt, true)
	}
	return func() {
		for i, opt := range opts {
			p.set(opt, previous[i])
		}
	}
}

// skipNewlines consumes any run of Newline tokens, including none.
func (p *Parser) skipNewlines() error {
	for p.current.Kind == token.Newline {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// endOfLine requires the current token to terminate a statement: a
// Newline (which it consumes, along with any further blank lines) or EOF.
func (p *Parser) endOfLine() error {
	if p.current.Kind != token.Newline && p.current.Kind != token.EOF {
		return &UnexpectedTokenError{Expected: "end of line", Got: p.current}
	}
	return p.skipNewlines()
}

// getToken verifies the current token matches kind (and, if lexeme is
// non-empty, matches that exact lexeme), returns it, and advances.
func (p *Parser) getToken(kind token.Kind, lexeme string) (token.Token, error) {
	if p.current.Kind != kind || (lexeme != "" && p.current.Lexeme != lexeme) {
		expected := kind.String()
		if lexeme != "" {
			expected = lexeme
		}
		return token.Token{}, &UnexpectedTokenError{Expected: expected, Got: p.current}
	}
	t := p.current
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

// tryGetToken behaves like getToken but returns ok=false instead of an
// error when the current token does not match.
func (p *Parser) tryGetToken(kind token.Kind, lexeme string) (token.Token, bool, error) {
	if p.current.Kind != kind || (lexeme != "" && p.current.Lexeme != lexeme) {
		return token.Token{}, false, nil
	}
	t, err := p.getToken(kind, lexeme)
	return t, true, err
}

func (p *Parser) getType() (ast.Type, error) {
	name, err := p.getToken(token.Identifier, "")
	if err != nil {
		return nil, err
	}
	var typ ast.Type = ast.NamedType{Identifier: name}
	stars := 0
	for p.current.Kind == token.Asterisk {
		if _, err := p.getToken(token.Asterisk, ""); err != nil {
			return nil, err
		}
		stars++
	}
	if stars > 0 {
		typ = ast.PointerType{Inner: typ, Stars: stars}
	}
	return typ, nil
}

func (p *Parser) getParameter(index int) (ast.Parameter, error) {
	typ, err := p.getType()
	if err != nil {
		return ast.Parameter{}, err
	}
	name, ok, err := p.tryGetToken(token.Identifier, "")
	if err != nil {
		return ast.Parameter{}, err
	}
	if !ok {
		name = token.New(token.Identifier, fmt.Sprintf("%d", index), p.current.Line, p.current.Column)
	}
	return ast.Parameter{Name: name, TypeName: typ}, nil
}

func (p *Parser) getParameters() ([]ast.Parameter, error) {
	if p.current.Kind != token.Identifier {
		return nil, nil
	}
	var params []ast.Parameter
	first, err := p.getParameter(0)
	if err != nil {
		return nil, err
	}
	params = append(params, first)
	for {
		_, ok, err := p.tryGetToken(token.Comma, "")
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		next, err := p.getParameter(len(params))
		if err != nil {
			return nil, err
		}
		params = append(params, next)
	}
	return params, nil
}

// getModifiers consumes a run of bare identifiers up to (but not
// including) the newline that ends the current statement.
func (p *Parser) getModifiers() ([]token.Token, error) {
	var modifiers []token.Token
	for p.current.Kind == token.Identifier {
		mod, _, err := p.tryGetToken(token.Identifier, "")
		if err != nil {
			return nil, err
		}
		modifiers = append(modifiers, mod)
	}
	return modifiers, nil
}

func (p *Parser) getFullyQualifiedName() (ast.FullyQualifiedName, error) {
	first, err := p.getToken(token.Identifier, "")
	if err != nil {
		return ast.FullyQualifiedName{}, err
	}
	parts := []token.Token{first}
	for {
		_, ok, err := p.tryGetToken(token.Dot, "")
		if err != nil {
			return ast.FullyQualifiedName{}, err
		}
		if !ok {
			break
		}
		next, err := p.getToken(token.Identifier, "")
		if err != nil {
			return ast.FullyQualifiedName{}, err
		}
		parts = append(parts, next)
	}
	return ast.FullyQualifiedName{Parts: parts}, nil
}

func (p *Parser) getLiteral() (token.Token, error) {
	if !p.current.Kind.IsLiteral() {
		return token.Token{}, &UnexpectedTokenError{Expected: "literal", Got: p.current}
	}
	t := p.current
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return t, nil
}

// getImportDeclaration parses one entry of an import block:
// `var|func|type Name`, on its own line.
func (p *Parser) getImportDeclaration() (ast.ImportDeclaration, error) {
	keyword, err := p.getToken(token.Identifier, "")
	if err != nil {
		return ast.ImportDeclaration{}, err
	}
	name, err := p.getFullyQualifiedName()
	if err != nil {
		return ast.ImportDeclaration{}, err
	}
	var kind ast.ImportKind
	switch keyword.Lexeme {
	case "var":
		kind = ast.ImportVariable
	case "func":
		kind = ast.ImportFunction
	case "type":
		kind = ast.ImportType
	default:
		return ast.ImportDeclaration{}, &UnexpectedTokenError{Expected: "var, func or type", Got: keyword}
	}
	if err := p.endOfLine(); err != nil {
		return ast.ImportDeclaration{}, err
	}
	return ast.ImportDeclaration{Keyword: keyword, Kind: kind, Name: name, LocalName: name}, nil
}

// getImportStatement parses `import modifiers* "file"` on one line,
// optionally followed by a `{ ... }` block of import declarations.
func (p *Parser) getImportStatement() (ast.ImportStatement, error) {
	keyword, err := p.getToken(token.Identifier, "import")
	if err != nil {
		return ast.ImportStatement{}, err
	}
	modifiers, err := p.getModifiers()
	if err != nil {
		return ast.ImportStatement{}, err
	}
	file, err := p.getToken(token.LiteralString, "")
	if err != nil {
		return ast.ImportStatement{}, err
	}
	stmt := ast.ImportStatement{Keyword: keyword, File: file, Modifiers: modifiers}
	_, hasBlock, err := p.tryGetToken(token.LeftCurly, "")
	if err != nil {
		return ast.ImportStatement{}, err
	}
	if !hasBlock {
		if err := p.endOfLine(); err != nil {
			return ast.ImportStatement{}, err
		}
		return stmt, nil
	}
	if err := p.endOfLine(); err != nil {
		return ast.ImportStatement{}, err
	}
	for {
		if err := p.skipNewlines(); err != nil {
			return ast.ImportStatement{}, err
		}
		_, done, err := p.tryGetToken(token.RightCurly, "")
		if err != nil {
			return ast.ImportStatement{}, err
		}
		if done {
			break
		}
		decl, err := p.getImportDeclaration()
		if err != nil {
			return ast.ImportStatement{}, err
		}
		stmt.Imports = append(stmt.Imports, decl)
	}
	if err := p.endOfLine(); err != nil {
		return ast.ImportStatement{}, err
	}
	return stmt, nil
}

func (p *Parser) getInstructionArgument() (ast.InstructionArgument, error) {
	var arg ast.InstructionArgument
	if p.current.Kind == token.Identifier {
		name, err := p.getFullyQualifiedName()
		if err != nil {
			return ast.InstructionArgument{}, err
		}
		arg.Name = &name
		arg.Value = name.Parts[0]
	} else {
		lit, err := p.getLiteral()
		if err != nil {
			return ast.InstructionArgument{}, err
		}
		arg.Value = lit
	}
	_, hasType, err := p.tryGetToken(token.Colon, "")
	if err != nil {
		return ast.InstructionArgument{}, err
	}
	if hasType {
		typ, err := p.getType()
		if err != nil {
			return ast.InstructionArgument{}, err
		}
		arg.Type = typ
	}
	return arg, nil
}

func (p *Parser) getInstructionArguments() ([]ast.InstructionArgument, error) {
	if p.current.Kind != token.Identifier && !p.current.Kind.IsLiteral() {
		return nil, nil
	}
	var args []ast.InstructionArgument
	first, err := p.getInstructionArgument()
	if err != nil {
		return nil, err
	}
	args = append(args, first)
	for {
		_, ok, err := p.tryGetToken(token.Comma, "")
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		next, err := p.getInstructionArgument()
		if err != nil {
			return nil, err
		}
		args = append(args, next)
	}
	return args, nil
}

// getInstruction parses one instruction occurrence on its own line:
// `name.space arg, arg, ...`.
func (p *Parser) getInstruction() (ast.Instruction, error) {
	name, err := p.getFullyQualifiedName()
	if err != nil {
		return ast.Instruction{}, err
	}
	args, err := p.getInstructionArguments()
	if err != nil {
		return ast.Instruction{}, err
	}
	if err := p.endOfLine(); err != nil {
		return ast.Instruction{}, err
	}
	return ast.Instruction{Name: name, Arguments: args}, nil
}

func (p *Parser) getFunctionSignature() (ast.FunctionDeclaration, error) {
	keyword, err := p.getToken(token.Identifier, "func")
	if err != nil {
		return ast.FunctionDeclaration{}, err
	}
	name, err := p.getFullyQualifiedName()
	if err != nil {
		return ast.FunctionDeclaration{}, err
	}
	if _, err := p.getToken(token.LeftParen, ""); err != nil {
		return ast.FunctionDeclaration{}, err
	}
	params, err := p.getParameters()
	if err != nil {
		return ast.FunctionDeclaration{}, err
	}
	if _, err := p.getToken(token.RightParen, ""); err != nil {
		return ast.FunctionDeclaration{}, err
	}
	if _, err := p.getToken(token.Colon, ""); err != nil {
		return ast.FunctionDeclaration{}, err
	}
	returnType, err := p.getType()
	if err != nil {
		return ast.FunctionDeclaration{}, err
	}
	return ast.FunctionDeclaration{Keyword: keyword, Name: name, Parameters: params, ReturnType: returnType}, nil
}

// getFunctionDefinition parses `func name(params): type modifiers* { body }`.
// The signature, any modifiers, and the opening brace share one line; the
// body is one declaration or instruction per line.
func (p *Parser) getFunctionDefinition() (ast.FunctionDefinition, error) {
	decl, err := p.getFunctionSignature()
	if err != nil {
		return ast.FunctionDefinition{}, err
	}
	var modifiers []token.Token
	if p.get(AllowFunctionModifiers) {
		modifiers, err = p.getModifiers()
		if err != nil {
			return ast.FunctionDefinition{}, err
		}
	}
	fn := ast.FunctionDefinition{FunctionDeclaration: decl, Modifiers: modifiers}
	if _, err := p.getToken(token.LeftCurly, ""); err != nil {
		return ast.FunctionDefinition{}, err
	}
	if err := p.endOfLine(); err != nil {
		return ast.FunctionDefinition{}, err
	}
	for {
		if err := p.skipNewlines(); err != nil {
			return ast.FunctionDefinition{}, err
		}
		_, done, err := p.tryGetToken(token.RightCurly, "")
		if err != nil {
			return ast.FunctionDefinition{}, err
		}
		if done {
			break
		}
		if p.current.Kind == token.Identifier && p.current.Lexeme == "var" {
			local, err := p.getVariableDeclaration()
			if err != nil {
				return ast.FunctionDefinition{}, err
			}
			fn.Locals = append(fn.Locals, local)
			continue
		}
		instr, err := p.getInstruction()
		if err != nil {
			return ast.FunctionDefinition{}, err
		}
		fn.Body = append(fn.Body, instr)
	}
	if err := p.endOfLine(); err != nil {
		return ast.FunctionDefinition{}, err
	}
	return fn, nil
}

// getVariableSignature parses the common `var name : type` prefix shared by
// local declarations, type fields, and global definitions.
func (p *Parser) getVariableSignature() (ast.VariableDeclaration, error) {
	keyword, err := p.getToken(token.Identifier, "var")
	if err != nil {
		return ast.VariableDeclaration{}, err
	}
	name, err := p.getFullyQualifiedName()
	if err != nil {
		return ast.VariableDeclaration{}, err
	}
	if _, err := p.getToken(token.Colon, ""); err != nil {
		return ast.VariableDeclaration{}, err
	}
	typ, err := p.getType()
	if err != nil {
		return ast.VariableDeclaration{}, err
	}
	return ast.VariableDeclaration{Keyword: keyword, Name: name, Type: typ}, nil
}

// getVariableDeclaration parses a bare `var name : type` line, used for
// function locals and type fields, neither of which carry initializers.
func (p *Parser) getVariableDeclaration() (ast.VariableDeclaration, error) {
	decl, err := p.getVariableSignature()
	if err != nil {
		return ast.VariableDeclaration{}, err
	}
	if err := p.endOfLine(); err != nil {
		return ast.VariableDeclaration{}, err
	}
	return decl, nil
}

// getGlobalVariable parses a top-level `var name : type modifiers* = literal`
// line.
func (p *Parser) getGlobalVariable() (ast.VariableDefinition, error) {
	decl, err := p.getVariableSignature()
	if err != nil {
		return ast.VariableDefinition{}, err
	}
	var modifiers []token.Token
	if p.get(AllowVariableModifiers) {
		modifiers, err = p.getModifiers()
		if err != nil {
			return ast.VariableDefinition{}, err
		}
	}
	if _, err := p.getToken(token.Equals, ""); err != nil {
		return ast.VariableDefinition{}, err
	}
	value, err := p.getLiteral()
	if err != nil {
		return ast.VariableDefinition{}, err
	}
	if err := p.endOfLine(); err != nil {
		return ast.VariableDefinition{}, err
	}
	return ast.VariableDefinition{VariableDeclaration: decl, Modifiers: modifiers, Value: value}, nil
}

// getTypeDefinition parses `type Name modifiers* { fields and methods }`.
func (p *Parser) getTypeDefinition() (ast.TypeDefinition, error) {
	keyword, err := p.getToken(token.Identifier, "type")
	if err != nil {
		return ast.TypeDefinition{}, err
	}
	name, err := p.getFullyQualifiedName()
	if err != nil {
		return ast.TypeDefinition{}, err
	}
	modifiers, err := p.getModifiers()
	if err != nil {
		return ast.TypeDefinition{}, err
	}
	typ := ast.TypeDefinition{TypeDeclaration: ast.TypeDeclaration{Keyword: keyword, Name: name}, Modifiers: modifiers}
	if _, err := p.getToken(token.LeftCurly, ""); err != nil {
		return ast.TypeDefinition{}, err
	}
	if err := p.endOfLine(); err != nil {
		return ast.TypeDefinition{}, err
	}
	for {
		if err := p.skipNewlines(); err != nil {
			return ast.TypeDefinition{}, err
		}
		_, done, err := p.tryGetToken(token.RightCurly, "")
		if err != nil {
			return ast.TypeDefinition{}, err
		}
		if done {
			break
		}
		switch {
		case p.current.Kind == token.Identifier && p.current.Lexeme == "var":
			field, err := p.getVariableDeclaration()
			if err != nil {
				return ast.TypeDefinition{}, err
			}
			typ.Fields = append(typ.Fields, field)
		case p.current.Kind == token.Identifier && p.current.Lexeme == "func":
			fn, err := p.getFunctionDefinition()
			if err != nil {
				return ast.TypeDefinition{}, err
			}
			typ.Functions = append(typ.Functions, fn)
		default:
			return ast.TypeDefinition{}, &UnexpectedTokenError{Expected: "var or func", Got: p.current}
		}
	}
	if err := p.endOfLine(); err != nil {
		return ast.TypeDefinition{}, err
	}
	return typ, nil
}

// Parse runs the top-level loop, dispatching on each top-level keyword
// until the tokenizer is exhausted. Blank lines between top-level
// constructs are permitted anywhere.
func (p *Parser) Parse() (*ast.Document, error) {
	doc := &ast.Document{}
	if err := p.advance(); err != nil {
		return nil, err
	}
	restore := p.acquire(AllowFunctionModifiers, AllowVariableModifiers)
	defer restore()
	for {
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		if !p.tok.HasTokens() {
			break
		}
		tok := p.current
		switch {
		case tok.Kind == token.Identifier && tok.Lexeme == "func":
			fn, err := p.getFunctionDefinition()
			if err != nil {
				return nil, err
			}
			doc.AddFunction(fn)
		case tok.Kind == token.Identifier && tok.Lexeme == "var":
			def, err := p.getGlobalVariable()
			if err != nil {
				return nil, err
			}
			doc.AddGlobal(def)
		case tok.Kind == token.Identifier && tok.Lexeme == "type":
			typ, err := p.getTypeDefinition()
			if err != nil {
				return nil, err
			}
			doc.AddType(typ)
		case tok.Kind == token.Identifier && tok.Lexeme == "import":
			stmt, err := p.getImportStatement()
			if err != nil {
				return nil, err
			}
			doc.AddImport(stmt)
		default:
			return nil, &UnexpectedTokenError{Expected: "var, func, type or import", Got: tok}
		}
	}
	return doc, nil
}
