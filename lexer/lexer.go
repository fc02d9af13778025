// Package lexer implements the QSM tokenizer: a stateful, option-driven
// scanner that pulls one token at a time from source text.
package lexer

import (
	"strings"
	"unicode"

	"qasm/token"
)

// identifierFirstChars lists the non-alnum runes permitted both at the
// start of, and within, an identifier.
const identifierFirstChars = "_$#%!"

func isIdentifierFirstChar(r rune) bool {
	return unicode.IsLetter(r) || strings.ContainsRune(identifierFirstChars, r)
}

func isIdentifierChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(identifierFirstChars, r)
}

// Option names one of the Tokenizer's boolean behavior switches.
type Option int

const (
	EmitNewline Option = iota
	EmitWhitespace
	EmitComments
	IncludeCommentCharacter
	IncludeCommentEOL
	SkipSpacesBeforeEating
	numOptions
)

// Tokenizer is a stateful, pull-based scanner over QSM source text.
//
// Advance produces one Token per call and records it as CurrentToken.
// Options tune which whitespace-like tokens are surfaced versus silently
// consumed; they are off by default and can be toggled for the scope of a
// block via Acquire.
type Tokenizer struct {
	source  []rune
	current int
	line    int
	column  int

	lastLine   int
	lastColumn int

	token   token.Token
	options [numOptions]bool
}

// New constructs a Tokenizer positioned at the start of source.
func New(source string) *Tokenizer {
	return &Tokenizer{
		source:     []rune(source),
		line:       1,
		column:     1,
		lastLine:   1,
		lastColumn: 1,
	}
}

// CurrentToken returns the most recently produced token.
func (t *Tokenizer) CurrentToken() token.Token {
	return t.token
}

// HasTokens reports whether Advance may still return a non-EOF token.
func (t *Tokenizer) HasTokens() bool {
	return t.token.Kind != token.EOF
}

func (t *Tokenizer) currentChar() rune {
	if t.current >= len(t.source) {
		return 0
	}
	return t.source[t.current]
}

func (t *Tokenizer) nextChar() rune {
	if t.current+1 >= len(t.source) {
		return 0
	}
	return t.source[t.current+1]
}

// getChar consumes and returns the current character, advancing the cursor
// and updating line/column bookkeeping.
func (t *Tokenizer) getChar() rune {
	c := t.currentChar()
	if c == '\n' {
		t.line++
		t.column = 0
	} else if c == '\r' {
		t.column = 0
	}
	t.column++
	t.current++
	return c
}

// createToken builds a Token using the position recorded before the lexeme
// that is about to be returned was consumed, then advances the lagging
// position markers to the tokenizer's current position.
func (t *Tokenizer) createToken(kind token.Kind, lexeme string) token.Token {
	t.token = token.New(kind, lexeme, t.lastLine, t.lastColumn)
	t.lastLine = t.line
	t.lastColumn = t.column
	return t.token
}

func (t *Tokenizer) createLiteralToken(kind token.Kind, lexeme string, literal any) token.Token {
	t.token = token.NewLiteral(kind, lexeme, literal, t.lastLine, t.lastColumn)
	t.lastLine = t.line
	t.lastColumn = t.column
	return t.token
}

func (t *Tokenizer) getIdentifier() string {
	var b strings.Builder
	for isIdentifierChar(t.currentChar()) {
		b.WriteRune(t.getChar())
	}
	return b.String()
}

func (t *Tokenizer) getInteger10() string {
	var b strings.Builder
	if t.currentChar() == '-' {
		b.WriteRune(t.getChar())
	}
	for unicode.IsDigit(t.currentChar()) {
		b.WriteRune(t.getChar())
	}
	return b.String()
}

func (t *Tokenizer) getInteger16() string {
	var b strings.Builder
	for isHexDigit(t.currentChar()) {
		b.WriteRune(t.getChar())
	}
	return b.String()
}

func isHexDigit(r rune) bool {
	lower := unicode.ToLower(r)
	return unicode.IsDigit(r) || ('a' <= lower && lower <= 'f')
}

func (t *Tokenizer) getNumber() (string, bool, error) {
	var b strings.Builder
	isFloat := false
	left := t.getInteger10()
	if left == "" && t.currentChar() != '.' {
		return "", false, t.unexpectedCharacterError('.')
	}
	b.WriteString(left)
	if t.currentChar() == '.' {
		isFloat = true
		b.WriteRune(t.getChar())
		b.WriteString(t.getInteger10())
	}
	return b.String(), isFloat, nil
}

func (t *Tokenizer) getLineComment() string {
	var b strings.Builder
	for t.currentChar() != '\n' && t.current < len(t.source) {
		b.WriteRune(t.getChar())
	}
	if t.get(IncludeCommentEOL) && t.currentChar() == '\n' {
		b.WriteRune(t.getChar())
	}
	return b.String()
}

func specialCharacter(c rune) (rune, bool) {
	switch c {
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'n':
		return '\n', true
	case '\\':
		return '\\', true
	case '\'':
		return '\'', true
	default:
		return 0, false
	}
}

// Advance scans and returns the next token, respecting the currently
// enabled Options. Once EOF has been produced, subsequent calls keep
// returning it.
func (t *Tokenizer) Advance() (token.Token, error) {
	for {
		c := t.currentChar()
		if t.current >= len(t.source) {
			return t.createToken(token.EOF, "<EOF>"), nil
		}

		switch {
		case c == '\n':
			lex := string(t.getChar())
			if t.get(EmitNewline) {
				return t.createToken(token.Newline, lex), nil
			}
			continue
		case c == ' ' || c == '\t':
			lex := string(t.getChar())
			if t.get(EmitWhitespace) {
				return t.createToken(token.Whitespace, lex), nil
			}
			continue
		case c == ';':
			if t.get(EmitComments) {
				if !t.get(IncludeCommentCharacter) {
					t.getChar()
					return t.createToken(token.Comment, t.getLineComment()), nil
				}
				return t.createToken(token.Comment, string(t.getChar())+t.getLineComment()), nil
			}
			for t.currentChar() != '\n' && t.current < len(t.source) {
				t.getChar()
			}
			continue
		case c == '(':
			return t.createToken(token.LeftParen, string(t.getChar())), nil
		case c == ')':
			return t.createToken(token.RightParen, string(t.getChar())), nil
		case c == '{':
			return t.createToken(token.LeftCurly, string(t.getChar())), nil
		case c == '}':
			return t.createToken(token.RightCurly, string(t.getChar())), nil
		case c == ',':
			return t.createToken(token.Comma, string(t.getChar())), nil
		case c == '=':
			return t.createToken(token.Equals, string(t.getChar())), nil
		case c == '*':
			return t.createToken(token.Asterisk, string(t.getChar())), nil
		case c == '.':
			if unicode.IsDigit(t.nextChar()) {
				lex, _, err := t.getNumber()
				if err != nil {
					return token.Token{}, err
				}
				return t.createLiteralToken(token.LiteralFloat, lex, parseFloatLiteral(lex)), nil
			}
			return t.createToken(token.Dot, string(t.getChar())), nil
		case c == ':':
			return t.createToken(token.Colon, string(t.getChar())), nil
		case c == '\'':
			t.getChar()
			ch := t.getChar()
			if ch == '\\' {
				if esc, ok := specialCharacter(t.currentChar()); ok {
					ch = esc
					t.getChar()
				}
			}
			if t.getChar() != '\'' {
				return token.Token{}, t.unexpectedCharacterError('\'')
			}
			return t.createLiteralToken(token.LiteralChar, string(ch), ch), nil
		case c == '"':
			t.getChar()
			var b strings.Builder
			for t.currentChar() != '"' && t.current < len(t.source) {
				ch := t.getChar()
				if ch == '\\' {
					if esc, ok := specialCharacter(t.currentChar()); ok {
						ch = esc
						t.getChar()
					}
				}
				b.WriteRune(ch)
			}
			t.getChar()
			return t.createLiteralToken(token.LiteralString, b.String(), b.String()), nil
		case c == '\\':
			t.getChar()
			if t.getChar() == 'x' {
				lex := t.getInteger16()
				return t.createLiteralToken(token.LiteralHex, lex, lex), nil
			}
			return token.Token{}, t.unexpectedCharacterError('x')
		case unicode.IsDigit(c) || c == '-':
			lex, isFloat, err := t.getNumber()
			if err != nil {
				return token.Token{}, err
			}
			if isFloat {
				return t.createLiteralToken(token.LiteralFloat, lex, parseFloatLiteral(lex)), nil
			}
			return t.createLiteralToken(token.LiteralInt, lex, parseIntLiteral(lex)), nil
		case isIdentifierFirstChar(c):
			lex := t.getIdentifier()
			switch lex {
			case "true", "false":
				return t.createLiteralToken(token.LiteralBool, lex, lex == "true"), nil
			case "null":
				return t.createLiteralToken(token.LiteralNull, lex, nil), nil
			default:
				return t.createToken(token.Identifier, lex), nil
			}
		default:
			return token.Token{}, t.unexpectedCharacterError("not " + string(c))
		}
	}
}

// Eat consumes the current token, verifying it matches kind, or (for
// Identifier tokens) matches the given lexeme. If SkipSpacesBeforeEating is
// set, whitespace tokens are transparently advanced past first.
func (t *Tokenizer) Eat(kind token.Kind, lexeme string) (token.Token, error) {
	if t.get(SkipSpacesBeforeEating) {
		restore := t.Acquire(EmitWhitespace)
		for t.token.Kind == token.Whitespace {
			if _, err := t.Advance(); err != nil {
				restore()
				return token.Token{}, err
			}
		}
		restore()
	}
	if t.token.Kind != kind || (lexeme != "" && t.token.Lexeme != lexeme) {
		return token.Token{}, &UnexpectedTokenError{Expected: kind, Got: t.token}
	}
	return t.Advance()
}

func (t *Tokenizer) get(opt Option) bool {
	return t.options[opt]
}

func (t *Tokenizer) set(opt Option, value bool) {
	t.options[opt] = value
}

// Acquire temporarily enables the given options and returns a function that
// restores their prior values. Call the returned function (typically via
// defer) on every exit path, including error exits.
func (t *Tokenizer) Acquire(opts ...Option) func() {
	previous := make([]bool, len(opts))
	for i, opt := range opts {
		previous[i] = t.options[opt]
		t.set(opt, true)
	}
	return func() {
		for i, opt := range opts {
			t.set(opt, previous[i])
		}
	}
}
