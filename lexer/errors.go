package lexer

import (
	"fmt"

	"qasm/token"
)

// UnexpectedCharacterError reports a character the tokenizer could not
// classify, or a missing character where one was required.
type UnexpectedCharacterError struct {
	Expected any
	Got      rune
	Line     int
	Column   int
}

func (e *UnexpectedCharacterError) Error() string {
	return fmt.Sprintf("unexpected character at line %d, column %d: expected %v, got %q", e.Line, e.Column, e.Expected, e.Got)
}

// UnexpectedTokenError reports a token that did not match what Eat required.
type UnexpectedTokenError struct {
	Expected token.Kind
	Got      token.Token
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("unexpected token at line %d, column %d: expected %s, got %s", e.Got.Line, e.Got.Column, e.Expected, e.Got.Kind)
}

func (t *Tokenizer) unexpectedCharacterError(expected any) *UnexpectedCharacterError {
	return &UnexpectedCharacterError{Expected: expected, Got: t.currentChar(), Line: t.line, Column: t.column}
}
