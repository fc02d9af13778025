package parser

import (
	"fmt"

	"qasm/token"
)

// UnexpectedTokenError reports a token that did not match what a production
// required. Parsing is strict: there is no error recovery.
type UnexpectedTokenError struct {
	Expected string
	Got      token.Token
}

func (e *UnexpectedTokenError) Error() string {
	return fmt.Sprintf("line:%d, column:%d - expected %s, got %s", e.Got.Line, e.Got.Column, e.Expected, e.Got.Kind)
}
