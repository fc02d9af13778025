package assembler

import "fmt"

// SemanticError reports a problem with symbols: an unknown instruction,
// directive, or type name; a duplicate label, type, field, or import; a
// call to a non-function symbol; or an option set outside a section that
// admits it.
type SemanticError struct {
	Reason string
}

func (e *SemanticError) Error() string { return "assembler: " + e.Reason }

// TypeError reports a problem with an instruction's argument types or the
// stack shape it requires, wrapping the underlying stack-package error
// where one exists.
type TypeError struct {
	Reason string
	Err    error
}

func (e *TypeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("assembler: %s: %v", e.Reason, e.Err)
	}
	return "assembler: " + e.Reason
}

func (e *TypeError) Unwrap() error { return e.Err }

// InvalidInstructionArgumentType reports an instruction argument whose
// kind does not fit the template parameter it was matched against, e.g. a
// literal given where a type name was expected.
func InvalidInstructionArgumentType(expected, got string) error {
	return &TypeError{Reason: fmt.Sprintf("expected %s, got %s", expected, got)}
}
