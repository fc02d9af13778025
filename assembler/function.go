package assembler

import (
	"fmt"

	"qasm/ast"
)

// Slot is one named, positionally-indexed storage location inside a
// function: a parameter or a local variable.
type Slot struct {
	Name  string
	Type  TypeRef
	Index int
}

// Function tracks the current function definition being assembled: its
// signature and its parameter and local slot tables.
type Function struct {
	Name       string
	ReturnType TypeRef
	Parameters map[string]Slot
	ParamOrder []string
	Locals     map[string]Slot
}

// newFunction builds the parameter slot table for a just-entered function
// definition. Locals are added incrementally as `var` declarations are
// encountered in the body.
func newFunction(name string, returnType TypeRef, params []ast.Parameter, registry *TypeRegistry) (*Function, error) {
	f := &Function{
		Name:       name,
		ReturnType: returnType,
		Parameters: make(map[string]Slot, len(params)),
		Locals:     make(map[string]Slot),
	}
	for i, p := range params {
		typ, err := resolveType(p.TypeName, registry)
		if err != nil {
			return nil, &SemanticError{Reason: fmt.Sprintf("unknown type %q in parameter %q of function %q", p.TypeName.Name(), p.Name.Lexeme, name)}
		}
		slot := Slot{Name: p.Name.Lexeme, Type: typ, Index: i}
		if _, exists := f.Parameters[slot.Name]; exists {
			return nil, &SemanticError{Reason: fmt.Sprintf("duplicate parameter %q in function %q", slot.Name, name)}
		}
		f.Parameters[slot.Name] = slot
		f.ParamOrder = append(f.ParamOrder, slot.Name)
	}
	return f, nil
}

// addLocal declares a new local slot, rejecting a name already taken by a
// parameter or another local.
func (f *Function) addLocal(name string, typ TypeRef) (Slot, error) {
	if _, exists := f.Parameters[name]; exists {
		return Slot{}, &SemanticError{Reason: fmt.Sprintf("%q in function %q is already a parameter", name, f.Name)}
	}
	if _, exists := f.Locals[name]; exists {
		return Slot{}, &SemanticError{Reason: fmt.Sprintf("duplicate local %q in function %q", name, f.Name)}
	}
	slot := Slot{Name: name, Type: typ, Index: len(f.Locals)}
	f.Locals[name] = slot
	return slot, nil
}

// Signature captures the call-relevant shape of the function: its return
// type, parameter types in declaration order, and local count.
func (f *Function) Signature() *FunctionSignature {
	params := make([]TypeRef, len(f.ParamOrder))
	for i, name := range f.ParamOrder {
		params[i] = f.Parameters[name].Type
	}
	return &FunctionSignature{
		ReturnType: f.ReturnType,
		Parameters: params,
		NumLocals:  uint8(len(f.Locals)),
	}
}
