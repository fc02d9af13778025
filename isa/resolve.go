package isa

import "qasm/stack"

// Resolve unifies a template's declared transformation against the current
// stack, given the concrete types already resolved for each parameter that
// declared a Bind name (from TypeParam/VarParam arguments). It returns the
// transformation with every Generic substituted by its bound concrete type.
func (t *Template) Resolve(current stack.State, paramTypes stack.Bindings) (stack.Transformation, error) {
	bound, err := stack.Bind(t.Transformation.Before, current, paramTypes)
	if err != nil {
		return stack.Transformation{}, err
	}
	before, err := stack.Substitute(t.Transformation.Before, bound)
	if err != nil {
		return stack.Transformation{}, err
	}
	after, err := stack.Substitute(t.Transformation.After, bound)
	if err != nil {
		return stack.Transformation{}, err
	}
	return stack.Transformation{Before: before, After: after}, nil
}
