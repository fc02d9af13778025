// Package stack implements the QPL stack machine model: stack state, stack
// transformations, and the rules for unifying an instruction template's
// before/after shape against a concrete runtime stack.
package stack

import (
	"fmt"

	"qasm/types"
)

// Tag is one entry in a StackState. It is one of Concrete, Generic, or
// Many.
type Tag interface {
	isTag()
	String() string
}

// Concrete names a fixed binary type.
type Concrete struct {
	Type types.Tag
}

func (Concrete) isTag() {}
func (c Concrete) String() string {
	return c.Type.String()
}

// Generic is a placeholder unified to a single concrete type across one
// instruction occurrence; every further reference to the same name within
// that occurrence resolves to the same concrete type.
type Generic struct {
	Name string
}

func (Generic) isTag() {}
func (g Generic) String() string {
	return fmt.Sprintf("Generic(%s)", g.Name)
}

// Many is a multiplicity quantifier over a single element tag. Limit >= 0
// means "repeat exactly Limit times"; Limit < 0 means "repeat zero or more
// times, greedily matching from the top of the stack".
type Many struct {
	Elem  Tag
	Limit int
}

func (Many) isTag() {}
func (m Many) String() string {
	if m.Limit < 0 {
		return fmt.Sprintf("Many(%s, *)", m.Elem)
	}
	return fmt.Sprintf("Many(%s, %d)", m.Elem, m.Limit)
}

// State is an ordered sequence of type tags, bottom of stack first.
type State []Tag

func (s State) String() string {
	out := "["
	for i, tag := range s {
		if i > 0 {
			out += ", "
		}
		out += tag.String()
	}
	return out + "]"
}

// Transformation is the declarative before/after shape of the stack for one
// instruction.
type Transformation struct {
	Before State
	After  State
}

// IncompatibleTypesOnStack reports that the stack's actual contents did not
// match a transformation's expected before-shape.
type IncompatibleTypesOnStack struct {
	Expected State
	Got      State
}

func (e *IncompatibleTypesOnStack) Error() string {
	return fmt.Sprintf("expected the stack to be %s but it was %s", e.Expected, e.Got)
}

// NotEnoughValues reports that the stack held fewer entries than a
// transformation's before-shape requires.
type NotEnoughValues struct {
	Expected int
	Got      int
}

func (e *NotEnoughValues) Error() string {
	return fmt.Sprintf("expected to have at least %d items on the stack, but only got %d", e.Expected, e.Got)
}

// Bindings maps a Generic's name to the concrete type it was unified with
// for one instruction occurrence.
type Bindings map[string]types.Tag

// Bind unifies the Generic entries of before against the top len(before)
// entries of current (bottom-to-top order, so before[i] corresponds to
// current[len(current)-len(before)+i]), reusing preBound entries (typically
// populated from the instruction's own arguments) and adding newly bound
// names to it. Many entries are matched structurally but do not themselves
// bind a name (their Elem may).
func Bind(before State, current State, preBound Bindings) (Bindings, error) {
	bound := Bindings{}
	for name, typ := range preBound {
		bound[name] = typ
	}
	depth := 0
	for _, tag := range before {
		if m, ok := tag.(Many); ok && m.Limit >= 0 {
			depth += m.Limit
		} else if _, ok := tag.(Many); !ok {
			depth++
		}
	}
	if len(current) < depth {
		return nil, &NotEnoughValues{Expected: depth, Got: len(current)}
	}
	window := current[len(current)-depth:]
	pos := 0
	for _, tag := range before {
		switch v := tag.(type) {
		case Generic:
			if _, ok := bound[v.Name]; !ok {
				ct, ok := window[pos].(Concrete)
				if !ok {
					return nil, fmt.Errorf("stack: cannot bind generic %q to non-concrete stack entry %s", v.Name, window[pos])
				}
				bound[v.Name] = ct.Type
			}
			pos++
		case Many:
			if g, ok := v.Elem.(Generic); ok {
				if m := v.Limit; m >= 0 {
					for i := 0; i < m; i++ {
						ct, ok := window[pos].(Concrete)
						if !ok {
							return nil, fmt.Errorf("stack: cannot bind generic %q to non-concrete stack entry %s", g.Name, window[pos])
						}
						if _, ok := bound[g.Name]; !ok {
							bound[g.Name] = ct.Type
						}
						pos++
					}
				}
			} else if v.Limit >= 0 {
				pos += v.Limit
			}
		default:
			pos++
		}
	}
	return bound, nil
}

// Substitute replaces every Generic entry in s with its bound concrete type.
// It returns an error if a Generic has no binding.
func Substitute(s State, bound Bindings) (State, error) {
	out := make(State, len(s))
	for i, tag := range s {
		resolved, err := substituteTag(tag, bound)
		if err != nil {
			return nil, err
		}
		out[i] = resolved
	}
	return out, nil
}

func substituteTag(tag Tag, bound Bindings) (Tag, error) {
	switch v := tag.(type) {
	case Generic:
		typ, ok := bound[v.Name]
		if !ok {
			return nil, fmt.Errorf("stack: unbound generic %q", v.Name)
		}
		return Concrete{Type: typ}, nil
	case Many:
		elem, err := substituteTag(v.Elem, bound)
		if err != nil {
			return nil, err
		}
		return Many{Elem: elem, Limit: v.Limit}, nil
	default:
		return tag, nil
	}
}

// Apply pops the (already-substituted, Generic-free) before-shape off
// current, verifying every entry, and pushes the after-shape, returning the
// resulting stack.
func Apply(current State, t Transformation) (State, error) {
	result := append(State(nil), current...)
	for i := len(t.Before) - 1; i >= 0; i-- {
		tag := t.Before[i]
		if m, ok := tag.(Many); ok {
			if m.Limit < 0 {
				for {
					if len(result) == 0 {
						break
					}
					top := result[len(result)-1]
					if !tagsEqual(top, m.Elem) {
						break
					}
					result = result[:len(result)-1]
				}
			} else {
				for n := 0; n < m.Limit; n++ {
					var err error
					result, err = popExact(result, m.Elem)
					if err != nil {
						return nil, err
					}
				}
			}
			continue
		}
		var err error
		result, err = popExact(result, tag)
		if err != nil {
			return nil, err
		}
	}
	result = append(result, t.After...)
	return result, nil
}

func popExact(s State, want Tag) (State, error) {
	if len(s) == 0 {
		return nil, &NotEnoughValues{Expected: 1, Got: 0}
	}
	top := s[len(s)-1]
	if !tagsEqual(top, want) {
		return nil, &IncompatibleTypesOnStack{Expected: State{want}, Got: State{top}}
	}
	return s[:len(s)-1], nil
}

func tagsEqual(a, b Tag) bool {
	ac, aok := a.(Concrete)
	bc, bok := b.(Concrete)
	if aok && bok {
		return ac.Type == bc.Type
	}
	return a.String() == b.String()
}
