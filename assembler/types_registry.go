package assembler

import (
	"fmt"

	"qasm/types"
)

// TypeRef is anything that can stand in for a binary type during
// assembly: either a built-in types.Tag or a user-defined compound
// UserType. types.Tag already satisfies this interface.
type TypeRef interface {
	String() string
	Index() int
	Size(wordSize int) int
}

// Field is one member of a user-defined compound type, in declaration
// order, at a fixed byte offset from the start of the type.
type Field struct {
	Name   string
	Type   TypeRef
	Offset int
}

// UserType is a `type Name { ... }` compound type: a named, ordered list
// of fields. Its wire index continues numbering after the built-in
// types.Tag range so a single byte still distinguishes every type in a
// compiled module.
type UserType struct {
	TypeName  string
	Idx       int
	Fields    []Field
	sizeBytes int
}

func (t *UserType) String() string { return t.TypeName }
func (t *UserType) Index() int     { return t.Idx }

// Size returns the type's total byte size. The value is fixed once at
// field-addition time against the assembler's single architecture for
// the run, so the wordSize argument is accepted for interface
// compatibility with types.Tag but otherwise unused.
func (t *UserType) Size(int) int { return t.sizeBytes }

// Field looks up a field by name.
func (t *UserType) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (t *UserType) addField(name string, typ TypeRef, wordSize int) (Field, error) {
	if _, exists := t.Field(name); exists {
		return Field{}, &SemanticError{Reason: fmt.Sprintf("type %q already has a field named %q", t.TypeName, name)}
	}
	f := Field{Name: name, Type: typ, Offset: t.sizeBytes}
	t.Fields = append(t.Fields, f)
	t.sizeBytes += typ.Size(wordSize)
	return f, nil
}

// TypeRegistry holds every user-defined compound type declared by a
// module, numbered immediately after the built-in types.Tag range.
type TypeRegistry struct {
	order []string
	types map[string]*UserType
}

// NewTypeRegistry constructs an empty TypeRegistry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]*UserType)}
}

// Add declares a new compound type, returning a SemanticError if the name
// is already taken (by this registry; built-in names are checked
// separately by Resolve).
func (r *TypeRegistry) Add(name string) (*UserType, error) {
	if _, exists := r.types[name]; exists {
		return nil, &SemanticError{Reason: fmt.Sprintf("type %q is already defined", name)}
	}
	ut := &UserType{TypeName: name, Idx: types.Count() + len(r.order) + 1}
	r.types[name] = ut
	r.order = append(r.order, name)
	return ut, nil
}

// Get looks up a user-defined type by name.
func (r *TypeRegistry) Get(name string) (*UserType, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Resolve looks up name against the built-in type set first, then the
// user-defined registry.
func (r *TypeRegistry) Resolve(name string) (TypeRef, bool) {
	if tag, ok := types.Lookup(name); ok {
		return tag, true
	}
	if ut, ok := r.types[name]; ok {
		return ut, true
	}
	return nil, false
}

// Ordered returns every user-defined type in declaration order.
func (r *TypeRegistry) Ordered() []*UserType {
	out := make([]*UserType, len(r.order))
	for i, name := range r.order {
		out[i] = r.types[name]
	}
	return out
}
