// Package isa defines the QPL instruction table: the registry of opcodes,
// each with a numeric code, a parameter-kind list, and a (possibly generic)
// stack transformation.
package isa

import (
	"fmt"

	"qasm/stack"
	"qasm/types"
)

// ParamKind classifies one positional parameter of an instruction template.
type ParamKind int

const (
	// Concrete is a parameter whose wire value is a literal of a fixed
	// binary type, e.g. the rptr operand of jmp/call.
	Concrete ParamKind = iota
	// TypeParam is the "type" pseudo-parameter: the source argument names
	// a type, which is encoded as a 1-byte type index.
	TypeParam
	// SizeofParam is the "sizeof" pseudo-parameter: the source argument
	// names a type, which is encoded as the native-word byte size of that
	// type.
	SizeofParam
	// VarParam is the "var" pseudo-parameter: the source argument names a
	// local or a function parameter, encoded as a (type index, slot
	// index) byte pair.
	VarParam
)

// Param is one positional parameter of an instruction Template.
type Param struct {
	Kind ParamKind
	// Type is only meaningful when Kind is Concrete.
	Type types.Tag
	// Bind, if non-empty, names the stack.Generic that this parameter's
	// resolved concrete type unifies with for this instruction occurrence.
	Bind string
}

// Template is one entry of the instruction table: a name, numeric opcode,
// parameter shape, and declared stack transformation.
type Template struct {
	Name           string
	Opcode         int8
	Params         []Param
	Transformation stack.Transformation
}

// EncodedSize returns the template's fixed encoded size: one opcode byte
// plus the width of every parameter, for the given native word size. It
// does not include the two extra bytes (num_params, num_locals) that call
// appends at emission time.
func (t *Template) EncodedSize(wordSize int) int {
	size := 1
	for _, p := range t.Params {
		switch p.Kind {
		case Concrete:
			size += p.Type.Size(wordSize)
		case TypeParam:
			size += 1
		case SizeofParam:
			size += wordSize
		case VarParam:
			size += 2
		}
	}
	return size
}

// UnknownInstruction reports a reference to an opcode name with no matching
// Template in the registry.
type UnknownInstruction struct {
	Name string
}

func (e *UnknownInstruction) Error() string {
	return fmt.Sprintf("unknown instruction: %q", e.Name)
}

// WrongArgumentCount reports an instruction occurrence whose argument count
// does not match its template's parameter count.
type WrongArgumentCount struct {
	Name     string
	Expected int
	Got      int
}

func (e *WrongArgumentCount) Error() string {
	return fmt.Sprintf("instruction %q takes %d arguments, but %d were given", e.Name, e.Expected, e.Got)
}

var table = buildTable()

// Get looks up an instruction template by its QSM name.
func Get(name string) (*Template, error) {
	tmpl, ok := table[name]
	if !ok {
		return nil, &UnknownInstruction{Name: name}
	}
	return tmpl, nil
}

// ByOpcode looks up an instruction template by its numeric opcode, used by
// a disassembler.
func ByOpcode(op int8) (*Template, bool) {
	for _, tmpl := range table {
		if tmpl.Opcode == op {
			return tmpl, true
		}
	}
	return nil, false
}

func tp(bind string) Param      { return Param{Kind: TypeParam, Bind: bind} }
func sz() Param                 { return Param{Kind: SizeofParam} }
func vr(bind string) Param      { return Param{Kind: VarParam, Bind: bind} }
func cc(tag types.Tag) Param    { return Param{Kind: Concrete, Type: tag} }
func cv(tag types.Tag) stack.Tag { return stack.Concrete{Type: tag} }
func gv(name string) stack.Tag  { return stack.Generic{Name: name} }

func buildTable() map[string]*Template {
	entries := []*Template{
		{Name: "nop", Opcode: 0},
		{Name: "dlog", Opcode: 1, Params: []Param{tp("")}},
		{Name: "push", Opcode: 2, Params: []Param{vr("T")},
			Transformation: stack.Transformation{Before: stack.State{}, After: stack.State{gv("T")}}},
		{Name: "pop", Opcode: 3, Params: []Param{vr("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T")}, After: stack.State{}}},
		{Name: "call", Opcode: 4, Params: []Param{cc(types.RPtr)}},
		{Name: "unsafe_call", Opcode: 5, Params: []Param{cc(types.RPtr)}},
		{Name: "ret", Opcode: 6,
			Transformation: stack.Transformation{Before: stack.State{gv("T")}, After: stack.State{}}},
		{Name: "jmp", Opcode: 7, Params: []Param{cc(types.RPtr)}},
		{Name: "jmp_true", Opcode: 8, Params: []Param{cc(types.RPtr)},
			Transformation: stack.Transformation{Before: stack.State{cv(types.Bool)}, After: stack.State{}}},
		{Name: "jmp_false", Opcode: 9, Params: []Param{cc(types.RPtr)},
			Transformation: stack.Transformation{Before: stack.State{cv(types.Bool)}, After: stack.State{}}},
		{Name: "cmp_eq", Opcode: 10, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{cv(types.Bool)}}},
		{Name: "cmp_ne", Opcode: 11, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{cv(types.Bool)}}},
		{Name: "cmp_lt", Opcode: 12, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{cv(types.Bool)}}},
		{Name: "cmp_le", Opcode: 13, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{cv(types.Bool)}}},
		{Name: "cmp_gt", Opcode: 14, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{cv(types.Bool)}}},
		{Name: "cmp_ge", Opcode: 15, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{cv(types.Bool)}}},
		{Name: "add", Opcode: 16, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{gv("T")}}},
		{Name: "sub", Opcode: 17, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{gv("T")}}},
		{Name: "mul", Opcode: 18, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{gv("T")}}},
		{Name: "div", Opcode: 19, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{gv("T")}}},
		{Name: "mod", Opcode: 20, Params: []Param{tp("T"), tp("T")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), gv("T")}, After: stack.State{gv("T")}}},
		{Name: "push_mem", Opcode: 21, Params: []Param{tp("T"), tp("")},
			Transformation: stack.Transformation{Before: stack.State{cv(types.Ptr)}, After: stack.State{gv("T")}}},
		{Name: "pop_mem", Opcode: 22, Params: []Param{tp("T"), tp("")},
			Transformation: stack.Transformation{Before: stack.State{gv("T"), cv(types.Ptr)}, After: stack.State{}}},
		{Name: "new", Opcode: 23, Params: []Param{sz(), cc(types.Int)},
			Transformation: stack.Transformation{Before: stack.State{}, After: stack.State{cv(types.Ptr)}}},
		{Name: "free", Opcode: 24,
			Transformation: stack.Transformation{Before: stack.State{cv(types.Ptr)}, After: stack.State{}}},
		{Name: "dup", Opcode: 25,
			Transformation: stack.Transformation{Before: stack.State{gv("T")}, After: stack.State{gv("T"), gv("T")}}},
		{Name: "exit", Opcode: -1},
	}
	table := make(map[string]*Template, len(entries))
	for _, e := range entries {
		table[e.Name] = e
	}
	return table
}
