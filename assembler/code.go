package assembler

import (
	"fmt"

	"qasm/ast"
	"qasm/isa"
	"qasm/stack"
	"qasm/token"
	"qasm/types"
)

// codeInstr is one already-sized instruction occurrence. Every byte that
// does not depend on a label's final offset is resolved eagerly at Encode
// time and stored in eager; an instruction with an rptr operand (jmp, call,
// unsafe_call and their conditional forms) instead carries target, resolved
// against the label table once relocation has assigned every label its
// final absolute offset.
type codeInstr struct {
	localOffset int64
	opcode      int8
	eager       []byte
	target      string
	isCall      bool
}

// CodeSection owns the `code` section: the concatenated bytes of every
// function body, in the order functions were walked. Stack-shape
// verification happens as each instruction is added, using the running
// stack state of the function currently being encoded; only the rptr
// operand of a jump or call, and a call's trailing (num_params, num_locals)
// bytes, are deferred to relocation, since they depend on the callee or
// jump target's final offset.
type CodeSection struct {
	cursor  int64
	base    int64
	labels  []*Label
	instrs  []codeInstr
	fnStack stack.State
}

// NewCodeSection constructs an empty CodeSection.
func NewCodeSection() *CodeSection { return &CodeSection{} }

func (s *CodeSection) Name() string      { return "code" }
func (s *CodeSection) Size() int64       { return s.cursor }
func (s *CodeSection) AddLabel(l *Label) { s.labels = append(s.labels, l) }
func (s *CodeSection) Labels() []*Label  { return s.labels }

// Cursor returns the section-relative offset the next instruction will be
// written at, used to give a function's label its starting offset before
// its body is walked.
func (s *CodeSection) Cursor() int64 { return s.cursor }

// SetBase records the section's final absolute file offset, assigned by
// the relocation pass at the same time it shifts this section's labels.
// rptr operands are computed from absolute offsets, so an instruction's
// own section-relative offset needs the same shift applied before Bytes
// subtracts it from a (now-relocated) label's offset.
func (s *CodeSection) SetBase(offset int64) { s.base = offset }

// BeginFunction resets the running stack-verification state for a new
// function body.
func (s *CodeSection) BeginFunction() { s.fnStack = stack.State{} }

// Encode adds one source instruction occurrence to the section, verifying
// its stack effect against the function currently being encoded. A `ret`
// inside a function whose return type is void is preceded by an implicit
// `push 0`, matching the convention that every function leaves exactly one
// value on the stack before returning.
func (s *CodeSection) Encode(asm *Assembler, fn *Function, instr ast.Instruction) error {
	name := instr.Name.String()
	if name == "ret" && isVoid(fn.ReturnType) {
		line, col := instr.Name.Parts[0].Line, instr.Name.Parts[0].Column
		zero := ast.InstructionArgument{
			Value: token.NewLiteral(token.LiteralInt, "0", int64(0), line, col),
			Type:  ast.NamedType{Identifier: token.New(token.Identifier, "void", line, col)},
		}
		if err := s.encodeOne(asm, fn, "push", []ast.InstructionArgument{zero}); err != nil {
			return err
		}
	}
	return s.encodeOne(asm, fn, name, instr.Arguments)
}

func isVoid(t TypeRef) bool {
	tag, ok := t.(types.Tag)
	return ok && tag == types.Void
}

func (s *CodeSection) encodeOne(asm *Assembler, fn *Function, name string, args []ast.InstructionArgument) error {
	switch name {
	case "call", "unsafe_call":
		return s.encodeCall(asm, fn, name, args)
	case "ret":
		return s.encodeRet(asm, fn, args)
	}

	tmpl, err := isa.Get(name)
	if err != nil {
		return &SemanticError{Reason: err.Error()}
	}
	if len(args) != len(tmpl.Params) {
		return &TypeError{Reason: fmt.Sprintf("instruction %q takes %d arguments, but %d were given", name, len(tmpl.Params), len(args))}
	}

	var eager []byte
	bindings := stack.Bindings{}
	for i, param := range tmpl.Params {
		arg := args[i]
		encoded, boundType, err := s.encodeParam(asm, fn, name, param, arg)
		if err != nil {
			return err
		}
		eager = append(eager, encoded...)
		if param.Bind != "" && boundType != nil {
			bindings[param.Bind] = *boundType
		}
	}

	transform, err := tmpl.Resolve(s.fnStack, bindings)
	if err != nil {
		return &TypeError{Reason: fmt.Sprintf("instruction %q", name), Err: err}
	}
	newStack, err := stack.Apply(s.fnStack, transform)
	if err != nil {
		return &TypeError{Reason: fmt.Sprintf("instruction %q", name), Err: err}
	}
	s.fnStack = newStack

	hasTarget := len(tmpl.Params) == 1 && tmpl.Params[0].Kind == isa.Concrete && tmpl.Params[0].Type == types.RPtr
	instr := codeInstr{localOffset: s.cursor, opcode: tmpl.Opcode}
	if hasTarget {
		instr.target = args[0].Name.String()
	} else {
		instr.eager = eager
	}
	s.instrs = append(s.instrs, instr)
	s.cursor += int64(tmpl.EncodedSize(asm.Architecture.WordSize))
	return nil
}

// encodeParam resolves one instruction argument against its template
// parameter, returning the bytes it contributes (empty for a Concrete(RPtr)
// parameter, whose value is deferred) and, when the parameter declares a
// Bind, the concrete built-in type it resolved to for stack unification.
func (s *CodeSection) encodeParam(asm *Assembler, fn *Function, instrName string, param isa.Param, arg ast.InstructionArgument) ([]byte, *types.Tag, error) {
	fieldOffset, isField, err := resolveFieldOffset(arg, asm.Types)
	if err != nil {
		return nil, nil, err
	}

	switch param.Kind {
	case isa.Concrete:
		if param.Type == types.RPtr {
			return nil, nil, nil
		}
		var value int64
		if isField {
			value = fieldOffset
		} else {
			v, err := literalInt(arg)
			if err != nil {
				return nil, nil, &TypeError{Reason: fmt.Sprintf("instruction %q", instrName), Err: err}
			}
			value = v
		}
		encoded, err := param.Type.ToBytes(value, asm.Architecture.WordSize, asm.Architecture.ByteOrder())
		if err != nil {
			return nil, nil, &TypeError{Reason: fmt.Sprintf("instruction %q", instrName), Err: err}
		}
		return encoded, nil, nil

	case isa.TypeParam:
		typ, err := s.resolveNamedType(arg, asm)
		if err != nil {
			return nil, nil, err
		}
		tag := stackTag(typ)
		return []byte{byte(typ.Index())}, &tag, nil

	case isa.SizeofParam:
		typ, err := s.resolveNamedType(arg, asm)
		if err != nil {
			return nil, nil, err
		}
		size := int64(typ.Size(asm.Architecture.WordSize))
		encoded, err := types.Int.ToBytes(size, asm.Architecture.WordSize, asm.Architecture.ByteOrder())
		if err != nil {
			return nil, nil, err
		}
		return encoded, nil, nil

	case isa.VarParam:
		return s.encodeVarParam(asm, fn, instrName, arg, isField, fieldOffset)
	}
	return nil, nil, &SemanticError{Reason: fmt.Sprintf("instruction %q has an unsupported parameter kind", instrName)}
}

func (s *CodeSection) resolveNamedType(arg ast.InstructionArgument, asm *Assembler) (TypeRef, error) {
	if arg.Name == nil || len(arg.Name.Parts) != 1 {
		return nil, &SemanticError{Reason: "expected a type name"}
	}
	name := arg.Name.Parts[0].Lexeme
	typ, ok := asm.Types.Resolve(name)
	if !ok {
		return nil, &SemanticError{Reason: fmt.Sprintf("unknown type %q", name)}
	}
	return typ, nil
}

func stackTag(t TypeRef) types.Tag {
	if tag, ok := t.(types.Tag); ok {
		return tag
	}
	return types.Ptr
}

// encodeVarParam resolves the "var" pseudo-parameter used by push/pop: a
// reference to a function parameter (`arg.name`), a local (`local.name`), a
// bare name resolved against locals then parameters, a type field offset,
// or a bare literal. Every form encodes to the same fixed 2-byte
// (type_index, payload) pair: payload is the slot index for a symbolic
// reference, or the literal's value truncated to one byte for an
// immediate.
func (s *CodeSection) encodeVarParam(asm *Assembler, fn *Function, instrName string, arg ast.InstructionArgument, isField bool, fieldOffset int64) ([]byte, *types.Tag, error) {
	if isField {
		tag := types.Int
		return []byte{byte(tag.Index()), byte(fieldOffset & 0xFF)}, &tag, nil
	}
	if arg.Name != nil {
		slot, typ, err := resolveSlot(arg.Name, fn)
		if err != nil {
			return nil, nil, &SemanticError{Reason: fmt.Sprintf("instruction %q: %v", instrName, err)}
		}
		tag := stackTag(typ)
		return []byte{byte(typ.Index()), byte(slot & 0xFF)}, &tag, nil
	}
	value, err := literalInt(arg)
	if err != nil {
		return nil, nil, &TypeError{Reason: fmt.Sprintf("instruction %q", instrName), Err: err}
	}
	tag, err := literalTag(arg)
	if err != nil {
		return nil, nil, &TypeError{Reason: fmt.Sprintf("instruction %q", instrName), Err: err}
	}
	return []byte{byte(tag.Index()), byte(value & 0xFF)}, &tag, nil
}

// resolveSlot resolves a var-parameter's symbolic name against fn's
// parameters and locals: `arg.name` and `local.name` disambiguate
// explicitly; a bare name is looked up as a local first, then a parameter.
func resolveSlot(name *ast.FullyQualifiedName, fn *Function) (int, TypeRef, error) {
	parts := name.Parts
	if len(parts) == 2 {
		switch parts[0].Lexeme {
		case "arg":
			p, ok := fn.Parameters[parts[1].Lexeme]
			if !ok {
				return 0, nil, fmt.Errorf("function %q has no parameter named %q", fn.Name, parts[1].Lexeme)
			}
			return p.Index, p.Type, nil
		case "local":
			l, ok := fn.Locals[parts[1].Lexeme]
			if !ok {
				return 0, nil, fmt.Errorf("function %q has no local named %q", fn.Name, parts[1].Lexeme)
			}
			return l.Index, l.Type, nil
		}
	}
	bare := name.String()
	if l, ok := fn.Locals[bare]; ok {
		return l.Index, l.Type, nil
	}
	if p, ok := fn.Parameters[bare]; ok {
		return p.Index, p.Type, nil
	}
	return 0, nil, fmt.Errorf("undefined local or parameter %q", bare)
}

// resolveFieldOffset substitutes a `Type.field` argument with the field's
// intra-type byte offset, per the type registry. The two reserved prefixes
// `arg` and `local` are never treated as a type name.
func resolveFieldOffset(arg ast.InstructionArgument, registry *TypeRegistry) (int64, bool, error) {
	if arg.Name == nil || len(arg.Name.Parts) != 2 {
		return 0, false, nil
	}
	first := arg.Name.Parts[0].Lexeme
	if first == "arg" || first == "local" {
		return 0, false, nil
	}
	ut, ok := registry.Get(first)
	if !ok {
		return 0, false, nil
	}
	field, ok := ut.Field(arg.Name.Parts[1].Lexeme)
	if !ok {
		return 0, true, &SemanticError{Reason: fmt.Sprintf("type %q has no field named %q", first, arg.Name.Parts[1].Lexeme)}
	}
	return int64(field.Offset), true, nil
}

func literalInt(arg ast.InstructionArgument) (int64, error) {
	if n, ok := arg.Value.Literal.(int64); ok {
		return n, nil
	}
	if n, ok := arg.Value.Literal.(int); ok {
		return int64(n), nil
	}
	v, err := types.Int.Parse(arg.Value.Lexeme)
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// literalTag infers a bare literal argument's built-in type: an explicit
// `:Type` annotation wins, otherwise it is inferred from the literal
// token's kind.
func literalTag(arg ast.InstructionArgument) (types.Tag, error) {
	if arg.Type != nil {
		tag, ok := types.Lookup(arg.Type.Name())
		if !ok {
			return 0, fmt.Errorf("unknown type %q", arg.Type.Name())
		}
		return tag, nil
	}
	switch arg.Value.Kind {
	case token.LiteralInt, token.LiteralHex:
		return types.Int, nil
	case token.LiteralFloat:
		return types.Float, nil
	case token.LiteralBool:
		return types.Bool, nil
	case token.LiteralString:
		return types.Str, nil
	case token.LiteralBytes:
		return types.Raw, nil
	default:
		return 0, fmt.Errorf("argument %q has no inferrable type", arg.Value.Lexeme)
	}
}

// encodeCall resolves the callee's already-registered label (functions are
// pre-registered with their signature before any body is walked, so a call
// may forward-reference a function defined later in the source) and
// verifies the current stack against its parameter shape, pushing its
// return type unless it is void. The rptr to the callee, and the trailing
// (num_params, num_locals) byte pair, are resolved once the callee's label
// has its final offset, during Bytes.
func (s *CodeSection) encodeCall(asm *Assembler, fn *Function, name string, args []ast.InstructionArgument) error {
	if len(args) != 1 || args[0].Name == nil {
		return &SemanticError{Reason: fmt.Sprintf("instruction %q takes a single function name argument", name)}
	}
	target := args[0].Name.String()
	label, ok := asm.Labels.Get(target)
	if !ok {
		return &SemanticError{Reason: fmt.Sprintf("call to undefined function %q", target)}
	}
	if label.Signature == nil {
		return &SemanticError{Reason: fmt.Sprintf("%q is not a function", target)}
	}

	before := make(stack.State, len(label.Signature.Parameters))
	for i, p := range label.Signature.Parameters {
		before[i] = stack.Concrete{Type: stackTag(p)}
	}
	var after stack.State
	if !isVoid(label.Signature.ReturnType) {
		after = stack.State{stack.Concrete{Type: stackTag(label.Signature.ReturnType)}}
	}
	newStack, err := stack.Apply(s.fnStack, stack.Transformation{Before: before, After: after})
	if err != nil {
		return &TypeError{Reason: fmt.Sprintf("call to %q", target), Err: err}
	}
	s.fnStack = newStack

	tmpl, err := isa.Get(name)
	if err != nil {
		return &SemanticError{Reason: err.Error()}
	}
	s.instrs = append(s.instrs, codeInstr{localOffset: s.cursor, opcode: tmpl.Opcode, target: target, isCall: name == "call"})
	size := tmpl.EncodedSize(asm.Architecture.WordSize)
	if name == "call" {
		size += 2
	}
	s.cursor += int64(size)
	return nil
}

// encodeRet verifies the current function's return value is on the stack
// (already true by construction for a void function, since Encode inserted
// an implicit `push 0` before reaching here) and pops it.
func (s *CodeSection) encodeRet(asm *Assembler, fn *Function, args []ast.InstructionArgument) error {
	if len(args) != 0 {
		return &SemanticError{Reason: "instruction \"ret\" takes no arguments"}
	}
	tag := stackTag(fn.ReturnType)
	newStack, err := stack.Apply(s.fnStack, stack.Transformation{Before: stack.State{stack.Concrete{Type: tag}}})
	if err != nil {
		return &TypeError{Reason: fmt.Sprintf("return from %q", fn.Name), Err: err}
	}
	s.fnStack = newStack

	tmpl, err := isa.Get("ret")
	if err != nil {
		return &SemanticError{Reason: err.Error()}
	}
	s.instrs = append(s.instrs, codeInstr{localOffset: s.cursor, opcode: tmpl.Opcode})
	s.cursor += int64(tmpl.EncodedSize(asm.Architecture.WordSize))
	return nil
}

// Bytes emits the section's final bytes. By this point every label carries
// its final, relocated offset, so rptr operands and a call's trailing
// (num_params, num_locals) bytes can be resolved.
func (s *CodeSection) Bytes(asm *Assembler) ([]byte, error) {
	var out []byte
	order := asm.Architecture.ByteOrder()
	wordSize := asm.Architecture.WordSize
	for _, instr := range s.instrs {
		out = append(out, byte(instr.opcode))
		if instr.target == "" {
			out = append(out, instr.eager...)
			continue
		}
		label, ok := asm.Labels.Get(instr.target)
		if !ok {
			return nil, &SemanticError{Reason: fmt.Sprintf("undefined label %q", instr.target)}
		}
		rptr := label.Offset - (instr.localOffset + s.base)
		encoded, err := types.RPtr.ToBytes(rptr, wordSize, order)
		if err != nil {
			return nil, err
		}
		out = append(out, encoded...)
		if instr.isCall {
			if label.Signature == nil {
				return nil, &SemanticError{Reason: fmt.Sprintf("call target %q is not a function", instr.target)}
			}
			out = append(out, byte(len(label.Signature.Parameters)), byte(label.Signature.NumLocals))
		}
	}
	return out, nil
}
