package assembler

import (
	"bytes"
	"fmt"

	"qasm/ast"
	"qasm/types"
)

// configValue is one option's declared shape and the raw instruction
// arguments it was last set to; both are needed to re-resolve symbolic
// (pointer) arguments against the label table once all labels have
// their final offsets.
type configValue struct {
	declared []TypeRef
	args     []ast.InstructionArgument
}

// ConfigSection is the unsized `config` section: an ordered map of
// option name to a tuple of binary-typed values. `entry` is predeclared
// as a single pointer; unknown options are still accepted, with their
// argument types inferred from the literal tokens given, matching the
// original's "dynamically typed custom option" allowance.
type ConfigSection struct {
	declared map[string][]TypeRef
	values   map[string]configValue
	order    []string
}

// NewConfigSection constructs a ConfigSection with the predeclared
// `entry: ptr` option.
func NewConfigSection() *ConfigSection {
	return &ConfigSection{
		declared: map[string][]TypeRef{"entry": {types.Ptr}},
		values:   make(map[string]configValue),
	}
}

func (c *ConfigSection) Name() string { return "config" }

// HasOption reports whether name was ever set.
func (c *ConfigSection) HasOption(name string) bool {
	_, ok := c.values[name]
	return ok
}

// Set records an option assignment. args are kept raw (not yet resolved
// against labels) since a forward-referenced entry point is legal.
func (c *ConfigSection) Set(name string, args []ast.InstructionArgument) error {
	declared, known := c.declared[name]
	if known && len(args) != len(declared) {
		return &SemanticError{Reason: fmt.Sprintf("option %q takes %d arguments, but %d were given", name, len(declared), len(args))}
	}
	if _, exists := c.values[name]; !exists {
		c.order = append(c.order, name)
	}
	c.values[name] = configValue{declared: declared, args: args}
	return nil
}

// SizeHint returns the section's serialized length without requiring any
// label to have its final offset yet, so the relocation pass can advance
// the running file offset before labels are resolved.
func (c *ConfigSection) SizeHint(asm *Assembler) int64 {
	var total int64
	for _, name := range c.order {
		v := c.values[name]
		for i := range v.args {
			typ, err := c.argType(v, i, asm)
			if err != nil {
				continue
			}
			if tag, ok := typ.(types.Tag); ok {
				total += int64(tag.Size(asm.Architecture.WordSize))
			}
		}
	}
	return total
}

func (c *ConfigSection) Bytes(asm *Assembler) ([]byte, error) {
	var buf bytes.Buffer
	for _, name := range c.order {
		v := c.values[name]
		for i, arg := range v.args {
			typ, err := c.argType(v, i, asm)
			if err != nil {
				return nil, err
			}
			encoded, err := c.encodeArg(typ, arg, asm)
			if err != nil {
				return nil, err
			}
			buf.Write(encoded)
		}
	}
	return buf.Bytes(), nil
}

func (c *ConfigSection) argType(v configValue, i int, asm *Assembler) (TypeRef, error) {
	if i < len(v.declared) {
		return v.declared[i], nil
	}
	tag, err := literalTag(v.args[i])
	if err != nil {
		return nil, err
	}
	return tag, nil
}

func (c *ConfigSection) encodeArg(typ TypeRef, arg ast.InstructionArgument, asm *Assembler) ([]byte, error) {
	order := asm.Architecture.ByteOrder()
	tag, isBuiltin := typ.(types.Tag)
	if isBuiltin && tag == types.Ptr && arg.Name != nil {
		label, ok := asm.Labels.Get(arg.Name.String())
		if !ok {
			return nil, &SemanticError{Reason: fmt.Sprintf("config option references unknown label %q", arg.Name.String())}
		}
		return tag.ToBytes(label.Offset, asm.Architecture.WordSize, order)
	}
	if !isBuiltin {
		return nil, &SemanticError{Reason: fmt.Sprintf("option values must be a built-in type, got %s", typ)}
	}
	value, err := tag.Parse(arg.Value.Lexeme)
	if err != nil {
		return nil, err
	}
	return tag.ToBytes(value, asm.Architecture.WordSize, order)
}
