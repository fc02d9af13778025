// Package assembler resolves symbols across the config, types, data, code,
// imports and exports sections, validates instruction argument types
// against the stack package's typed transformation contract, computes
// label offsets with a two-pass relocate/emit scheme, and serializes the
// result through the object package.
package assembler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"qasm/ast"
	"qasm/lexer"
	"qasm/object"
	"qasm/parser"
	"qasm/token"
	"qasm/types"
)

// Options configures one Assemble/AssembleFile call.
type Options struct {
	Architecture object.Architecture
	VersionMajor uint16
	VersionMinor uint16
}

// Assembler walks one parsed Document and produces a QPL object file. It
// is not safe to reuse across documents; construct a new one with New for
// each assembly run.
type Assembler struct {
	Architecture object.Architecture
	Labels       *LabelManager
	Types        *TypeRegistry

	config  *ConfigSection
	tsec    *TypesSection
	data    *DataSection
	code    *CodeSection
	imports *ImportSection
	exports *ExportSection

	versionMajor uint16
	versionMinor uint16
}

// New constructs an Assembler ready to assemble one Document.
func New(opts Options) *Assembler {
	registry := NewTypeRegistry()
	return &Assembler{
		Architecture: opts.Architecture,
		Labels:       NewLabelManager(),
		Types:        registry,
		config:       NewConfigSection(),
		tsec:         NewTypesSection(registry),
		data:         NewDataSection(),
		code:         NewCodeSection(),
		imports:      NewImportSection(),
		exports:      NewExportSection(),
		versionMajor: opts.VersionMajor,
		versionMinor: opts.VersionMinor,
	}
}

// preparedFunction carries a function through the pre-registration pass
// (where its label and signature are created, enabling forward-referenced
// calls) to the body-walking pass.
type preparedFunction struct {
	def   *ast.FunctionDefinition
	fn    *Function
	label *Label
}

// Assemble walks doc and serializes the resulting object file.
func (a *Assembler) Assemble(doc *ast.Document) ([]byte, error) {
	if err := a.registerTypes(doc); err != nil {
		return nil, err
	}
	prepared, err := a.registerFunctions(doc)
	if err != nil {
		return nil, err
	}
	if err := a.registerGlobals(doc); err != nil {
		return nil, err
	}
	if err := a.registerImports(doc); err != nil {
		return nil, err
	}
	if err := a.emitFunctionBodies(prepared); err != nil {
		return nil, err
	}
	a.configureEntryPoint()

	file, flags, err := a.relocateAndEmit()
	if err != nil {
		return nil, err
	}
	return file.Bytes(flags, a.Architecture, a.versionMajor, a.versionMinor)
}

// registerTypes declares every type name before resolving any field, so
// compound types may reference each other regardless of declaration order.
func (a *Assembler) registerTypes(doc *ast.Document) error {
	for _, t := range doc.Types {
		if _, err := a.Types.Add(t.Name.String()); err != nil {
			return err
		}
	}
	for _, t := range doc.Types {
		for _, field := range t.Fields {
			fieldType, err := resolveType(field.Type, a.Types)
			if err != nil {
				return err
			}
			if err := a.tsec.AddField(t.Name.String(), field.Name.String(), fieldType, a.Architecture.WordSize); err != nil {
				return err
			}
		}
	}
	return nil
}

// registerFunctions creates every function's label and signature before any
// body is walked, so a call may forward-reference a function defined later
// in the document.
func (a *Assembler) registerFunctions(doc *ast.Document) ([]preparedFunction, error) {
	prepared := make([]preparedFunction, 0, len(doc.Functions))
	for i := range doc.Functions {
		def := &doc.Functions[i]
		returnType, err := resolveType(def.ReturnType, a.Types)
		if err != nil {
			return nil, err
		}
		fn, err := newFunction(def.Name.String(), returnType, def.Parameters, a.Types)
		if err != nil {
			return nil, err
		}
		for _, local := range def.Locals {
			localType, err := resolveType(local.Type, a.Types)
			if err != nil {
				return nil, err
			}
			if _, err := fn.addLocal(local.Name.String(), localType); err != nil {
				return nil, err
			}
		}
		label := &Label{Name: fn.Name, Signature: fn.Signature()}
		if err := a.Labels.Add(label); err != nil {
			return nil, err
		}
		prepared = append(prepared, preparedFunction{def: def, fn: fn, label: label})
	}
	return prepared, nil
}

// registerGlobals appends every global's initializer to the data section
// and labels its offset.
func (a *Assembler) registerGlobals(doc *ast.Document) error {
	for _, g := range doc.Globals {
		resolved, err := resolveType(g.Type, a.Types)
		if err != nil {
			return err
		}
		tag, ok := resolved.(types.Tag)
		if !ok {
			return &SemanticError{Reason: fmt.Sprintf("global %q must be a built-in type", g.Name.String())}
		}
		value, err := tag.Parse(g.Value.Lexeme)
		if err != nil {
			return err
		}
		offset, err := a.data.Append(tag, value, a.Architecture.WordSize, a.Architecture.ByteOrder())
		if err != nil {
			return err
		}
		label := &Label{Name: g.Name.String(), Offset: offset}
		a.data.AddLabel(label)
		if err := a.Labels.Add(label); err != nil {
			return err
		}
	}
	return nil
}

// requiredVersion formats this assembler's own format version as the
// semver string object.Header.CheckVersion expects.
func (a *Assembler) requiredVersion() string {
	return fmt.Sprintf("v%d.%d.0", a.versionMajor, a.versionMinor)
}

// registerImports loads the companion file named by each import statement
// and resolves every `func` import against its export table. `var` and
// `type` imports are skipped and create no label.
func (a *Assembler) registerImports(doc *ast.Document) error {
	for _, imp := range doc.Imports {
		path := imp.File.Lexeme
		if s, ok := imp.File.Literal.(string); ok {
			path = s
		}
		if err := a.imports.Load(path, a.Architecture, a.requiredVersion()); err != nil {
			return err
		}
		for _, decl := range imp.Imports {
			if decl.Kind != ast.ImportFunction {
				continue
			}
			label, err := a.imports.Import(decl.Name.String(), decl.LocalName.String())
			if err != nil {
				return err
			}
			a.imports.AddLabel(label)
			if err := a.Labels.Add(label); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitFunctionBodies walks each prepared function's body in document order,
// assigning its label the code section's current cursor and encoding every
// instruction.
func (a *Assembler) emitFunctionBodies(prepared []preparedFunction) error {
	for _, p := range prepared {
		p.label.Offset = a.code.Cursor()
		a.code.AddLabel(p.label)
		a.code.BeginFunction()
		for _, instr := range p.def.Body {
			if err := a.code.Encode(a, p.fn, instr); err != nil {
				return err
			}
		}
		if p.def.IsExported() {
			if err := a.exports.Add(p.fn.Name, p.label); err != nil {
				return err
			}
		}
	}
	return nil
}

// configureEntryPoint sets the `entry` config option to the `main`
// function's label, if one is defined. The source grammar has no explicit
// construct for setting config options, so this is the only value the
// config section ever carries.
func (a *Assembler) configureEntryPoint() {
	label, ok := a.Labels.Get("main")
	if !ok || label.Signature == nil {
		return
	}
	name := token.New(token.Identifier, "main", 0, 0)
	arg := ast.InstructionArgument{Name: &ast.FullyQualifiedName{Parts: []token.Token{name}}}
	a.config.Set("entry", []ast.InstructionArgument{arg})
}

// relocateAndEmit runs the relocation pass (assigning every label, and the
// code section's own base, their final absolute file offset) followed by
// the emission pass (serializing each populated section in fixed order).
func (a *Assembler) relocateAndEmit() (*object.File, object.Flags, error) {
	type sized interface {
		Size() int64
		Labels() []*Label
	}

	populated := []Section{}
	if len(a.config.order) > 0 {
		populated = append(populated, a.config)
	}
	if len(a.Types.Ordered()) > 0 {
		populated = append(populated, a.tsec)
	}
	if a.data.Size() > 0 {
		populated = append(populated, a.data)
	}
	if a.code.Size() > 0 {
		populated = append(populated, a.code)
	}
	if a.imports.Size() > 0 {
		populated = append(populated, a.imports)
	}
	if a.exports.HasExports() {
		populated = append(populated, a.exports)
	}

	offset := int64(object.HeaderSize + object.SectionTableEntrySize*len(populated))
	for _, sec := range populated {
		switch s := sec.(type) {
		case *ConfigSection:
			offset += s.SizeHint(a)
		case *ExportSection:
			size, err := s.SizeHint(a)
			if err != nil {
				return nil, 0, err
			}
			offset += size
		case sized:
			RecalculateAll(s.Labels(), offset)
			if cs, ok := sec.(*CodeSection); ok {
				cs.SetBase(offset)
			}
			offset += s.Size()
		}
	}

	file := object.New()
	for _, sec := range populated {
		data, err := sec.Bytes(a)
		if err != nil {
			return nil, 0, err
		}
		if err := file.AddSection(sec.Name(), data); err != nil {
			return nil, 0, err
		}
	}

	var flags object.Flags
	if a.config.HasOption("entry") {
		flags |= object.HasEntryPoint
	}
	if a.exports.HasExports() {
		flags |= object.HasExports
	}
	return file, flags, nil
}

// resolveType resolves an ast.Type against registry. A pointer type always
// resolves to the built-in ptr tag, regardless of its pointee: a compound
// value only ever lives on the stack or in a local/parameter slot as a
// pointer to its storage, never inlined by value.
func resolveType(t ast.Type, registry *TypeRegistry) (TypeRef, error) {
	if _, ok := t.(ast.PointerType); ok {
		return types.Ptr, nil
	}
	typ, ok := registry.Resolve(t.Name())
	if !ok {
		return nil, &SemanticError{Reason: fmt.Sprintf("unknown type %q", t.Name())}
	}
	return typ, nil
}

// AssembleFile reads inputPath, assembles it, and writes the result to
// outputPath (defaulting to inputPath with its extension replaced by
// ".qpl").
func AssembleFile(inputPath, outputPath string, opts Options) error {
	source, err := os.ReadFile(inputPath)
	if err != nil {
		return err
	}
	doc, err := parser.New(lexer.New(string(source))).Parse()
	if err != nil {
		return err
	}
	if outputPath == "" {
		ext := filepath.Ext(inputPath)
		outputPath = strings.TrimSuffix(inputPath, ext) + ".qpl"
	}
	data, err := New(opts).Assemble(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, data, 0o644)
}
