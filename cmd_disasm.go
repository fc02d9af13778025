package main

import (
	"context"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"

	"qasm/isa"
	"qasm/object"
	"qasm/types"

	"github.com/google/subcommands"
)

// disasmCmd dumps the header, section table, and code listing of a
// previously assembled QPL file.
type disasmCmd struct {
	sectionsOnly bool
}

func (*disasmCmd) Name() string     { return "disasm" }
func (*disasmCmd) Synopsis() string { return "Dump a QPL object file's header, sections, and code" }
func (*disasmCmd) Usage() string {
	return `disasm <file.qpl>:
  Print the header, section table, and a decoded instruction listing of the
  code section of a QPL object file.
`
}

func (cmd *disasmCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.sectionsOnly, "sections", false, "only print the header and section table, skip the code listing")
}

func (cmd *disasmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "disasm: no input file given")
		return subcommands.ExitUsageError
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		log.Printf("disasm: %v", err)
		return subcommands.ExitFailure
	}
	file, err := object.ReadBytes(raw)
	if err != nil {
		log.Printf("disasm: %v", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("architecture: %s\n", file.Header.Architecture)
	fmt.Printf("version:      %d.%d\n", file.Header.VersionMajor, file.Header.VersionMinor)
	fmt.Printf("flags:        entry=%v exports=%v\n",
		file.Header.HasFlag(object.HasEntryPoint), file.Header.HasFlag(object.HasExports))
	fmt.Printf("sections (%d):\n", file.Header.NumSections)
	for _, entry := range file.Table.Entries() {
		fmt.Printf("  %-10s offset=%-6d size=%d\n", entry.Name, entry.Offset, entry.Size)
	}

	if cmd.sectionsOnly {
		return subcommands.ExitSuccess
	}

	code, ok := file.Section["code"]
	if !ok {
		return subcommands.ExitSuccess
	}
	fmt.Println("code:")
	if err := disassemble(code, file.Header.Architecture); err != nil {
		log.Printf("disasm: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// disassemble decodes and prints code, one instruction per line, advancing
// by each template's EncodedSize plus the two trailing (num_params,
// num_locals) bytes that call appends at emission time (see
// isa.Template.EncodedSize's doc comment).
func disassemble(code []byte, arch object.Architecture) error {
	order := arch.ByteOrder()
	for offset := 0; offset < len(code); {
		op := int8(code[offset])
		tmpl, ok := isa.ByOpcode(op)
		if !ok {
			return fmt.Errorf("unknown opcode %d at offset %d", op, offset)
		}
		size := tmpl.EncodedSize(arch.WordSize)
		isCall := tmpl.Name == "call"
		if isCall {
			size += 2
		}
		if offset+size > len(code) {
			return fmt.Errorf("truncated instruction %q at offset %d", tmpl.Name, offset)
		}
		fmt.Printf("  %6d  %s", offset, tmpl.Name)
		printArgs(code[offset+1:offset+size], tmpl, isCall, arch.WordSize, order)
		fmt.Println()
		offset += size
	}
	return nil
}

func printArgs(args []byte, tmpl *isa.Template, isCall bool, wordSize int, order binary.ByteOrder) {
	pos := 0
	for _, p := range tmpl.Params {
		switch p.Kind {
		case isa.Concrete:
			n := p.Type.Size(wordSize)
			if pos+n <= len(args) {
				if v, err := types.DecodeInt(args[pos:pos+n], order); err == nil {
					fmt.Printf(" %d", v)
				}
			}
			pos += n
		case isa.TypeParam:
			if pos < len(args) {
				if tag, ok := types.ByIndex(int(args[pos])); ok {
					fmt.Printf(" %s", tag)
				}
			}
			pos++
		case isa.SizeofParam:
			if pos+wordSize <= len(args) {
				if v, err := types.DecodeInt(args[pos:pos+wordSize], order); err == nil {
					fmt.Printf(" sizeof=%d", v)
				}
			}
			pos += wordSize
		case isa.VarParam:
			if pos+1 < len(args) {
				if tag, ok := types.ByIndex(int(args[pos])); ok {
					fmt.Printf(" %s[%d]", tag, args[pos+1])
				}
			}
			pos += 2
		}
	}
	if isCall && pos+1 < len(args) {
		fmt.Printf(" (params=%d locals=%d)", args[pos], args[pos+1])
	}
}
