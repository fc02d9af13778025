package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"qasm/assembler"
	"qasm/object"

	"github.com/google/subcommands"
)

// asmCmd assembles one QSM source file into a QPL object file.
type asmCmd struct {
	output       string
	wordSize     int
	bigEndian    bool
	versionMajor uint
	versionMinor uint
}

func (*asmCmd) Name() string     { return "asm" }
func (*asmCmd) Synopsis() string { return "Assemble a QSM source file into a QPL object file" }
func (*asmCmd) Usage() string {
	return `asm [-o output.qpl] <file.qsm>:
  Assemble a QSM source file into a QPL object file. Defaults to writing
  the input path with its extension replaced by ".qpl".
`
}

func (cmd *asmCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&cmd.output, "o", "", "output path (default: input path with a .qpl extension)")
	f.IntVar(&cmd.wordSize, "wordsize", object.NativeArchitecture().WordSize, "native word size in bytes")
	f.BoolVar(&cmd.bigEndian, "bigendian", false, "encode multi-byte values big-endian instead of little-endian")
	f.UintVar(&cmd.versionMajor, "vmajor", 1, "format major version to stamp into the output header")
	f.UintVar(&cmd.versionMinor, "vminor", 0, "format minor version to stamp into the output header")
}

func (cmd *asmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "asm: no input file given")
		return subcommands.ExitUsageError
	}
	opts := assembler.Options{
		Architecture: object.Architecture{WordSize: cmd.wordSize, LittleEndian: !cmd.bigEndian},
		VersionMajor: uint16(cmd.versionMajor),
		VersionMinor: uint16(cmd.versionMinor),
	}
	if err := assembler.AssembleFile(args[0], cmd.output, opts); err != nil {
		log.Printf("asm: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
