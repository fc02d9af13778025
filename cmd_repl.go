package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"qasm/assembler"
	"qasm/ast"
	"qasm/lexer"
	"qasm/object"
	"qasm/parser"
	"qasm/token"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
)

// replCmd reads QSM source one line at a time, buffering until a
// top-level declaration is complete, then assembles it standalone and
// prints the resulting object file's layout.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Interactively assemble QSM declarations" }
func (*replCmd) Usage() string {
	return `repl:
  Read top-level QSM declarations (func/var/type/import) from stdin, one at
  a time, and assemble each as a standalone document.
`
}

func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Println("repl:", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("qasm REPL. Type a func/var/type declaration, or \"exit\".")

	var buffer strings.Builder
	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buffer.Reset()
			continue
		}
		if errors.Is(err, io.EOF) {
			return subcommands.ExitSuccess
		}
		if err != nil {
			fmt.Println("repl:", err)
			return subcommands.ExitFailure
		}

		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens, err := scanAll(source)
		if err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}
		if !isInputReady(tokens) {
			continue
		}

		doc, err := parser.New(lexer.New(source)).Parse()
		if err != nil {
			if isIncompleteInput(err, tokens) {
				continue
			}
			fmt.Println("parse error:", err)
			buffer.Reset()
			continue
		}

		data, err := assembleReplDoc(doc)
		if err != nil {
			fmt.Println("assemble error:", err)
			buffer.Reset()
			continue
		}
		fmt.Printf("assembled %d bytes\n", len(data))
		if file, err := object.ReadBytes(data); err == nil {
			if code, ok := file.Section["code"]; ok {
				disassemble(code, file.Header.Architecture)
			}
		}
		buffer.Reset()
	}
}

// assembleReplDoc runs doc through a fresh Assembler using the repl's
// fixed defaults: native architecture, format version 1.0.
func assembleReplDoc(doc *ast.Document) ([]byte, error) {
	opts := assembler.Options{
		Architecture: object.NativeArchitecture(),
		VersionMajor: 1,
		VersionMinor: 0,
	}
	return assembler.New(opts).Assemble(doc)
}

// scanAll drains tok to a token slice, including the trailing EOF token.
func scanAll(source string) ([]token.Token, error) {
	tok := lexer.New(source)
	var tokens []token.Token
	for {
		next, err := tok.Advance()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, next)
		if next.Kind == token.EOF {
			return tokens, nil
		}
	}
}

// isInputReady reports whether tokens form a balanced, plausibly complete
// top-level declaration. The only multi-line construct in QSM is a
// brace-delimited body (function, type, or import block), so brace
// balance is the whole heuristic.
func isInputReady(tokens []token.Token) bool {
	balance := 0
	for _, tok := range tokens {
		switch tok.Kind {
		case token.LeftCurly:
			balance++
		case token.RightCurly:
			balance--
		}
	}
	return balance <= 0
}

// isIncompleteInput reports whether err is a parse failure caused by
// running out of tokens rather than a genuine syntax error, so the REPL
// should keep buffering instead of reporting it.
func isIncompleteInput(err error, tokens []token.Token) bool {
	var unexpected *parser.UnexpectedTokenError
	if !errors.As(err, &unexpected) {
		return false
	}
	return unexpected.Got.Kind == token.EOF
}
