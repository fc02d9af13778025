package lexer

import (
	"testing"

	"qasm/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	tk := New(src)
	var out []token.Token
	for {
		tok, err := tk.Advance()
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return out
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestAdvancePunctuation(t *testing.T) {
	toks := scanAll(t, "(){},.:*=")
	want := []token.Kind{
		token.LeftParen, token.RightParen, token.LeftCurly, token.RightCurly,
		token.Comma, token.Dot, token.Colon, token.Asterisk, token.Equals, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAdvanceIdentifier(t *testing.T) {
	toks := scanAll(t, "_foo $bar func123")
	if toks[0].Kind != token.Identifier || toks[0].Lexeme != "_foo" {
		t.Errorf("unexpected first token: %+v", toks[0])
	}
	if toks[1].Kind != token.Identifier || toks[1].Lexeme != "$bar" {
		t.Errorf("unexpected second token: %+v", toks[1])
	}
}

func TestAdvanceIntegerAndFloat(t *testing.T) {
	toks := scanAll(t, "42 3.14 .5 -7")
	if toks[0].Kind != token.LiteralInt || toks[0].Literal != int64(42) {
		t.Errorf("unexpected int token: %+v", toks[0])
	}
	if toks[1].Kind != token.LiteralFloat || toks[1].Literal != 3.14 {
		t.Errorf("unexpected float token: %+v", toks[1])
	}
	if toks[2].Kind != token.LiteralFloat || toks[2].Literal != 0.5 {
		t.Errorf("unexpected leading-dot float token: %+v", toks[2])
	}
	if toks[3].Kind != token.LiteralInt || toks[3].Literal != int64(-7) {
		t.Errorf("unexpected negative int token: %+v", toks[3])
	}
}

func TestAdvanceStringAndCharLiterals(t *testing.T) {
	toks := scanAll(t, `"hi\n" 'a' '\t'`)
	if toks[0].Kind != token.LiteralString || toks[0].Literal != "hi\n" {
		t.Errorf("unexpected string token: %+v", toks[0])
	}
	if toks[1].Kind != token.LiteralChar || toks[1].Literal != 'a' {
		t.Errorf("unexpected char token: %+v", toks[1])
	}
	if toks[2].Kind != token.LiteralChar || toks[2].Literal != '\t' {
		t.Errorf("unexpected escaped char token: %+v", toks[2])
	}
}

func TestAdvanceHexLiteral(t *testing.T) {
	toks := scanAll(t, `\xFF`)
	if toks[0].Kind != token.LiteralHex || toks[0].Literal != "FF" {
		t.Errorf("unexpected hex token: %+v", toks[0])
	}
}

func TestOptionsOrthogonality(t *testing.T) {
	tk := New("a\n b ; c\n")
	var kindsSeen []token.Kind
	for {
		tok, err := tk.Advance()
		if err != nil {
			t.Fatalf("unexpected scan error: %v", err)
		}
		kindsSeen = append(kindsSeen, tok.Kind)
		if tok.Kind == token.EOF {
			break
		}
	}
	for _, k := range kindsSeen {
		if k == token.Newline || k == token.Whitespace || k == token.Comment {
			t.Fatalf("expected no whitespace-like tokens with all options off, got %s", k)
		}
	}
}

func TestEatSkipsWhitespace(t *testing.T) {
	tk := New("a   b")
	tk.set(SkipSpacesBeforeEating, true)
	if _, err := tk.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tk.Eat(token.Identifier, "a"); err != nil {
		t.Fatalf("unexpected error eating 'a': %v", err)
	}
	if tk.CurrentToken().Lexeme != "b" {
		t.Errorf("expected whitespace to be skipped, got %+v", tk.CurrentToken())
	}
}

func TestAcquireRestoresOptions(t *testing.T) {
	tk := New("")
	if tk.get(EmitComments) {
		t.Fatalf("expected EmitComments to start false")
	}
	restore := tk.Acquire(EmitComments)
	if !tk.get(EmitComments) {
		t.Errorf("expected EmitComments to be enabled inside acquire block")
	}
	restore()
	if tk.get(EmitComments) {
		t.Errorf("expected EmitComments restored to false after release")
	}
}

func TestEOFIsSticky(t *testing.T) {
	tk := New("x")
	if _, err := tk.Advance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := tk.Advance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Kind != token.EOF {
		t.Fatalf("expected EOF, got %s", first.Kind)
	}
	second, err := tk.Advance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Kind != token.EOF {
		t.Errorf("expected EOF to remain sticky, got %s", second.Kind)
	}
}
