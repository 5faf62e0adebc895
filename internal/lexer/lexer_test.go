package lexer

import (
	"testing"

	"odinc/internal/diag"
	"odinc/internal/source"
	"odinc/internal/token"
)

func lexString(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.odin", []byte(src))
	bag := diag.NewBag(50)
	lx := New(fs.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestOperators(t *testing.T) {
	toks, bag := lexString(t, "a &~= b << 2 :: -> .. := &~ ^x")
	want := []token.Kind{
		token.Ident, token.AndNotEq, token.Ident, token.Shl, token.IntLit,
		token.ColonColon, token.ArrowRight, token.Ellipsis, token.Define,
		token.AndNot, token.Pointer, token.Ident, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestNumbers(t *testing.T) {
	cases := []struct {
		src  string
		kind token.Kind
	}{
		{"42", token.IntLit},
		{"0xFF_FF", token.IntLit},
		{"0b1010", token.IntLit},
		{"1.5", token.FloatLit},
		{"1e10", token.FloatLit},
		{".25", token.FloatLit},
		{"2i", token.ImagLit},
	}
	for _, tc := range cases {
		toks, bag := lexString(t, tc.src)
		if toks[0].Kind != tc.kind || toks[0].Text != tc.src {
			t.Fatalf("%q: got %s %q", tc.src, toks[0].Kind, toks[0].Text)
		}
		if bag.Len() != 0 {
			t.Fatalf("%q: unexpected diagnostics %+v", tc.src, bag.Items())
		}
	}
}

func TestKeywordsAndComments(t *testing.T) {
	toks, _ := lexString(t, "proc /* a /* nested */ b */ down_cast // tail\n raw_union")
	got := kinds(toks)
	want := []token.Kind{token.KwProc, token.KwDownCast, token.KwRawUnion, token.EOF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestIdentifierNFC(t *testing.T) {
	// "e" + combining acute vs precomposed U+00E9
	toks, _ := lexString(t, "cafe\u0301 caf\u00e9")
	if toks[0].Text != toks[1].Text {
		t.Fatalf("identifiers not normalised: %q vs %q", toks[0].Text, toks[1].Text)
	}
}

func TestErrors(t *testing.T) {
	_, bag := lexString(t, "\"abc\n$ /* open")
	codes := map[diag.Code]bool{}
	for _, d := range bag.Items() {
		codes[d.Code] = true
	}
	for _, c := range []diag.Code{diag.LexUnterminatedString, diag.LexUnknownChar, diag.LexUnterminatedBlock} {
		if !codes[c] {
			t.Fatalf("missing %s in %+v", c.ID(), bag.Items())
		}
	}
}
