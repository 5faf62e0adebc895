package constant

import (
	"testing"

	"odinc/internal/token"
)

func lit(t *testing.T, text string, kind token.Kind) Value {
	t.Helper()
	v, err := MakeFromLiteral(text, kind)
	if err != nil {
		t.Fatalf("MakeFromLiteral(%q): %v", text, err)
	}
	return v
}

func TestIntegerRanges(t *testing.T) {
	cases := []struct {
		v        int64
		bits     int
		unsigned bool
		fit      Fit
	}{
		{127, 8, false, Fits},
		{128, 8, false, Overflows},
		{-128, 8, false, Fits},
		{-129, 8, false, Overflows},
		{255, 8, true, Fits},
		{256, 8, true, Overflows},
		{-1, 8, true, Overflows},
		{1<<63 - 1, 64, false, Fits},
		{-1 << 63, 64, false, Fits},
	}
	for _, tc := range cases {
		_, fit := Representable(MakeInt64(tc.v), ClassInteger, tc.bits, tc.unsigned)
		if fit != tc.fit {
			t.Fatalf("%d in %d bits (unsigned=%v): expected %d, got %d", tc.v, tc.bits, tc.unsigned, tc.fit, fit)
		}
	}
	maxU64 := lit(t, "0xFFFF_FFFF_FFFF_FFFF", token.IntLit)
	if _, fit := Representable(maxU64, ClassInteger, 64, true); fit != Fits {
		t.Fatalf("max u64 should fit")
	}
	if _, fit := Representable(maxU64, ClassInteger, 64, false); fit != Overflows {
		t.Fatalf("max u64 should overflow i64")
	}
}

func TestFloatToIntTruncated(t *testing.T) {
	if _, fit := Representable(lit(t, "1.5", token.FloatLit), ClassInteger, 32, false); fit != Truncated {
		t.Fatalf("expected truncation, got %d", fit)
	}
	v, fit := Representable(lit(t, "2.0", token.FloatLit), ClassInteger, 32, false)
	if fit != Fits || v.Kind() != Integer || v.String() != "2" {
		t.Fatalf("2.0 should convert to integer 2, got %s (%d)", v, fit)
	}
	if _, fit := Representable(MakeString("x"), ClassInteger, 32, false); fit != Mismatch {
		t.Fatalf("string into int should mismatch")
	}
}

func TestFoldingIsDeterministic(t *testing.T) {
	a := lit(t, "7", token.IntLit)
	b := UnaryOp(token.Sub, lit(t, "2", token.IntLit), 0)
	q1 := BinaryOp(token.Quo, a, b)
	q2 := BinaryOp(token.Quo, a, b)
	if !Identical(q1, q2) || q1.String() != "-3" {
		t.Fatalf("7 / -2 should truncate to -3, got %s and %s", q1, q2)
	}
	if r := BinaryOp(token.Mod, a, b); r.String() != "1" {
		t.Fatalf("7 %% -2 expected 1, got %s", r)
	}
	if r := BinaryOp(token.Quo, a, MakeInt64(0)); r.IsValid() {
		t.Fatalf("division by zero must be invalid")
	}
	f := BinaryOp(token.Add, a, lit(t, "0.5", token.FloatLit))
	if f.Kind() != Float || f.String() != "7.5" {
		t.Fatalf("mixed add should widen to float, got %s", f)
	}
}

func TestUnsignedComplement(t *testing.T) {
	r := UnaryOp(token.Xor, MakeInt64(0), 8)
	if r.String() != "255" {
		t.Fatalf("~u8(0) expected 255, got %s", r)
	}
	if r := UnaryOp(token.Xor, MakeInt64(0), 0); r.String() != "-1" {
		t.Fatalf("~0 expected -1, got %s", r)
	}
}

func TestShiftAndCompare(t *testing.T) {
	v := Shift(token.Shl, MakeInt64(1), 70)
	if v.Int().BitLen() != 71 {
		t.Fatalf("1 << 70 has wrong width: %s", v)
	}
	if !Compare(token.Lt, MakeInt64(3), lit(t, "3.5", token.FloatLit)) {
		t.Fatalf("3 < 3.5 should hold")
	}
	if Compare(token.CmpEq, MakeString("a"), MakeInt64(1)) {
		t.Fatalf("mismatched kinds compare false")
	}
}

func TestStringAndRuneLiterals(t *testing.T) {
	s := lit(t, `"a\tb\x41"`, token.StringLit)
	if s.StringVal() != "a\tbA" {
		t.Fatalf("unexpected string %q", s.StringVal())
	}
	r := lit(t, `'\n'`, token.RuneLit)
	if n, ok := r.Int64(); !ok || n != '\n' {
		t.Fatalf("unexpected rune value %s", r)
	}
	c := lit(t, "2i", token.ImagLit)
	if c.Kind() != Complex || c.Imag().Sign() <= 0 {
		t.Fatalf("unexpected imaginary value %s", c)
	}
}

func TestWrap(t *testing.T) {
	if w := Wrap(MakeInt64(255), 8, false); w.String() != "-1" {
		t.Fatalf("wrap 255 to i8 expected -1, got %s", w)
	}
	if w := Wrap(MakeInt64(-1), 16, true); w.String() != "65535" {
		t.Fatalf("wrap -1 to u16 expected 65535, got %s", w)
	}
}
