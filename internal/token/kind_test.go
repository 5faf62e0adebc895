package token

import "testing"

func TestKeywordsRoundTrip(t *testing.T) {
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		got, ok := LookupKeyword(k.String())
		if !ok || got != k {
			t.Errorf("LookupKeyword(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := LookupKeyword("int"); ok {
		t.Fatal("int must not be a keyword")
	}
}

func TestBinaryOf(t *testing.T) {
	cases := map[Kind]Kind{
		AddEq:    Add,
		AndNotEq: AndNot,
		ShrEq:    Shr,
		XorEq:    Xor,
	}
	for in, want := range cases {
		if got := in.BinaryOf(); got != want {
			t.Errorf("%v.BinaryOf() = %v, want %v", in, got, want)
		}
	}
	if Eq.BinaryOf() != Invalid {
		t.Fatal("plain = has no binary form")
	}
}

func TestPrecedenceOrdering(t *testing.T) {
	if !(CmpOr.Precedence() < CmpAnd.Precedence() &&
		CmpAnd.Precedence() < CmpEq.Precedence() &&
		CmpEq.Precedence() < Add.Precedence() &&
		Add.Precedence() < Mul.Precedence() &&
		Mul.Precedence() < KwAs.Precedence()) {
		t.Fatal("precedence table out of order")
	}
	if Period.Precedence() != 0 {
		t.Fatal("period is not a binary operator")
	}
}
