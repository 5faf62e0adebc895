package token

import (
	"odinc/internal/source"
)

// Token is one lexeme with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, ImagLit, RuneLit, StringLit:
		return true
	}
	return false
}

func (t Token) String() string {
	if t.Kind == Ident || t.IsLiteral() {
		return t.Text
	}
	return t.Kind.String()
}
