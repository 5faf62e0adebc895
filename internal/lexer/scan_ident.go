package lexer

import (
	"golang.org/x/text/unicode/norm"

	"odinc/internal/diag"
	"odinc/internal/token"
)

// scanIdentOrKeyword reads an identifier. The text is NFC-normalised so that
// composed and decomposed spellings name the same entity.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	r, _ := lx.peekRune()
	if !isIdentStartRune(r) {
		lx.bumpRune()
		sp := lx.cursor.SpanFrom(start)
		lx.errorf(diag.LexUnknownChar, sp, "unknown character "+lx.cursor.TextFrom(start))
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cursor.TextFrom(start)}
	}
	lx.bumpRune()
	for !lx.cursor.EOF() {
		r, _ = lx.peekRune()
		if !isIdentContinueRune(r) {
			break
		}
		lx.bumpRune()
	}
	text := lx.cursor.TextFrom(start)
	sp := lx.cursor.SpanFrom(start)
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: sp, Text: text}
	}
	if !norm.NFC.IsNormalString(text) {
		text = norm.NFC.String(text)
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
