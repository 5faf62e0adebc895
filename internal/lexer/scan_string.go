package lexer

import (
	"odinc/internal/diag"
	"odinc/internal/token"
)

// scanString reads a double quoted literal. Text keeps the quotes and escapes.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.errorf(diag.LexUnterminatedString, sp, "string literal not terminated")
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.cursor.TextFrom(start) + `"`}
		}
		switch lx.cursor.Bump() {
		case '"':
			return token.Token{Kind: token.StringLit, Span: lx.cursor.SpanFrom(start), Text: lx.cursor.TextFrom(start)}
		case '\\':
			lx.scanEscape('"')
		}
	}
}

func (lx *Lexer) scanRune() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	n := 0
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.errorf(diag.LexUnterminatedRune, sp, "rune literal not terminated")
			return token.Token{Kind: token.RuneLit, Span: sp, Text: "'\\0'"}
		}
		if lx.cursor.Peek() == '\'' {
			lx.cursor.Bump()
			break
		}
		if lx.cursor.Peek() == '\\' {
			lx.cursor.Bump()
			lx.scanEscape('\'')
		} else {
			lx.bumpRune()
		}
		n++
	}
	sp := lx.cursor.SpanFrom(start)
	if n != 1 {
		lx.errorf(diag.LexUnterminatedRune, sp, "rune literal must contain exactly one character")
	}
	return token.Token{Kind: token.RuneLit, Span: sp, Text: lx.cursor.TextFrom(start)}
}

func (lx *Lexer) scanEscape(quote byte) {
	start := lx.cursor.Mark() - 1
	switch b := lx.cursor.Peek(); b {
	case 'n', 't', 'r', '\\', '0', '"', '\'':
		lx.cursor.Bump()
	case 'x':
		lx.cursor.Bump()
		for range 2 {
			if !isHex(lx.cursor.Peek()) {
				lx.errorf(diag.LexBadEscape, lx.cursor.SpanFrom(start), "\\x escape needs two hex digits")
				return
			}
			lx.cursor.Bump()
		}
	default:
		if b == quote || lx.cursor.EOF() {
			return
		}
		lx.bumpRune()
		lx.errorf(diag.LexBadEscape, lx.cursor.SpanFrom(start), "unknown escape sequence "+lx.cursor.TextFrom(start))
	}
}
