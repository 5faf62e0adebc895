package lexer

import (
	"odinc/internal/diag"
	"odinc/internal/token"
)

// scanNumber reads integer, float and imaginary literals. Underscores are
// accepted as digit separators and kept in Text; the parser strips them.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit
	base := 10

	if lx.cursor.Peek() == '0' {
		switch lx.cursor.PeekAt(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			lx.cursor.Bump()
			lx.cursor.Bump()
			if !lx.digits(base) {
				sp := lx.cursor.SpanFrom(start)
				lx.errorf(diag.LexBadNumber, sp, "malformed number literal "+lx.cursor.TextFrom(start))
				return token.Token{Kind: token.IntLit, Span: sp, Text: "0"}
			}
			return lx.finishNumber(start, token.IntLit)
		}
	}

	lx.digits(10)
	// "1..2" is a range-like ellipsis, not a float.
	if lx.cursor.Peek() == '.' && lx.cursor.PeekAt(1) != '.' {
		lx.cursor.Bump()
		lx.digits(10)
		kind = token.FloatLit
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		mark := lx.cursor.Mark()
		lx.cursor.Bump()
		if b := lx.cursor.Peek(); b == '+' || b == '-' {
			lx.cursor.Bump()
		}
		if !lx.digits(10) {
			lx.cursor.Off = uint32(mark)
			sp := lx.cursor.SpanFrom(start)
			lx.errorf(diag.LexBadNumber, sp, "exponent has no digits")
		} else {
			kind = token.FloatLit
		}
	}
	return lx.finishNumber(start, kind)
}

func (lx *Lexer) finishNumber(start Mark, kind token.Kind) token.Token {
	if lx.cursor.Peek() == 'i' && !isIdentContinueNext(lx) {
		lx.cursor.Bump()
		kind = token.ImagLit
	}
	return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(start), Text: lx.cursor.TextFrom(start)}
}

// isIdentContinueNext reports whether the byte after the current one continues an identifier.
func isIdentContinueNext(lx *Lexer) bool {
	b := lx.cursor.PeekAt(1)
	return isIdentStartByte(b) || isDec(b)
}

// digits consumes digits of base and separators; it reports whether any digit was read.
func (lx *Lexer) digits(base int) bool {
	seen := false
	for {
		b := lx.cursor.Peek()
		switch {
		case b == '_':
			lx.cursor.Bump()
		case isDigitOf(base, b):
			lx.cursor.Bump()
			seen = true
		default:
			return seen
		}
	}
}
