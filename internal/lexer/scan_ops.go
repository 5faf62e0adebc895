package lexer

import (
	"odinc/internal/diag"
	"odinc/internal/token"
)

// scanOperatorOrPunct matches the longest operator at the cursor.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	c := &lx.cursor
	kind := token.Invalid

	switch c.Bump() {
	case '+':
		kind = pick(c, '=', token.AddEq, token.Add)
	case '-':
		switch {
		case c.Eat('>'):
			kind = token.ArrowRight
		case c.Eat('='):
			kind = token.SubEq
		default:
			kind = token.Sub
		}
	case '*':
		kind = pick(c, '=', token.MulEq, token.Mul)
	case '/':
		kind = pick(c, '=', token.QuoEq, token.Quo)
	case '%':
		kind = pick(c, '=', token.ModEq, token.Mod)
	case '&':
		switch {
		case c.Eat('&'):
			kind = token.CmpAnd
		case c.Eat('~'):
			kind = pick(c, '=', token.AndNotEq, token.AndNot)
		case c.Eat('='):
			kind = token.AndEq
		default:
			kind = token.And
		}
	case '|':
		switch {
		case c.Eat('|'):
			kind = token.CmpOr
		case c.Eat('='):
			kind = token.OrEq
		default:
			kind = token.Or
		}
	case '~':
		kind = pick(c, '=', token.XorEq, token.Xor)
	case '<':
		switch {
		case c.Eat('<'):
			kind = pick(c, '=', token.ShlEq, token.Shl)
		case c.Eat('='):
			kind = token.LtEq
		default:
			kind = token.Lt
		}
	case '>':
		switch {
		case c.Eat('>'):
			kind = pick(c, '=', token.ShrEq, token.Shr)
		case c.Eat('='):
			kind = token.GtEq
		default:
			kind = token.Gt
		}
	case '!':
		kind = pick(c, '=', token.NotEq, token.Not)
	case '=':
		kind = pick(c, '=', token.CmpEq, token.Eq)
	case ':':
		switch {
		case c.Eat(':'):
			kind = token.ColonColon
		case c.Eat('='):
			kind = token.Define
		default:
			kind = token.Colon
		}
	case '.':
		kind = pick(c, '.', token.Ellipsis, token.Period)
	case ';':
		kind = token.Semicolon
	case ',':
		kind = token.Comma
	case '^':
		kind = token.Pointer
	case '#':
		kind = token.Hash
	case '@':
		kind = token.At
	case '(':
		kind = token.OpenParen
	case ')':
		kind = token.CloseParen
	case '[':
		kind = token.OpenBracket
	case ']':
		kind = token.CloseBracket
	case '{':
		kind = token.OpenBrace
	case '}':
		kind = token.CloseBrace
	}

	sp := c.SpanFrom(start)
	text := c.TextFrom(start)
	if kind == token.Invalid {
		lx.errorf(diag.LexUnknownChar, sp, "unknown character "+text)
	}
	return token.Token{Kind: kind, Span: sp, Text: text}
}

func pick(c *Cursor, next byte, yes, no token.Kind) token.Kind {
	if c.Eat(next) {
		return yes
	}
	return no
}
