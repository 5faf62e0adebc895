package parser

import (
	"strconv"

	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/token"
)

func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(1)
}

// parseBinary is precedence climbing over token.Kind.Precedence.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	x := p.parseUnary()
	for {
		op := p.peek()
		prec := op.Kind.Precedence()
		if prec < minPrec || prec == 0 {
			return x
		}
		p.advance()
		var y ast.Expr
		switch op.Kind {
		case token.KwAs, token.KwTransmute, token.KwDownCast:
			y = p.parseType()
		default:
			y = p.parseBinary(prec + 1)
		}
		x = &ast.BinaryExpr{Op: op.Kind, X: x, Y: y, OpPos: op.Span, Sp: x.Span().Cover(y.Span())}
	}
}

func (p *Parser) parseUnary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Add, token.Sub, token.Xor, token.Not, token.Pointer:
		p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: tok.Kind, X: x, Sp: tok.Span.Cover(x.Span())}
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() ast.Expr {
	x := p.parseOperand()
	for {
		switch p.peek().Kind {
		case token.Period:
			p.advance()
			sel := p.parseIdent()
			x = &ast.SelectorExpr{X: x, Sel: sel, Sp: x.Span().Cover(sel.Sp)}
		case token.OpenBracket:
			x = p.parseIndexOrSlice(x)
		case token.OpenParen:
			x = p.parseCall(x)
		case token.Pointer:
			tok := p.advance()
			x = &ast.DerefExpr{X: x, Sp: x.Span().Cover(tok.Span)}
		case token.OpenBrace:
			if p.exprLev < 0 || !ast.IsTypeLike(x) {
				return x
			}
			x = p.parseCompositeLit(x)
		default:
			return x
		}
	}
}

func (p *Parser) parseOperand() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		return p.parseIdent()
	case token.IntLit, token.FloatLit, token.ImagLit, token.RuneLit, token.StringLit:
		p.advance()
		return &ast.BasicLit{Kind: tok.Kind, Value: tok.Text, Sp: tok.Span}
	case token.OpenParen:
		p.advance()
		x := p.parseExprLevel()
		p.expect(token.CloseParen, diag.SynUnclosedDelimiter, "expected \")\"")
		return &ast.ParenExpr{X: x, Sp: p.spanFrom(tok.Span)}
	case token.KwProc:
		return p.parseProcLit()
	case token.OpenBracket, token.KwStruct, token.KwRawUnion, token.KwUnion, token.KwEnum, token.KwMap, token.KwBitField:
		return p.parseType()
	case token.Hash:
		if p.peekN(1).Kind == token.Ident && p.peekN(1).Text == "soa" {
			return p.parseType()
		}
	case token.OpenBrace:
		// untyped nested literal; only meaningful as a composite element
		return p.parseCompositeLit(nil)
	}
	p.err(diag.SynExpectExpression, "expected expression, got \""+tok.Text+"\"")
	if tok.Kind != token.Semicolon && tok.Kind != token.CloseBrace && tok.Kind != token.CloseParen {
		p.advance()
	}
	return &ast.BadExpr{Sp: tok.Span}
}

func (p *Parser) parseProcLit() ast.Expr {
	pt := p.parseProcType()
	switch {
	case p.at(token.OpenBrace):
		old := p.exprLev
		p.exprLev = 0
		body := p.parseBlock()
		p.exprLev = old
		return &ast.ProcLit{Type: pt, Body: body, Sp: pt.Sp.Cover(body.Sp)}
	case p.at(token.Hash) && p.peekN(1).Kind == token.Ident && p.peekN(1).Text == "foreign":
		p.advance()
		p.advance()
		lit := &ast.ProcLit{Type: pt, Foreign: true}
		if p.at(token.StringLit) {
			s := p.advance()
			name, err := strconv.Unquote(s.Text)
			if err != nil {
				p.report(diag.SynBadDirective, s.Span, "invalid foreign name")
			}
			lit.ForeignName = name
		}
		lit.Sp = p.spanFrom(pt.Sp)
		return lit
	}
	return pt
}

func (p *Parser) parseIndexOrSlice(x ast.Expr) ast.Expr {
	p.advance()
	old := p.exprLev
	p.exprLev = max(p.exprLev, 0) + 1
	defer func() { p.exprLev = old }()

	var idx [3]ast.Expr
	colons := 0
	if !p.at(token.Colon) {
		idx[0] = p.parseExpr()
	}
	for colons < 2 && p.eat(token.Colon) {
		colons++
		if !p.atOr(token.Colon, token.CloseBracket) {
			idx[colons] = p.parseExpr()
		}
	}
	p.expect(token.CloseBracket, diag.SynUnclosedDelimiter, "expected \"]\"")
	sp := p.spanFrom(x.Span())
	if colons == 0 {
		if idx[0] == nil {
			p.report(diag.SynExpectExpression, sp, "expected index expression")
			idx[0] = &ast.BadExpr{Sp: sp}
		}
		return &ast.IndexExpr{X: x, Index: idx[0], Sp: sp}
	}
	s := &ast.SliceExpr{X: x, Low: idx[0], High: idx[1], Max: idx[2], Triple: colons == 2, Sp: sp}
	if s.Triple && (s.High == nil || s.Max == nil) {
		p.report(diag.SynExpectExpression, sp, "3-index slice requires the 2nd and 3rd index")
	}
	return s
}

func (p *Parser) parseCall(fun ast.Expr) ast.Expr {
	p.advance()
	old := p.exprLev
	p.exprLev = max(p.exprLev, 0) + 1
	defer func() { p.exprLev = old }()

	call := &ast.CallExpr{Fun: fun}
	for !p.atOr(token.CloseParen, token.EOF) {
		call.Args = append(call.Args, p.parseExpr())
		if p.eat(token.Ellipsis) {
			call.Spread = true
			break
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.CloseParen, diag.SynUnclosedDelimiter, "expected \")\" to close call")
	call.Sp = p.spanFrom(fun.Span())
	return call
}

func (p *Parser) parseCompositeLit(typ ast.Expr) ast.Expr {
	lbrace := p.advance()
	old := p.exprLev
	p.exprLev = 0
	defer func() { p.exprLev = old }()

	lit := &ast.CompositeLit{Type: typ, Lbrace: lbrace.Span}
	for !p.atOr(token.CloseBrace, token.EOF) {
		lit.Elts = append(lit.Elts, p.parseElement())
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.CloseBrace, diag.SynUnclosedDelimiter, "expected \"}\" to close composite literal")
	start := lbrace.Span
	if typ != nil {
		start = typ.Span()
	}
	lit.Sp = p.spanFrom(start)
	return lit
}

func (p *Parser) parseElement() ast.Expr {
	if p.at(token.Ident) && p.peekN(1).Kind == token.Eq {
		name := p.parseIdent()
		p.advance()
		v := p.parseElementValue()
		return &ast.FieldValue{Field: name, Value: v, Sp: name.Sp.Cover(v.Span())}
	}
	return p.parseElementValue()
}

func (p *Parser) parseElementValue() ast.Expr {
	if p.at(token.OpenBrace) {
		return p.parseCompositeLit(nil)
	}
	return p.parseExpr()
}
