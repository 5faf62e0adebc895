package parser

import (
	"strconv"

	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/token"
)

// parseType parses a type in a type-only position.
func (p *Parser) parseType() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.Ident:
		var x ast.Expr = p.parseIdent()
		for p.at(token.Period) {
			p.advance()
			sel := p.parseIdent()
			x = &ast.SelectorExpr{X: x, Sel: sel, Sp: p.spanFrom(tok.Span)}
		}
		return x
	case token.Pointer:
		p.advance()
		elem := p.parseType()
		return &ast.PointerType{Elem: elem, Sp: p.spanFrom(tok.Span)}
	case token.OpenBracket:
		return p.parseBracketType()
	case token.KwStruct, token.KwRawUnion:
		return p.parseStructType()
	case token.KwUnion:
		return p.parseUnionType()
	case token.KwEnum:
		return p.parseEnumType()
	case token.KwBitField:
		return p.parseBitFieldType()
	case token.KwMap:
		p.advance()
		p.expect(token.OpenBracket, diag.SynUnexpectedToken, "expected \"[\" after map")
		key := p.parseType()
		p.expect(token.CloseBracket, diag.SynUnclosedDelimiter, "expected \"]\"")
		value := p.parseType()
		return &ast.MapType{Key: key, Value: value, Sp: p.spanFrom(tok.Span)}
	case token.Hash:
		if p.peekN(1).Kind == token.Ident && p.peekN(1).Text == "soa" {
			p.advance()
			p.advance()
			if !p.at(token.OpenBracket) {
				p.err(diag.SynExpectType, "expected array type after #soa")
				return &ast.BadExpr{Sp: p.spanFrom(tok.Span)}
			}
			x := p.parseBracketType()
			arr, ok := x.(*ast.ArrayType)
			if !ok || arr.Open {
				p.report(diag.SynBadDirective, x.Span(), "#soa needs a fixed length array type")
				return x
			}
			arr.SoA = true
			arr.Sp = p.spanFrom(tok.Span)
			return arr
		}
	case token.KwProc:
		return p.parseProcType()
	case token.OpenParen:
		p.advance()
		x := p.parseType()
		p.expect(token.CloseParen, diag.SynUnclosedDelimiter, "expected \")\"")
		return &ast.ParenExpr{X: x, Sp: p.spanFrom(tok.Span)}
	case token.Ellipsis:
		p.advance()
		elem := p.parseType()
		return &ast.EllipsisType{Elem: elem, Sp: p.spanFrom(tok.Span)}
	}
	p.err(diag.SynExpectType, "expected type, got \""+tok.Text+"\"")
	return &ast.BadExpr{Sp: tok.Span}
}

// parseBracketType handles [N]T, [..]T, []T and [vector N]T.
func (p *Parser) parseBracketType() ast.Expr {
	start := p.advance().Span
	switch {
	case p.eat(token.CloseBracket):
		elem := p.parseType()
		return &ast.SliceType{Elem: elem, Sp: p.spanFrom(start)}
	case p.at(token.Ellipsis) && p.peekN(1).Kind == token.CloseBracket:
		p.advance()
		p.advance()
		elem := p.parseType()
		return &ast.ArrayType{Open: true, Elem: elem, Sp: p.spanFrom(start)}
	case p.eat(token.KwVector):
		n := p.parseExprLevel()
		p.expect(token.CloseBracket, diag.SynUnclosedDelimiter, "expected \"]\"")
		elem := p.parseType()
		return &ast.VectorType{Len: n, Elem: elem, Sp: p.spanFrom(start)}
	}
	n := p.parseExprLevel()
	p.expect(token.CloseBracket, diag.SynUnclosedDelimiter, "expected \"]\"")
	elem := p.parseType()
	return &ast.ArrayType{Len: n, Elem: elem, Sp: p.spanFrom(start)}
}

// parseExprLevel parses an expression where composite literals are allowed
// again (inside brackets or parens).
func (p *Parser) parseExprLevel() ast.Expr {
	old := p.exprLev
	p.exprLev = max(p.exprLev, 0) + 1
	x := p.parseExpr()
	p.exprLev = old
	return x
}

func (p *Parser) parseStructType() ast.Expr {
	kw := p.advance()
	st := &ast.StructType{Raw: kw.Kind == token.KwRawUnion}
	for p.at(token.Hash) {
		p.advance()
		dir := p.parseIdent()
		switch {
		case dir.Name == "packed" && !st.Raw:
			st.Packed = true
		case dir.Name == "reorder" && !st.Raw:
			st.Reorder = true
		default:
			p.report(diag.SynBadDirective, dir.Sp, "unknown directive #"+dir.Name+" on "+kw.Text)
		}
	}
	st.Fields = p.parseFieldBody(true)
	st.Sp = p.spanFrom(kw.Span)
	return st
}

func (p *Parser) parseUnionType() ast.Expr {
	kw := p.advance()
	fields := p.parseFieldBody(false)
	return &ast.UnionType{Fields: fields, Sp: p.spanFrom(kw.Span)}
}

// parseFieldBody reads "{ decl (,|;) ... }" of a record.
func (p *Parser) parseFieldBody(allowUsing bool) []*ast.Field {
	if _, ok := p.expect(token.OpenBrace, diag.SynUnexpectedToken, "expected \"{\""); !ok {
		return nil
	}
	old := p.exprLev
	p.exprLev = 0
	defer func() { p.exprLev = old }()

	var fields []*ast.Field
	for !p.atOr(token.CloseBrace, token.EOF) {
		start := p.peek().Span
		f := &ast.Field{}
		if p.at(token.KwUsing) {
			if !allowUsing {
				p.err(diag.SynUnexpectedToken, "\"using\" is not allowed here")
			}
			p.advance()
			f.Using = true
		}
		f.Names = p.parseIdentList()
		switch {
		case p.eat(token.Colon):
			f.Type = p.parseType()
		case p.eat(token.ColonColon):
			f.Value = p.parseExpr()
		default:
			p.err(diag.SynUnexpectedToken, "expected \":\" or \"::\" in field declaration")
			p.resyncUntil(token.Comma, token.Semicolon, token.CloseBrace)
		}
		f.Sp = p.spanFrom(start)
		fields = append(fields, f)
		if !p.eat(token.Comma) && !p.eat(token.Semicolon) {
			// a closing brace may follow a nested record body directly
			if !p.at(token.CloseBrace) && p.toks[p.pos-1].Kind != token.CloseBrace {
				p.err(diag.SynUnexpectedToken, "expected \",\" or \"}\" after field")
				p.resyncUntil(token.Comma, token.Semicolon, token.CloseBrace)
				p.eat(token.Comma)
				p.eat(token.Semicolon)
			}
		}
	}
	p.expect(token.CloseBrace, diag.SynUnclosedDelimiter, "expected \"}\"")
	return fields
}

func (p *Parser) parseEnumType() ast.Expr {
	kw := p.advance()
	et := &ast.EnumType{}
	if !p.at(token.OpenBrace) {
		et.Base = p.parseType()
	}
	p.expect(token.OpenBrace, diag.SynUnexpectedToken, "expected \"{\" after enum")
	for !p.atOr(token.CloseBrace, token.EOF) {
		ef := &ast.EnumField{Name: p.parseIdent()}
		if p.eat(token.Eq) {
			ef.Value = p.parseExprLevel()
		}
		et.Fields = append(et.Fields, ef)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.CloseBrace, diag.SynUnclosedDelimiter, "expected \"}\" to close enum")
	et.Sp = p.spanFrom(kw.Span)
	return et
}

// parseBitFieldType reads "bit_field T { name: U | bits, ... }". Field
// types stop before "|" since Or is not part of a type.
func (p *Parser) parseBitFieldType() ast.Expr {
	kw := p.advance()
	bf := &ast.BitFieldType{Backing: p.parseType()}
	p.expect(token.OpenBrace, diag.SynUnexpectedToken, "expected \"{\" after bit_field backing type")
	old := p.exprLev
	p.exprLev = 0
	for !p.atOr(token.CloseBrace, token.EOF) {
		start := p.peek().Span
		f := &ast.BitFieldField{Name: p.parseIdent()}
		p.expect(token.Colon, diag.SynUnexpectedToken, "expected \":\" after bit_field field name")
		f.Type = p.parseType()
		p.expect(token.Or, diag.SynUnexpectedToken, "expected \"|\" and a bit size")
		f.Bits = p.parseUnary()
		f.Sp = p.spanFrom(start)
		bf.Fields = append(bf.Fields, f)
		if !p.eat(token.Comma) && !p.eat(token.Semicolon) {
			break
		}
	}
	p.exprLev = old
	p.expect(token.CloseBrace, diag.SynUnclosedDelimiter, "expected \"}\" to close bit_field")
	bf.Sp = p.spanFrom(kw.Span)
	return bf
}

// parseProcType reads proc ["conv"] (params) [-> results].
func (p *Parser) parseProcType() *ast.ProcType {
	kw := p.advance()
	pt := &ast.ProcType{}
	if p.at(token.StringLit) {
		tok := p.advance()
		conv, err := strconv.Unquote(tok.Text)
		if err != nil {
			p.report(diag.SynUnexpectedToken, tok.Span, "invalid calling convention string")
		}
		pt.CallConv = conv
	}
	p.expect(token.OpenParen, diag.SynUnexpectedToken, "expected \"(\" after proc")
	pt.Params = p.parseParams()
	p.expect(token.CloseParen, diag.SynUnclosedDelimiter, "expected \")\" to close parameter list")
	if p.eat(token.ArrowRight) {
		pt.Results = p.parseResults()
	}
	pt.Sp = p.spanFrom(kw.Span)
	return pt
}

func (p *Parser) parseParams() []*ast.Field {
	var params []*ast.Field
	for !p.atOr(token.CloseParen, token.EOF) {
		params = append(params, p.parseParam())
		if !p.eat(token.Comma) {
			break
		}
	}
	for i, f := range params {
		if _, ok := f.Type.(*ast.EllipsisType); ok && i != len(params)-1 {
			p.report(diag.SynVariadicNotLast, f.Sp, "variadic parameter must be the last parameter")
		}
	}
	return params
}

func (p *Parser) parseParam() *ast.Field {
	start := p.peek().Span
	f := &ast.Field{}
	for {
		if p.eat(token.KwUsing) {
			f.Using = true
			continue
		}
		if p.at(token.Hash) && p.peekN(1).Kind == token.Ident && p.peekN(1).Text == "no_alias" {
			p.advance()
			p.advance()
			f.NoAlias = true
			continue
		}
		break
	}
	f.Names = p.parseIdentList()
	p.expect(token.Colon, diag.SynUnexpectedToken, "expected \":\" after parameter name")
	f.Type = p.parseType()
	f.Sp = p.spanFrom(start)
	return f
}

// parseResults reads "T", "(T, U)" or "(a: T, b: U)".
func (p *Parser) parseResults() []*ast.Field {
	if !p.at(token.OpenParen) {
		t := p.parseType()
		return []*ast.Field{{Type: t, Sp: t.Span()}}
	}
	p.advance()
	var results []*ast.Field
	named := p.at(token.Ident) && (p.peekN(1).Kind == token.Colon || p.peekN(1).Kind == token.Comma && p.namedResultsAhead())
	for !p.atOr(token.CloseParen, token.EOF) {
		if named {
			results = append(results, p.parseParam())
		} else {
			t := p.parseType()
			results = append(results, &ast.Field{Type: t, Sp: t.Span()})
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.CloseParen, diag.SynUnclosedDelimiter, "expected \")\" to close result list")
	return results
}

// namedResultsAhead scans "a, b, c :" without consuming.
func (p *Parser) namedResultsAhead() bool {
	for i := 0; ; i += 2 {
		if p.peekN(i).Kind != token.Ident {
			return false
		}
		switch p.peekN(i + 1).Kind {
		case token.Colon:
			return true
		case token.Comma:
		default:
			return false
		}
	}
}
