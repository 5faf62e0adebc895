package parser

import (
	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/token"
)

func (p *Parser) parseFile() *ast.File {
	f := &ast.File{ID: p.file.ID, Name: p.file.Path}
	start := p.peek().Span
	for !p.at(token.EOF) {
		if p.opts.Enough() {
			break
		}
		before := p.pos
		d := p.parseTopDecl()
		if d != nil {
			f.Decls = append(f.Decls, d)
		}
		if p.pos == before {
			// no progress: drop the token so the loop terminates
			p.advance()
		}
	}
	f.Sp = start.Cover(p.peek().Span)
	return f
}

func (p *Parser) parseTopDecl() *ast.ValueDecl {
	var attrs []ast.Attribute
	if p.at(token.At) {
		attrs = p.parseAttributes()
	}
	if !p.at(token.Ident) {
		p.unexpected("declaration")
		p.resyncUntil(token.Semicolon, token.At)
		p.eat(token.Semicolon)
		return nil
	}
	names := p.parseIdentList()
	d := p.parseValueDeclRest(names)
	if d == nil {
		p.resyncUntil(token.Semicolon)
		p.eat(token.Semicolon)
		return nil
	}
	d.Attrs = attrs
	return d
}

// parseAttributes reads "@(key = value, ...)".
func (p *Parser) parseAttributes() []ast.Attribute {
	p.advance()
	if _, ok := p.expect(token.OpenParen, diag.SynBadAttribute, "expected \"(\" after \"@\""); !ok {
		return nil
	}
	var attrs []ast.Attribute
	for !p.atOr(token.CloseParen, token.EOF) {
		key := p.parseIdent()
		attr := ast.Attribute{Key: key}
		if p.eat(token.Eq) {
			attr.Value = p.parseIdent()
		}
		attrs = append(attrs, attr)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.CloseParen, diag.SynBadAttribute, "expected \")\" to close attribute list")
	return attrs
}

// parseValueDeclRest parses the part of a declaration after its names.
func (p *Parser) parseValueDeclRest(names []*ast.Ident) *ast.ValueDecl {
	d := &ast.ValueDecl{Names: names}
	start := names[0].Sp
	switch p.peek().Kind {
	case token.ColonColon:
		p.advance()
		d.Const = true
		d.Values = p.parseExprList()
	case token.Define:
		p.advance()
		d.Values = p.parseExprList()
	case token.Colon:
		p.advance()
		if !p.atOr(token.Eq, token.ColonColon) {
			d.Type = p.parseType()
		}
		if p.eat(token.Eq) {
			d.Values = p.parseExprList()
		} else if p.eat(token.ColonColon) {
			d.Const = true
			d.Values = p.parseExprList()
		}
	default:
		p.err(diag.SynBadDecl, "expected \"::\", \":\" or \":=\" in declaration")
		return nil
	}
	d.Sp = p.spanFrom(start)
	p.expectSemi()
	return d
}

func (p *Parser) parseExprList() []ast.Expr {
	list := []ast.Expr{p.parseExpr()}
	for p.eat(token.Comma) {
		list = append(list, p.parseExpr())
	}
	return list
}
