package parser

import (
	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/token"
)

func (p *Parser) parseBlock() *ast.BlockStmt {
	lbrace, _ := p.expect(token.OpenBrace, diag.SynUnexpectedToken, "expected \"{\"")
	b := &ast.BlockStmt{}
	for !p.atOr(token.CloseBrace, token.EOF) {
		if p.opts.Enough() {
			break
		}
		before := p.pos
		if s := p.parseStmt(); s != nil {
			b.List = append(b.List, s)
		}
		if p.pos == before {
			p.advance()
		}
	}
	p.expect(token.CloseBrace, diag.SynUnclosedDelimiter, "expected \"}\" to close block")
	b.Sp = p.spanFrom(lbrace.Span)
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	tok := p.peek()
	switch tok.Kind {
	case token.Semicolon:
		p.advance()
		return nil
	case token.OpenBrace:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIf()
	case token.KwFor:
		return p.parseFor()
	case token.KwMatch:
		return p.parseMatch()
	case token.KwUsing:
		return p.parseUsing()
	case token.KwReturn:
		p.advance()
		s := &ast.ReturnStmt{}
		if !p.atOr(token.Semicolon, token.CloseBrace) {
			s.Results = p.parseExprList()
		}
		s.Sp = p.spanFrom(tok.Span)
		p.expectSemi()
		return s
	case token.KwBreak, token.KwContinue:
		p.advance()
		s := &ast.BranchStmt{Tok: tok.Kind, Sp: tok.Span}
		p.expectSemi()
		return s
	case token.KwDefer:
		p.advance()
		inner := p.parseStmt()
		if inner == nil {
			p.report(diag.SynExpectExpression, tok.Span, "expected statement after defer")
			return nil
		}
		return &ast.DeferStmt{Stmt: inner, Sp: tok.Span.Cover(inner.Span())}
	case token.At:
		attrs := p.parseAttributes()
		names := p.parseIdentList()
		d := p.parseValueDeclRest(names)
		if d == nil {
			p.resyncUntil(token.Semicolon, token.CloseBrace)
			return nil
		}
		d.Attrs = attrs
		return &ast.DeclStmt{Decl: d}
	}
	s := p.parseSimpleStmt()
	if s == nil {
		p.resyncUntil(token.Semicolon, token.CloseBrace)
		p.eat(token.Semicolon)
		return nil
	}
	if _, isDecl := s.(*ast.DeclStmt); !isDecl {
		p.expectSemi()
	}
	return s
}

// parseSimpleStmt parses declarations, assignments and expression statements.
// Declarations consume their own terminator.
func (p *Parser) parseSimpleStmt() ast.Stmt {
	if p.at(token.Ident) && p.declAhead() {
		names := p.parseIdentList()
		d := p.parseValueDeclRest(names)
		if d == nil {
			return nil
		}
		return &ast.DeclStmt{Decl: d}
	}
	lhs := p.parseExprList()
	tok := p.peek()
	if tok.Kind == token.Eq || tok.Kind.IsAssignOp() {
		p.advance()
		rhs := p.parseExprList()
		return &ast.AssignStmt{
			Lhs:   lhs,
			Op:    tok.Kind,
			Rhs:   rhs,
			OpPos: tok.Span,
			Sp:    lhs[0].Span().Cover(rhs[len(rhs)-1].Span()),
		}
	}
	if len(lhs) > 1 {
		p.err(diag.SynUnexpectedToken, "expected \"=\" after expression list")
	}
	return &ast.ExprStmt{X: lhs[0]}
}

// declAhead reports whether "a, b, c" is followed by ":", "::" or ":=".
func (p *Parser) declAhead() bool {
	for i := 0; ; i += 2 {
		if p.peekN(i).Kind != token.Ident {
			return false
		}
		switch p.peekN(i + 1).Kind {
		case token.Colon, token.ColonColon, token.Define:
			return true
		case token.Comma:
		default:
			return false
		}
	}
}

// parseHeaderStmt parses an if/for header clause without its terminator.
func (p *Parser) parseHeaderStmt() ast.Stmt {
	if p.at(token.Ident) && p.declAhead() {
		names := p.parseIdentList()
		start := names[0].Sp
		d := &ast.ValueDecl{Names: names}
		if _, ok := p.expect(token.Define, diag.SynBadDecl, "expected \":=\" in statement header"); ok {
			d.Values = p.parseExprList()
		}
		d.Sp = p.spanFrom(start)
		return &ast.DeclStmt{Decl: d}
	}
	lhs := p.parseExprList()
	tok := p.peek()
	if tok.Kind == token.Eq || tok.Kind.IsAssignOp() {
		p.advance()
		rhs := p.parseExprList()
		return &ast.AssignStmt{Lhs: lhs, Op: tok.Kind, Rhs: rhs, OpPos: tok.Span, Sp: lhs[0].Span().Cover(rhs[len(rhs)-1].Span())}
	}
	return &ast.ExprStmt{X: lhs[0]}
}

func (p *Parser) parseIf() ast.Stmt {
	kw := p.advance()
	old := p.exprLev
	p.exprLev = -1
	s := &ast.IfStmt{}
	first := p.parseHeaderStmt()
	if p.eat(token.Semicolon) {
		s.Init = first
		s.Cond = p.parseExpr()
	} else if es, ok := first.(*ast.ExprStmt); ok {
		s.Cond = es.X
	} else {
		p.report(diag.SynExpectExpression, first.Span(), "expected condition in if statement")
		s.Cond = &ast.BadExpr{Sp: first.Span()}
	}
	p.exprLev = old
	s.Body = p.parseBlock()
	if p.eat(token.KwElse) {
		switch {
		case p.at(token.KwIf):
			s.Else = p.parseIf()
		case p.at(token.OpenBrace):
			s.Else = p.parseBlock()
		default:
			p.err(diag.SynUnexpectedToken, "expected \"if\" or \"{\" after else")
		}
	}
	s.Sp = p.spanFrom(kw.Span)
	return s
}

func (p *Parser) parseFor() ast.Stmt {
	kw := p.advance()
	old := p.exprLev
	p.exprLev = -1
	s := &ast.ForStmt{}
	if !p.at(token.OpenBrace) {
		var first ast.Stmt
		if !p.at(token.Semicolon) {
			first = p.parseHeaderStmt()
		}
		if p.eat(token.Semicolon) {
			s.Init = first
			if !p.at(token.Semicolon) {
				s.Cond = p.parseExpr()
			}
			p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected \";\" in for clause")
			if !p.at(token.OpenBrace) {
				s.Post = p.parseHeaderStmt()
			}
		} else if es, ok := first.(*ast.ExprStmt); ok {
			s.Cond = es.X
		} else if first != nil {
			p.report(diag.SynExpectExpression, first.Span(), "expected for loop condition")
		}
	}
	p.exprLev = old
	s.Body = p.parseBlock()
	s.Sp = p.spanFrom(kw.Span)
	return s
}

// parseMatch parses "match v in x { case T, U: ... default: ... }".
func (p *Parser) parseMatch() ast.Stmt {
	kw := p.advance()
	s := &ast.MatchStmt{Var: p.parseIdent()}
	p.expect(token.KwIn, diag.SynUnexpectedToken, "expected \"in\" after the match variable")
	old := p.exprLev
	p.exprLev = -1
	s.Tag = p.parseExpr()
	p.exprLev = old
	if _, ok := p.expect(token.OpenBrace, diag.SynUnexpectedToken, "expected \"{\""); !ok {
		p.resyncUntil(token.CloseBrace)
		p.eat(token.CloseBrace)
		return nil
	}
	for p.atOr(token.KwCase, token.KwDefault) {
		s.Clauses = append(s.Clauses, p.parseCaseClause())
	}
	p.expect(token.CloseBrace, diag.SynUnclosedDelimiter, "expected \"}\" to close match")
	s.Sp = p.spanFrom(kw.Span)
	return s
}

func (p *Parser) parseCaseClause() *ast.CaseClause {
	kw := p.advance()
	c := &ast.CaseClause{}
	if kw.Kind == token.KwCase {
		c.Types = append(c.Types, p.parseType())
		for p.eat(token.Comma) {
			c.Types = append(c.Types, p.parseType())
		}
	}
	p.expect(token.Colon, diag.SynUnexpectedToken, "expected \":\" after case")
	for !p.atOr(token.KwCase, token.KwDefault, token.CloseBrace, token.EOF) {
		if p.opts.Enough() {
			break
		}
		before := p.pos
		if st := p.parseStmt(); st != nil {
			c.Body = append(c.Body, st)
		}
		if p.pos == before {
			p.advance()
		}
	}
	c.Sp = p.spanFrom(kw.Span)
	return c
}

// parseUsing parses "using a, b;" and the declaration form "using v: T;".
func (p *Parser) parseUsing() ast.Stmt {
	kw := p.advance()
	if p.at(token.Ident) && p.declAhead() {
		d := p.parseValueDeclRest(p.parseIdentList())
		if d == nil {
			p.resyncUntil(token.Semicolon, token.CloseBrace)
			return nil
		}
		if d.Const {
			p.report(diag.SynBadDecl, d.Sp, "\"using\" may not be applied to constant declarations")
			return &ast.DeclStmt{Decl: d}
		}
		return &ast.UsingStmt{Decl: d, Sp: kw.Span.Cover(d.Sp)}
	}
	list := p.parseExprList()
	s := &ast.UsingStmt{List: list, Sp: kw.Span.Cover(list[len(list)-1].Span())}
	p.expectSemi()
	return s
}
