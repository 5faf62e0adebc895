package parser

import (
	"slices"

	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/lexer"
	"odinc/internal/source"
	"odinc/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error limit has been reached.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Parser holds the state for one file. Tokens are lexed up front so that
// declarations and composite literal elements can look two tokens ahead.
type Parser struct {
	file     *source.File
	toks     []token.Token
	pos      int
	opts     Options
	lastSpan source.Span
	// exprLev < 0 inside if/for headers where "T {" opens a block, not a literal.
	exprLev int
}

// ParseFile parses one file of fs.
func ParseFile(fs *source.FileSet, id source.FileID, opts Options) *ast.File {
	f := fs.Get(id)
	lx := lexer.New(f, lexer.Options{Reporter: opts.Reporter})
	p := &Parser{
		file: f,
		toks: lx.All(),
		opts: opts,
	}
	return p.parseFile()
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekN(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
		p.lastSpan = tok.Span
	}
	return tok
}

// eat consumes the current token when it has kind k.
func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	sp := p.diagSpan()
	p.report(code, sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp}, false
}

// diagSpan points at the current token, or just past the last one at EOF.
func (p *Parser) diagSpan() source.Span {
	tok := p.peek()
	if tok.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return tok.Span
}

func (p *Parser) err(code diag.Code, msg string) {
	p.report(code, p.diagSpan(), msg)
}

func (p *Parser) report(code diag.Code, sp source.Span, msg string) {
	if p.opts.Reporter == nil {
		return
	}
	p.opts.CurrentErrors++
	if !p.opts.Enough() {
		p.opts.Reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

// resyncUntil skips tokens until one of kinds (or EOF) is current.
func (p *Parser) resyncUntil(kinds ...token.Kind) {
	for !p.at(token.EOF) && !p.atOr(kinds...) {
		p.advance()
	}
}

func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.lastSpan)
}

func (p *Parser) unexpected(what string) {
	tok := p.peek()
	text := tok.Text
	if tok.Kind == token.EOF {
		text = "end of file"
	}
	p.err(diag.SynUnexpectedToken, "expected "+what+", got \""+text+"\"")
}

// expectSemi requires ";" unless the construct just closed a brace block.
func (p *Parser) expectSemi() {
	if p.eat(token.Semicolon) {
		return
	}
	if p.pos > 0 && p.toks[p.pos-1].Kind == token.CloseBrace {
		return
	}
	if p.atOr(token.CloseBrace, token.EOF) {
		p.err(diag.SynExpectSemicolon, "expected \";\"")
		return
	}
	p.err(diag.SynExpectSemicolon, "expected \";\", got \""+p.peek().Text+"\"")
	p.resyncUntil(token.Semicolon, token.CloseBrace)
	p.eat(token.Semicolon)
}

func (p *Parser) parseIdent() *ast.Ident {
	if p.at(token.Ident) {
		tok := p.advance()
		return &ast.Ident{Name: tok.Text, Sp: tok.Span}
	}
	sp := p.diagSpan()
	p.report(diag.SynExpectIdentifier, sp, "expected identifier, got \""+p.peek().Text+"\"")
	return &ast.Ident{Name: "_", Sp: sp}
}

func (p *Parser) parseIdentList() []*ast.Ident {
	list := []*ast.Ident{p.parseIdent()}
	for p.eat(token.Comma) {
		list = append(list, p.parseIdent())
	}
	return list
}
