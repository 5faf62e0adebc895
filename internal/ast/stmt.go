package ast

import (
	"odinc/internal/source"
	"odinc/internal/token"
)

type (
	BadStmt struct {
		Sp source.Span
	}

	DeclStmt struct {
		Decl *ValueDecl
	}

	ExprStmt struct {
		X Expr
	}

	// AssignStmt is "a, b = x, y" or "a op= x".
	AssignStmt struct {
		Lhs   []Expr
		Op    token.Kind
		Rhs   []Expr
		OpPos source.Span
		Sp    source.Span
	}

	BlockStmt struct {
		List []Stmt
		Sp   source.Span
	}

	IfStmt struct {
		Init Stmt
		Cond Expr
		Body *BlockStmt
		Else Stmt
		Sp   source.Span
	}

	ForStmt struct {
		Init Stmt
		Cond Expr
		Post Stmt
		Body *BlockStmt
		Sp   source.Span
	}

	ReturnStmt struct {
		Results []Expr
		Sp      source.Span
	}

	// BranchStmt is break or continue.
	BranchStmt struct {
		Tok token.Kind
		Sp  source.Span
	}

	DeferStmt struct {
		Stmt Stmt
		Sp   source.Span
	}

	// MatchStmt is a type match "match v in x { case T: ... default: ... }"
	// over a union, a pointer to a union or an any.
	MatchStmt struct {
		Var     *Ident
		Tag     Expr
		Clauses []*CaseClause
		Sp      source.Span
	}

	// CaseClause is one arm of a match; no types means default.
	CaseClause struct {
		Types []Expr
		Body  []Stmt
		Sp    source.Span
	}

	// UsingStmt is "using a, b;" or "using v: T;".
	UsingStmt struct {
		List []Expr
		Decl *ValueDecl
		Sp   source.Span
	}
)

func (s *BadStmt) Span() source.Span    { return s.Sp }
func (s *DeclStmt) Span() source.Span   { return s.Decl.Sp }
func (s *ExprStmt) Span() source.Span   { return s.X.Span() }
func (s *AssignStmt) Span() source.Span { return s.Sp }
func (s *BlockStmt) Span() source.Span  { return s.Sp }
func (s *IfStmt) Span() source.Span     { return s.Sp }
func (s *ForStmt) Span() source.Span    { return s.Sp }
func (s *ReturnStmt) Span() source.Span { return s.Sp }
func (s *BranchStmt) Span() source.Span { return s.Sp }
func (s *DeferStmt) Span() source.Span  { return s.Sp }
func (s *MatchStmt) Span() source.Span  { return s.Sp }
func (c *CaseClause) Span() source.Span { return c.Sp }
func (s *UsingStmt) Span() source.Span  { return s.Sp }

func (*BadStmt) stmtNode()    {}
func (*DeclStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()   {}
func (*AssignStmt) stmtNode() {}
func (*BlockStmt) stmtNode()  {}
func (*IfStmt) stmtNode()     {}
func (*ForStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode() {}
func (*BranchStmt) stmtNode() {}
func (*DeferStmt) stmtNode()  {}
func (*MatchStmt) stmtNode()  {}
func (*UsingStmt) stmtNode()  {}
