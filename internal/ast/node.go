// Package ast holds the syntax tree produced by the parser.
//
// The node set is closed: Expr, Stmt and Spec implementations all live in
// this package and carry an unexported marker method, so every switch over
// node kinds in the checker and the backends can be exhaustive. Node
// identity (the pointer) keys every side table the checker produces.
package ast

import "odinc/internal/source"

type Node interface {
	Span() source.Span
}

type Expr interface {
	Node
	exprNode()
}

type Stmt interface {
	Node
	stmtNode()
}

// File is one parsed source file.
type File struct {
	ID    source.FileID
	Name  string
	Decls []*ValueDecl
	Sp    source.Span
}

func (f *File) Span() source.Span { return f.Sp }

// Attribute is one key=value pair of an @(...) list.
type Attribute struct {
	Key   *Ident
	Value *Ident
}

// ValueDecl covers "a :: x", "a : T = x" and "a := x".
type ValueDecl struct {
	Attrs  []Attribute
	Names  []*Ident
	Type   Expr
	Values []Expr
	Const  bool
	Sp     source.Span
}

func (d *ValueDecl) Span() source.Span { return d.Sp }

// Field is one entry of a parameter list or record body.
type Field struct {
	Using   bool
	NoAlias bool
	Names   []*Ident
	Type    Expr
	// Value is set for "name :: value" record members.
	Value Expr
	Sp    source.Span
}

func (f *Field) Span() source.Span { return f.Sp }

// IsConst reports whether the field is a non-storage "::" member.
func (f *Field) IsConst() bool { return f.Value != nil }

type EnumField struct {
	Name  *Ident
	Value Expr
}

func (f *EnumField) Span() source.Span {
	if f.Value != nil {
		return f.Name.Sp.Cover(f.Value.Span())
	}
	return f.Name.Sp
}
