package ast

import (
	"odinc/internal/source"
	"odinc/internal/token"
)

type (
	BadExpr struct {
		Sp source.Span
	}

	Ident struct {
		Name string
		Sp   source.Span
	}

	// BasicLit is an unparsed literal; Value keeps the source text.
	BasicLit struct {
		Kind  token.Kind
		Value string
		Sp    source.Span
	}

	// CompositeLit is "T{...}" or an untyped nested "{...}" element.
	CompositeLit struct {
		Type   Expr
		Elts   []Expr
		Lbrace source.Span
		Sp     source.Span
	}

	// FieldValue is a "name = value" element of a composite literal.
	FieldValue struct {
		Field *Ident
		Value Expr
		Sp    source.Span
	}

	// ProcLit is a procedure type with a body or a foreign binding.
	ProcLit struct {
		Type        *ProcType
		Body        *BlockStmt
		Foreign     bool
		ForeignName string
		Sp          source.Span
	}

	ParenExpr struct {
		X  Expr
		Sp source.Span
	}

	SelectorExpr struct {
		X   Expr
		Sel *Ident
		Sp  source.Span
	}

	IndexExpr struct {
		X     Expr
		Index Expr
		Sp    source.Span
	}

	// SliceExpr is x[lo:hi] or x[lo:hi:max]; any bound may be nil.
	SliceExpr struct {
		X      Expr
		Low    Expr
		High   Expr
		Max    Expr
		Triple bool
		Sp     source.Span
	}

	// DerefExpr is the postfix "p^".
	DerefExpr struct {
		X  Expr
		Sp source.Span
	}

	CallExpr struct {
		Fun  Expr
		Args []Expr
		// Spread is set when the last argument is followed by "..".
		Spread bool
		Sp     source.Span
	}

	// UnaryExpr covers + - ~ ! and the prefix "^" (address-of or pointer type).
	UnaryExpr struct {
		Op token.Kind
		X  Expr
		Sp source.Span
	}

	// BinaryExpr also represents "x as T", "x transmute T" and "x down_cast T".
	BinaryExpr struct {
		Op    token.Kind
		X     Expr
		Y     Expr
		OpPos source.Span
		Sp    source.Span
	}
)

// Type expressions.
type (
	PointerType struct {
		Elem Expr
		Sp   source.Span
	}

	// ArrayType is [N]T, or [..]T when Open is set. SoA marks "#soa [N]T".
	ArrayType struct {
		Len  Expr
		Open bool
		SoA  bool
		Elem Expr
		Sp   source.Span
	}

	MapType struct {
		Key   Expr
		Value Expr
		Sp    source.Span
	}

	SliceType struct {
		Elem Expr
		Sp   source.Span
	}

	VectorType struct {
		Len  Expr
		Elem Expr
		Sp   source.Span
	}

	// EllipsisType is the "..T" of a variadic parameter.
	EllipsisType struct {
		Elem Expr
		Sp   source.Span
	}

	// StructType is struct or raw_union.
	StructType struct {
		Raw     bool
		Packed  bool
		Reorder bool
		Fields  []*Field
		Sp      source.Span
	}

	UnionType struct {
		Fields []*Field
		Sp     source.Span
	}

	EnumType struct {
		Base   Expr
		Fields []*EnumField
		Sp     source.Span
	}

	// BitFieldType is "bit_field Backing { name: T | bits, ... }".
	BitFieldType struct {
		Backing Expr
		Fields  []*BitFieldField
		Sp      source.Span
	}

	BitFieldField struct {
		Name *Ident
		Type Expr
		Bits Expr
		Sp   source.Span
	}

	ProcType struct {
		CallConv string
		Params   []*Field
		Results  []*Field
		Sp       source.Span
	}
)

func (x *BadExpr) Span() source.Span      { return x.Sp }
func (x *Ident) Span() source.Span        { return x.Sp }
func (x *BasicLit) Span() source.Span     { return x.Sp }
func (x *CompositeLit) Span() source.Span { return x.Sp }
func (x *FieldValue) Span() source.Span   { return x.Sp }
func (x *ProcLit) Span() source.Span      { return x.Sp }
func (x *ParenExpr) Span() source.Span    { return x.Sp }
func (x *SelectorExpr) Span() source.Span { return x.Sp }
func (x *IndexExpr) Span() source.Span    { return x.Sp }
func (x *SliceExpr) Span() source.Span    { return x.Sp }
func (x *DerefExpr) Span() source.Span    { return x.Sp }
func (x *CallExpr) Span() source.Span     { return x.Sp }
func (x *UnaryExpr) Span() source.Span    { return x.Sp }
func (x *BinaryExpr) Span() source.Span   { return x.Sp }
func (x *PointerType) Span() source.Span  { return x.Sp }
func (x *ArrayType) Span() source.Span    { return x.Sp }
func (x *SliceType) Span() source.Span    { return x.Sp }
func (x *VectorType) Span() source.Span   { return x.Sp }
func (x *EllipsisType) Span() source.Span { return x.Sp }
func (x *StructType) Span() source.Span   { return x.Sp }
func (x *UnionType) Span() source.Span    { return x.Sp }
func (x *EnumType) Span() source.Span     { return x.Sp }
func (x *ProcType) Span() source.Span     { return x.Sp }
func (x *MapType) Span() source.Span      { return x.Sp }
func (x *BitFieldType) Span() source.Span { return x.Sp }

func (*BadExpr) exprNode()      {}
func (*Ident) exprNode()        {}
func (*BasicLit) exprNode()     {}
func (*CompositeLit) exprNode() {}
func (*FieldValue) exprNode()   {}
func (*ProcLit) exprNode()      {}
func (*ParenExpr) exprNode()    {}
func (*SelectorExpr) exprNode() {}
func (*IndexExpr) exprNode()    {}
func (*SliceExpr) exprNode()    {}
func (*DerefExpr) exprNode()    {}
func (*CallExpr) exprNode()     {}
func (*UnaryExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*PointerType) exprNode()  {}
func (*ArrayType) exprNode()    {}
func (*SliceType) exprNode()    {}
func (*VectorType) exprNode()   {}
func (*EllipsisType) exprNode() {}
func (*StructType) exprNode()   {}
func (*UnionType) exprNode()    {}
func (*EnumType) exprNode()     {}
func (*ProcType) exprNode()     {}
func (*MapType) exprNode()      {}
func (*BitFieldType) exprNode() {}

// Unparen strips any number of enclosing parentheses.
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}
