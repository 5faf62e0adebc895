package ir

import (
	"math/big"
)

// Value is an instruction operand. The set is closed: constants, globals,
// procedure references, parameters, blocks used as labels and the results
// of instructions.
type Value interface {
	Type() *Type
	value()
}

// ConstKind enumerates constant forms.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstNull
	ConstZero
	ConstUndef
	ConstBytes
	ConstAggregate
	// ConstExpr is a constant GEP or cast of another constant.
	ConstExpr
)

// Const is a constant operand.
type Const struct {
	Kind  ConstKind
	Typ   *Type
	Int   *big.Int
	Float float64
	Bytes []byte
	Elems []Value

	// ConstExpr payload.
	Op      Op
	Conv    ConvOp
	Elem    *Type
	Operand Value
	Indices []int64
}

func (c *Const) Type() *Type { return c.Typ }
func (*Const) value()        {}

func ConstI(t *Type, v int64) *Const { return &Const{Kind: ConstInt, Typ: t, Int: big.NewInt(v)} }

func ConstBig(t *Type, v *big.Int) *Const {
	return &Const{Kind: ConstInt, Typ: t, Int: new(big.Int).Set(v)}
}

func ConstBool(b bool) *Const {
	if b {
		return ConstI(I1, 1)
	}
	return ConstI(I1, 0)
}

func ConstF(t *Type, v float64) *Const { return &Const{Kind: ConstFloat, Typ: t, Float: v} }

func Null(t *Type) *Const  { return &Const{Kind: ConstNull, Typ: t} }
func Zero(t *Type) *Const  { return &Const{Kind: ConstZero, Typ: t} }
func Undef(t *Type) *Const { return &Const{Kind: ConstUndef, Typ: t} }

// Bytes is a [N x i8] constant.
func Bytes(b []byte) *Const {
	return &Const{Kind: ConstBytes, Typ: Array(int64(len(b)), I8), Bytes: b}
}

// Aggregate builds a struct, array or vector constant.
func Aggregate(t *Type, elems ...Value) *Const {
	return &Const{Kind: ConstAggregate, Typ: t, Elems: elems}
}

// ConstGEP is getelementptr inbounds on a constant pointer.
func ConstGEP(elem *Type, ptr Value, result *Type, indices ...int64) *Const {
	return &Const{Kind: ConstExpr, Op: OpGEP, Typ: result, Elem: elem, Operand: ptr, Indices: indices}
}

// ConstCast is a constant conversion.
func ConstCast(op ConvOp, v Value, to *Type) *Const {
	return &Const{Kind: ConstExpr, Op: OpConv, Conv: op, Typ: to, Operand: v}
}

// Param is a procedure parameter.
type Param struct {
	Name    string
	Typ     *Type
	NoAlias bool
	index   int
}

func (p *Param) Type() *Type { return p.Typ }
func (*Param) value()        {}

// ProcRef refers to a procedure by name.
type ProcRef struct {
	Proc *Proc
}

func (r *ProcRef) Type() *Type { return Ptr(r.Proc.Sig) }
func (*ProcRef) value()        {}
