package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

// Mode is the addressing mode of a checked expression.
type Mode uint8

const (
	ModeInvalid Mode = iota
	ModeNoValue
	ModeConstant
	ModeVariable // addressable
	ModeValue
	ModeType
	ModeBuiltin
	// assignable but without an address
	ModeMapIndex
	ModeBitField
	ModeSoAVariable
)

func (m Mode) String() string {
	switch m {
	case ModeNoValue:
		return "no value"
	case ModeConstant:
		return "constant"
	case ModeVariable:
		return "variable"
	case ModeValue:
		return "value"
	case ModeType:
		return "type"
	case ModeBuiltin:
		return "builtin"
	case ModeMapIndex:
		return "map index"
	case ModeBitField:
		return "bit field"
	case ModeSoAVariable:
		return "soa variable"
	}
	return "invalid"
}

// Assignable reports whether an expression of mode m may be assigned to.
func (m Mode) Assignable() bool {
	switch m {
	case ModeVariable, ModeMapIndex, ModeBitField, ModeSoAVariable:
		return true
	}
	return false
}

// ExprKind tells statement checking whether an expression may stand alone.
type ExprKind uint8

const (
	ExprExpr ExprKind = iota
	ExprStmt
)

type operand struct {
	mode    Mode
	typ     types.TypeID
	val     constant.Value
	expr    ast.Expr
	builtin symbols.BuiltinID
}

func (x *operand) invalid() bool { return x.mode == ModeInvalid }

func (x *operand) setInvalid() {
	x.mode = ModeInvalid
	x.typ = types.NoTypeID
	x.val = constant.Value{}
}

func (x *operand) isConstant() bool { return x.mode == ModeConstant }

func (x *operand) String() string {
	if x.expr == nil {
		return "<nil>"
	}
	return ast.ExprString(x.expr)
}
