package llvm

import (
	"math/big"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

func isPtr(t lltypes.Type) bool {
	_, ok := t.(*lltypes.PointerType)
	return ok
}

func isInt(t lltypes.Type) bool {
	_, ok := t.(*lltypes.IntType)
	return ok
}

func isFloat(t lltypes.Type) bool {
	_, ok := t.(*lltypes.FloatType)
	return ok
}

// elemOf returns the pointee of a pointer type.
func elemOf(t lltypes.Type) lltypes.Type {
	return t.(*lltypes.PointerType).ElemType
}

// scalarOf returns the lane type of a vector, or t.
func scalarOf(t lltypes.Type) lltypes.Type {
	if v, ok := t.(*lltypes.VectorType); ok {
		return v.ElemType
	}
	return t
}

// bitsOf is the width of an integer or float scalar.
func bitsOf(t lltypes.Type) uint64 {
	switch t := scalarOf(t).(type) {
	case *lltypes.IntType:
		return t.BitSize
	case *lltypes.FloatType:
		if t.Kind == lltypes.FloatKindFloat {
			return 32
		}
		return 64
	}
	return 0
}

func constI(t lltypes.Type, v int64) constant.Constant {
	return constant.NewInt(t.(*lltypes.IntType), v)
}

func constBig(t *lltypes.IntType, v *big.Int) constant.Constant {
	return &constant.Int{Typ: t, X: new(big.Int).Set(v)}
}

// constLike returns the integer constant v of type t, splatted for
// vectors.
func constLike(t lltypes.Type, v int64) constant.Constant {
	vt, ok := t.(*lltypes.VectorType)
	if !ok {
		return constI(t, v)
	}
	elems := make([]constant.Constant, vt.Len)
	for i := range elems {
		elems[i] = constI(vt.ElemType, v)
	}
	return constant.NewVector(vt, elems...)
}

func constFloatLike(t lltypes.Type, v float64) constant.Constant {
	vt, ok := t.(*lltypes.VectorType)
	if !ok {
		return constant.NewFloat(t.(*lltypes.FloatType), v)
	}
	elems := make([]constant.Constant, vt.Len)
	for i := range elems {
		elems[i] = constant.NewFloat(vt.ElemType.(*lltypes.FloatType), v)
	}
	return constant.NewVector(vt, elems...)
}

// zeroOf is the zero value of t.
func zeroOf(t lltypes.Type) constant.Constant {
	switch t := t.(type) {
	case *lltypes.PointerType:
		return constant.NewNull(t)
	case *lltypes.IntType:
		return constant.NewInt(t, 0)
	case *lltypes.FloatType:
		return constant.NewFloat(t, 0)
	}
	return constant.NewZeroInitializer(t)
}

func isZeroConst(v value.Value) bool {
	_, ok := v.(*constant.ZeroInitializer)
	return ok
}

// idx32 is a struct member index.
func idx32(i int64) constant.Constant { return constant.NewInt(lltypes.I32, i) }

// castPtr bitcasts a pointer when its type differs from to.
func castPtr(blk *ir.Block, v value.Value, to lltypes.Type) value.Value {
	if lltypes.Equal(v.Type(), to) {
		return v
	}
	if c, ok := v.(constant.Constant); ok {
		if _, null := c.(*constant.Null); null {
			return constant.NewNull(to.(*lltypes.PointerType))
		}
		return constant.NewBitCast(c, to)
	}
	return blk.NewBitCast(v, to)
}

// intCast truncates or extends an integer to the width of to.
func intCast(blk *ir.Block, v value.Value, to lltypes.Type, signed bool) value.Value {
	fb, tb := bitsOf(v.Type()), bitsOf(to)
	switch {
	case fb == tb:
		return v
	case fb > tb:
		return blk.NewTrunc(v, to)
	case signed:
		return blk.NewSExt(v, to)
	}
	return blk.NewZExt(v, to)
}
