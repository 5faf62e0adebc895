package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/types"
)

func (tc *typeChecker) index(x *operand, e *ast.IndexExpr) {
	tc.expr(x, e.X)
	if x.invalid() {
		return
	}
	t := x.typ
	if tc.types.IsTypedPointer(t) && (tc.types.IsArray(tc.types.Elem(t)) || tc.types.IsSoA(tc.types.Elem(t))) {
		t = tc.types.Elem(t)
		x.mode = ModeVariable
	}

	maxCount := int64(-1)
	var elem types.TypeID
	switch tc.types.KindOf(t) {
	case types.KindMap:
		tc.mapIndex(x, t, e)
		return
	case types.KindSoA:
		elem = tc.types.Elem(t)
		maxCount = tc.types.Count(t)
		if x.mode == ModeVariable {
			x.mode = ModeSoAVariable
		} else {
			x.mode = ModeValue
		}
	case types.KindArray, types.KindVector:
		elem = tc.types.Elem(t)
		if bt, ok := tc.types.Lookup(tc.types.Base(t)); ok {
			maxCount = bt.Count
		}
		if x.mode != ModeVariable {
			x.mode = ModeValue
		}
	case types.KindSlice:
		elem = tc.types.Elem(t)
		x.mode = ModeVariable
	case types.KindBasic:
		if !tc.types.IsString(t) {
			tc.errorf(x, diag.SemaNotIndexable, "Cannot index `%s`", x.String())
			x.setInvalid()
			return
		}
		elem = tc.types.Builtin(types.U8)
		if x.mode == ModeConstant && x.val.IsValid() {
			maxCount = int64(len(x.val.StringVal()))
		}
		x.mode = ModeValue
	default:
		tc.errorf(x, diag.SemaNotIndexable, "Cannot index `%s`", x.String())
		x.setInvalid()
		return
	}

	if _, ok := tc.checkIndexValue(e.Index, maxCount); !ok {
		x.setInvalid()
		return
	}
	x.typ = elem
	x.val = constant.Value{}
	x.expr = e
}

// mapIndex checks m[k]. The result can be read or assigned but has no
// address.
func (tc *typeChecker) mapIndex(x *operand, m types.TypeID, e *ast.IndexExpr) {
	var k operand
	tc.expr(&k, e.Index)
	if k.invalid() {
		x.setInvalid()
		return
	}
	tc.assignment(&k, tc.types.Key(m), "map index")
	if k.invalid() {
		x.setInvalid()
		return
	}
	x.mode = ModeMapIndex
	x.typ = tc.types.Elem(m)
	x.val = constant.Value{}
	x.expr = e
}

// checkIndexValue checks an index expression against [0, maxCount). A
// negative maxCount skips the upper bound check. The second result is false
// when the index is invalid.
func (tc *typeChecker) checkIndexValue(e ast.Expr, maxCount int64) (int64, bool) {
	var x operand
	tc.expr(&x, e)
	if x.invalid() {
		return 0, false
	}
	tc.convertToTyped(&x, tc.types.Builtin(types.Int))
	if x.invalid() {
		return 0, false
	}
	if !tc.types.IsInteger(x.typ) {
		tc.errorf(&x, diag.SemaInvalidIndex, "Index `%s` must be an integer", x.String())
		return 0, false
	}
	if x.mode != ModeConstant || !x.val.IsValid() {
		return -1, true
	}
	v, ok := constant.ToInteger(x.val).Int64()
	if !ok || v < 0 {
		tc.errorf(&x, diag.SemaInvalidIndex, "Index `%s` cannot be a negative value", x.String())
		return 0, false
	}
	if maxCount >= 0 && v >= maxCount {
		tc.errorf(&x, diag.SemaIndexOutOfBounds, "Index `%s` is out of bounds range [0, %d)", x.String(), maxCount)
		return 0, false
	}
	return v, true
}

func (tc *typeChecker) sliceExpr(x *operand, e *ast.SliceExpr) {
	tc.expr(x, e.X)
	if x.invalid() {
		return
	}
	t := x.typ
	maxCount := int64(-1)
	result := t
	switch {
	case tc.types.IsString(t):
		if e.Triple {
			tc.report(diag.SemaInvalidSliceIndices, e.Sp, "3-index slice on a string is not allowed")
			x.setInvalid()
			return
		}
		if x.mode == ModeConstant && x.val.IsValid() {
			maxCount = int64(len(x.val.StringVal())) + 1
		}
		if tc.types.IsUntyped(t) {
			tc.convertToTyped(x, tc.types.Builtin(types.String))
			result = tc.types.Builtin(types.String)
		}
	case tc.types.IsArray(t):
		if x.mode != ModeVariable {
			tc.errorf(x, diag.SemaInvalidSliceIndices, "Cannot slice array `%s`, value is not addressable", x.String())
			x.setInvalid()
			return
		}
		if bt, ok := tc.types.Lookup(tc.types.Base(t)); ok {
			maxCount = bt.Count + 1
		}
		result = tc.types.Slice(tc.types.Elem(t))
	case tc.types.IsTypedPointer(t) && tc.types.IsArray(tc.types.Elem(t)):
		arr := tc.types.Elem(t)
		if bt, ok := tc.types.Lookup(tc.types.Base(arr)); ok {
			maxCount = bt.Count + 1
		}
		result = tc.types.Slice(tc.types.Elem(arr))
	case tc.types.IsSlice(t):
	default:
		tc.errorf(x, diag.SemaNotIndexable, "Cannot slice `%s`", x.String())
		x.setInvalid()
		return
	}

	var values []int64
	for _, ie := range []ast.Expr{e.Low, e.High, e.Max} {
		if ie == nil {
			continue
		}
		v, ok := tc.checkIndexValue(ie, maxCount)
		if !ok {
			x.setInvalid()
			return
		}
		if v >= 0 {
			values = append(values, v)
		}
	}
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			tc.report(diag.SemaInvalidSliceIndices, e.Sp, "Invalid slice indices: [%d > %d]", values[i-1], values[i])
			x.setInvalid()
			return
		}
	}

	x.mode = ModeValue
	x.typ = result
	x.val = constant.Value{}
	x.expr = e
}
