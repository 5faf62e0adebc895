package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/types"
)

// conversion checks "x as t".
func (tc *typeChecker) conversion(x *operand, t types.TypeID) {
	constConv := x.mode == ModeConstant && x.val.IsValid() && tc.types.IsConstantType(t)
	ok := false
	if constConv {
		if v, fit := tc.representable(x.val, t); fit == constant.Fits {
			ok = true
			x.val = v
		}
	} else {
		ok = tc.isCastableTo(x, t)
	}

	if !ok {
		tc.errorf(x, diag.SemaInvalidCast, "Cannot cast `%s` as `%s` from `%s`", x.String(), tc.typeString(t), tc.typeString(x.typ))
		x.setInvalid()
		return
	}

	if tc.types.IsUntyped(x.typ) {
		final := t
		if !tc.types.IsConstantType(t) {
			final = tc.types.Default(x.typ)
			if tc.types.IsNil(x.typ) {
				final = t
			}
		}
		tc.updateExprType(x.expr, final, true)
	}
	if !constConv {
		x.mode = ModeValue
		x.val = constant.Value{}
	}
	x.typ = t
}

func (tc *typeChecker) isCastableTo(x *operand, t types.TypeID) bool {
	if tc.isAssignableTo(x, t, false) {
		return true
	}
	s := x.typ
	sb, tb := tc.types.Base(s), tc.types.Base(t)
	su, tu := tc.types.Underlying(s), tc.types.Underlying(t)
	if tc.types.Identical(sb, tb) || tc.types.Identical(su, tu) {
		return true
	}

	intOrBool := func(id types.TypeID) bool { return tc.types.IsInteger(id) || tc.types.IsBoolean(id) }
	intOrFloat := func(id types.TypeID) bool { return tc.types.IsInteger(id) || tc.types.IsFloat(id) }
	switch {
	case intOrBool(su) && intOrBool(tu):
		return true
	case intOrFloat(su) && intOrFloat(tu):
		return true
	case tc.types.IsComplex(su) && tc.types.IsComplex(tu):
		return true
	case tc.types.IsPointer(su) && tc.types.IsPointer(tu):
		return true
	case tc.types.IsInteger(su) && tc.types.IsRawptr(tu):
		return true
	case tc.types.IsRawptr(su) && tc.types.IsInteger(tu):
		return true
	case tc.types.IsU8Slice(su) && tc.types.IsString(tu):
		return true
	case tc.types.IsString(su) && tc.types.IsTyped(su) && tc.types.IsU8Slice(tu):
		return true
	case tc.types.IsProc(su) && tc.types.IsProc(tu):
		return true
	case tc.types.IsProc(su) && tc.types.IsRawptr(tu):
		return true
	case tc.types.IsRawptr(su) && tc.types.IsProc(tu):
		return true
	}
	return false
}

// transmute reinterprets the bits of x as t; both sizes must agree.
func (tc *typeChecker) transmute(x *operand, t types.TypeID) {
	if x.mode == ModeConstant {
		tc.errorf(x, diag.SemaInvalidTransmute, "Cannot transmute constant expression: `%s`", x.String())
		x.setInvalid()
		return
	}
	if tc.types.IsUntyped(x.typ) {
		tc.errorf(x, diag.SemaInvalidTransmute, "Cannot transmute untyped expression: `%s`", x.String())
		x.setInvalid()
		return
	}
	srcSize, err1 := tc.layout.SizeOf(x.typ)
	dstSize, err2 := tc.layout.SizeOf(t)
	if err1 != nil || err2 != nil {
		x.setInvalid()
		return
	}
	if srcSize != dstSize {
		tc.errorf(x, diag.SemaInvalidTransmute, "Cannot transmute `%s` to `%s`, %d vs %d bytes",
			tc.typeString(x.typ), tc.typeString(t), srcSize, dstSize)
		x.setInvalid()
		return
	}
	x.mode = ModeValue
	x.typ = t
}

// downCast converts a pointer to an embedded struct back to a pointer to
// the struct that embeds it through "using".
func (tc *typeChecker) downCast(x *operand, t types.TypeID, e *ast.BinaryExpr) {
	if x.mode == ModeConstant {
		tc.errorf(x, diag.SemaInvalidDownCast, "Cannot `down_cast` a constant expression")
		x.setInvalid()
		return
	}
	if tc.types.IsUntyped(x.typ) {
		tc.errorf(x, diag.SemaInvalidDownCast, "Cannot `down_cast` an untyped expression")
		x.setInvalid()
		return
	}
	if !tc.types.IsTypedPointer(x.typ) || !tc.types.IsTypedPointer(t) {
		tc.errorf(x, diag.SemaInvalidDownCast, "Can only `down_cast` pointers: `%s`", x.String())
		x.setInvalid()
		return
	}
	src := tc.types.Elem(x.typ)
	dst := tc.types.Elem(t)
	isRecord := func(id types.TypeID) bool { return tc.types.IsStruct(id) || tc.types.IsRawUnion(id) }
	if !isRecord(src) {
		tc.errorf(x, diag.SemaInvalidDownCast, "Can only `down_cast` pointer from structs or unions: `%s`", x.String())
		x.setInvalid()
		return
	}
	if !isRecord(dst) {
		tc.errorf(x, diag.SemaInvalidDownCast, "Can only `down_cast` pointer to structs or unions: `%s`", tc.typeString(t))
		x.setInvalid()
		return
	}
	name, path, ok := tc.downCastName(dst, src)
	if !ok {
		tc.errorf(x, diag.SemaInvalidDownCast, "Illegal `down_cast`: `%s`", x.String())
		x.setInvalid()
		return
	}
	tc.info.DownCasts[e] = DownCast{Field: name, Path: path}
	x.mode = ModeValue
	x.typ = t
}

// downCastName finds the anonymous field of dst whose type (or pointee) is
// src, searching non-pointer anonymous fields recursively.
func (tc *typeChecker) downCastName(dst, src types.TypeID) (string, []int, bool) {
	rec, ok := tc.types.Record(tc.types.Base(dst))
	if !ok {
		return "", nil, false
	}
	for i, f := range rec.Fields {
		if !f.Anonymous {
			continue
		}
		if tc.types.Identical(f.Type, src) || tc.types.Identical(tc.types.Deref(f.Type), src) {
			return f.Name, []int{i}, true
		}
	}
	for i, f := range rec.Fields {
		if !f.Anonymous || tc.types.IsTypedPointer(f.Type) {
			continue
		}
		if name, sub, ok := tc.downCastName(f.Type, src); ok {
			return name, append([]int{i}, sub...), true
		}
	}
	return "", nil, false
}
