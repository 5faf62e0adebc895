package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/types"
)

// basicBits returns the width in bits of a basic kind on the current
// target, or 0 for untyped kinds.
func (tc *typeChecker) basicBits(k types.BasicKind) int {
	switch k {
	case types.Int, types.Uint:
		return int(8 * tc.info.Target.IntSize)
	case types.Uintptr, types.Rawptr:
		return int(8 * tc.info.Target.PtrSize)
	}
	info := types.Basic(k)
	if info.Flags&types.IsUntypedFlag != 0 || info.Size <= 0 {
		return 0
	}
	return int(8 * info.Size)
}

// representable checks v against the basic type under t and returns the
// value converted to that type's representation.
func (tc *typeChecker) representable(v constant.Value, t types.TypeID) (constant.Value, constant.Fit) {
	k := tc.types.BasicOf(t)
	if k == types.Invalid {
		return constant.Value{}, constant.Mismatch
	}
	flags := types.Basic(k).Flags
	bits := tc.basicBits(k)
	switch {
	case flags&types.IsBooleanFlag != 0:
		return constant.Representable(v, constant.ClassBool, 0, false)
	case flags&types.IsStringFlag != 0:
		return constant.Representable(v, constant.ClassString, 0, false)
	case flags&types.IsIntegerFlag != 0:
		return constant.Representable(v, constant.ClassInteger, bits, flags&types.IsUnsignedFlag != 0)
	case flags&types.IsFloatFlag != 0:
		return constant.Representable(v, constant.ClassFloat, bits, false)
	case flags&types.IsComplexFlag != 0:
		return constant.Representable(v, constant.ClassComplex, bits, false)
	case flags&types.IsPointerFlag != 0:
		return constant.Representable(v, constant.ClassPointer, bits, false)
	}
	return constant.Value{}, constant.Mismatch
}

// isExpressible checks that the constant x fits t and rounds it.
func (tc *typeChecker) isExpressible(x *operand, t types.TypeID) {
	v, fit := tc.representable(x.val, t)
	switch fit {
	case constant.Fits:
		x.val = v
		return
	case constant.Truncated:
		tc.errorf(x, diag.SemaTruncated, "`%s` truncated to `%s`", x.String(), tc.typeString(t))
	case constant.Overflows:
		tc.errorf(x, diag.SemaOverflow, "`%s = %s` overflows `%s`", x.String(), x.val.String(), tc.typeString(t))
	default:
		tc.errorf(x, diag.SemaCannotConvert, "Cannot convert `%s` to `%s`", x.String(), tc.typeString(t))
	}
	x.setInvalid()
}

func (tc *typeChecker) untypedRank(t types.TypeID) int {
	switch tc.types.BasicOf(t) {
	case types.UntypedInteger:
		return 1
	case types.UntypedRune:
		return 2
	case types.UntypedFloat:
		return 3
	case types.UntypedComplex:
		return 4
	}
	return 0
}

func (tc *typeChecker) convertUntypedError(x *operand, target types.TypeID) {
	msg := "Cannot convert `%s` to `%s`"
	if x.mode == ModeConstant && x.val.IsValid() && x.val.Kind() == constant.Integer && x.val.Sign() == 0 && x.String() != "nil" {
		msg += " - Did you want `nil`?"
	}
	tc.errorf(x, diag.SemaCannotConvert, msg, x.String(), tc.typeString(target))
	x.setInvalid()
}

// convertToTyped gives an untyped operand the type target, reporting when
// the value cannot be represented.
func (tc *typeChecker) convertToTyped(x *operand, target types.TypeID) {
	if x.invalid() || x.mode == ModeType || target == types.NoTypeID || !tc.types.IsUntyped(x.typ) {
		return
	}

	if tc.types.IsUntyped(target) {
		if tc.types.IsNumeric(x.typ) && tc.types.IsNumeric(target) {
			if tc.untypedRank(x.typ) < tc.untypedRank(target) {
				x.typ = target
				tc.updateExprType(x.expr, target, false)
			}
		} else if tc.types.BasicOf(x.typ) != tc.types.BasicOf(target) {
			tc.convertUntypedError(x, target)
		}
		return
	}

	t := tc.types.Underlying(target)
	switch tc.types.KindOf(t) {
	case types.KindBasic:
		if x.mode == ModeConstant && x.val.IsValid() {
			tc.isExpressible(x, t)
			if x.invalid() {
				return
			}
			for e := x.expr; e != nil; {
				if u := tc.info.Untyped[e]; u != nil {
					u.Value = x.val
				}
				p, ok := e.(*ast.ParenExpr)
				if !ok {
					break
				}
				e = p.X
			}
			break
		}
		switch tc.types.BasicOf(x.typ) {
		case types.UntypedBool:
			if !tc.types.IsBoolean(target) {
				tc.convertUntypedError(x, target)
				return
			}
		case types.UntypedInteger, types.UntypedFloat, types.UntypedComplex, types.UntypedRune:
			if !tc.types.IsNumeric(target) {
				tc.convertUntypedError(x, target)
				return
			}
		case types.UntypedNil:
			if !tc.types.HasNil(target) {
				tc.convertUntypedError(x, target)
				return
			}
		}
	case types.KindVector:
		// an untyped scalar broadcasts to every lane
		if tc.types.IsNil(x.typ) {
			tc.convertUntypedError(x, target)
			return
		}
		elem := tc.types.Elem(t)
		tc.convertToTyped(x, elem)
		if x.invalid() {
			return
		}
	default:
		if !tc.types.IsNil(x.typ) || !tc.types.HasNil(target) {
			tc.convertUntypedError(x, target)
			return
		}
	}
	x.typ = target
	tc.updateExprType(x.expr, target, true)
}

// updateExprType propagates the final type of an untyped expression down
// into its untyped operands.
func (tc *typeChecker) updateExprType(e ast.Expr, t types.TypeID, final bool) {
	if e == nil {
		return
	}
	old, ok := tc.info.Untyped[e]
	if !ok {
		return
	}

	switch n := e.(type) {
	case *ast.ParenExpr:
		tc.updateExprType(n.X, t, final)
	case *ast.UnaryExpr:
		if !old.Value.IsValid() {
			tc.updateExprType(n.X, t, final)
		}
	case *ast.BinaryExpr:
		if !old.Value.IsValid() {
			switch {
			case n.Op.IsComparison():
			case n.Op.IsShift():
				tc.updateExprType(n.X, t, final)
			default:
				tc.updateExprType(n.X, t, final)
				tc.updateExprType(n.Y, t, final)
			}
		}
	}

	if !final && tc.types.IsUntyped(t) {
		old.Type = tc.types.Base(t)
		return
	}

	delete(tc.info.Untyped, e)
	if old.IsLHS && !tc.types.IsInteger(t) {
		tc.report(diag.SemaShiftOperand, e.Span(), "Shifted operand %s must be an integer, got %s", ast.ExprString(e), tc.typeString(t))
		return
	}
	val := old.Value
	if val.IsValid() {
		if tc.types.IsVector(t) {
			if v, fit := tc.representable(val, tc.types.Elem(t)); fit == constant.Fits {
				val = v
			}
		} else if v, fit := tc.representable(val, t); fit == constant.Fits {
			val = v
		}
	}
	tc.info.Types[e] = TypeAndValue{Mode: old.Mode, Type: t, Value: val}
}

// isAssignableTo reports whether x may be stored in a location of type t.
// isArgument additionally allows the implicit conversion of a struct value
// to one of its anonymous fields.
func (tc *typeChecker) isAssignableTo(x *operand, t types.TypeID, isArgument bool) bool {
	if x.invalid() || t == types.NoTypeID {
		return true
	}
	if x.mode == ModeBuiltin || x.mode == ModeType {
		return false
	}
	s := x.typ
	if tc.types.Identical(s, t) {
		return true
	}

	if tc.types.IsUntyped(s) {
		if tc.types.IsNil(s) {
			return tc.types.HasNil(t)
		}
		if tc.types.IsAny(t) {
			tc.addTypeInfo(tc.types.Default(s))
			return true
		}
		switch tc.types.KindOf(tc.types.Underlying(t)) {
		case types.KindBasic:
			if x.mode == ModeConstant && x.val.IsValid() {
				_, fit := tc.representable(x.val, t)
				return fit == constant.Fits
			}
			if tc.types.BasicOf(s) == types.UntypedBool {
				return tc.types.IsBoolean(t)
			}
			return tc.types.IsNumeric(t)
		case types.KindVector:
			elem := tc.types.Elem(t)
			if x.mode == ModeConstant && x.val.IsValid() {
				_, fit := tc.representable(x.val, elem)
				return fit == constant.Fits
			}
			if tc.types.BasicOf(s) == types.UntypedBool {
				return tc.types.IsBoolean(elem)
			}
			return tc.types.IsNumeric(elem)
		}
		return false
	}

	sb, tb := tc.types.Base(s), tc.types.Base(t)
	if tc.types.Identical(sb, tb) && (!tc.types.IsNamed(s) || !tc.types.IsNamed(t)) {
		return true
	}

	if tc.types.IsRawptr(t) && tc.types.IsTypedPointer(s) {
		return true
	}
	if tc.types.IsRawptr(s) && tc.types.IsTypedPointer(t) {
		return true
	}

	if rec, ok := tc.types.Record(tb); ok && rec.Kind == types.RecordUnion {
		for _, v := range rec.Variants() {
			if tc.types.Identical(v.Type, s) {
				return true
			}
		}
	}

	if tc.types.IsAny(t) {
		tc.addTypeInfo(s)
		return true
	}

	if isArgument {
		if path, ok := tc.usingSubtypePath(t, s); ok {
			tc.info.UsingArgs[x.expr] = path
			return true
		}
	}
	return false
}

// usingSubtypePath finds the anonymous field path inside src (a struct or a
// pointer to one) that yields a value of type dst.
func (tc *typeChecker) usingSubtypePath(dst, src types.TypeID) ([]int, bool) {
	srcIsPtr := tc.types.IsTypedPointer(src)
	dstIsPtr := tc.types.IsTypedPointer(dst)
	if srcIsPtr != dstIsPtr {
		return nil, false
	}
	from := src
	want := dst
	if srcIsPtr {
		from = tc.types.Elem(src)
		want = tc.types.Elem(dst)
	}
	return tc.findAnonymous(tc.types.Base(from), want, 0)
}

func (tc *typeChecker) findAnonymous(rec, want types.TypeID, depth int) ([]int, bool) {
	if depth > 32 {
		return nil, false
	}
	info, ok := tc.types.Record(rec)
	if !ok || (info.Kind != types.RecordStruct && info.Kind != types.RecordRawUnion) {
		return nil, false
	}
	for i, f := range info.Fields {
		if !f.Anonymous {
			continue
		}
		if tc.types.Identical(f.Type, want) {
			return []int{i}, true
		}
	}
	for i, f := range info.Fields {
		if !f.Anonymous || tc.types.IsTypedPointer(f.Type) {
			continue
		}
		if sub, ok := tc.findAnonymous(tc.types.Base(f.Type), want, depth+1); ok {
			return append([]int{i}, sub...), true
		}
	}
	return nil, false
}

// assignment checks that x can be stored in a location of type t and
// converts untyped operands. t == NoTypeID infers the default type.
func (tc *typeChecker) assignment(x *operand, t types.TypeID, context string) {
	tc.assignmentArg(x, t, context, false)
}

func (tc *typeChecker) assignmentArg(x *operand, t types.TypeID, context string, isArgument bool) {
	tc.singleValue(x)
	if x.invalid() {
		return
	}
	if x.mode == ModeBuiltin {
		tc.errorf(x, diag.SemaCannotAssign, "Cannot assign builtin procedure `%s` in %s", x.String(), context)
		x.setInvalid()
		return
	}
	if x.mode == ModeType {
		tc.errorf(x, diag.SemaNotAnExpression, "`%s` is not an expression", x.String())
		x.setInvalid()
		return
	}

	if tc.types.IsUntyped(x.typ) {
		target := t
		if t == types.NoTypeID || tc.types.IsAny(t) {
			if tc.types.IsNil(x.typ) {
				tc.errorf(x, diag.SemaCannotAssign, "Use of untyped nil in %s", context)
				x.setInvalid()
				return
			}
			target = tc.types.Default(x.typ)
			if tc.types.IsAny(t) {
				tc.addTypeInfo(target)
			}
		}
		tc.convertToTyped(x, target)
		if x.invalid() {
			return
		}
	}
	if t == types.NoTypeID {
		return
	}

	if !tc.isAssignableTo(x, t, isArgument) {
		tc.errorf(x, diag.SemaCannotAssign, "Cannot assign value `%s` of type `%s` to `%s` in %s",
			x.String(), tc.typeString(x.typ), tc.typeString(t), context)
		x.setInvalid()
	}
}
