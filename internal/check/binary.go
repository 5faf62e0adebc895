package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/token"
	"odinc/internal/types"
)

// maxShift is the largest constant shift amount accepted.
const maxShift = 1074

func (tc *typeChecker) unary(x *operand, e *ast.UnaryExpr) {
	if e.Op == token.Pointer {
		tc.exprOrType(x, e.X)
		if x.invalid() {
			return
		}
		if x.mode == ModeType {
			x.typ = tc.types.Pointer(x.typ)
			return
		}
		if x.mode != ModeVariable || tc.isVectorElem(e.X) {
			tc.errorf(x, diag.SemaAddressOf, "Cannot take the pointer address of `%s`", x.String())
			x.setInvalid()
			return
		}
		x.mode = ModeValue
		x.typ = tc.types.Pointer(x.typ)
		return
	}

	tc.expr(x, e.X)
	if x.invalid() {
		return
	}
	x.expr = e
	switch e.Op {
	case token.Add, token.Sub:
		if !tc.types.IsNumeric(x.typ) {
			tc.errorf(x, diag.SemaInvalidOperator, "Operator `%s` is not allowed with `%s`", e.Op, x.String())
			x.setInvalid()
			return
		}
	case token.Xor:
		if !tc.types.IsInteger(tc.scalar(x.typ)) {
			tc.errorf(x, diag.SemaInvalidOperator, "Operator `%s` is only allowed with integers", e.Op)
			x.setInvalid()
			return
		}
	case token.Not:
		if !tc.types.IsBoolean(tc.scalar(x.typ)) {
			tc.errorf(x, diag.SemaInvalidOperator, "Operator `%s` is only allowed on boolean expression", e.Op)
			x.setInvalid()
			return
		}
	default:
		tc.errorf(x, diag.SemaInvalidOperator, "Unknown unary operator `%s`", e.Op)
		x.setInvalid()
		return
	}

	if x.mode != ModeConstant {
		x.mode = ModeValue
		return
	}
	if !tc.types.IsConstantType(x.typ) {
		tc.errorf(x, diag.SemaInvalidOperator, "Invalid type, `%s`, for constant unary expression `%s`", tc.typeString(x.typ), ast.ExprString(e))
		x.setInvalid()
		return
	}
	prec := 0
	if tc.types.IsUnsigned(x.typ) {
		prec = tc.basicBits(tc.types.BasicOf(x.typ))
	}
	x.val = constant.UnaryOp(e.Op, x.val, prec)
	if !x.val.IsValid() {
		tc.errorf(x, diag.SemaInvalidOperator, "Invalid constant unary expression `%s`", ast.ExprString(e))
		x.setInvalid()
		return
	}
	if tc.types.IsTyped(x.typ) {
		tc.isExpressible(x, tc.types.Underlying(x.typ))
	}
}

func (tc *typeChecker) isVectorElem(e ast.Expr) bool {
	ix, ok := ast.Unparen(e).(*ast.IndexExpr)
	return ok && tc.types.IsVector(tc.info.TypeOf(ix.X))
}

// scalar returns the element type of a vector, or t itself.
func (tc *typeChecker) scalar(t types.TypeID) types.TypeID {
	if tc.types.IsVector(t) {
		return tc.types.Elem(t)
	}
	return t
}

func (tc *typeChecker) binary(x *operand, e *ast.BinaryExpr) {
	var y operand
	if e.Op == token.CmpEq || e.Op == token.NotEq {
		tc.exprOrType(x, e.X)
		tc.exprOrType(&y, e.Y)
	} else {
		tc.expr(x, e.X)
		tc.expr(&y, e.Y)
	}
	if x.invalid() {
		return
	}
	if y.invalid() {
		x.setInvalid()
		x.expr = y.expr
		return
	}

	if e.Op.IsShift() {
		tc.shift(x, &y, e, e.Op)
		return
	}

	if e.Op == token.Add || e.Op == token.Sub {
		if tc.pointerArith(x, &y, e) {
			return
		}
	}

	tc.convertToTyped(x, y.typ)
	if x.invalid() {
		return
	}
	tc.convertToTyped(&y, x.typ)
	if y.invalid() {
		x.setInvalid()
		return
	}

	if e.Op.IsComparison() {
		tc.comparison(x, &y, e.Op)
		x.expr = e
		return
	}
	if x.mode == ModeType || y.mode == ModeType {
		tc.report(diag.SemaNotAnExpression, e.Sp, "Invalid use of a type in binary expression `%s`", ast.ExprString(e))
		x.setInvalid()
		return
	}

	if !tc.types.Identical(x.typ, y.typ) {
		tc.report(diag.SemaMismatchedTypes, e.OpPos, "Mismatched types in binary expression `%s` : `%s` vs `%s`",
			ast.ExprString(e), tc.typeString(x.typ), tc.typeString(y.typ))
		x.setInvalid()
		return
	}

	if !tc.checkBinaryOp(e.Op, x, e) {
		x.setInvalid()
		return
	}

	if e.Op == token.Quo || e.Op == token.Mod {
		if (x.mode == ModeConstant || tc.types.IsInteger(x.typ)) && y.mode == ModeConstant && y.val.IsValid() && y.val.Sign() == 0 {
			tc.report(diag.SemaDivisionByZero, e.Y.Span(), "Division by zero not allowed")
			x.setInvalid()
			return
		}
	}

	if x.mode == ModeConstant && y.mode == ModeConstant {
		if !tc.types.IsConstantType(x.typ) {
			tc.report(diag.SemaInvalidOperator, e.Sp, "Invalid type, `%s`, for constant binary expression `%s`", tc.typeString(x.typ), ast.ExprString(e))
			x.setInvalid()
			return
		}
		v := constant.BinaryOp(e.Op, x.val, y.val)
		if !v.IsValid() {
			tc.report(diag.SemaInvalidOperator, e.Sp, "Invalid constant binary expression `%s`", ast.ExprString(e))
			x.setInvalid()
			return
		}
		x.val = v
		x.expr = e
		if tc.types.IsTyped(x.typ) {
			tc.isExpressible(x, tc.types.Underlying(x.typ))
		}
		return
	}
	x.mode = ModeValue
	x.val = constant.Value{}
	x.expr = e
}

// checkBinaryOp validates op for the (vector element) type of x.
func (tc *typeChecker) checkBinaryOp(op token.Kind, x *operand, e *ast.BinaryExpr) bool {
	t := tc.scalar(x.typ)
	var ok bool
	var msg string
	switch op {
	case token.Add, token.Mul, token.Quo:
		ok = tc.types.IsNumeric(t) || (op == token.Add && tc.types.IsString(t) && x.mode == ModeConstant)
		msg = "Operator `%s` is only allowed with numeric expressions"
	case token.Sub:
		ok = tc.types.IsNumeric(t) || tc.types.IsPointer(t)
		msg = "Operator `%s` is only allowed with numeric or pointer expressions"
	case token.Mod, token.AndNot, token.Xor:
		ok = tc.types.IsInteger(t)
		msg = "Operator `%s` is only allowed with integers"
	case token.And, token.Or:
		ok = tc.types.IsInteger(t) || tc.types.IsBoolean(t)
		msg = "Operator `%s` is only allowed with integers or booleans"
	case token.CmpAnd, token.CmpOr:
		ok = tc.types.IsBoolean(t)
		msg = "Operator `%s` is only allowed with boolean expressions"
	default:
		tc.report(diag.SemaInvalidOperator, e.OpPos, "Unknown operator `%s`", op)
		return false
	}
	if !ok {
		tc.report(diag.SemaInvalidOperator, e.OpPos, msg, op)
	}
	return ok
}

// pointerArith handles ptr +/- int and ptr - ptr. It returns false when
// neither operand is a pointer.
func (tc *typeChecker) pointerArith(x, y *operand, e *ast.BinaryExpr) bool {
	xp := tc.types.IsPointer(x.typ)
	yp := tc.types.IsPointer(y.typ)
	if !xp && !yp {
		return false
	}
	if x.mode == ModeType || y.mode == ModeType {
		return false
	}
	intType := tc.types.Builtin(types.Int)

	switch {
	case xp && yp:
		if e.Op != token.Sub {
			return false
		}
		if !tc.types.Identical(x.typ, y.typ) {
			tc.report(diag.SemaMismatchedTypes, e.OpPos, "Mismatched types in binary expression `%s` : `%s` vs `%s`",
				ast.ExprString(e), tc.typeString(x.typ), tc.typeString(y.typ))
			x.setInvalid()
			return true
		}
		if tc.types.IsRawptr(x.typ) {
			tc.report(diag.SemaInvalidOperator, e.X.Span(), "Invalid pointer type for pointer arithmetic: `%s`", tc.typeString(x.typ))
			x.setInvalid()
			return true
		}
		if x.mode == ModeConstant && y.mode == ModeConstant {
			size := tc.layout.Size(tc.types.Elem(x.typ))
			if size <= 0 {
				size = 1
			}
			diff := x.val.PointerVal() - y.val.PointerVal()
			x.val = constant.MakeInt64(diff / size)
			x.typ = intType
			x.expr = e
			return true
		}
		x.mode = ModeValue
		x.typ = intType
		x.val = constant.Value{}
		x.expr = e
		return true

	case yp && !xp:
		if !tc.types.IsInteger(x.typ) {
			return false
		}
		if e.Op == token.Sub {
			tc.report(diag.SemaInvalidOperator, e.Sp, "Invalid pointer arithmetic, did you mean `%s %s %s`?",
				ast.ExprString(e.Y), e.Op, ast.ExprString(e.X))
			x.setInvalid()
			return true
		}
		*x, *y = *y, *x
	}

	if !tc.types.IsInteger(y.typ) {
		return false
	}
	if tc.types.IsRawptr(x.typ) {
		tc.report(diag.SemaInvalidOperator, x.expr.Span(), "Invalid pointer type for pointer arithmetic: `%s`", tc.typeString(x.typ))
		x.setInvalid()
		return true
	}
	tc.convertToTyped(y, intType)
	if y.invalid() {
		x.setInvalid()
		return true
	}
	x.mode = ModeValue
	x.val = constant.Value{}
	x.expr = e
	return true
}

func (tc *typeChecker) comparison(x, y *operand, op token.Kind) {
	if x.mode == ModeType && y.mode == ModeType {
		if op != token.CmpEq && op != token.NotEq {
			tc.errorf(x, diag.SemaCannotCompare, "Cannot compare expression, operator `%s` not defined for types", op)
			x.setInvalid()
			return
		}
		eq := tc.types.Identical(x.typ, y.typ)
		if op == token.NotEq {
			eq = !eq
		}
		x.mode = ModeConstant
		x.typ = tc.types.Builtin(types.UntypedBool)
		x.val = constant.MakeBool(eq)
		return
	}
	if x.mode == ModeType || y.mode == ModeType {
		tc.errorf(x, diag.SemaCannotCompare, "Cannot compare a type with a value")
		x.setInvalid()
		return
	}

	var errType types.TypeID
	mismatched := false
	if tc.isAssignableTo(x, y.typ, false) || tc.isAssignableTo(y, x.typ, false) {
		if tc.types.IsAny(x.typ) != tc.types.IsAny(y.typ) && !tc.types.IsNil(x.typ) && !tc.types.IsNil(y.typ) {
			mismatched = true
		}
		switch op {
		case token.CmpEq, token.NotEq:
			if !tc.types.IsComparable(x.typ) {
				errType = x.typ
			} else if !tc.types.IsComparable(y.typ) {
				errType = y.typ
			}
		default:
			if !tc.types.IsOrdered(x.typ) {
				errType = x.typ
			} else if !tc.types.IsOrdered(y.typ) {
				errType = y.typ
			}
		}
		// nil may be compared against anything that has nil
		if tc.types.IsNil(x.typ) && tc.types.HasNil(y.typ) || tc.types.IsNil(y.typ) && tc.types.HasNil(x.typ) {
			if op == token.CmpEq || op == token.NotEq {
				errType = types.NoTypeID
			}
		}
	} else {
		mismatched = true
	}

	if mismatched {
		tc.errorf(x, diag.SemaCannotCompare, "Cannot compare expression, mismatched types `%s` and `%s`",
			tc.typeString(x.typ), tc.typeString(y.typ))
		x.setInvalid()
		return
	}
	if errType != types.NoTypeID {
		tc.errorf(x, diag.SemaCannotCompare, "Cannot compare expression, operator `%s` not defined for type `%s`",
			op, tc.typeString(errType))
		x.setInvalid()
		return
	}

	if x.mode == ModeConstant && y.mode == ModeConstant && x.val.IsValid() && y.val.IsValid() {
		x.val = constant.MakeBool(constant.Compare(op, x.val, y.val))
		x.typ = tc.types.Builtin(types.UntypedBool)
		return
	}

	x.mode = ModeValue
	x.val = constant.Value{}
	if !tc.types.IsNil(x.typ) || !tc.types.HasNil(y.typ) {
		tc.updateExprType(x.expr, tc.types.Default(x.typ), true)
	} else {
		tc.updateExprType(x.expr, y.typ, true)
	}
	if !tc.types.IsNil(y.typ) || !tc.types.HasNil(x.typ) {
		tc.updateExprType(y.expr, tc.types.Default(y.typ), true)
	} else {
		tc.updateExprType(y.expr, x.typ, true)
	}

	if tc.types.IsVector(y.typ) {
		n := int64(0)
		if t, ok := tc.types.Lookup(tc.types.Base(y.typ)); ok {
			n = t.Count
		}
		x.typ = tc.types.Vector(tc.types.Builtin(types.Bool), n)
		return
	}
	x.typ = tc.types.Builtin(types.UntypedBool)
}

func (tc *typeChecker) shift(x, y *operand, e ast.Expr, op token.Kind) {
	if x.mode == ModeConstant {
		xi := constant.ToInteger(x.val)
		if tc.types.IsUntyped(x.typ) && xi.IsValid() {
			x.val = xi
			x.typ = tc.types.Builtin(types.UntypedInteger)
		}
	}
	if !tc.types.IsInteger(tc.scalar(x.typ)) {
		if x.mode == ModeConstant {
			tc.errorf(x, diag.SemaShiftOperand, "Shifted operand `%s` must be an integer", x.String())
		} else {
			tc.errorf(x, diag.SemaShiftOperand, "Shift operand `%s` must be an integer", x.String())
		}
		x.setInvalid()
		return
	}

	if y.mode == ModeConstant {
		yi := constant.ToInteger(y.val)
		if !yi.IsValid() {
			tc.errorf(y, diag.SemaShiftAmount, "Shift amount `%s` must be an unsigned integer", y.String())
			x.setInvalid()
			return
		}
		y.val = yi
	}
	if tc.types.IsUntyped(y.typ) {
		tc.convertToTyped(y, tc.types.Builtin(types.UntypedInteger))
		if y.invalid() {
			x.setInvalid()
			return
		}
	} else if !tc.types.IsUnsigned(tc.scalar(y.typ)) {
		tc.errorf(y, diag.SemaShiftAmount, "Shift amount `%s` must be an unsigned integer", y.String())
		x.setInvalid()
		return
	}

	if x.mode == ModeConstant {
		if y.mode == ModeConstant {
			if y.val.Sign() < 0 {
				tc.errorf(y, diag.SemaShiftAmount, "Shift amount cannot be negative: `%s`", y.String())
				x.setInvalid()
				return
			}
			amount, ok := y.val.Int64()
			if !ok || amount > maxShift {
				tc.errorf(y, diag.SemaShiftAmount, "Shift amount too large: `%s`", y.String())
				x.setInvalid()
				return
			}
			if tc.types.IsUntyped(x.typ) {
				x.typ = tc.types.Builtin(types.UntypedInteger)
			}
			x.val = constant.Shift(op, x.val, uint(amount))
			x.expr = e
			if tc.types.IsTyped(x.typ) {
				tc.isExpressible(x, tc.types.Underlying(x.typ))
			}
			return
		}
		if tc.types.IsUntyped(x.typ) {
			// the final type of x comes from the context
			if u := tc.info.Untyped[x.expr]; u != nil {
				u.IsLHS = true
			}
			x.mode = ModeValue
			x.val = constant.Value{}
			x.expr = e
			return
		}
	}

	if y.mode == ModeConstant && y.val.Sign() < 0 {
		tc.errorf(y, diag.SemaShiftAmount, "Shift amount cannot be negative: `%s`", y.String())
		x.setInvalid()
		return
	}
	x.mode = ModeValue
	x.val = constant.Value{}
	x.expr = e
}
