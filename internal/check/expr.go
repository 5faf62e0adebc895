package check

import (
	"fmt"

	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

// rawExpr checks e and records the result. hint is the expected type of
// untyped composite literals and may be NoTypeID.
func (tc *typeChecker) rawExpr(x *operand, e ast.Expr, hint types.TypeID) ExprKind {
	kind := tc.exprBase(x, e, hint)
	x.expr = e
	tc.record(x)
	return kind
}

func (tc *typeChecker) record(x *operand) {
	if x.expr == nil {
		return
	}
	switch x.mode {
	case ModeInvalid:
		return
	case ModeNoValue:
		tc.info.Types[x.expr] = TypeAndValue{Mode: ModeNoValue}
		return
	}
	if x.typ != types.NoTypeID && tc.types.IsUntyped(x.typ) {
		tc.info.Untyped[x.expr] = &untypedInfo{Mode: x.mode, Type: x.typ, Value: x.val}
		return
	}
	tc.info.Types[x.expr] = TypeAndValue{Mode: x.mode, Type: x.typ, Value: x.val}
}

// expr checks a single-valued expression.
func (tc *typeChecker) expr(x *operand, e ast.Expr) {
	tc.exprWithHint(x, e, types.NoTypeID)
}

func (tc *typeChecker) exprWithHint(x *operand, e ast.Expr, hint types.TypeID) {
	tc.rawExpr(x, e, hint)
	tc.singleValue(x)
	tc.exclude(x, ModeType, ModeBuiltin, ModeNoValue)
}

// multiExpr allows tuple-valued calls.
func (tc *typeChecker) multiExpr(x *operand, e ast.Expr) {
	tc.rawExpr(x, e, types.NoTypeID)
	tc.exclude(x, ModeType, ModeBuiltin, ModeNoValue)
}

// exprOrType allows e to denote a type.
func (tc *typeChecker) exprOrType(x *operand, e ast.Expr) {
	tc.rawExpr(x, e, types.NoTypeID)
	tc.singleValue(x)
	tc.exclude(x, ModeNoValue)
}

func (tc *typeChecker) singleValue(x *operand) {
	if x.mode == ModeValue && tc.types.IsTuple(x.typ) {
		n := tc.types.TupleLen(tc.types.Base(x.typ))
		tc.errorf(x, diag.SemaAssignMismatch, "`%s` returns %d values, expected 1", x.String(), n)
		x.setInvalid()
	}
}

func (tc *typeChecker) exclude(x *operand, modes ...Mode) {
	for _, m := range modes {
		if x.mode != m {
			continue
		}
		switch m {
		case ModeNoValue:
			tc.errorf(x, diag.SemaNotAnExpression, "`%s` used as value", x.String())
		case ModeBuiltin:
			tc.errorf(x, diag.SemaNotAnExpression, "`%s` must be called", x.String())
		case ModeType:
			tc.errorf(x, diag.SemaNotAnExpression, "`%s` is not an expression", x.String())
		}
		x.setInvalid()
		return
	}
}

// exprBase is the single switch over expression kinds.
func (tc *typeChecker) exprBase(x *operand, e ast.Expr, hint types.TypeID) ExprKind {
	x.setInvalid()
	x.expr = e
	x.builtin = symbols.BuiltinInvalid

	switch n := e.(type) {
	case *ast.BadExpr:
		return ExprExpr

	case *ast.Ident:
		tc.ident(x, n)

	case *ast.BasicLit:
		tc.basicLit(x, n)

	case *ast.ParenExpr:
		kind := tc.rawExpr(x, n.X, hint)
		x.expr = e
		return kind

	case *ast.ProcLit:
		tc.procLit(x, n)

	case *ast.CompositeLit:
		tc.compositeLit(x, n, hint)

	case *ast.SelectorExpr:
		tc.selector(x, n)

	case *ast.IndexExpr:
		tc.index(x, n)

	case *ast.SliceExpr:
		tc.sliceExpr(x, n)

	case *ast.DerefExpr:
		tc.expr(x, n.X)
		if x.invalid() {
			return ExprExpr
		}
		if !tc.types.IsTypedPointer(x.typ) {
			tc.errorf(x, diag.SemaInvalidDeref, "Cannot dereference `%s` of type `%s`", x.String(), tc.typeString(x.typ))
			x.setInvalid()
			return ExprExpr
		}
		x.mode = ModeVariable
		x.typ = tc.types.Elem(x.typ)

	case *ast.CallExpr:
		return tc.call(x, n)

	case *ast.UnaryExpr:
		tc.unary(x, n)

	case *ast.BinaryExpr:
		switch n.Op {
		case token.KwAs:
			tc.expr(x, n.X)
			if t := tc.typExpr(n.Y); t != types.NoTypeID && !x.invalid() {
				tc.conversion(x, t)
			} else {
				x.setInvalid()
			}
		case token.KwTransmute:
			tc.expr(x, n.X)
			if t := tc.typExpr(n.Y); t != types.NoTypeID && !x.invalid() {
				tc.transmute(x, t)
			} else {
				x.setInvalid()
			}
		case token.KwDownCast:
			tc.expr(x, n.X)
			if t := tc.typExpr(n.Y); t != types.NoTypeID && !x.invalid() {
				tc.downCast(x, t, n)
			} else {
				x.setInvalid()
			}
		default:
			tc.binary(x, n)
		}

	case *ast.PointerType, *ast.ArrayType, *ast.SliceType, *ast.VectorType, *ast.MapType,
		*ast.StructType, *ast.UnionType, *ast.EnumType, *ast.BitFieldType, *ast.ProcType:
		t := tc.typExpr(e)
		if t == types.NoTypeID {
			return ExprExpr
		}
		x.mode = ModeType
		x.typ = t

	case *ast.EllipsisType:
		tc.report(diag.SemaInvalidVariadic, n.Sp, "Invalid use of `..`")

	case *ast.FieldValue:
		tc.report(diag.SemaMixedLiteral, n.Sp, "Invalid use of a `field = value` element")

	default:
		panic(fmt.Sprintf("internal compiler error: unexpected expression %T", e))
	}
	x.expr = e
	return ExprExpr
}

func (tc *typeChecker) ident(x *operand, id *ast.Ident) {
	if id.Name == "_" {
		tc.report(diag.SemaNotAnExpression, id.Sp, "`_` cannot be used as a value type")
		return
	}
	_, ent := tc.scope.LookupParent(id.Name)
	if ent == nil {
		tc.report(diag.SemaUndeclared, id.Sp, "Undeclared name: %s", id.Name)
		return
	}
	tc.info.Uses[id] = ent
	if !tc.declEntity(ent) && ent.Kind != symbols.EntityBuiltin {
		return
	}

	switch ent.Kind {
	case symbols.EntityConstant:
		if !ent.Value.IsValid() {
			return
		}
		x.mode = ModeConstant
		x.typ = ent.Type
		x.val = ent.Value
	case symbols.EntityVariable:
		if !ent.IsGlobal() && ent.Scope != nil && (!ent.Has(symbols.FlagField) || ent.UsingParent != nil) {
			owner := ent.Scope.Enclosing(symbols.ScopeProc)
			if cur := tc.scope.Enclosing(symbols.ScopeProc); owner != nil && cur != nil && owner != cur {
				tc.report(diag.SemaUndeclared, id.Sp, "Cannot refer to `%s`, a local variable of an enclosing procedure", id.Name)
				return
			}
		}
		ent.Flags |= symbols.FlagUsed
		if ent.UsingParent != nil {
			ent.UsingParent.Flags |= symbols.FlagUsed
		}
		x.mode = ModeVariable
		if ent.Has(symbols.FlagImmutable) {
			x.mode = ModeValue
		}
		x.typ = ent.Type
	case symbols.EntityTypeName:
		x.mode = ModeType
		x.typ = ent.Type
	case symbols.EntityProcedure:
		ent.Flags |= symbols.FlagUsed
		x.mode = ModeValue
		x.typ = ent.Type
	case symbols.EntityBuiltin:
		x.mode = ModeBuiltin
		x.builtin = ent.BuiltinID
	case symbols.EntityNil:
		x.mode = ModeValue
		x.typ = tc.types.Builtin(types.UntypedNil)
	default:
		panic(fmt.Sprintf("internal compiler error: unexpected entity kind %s", ent.Kind))
	}
}

func (tc *typeChecker) basicLit(x *operand, lit *ast.BasicLit) {
	var kind types.BasicKind
	switch lit.Kind {
	case token.IntLit:
		kind = types.UntypedInteger
	case token.FloatLit:
		kind = types.UntypedFloat
	case token.ImagLit:
		kind = types.UntypedComplex
	case token.RuneLit:
		kind = types.UntypedRune
	case token.StringLit:
		kind = types.UntypedString
	default:
		panic(fmt.Sprintf("internal compiler error: unexpected literal kind %s", lit.Kind))
	}
	val, err := constant.MakeFromLiteral(lit.Value, lit.Kind)
	if err != nil {
		tc.report(diag.SemaError, lit.Sp, "Invalid literal `%s`: %v", lit.Value, err)
		return
	}
	x.mode = ModeConstant
	x.typ = tc.types.Builtin(kind)
	x.val = val
}

// procLit checks the signature of an anonymous procedure and queues its body.
func (tc *typeChecker) procLit(x *operand, lit *ast.ProcLit) {
	if pd, ok := tc.info.ProcLits[lit]; ok {
		x.mode = ModeValue
		x.typ = pd.Type
		return
	}
	scope := symbols.NewScope(tc.pkg, symbols.ScopeProc, lit.Sp)
	t := tc.procType(lit.Type, scope)
	if t == types.NoTypeID {
		return
	}
	if lit.Foreign {
		tc.report(diag.SemaError, lit.Sp, "A foreign procedure must be declared with a name")
		return
	}
	tc.litCount++
	name := fmt.Sprintf("__proc_lit_%d", tc.litCount)
	if tc.proc != nil {
		name = fmt.Sprintf("%s.lit%d", tc.proc.Name, tc.litCount)
	}
	pd := &ProcDecl{Lit: lit, Type: t, Scope: scope, Name: name, Parent: tc.proc}
	tc.info.Implicits[lit] = scope
	tc.info.ProcLits[lit] = pd
	tc.queueProc(pd)
	x.mode = ModeValue
	x.typ = t
}
