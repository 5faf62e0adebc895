package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/source"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

// typExpr checks e as a type expression and records it with ModeType.
// It returns NoTypeID after reporting when e does not denote a type.
func (tc *typeChecker) typExpr(e ast.Expr) types.TypeID {
	return tc.typExprOpen(e, false)
}

// typExprOpen additionally allows "[..]T", which is only meaningful as the
// type of a composite literal.
func (tc *typeChecker) typExprOpen(e ast.Expr, openOK bool) types.TypeID {
	t := tc.typExprInternal(e, openOK)
	if t != types.NoTypeID {
		tc.info.Types[e] = TypeAndValue{Mode: ModeType, Type: t}
	}
	return t
}

func (tc *typeChecker) typExprInternal(e ast.Expr, openOK bool) types.TypeID {
	switch n := e.(type) {
	case *ast.ParenExpr:
		return tc.typExprOpen(n.X, openOK)

	case *ast.PointerType:
		tc.indirection++
		elem := tc.typExpr(n.Elem)
		tc.indirection--
		if elem == types.NoTypeID {
			return types.NoTypeID
		}
		return tc.types.Pointer(elem)

	case *ast.UnaryExpr:
		if n.Op == token.Pointer {
			tc.indirection++
			elem := tc.typExpr(n.X)
			tc.indirection--
			if elem == types.NoTypeID {
				return types.NoTypeID
			}
			return tc.types.Pointer(elem)
		}

	case *ast.SliceType:
		tc.indirection++
		elem := tc.typExpr(n.Elem)
		tc.indirection--
		if elem == types.NoTypeID {
			return types.NoTypeID
		}
		return tc.types.Slice(elem)

	case *ast.ArrayType:
		elem := tc.typExpr(n.Elem)
		if n.SoA {
			return tc.soaType(n, elem)
		}
		if n.Open {
			if !openOK {
				tc.report(diag.SemaNotAType, n.Sp, "Invalid use of `[..]` outside a compound literal")
				return types.NoTypeID
			}
			if elem == types.NoTypeID {
				return types.NoTypeID
			}
			return tc.types.Array(elem, types.OpenCount)
		}
		count, ok := tc.arrayCount(n.Len)
		if !ok || elem == types.NoTypeID {
			return types.NoTypeID
		}
		return tc.types.Array(elem, count)

	case *ast.VectorType:
		elem := tc.typExpr(n.Elem)
		count, ok := tc.arrayCount(n.Len)
		if !ok || elem == types.NoTypeID {
			return types.NoTypeID
		}
		if tc.types.IsVector(elem) || !(tc.types.IsNumeric(elem) || tc.types.IsBoolean(elem)) {
			tc.report(diag.SemaNotAType, n.Elem.Span(), "Vector element type must be numerical or a boolean, got `%s`", tc.typeString(elem))
			return types.NoTypeID
		}
		if count == 0 {
			tc.report(diag.SemaNotAType, n.Len.Span(), "Invalid array count")
			return types.NoTypeID
		}
		return tc.types.Vector(elem, count)

	case *ast.MapType:
		return tc.mapType(n)

	case *ast.BitFieldType:
		return tc.bitFieldType(n)

	case *ast.StructType:
		return tc.structType(n)

	case *ast.UnionType:
		return tc.unionType(n)

	case *ast.EnumType:
		return tc.enumType(n, tc.pendingNamed[e])

	case *ast.ProcType:
		tc.indirection++
		t := tc.procType(n, nil)
		tc.indirection--
		return t

	case *ast.EllipsisType:
		tc.report(diag.SemaInvalidVariadic, n.Sp, "Invalid use of `..` outside a parameter list")
		return types.NoTypeID
	}

	var x operand
	tc.exprOrType(&x, e)
	switch x.mode {
	case ModeInvalid:
		return types.NoTypeID
	case ModeType:
		return x.typ
	}
	tc.report(diag.SemaNotAType, e.Span(), "`%s` is not a type", ast.ExprString(e))
	return types.NoTypeID
}

// arrayCount evaluates the length expression of an array or vector type.
func (tc *typeChecker) arrayCount(e ast.Expr) (int64, bool) {
	if e == nil {
		return 0, false
	}
	var x operand
	tc.expr(&x, e)
	if x.invalid() {
		return 0, false
	}
	if x.mode != ModeConstant {
		tc.report(diag.SemaNotConstant, e.Span(), "Array count must be a constant")
		return 0, false
	}
	if !tc.types.IsInteger(x.typ) && !(tc.types.IsUntyped(x.typ) && constant.ToInteger(x.val).IsValid()) {
		tc.report(diag.SemaNotConstant, e.Span(), "Array count must be an integer")
		return 0, false
	}
	n, ok := constant.ToInteger(x.val).Int64()
	if !ok || n < 0 {
		tc.report(diag.SemaNotConstant, e.Span(), "Invalid array count")
		return 0, false
	}
	tc.convertToTyped(&x, tc.types.Builtin(types.Int))
	return n, true
}

// procType builds a procedure signature. When scope is non-nil the
// parameters and named results are declared in it.
func (tc *typeChecker) procType(pt *ast.ProcType, scope *symbols.Scope) types.TypeID {
	conv, ok := types.ParseCallConv(pt.CallConv)
	if !ok {
		tc.report(diag.SemaError, pt.Sp, "Unknown calling convention `%s`", pt.CallConv)
	}
	params, variadic, okParams := tc.collectParams(pt.Params, scope, false)
	results, _, okResults := tc.collectParams(pt.Results, scope, true)
	if !okParams || !okResults {
		return types.NoTypeID
	}
	t := tc.types.NewProc(types.ProcInfo{
		Params:   tc.types.NewTuple(params),
		Results:  tc.types.NewTuple(results),
		Variadic: variadic,
		CallConv: conv,
	})
	tc.info.Types[pt] = TypeAndValue{Mode: ModeType, Type: t}
	return t
}

func (tc *typeChecker) collectParams(fields []*ast.Field, scope *symbols.Scope, results bool) ([]types.Field, bool, bool) {
	count := 0
	for _, f := range fields {
		count += max(len(f.Names), 1)
	}
	vars := make([]types.Field, 0, count)
	variadic := false
	ok := true
	for i, f := range fields {
		var t types.TypeID
		if ell, isEll := f.Type.(*ast.EllipsisType); isEll {
			if results || i != len(fields)-1 || len(f.Names) > 1 {
				tc.report(diag.SemaInvalidVariadic, ell.Sp, "Invalid variadic parameter")
				ok = false
				continue
			}
			elem := tc.typExpr(ell.Elem)
			if elem == types.NoTypeID {
				ok = false
				continue
			}
			t = tc.types.Slice(elem)
			tc.info.Types[ell] = TypeAndValue{Mode: ModeType, Type: t}
			variadic = true
		} else {
			t = tc.typExpr(f.Type)
			if t == types.NoTypeID {
				ok = false
				continue
			}
		}

		noAlias := f.NoAlias
		if noAlias && !tc.types.IsPointer(t) {
			tc.report(diag.SemaError, f.Sp, "`no_alias` can only be applied to fields of pointer type")
			noAlias = false
		}

		if len(f.Names) == 0 {
			vars = append(vars, types.Field{Type: t, Index: len(vars)})
			continue
		}
		for _, name := range f.Names {
			flag := symbols.FlagParam
			if results {
				flag = symbols.FlagResult
			}
			var obj uint32
			if scope != nil {
				ent := tc.entities.New(symbols.EntityVariable, name.Name, name.Sp, scope)
				ent.Type = t
				ent.State = symbols.Resolved
				ent.Flags |= flag
				if noAlias {
					ent.Flags |= symbols.FlagNoAlias
				}
				ent.FieldIndex = len(vars)
				tc.info.Defs[name] = ent
				if prev := scope.Insert(ent); prev != nil {
					tc.report(diag.SemaRedeclared, name.Sp, "`%s` is already declared in this procedure", name.Name)
				}
				obj = ent.ID
				if f.Using {
					tc.usingParam(ent, scope)
				}
			}
			vars = append(vars, types.Field{
				Name:      name.Name,
				Type:      t,
				Anonymous: f.Using,
				NoAlias:   noAlias,
				Index:     len(vars),
				Obj:       obj,
			})
		}
	}
	return vars, variadic, ok
}

// usingParam injects the fields of a struct (or pointer to struct) parameter
// into the procedure scope.
func (tc *typeChecker) usingParam(param *symbols.Entity, scope *symbols.Scope) {
	tc.usingVar(param, "a parameter", param.Span, scope)
}

func (tc *typeChecker) usingVar(v *symbols.Entity, what string, at source.Span, scope *symbols.Scope) {
	t := tc.types.Base(tc.types.Deref(v.Type))
	rec, ok := tc.types.Record(t)
	if !ok || (rec.Kind != types.RecordStruct && rec.Kind != types.RecordRawUnion) {
		tc.report(diag.SemaUsingField, at, "`using` can only be applied to %s of struct type, got `%s`", what, tc.typeString(v.Type))
		return
	}
	tc.injectFields(v, t, nil, scope)
}

func (tc *typeChecker) injectFields(param *symbols.Entity, rec types.TypeID, path []int, scope *symbols.Scope) {
	info, ok := tc.types.Record(rec)
	if !ok {
		return
	}
	for i, f := range info.Fields {
		if f.Name == "" || f.Name == "_" {
			continue
		}
		p := append(append([]int(nil), path...), i)
		ent := tc.entities.New(symbols.EntityVariable, f.Name, param.Span, scope)
		ent.Type = f.Type
		ent.State = symbols.Resolved
		ent.Flags |= symbols.FlagField
		ent.FieldIndex = i
		ent.UsingParent = param
		ent.UsingPath = p
		if prev := scope.Insert(ent); prev != nil {
			tc.report(diag.SemaUsingField, param.Span, "`%s` is already declared in `%s`", f.Name, param.Name)
			continue
		}
		if f.Anonymous {
			inner := tc.types.Base(f.Type)
			if tc.types.IsStruct(inner) || tc.types.IsRawUnion(inner) {
				tc.injectFields(param, inner, p, scope)
			}
		}
	}
}
