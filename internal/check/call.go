package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/types"
)

func (tc *typeChecker) call(x *operand, e *ast.CallExpr) ExprKind {
	tc.exprOrType(x, e.Fun)
	switch x.mode {
	case ModeInvalid:
		for _, arg := range e.Args {
			var y operand
			tc.rawExpr(&y, arg, types.NoTypeID)
		}
		x.expr = e
		return ExprStmt
	case ModeBuiltin:
		id := x.builtin
		kind := tc.builtinCall(x, e, id)
		x.expr = e
		return kind
	}

	sig, ok := tc.types.Proc(tc.types.Base(x.typ))
	if x.mode == ModeType || !ok {
		tc.errorf(x, diag.SemaNotCallable, "Cannot call a non-procedure: `%s`", x.String())
		x.setInvalid()
		x.expr = e
		return ExprStmt
	}

	tc.arguments(e, sig)

	results, _ := tc.types.Tuple(sig.Results)
	switch {
	case results == nil || len(results.Vars) == 0:
		x.mode = ModeNoValue
		x.typ = types.NoTypeID
	case len(results.Vars) == 1:
		x.mode = ModeValue
		x.typ = results.Vars[0].Type
	default:
		x.mode = ModeValue
		x.typ = sig.Results
	}
	x.val = constant.Value{}
	x.expr = e
	return ExprStmt
}

// arguments matches the call arguments against the signature.
func (tc *typeChecker) arguments(e *ast.CallExpr, sig *types.ProcInfo) {
	var params []types.Field
	if tup, ok := tc.types.Tuple(sig.Params); ok {
		params = tup.Vars
	}
	name := ast.ExprString(e.Fun)
	if e.Spread && !sig.Variadic {
		tc.report(diag.SemaInvalidVariadic, e.Sp, "Cannot use `..` in call to a non-variadic procedure: `%s`", name)
		return
	}

	paramType := func(i int) types.TypeID {
		if i < len(params) {
			if sig.Variadic && i == len(params)-1 && !e.Spread {
				return tc.types.Elem(params[i].Type)
			}
			return params[i].Type
		}
		if sig.Variadic && len(params) > 0 {
			return tc.types.Elem(params[len(params)-1].Type)
		}
		return types.NoTypeID
	}

	ops := make([]operand, 0, len(e.Args))
	if len(e.Args) == 1 && !e.Spread {
		var x operand
		tc.rawExpr(&x, e.Args[0], paramType(0))
		tc.exclude(&x, ModeType, ModeBuiltin, ModeNoValue)
		if x.invalid() {
			return
		}
		if x.mode == ModeValue && tc.types.IsTuple(x.typ) {
			tup, _ := tc.types.Tuple(tc.types.Base(x.typ))
			for _, v := range tup.Vars {
				ops = append(ops, operand{mode: ModeValue, typ: v.Type, expr: e.Args[0]})
			}
		} else {
			ops = append(ops, x)
		}
	} else {
		for i, arg := range e.Args {
			var x operand
			tc.exprWithHint(&x, arg, paramType(i))
			ops = append(ops, x)
		}
	}

	fixed := len(params)
	if sig.Variadic && !e.Spread {
		fixed--
	}
	switch {
	case len(ops) < fixed:
		tc.report(diag.SemaTooFewArguments, e.Sp, "Too few arguments for `%s`, expected %d, got %d", name, fixed, len(ops))
		return
	case len(ops) > fixed && !(sig.Variadic && !e.Spread):
		tc.report(diag.SemaTooManyArguments, e.Sp, "Too many arguments for `%s`, expected %d, got %d", name, len(params), len(ops))
		return
	}

	for i := range ops {
		x := &ops[i]
		if x.invalid() {
			continue
		}
		tc.assignmentArg(x, paramType(i), "argument", true)
	}
}
