package irgen

import (
	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/ir"
	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

// calleeEntity returns the procedure a call names directly, if any.
func (pg *procGen) calleeEntity(fun ast.Expr) *symbols.Entity {
	info := pg.g.info
	var ent *symbols.Entity
	switch f := ast.Unparen(fun).(type) {
	case *ast.Ident:
		ent = info.EntityOf(f)
	case *ast.SelectorExpr:
		if sel, ok := info.Selections[f]; ok {
			ent = sel.Entity
		}
	}
	if ent == nil || ent.Kind != symbols.EntityProcedure {
		return nil
	}
	return ent
}

func (pg *procGen) call(e *ast.CallExpr) ir.Value {
	g := pg.g
	ftv := g.info.Types[e.Fun]
	if ftv.Mode == check.ModeBuiltin {
		return pg.builtin(e, pg.builtinID(e.Fun), g.info.Types[e])
	}
	ft := ftv.Type
	sig, ok := g.in.Proc(g.in.Base(ft))
	if !ok {
		g.failf("call of non-procedure %s", ast.ExprString(e.Fun))
	}

	ent := pg.calleeEntity(e.Fun)
	var callee ir.Value
	if ent != nil {
		callee = g.procValue(ent).Ref()
	} else {
		callee = pg.expr(e.Fun)
	}
	args, extra := pg.callArgs(e, sig)
	r := pg.invoke(ft, callee, args, extra)
	if ent != nil && ent.Deferred.Proc != nil {
		pg.scheduleHook(ent, sig, args, r)
	}
	return r
}

func (pg *procGen) builtinID(fun ast.Expr) symbols.BuiltinID {
	id, ok := ast.Unparen(fun).(*ast.Ident)
	if ok {
		if ent := pg.g.info.EntityOf(id); ent != nil && ent.Kind == symbols.EntityBuiltin {
			return ent.BuiltinID
		}
	}
	pg.g.failf("unresolved builtin %s", ast.ExprString(fun))
	return symbols.BuiltinInvalid
}

type operandValue struct {
	v ir.Value
	t types.TypeID
}

// callArgs evaluates the arguments left to right and matches them with the
// parameters. Odin variadic arguments are packed into a slice over a stack
// array; the variadic arguments of a c procedure come back separately,
// promoted as C varargs.
func (pg *procGen) callArgs(e *ast.CallExpr, sig *types.ProcInfo) (args, extra []ir.Value) {
	g, in := pg.g, pg.g.in
	var params []types.Field
	if tup, ok := in.Tuple(sig.Params); ok {
		params = tup.Vars
	}

	var ops []operandValue
	if len(e.Args) == 1 && !e.Spread && in.IsTuple(g.info.TypeOf(e.Args[0])) {
		tt := g.info.TypeOf(e.Args[0])
		tv := pg.expr(e.Args[0])
		tup, _ := in.Tuple(in.Base(tt))
		for i, v := range tup.Vars {
			ops = append(ops, operandValue{pg.tupleElem(tv, tt, i, types.NoTypeID), v.Type})
		}
	} else {
		for i, a := range e.Args {
			if path, ok := g.info.UsingArgs[a]; ok && i < len(params) && !(sig.Variadic && i == len(params)-1) {
				pt := params[i].Type
				ops = append(ops, operandValue{pg.usingArg(a, path, pt), pt})
				continue
			}
			ops = append(ops, operandValue{pg.expr(a), g.info.TypeOf(a)})
		}
	}

	fixed := len(params)
	packed := sig.Variadic && !e.Spread
	if packed {
		fixed--
	}
	args = make([]ir.Value, len(params))
	for i := 0; i < fixed && i < len(ops); i++ {
		args[i] = pg.convert(ops[i].v, ops[i].t, params[i].Type)
	}
	if !packed {
		return args, nil
	}

	rest := ops[min(fixed, len(ops)):]
	slice := params[len(params)-1].Type
	elem := in.Elem(slice)
	if sig.CallConv == types.ConvC {
		for _, op := range rest {
			v, t := op.v, op.t
			if !in.IsAny(elem) {
				v, t = pg.convert(v, t, elem), elem
			}
			extra = append(extra, pg.promoteVararg(v, t))
		}
		return args, extra
	}
	if len(rest) == 0 {
		args[len(params)-1] = ir.Zero(g.lbType(slice))
		return args, nil
	}
	arr := in.Array(elem, int64(len(rest)))
	backing := pg.temp(arr, "")
	et := g.lbType(elem)
	for i, op := range rest {
		ptr := pg.b.GEP(g.lbType(arr), backing, ir.Ptr(et), ir.ConstI(g.intT, 0), ir.ConstI(g.intT, int64(i)))
		pg.b.Store(pg.convert(op.v, op.t, elem), ptr)
	}
	data := pg.b.GEP(g.lbType(arr), backing, g.pointerTo(elem), ir.ConstI(g.intT, 0), ir.ConstI(g.intT, 0))
	n := ir.ConstI(g.intT, int64(len(rest)))
	args[len(params)-1] = pg.makeSlice(slice, data, n, n)
	return args, nil
}

// promoteVararg applies the C default argument promotions.
func (pg *procGen) promoteVararg(v ir.Value, t types.TypeID) ir.Value {
	vt := v.Type()
	switch {
	case vt.IsFloat() && vt.Bits < 64:
		return pg.b.Conv(ir.FPExt, v, ir.F64)
	case vt.IsInt() && vt.Bits < 32:
		signed := pg.g.in.IsInteger(t) && !pg.g.in.IsUnsigned(t)
		return pg.g.intCast(pg.b, v, ir.I32, signed)
	}
	return v
}

// invoke marshals logical arguments to the raw convention of ft and emits
// the call. Indirect parameters are passed a pointer to a private copy.
func (pg *procGen) invoke(ft types.TypeID, callee ir.Value, args, extra []ir.Value) ir.Value {
	g := pg.g
	abi := g.low.ClassifyProc(ft)
	cVariadic := abi.Variadic && abi.Conv == types.ConvC
	raw := make([]ir.Value, 0, len(args)+len(extra)+1)
	for i, p := range abi.Params {
		if cVariadic && i == len(abi.Params)-1 {
			break
		}
		v := args[i]
		if p.Class == lower.Indirect {
			v = pg.spill(v, p.Type)
		}
		raw = append(raw, v)
	}
	raw = append(raw, extra...)
	if abi.Context {
		raw = append(raw, pg.context())
	}
	fnType := g.sigType(ft)
	callee = castPtr(pg.b, callee, ir.Ptr(fnType))
	r := pg.b.Call(fnType, callee, raw...)
	if fnType.Ret.Kind == ir.TypeVoid {
		return nil
	}
	return r
}

// context returns the implicit context pointer. Procedures of the c
// convention have none and fetch the default one at each call.
func (pg *procGen) context() ir.Value {
	if pg.ctx != nil {
		return pg.ctx
	}
	rt := pg.g.runtimeProc(lower.RuntimeContext)
	return pg.b.Call(rt.Sig, rt.Ref())
}

// scheduleHook spills the values a deferred hook receives and queues the
// hook on the innermost scope.
func (pg *procGen) scheduleHook(ent *symbols.Entity, sig *types.ProcInfo, args []ir.Value, r ir.Value) {
	hook := ent.Deferred.Proc
	var vals []ir.Value
	if ent.Deferred.Kind == symbols.DeferredIn || ent.Deferred.Kind == symbols.DeferredInOut {
		vals = append(vals, args...)
	}
	if ent.Deferred.Kind == symbols.DeferredOut || ent.Deferred.Kind == symbols.DeferredInOut {
		switch n := pg.g.in.TupleLen(sig.Results); {
		case n == 1:
			vals = append(vals, r)
		case n > 1:
			for i := range n {
				vals = append(vals, pg.tupleElem(r, sig.Results, i, types.NoTypeID))
			}
		}
	}
	d := deferred{hook: hook}
	for _, v := range vals {
		if v == nil {
			continue
		}
		slot := pg.b.Alloca(v.Type(), 0, "")
		pg.b.Store(v, slot)
		d.args = append(d.args, spilled{addr: slot, typ: v.Type()})
	}
	pg.deferItem(d)
}
