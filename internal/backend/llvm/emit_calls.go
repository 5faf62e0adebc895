package llvm

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

// callArg is a logical argument. Arguments bound to indirect parameters
// may carry the address of the caller's storage instead of a value.
type callArg struct {
	v    value.Value
	addr value.Value
}

// calleeEntity returns the procedure a call names directly, if any.
func (fe *funcEmitter) calleeEntity(fun ast.Expr) *symbols.Entity {
	info := fe.m.s.info
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

func (fe *funcEmitter) call(e *ast.CallExpr) value.Value {
	m, in := fe.m, fe.m.s.in
	ftv := m.s.info.Types[e.Fun]
	if ftv.Mode == check.ModeBuiltin {
		return fe.builtin(e, fe.builtinID(e.Fun), m.s.info.Types[e])
	}
	ft := ftv.Type
	sig, ok := in.Proc(in.Base(ft))
	if !ok {
		m.failf("call of non-procedure %s", ast.ExprString(e.Fun))
	}

	ent := fe.calleeEntity(e.Fun)
	var callee value.Value
	if ent != nil {
		callee = m.findProcedureValue(ent)
	} else {
		callee = fe.expr(e.Fun)
	}
	args, extra := fe.callArgs(e, sig, m.s.low.ClassifyProc(ft))
	r := fe.emitCall(ft, callee, args, extra)
	if ent != nil && ent.Deferred.Proc != nil {
		fe.scheduleHook(ent, sig, args, r)
	}
	return r
}

func (fe *funcEmitter) builtinID(fun ast.Expr) symbols.BuiltinID {
	id, ok := ast.Unparen(fun).(*ast.Ident)
	if ok {
		if ent := fe.m.s.info.EntityOf(id); ent != nil && ent.Kind == symbols.EntityBuiltin {
			return ent.BuiltinID
		}
	}
	fe.m.failf("unresolved builtin %s", ast.ExprString(fun))
	return symbols.BuiltinInvalid
}

type operandValue struct {
	v value.Value
	t types.TypeID
}

// callArgs evaluates the arguments left to right and matches them with the
// parameters. Odin variadic arguments are packed into a slice over a stack
// array; the variadic arguments of a c procedure come back separately,
// promoted as C varargs.
func (fe *funcEmitter) callArgs(e *ast.CallExpr, sig *types.ProcInfo, abi *lower.ProcABI) (args []callArg, extra []value.Value) {
	m, in, info := fe.m, fe.m.s.in, fe.m.s.info
	var params []types.Field
	if tup, ok := in.Tuple(sig.Params); ok {
		params = tup.Vars
	}

	fixed := len(params)
	packed := sig.Variadic && !e.Spread
	if packed {
		fixed--
	}

	args = make([]callArg, len(params))
	var ops []operandValue
	if len(e.Args) == 1 && !e.Spread && in.IsTuple(info.TypeOf(e.Args[0])) {
		tt := info.TypeOf(e.Args[0])
		tv := fe.expr(e.Args[0])
		tup, _ := in.Tuple(in.Base(tt))
		for i, v := range tup.Vars {
			ops = append(ops, operandValue{fe.tupleElem(tv, tt, i, types.NoTypeID), v.Type})
		}
	} else {
		for i, a := range e.Args {
			if path, ok := info.UsingArgs[a]; ok && i < len(params) && !(sig.Variadic && i == len(params)-1) {
				pt := params[i].Type
				ops = append(ops, operandValue{fe.usingArg(a, path, pt), pt})
				continue
			}
			if i < fixed && fe.aliasable(abi.Params[i], a) {
				args[i] = callArg{addr: fe.addr(a)}
				ops = append(ops, operandValue{})
				continue
			}
			ops = append(ops, operandValue{fe.expr(a), info.TypeOf(a)})
		}
	}

	for i := 0; i < fixed && i < len(ops); i++ {
		if args[i].addr != nil {
			continue
		}
		args[i] = callArg{v: fe.convert(ops[i].v, ops[i].t, params[i].Type)}
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
				v, t = fe.convert(v, t, elem), elem
			}
			extra = append(extra, fe.promoteVararg(v, t))
		}
		return args, extra
	}
	if len(rest) == 0 {
		args[len(params)-1] = callArg{v: zeroOf(m.lbType(slice))}
		return args, nil
	}
	arr := in.Array(elem, int64(len(rest)))
	backing := fe.temp(arr, "")
	for i, op := range rest {
		ptr := fe.gep(m.lbType(arr), backing, constI(m.intT, 0), constI(m.intT, int64(i)))
		fe.storePlain(fe.convert(op.v, op.t, elem), ptr, elem)
	}
	data := fe.gep(m.lbType(arr), backing, constI(m.intT, 0), constI(m.intT, 0))
	n := constI(m.intT, int64(len(rest)))
	args[len(params)-1] = callArg{v: fe.makeSlice(slice, data, n, n)}
	return args, nil
}

// aliasable reports whether the argument's own storage can be passed to an
// indirect parameter instead of a copy.
func (fe *funcEmitter) aliasable(p lower.ParamABI, arg ast.Expr) bool {
	m := fe.m
	if p.NoAlias || p.Class != lower.Indirect {
		return false
	}
	if !isAddressable(m.s.info, arg) {
		return false
	}
	return m.s.in.Identical(m.s.info.TypeOf(arg), p.Type)
}

// promoteVararg applies the C default argument promotions.
func (fe *funcEmitter) promoteVararg(v value.Value, t types.TypeID) value.Value {
	vt := v.Type()
	switch {
	case isFloat(vt) && bitsOf(vt) < 64:
		return fe.blk().NewFPExt(v, lltypes.Double)
	case isInt(vt) && bitsOf(vt) < 32:
		in := fe.m.s.in
		signed := in.IsInteger(t) && !in.IsUnsigned(t)
		return intCast(fe.blk(), v, lltypes.I32, signed)
	}
	return v
}

// argValue returns the value of a logical argument of type t.
func (fe *funcEmitter) argValue(a callArg, t types.TypeID) value.Value {
	if a.v != nil {
		return a.v
	}
	return fe.load(t, a.addr)
}

// passArg produces the raw operand of a parameter: direct values as they
// are, indirect ones as a pointer to the caller's storage, to a hoisted
// constant or to a private copy.
func (fe *funcEmitter) passArg(p lower.ParamABI, a callArg, raw lltypes.Type) value.Value {
	b := fe.blk()
	if p.Class == lower.Direct {
		v := fe.argValue(a, p.Type)
		if isPtr(v.Type()) && isPtr(raw) {
			v = castPtr(b, v, raw)
		}
		return v
	}
	if a.addr != nil {
		return castPtr(b, a.addr, raw)
	}
	if c, ok := a.v.(constant.Constant); ok {
		return castPtr(b, fe.m.hoistConst(c, p.Type), raw)
	}
	return castPtr(b, fe.spill(a.v, p.Type), raw)
}

// hoistConst places c in a private constant global.
func (m *Module) hoistConst(c constant.Constant, t types.TypeID) *ir.Global {
	g := m.mod.NewGlobalDef(fmt.Sprintf("__$const.%d", m.hoisted), c)
	m.hoisted++
	private(g)
	g.Align = ir.Align(m.align(t))
	return g
}

// emitCall marshals logical arguments to the raw convention of ft and
// emits the call. Split multi-returns allocate their out slots here and
// register them in the tuple-fix table under the returned value.
func (fe *funcEmitter) emitCall(ft types.TypeID, callee value.Value, args []callArg, extra []value.Value) value.Value {
	m := fe.m
	abi := m.s.low.ClassifyProc(ft)
	fnT := m.rawFuncType(ft)
	cVariadic := abi.Variadic && abi.Conv == types.ConvC
	raw := make([]value.Value, 0, len(fnT.Params)+len(extra))
	var sret value.Value
	var outs []value.Value
	for _, rp := range abi.Raw {
		switch rp.Kind {
		case lower.RawSRet:
			sret = fe.temp(rp.Type, "")
			raw = append(raw, sret)
		case lower.RawArg:
			if cVariadic && rp.Index == len(abi.Params)-1 {
				continue
			}
			raw = append(raw, fe.passArg(abi.Params[rp.Index], args[rp.Index], fnT.Params[len(raw)]))
		case lower.RawOut:
			slot := fe.temp(rp.Type, "")
			outs = append(outs, slot)
			raw = append(raw, slot)
		case lower.RawContext:
			raw = append(raw, fe.context())
		}
	}
	raw = append(raw, extra...)

	b := fe.blk()
	if f, ok := callee.(*ir.Func); !ok || !lltypes.Equal(f.Sig, fnT) {
		callee = castPtr(b, callee, lltypes.NewPointer(fnT))
	}
	call := b.NewCall(callee, raw...)

	var r value.Value
	switch {
	case abi.Result == types.NoTypeID:
		return nil
	case abi.ResultClass == lower.Indirect:
		r = fe.load(abi.Result, sret)
	default:
		r = call
	}
	if abi.Split {
		fe.tupleFix[r] = &tupleFix{slots: outs, types: abi.Results[:len(abi.Results)-1]}
	}
	return r
}

// scheduleHook spills the values a deferred hook receives and queues the
// hook on the innermost scope.
func (fe *funcEmitter) scheduleHook(ent *symbols.Entity, sig *types.ProcInfo, args []callArg, r value.Value) {
	in := fe.m.s.in
	hook := ent.Deferred.Proc
	var vals []value.Value
	if ent.Deferred.Kind == symbols.DeferredIn || ent.Deferred.Kind == symbols.DeferredInOut {
		if tup, ok := in.Tuple(sig.Params); ok {
			for i, a := range args {
				if a.v == nil && a.addr == nil {
					continue
				}
				vals = append(vals, fe.argValue(a, tup.Vars[i].Type))
			}
		}
	}
	if ent.Deferred.Kind == symbols.DeferredOut || ent.Deferred.Kind == symbols.DeferredInOut {
		switch n := in.TupleLen(sig.Results); {
		case n == 1:
			vals = append(vals, r)
		case n > 1:
			for i := range n {
				vals = append(vals, fe.tupleElem(r, sig.Results, i, types.NoTypeID))
			}
		}
	}
	d := deferred{hook: hook}
	for _, v := range vals {
		if v == nil {
			continue
		}
		slot := fe.alloca(v.Type(), 0, "")
		fe.blk().NewStore(v, slot)
		d.args = append(d.args, spilled{addr: slot, typ: v.Type()})
	}
	fe.deferItem(d)
}
