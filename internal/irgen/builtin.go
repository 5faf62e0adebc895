package irgen

import (
	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/ir"
	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

// builtin lowers a call of a builtin procedure whose result is not a
// constant.
func (pg *procGen) builtin(e *ast.CallExpr, id symbols.BuiltinID, tv check.TypeAndValue) ir.Value {
	g, in := pg.g, pg.g.in
	args := e.Args
	switch id {
	case symbols.BuiltinNew:
		t := in.Elem(tv.Type)
		p := pg.alloc(ir.ConstI(g.intT, g.size(t)), g.align(t))
		return castPtr(pg.b, p, g.lbType(tv.Type))

	case symbols.BuiltinNewSlice:
		elem := in.Elem(tv.Type)
		n := pg.indexValue(args[1])
		capacity := n
		if len(args) > 2 {
			capacity = pg.indexValue(args[2])
		}
		bytes := pg.b.Binary(ir.Mul, capacity, ir.ConstI(g.intT, g.size(elem)))
		p := pg.alloc(bytes, g.align(elem))
		return pg.makeSlice(tv.Type, p, n, capacity)

	case symbols.BuiltinDelete:
		v := pg.expr(args[0])
		if in.IsSlice(g.info.TypeOf(args[0])) {
			v, _, _ = pg.sliceParts(v)
		}
		rt := g.runtimeProc(lower.RuntimeFree)
		pg.b.Call(rt.Sig, rt.Ref(), castPtr(pg.b, v, ir.I8P))
		return nil

	case symbols.BuiltinTypeInfo:
		return g.typeInfoPtr(g.info.TypeOf(args[0]))

	case symbols.BuiltinAssert:
		c := pg.truth(pg.expr(args[0]))
		fail := pg.newBlock("assert.fail")
		ok := pg.newBlock("assert.ok")
		pg.b.CondBr(c, ok, fail)
		pg.b.SetBlock(fail)
		file, line, col := pg.location(args[0].Span())
		rt := g.runtimeProc(lower.RuntimeAssertFail)
		pg.b.Call(rt.Sig, rt.Ref(), file, line, col)
		pg.b.Unreachable()
		pg.b.SetBlock(ok)
		return nil

	case symbols.BuiltinLen, symbols.BuiltinCap:
		if in.IsMap(g.info.TypeOf(args[0])) {
			g.failf("len of a map needs the llvm backend")
		}
		v := pg.expr(args[0])
		if in.IsString(g.info.TypeOf(args[0])) {
			_, n := pg.stringParts(v)
			return n
		}
		_, n, capacity := pg.sliceParts(v)
		if id == symbols.BuiltinCap {
			return capacity
		}
		return n

	case symbols.BuiltinCopy:
		return pg.copySlice(args[0], args[1])

	case symbols.BuiltinAppend:
		return pg.appendItems(args)

	case symbols.BuiltinSwizzle:
		v := pg.expr(args[0])
		if len(args) == 1 {
			return v
		}
		mask := make([]int64, len(args)-1)
		for i, a := range args[1:] {
			mask[i], _ = g.info.Types[a].Value.Int64()
		}
		return pg.b.Shuffle(v, ir.Undef(v.Type()), mask)

	case symbols.BuiltinPtrOffset:
		p := pg.expr(args[0])
		return pg.b.GEP(p.Type().Elem, p, p.Type(), pg.indexValue(args[1]))

	case symbols.BuiltinPtrSub:
		x, y := pg.expr(args[0]), pg.expr(args[1])
		pt := g.info.TypeOf(args[0])
		return pg.pointerArith(token.Sub, pt, x, pt, y)

	case symbols.BuiltinSlicePtr:
		p := pg.expr(args[0])
		n := pg.indexValue(args[1])
		capacity := n
		if len(args) > 2 {
			capacity = pg.indexValue(args[2])
		}
		return pg.makeSlice(tv.Type, p, n, capacity)

	case symbols.BuiltinMin, symbols.BuiltinMax:
		x := pg.exprTo(args[0], tv.Type)
		y := pg.exprTo(args[1], tv.Type)
		return pg.minMax(id == symbols.BuiltinMin, tv.Type, x, y)

	case symbols.BuiltinAbs:
		return pg.abs(pg.exprTo(args[0], tv.Type), tv.Type)

	case symbols.BuiltinAtomicLoad, symbols.BuiltinAtomicStore, symbols.BuiltinAtomicAdd,
		symbols.BuiltinAtomicSub, symbols.BuiltinAtomicXchg, symbols.BuiltinAtomicCas:
		return pg.atomic(e, id)
	}
	g.failf("cannot lower builtin %s", id)
	return nil
}

func (pg *procGen) alloc(size ir.Value, align int64) ir.Value {
	rt := pg.g.runtimeProc(lower.RuntimeAlloc)
	return pg.b.Call(rt.Sig, rt.Ref(), size, ir.ConstI(pg.g.intT, align))
}

// copySlice moves min(len(dst), len(src)) elements and returns the count.
func (pg *procGen) copySlice(dstArg, srcArg ast.Expr) ir.Value {
	g, in := pg.g, pg.g.in
	dt := g.info.TypeOf(dstArg)
	dst, dn, _ := pg.sliceParts(pg.expr(dstArg))
	var src, sn ir.Value
	if sv := pg.expr(srcArg); in.IsString(g.info.TypeOf(srcArg)) {
		src, sn = pg.stringParts(sv)
	} else {
		src, sn, _ = pg.sliceParts(sv)
	}
	n := pg.b.Select(pg.b.Cmp(ir.SLT, dn, sn), dn, sn)
	bytes := pg.b.Binary(ir.Mul, n, ir.ConstI(g.intT, g.size(in.Elem(dt))))
	rt := g.runtimeProc(lower.RuntimeMemmove)
	pg.b.Call(rt.Sig, rt.Ref(), castPtr(pg.b, dst, ir.I8P), castPtr(pg.b, src, ir.I8P), bytes)
	return n
}

// appendItems lays the new elements out in a stack array and lets the
// runtime grow the slice behind the pointer.
func (pg *procGen) appendItems(args []ast.Expr) ir.Value {
	g, in := pg.g, pg.g.in
	p := pg.expr(args[0])
	elem := in.Elem(in.Elem(g.info.TypeOf(args[0])))
	items := args[1:]
	var data ir.Value = ir.Null(ir.I8P)
	if len(items) > 0 {
		arr := in.Array(elem, int64(len(items)))
		backing := pg.temp(arr, "")
		for i, it := range items {
			ptr := pg.b.GEP(g.lbType(arr), backing, ir.Ptr(g.lbType(elem)), ir.ConstI(g.intT, 0), ir.ConstI(g.intT, int64(i)))
			pg.b.Store(pg.exprTo(it, elem), ptr)
		}
		data = castPtr(pg.b, backing, ir.I8P)
	}
	rt := g.runtimeProc(lower.RuntimeAppend)
	return pg.b.Call(rt.Sig, rt.Ref(),
		castPtr(pg.b, p, ir.I8P),
		ir.ConstI(g.intT, g.size(elem)),
		ir.ConstI(g.intT, g.align(elem)),
		data,
		ir.ConstI(g.intT, int64(len(items))))
}

func (pg *procGen) minMax(isMin bool, t types.TypeID, x, y ir.Value) ir.Value {
	in := pg.g.in
	var pred ir.Pred
	switch {
	case in.IsFloat(t):
		pred = ir.OGT
		if isMin {
			pred = ir.OLT
		}
	case in.IsUnsigned(t):
		pred = ir.UGT
		if isMin {
			pred = ir.ULT
		}
	default:
		pred = ir.SGT
		if isMin {
			pred = ir.SLT
		}
	}
	return pg.b.Select(pg.b.Cmp(pred, x, y), x, y)
}

// abs returns |x|; for complex values the magnitude in the real part.
func (pg *procGen) abs(x ir.Value, t types.TypeID) ir.Value {
	in := pg.g.in
	switch {
	case in.IsComplex(t):
		re, im := pg.complexParts(x)
		sq := pg.b.Binary(ir.FAdd, pg.b.Binary(ir.FMul, re, re), pg.b.Binary(ir.FMul, im, im))
		sqrt := pg.g.intrinsic("llvm.sqrt", re.Type())
		mag := pg.b.Call(sqrt.Sig, sqrt.Ref(), sq)
		return pg.makeComplex(x.Type(), mag, ir.ConstF(re.Type(), 0))
	case in.IsFloat(t):
		neg := pg.b.Cmp(ir.OLT, x, ir.ConstF(x.Type(), 0))
		return pg.b.Select(neg, pg.negFloat(x), x)
	case in.IsUnsigned(t):
		return x
	}
	neg := pg.b.Cmp(ir.SLT, x, ir.ConstI(x.Type(), 0))
	return pg.b.Select(neg, pg.b.Binary(ir.Sub, ir.ConstI(x.Type(), 0), x), x)
}

// intrinsic declares a unary LLVM floating point intrinsic.
func (g *Generator) intrinsic(base string, t *ir.Type) *ir.Proc {
	name := base + ".f32"
	if t.Bits == 64 {
		name = base + ".f64"
	}
	if p := g.mod.LookupProc(name); p != nil {
		return p
	}
	p := g.mod.NewProc(name, ir.Func(t, false, t), nil)
	p.Foreign = true
	return p
}

func (pg *procGen) atomic(e *ast.CallExpr, id symbols.BuiltinID) ir.Value {
	g, in := pg.g, pg.g.in
	args := e.Args
	pt := g.info.TypeOf(args[0])
	elem := in.Elem(pt)
	align := g.align(elem)
	p := pg.expr(args[0])
	switch id {
	case symbols.BuiltinAtomicLoad:
		return pg.b.AtomicLoad(g.lbType(elem), p, align)
	case symbols.BuiltinAtomicStore:
		pg.b.AtomicStore(pg.exprTo(args[1], elem), p, align)
		return nil
	case symbols.BuiltinAtomicAdd:
		return pg.b.AtomicRMW(ir.Add, p, pg.exprTo(args[1], elem))
	case symbols.BuiltinAtomicSub:
		return pg.b.AtomicRMW(ir.Sub, p, pg.exprTo(args[1], elem))
	case symbols.BuiltinAtomicXchg:
		v := pg.exprTo(args[1], elem)
		if !v.Type().IsPtr() {
			return pg.b.AtomicRMW(ir.Xchg, p, v)
		}
		// atomicrmw only exchanges integers
		ip := castPtr(pg.b, p, ir.Ptr(g.intT))
		old := pg.b.AtomicRMW(ir.Xchg, ip, pg.b.Conv(ir.PtrToInt, v, g.intT))
		return pg.b.Conv(ir.IntToPtr, old, v.Type())
	case symbols.BuiltinAtomicCas:
		old := pg.exprTo(args[1], elem)
		nu := pg.exprTo(args[2], elem)
		r := pg.b.CmpXchg(p, old, nu)
		return pg.b.ExtractValue(r, old.Type(), 0)
	}
	g.failf("cannot lower builtin %s", id)
	return nil
}
