package irgen

import (
	"odinc/internal/ast"
	"odinc/internal/ir"
	"odinc/internal/layout"
	"odinc/internal/lower"
	"odinc/internal/types"
)

// exprTo lowers e and converts it to t.
func (pg *procGen) exprTo(e ast.Expr, t types.TypeID) ir.Value {
	return pg.convert(pg.expr(e), pg.g.info.TypeOf(e), t)
}

// tupleElem extracts result i of a multi-value aggregate and converts it.
func (pg *procGen) tupleElem(v ir.Value, tt types.TypeID, i int, to types.TypeID) ir.Value {
	tup, ok := pg.g.in.Tuple(pg.g.in.Base(tt))
	if !ok || i >= len(tup.Vars) {
		pg.g.failf("value %d of %s", i, pg.g.in.TypeString(tt))
	}
	et := tup.Vars[i].Type
	elem := pg.b.ExtractValue(v, pg.g.lbType(et), pg.g.fieldSlot(tt, i))
	if to == types.NoTypeID {
		return elem
	}
	return pg.convert(elem, et, to)
}

// convert covers both implicit conversions (assignment to any, unions and
// from nil) and explicit "as" casts the checker accepted.
func (pg *procGen) convert(v ir.Value, from, to types.TypeID) ir.Value {
	g, in := pg.g, pg.g.in
	if from == to || to == types.NoTypeID {
		return v
	}
	lt := g.lbType(to)
	if in.IsNil(from) {
		return zeroOf(lt)
	}
	if in.IsAny(to) && !in.IsAny(from) {
		return pg.boxAny(v, from)
	}
	if in.IsUnion(to) && !in.Identical(in.Base(from), in.Base(to)) {
		if _, ok := g.low.UnionShape(to).Tag(in, from); ok {
			return pg.unionValue(v, from, to)
		}
	}
	if v.Type().Equal(lt) {
		return v
	}

	fu, tu := in.Underlying(from), in.Underlying(to)
	vt := v.Type()
	switch {
	case in.IsBoolean(tu) && !in.IsBoolean(fu) && in.IsInteger(fu):
		return pg.fromI1(pg.b.Cmp(ir.NE, v, ir.ConstI(vt, 0)), lt)
	case (in.IsInteger(fu) || in.IsBoolean(fu)) && (in.IsInteger(tu) || in.IsBoolean(tu)):
		return g.intCast(pg.b, v, lt, !in.IsUnsigned(fu) && !in.IsBoolean(fu))
	case in.IsInteger(fu) && in.IsFloat(tu):
		if in.IsUnsigned(fu) {
			return pg.b.Conv(ir.UIToFP, v, lt)
		}
		return pg.b.Conv(ir.SIToFP, v, lt)
	case in.IsFloat(fu) && in.IsInteger(tu):
		if in.IsUnsigned(tu) {
			return pg.b.Conv(ir.FPToUI, v, lt)
		}
		return pg.b.Conv(ir.FPToSI, v, lt)
	case in.IsFloat(fu) && in.IsFloat(tu):
		return pg.floatCast(v, lt)
	case in.IsComplex(fu) && in.IsComplex(tu):
		re, im := pg.complexParts(v)
		e := complexElem(lt)
		return pg.makeComplex(lt, pg.floatCast(re, e), pg.floatCast(im, e))
	case (in.IsPointer(fu) || in.IsProc(fu)) && (in.IsPointer(tu) || in.IsProc(tu)):
		return castPtr(pg.b, v, lt)
	case in.IsInteger(fu) && lt.IsPtr():
		return pg.b.Conv(ir.IntToPtr, g.intCast(pg.b, v, g.intT, !in.IsUnsigned(fu)), lt)
	case vt.IsPtr() && in.IsInteger(tu):
		return g.intCast(pg.b, pg.b.Conv(ir.PtrToInt, v, g.intT), lt, false)
	case in.IsU8Slice(fu) && in.IsString(tu):
		data, n, _ := pg.sliceParts(v)
		return pg.makeString(data, n)
	case in.IsString(fu) && in.IsU8Slice(tu):
		data, n := pg.stringParts(v)
		return pg.makeSlice(to, data, n, n)
	}
	// same layout, different lowered spelling
	return pg.reinterpret(v, from, to)
}

func (pg *procGen) floatCast(v ir.Value, to *ir.Type) ir.Value {
	from := v.Type()
	switch {
	case from.Bits == to.Bits:
		return v
	case from.Bits > to.Bits:
		return pg.b.Conv(ir.FPTrunc, v, to)
	}
	return pg.b.Conv(ir.FPExt, v, to)
}

// reinterpret moves a value through memory to read it back as another
// type of the same size.
func (pg *procGen) reinterpret(v ir.Value, from, to types.TypeID) ir.Value {
	size := max(pg.g.size(from), pg.g.size(to))
	align := max(pg.g.align(from), pg.g.align(to))
	slot := pg.b.Alloca(ir.Array(size, ir.I8), align, "")
	pg.b.Store(v, castPtr(pg.b, slot, ir.Ptr(v.Type())))
	lt := pg.g.lbType(to)
	return pg.b.Load(lt, castPtr(pg.b, slot, ir.Ptr(lt)))
}

// boxAny spills v and pairs its address with the typeid of its type.
func (pg *procGen) boxAny(v ir.Value, from types.TypeID) ir.Value {
	g := pg.g
	addr := pg.spill(v, from)
	var box ir.Value = ir.Undef(ir.AnyT)
	box = pg.b.InsertValue(box, castPtr(pg.b, addr, ir.I8P), lower.AnyData)
	return pg.b.InsertValue(box, ir.ConstI(g.intT, int64(from)), lower.AnyType)
}

// unionValue stores a variant into a union and sets its tag. A nil
// source yields the zero union, which holds no variant.
func (pg *procGen) unionValue(v ir.Value, from, to types.TypeID) ir.Value {
	g := pg.g
	shape := g.low.UnionShape(to)
	lt := g.lbType(to)
	if g.in.IsNil(from) {
		return zeroOf(lt)
	}
	switch shape.Repr {
	case layout.UnionEmpty:
		return ir.Zero(lt)
	case layout.UnionMaybePointer:
		return castPtr(pg.b, v, lt)
	}
	tag, _ := shape.Tag(g.in, from)
	slot := pg.zeroTemp(to, "")
	pg.b.Store(v, castPtr(pg.b, slot, ir.Ptr(v.Type())))
	tagPtr := pg.b.GEP(lt, slot, ir.Ptr(g.intT), ir.ConstI(ir.I32, 0), ir.ConstI(ir.I32, unionTag))
	pg.b.Store(ir.ConstI(g.intT, tag), tagPtr)
	return pg.b.Load(lt, slot)
}

// transmute reinterprets the bits of v; the checker guarantees equal sizes.
func (pg *procGen) transmute(v ir.Value, from, to types.TypeID) ir.Value {
	lt := pg.g.lbType(to)
	vt := v.Type()
	switch {
	case vt.Equal(lt):
		return v
	case vt.IsPtr() && lt.IsPtr():
		return castPtr(pg.b, v, lt)
	case vt.IsPtr() && lt.IsInt():
		return pg.b.Conv(ir.PtrToInt, v, lt)
	case vt.IsInt() && lt.IsPtr():
		return pg.b.Conv(ir.IntToPtr, v, lt)
	case (vt.IsInt() || vt.IsFloat()) && (lt.IsInt() || lt.IsFloat()):
		return pg.b.Conv(ir.BitCast, v, lt)
	}
	return pg.reinterpret(v, from, to)
}

// downCast steps a pointer to an embedded field back to the record that
// embeds it.
func (pg *procGen) downCast(e *ast.BinaryExpr, to types.TypeID) ir.Value {
	g, in := pg.g, pg.g.in
	dc, ok := g.info.DownCasts[e]
	if !ok {
		g.failf("down_cast without a recorded path")
	}
	var off int64
	cur := in.Elem(to)
	for _, idx := range dc.Path {
		o, err := g.info.Layout.OffsetOf(cur, idx)
		if err != nil {
			g.failf("down_cast offset: %v", err)
		}
		off += o
		rec, _ := in.Record(in.Base(cur))
		cur = rec.Fields[idx].Type
	}
	p := castPtr(pg.b, pg.expr(e.X), ir.I8P)
	if off != 0 {
		p = pg.b.GEP(ir.I8, p, ir.I8P, ir.ConstI(g.intT, -off))
	}
	return castPtr(pg.b, p, g.lbType(to))
}

// usingArg passes a struct, or a pointer to one, where a parameter expects
// one of its anonymous fields.
func (pg *procGen) usingArg(e ast.Expr, path []int, to types.TypeID) ir.Value {
	in := pg.g.in
	st := pg.g.info.TypeOf(e)
	var ptr ir.Value
	cur := st
	byPtr := in.IsTypedPointer(st)
	if byPtr {
		ptr = pg.expr(e)
		cur = in.Elem(st)
	} else {
		ptr = pg.addr(e)
	}
	for i, idx := range path {
		if i > 0 && in.IsTypedPointer(cur) {
			ptr = pg.load(cur, ptr)
			cur = in.Elem(cur)
		}
		ptr, cur = pg.fieldAddr(ptr, cur, idx)
	}
	if byPtr && !in.IsTypedPointer(cur) {
		return castPtr(pg.b, ptr, pg.g.lbType(to))
	}
	return pg.convert(pg.load(cur, ptr), cur, to)
}
