package llvm

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/ast"
	"odinc/internal/lower"
	"odinc/internal/types"
)

// exprTo lowers e and converts it to t.
func (fe *funcEmitter) exprTo(e ast.Expr, t types.TypeID) value.Value {
	return fe.convert(fe.expr(e), fe.m.s.info.TypeOf(e), t)
}

// tupleElem returns result i of a multi-value expression, converted to
// to unless it is NoTypeID. Results of split calls are read back from
// their out slots.
func (fe *funcEmitter) tupleElem(v value.Value, tt types.TypeID, i int, to types.TypeID) value.Value {
	m, in := fe.m, fe.m.s.in
	tup, ok := in.Tuple(in.Base(tt))
	if !ok || i >= len(tup.Vars) {
		m.failf("value %d of %s", i, in.TypeString(tt))
	}
	et := tup.Vars[i].Type
	var elem value.Value
	switch fix, split := fe.tupleFix[v]; {
	case split && i < len(fix.slots):
		elem = fe.load(fix.types[i], fix.slots[i])
	case split:
		elem = v
	default:
		elem = fe.blk().NewExtractValue(v, uint64(m.fieldSlot(tt, i)))
	}
	if to == types.NoTypeID {
		return elem
	}
	return fe.convert(elem, et, to)
}

// convert covers both implicit conversions (assignment to any, unions and
// from nil) and explicit "as" casts the checker accepted.
func (fe *funcEmitter) convert(v value.Value, from, to types.TypeID) value.Value {
	m, in := fe.m, fe.m.s.in
	if from == to || to == types.NoTypeID {
		return v
	}
	lt := m.lbType(to)
	if in.IsNil(from) {
		return zeroOf(lt)
	}
	if in.IsAny(to) && !in.IsAny(from) {
		return fe.boxAny(v, from)
	}
	if in.IsUnion(to) && !in.Identical(in.Base(from), in.Base(to)) {
		if _, ok := m.s.low.UnionShape(to).Tag(in, from); ok {
			return fe.unionValue(v, from, to)
		}
	}
	if lltypes.Equal(v.Type(), lt) {
		return v
	}

	fu, tu := in.Underlying(from), in.Underlying(to)
	vt := v.Type()
	b := fe.blk()
	switch {
	case in.IsBoolean(tu) && !in.IsBoolean(fu) && in.IsInteger(fu):
		return fe.fromI1(b.NewICmp(enum.IPredNE, v, constI(vt, 0)), lt)
	case (in.IsInteger(fu) || in.IsBoolean(fu)) && (in.IsInteger(tu) || in.IsBoolean(tu)):
		return intCast(b, v, lt, !in.IsUnsigned(fu) && !in.IsBoolean(fu))
	case in.IsInteger(fu) && in.IsFloat(tu):
		if in.IsUnsigned(fu) {
			return b.NewUIToFP(v, lt)
		}
		return b.NewSIToFP(v, lt)
	case in.IsFloat(fu) && in.IsInteger(tu):
		if in.IsUnsigned(tu) {
			return b.NewFPToUI(v, lt)
		}
		return b.NewFPToSI(v, lt)
	case in.IsFloat(fu) && in.IsFloat(tu):
		return fe.floatCast(v, lt)
	case in.IsComplex(fu) && in.IsComplex(tu):
		re, im := fe.complexParts(v)
		e := lt.(*lltypes.StructType).Fields[0]
		return fe.makeComplex(lt, fe.floatCast(re, e), fe.floatCast(im, e))
	case (in.IsPointer(fu) || in.IsProc(fu)) && (in.IsPointer(tu) || in.IsProc(tu)):
		return castPtr(b, v, lt)
	case in.IsInteger(fu) && isPtr(lt):
		return b.NewIntToPtr(intCast(b, v, m.intT, !in.IsUnsigned(fu)), lt)
	case isPtr(vt) && in.IsInteger(tu):
		return intCast(b, b.NewPtrToInt(v, m.intT), lt, false)
	case in.IsU8Slice(fu) && in.IsString(tu):
		data, n, _ := fe.sliceParts(v)
		return fe.makeString(data, n)
	case in.IsString(fu) && in.IsU8Slice(tu):
		data, n := fe.stringParts(v)
		return fe.makeSlice(to, data, n, n)
	}
	// same layout, different lowered spelling
	return fe.reinterpret(v, from, to)
}

func (fe *funcEmitter) floatCast(v value.Value, to lltypes.Type) value.Value {
	fb, tb := bitsOf(v.Type()), bitsOf(to)
	switch {
	case fb == tb:
		return v
	case fb > tb:
		return fe.blk().NewFPTrunc(v, to)
	}
	return fe.blk().NewFPExt(v, to)
}

// reinterpret moves a value through memory to read it back as another
// type of the same size.
func (fe *funcEmitter) reinterpret(v value.Value, from, to types.TypeID) value.Value {
	m := fe.m
	size := max(m.size(from), m.size(to))
	align := max(m.align(from), m.align(to))
	slot := fe.alloca(lltypes.NewArray(m.u64(size), lltypes.I8), align, "")
	b := fe.blk()
	b.NewStore(v, castPtr(b, slot, lltypes.NewPointer(v.Type())))
	lt := m.lbType(to)
	return b.NewLoad(lt, castPtr(b, slot, lltypes.NewPointer(lt)))
}

// boxAny spills v and pairs its address with the typeid of its type.
func (fe *funcEmitter) boxAny(v value.Value, from types.TypeID) value.Value {
	m := fe.m
	addr := fe.spill(v, from)
	b := fe.blk()
	var box value.Value = constant.NewUndef(m.anyT)
	box = b.NewInsertValue(box, castPtr(b, addr, lltypes.I8Ptr), lower.AnyData)
	return b.NewInsertValue(box, constI(m.intT, int64(from)), lower.AnyType)
}

// transmute reinterprets the bits of v; the checker guarantees equal sizes.
func (fe *funcEmitter) transmute(v value.Value, from, to types.TypeID) value.Value {
	lt := fe.m.lbType(to)
	vt := v.Type()
	b := fe.blk()
	switch {
	case lltypes.Equal(vt, lt):
		return v
	case isPtr(vt) && isPtr(lt):
		return castPtr(b, v, lt)
	case isPtr(vt) && isInt(lt):
		return b.NewPtrToInt(v, lt)
	case isInt(vt) && isPtr(lt):
		return b.NewIntToPtr(v, lt)
	case (isInt(vt) || isFloat(vt)) && (isInt(lt) || isFloat(lt)):
		return b.NewBitCast(v, lt)
	}
	return fe.reinterpret(v, from, to)
}

// downCast steps a pointer to an embedded field back to the record that
// embeds it.
func (fe *funcEmitter) downCast(e *ast.BinaryExpr, to types.TypeID) value.Value {
	m, in := fe.m, fe.m.s.in
	dc, ok := m.s.info.DownCasts[e]
	if !ok {
		m.failf("down_cast without a recorded path")
	}
	var off int64
	cur := in.Elem(to)
	for _, idx := range dc.Path {
		o, err := m.s.layout.OffsetOf(cur, idx)
		if err != nil {
			m.failf("down_cast offset: %v", err)
		}
		off += o
		rec, _ := in.Record(in.Base(cur))
		cur = rec.Fields[idx].Type
	}
	b := fe.blk()
	p := castPtr(b, fe.expr(e.X), lltypes.I8Ptr)
	if off != 0 {
		p = fe.blk().NewGetElementPtr(lltypes.I8, p, constI(m.intT, -off))
	}
	return castPtr(fe.blk(), p, m.lbType(to))
}

// usingArg passes a struct, or a pointer to one, where a parameter expects
// one of its anonymous fields.
func (fe *funcEmitter) usingArg(e ast.Expr, path []int, to types.TypeID) value.Value {
	in := fe.m.s.in
	st := fe.m.s.info.TypeOf(e)
	var ptr value.Value
	cur := st
	byPtr := in.IsTypedPointer(st)
	if byPtr {
		ptr = fe.expr(e)
		cur = in.Elem(st)
	} else {
		ptr = fe.addr(e)
	}
	for i, idx := range path {
		if i > 0 && in.IsTypedPointer(cur) {
			ptr = fe.load(cur, ptr)
			cur = in.Elem(cur)
		}
		ptr, cur = fe.fieldAddr(ptr, cur, idx)
	}
	if byPtr && !in.IsTypedPointer(cur) {
		return castPtr(fe.blk(), ptr, fe.m.lbType(to))
	}
	return fe.convert(fe.load(cur, ptr), cur, to)
}
