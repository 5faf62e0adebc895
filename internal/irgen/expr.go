package irgen

import (
	"math"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/ir"
	"odinc/internal/layout"
	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

// expr lowers a single expression. Calls without results yield nil;
// calls with several results yield their tuple aggregate.
func (pg *procGen) expr(e ast.Expr) ir.Value {
	g := pg.g
	tv, ok := g.info.Types[e]
	if !ok {
		g.failf("no type recorded for %s", ast.ExprString(e))
	}
	if tv.IsConstant() {
		if c := g.constValue(tv.Value, tv.Type); c != nil {
			return c
		}
	}
	switch n := e.(type) {
	case *ast.ParenExpr:
		return pg.expr(n.X)
	case *ast.Ident:
		return pg.ident(n, tv)
	case *ast.ProcLit:
		p, ok := g.lits[n]
		if !ok {
			g.failf("procedure literal was not declared")
		}
		return p.Ref()
	case *ast.CompositeLit:
		return pg.load(tv.Type, pg.compositeLit(n, tv.Type))
	case *ast.SelectorExpr:
		return pg.selector(n, tv)
	case *ast.IndexExpr:
		return pg.index(n, tv)
	case *ast.SliceExpr:
		return pg.sliceExpr(n, tv)
	case *ast.DerefExpr:
		return pg.load(tv.Type, pg.expr(n.X))
	case *ast.CallExpr:
		return pg.call(n)
	case *ast.UnaryExpr:
		return pg.unary(n, tv)
	case *ast.BinaryExpr:
		return pg.binary(n, tv)
	}
	g.failf("cannot lower expression %s", ast.ExprString(e))
	return nil
}

func (pg *procGen) ident(id *ast.Ident, tv check.TypeAndValue) ir.Value {
	ent := pg.g.info.EntityOf(id)
	if ent == nil {
		pg.g.failf("unresolved identifier %s", id.Name)
	}
	switch ent.Kind {
	case symbols.EntityVariable:
		return pg.load(tv.Type, pg.varAddr(ent))
	case symbols.EntityProcedure:
		return pg.g.procValue(ent).Ref()
	case symbols.EntityNil:
		return zeroOf(pg.g.lbType(tv.Type))
	}
	pg.g.failf("%s %s has no value", ent.Kind, id.Name)
	return nil
}

// varAddr returns the storage of a variable. Fields injected by a using
// parameter are reached from the parameter along their path.
func (pg *procGen) varAddr(ent *symbols.Entity) ir.Value {
	if a, ok := pg.locals[ent]; ok {
		return a
	}
	if gl, ok := pg.g.globals[ent]; ok {
		return gl
	}
	if ent.UsingParent != nil {
		ptr := pg.varAddr(ent.UsingParent)
		cur := ent.UsingParent.Type
		if pg.g.in.IsTypedPointer(cur) {
			ptr = pg.load(cur, ptr)
			cur = pg.g.in.Elem(cur)
		}
		for _, idx := range ent.UsingPath {
			ptr, cur = pg.fieldAddr(ptr, cur, idx)
		}
		return ptr
	}
	pg.g.failf("variable %s has no storage", ent.Name)
	return nil
}

// fieldAddr returns the address of logical field i of the struct, raw
// union or tuple stored at ptr, and the field's type.
func (pg *procGen) fieldAddr(ptr ir.Value, rec types.TypeID, i int) (ir.Value, types.TypeID) {
	g := pg.g
	base := g.in.Base(rec)
	var ft types.TypeID
	if tup, ok := g.in.Tuple(base); ok {
		ft = tup.Vars[i].Type
	} else if info, ok := g.in.Record(base); ok {
		ft = info.Fields[i].Type
		if info.Kind == types.RecordRawUnion {
			return castPtr(pg.b, ptr, ir.Ptr(g.lbType(ft))), ft
		}
	} else {
		g.failf("field %d of %s", i, g.in.TypeString(rec))
	}
	slot := g.fieldSlot(rec, i)
	return pg.b.GEP(g.lbType(rec), ptr, ir.Ptr(g.lbType(ft)), ir.ConstI(ir.I32, 0), ir.ConstI(ir.I32, slot)), ft
}

// addr returns the address of e, spilling values that have no storage.
func (pg *procGen) addr(e ast.Expr) ir.Value {
	info := pg.g.info
	switch n := e.(type) {
	case *ast.ParenExpr:
		return pg.addr(n.X)
	case *ast.Ident:
		if ent := info.EntityOf(n); ent != nil && ent.Kind == symbols.EntityVariable {
			return pg.varAddr(ent)
		}
	case *ast.SelectorExpr:
		if sel, ok := info.Selections[n]; ok && sel.Entity.Kind == symbols.EntityVariable {
			return pg.selectorAddr(n)
		}
	case *ast.IndexExpr:
		if !pg.g.in.IsString(info.TypeOf(n.X)) {
			return pg.indexAddr(n)
		}
	case *ast.DerefExpr:
		return pg.expr(n.X)
	case *ast.CompositeLit:
		return pg.compositeLit(n, info.TypeOf(n))
	}
	return pg.spill(pg.expr(e), info.TypeOf(e))
}

func (pg *procGen) selector(e *ast.SelectorExpr, tv check.TypeAndValue) ir.Value {
	sel, ok := pg.g.info.Selections[e]
	if !ok {
		pg.g.failf("unresolved selector %s", ast.ExprString(e))
	}
	if sel.Entity.Kind == symbols.EntityProcedure {
		return pg.g.procValue(sel.Entity).Ref()
	}
	return pg.load(tv.Type, pg.selectorAddr(e))
}

// selectorAddr walks the selection path; pointers met on the way are
// loaded before the next field is indexed.
func (pg *procGen) selectorAddr(e *ast.SelectorExpr) ir.Value {
	in := pg.g.in
	sel := pg.g.info.Selections[e]
	xt := pg.g.info.TypeOf(e.X)
	var ptr ir.Value
	cur := xt
	if in.IsTypedPointer(xt) {
		ptr = pg.expr(e.X)
		cur = in.Elem(xt)
	} else {
		ptr = pg.addr(e.X)
	}
	for _, idx := range sel.Index {
		if in.IsTypedPointer(cur) {
			ptr = pg.load(cur, ptr)
			cur = in.Elem(cur)
		}
		ptr, cur = pg.fieldAddr(ptr, cur, idx)
	}
	return ptr
}

// indexValue lowers an index or count operand to int.
func (pg *procGen) indexValue(e ast.Expr) ir.Value {
	t := pg.g.info.TypeOf(e)
	return pg.g.intCast(pg.b, pg.expr(e), pg.g.intT, !pg.g.in.IsUnsigned(t))
}

func (pg *procGen) constIndex(e ast.Expr) bool {
	return pg.g.info.Types[e].IsConstant()
}

// boundsCheck traps unless 0 <= idx < n.
func (pg *procGen) boundsCheck(at ast.Expr, idx, n ir.Value) {
	if !pg.g.info.BoundsCheck {
		return
	}
	fail := pg.newBlock("bounds.fail")
	ok := pg.newBlock("bounds.ok")
	pg.b.CondBr(pg.b.Cmp(ir.UGE, idx, n), fail, ok)
	pg.b.SetBlock(fail)
	file, line, col := pg.location(at.Span())
	rt := pg.g.runtimeProc(lower.RuntimeBoundsCheck)
	pg.b.Call(rt.Sig, rt.Ref(), file, line, col, idx, n)
	pg.b.Unreachable()
	pg.b.SetBlock(ok)
}

func (pg *procGen) indexAddr(e *ast.IndexExpr) ir.Value {
	g, in := pg.g, pg.g.in
	xt := g.info.TypeOf(e.X)
	var ptr ir.Value
	agg := xt
	switch {
	case in.IsTypedPointer(xt):
		ptr = pg.expr(e.X)
		agg = in.Elem(xt)
	case in.IsSlice(xt):
		sv := pg.expr(e.X)
		data, n, _ := pg.sliceParts(sv)
		idx := pg.indexValue(e.Index)
		pg.boundsCheck(e.Index, idx, n)
		return pg.b.GEP(data.Type().Elem, data, data.Type(), idx)
	default:
		ptr = pg.addr(e.X)
	}
	idx := pg.indexValue(e.Index)
	if !pg.constIndex(e.Index) {
		count, _ := in.Lookup(in.Base(agg))
		pg.boundsCheck(e.Index, idx, ir.ConstI(g.intT, count.Count))
	}
	elem := g.lbType(in.Elem(agg))
	return pg.b.GEP(g.lbType(agg), ptr, ir.Ptr(elem), ir.ConstI(g.intT, 0), idx)
}

func (pg *procGen) index(e *ast.IndexExpr, tv check.TypeAndValue) ir.Value {
	in := pg.g.in
	xt := pg.g.info.TypeOf(e.X)
	switch {
	case in.IsString(xt):
		sv := pg.expr(e.X)
		data, n := pg.stringParts(sv)
		idx := pg.indexValue(e.Index)
		pg.boundsCheck(e.Index, idx, n)
		return pg.b.Load(ir.I8, pg.b.GEP(ir.I8, data, ir.I8P, idx))
	case in.IsVector(xt) && !isAddressable(pg.g.info, e.X):
		v := pg.expr(e.X)
		idx := pg.indexValue(e.Index)
		if !pg.constIndex(e.Index) {
			count, _ := in.Lookup(in.Base(xt))
			pg.boundsCheck(e.Index, idx, ir.ConstI(pg.g.intT, count.Count))
		}
		return pg.b.ExtractElement(v, idx)
	}
	return pg.load(tv.Type, pg.indexAddr(e))
}

func isAddressable(info *check.Info, e ast.Expr) bool {
	return info.Types[e].Mode == check.ModeVariable
}

// sliceExpr lowers x[lo:hi:max] over strings, arrays, pointers to arrays
// and slices.
func (pg *procGen) sliceExpr(e *ast.SliceExpr, tv check.TypeAndValue) ir.Value {
	g, in := pg.g, pg.g.in
	xt := g.info.TypeOf(e.X)
	var data, n, capacity ir.Value
	switch {
	case in.IsString(xt):
		data, n = pg.stringParts(pg.expr(e.X))
		capacity = n
	case in.IsSlice(xt):
		data, n, capacity = pg.sliceParts(pg.expr(e.X))
	default:
		var ptr ir.Value
		arr := xt
		if in.IsTypedPointer(xt) {
			ptr = pg.expr(e.X)
			arr = in.Elem(xt)
		} else {
			ptr = pg.addr(e.X)
		}
		at, _ := in.Lookup(in.Base(arr))
		elemPtr := g.pointerTo(at.Elem)
		data = pg.b.GEP(g.lbType(arr), ptr, elemPtr, ir.ConstI(g.intT, 0), ir.ConstI(g.intT, 0))
		n = ir.ConstI(g.intT, at.Count)
		capacity = n
	}

	lo := ir.Value(ir.ConstI(g.intT, 0))
	if e.Low != nil {
		lo = pg.indexValue(e.Low)
	}
	hi := n
	if e.High != nil {
		hi = pg.indexValue(e.High)
	}
	limit := capacity
	if e.Max != nil {
		limit = pg.indexValue(e.Max)
	}
	pg.sliceCheck(e, lo, hi, limit)
	if e.Max != nil {
		pg.sliceCheck(e, hi, limit, capacity)
	}

	start := pg.b.GEP(data.Type().Elem, data, data.Type(), lo)
	length := pg.b.Binary(ir.Sub, hi, lo)
	if in.IsString(tv.Type) {
		return pg.makeString(start, length)
	}
	return pg.makeSlice(tv.Type, start, length, pg.b.Binary(ir.Sub, limit, lo))
}

// sliceCheck traps unless lo <= hi <= n.
func (pg *procGen) sliceCheck(at ast.Expr, lo, hi, n ir.Value) {
	if !pg.g.info.BoundsCheck {
		return
	}
	bad := pg.b.Binary(ir.Or, pg.b.Cmp(ir.UGT, lo, hi), pg.b.Cmp(ir.UGT, hi, n))
	fail := pg.newBlock("slice.fail")
	ok := pg.newBlock("slice.ok")
	pg.b.CondBr(bad, fail, ok)
	pg.b.SetBlock(fail)
	file, line, col := pg.location(at.Span())
	rt := pg.g.runtimeProc(lower.RuntimeSliceCheck)
	pg.b.Call(rt.Sig, rt.Ref(), file, line, col, lo, hi, n)
	pg.b.Unreachable()
	pg.b.SetBlock(ok)
}

// compositeLit builds a literal in a zeroed stack slot and returns its
// address.
func (pg *procGen) compositeLit(e *ast.CompositeLit, t types.TypeID) ir.Value {
	g, in := pg.g, pg.g.in
	slot := pg.zeroTemp(t, "")
	base := in.Base(t)
	switch in.KindOf(base) {
	case types.KindRecord:
		rec, _ := in.Record(base)
		for i, elt := range e.Elts {
			fi, val := i, elt
			if fv, ok := elt.(*ast.FieldValue); ok {
				fi, val = fieldIndex(rec, fv.Field.Name), fv.Value
			}
			ptr, ft := pg.fieldAddr(slot, t, fi)
			pg.b.Store(pg.exprTo(val, ft), ptr)
		}
	case types.KindArray, types.KindVector:
		bt, _ := in.Lookup(base)
		elem := g.lbType(bt.Elem)
		store := func(i int64, v ir.Value) {
			ptr := pg.b.GEP(g.lbType(t), slot, ir.Ptr(elem), ir.ConstI(g.intT, 0), ir.ConstI(g.intT, i))
			pg.b.Store(v, ptr)
		}
		if bt.Kind == types.KindVector && len(e.Elts) == 1 {
			v := pg.exprTo(e.Elts[0], bt.Elem)
			for i := range bt.Count {
				store(i, v)
			}
			break
		}
		for i, elt := range e.Elts {
			store(int64(i), pg.exprTo(elt, bt.Elem))
		}
	case types.KindSlice:
		elemT := in.Elem(base)
		n := int64(len(e.Elts))
		arr := in.Array(elemT, n)
		backing := pg.zeroTemp(arr, "")
		for i, elt := range e.Elts {
			ptr := pg.b.GEP(g.lbType(arr), backing, ir.Ptr(g.lbType(elemT)), ir.ConstI(g.intT, 0), ir.ConstI(g.intT, int64(i)))
			pg.b.Store(pg.exprTo(elt, elemT), ptr)
		}
		data := pg.b.GEP(g.lbType(arr), backing, g.pointerTo(elemT), ir.ConstI(g.intT, 0), ir.ConstI(g.intT, 0))
		count := ir.ConstI(g.intT, n)
		pg.b.Store(pg.makeSlice(t, data, count, count), slot)
	default:
		g.failf("cannot lower literal of type %s", in.TypeString(t))
	}
	return slot
}

func fieldIndex(rec *types.RecordInfo, name string) int {
	for i, f := range rec.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (pg *procGen) unary(e *ast.UnaryExpr, tv check.TypeAndValue) ir.Value {
	if e.Op == token.Pointer {
		return castPtr(pg.b, pg.addr(e.X), pg.g.lbType(tv.Type))
	}
	x := pg.expr(e.X)
	t := tv.Type
	lt := pg.g.lbType(t)
	switch e.Op {
	case token.Add:
		return x
	case token.Sub:
		return pg.negate(x, t)
	case token.Xor:
		return pg.b.Binary(ir.Xor, x, constLike(lt, -1))
	case token.Not:
		return pg.b.Binary(ir.Xor, x, constLike(lt, 1))
	}
	pg.g.failf("unknown unary operator %s", e.Op)
	return nil
}

func (pg *procGen) negate(x ir.Value, t types.TypeID) ir.Value {
	in := pg.g.in
	lt := x.Type()
	switch {
	case in.IsComplex(t):
		re, im := pg.complexParts(x)
		return pg.makeComplex(lt, pg.negFloat(re), pg.negFloat(im))
	case in.IsFloat(pg.scalar(t)):
		return pg.negFloat(x)
	}
	return pg.b.Binary(ir.Sub, ir.Zero(lt), x)
}

func (pg *procGen) negFloat(x ir.Value) ir.Value {
	return pg.b.Binary(ir.FSub, constFloatLike(x.Type(), math.Copysign(0, -1)), x)
}

// scalar returns the lane type of a vector, or t.
func (pg *procGen) scalar(t types.TypeID) types.TypeID {
	if pg.g.in.IsVector(t) {
		return pg.g.in.Elem(t)
	}
	return t
}

func (pg *procGen) binary(e *ast.BinaryExpr, tv check.TypeAndValue) ir.Value {
	info := pg.g.info
	switch e.Op {
	case token.KwAs:
		return pg.convert(pg.expr(e.X), info.TypeOf(e.X), tv.Type)
	case token.KwTransmute:
		return pg.transmute(pg.expr(e.X), info.TypeOf(e.X), tv.Type)
	case token.KwDownCast:
		return pg.downCast(e, tv.Type)
	case token.CmpAnd, token.CmpOr:
		return pg.logical(e, tv.Type)
	}
	x := pg.expr(e.X)
	y := pg.expr(e.Y)
	return pg.binaryValues(e, tv.Type, x, y)
}

// binaryValues applies the operator of e to already lowered operands;
// result is the recorded type of e.
func (pg *procGen) binaryValues(e *ast.BinaryExpr, result types.TypeID, x, y ir.Value) ir.Value {
	in := pg.g.in
	xt, yt := pg.g.info.TypeOf(e.X), pg.g.info.TypeOf(e.Y)
	switch {
	case e.Op.IsComparison() && pg.g.isNilExpr(e.Y):
		return pg.compareNil(e.Op, xt, x, result)
	case e.Op.IsComparison() && pg.g.isNilExpr(e.X):
		return pg.compareNil(e.Op, yt, y, result)
	case e.Op.IsComparison():
		return pg.compare(e.Op, xt, x, y, result)
	case e.Op.IsShift():
		return pg.shift(e.Op, xt, x, y)
	case (e.Op == token.Add || e.Op == token.Sub) && (in.IsTypedPointer(xt) || in.IsTypedPointer(yt)):
		return pg.pointerArith(e.Op, xt, x, yt, y)
	case in.IsComplex(xt):
		return pg.complexArith(e.Op, x, y)
	}
	return pg.arith(e.Op, xt, x, y)
}

func (pg *procGen) arith(op token.Kind, t types.TypeID, x, y ir.Value) ir.Value {
	in := pg.g.in
	s := pg.scalar(t)
	if in.IsFloat(s) {
		switch op {
		case token.Add:
			return pg.b.Binary(ir.FAdd, x, y)
		case token.Sub:
			return pg.b.Binary(ir.FSub, x, y)
		case token.Mul:
			return pg.b.Binary(ir.FMul, x, y)
		case token.Quo:
			return pg.b.Binary(ir.FDiv, x, y)
		case token.Mod:
			return pg.b.Binary(ir.FRem, x, y)
		}
		pg.g.failf("operator %s on %s", op, in.TypeString(t))
	}
	unsigned := in.IsUnsigned(s) || in.IsBoolean(s)
	switch op {
	case token.Add:
		return pg.b.Binary(ir.Add, x, y)
	case token.Sub:
		return pg.b.Binary(ir.Sub, x, y)
	case token.Mul:
		return pg.b.Binary(ir.Mul, x, y)
	case token.Quo:
		if unsigned {
			return pg.b.Binary(ir.UDiv, x, y)
		}
		return pg.b.Binary(ir.SDiv, x, y)
	case token.Mod:
		if unsigned {
			return pg.b.Binary(ir.URem, x, y)
		}
		return pg.b.Binary(ir.SRem, x, y)
	case token.And:
		return pg.b.Binary(ir.And, x, y)
	case token.Or:
		return pg.b.Binary(ir.Or, x, y)
	case token.Xor:
		return pg.b.Binary(ir.Xor, x, y)
	case token.AndNot:
		return pg.b.Binary(ir.And, x, pg.b.Binary(ir.Xor, y, constLike(y.Type(), -1)))
	}
	pg.g.failf("operator %s on %s", op, in.TypeString(t))
	return nil
}

func (pg *procGen) complexArith(op token.Kind, x, y ir.Value) ir.Value {
	a, b := pg.complexParts(x)
	c, d := pg.complexParts(y)
	bin := func(o ir.BinOp, l, r ir.Value) ir.Value { return pg.b.Binary(o, l, r) }
	var re, im ir.Value
	switch op {
	case token.Add:
		re, im = bin(ir.FAdd, a, c), bin(ir.FAdd, b, d)
	case token.Sub:
		re, im = bin(ir.FSub, a, c), bin(ir.FSub, b, d)
	case token.Mul:
		re = bin(ir.FSub, bin(ir.FMul, a, c), bin(ir.FMul, b, d))
		im = bin(ir.FAdd, bin(ir.FMul, a, d), bin(ir.FMul, b, c))
	case token.Quo:
		den := bin(ir.FAdd, bin(ir.FMul, c, c), bin(ir.FMul, d, d))
		re = bin(ir.FDiv, bin(ir.FAdd, bin(ir.FMul, a, c), bin(ir.FMul, b, d)), den)
		im = bin(ir.FDiv, bin(ir.FSub, bin(ir.FMul, b, c), bin(ir.FMul, a, d)), den)
	default:
		pg.g.failf("operator %s on complex values", op)
	}
	return pg.makeComplex(x.Type(), re, im)
}

// compare lowers a comparison and widens the i1 result to the recorded
// boolean type.
func (pg *procGen) compare(op token.Kind, t types.TypeID, x, y ir.Value, result types.TypeID) ir.Value {
	in := pg.g.in
	s := pg.scalar(t)
	var c ir.Value
	switch {
	case in.IsString(s):
		xd, xn := pg.stringParts(x)
		yd, yn := pg.stringParts(y)
		rt := pg.g.runtimeProc(lower.RuntimeStringCmp)
		r := pg.b.Call(rt.Sig, rt.Ref(), xd, xn, yd, yn)
		c = pg.b.Cmp(intPred(op, false), r, ir.ConstI(ir.I32, 0))
	case in.IsComplex(s):
		a, b := pg.complexParts(x)
		cc, d := pg.complexParts(y)
		eq := pg.b.Binary(ir.And, pg.b.Cmp(ir.OEQ, a, cc), pg.b.Cmp(ir.OEQ, b, d))
		c = eq
		if op == token.NotEq {
			c = pg.b.Binary(ir.Xor, eq, ir.ConstBool(true))
		}
	case in.IsFloat(s):
		if op == token.NotEq {
			eq := pg.b.Cmp(ir.OEQ, x, y)
			c = pg.b.Binary(ir.Xor, eq, constLike(eq.Type(), 1))
		} else {
			c = pg.b.Cmp(floatPred(op), x, y)
		}
	case in.IsPointer(s) || in.IsProc(s):
		if !x.Type().Equal(y.Type()) {
			y = castPtr(pg.b, y, x.Type())
		}
		c = pg.b.Cmp(intPred(op, true), x, y)
	default:
		c = pg.b.Cmp(intPred(op, in.IsUnsigned(s) || in.IsBoolean(s)), x, y)
	}
	return pg.fromI1(c, pg.g.lbType(result))
}

// compareNil tests v of type t against nil: a slice without data or
// length, an any without data or type, a union without a variant.
func (pg *procGen) compareNil(op token.Kind, t types.TypeID, v ir.Value, result types.TypeID) ir.Value {
	g, in := pg.g, pg.g.in
	var eq ir.Value
	switch {
	case in.IsUnion(t):
		switch g.low.UnionShape(t).Repr {
		case layout.UnionEmpty:
			eq = ir.ConstBool(true)
		case layout.UnionMaybePointer:
			eq = pg.b.Cmp(ir.EQ, v, zeroOf(v.Type()))
		default:
			eq = pg.b.Cmp(ir.EQ, pg.b.ExtractValue(v, g.intT, unionTag), ir.ConstI(g.intT, 0))
		}
	case in.IsSlice(t):
		data := pg.b.ExtractValue(v, g.pointerTo(in.Elem(t)), lower.SliceData)
		n := pg.b.ExtractValue(v, g.intT, lower.SliceLen)
		eq = pg.b.Binary(ir.Or, pg.b.Cmp(ir.EQ, data, zeroOf(data.Type())), pg.b.Cmp(ir.EQ, n, ir.ConstI(g.intT, 0)))
	case in.IsAny(t):
		data := pg.b.ExtractValue(v, ir.I8P, lower.AnyData)
		id := pg.b.ExtractValue(v, g.intT, lower.AnyType)
		eq = pg.b.Binary(ir.Or, pg.b.Cmp(ir.EQ, data, ir.Null(ir.I8P)), pg.b.Cmp(ir.EQ, id, ir.ConstI(g.intT, 0)))
	default:
		if !v.Type().IsPtr() && !v.Type().IsInt() {
			g.failf("comparing %s against nil", in.TypeString(t))
		}
		eq = pg.b.Cmp(ir.EQ, v, zeroOf(v.Type()))
	}
	if op == token.NotEq {
		eq = pg.b.Binary(ir.Xor, eq, ir.ConstBool(true))
	}
	return pg.fromI1(eq, g.lbType(result))
}

// isNilExpr reports the nil constant, possibly parenthesized.
func (g *Generator) isNilExpr(e ast.Expr) bool {
	id, ok := ast.Unparen(e).(*ast.Ident)
	if !ok {
		return false
	}
	ent := g.info.EntityOf(id)
	return ent != nil && ent.Kind == symbols.EntityNil
}

func intPred(op token.Kind, unsigned bool) ir.Pred {
	switch op {
	case token.CmpEq:
		return ir.EQ
	case token.NotEq:
		return ir.NE
	case token.Lt:
		if unsigned {
			return ir.ULT
		}
		return ir.SLT
	case token.LtEq:
		if unsigned {
			return ir.ULE
		}
		return ir.SLE
	case token.Gt:
		if unsigned {
			return ir.UGT
		}
		return ir.SGT
	}
	if unsigned {
		return ir.UGE
	}
	return ir.SGE
}

func floatPred(op token.Kind) ir.Pred {
	switch op {
	case token.CmpEq:
		return ir.OEQ
	case token.Lt:
		return ir.OLT
	case token.LtEq:
		return ir.OLE
	case token.Gt:
		return ir.OGT
	case token.GtEq:
		return ir.OGE
	}
	return ir.ONE
}

// shift lowers << and >>; amounts at or above the width yield 0, or the
// sign fill for an arithmetic right shift.
func (pg *procGen) shift(op token.Kind, t types.TypeID, x, y ir.Value) ir.Value {
	lt := x.Type()
	if lt.Kind == ir.TypeVector && y.Type().Kind != ir.TypeVector {
		y = pg.splat(pg.g.intCast(pg.b, y, lt.Elem, false), lt)
	} else {
		y = pg.resize(y, lt)
	}
	bits := int64(scalarType(lt).Bits)
	inRange := pg.b.Cmp(ir.ULT, y, constLike(lt, bits))
	if op == token.Shl {
		return pg.b.Select(inRange, pg.b.Binary(ir.Shl, x, y), ir.Zero(lt))
	}
	if pg.g.in.IsUnsigned(pg.scalar(t)) {
		return pg.b.Select(inRange, pg.b.Binary(ir.LShr, x, y), ir.Zero(lt))
	}
	fill := pg.b.Binary(ir.AShr, x, constLike(lt, bits-1))
	return pg.b.Select(inRange, pg.b.Binary(ir.AShr, x, y), fill)
}

// resize zero-extends or truncates an unsigned integer (or lanes of one)
// to the width of to.
func (pg *procGen) resize(v ir.Value, to *ir.Type) ir.Value {
	from := v.Type()
	fb, tb := scalarType(from).Bits, scalarType(to).Bits
	switch {
	case fb == tb:
		return v
	case fb > tb:
		return pg.b.Conv(ir.Trunc, v, to)
	}
	return pg.b.Conv(ir.ZExt, v, to)
}

func (pg *procGen) pointerArith(op token.Kind, xt types.TypeID, x ir.Value, yt types.TypeID, y ir.Value) ir.Value {
	g, in := pg.g, pg.g.in
	if in.IsTypedPointer(xt) && in.IsTypedPointer(yt) {
		size := g.size(in.Elem(xt))
		if size <= 0 {
			size = 1
		}
		d := pg.b.Binary(ir.Sub, pg.b.Conv(ir.PtrToInt, x, g.intT), pg.b.Conv(ir.PtrToInt, y, g.intT))
		return pg.b.Binary(ir.SDiv, d, ir.ConstI(g.intT, size))
	}
	p, i, it := x, y, yt
	if in.IsTypedPointer(yt) {
		p, i, it = y, x, xt
	}
	i = g.intCast(pg.b, i, g.intT, !in.IsUnsigned(it))
	if op == token.Sub {
		i = pg.b.Binary(ir.Sub, ir.ConstI(g.intT, 0), i)
	}
	return pg.b.GEP(p.Type().Elem, p, p.Type(), i)
}

// logical lowers && and || with short-circuit evaluation.
func (pg *procGen) logical(e *ast.BinaryExpr, result types.TypeID) ir.Value {
	x := pg.truth(pg.expr(e.X))
	from := pg.b.Block
	rhs := pg.newBlock("logic.rhs")
	done := pg.newBlock("logic.done")
	if e.Op == token.CmpAnd {
		pg.b.CondBr(x, rhs, done)
	} else {
		pg.b.CondBr(x, done, rhs)
	}
	pg.b.SetBlock(rhs)
	y := pg.truth(pg.expr(e.Y))
	end := pg.b.Block
	pg.b.Br(done)
	pg.b.SetBlock(done)
	phi := pg.b.Phi(ir.I1, []ir.Value{ir.ConstBool(e.Op == token.CmpOr), y}, []*ir.Block{from, end})
	return pg.fromI1(phi, pg.g.lbType(result))
}

// truth narrows a boolean value to i1.
func (pg *procGen) truth(v ir.Value) ir.Value {
	t := v.Type()
	if t.Equal(ir.I1) {
		return v
	}
	return pg.b.Cmp(ir.NE, v, ir.ConstI(t, 0))
}

func (pg *procGen) fromI1(v ir.Value, to *ir.Type) ir.Value {
	if scalarType(to).Bits == 1 {
		return v
	}
	return pg.b.Conv(ir.ZExt, v, to)
}

// splat broadcasts a scalar to every lane of vec.
func (pg *procGen) splat(v ir.Value, vec *ir.Type) ir.Value {
	var out ir.Value = ir.Undef(vec)
	for i := range vec.Len {
		out = pg.b.InsertElement(out, v, ir.ConstI(ir.I32, i))
	}
	return out
}

// Aggregate helpers.

func (pg *procGen) stringParts(v ir.Value) (data, n ir.Value) {
	ss := pg.g.low.StringShape()
	return pg.b.ExtractValue(v, ir.I8P, int64(ss.Data)), pg.b.ExtractValue(v, pg.g.intT, int64(ss.Len))
}

func (pg *procGen) makeString(data, n ir.Value) ir.Value {
	ss := pg.g.low.StringShape()
	var s ir.Value = ir.Undef(ir.StringT)
	s = pg.b.InsertValue(s, castPtr(pg.b, data, ir.I8P), int64(ss.Data))
	return pg.b.InsertValue(s, n, int64(ss.Len))
}

func (pg *procGen) sliceParts(v ir.Value) (data, n, capacity ir.Value) {
	t := v.Type()
	i := pg.g.intT
	return pg.b.ExtractValue(v, t.Fields[lower.SliceData], lower.SliceData),
		pg.b.ExtractValue(v, i, lower.SliceLen),
		pg.b.ExtractValue(v, i, lower.SliceCap)
}

func (pg *procGen) makeSlice(t types.TypeID, data, n, capacity ir.Value) ir.Value {
	lt := pg.g.lbType(t)
	var s ir.Value = ir.Undef(lt)
	s = pg.b.InsertValue(s, castPtr(pg.b, data, lt.Fields[lower.SliceData]), lower.SliceData)
	s = pg.b.InsertValue(s, n, lower.SliceLen)
	return pg.b.InsertValue(s, capacity, lower.SliceCap)
}

func complexElem(t *ir.Type) *ir.Type {
	if t.Equal(ir.Complex64T) {
		return ir.F32
	}
	return ir.F64
}

func (pg *procGen) complexParts(v ir.Value) (re, im ir.Value) {
	e := complexElem(v.Type())
	return pg.b.ExtractValue(v, e, 0), pg.b.ExtractValue(v, e, 1)
}

func (pg *procGen) makeComplex(t *ir.Type, re, im ir.Value) ir.Value {
	var c ir.Value = ir.Undef(t)
	c = pg.b.InsertValue(c, re, 0)
	return pg.b.InsertValue(c, im, 1)
}

// Value helpers.

func zeroOf(t *ir.Type) ir.Value {
	if t.IsPtr() {
		return ir.Null(t)
	}
	return ir.Zero(t)
}

func scalarType(t *ir.Type) *ir.Type {
	if t.Kind == ir.TypeVector {
		return t.Elem
	}
	return t
}

// constLike returns the integer constant v of type t, splatted for
// vectors.
func constLike(t *ir.Type, v int64) ir.Value {
	if t.Kind != ir.TypeVector {
		return ir.ConstI(t, v)
	}
	elems := make([]ir.Value, t.Len)
	for i := range elems {
		elems[i] = ir.ConstI(t.Elem, v)
	}
	return ir.Aggregate(t, elems...)
}

func constFloatLike(t *ir.Type, v float64) ir.Value {
	if t.Kind != ir.TypeVector {
		return ir.ConstF(t, v)
	}
	elems := make([]ir.Value, t.Len)
	for i := range elems {
		elems[i] = ir.ConstF(t.Elem, v)
	}
	return ir.Aggregate(t, elems...)
}

// castPtr bitcasts a pointer when its type differs from to.
func castPtr(b *ir.Builder, v ir.Value, to *ir.Type) ir.Value {
	if v.Type().Equal(to) {
		return v
	}
	if c, ok := v.(*ir.Const); ok {
		if c.Kind == ir.ConstNull {
			return ir.Null(to)
		}
		return ir.ConstCast(ir.BitCast, c, to)
	}
	return b.Conv(ir.BitCast, v, to)
}
