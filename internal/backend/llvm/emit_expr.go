package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/layout"
	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

// expr lowers a single expression. Calls without results yield nil.
func (fe *funcEmitter) expr(e ast.Expr) value.Value {
	m := fe.m
	tv, ok := m.s.info.Types[e]
	if !ok {
		m.failf("no type recorded for %s", ast.ExprString(e))
	}
	if tv.IsConstant() {
		if c := m.constValue(tv.Value, tv.Type); c != nil {
			return c
		}
	}
	switch n := e.(type) {
	case *ast.ParenExpr:
		return fe.expr(n.X)
	case *ast.Ident:
		return fe.ident(n, tv)
	case *ast.ProcLit:
		return m.procLitValue(n)
	case *ast.CompositeLit:
		return fe.load(tv.Type, fe.compositeLit(n, tv.Type))
	case *ast.SelectorExpr:
		return fe.selector(n, tv)
	case *ast.IndexExpr:
		return fe.index(n, tv)
	case *ast.SliceExpr:
		return fe.sliceExpr(n, tv)
	case *ast.DerefExpr:
		return fe.load(tv.Type, fe.expr(n.X))
	case *ast.CallExpr:
		return fe.call(n)
	case *ast.UnaryExpr:
		return fe.unary(n, tv)
	case *ast.BinaryExpr:
		return fe.binary(n, tv)
	}
	m.failf("cannot lower expression %s", ast.ExprString(e))
	return nil
}

func (fe *funcEmitter) ident(id *ast.Ident, tv check.TypeAndValue) value.Value {
	m := fe.m
	ent := m.s.info.EntityOf(id)
	if ent == nil {
		m.failf("unresolved identifier %s", id.Name)
	}
	switch ent.Kind {
	case symbols.EntityVariable:
		return fe.load(tv.Type, fe.varAddr(ent))
	case symbols.EntityProcedure:
		return m.findProcedureValue(ent)
	case symbols.EntityNil:
		return zeroOf(m.lbType(tv.Type))
	}
	m.failf("%s %s has no value", ent.Kind, id.Name)
	return nil
}

// varAddr returns the storage of a variable. Fields injected by a using
// parameter are reached from the parameter along their path.
func (fe *funcEmitter) varAddr(ent *symbols.Entity) value.Value {
	m := fe.m
	if a, ok := fe.locals[ent]; ok {
		return a
	}
	if ent.UsingParent != nil {
		ptr := fe.varAddr(ent.UsingParent)
		cur := ent.UsingParent.Type
		if m.s.in.IsTypedPointer(cur) {
			ptr = fe.load(cur, ptr)
			cur = m.s.in.Elem(cur)
		}
		for _, idx := range ent.UsingPath {
			ptr, cur = fe.fieldAddr(ptr, cur, idx)
		}
		return ptr
	}
	if _, global := m.s.names[ent]; global {
		return m.findValueFromEntity(ent)
	}
	m.failf("variable %s has no storage", ent.Name)
	return nil
}

// gep indexes through ptr viewed as a pointer to elem.
func (fe *funcEmitter) gep(elem lltypes.Type, ptr value.Value, idx ...value.Value) value.Value {
	b := fe.blk()
	return b.NewGetElementPtr(elem, castPtr(b, ptr, lltypes.NewPointer(elem)), idx...)
}

// fieldAddr returns the address of logical field i of the struct, raw
// union or tuple stored at ptr, and the field's type.
func (fe *funcEmitter) fieldAddr(ptr value.Value, rec types.TypeID, i int) (value.Value, types.TypeID) {
	m, in := fe.m, fe.m.s.in
	base := in.Base(rec)
	var ft types.TypeID
	if tup, ok := in.Tuple(base); ok {
		ft = tup.Vars[i].Type
	} else if info, ok := in.Record(base); ok {
		ft = info.Fields[i].Type
		if info.Kind == types.RecordRawUnion {
			return castPtr(fe.blk(), ptr, lltypes.NewPointer(m.lbType(ft))), ft
		}
	} else {
		m.failf("field %d of %s", i, in.TypeString(rec))
	}
	return fe.gep(m.lbType(rec), ptr, idx32(0), idx32(m.fieldSlot(rec, i))), ft
}

// addr returns the address of e, spilling values that have no storage.
func (fe *funcEmitter) addr(e ast.Expr) value.Value {
	info := fe.m.s.info
	switch n := e.(type) {
	case *ast.ParenExpr:
		return fe.addr(n.X)
	case *ast.Ident:
		if ent := info.EntityOf(n); ent != nil && ent.Kind == symbols.EntityVariable {
			return fe.varAddr(ent)
		}
	case *ast.SelectorExpr:
		if sel, ok := info.Selections[n]; ok && sel.Entity.Kind == symbols.EntityVariable && !fe.isBitFieldSel(n) {
			return fe.selectorAddr(n)
		}
	case *ast.IndexExpr:
		if !fe.m.s.in.IsString(info.TypeOf(n.X)) && !fe.isMapIndex(n) && !fe.isSoAIndex(n) {
			return fe.indexAddr(n)
		}
	case *ast.DerefExpr:
		return fe.expr(n.X)
	case *ast.CompositeLit:
		return fe.compositeLit(n, info.TypeOf(n))
	}
	return fe.spill(fe.expr(e), info.TypeOf(e))
}

// lvalue returns the assignable location e denotes.
func (fe *funcEmitter) lvalue(e ast.Expr) lbAddr {
	switch n := ast.Unparen(e).(type) {
	case *ast.IndexExpr:
		if fe.isMapIndex(n) {
			return fe.mapAddrOf(n)
		}
		if fe.isSoAIndex(n) {
			return fe.soaAddrOf(n)
		}
	case *ast.SelectorExpr:
		if fe.isBitFieldSel(n) {
			return fe.bitFieldAddrOf(n)
		}
	}
	return plainAddr{ptr: fe.addr(e), t: fe.m.s.info.TypeOf(e)}
}

func (fe *funcEmitter) isMapIndex(e *ast.IndexExpr) bool {
	return fe.m.s.in.IsMap(fe.m.s.info.TypeOf(e.X))
}

// isSoAIndex reports a[i] over a #soa array or a pointer to one.
func (fe *funcEmitter) isSoAIndex(e *ast.IndexExpr) bool {
	in := fe.m.s.in
	return in.IsSoA(in.Deref(fe.m.s.info.TypeOf(e.X)))
}

func (fe *funcEmitter) isBitFieldSel(e *ast.SelectorExpr) bool {
	info, in := fe.m.s.info, fe.m.s.in
	sel, ok := info.Selections[e]
	if !ok || sel.Entity == nil || sel.Entity.Kind != symbols.EntityVariable {
		return false
	}
	return in.IsBitField(in.Deref(info.TypeOf(e.X)))
}

func (fe *funcEmitter) mapAddrOf(e *ast.IndexExpr) mapAddr {
	info, in := fe.m.s.info, fe.m.s.in
	mt := info.TypeOf(e.X)
	kt := in.Key(mt)
	key := fe.spill(fe.exprTo(e.Index, kt), kt)
	return mapAddr{ptr: fe.addr(e.X), m: mt, key: key}
}

func (fe *funcEmitter) soaAddrOf(e *ast.IndexExpr) soaAddr {
	m, in := fe.m, fe.m.s.in
	xt := m.s.info.TypeOf(e.X)
	var ptr value.Value
	soa := xt
	if in.IsTypedPointer(xt) {
		ptr = fe.expr(e.X)
		soa = in.Elem(xt)
	} else {
		ptr = fe.addr(e.X)
	}
	idx := fe.indexValue(e.Index)
	if !fe.constIndex(e.Index) {
		fe.boundsCheck(e.Index, idx, constI(m.intT, in.Count(soa)))
	}
	return soaAddr{ptr: ptr, soa: soa, idx: idx}
}

func (fe *funcEmitter) bitFieldAddrOf(e *ast.SelectorExpr) bitFieldAddr {
	info, in := fe.m.s.info, fe.m.s.in
	sel := info.Selections[e]
	xt := info.TypeOf(e.X)
	var ptr value.Value
	owner := xt
	if in.IsTypedPointer(xt) {
		ptr = fe.expr(e.X)
		owner = in.Elem(xt)
	} else {
		ptr = fe.addr(e.X)
	}
	rec, _ := in.Record(in.Base(owner))
	f := rec.Fields[sel.Index[0]]
	return bitFieldAddr{ptr: ptr, t: f.Type, offset: f.BitOffset, size: f.BitSize}
}

func (fe *funcEmitter) selector(e *ast.SelectorExpr, tv check.TypeAndValue) value.Value {
	m := fe.m
	sel, ok := m.s.info.Selections[e]
	if !ok {
		m.failf("unresolved selector %s", ast.ExprString(e))
	}
	if sel.Entity.Kind == symbols.EntityProcedure {
		return m.findProcedureValue(sel.Entity)
	}
	if fe.isBitFieldSel(e) {
		return fe.bitFieldLoad(fe.bitFieldAddrOf(e))
	}
	return fe.load(tv.Type, fe.selectorAddr(e))
}

// selectorAddr walks the selection path; pointers met on the way are
// loaded before the next field is indexed.
func (fe *funcEmitter) selectorAddr(e *ast.SelectorExpr) value.Value {
	info, in := fe.m.s.info, fe.m.s.in
	sel := info.Selections[e]
	if ix, ok := ast.Unparen(e.X).(*ast.IndexExpr); ok && fe.isSoAIndex(ix) && len(sel.Index) > 0 {
		ptr, cur := fe.soaFieldAddr(fe.soaAddrOf(ix), sel.Index[0])
		return fe.walkFields(ptr, cur, sel.Index[1:])
	}
	xt := info.TypeOf(e.X)
	var ptr value.Value
	cur := xt
	if in.IsTypedPointer(xt) {
		ptr = fe.expr(e.X)
		cur = in.Elem(xt)
	} else {
		ptr = fe.addr(e.X)
	}
	return fe.walkFields(ptr, cur, sel.Index)
}

func (fe *funcEmitter) walkFields(ptr value.Value, cur types.TypeID, path []int) value.Value {
	in := fe.m.s.in
	for _, idx := range path {
		if in.IsTypedPointer(cur) {
			ptr = fe.load(cur, ptr)
			cur = in.Elem(cur)
		}
		ptr, cur = fe.fieldAddr(ptr, cur, idx)
	}
	return ptr
}

// indexValue lowers an index or count operand to int.
func (fe *funcEmitter) indexValue(e ast.Expr) value.Value {
	m := fe.m
	t := m.s.info.TypeOf(e)
	return intCast(fe.blk(), fe.expr(e), m.intT, !m.s.in.IsUnsigned(t))
}

func (fe *funcEmitter) constIndex(e ast.Expr) bool {
	return fe.m.s.info.Types[e].IsConstant()
}

// boundsCheck traps unless 0 <= idx < n.
func (fe *funcEmitter) boundsCheck(at ast.Expr, idx, n value.Value) {
	if !fe.m.s.info.BoundsCheck {
		return
	}
	fail := fe.newBlock("bounds.fail")
	ok := fe.newBlock("bounds.ok")
	b := fe.blk()
	b.NewCondBr(b.NewICmp(enum.IPredUGE, idx, n), fail, ok)
	fe.setBlock(fail)
	file, line, col := fe.location(at.Span())
	fail.NewCall(fe.m.runtimeFunc(lower.RuntimeBoundsCheck), file, line, col, idx, n)
	fail.NewUnreachable()
	fe.setBlock(ok)
}

func (fe *funcEmitter) indexAddr(e *ast.IndexExpr) value.Value {
	m, in := fe.m, fe.m.s.in
	xt := m.s.info.TypeOf(e.X)
	var ptr value.Value
	agg := xt
	switch {
	case in.IsTypedPointer(xt):
		ptr = fe.expr(e.X)
		agg = in.Elem(xt)
	case in.IsSlice(xt):
		data, n, _ := fe.sliceParts(fe.expr(e.X))
		idx := fe.indexValue(e.Index)
		fe.boundsCheck(e.Index, idx, n)
		return fe.blk().NewGetElementPtr(elemOf(data.Type()), data, idx)
	default:
		ptr = fe.addr(e.X)
	}
	idx := fe.indexValue(e.Index)
	if !fe.constIndex(e.Index) {
		count, _ := in.Lookup(in.Base(agg))
		fe.boundsCheck(e.Index, idx, constI(m.intT, count.Count))
	}
	return fe.gep(m.lbType(agg), ptr, constI(m.intT, 0), idx)
}

func (fe *funcEmitter) index(e *ast.IndexExpr, tv check.TypeAndValue) value.Value {
	m, in := fe.m, fe.m.s.in
	xt := m.s.info.TypeOf(e.X)
	switch {
	case fe.isMapIndex(e):
		return fe.mapLoad(fe.mapAddrOf(e))
	case fe.isSoAIndex(e):
		return fe.soaLoad(fe.soaAddrOf(e))
	case in.IsString(xt):
		data, n := fe.stringParts(fe.expr(e.X))
		idx := fe.indexValue(e.Index)
		fe.boundsCheck(e.Index, idx, n)
		b := fe.blk()
		return b.NewLoad(lltypes.I8, b.NewGetElementPtr(lltypes.I8, data, idx))
	case in.IsVector(xt) && !isAddressable(m.s.info, e.X):
		v := fe.expr(e.X)
		idx := fe.indexValue(e.Index)
		if !fe.constIndex(e.Index) {
			count, _ := in.Lookup(in.Base(xt))
			fe.boundsCheck(e.Index, idx, constI(m.intT, count.Count))
		}
		return fe.blk().NewExtractElement(v, idx)
	}
	return fe.load(tv.Type, fe.indexAddr(e))
}

func isAddressable(info *check.Info, e ast.Expr) bool {
	return info.Types[e].Mode == check.ModeVariable
}

// sliceExpr lowers x[lo:hi:max] over strings, arrays, pointers to arrays
// and slices.
func (fe *funcEmitter) sliceExpr(e *ast.SliceExpr, tv check.TypeAndValue) value.Value {
	m, in := fe.m, fe.m.s.in
	xt := m.s.info.TypeOf(e.X)
	var data, n, capacity value.Value
	switch {
	case in.IsString(xt):
		data, n = fe.stringParts(fe.expr(e.X))
		capacity = n
	case in.IsSlice(xt):
		data, n, capacity = fe.sliceParts(fe.expr(e.X))
	default:
		var ptr value.Value
		arr := xt
		if in.IsTypedPointer(xt) {
			ptr = fe.expr(e.X)
			arr = in.Elem(xt)
		} else {
			ptr = fe.addr(e.X)
		}
		at, _ := in.Lookup(in.Base(arr))
		data = fe.gep(m.lbType(arr), ptr, constI(m.intT, 0), constI(m.intT, 0))
		data = castPtr(fe.blk(), data, m.pointerTo(at.Elem))
		n = constI(m.intT, at.Count)
		capacity = n
	}

	var lo value.Value = constI(m.intT, 0)
	if e.Low != nil {
		lo = fe.indexValue(e.Low)
	}
	hi := n
	if e.High != nil {
		hi = fe.indexValue(e.High)
	}
	limit := capacity
	if e.Max != nil {
		limit = fe.indexValue(e.Max)
	}
	fe.sliceCheck(e, lo, hi, limit)
	if e.Max != nil {
		fe.sliceCheck(e, hi, limit, capacity)
	}

	b := fe.blk()
	start := b.NewGetElementPtr(elemOf(data.Type()), data, lo)
	length := b.NewSub(hi, lo)
	if in.IsString(tv.Type) {
		return fe.makeString(start, length)
	}
	return fe.makeSlice(tv.Type, start, length, fe.blk().NewSub(limit, lo))
}

// sliceCheck traps unless lo <= hi <= n.
func (fe *funcEmitter) sliceCheck(at ast.Expr, lo, hi, n value.Value) {
	if !fe.m.s.info.BoundsCheck {
		return
	}
	b := fe.blk()
	bad := b.NewOr(b.NewICmp(enum.IPredUGT, lo, hi), b.NewICmp(enum.IPredUGT, hi, n))
	fail := fe.newBlock("slice.fail")
	ok := fe.newBlock("slice.ok")
	b.NewCondBr(bad, fail, ok)
	fe.setBlock(fail)
	file, line, col := fe.location(at.Span())
	fail.NewCall(fe.m.runtimeFunc(lower.RuntimeSliceCheck), file, line, col, lo, hi, n)
	fail.NewUnreachable()
	fe.setBlock(ok)
}

// compositeLit builds a literal in a zeroed stack slot and returns its
// address.
func (fe *funcEmitter) compositeLit(e *ast.CompositeLit, t types.TypeID) value.Value {
	m, in := fe.m, fe.m.s.in
	slot := fe.zeroTemp(t, "")
	base := in.Base(t)
	switch in.KindOf(base) {
	case types.KindRecord:
		rec, _ := in.Record(base)
		for i, elt := range e.Elts {
			fi, val := i, elt
			if fv, ok := elt.(*ast.FieldValue); ok {
				fi, val = fieldIndex(rec, fv.Field.Name), fv.Value
			}
			ptr, ft := fe.fieldAddr(slot, t, fi)
			fe.storePlain(fe.exprTo(val, ft), ptr, ft)
		}
	case types.KindArray, types.KindVector:
		bt, _ := in.Lookup(base)
		store := func(i int64, v value.Value) {
			fe.storePlain(v, fe.gep(m.lbType(t), slot, constI(m.intT, 0), constI(m.intT, i)), bt.Elem)
		}
		if bt.Kind == types.KindVector && len(e.Elts) == 1 {
			v := fe.exprTo(e.Elts[0], bt.Elem)
			for i := range bt.Count {
				store(i, v)
			}
			break
		}
		for i, elt := range e.Elts {
			store(int64(i), fe.exprTo(elt, bt.Elem))
		}
	case types.KindSlice:
		elemT := in.Elem(base)
		n := int64(len(e.Elts))
		arr := in.Array(elemT, n)
		backing := fe.zeroTemp(arr, "")
		for i, elt := range e.Elts {
			ptr := fe.gep(m.lbType(arr), backing, constI(m.intT, 0), constI(m.intT, int64(i)))
			fe.storePlain(fe.exprTo(elt, elemT), ptr, elemT)
		}
		data := fe.gep(m.lbType(arr), backing, constI(m.intT, 0), constI(m.intT, 0))
		count := constI(m.intT, n)
		fe.storePlain(fe.makeSlice(t, data, count, count), slot, t)
	default:
		m.failf("cannot lower literal of type %s", in.TypeString(t))
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

func (fe *funcEmitter) unary(e *ast.UnaryExpr, tv check.TypeAndValue) value.Value {
	m := fe.m
	if e.Op == token.Pointer {
		return castPtr(fe.blk(), fe.addr(e.X), m.lbType(tv.Type))
	}
	x := fe.expr(e.X)
	t := tv.Type
	lt := m.lbType(t)
	switch e.Op {
	case token.Add:
		return x
	case token.Sub:
		return fe.negate(x, t)
	case token.Xor:
		return fe.blk().NewXor(x, constLike(lt, -1))
	case token.Not:
		return fe.blk().NewXor(x, constLike(lt, 1))
	}
	m.failf("unknown unary operator %s", e.Op)
	return nil
}

func (fe *funcEmitter) negate(x value.Value, t types.TypeID) value.Value {
	in := fe.m.s.in
	switch {
	case in.IsComplex(t):
		re, im := fe.complexParts(x)
		b := fe.blk()
		return fe.makeComplex(x.Type(), b.NewFNeg(re), b.NewFNeg(im))
	case in.IsFloat(fe.scalar(t)):
		return fe.blk().NewFNeg(x)
	}
	return fe.blk().NewSub(zeroOf(x.Type()), x)
}

// scalar returns the lane type of a vector, or t.
func (fe *funcEmitter) scalar(t types.TypeID) types.TypeID {
	if fe.m.s.in.IsVector(t) {
		return fe.m.s.in.Elem(t)
	}
	return t
}

func (fe *funcEmitter) binary(e *ast.BinaryExpr, tv check.TypeAndValue) value.Value {
	info := fe.m.s.info
	switch e.Op {
	case token.KwAs:
		return fe.convert(fe.expr(e.X), info.TypeOf(e.X), tv.Type)
	case token.KwTransmute:
		return fe.transmute(fe.expr(e.X), info.TypeOf(e.X), tv.Type)
	case token.KwDownCast:
		return fe.downCast(e, tv.Type)
	case token.CmpAnd, token.CmpOr:
		return fe.logical(e, tv.Type)
	}
	x := fe.expr(e.X)
	y := fe.expr(e.Y)
	return fe.binaryValues(e, tv.Type, x, y)
}

// binaryValues applies the operator of e to already lowered operands;
// result is the recorded type of e.
func (fe *funcEmitter) binaryValues(e *ast.BinaryExpr, result types.TypeID, x, y value.Value) value.Value {
	info, in := fe.m.s.info, fe.m.s.in
	xt, yt := info.TypeOf(e.X), info.TypeOf(e.Y)
	switch {
	case e.Op.IsComparison() && fe.m.isNilExpr(e.Y):
		return fe.compareNil(e.Op, xt, x, result)
	case e.Op.IsComparison() && fe.m.isNilExpr(e.X):
		return fe.compareNil(e.Op, yt, y, result)
	case e.Op.IsComparison():
		return fe.compare(e.Op, xt, x, y, result)
	case e.Op.IsShift():
		return fe.shift(e.Op, xt, x, y)
	case (e.Op == token.Add || e.Op == token.Sub) && (in.IsTypedPointer(xt) || in.IsTypedPointer(yt)):
		return fe.pointerArith(e.Op, xt, x, yt, y)
	case in.IsComplex(xt):
		return fe.complexArith(e.Op, x, y)
	}
	return fe.arith(e.Op, xt, x, y)
}

func (fe *funcEmitter) arith(op token.Kind, t types.TypeID, x, y value.Value) value.Value {
	in := fe.m.s.in
	b := fe.blk()
	s := fe.scalar(t)
	if in.IsFloat(s) {
		switch op {
		case token.Add:
			return b.NewFAdd(x, y)
		case token.Sub:
			return b.NewFSub(x, y)
		case token.Mul:
			return b.NewFMul(x, y)
		case token.Quo:
			return b.NewFDiv(x, y)
		case token.Mod:
			return b.NewFRem(x, y)
		}
		fe.m.failf("operator %s on %s", op, in.TypeString(t))
	}
	unsigned := in.IsUnsigned(s) || in.IsBoolean(s)
	switch op {
	case token.Add:
		return b.NewAdd(x, y)
	case token.Sub:
		return b.NewSub(x, y)
	case token.Mul:
		return b.NewMul(x, y)
	case token.Quo:
		if unsigned {
			return b.NewUDiv(x, y)
		}
		return b.NewSDiv(x, y)
	case token.Mod:
		if unsigned {
			return b.NewURem(x, y)
		}
		return b.NewSRem(x, y)
	case token.And:
		return b.NewAnd(x, y)
	case token.Or:
		return b.NewOr(x, y)
	case token.Xor:
		return b.NewXor(x, y)
	case token.AndNot:
		return b.NewAnd(x, b.NewXor(y, constLike(y.Type(), -1)))
	}
	fe.m.failf("operator %s on %s", op, in.TypeString(t))
	return nil
}

func (fe *funcEmitter) complexArith(op token.Kind, x, y value.Value) value.Value {
	a, bi := fe.complexParts(x)
	c, d := fe.complexParts(y)
	b := fe.blk()
	var re, im value.Value
	switch op {
	case token.Add:
		re, im = b.NewFAdd(a, c), b.NewFAdd(bi, d)
	case token.Sub:
		re, im = b.NewFSub(a, c), b.NewFSub(bi, d)
	case token.Mul:
		re = b.NewFSub(b.NewFMul(a, c), b.NewFMul(bi, d))
		im = b.NewFAdd(b.NewFMul(a, d), b.NewFMul(bi, c))
	case token.Quo:
		den := b.NewFAdd(b.NewFMul(c, c), b.NewFMul(d, d))
		re = b.NewFDiv(b.NewFAdd(b.NewFMul(a, c), b.NewFMul(bi, d)), den)
		im = b.NewFDiv(b.NewFSub(b.NewFMul(bi, c), b.NewFMul(a, d)), den)
	default:
		fe.m.failf("operator %s on complex values", op)
	}
	return fe.makeComplex(x.Type(), re, im)
}

// compare lowers a comparison and widens the i1 result to the recorded
// boolean type.
func (fe *funcEmitter) compare(op token.Kind, t types.TypeID, x, y value.Value, result types.TypeID) value.Value {
	in := fe.m.s.in
	s := fe.scalar(t)
	var c value.Value
	switch {
	case in.IsString(s):
		xd, xn := fe.stringParts(x)
		yd, yn := fe.stringParts(y)
		b := fe.blk()
		r := b.NewCall(fe.m.runtimeFunc(lower.RuntimeStringCmp), xd, xn, yd, yn)
		c = b.NewICmp(intPred(op, false), r, constant.NewInt(lltypes.I32, 0))
	case in.IsComplex(s):
		a, bi := fe.complexParts(x)
		cc, d := fe.complexParts(y)
		b := fe.blk()
		eq := b.NewAnd(b.NewFCmp(enum.FPredOEQ, a, cc), b.NewFCmp(enum.FPredOEQ, bi, d))
		c = eq
		if op == token.NotEq {
			c = b.NewXor(eq, constant.True)
		}
	case in.IsFloat(s):
		b := fe.blk()
		if op == token.NotEq {
			eq := b.NewFCmp(enum.FPredOEQ, x, y)
			c = b.NewXor(eq, constLike(eq.Type(), 1))
		} else {
			c = b.NewFCmp(floatPred(op), x, y)
		}
	case in.IsPointer(s) || in.IsProc(s):
		b := fe.blk()
		y = castPtr(b, y, x.Type())
		c = b.NewICmp(intPred(op, true), x, y)
	default:
		c = fe.blk().NewICmp(intPred(op, in.IsUnsigned(s) || in.IsBoolean(s)), x, y)
	}
	return fe.fromI1(c, fe.m.lbType(result))
}

// compareNil tests v of type t against nil. A slice is nil when it has
// no data or no length, an any when it has no data or no type, and a
// union when it holds no variant.
func (fe *funcEmitter) compareNil(op token.Kind, t types.TypeID, v value.Value, result types.TypeID) value.Value {
	m, in := fe.m, fe.m.s.in
	b := fe.blk()
	var eq value.Value
	switch {
	case in.IsUnion(t):
		switch m.s.low.UnionShape(t).Repr {
		case layout.UnionEmpty:
			eq = constant.True
		case layout.UnionMaybePointer:
			eq = b.NewICmp(enum.IPredEQ, v, zeroOf(v.Type()))
		default:
			eq = b.NewICmp(enum.IPredEQ, b.NewExtractValue(v, unionTag), constI(m.intT, 0))
		}
	case in.IsSlice(t), in.IsAny(t):
		second := uint64(lower.SliceLen)
		if in.IsAny(t) {
			second = lower.AnyType
		}
		data := b.NewExtractValue(v, lower.SliceData)
		n := b.NewExtractValue(v, second)
		eq = b.NewOr(b.NewICmp(enum.IPredEQ, data, zeroOf(data.Type())), b.NewICmp(enum.IPredEQ, n, zeroOf(n.Type())))
	default:
		eq = b.NewICmp(enum.IPredEQ, v, zeroOf(v.Type()))
	}
	if op == token.NotEq {
		eq = b.NewXor(eq, constant.True)
	}
	return fe.fromI1(eq, m.lbType(result))
}

// isNilExpr reports the nil constant, possibly parenthesized.
func (m *Module) isNilExpr(e ast.Expr) bool {
	id, ok := ast.Unparen(e).(*ast.Ident)
	if !ok {
		return false
	}
	ent := m.s.info.EntityOf(id)
	return ent != nil && ent.Kind == symbols.EntityNil
}

func intPred(op token.Kind, unsigned bool) enum.IPred {
	switch op {
	case token.CmpEq:
		return enum.IPredEQ
	case token.NotEq:
		return enum.IPredNE
	case token.Lt:
		if unsigned {
			return enum.IPredULT
		}
		return enum.IPredSLT
	case token.LtEq:
		if unsigned {
			return enum.IPredULE
		}
		return enum.IPredSLE
	case token.Gt:
		if unsigned {
			return enum.IPredUGT
		}
		return enum.IPredSGT
	}
	if unsigned {
		return enum.IPredUGE
	}
	return enum.IPredSGE
}

func floatPred(op token.Kind) enum.FPred {
	switch op {
	case token.CmpEq:
		return enum.FPredOEQ
	case token.Lt:
		return enum.FPredOLT
	case token.LtEq:
		return enum.FPredOLE
	case token.Gt:
		return enum.FPredOGT
	case token.GtEq:
		return enum.FPredOGE
	}
	return enum.FPredONE
}

// shift lowers << and >>; amounts at or above the width yield 0, or the
// sign fill for an arithmetic right shift.
func (fe *funcEmitter) shift(op token.Kind, t types.TypeID, x, y value.Value) value.Value {
	lt := x.Type()
	if vt, ok := lt.(*lltypes.VectorType); ok {
		if _, vec := y.Type().(*lltypes.VectorType); !vec {
			y = fe.splat(intCast(fe.blk(), y, vt.ElemType, false), vt)
		} else {
			y = intCast(fe.blk(), y, lt, false)
		}
	} else {
		y = intCast(fe.blk(), y, lt, false)
	}
	b := fe.blk()
	bits := int64(bitsOf(lt))
	inRange := b.NewICmp(enum.IPredULT, y, constLike(lt, bits))
	if op == token.Shl {
		return b.NewSelect(inRange, b.NewShl(x, y), zeroOf(lt))
	}
	if fe.m.s.in.IsUnsigned(fe.scalar(t)) {
		return b.NewSelect(inRange, b.NewLShr(x, y), zeroOf(lt))
	}
	fill := b.NewAShr(x, constLike(lt, bits-1))
	return b.NewSelect(inRange, b.NewAShr(x, y), fill)
}

func (fe *funcEmitter) pointerArith(op token.Kind, xt types.TypeID, x value.Value, yt types.TypeID, y value.Value) value.Value {
	m, in := fe.m, fe.m.s.in
	b := fe.blk()
	if in.IsTypedPointer(xt) && in.IsTypedPointer(yt) {
		size := m.size(in.Elem(xt))
		if size <= 0 {
			size = 1
		}
		d := b.NewSub(b.NewPtrToInt(x, m.intT), b.NewPtrToInt(y, m.intT))
		return b.NewSDiv(d, constI(m.intT, size))
	}
	p, i, it := x, y, yt
	if in.IsTypedPointer(yt) {
		p, i, it = y, x, xt
	}
	i = intCast(b, i, m.intT, !in.IsUnsigned(it))
	if op == token.Sub {
		i = b.NewSub(constI(m.intT, 0), i)
	}
	return b.NewGetElementPtr(elemOf(p.Type()), p, i)
}

// logical lowers && and || with short-circuit evaluation.
func (fe *funcEmitter) logical(e *ast.BinaryExpr, result types.TypeID) value.Value {
	x := fe.truth(fe.expr(e.X))
	from := fe.blk()
	rhs := fe.newBlock("logic.rhs")
	done := fe.newBlock("logic.done")
	if e.Op == token.CmpAnd {
		from.NewCondBr(x, rhs, done)
	} else {
		from.NewCondBr(x, done, rhs)
	}
	fe.setBlock(rhs)
	y := fe.truth(fe.expr(e.Y))
	end := fe.blk()
	end.NewBr(done)
	fe.setBlock(done)
	phi := done.NewPhi(
		ir.NewIncoming(constant.NewBool(e.Op == token.CmpOr), from),
		ir.NewIncoming(y, end))
	return fe.fromI1(phi, fe.m.lbType(result))
}

// truth narrows a boolean value to i1.
func (fe *funcEmitter) truth(v value.Value) value.Value {
	t := v.Type()
	if lltypes.Equal(t, lltypes.I1) {
		return v
	}
	return fe.blk().NewICmp(enum.IPredNE, v, constI(t, 0))
}

func (fe *funcEmitter) fromI1(v value.Value, to lltypes.Type) value.Value {
	if bitsOf(to) == 1 {
		return v
	}
	return fe.blk().NewZExt(v, to)
}

// splat broadcasts a scalar to every lane of vec.
func (fe *funcEmitter) splat(v value.Value, vec *lltypes.VectorType) value.Value {
	var out value.Value = constant.NewUndef(vec)
	b := fe.blk()
	for i := range int64(vec.Len) {
		out = b.NewInsertElement(out, v, idx32(i))
	}
	return out
}

// Aggregate helpers.

func (fe *funcEmitter) stringParts(v value.Value) (data, n value.Value) {
	ss := fe.m.s.low.StringShape()
	b := fe.blk()
	return b.NewExtractValue(v, uint64(ss.Data)), b.NewExtractValue(v, uint64(ss.Len))
}

func (fe *funcEmitter) makeString(data, n value.Value) value.Value {
	ss := fe.m.s.low.StringShape()
	b := fe.blk()
	var s value.Value = constant.NewUndef(fe.m.strT)
	s = b.NewInsertValue(s, castPtr(b, data, lltypes.I8Ptr), uint64(ss.Data))
	return b.NewInsertValue(s, n, uint64(ss.Len))
}

func (fe *funcEmitter) sliceParts(v value.Value) (data, n, capacity value.Value) {
	b := fe.blk()
	return b.NewExtractValue(v, lower.SliceData),
		b.NewExtractValue(v, lower.SliceLen),
		b.NewExtractValue(v, lower.SliceCap)
}

func (fe *funcEmitter) makeSlice(t types.TypeID, data, n, capacity value.Value) value.Value {
	lt := fe.m.lbType(t).(*lltypes.StructType)
	b := fe.blk()
	var s value.Value = constant.NewUndef(lt)
	s = b.NewInsertValue(s, castPtr(b, data, lt.Fields[lower.SliceData]), lower.SliceData)
	s = b.NewInsertValue(s, n, lower.SliceLen)
	return b.NewInsertValue(s, capacity, lower.SliceCap)
}

func (fe *funcEmitter) complexParts(v value.Value) (re, im value.Value) {
	b := fe.blk()
	return b.NewExtractValue(v, 0), b.NewExtractValue(v, 1)
}

func (fe *funcEmitter) makeComplex(t lltypes.Type, re, im value.Value) value.Value {
	b := fe.blk()
	var c value.Value = constant.NewUndef(t)
	c = b.NewInsertValue(c, re, 0)
	return b.NewInsertValue(c, im, 1)
}
