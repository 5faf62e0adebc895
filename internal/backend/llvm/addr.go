package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/lower"
	"odinc/internal/types"
)

// lbAddr is an assignable location. The set of variants is closed;
// addrLoad and addrStore switch over all of them.
type lbAddr interface{ isAddr() }

// plainAddr is ordinary memory holding a t.
type plainAddr struct {
	ptr value.Value
	t   types.TypeID
}

// contextAddr is the implicit context pointer of the procedure.
type contextAddr struct{ slot *contextSlot }

// swizzleAddr views up to four lanes of the vector stored at ptr.
type swizzleAddr struct {
	ptr   value.Value
	vec   types.TypeID
	t     types.TypeID
	lanes []int64
}

// swizzleLargeAddr views more than four lanes; it is read and written one
// element at a time.
type swizzleLargeAddr struct {
	ptr   value.Value
	vec   types.TypeID
	t     types.TypeID
	lanes []int64
}

// mapAddr is the entry for the key stored at key in the map whose handle
// lives at ptr.
type mapAddr struct {
	ptr value.Value
	m   types.TypeID
	key value.Value
}

// soaAddr is element idx of the #soa array at ptr. idx is already bounds
// checked.
type soaAddr struct {
	ptr value.Value
	soa types.TypeID
	idx value.Value
}

// bitFieldAddr is a field of t occupying size bits from bit offset of the
// bit_field stored at ptr. Targets are little-endian.
type bitFieldAddr struct {
	ptr    value.Value
	t      types.TypeID
	offset int64
	size   int64
}

func (plainAddr) isAddr()        {}
func (contextAddr) isAddr()      {}
func (swizzleAddr) isAddr()      {}
func (swizzleLargeAddr) isAddr() {}
func (mapAddr) isAddr()          {}
func (soaAddr) isAddr()          {}
func (bitFieldAddr) isAddr()     {}

// swizzleOf picks the swizzle variant for a lane selection.
func swizzleOf(ptr value.Value, vec, t types.TypeID, lanes []int64) lbAddr {
	if len(lanes) <= 4 {
		return swizzleAddr{ptr: ptr, vec: vec, t: t, lanes: lanes}
	}
	return swizzleLargeAddr{ptr: ptr, vec: vec, t: t, lanes: lanes}
}

// blockCopyThreshold is the size above which aggregate stores become
// memset or memmove calls.
func blockCopyThreshold(m *Module) int64 { return 8 * m.s.target.PtrSize }

func (fe *funcEmitter) addrLoad(a lbAddr) value.Value {
	switch a := a.(type) {
	case plainAddr:
		return fe.load(a.t, a.ptr)
	case contextAddr:
		a.slot.uses++
		if a.slot.slot == nil && a.slot.param != nil {
			return a.slot.param
		}
		return fe.blk().NewLoad(lltypes.I8Ptr, fe.contextSlotPtr())
	case swizzleAddr:
		return fe.swizzleLoad(a)
	case swizzleLargeAddr:
		return fe.swizzleLargeLoad(a)
	case mapAddr:
		return fe.mapLoad(a)
	case soaAddr:
		return fe.soaLoad(a)
	case bitFieldAddr:
		return fe.bitFieldLoad(a)
	}
	fe.m.failf("load of unknown address %T", a)
	return nil
}

func (fe *funcEmitter) addrStore(a lbAddr, v value.Value) {
	switch a := a.(type) {
	case plainAddr:
		fe.storePlain(v, a.ptr, a.t)
	case contextAddr:
		a.slot.uses++
		fe.blk().NewStore(v, fe.contextSlotPtr())
	case swizzleAddr:
		fe.swizzleStore(a.ptr, a.vec, a.lanes, v)
	case swizzleLargeAddr:
		fe.swizzleLargeStore(a.ptr, a.vec, a.lanes, v)
	case mapAddr:
		fe.mapStore(a, v)
	case soaAddr:
		fe.soaStore(a, v)
	case bitFieldAddr:
		fe.bitFieldStore(a, v)
	default:
		fe.m.failf("store to unknown address %T", a)
	}
}

// contextSlotPtr materialises the context stack slot in the decls block.
// It starts out as the incoming context, or the runtime default for
// procedures that receive none.
func (fe *funcEmitter) contextSlotPtr() value.Value {
	c := fe.ctx
	if c.slot != nil {
		return c.slot
	}
	slot := fe.decls.NewAlloca(lltypes.I8Ptr)
	slot.SetName(fe.localName("context"))
	init := c.param
	if init == nil {
		init = fe.decls.NewCall(fe.m.runtimeFunc(lower.RuntimeContext))
	}
	fe.decls.NewStore(init, slot)
	c.slot = slot
	return slot
}

// storePlain stores v at ptr. Booleans computed as i1 are widened, zero
// aggregates above the block threshold become memset and aggregates just
// loaded from memory are copied with memmove.
func (fe *funcEmitter) storePlain(v value.Value, ptr value.Value, t types.TypeID) {
	m := fe.m
	lt := m.lbType(t)
	b := fe.blk()
	if lltypes.Equal(v.Type(), lltypes.I1) && !lltypes.Equal(lt, lltypes.I1) {
		v = b.NewZExt(v, lt)
	}
	size := m.size(t)
	if size > blockCopyThreshold(m) && m.s.low.IsAggregate(t) {
		if isZeroConst(v) {
			fe.zeroFill(ptr, t)
			return
		}
		if l, ok := v.(*ir.InstLoad); ok && len(b.Insts) > 0 && b.Insts[len(b.Insts)-1] == l {
			b.NewCall(m.memmove(),
				castPtr(b, ptr, lltypes.I8Ptr), castPtr(b, l.Src, lltypes.I8Ptr),
				constI(m.intT, size), constant.False)
			return
		}
	}
	st := b.NewStore(v, castPtr(b, ptr, lltypes.NewPointer(v.Type())))
	if a := m.align(t); a > 0 {
		st.Align = ir.Align(a)
	}
}

func laneMask(lanes []int64) constant.Constant {
	elems := make([]constant.Constant, len(lanes))
	for i, l := range lanes {
		elems[i] = constant.NewInt(lltypes.I32, l)
	}
	return constant.NewVector(lltypes.NewVector(uint64(len(lanes)), lltypes.I32), elems...)
}

func isIdentity(lanes []int64) bool {
	for i, l := range lanes {
		if l != int64(i) {
			return false
		}
	}
	return true
}

// swizzleLoad reads a prefix of the vector directly when the lanes are the
// identity and the narrower vector's alignment is satisfied; otherwise it
// shuffles the whole vector.
func (fe *funcEmitter) swizzleLoad(a swizzleAddr) value.Value {
	m := fe.m
	b := fe.blk()
	if isIdentity(a.lanes) && m.align(a.t) <= m.align(a.vec) && m.size(a.t) <= m.size(a.vec) {
		lt := m.lbType(a.t)
		l := b.NewLoad(lt, castPtr(b, a.ptr, lltypes.NewPointer(lt)))
		l.Align = ir.Align(m.align(a.t))
		return l
	}
	v := fe.load(a.vec, a.ptr)
	return fe.blk().NewShuffleVector(v, constant.NewUndef(v.Type()), laneMask(a.lanes))
}

func (fe *funcEmitter) swizzleLargeLoad(a swizzleLargeAddr) value.Value {
	m := fe.m
	vt := m.lbType(a.vec)
	et := scalarOf(vt)
	var out value.Value = constant.NewUndef(m.lbType(a.t))
	for i, l := range a.lanes {
		b := fe.blk()
		p := b.NewGetElementPtr(vt, castPtr(b, a.ptr, lltypes.NewPointer(vt)), idx32(0), idx32(l))
		out = b.NewInsertElement(out, b.NewLoad(et, p), idx32(int64(i)))
	}
	return out
}

// swizzleStore writes the lanes of v into the selected lanes of the vector
// at ptr.
func (fe *funcEmitter) swizzleStore(ptr value.Value, vec types.TypeID, lanes []int64, v value.Value) {
	cur := fe.load(vec, ptr)
	b := fe.blk()
	for i, l := range lanes {
		e := b.NewExtractElement(v, idx32(int64(i)))
		cur = b.NewInsertElement(cur, e, idx32(l))
	}
	fe.storePlain(cur, ptr, vec)
}

func (fe *funcEmitter) swizzleLargeStore(ptr value.Value, vec types.TypeID, lanes []int64, v value.Value) {
	vt := fe.m.lbType(vec)
	b := fe.blk()
	base := castPtr(b, ptr, lltypes.NewPointer(vt))
	for i, l := range lanes {
		p := b.NewGetElementPtr(vt, base, idx32(0), idx32(l))
		b.NewStore(b.NewExtractElement(v, idx32(int64(i))), p)
	}
}

// mapKeyArgs returns the key pointer, key size and string flag passed to
// the map runtime.
func (fe *funcEmitter) mapKeyArgs(a mapAddr) (value.Value, value.Value, value.Value) {
	m, in := fe.m, fe.m.s.in
	kt := in.Key(a.m)
	str := int64(0)
	if in.IsString(kt) {
		str = 1
	}
	return castPtr(fe.blk(), a.key, lltypes.I8Ptr), constI(m.intT, m.size(kt)), constant.NewInt(lltypes.I8, str)
}

// mapLoad probes the map and yields the zero value when the key is absent.
func (fe *funcEmitter) mapLoad(a mapAddr) value.Value {
	m := fe.m
	vt := m.s.in.Elem(a.m)
	key, size, str := fe.mapKeyArgs(a)
	b := fe.blk()
	handle := b.NewLoad(lltypes.I8Ptr, castPtr(b, a.ptr, lltypes.NewPointer(lltypes.I8Ptr)))
	slot := b.NewCall(m.runtimeFunc(lower.RuntimeMapGet), handle, key, size, str)
	found := fe.newBlock("map.found")
	done := fe.newBlock("map.done")
	b.NewCondBr(b.NewICmp(enum.IPredNE, slot, constant.NewNull(lltypes.I8Ptr)), found, done)
	fe.setBlock(found)
	v := fe.load(vt, slot)
	hit := fe.blk()
	hit.NewBr(done)
	fe.setBlock(done)
	return done.NewPhi(ir.NewIncoming(v, hit), ir.NewIncoming(zeroOf(m.lbType(vt)), b))
}

// mapStore inserts the key if needed and writes v to its slot.
func (fe *funcEmitter) mapStore(a mapAddr, v value.Value) {
	m := fe.m
	vt := m.s.in.Elem(a.m)
	key, size, str := fe.mapKeyArgs(a)
	b := fe.blk()
	handle := castPtr(b, a.ptr, lltypes.NewPointer(lltypes.I8Ptr))
	slot := b.NewCall(m.runtimeFunc(lower.RuntimeMapSet), handle, key, size, constI(m.intT, m.size(vt)), str)
	fe.storePlain(v, slot, vt)
}

// soaFieldAddr is the address of field i of element a.idx, inside the
// backing array of that field.
func (fe *funcEmitter) soaFieldAddr(a soaAddr, i int) (value.Value, types.TypeID) {
	m, in := fe.m, fe.m.s.in
	rec, _ := in.Record(in.Base(in.Elem(a.soa)))
	ft := rec.Fields[i].Type
	arr := fe.gep(m.lbType(a.soa), a.ptr, idx32(0), idx32(m.fieldSlot(a.soa, i)))
	return fe.gep(m.lbType(in.Array(ft, in.Count(a.soa))), arr, constI(m.intT, 0), a.idx), ft
}

// soaLoad gathers one load per field into the element struct.
func (fe *funcEmitter) soaLoad(a soaAddr) value.Value {
	m, in := fe.m, fe.m.s.in
	elem := in.Elem(a.soa)
	rec, _ := in.Record(in.Base(elem))
	var out value.Value = zeroOf(m.lbType(elem))
	for i := range rec.Fields {
		p, ft := fe.soaFieldAddr(a, i)
		fv := fe.load(ft, p)
		out = fe.blk().NewInsertValue(out, fv, uint64(m.fieldSlot(elem, i)))
	}
	return out
}

// soaStore scatters the fields of v into their backing arrays.
func (fe *funcEmitter) soaStore(a soaAddr, v value.Value) {
	m, in := fe.m, fe.m.s.in
	elem := in.Elem(a.soa)
	rec, _ := in.Record(in.Base(elem))
	for i := range rec.Fields {
		p, ft := fe.soaFieldAddr(a, i)
		fv := fe.blk().NewExtractValue(v, uint64(m.fieldSlot(elem, i)))
		fe.storePlain(fv, p, ft)
	}
}

func (a bitFieldAddr) byteAligned() bool { return a.offset%8 == 0 && a.size%8 == 0 }

// bitFieldLoad reads the bits into a zeroed temporary of the field type,
// then sign extends signed integers narrower than their type.
func (fe *funcEmitter) bitFieldLoad(a bitFieldAddr) value.Value {
	m := fe.m
	tmp := fe.zeroTemp(a.t, "bits")
	b := fe.blk()
	base := castPtr(b, a.ptr, lltypes.I8Ptr)
	dst := castPtr(b, tmp, lltypes.I8Ptr)
	if a.byteAligned() {
		src := b.NewGetElementPtr(lltypes.I8, base, constI(m.intT, a.offset/8))
		b.NewCall(m.memmove(), dst, src, constI(m.intT, a.size/8), constant.False)
	} else {
		b.NewCall(m.runtimeFunc(lower.RuntimeBitRead), dst, base, constI(m.intT, a.offset), constI(m.intT, a.size))
	}
	v := fe.load(a.t, tmp)
	width := 8 * m.size(a.t)
	if m.s.in.IsInteger(a.t) && !m.s.in.IsUnsigned(a.t) && a.size < width {
		shift := constLike(v.Type(), width-a.size)
		b := fe.blk()
		v = b.NewAShr(b.NewShl(v, shift), shift)
	}
	return v
}

// bitFieldStore writes the low size bits of v.
func (fe *funcEmitter) bitFieldStore(a bitFieldAddr, v value.Value) {
	m := fe.m
	src := castPtr(fe.blk(), fe.spill(fe.widenBool(v, a.t), a.t), lltypes.I8Ptr)
	b := fe.blk()
	base := castPtr(b, a.ptr, lltypes.I8Ptr)
	if a.byteAligned() {
		dst := b.NewGetElementPtr(lltypes.I8, base, constI(m.intT, a.offset/8))
		b.NewCall(m.memmove(), dst, src, constI(m.intT, a.size/8), constant.False)
		return
	}
	b.NewCall(m.runtimeFunc(lower.RuntimeBitWrite), base, constI(m.intT, a.offset), src, constI(m.intT, a.size))
}

// widenBool turns an i1 condition into the storage type of t.
func (fe *funcEmitter) widenBool(v value.Value, t types.TypeID) value.Value {
	lt := fe.m.lbType(t)
	if lltypes.Equal(v.Type(), lltypes.I1) && !lltypes.Equal(lt, lltypes.I1) {
		return fe.blk().NewZExt(v, lt)
	}
	return v
}
