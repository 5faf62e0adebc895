package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

// builtin lowers a call of a builtin procedure whose result is not a
// constant.
func (fe *funcEmitter) builtin(e *ast.CallExpr, id symbols.BuiltinID, tv check.TypeAndValue) value.Value {
	m, in, info := fe.m, fe.m.s.in, fe.m.s.info
	args := e.Args
	switch id {
	case symbols.BuiltinNew:
		t := in.Elem(tv.Type)
		p := fe.alloc(constI(m.intT, m.size(t)), m.align(t))
		return castPtr(fe.blk(), p, m.lbType(tv.Type))

	case symbols.BuiltinNewSlice:
		elem := in.Elem(tv.Type)
		n := fe.indexValue(args[1])
		capacity := n
		if len(args) > 2 {
			capacity = fe.indexValue(args[2])
		}
		bytes := fe.blk().NewMul(capacity, constI(m.intT, m.size(elem)))
		p := fe.alloc(bytes, m.align(elem))
		return fe.makeSlice(tv.Type, p, n, capacity)

	case symbols.BuiltinDelete:
		v := fe.expr(args[0])
		if in.IsSlice(info.TypeOf(args[0])) {
			v, _, _ = fe.sliceParts(v)
		}
		b := fe.blk()
		b.NewCall(m.runtimeFunc(lower.RuntimeFree), castPtr(b, v, lltypes.I8Ptr))
		return nil

	case symbols.BuiltinTypeInfo:
		return m.typeInfoPtr(info.TypeOf(args[0]))

	case symbols.BuiltinAssert:
		c := fe.truth(fe.expr(args[0]))
		fail := fe.newBlock("assert.fail")
		ok := fe.newBlock("assert.ok")
		fe.blk().NewCondBr(c, ok, fail)
		fe.setBlock(fail)
		file, line, col := fe.location(args[0].Span())
		fail.NewCall(m.runtimeFunc(lower.RuntimeAssertFail), file, line, col)
		fail.NewUnreachable()
		fe.setBlock(ok)
		return nil

	case symbols.BuiltinLen, symbols.BuiltinCap:
		v := fe.expr(args[0])
		if in.IsMap(info.TypeOf(args[0])) {
			return fe.blk().NewCall(m.runtimeFunc(lower.RuntimeMapLen), v)
		}
		if in.IsString(info.TypeOf(args[0])) {
			_, n := fe.stringParts(v)
			return n
		}
		_, n, capacity := fe.sliceParts(v)
		if id == symbols.BuiltinCap {
			return capacity
		}
		return n

	case symbols.BuiltinCopy:
		return fe.copySlice(args[0], args[1])

	case symbols.BuiltinDeleteKey:
		mt := info.TypeOf(args[0])
		a := mapAddr{ptr: fe.addr(args[0]), m: mt}
		kt := in.Key(mt)
		a.key = fe.spill(fe.exprTo(args[1], kt), kt)
		key, size, str := fe.mapKeyArgs(a)
		b := fe.blk()
		handle := b.NewLoad(lltypes.I8Ptr, castPtr(b, a.ptr, lltypes.NewPointer(lltypes.I8Ptr)))
		b.NewCall(m.runtimeFunc(lower.RuntimeMapDelete), handle, key, size, str)
		return nil

	case symbols.BuiltinAppend:
		return fe.appendItems(args)

	case symbols.BuiltinSwizzle:
		return fe.swizzle(args, tv.Type)

	case symbols.BuiltinPtrOffset:
		p := fe.expr(args[0])
		return fe.blk().NewGetElementPtr(elemOf(p.Type()), p, fe.indexValue(args[1]))

	case symbols.BuiltinPtrSub:
		x, y := fe.expr(args[0]), fe.expr(args[1])
		pt := info.TypeOf(args[0])
		return fe.pointerArith(token.Sub, pt, x, pt, y)

	case symbols.BuiltinSlicePtr:
		p := fe.expr(args[0])
		n := fe.indexValue(args[1])
		capacity := n
		if len(args) > 2 {
			capacity = fe.indexValue(args[2])
		}
		return fe.makeSlice(tv.Type, p, n, capacity)

	case symbols.BuiltinMin, symbols.BuiltinMax:
		x := fe.exprTo(args[0], tv.Type)
		y := fe.exprTo(args[1], tv.Type)
		return fe.minMax(id == symbols.BuiltinMin, tv.Type, x, y)

	case symbols.BuiltinAbs:
		return fe.abs(fe.exprTo(args[0], tv.Type), tv.Type)

	case symbols.BuiltinAtomicLoad, symbols.BuiltinAtomicStore, symbols.BuiltinAtomicAdd,
		symbols.BuiltinAtomicSub, symbols.BuiltinAtomicXchg, symbols.BuiltinAtomicCas:
		return fe.atomic(e, id)
	}
	m.failf("cannot lower builtin %s", id)
	return nil
}

func (fe *funcEmitter) alloc(size value.Value, align int64) value.Value {
	m := fe.m
	return fe.blk().NewCall(m.runtimeFunc(lower.RuntimeAlloc), size, constI(m.intT, align))
}

// swizzle selects lanes of a vector. Addressable vectors are read through
// a swizzle address so identity prefixes load directly from memory.
func (fe *funcEmitter) swizzle(args []ast.Expr, result types.TypeID) value.Value {
	info := fe.m.s.info
	if len(args) == 1 {
		return fe.expr(args[0])
	}
	lanes := make([]int64, len(args)-1)
	for i, a := range args[1:] {
		lanes[i], _ = info.Types[a].Value.Int64()
	}
	if isAddressable(info, args[0]) {
		vt := info.TypeOf(args[0])
		return fe.addrLoad(swizzleOf(fe.addr(args[0]), vt, result, lanes))
	}
	v := fe.expr(args[0])
	return fe.blk().NewShuffleVector(v, constant.NewUndef(v.Type()), laneMask(lanes))
}

// copySlice moves min(len(dst), len(src)) elements and returns the count.
func (fe *funcEmitter) copySlice(dstArg, srcArg ast.Expr) value.Value {
	m, in, info := fe.m, fe.m.s.in, fe.m.s.info
	dt := info.TypeOf(dstArg)
	dst, dn, _ := fe.sliceParts(fe.expr(dstArg))
	var src, sn value.Value
	if sv := fe.expr(srcArg); in.IsString(info.TypeOf(srcArg)) {
		src, sn = fe.stringParts(sv)
	} else {
		src, sn, _ = fe.sliceParts(sv)
	}
	b := fe.blk()
	n := b.NewSelect(b.NewICmp(enum.IPredSLT, dn, sn), dn, sn)
	bytes := b.NewMul(n, constI(m.intT, m.size(in.Elem(dt))))
	b.NewCall(m.runtimeFunc(lower.RuntimeMemmove),
		castPtr(b, dst, lltypes.I8Ptr), castPtr(b, src, lltypes.I8Ptr), bytes)
	return n
}

// appendItems lays the new elements out in a stack array and lets the
// runtime grow the slice behind the pointer.
func (fe *funcEmitter) appendItems(args []ast.Expr) value.Value {
	m, in := fe.m, fe.m.s.in
	p := fe.expr(args[0])
	elem := in.Elem(in.Elem(m.s.info.TypeOf(args[0])))
	items := args[1:]
	var data value.Value = constant.NewNull(lltypes.I8Ptr)
	if len(items) > 0 {
		arr := in.Array(elem, int64(len(items)))
		backing := fe.temp(arr, "")
		for i, it := range items {
			ptr := fe.gep(m.lbType(arr), backing, constI(m.intT, 0), constI(m.intT, int64(i)))
			fe.storePlain(fe.exprTo(it, elem), ptr, elem)
		}
		data = castPtr(fe.blk(), backing, lltypes.I8Ptr)
	}
	b := fe.blk()
	return b.NewCall(m.runtimeFunc(lower.RuntimeAppend),
		castPtr(b, p, lltypes.I8Ptr),
		constI(m.intT, m.size(elem)),
		constI(m.intT, m.align(elem)),
		data,
		constI(m.intT, int64(len(items))))
}

func (fe *funcEmitter) minMax(isMin bool, t types.TypeID, x, y value.Value) value.Value {
	in := fe.m.s.in
	b := fe.blk()
	var c value.Value
	switch {
	case in.IsFloat(t):
		pred := enum.FPredOGT
		if isMin {
			pred = enum.FPredOLT
		}
		c = b.NewFCmp(pred, x, y)
	case in.IsUnsigned(t):
		pred := enum.IPredUGT
		if isMin {
			pred = enum.IPredULT
		}
		c = b.NewICmp(pred, x, y)
	default:
		pred := enum.IPredSGT
		if isMin {
			pred = enum.IPredSLT
		}
		c = b.NewICmp(pred, x, y)
	}
	return b.NewSelect(c, x, y)
}

// abs returns |x|; for complex values the magnitude in the real part.
func (fe *funcEmitter) abs(x value.Value, t types.TypeID) value.Value {
	in := fe.m.s.in
	switch {
	case in.IsComplex(t):
		re, im := fe.complexParts(x)
		b := fe.blk()
		sq := b.NewFAdd(b.NewFMul(re, re), b.NewFMul(im, im))
		mag := b.NewCall(fe.m.floatIntrinsic("llvm.sqrt", re.Type()), sq)
		return fe.makeComplex(x.Type(), mag, zeroOf(re.Type()))
	case in.IsFloat(t):
		b := fe.blk()
		neg := b.NewFCmp(enum.FPredOLT, x, zeroOf(x.Type()))
		return b.NewSelect(neg, b.NewFNeg(x), x)
	case in.IsUnsigned(t):
		return x
	}
	b := fe.blk()
	neg := b.NewICmp(enum.IPredSLT, x, zeroOf(x.Type()))
	return b.NewSelect(neg, b.NewSub(zeroOf(x.Type()), x), x)
}

// floatIntrinsic declares a unary floating point intrinsic for t.
func (m *Module) floatIntrinsic(base string, t lltypes.Type) *ir.Func {
	name := base + ".f64"
	if bitsOf(t) == 32 {
		name = base + ".f32"
	}
	return m.intrinsic(name, t, t)
}

// atomic lowers the atomic builtins; every access is sequentially
// consistent.
func (fe *funcEmitter) atomic(e *ast.CallExpr, id symbols.BuiltinID) value.Value {
	m, in := fe.m, fe.m.s.in
	args := e.Args
	elem := in.Elem(m.s.info.TypeOf(args[0]))
	align := ir.Align(m.align(elem))
	seq := enum.AtomicOrderingSequentiallyConsistent
	p := fe.expr(args[0])
	switch id {
	case symbols.BuiltinAtomicLoad:
		l := fe.blk().NewLoad(m.lbType(elem), p)
		l.Atomic, l.Ordering, l.Align = true, seq, align
		return l
	case symbols.BuiltinAtomicStore:
		v := fe.exprTo(args[1], elem)
		s := fe.blk().NewStore(v, p)
		s.Atomic, s.Ordering, s.Align = true, seq, align
		return nil
	case symbols.BuiltinAtomicAdd:
		v := fe.exprTo(args[1], elem)
		return fe.blk().NewAtomicRMW(enum.AtomicOpAdd, p, v, seq)
	case symbols.BuiltinAtomicSub:
		v := fe.exprTo(args[1], elem)
		return fe.blk().NewAtomicRMW(enum.AtomicOpSub, p, v, seq)
	case symbols.BuiltinAtomicXchg:
		v := fe.exprTo(args[1], elem)
		b := fe.blk()
		if !isPtr(v.Type()) {
			return b.NewAtomicRMW(enum.AtomicOpXChg, p, v, seq)
		}
		// atomicrmw only exchanges integers
		ip := castPtr(b, p, lltypes.NewPointer(m.intT))
		old := b.NewAtomicRMW(enum.AtomicOpXChg, ip, b.NewPtrToInt(v, m.intT), seq)
		return b.NewIntToPtr(old, v.Type())
	case symbols.BuiltinAtomicCas:
		old := fe.exprTo(args[1], elem)
		nu := fe.exprTo(args[2], elem)
		b := fe.blk()
		r := b.NewCmpXchg(p, old, nu, seq, seq)
		return b.NewExtractValue(r, 0)
	}
	m.failf("cannot lower builtin %s", id)
	return nil
}
