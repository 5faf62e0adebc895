package llvm

import (
	"fortio.org/safecast"
	lltypes "github.com/llir/llvm/ir/types"

	"odinc/internal/layout"
	"odinc/internal/lower"
	"odinc/internal/types"
)

// lbType lowers a checked type. Named records become type definitions in
// two steps: an opaque definition is registered first and its body filled
// in afterwards, so self references through pointers resolve to the name.
func (m *Module) lbType(t types.TypeID) lltypes.Type {
	if lt, ok := m.types[t]; ok {
		return lt
	}
	in := m.s.in
	tt, ok := in.Lookup(t)
	if !ok {
		m.failf("lowering unknown type %d", t)
	}
	var lt lltypes.Type
	switch tt.Kind {
	case types.KindNamed:
		base := in.Base(t)
		if !m.needsTypeDef(base) {
			lt = m.lbType(base)
			break
		}
		st := &lltypes.StructType{Opaque: true}
		m.mod.NewTypeDef(m.s.typeName(t), st)
		m.types[t] = st
		body := m.recordBody(base).(*lltypes.StructType)
		st.Fields, st.Packed, st.Opaque = body.Fields, body.Packed, false
		return st
	case types.KindBasic:
		lt = m.basicType(tt.Basic)
	case types.KindPointer:
		lt = m.pointerTo(tt.Elem)
	case types.KindArray:
		lt = lltypes.NewArray(m.u64(tt.Count), m.lbType(tt.Elem))
	case types.KindSlice:
		lt = lltypes.NewStruct(m.pointerTo(tt.Elem), m.intT, m.intT)
	case types.KindVector:
		lt = lltypes.NewVector(m.u64(tt.Count), m.lbType(tt.Elem))
	case types.KindTuple, types.KindRecord, types.KindSoA:
		lt = m.recordBody(t)
	case types.KindMap:
		// maps are runtime handles
		lt = lltypes.I8Ptr
	case types.KindProc:
		// procedure values are opaque handles; calls go through rawFuncType
		lt = lltypes.I8Ptr
	case types.KindInvalid:
		m.failf("lowering invalid type")
	default:
		m.failf("cannot lower type %s", in.TypeString(t))
	}
	m.types[t] = lt
	return lt
}

// needsTypeDef reports named types whose storage is a struct definition.
func (m *Module) needsTypeDef(base types.TypeID) bool {
	in := m.s.in
	switch in.KindOf(base) {
	case types.KindRecord:
		if in.IsEnum(base) || in.IsBitField(base) {
			return false
		}
		if in.IsUnion(base) {
			return m.s.low.UnionShape(base).Repr != layout.UnionMaybePointer
		}
		return true
	}
	return false
}

func (m *Module) basicType(k types.BasicKind) lltypes.Type {
	switch k {
	case types.Bool, types.B8, types.UntypedBool:
		return lltypes.I8
	case types.B16:
		return lltypes.I16
	case types.B32:
		return lltypes.I32
	case types.B64:
		return lltypes.I64
	case types.LLBool:
		return lltypes.I1
	case types.I8, types.U8:
		return lltypes.I8
	case types.I16, types.U16:
		return lltypes.I16
	case types.I32, types.U32, types.UntypedRune:
		return lltypes.I32
	case types.I64, types.U64:
		return lltypes.I64
	case types.Int, types.Uint, types.UntypedInteger:
		return m.intT
	case types.Uintptr:
		return lltypes.NewInt(m.u64(8 * m.s.target.PtrSize))
	case types.F32:
		return lltypes.Float
	case types.F64, types.UntypedFloat:
		return lltypes.Double
	case types.Complex64:
		return m.c64T
	case types.Complex128, types.UntypedComplex:
		return m.c128T
	case types.Rawptr, types.UntypedNil:
		return lltypes.I8Ptr
	case types.String, types.UntypedString:
		return m.strT
	case types.Any:
		return m.anyT
	}
	m.failf("cannot lower basic type %s", k)
	return nil
}

// pointerTo lowers ^elem; pointers to empty structs are byte pointers.
func (m *Module) pointerTo(elem types.TypeID) lltypes.Type {
	if elem == types.NoTypeID || m.s.in.IsEmptyStruct(elem) {
		return lltypes.I8Ptr
	}
	return lltypes.NewPointer(m.lbType(elem))
}

// recordBody lowers the storage of a struct, tuple, #soa array, raw_union,
// union, enum or bit_field.
func (m *Module) recordBody(base types.TypeID) lltypes.Type {
	in := m.s.in
	if in.IsTuple(base) || in.IsStruct(base) || in.IsSoA(base) {
		shape := m.s.low.StructShape(base)
		fields := make([]lltypes.Type, len(shape.Slots))
		for i, s := range shape.Slots {
			if s.Kind == lower.SlotPad {
				fields[i] = lltypes.NewArray(m.u64(s.Bytes), lltypes.I8)
				continue
			}
			fields[i] = m.lbType(s.Type)
		}
		st := lltypes.NewStruct(fields...)
		st.Packed = shape.Packed
		return st
	}
	rec, ok := in.Record(base)
	if !ok {
		m.failf("record body of %s", in.TypeString(base))
	}
	switch rec.Kind {
	case types.RecordRawUnion:
		return m.byteBlock(m.size(base), m.align(base))
	case types.RecordUnion:
		shape := m.s.low.UnionShape(base)
		switch shape.Repr {
		case layout.UnionEmpty:
			return lltypes.NewStruct()
		case layout.UnionMaybePointer:
			return m.lbType(shape.Variants[0].Type)
		}
		fields := []lltypes.Type{
			lltypes.NewArray(0, lltypes.NewInt(m.u64(int64(lower.AlignMarkerBits(shape.Align))))),
			lltypes.NewArray(m.u64(shape.TagOffset), lltypes.I8),
			m.intT,
		}
		if pad := shape.Size - shape.TagOffset - m.s.target.IntSize; pad > 0 {
			fields = append(fields, lltypes.NewArray(m.u64(pad), lltypes.I8))
		}
		return lltypes.NewStruct(fields...)
	case types.RecordEnum, types.RecordBitField:
		return m.lbType(rec.EnumBase)
	}
	return m.lbType(base)
}

// byteBlock is an aligned block of raw bytes.
func (m *Module) byteBlock(size, align int64) *lltypes.StructType {
	marker := lltypes.NewArray(0, lltypes.NewInt(m.u64(int64(lower.AlignMarkerBits(align)))))
	return lltypes.NewStruct(marker, lltypes.NewArray(m.u64(size), lltypes.I8))
}

// Indices of the tagged union aggregate.
const (
	unionBlock = 1
	unionTag   = 2
)

// rawFuncType builds the target function type of a procedure type:
// the hidden result pointer first, then the parameters (indirect ones by
// pointer), the out-pointers of a split multi-return and the context
// pointer of the odin convention. The variadic arguments of a c procedure
// become C varargs.
func (m *Module) rawFuncType(t types.TypeID) *lltypes.FuncType {
	base := m.s.in.Base(t)
	if ft, ok := m.rawFuncs[base]; ok {
		return ft
	}
	abi := m.s.low.ClassifyProc(base)
	cVariadic := abi.Variadic && abi.Conv == types.ConvC
	params := make([]lltypes.Type, 0, len(abi.Raw))
	for _, rp := range abi.Raw {
		if rp.Kind == lower.RawContext {
			params = append(params, lltypes.I8Ptr)
			continue
		}
		if rp.Kind == lower.RawArg && cVariadic && rp.Index == len(abi.Params)-1 {
			continue
		}
		pt := m.lbType(rp.Type)
		if rp.ByPointer {
			pt = lltypes.NewPointer(pt)
		}
		params = append(params, pt)
	}
	var ret lltypes.Type = lltypes.Void
	if abi.Returns() {
		ret = m.lbType(abi.Result)
	}
	ft := lltypes.NewFunc(ret, params...)
	ft.Variadic = cVariadic
	m.rawFuncs[base] = ft
	return ft
}

// fieldSlot is the physical index of logical field i of a struct or tuple.
func (m *Module) fieldSlot(t types.TypeID, i int) int64 {
	return int64(m.s.low.StructShape(t).Slot(i))
}

// u64 converts a layout quantity to an LLVM array or integer width.
func (m *Module) u64(n int64) uint64 {
	v, err := safecast.Conv[uint64](n)
	if err != nil {
		m.failf("type size %d: %v", n, err)
	}
	return v
}
