package irgen

import (
	"strconv"

	"odinc/internal/ir"
	"odinc/internal/layout"
	"odinc/internal/lower"
	"odinc/internal/types"
)

// lbType lowers a checked type. Named records become module type
// definitions; the definition is registered before its body is lowered so
// self references through pointers resolve to the name.
func (g *Generator) lbType(t types.TypeID) *ir.Type {
	if lt, ok := g.types[t]; ok {
		return lt
	}
	tt, ok := g.in.Lookup(t)
	if !ok {
		g.failf("lowering unknown type %d", t)
	}
	var lt *ir.Type
	switch tt.Kind {
	case types.KindNamed:
		base := g.in.Base(t)
		if !g.needsTypeDef(base) {
			lt = g.lbType(base)
			break
		}
		info, _ := g.in.Named(t)
		td, _ := g.mod.DefineType(g.typeName(info.Name))
		lt = ir.Named(td.Name)
		g.types[t] = lt
		td.Body = g.recordBody(base)
		return lt
	case types.KindBasic:
		lt = g.basicType(tt.Basic)
	case types.KindPointer:
		lt = g.pointerTo(tt.Elem)
	case types.KindArray:
		lt = ir.Array(tt.Count, g.lbType(tt.Elem))
	case types.KindSlice:
		lt = ir.Struct(false, g.pointerTo(tt.Elem), g.intT, g.intT)
	case types.KindVector:
		lt = ir.Vector(tt.Count, g.lbType(tt.Elem))
	case types.KindTuple, types.KindRecord:
		lt = g.recordBody(t)
	case types.KindProc:
		lt = ir.Ptr(g.sigType(t))
	case types.KindMap, types.KindSoA:
		g.failf("%s needs the llvm backend", g.in.TypeString(t))
	default:
		g.failf("cannot lower type %s", g.in.TypeString(t))
	}
	g.types[t] = lt
	return lt
}

func (g *Generator) needsTypeDef(base types.TypeID) bool {
	switch g.in.KindOf(base) {
	case types.KindTuple:
		return true
	case types.KindRecord:
		if g.in.IsUnion(base) {
			return g.low.UnionShape(base).Repr != layout.UnionMaybePointer
		}
		return !g.in.IsEnum(base)
	}
	return false
}

func (g *Generator) typeName(name string) string {
	n := g.typeNames[name]
	g.typeNames[name] = n + 1
	if n == 0 {
		return name
	}
	return name + "." + strconv.Itoa(n)
}

func (g *Generator) basicType(k types.BasicKind) *ir.Type {
	switch k {
	case types.Bool, types.B8, types.UntypedBool:
		return ir.I8
	case types.B16:
		return ir.I16
	case types.B32:
		return ir.I32
	case types.B64:
		return ir.I64
	case types.LLBool:
		return ir.I1
	case types.I8, types.U8:
		return ir.I8
	case types.I16, types.U16:
		return ir.I16
	case types.I32, types.U32, types.UntypedRune:
		return ir.I32
	case types.I64, types.U64:
		return ir.I64
	case types.Int, types.Uint, types.UntypedInteger:
		return g.intT
	case types.Uintptr:
		return ir.Int(int(8 * g.info.Target.PtrSize))
	case types.F32:
		return ir.F32
	case types.F64, types.UntypedFloat:
		return ir.F64
	case types.Complex64:
		return ir.Complex64T
	case types.Complex128, types.UntypedComplex:
		return ir.Complex128T
	case types.Rawptr, types.UntypedNil:
		return ir.I8P
	case types.String, types.UntypedString:
		return ir.StringT
	case types.Any:
		return ir.AnyT
	}
	g.failf("cannot lower basic type %s", k)
	return nil
}

// pointerTo lowers ^elem; pointers to empty structs are plain byte
// pointers.
func (g *Generator) pointerTo(elem types.TypeID) *ir.Type {
	if elem == types.NoTypeID || g.in.IsEmptyStruct(elem) {
		return ir.I8P
	}
	return ir.Ptr(g.lbType(elem))
}

// recordBody lowers the storage of a struct, tuple, raw_union or union.
func (g *Generator) recordBody(base types.TypeID) *ir.Type {
	if g.in.IsTuple(base) || g.in.IsStruct(base) {
		shape := g.low.StructShape(base)
		fields := make([]*ir.Type, len(shape.Slots))
		for i, s := range shape.Slots {
			if s.Kind == lower.SlotPad {
				fields[i] = ir.Array(s.Bytes, ir.I8)
				continue
			}
			fields[i] = g.lbType(s.Type)
		}
		return ir.Struct(shape.Packed, fields...)
	}
	rec, ok := g.in.Record(base)
	if !ok {
		g.failf("record body of %s", g.in.TypeString(base))
	}
	switch rec.Kind {
	case types.RecordRawUnion:
		size, align := g.info.Layout.Size(base), g.info.Layout.Align(base)
		return ir.Struct(false, ir.Array(0, ir.Int(lower.AlignMarkerBits(align))), ir.Array(size, ir.I8))
	case types.RecordUnion:
		shape := g.low.UnionShape(base)
		switch shape.Repr {
		case layout.UnionEmpty:
			return ir.Struct(false)
		case layout.UnionMaybePointer:
			return g.lbType(shape.Variants[0].Type)
		}
		fields := []*ir.Type{
			ir.Array(0, ir.Int(lower.AlignMarkerBits(shape.Align))),
			ir.Array(shape.TagOffset, ir.I8),
			g.intT,
		}
		if pad := shape.Size - shape.TagOffset - g.info.Target.IntSize; pad > 0 {
			fields = append(fields, ir.Array(pad, ir.I8))
		}
		return ir.Struct(false, fields...)
	case types.RecordEnum:
		return g.lbType(rec.EnumBase)
	case types.RecordBitField:
		g.failf("bit_field %s needs the llvm backend", g.in.TypeString(base))
	}
	return g.lbType(base)
}

// Indices of the tagged union aggregate.
const (
	unionBlock = 1
	unionTag   = 2
)

// sigType lowers a procedure type to its raw function type: indirect
// parameters travel by pointer, several results come back as one tuple
// aggregate and the odin convention appends the context pointer. A
// variadic c procedure takes its variadic arguments as C varargs.
func (g *Generator) sigType(t types.TypeID) *ir.Type {
	abi := g.low.ClassifyProc(t)
	sig, _ := g.in.Proc(g.in.Base(t))
	params := make([]*ir.Type, 0, len(abi.Params)+1)
	cVariadic := abi.Variadic && abi.Conv == types.ConvC
	for i, p := range abi.Params {
		if cVariadic && i == len(abi.Params)-1 {
			break
		}
		pt := g.lbType(p.Type)
		if p.Class == lower.Indirect {
			pt = ir.Ptr(pt)
		}
		params = append(params, pt)
	}
	if abi.Context {
		params = append(params, ir.I8P)
	}
	return ir.Func(g.resultType(sig.Results, len(abi.Results)), cVariadic, params...)
}

func (g *Generator) resultType(results types.TypeID, n int) *ir.Type {
	switch n {
	case 0:
		return ir.Void
	case 1:
		tup, _ := g.in.Tuple(results)
		return g.lbType(tup.Vars[0].Type)
	}
	return g.lbType(results)
}

// paramNames lists the raw parameter names of a procedure type.
func (g *Generator) paramNames(t types.TypeID) []string {
	abi := g.low.ClassifyProc(t)
	names := make([]string, 0, len(abi.Params)+1)
	for _, p := range abi.Params {
		names = append(names, p.Name)
	}
	if abi.Context {
		names = append(names, "__.context_ptr")
	}
	return names
}

func (g *Generator) align(t types.TypeID) int64 {
	return g.info.Layout.Align(t)
}

func (g *Generator) size(t types.TypeID) int64 {
	return g.info.Layout.Size(t)
}

// fieldSlot is the physical index of logical field i of a struct or tuple.
func (g *Generator) fieldSlot(t types.TypeID, i int) int64 {
	return int64(g.low.StructShape(t).Slot(i))
}
