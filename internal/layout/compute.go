package layout

import (
	"math"
	"sort"

	"modernc.org/mathutil"

	"odinc/internal/types"
)

func (e *LayoutEngine) computeLayout(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	typesIn := e.Types
	tt, ok := typesIn.Lookup(id)
	if !ok {
		return TypeLayout{Size: 0, Align: 1}, nil
	}

	switch tt.Kind {
	case types.KindNamed:
		info, _ := typesIn.Named(id)
		if info == nil || info.Base == types.NoTypeID {
			return TypeLayout{Size: 0, Align: 1}, nil
		}
		return e.layoutOf(info.Base, state)

	case types.KindBasic:
		return e.basicLayout(tt.Basic), nil

	case types.KindPointer, types.KindProc, types.KindMap:
		return e.ptrLayout(), nil

	case types.KindSoA:
		return e.soaLayout(id, tt, state)

	case types.KindSlice:
		// {data, len, cap}
		return e.aggregate([]TypeLayout{e.ptrLayout(), e.intLayout(), e.intLayout()}), nil

	case types.KindArray:
		if tt.Count < 0 {
			return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrNegativeLength, Type: id, Value: tt.Count}
		}
		el, err := e.layoutOf(tt.Elem, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		size, err := e.mulSize(id, roundUp(el.Size, el.Align), tt.Count)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		return TypeLayout{Size: size, Align: el.Align}, nil

	case types.KindVector:
		return e.vectorLayout(id, tt, state)

	case types.KindTuple:
		tup, _ := typesIn.Tuple(id)
		elems := make([]types.TypeID, 0, len(tup.Vars))
		for _, v := range tup.Vars {
			elems = append(elems, v.Type)
		}
		return e.structLayout(id, elems, nil, false, state)

	case types.KindRecord:
		return e.recordLayout(id, state)
	}
	return TypeLayout{Size: 0, Align: 1}, nil
}

func (e *LayoutEngine) basicLayout(k types.BasicKind) TypeLayout {
	switch k {
	case types.Int, types.Uint:
		return e.intLayout()
	case types.Uintptr, types.Rawptr:
		return e.ptrLayout()
	case types.String:
		l := e.aggregate([]TypeLayout{e.ptrLayout(), e.intLayout()})
		l.Offsets = nil
		return l
	case types.Any:
		// {rawptr, typeid}
		l := e.aggregate([]TypeLayout{e.ptrLayout(), e.intLayout()})
		l.Offsets = nil
		return l
	case types.Complex64:
		return TypeLayout{Size: 8, Align: 4}
	case types.Complex128:
		return TypeLayout{Size: 16, Align: 8}
	}
	size := types.Basic(k).Size
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return scalarLayoutBytes(size)
}

func (e *LayoutEngine) ptrLayout() TypeLayout {
	ptrSize := e.Target.PtrSize
	ptrAlign := e.Target.PtrAlign
	if ptrSize <= 0 {
		ptrSize = 8
	}
	if ptrAlign <= 0 {
		ptrAlign = ptrSize
	}
	return TypeLayout{Size: ptrSize, Align: ptrAlign}
}

func (e *LayoutEngine) intLayout() TypeLayout {
	size := e.Target.IntSize
	if size <= 0 {
		size = e.ptrLayout().Size
	}
	return scalarLayoutBytes(size)
}

func scalarLayoutBytes(size int64) TypeLayout {
	if size <= 0 {
		return TypeLayout{Size: 0, Align: 1}
	}
	return TypeLayout{Size: size, Align: size}
}

// maxSize is the largest object size the target can address.
func (e *LayoutEngine) maxSize() int64 {
	bits := 8 * e.ptrLayout().Size
	if bits >= 64 {
		return math.MaxInt64
	}
	return int64(1)<<(bits-1) - 1
}

func (e *LayoutEngine) tooLarge(id types.TypeID) *LayoutError {
	return &LayoutError{Kind: LayoutErrTooLarge, Type: id, Value: e.maxSize()}
}

// mulSize is n*stride, failing when it leaves the address space.
func (e *LayoutEngine) mulSize(id types.TypeID, stride, n int64) (int64, *LayoutError) {
	r, ovf := mathutil.MulOverflowInt64(stride, n)
	if ovf || r > e.maxSize() {
		return 0, e.tooLarge(id)
	}
	return r, nil
}

// addSize is a+b under the same limit.
func (e *LayoutEngine) addSize(id types.TypeID, a, b int64) (int64, *LayoutError) {
	r, ovf := mathutil.AddOverflowInt64(a, b)
	if ovf || r > e.maxSize() {
		return 0, e.tooLarge(id)
	}
	return r, nil
}

func roundUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	r := n % align
	if r == 0 {
		return n
	}
	return n + (align - r)
}

// aggregate lays out already computed members in order.
func (e *LayoutEngine) aggregate(members []TypeLayout) TypeLayout {
	var size int64
	var align int64 = 1
	offsets := make([]int64, len(members))
	for i, m := range members {
		a := mathutil.MaxInt64(m.Align, 1)
		size = roundUp(size, a)
		offsets[i] = size
		size += m.Size
		align = mathutil.MaxInt64(align, a)
	}
	return TypeLayout{Size: roundUp(size, align), Align: align, Offsets: offsets}
}

// vectorLayout aligns to the element size times the largest power of two
// not above the lane count, clamped to the target's maximum alignment.
func (e *LayoutEngine) vectorLayout(id types.TypeID, tt types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	if tt.Count <= 0 {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	el, err := e.layoutOf(tt.Elem, state)
	if err != nil {
		return TypeLayout{Size: 0, Align: 1}, err
	}
	lanes := int64(1) << max(mathutil.Log2Uint64(uint64(tt.Count)), 0)
	align := el.Size * lanes
	align = mathutil.MinInt64(mathutil.MaxInt64(align, 1), mathutil.MaxInt64(e.Target.MaxAlign, 1))
	size, lerr := e.mulSize(id, roundUp(el.Size, el.Align), tt.Count-1)
	if lerr == nil {
		_, lerr = e.addSize(id, size, el.Size+align)
	}
	if lerr != nil {
		return TypeLayout{Size: 0, Align: 1}, lerr
	}
	return TypeLayout{Size: roundUp(size+el.Size, align), Align: align}, nil
}

// soaLayout stores one [count]F array per field F of the element struct,
// in source order. Offsets are the array offsets by logical field index.
func (e *LayoutEngine) soaLayout(id types.TypeID, tt types.Type, state *layoutState) (TypeLayout, *LayoutError) {
	if tt.Count < 0 {
		return TypeLayout{Size: 0, Align: 1}, &LayoutError{Kind: LayoutErrNegativeLength, Type: id, Value: tt.Count}
	}
	rec, ok := e.Types.Record(e.Types.Base(tt.Elem))
	if !ok {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	members := make([]TypeLayout, len(rec.Fields))
	var total int64
	for i, f := range rec.Fields {
		fl, err := e.layoutOf(f.Type, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		size, err := e.mulSize(id, roundUp(fl.Size, fl.Align), tt.Count)
		if err == nil {
			// the bound includes worst case padding before each array
			total, err = e.addSize(id, total, size+mathutil.MaxInt64(fl.Align, 1))
		}
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		members[i] = TypeLayout{Size: size, Align: fl.Align}
	}
	return e.aggregate(members), nil
}

func (e *LayoutEngine) recordLayout(id types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	rec, _ := e.Types.Record(id)
	switch rec.Kind {
	case types.RecordEnum, types.RecordBitField:
		return e.layoutOf(rec.EnumBase, state)

	case types.RecordStruct:
		elems := make([]types.TypeID, len(rec.Fields))
		for i, f := range rec.Fields {
			elems[i] = f.Type
		}
		order := rec.Order
		if rec.Reorder && order == nil {
			var err *LayoutError
			order, err = e.reorder(elems, state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
		}
		return e.structLayout(id, elems, order, rec.Packed, state)

	case types.RecordRawUnion:
		var size int64
		var align int64 = 1
		offsets := make([]int64, len(rec.Fields))
		for _, f := range rec.Fields {
			fl, err := e.layoutOf(f.Type, state)
			if err != nil {
				return TypeLayout{Size: 0, Align: 1}, err
			}
			size = mathutil.MaxInt64(size, fl.Size)
			align = mathutil.MaxInt64(align, fl.Align)
		}
		return TypeLayout{Size: roundUp(size, align), Align: align, Offsets: offsets}, nil

	case types.RecordUnion:
		return e.unionLayout(rec, state)
	}
	return TypeLayout{Size: 0, Align: 1}, nil
}

// UnionRepr is the physical representation chosen for a tagged union.
type UnionRepr uint8

const (
	// UnionEmpty has no variants and lowers to an opaque marker.
	UnionEmpty UnionRepr = iota
	// UnionMaybePointer has one pointer-shaped variant; nil means no value.
	UnionMaybePointer
	// UnionTagged stores a variant block followed by an int tag.
	UnionTagged
)

// UnionReprOf classifies a union record.
func (e *LayoutEngine) UnionReprOf(rec *types.RecordInfo) UnionRepr {
	vs := rec.Variants()
	switch {
	case len(vs) == 0:
		return UnionEmpty
	case len(vs) == 1 && e.isPointerShaped(vs[0].Type):
		return UnionMaybePointer
	}
	return UnionTagged
}

func (e *LayoutEngine) isPointerShaped(t types.TypeID) bool {
	tt, ok := e.Types.Lookup(e.Types.Base(t))
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindPointer, types.KindProc:
		return true
	case types.KindBasic:
		return tt.Basic == types.Rawptr
	}
	return false
}

// unionLayout places the largest variant first and the int tag after the
// block, both aligned for the tag. A maybe-pointer union is just the
// pointer and has no tag.
func (e *LayoutEngine) unionLayout(rec *types.RecordInfo, state *layoutState) (TypeLayout, *LayoutError) {
	switch e.UnionReprOf(rec) {
	case UnionEmpty:
		return TypeLayout{Size: 0, Align: 1, TagOffset: -1}, nil
	case UnionMaybePointer:
		p := e.ptrLayout()
		p.BlockSize = p.Size
		p.TagOffset = -1
		return p, nil
	}
	tag := e.intLayout()
	var maxSize int64
	align := tag.Align
	for _, v := range rec.Variants() {
		vl, err := e.layoutOf(v.Type, state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		maxSize = mathutil.MaxInt64(maxSize, vl.Size)
		align = mathutil.MaxInt64(align, vl.Align)
	}
	block := roundUp(maxSize, tag.Align)
	return TypeLayout{
		Size:      roundUp(block+tag.Size, align),
		Align:     align,
		BlockSize: block,
		TagOffset: block,
	}, nil
}

// reorder sorts fields by alignment then size, both descending, keeping
// source order among equals.
func (e *LayoutEngine) reorder(elems []types.TypeID, state *layoutState) ([]int, *LayoutError) {
	ls := make([]TypeLayout, len(elems))
	for i, el := range elems {
		l, err := e.layoutOf(el, state)
		if err != nil {
			return nil, err
		}
		ls[i] = l
	}
	order := make([]int, len(elems))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		la, lb := ls[order[a]], ls[order[b]]
		if la.Align != lb.Align {
			return la.Align > lb.Align
		}
		return la.Size > lb.Size
	})
	return order, nil
}

func (e *LayoutEngine) structLayout(id types.TypeID, elems []types.TypeID, order []int, packed bool, state *layoutState) (TypeLayout, *LayoutError) {
	if order == nil {
		order = make([]int, len(elems))
		for i := range order {
			order[i] = i
		}
	}
	offsets := make([]int64, len(elems))
	var size int64
	var align int64 = 1
	for _, idx := range order {
		fl, err := e.layoutOf(elems[idx], state)
		if err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		fa := mathutil.MaxInt64(fl.Align, 1)
		if packed {
			fa = 1
		}
		size = roundUp(size, fa)
		offsets[idx] = size
		// leave room for the final round up to the struct alignment
		if size, err = e.addSize(id, size, fl.Size+fa); err != nil {
			return TypeLayout{Size: 0, Align: 1}, err
		}
		size -= fa
		align = mathutil.MaxInt64(align, fa)
	}
	return TypeLayout{
		Size:    roundUp(size, align),
		Align:   align,
		Offsets: offsets,
		Order:   order,
	}, nil
}
