package lower

import (
	"testing"

	"odinc/internal/layout"
	"odinc/internal/types"
)

func newLowerer(target layout.Target) (*Lowerer, *types.Interner) {
	in := types.NewInterner()
	return New(layout.New(target, in)), in
}

func structOf(in *types.Interner, reorder bool, fields ...types.TypeID) types.TypeID {
	fs := make([]types.Field, len(fields))
	for i, f := range fields {
		fs[i] = types.Field{Name: string(rune('a' + i)), Type: f, Index: i}
	}
	return in.NewRecord(types.RecordInfo{Kind: types.RecordStruct, Fields: fs, Reorder: reorder})
}

func TestStructShapeInsertsPadding(t *testing.T) {
	l, in := newLowerer(layout.X86_64LinuxGNU())
	st := structOf(in, false, in.Builtin(types.U8), in.Builtin(types.I32))
	s := l.StructShape(st)

	if len(s.Slots) != 3 {
		t.Fatalf("expected field, pad, field; got %+v", s.Slots)
	}
	if s.Slots[1].Kind != SlotPad || s.Slots[1].Bytes != 3 {
		t.Fatalf("expected 3 byte filler, got %+v", s.Slots[1])
	}
	if s.Slot(1) != 2 || s.Slots[2].Offset != 4 || s.Size != 8 {
		t.Fatalf("b must live at offset 4 in slot 2: %+v", s)
	}
	if s.Packed || s.Reordered {
		t.Fatalf("source-order struct marked packed: %+v", s)
	}
}

func TestStructShapeTrailingPadding(t *testing.T) {
	l, in := newLowerer(layout.X86_64LinuxGNU())
	st := structOf(in, false, in.Builtin(types.I64), in.Builtin(types.U8))
	s := l.StructShape(st)
	last := s.Slots[len(s.Slots)-1]
	if last.Kind != SlotPad || last.Bytes != 7 {
		t.Fatalf("expected 7 bytes of trailing padding, got %+v", s.Slots)
	}
}

func TestReorderInstallsRemap(t *testing.T) {
	l, in := newLowerer(layout.X86_64LinuxGNU())
	st := structOf(in, true, in.Builtin(types.U8), in.Builtin(types.I64), in.Builtin(types.U16))
	s := l.StructShape(st)
	if !s.Reordered || !s.Packed {
		t.Fatalf("reordered struct must be packed: %+v", s)
	}
	if s.Slot(1) != 0 || s.Slot(2) != 1 || s.Slot(0) != 2 {
		t.Fatalf("unexpected remap %v", s.Remap)
	}
	if s != l.StructShape(st) {
		t.Fatalf("shape is not memoised")
	}
}

func TestUnionTags(t *testing.T) {
	l, in := newLowerer(layout.X86_64LinuxGNU())
	a := in.NewNamed("A", in.Builtin(types.U8), 0)
	b := in.NewNamed("B", in.Builtin(types.F64), 0)
	u := in.NewRecord(types.RecordInfo{Kind: types.RecordUnion, Fields: []types.Field{
		{}, {Name: "A", Type: a, Index: 1}, {Name: "B", Type: b, Index: 2},
	}})
	s := l.UnionShape(u)
	if s.Repr != layout.UnionTagged || !s.HasTag() {
		t.Fatalf("expected tagged union, got %+v", s)
	}
	if tag, ok := s.Tag(in, b); !ok || tag != 2 {
		t.Fatalf("tag of B = %d %v, want 2", tag, ok)
	}
	if _, ok := s.Tag(in, in.Builtin(types.Int)); ok {
		t.Fatalf("int is not a variant")
	}
	if s.Block != 8 || s.TagOffset != 8 || s.Size != 16 {
		t.Fatalf("unexpected block/tag placement %+v", s)
	}
}

func TestStringShapePerTarget(t *testing.T) {
	l, _ := newLowerer(layout.X86_64LinuxGNU())
	if s := l.StringShape(); s.Padded || s.Len != 1 {
		t.Fatalf("x86_64 string shape %+v", s)
	}
	w, _ := newLowerer(layout.Wasm32())
	if s := w.StringShape(); !s.Padded || s.PadBytes != 4 || s.Len != 2 {
		t.Fatalf("wasm32 string shape %+v", s)
	}
}

func TestClassifyProc(t *testing.T) {
	l, in := newLowerer(layout.X86_64LinuxGNU())
	big := structOf(in, false, in.Builtin(types.I64), in.Builtin(types.I64), in.Builtin(types.I64))
	params := in.NewTuple([]types.Field{
		{Name: "a", Type: in.Builtin(types.Int)},
		{Name: "b", Type: big, Index: 1},
		{Name: "p", Type: in.Pointer(in.Builtin(types.Int)), NoAlias: true, Index: 2},
		{Name: "s", Type: in.Builtin(types.String), Index: 3},
	})
	results := in.NewTuple([]types.Field{{Type: in.Builtin(types.Int)}, {Type: in.Builtin(types.Bool), Index: 1}})
	pt := in.NewProc(types.ProcInfo{Params: params, Results: results, CallConv: types.ConvOdin})

	a := l.ClassifyProc(pt)
	want := []ABIClass{Direct, Indirect, Indirect, Direct}
	for i, c := range want {
		if a.Params[i].Class != c {
			t.Errorf("param %d class = %s, want %s", i, a.Params[i].Class, c)
		}
	}
	if !a.Split || a.Result != in.Builtin(types.Bool) || !a.Returns() {
		t.Fatalf("multi-return split wrong: %+v", a)
	}
	kinds := []RawKind{RawArg, RawArg, RawArg, RawArg, RawOut, RawContext}
	if len(a.Raw) != len(kinds) {
		t.Fatalf("raw params %+v", a.Raw)
	}
	for i, k := range kinds {
		if a.Raw[i].Kind != k {
			t.Fatalf("raw[%d] = %d, want %d", i, a.Raw[i].Kind, k)
		}
	}

	c := in.NewProc(types.ProcInfo{Params: in.NewTuple(nil), Results: in.NewTuple([]types.Field{{Type: big}}), CallConv: types.ConvC})
	ca := l.ClassifyProc(c)
	if ca.Context || ca.ResultClass != Indirect || ca.Returns() || ca.Raw[0].Kind != RawSRet {
		t.Fatalf("c convention with big result: %+v", ca)
	}
}
