package layout

import (
	"errors"
	"strings"
	"testing"

	"odinc/internal/types"
)

func structOf(in *types.Interner, reorder bool, fields ...types.TypeID) types.TypeID {
	fs := make([]types.Field, len(fields))
	for i, f := range fields {
		fs[i] = types.Field{Name: string(rune('a' + i)), Type: f, Index: i}
	}
	return in.NewRecord(types.RecordInfo{Kind: types.RecordStruct, Fields: fs, Reorder: reorder})
}

func TestStructPaddingAndTrailingPadding(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	st := structOf(in, false, in.Builtin(types.U8), in.Builtin(types.I32))

	off, err := e.OffsetOf(st, 1)
	if err != nil || off != 4 {
		t.Fatalf("offset of b = %d (%v), want 4", off, err)
	}
	size, _ := e.SizeOf(st)
	if size != 8 {
		t.Fatalf("size = %d, want 8", size)
	}
	align, _ := e.AlignOf(st)
	if align != 4 {
		t.Fatalf("align = %d, want 4", align)
	}
}

func TestReorderSortsByAlignment(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	st := structOf(in, true, in.Builtin(types.U8), in.Builtin(types.I64), in.Builtin(types.U16))
	l, err := e.LayoutOf(st)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{1, 2, 0}
	for i := range want {
		if l.Order[i] != want[i] {
			t.Fatalf("order = %v, want %v", l.Order, want)
		}
	}
	if l.Offsets[1] != 0 || l.Offsets[2] != 8 || l.Offsets[0] != 10 || l.Size != 16 {
		t.Fatalf("unexpected layout %+v", l)
	}
}

func TestPackedStruct(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	st := in.NewRecord(types.RecordInfo{Kind: types.RecordStruct, Packed: true, Fields: []types.Field{
		{Name: "a", Type: in.Builtin(types.U8)},
		{Name: "b", Type: in.Builtin(types.I32), Index: 1},
	}})
	l, _ := e.LayoutOf(st)
	if l.Size != 5 || l.Align != 1 || l.Offsets[1] != 1 {
		t.Fatalf("unexpected packed layout %+v", l)
	}
}

func TestBuiltinAggregatesPerTarget(t *testing.T) {
	in := types.NewInterner()
	tests := []struct {
		target Target
		id     types.TypeID
		size   int64
	}{
		{X86_64LinuxGNU(), in.Builtin(types.String), 16},
		{X86_64LinuxGNU(), in.Slice(in.Builtin(types.U8)), 24},
		{X86_64LinuxGNU(), in.Builtin(types.Any), 16},
		{I386LinuxGNU(), in.Builtin(types.String), 8},
		{Wasm32(), in.Builtin(types.String), 16},
		{Wasm32(), in.Builtin(types.Rawptr), 4},
		{X86_64LinuxGNU(), in.Array(in.Builtin(types.I16), 3), 6},
		{X86_64LinuxGNU(), in.Vector(in.Builtin(types.F32), 4), 16},
	}
	for _, tt := range tests {
		e := New(tt.target, in)
		size, err := e.SizeOf(tt.id)
		if err != nil || size != tt.size {
			t.Errorf("%s on %s: size %d (%v), want %d", in.TypeString(tt.id), tt.target.Triple, size, err, tt.size)
		}
	}
}

func TestUnionBlockAndTag(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	u := in.NewRecord(types.RecordInfo{Kind: types.RecordUnion, Fields: []types.Field{
		{},
		{Name: "A", Type: in.NewNamed("A", in.Builtin(types.U8), 0), Index: 1},
		{Name: "B", Type: in.NewNamed("B", in.Array(in.Builtin(types.U8), 12), 0), Index: 2},
	}})
	l, _ := e.LayoutOf(u)
	if l.BlockSize != 16 || l.TagOffset != 16 || l.Size != 24 || l.Align != 8 {
		t.Fatalf("unexpected union layout %+v", l)
	}
}

func TestRecursiveValueTypeReportsError(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	node := in.NewNamed("Node", types.NoTypeID, 0)
	body := structOf(in, false, in.Builtin(types.Int), node)
	in.SetNamedBase(node, body)

	_, err := e.SizeOf(node)
	var le *LayoutError
	if !errors.As(err, &le) || le.Kind != LayoutErrRecursiveUnsized {
		t.Fatalf("expected recursive layout error, got %v", err)
	}
	if d := le.Describe(in); !strings.HasPrefix(d, "value type cycle Node -> ") {
		t.Fatalf("cycle description %q", d)
	}

	list := in.NewNamed("List", types.NoTypeID, 0)
	in.SetNamedBase(list, structOf(in, false, in.Builtin(types.Int), in.Pointer(list)))
	if size, err := e.SizeOf(list); err != nil || size != 16 {
		t.Fatalf("pointer recursion is sized: %d %v", size, err)
	}
}

func TestUnionRepresentations(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	empty := in.NewRecord(types.RecordInfo{Kind: types.RecordUnion, Fields: []types.Field{{}}})
	ptr := in.NewRecord(types.RecordInfo{Kind: types.RecordUnion, Fields: []types.Field{
		{},
		{Name: "P", Type: in.NewNamed("P", in.Pointer(in.Builtin(types.Int)), 0), Index: 1},
	}})

	emptyRec, _ := in.Record(empty)
	ptrRec, _ := in.Record(ptr)
	if got := e.UnionReprOf(emptyRec); got != UnionEmpty {
		t.Fatalf("empty union repr = %d", got)
	}
	if got := e.UnionReprOf(ptrRec); got != UnionMaybePointer {
		t.Fatalf("pointer union repr = %d", got)
	}
	if l, _ := e.LayoutOf(empty); l.Size != 0 {
		t.Fatalf("empty union size = %d", l.Size)
	}
	if l, _ := e.LayoutOf(ptr); l.Size != 8 || l.TagOffset != -1 {
		t.Fatalf("maybe-pointer union layout %+v", l)
	}
}

func TestSoAStoresOneArrayPerField(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	st := structOf(in, false, in.Builtin(types.U8), in.Builtin(types.I32))
	soa := in.SoA(st, 3)

	size, _ := e.SizeOf(soa)
	if size != 16 {
		t.Fatalf("size = %d, want 16", size)
	}
	off, err := e.OffsetOf(soa, 1)
	if err != nil || off != 4 {
		t.Fatalf("offset of b array = %d (%v), want 4", off, err)
	}
	align, _ := e.AlignOf(soa)
	if align != 4 {
		t.Fatalf("align = %d, want 4", align)
	}
}

func TestMapAndBitFieldSizes(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	m := in.Map(in.Builtin(types.String), in.Builtin(types.Int))
	if size, _ := e.SizeOf(m); size != 8 {
		t.Fatalf("map size = %d, want 8", size)
	}
	bf := in.NewRecord(types.RecordInfo{
		Kind:     types.RecordBitField,
		EnumBase: in.Builtin(types.U16),
		Fields: []types.Field{
			{Name: "lo", Type: in.Builtin(types.U8), BitOffset: 0, BitSize: 3},
			{Name: "hi", Type: in.Builtin(types.U8), BitOffset: 3, BitSize: 5},
		},
	})
	size, _ := e.SizeOf(bf)
	align, _ := e.AlignOf(bf)
	if size != 2 || align != 2 {
		t.Fatalf("bit_field layout = %d/%d, want 2/2", size, align)
	}
}

func TestOversizedArrayIsRejected(t *testing.T) {
	in := types.NewInterner()
	e := New(X86_64LinuxGNU(), in)
	huge := in.Array(in.Builtin(types.I64), 1<<61)
	_, err := e.SizeOf(huge)
	var le *LayoutError
	if !errors.As(err, &le) || le.Kind != LayoutErrTooLarge {
		t.Fatalf("size of [1<<61]i64: err = %v, want too large", err)
	}
	if _, err := e.SizeOf(structOf(in, false, in.Builtin(types.U8), huge)); !errors.As(err, &le) || le.Kind != LayoutErrTooLarge {
		t.Fatalf("struct holding the array: err = %v, want too large", err)
	}

	// 2^28 eight byte elements fit 64 bit targets but not i386.
	big := in.Array(in.Builtin(types.I64), 1<<28)
	if size, err := e.SizeOf(big); err != nil || size != 1<<31 {
		t.Fatalf("x86_64 size = %d (%v), want %d", size, err, int64(1)<<31)
	}
	e32 := New(I386LinuxGNU(), in)
	if _, err := e32.SizeOf(big); !errors.As(err, &le) || le.Kind != LayoutErrTooLarge {
		t.Fatalf("i386 size: err = %v, want too large", err)
	}
}
