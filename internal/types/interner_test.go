package types

import "testing"

func TestInternerDeduplicatesDescriptors(t *testing.T) {
	in := NewInterner()
	i32 := in.Builtin(I32)
	if in.Pointer(i32) != in.Pointer(i32) {
		t.Fatalf("pointer types should be deduplicated")
	}
	if in.Array(i32, 4) != in.Array(i32, 4) {
		t.Fatalf("array types should be deduplicated")
	}
	if in.Array(i32, 4) == in.Array(i32, 5) {
		t.Fatalf("array count must affect identity")
	}
	if in.Slice(i32) == in.Pointer(i32) {
		t.Fatalf("slice and pointer must differ")
	}
}

func TestNamedTypesAreNominal(t *testing.T) {
	in := NewInterner()
	a := in.NewNamed("A", in.Builtin(Int), 1)
	b := in.NewNamed("B", in.Builtin(Int), 2)
	if in.Identical(a, b) {
		t.Fatalf("distinct names must not be identical")
	}
	if in.Base(a) != in.Builtin(Int) {
		t.Fatalf("base of A should be int, got %s", in.TypeString(in.Base(a)))
	}
}

func TestStructIdentityIsStructural(t *testing.T) {
	in := NewInterner()
	mk := func() TypeID {
		return in.NewRecord(RecordInfo{Kind: RecordStruct, Fields: []Field{
			{Name: "a", Type: in.Builtin(U8)},
			{Name: "b", Type: in.Builtin(I32), Index: 1},
		}})
	}
	x, y := mk(), mk()
	if x == y {
		t.Fatalf("records get fresh IDs")
	}
	if !in.Identical(x, y) {
		t.Fatalf("records with equal fields must be identical")
	}
	if got := in.TypeString(x); got != "struct {a: u8, b: i32}" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestEnumsAreUnique(t *testing.T) {
	in := NewInterner()
	e1 := in.NewRecord(RecordInfo{Kind: RecordEnum, EnumBase: in.Builtin(Int)})
	e2 := in.NewRecord(RecordInfo{Kind: RecordEnum, EnumBase: in.Builtin(Int)})
	if in.Identical(e1, e2) {
		t.Fatalf("enum types must never be identical")
	}
	if in.Underlying(e1) != in.Builtin(Int) {
		t.Fatalf("enum underlying should be its base")
	}
	if !in.IsInteger(e1) || !in.IsComparable(e1) {
		t.Fatalf("enum of int should be integer and comparable")
	}
}

func TestPredicates(t *testing.T) {
	in := NewInterner()
	tests := []struct {
		name string
		id   TypeID
		pred func(TypeID) bool
		want bool
	}{
		{"u8 unsigned", in.Builtin(U8), in.IsUnsigned, true},
		{"int signed", in.Builtin(Int), in.IsUnsigned, false},
		{"rawptr pointer", in.Builtin(Rawptr), in.IsPointer, true},
		{"string ordered", in.Builtin(String), in.IsOrdered, true},
		{"complex not ordered", in.Builtin(Complex64), in.IsOrdered, false},
		{"any not comparable", in.Builtin(Any), in.IsComparable, false},
		{"slice has nil", in.Slice(in.Builtin(Int)), in.HasNil, true},
		{"array no nil", in.Array(in.Builtin(Int), 2), in.HasNil, false},
		{"[]u8", in.Slice(in.Builtin(U8)), in.IsU8Slice, true},
		{"vector numeric", in.Vector(in.Builtin(F32), 4), in.IsNumeric, true},
		{"untyped int untyped", in.Builtin(UntypedInteger), in.IsUntyped, true},
		{"string indexable", in.Builtin(String), in.IsIndexable, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.id); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultTypes(t *testing.T) {
	in := NewInterner()
	cases := map[BasicKind]BasicKind{
		UntypedBool:    Bool,
		UntypedInteger: Int,
		UntypedFloat:   F64,
		UntypedString:  String,
		UntypedRune:    I32,
	}
	for from, to := range cases {
		if got := in.Default(in.Builtin(from)); got != in.Builtin(to) {
			t.Errorf("default(%s) = %s, want %s", from, in.TypeString(got), to)
		}
	}
}

func TestProcString(t *testing.T) {
	in := NewInterner()
	params := in.NewTuple([]Field{{Name: "x", Type: in.Builtin(Int)}})
	results := in.NewTuple([]Field{{Type: in.Builtin(Bool)}})
	p := in.NewProc(ProcInfo{Params: params, Results: results})
	if got := in.TypeString(p); got != "proc(x: int) -> bool" {
		t.Fatalf("unexpected rendering %q", got)
	}
}
