package check

import (
	"context"
	"strings"
	"testing"

	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/layout"
	"odinc/internal/parser"
	"odinc/internal/source"
	"odinc/internal/types"
)

func checkSrc(t *testing.T, src string) (*Info, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.odin", []byte(src))
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	f := parser.ParseFile(fs, id, parser.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("parse errors: %+v", bag.Items())
	}
	info := Check(context.Background(), []*ast.File{f}, Options{Reporter: rep, Target: layout.X86_64LinuxGNU()})
	return info, bag
}

func mustCheck(t *testing.T, src string) *Info {
	t.Helper()
	info, bag := checkSrc(t, src)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	return info
}

func expectCode(t *testing.T, src string, code diag.Code) *diag.Bag {
	t.Helper()
	_, bag := checkSrc(t, src)
	for _, d := range bag.Items() {
		if d.Code == code {
			return bag
		}
	}
	t.Fatalf("expected diagnostic %v, got %+v", code, bag.Items())
	return bag
}

func hasMessage(bag *diag.Bag, substr string) bool {
	for _, d := range bag.Items() {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

func constValue(t *testing.T, info *Info, name string) int64 {
	t.Helper()
	e := info.Package.Lookup(name)
	if e == nil {
		t.Fatalf("%s not declared", name)
	}
	v, ok := e.Value.Int64()
	if !ok {
		t.Fatalf("%s is not an integer constant: %v", name, e.Value)
	}
	return v
}

func TestConstantFolding(t *testing.T) {
	info := mustCheck(t, `
A :: 1 << 10;
B :: A / 3 + 2 * 7;
C :: (A - 24) % 100;
D :: size_of(i64) * 4;
E :: len([5]int{});
`)
	cases := map[string]int64{"A": 1024, "B": 355, "C": 0, "D": 32, "E": 5}
	for name, want := range cases {
		if got := constValue(t, info, name); got != want {
			t.Errorf("%s = %d, want %d", name, got, want)
		}
	}
}

func TestIntegerBounds(t *testing.T) {
	mustCheck(t, "a : i8 = 127;\nb : i8 = -128;\nc : u8 = 255;")
	expectCode(t, "a : i8 = 128;", diag.SemaOverflow)
	expectCode(t, "a : i8 = -129;", diag.SemaOverflow)
	expectCode(t, "a : u8 = 256;", diag.SemaOverflow)
	expectCode(t, "a : u8 = -1;", diag.SemaOverflow)
}

func TestFloatToIntTruncates(t *testing.T) {
	expectCode(t, "a : int = 1.5;", diag.SemaTruncated)
	mustCheck(t, "a : int = 2.0;")
}

func TestShiftAmounts(t *testing.T) {
	mustCheck(t, "B :: 1 << 1074;")
	bag := expectCode(t, "A :: 1 << 1075;", diag.SemaShiftAmount)
	if !hasMessage(bag, "too large") {
		t.Fatalf("unexpected message: %+v", bag.Items())
	}
	expectCode(t, "A :: 1 << -1;", diag.SemaShiftAmount)
}

func TestDistinctEnums(t *testing.T) {
	src := `
Color :: enum { Red, Green, Blue }
Mood :: enum { Happy, Sad }
main :: proc() {
	c := Color.Green;
	m := Mood.Sad;
	x := c == m;
}
`
	expectCode(t, src, diag.SemaCannotCompare)
	info := mustCheck(t, `
Color :: enum u8 { Red, Green = 4, Blue }
N :: Color.count;
`)
	if got := constValue(t, info, "N"); got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
}

func TestUsingPromotionAndDownCast(t *testing.T) {
	info := mustCheck(t, `
Entity :: struct { id: int }
Player :: struct { using base: Entity, hp: int }
get_id :: proc(e: ^Entity) -> int { return e.id; }
main :: proc() {
	p: Player;
	p.id = 3;
	x := get_id(^p);
	e := ^p.base;
	back := e down_cast ^Player;
	back.hp = x;
}
`)
	if len(info.DownCasts) != 1 {
		t.Fatalf("expected one down_cast, got %d", len(info.DownCasts))
	}
	for _, dc := range info.DownCasts {
		if dc.Field != "base" {
			t.Fatalf("down_cast field = %q", dc.Field)
		}
	}
	if len(info.UsingArgs) != 1 {
		t.Fatalf("expected one using argument conversion, got %d", len(info.UsingArgs))
	}
}

func TestUsingPromotionByValue(t *testing.T) {
	info := mustCheck(t, `
Base :: struct { id: int }
Derived :: struct { using base: Base, hp: int }
g :: proc(b: Base) -> int { return b.id; }
main :: proc() {
	d: Derived;
	n := g(d);
}
`)
	if len(info.UsingArgs) != 1 {
		t.Fatalf("expected one using argument conversion, got %d", len(info.UsingArgs))
	}
	for _, path := range info.UsingArgs {
		if len(path) != 1 || path[0] != 0 {
			t.Fatalf("using path = %v, want [0]", path)
		}
	}
	expectCode(t, `
Base :: struct { id: int }
Derived :: struct { using base: Base }
g :: proc(b: Base) { }
main :: proc() { d: Derived; g(^d); }
`, diag.SemaCannotAssign)
}

func TestTransmute(t *testing.T) {
	mustCheck(t, "f :: proc(x: f32) -> u32 { return x transmute u32; }")
	bag := expectCode(t, "f :: proc() -> u32 { return 1.5 transmute u32; }", diag.SemaInvalidTransmute)
	if !hasMessage(bag, "constant") {
		t.Fatalf("missing constant operand message: %+v", bag.Items())
	}
	bag = expectCode(t, "f :: proc(x: f64) -> u32 { return x transmute u32; }", diag.SemaInvalidTransmute)
	if !hasMessage(bag, "8 vs 4 bytes") {
		t.Fatalf("missing size mismatch message: %+v", bag.Items())
	}
}

func TestStructLiteralErrors(t *testing.T) {
	base := "V :: struct { x, y: int }\n"
	mustCheck(t, base+"a := V{1, 2};\nb := V{y = 2, x = 1};\nc := V{};")
	expectCode(t, base+"a := V{x = 1, 2};", diag.SemaMixedLiteral)
	expectCode(t, base+"a := V{1, 2, 3};", diag.SemaTooManyValues)
	expectCode(t, base+"a := V{1};", diag.SemaTooFewValues)
	expectCode(t, base+"a := V{z = 1};", diag.SemaUnknownField)
	expectCode(t, base+"a := V{x = 1, x = 2};", diag.SemaDuplicateField)
}

func TestArrayIndexBounds(t *testing.T) {
	src := `
main :: proc() {
	a: [4]int;
	a[3] = 1;
	a[%s] = 2;
}
`
	mustCheck(t, strings.Replace(src, "%s", "0", 1))
	expectCode(t, strings.Replace(src, "%s", "4", 1), diag.SemaIndexOutOfBounds)
	expectCode(t, strings.Replace(src, "%s", "-1", 1), diag.SemaInvalidIndex)
}

func TestArrayLiteralTooLong(t *testing.T) {
	expectCode(t, "a := [2]int{1, 2, 3};", diag.SemaIndexOutOfBounds)
	info := mustCheck(t, "a := [..]int{1, 2, 3};")
	e := info.Package.Lookup("a")
	tt, ok := info.Interner.Lookup(e.Type)
	if !ok || tt.Kind != types.KindArray || tt.Count != 3 {
		t.Fatalf("open array literal not sized: %+v", tt)
	}
}

func TestSliceIndices(t *testing.T) {
	src := `
main :: proc() {
	a: [8]int;
	s := a[%s];
}
`
	mustCheck(t, strings.Replace(src, "%s", "2:5", 1))
	mustCheck(t, strings.Replace(src, "%s", "0:8", 1))
	expectCode(t, strings.Replace(src, "%s", "5:2", 1), diag.SemaInvalidSliceIndices)
}

func TestDeclarationCycle(t *testing.T) {
	expectCode(t, "A :: B;\nB :: A;", diag.SemaDeclCycle)
	mustCheck(t, "Node :: struct { next: ^Node, value: int }")
	_, bag := checkSrc(t, "Node :: struct { next: Node }")
	found := false
	for _, d := range bag.Items() {
		found = found || d.Code == diag.SemaRecursiveUnsized || d.Code == diag.SemaDeclCycle
	}
	if !found {
		t.Fatalf("self-containing struct accepted: %+v", bag.Items())
	}
}

func TestOversizedTypes(t *testing.T) {
	expectCode(t, "A :: [1 << 61]int;\nX :: size_of(A);", diag.SemaTypeTooLarge)
	expectCode(t, "main :: proc() { a: [1 << 62]int; }", diag.SemaTypeTooLarge)
	mustCheck(t, "A :: [1 << 20]int;\nX :: size_of(A);")
}

func TestUnionAcceptsNil(t *testing.T) {
	mustCheck(t, `
M :: union { p: ^int }
T :: union { a: int, b: f64 }
f :: proc(x: ^int, v: any) -> bool {
	m: M = x;
	m = nil;
	t: T = 1.5 as f64;
	t = nil;
	return m == nil && t != nil && v != nil;
}
`)
	expectCode(t, "T :: union { a: int }\nf :: proc() { t: T; t = 1.5; }", diag.SemaCannotConvert)
}

func TestTypeMatch(t *testing.T) {
	info := mustCheck(t, `
Shape :: union { r: f64, n: int }
area :: proc(s: Shape, ps: ^Shape, a: any) -> f64 {
	total := 0.0;
	for i := 0; i < 3; i += 1 {
		match v in s {
		case f64:
			total += v;
			break;
		case int:
			total += v as f64;
			continue;
		}
	}
	match p in ps {
	case int:
		p^ = 2;
	default:
	}
	match x in a {
	case int, f64:
	case string:
	}
	return total;
}
`)
	got := map[string]int{}
	for _, ent := range info.MatchVars {
		got[ent.Name+" "+info.Interner.TypeString(ent.Type)]++
	}
	for _, want := range []string{"v f64", "v int", "p ^int", "p ^Shape", "x any", "x string"} {
		if got[want] == 0 {
			t.Fatalf("missing match variable %q in %v", want, got)
		}
	}

	base := "Shape :: union { r: f64, n: int }\n"
	expectCode(t, base+"f :: proc(s: Shape) { match v in s { case bool: } }", diag.SemaInvalidMatch)
	expectCode(t, "f :: proc(s: int) { match v in s { case int: } }", diag.SemaInvalidMatch)
	expectCode(t, base+"f :: proc(s: Shape) { match v in s { case int: case int: } }", diag.SemaDuplicateCase)
	expectCode(t, base+"f :: proc(s: Shape) { match v in s { default: default: } }", diag.SemaDuplicateCase)
	expectCode(t, base+"f :: proc(s: Shape) { match v in s { case int: continue; } }", diag.SemaMisplacedBranch)
	expectCode(t, base+"f :: proc(s: Shape) { match v in s { case int: v = 1; } }", diag.SemaNotAssignable)
}

func TestUsingStatement(t *testing.T) {
	mustCheck(t, `
Entity :: struct { id: int, hp: int }
Pos :: struct { x, y: f32 }
f :: proc(e: Entity, p: ^Entity) -> int {
	using e;
	n := id;
	{
		using p;
		hp = n;
	}
	using at: Pos;
	x = 1;
	return id + hp;
}
`)
	expectCode(t, `
Entity :: struct { id: int }
f :: proc(a, b: Entity) { using a; using b; }
`, diag.SemaUsingField)
	expectCode(t, "f :: proc(n: int) { using n; }", diag.SemaUsingField)
	expectCode(t, "f :: proc() { using 1 + 2; }", diag.SemaUsingField)
}

func TestStatements(t *testing.T) {
	mustCheck(t, `
sum :: proc(xs: []int) -> int {
	total := 0;
	for i := 0; i < len(xs); i += 1 {
		if xs[i] < 0 { continue; }
		total += xs[i];
	}
	return total;
}
forever :: proc() -> int {
	for { }
}
`)
	expectCode(t, "f :: proc() { break; }", diag.SemaMisplacedBranch)
	expectCode(t, "f :: proc() -> int { x := 1; }", diag.SemaReturnCount)
	expectCode(t, "f :: proc() -> (int, bool) { return 1; }", diag.SemaReturnCount)
	expectCode(t, "f :: proc() { 1 + 2; }", diag.SemaUnusedValue)
	expectCode(t, "f :: proc() { 3 = 4; }", diag.SemaNotAssignable)
	expectCode(t, "f :: proc() { if 1 { } }", diag.SemaMismatchedTypes)
	expectCode(t, "f :: proc() -> int { defer return 1; return 2; }", diag.SemaMisplacedBranch)
}

func TestMultiValueAssignment(t *testing.T) {
	mustCheck(t, `
pair :: proc() -> (int, bool) { return 1, true; }
main :: proc() {
	a, ok := pair();
	b: int;
	b, ok = pair();
	a = b;
}
`)
	expectCode(t, `
pair :: proc() -> (int, bool) { return 1, true; }
main :: proc() { x := pair() + 1; }
`, diag.SemaAssignMismatch)
}

func TestCallArguments(t *testing.T) {
	base := "f :: proc(a: int, rest: ..int) { }\n"
	mustCheck(t, base+"main :: proc() { f(1); f(1, 2, 3); }")
	expectCode(t, base+"main :: proc() { f(); }", diag.SemaTooFewArguments)
	expectCode(t, "g :: proc(a: int) { }\nmain :: proc() { g(1, 2); }", diag.SemaTooManyArguments)
	expectCode(t, "g :: proc(a: int) { }\nmain :: proc() { s := \"x\"; g(s); }", diag.SemaCannotAssign)
	expectCode(t, "g :: proc(a: int) { }\nmain :: proc() { g(\"x\"); }", diag.SemaCannotConvert)
}

func TestLocalOfEnclosingProcedure(t *testing.T) {
	bag := expectCode(t, `
outer :: proc() {
	x := 1;
	inner :: proc() -> int { return x; }
}
`, diag.SemaUndeclared)
	if !hasMessage(bag, "enclosing procedure") {
		t.Fatalf("unexpected message: %+v", bag.Items())
	}
}

func TestPointerArithmetic(t *testing.T) {
	mustCheck(t, `
main :: proc() {
	a: [4]int;
	p := ^a[0];
	q := p + 2;
	n := q - p;
}
`)
	bag := expectCode(t, "main :: proc() { a: int; p := ^a; q := 1 - p; }", diag.SemaInvalidOperator)
	if !hasMessage(bag, "did you mean") {
		t.Fatalf("unexpected message: %+v", bag.Items())
	}
}

func TestVectorBroadcast(t *testing.T) {
	mustCheck(t, `
V4 :: [vector 4]f32;
main :: proc() {
	a := V4{1, 2, 3, 4};
	b := V4{1};
	c := a * 2;
}
`)
	expectCode(t, "V4 :: [vector 4]f32;\na := V4{1, 2};", diag.SemaTooFewValues)
}

func TestMapIndexIsAssignableButNotAddressable(t *testing.T) {
	mustCheck(t, `
f :: proc(key: string) -> int {
	m: map[string]int;
	m[key] = 1;
	m["b"] += 2;
	delete_key(m, "b");
	return m[key] + len(m);
}
`)
	expectCode(t, `
f :: proc() {
	m: map[string]int;
	p := ^m["a"];
}
`, diag.SemaAddressOf)
	expectCode(t, `
f :: proc() {
	m: map[string]int;
	k: f32;
	delete_key(m, k);
}
`, diag.SemaCannotAssign)
	expectCode(t, "M :: map[[]int]int;\n", diag.SemaInvalidMapKey)
}

func TestSoAIndexing(t *testing.T) {
	info := mustCheck(t, `
Point :: struct { x, y: f32 }
f :: proc() -> f32 {
	ps: #soa [4]Point;
	ps[1].x = 2;
	p := ps[1];
	return p.y + ps[0].x;
}
g :: proc() -> int {
	ps: #soa [4]Point;
	return len(ps);
}
`)
	var lenCall *ast.CallExpr
	for e := range info.Types {
		if c, ok := e.(*ast.CallExpr); ok {
			lenCall = c
		}
	}
	if lenCall == nil {
		t.Fatal("len call not recorded")
	}
	if n, ok := info.Types[lenCall].Value.Int64(); !ok || n != 4 {
		t.Fatalf("len = %v, want constant 4", info.Types[lenCall].Value)
	}
	expectCode(t, "S :: #soa [4]int;\n", diag.SemaInvalidSoA)
	expectCode(t, `
Point :: struct { x, y: f32 }
f :: proc() {
	ps: #soa [4]Point;
	p := ^ps[1];
}
`, diag.SemaAddressOf)
}

func TestBitFieldChecks(t *testing.T) {
	info := mustCheck(t, `
Flags :: bit_field u16 { mode: u8 | 3, on: bool | 1, level: i8 | 5 }
f :: proc() -> i8 {
	v: Flags;
	v.mode = 5;
	v.on = true;
	return v.level;
}
`)
	e := info.Package.Lookup("Flags")
	if e == nil {
		t.Fatal("Flags not declared")
	}
	rec, ok := info.Interner.Record(info.Interner.Base(e.Type))
	if !ok || rec.Kind != types.RecordBitField || len(rec.Fields) != 3 {
		t.Fatalf("Flags is not a bit_field record: %+v", rec)
	}
	if f := rec.Fields[2]; f.BitOffset != 4 || f.BitSize != 5 {
		t.Fatalf("level at %d:%d, want 4:5", f.BitOffset, f.BitSize)
	}

	expectCode(t, "B :: bit_field u8 { a: u8 | 9 }\n", diag.SemaInvalidBitField)
	expectCode(t, "B :: bit_field u8 { a: u8 | 0 }\n", diag.SemaInvalidBitField)
	expectCode(t, "B :: bit_field u8 { a: u8 | 5, b: u8 | 4 }\n", diag.SemaInvalidBitField)
	expectCode(t, "B :: bit_field f32 { a: u8 | 4 }\n", diag.SemaInvalidBitField)
	expectCode(t, "B :: bit_field u32 { a: f32 | 4 }\n", diag.SemaInvalidBitField)
	expectCode(t, "B :: bit_field u8 { a: u8 | 4 }\nx := B{1};\n", diag.SemaInvalidCompositeType)
	expectCode(t, `
B :: bit_field u8 { a: u8 | 4 }
f :: proc() {
	b: B;
	p := ^b.a;
}
`, diag.SemaAddressOf)
}
