package llvm

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/diag"
	"odinc/internal/layout"
	"odinc/internal/parser"
	"odinc/internal/source"
)

type srcFile struct {
	name, text string
}

func newSession(t *testing.T, opts Options, files ...srcFile) *Session {
	t.Helper()
	fs := source.NewFileSet()
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	var parsed []*ast.File
	for _, f := range files {
		id := fs.AddVirtual(f.name, []byte(f.text))
		parsed = append(parsed, parser.ParseFile(fs, id, parser.Options{Reporter: rep}))
	}
	info := check.Check(context.Background(), parsed, check.Options{Reporter: rep, Target: layout.X86_64LinuxGNU()})
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	opts.Files = fs
	s, err := NewSession(info, opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Generate(context.Background()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return s
}

func generate(t *testing.T, src string, opts Options) string {
	t.Helper()
	s := newSession(t, opts, srcFile{"test.odin", src})
	if len(s.Modules()) != 1 {
		t.Fatalf("expected one module, got %d", len(s.Modules()))
	}
	return s.Modules()[0].String()
}

func expectContains(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		if !strings.Contains(out, p) {
			t.Errorf("output lacks %q:\n%s", p, out)
		}
	}
}

func TestProcedureAndEntry(t *testing.T) {
	out := generate(t, `
add :: proc(a, b: int) -> int { return a + b; }
main :: proc() {
	x := add(1, 2);
	x += 3;
}
`, Options{})
	expectContains(t, out,
		"target triple = \"x86_64-linux-gnu\"",
		"define i64 @add(i64 %a, i64 %b, i8* %__.context_ptr)",
		"define void @odin.main(i8* %__.context_ptr)",
		"define i32 @main()",
		"call i8* @odin_default_context()",
		"call void @odin.main(",
		"ret i32 0",
	)
}

func TestNoEntry(t *testing.T) {
	out := generate(t, "main :: proc() { }", Options{NoEntry: true})
	if strings.Contains(out, "@main()") {
		t.Fatalf("entry emitted with NoEntry:\n%s", out)
	}
}

func TestSplitResultsUseOutPointers(t *testing.T) {
	out := generate(t, `
pair :: proc() -> (int, bool) { return 1, true; }
use :: proc() -> int {
	n, ok := pair();
	if ok { return n; }
	return 0;
}
`, Options{})
	expectContains(t, out, "define i8 @pair(i64* %out.0, i8* %__.context_ptr)", "store i64 1, i64* %out.0", "call i8 @pair(")
	if strings.Contains(out, "insertvalue { i64, i8 }") {
		t.Fatalf("split results were packed into an aggregate:\n%s", out)
	}
}

func TestNamedResultsAliasOutPointers(t *testing.T) {
	out := generate(t, `
divmod :: proc(a, b: int) -> (q: int, r: int) {
	q = a / b;
	r = a % b;
	return;
}
`, Options{})
	expectContains(t, out, "store i64 0, i64* %out.0", "sdiv i64", "srem i64")
	if strings.Contains(out, "%q = alloca") {
		t.Fatalf("named result q got its own slot:\n%s", out)
	}
}

func TestLargeResultsUseSRet(t *testing.T) {
	out := generate(t, `
Big :: struct { a, b, c, d: int }
build :: proc() -> Big { return Big{1, 2, 3, 4}; }
sum :: proc(b: Big) -> int { return b.a + b.d; }
use :: proc() -> int {
	v := build();
	return sum(v);
}
`, Options{})
	expectContains(t, out,
		"%Big = type { i64, i64, i64, i64 }",
		"define void @build(%Big* %agg.result, i8* %__.context_ptr)",
		"define i64 @sum(%Big* %b, i8* %__.context_ptr)",
		"call i64 @sum(%Big* %v,",
	)
}

func TestModulePerFileDeclaresForeignOwners(t *testing.T) {
	s := newSession(t, Options{ModulePerFile: true},
		srcFile{"a.odin", "add :: proc(a, b: int) -> int { return a + b; }\n"},
		srcFile{"b.odin", "main :: proc() { x := add(1, 2); }\n"},
	)
	mods := s.Modules()
	if len(mods) != 2 {
		t.Fatalf("expected two modules, got %d", len(mods))
	}
	if mods[0].Name() != "a" || mods[1].Name() != "b" {
		t.Fatalf("module names %q, %q", mods[0].Name(), mods[1].Name())
	}
	expectContains(t, mods[0].String(), "define i64 @add(")
	b := mods[1].String()
	expectContains(t, b, "declare i64 @add(", "define i32 @main()")
	if strings.Contains(b, "define i64 @add(") {
		t.Fatalf("add defined twice:\n%s", b)
	}
}

func TestBoundsChecks(t *testing.T) {
	out := generate(t, `
get :: proc(xs: []int, i: int) -> int { return xs[i]; }
`, Options{})
	expectContains(t, out, "declare void @odin_bounds_check_error(", "icmp uge i64", "unreachable")
}

func TestConstantIndexSkipsCheck(t *testing.T) {
	out := generate(t, `
first :: proc() -> int {
	a: [4]int;
	a[2] = 7;
	return a[2];
}
`, Options{})
	if strings.Contains(out, "odin_bounds_check_error") {
		t.Fatalf("constant array index was bounds checked:\n%s", out)
	}
}

func TestDeferRunsBeforeReturn(t *testing.T) {
	out := generate(t, `
note :: proc(n: int) { }
f :: proc(c: bool) -> int {
	defer note(1);
	if c { return 2; }
	defer note(3);
	return 4;
}
`, Options{})
	if n := strings.Count(out, "call void @note("); n != 3 {
		t.Fatalf("expected 3 deferred calls, got %d:\n%s", n, out)
	}
}

func TestGlobalsAndStartup(t *testing.T) {
	out := generate(t, `
counter := 10;
greeting := "hi";
seed :: proc() -> int { return 4; }
value := seed();
main :: proc() { counter += 1; }
`, Options{})
	expectContains(t, out,
		"@counter = global i64 10",
		`c"hi\00"`,
		"define void @__$startup_runtime(i8* %__.context_ptr)",
		"call i64 @seed(",
		"call void @__$startup_runtime(",
	)
}

func TestCProcedureFetchesContextOnce(t *testing.T) {
	out := generate(t, `
note :: proc(n: int) { }
cb :: proc "c" () {
	note(1);
	note(2);
}
`, Options{})
	expectContains(t, out, "define void @cb()", "call void @note(i64 1,", "call void @note(i64 2,")
	if n := strings.Count(out, "call i8* @odin_default_context()"); n != 1 {
		t.Fatalf("expected one context fetch, got %d:\n%s", n, out)
	}
}

func TestAtomicsAreSequentiallyConsistent(t *testing.T) {
	out := generate(t, `
f :: proc(p: ^int) -> int {
	atomic_store(p, 1);
	old := atomic_add(p, 2);
	atomic_cas(p, 3, 4);
	return old + atomic_load(p);
}
`, Options{})
	expectContains(t, out, "store atomic i64 1", "atomicrmw add i64*", "cmpxchg i64*", "load atomic i64", "seq_cst")
}

func TestSwizzle(t *testing.T) {
	out := generate(t, `
V4 :: [vector 4]f32;
lo :: proc(v: V4) -> [vector 2]f32 {
	a := v;
	return swizzle(a, 0, 1);
}
rev :: proc(v: V4) -> [vector 2]f32 {
	a := v;
	return swizzle(a, 1, 0);
}
`, Options{})
	expectContains(t, out, "load <2 x float>, <2 x float>*", "shufflevector <4 x float>")
}

func TestShiftsGuardWidth(t *testing.T) {
	out := generate(t, `
shl :: proc(x: u32, n: u32) -> u32 { return x << n; }
`, Options{})
	expectContains(t, out, "shl i32", "icmp ult i32", "select i1")
}

func TestDebugInfoFlags(t *testing.T) {
	out := generate(t, "f :: proc() { }", Options{DebugInfo: true})
	expectContains(t, out, "!llvm.module.flags", "Debug Info Version")
}

func TestGenerateTwiceFails(t *testing.T) {
	s := newSession(t, Options{}, srcFile{"test.odin", "f :: proc() { }"})
	if err := s.Modules()[0].Generate(context.Background()); err == nil {
		t.Fatalf("second Generate succeeded")
	}
}

func TestMapAccessCallsRuntime(t *testing.T) {
	out := generate(t, `
count :: proc(key: string) -> int {
	m: map[string]int;
	m[key] = 1;
	n := m[key];
	delete_key(m, key);
	return n + len(m);
}
`, Options{})
	expectContains(t, out,
		"@odin_map_set(",
		"@odin_map_get(",
		"@odin_map_delete(",
		"@odin_map_len(",
		"map.found",
		"phi i64",
	)
}

func TestSoAIndexFansOutPerField(t *testing.T) {
	out := generate(t, `
Point :: struct { x, y: f32 }
set :: proc(i: int) -> f32 {
	ps: #soa [4]Point;
	ps[i].y = 2;
	p := ps[1];
	return p.x;
}
`, Options{})
	expectContains(t, out, "{ [4 x float], [4 x float] }", "odin_bounds_check_error", "insertvalue")
}

func TestBitFieldAccess(t *testing.T) {
	out := generate(t, `
Flags :: bit_field u16 { mode: u8 | 8, level: i8 | 5, on: bool | 1 }
f :: proc() -> i8 {
	v: Flags;
	v.mode = 7;
	v.on = true;
	return v.level;
}
`, Options{})
	expectContains(t, out,
		"@llvm.memmove.p0i8.p0i8.i64(",
		"@odin_bit_write(",
		"@odin_bit_read(",
		"shl i8",
		"ashr i8",
	)
	if strings.Contains(out, "%Flags = type") {
		t.Fatalf("bit_field got a struct type:\n%s", out)
	}
}

func TestUnionVariantTagsAreOneBased(t *testing.T) {
	out := generate(t, `
T :: union { a: int, b: f64 }
set_a :: proc(t: ^T, a: int) { t^ = a; }
set_b :: proc(t: ^T, b: f64) { t^ = b; }
`, Options{})
	expectContains(t, out, "%T = type { [0 x i64], [8 x i8], i64 }", "store i64 1, i64*", "store i64 2, i64*")
	if strings.Contains(out, "store i64 0, i64*") {
		t.Fatalf("variant stored with a zero tag:\n%s", out)
	}
}

func TestUnionNil(t *testing.T) {
	out := generate(t, `
T :: union { a: int, b: f64 }
M :: union { p: ^int }
clear :: proc(t: ^T, m: ^M) {
	t^ = nil;
	m^ = nil;
}
empty :: proc(t: ^T, m: ^M) -> bool {
	return t^ == nil && m^ != nil;
}
`, Options{})
	expectContains(t, out,
		"store %T zeroinitializer, %T*",
		"store i64* null, i64**",
		"extractvalue %T",
		"icmp eq i64",
		"icmp eq i64*",
	)
	if strings.Contains(out, "%M = type") {
		t.Fatalf("maybe-pointer union got a struct type:\n%s", out)
	}
}

func TestDefersRunInReverseOrder(t *testing.T) {
	out := generate(t, `
note :: proc(n: int) { }
f :: proc() {
	defer note(1);
	defer note(2);
	defer note(3);
}
`, Options{})
	third := strings.Index(out, "call void @note(i64 3")
	second := strings.Index(out, "call void @note(i64 2")
	first := strings.Index(out, "call void @note(i64 1")
	if third < 0 || second < 0 || first < 0 || !(third < second && second < first) {
		t.Fatalf("defers not replayed last to first (%d, %d, %d):\n%s", third, second, first, out)
	}
}

func TestTypeMatch(t *testing.T) {
	out := generate(t, `
Shape :: union { r: f64, n: int }
note :: proc(n: int) { }
area :: proc(s: Shape, ps: ^Shape) -> f64 {
	match v in s {
	case f64:
		return v;
	case int:
		note(v);
	default:
		note(0);
	}
	match p in ps {
	case int:
		p^ = 2;
	}
	return 0;
}
`, Options{})
	expectContains(t, out, "match.case", "match.next", "match.done")
	for _, tag := range []string{"1", "2"} {
		re := regexp.MustCompile(`icmp eq i64 \S+, ` + tag + `\b`)
		if !re.MatchString(out) {
			t.Fatalf("no comparison against tag %s:\n%s", tag, out)
		}
	}
}

func TestUsingStatementReachesFields(t *testing.T) {
	out := generate(t, `
Entity :: struct { id: int, hp: int }
heal :: proc(p: ^Entity) {
	using p;
	hp = id;
}
`, Options{})
	if !regexp.MustCompile(`getelementptr (inbounds )?%Entity`).MatchString(out) {
		t.Fatalf("promoted field not addressed through its parent:\n%s", out)
	}
}
