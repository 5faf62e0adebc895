package irgen

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/diag"
	"odinc/internal/ir"
	"odinc/internal/layout"
	"odinc/internal/parser"
	"odinc/internal/source"
)

func generate(t *testing.T, src string, opts Options) (*ir.Module, string) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.odin", []byte(src))
	bag := diag.NewBag(100)
	rep := diag.BagReporter{Bag: bag}
	f := parser.ParseFile(fs, id, parser.Options{Reporter: rep})
	info := check.Check(context.Background(), []*ast.File{f}, check.Options{Reporter: rep, Target: layout.X86_64LinuxGNU()})
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	opts.Files = fs
	mod, err := Generate(context.Background(), info, opts)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := ir.Validate(mod); err != nil {
		t.Fatalf("invalid module: %v", err)
	}
	return mod, mod.String()
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
	mod, out := generate(t, `
add :: proc(a, b: int) -> int { return a + b; }
main :: proc() {
	x := add(1, 2);
	x += 3;
}
`, Options{})
	if mod.LookupProc("add") == nil {
		t.Fatalf("add not emitted")
	}
	if mod.LookupProc("odin.main") == nil || mod.LookupProc("main") == nil {
		t.Fatalf("entry wrapper missing:\n%s", out)
	}
	expectContains(t, out,
		"define i64 @add(",
		"add i64",
		"define ccc i32 @main()",
		"call i8* @odin_default_context()",
		"call i64 @add(",
	)
}

func TestNoEntry(t *testing.T) {
	mod, _ := generate(t, "main :: proc() { }", Options{NoEntry: true})
	if mod.LookupProc("main") != nil {
		t.Fatalf("entry emitted with NoEntry")
	}
}

func TestBoundsChecks(t *testing.T) {
	src := `
get :: proc(xs: []int, i: int) -> int { return xs[i]; }
`
	_, out := generate(t, src, Options{})
	expectContains(t, out, "declare ccc void @odin_bounds_check_error(", "icmp uge", "unreachable")
}

func TestConstantIndexSkipsCheck(t *testing.T) {
	_, out := generate(t, `
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

func TestMultipleResults(t *testing.T) {
	_, out := generate(t, `
pair :: proc() -> (int, bool) { return 1, true; }
use :: proc() -> int {
	n, ok := pair();
	if ok { return n; }
	return 0;
}
`, Options{})
	expectContains(t, out, "insertvalue", "extractvalue", "br i1")
}

func TestDeferRunsBeforeReturn(t *testing.T) {
	_, out := generate(t, `
note :: proc(n: int) { }
f :: proc(c: bool) -> int {
	defer note(1);
	if c { return 2; }
	defer note(3);
	return 4;
}
`, Options{})
	// one replay for the early return, two for the final one
	if n := strings.Count(out, "call void @note("); n != 3 {
		t.Fatalf("expected 3 deferred calls, got %d:\n%s", n, out)
	}
}

func TestGlobalsAndStrings(t *testing.T) {
	mod, out := generate(t, `
counter := 10;
greeting := "hi";
main :: proc() { counter += 1; }
`, Options{})
	if len(mod.Globals) < 2 {
		t.Fatalf("globals missing:\n%s", out)
	}
	expectContains(t, out, "@counter = global i64 10", `c"hi\00"`)
}

func TestStartupInitialisers(t *testing.T) {
	_, out := generate(t, `
seed :: proc() -> int { return 4; }
value := seed();
main :: proc() { }
`, Options{})
	expectContains(t, out, "__$startup_runtime", "call i64 @seed(")
}

func TestStructsAndSlices(t *testing.T) {
	_, out := generate(t, `
V :: struct { x, y: f32 }
sum :: proc(vs: []V) -> f32 {
	total: f32;
	for i := 0; i < len(vs); i += 1 {
		total += vs[i].x + vs[i].y;
	}
	return total;
}
`, Options{})
	expectContains(t, out, "%V = type", "fadd float", "getelementptr inbounds %V")
}

func TestBuiltins(t *testing.T) {
	_, out := generate(t, `
f :: proc(p: ^int) -> int {
	q := new(int);
	atomic_store(p, 1);
	old := atomic_add(p, 2);
	delete(q);
	return max(old, 3);
}
`, Options{})
	expectContains(t, out, "@odin_alloc(", "store atomic i64", "atomicrmw add", "@odin_free(", "select i1")
}

func TestShiftsGuardWidth(t *testing.T) {
	_, out := generate(t, `
shl :: proc(x: u32, n: u32) -> u32 { return x << n; }
`, Options{})
	expectContains(t, out, "shl i32", "icmp ult i32", "select i1")
}

func TestUnionVariantTagsAreOneBased(t *testing.T) {
	_, out := generate(t, `
T :: union { a: int, b: f64 }
set_a :: proc(t: ^T, a: int) { t^ = a; }
set_b :: proc(t: ^T, b: f64) { t^ = b; }
`, Options{})
	expectContains(t, out, "%T = type", "store i64 1, i64*", "store i64 2, i64*")
	if strings.Contains(out, "store i64 0, i64*") {
		t.Fatalf("variant stored with a zero tag:\n%s", out)
	}
}

func TestUnionNil(t *testing.T) {
	_, out := generate(t, `
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
	)
	if strings.Contains(out, "%M = type") {
		t.Fatalf("maybe-pointer union got a named type:\n%s", out)
	}
}

func TestDefersRunInReverseOrder(t *testing.T) {
	_, out := generate(t, `
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
	_, out := generate(t, `
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
	_, out := generate(t, `
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
