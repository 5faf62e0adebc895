package driver

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"odinc/internal/diag"
)

const addSrc = `
add :: proc(a, b: int) -> int { return a + b; }
`

const mainSrc = `
main :: proc() {
	x := add(1, 2);
	x += 3;
}
`

func testConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.CacheDir = t.TempDir()
	return cfg
}

func writePackage(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "demo")
	writeFile(t, filepath.Join(dir, "a.odin"), addSrc)
	writeFile(t, filepath.Join(dir, "b.odin"), mainSrc)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	return dir
}

func TestCollectSources(t *testing.T) {
	dir := writePackage(t)
	writeFile(t, filepath.Join(dir, ".hidden", "x.odin"), "")
	got, err := CollectSources([]string{dir, filepath.Join(dir, "a.odin")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || filepath.Base(got[0]) != "a.odin" || filepath.Base(got[1]) != "b.odin" {
		t.Fatalf("CollectSources = %v", got)
	}
	if _, err := CollectSources([]string{t.TempDir()}); err == nil {
		t.Fatalf("empty directory accepted")
	}
}

func TestCheckAndEmitLLVM(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.ModulePerFile = true
	var mu sync.Mutex
	seen := map[string]bool{}
	cfg.Observer = func(ev PhaseEvent) {
		mu.Lock()
		defer mu.Unlock()
		if ev.Status == PhaseEnd {
			seen[ev.Name+" "+filepath.Base(ev.Module)] = true
		}
	}

	res, err := Check(ctx, cfg, []string{writePackage(t)})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if res.HasErrors() {
		t.Fatalf("diagnostics: %s", diag.FormatShort(res.Bag.Items(), res.Files, diag.ShortOpts{}))
	}
	out, err := Emit(ctx, cfg, res)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if out.Cached || len(out.Modules) != 2 {
		t.Fatalf("modules = %d, cached = %v", len(out.Modules), out.Cached)
	}
	if out.Modules[0].Name != "a" || !strings.Contains(out.Modules[0].Text, "define i64 @add(") {
		t.Fatalf("module a:\n%s", out.Modules[0].Text)
	}
	if !strings.Contains(out.Modules[1].Text, "declare i64 @add(") {
		t.Fatalf("module b:\n%s", out.Modules[1].Text)
	}
	for _, want := range []string{"parse a.odin", "parse b.odin", "check .", "emit a", "emit b"} {
		if !seen[want] {
			t.Errorf("no end event for %q in %v", want, seen)
		}
	}

	again, err := Emit(ctx, cfg, res)
	if err != nil {
		t.Fatalf("second Emit: %v", err)
	}
	if !again.Cached || again.Modules[1].Text != out.Modules[1].Text {
		t.Fatalf("second Emit missed the cache")
	}
}

func TestEmitIRBackend(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Backend = BackendIR
	cfg.Cache = false
	res, err := Check(ctx, cfg, []string{writePackage(t)})
	if err != nil || res.HasErrors() {
		t.Fatalf("Check: %v", err)
	}
	out, err := Emit(ctx, cfg, res)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(out.Modules) != 1 || out.Modules[0].Name != "demo" {
		t.Fatalf("modules = %+v", out.Modules)
	}
	if !strings.Contains(out.Modules[0].Text, "@add(") {
		t.Fatalf("module text:\n%s", out.Modules[0].Text)
	}
}

func TestSourceErrorsStopBeforeEmit(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.odin"), "f :: proc() -> int { return true; }\n")
	res, err := Check(ctx, cfg, []string{dir})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !res.HasErrors() {
		t.Fatalf("type error not reported")
	}
	if _, err := Emit(ctx, cfg, res); err != ErrDiagnostics {
		t.Fatalf("Emit = %v, want ErrDiagnostics", err)
	}
}

func TestCacheKeyDependsOnSettings(t *testing.T) {
	cfg := DefaultConfig()
	var src Digest
	src[0] = 1
	base := cacheKey(&cfg, src)
	cfg.NoBoundsCheck = true
	if cacheKey(&cfg, src) == base {
		t.Fatalf("bounds check setting not part of the key")
	}
	cfg.NoBoundsCheck = false
	cfg.Target = "i386-linux-gnu"
	if cacheKey(&cfg, src) == base {
		t.Fatalf("target not part of the key")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	c, err := OpenDiskCache("odinc", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var key Digest
	key[3] = 7
	var miss DiskPayload
	if ok, err := c.Get(key, &miss); ok || err != nil {
		t.Fatalf("Get on empty cache = %v, %v", ok, err)
	}
	if err := c.Put(key, &DiskPayload{Backend: "llvm", Names: []string{"m"}, Texts: []string{"; x"}}); err != nil {
		t.Fatal(err)
	}
	var got DiskPayload
	if ok, err := c.Get(key, &got); !ok || err != nil || got.Texts[0] != "; x" {
		t.Fatalf("Get = %v, %v, %+v", ok, err, got)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if ok, _ := c.Get(key, &got); ok {
		t.Fatalf("entry survived DropAll")
	}
}
