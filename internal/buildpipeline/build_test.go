package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"odinc/internal/driver"
)

func writeSource(t *testing.T, dir, name, text string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) has(module string, stage Stage, status Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Module == module && ev.Stage == stage && ev.Status == status {
			return true
		}
	}
	return false
}

func TestBuildWritesModulesAndRuntime(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "a.odin", "add :: proc(a, b: int) -> int { return a + b; }\n")
	writeSource(t, src, "b.odin", "main :: proc() { x := add(1, 2); }\n")
	cfg := driver.DefaultConfig()
	cfg.Cache = false
	cfg.ModulePerFile = true
	rec := &recorder{}

	res, err := Build(context.Background(), &BuildRequest{
		CompileRequest: CompileRequest{Paths: []string{src}, Config: cfg, Progress: rec},
		OutputDir:      filepath.Join(t.TempDir(), "out"),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Modules) != 2 || len(res.Runtime) != 2 {
		t.Fatalf("written modules %v, runtime %v", res.Modules, res.Runtime)
	}
	data, err := os.ReadFile(res.Modules[1])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "define i32 @main()") {
		t.Fatalf("%s:\n%s", res.Modules[1], data)
	}
	for _, want := range []struct {
		module string
		stage  Stage
	}{{"a.odin", StageParse}, {"", StageCheck}, {"a", StageEmit}, {"b", StageEmit}, {"", StageWrite}} {
		if !rec.has(want.module, want.stage, StatusDone) {
			t.Errorf("no done event for %s %q", want.stage, want.module)
		}
	}
	if res.Timings.Duration(StageParse) < 0 {
		t.Fatalf("negative parse time")
	}
}

func TestCompileStopsOnErrors(t *testing.T) {
	src := t.TempDir()
	writeSource(t, src, "bad.odin", "f :: proc() { x := undefined_name; }\n")
	cfg := driver.DefaultConfig()
	cfg.Cache = false
	res, err := Compile(context.Background(), &CompileRequest{Paths: []string{src}, Config: cfg, Emit: true})
	if !errors.Is(err, driver.ErrDiagnostics) {
		t.Fatalf("Compile = %v, want ErrDiagnostics", err)
	}
	if res.Check == nil || !res.Check.HasErrors() || res.Emit != nil {
		t.Fatalf("result = %+v", res)
	}
}
