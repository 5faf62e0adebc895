package driver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
[build]
target = "wasm32-unknown-unknown"
module_per_file = true
jobs = 2

[output]
dir = "out"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Target != "wasm32-unknown-unknown" || !cfg.ModulePerFile || cfg.Jobs != 2 {
		t.Fatalf("decoded config = %+v", cfg)
	}
	if cfg.Backend != BackendLLVM || !cfg.Cache {
		t.Fatalf("defaults lost: %+v", cfg)
	}
	if cfg.OutputDir != filepath.Join(dir, "out") {
		t.Fatalf("output dir = %q", cfg.OutputDir)
	}
	if cfg.TargetInfo().PtrSize != 4 {
		t.Fatalf("wasm32 pointer size = %d", cfg.TargetInfo().PtrSize)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name, text, want string
	}{
		{"unknown key", "[build]\noptimise = true\n", "unknown keys build.optimise"},
		{"bad target", "[build]\ntarget = \"pdp11\"\n", "unsupported target"},
		{"ir per file", "[build]\nbackend = \"ir\"\nmodule_per_file = true\n", "module_per_file"},
		{"bad backend", "[build]\nbackend = \"c\"\n", "unknown backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ConfigFileName)
			writeFile(t, path, tt.text)
			_, err := LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("LoadConfig error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestValidateWrapsErrBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Jobs = -1
	if err := cfg.Validate(); !errors.Is(err, ErrBadConfig) {
		t.Fatalf("Validate = %v", err)
	}
}

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ConfigFileName), "")
	src := filepath.Join(root, "src", "deep")
	writeFile(t, filepath.Join(src, "main.odin"), "")
	got, ok := FindConfig(filepath.Join(src, "main.odin"))
	if !ok {
		t.Fatalf("config not found")
	}
	want, _ := filepath.Abs(filepath.Join(root, ConfigFileName))
	if got != want {
		t.Fatalf("FindConfig = %q, want %q", got, want)
	}
}
