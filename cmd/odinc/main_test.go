package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"odinc/internal/driver"
)

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{"": uiModeAuto, "AUTO": uiModeAuto, " on ": uiModeOn, "off": uiModeOff}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
	if !shouldUseTUI(uiModeOn) || shouldUseTUI(uiModeOff) {
		t.Fatalf("explicit modes ignored")
	}
}

// testCommand builds a detached command tree carrying the same flags as
// the real one.
func testCommand(t *testing.T) *cobra.Command {
	t.Helper()
	root := &cobra.Command{Use: "odinc"}
	root.PersistentFlags().Int("max-diagnostics", 100, "")
	root.PersistentFlags().Bool("timings", false, "")
	root.PersistentFlags().String("config", "", "")
	root.PersistentFlags().String("color", "off", "")
	root.PersistentFlags().Bool("quiet", false, "")
	sub := &cobra.Command{Use: "emit-ir"}
	addBuildFlags(sub)
	root.AddCommand(sub)
	return sub
}

func TestResolveConfigAppliesChangedFlags(t *testing.T) {
	dir := t.TempDir()
	toml := "[build]\ntarget = \"i386-linux-gnu\"\njobs = 3\n"
	if err := os.WriteFile(filepath.Join(dir, driver.ConfigFileName), []byte(toml), 0o600); err != nil {
		t.Fatal(err)
	}
	cmd := testCommand(t)
	if err := cmd.Flags().Set("backend", "ir"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("no-cache", "true"); err != nil {
		t.Fatal(err)
	}
	cfg, err := resolveConfig(cmd, []string{dir})
	if err != nil {
		t.Fatalf("resolveConfig: %v", err)
	}
	if cfg.Target != "i386-linux-gnu" || cfg.Jobs != 3 {
		t.Fatalf("file settings lost: %+v", cfg)
	}
	if cfg.Backend != driver.BackendIR || cfg.Cache {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestResolveConfigRejectsBadFlags(t *testing.T) {
	cmd := testCommand(t)
	if err := cmd.Flags().Set("target", "pdp11"); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveConfig(cmd, []string{t.TempDir()}); err == nil {
		t.Fatalf("unknown target accepted")
	}
}

func TestWriteModules(t *testing.T) {
	mods := []driver.Module{{Name: "a", Text: "; a\n"}, {Name: "b", Text: "; b\n"}}
	var buf bytes.Buffer
	if err := writeModules(&buf, "", mods); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "; module b\n; b\n") {
		t.Fatalf("unexpected stdout output:\n%s", buf.String())
	}

	dir := filepath.Join(t.TempDir(), "out")
	if err := writeModules(&buf, dir, mods); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "b.ll"))
	if err != nil || string(got) != "; b\n" {
		t.Fatalf("b.ll = %q, %v", got, err)
	}

	file := filepath.Join(t.TempDir(), "one.ll")
	if err := writeModules(&buf, file, mods[:1]); err != nil {
		t.Fatal(err)
	}
	if got, _ := os.ReadFile(file); string(got) != "; a\n" {
		t.Fatalf("one.ll = %q", got)
	}
}
