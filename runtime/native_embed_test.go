package runtimeembed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteToCopiesShim(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteTo(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "odin_rt.c" || filepath.Base(paths[1]) != "odin_rt.h" {
		t.Fatalf("WriteTo = %v", paths)
	}
	data, err := os.ReadFile(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	for _, sym := range []string{"odin_bounds_check_error", "odin_default_context", "odin_append", "odin_map_set", "odin_bit_read"} {
		if !strings.Contains(string(data), sym) {
			t.Errorf("header lacks %s", sym)
		}
	}
}
