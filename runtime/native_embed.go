// Package runtimeembed carries the C runtime shim that programs built by
// odinc link against.
package runtimeembed

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed native/*.c native/*.h
var nativeRuntimeFS embed.FS

// NativeRuntimeFS exposes the embedded sources under native/.
func NativeRuntimeFS() fs.FS {
	return nativeRuntimeFS
}

// WriteTo copies the runtime sources into dir and returns the written
// paths in name order.
func WriteTo(dir string) ([]string, error) {
	entries, err := fs.ReadDir(nativeRuntimeFS, "native")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		data, err := fs.ReadFile(nativeRuntimeFS, "native/"+e.Name())
		if err != nil {
			return nil, err
		}
		p := filepath.Join(dir, e.Name())
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return nil, fmt.Errorf("write runtime %s: %w", e.Name(), err)
		}
		out = append(out, p)
	}
	return out, nil
}
