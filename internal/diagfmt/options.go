// Package diagfmt renders diagnostics for people (Pretty) and for tools
// (JSON). The one-line form lives in diag itself.
package diagfmt

import (
	"fmt"
	"path/filepath"
	"strings"

	"odinc/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto keeps the path as loaded.
	PathModeAuto PathMode = iota
	PathModeAbsolute
	PathModeBasename
)

// ParsePathMode parses auto, absolute or basename.
func ParsePathMode(s string) (PathMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return PathModeAuto, nil
	case "absolute", "abs":
		return PathModeAbsolute, nil
	case "basename", "base":
		return PathModeBasename, nil
	}
	return PathModeAuto, fmt.Errorf("invalid path mode %q (want auto|absolute|basename)", s)
}

// PrettyOpts configures Pretty.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	ShowNotes bool
	// Context is the number of source lines printed above the primary
	// line.
	Context int
	// Width truncates excerpt lines; 0 keeps them whole.
	Width int
}

// JSONOpts configures JSON.
type JSONOpts struct {
	IncludePositions bool
	IncludeNotes     bool
	PathMode         PathMode
	// Max limits the output, not the bag.
	Max int
}

func formatPath(f *source.File, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return abs
		}
	case PathModeBasename:
		return f.BaseName()
	}
	return f.Path
}
