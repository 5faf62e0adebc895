// Package testkit holds assertions shared by front-end tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"odinc/internal/ast"
	"odinc/internal/source"
)

// CheckSpanInvariants verifies the spans of a parsed file:
//   - the file span lies within the content of sf
//   - every node span is ordered, points at sf and lies within the file span
//   - the file span covers every declaration
//
// Zero spans of synthesised nodes are skipped.
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	fsp := f.Sp
	if fsp.File != sf.ID {
		return fmt.Errorf("file span points to file %d, want %d", fsp.File, sf.ID)
	}
	if fsp.End < fsp.Start || fsp.End > size {
		return fmt.Errorf("file span %v outside content of %d bytes", fsp, size)
	}

	var bad error
	ast.Inspect(f, func(n ast.Node) bool {
		if bad != nil {
			return false
		}
		sp := n.Span()
		if sp == (source.Span{}) {
			return true
		}
		switch {
		case sp.End < sp.Start:
			bad = fmt.Errorf("%T has inverted span %v", n, sp)
		case sp.File != sf.ID:
			bad = fmt.Errorf("%T span points to file %d, want %d", n, sp.File, sf.ID)
		case sp.Start < fsp.Start || sp.End > fsp.End:
			bad = fmt.Errorf("%T span %v is outside file span %v", n, sp, fsp)
		}
		return bad == nil
	})
	if bad != nil {
		return bad
	}
	if len(f.Decls) > 0 {
		union := f.Decls[0].Sp
		for _, d := range f.Decls[1:] {
			union = union.Cover(d.Sp)
		}
		if union.Start < fsp.Start || union.End > fsp.End {
			return fmt.Errorf("file span %v does not cover declarations %v", fsp, union)
		}
	}
	return nil
}
