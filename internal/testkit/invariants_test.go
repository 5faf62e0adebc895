package testkit

import (
	"strings"
	"testing"

	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/parser"
	"odinc/internal/source"
)

func TestParsedFileHoldsSpanInvariants(t *testing.T) {
	fs := source.NewFileSet()
	src := `
Vec :: struct { x, y: f32 }
len2 :: proc(v: Vec) -> f32 {
	s := v.x*v.x + v.y*v.y;
	if s < 0 { return 0; }
	return s;
}
`
	id := fs.AddVirtual("vec.odin", []byte(src))
	bag := diag.NewBag(10)
	f := parser.ParseFile(fs, id, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if err := CheckSpanInvariants(f, fs.Get(id)); err != nil {
		t.Fatal(err)
	}
}

func TestDetectsSpanOutsideFile(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("x.odin", []byte("x := 1;"))
	f := &ast.File{ID: id, Sp: source.Span{File: id, Start: 0, End: 7}}
	f.Decls = append(f.Decls, &ast.ValueDecl{Sp: source.Span{File: id, Start: 2, End: 40}})
	err := CheckSpanInvariants(f, fs.Get(id))
	if err == nil || !strings.Contains(err.Error(), "outside file span") {
		t.Fatalf("expected span error, got %v", err)
	}
}
