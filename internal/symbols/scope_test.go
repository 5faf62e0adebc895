package symbols

import (
	"testing"

	"odinc/internal/source"
	"odinc/internal/types"
)

func TestInsertReportsPrevious(t *testing.T) {
	tbl := NewTable()
	s := NewScope(nil, ScopePackage, source.Span{})
	a := tbl.New(EntityVariable, "x", source.Span{}, s)
	b := tbl.New(EntityVariable, "x", source.Span{}, s)
	if prev := s.Insert(a); prev != nil {
		t.Fatalf("first insert should succeed")
	}
	if prev := s.Insert(b); prev != a {
		t.Fatalf("second insert should return the first entity")
	}
	if s.Lookup("x") != a {
		t.Fatalf("first writer should win")
	}
	if prev := s.Insert(tbl.New(EntityVariable, "_", source.Span{}, s)); prev != nil || s.Len() != 1 {
		t.Fatalf("blank names are never recorded")
	}
}

func TestLookupParent(t *testing.T) {
	tbl := NewTable()
	in := types.NewInterner()
	u := NewUniverse(tbl, in)
	pkg := NewScope(u, ScopePackage, source.Span{})
	blk := NewScope(pkg, ScopeBlock, source.Span{})

	sc, e := blk.LookupParent("int")
	if sc != u || e == nil || e.Kind != EntityTypeName || e.Type != in.Builtin(types.Int) {
		t.Fatalf("int should resolve in the universe")
	}
	if _, e := blk.LookupParent("len"); e == nil || e.BuiltinID != BuiltinLen {
		t.Fatalf("len should be a builtin")
	}
	if _, e := blk.LookupParent("byte"); e == nil || e.Type != in.Builtin(types.U8) {
		t.Fatalf("byte should alias u8")
	}
	if _, e := blk.LookupParent("missing"); e != nil {
		t.Fatalf("unexpected entity for missing name")
	}
	if blk.Enclosing(ScopePackage) != pkg {
		t.Fatalf("enclosing package scope not found")
	}
}

func TestTableIDs(t *testing.T) {
	tbl := NewTable()
	e := tbl.New(EntityConstant, "k", source.Span{}, nil)
	if e.ID != 1 || tbl.Get(1) != e || tbl.Get(0) != nil {
		t.Fatalf("ids should start at 1")
	}
}
