package source

import "testing"

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.odin", []byte("ab\ncd\n\nxyz"))
	cases := []struct {
		off       uint32
		line, col uint32
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{6, 3, 1},
		{9, 4, 3},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start.Line != tc.line || start.Col != tc.col {
			t.Errorf("offset %d: got %d:%d, want %d:%d", tc.off, start.Line, start.Col, tc.line, tc.col)
		}
	}
}

func TestAddKeepsVersions(t *testing.T) {
	fs := NewFileSet()
	first := fs.Add("dir/../x.odin", []byte("one"), 0)
	second := fs.Add("x.odin", []byte("two"), 0)
	if first == second {
		t.Fatal("expected distinct ids for re-added file")
	}
	latest, ok := fs.GetLatest("x.odin")
	if !ok || latest != second {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, second)
	}
	if string(fs.Get(first).Content) != "one" {
		t.Fatalf("first version lost")
	}
}

func TestNormalizeCRLFAndBOM(t *testing.T) {
	in := []byte("\xEF\xBB\xBFa\r\nb\rc")
	out, bom := removeBOM(in)
	if !bom {
		t.Fatal("expected BOM to be detected")
	}
	out, crlf := normalizeCRLF(out)
	if !crlf || string(out) != "a\nb\rc" {
		t.Fatalf("normalizeCRLF = %q, %v", out, crlf)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got.Start != 2 || got.End != 8 {
		t.Fatalf("Cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cross-file cover changed span: %v", got)
	}
}
