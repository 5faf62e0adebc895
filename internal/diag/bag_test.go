package diag

import (
	"strings"
	"testing"

	"odinc/internal/source"
)

func TestBagLimitAndErrors(t *testing.T) {
	b := NewBag(2)
	b.Add(New(SevWarning, SemaUnusedValue, source.Span{}, "w"))
	if b.HasErrors() {
		t.Fatal("warning counted as error")
	}
	b.Add(NewError(SemaUndeclared, source.Span{}, "e"))
	if ok := b.Add(NewError(SemaUndeclared, source.Span{}, "dropped")); ok {
		t.Fatal("limit not enforced")
	}
	if !b.HasErrors() || b.Len() != 2 {
		t.Fatalf("unexpected bag state: %+v", b.Items())
	}
}

func TestSortAndDedup(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(SemaUndeclared, source.Span{Start: 9, End: 10}, "late"))
	b.Add(NewError(SemaUndeclared, source.Span{Start: 1, End: 2}, "early"))
	b.Add(NewError(SemaUndeclared, source.Span{Start: 1, End: 2}, "early"))
	b.Dedup()
	b.Sort()
	items := b.Items()
	if len(items) != 2 || items[0].Message != "early" {
		t.Fatalf("got %+v", items)
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: b})
	for range 3 {
		ReportError(r, SemaDeclCycle, source.Span{Start: 4, End: 5}, "cycle").Emit()
	}
	if b.Len() != 1 {
		t.Fatalf("expected one diagnostic, got %d", b.Len())
	}
}

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.odin", []byte("x := 1;\ny := z;\n"))
	d := NewError(SemaUndeclared, source.Span{File: id, Start: 13, End: 14}, "undeclared name: z").
		WithNote(source.Span{File: id, Start: 0, End: 1}, "x declared here")
	out := FormatShort([]Diagnostic{d}, fs, ShortOpts{IncludeNotes: true})
	if !strings.HasPrefix(out, "main.odin:2:6: ERROR SEM3002: undeclared name: z\n") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.Contains(out, "main.odin:1:1: note: x declared here") {
		t.Fatalf("note missing in %q", out)
	}
}
