package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"odinc/internal/diag"
	"odinc/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	src := "main :: proc() {\n\tx := y;\n}\n"
	id := fs.AddVirtual("dir/main.odin", []byte(src))
	off := uint32(strings.Index(src, "y;"))
	bag := diag.NewBag(10)
	decl := uint32(strings.Index(src, "main"))
	bag.Add(diag.NewError(diag.SemaUndeclared, source.Span{File: id, Start: off, End: off + 1}, "undeclared name: y").
		WithNote(source.Span{File: id, Start: decl, End: decl + 4}, "inside this procedure"))
	return bag, fs
}

func TestPrettyUnderlinesSpan(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true}); err != nil {
		t.Fatal(err)
	}
	want := "dir/main.odin:2:7: ERROR SEM3002: undeclared name: y\n" +
		"  2 |     x := y;\n" +
		"    |          ^\n" +
		"  dir/main.odin:1:1: note: inside this procedure\n" +
		"  1 | main :: proc() {\n" +
		"    | ^~~~\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyContextAndBasename(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: PathModeBasename}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "main.odin:2:7:") {
		t.Fatalf("basename not applied:\n%s", out)
	}
	if !strings.Contains(out, "  1 | main :: proc() {\n  2 |") {
		t.Fatalf("context line missing:\n%s", out)
	}
	if strings.Contains(out, "note:") {
		t.Fatalf("notes printed without ShowNotes:\n%s", out)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || out.Errors != 1 {
		t.Fatalf("count=%d errors=%d", out.Count, out.Errors)
	}
	d := out.Diagnostics[0]
	if d.Code != "SEM3002" || d.Location.StartLine != 2 || d.Location.StartCol != 7 || len(d.Notes) != 1 {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

func TestJSONEmptyBag(t *testing.T) {
	out := BuildDiagnosticsOutput(diag.NewBag(1), source.NewFileSet(), JSONOpts{})
	if out.Diagnostics == nil || out.Count != 0 {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestParsePathMode(t *testing.T) {
	if m, err := ParsePathMode("abs"); err != nil || m != PathModeAbsolute {
		t.Fatalf("abs: %v %v", m, err)
	}
	if _, err := ParsePathMode("weird"); err == nil {
		t.Fatalf("expected error")
	}
}
