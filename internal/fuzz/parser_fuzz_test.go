package fuzztests

import (
	"context"
	"testing"
	"time"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/diag"
	"odinc/internal/layout"
	"odinc/internal/parser"
	"odinc/internal/source"
	"odinc/internal/testkit"
)

// frontEndTimeout bounds one input; exceeding it means a loop in error
// recovery.
const frontEndTimeout = 5 * time.Second

func FuzzParserBuildsAST(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		id := fs.AddVirtual("fuzz.odin", input)
		bag := diag.NewBag(128)
		file := parser.ParseFile(fs, id, parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 128})
		if file == nil {
			t.Fatalf("ParseFile returned nil")
		}
		if bag.HasErrors() {
			return
		}
		if err := testkit.CheckSpanInvariants(file, fs.Get(id)); err != nil {
			t.Fatalf("span invariants: %v", err)
		}
	})
}

// FuzzFrontEndNoHang parses and, when parsing succeeds, checks each input
// under a deadline.
func FuzzFrontEndNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("main :: proc() { x := 1\ny := 2; }"))
	f.Add([]byte("f :: proc() { { { { } } } }"))
	f.Add([]byte("A :: B; B :: A;"))
	f.Add([]byte("S :: struct { s: S }"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			id := fs.AddVirtual("fuzz.odin", input)
			bag := diag.NewBag(128)
			rep := diag.BagReporter{Bag: bag}
			file := parser.ParseFile(fs, id, parser.Options{Reporter: rep, MaxErrors: 128})
			if bag.HasErrors() {
				return
			}
			check.Check(context.Background(), []*ast.File{file}, check.Options{Reporter: rep, Target: layout.X86_64LinuxGNU()})
		}()
		select {
		case <-done:
		case <-time.After(frontEndTimeout):
			t.Fatalf("front end did not finish within %v on input %q", frontEndTimeout, input)
		}
	})
}
