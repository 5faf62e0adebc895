package fuzztests

import (
	"testing"

	"odinc/internal/diag"
	"odinc/internal/lexer"
	"odinc/internal/source"
	"odinc/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.odin", input))

		bag := diag.NewBag(64)
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
		// every token but EOF consumes input, so the stream is bounded
		for n := 0; ; n++ {
			if n > 2*len(input)+2 {
				t.Fatalf("lexer produced more tokens than input bytes")
			}
			if lx.Next().Kind == token.EOF {
				break
			}
		}
	})
}
