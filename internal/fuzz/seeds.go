package fuzztests

import (
	"os"
	"path/filepath"
	"testing"
)

const maxFuzzInput = 1 << 16

var languageSeeds = []string{
	"",
	"main :: proc() { }",
	"add :: proc(a, b: int) -> int { return a + b; }",
	"pair :: proc() -> (int, bool) { return 1, true; }",
	"Big :: struct { a, b, c, d: int }\nbuild :: proc() -> Big { return Big{1, 2, 3, 4}; }",
	"get :: proc(xs: []int, i: int) -> int { return xs[i]; }",
	"f :: proc(c: bool) -> int {\n\tdefer note(1);\n\tif c { return 2; }\n\treturn 4;\n}",
	"counter := 10;\ngreeting := \"hi\\n\";\nr := 'x';",
	"V4 :: [vector 4]f32;\nlo :: proc(v: V4) -> [vector 2]f32 { return swizzle(v, 0, 1); }",
	"cb :: proc \"c\" () { }",
	"Kind :: enum { A, B = 4, C }",
	"Shape :: union { circle: f64, square: ^int }\nx: Shape;",
	"for i := 0; i < 10; i += 1 { }",
	"x := 0x_ff + 0b1010 + 1e9 + 3.5i;",
	"/* unterminated",
	"s := \"unterminated",
	"((((((((((",
	"p: ^int; q := p^; a := [?]int{1, 2, 3}; b := a[1:];",
}

// addCorpusSeeds adds the built-in seeds plus every .odin file under
// testdata/ next to the package, if any.
func addCorpusSeeds(f *testing.F) {
	for _, s := range languageSeeds {
		f.Add([]byte(s))
	}
	matches, _ := filepath.Glob(filepath.Join("testdata", "*.odin"))
	for _, path := range matches {
		// #nosec G304 -- path comes from the package testdata
		src, err := os.ReadFile(path)
		if err != nil || len(src) > maxFuzzInput {
			continue
		}
		f.Add(src)
	}
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
