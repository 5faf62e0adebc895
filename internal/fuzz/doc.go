// Package fuzztests holds fuzz harnesses for the front end (lexer, parser
// and checker). They only assert that arbitrary input never panics or
// hangs; diagnostics are expected and ignored.
package fuzztests
