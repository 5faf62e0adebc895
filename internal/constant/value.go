// Package constant implements the exact values the checker folds.
//
// Values are immutable; every operation returns a fresh Value and never
// aliases the big.Int/big.Float of an operand. Integers are unbounded and
// floats carry 512 bits of mantissa, so folding the same expression twice
// yields identical results.
package constant

import (
	"fmt"
	"math/big"
	"strconv"

	"odinc/internal/ast"
)

// Kind is the representation of a Value.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	String
	Integer
	Float
	Complex
	Pointer
	Compound
	Procedure
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case String:
		return "string"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Complex:
		return "complex"
	case Pointer:
		return "pointer"
	case Compound:
		return "compound"
	case Procedure:
		return "procedure"
	}
	return "invalid"
}

// Prec is the mantissa precision of Float and Complex values.
const Prec = 512

type Value struct {
	kind Kind
	b    bool
	s    string
	i    *big.Int
	re   *big.Float
	im   *big.Float
	ptr  int64
	node ast.Node
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsValid() bool { return v.kind != Invalid }

func MakeBool(b bool) Value { return Value{kind: Bool, b: b} }

func MakeString(s string) Value { return Value{kind: String, s: s} }

func MakeInt64(x int64) Value { return Value{kind: Integer, i: big.NewInt(x)} }

func MakeUint64(x uint64) Value { return Value{kind: Integer, i: new(big.Int).SetUint64(x)} }

// MakeInt copies x.
func MakeInt(x *big.Int) Value { return Value{kind: Integer, i: new(big.Int).Set(x)} }

func MakeFloat64(x float64) Value {
	return Value{kind: Float, re: newFloat().SetFloat64(x)}
}

// MakeFloat copies x. Infinities are rejected.
func MakeFloat(x *big.Float) Value {
	if x.IsInf() {
		return Value{}
	}
	return Value{kind: Float, re: newFloat().Set(x)}
}

func MakeComplex(re, im Value) Value {
	r, i := ToFloat(re), ToFloat(im)
	if r.kind != Float || i.kind != Float {
		return Value{}
	}
	return Value{kind: Complex, re: r.re, im: i.re}
}

func MakePointer(addr int64) Value { return Value{kind: Pointer, ptr: addr} }

// MakeCompound wraps a constant composite literal.
func MakeCompound(n ast.Node) Value { return Value{kind: Compound, node: n} }

// MakeProcedure wraps a procedure literal used as a constant.
func MakeProcedure(n ast.Node) Value { return Value{kind: Procedure, node: n} }

func newFloat() *big.Float { return new(big.Float).SetPrec(Prec) }

func (v Value) BoolVal() bool { return v.kind == Bool && v.b }

func (v Value) StringVal() string { return v.s }

// Int returns a copy of the integer value, or nil for other kinds.
func (v Value) Int() *big.Int {
	if v.kind != Integer {
		return nil
	}
	return new(big.Int).Set(v.i)
}

// Float returns a copy of the float value (real part for complex).
func (v Value) Float() *big.Float {
	switch v.kind {
	case Float, Complex:
		return newFloat().Set(v.re)
	}
	return nil
}

func (v Value) Imag() *big.Float {
	if v.kind != Complex {
		return nil
	}
	return newFloat().Set(v.im)
}

func (v Value) PointerVal() int64 { return v.ptr }

func (v Value) Node() ast.Node { return v.node }

// Int64 reports v as an int64 when it is an exactly representable integer.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case Integer:
		if v.i.IsInt64() {
			return v.i.Int64(), true
		}
	case Pointer:
		return v.ptr, true
	case Float:
		if i := ToInteger(v); i.kind == Integer && i.i.IsInt64() {
			return i.i.Int64(), true
		}
	}
	return 0, false
}

func (v Value) Uint64() (uint64, bool) {
	if i := ToInteger(v); i.kind == Integer && i.i.IsUint64() {
		return i.i.Uint64(), true
	}
	return 0, false
}

func (v Value) Float64() (float64, bool) {
	switch f := ToFloat(v); f.kind {
	case Float:
		x, _ := f.re.Float64()
		return x, true
	}
	return 0, false
}

// Sign returns -1, 0 or 1 for numeric values and 0 otherwise.
func (v Value) Sign() int {
	switch v.kind {
	case Integer:
		return v.i.Sign()
	case Float:
		return v.re.Sign()
	case Complex:
		if v.re.Sign() == 0 {
			return v.im.Sign()
		}
		return v.re.Sign()
	case Pointer:
		switch {
		case v.ptr < 0:
			return -1
		case v.ptr > 0:
			return 1
		}
	}
	return 0
}

func (v Value) String() string {
	switch v.kind {
	case Bool:
		return strconv.FormatBool(v.b)
	case String:
		return strconv.Quote(v.s)
	case Integer:
		return v.i.String()
	case Float:
		return formatFloat(v.re)
	case Complex:
		return fmt.Sprintf("(%s + %si)", formatFloat(v.re), formatFloat(v.im))
	case Pointer:
		return fmt.Sprintf("0x%x", v.ptr)
	case Compound:
		return "compound literal"
	case Procedure:
		return "procedure"
	}
	return "invalid constant"
}

func formatFloat(f *big.Float) string {
	if f.IsInt() && f.MinPrec() <= 64 {
		i, _ := f.Int(nil)
		return i.String() + ".0"
	}
	return f.Text('g', 17)
}
