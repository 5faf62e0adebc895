package constant

import (
	"math"
	"math/big"

	"modernc.org/mathutil"
)

// Class is the representation family of a target basic type.
type Class uint8

const (
	ClassBool Class = iota
	ClassString
	ClassInteger
	ClassFloat
	ClassComplex
	ClassPointer
)

// Fit is the outcome of a representability check.
type Fit uint8

const (
	Fits Fit = iota
	// Truncated: a non-integral value bound to an integer type.
	Truncated
	// Overflows: the value is outside the range of the type.
	Overflows
	// Mismatch: the value has the wrong kind for the type.
	Mismatch
)

// Representable checks whether v can be stored in a type of class with the
// given bit width and signedness. bits == 0 means the type is untyped and
// therefore unbounded. On success the value converted to the class
// representation is returned (for example an integer bound to f32 becomes a
// float rounded to single precision).
func Representable(v Value, class Class, bits int, unsigned bool) (Value, Fit) {
	switch class {
	case ClassBool:
		if v.kind == Bool {
			return v, Fits
		}
	case ClassString:
		if v.kind == String {
			return v, Fits
		}
	case ClassPointer:
		if v.kind == Pointer {
			return v, Fits
		}
	case ClassInteger:
		i := ToInteger(v)
		if i.kind != Integer {
			switch v.kind {
			case Float, Complex:
				return Value{}, Truncated
			}
			return Value{}, Mismatch
		}
		if bits == 0 || intFits(i.i, bits, unsigned) {
			return i, Fits
		}
		return Value{}, Overflows
	case ClassFloat:
		f := ToFloat(v)
		if f.kind != Float {
			return Value{}, Mismatch
		}
		r, ok := roundFloat(f.re, bits)
		if !ok {
			return Value{}, Overflows
		}
		return Value{kind: Float, re: r}, Fits
	case ClassComplex:
		c := ToComplex(v)
		if c.kind != Complex {
			return Value{}, Mismatch
		}
		half := bits / 2
		re, ok1 := roundFloat(c.re, half)
		im, ok2 := roundFloat(c.im, half)
		if !ok1 || !ok2 {
			return Value{}, Overflows
		}
		return Value{kind: Complex, re: re, im: im}, Fits
	}
	return Value{}, Mismatch
}

// intFits implements the two's complement ranges
// signed [-2^(W-1), 2^(W-1)-1] and unsigned [0, 2^W-1].
func intFits(x *big.Int, bits int, unsigned bool) bool {
	if unsigned {
		if x.Sign() < 0 {
			return false
		}
		if x.IsUint64() {
			return mathutil.BitLenUint64(x.Uint64()) <= bits
		}
		return x.BitLen() <= bits
	}
	if x.IsInt64() {
		n := x.Int64()
		if n < 0 {
			n = ^n
		}
		return mathutil.BitLenUint64(uint64(n)) <= bits-1
	}
	if x.Sign() < 0 {
		// -x-1 has the same bit length budget as the positive range
		t := new(big.Int).Not(x)
		return t.BitLen() <= bits-1
	}
	return x.BitLen() <= bits-1
}

// roundFloat rounds f to a float of the given width. bits == 0 keeps full precision.
func roundFloat(f *big.Float, bits int) (*big.Float, bool) {
	switch bits {
	case 32:
		x, _ := f.Float32()
		if math.IsInf(float64(x), 0) {
			return nil, false
		}
		return newFloat().SetFloat64(float64(x)), true
	case 64:
		x, _ := f.Float64()
		if math.IsInf(x, 0) {
			return nil, false
		}
		return newFloat().SetFloat64(x), true
	}
	return newFloat().Set(f), true
}

// Wrap reduces an integer modulo 2^bits into the signed or unsigned range.
// Backends use it when materialising typed constants.
func Wrap(v Value, bits int, unsigned bool) Value {
	i := ToInteger(v)
	if i.kind != Integer || bits <= 0 {
		return i
	}
	mod := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	r := new(big.Int).Mod(i.i, mod)
	if !unsigned {
		half := new(big.Int).Rsh(mod, 1)
		if r.Cmp(half) >= 0 {
			r.Sub(r, mod)
		}
	}
	return Value{kind: Integer, i: r}
}
