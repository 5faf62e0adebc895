package constant

import (
	"math/big"

	"odinc/internal/token"
)

// ToInteger converts v to an Integer when that is exact; otherwise Invalid.
func ToInteger(v Value) Value {
	switch v.kind {
	case Integer:
		return v
	case Pointer:
		return MakeInt64(v.ptr)
	case Float:
		if v.re.IsInt() {
			i, _ := v.re.Int(nil)
			return Value{kind: Integer, i: i}
		}
	case Complex:
		if v.im.Sign() == 0 && v.re.IsInt() {
			i, _ := v.re.Int(nil)
			return Value{kind: Integer, i: i}
		}
	}
	return Value{}
}

// Truncate converts a numeric value to an Integer rounding toward zero.
func Truncate(v Value) Value {
	switch v.kind {
	case Integer, Pointer:
		return ToInteger(v)
	case Float, Complex:
		i, _ := v.re.Int(nil)
		return Value{kind: Integer, i: i}
	}
	return Value{}
}

// ToFloat converts v to a Float; complex values need a zero imaginary part.
func ToFloat(v Value) Value {
	switch v.kind {
	case Integer:
		return Value{kind: Float, re: newFloat().SetInt(v.i)}
	case Pointer:
		return Value{kind: Float, re: newFloat().SetInt64(v.ptr)}
	case Float:
		return v
	case Complex:
		if v.im.Sign() == 0 {
			return Value{kind: Float, re: newFloat().Set(v.re)}
		}
	}
	return Value{}
}

func ToComplex(v Value) Value {
	switch v.kind {
	case Integer, Float, Pointer:
		f := ToFloat(v)
		return Value{kind: Complex, re: f.re, im: newFloat()}
	case Complex:
		return v
	}
	return Value{}
}

func order(k Kind) int {
	switch k {
	case Integer, Pointer:
		return 1
	case Float:
		return 2
	case Complex:
		return 3
	}
	return 0
}

// MatchKinds normalises both numeric operands to the wider representation.
// Non-numeric operands are returned unchanged.
func MatchKinds(a, b Value) (Value, Value) {
	oa, ob := order(a.kind), order(b.kind)
	if oa == 0 || ob == 0 {
		return a, b
	}
	switch max(oa, ob) {
	case 1:
		return ToInteger(a), ToInteger(b)
	case 2:
		return ToFloat(a), ToFloat(b)
	default:
		return ToComplex(a), ToComplex(b)
	}
}

// UnaryOp folds + - ~ !. precision > 0 marks an unsigned operand of that
// many bits; "~" then masks the result to the operand width.
func UnaryOp(op token.Kind, v Value, precision int) Value {
	switch op {
	case token.Add:
		switch v.kind {
		case Integer, Float, Complex:
			return v
		}
	case token.Sub:
		switch v.kind {
		case Integer:
			return Value{kind: Integer, i: new(big.Int).Neg(v.i)}
		case Float:
			return Value{kind: Float, re: newFloat().Neg(v.re)}
		case Complex:
			return Value{kind: Complex, re: newFloat().Neg(v.re), im: newFloat().Neg(v.im)}
		}
	case token.Xor:
		if v.kind != Integer {
			break
		}
		r := new(big.Int).Not(v.i)
		if precision > 0 {
			mask := new(big.Int).Lsh(big.NewInt(1), uint(precision))
			mask.Sub(mask, big.NewInt(1))
			r.And(r, mask)
		}
		return Value{kind: Integer, i: r}
	case token.Not:
		if v.kind == Bool {
			return MakeBool(!v.b)
		}
	}
	return Value{}
}

// BinaryOp folds arithmetic, bitwise, logical and string concatenation.
// Integer "/" truncates toward zero. Division by zero yields Invalid.
func BinaryOp(op token.Kind, a, b Value) Value {
	a, b = MatchKinds(a, b)
	if a.kind != b.kind {
		return Value{}
	}
	switch a.kind {
	case Bool:
		switch op {
		case token.CmpAnd:
			return MakeBool(a.b && b.b)
		case token.CmpOr:
			return MakeBool(a.b || b.b)
		case token.And:
			return MakeBool(a.b && b.b)
		case token.Or:
			return MakeBool(a.b || b.b)
		}
	case String:
		if op == token.Add {
			return MakeString(a.s + b.s)
		}
	case Integer:
		return intOp(op, a.i, b.i)
	case Float:
		return floatOp(op, a.re, b.re)
	case Complex:
		return complexOp(op, a, b)
	}
	return Value{}
}

func intOp(op token.Kind, x, y *big.Int) Value {
	r := new(big.Int)
	switch op {
	case token.Add:
		r.Add(x, y)
	case token.Sub:
		r.Sub(x, y)
	case token.Mul:
		r.Mul(x, y)
	case token.Quo:
		if y.Sign() == 0 {
			return Value{}
		}
		r.Quo(x, y)
	case token.Mod:
		if y.Sign() == 0 {
			return Value{}
		}
		r.Rem(x, y)
	case token.And:
		r.And(x, y)
	case token.Or:
		r.Or(x, y)
	case token.Xor:
		r.Xor(x, y)
	case token.AndNot:
		r.AndNot(x, y)
	default:
		return Value{}
	}
	return Value{kind: Integer, i: r}
}

func floatOp(op token.Kind, x, y *big.Float) Value {
	r := newFloat()
	switch op {
	case token.Add:
		r.Add(x, y)
	case token.Sub:
		r.Sub(x, y)
	case token.Mul:
		r.Mul(x, y)
	case token.Quo:
		if y.Sign() == 0 {
			return Value{}
		}
		r.Quo(x, y)
	default:
		return Value{}
	}
	return Value{kind: Float, re: r}
}

func complexOp(op token.Kind, a, b Value) Value {
	re, im := newFloat(), newFloat()
	switch op {
	case token.Add:
		re.Add(a.re, b.re)
		im.Add(a.im, b.im)
	case token.Sub:
		re.Sub(a.re, b.re)
		im.Sub(a.im, b.im)
	case token.Mul:
		// (a+bi)(c+di) = (ac-bd) + (ad+bc)i
		ac := newFloat().Mul(a.re, b.re)
		bd := newFloat().Mul(a.im, b.im)
		ad := newFloat().Mul(a.re, b.im)
		bc := newFloat().Mul(a.im, b.re)
		re.Sub(ac, bd)
		im.Add(ad, bc)
	case token.Quo:
		den := newFloat().Mul(b.re, b.re)
		den.Add(den, newFloat().Mul(b.im, b.im))
		if den.Sign() == 0 {
			return Value{}
		}
		ac := newFloat().Mul(a.re, b.re)
		bd := newFloat().Mul(a.im, b.im)
		bc := newFloat().Mul(a.im, b.re)
		ad := newFloat().Mul(a.re, b.im)
		re.Quo(re.Add(ac, bd), den)
		im.Quo(im.Sub(bc, ad), den)
	default:
		return Value{}
	}
	return Value{kind: Complex, re: re, im: im}
}

// Shift folds << and >> on integers. >> is arithmetic.
func Shift(op token.Kind, v Value, n uint) Value {
	v = ToInteger(v)
	if v.kind != Integer {
		return Value{}
	}
	switch op {
	case token.Shl, token.ShlEq:
		return Value{kind: Integer, i: new(big.Int).Lsh(v.i, n)}
	case token.Shr, token.ShrEq:
		return Value{kind: Integer, i: new(big.Int).Rsh(v.i, n)}
	}
	return Value{}
}

// Compare evaluates a comparison operator. Mismatched kinds compare false.
func Compare(op token.Kind, a, b Value) bool {
	a, b = MatchKinds(a, b)
	if a.kind != b.kind {
		return false
	}
	var c int
	switch a.kind {
	case Bool:
		switch op {
		case token.CmpEq:
			return a.b == b.b
		case token.NotEq:
			return a.b != b.b
		}
		return false
	case String:
		switch {
		case a.s < b.s:
			c = -1
		case a.s > b.s:
			c = 1
		}
	case Integer:
		c = a.i.Cmp(b.i)
	case Float:
		c = a.re.Cmp(b.re)
	case Complex:
		eq := a.re.Cmp(b.re) == 0 && a.im.Cmp(b.im) == 0
		switch op {
		case token.CmpEq:
			return eq
		case token.NotEq:
			return !eq
		}
		return false
	default:
		return false
	}
	switch op {
	case token.CmpEq:
		return c == 0
	case token.NotEq:
		return c != 0
	case token.Lt:
		return c < 0
	case token.LtEq:
		return c <= 0
	case token.Gt:
		return c > 0
	case token.GtEq:
		return c >= 0
	}
	return false
}

// Identical reports whether two values are the same constant.
func Identical(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Invalid:
		return true
	case Compound, Procedure:
		return a.node == b.node
	case Pointer:
		return a.ptr == b.ptr
	}
	return Compare(token.CmpEq, a, b)
}
