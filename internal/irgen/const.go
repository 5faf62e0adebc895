package irgen

import (
	"math/big"

	"odinc/internal/constant"
	"odinc/internal/ir"
	"odinc/internal/types"
)

// constValue materialises a checked constant as an IR constant of type t.
// It returns nil when the value has no constant form in t, which leaves the
// caller to lower the expression itself.
func (g *Generator) constValue(v constant.Value, t types.TypeID) ir.Value {
	if !v.IsValid() {
		return nil
	}
	in := g.in
	if in.IsVector(t) {
		bt, _ := in.Lookup(in.Base(t))
		elem := g.constValue(v, bt.Elem)
		if elem == nil {
			return nil
		}
		elems := make([]ir.Value, bt.Count)
		for i := range elems {
			elems[i] = elem
		}
		return ir.Aggregate(g.lbType(t), elems...)
	}
	u := in.Underlying(t)
	if in.IsAny(u) || in.IsUnion(u) || !in.IsBasic(u) && !in.IsTypedPointer(u) && !in.IsProc(u) {
		return nil
	}
	lt := g.lbType(t)
	switch v.Kind() {
	case constant.Bool:
		if lt.Bits == 1 {
			return ir.ConstBool(v.BoolVal())
		}
		if v.BoolVal() {
			return ir.ConstI(lt, 1)
		}
		return ir.ConstI(lt, 0)
	case constant.Integer, constant.Float:
		return g.numericConst(v, u, lt)
	case constant.Complex:
		if !in.IsComplex(u) {
			return g.numericConst(v, u, lt)
		}
		return g.complexConst(v, lt)
	case constant.String:
		if !in.IsString(u) {
			return nil
		}
		return g.stringConst(v.StringVal())
	case constant.Pointer:
		return g.pointerConst(v.PointerVal(), lt)
	}
	return nil
}

func (g *Generator) numericConst(v constant.Value, u types.TypeID, lt *ir.Type) ir.Value {
	in := g.in
	switch {
	case in.IsComplex(u):
		return g.complexConst(v, lt)
	case in.IsFloat(u):
		f, _ := constant.ToFloat(v).Float64()
		return ir.ConstF(lt, f)
	case lt.IsPtr():
		n, _ := constant.ToInteger(v).Int64()
		return g.pointerConst(n, lt)
	case lt.IsInt():
		w := constant.Wrap(constant.Truncate(v), lt.Bits, false)
		if w.Kind() != constant.Integer {
			return nil
		}
		return ir.ConstBig(lt, w.Int())
	}
	return nil
}

func (g *Generator) complexConst(v constant.Value, lt *ir.Type) ir.Value {
	e := complexElem(lt)
	re, im := 0.0, 0.0
	if f := v.Float(); f != nil {
		re, _ = f.Float64()
	} else if i := constant.ToFloat(v).Float(); i != nil {
		re, _ = i.Float64()
	}
	if f := v.Imag(); f != nil {
		im, _ = f.Float64()
	}
	return ir.Aggregate(lt, ir.ConstF(e, re), ir.ConstF(e, im))
}

// stringConst builds {data, len} around interned bytes; the data pointer
// of the empty string is null.
func (g *Generator) stringConst(s string) ir.Value {
	var data ir.Value = ir.Null(ir.I8P)
	if s != "" {
		data = g.stringData(s)
	}
	n := ir.ConstBig(g.intT, big.NewInt(int64(len(s))))
	ss := g.low.StringShape()
	if ss.Padded {
		return ir.Aggregate(ir.StringT, data, ir.Zero(ir.Array(ss.PadBytes, ir.I8)), n)
	}
	return ir.Aggregate(ir.StringT, data, n)
}

func (g *Generator) pointerConst(addr int64, lt *ir.Type) ir.Value {
	if addr == 0 {
		return ir.Null(lt)
	}
	return ir.ConstCast(ir.IntToPtr, ir.ConstI(g.intT, addr), lt)
}
