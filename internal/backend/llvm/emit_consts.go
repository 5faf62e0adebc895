package llvm

import (
	"math/big"

	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"

	exact "odinc/internal/constant"
	"odinc/internal/types"
)

// constValue materialises a checked constant of type t. It returns nil
// when the value has no constant form in t; hasConstForm decides the same
// question up front for global initialisers.
func (m *Module) constValue(v exact.Value, t types.TypeID) constant.Constant {
	if !m.s.hasConstForm(v, t) {
		return nil
	}
	in := m.s.in
	if in.IsVector(t) {
		bt, _ := in.Lookup(in.Base(t))
		elem := m.constValue(v, bt.Elem)
		if elem == nil {
			return nil
		}
		elems := make([]constant.Constant, bt.Count)
		for i := range elems {
			elems[i] = elem
		}
		return constant.NewVector(m.lbType(t).(*lltypes.VectorType), elems...)
	}
	u := in.Underlying(t)
	lt := m.lbType(t)
	switch v.Kind() {
	case exact.Bool:
		it := lt.(*lltypes.IntType)
		if v.BoolVal() {
			return constant.NewInt(it, 1)
		}
		return constant.NewInt(it, 0)
	case exact.Integer, exact.Float:
		return m.numericConst(v, u, lt)
	case exact.Complex:
		if !in.IsComplex(u) {
			return m.numericConst(v, u, lt)
		}
		return m.complexConst(v, lt)
	case exact.String:
		return m.stringConst(v.StringVal())
	case exact.Pointer:
		return m.pointerConst(v.PointerVal(), lt)
	}
	return nil
}

func (m *Module) numericConst(v exact.Value, u types.TypeID, lt lltypes.Type) constant.Constant {
	in := m.s.in
	switch {
	case in.IsComplex(u):
		return m.complexConst(v, lt)
	case in.IsFloat(u):
		f, _ := exact.ToFloat(v).Float64()
		return constant.NewFloat(lt.(*lltypes.FloatType), f)
	case isPtr(lt):
		n, _ := exact.ToInteger(v).Int64()
		return m.pointerConst(n, lt)
	case isInt(lt):
		it := lt.(*lltypes.IntType)
		w := exact.Wrap(exact.Truncate(v), int(it.BitSize), false)
		if w.Kind() != exact.Integer {
			return nil
		}
		return constBig(it, w.Int())
	}
	return nil
}

func (m *Module) complexConst(v exact.Value, lt lltypes.Type) constant.Constant {
	st := lt.(*lltypes.StructType)
	e := st.Fields[0].(*lltypes.FloatType)
	re, im := 0.0, 0.0
	if f := v.Float(); f != nil {
		re, _ = f.Float64()
	} else if i := exact.ToFloat(v).Float(); i != nil {
		re, _ = i.Float64()
	}
	if f := v.Imag(); f != nil {
		im, _ = f.Float64()
	}
	return constant.NewStruct(st, constant.NewFloat(e, re), constant.NewFloat(e, im))
}

// stringConst builds {data, len} around interned bytes; the data pointer
// of the empty string is null.
func (m *Module) stringConst(s string) constant.Constant {
	var data constant.Constant = constant.NewNull(lltypes.I8Ptr)
	if s != "" {
		data = m.stringData(s)
	}
	n := constBig(m.intT, big.NewInt(int64(len(s))))
	if ss := m.s.low.StringShape(); ss.Padded {
		pad := lltypes.NewArray(m.u64(ss.PadBytes), lltypes.I8)
		return constant.NewStruct(m.strT, data, constant.NewZeroInitializer(pad), n)
	}
	return constant.NewStruct(m.strT, data, n)
}

func (m *Module) pointerConst(addr int64, lt lltypes.Type) constant.Constant {
	pt := lt.(*lltypes.PointerType)
	if addr == 0 {
		return constant.NewNull(pt)
	}
	return constant.NewIntToPtr(constI(m.intT, addr), pt)
}
