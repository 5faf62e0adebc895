package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

func (tc *typeChecker) selector(x *operand, e *ast.SelectorExpr) {
	tc.exprOrType(x, e.X)
	if x.invalid() {
		return
	}
	name := e.Sel.Name
	if x.mode == ModeType {
		tc.typeSelector(x, e)
		return
	}
	if x.mode == ModeBuiltin {
		tc.errorf(x, diag.SemaNotAnExpression, "`%s` must be called", x.String())
		x.setInvalid()
		return
	}

	sel, ok := tc.lookupField(x.typ, name)
	if !ok {
		tc.noField(x, e)
		return
	}
	ent := sel.Entity
	tc.info.Selections[e] = sel
	tc.info.Uses[e.Sel] = ent
	switch ent.Kind {
	case symbols.EntityConstant:
		x.mode = ModeConstant
		x.val = ent.Value
	case symbols.EntityTypeName:
		x.mode = ModeType
	case symbols.EntityProcedure:
		x.mode = ModeValue
	default:
		owner := tc.types.Deref(x.typ)
		switch {
		case x.mode == ModeSoAVariable:
			x.mode = ModeVariable
		case x.mode != ModeVariable && !sel.Indirect:
			x.mode = ModeValue
		default:
			x.mode = ModeVariable
		}
		if x.mode == ModeVariable && tc.types.IsBitField(owner) {
			x.mode = ModeBitField
		}
		x.val = constant.Value{}
	}
	x.typ = ent.Type
	x.expr = e
}

func (tc *typeChecker) noField(x *operand, e *ast.SelectorExpr) {
	tc.report(diag.SemaNoField, e.Sel.Sp, "`%s` (`%s`) has no field `%s`",
		ast.ExprString(e.X), tc.typeString(x.typ), e.Sel.Name)
	x.setInvalid()
}

// typeSelector handles T.name: enum members and properties, union
// variants and nested declarations of a record.
func (tc *typeChecker) typeSelector(x *operand, e *ast.SelectorExpr) {
	name := e.Sel.Name
	base := tc.types.Base(x.typ)
	rec, ok := tc.types.Record(base)
	if !ok {
		tc.noField(x, e)
		return
	}
	if rec.Kind == types.RecordEnum {
		switch name {
		case "count":
			x.mode = ModeConstant
			x.typ = tc.types.Builtin(types.Int)
			x.val = rec.EnumCount
			x.expr = e
			return
		case "min_value", "max_value":
			x.mode = ModeConstant
			x.val = rec.EnumMin
			if name == "max_value" {
				x.val = rec.EnumMax
			}
			x.expr = e
			return
		}
	}
	if rec.Kind == types.RecordUnion {
		for _, v := range rec.Variants() {
			if v.Name == name {
				tc.info.Uses[e.Sel] = tc.entities.Get(v.Obj)
				x.mode = ModeType
				x.typ = v.Type
				x.expr = e
				return
			}
		}
	}
	f, found := rec.OtherByName(name)
	if !found {
		tc.noField(x, e)
		return
	}
	ent := tc.entities.Get(f.Obj)
	if ent != nil {
		tc.info.Uses[e.Sel] = ent
		tc.info.Selections[e] = Selection{Entity: ent}
	}
	x.typ = f.Type
	x.expr = e
	switch {
	case ent != nil && ent.Kind == symbols.EntityTypeName:
		x.mode = ModeType
	case ent != nil && ent.Kind == symbols.EntityProcedure:
		x.mode = ModeValue
	default:
		x.mode = ModeConstant
		x.val = f.Value
	}
}

// lookupField resolves name in t (dereferencing one pointer level). Direct
// fields win over fields promoted through "using".
func (tc *typeChecker) lookupField(t types.TypeID, name string) (Selection, bool) {
	if name == "_" {
		return Selection{}, false
	}
	sel := Selection{}
	rt := t
	if tc.types.IsTypedPointer(t) {
		rt = tc.types.Elem(t)
		sel.Indirect = true
	}
	return tc.lookupFieldIn(tc.types.Base(rt), name, sel, 0)
}

func (tc *typeChecker) lookupFieldIn(rec types.TypeID, name string, sel Selection, depth int) (Selection, bool) {
	if depth > 32 {
		return Selection{}, false
	}
	info, ok := tc.types.Record(rec)
	if ok && info.Kind == types.RecordBitField && depth == 0 {
		return tc.lookupBitField(info, name, sel)
	}
	if !ok || (info.Kind != types.RecordStruct && info.Kind != types.RecordRawUnion) {
		return Selection{}, false
	}
	for i, f := range info.Fields {
		if f.Name != name {
			continue
		}
		out := Selection{
			Entity:   tc.entities.Get(f.Obj),
			Index:    append(append([]int(nil), sel.Index...), i),
			Indirect: sel.Indirect,
		}
		return out, out.Entity != nil
	}
	if depth == 0 {
		for _, f := range info.Other {
			if f.Name != name {
				continue
			}
			if ent := tc.entities.Get(f.Obj); ent != nil {
				return Selection{Entity: ent}, true
			}
		}
	}
	for i, f := range info.Fields {
		if !f.Anonymous {
			continue
		}
		next := Selection{
			Index:    append(append([]int(nil), sel.Index...), i),
			Indirect: sel.Indirect,
		}
		ft := f.Type
		if tc.types.IsTypedPointer(ft) {
			ft = tc.types.Elem(ft)
			next.Indirect = true
		}
		if found, ok := tc.lookupFieldIn(tc.types.Base(ft), name, next, depth+1); ok {
			return found, true
		}
	}
	return Selection{}, false
}
