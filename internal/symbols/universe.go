package symbols

import (
	"odinc/internal/constant"
	"odinc/internal/source"
	"odinc/internal/types"
)

// NewUniverse builds the outermost scope: basic type names, the byte and
// rune aliases, true/false/nil and every builtin procedure.
func NewUniverse(tbl *Table, in *types.Interner) *Scope {
	u := NewScope(nil, ScopeUniverse, source.Span{})
	typeName := func(name string, id types.TypeID) {
		e := tbl.New(EntityTypeName, name, source.Span{}, u)
		e.Type = id
		e.State = Resolved
		u.Insert(e)
	}
	for _, b := range types.Universe() {
		typeName(b.Name, in.Builtin(b.Kind))
	}
	typeName("byte", in.Builtin(types.U8))
	typeName("rune", in.Builtin(types.I32))

	for _, v := range []bool{true, false} {
		name := "false"
		if v {
			name = "true"
		}
		e := tbl.New(EntityConstant, name, source.Span{}, u)
		e.Type = in.Builtin(types.UntypedBool)
		e.Value = constant.MakeBool(v)
		e.State = Resolved
		u.Insert(e)
	}

	nilEnt := tbl.New(EntityNil, "nil", source.Span{}, u)
	nilEnt.Type = in.Builtin(types.UntypedNil)
	nilEnt.State = Resolved
	u.Insert(nilEnt)

	for id := BuiltinNew; id < BuiltinCount; id++ {
		e := tbl.New(EntityBuiltin, id.String(), source.Span{}, u)
		e.BuiltinID = id
		e.State = Resolved
		u.Insert(e)
	}
	return u
}
