package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

func (tc *typeChecker) mapType(n *ast.MapType) types.TypeID {
	tc.indirection++
	key := tc.typExpr(n.Key)
	value := tc.typExpr(n.Value)
	tc.indirection--
	if key == types.NoTypeID || value == types.NoTypeID {
		return types.NoTypeID
	}
	if !tc.types.IsMapKey(key) {
		tc.report(diag.SemaInvalidMapKey, n.Key.Span(), "Invalid type of a key for a map, got `%s`", tc.typeString(key))
		return types.NoTypeID
	}
	return tc.types.Map(key, value)
}

// soaType checks "#soa [N]T"; T must be a struct and N a constant.
func (tc *typeChecker) soaType(n *ast.ArrayType, elem types.TypeID) types.TypeID {
	if n.Open {
		tc.report(diag.SemaInvalidSoA, n.Sp, "#soa needs a fixed length array")
		return types.NoTypeID
	}
	count, ok := tc.arrayCount(n.Len)
	if !ok || elem == types.NoTypeID {
		return types.NoTypeID
	}
	if !tc.types.IsStruct(elem) {
		tc.report(diag.SemaInvalidSoA, n.Elem.Span(), "#soa element type must be a struct, got `%s`", tc.typeString(elem))
		return types.NoTypeID
	}
	return tc.types.SoA(elem, count)
}

// bitFieldType packs its fields from the least significant bit of the
// backing integer upwards, in declaration order.
func (tc *typeChecker) bitFieldType(n *ast.BitFieldType) types.TypeID {
	backing := tc.typExpr(n.Backing)
	if backing == types.NoTypeID {
		return types.NoTypeID
	}
	if !tc.types.IsInteger(backing) || tc.types.IsEnum(backing) {
		tc.report(diag.SemaInvalidBitField, n.Backing.Span(), "Backing type for a bit_field must be an integer, got `%s`", tc.typeString(backing))
		return types.NoTypeID
	}
	backingSize, err := tc.layout.SizeOf(backing)
	if err != nil {
		return types.NoTypeID
	}

	id := tc.types.NewRecord(types.RecordInfo{Kind: types.RecordBitField, EnumBase: backing})
	scope := symbols.NewScope(tc.scope, symbols.ScopeRecord, n.Sp)
	fields := make([]types.Field, 0, len(n.Fields))
	var offset int64
	for _, f := range n.Fields {
		t := tc.typExpr(f.Type)
		if t == types.NoTypeID {
			continue
		}
		if !tc.types.IsInteger(t) && !tc.types.IsBoolean(t) {
			tc.report(diag.SemaInvalidBitField, f.Type.Span(), "bit_field field type must be an integer, boolean or enum, got `%s`", tc.typeString(t))
			continue
		}
		size, err := tc.layout.SizeOf(t)
		if err != nil {
			continue
		}
		bits, ok := tc.bitSize(f.Bits, size*8)
		if !ok {
			continue
		}
		ent := tc.entities.New(symbols.EntityVariable, f.Name.Name, f.Name.Sp, scope)
		ent.Type = t
		ent.State = symbols.Resolved
		ent.Flags |= symbols.FlagField
		ent.FieldIndex = len(fields)
		tc.info.Defs[f.Name] = ent
		if prev := scope.Insert(ent); prev != nil {
			tc.report(diag.SemaDuplicateField, f.Name.Sp, "`%s` is already declared in this bit_field", f.Name.Name)
			continue
		}
		fields = append(fields, types.Field{
			Name:      f.Name.Name,
			Type:      t,
			Index:     len(fields),
			Obj:       ent.ID,
			BitOffset: offset,
			BitSize:   bits,
		})
		offset += bits
	}
	if offset > backingSize*8 {
		tc.report(diag.SemaInvalidBitField, n.Sp, "Total bit size of a bit_field (%d) exceeds its backing type `%s` (%d)", offset, tc.typeString(backing), backingSize*8)
		return types.NoTypeID
	}
	tc.types.SetRecord(id, types.RecordInfo{Kind: types.RecordBitField, Fields: fields, EnumBase: backing})
	tc.info.RecordScopes[id] = scope
	tc.layout.Forget(id)
	return id
}

func (tc *typeChecker) bitSize(e ast.Expr, limit int64) (int64, bool) {
	var x operand
	tc.expr(&x, e)
	if x.invalid() {
		return 0, false
	}
	if x.mode != ModeConstant {
		tc.report(diag.SemaNotConstant, e.Span(), "bit_field bit size must be a constant")
		return 0, false
	}
	v, ok := constant.ToInteger(x.val).Int64()
	if !ok || v < 1 || v > limit {
		tc.report(diag.SemaInvalidBitField, e.Span(), "bit_field bit size must be in the range 1..=%d, got `%s`", limit, x.String())
		return 0, false
	}
	tc.convertToTyped(&x, tc.types.Builtin(types.Int))
	return v, true
}

// lookupBitField finds a field of a bit_field record.
func (tc *typeChecker) lookupBitField(rec *types.RecordInfo, name string, sel Selection) (Selection, bool) {
	for i, f := range rec.Fields {
		if f.Name != name {
			continue
		}
		out := Selection{
			Entity:   tc.entities.Get(f.Obj),
			Index:    []int{i},
			Indirect: sel.Indirect,
		}
		return out, out.Entity != nil
	}
	return Selection{}, false
}
