package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

func (tc *typeChecker) structType(st *ast.StructType) types.TypeID {
	kind := types.RecordStruct
	context := "struct"
	if st.Raw {
		kind = types.RecordRawUnion
		context = "raw_union"
	}
	id := tc.types.NewRecord(types.RecordInfo{Kind: kind})
	scope := symbols.NewScope(tc.scope, symbols.ScopeRecord, st.Sp)
	fields, other := tc.checkFields(st.Fields, scope, context)
	tc.types.SetRecord(id, types.RecordInfo{
		Kind:    kind,
		Fields:  fields,
		Other:   other,
		Packed:  st.Packed,
		Reorder: st.Reorder,
	})
	tc.info.RecordScopes[id] = scope
	tc.layout.Forget(id)
	return id
}

// checkFields declares the storage fields and the other fields (nested
// constants, types and procedures) of a struct or raw_union body.
func (tc *typeChecker) checkFields(list []*ast.Field, scope *symbols.Scope, context string) ([]types.Field, []types.Field) {
	fieldCount, otherCount := 0, 0
	for _, f := range list {
		if f.IsConst() {
			otherCount += len(f.Names)
		} else {
			fieldCount += len(f.Names)
		}
	}
	fields := make([]types.Field, 0, fieldCount)
	other := make([]types.Field, 0, otherCount)

	saved := tc.scope
	tc.scope = scope
	defer func() { tc.scope = saved }()

	for _, f := range list {
		if !f.IsConst() {
			continue
		}
		for _, name := range f.Names {
			if fv, ok := tc.otherField(name, f.Value, scope); ok {
				other = append(other, fv)
			}
		}
	}

	for _, f := range list {
		if f.IsConst() {
			continue
		}
		t := tc.typExpr(f.Type)
		if t == types.NoTypeID {
			continue
		}
		if f.Using && len(f.Names) > 1 {
			tc.report(diag.SemaUsingField, f.Sp, "Cannot apply `using` to more than one of the same type")
		}
		for _, name := range f.Names {
			ent := tc.entities.New(symbols.EntityVariable, name.Name, name.Sp, scope)
			ent.Type = t
			ent.State = symbols.Resolved
			ent.Flags |= symbols.FlagField
			if f.Using {
				ent.Flags |= symbols.FlagAnonymous
			}
			ent.FieldIndex = len(fields)
			tc.info.Defs[name] = ent
			if prev := scope.Insert(ent); prev != nil {
				tc.report(diag.SemaDuplicateField, name.Sp, "`%s` is already declared in this type", name.Name)
				continue
			}
			fields = append(fields, types.Field{
				Name:      name.Name,
				Type:      t,
				Anonymous: f.Using,
				Index:     len(fields),
				Obj:       ent.ID,
			})
			if f.Using {
				inner := tc.types.Base(tc.types.Deref(t))
				if !tc.types.IsStruct(inner) && !tc.types.IsRawUnion(inner) {
					tc.report(diag.SemaUsingField, name.Sp, "`using` on a field `%s` must be a `struct` or `raw_union`", name.Name)
					continue
				}
				tc.populateUsing(scope, inner, context)
			}
		}
	}
	return fields, other
}

// populateUsing promotes the fields of rec into scope, recursing through its
// own anonymous fields.
func (tc *typeChecker) populateUsing(scope *symbols.Scope, rec types.TypeID, context string) {
	info, ok := tc.types.Record(rec)
	if !ok {
		return
	}
	for _, f := range info.Fields {
		ent := tc.entities.Get(f.Obj)
		if ent == nil {
			continue
		}
		if prev := scope.Insert(ent); prev != nil && prev != ent {
			tc.report(diag.SemaUsingField, ent.Span, "`%s` is already declared in `%s`", f.Name, context)
			continue
		}
		if f.Anonymous {
			inner := tc.types.Base(tc.types.Deref(f.Type))
			if tc.types.IsStruct(inner) || tc.types.IsRawUnion(inner) {
				tc.populateUsing(scope, inner, context)
			}
		}
	}
}

// otherField checks "Name :: value" inside a record body.
func (tc *typeChecker) otherField(name *ast.Ident, value ast.Expr, scope *symbols.Scope) (types.Field, bool) {
	var ent *symbols.Entity
	if lit, ok := value.(*ast.ProcLit); ok {
		ent = tc.entities.New(symbols.EntityProcedure, name.Name, name.Sp, scope)
		ent.Init = lit
		ent.Decl = &ast.ValueDecl{Names: []*ast.Ident{name}, Values: []ast.Expr{value}, Const: true, Sp: name.Sp}
		tc.info.Defs[name] = ent
		if !tc.insertOther(scope, ent) {
			return types.Field{}, false
		}
		tc.declEntity(ent)
		return types.Field{Name: name.Name, Type: ent.Type, Obj: ent.ID}, ent.Type != types.NoTypeID
	}

	var x operand
	tc.exprOrType(&x, value)
	switch x.mode {
	case ModeInvalid:
		return types.Field{}, false
	case ModeType:
		ent = tc.entities.New(symbols.EntityTypeName, name.Name, name.Sp, scope)
		ent.Type = tc.types.NewNamed(name.Name, x.typ, ent.ID)
	case ModeConstant:
		ent = tc.entities.New(symbols.EntityConstant, name.Name, name.Sp, scope)
		ent.Type = x.typ
		ent.Value = x.val
	default:
		tc.report(diag.SemaNotConstant, value.Span(), "`%s` is not a constant", x.String())
		return types.Field{}, false
	}
	ent.State = symbols.Resolved
	tc.info.Defs[name] = ent
	if !tc.insertOther(scope, ent) {
		return types.Field{}, false
	}
	if ent.Kind == symbols.EntityTypeName {
		tc.info.TypeNames = append(tc.info.TypeNames, ent)
	}
	return types.Field{Name: name.Name, Type: ent.Type, Obj: ent.ID, Value: ent.Value}, true
}

func (tc *typeChecker) insertOther(scope *symbols.Scope, ent *symbols.Entity) bool {
	if prev := scope.Insert(ent); prev != nil {
		tc.report(diag.SemaDuplicateField, ent.Span, "`%s` is already declared in this type", ent.Name)
		return false
	}
	return true
}

// unionType builds a tagged union. Field 0 is the nameless tag slot and each
// variant becomes its own named type.
func (tc *typeChecker) unionType(ut *ast.UnionType) types.TypeID {
	count := 1
	for _, f := range ut.Fields {
		count += len(f.Names)
	}
	fields := make([]types.Field, 0, count)
	fields = append(fields, types.Field{})

	id := tc.types.NewRecord(types.RecordInfo{Kind: types.RecordUnion})
	scope := symbols.NewScope(tc.scope, symbols.ScopeRecord, ut.Sp)
	for _, f := range ut.Fields {
		if f.IsConst() || f.Using {
			tc.report(diag.SemaInvalidUnion, f.Sp, "Only variants are allowed in a union")
			continue
		}
		if len(f.Names) != 1 {
			tc.report(diag.SemaInvalidUnion, f.Sp, "Union variants must have exactly one name")
			continue
		}
		name := f.Names[0]
		if name.Name == "_" {
			tc.report(diag.SemaInvalidUnion, name.Sp, "`_` cannot be used a union subtype")
			continue
		}
		base := tc.typExpr(f.Type)
		if base == types.NoTypeID {
			continue
		}
		ent := tc.entities.New(symbols.EntityTypeName, name.Name, name.Sp, scope)
		ent.Type = tc.types.NewNamed(name.Name, base, ent.ID)
		ent.State = symbols.Resolved
		ent.FieldIndex = len(fields)
		tc.info.Defs[name] = ent
		if prev := scope.Insert(ent); prev != nil {
			tc.report(diag.SemaInvalidUnion, name.Sp, "`%s` is already declared in this union", name.Name)
			continue
		}
		fields = append(fields, types.Field{Name: name.Name, Type: ent.Type, Index: len(fields), Obj: ent.ID})
	}
	tc.types.SetRecord(id, types.RecordInfo{Kind: types.RecordUnion, Fields: fields})
	tc.info.RecordScopes[id] = scope
	tc.layout.Forget(id)
	return id
}

var reservedEnumNames = map[string]bool{"count": true, "min_value": true, "max_value": true}

// enumType builds an enumeration. named is the declaring named type, or
// NoTypeID for an anonymous enum; members are typed with it.
func (tc *typeChecker) enumType(et *ast.EnumType, named types.TypeID) types.TypeID {
	base := tc.types.Builtin(types.Int)
	if et.Base != nil {
		base = tc.typExpr(et.Base)
		if base == types.NoTypeID {
			return types.NoTypeID
		}
		if !tc.types.IsInteger(base) {
			tc.report(diag.SemaInvalidEnum, et.Base.Span(), "Base type for enumeration must be an integer, got `%s`", tc.typeString(base))
			return types.NoTypeID
		}
	}
	id := tc.types.NewRecord(types.RecordInfo{Kind: types.RecordEnum, EnumBase: base})
	member := id
	if named != types.NoTypeID {
		member = named
		tc.types.SetNamedBase(named, id)
	}

	scope := symbols.NewScope(tc.scope, symbols.ScopeRecord, et.Sp)
	other := make([]types.Field, 0, len(et.Fields))
	iota := constant.MakeInt64(-1)
	one := constant.MakeInt64(1)
	minV, maxV := constant.MakeInt64(0), constant.MakeInt64(0)
	count := 0
	for _, f := range et.Fields {
		if f.Value != nil {
			var x operand
			tc.expr(&x, f.Value)
			if x.invalid() {
				continue
			}
			if x.mode != ModeConstant {
				tc.report(diag.SemaNotConstant, f.Value.Span(), "Enumeration value must be a constant")
				continue
			}
			tc.assignment(&x, member, "enumeration")
			if x.invalid() {
				continue
			}
			iota = constant.ToInteger(x.val)
		} else {
			iota = constant.BinaryOp(token.Add, iota, one)
			if _, fit := tc.representable(iota, base); fit != constant.Fits {
				tc.report(diag.SemaOverflow, f.Span(), "`%s = %s` overflows `%s`", f.Name.Name, iota.String(), tc.typeString(base))
				continue
			}
		}
		name := f.Name.Name
		if name == "_" {
			continue
		}
		if reservedEnumNames[name] {
			tc.report(diag.SemaReservedName, f.Name.Sp, "`%s` is a reserved identifier for enumerations", name)
			continue
		}
		if constant.Compare(token.Lt, iota, minV) {
			minV = iota
		}
		if constant.Compare(token.Gt, iota, maxV) {
			maxV = iota
		}
		ent := tc.entities.New(symbols.EntityConstant, name, f.Name.Sp, scope)
		ent.Type = member
		ent.Value = iota
		ent.State = symbols.Resolved
		tc.info.Defs[f.Name] = ent
		if prev := scope.Insert(ent); prev != nil {
			tc.report(diag.SemaInvalidEnum, f.Name.Sp, "`%s` is already declared in this enumeration", name)
			continue
		}
		other = append(other, types.Field{Name: name, Type: member, Index: len(other), Obj: ent.ID, Value: iota})
		count++
	}
	tc.types.SetRecord(id, types.RecordInfo{
		Kind:      types.RecordEnum,
		Other:     other,
		EnumBase:  base,
		EnumCount: constant.MakeInt64(int64(count)),
		EnumMin:   minV,
		EnumMax:   maxV,
	})
	tc.info.RecordScopes[id] = scope
	tc.layout.Forget(id)
	return id
}
