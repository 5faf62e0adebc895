package check

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

type builtinProc struct {
	args     int
	variadic bool
	kind     ExprKind
}

var builtinProcs = [symbols.BuiltinCount]builtinProc{
	symbols.BuiltinNew:         {1, false, ExprExpr},
	symbols.BuiltinNewSlice:    {2, true, ExprExpr},
	symbols.BuiltinDelete:      {1, false, ExprStmt},
	symbols.BuiltinSizeOf:      {1, false, ExprExpr},
	symbols.BuiltinSizeOfVal:   {1, false, ExprExpr},
	symbols.BuiltinAlignOf:     {1, false, ExprExpr},
	symbols.BuiltinAlignOfVal:  {1, false, ExprExpr},
	symbols.BuiltinOffsetOf:    {2, false, ExprExpr},
	symbols.BuiltinOffsetOfVal: {1, false, ExprExpr},
	symbols.BuiltinTypeOfVal:   {1, false, ExprExpr},
	symbols.BuiltinTypeInfo:    {1, false, ExprExpr},
	symbols.BuiltinAssert:      {1, false, ExprStmt},
	symbols.BuiltinLen:         {1, false, ExprExpr},
	symbols.BuiltinCap:         {1, false, ExprExpr},
	symbols.BuiltinCopy:        {2, false, ExprStmt},
	symbols.BuiltinAppend:      {1, true, ExprStmt},
	symbols.BuiltinSwizzle:     {1, true, ExprExpr},
	symbols.BuiltinPtrOffset:   {2, false, ExprExpr},
	symbols.BuiltinPtrSub:      {2, false, ExprExpr},
	symbols.BuiltinSlicePtr:    {2, true, ExprExpr},
	symbols.BuiltinMin:         {2, false, ExprExpr},
	symbols.BuiltinMax:         {2, false, ExprExpr},
	symbols.BuiltinAbs:         {1, false, ExprExpr},
	symbols.BuiltinAtomicLoad:  {1, false, ExprExpr},
	symbols.BuiltinAtomicStore: {2, false, ExprStmt},
	symbols.BuiltinAtomicAdd:   {2, false, ExprStmt},
	symbols.BuiltinAtomicSub:   {2, false, ExprStmt},
	symbols.BuiltinAtomicXchg:  {2, false, ExprStmt},
	symbols.BuiltinAtomicCas:   {3, false, ExprStmt},
	symbols.BuiltinDeleteKey:   {2, false, ExprStmt},
}

// builtinCall checks a call to a builtin procedure and sets x to its result.
func (tc *typeChecker) builtinCall(x *operand, e *ast.CallExpr, id symbols.BuiltinID) ExprKind {
	bp := builtinProcs[id]
	name := id.String()
	x.builtin = symbols.BuiltinInvalid
	if e.Spread {
		tc.report(diag.SemaInvalidVariadic, e.Sp, "Invalid use of `..` in a call to `%s`", name)
		x.setInvalid()
		return bp.kind
	}
	if n := len(e.Args); n < bp.args {
		tc.report(diag.SemaTooFewArguments, e.Sp, "Too few arguments for `%s`, expected %d, got %d", name, bp.args, n)
		x.setInvalid()
		return bp.kind
	} else if n > bp.args && !bp.variadic {
		tc.report(diag.SemaTooManyArguments, e.Sp, "Too many arguments for `%s`, expected %d, got %d", name, bp.args, n)
		x.setInvalid()
		return bp.kind
	}

	intType := tc.types.Builtin(types.Int)
	args := e.Args
	x.val = constant.Value{}

	switch id {
	case symbols.BuiltinNew:
		t := tc.builtinType(args[0], name)
		if t == types.NoTypeID {
			x.setInvalid()
			break
		}
		x.mode = ModeValue
		x.typ = tc.types.Pointer(t)

	case symbols.BuiltinNewSlice:
		if len(args) > 3 {
			tc.report(diag.SemaTooManyArguments, e.Sp, "Too many arguments for `%s`, expected %d, got %d", name, 3, len(args))
			x.setInvalid()
			break
		}
		t := tc.builtinType(args[0], name)
		if t == types.NoTypeID || !tc.intArgs(args[1:], name) {
			x.setInvalid()
			break
		}
		x.mode = ModeValue
		x.typ = tc.types.Slice(t)

	case symbols.BuiltinDelete:
		var y operand
		tc.expr(&y, args[0])
		if y.invalid() {
			x.setInvalid()
			break
		}
		if !tc.types.IsPointer(y.typ) && !tc.types.IsSlice(y.typ) {
			tc.errorf(&y, diag.SemaBuiltinArgs, "Expected a pointer or slice for `%s`, got `%s`", name, tc.typeString(y.typ))
			x.setInvalid()
			break
		}
		x.mode = ModeNoValue
		x.typ = types.NoTypeID

	case symbols.BuiltinSizeOf, symbols.BuiltinAlignOf:
		t := tc.builtinType(args[0], name)
		if t == types.NoTypeID {
			x.setInvalid()
			break
		}
		tc.layoutConstant(x, t, id == symbols.BuiltinSizeOf)

	case symbols.BuiltinSizeOfVal, symbols.BuiltinAlignOfVal:
		var y operand
		tc.expr(&y, args[0])
		if y.invalid() {
			x.setInvalid()
			break
		}
		tc.assignment(&y, types.NoTypeID, name)
		if y.invalid() {
			x.setInvalid()
			break
		}
		tc.layoutConstant(x, y.typ, id == symbols.BuiltinSizeOfVal)

	case symbols.BuiltinOffsetOf:
		t := tc.builtinType(args[0], name)
		if t == types.NoTypeID {
			x.setInvalid()
			break
		}
		field, ok := args[1].(*ast.Ident)
		if !ok {
			tc.report(diag.SemaBuiltinArgs, args[1].Span(), "Expected a field name for `%s`", name)
			x.setInvalid()
			break
		}
		if !tc.types.IsStruct(t) && !tc.types.IsRawUnion(t) {
			tc.report(diag.SemaBuiltinArgs, args[0].Span(), "Expected a struct type for `%s`, got `%s`", name, tc.typeString(t))
			x.setInvalid()
			break
		}
		sel, found := tc.lookupField(t, field.Name)
		if !found || sel.Entity.Kind != symbols.EntityVariable {
			tc.report(diag.SemaNoField, field.Sp, "`%s` has no field named `%s`", tc.typeString(t), field.Name)
			x.setInvalid()
			break
		}
		tc.info.Uses[field] = sel.Entity
		tc.offsetConstant(x, t, sel, args[1])

	case symbols.BuiltinOffsetOfVal:
		se, ok := ast.Unparen(args[0]).(*ast.SelectorExpr)
		if !ok {
			tc.report(diag.SemaBuiltinArgs, args[0].Span(), "Expected a selector expression for `%s`", name)
			x.setInvalid()
			break
		}
		var y operand
		tc.expr(&y, args[0])
		if y.invalid() {
			x.setInvalid()
			break
		}
		sel, ok := tc.info.Selections[se]
		if !ok || sel.Entity == nil || sel.Entity.Kind != symbols.EntityVariable {
			tc.report(diag.SemaBuiltinArgs, args[0].Span(), "Expected a field selector for `%s`", name)
			x.setInvalid()
			break
		}
		owner := tc.types.Deref(tc.info.TypeOf(se.X))
		tc.offsetConstant(x, owner, sel, args[0])

	case symbols.BuiltinTypeOfVal:
		var y operand
		tc.expr(&y, args[0])
		if y.invalid() {
			x.setInvalid()
			break
		}
		tc.assignment(&y, types.NoTypeID, name)
		if y.invalid() {
			x.setInvalid()
			break
		}
		x.mode = ModeType
		x.typ = y.typ

	case symbols.BuiltinTypeInfo:
		t := tc.builtinType(args[0], name)
		if t == types.NoTypeID {
			x.setInvalid()
			break
		}
		tc.addTypeInfo(t)
		x.mode = ModeValue
		x.typ = tc.types.Builtin(types.Rawptr)

	case symbols.BuiltinAssert:
		var y operand
		tc.expr(&y, args[0])
		if y.invalid() {
			x.setInvalid()
			break
		}
		if !tc.types.IsBoolean(y.typ) {
			tc.errorf(&y, diag.SemaBuiltinArgs, "Argument to `%s` must be a boolean, got `%s`", name, tc.typeString(y.typ))
			x.setInvalid()
			break
		}
		if y.mode == ModeConstant && y.val.IsValid() && !y.val.BoolVal() {
			tc.errorf(&y, diag.SemaBuiltinArgs, "Compile time assertion: `%s`", y.String())
			x.setInvalid()
			break
		}
		tc.convertToTyped(&y, tc.types.Builtin(types.Bool))
		x.mode = ModeNoValue
		x.typ = types.NoTypeID

	case symbols.BuiltinLen, symbols.BuiltinCap:
		var y operand
		tc.expr(&y, args[0])
		if y.invalid() {
			x.setInvalid()
			break
		}
		t := y.typ
		if tc.types.IsTypedPointer(t) && (tc.types.IsArray(tc.types.Elem(t)) || tc.types.IsSoA(tc.types.Elem(t))) {
			t = tc.types.Elem(t)
		}
		x.mode = ModeValue
		x.typ = intType
		switch {
		case tc.types.IsArray(t) || tc.types.IsVector(t) || tc.types.IsSoA(t):
			bt, _ := tc.types.Lookup(tc.types.Base(t))
			x.mode = ModeConstant
			x.val = constant.MakeInt64(bt.Count)
		case tc.types.IsString(t) && id == symbols.BuiltinLen:
			if y.mode == ModeConstant && y.val.IsValid() {
				x.mode = ModeConstant
				x.val = constant.MakeInt64(int64(len(y.val.StringVal())))
			}
			tc.convertToTyped(&y, tc.types.Builtin(types.String))
		case tc.types.IsSlice(t):
		case tc.types.IsMap(t) && id == symbols.BuiltinLen:
		default:
			tc.errorf(&y, diag.SemaBuiltinArgs, "Invalid argument `%s` for `%s`", y.String(), name)
			x.setInvalid()
		}

	case symbols.BuiltinDeleteKey:
		var m, k operand
		tc.expr(&m, args[0])
		tc.expr(&k, args[1])
		if m.invalid() || k.invalid() {
			x.setInvalid()
			break
		}
		if !tc.types.IsMap(m.typ) {
			tc.errorf(&m, diag.SemaBuiltinArgs, "Expected a map for `%s`, got `%s`", name, tc.typeString(m.typ))
			x.setInvalid()
			break
		}
		tc.assignment(&k, tc.types.Key(m.typ), "map key")
		if k.invalid() {
			x.setInvalid()
			break
		}
		x.mode = ModeNoValue
		x.typ = types.NoTypeID

	case symbols.BuiltinCopy:
		var dst, src operand
		tc.expr(&dst, args[0])
		tc.expr(&src, args[1])
		if dst.invalid() || src.invalid() {
			x.setInvalid()
			break
		}
		if !tc.types.IsSlice(dst.typ) {
			tc.errorf(&dst, diag.SemaBuiltinArgs, "First argument to `%s` must be a slice, got `%s`", name, tc.typeString(dst.typ))
			x.setInvalid()
			break
		}
		dstElem := tc.types.Elem(dst.typ)
		var srcElem types.TypeID
		switch {
		case tc.types.IsSlice(src.typ):
			srcElem = tc.types.Elem(src.typ)
		case tc.types.IsString(src.typ):
			tc.convertToTyped(&src, tc.types.Builtin(types.String))
			srcElem = tc.types.Builtin(types.U8)
		default:
			tc.errorf(&src, diag.SemaBuiltinArgs, "Second argument to `%s` must be a slice or string, got `%s`", name, tc.typeString(src.typ))
			x.setInvalid()
			return bp.kind
		}
		if !tc.types.Identical(dstElem, srcElem) {
			tc.report(diag.SemaBuiltinArgs, e.Sp, "Arguments to `%s` have different element types: `%s` vs `%s`",
				name, tc.typeString(dstElem), tc.typeString(srcElem))
			x.setInvalid()
			break
		}
		x.mode = ModeValue
		x.typ = intType

	case symbols.BuiltinAppend:
		var p operand
		tc.expr(&p, args[0])
		if p.invalid() {
			x.setInvalid()
			break
		}
		if !tc.types.IsTypedPointer(p.typ) || !tc.types.IsSlice(tc.types.Elem(p.typ)) {
			tc.errorf(&p, diag.SemaBuiltinArgs, "First argument to `%s` must be a pointer to a slice, got `%s`", name, tc.typeString(p.typ))
			x.setInvalid()
			break
		}
		elem := tc.types.Elem(tc.types.Elem(p.typ))
		ok := true
		for _, arg := range args[1:] {
			var y operand
			tc.exprWithHint(&y, arg, elem)
			tc.assignment(&y, elem, name)
			if y.invalid() {
				ok = false
			}
		}
		if !ok {
			x.setInvalid()
			break
		}
		x.mode = ModeValue
		x.typ = tc.types.Builtin(types.Bool)

	case symbols.BuiltinSwizzle:
		var v operand
		tc.expr(&v, args[0])
		if v.invalid() {
			x.setInvalid()
			break
		}
		if !tc.types.IsVector(v.typ) {
			tc.errorf(&v, diag.SemaBuiltinArgs, "First argument to `%s` must be a vector, got `%s`", name, tc.typeString(v.typ))
			x.setInvalid()
			break
		}
		bt, _ := tc.types.Lookup(tc.types.Base(v.typ))
		ok := true
		for _, arg := range args[1:] {
			var idx operand
			tc.expr(&idx, arg)
			if idx.invalid() {
				ok = false
				continue
			}
			if idx.mode != ModeConstant || !tc.types.IsInteger(idx.typ) {
				tc.errorf(&idx, diag.SemaBuiltinArgs, "Indices to `%s` must be constant integers", name)
				ok = false
				continue
			}
			n, _ := constant.ToInteger(idx.val).Int64()
			if n < 0 || n >= bt.Count {
				tc.errorf(&idx, diag.SemaIndexOutOfBounds, "Index `%s` is out of bounds range [0, %d)", idx.String(), bt.Count)
				ok = false
				continue
			}
			tc.convertToTyped(&idx, intType)
		}
		if !ok {
			x.setInvalid()
			break
		}
		x.mode = ModeValue
		x.typ = tc.types.Vector(bt.Elem, int64(len(args)-1))
		if len(args) == 1 {
			x.typ = v.typ
		}

	case symbols.BuiltinPtrOffset:
		var p operand
		tc.expr(&p, args[0])
		if p.invalid() || !tc.intArgs(args[1:], name) {
			x.setInvalid()
			break
		}
		if !tc.types.IsTypedPointer(p.typ) {
			tc.errorf(&p, diag.SemaBuiltinArgs, "Expected a pointer for `%s`, got `%s`", name, tc.typeString(p.typ))
			x.setInvalid()
			break
		}
		x.mode = ModeValue
		x.typ = p.typ

	case symbols.BuiltinPtrSub:
		var a, b operand
		tc.expr(&a, args[0])
		tc.expr(&b, args[1])
		if a.invalid() || b.invalid() {
			x.setInvalid()
			break
		}
		if !tc.types.IsTypedPointer(a.typ) || !tc.types.IsTypedPointer(b.typ) {
			tc.report(diag.SemaBuiltinArgs, e.Sp, "Expected pointers for `%s`", name)
			x.setInvalid()
			break
		}
		if !tc.types.Identical(a.typ, b.typ) {
			tc.report(diag.SemaBuiltinArgs, e.Sp, "`%s` requires pointers of the same type, got `%s` and `%s`",
				name, tc.typeString(a.typ), tc.typeString(b.typ))
			x.setInvalid()
			break
		}
		x.mode = ModeValue
		x.typ = intType

	case symbols.BuiltinSlicePtr:
		if len(args) > 3 {
			tc.report(diag.SemaTooManyArguments, e.Sp, "Too many arguments for `%s`, expected %d, got %d", name, 3, len(args))
			x.setInvalid()
			break
		}
		var p operand
		tc.expr(&p, args[0])
		if p.invalid() || !tc.intArgs(args[1:], name) {
			x.setInvalid()
			break
		}
		if !tc.types.IsTypedPointer(p.typ) {
			tc.errorf(&p, diag.SemaBuiltinArgs, "Expected a pointer for `%s`, got `%s`", name, tc.typeString(p.typ))
			x.setInvalid()
			break
		}
		x.mode = ModeValue
		x.typ = tc.types.Slice(tc.types.Elem(p.typ))

	case symbols.BuiltinMin, symbols.BuiltinMax:
		tc.minMax(x, e, id)

	case symbols.BuiltinAbs:
		var y operand
		tc.expr(&y, args[0])
		if y.invalid() {
			x.setInvalid()
			break
		}
		if !tc.types.IsNumeric(y.typ) || tc.types.IsVector(y.typ) {
			tc.errorf(&y, diag.SemaBuiltinArgs, "Expected a numeric type for `%s`, got `%s`", name, tc.typeString(y.typ))
			x.setInvalid()
			break
		}
		*x = y
		if y.mode == ModeConstant && y.val.IsValid() {
			if y.val.Sign() < 0 {
				x.val = constant.UnaryOp(token.Sub, y.val, 0)
			}
		} else {
			x.mode = ModeValue
		}

	case symbols.BuiltinAtomicLoad, symbols.BuiltinAtomicStore, symbols.BuiltinAtomicAdd,
		symbols.BuiltinAtomicSub, symbols.BuiltinAtomicXchg, symbols.BuiltinAtomicCas:
		tc.atomic(x, e, id)

	default:
		tc.report(diag.SemaBuiltinArgs, e.Sp, "Unknown builtin procedure `%s`", name)
		x.setInvalid()
	}
	return bp.kind
}

// builtinType checks that e denotes a type.
func (tc *typeChecker) builtinType(e ast.Expr, name string) types.TypeID {
	var y operand
	tc.exprOrType(&y, e)
	if y.invalid() {
		return types.NoTypeID
	}
	if y.mode != ModeType {
		tc.errorf(&y, diag.SemaBuiltinArgs, "Expected a type for `%s`", name)
		return types.NoTypeID
	}
	return y.typ
}

func (tc *typeChecker) intArgs(args []ast.Expr, name string) bool {
	ok := true
	for _, arg := range args {
		var y operand
		tc.expr(&y, arg)
		if y.invalid() {
			ok = false
			continue
		}
		tc.convertToTyped(&y, tc.types.Builtin(types.Int))
		if y.invalid() {
			ok = false
			continue
		}
		if !tc.types.IsInteger(y.typ) {
			tc.errorf(&y, diag.SemaBuiltinArgs, "Expected an integer for `%s`, got `%s`", name, tc.typeString(y.typ))
			ok = false
		}
	}
	return ok
}

func (tc *typeChecker) layoutConstant(x *operand, t types.TypeID, size bool) {
	var n int64
	var err error
	if size {
		n, err = tc.layout.SizeOf(t)
	} else {
		n, err = tc.layout.AlignOf(t)
	}
	if err != nil {
		code := diag.SemaRecursiveUnsized
		if tooLarge(err) {
			code = diag.SemaTypeTooLarge
		}
		tc.errorf(x, code, "Cannot compute the layout of `%s`: %v", tc.typeString(t), err)
		x.setInvalid()
		return
	}
	x.mode = ModeConstant
	x.typ = tc.types.Builtin(types.Int)
	x.val = constant.MakeInt64(n)
}

// offsetConstant sums the offsets along a selection path. The path must not
// step through a pointer.
func (tc *typeChecker) offsetConstant(x *operand, owner types.TypeID, sel Selection, at ast.Expr) {
	var total int64
	cur := owner
	for _, idx := range sel.Index {
		rec, ok := tc.types.Record(tc.types.Base(cur))
		if !ok || idx >= len(rec.Fields) {
			x.setInvalid()
			return
		}
		if rec.Kind == types.RecordBitField {
			tc.report(diag.SemaBuiltinArgs, at.Span(), "Cannot take the offset of a bit_field field")
			x.setInvalid()
			return
		}
		off, err := tc.layout.OffsetOf(tc.types.Base(cur), idx)
		if err != nil {
			x.setInvalid()
			return
		}
		total += off
		cur = rec.Fields[idx].Type
		if tc.types.IsTypedPointer(cur) && idx != sel.Index[len(sel.Index)-1] {
			tc.report(diag.SemaBuiltinArgs, at.Span(), "Cannot take the offset of a field reached through a pointer")
			x.setInvalid()
			return
		}
	}
	x.mode = ModeConstant
	x.typ = tc.types.Builtin(types.Int)
	x.val = constant.MakeInt64(total)
}

func (tc *typeChecker) minMax(x *operand, e *ast.CallExpr, id symbols.BuiltinID) {
	name := id.String()
	var a, b operand
	tc.expr(&a, e.Args[0])
	tc.expr(&b, e.Args[1])
	if a.invalid() || b.invalid() {
		x.setInvalid()
		return
	}
	for _, o := range []*operand{&a, &b} {
		if !tc.types.IsNumeric(o.typ) || !tc.types.IsOrdered(o.typ) {
			tc.errorf(o, diag.SemaBuiltinArgs, "Expected a comparable numeric type for `%s`, got `%s`", name, tc.typeString(o.typ))
			x.setInvalid()
			return
		}
	}
	if a.mode == ModeConstant && b.mode == ModeConstant {
		op := token.Lt
		if id == symbols.BuiltinMax {
			op = token.Gt
		}
		pick := b
		if constant.Compare(op, a.val, b.val) {
			pick = a
		}
		// the result has the wider of the two types
		t := a.typ
		if tc.types.IsUntyped(a.typ) && tc.types.IsUntyped(b.typ) {
			if tc.untypedRank(b.typ) > tc.untypedRank(a.typ) {
				t = b.typ
			}
		} else if tc.types.IsUntyped(a.typ) {
			t = b.typ
		}
		x.mode = ModeConstant
		x.typ = t
		x.val = pick.val
		if tc.types.IsTyped(t) {
			tc.isExpressible(x, tc.types.Underlying(t))
		}
		return
	}

	tc.convertToTyped(&a, b.typ)
	tc.convertToTyped(&b, a.typ)
	if a.invalid() || b.invalid() {
		x.setInvalid()
		return
	}
	if !tc.types.Identical(a.typ, b.typ) {
		tc.report(diag.SemaMismatchedTypes, e.Sp, "Mismatched types to `%s`, `%s` vs `%s`", name, tc.typeString(a.typ), tc.typeString(b.typ))
		x.setInvalid()
		return
	}
	x.mode = ModeValue
	x.typ = a.typ
}

func (tc *typeChecker) atomic(x *operand, e *ast.CallExpr, id symbols.BuiltinID) {
	name := id.String()
	var p operand
	tc.expr(&p, e.Args[0])
	if p.invalid() {
		x.setInvalid()
		return
	}
	if !tc.types.IsTypedPointer(p.typ) {
		tc.errorf(&p, diag.SemaBuiltinArgs, "Expected a pointer for `%s`, got `%s`", name, tc.typeString(p.typ))
		x.setInvalid()
		return
	}
	elem := tc.types.Elem(p.typ)
	intOnly := id == symbols.BuiltinAtomicAdd || id == symbols.BuiltinAtomicSub
	if !tc.types.IsInteger(elem) && (intOnly || !tc.types.IsPointer(elem)) {
		tc.errorf(&p, diag.SemaBuiltinArgs, "`%s` requires a pointer to an integer, got `%s`", name, tc.typeString(p.typ))
		x.setInvalid()
		return
	}
	ok := true
	for _, arg := range e.Args[1:] {
		var y operand
		tc.expr(&y, arg)
		tc.assignment(&y, elem, name)
		if y.invalid() {
			ok = false
		}
	}
	if !ok {
		x.setInvalid()
		return
	}
	if id == symbols.BuiltinAtomicStore {
		x.mode = ModeNoValue
		x.typ = types.NoTypeID
		return
	}
	x.mode = ModeValue
	x.typ = elem
}
