package check

import (
	"errors"

	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/layout"
	"odinc/internal/source"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

// collectObjects declares every package-level name without resolving it.
func (tc *typeChecker) collectObjects(files []*ast.File) []*symbols.Entity {
	var out []*symbols.Entity
	for _, f := range files {
		if f == nil {
			continue
		}
		for _, d := range f.Decls {
			out = append(out, tc.declareValueDecl(d, tc.pkg, true)...)
		}
	}
	return out
}

// declareValueDecl creates entities for the names of d and inserts them into
// scope. Nothing is resolved here.
func (tc *typeChecker) declareValueDecl(d *ast.ValueDecl, scope *symbols.Scope, global bool) []*symbols.Entity {
	if d.Const && len(d.Values) != len(d.Names) {
		tc.report(diag.SemaAssignMismatch, d.Sp, "Expected %d values for constant declaration, got %d", len(d.Names), len(d.Values))
	}
	if !d.Const && len(d.Values) > 1 && len(d.Values) != len(d.Names) {
		tc.report(diag.SemaAssignMismatch, d.Sp, "Assignment count mismatch `%d` = `%d`", len(d.Names), len(d.Values))
	}
	out := make([]*symbols.Entity, 0, len(d.Names))
	for i, name := range d.Names {
		var init ast.Expr
		switch {
		case i < len(d.Values) && (d.Const || len(d.Values) == len(d.Names)):
			init = d.Values[i]
		case !d.Const && len(d.Values) == 1:
			init = d.Values[0]
		}
		kind := symbols.EntityVariable
		if d.Const {
			kind = constKind(init)
		}
		e := tc.entities.New(kind, name.Name, name.Sp, scope)
		e.Decl = d
		e.Init = init
		e.TypeExpr = d.Type
		if global && (kind == symbols.EntityVariable || kind == symbols.EntityProcedure) {
			e.Flags |= symbols.FlagGlobal
		}
		tc.applyAttributes(e, d.Attrs)
		tc.info.Defs[name] = e
		if prev := scope.Insert(e); prev != nil {
			diag.ReportError(tc.reporter, diag.SemaRedeclared, name.Sp, "Redeclaration of `"+name.Name+"` in this scope").
				WithNote(prev.Span, "previous declaration here").
				Emit()
			continue
		}
		out = append(out, e)
	}
	return out
}

func constKind(init ast.Expr) symbols.EntityKind {
	switch init.(type) {
	case *ast.ProcLit:
		return symbols.EntityProcedure
	case *ast.StructType, *ast.UnionType, *ast.EnumType, *ast.PointerType,
		*ast.ArrayType, *ast.SliceType, *ast.VectorType, *ast.ProcType:
		return symbols.EntityTypeName
	}
	return symbols.EntityConstant
}

func (tc *typeChecker) applyAttributes(e *symbols.Entity, attrs []ast.Attribute) {
	for _, a := range attrs {
		if a.Key == nil {
			continue
		}
		if kind, ok := symbols.ParseDeferredKind(a.Key.Name); ok {
			if a.Value == nil {
				tc.report(diag.SemaDeferredHook, a.Key.Sp, "Expected a procedure name for `%s`", a.Key.Name)
				continue
			}
			if e.Deferred.Kind != symbols.DeferredNone {
				tc.report(diag.SemaDeferredHook, a.Key.Sp, "Procedure `%s` already has a deferred procedure", e.Name)
				continue
			}
			e.Deferred = symbols.DeferredHook{Kind: kind, Name: a.Value.Name, Span: a.Value.Sp}
			continue
		}
		switch a.Key.Name {
		case "link_name":
			if a.Value == nil {
				tc.report(diag.SemaError, a.Key.Sp, "Expected a name for `link_name`")
				continue
			}
			e.LinkName = a.Value.Name
		default:
			tc.report(diag.SemaError, a.Key.Sp, "Unknown attribute `%s`", a.Key.Name)
		}
	}
}

// declEntity resolves e on first use. It returns false when e is part of an
// illegal cycle or its declaration failed.
func (tc *typeChecker) declEntity(e *symbols.Entity) bool {
	switch e.State {
	case symbols.Resolved:
		return e.Type != types.NoTypeID || e.Kind == symbols.EntityBuiltin
	case symbols.InProgress:
		return tc.checkCycle(e)
	}
	if e.Decl == nil {
		e.State = symbols.Resolved
		return e.Type != types.NoTypeID
	}

	e.State = symbols.InProgress
	tc.declStack = append(tc.declStack, declFrame{entity: e, indirection: tc.indirection})

	// package declarations resolve in their own scope regardless of where the
	// first use was found
	savedScope, savedProc, savedLoop, savedDefer := tc.scope, tc.proc, tc.loopDepth, tc.inDefer
	if e.Scope != nil {
		tc.scope = e.Scope
	}
	if e.IsGlobal() || e.Scope == tc.pkg {
		tc.proc, tc.loopDepth, tc.inDefer = nil, 0, false
	}

	switch e.Kind {
	case symbols.EntityConstant:
		tc.constDecl(e)
	case symbols.EntityTypeName:
		tc.typeDecl(e)
	case symbols.EntityVariable:
		tc.varDecl(e)
	case symbols.EntityProcedure:
		tc.procDecl(e)
	}

	tc.scope, tc.proc, tc.loopDepth, tc.inDefer = savedScope, savedProc, savedLoop, savedDefer
	tc.declStack = tc.declStack[:len(tc.declStack)-1]
	e.State = symbols.Resolved
	return e.Type != types.NoTypeID
}

// checkCycle handles a reference to a declaration that is still being
// resolved. Type names reached through a pointer, slice or procedure type
// are fine; anything else is an illegal cycle.
func (tc *typeChecker) checkCycle(e *symbols.Entity) bool {
	start := -1
	for i := len(tc.declStack) - 1; i >= 0; i-- {
		if tc.declStack[i].entity == e {
			start = i
			break
		}
	}
	if e.Kind == symbols.EntityTypeName && e.Type != types.NoTypeID {
		if start < 0 || tc.indirection > tc.declStack[start].indirection {
			return true
		}
	}
	b := diag.ReportError(tc.reporter, diag.SemaDeclCycle, e.Span, "Illegal declaration cycle of `"+e.Name+"`")
	if b != nil && start >= 0 {
		for _, fr := range tc.declStack[start:] {
			b.WithNote(fr.entity.Span, "`"+fr.entity.Name+"` refers to")
		}
		b.WithNote(e.Span, "`"+e.Name+"`")
	}
	if b != nil {
		b.Emit()
	}
	return false
}

func (tc *typeChecker) constDecl(e *symbols.Entity) {
	if e.Init == nil {
		return
	}
	var x operand
	tc.exprOrType(&x, e.Init)
	if x.mode == ModeType {
		// "A :: int" declares a distinct named type
		e.Kind = symbols.EntityTypeName
		e.Type = tc.types.NewNamed(e.Name, x.typ, e.ID)
		tc.info.TypeNames = append(tc.info.TypeNames, e)
		return
	}
	if x.invalid() {
		return
	}
	if x.mode != ModeConstant {
		tc.report(diag.SemaNotConstant, e.Init.Span(), "`%s` is not a constant", x.String())
		return
	}
	if e.TypeExpr != nil {
		t := tc.typExpr(e.TypeExpr)
		if t == types.NoTypeID {
			return
		}
		tc.assignment(&x, t, "constant declaration")
		if x.invalid() {
			return
		}
		if x.mode != ModeConstant {
			tc.report(diag.SemaNotConstant, e.Init.Span(), "`%s` is not a constant", x.String())
			return
		}
	}
	e.Type = x.typ
	e.Value = x.val
}

func (tc *typeChecker) typeDecl(e *symbols.Entity) {
	named := tc.types.NewNamed(e.Name, types.NoTypeID, e.ID)
	e.Type = named
	tc.pendingNamed[e.Init] = named
	base := tc.typExpr(e.Init)
	delete(tc.pendingNamed, e.Init)
	if base == types.NoTypeID {
		e.Type = types.NoTypeID
		return
	}
	tc.types.SetNamedBase(named, base)
	tc.layout.Forget(named)
	tc.info.TypeNames = append(tc.info.TypeNames, e)
}

func (tc *typeChecker) varDecl(e *symbols.Entity) {
	var declared types.TypeID
	if e.TypeExpr != nil {
		declared = tc.typExpr(e.TypeExpr)
		if declared == types.NoTypeID {
			return
		}
	}
	if e.Init == nil {
		e.Type = declared
		tc.finishVar(e)
		return
	}

	x, seen := tc.initCache[e.Init]
	if !seen {
		tc.multiExpr(&x, e.Init)
		if len(e.Decl.Names) > 1 && len(e.Decl.Values) == 1 {
			// "a, b := f()" checks the call once for all names
			tc.initCache[e.Init] = x
		}
	}
	if x.invalid() {
		e.Type = declared
		tc.finishVar(e)
		return
	}
	if tc.types.IsTuple(x.typ) {
		tup, _ := tc.types.Tuple(tc.types.Base(x.typ))
		idx := tc.tupleIndex(e)
		if idx < 0 || idx >= len(tup.Vars) || len(tup.Vars) != len(e.Decl.Names) {
			tc.report(diag.SemaAssignMismatch, e.Decl.Sp, "Assignment count mismatch `%d` = `%d`", len(e.Decl.Names), len(tup.Vars))
			e.Type = declared
			tc.finishVar(e)
			return
		}
		elem := operand{mode: ModeValue, typ: tup.Vars[idx].Type, expr: e.Init}
		x = elem
	} else if len(e.Decl.Values) == 1 && len(e.Decl.Names) > 1 {
		tc.report(diag.SemaAssignMismatch, e.Decl.Sp, "Assignment count mismatch `%d` = `%d`", len(e.Decl.Names), 1)
		return
	}

	tc.assignment(&x, declared, "variable declaration")
	if x.invalid() {
		e.Type = declared
		tc.finishVar(e)
		return
	}
	if declared == types.NoTypeID {
		declared = x.typ
	}
	e.Type = declared
	tc.finishVar(e)
}

func (tc *typeChecker) finishVar(e *symbols.Entity) {
	if e.Type != types.NoTypeID && !tc.fitsTarget(e.Type, e.Span) {
		e.Type = types.NoTypeID
	}
	if e.IsGlobal() && e.Type != types.NoTypeID {
		tc.info.Globals = append(tc.info.Globals, e)
	}
}

// tupleIndex returns the position of e among the names of its declaration.
func (tc *typeChecker) tupleIndex(e *symbols.Entity) int {
	for i, n := range e.Decl.Names {
		if tc.info.Defs[n] == e {
			return i
		}
	}
	return -1
}

func (tc *typeChecker) procDecl(e *symbols.Entity) {
	lit, _ := e.Init.(*ast.ProcLit)
	if lit == nil {
		return
	}
	scope := symbols.NewScope(tc.pkg, symbols.ScopeProc, lit.Sp)
	if !e.IsGlobal() && tc.scope != nil {
		// local procedures see enclosing constants and types, never locals
		scope = symbols.NewScope(tc.scope, symbols.ScopeProc, lit.Sp)
	}
	t := tc.procType(lit.Type, scope)
	if t == types.NoTypeID {
		return
	}
	e.Type = t
	e.Foreign = lit.Foreign
	if lit.Foreign && lit.ForeignName != "" && e.LinkName == "" {
		e.LinkName = lit.ForeignName
	}
	if e.LinkName == "" {
		e.LinkName = tc.procName(e.Name)
	}
	tc.info.Implicits[lit] = scope
	tc.info.Types[lit] = TypeAndValue{Mode: ModeValue, Type: t}
	if lit.Foreign {
		if lit.Body != nil {
			tc.report(diag.SemaError, lit.Sp, "A foreign procedure cannot have a body")
		}
		return
	}
	if lit.Body == nil {
		tc.report(diag.SemaMissingBody, lit.Sp, "Procedure `%s` has no body", e.Name)
		return
	}
	pd := &ProcDecl{Entity: e, Lit: lit, Type: t, Scope: scope, Name: e.LinkName, Parent: tc.proc}
	tc.info.ProcLits[lit] = pd
	tc.queueProc(pd)
}

func (tc *typeChecker) procName(name string) string {
	if tc.proc == nil {
		return name
	}
	return tc.proc.Name + "." + name
}

func (tc *typeChecker) queueProc(pd *ProcDecl) {
	tc.procQueue = append(tc.procQueue, pd)
	tc.info.Procs = append(tc.info.Procs, pd)
}

// checkDeferredHooks validates @(deferred_in/out/in_out = hook) against the
// hook's parameter list.
func (tc *typeChecker) checkDeferredHooks(entities []*symbols.Entity) {
	for _, e := range entities {
		if e.Kind != symbols.EntityProcedure || e.Deferred.Kind == symbols.DeferredNone {
			continue
		}
		tc.checkDeferredHook(e)
	}
}

func (tc *typeChecker) checkDeferredHook(e *symbols.Entity) {
	hook := &e.Deferred
	scope := e.Scope
	if scope == nil {
		scope = tc.pkg
	}
	_, target := scope.LookupParent(hook.Name)
	if target == nil {
		tc.report(diag.SemaUndeclared, hook.Span, "Undeclared name: %s", hook.Name)
		return
	}
	if !tc.declEntity(target) || target.Kind != symbols.EntityProcedure {
		tc.report(diag.SemaDeferredHook, hook.Span, "'%s' must be a procedure", hook.Name)
		return
	}
	if target == e {
		tc.report(diag.SemaDeferredHook, hook.Span, "'%s' cannot be used as its own %s", e.Name, hook.Kind)
		return
	}
	sig, ok := tc.types.Proc(e.Type)
	hsig, hok := tc.types.Proc(target.Type)
	if !ok || !hok {
		return
	}
	params := tc.tupleTypes(sig.Params)
	results := tc.tupleTypes(sig.Results)
	want := params
	what := "inputs"
	switch hook.Kind {
	case symbols.DeferredOut:
		want, what = results, "results"
	case symbols.DeferredInOut:
		want = append(append([]types.TypeID(nil), params...), results...)
		what = "inputs and results"
	}
	if !tc.identicalLists(tc.tupleTypes(hsig.Params), want) {
		tc.report(diag.SemaDeferredHook, hook.Span,
			"Deferred procedure '%s' parameters do not match the %s of initial procedure '%s'", hook.Name, what, e.Name)
		return
	}
	hook.Proc = target
}

func (tc *typeChecker) tupleTypes(id types.TypeID) []types.TypeID {
	tup, ok := tc.types.Tuple(id)
	if !ok {
		return nil
	}
	out := make([]types.TypeID, len(tup.Vars))
	for i, v := range tup.Vars {
		out[i] = v.Type
	}
	return out
}

func (tc *typeChecker) identicalLists(a, b []types.TypeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !tc.types.Identical(a[i], b[i]) {
			return false
		}
	}
	return true
}

// checkLayouts reports value types that contain themselves.
func (tc *typeChecker) checkLayouts() {
	for _, e := range tc.info.TypeNames {
		if e.Type == types.NoTypeID {
			continue
		}
		if _, err := tc.layout.LayoutOf(e.Type); err != nil {
			var lerr *layout.LayoutError
			if !errors.As(err, &lerr) {
				continue
			}
			switch lerr.Kind {
			case layout.LayoutErrTooLarge:
				tc.report(diag.SemaTypeTooLarge, e.Span, "Type `%s` is too large: %s", e.Name, lerr.Describe(tc.types))
			case layout.LayoutErrRecursiveUnsized:
				if b := diag.ReportError(tc.reporter, diag.SemaRecursiveUnsized, e.Span, "Recursive type `"+e.Name+"` has infinite size"); b != nil {
					b.WithNote(e.Span, lerr.Describe(tc.types)).Emit()
				}
			}
		}
	}
}

// fitsTarget reports a variable type whose size overflows the target.
func (tc *typeChecker) fitsTarget(t types.TypeID, at source.Span) bool {
	_, err := tc.layout.SizeOf(t)
	if !tooLarge(err) {
		return true
	}
	tc.report(diag.SemaTypeTooLarge, at, "Type `%s` is too large: %v", tc.typeString(t), err)
	return false
}

func tooLarge(err error) bool {
	var lerr *layout.LayoutError
	return errors.As(err, &lerr) && lerr.Kind == layout.LayoutErrTooLarge
}

// constInt returns the integer value of a constant operand.
func constInt(x *operand) (int64, bool) {
	if x.mode != ModeConstant {
		return 0, false
	}
	return constant.ToInteger(x.val).Int64()
}
