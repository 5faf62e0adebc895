package check

import (
	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

// checkProcBody checks the statements of a queued procedure.
func (tc *typeChecker) checkProcBody(pd *ProcDecl) {
	if pd.Lit == nil || pd.Lit.Body == nil {
		return
	}
	savedScope, savedProc, savedLoop, savedMatch, savedDefer := tc.scope, tc.proc, tc.loopDepth, tc.matchDepth, tc.inDefer
	defer func() {
		tc.scope, tc.proc, tc.loopDepth, tc.matchDepth, tc.inDefer = savedScope, savedProc, savedLoop, savedMatch, savedDefer
	}()
	tc.scope = pd.Scope
	tc.proc = pd
	tc.loopDepth = 0
	tc.matchDepth = 0
	tc.inDefer = false

	tc.stmtList(pd.Lit.Body.List)

	sig, ok := tc.types.Proc(pd.Type)
	if !ok || tc.types.TupleLen(sig.Results) == 0 {
		return
	}
	if !tc.isTerminatingList(pd.Lit.Body.List) {
		tc.report(diag.SemaReturnCount, pd.Lit.Body.Sp, "Missing return statement at the end of the procedure")
	}
}

func (tc *typeChecker) stmtList(list []ast.Stmt) {
	for _, s := range list {
		if tc.cancelled() {
			return
		}
		tc.stmt(s)
	}
}

func (tc *typeChecker) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BadStmt:

	case *ast.DeclStmt:
		tc.localDecl(n.Decl)

	case *ast.ExprStmt:
		var x operand
		kind := tc.rawExpr(&x, n.X, types.NoTypeID)
		if x.invalid() || kind == ExprStmt {
			return
		}
		tc.report(diag.SemaUnusedValue, n.X.Span(), "Expression is not used: `%s`", ast.ExprString(n.X))

	case *ast.AssignStmt:
		if n.Op == token.Eq {
			tc.assignStmt(n)
		} else {
			tc.opAssignStmt(n)
		}

	case *ast.BlockStmt:
		tc.openScope(symbols.ScopeBlock, n)
		tc.stmtList(n.List)
		tc.closeScope()

	case *ast.IfStmt:
		tc.openScope(symbols.ScopeBlock, n)
		if n.Init != nil {
			tc.stmt(n.Init)
		}
		tc.condition(n.Cond, "if")
		tc.stmt(n.Body)
		if n.Else != nil {
			tc.stmt(n.Else)
		}
		tc.closeScope()

	case *ast.ForStmt:
		tc.openScope(symbols.ScopeBlock, n)
		if n.Init != nil {
			tc.stmt(n.Init)
		}
		if n.Cond != nil {
			tc.condition(n.Cond, "for")
		}
		if n.Post != nil {
			if _, isDecl := n.Post.(*ast.DeclStmt); isDecl {
				tc.report(diag.SemaError, n.Post.Span(), "Cannot declare variables in a `for` post statement")
			} else {
				tc.stmt(n.Post)
			}
		}
		tc.loopDepth++
		tc.stmt(n.Body)
		tc.loopDepth--
		tc.closeScope()

	case *ast.ReturnStmt:
		tc.returnStmt(n)

	case *ast.BranchStmt:
		if tc.loopDepth == 0 && (n.Tok != token.KwBreak || tc.matchDepth == 0) {
			tc.report(diag.SemaMisplacedBranch, n.Sp, "`%s` statement not within a loop", n.Tok)
		}

	case *ast.MatchStmt:
		tc.matchStmt(n)

	case *ast.UsingStmt:
		tc.usingStmt(n)

	case *ast.DeferStmt:
		if tc.inDefer {
			tc.report(diag.SemaMisplacedBranch, n.Sp, "You cannot defer a defer statement")
			return
		}
		savedLoop, savedMatch := tc.loopDepth, tc.matchDepth
		tc.inDefer = true
		tc.loopDepth, tc.matchDepth = 0, 0
		tc.stmt(n.Stmt)
		tc.inDefer = false
		tc.loopDepth, tc.matchDepth = savedLoop, savedMatch

	default:
		tc.report(diag.SemaError, s.Span(), "Invalid statement")
	}
}

func (tc *typeChecker) condition(e ast.Expr, context string) {
	var x operand
	tc.expr(&x, e)
	if x.invalid() {
		return
	}
	if !tc.types.IsBoolean(x.typ) || tc.types.IsVector(x.typ) {
		tc.errorf(&x, diag.SemaMismatchedTypes, "Non-boolean condition in `%s` statement", context)
		return
	}
	tc.convertToTyped(&x, tc.types.Default(x.typ))
}

// localDecl declares names inside a procedure body. Variables enter the
// scope after their initialisers are checked, so "x := x" refers to an
// outer x.
func (tc *typeChecker) localDecl(d *ast.ValueDecl) {
	if d.Const {
		for _, e := range tc.declareValueDecl(d, tc.scope, false) {
			tc.declEntity(e)
		}
		return
	}
	if len(d.Attrs) > 0 {
		tc.report(diag.SemaError, d.Sp, "Attributes are not allowed on local variables")
	}
	if len(d.Values) > 1 && len(d.Values) != len(d.Names) {
		tc.report(diag.SemaAssignMismatch, d.Sp, "Assignment count mismatch `%d` = `%d`", len(d.Names), len(d.Values))
	}

	ents := make([]*symbols.Entity, len(d.Names))
	for i, name := range d.Names {
		e := tc.entities.New(symbols.EntityVariable, name.Name, name.Sp, tc.scope)
		e.Decl = d
		e.TypeExpr = d.Type
		switch {
		case len(d.Values) == len(d.Names):
			e.Init = d.Values[i]
		case len(d.Values) == 1:
			e.Init = d.Values[0]
		}
		tc.info.Defs[name] = e
		ents[i] = e
	}
	for _, e := range ents {
		tc.declEntity(e)
	}
	for i, e := range ents {
		if prev := tc.scope.Insert(e); prev != nil {
			diag.ReportError(tc.reporter, diag.SemaRedeclared, d.Names[i].Sp, "Redeclaration of `"+e.Name+"` in this scope").
				WithNote(prev.Span, "previous declaration here").
				Emit()
		}
	}
}

// assignTarget checks the left-hand side of an assignment and returns its
// type, or NoTypeID for "_" and invalid targets.
func (tc *typeChecker) assignTarget(lhs ast.Expr) (types.TypeID, bool) {
	if id, ok := ast.Unparen(lhs).(*ast.Ident); ok && id.Name == "_" {
		tc.info.Types[lhs] = TypeAndValue{Mode: ModeVariable}
		return types.NoTypeID, true
	}
	var x operand
	tc.expr(&x, lhs)
	if x.invalid() {
		return types.NoTypeID, false
	}
	if !x.mode.Assignable() {
		tc.errorf(&x, diag.SemaNotAssignable, "Cannot assign to `%s`", x.String())
		return types.NoTypeID, false
	}
	return x.typ, true
}

func (tc *typeChecker) assignStmt(s *ast.AssignStmt) {
	switch {
	case len(s.Lhs) == len(s.Rhs):
		for i, lhs := range s.Lhs {
			t, ok := tc.assignTarget(lhs)
			var y operand
			tc.exprWithHint(&y, s.Rhs[i], t)
			if !ok {
				continue
			}
			tc.assignment(&y, t, "assignment")
		}

	case len(s.Rhs) == 1:
		var y operand
		tc.multiExpr(&y, s.Rhs[0])
		if y.invalid() {
			for _, lhs := range s.Lhs {
				tc.assignTarget(lhs)
			}
			return
		}
		tup, ok := tc.types.Tuple(tc.types.Base(y.typ))
		if !ok || len(tup.Vars) != len(s.Lhs) {
			n := 1
			if ok {
				n = len(tup.Vars)
			}
			tc.report(diag.SemaAssignMismatch, s.Sp, "Assignment count mismatch `%d` = `%d`", len(s.Lhs), n)
			return
		}
		for i, lhs := range s.Lhs {
			t, ok := tc.assignTarget(lhs)
			if !ok {
				continue
			}
			elem := operand{mode: ModeValue, typ: tup.Vars[i].Type, expr: s.Rhs[0]}
			tc.assignment(&elem, t, "assignment")
		}

	default:
		tc.report(diag.SemaAssignMismatch, s.Sp, "Assignment count mismatch `%d` = `%d`", len(s.Lhs), len(s.Rhs))
	}
}

// opAssignStmt checks "x op= y" as "x = x op y".
func (tc *typeChecker) opAssignStmt(s *ast.AssignStmt) {
	if len(s.Lhs) != 1 || len(s.Rhs) != 1 {
		tc.report(diag.SemaAssignMismatch, s.OpPos, "Assignment operation `%s` requires single-valued expressions", s.Op)
		return
	}
	t, ok := tc.assignTarget(s.Lhs[0])
	if !ok {
		return
	}
	if t == types.NoTypeID {
		tc.report(diag.SemaNotAssignable, s.Lhs[0].Span(), "Cannot use `_` in an assignment operation")
		return
	}
	bin := &ast.BinaryExpr{Op: s.Op.BinaryOf(), X: s.Lhs[0], Y: s.Rhs[0], OpPos: s.OpPos, Sp: s.Sp}
	tc.info.OpAssigns[s] = bin
	var x operand
	tc.rawExpr(&x, bin, types.NoTypeID)
	if x.invalid() {
		return
	}
	tc.assignment(&x, t, "assignment operation")
}

func (tc *typeChecker) returnStmt(s *ast.ReturnStmt) {
	if tc.inDefer {
		tc.report(diag.SemaMisplacedBranch, s.Sp, "You cannot `return` within a defer statement")
		return
	}
	if tc.proc == nil {
		tc.report(diag.SemaMisplacedBranch, s.Sp, "`return` outside a procedure")
		return
	}
	sig, _ := tc.types.Proc(tc.proc.Type)
	var results []types.Field
	if sig != nil {
		if tup, ok := tc.types.Tuple(sig.Results); ok {
			results = tup.Vars
		}
	}

	if len(s.Results) == 0 {
		if len(results) == 0 || allNamed(results) {
			return
		}
		tc.report(diag.SemaReturnCount, s.Sp, "Expected %d return values, got %d", len(results), 0)
		return
	}

	if len(s.Results) == 1 && len(results) > 1 {
		var y operand
		tc.multiExpr(&y, s.Results[0])
		if y.invalid() {
			return
		}
		tup, ok := tc.types.Tuple(tc.types.Base(y.typ))
		if !ok || len(tup.Vars) != len(results) {
			tc.report(diag.SemaReturnCount, s.Sp, "Expected %d return values, got %d", len(results), 1)
			return
		}
		for i, v := range tup.Vars {
			elem := operand{mode: ModeValue, typ: v.Type, expr: s.Results[0]}
			tc.assignment(&elem, results[i].Type, "return statement")
		}
		return
	}

	if len(s.Results) != len(results) {
		tc.report(diag.SemaReturnCount, s.Sp, "Expected %d return values, got %d", len(results), len(s.Results))
		for _, r := range s.Results {
			var y operand
			tc.rawExpr(&y, r, types.NoTypeID)
		}
		return
	}
	for i, r := range s.Results {
		var y operand
		tc.exprWithHint(&y, r, results[i].Type)
		tc.assignment(&y, results[i].Type, "return statement")
	}
}

func allNamed(vars []types.Field) bool {
	for _, v := range vars {
		if v.Name == "" {
			return false
		}
	}
	return len(vars) > 0
}

func (tc *typeChecker) isTerminatingList(list []ast.Stmt) bool {
	if len(list) == 0 {
		return false
	}
	return tc.isTerminating(list[len(list)-1])
}

// isTerminating reports statements after which control cannot fall through.
func (tc *typeChecker) isTerminating(s ast.Stmt) bool {
	switch n := s.(type) {
	case *ast.ReturnStmt:
		return true
	case *ast.BlockStmt:
		return tc.isTerminatingList(n.List)
	case *ast.IfStmt:
		return n.Else != nil && tc.isTerminating(n.Body) && tc.isTerminating(n.Else)
	case *ast.ForStmt:
		return n.Cond == nil && !hasBreak(n.Body)
	case *ast.MatchStmt:
		hasDefault := false
		for _, c := range n.Clauses {
			hasDefault = hasDefault || len(c.Types) == 0
			if !tc.isTerminatingList(c.Body) || hasBreak(&ast.BlockStmt{List: c.Body}) {
				return false
			}
		}
		return hasDefault
	}
	return false
}

// hasBreak finds a break that targets the loop owning body.
func hasBreak(body *ast.BlockStmt) bool {
	found := false
	var visit func(s ast.Stmt)
	visit = func(s ast.Stmt) {
		if found || s == nil {
			return
		}
		switch n := s.(type) {
		case *ast.BranchStmt:
			if n.Tok == token.KwBreak {
				found = true
			}
		case *ast.BlockStmt:
			for _, c := range n.List {
				visit(c)
			}
		case *ast.IfStmt:
			visit(n.Body)
			visit(n.Else)
		case *ast.DeferStmt:
			visit(n.Stmt)
		}
	}
	visit(body)
	return found
}

// matchStmt checks a type match over a union, a pointer to a union or an
// any. Each clause binds the match variable in its own scope: a clause
// with one type binds the variant (a pointer to it when matching through
// a pointer), any other clause binds the matched value itself.
func (tc *typeChecker) matchStmt(s *ast.MatchStmt) {
	tc.openScope(symbols.ScopeBlock, s)
	defer tc.closeScope()

	var x operand
	tc.expr(&x, s.Tag)
	if x.invalid() {
		return
	}
	if tc.types.IsUntyped(x.typ) {
		tc.errorf(&x, diag.SemaInvalidMatch, "Cannot match on untyped expression `%s`", x.String())
		return
	}
	subject, byPtr := x.typ, false
	if tc.types.IsTypedPointer(x.typ) && tc.types.IsUnion(tc.types.Elem(x.typ)) {
		subject, byPtr = tc.types.Elem(x.typ), true
	}
	isAny := !byPtr && tc.types.IsAny(subject)
	if !isAny && !tc.types.IsUnion(subject) {
		tc.errorf(&x, diag.SemaInvalidMatch, "Invalid type for this type match expression, got `%s`", tc.typeString(x.typ))
		return
	}
	var variants []types.Field
	if rec, ok := tc.types.Record(tc.types.Base(subject)); ok {
		variants = rec.Variants()
	}

	type seenCase struct {
		t  types.TypeID
		at ast.Expr
	}
	var seen []seenCase
	var firstDefault *ast.CaseClause
	for _, c := range s.Clauses {
		if len(c.Types) == 0 {
			if firstDefault != nil {
				diag.ReportError(tc.reporter, diag.SemaDuplicateCase, c.Sp, "Multiple `default` clauses").
					WithNote(firstDefault.Sp, "first default here").
					Emit()
			} else {
				firstDefault = c
			}
		}
		caseType := types.NoTypeID
		for _, te := range c.Types {
			t := tc.typExpr(te)
			if t == types.NoTypeID {
				continue
			}
			if !isAny && !hasVariant(tc.types, variants, t) {
				tc.report(diag.SemaInvalidMatch, te.Span(), "Unknown tag type, got `%s`", tc.typeString(t))
				continue
			}
			dup := false
			for _, prev := range seen {
				if tc.types.Identical(prev.t, t) {
					diag.ReportError(tc.reporter, diag.SemaDuplicateCase, te.Span(), "Duplicate type case `"+ast.ExprString(te)+"`").
						WithNote(prev.at.Span(), "previous type case here").
						Emit()
					dup = true
					break
				}
			}
			if dup {
				continue
			}
			seen = append(seen, seenCase{t: t, at: te})
			if isAny {
				tc.addTypeInfo(t)
			}
			caseType = t
		}

		bound := x.typ
		if len(c.Types) == 1 && caseType != types.NoTypeID {
			bound = caseType
			if byPtr {
				bound = tc.types.Pointer(caseType)
			}
		}
		tc.openScope(symbols.ScopeBlock, c)
		v := tc.entities.New(symbols.EntityVariable, s.Var.Name, s.Var.Sp, tc.scope)
		v.Type = bound
		v.State = symbols.Resolved
		v.Flags |= symbols.FlagImmutable | symbols.FlagUsed
		if s.Var.Name != "_" {
			tc.scope.Insert(v)
		}
		tc.info.MatchVars[c] = v
		tc.matchDepth++
		tc.stmtList(c.Body)
		tc.matchDepth--
		tc.closeScope()
	}
}

func hasVariant(in *types.Interner, variants []types.Field, t types.TypeID) bool {
	for _, v := range variants {
		if in.Identical(v.Type, t) {
			return true
		}
	}
	return false
}

// usingStmt promotes the fields of struct variables, or of the variables
// its declaration introduces, into the current scope.
func (tc *typeChecker) usingStmt(s *ast.UsingStmt) {
	if s.Decl != nil {
		tc.localDecl(s.Decl)
		for _, name := range s.Decl.Names {
			if e := tc.info.Defs[name]; e != nil && e.Type != types.NoTypeID {
				tc.usingVar(e, "a variable", name.Sp, tc.scope)
			}
		}
		return
	}
	for _, e := range s.List {
		var x operand
		tc.expr(&x, e)
		if x.invalid() {
			continue
		}
		var ent *symbols.Entity
		if id, ok := ast.Unparen(e).(*ast.Ident); ok {
			ent = tc.info.Uses[id]
		}
		if ent == nil || ent.Kind != symbols.EntityVariable || ent.UsingParent != nil {
			tc.report(diag.SemaUsingField, e.Span(), "`using` can only be applied to a variable, got `%s`", ast.ExprString(e))
			continue
		}
		tc.usingVar(ent, "a variable", e.Span(), tc.scope)
	}
}
