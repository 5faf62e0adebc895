package irgen

import (
	"odinc/internal/ast"
	"odinc/internal/ir"
	"odinc/internal/layout"
	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

func (pg *procGen) stmtList(list []ast.Stmt) {
	for _, s := range list {
		pg.stmt(s)
	}
}

func (pg *procGen) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BadStmt:
	case *ast.DeclStmt:
		pg.localDecl(n.Decl)
	case *ast.ExprStmt:
		pg.expr(n.X)
	case *ast.AssignStmt:
		if n.Op == token.Eq {
			pg.assign(n)
		} else {
			pg.opAssign(n)
		}
	case *ast.BlockStmt:
		pg.pushScope()
		pg.stmtList(n.List)
		pg.popScope()
	case *ast.IfStmt:
		pg.ifStmt(n)
	case *ast.ForStmt:
		pg.forStmt(n)
	case *ast.ReturnStmt:
		pg.returnStmt(n)
	case *ast.BranchStmt:
		pg.branch(n)
	case *ast.DeferStmt:
		pg.deferItem(deferred{stmt: n.Stmt})
	case *ast.MatchStmt:
		pg.matchStmt(n)
	case *ast.UsingStmt:
		// promoted fields are resolved through their parent variable
		if n.Decl != nil {
			pg.localDecl(n.Decl)
		}
	default:
		pg.g.failf("cannot lower statement %T", s)
	}
}

// localDecl allocates the variables of a local declaration. Initialisers
// are evaluated before any of the new variables is stored.
func (pg *procGen) localDecl(d *ast.ValueDecl) {
	if d.Const {
		return
	}
	info := pg.g.info
	ents := make([]*symbols.Entity, len(d.Names))
	for i, name := range d.Names {
		ents[i] = info.Defs[name]
		if ents[i] == nil {
			pg.g.failf("local %s was not declared", name.Name)
		}
	}
	vals := make([]ir.Value, len(ents))
	switch {
	case len(d.Values) == 0:
	case len(d.Values) == len(d.Names):
		for i, ent := range ents {
			vals[i] = pg.exprTo(d.Values[i], ent.Type)
		}
	default:
		tv := pg.expr(d.Values[0])
		tt := info.TypeOf(d.Values[0])
		for i, ent := range ents {
			vals[i] = pg.tupleElem(tv, tt, i, ent.Type)
		}
	}
	for i, ent := range ents {
		if vals[i] == nil {
			pg.locals[ent] = pg.zeroTemp(ent.Type, ent.Name)
			continue
		}
		slot := pg.temp(ent.Type, ent.Name)
		pg.b.Store(vals[i], slot)
		pg.locals[ent] = slot
	}
}

func isBlank(e ast.Expr) bool {
	id, ok := ast.Unparen(e).(*ast.Ident)
	return ok && id.Name == "_"
}

func (pg *procGen) assign(s *ast.AssignStmt) {
	info := pg.g.info
	if len(s.Lhs) != len(s.Rhs) {
		tv := pg.expr(s.Rhs[0])
		tt := info.TypeOf(s.Rhs[0])
		for i, lhs := range s.Lhs {
			if isBlank(lhs) {
				continue
			}
			v := pg.tupleElem(tv, tt, i, info.TypeOf(lhs))
			pg.b.Store(v, pg.addr(lhs))
		}
		return
	}
	// right sides first so "a, b = b, a" swaps
	vals := make([]ir.Value, len(s.Rhs))
	for i, rhs := range s.Rhs {
		if isBlank(s.Lhs[i]) {
			pg.expr(rhs)
			continue
		}
		vals[i] = pg.exprTo(rhs, info.TypeOf(s.Lhs[i]))
	}
	for i, lhs := range s.Lhs {
		if vals[i] != nil {
			pg.b.Store(vals[i], pg.addr(lhs))
		}
	}
}

// opAssign lowers "x op= y" evaluating the address of x once.
func (pg *procGen) opAssign(s *ast.AssignStmt) {
	info := pg.g.info
	bin := info.OpAssigns[s]
	if bin == nil {
		pg.g.failf("assignment operation without a recorded operator")
	}
	lt := info.TypeOf(s.Lhs[0])
	addr := pg.addr(s.Lhs[0])
	x := pg.load(lt, addr)
	y := pg.expr(bin.Y)
	r := pg.binaryValues(bin, info.TypeOf(bin), x, y)
	pg.b.Store(pg.convert(r, info.TypeOf(bin), lt), addr)
}

func (pg *procGen) ifStmt(s *ast.IfStmt) {
	pg.pushScope()
	if s.Init != nil {
		pg.stmt(s.Init)
	}
	then := pg.newBlock("if.then")
	var els *ir.Block
	if s.Else != nil {
		els = pg.newBlock("if.else")
	}
	done := pg.newBlock("if.done")
	if els == nil {
		pg.cond(s.Cond, then, done)
	} else {
		pg.cond(s.Cond, then, els)
	}

	pg.b.SetBlock(then)
	pg.stmt(s.Body)
	pg.jump(done)
	if els != nil {
		pg.b.SetBlock(els)
		pg.stmt(s.Else)
		pg.jump(done)
	}
	pg.b.SetBlock(done)
	pg.popScope()
}

func (pg *procGen) forStmt(s *ast.ForStmt) {
	pg.pushScope()
	if s.Init != nil {
		pg.stmt(s.Init)
	}
	head := pg.newBlock("for.cond")
	body := pg.newBlock("for.body")
	post := pg.newBlock("for.post")
	done := pg.newBlock("for.done")

	pg.jump(head)
	pg.b.SetBlock(head)
	if s.Cond != nil {
		pg.cond(s.Cond, body, done)
	} else {
		pg.b.Br(body)
	}

	pg.b.SetBlock(body)
	pg.loops = append(pg.loops, loopTarget{brk: done, cont: post, depth: len(pg.scopes)})
	pg.stmt(s.Body)
	pg.loops = pg.loops[:len(pg.loops)-1]
	pg.jump(post)

	pg.b.SetBlock(post)
	if s.Post != nil {
		pg.stmt(s.Post)
	}
	pg.jump(head)

	pg.b.SetBlock(done)
	pg.popScope()
}

// branch leaves the innermost loop or match; continue skips matches.
func (pg *procGen) branch(s *ast.BranchStmt) {
	for i := len(pg.loops) - 1; i >= 0; i-- {
		lt := pg.loops[i]
		target := lt.brk
		if s.Tok == token.KwContinue {
			target = lt.cont
		}
		if target == nil {
			continue
		}
		pg.runDefers(lt.depth)
		pg.b.Br(target)
		return
	}
	pg.g.failf("%s outside a loop", s.Tok)
}

// matchStmt lowers a type match to a chain of tag comparisons ending in
// the default clause. The matched value is evaluated once.
func (pg *procGen) matchStmt(s *ast.MatchStmt) {
	g, in, info := pg.g, pg.g.in, pg.g.info
	pg.pushScope()
	m := matchSubject{t: info.TypeOf(s.Tag)}
	m.union = m.t
	if in.IsTypedPointer(m.t) && in.IsUnion(in.Elem(m.t)) {
		m.union, m.byPtr = in.Elem(m.t), true
	}
	m.v = pg.expr(s.Tag)
	if m.byPtr {
		m.ptr = m.v
		m.uv = pg.load(m.union, m.ptr)
	} else {
		m.uv = m.v
		m.ptr = pg.spill(m.v, m.t)
	}
	tag := pg.matchTag(m)

	done := pg.newBlock("match.done")
	var dflt *ast.CaseClause
	for _, c := range s.Clauses {
		if len(c.Types) == 0 {
			dflt = c
			continue
		}
		body := pg.newBlock("match.case")
		next := pg.newBlock("match.next")
		var hit ir.Value
		for _, te := range c.Types {
			eq := pg.b.Cmp(ir.EQ, tag, ir.ConstI(g.intT, pg.caseTag(m, info.TypeOf(te))))
			if hit == nil {
				hit = eq
			} else {
				hit = pg.b.Binary(ir.Or, hit, eq)
			}
		}
		pg.b.CondBr(hit, body, next)
		pg.b.SetBlock(body)
		pg.caseBody(c, m, done)
		pg.b.SetBlock(next)
	}
	if dflt != nil {
		pg.caseBody(dflt, m, done)
	}
	pg.jump(done)
	pg.b.SetBlock(done)
	pg.popScope()
}

// matchSubject is the evaluated operand of a type match: its value, an
// address holding it and the union (or any) value behind a pointer.
type matchSubject struct {
	t, union types.TypeID
	byPtr    bool
	v, ptr   ir.Value
	uv       ir.Value
}

// matchTag reads the 1-based variant tag of a union, zero meaning nil,
// or the typeid of an any.
func (pg *procGen) matchTag(m matchSubject) ir.Value {
	g := pg.g
	if g.in.IsAny(m.union) {
		return pg.b.ExtractValue(m.uv, g.intT, lower.AnyType)
	}
	switch g.low.UnionShape(m.union).Repr {
	case layout.UnionEmpty:
		return ir.ConstI(g.intT, 0)
	case layout.UnionMaybePointer:
		set := pg.b.Cmp(ir.NE, m.uv, ir.Null(m.uv.Type()))
		return pg.b.Conv(ir.ZExt, set, g.intT)
	}
	return pg.b.ExtractValue(m.uv, g.intT, unionTag)
}

func (pg *procGen) caseTag(m matchSubject, t types.TypeID) int64 {
	if pg.g.in.IsAny(m.union) {
		return int64(t)
	}
	tag, ok := pg.g.low.UnionShape(m.union).Tag(pg.g.in, t)
	if !ok {
		pg.g.failf("%s is not a variant of %s", pg.g.in.TypeString(t), pg.g.in.TypeString(m.union))
	}
	return tag
}

// caseBody binds the match variable and lowers the statements of c; break
// inside the clause leaves the match.
func (pg *procGen) caseBody(c *ast.CaseClause, m matchSubject, done *ir.Block) {
	g := pg.g
	pg.loops = append(pg.loops, loopTarget{brk: done, depth: len(pg.scopes)})
	pg.pushScope()
	if ent := g.info.MatchVars[c]; ent != nil {
		var val ir.Value
		switch {
		case ent.Type == m.t:
			val = m.v
		case g.in.IsAny(m.union):
			data := pg.b.ExtractValue(m.uv, ir.I8P, lower.AnyData)
			val = pg.load(ent.Type, castPtr(pg.b, data, ir.Ptr(g.lbType(ent.Type))))
		case m.byPtr:
			val = castPtr(pg.b, m.ptr, g.lbType(ent.Type))
		default:
			val = pg.load(ent.Type, castPtr(pg.b, m.ptr, ir.Ptr(g.lbType(ent.Type))))
		}
		pg.locals[ent] = pg.spill(val, ent.Type)
	}
	pg.stmtList(c.Body)
	pg.popScope()
	pg.loops = pg.loops[:len(pg.loops)-1]
	pg.jump(done)
}

// returnStmt evaluates the results, runs every pending defer and returns.
// Named results are stored first so deferred statements observe them.
func (pg *procGen) returnStmt(s *ast.ReturnStmt) {
	info := pg.g.info
	var vars []types.Field
	if tup, ok := pg.g.in.Tuple(pg.sig.Results); ok {
		vars = tup.Vars
	}
	var vals []ir.Value
	switch {
	case len(s.Results) == 0:
	case len(s.Results) == 1 && len(vars) > 1:
		tv := pg.expr(s.Results[0])
		tt := info.TypeOf(s.Results[0])
		for i, v := range vars {
			vals = append(vals, pg.tupleElem(tv, tt, i, v.Type))
		}
	default:
		for i, r := range s.Results {
			vals = append(vals, pg.exprTo(r, vars[i].Type))
		}
	}

	if len(pg.named) > 0 {
		for i, v := range vals {
			pg.b.Store(v, pg.named[i])
		}
		pg.runDefers(0)
		pg.retNamed()
		return
	}
	pg.runDefers(0)
	pg.retValues(vals)
}

// cond branches on a boolean expression.
func (pg *procGen) cond(e ast.Expr, then, els *ir.Block) {
	c := pg.truth(pg.expr(e))
	pg.b.CondBr(c, then, els)
}
