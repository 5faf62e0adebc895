package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/ast"
	"odinc/internal/symbols"
	"odinc/internal/token"
	"odinc/internal/types"
)

func (fe *funcEmitter) stmtList(list []ast.Stmt) {
	for _, s := range list {
		fe.stmt(s)
	}
}

func (fe *funcEmitter) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BadStmt:
	case *ast.DeclStmt:
		fe.localDecl(n.Decl)
	case *ast.ExprStmt:
		fe.expr(n.X)
	case *ast.AssignStmt:
		if n.Op == token.Eq {
			fe.assign(n)
		} else {
			fe.opAssign(n)
		}
	case *ast.BlockStmt:
		fe.pushScope()
		fe.stmtList(n.List)
		fe.popScope()
	case *ast.IfStmt:
		fe.ifStmt(n)
	case *ast.ForStmt:
		fe.forStmt(n)
	case *ast.ReturnStmt:
		fe.returnStmt(n)
	case *ast.BranchStmt:
		fe.branch(n)
	case *ast.DeferStmt:
		fe.deferItem(deferred{stmt: n.Stmt})
	case *ast.MatchStmt:
		fe.matchStmt(n)
	case *ast.UsingStmt:
		// promoted fields are resolved through their parent variable
		if n.Decl != nil {
			fe.localDecl(n.Decl)
		}
	default:
		fe.m.failf("cannot lower statement %T", s)
	}
}

// localDecl allocates the variables of a local declaration after all
// initialisers have been evaluated.
func (fe *funcEmitter) localDecl(d *ast.ValueDecl) {
	if d.Const {
		return
	}
	info := fe.m.s.info
	ents := make([]*symbols.Entity, len(d.Names))
	for i, name := range d.Names {
		ents[i] = info.Defs[name]
		if ents[i] == nil {
			fe.m.failf("local %s was not declared", name.Name)
		}
	}
	vals := make([]value.Value, len(ents))
	switch {
	case len(d.Values) == 0:
	case len(d.Values) == len(d.Names):
		for i, ent := range ents {
			vals[i] = fe.exprTo(d.Values[i], ent.Type)
		}
	default:
		tv := fe.expr(d.Values[0])
		tt := info.TypeOf(d.Values[0])
		for i, ent := range ents {
			vals[i] = fe.tupleElem(tv, tt, i, ent.Type)
		}
	}
	for i, ent := range ents {
		if vals[i] == nil {
			fe.locals[ent] = fe.zeroTemp(ent.Type, ent.Name)
			continue
		}
		slot := fe.temp(ent.Type, ent.Name)
		fe.storePlain(vals[i], slot, ent.Type)
		fe.locals[ent] = slot
	}
}

func isBlank(e ast.Expr) bool {
	id, ok := ast.Unparen(e).(*ast.Ident)
	return ok && id.Name == "_"
}

func (fe *funcEmitter) assign(s *ast.AssignStmt) {
	info := fe.m.s.info
	if len(s.Lhs) != len(s.Rhs) {
		tv := fe.expr(s.Rhs[0])
		tt := info.TypeOf(s.Rhs[0])
		for i, lhs := range s.Lhs {
			if isBlank(lhs) {
				continue
			}
			v := fe.tupleElem(tv, tt, i, info.TypeOf(lhs))
			fe.addrStore(fe.lvalue(lhs), v)
		}
		return
	}
	// right sides first so "a, b = b, a" swaps
	vals := make([]value.Value, len(s.Rhs))
	for i, rhs := range s.Rhs {
		if isBlank(s.Lhs[i]) {
			fe.expr(rhs)
			continue
		}
		vals[i] = fe.exprTo(rhs, info.TypeOf(s.Lhs[i]))
	}
	for i, lhs := range s.Lhs {
		if vals[i] != nil {
			fe.addrStore(fe.lvalue(lhs), vals[i])
		}
	}
}

// opAssign lowers "x op= y" evaluating the address of x once.
func (fe *funcEmitter) opAssign(s *ast.AssignStmt) {
	info := fe.m.s.info
	bin := info.OpAssigns[s]
	if bin == nil {
		fe.m.failf("assignment operation without a recorded operator")
	}
	lt := info.TypeOf(s.Lhs[0])
	a := fe.lvalue(s.Lhs[0])
	x := fe.addrLoad(a)
	y := fe.expr(bin.Y)
	r := fe.binaryValues(bin, info.TypeOf(bin), x, y)
	fe.addrStore(a, fe.convert(r, info.TypeOf(bin), lt))
}

func (fe *funcEmitter) ifStmt(s *ast.IfStmt) {
	fe.pushScope()
	if s.Init != nil {
		fe.stmt(s.Init)
	}
	then := fe.newBlock("if.then")
	var els *ir.Block
	if s.Else != nil {
		els = fe.newBlock("if.else")
	}
	done := fe.newBlock("if.done")
	if els == nil {
		fe.cond(s.Cond, then, done)
	} else {
		fe.cond(s.Cond, then, els)
	}

	fe.setBlock(then)
	fe.stmt(s.Body)
	fe.jump(done)
	if els != nil {
		fe.setBlock(els)
		fe.stmt(s.Else)
		fe.jump(done)
	}
	fe.setBlock(done)
	fe.popScope()
}

func (fe *funcEmitter) forStmt(s *ast.ForStmt) {
	fe.pushScope()
	if s.Init != nil {
		fe.stmt(s.Init)
	}
	head := fe.newBlock("for.cond")
	body := fe.newBlock("for.body")
	post := fe.newBlock("for.post")
	done := fe.newBlock("for.done")

	fe.jump(head)
	fe.setBlock(head)
	if s.Cond != nil {
		fe.cond(s.Cond, body, done)
	} else {
		fe.cur.NewBr(body)
	}

	fe.setBlock(body)
	fe.loops = append(fe.loops, loopTarget{brk: done, cont: post, depth: len(fe.scopes)})
	fe.stmt(s.Body)
	fe.loops = fe.loops[:len(fe.loops)-1]
	fe.jump(post)

	fe.setBlock(post)
	if s.Post != nil {
		fe.stmt(s.Post)
	}
	fe.jump(head)

	fe.setBlock(done)
	fe.popScope()
}

// branch leaves the innermost loop or match; continue skips matches.
func (fe *funcEmitter) branch(s *ast.BranchStmt) {
	for i := len(fe.loops) - 1; i >= 0; i-- {
		lt := fe.loops[i]
		target := lt.brk
		if s.Tok == token.KwContinue {
			target = lt.cont
		}
		if target == nil {
			continue
		}
		fe.runDefers(lt.depth)
		fe.blk().NewBr(target)
		return
	}
	fe.m.failf("%s outside a loop", s.Tok)
}

// returnStmt evaluates the results, runs every pending defer and returns.
// Named results are stored first so deferred statements observe them.
func (fe *funcEmitter) returnStmt(s *ast.ReturnStmt) {
	info := fe.m.s.info
	var vars []types.Field
	if tup, ok := fe.m.s.in.Tuple(fe.sig.Results); ok {
		vars = tup.Vars
	}
	var vals []value.Value
	switch {
	case len(s.Results) == 0:
	case len(s.Results) == 1 && len(vars) > 1:
		tv := fe.expr(s.Results[0])
		tt := info.TypeOf(s.Results[0])
		for i, v := range vars {
			vals = append(vals, fe.tupleElem(tv, tt, i, v.Type))
		}
	default:
		for i, r := range s.Results {
			vals = append(vals, fe.exprTo(r, vars[i].Type))
		}
	}

	if len(fe.named) > 0 {
		for i, v := range vals {
			fe.storePlain(v, fe.named[i], vars[i].Type)
		}
		fe.runDefers(0)
		fe.retNamed()
		return
	}
	fe.runDefers(0)
	fe.emitReturn(vals)
}

// cond branches on a boolean expression.
func (fe *funcEmitter) cond(e ast.Expr, then, els *ir.Block) {
	c := fe.truth(fe.expr(e))
	fe.blk().NewCondBr(c, then, els)
}
