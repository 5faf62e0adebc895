package irgen

import (
	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/ir"
	"odinc/internal/lower"
	"odinc/internal/source"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

// procGen lowers one procedure body.
type procGen struct {
	g   *Generator
	pd  *check.ProcDecl
	p   *ir.Proc
	b   *ir.Builder
	abi *lower.ProcABI
	sig *types.ProcInfo

	// locals maps variables to the address of their storage.
	locals map[*symbols.Entity]ir.Value
	// named holds the result slots of a procedure with named results.
	named []ir.Value
	ctx   ir.Value

	scopes []*deferScope
	loops  []loopTarget
}

type deferScope struct {
	items []deferred
}

// deferred is either a deferred statement or a scheduled call of a
// deferred hook whose arguments were spilled at the original call.
type deferred struct {
	stmt ast.Stmt
	hook *symbols.Entity
	args []spilled
}

type spilled struct {
	addr ir.Value
	typ  *ir.Type
}

// loopTarget is where break and continue go; a match has no cont.
type loopTarget struct {
	brk, cont *ir.Block
	// depth is the number of defer scopes open outside the loop body.
	depth int
}

func newProcGen(g *Generator, pd *check.ProcDecl, p *ir.Proc) *procGen {
	pg := &procGen{
		g:      g,
		pd:     pd,
		p:      p,
		b:      ir.NewBuilder(p),
		locals: make(map[*symbols.Entity]ir.Value),
	}
	if pd != nil {
		pg.abi = g.low.ClassifyProc(pd.Type)
		pg.sig, _ = g.in.Proc(g.in.Base(pd.Type))
	}
	return pg
}

func (g *Generator) genProc(pd *check.ProcDecl) {
	if pd.Lit == nil || pd.Lit.Body == nil {
		return
	}
	p := g.lits[pd.Lit]
	pg := newProcGen(g, pd, p)
	pg.bindParams()
	pg.pushScope()
	pg.stmtList(pd.Lit.Body.List)
	if !pg.b.Block.Terminated() {
		pg.runDefers(0)
		pg.retNamed()
	}
	pg.scopes = pg.scopes[:0]
	pg.b.Finish()
}

// bindParams gives every named parameter an address and zeroes the named
// result slots.
func (pg *procGen) bindParams() {
	g := pg.g
	params, _ := g.in.Tuple(pg.sig.Params)
	raw := pg.p.Params
	if pg.abi.Context {
		pg.ctx = raw[len(raw)-1]
		raw = raw[:len(raw)-1]
	}
	if params != nil {
		for i, v := range params.Vars {
			ent := g.info.Entities.Get(v.Obj)
			if v.Obj == 0 || ent == nil {
				continue
			}
			if i >= len(raw) {
				// the C varargs of a c procedure are not addressable
				pg.locals[ent] = pg.zeroTemp(v.Type, v.Name)
				continue
			}
			if pg.abi.Params[i].Class == lower.Indirect {
				pg.locals[ent] = raw[i]
				continue
			}
			slot := pg.temp(v.Type, v.Name)
			pg.b.Store(raw[i], slot)
			pg.locals[ent] = slot
		}
	}
	results, _ := g.in.Tuple(pg.sig.Results)
	if results == nil || len(results.Vars) == 0 || results.Vars[0].Name == "" {
		return
	}
	pg.named = make([]ir.Value, len(results.Vars))
	for i, v := range results.Vars {
		slot := pg.zeroTemp(v.Type, v.Name)
		pg.named[i] = slot
		if ent := g.info.Entities.Get(v.Obj); v.Obj != 0 && ent != nil {
			pg.locals[ent] = slot
		}
	}
}

// temp reserves an aligned stack slot for a value of type t.
func (pg *procGen) temp(t types.TypeID, name string) ir.Value {
	return pg.b.Alloca(pg.g.lbType(t), pg.g.align(t), name)
}

func (pg *procGen) zeroTemp(t types.TypeID, name string) ir.Value {
	slot := pg.temp(t, name)
	pg.b.Store(ir.Zero(pg.g.lbType(t)), slot)
	return slot
}

// spill stores v into a fresh slot and returns its address.
func (pg *procGen) spill(v ir.Value, t types.TypeID) ir.Value {
	slot := pg.temp(t, "")
	pg.b.Store(v, slot)
	return slot
}

func (pg *procGen) load(t types.TypeID, ptr ir.Value) ir.Value {
	return pg.b.Load(pg.g.lbType(t), ptr)
}

func (pg *procGen) newBlock(name string) *ir.Block { return pg.p.NewBlock(name) }

// jump branches to target unless the current block already ended.
func (pg *procGen) jump(target *ir.Block) {
	if !pg.b.Block.Terminated() {
		pg.b.Br(target)
	}
}

func (pg *procGen) pushScope() {
	pg.scopes = append(pg.scopes, &deferScope{})
}

// popScope replays the scope's deferred statements on the fall-through
// path and closes it.
func (pg *procGen) popScope() {
	top := pg.scopes[len(pg.scopes)-1]
	if !pg.b.Block.Terminated() {
		pg.emitDefers(top)
	}
	pg.scopes = pg.scopes[:len(pg.scopes)-1]
}

// runDefers replays the deferred items of every scope from the innermost
// down to depth.
func (pg *procGen) runDefers(depth int) {
	open := append([]*deferScope(nil), pg.scopes[depth:]...)
	for i := len(open) - 1; i >= 0; i-- {
		pg.emitDefers(open[i])
	}
}

func (pg *procGen) emitDefers(s *deferScope) {
	for i := len(s.items) - 1; i >= 0; i-- {
		d := s.items[i]
		if d.stmt != nil {
			pg.stmt(d.stmt)
			continue
		}
		callee := pg.g.procValue(d.hook)
		args := make([]ir.Value, 0, len(d.args))
		for _, a := range d.args {
			args = append(args, pg.b.Load(a.typ, a.addr))
		}
		pg.invoke(d.hook.Type, callee.Ref(), args, nil)
	}
}

func (pg *procGen) deferItem(d deferred) {
	top := pg.scopes[len(pg.scopes)-1]
	top.items = append(top.items, d)
}

// retNamed returns the current values of the named results, or nothing.
func (pg *procGen) retNamed() {
	if len(pg.named) == 0 {
		pg.b.Ret(nil)
		return
	}
	results, _ := pg.g.in.Tuple(pg.sig.Results)
	vals := make([]ir.Value, len(pg.named))
	for i, slot := range pg.named {
		vals[i] = pg.load(results.Vars[i].Type, slot)
	}
	pg.retValues(vals)
}

func (pg *procGen) retValues(vals []ir.Value) {
	switch len(vals) {
	case 0:
		pg.b.Ret(nil)
	case 1:
		pg.b.Ret(vals[0])
	default:
		pg.b.Ret(pg.packTuple(pg.sig.Results, vals))
	}
}

// packTuple builds the aggregate of a multi-value tuple.
func (pg *procGen) packTuple(tuple types.TypeID, vals []ir.Value) ir.Value {
	var agg ir.Value = ir.Undef(pg.g.lbType(tuple))
	for i, v := range vals {
		agg = pg.b.InsertValue(agg, v, pg.g.fieldSlot(tuple, i))
	}
	return agg
}

// location returns the file name, line and column passed to runtime
// checks.
func (pg *procGen) location(sp source.Span) (ir.Value, ir.Value, ir.Value) {
	g := pg.g
	name, line, col := "", int64(0), int64(0)
	if fs := g.opts.Files; fs != nil && int(sp.File) < fs.Len() {
		start, _ := fs.Resolve(sp)
		name = fs.Get(sp.File).Path
		line, col = int64(start.Line), int64(start.Col)
	}
	return g.stringData(name), ir.ConstI(g.intT, line), ir.ConstI(g.intT, col)
}
