package llvm

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/lower"
	"odinc/internal/source"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

// funcEmitter lowers one procedure body. A body moves through fixed
// states: the decls block collects stack slots and falls into entry, the
// user control flow follows, an implicit return closes the last open
// block and any block left without a terminator is padded with
// unreachable.
type funcEmitter struct {
	m   *Module
	pd  *check.ProcDecl
	fn  *ir.Func
	abi *lower.ProcABI
	sig *types.ProcInfo

	decls   *ir.Block
	cur     *ir.Block
	nblocks int
	names   map[string]int

	// locals maps variables to the address of their storage.
	locals map[*symbols.Entity]value.Value
	// named holds the result slots of a procedure with named results;
	// a slot may be the caller's hidden result pointer itself.
	named  []value.Value
	params []value.Value
	outs   []value.Value
	sret   value.Value
	ctx    *contextSlot

	scopes []*deferScope
	loops  []loopTarget
	// tupleFix redirects the results of split multi-return calls to the
	// slots they were written to.
	tupleFix map[value.Value]*tupleFix
}

type tupleFix struct {
	slots []value.Value
	types []types.TypeID
}

// contextSlot is the implicit context of a procedure. Procedures of the
// odin convention receive it; the others allocate one slot on first use
// and reuse it for every later call.
type contextSlot struct {
	param value.Value
	slot  value.Value
	uses  int
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
	addr value.Value
	typ  lltypes.Type
}

// loopTarget is where break and continue go; a match has no cont.
type loopTarget struct {
	brk, cont *ir.Block
	// depth is the number of defer scopes open outside the loop body.
	depth int
}

func newFuncEmitter(m *Module, pd *check.ProcDecl, fn *ir.Func) *funcEmitter {
	fe := &funcEmitter{
		m:        m,
		pd:       pd,
		fn:       fn,
		names:    make(map[string]int),
		locals:   make(map[*symbols.Entity]value.Value),
		ctx:      &contextSlot{},
		tupleFix: make(map[value.Value]*tupleFix),
	}
	// parameters and blocks share the local namespace with stack slots
	fe.names["decls"], fe.names["entry"] = 1, 1
	for _, p := range fn.Params {
		if !p.IsUnnamed() {
			fe.names[p.Name()]++
		}
	}
	fe.decls = fn.NewBlock("decls")
	entry := fn.NewBlock("entry")
	fe.decls.NewBr(entry)
	fe.cur = entry
	if pd != nil {
		fe.abi = m.s.low.ClassifyProc(pd.Type)
		fe.sig, _ = m.s.in.Proc(m.s.in.Base(pd.Type))
	}
	return fe
}

func (m *Module) genProc(sym *procSym) {
	pd := sym.decl
	if pd.Lit == nil || pd.Lit.Body == nil {
		return
	}
	fe := newFuncEmitter(m, pd, m.lits[pd.Lit])
	fe.bindParams()
	fe.pushScope()
	fe.stmtList(pd.Lit.Body.List)
	if !fe.terminated() {
		fe.runDefers(0)
		fe.retNamed()
	}
	fe.scopes = nil
	fe.finish()
}

// finish pads every open block with unreachable.
func (fe *funcEmitter) finish() {
	for _, b := range fe.fn.Blocks {
		if b.Term == nil {
			b.NewUnreachable()
		}
	}
}

// bindParams distributes the raw parameters over their ABI roles, gives
// every named parameter an address and prepares the named results.
func (fe *funcEmitter) bindParams() {
	m, abi := fe.m, fe.abi
	fe.params = make([]value.Value, len(abi.Params))
	if abi.Split {
		fe.outs = make([]value.Value, len(abi.Results)-1)
	}
	cVariadic := abi.Variadic && abi.Conv == types.ConvC
	raw := fe.fn.Params
	k := 0
	for _, rp := range abi.Raw {
		if rp.Kind == lower.RawArg && cVariadic && rp.Index == len(abi.Params)-1 {
			continue
		}
		p := raw[k]
		k++
		switch rp.Kind {
		case lower.RawSRet:
			fe.sret = p
		case lower.RawArg:
			fe.params[rp.Index] = p
		case lower.RawOut:
			fe.outs[rp.Index] = p
		case lower.RawContext:
			fe.ctx.param = p
		}
	}

	if params, ok := m.s.in.Tuple(fe.sig.Params); ok {
		for i, v := range params.Vars {
			ent := m.s.info.Entities.Get(v.Obj)
			if v.Obj == 0 || ent == nil {
				continue
			}
			switch {
			case fe.params[i] == nil:
				// the C varargs of a c procedure are not addressable
				fe.locals[ent] = fe.zeroTemp(v.Type, v.Name)
			case abi.Params[i].Class == lower.Indirect:
				fe.locals[ent] = fe.params[i]
			default:
				slot := fe.temp(v.Type, v.Name)
				fe.blk().NewStore(fe.params[i], slot)
				fe.locals[ent] = slot
			}
		}
	}

	results, _ := m.s.in.Tuple(fe.sig.Results)
	if results == nil || len(results.Vars) == 0 || results.Vars[0].Name == "" {
		return
	}
	alias := !containsDefer(fe.pd.Lit.Body)
	fe.named = make([]value.Value, len(results.Vars))
	for i, v := range results.Vars {
		var slot value.Value
		if dest := fe.resultDest(i); dest != nil && alias {
			slot = dest
			fe.blk().NewStore(zeroOf(m.lbType(v.Type)), slot)
		} else {
			slot = fe.zeroTemp(v.Type, v.Name)
		}
		fe.named[i] = slot
		if ent := m.s.info.Entities.Get(v.Obj); v.Obj != 0 && ent != nil {
			fe.locals[ent] = slot
		}
	}
}

// containsDefer reports defer statements in a body, not counting nested
// procedure literals.
func containsDefer(body *ast.BlockStmt) bool {
	found := false
	ast.Inspect(body, func(n ast.Node) bool {
		switch n.(type) {
		case *ast.DeferStmt:
			found = true
		case *ast.ProcLit:
			return false
		}
		return !found
	})
	return found
}

// resultDest is the hidden pointer result i is returned through, or nil
// when it is returned directly.
func (fe *funcEmitter) resultDest(i int) value.Value {
	n := len(fe.abi.Results)
	if fe.abi.Split && i < n-1 {
		return fe.outs[i]
	}
	if i == n-1 && fe.abi.ResultClass == lower.Indirect {
		return fe.sret
	}
	return nil
}

// blk returns the insertion block; code after a terminator lands in a
// fresh block that the finish pass closes.
func (fe *funcEmitter) blk() *ir.Block {
	if fe.cur.Term != nil {
		fe.cur = fe.newBlock("dead")
	}
	return fe.cur
}

func (fe *funcEmitter) terminated() bool { return fe.cur.Term != nil }

func (fe *funcEmitter) newBlock(name string) *ir.Block {
	fe.nblocks++
	return fe.fn.NewBlock(fmt.Sprintf("%s.%d", name, fe.nblocks))
}

func (fe *funcEmitter) setBlock(b *ir.Block) { fe.cur = b }

// jump branches to target unless the current block already ended.
func (fe *funcEmitter) jump(target *ir.Block) {
	if !fe.terminated() {
		fe.cur.NewBr(target)
	}
}

func (fe *funcEmitter) localName(name string) string {
	if name == "" || name == "_" {
		return ""
	}
	n := fe.names[name]
	fe.names[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s.%d", name, n)
}

// alloca reserves an aligned stack slot in the decls block.
func (fe *funcEmitter) alloca(t lltypes.Type, align int64, name string) *ir.InstAlloca {
	a := fe.decls.NewAlloca(t)
	if align > 0 {
		a.Align = ir.Align(align)
	}
	if n := fe.localName(name); n != "" {
		a.SetName(n)
	}
	return a
}

func (fe *funcEmitter) temp(t types.TypeID, name string) value.Value {
	return fe.alloca(fe.m.lbType(t), fe.m.align(t), name)
}

func (fe *funcEmitter) zeroTemp(t types.TypeID, name string) value.Value {
	slot := fe.temp(t, name)
	fe.zeroFill(slot, t)
	return slot
}

// spill stores v into a fresh slot and returns its address.
func (fe *funcEmitter) spill(v value.Value, t types.TypeID) value.Value {
	slot := fe.temp(t, "")
	fe.blk().NewStore(v, slot)
	return slot
}

func (fe *funcEmitter) load(t types.TypeID, ptr value.Value) value.Value {
	lt := fe.m.lbType(t)
	l := fe.blk().NewLoad(lt, castPtr(fe.blk(), ptr, lltypes.NewPointer(lt)))
	if a := fe.m.align(t); a > 0 {
		l.Align = ir.Align(a)
	}
	return l
}

func (fe *funcEmitter) pushScope() {
	fe.scopes = append(fe.scopes, &deferScope{})
}

// popScope replays the scope's deferred items on the fall-through path
// and closes it.
func (fe *funcEmitter) popScope() {
	top := fe.scopes[len(fe.scopes)-1]
	if !fe.terminated() {
		fe.emitDefers(top)
	}
	fe.scopes = fe.scopes[:len(fe.scopes)-1]
}

// runDefers replays the deferred items of every scope from the innermost
// down to depth.
func (fe *funcEmitter) runDefers(depth int) {
	open := append([]*deferScope(nil), fe.scopes[depth:]...)
	for i := len(open) - 1; i >= 0; i-- {
		fe.emitDefers(open[i])
	}
}

func (fe *funcEmitter) emitDefers(s *deferScope) {
	for i := len(s.items) - 1; i >= 0; i-- {
		d := s.items[i]
		if d.stmt != nil {
			fe.stmt(d.stmt)
			continue
		}
		args := make([]callArg, 0, len(d.args))
		for _, a := range d.args {
			args = append(args, callArg{v: fe.blk().NewLoad(a.typ, a.addr)})
		}
		fe.emitCall(d.hook.Type, fe.m.findProcedureValue(d.hook), args, nil)
	}
}

func (fe *funcEmitter) deferItem(d deferred) {
	top := fe.scopes[len(fe.scopes)-1]
	top.items = append(top.items, d)
}

// emitReturn writes the results to their destinations and returns.
func (fe *funcEmitter) emitReturn(vals []value.Value) {
	n := len(fe.abi.Results)
	if n == 0 || len(vals) == 0 {
		fe.blk().NewRet(nil)
		return
	}
	for i := 0; i < n-1; i++ {
		fe.blk().NewStore(vals[i], fe.outs[i])
	}
	if fe.abi.ResultClass == lower.Indirect {
		fe.blk().NewStore(vals[n-1], fe.sret)
		fe.blk().NewRet(nil)
		return
	}
	fe.blk().NewRet(vals[n-1])
}

// retNamed returns the current values of the named results, or nothing.
func (fe *funcEmitter) retNamed() {
	if len(fe.named) == 0 {
		if len(fe.abi.Results) == 0 {
			fe.blk().NewRet(nil)
			return
		}
		// every path returned explicitly; this block is unreachable
		fe.blk().NewUnreachable()
		return
	}
	results, _ := fe.m.s.in.Tuple(fe.sig.Results)
	var last value.Value
	for i, slot := range fe.named {
		dest := fe.resultDest(i)
		if dest == nil {
			last = fe.load(results.Vars[i].Type, slot)
			continue
		}
		if dest != slot {
			fe.blk().NewStore(fe.load(results.Vars[i].Type, slot), dest)
		}
	}
	fe.blk().NewRet(last)
}

// location returns the file name, line and column passed to runtime
// checks.
func (fe *funcEmitter) location(sp source.Span) (value.Value, value.Value, value.Value) {
	m := fe.m
	name, line, col := "", int64(0), int64(0)
	if fs := m.s.opts.Files; fs != nil && int(sp.File) < fs.Len() {
		start, _ := fs.Resolve(sp)
		name = fs.Get(sp.File).Path
		line, col = int64(start.Line), int64(start.Col)
	}
	return m.stringData(name), constI(m.intT, line), constI(m.intT, col)
}

// context returns the implicit context pointer.
func (fe *funcEmitter) context() value.Value {
	return fe.addrLoad(contextAddr{slot: fe.ctx})
}

// zeroFill clears the storage of a t at ptr; large aggregates go through
// llvm.memset.
func (fe *funcEmitter) zeroFill(ptr value.Value, t types.TypeID) {
	m := fe.m
	lt := m.lbType(t)
	if size := m.size(t); size > blockCopyThreshold(m) {
		b := fe.blk()
		b.NewCall(m.memset(), castPtr(b, ptr, lltypes.I8Ptr), constant.NewInt(lltypes.I8, 0),
			constI(m.intT, size), constant.False)
		return
	}
	fe.blk().NewStore(zeroOf(lt), castPtr(fe.blk(), ptr, lltypes.NewPointer(lt)))
}
