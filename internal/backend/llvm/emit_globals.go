package llvm

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/types"
)

// stringData returns a pointer to the first byte of a private
// NUL-terminated copy of s. Every module keeps its own copy under the
// session-wide string number.
func (m *Module) stringData(s string) constant.Constant {
	g, ok := m.strData[s]
	if !ok {
		id := m.s.stringID(s)
		g = m.mod.NewGlobalDef(fmt.Sprintf(".str.%d", id), constant.NewCharArrayFromString(s+"\x00"))
		private(g)
		m.strData[s] = g
	}
	zero := constant.NewInt(lltypes.I64, 0)
	p := constant.NewGetElementPtr(g.ContentType, g, zero, zero)
	p.InBounds = true
	return p
}

func (m *Module) typeEntryType() *lltypes.StructType {
	i := m.intT
	return lltypes.NewStruct(i, i, i, i)
}

func (m *Module) typeTableType() *lltypes.ArrayType {
	return lltypes.NewArray(uint64(len(m.s.info.TypeInfoTypes)), m.typeEntryType())
}

// defineTypeTable emits one {size, align, kind, id} record per type whose
// information is requested by type_info or an any conversion. Other
// modules declare the table on first use.
func (m *Module) defineTypeTable() {
	tinfo := m.s.info.TypeInfoTypes
	if len(tinfo) == 0 {
		return
	}
	entryT := m.typeEntryType()
	entries := make([]constant.Constant, len(tinfo))
	for n, t := range tinfo {
		entries[n] = constant.NewStruct(entryT,
			constI(m.intT, m.size(t)),
			constI(m.intT, m.align(t)),
			constI(m.intT, int64(m.s.low.TypeInfoKindOf(t))),
			constI(m.intT, int64(t)))
	}
	g := m.mod.NewGlobalDef(typeTableName, constant.NewArray(m.typeTableType(), entries...))
	g.Immutable = true
	m.typeTable = g
}

// typeInfoPtr returns a rawptr to the table record of t.
func (m *Module) typeInfoPtr(t types.TypeID) constant.Constant {
	slot, ok := m.s.typeSlot(t)
	if !ok {
		m.failf("no type information for %s", m.s.in.TypeString(t))
	}
	arrT := m.typeTableType()
	if m.typeTable == nil {
		m.typeTable = m.externGlobal(typeTableName, arrT)
		m.typeTable.Immutable = true
	}
	p := constant.NewGetElementPtr(arrT, m.typeTable, constI(m.intT, 0), constI(m.intT, int64(slot)))
	return constant.NewBitCast(p, lltypes.I8Ptr)
}

// emitGlobals defines the package variables the module owns. Constant
// initialisers are folded into the definition; the rest run in the
// module's startup procedure.
func (m *Module) emitGlobals() {
	info := m.s.info
	defs := make(map[*symbols.Entity]*ir.Global, len(m.ownedGlobals))
	for _, ent := range m.ownedGlobals {
		lt := m.lbType(ent.Type)
		var init constant.Constant = zeroOf(lt)
		if ent.Init != nil && m.s.foldsToConstant(ent) {
			tv := info.Types[ent.Init]
			init = m.constValue(tv.Value, ent.Type)
			if init == nil {
				m.failf("initialiser of %s has no constant form", ent.Name)
			}
		}
		g := m.mod.NewGlobalDef(m.s.names[ent], init)
		g.Align = ir.Align(m.align(ent.Type))
		defs[ent] = g
		m.mu.Lock()
		m.entities[ent] = g
		m.mu.Unlock()
	}
	for _, ent := range m.ownedGlobals {
		if ent.Init != nil && !m.s.foldsToConstant(ent) {
			m.startupInit(ent, defs[ent])
		}
	}
}

func (m *Module) startupInit(ent *symbols.Entity, g *ir.Global) {
	info := m.s.info
	fe := m.startupEmitter()
	if len(ent.Decl.Values) == 1 && len(ent.Decl.Names) > 1 {
		idx := 0
		for i, n := range ent.Decl.Names {
			if info.Defs[n] == ent {
				idx = i
			}
		}
		v, ok := m.startupTuples[ent.Init]
		if !ok {
			v = fe.expr(ent.Init)
			m.startupTuples[ent.Init] = v
		}
		fe.storePlain(fe.tupleElem(v, info.TypeOf(ent.Init), idx, ent.Type), g, ent.Type)
		return
	}
	fe.storePlain(fe.exprTo(ent.Init, ent.Type), g, ent.Type)
}

// startupEmitter opens the startup procedure on first use. It receives
// the context of the entry point.
func (m *Module) startupEmitter() *funcEmitter {
	if m.startup == nil {
		if m.startupSym == "" {
			m.failf("module %s has no startup procedure", m.name)
		}
		f := m.mod.NewFunc(m.startupSym, lltypes.Void, ir.NewParam("__.context_ptr", lltypes.I8Ptr))
		fe := newFuncEmitter(m, nil, f)
		fe.ctx.param = f.Params[0]
		fe.pushScope()
		m.startup = fe
	}
	return m.startup
}

func (m *Module) finishStartup() {
	fe := m.startup
	fe.popScope()
	fe.blk().NewRet(nil)
	fe.finish()
}

// emitEntry defines the C main: it stores the default context in a stack
// slot, runs the startup procedure of every module in order and calls the
// program's main procedure.
func (m *Module) emitEntry() {
	mainEnt := m.s.mainEnt
	target := m.findProcedureValue(mainEnt)
	f := m.mod.NewFunc("main", lltypes.I32)
	entry := f.NewBlock("entry")
	slot := entry.NewAlloca(lltypes.I8Ptr)
	slot.SetName("context")
	entry.NewStore(entry.NewCall(m.runtimeFunc(lower.RuntimeContext)), slot)
	ctx := entry.NewLoad(lltypes.I8Ptr, slot)
	for _, st := range m.s.startups {
		var fn *ir.Func
		if st.owner == m && m.startup != nil {
			fn = m.startup.fn
		} else {
			fn = m.declare(st.name, lltypes.Void, lltypes.I8Ptr)
		}
		entry.NewCall(fn, ctx)
	}
	var args []value.Value
	if m.s.low.ClassifyProc(mainEnt.Type).Context {
		args = append(args, ctx)
	}
	r := entry.NewCall(target, args...)
	if isInt(target.Sig.RetType) {
		entry.NewRet(intCast(entry, r, lltypes.I32, true))
		return
	}
	entry.NewRet(constant.NewInt(lltypes.I32, 0))
}
