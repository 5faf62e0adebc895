package llvm

import (
	"context"
	"fmt"
	"sync"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"

	"odinc/internal/ast"
	"odinc/internal/lower"
	"odinc/internal/symbols"
	"odinc/internal/trace"
	"odinc/internal/types"
)

// Module is one LLVM module of a session.
type Module struct {
	s    *Session
	idx  int
	name string
	mod  *ir.Module

	owned        []*procSym
	ownedGlobals []*symbols.Entity
	needsStartup bool
	startupSym   string

	// mu guards the entity map; lookups of entities owned elsewhere
	// declare them under the write lock.
	mu       sync.RWMutex
	entities map[*symbols.Entity]value.Value
	lits     map[*ast.ProcLit]*ir.Func

	intT  *lltypes.IntType
	strT  *lltypes.StructType
	anyT  *lltypes.StructType
	c64T  *lltypes.StructType
	c128T *lltypes.StructType

	types    map[types.TypeID]lltypes.Type
	rawFuncs map[types.TypeID]*lltypes.FuncType
	runtime  map[string]*ir.Func
	strData  map[string]*ir.Global
	extern   map[string]*ir.Global

	typeTable *ir.Global
	hoisted   int
	startup   *funcEmitter
	// startupTuples holds multi-value initialisers shared by several
	// globals of one declaration.
	startupTuples map[ast.Expr]value.Value
	generated     bool
}

// genError carries an internal failure out of a deeply nested lowering
// call; Generate turns it back into an error.
type genError struct{ err error }

func (m *Module) failf(format string, args ...any) {
	panic(genError{err: fmt.Errorf(format, args...)})
}

func newModule(s *Session, idx int, name string) *Module {
	mod := ir.NewModule()
	mod.SourceFilename = name
	mod.TargetTriple = s.target.Triple
	mod.DataLayout = s.target.DataLayout
	intT := lltypes.NewInt(uint64(8 * s.target.IntSize))
	m := &Module{
		s:             s,
		idx:           idx,
		name:          name,
		mod:           mod,
		entities:      make(map[*symbols.Entity]value.Value),
		lits:          make(map[*ast.ProcLit]*ir.Func),
		intT:          intT,
		types:         make(map[types.TypeID]lltypes.Type),
		rawFuncs:      make(map[types.TypeID]*lltypes.FuncType),
		runtime:       make(map[string]*ir.Func),
		strData:       make(map[string]*ir.Global),
		extern:        make(map[string]*ir.Global),
		startupTuples: make(map[ast.Expr]value.Value),
	}
	if ss := s.low.StringShape(); ss.Padded {
		m.strT = lltypes.NewStruct(lltypes.I8Ptr, lltypes.NewArray(uint64(ss.PadBytes), lltypes.I8), intT)
	} else {
		m.strT = lltypes.NewStruct(lltypes.I8Ptr, intT)
	}
	m.anyT = lltypes.NewStruct(lltypes.I8Ptr, intT)
	m.c64T = lltypes.NewStruct(lltypes.Float, lltypes.Float)
	m.c128T = lltypes.NewStruct(lltypes.Double, lltypes.Double)
	return m
}

// Name returns the module name.
func (m *Module) Name() string { return m.name }

// IR returns the built module; it is nil-safe only after Generate.
func (m *Module) IR() *ir.Module { return m.mod }

// String renders the module as LLVM assembly.
func (m *Module) String() string {
	out := m.mod.String()
	if m.s.opts.DebugInfo {
		out += "\n" + debugFlags
	}
	return out
}

// Generate lowers the procedures and globals the module owns.
func (m *Module) Generate(ctx context.Context) (err error) {
	if m.generated {
		return errors.Errorf("llvm: module %s generated twice", m.name)
	}
	m.generated = true
	s := m.s
	tracer := s.opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopeModule, "llvm", trace.CurrentSpan(ctx).SpanID)
	defer span.End(m.name)
	defer func() {
		if r := recover(); r != nil {
			ge, ok := r.(genError)
			if !ok {
				panic(r)
			}
			err = errors.Wrapf(ge.err, "llvm %s", m.name)
		}
	}()

	m.declareOwned()
	if m.idx == 0 {
		m.defineTypeTable()
	}
	m.emitGlobals()
	for _, sym := range m.owned {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.genProc(sym)
	}
	if m.startup != nil {
		m.finishStartup()
	}
	if !s.opts.NoEntry && s.mainEnt != nil && s.owners[s.mainEnt] == m {
		m.emitEntry()
	}
	span.WithExtra("funcs", fmt.Sprint(len(m.mod.Funcs)))
	return nil
}

// declareOwned creates a definition shell for every procedure body the
// module owns so calls can refer to procedures declared later.
func (m *Module) declareOwned() {
	for _, sym := range m.owned {
		f := m.newFunc(sym.name, sym.decl.Type, true)
		m.lits[sym.decl.Lit] = f
		if ent := sym.decl.Entity; ent != nil {
			m.entities[ent] = f
		}
	}
}

// newFunc adds a function of the raw type of t. Parameters are named
// after the raw ABI slots.
func (m *Module) newFunc(name string, t types.TypeID, named bool) *ir.Func {
	ft := m.rawFuncType(t)
	abi := m.s.low.ClassifyProc(t)
	params := make([]*ir.Param, len(ft.Params))
	names := m.rawParamNames(abi)
	for i, pt := range ft.Params {
		pname := ""
		if named && i < len(names) {
			pname = names[i]
		}
		params[i] = ir.NewParam(pname, pt)
	}
	f := m.mod.NewFunc(name, ft.RetType, params...)
	f.Sig.Variadic = ft.Variadic
	return f
}

func (m *Module) rawParamNames(abi *lower.ProcABI) []string {
	var names []string
	for _, rp := range abi.Raw {
		switch rp.Kind {
		case lower.RawSRet:
			names = append(names, "agg.result")
		case lower.RawArg:
			if abi.Variadic && abi.Conv == types.ConvC && rp.Index == len(abi.Params)-1 {
				continue
			}
			names = append(names, abi.Params[rp.Index].Name)
		case lower.RawOut:
			names = append(names, fmt.Sprintf("out.%d", rp.Index))
		case lower.RawContext:
			names = append(names, "__.context_ptr")
		}
	}
	return names
}

// findValueFromEntity returns the storage of a global variable, declaring
// it when another module owns it.
func (m *Module) findValueFromEntity(ent *symbols.Entity) value.Value {
	m.mu.RLock()
	v, ok := m.entities[ent]
	m.mu.RUnlock()
	if ok {
		return v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.entities[ent]; ok {
		return v
	}
	name, ok := m.s.names[ent]
	if !ok {
		m.failf("variable %s has no storage", ent.Name)
	}
	g := m.mod.NewGlobal(name, m.lbType(ent.Type))
	g.Align = ir.Align(m.align(ent.Type))
	m.entities[ent] = g
	return g
}

// findProcedureValue returns the function a procedure entity denotes,
// declaring a prototype for procedures owned by another module and for
// foreign procedures.
func (m *Module) findProcedureValue(ent *symbols.Entity) *ir.Func {
	m.mu.RLock()
	v, ok := m.entities[ent]
	m.mu.RUnlock()
	if ok {
		return v.(*ir.Func)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.entities[ent]; ok {
		return v.(*ir.Func)
	}
	name, ok := m.s.names[ent]
	if ent.Foreign {
		name, ok = lower.ProcSymbol(ent.LinkName, true), true
	}
	if !ok {
		m.failf("procedure %s has no body", ent.Name)
	}
	for _, f := range m.mod.Funcs {
		if f.Name() == name {
			m.entities[ent] = f
			return f
		}
	}
	f := m.newFunc(name, ent.Type, false)
	m.entities[ent] = f
	return f
}

// procLitValue returns the function of a procedure literal.
func (m *Module) procLitValue(lit *ast.ProcLit) *ir.Func {
	m.mu.RLock()
	f, ok := m.lits[lit]
	m.mu.RUnlock()
	if ok {
		return f
	}
	sym, ok := m.s.procLit(lit)
	if !ok {
		m.failf("procedure literal was not declared")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.lits[lit]; ok {
		return f
	}
	f = m.newFunc(sym.name, sym.decl.Type, false)
	m.lits[lit] = f
	return f
}

// runtimeFunc declares a runtime entry point once.
func (m *Module) runtimeFunc(name string) *ir.Func {
	if f, ok := m.runtime[name]; ok {
		return f
	}
	i, p := m.intT, lltypes.I8Ptr
	var ret lltypes.Type
	var params []lltypes.Type
	switch name {
	case lower.RuntimeBoundsCheck:
		ret, params = lltypes.Void, []lltypes.Type{p, i, i, i, i}
	case lower.RuntimeSliceCheck:
		ret, params = lltypes.Void, []lltypes.Type{p, i, i, i, i, i}
	case lower.RuntimeAssertFail:
		ret, params = lltypes.Void, []lltypes.Type{p, i, i}
	case lower.RuntimeAlloc:
		ret, params = p, []lltypes.Type{i, i}
	case lower.RuntimeFree:
		ret, params = lltypes.Void, []lltypes.Type{p}
	case lower.RuntimeAppend:
		ret, params = lltypes.I8, []lltypes.Type{p, i, i, p, i}
	case lower.RuntimeStringCmp:
		ret, params = lltypes.I32, []lltypes.Type{p, i, p, i}
	case lower.RuntimeContext:
		ret = p
	case lower.RuntimeMemmove:
		ret, params = lltypes.Void, []lltypes.Type{p, p, i}
	case lower.RuntimeMapGet:
		ret, params = p, []lltypes.Type{p, p, i, lltypes.I8}
	case lower.RuntimeMapSet:
		ret, params = p, []lltypes.Type{lltypes.NewPointer(p), p, i, i, lltypes.I8}
	case lower.RuntimeMapLen:
		ret, params = i, []lltypes.Type{p}
	case lower.RuntimeMapDelete:
		ret, params = lltypes.Void, []lltypes.Type{p, p, i, lltypes.I8}
	case lower.RuntimeBitRead:
		ret, params = lltypes.Void, []lltypes.Type{p, p, i, i}
	case lower.RuntimeBitWrite:
		ret, params = lltypes.Void, []lltypes.Type{p, i, p, i}
	default:
		m.failf("unknown runtime procedure %s", name)
	}
	f := m.declare(name, ret, params...)
	m.runtime[name] = f
	return f
}

// declare adds an external function declaration.
func (m *Module) declare(name string, ret lltypes.Type, params ...lltypes.Type) *ir.Func {
	ps := make([]*ir.Param, len(params))
	for i, t := range params {
		ps[i] = ir.NewParam("", t)
	}
	return m.mod.NewFunc(name, ret, ps...)
}

// intrinsic declares an LLVM intrinsic once.
func (m *Module) intrinsic(name string, ret lltypes.Type, params ...lltypes.Type) *ir.Func {
	if f, ok := m.runtime[name]; ok {
		return f
	}
	f := m.declare(name, ret, params...)
	m.runtime[name] = f
	return f
}

func (m *Module) memmove() *ir.Func {
	name := fmt.Sprintf("llvm.memmove.p0i8.p0i8.i%d", m.intT.BitSize)
	return m.intrinsic(name, lltypes.Void, lltypes.I8Ptr, lltypes.I8Ptr, m.intT, lltypes.I1)
}

func (m *Module) memset() *ir.Func {
	name := fmt.Sprintf("llvm.memset.p0i8.i%d", m.intT.BitSize)
	return m.intrinsic(name, lltypes.Void, lltypes.I8Ptr, lltypes.I8, m.intT, lltypes.I1)
}

// externGlobal declares a global defined by another module.
func (m *Module) externGlobal(name string, t lltypes.Type) *ir.Global {
	if g, ok := m.extern[name]; ok {
		return g
	}
	g := m.mod.NewGlobal(name, t)
	m.extern[name] = g
	return g
}

// debugFlags are the module flags a debugger expects; no debug metadata
// is emitted.
const debugFlags = `!llvm.module.flags = !{!0, !1}
!0 = !{i32 2, !"Debug Info Version", i32 3}
!1 = !{i32 2, !"Dwarf Version", i32 4}
`

func (m *Module) align(t types.TypeID) int64 { return m.s.layout.Align(t) }
func (m *Module) size(t types.TypeID) int64  { return m.s.layout.Size(t) }

// private marks a global as module-local constant data.
func private(g *ir.Global) {
	g.Linkage = enum.LinkagePrivate
	g.Immutable = true
}
