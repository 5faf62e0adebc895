// Package irgen lowers a checked package into an ir.Module.
//
// Every procedure body is built with an ir.Builder: locals live in the
// decl block, deferred statements are replayed LIFO at each exit and
// procedures with several results return them as one tuple aggregate.
// Procedures of the odin convention take a trailing context pointer.
package irgen

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"odinc/internal/ast"
	"odinc/internal/check"
	"odinc/internal/ir"
	"odinc/internal/lower"
	"odinc/internal/source"
	"odinc/internal/symbols"
	"odinc/internal/trace"
	"odinc/internal/types"
)

// Options configure one lowering run.
type Options struct {
	// Name is the module name; it defaults to "main".
	Name string
	// Files resolves spans for the locations passed to runtime checks.
	Files *source.FileSet
	// Lowerer shares representation decisions between modules of one
	// run. A fresh one is created when nil.
	Lowerer   *lower.Lowerer
	DebugInfo bool
	// NoEntry suppresses the C main wrapper.
	NoEntry bool
	Tracer  trace.Tracer
}

// Generator holds the module under construction and the tables shared by
// every procedure body.
type Generator struct {
	info *check.Info
	in   *types.Interner
	low  *lower.Lowerer
	mod  *ir.Module
	opts Options

	intT *ir.Type

	types     map[types.TypeID]*ir.Type
	typeNames map[string]int
	globals   map[*symbols.Entity]*ir.Global
	procs     map[*symbols.Entity]*ir.Proc
	lits      map[*ast.ProcLit]*ir.Proc
	strs      map[string]*ir.Global
	runtime   map[string]*ir.Proc
	symbols   map[string]int

	typeTable *ir.Global
	typeSlots map[types.TypeID]int
	startup   *ir.Proc
	startupPG *procGen
	// startupTuples holds multi-value initialisers shared by several
	// globals of one declaration.
	startupTuples map[ast.Expr]ir.Value
}

// genError carries an internal failure out of a deeply nested lowering
// call; Generate turns it back into an error.
type genError struct{ err error }

func (g *Generator) failf(format string, args ...any) {
	panic(genError{err: fmt.Errorf(format, args...)})
}

// Generate lowers info into a fresh module.
func Generate(ctx context.Context, info *check.Info, opts Options) (mod *ir.Module, err error) {
	if info == nil {
		return nil, errors.New("irgen: no checked package")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	if opts.Name == "" {
		opts.Name = "main"
	}
	span := trace.Begin(tracer, trace.ScopeModule, "irgen", trace.CurrentSpan(ctx).SpanID)
	defer span.End(opts.Name)

	g := newGenerator(info, opts)
	defer func() {
		if r := recover(); r != nil {
			ge, ok := r.(genError)
			if !ok {
				panic(r)
			}
			mod, err = nil, errors.Wrapf(ge.err, "irgen %s", opts.Name)
		}
	}()

	g.declareProcs()
	g.buildTypeTable()
	g.emitGlobals()
	for _, pd := range info.Procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.genProc(pd)
	}
	if g.startup != nil {
		g.finishStartup()
	}
	if !opts.NoEntry {
		g.emitEntry()
	}
	span.WithExtra("procs", fmt.Sprint(len(g.mod.Procs)))
	if err := ir.Validate(g.mod); err != nil {
		return nil, errors.Wrapf(err, "irgen %s: invalid module", opts.Name)
	}
	return g.mod, nil
}

func newGenerator(info *check.Info, opts Options) *Generator {
	low := opts.Lowerer
	if low == nil {
		low = lower.New(info.Layout)
	}
	tgt := info.Target
	mod := ir.NewModule(opts.Name, tgt.Triple, tgt.DataLayout)
	mod.IntBits = int(8 * tgt.IntSize)
	if ss := low.StringShape(); ss.Padded {
		mod.StringPad = ss.PadBytes
	}
	mod.DebugInfo = opts.DebugInfo
	return &Generator{
		info:      info,
		in:        info.Interner,
		low:       low,
		mod:       mod,
		opts:      opts,
		intT:      ir.Int(mod.IntBits),
		types:     make(map[types.TypeID]*ir.Type),
		typeNames: make(map[string]int),
		globals:   make(map[*symbols.Entity]*ir.Global),
		procs:     make(map[*symbols.Entity]*ir.Proc),
		lits:      make(map[*ast.ProcLit]*ir.Proc),
		strs:      make(map[string]*ir.Global),
		runtime:   make(map[string]*ir.Proc),
		symbols:   make(map[string]int),
		typeSlots: make(map[types.TypeID]int),

		startupTuples: make(map[ast.Expr]ir.Value),
	}
}

// symbol reserves a unique module-level name.
func (g *Generator) symbol(name string) string {
	n, seen := g.symbols[name]
	g.symbols[name] = n + 1
	if !seen {
		return name
	}
	return fmt.Sprintf("%s.%d", name, n)
}

// declareProcs creates a definition shell for every checked body so calls
// can refer to procedures declared later in the file.
func (g *Generator) declareProcs() {
	for _, pd := range g.info.Procs {
		sig := g.sigType(pd.Type)
		p := g.mod.NewProc(g.symbol(lower.ProcSymbol(pd.Name, false)), sig, g.paramNames(pd.Type))
		g.setConv(p, pd.Type)
		if pd.Entity != nil {
			g.procs[pd.Entity] = p
		}
		g.lits[pd.Lit] = p
	}
}

func (g *Generator) setConv(p *ir.Proc, t types.TypeID) {
	if sig, ok := g.in.Proc(g.in.Base(t)); ok && sig.CallConv == types.ConvC {
		p.CallConv = "ccc"
	}
}

// procValue returns the procedure an entity denotes, declaring foreign
// procedures on first use.
func (g *Generator) procValue(ent *symbols.Entity) *ir.Proc {
	if p, ok := g.procs[ent]; ok {
		return p
	}
	if !ent.Foreign {
		g.failf("procedure %s has no body", ent.Name)
	}
	name := lower.ProcSymbol(ent.LinkName, true)
	if p := g.mod.LookupProc(name); p != nil {
		g.procs[ent] = p
		return p
	}
	p := g.mod.NewProc(name, g.sigType(ent.Type), nil)
	p.Foreign = true
	g.setConv(p, ent.Type)
	g.procs[ent] = p
	return p
}

// runtimeProc declares a runtime entry point once.
func (g *Generator) runtimeProc(name string) *ir.Proc {
	if p, ok := g.runtime[name]; ok {
		return p
	}
	i := g.intT
	var sig *ir.Type
	switch name {
	case lower.RuntimeBoundsCheck:
		sig = ir.Func(ir.Void, false, ir.I8P, i, i, i, i)
	case lower.RuntimeSliceCheck:
		sig = ir.Func(ir.Void, false, ir.I8P, i, i, i, i, i)
	case lower.RuntimeAssertFail:
		sig = ir.Func(ir.Void, false, ir.I8P, i, i)
	case lower.RuntimeAlloc:
		sig = ir.Func(ir.I8P, false, i, i)
	case lower.RuntimeFree:
		sig = ir.Func(ir.Void, false, ir.I8P)
	case lower.RuntimeAppend:
		sig = ir.Func(ir.I8, false, ir.I8P, i, i, ir.I8P, i)
	case lower.RuntimeStringCmp:
		sig = ir.Func(ir.I32, false, ir.I8P, i, ir.I8P, i)
	case lower.RuntimeContext:
		sig = ir.Func(ir.I8P, false)
	case lower.RuntimeMemmove:
		sig = ir.Func(ir.Void, false, ir.I8P, ir.I8P, i)
	default:
		g.failf("unknown runtime procedure %s", name)
	}
	p := g.mod.NewProc(name, sig, nil)
	p.Foreign = true
	p.CallConv = "ccc"
	g.runtime[name] = p
	return p
}

// stringData interns s as a private NUL-terminated byte array and returns
// a pointer to its first byte.
func (g *Generator) stringData(s string) ir.Value {
	gl, ok := g.strs[s]
	if !ok {
		gl = g.mod.NewGlobal(g.symbol(fmt.Sprintf("str.%d", len(g.strs))), nil, nil)
		init := ir.Bytes(append([]byte(s), 0))
		gl.Elem, gl.Init = init.Typ, init
		gl.Constant, gl.Private = true, true
		g.strs[s] = gl
	}
	return ir.ConstGEP(gl.Elem, gl, ir.I8P, 0, 0)
}

// emitGlobals defines every package variable. Constant initialisers are
// folded into the definition; the rest run in a startup procedure called
// before main.
func (g *Generator) emitGlobals() {
	for _, ent := range g.info.Globals {
		t := g.lbType(ent.Type)
		gl := g.mod.NewGlobal(g.symbol(ent.Name), t, nil)
		gl.Align = g.info.Layout.Align(ent.Type)
		g.globals[ent] = gl
	}
	for _, ent := range g.info.Globals {
		if ent.Init == nil {
			continue
		}
		gl := g.globals[ent]
		tv := g.info.Types[ent.Init]
		if tv.IsConstant() && len(ent.Decl.Names) == len(ent.Decl.Values) {
			if c := g.constValue(tv.Value, ent.Type); c != nil {
				gl.Init = c
				continue
			}
		}
		g.startupInit(ent, gl)
	}
}

func (g *Generator) startupInit(ent *symbols.Entity, gl *ir.Global) {
	pg := g.startupGen()
	if len(ent.Decl.Values) == 1 && len(ent.Decl.Names) > 1 {
		idx := 0
		for i, n := range ent.Decl.Names {
			if g.info.Defs[n] == ent {
				idx = i
			}
		}
		v, ok := g.startupTuples[ent.Init]
		if !ok {
			v = pg.expr(ent.Init)
			g.startupTuples[ent.Init] = v
		}
		pg.b.Store(pg.tupleElem(v, g.info.TypeOf(ent.Init), idx, ent.Type), gl)
		return
	}
	v := pg.exprTo(ent.Init, ent.Type)
	pg.b.Store(v, gl)
}

func (g *Generator) startupGen() *procGen {
	if g.startup == nil {
		g.startup = g.mod.NewProc(g.symbol("__$startup_runtime"), ir.Func(ir.Void, false, ir.I8P), []string{"ctx"})
		pg := newProcGen(g, nil, g.startup)
		pg.ctx = g.startup.Params[0]
		pg.pushScope()
		g.startupPG = pg
	}
	return g.startupPG
}

func (g *Generator) finishStartup() {
	pg := g.startupPG
	pg.popScope()
	pg.b.Ret(nil)
	pg.b.Finish()
}

// emitEntry defines the C main that fetches the default context, runs the
// startup initialisers and calls the program's main procedure.
func (g *Generator) emitEntry() {
	mainEnt := g.info.Package.Lookup("main")
	if mainEnt == nil || mainEnt.Kind != symbols.EntityProcedure || mainEnt.Foreign {
		return
	}
	target, ok := g.procs[mainEnt]
	if !ok {
		return
	}
	p := g.mod.NewProc("main", ir.Func(ir.I32, false), nil)
	p.CallConv = "ccc"
	b := ir.NewBuilder(p)
	rt := g.runtimeProc(lower.RuntimeContext)
	ctx := b.Call(rt.Sig, rt.Ref())
	if g.startup != nil {
		b.Call(g.startup.Sig, g.startup.Ref(), ctx)
	}
	args := []ir.Value{}
	if len(target.Sig.Params) == 1 {
		args = append(args, ctx)
	}
	r := b.Call(target.Sig, target.Ref(), args...)
	if target.Sig.Ret.IsInt() {
		b.Ret(g.intCast(b, r, ir.I32, false))
	} else {
		b.Ret(ir.ConstI(ir.I32, 0))
	}
	b.Finish()
}

func (g *Generator) intCast(b *ir.Builder, v ir.Value, to *ir.Type, signed bool) ir.Value {
	from := v.Type()
	switch {
	case from.Bits == to.Bits:
		return v
	case from.Bits > to.Bits:
		return b.Conv(ir.Trunc, v, to)
	case signed:
		return b.Conv(ir.SExt, v, to)
	}
	return b.Conv(ir.ZExt, v, to)
}
