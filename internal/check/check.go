package check

import (
	"context"
	"fmt"

	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/diag"
	"odinc/internal/layout"
	"odinc/internal/source"
	"odinc/internal/symbols"
	"odinc/internal/trace"
	"odinc/internal/types"
)

// Options configure a checker run over one package.
type Options struct {
	Reporter      diag.Reporter
	Target        layout.Target
	Tracer        trace.Tracer
	NoBoundsCheck bool
}

// TypeAndValue is the recorded result of checking one expression.
type TypeAndValue struct {
	Mode  Mode
	Type  types.TypeID
	Value constant.Value
}

// IsConstant reports a folded constant.
func (tv TypeAndValue) IsConstant() bool { return tv.Mode == ModeConstant && tv.Value.IsValid() }

// untypedInfo holds an expression whose final type is not known yet.
type untypedInfo struct {
	IsLHS bool
	Mode  Mode
	Type  types.TypeID
	Value constant.Value
}

// Selection describes a resolved field access. Index is the path of logical
// field indices through anonymous fields; Indirect is set when the path
// passes through a pointer.
type Selection struct {
	Entity   *symbols.Entity
	Index    []int
	Indirect bool
}

// DownCast records the anonymous field a down_cast steps back over.
type DownCast struct {
	Field string
	Path  []int
}

// ProcDecl is a procedure body queued for checking and code generation.
type ProcDecl struct {
	Entity *symbols.Entity // nil for anonymous procedure literals
	Lit    *ast.ProcLit
	Type   types.TypeID
	Scope  *symbols.Scope
	Name   string
	Parent *ProcDecl
}

// Info holds everything the backends need from the checker.
type Info struct {
	Types      map[ast.Expr]TypeAndValue
	Untyped    map[ast.Expr]*untypedInfo
	Defs       map[*ast.Ident]*symbols.Entity
	Uses       map[*ast.Ident]*symbols.Entity
	Selections map[*ast.SelectorExpr]Selection
	Implicits  map[ast.Node]*symbols.Scope
	// OpAssigns holds the synthesized binary expression of "x op= y".
	OpAssigns map[*ast.AssignStmt]*ast.BinaryExpr
	// UsingArgs records arguments converted to a parameter type through
	// anonymous fields; the value is the field path.
	UsingArgs map[ast.Expr][]int
	// MatchVars holds the variable each clause of a type match binds.
	MatchVars     map[*ast.CaseClause]*symbols.Entity
	TypeInfoTypes []types.TypeID
	DownCasts     map[*ast.BinaryExpr]DownCast
	Procs         []*ProcDecl
	ProcLits      map[*ast.ProcLit]*ProcDecl
	Globals       []*symbols.Entity
	TypeNames     []*symbols.Entity

	Interner     *types.Interner
	Layout       *layout.LayoutEngine
	Entities     *symbols.Table
	Universe     *symbols.Scope
	Package      *symbols.Scope
	RecordScopes map[types.TypeID]*symbols.Scope
	Target       layout.Target
	BoundsCheck  bool

	typeInfoSeen map[types.TypeID]struct{}
}

// TypeOf returns the recorded type of e, or NoTypeID.
func (info *Info) TypeOf(e ast.Expr) types.TypeID {
	if tv, ok := info.Types[e]; ok {
		return tv.Type
	}
	return types.NoTypeID
}

// EntityOf returns the entity an identifier declares or refers to.
func (info *Info) EntityOf(id *ast.Ident) *symbols.Entity {
	if e := info.Defs[id]; e != nil {
		return e
	}
	return info.Uses[id]
}

// Check type checks all files as one package.
func Check(ctx context.Context, files []*ast.File, opts Options) *Info {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.FromContext(ctx)
	}
	span := trace.Begin(tracer, trace.ScopePass, "check", trace.CurrentSpan(ctx).SpanID)
	defer span.End("")

	in := types.NewInterner()
	tbl := symbols.NewTable()
	universe := symbols.NewUniverse(tbl, in)
	pkg := symbols.NewScope(universe, symbols.ScopePackage, source.Span{})

	info := &Info{
		Types:        make(map[ast.Expr]TypeAndValue),
		Untyped:      make(map[ast.Expr]*untypedInfo),
		Defs:         make(map[*ast.Ident]*symbols.Entity),
		Uses:         make(map[*ast.Ident]*symbols.Entity),
		Selections:   make(map[*ast.SelectorExpr]Selection),
		Implicits:    make(map[ast.Node]*symbols.Scope),
		OpAssigns:    make(map[*ast.AssignStmt]*ast.BinaryExpr),
		UsingArgs:    make(map[ast.Expr][]int),
		MatchVars:    make(map[*ast.CaseClause]*symbols.Entity),
		DownCasts:    make(map[*ast.BinaryExpr]DownCast),
		ProcLits:     make(map[*ast.ProcLit]*ProcDecl),
		Interner:     in,
		Layout:       layout.New(opts.Target, in),
		Entities:     tbl,
		Universe:     universe,
		Package:      pkg,
		RecordScopes: make(map[types.TypeID]*symbols.Scope),
		Target:       opts.Target,
		BoundsCheck:  !opts.NoBoundsCheck,
		typeInfoSeen: make(map[types.TypeID]struct{}),
	}

	tc := &typeChecker{
		ctx:          ctx,
		reporter:     opts.Reporter,
		types:        in,
		layout:       info.Layout,
		entities:     tbl,
		info:         info,
		universe:     universe,
		pkg:          pkg,
		scope:        pkg,
		pendingNamed: make(map[ast.Expr]types.TypeID),
		initCache:    make(map[ast.Expr]operand),
	}
	if tc.reporter == nil {
		tc.reporter = diag.NopReporter{}
	}
	tc.run(files)
	span.WithExtra("procs", fmt.Sprint(len(info.Procs)))
	return info
}

type typeChecker struct {
	ctx      context.Context
	reporter diag.Reporter
	types    *types.Interner
	layout   *layout.LayoutEngine
	entities *symbols.Table
	info     *Info

	universe *symbols.Scope
	pkg      *symbols.Scope
	scope    *symbols.Scope

	// declaration cycle detection
	declStack   []declFrame
	indirection int
	// pendingNamed maps a type declaration's value to the Named type it
	// defines, so enum members can carry the named type.
	pendingNamed map[ast.Expr]types.TypeID
	initCache    map[ast.Expr]operand

	// procedure body state
	proc      *ProcDecl
	procQueue []*ProcDecl
	loopDepth int
	// matchDepth counts enclosing match clauses, which break may leave.
	matchDepth int
	inDefer    bool
	litCount   int
}

type declFrame struct {
	entity      *symbols.Entity
	indirection int
}

func (tc *typeChecker) run(files []*ast.File) {
	entities := tc.collectObjects(files)
	for _, e := range entities {
		if tc.cancelled() {
			return
		}
		tc.declEntity(e)
	}
	for i := 0; i < len(tc.procQueue); i++ {
		if tc.cancelled() {
			return
		}
		tc.checkProcBody(tc.procQueue[i])
	}
	tc.checkDeferredHooks(entities)
	tc.checkLayouts()
	tc.finalizeUntyped()
}

func (tc *typeChecker) cancelled() bool {
	return tc.ctx != nil && tc.ctx.Err() != nil
}

func (tc *typeChecker) report(code diag.Code, span source.Span, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if b := diag.ReportError(tc.reporter, code, span, msg); b != nil {
		b.Emit()
	}
}

func (tc *typeChecker) errorf(x *operand, code diag.Code, format string, args ...any) {
	tc.report(code, exprSpan(x.expr), format, args...)
}

func exprSpan(e ast.Expr) source.Span {
	if e == nil {
		return source.Span{}
	}
	return e.Span()
}

func (tc *typeChecker) typeString(t types.TypeID) string {
	if t == types.NoTypeID {
		return "invalid type"
	}
	return tc.types.TypeString(t)
}

// finalizeUntyped records expressions that never met a typed context with
// their default type.
func (tc *typeChecker) finalizeUntyped() {
	for e, u := range tc.info.Untyped {
		t := u.Type
		if !tc.types.IsNil(t) {
			t = tc.types.Default(t)
		}
		val := u.Value
		if val.IsValid() {
			if v, fit := tc.representable(val, t); fit == constant.Fits {
				val = v
			}
		}
		tc.info.Types[e] = TypeAndValue{Mode: u.Mode, Type: t, Value: val}
		delete(tc.info.Untyped, e)
	}
}

// addTypeInfo registers a type whose runtime type info must be emitted.
func (tc *typeChecker) addTypeInfo(t types.TypeID) {
	if t == types.NoTypeID {
		return
	}
	if _, ok := tc.info.typeInfoSeen[t]; ok {
		return
	}
	tc.info.typeInfoSeen[t] = struct{}{}
	tc.info.TypeInfoTypes = append(tc.info.TypeInfoTypes, t)
}

func (tc *typeChecker) openScope(kind symbols.ScopeKind, node ast.Node) {
	s := symbols.NewScope(tc.scope, kind, node.Span())
	tc.info.Implicits[node] = s
	tc.scope = s
}

func (tc *typeChecker) closeScope() {
	tc.scope = tc.scope.Parent
}
