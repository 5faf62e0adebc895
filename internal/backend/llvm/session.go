// Package llvm lowers a checked package straight to LLVM modules built with
// github.com/llir/llvm.
//
// A Session owns the decisions shared by every module of one run: symbol
// names, the type info table, interned strings and the materialisation
// table of procedure literals. Each Module holds a back-reference to its
// session and can be generated on its own goroutine; entities owned by
// another module are declared as external prototypes on first use.
package llvm

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"odinc/internal/ast"
	"odinc/internal/check"
	exact "odinc/internal/constant"
	"odinc/internal/layout"
	"odinc/internal/lower"
	"odinc/internal/source"
	"odinc/internal/symbols"
	"odinc/internal/trace"
	"odinc/internal/types"
)

// Options configure a session.
type Options struct {
	// Name names the single module when ModulePerFile is off.
	Name string
	// Files resolves spans for runtime check locations and module names.
	Files *source.FileSet
	// Lowerer shares representation decisions with other consumers of
	// the same package. A fresh one is created when nil.
	Lowerer *lower.Lowerer
	// ModulePerFile emits one module per source file instead of one per
	// package.
	ModulePerFile bool
	NoEntry       bool
	DebugInfo     bool
	Tracer        trace.Tracer
}

// procSym is an entry of the procedure literal materialisation table.
type procSym struct {
	name  string
	owner *Module
	decl  *check.ProcDecl
}

// Session is the state of one code generation run.
type Session struct {
	info   *check.Info
	in     *types.Interner
	layout *layout.LayoutEngine
	low    *lower.Lowerer
	target layout.Target
	opts   Options

	modules []*Module
	byFile  map[source.FileID]*Module

	procMu sync.Mutex
	procs  map[*ast.ProcLit]*procSym
	// names holds the symbol of every global and procedure body.
	names  map[*symbols.Entity]string
	owners map[*symbols.Entity]*Module
	// startups lists the startup procedure of each module that has
	// non-constant global initialisers, in module order.
	startups []startupSym
	mainEnt  *symbols.Entity

	typeInfoMu sync.Mutex
	typeSlots  map[types.TypeID]int

	strMu sync.Mutex
	strs  map[string]int

	typeNameMu sync.Mutex
	typeNames  map[types.TypeID]string
	nameCounts map[string]int
}

type startupSym struct {
	name  string
	owner *Module
}

// Symbol names reserved by the backend.
const (
	typeTableName = "__$type_table"
	startupName   = "__$startup_runtime"
)

// NewSession partitions info into modules and fixes every symbol name.
func NewSession(info *check.Info, opts Options) (*Session, error) {
	if info == nil {
		return nil, errors.New("llvm: no checked package")
	}
	if opts.Name == "" {
		opts.Name = "main"
	}
	low := opts.Lowerer
	if low == nil {
		low = lower.New(info.Layout)
	}
	s := &Session{
		info:       info,
		in:         info.Interner,
		layout:     info.Layout,
		low:        low,
		target:     info.Target,
		opts:       opts,
		byFile:     make(map[source.FileID]*Module),
		procs:      make(map[*ast.ProcLit]*procSym),
		names:      make(map[*symbols.Entity]string),
		owners:     make(map[*symbols.Entity]*Module),
		typeSlots:  make(map[types.TypeID]int),
		strs:       make(map[string]int),
		typeNames:  make(map[types.TypeID]string),
		nameCounts: make(map[string]int),
	}
	s.partition()
	s.assignSymbols()
	for n, t := range info.TypeInfoTypes {
		s.typeSlots[t] = n
	}
	return s, nil
}

// Modules returns the modules of the session in a stable order.
func (s *Session) Modules() []*Module { return s.modules }

// Generate builds every module one after another. The driver generates
// them concurrently with Module.Generate instead.
func (s *Session) Generate(ctx context.Context) error {
	for _, m := range s.modules {
		if err := m.Generate(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) fileOf(sp source.Span) source.FileID {
	if s.opts.ModulePerFile {
		return sp.File
	}
	return 0
}

// partition creates one module per file that owns code or data, or a
// single module for the whole package.
func (s *Session) partition() {
	var files []source.FileID
	seen := make(map[source.FileID]bool)
	note := func(sp source.Span) {
		f := s.fileOf(sp)
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	for _, pd := range s.info.Procs {
		note(pd.Lit.Span())
	}
	for _, ent := range s.info.Globals {
		note(ent.Span)
	}
	if len(files) == 0 {
		files = append(files, 0)
	}
	slices.Sort(files)
	for i, f := range files {
		m := newModule(s, i, s.moduleName(f))
		s.modules = append(s.modules, m)
		s.byFile[f] = m
	}
}

func (s *Session) moduleName(f source.FileID) string {
	if !s.opts.ModulePerFile {
		return s.opts.Name
	}
	if fs := s.opts.Files; fs != nil && int(f) < fs.Len() {
		base := filepath.Base(fs.Get(f).Path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return fmt.Sprintf("file%d", f)
}

func (s *Session) moduleOf(sp source.Span) *Module {
	if m, ok := s.byFile[s.fileOf(sp)]; ok {
		return m
	}
	return s.modules[0]
}

// assignSymbols names every procedure body and global up front so all
// modules agree on them.
func (s *Session) assignSymbols() {
	used := map[string]int{
		"main":                   1,
		typeTableName:            1,
		lower.RuntimeAlloc:       1,
		lower.RuntimeFree:        1,
		lower.RuntimeAppend:      1,
		lower.RuntimeContext:     1,
		lower.RuntimeMemmove:     1,
		lower.RuntimeStringCmp:   1,
		lower.RuntimeAssertFail:  1,
		lower.RuntimeBoundsCheck: 1,
		lower.RuntimeSliceCheck:  1,
	}
	uniq := func(name string) string {
		n := used[name]
		used[name] = n + 1
		if n == 0 {
			return name
		}
		return fmt.Sprintf("%s.%d", name, n)
	}
	for _, pd := range s.info.Procs {
		owner := s.moduleOf(pd.Lit.Span())
		sym := &procSym{name: uniq(lower.ProcSymbol(pd.Name, false)), owner: owner, decl: pd}
		s.procs[pd.Lit] = sym
		owner.owned = append(owner.owned, sym)
		if pd.Entity != nil {
			s.owners[pd.Entity] = owner
			s.names[pd.Entity] = sym.name
		}
	}
	for _, ent := range s.info.Globals {
		owner := s.moduleOf(ent.Span)
		s.names[ent] = uniq(ent.Name)
		s.owners[ent] = owner
		owner.ownedGlobals = append(owner.ownedGlobals, ent)
		if !s.foldsToConstant(ent) {
			owner.needsStartup = true
		}
	}
	for _, m := range s.modules {
		if !m.needsStartup {
			continue
		}
		name := startupName
		if s.opts.ModulePerFile {
			name = fmt.Sprintf("%s.%s", startupName, m.name)
		}
		m.startupSym = uniq(name)
		s.startups = append(s.startups, startupSym{name: m.startupSym, owner: m})
	}
	if ent := s.info.Package.Lookup("main"); ent != nil && ent.Kind == symbols.EntityProcedure && !ent.Foreign {
		if _, ok := s.owners[ent]; ok {
			s.mainEnt = ent
		}
	}
}

// foldsToConstant reports whether the initialiser of a global becomes
// the global's constant initialiser rather than startup code.
func (s *Session) foldsToConstant(ent *symbols.Entity) bool {
	if ent.Init == nil {
		return true
	}
	tv := s.info.Types[ent.Init]
	if !tv.IsConstant() || len(ent.Decl.Names) != len(ent.Decl.Values) {
		return false
	}
	return s.hasConstForm(tv.Value, ent.Type)
}

// hasConstForm reports whether v can be emitted as an LLVM constant of
// type t.
func (s *Session) hasConstForm(v exact.Value, t types.TypeID) bool {
	in := s.in
	if !v.IsValid() {
		return false
	}
	if in.IsVector(t) {
		return s.hasConstForm(v, in.Elem(t))
	}
	u := in.Underlying(t)
	if in.IsAny(u) || in.IsUnion(u) || !in.IsBasic(u) && !in.IsTypedPointer(u) && !in.IsProc(u) {
		return false
	}
	switch v.Kind() {
	case exact.Bool, exact.Integer, exact.Float, exact.Complex, exact.Pointer:
		return true
	case exact.String:
		return in.IsString(u)
	}
	return false
}

// procLit returns the materialisation entry of a procedure literal.
func (s *Session) procLit(lit *ast.ProcLit) (*procSym, bool) {
	s.procMu.Lock()
	defer s.procMu.Unlock()
	sym, ok := s.procs[lit]
	return sym, ok
}

// typeSlot returns the index of t in the type info table.
func (s *Session) typeSlot(t types.TypeID) (int, bool) {
	s.typeInfoMu.Lock()
	defer s.typeInfoMu.Unlock()
	if n, ok := s.typeSlots[t]; ok {
		return n, true
	}
	for other, n := range s.typeSlots {
		if s.in.Identical(other, t) {
			s.typeSlots[t] = n
			return n, true
		}
	}
	return 0, false
}

// stringID interns s and returns its session-wide number.
func (s *Session) stringID(str string) int {
	s.strMu.Lock()
	defer s.strMu.Unlock()
	if id, ok := s.strs[str]; ok {
		return id
	}
	id := len(s.strs)
	s.strs[str] = id
	return id
}

// typeName returns the type definition name of a named type.
func (s *Session) typeName(t types.TypeID) string {
	s.typeNameMu.Lock()
	defer s.typeNameMu.Unlock()
	if name, ok := s.typeNames[t]; ok {
		return name
	}
	base := "type"
	if info, ok := s.in.Named(t); ok {
		base = info.Name
	}
	n := s.nameCounts[base]
	s.nameCounts[base] = n + 1
	name := base
	if n > 0 {
		name = fmt.Sprintf("%s.%d", base, n)
	}
	s.typeNames[t] = name
	return name
}
