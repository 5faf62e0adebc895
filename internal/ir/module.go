package ir

// Module is one lowered package.
type Module struct {
	Name           string
	Triple         string
	DataLayoutHint string
	Types          []*TypeDef
	Globals        []*Global
	Procs          []*Proc
	// IntBits is the width of int in the preamble aliases. StringPad, when
	// non-zero, is the filler between the data and len of a string.
	IntBits   int
	StringPad int64
	// DebugInfo adds the debug version module flag.
	DebugInfo bool

	typeIndex map[string]*TypeDef
	procIndex map[string]*Proc
}

// NewModule creates an empty module.
func NewModule(name, triple, dataLayout string) *Module {
	return &Module{
		Name:           name,
		Triple:         triple,
		DataLayoutHint: dataLayout,
		IntBits:        64,
		typeIndex:      make(map[string]*TypeDef),
		procIndex:      make(map[string]*Proc),
	}
}

// TypeDef is a named aggregate definition. Body is nil while the
// definition is opaque.
type TypeDef struct {
	Name string
	Body *Type
}

// DefineType declares a named type and returns its reference. Calling it
// again with the same name returns the existing definition.
func (m *Module) DefineType(name string) (*TypeDef, bool) {
	if td, ok := m.typeIndex[name]; ok {
		return td, false
	}
	td := &TypeDef{Name: name}
	m.typeIndex[name] = td
	m.Types = append(m.Types, td)
	return td, true
}

// LookupType finds a named type definition.
func (m *Module) LookupType(name string) *TypeDef { return m.typeIndex[name] }

// Global is a module-level variable or constant.
type Global struct {
	Name     string
	Elem     *Type
	Init     Value
	Constant bool
	Private  bool
	External bool
	Align    int64
}

func (g *Global) Type() *Type { return Ptr(g.Elem) }
func (*Global) value()        {}

// NewGlobal appends a global definition.
func (m *Module) NewGlobal(name string, elem *Type, init Value) *Global {
	g := &Global{Name: name, Elem: elem, Init: init}
	m.Globals = append(m.Globals, g)
	return g
}

// Proc is a procedure definition or, when Blocks is empty, a declaration.
type Proc struct {
	Name    string
	Sig     *Type
	Params  []*Param
	Blocks  []*Block
	Foreign bool
	// CallConv is "ccc" for foreign and c-convention procedures.
	CallConv string
	// DeclBlock holds every alloca; Entry follows it unconditionally.
	DeclBlock *Block
	Entry     *Block

	module *Module
}

// NewProc appends a procedure. Parameter names come from names when given.
func (m *Module) NewProc(name string, sig *Type, names []string) *Proc {
	p := &Proc{Name: name, Sig: sig, module: m}
	for i, t := range sig.Params {
		prm := &Param{Typ: t, index: i}
		if i < len(names) {
			prm.Name = names[i]
		}
		p.Params = append(p.Params, prm)
	}
	m.Procs = append(m.Procs, p)
	m.procIndex[name] = p
	return p
}

// LookupProc finds a procedure by name.
func (m *Module) LookupProc(name string) *Proc { return m.procIndex[name] }

// Ref returns a value referring to p.
func (p *Proc) Ref() *ProcRef { return &ProcRef{Proc: p} }

// IsDecl reports a procedure without a body.
func (p *Proc) IsDecl() bool { return len(p.Blocks) == 0 }

// NewBlock appends a block to p.
func (p *Proc) NewBlock(name string) *Block {
	b := &Block{Name: name, proc: p}
	p.Blocks = append(p.Blocks, b)
	return b
}

// Block is a basic block. Preds and Succs are filled by Link.
type Block struct {
	Name   string
	Instrs []*Instr
	Preds  []*Block
	Succs  []*Block

	proc *Proc
}

func (b *Block) Type() *Type { return &Type{Kind: TypeVoid, Name: "label"} }
func (*Block) value()        {}

// Proc returns the owning procedure.
func (b *Block) Proc() *Proc { return b.proc }

// Terminator returns the last instruction when it ends the block.
func (b *Block) Terminator() *Instr {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if !last.Op.IsTerminator() {
		return nil
	}
	return last
}

// Terminated reports whether b already ends in a terminator.
func (b *Block) Terminated() bool { return b.Terminator() != nil }

// Link recomputes predecessor and successor edges from the terminators.
func (p *Proc) Link() {
	for _, b := range p.Blocks {
		b.Preds, b.Succs = b.Preds[:0], b.Succs[:0]
	}
	for _, b := range p.Blocks {
		t := b.Terminator()
		if t == nil {
			continue
		}
		for _, s := range t.Targets {
			b.Succs = append(b.Succs, s)
			s.Preds = append(s.Preds, b)
		}
	}
}
