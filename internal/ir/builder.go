package ir

import "fmt"

// Builder appends instructions to the current block of a procedure.
type Builder struct {
	Proc  *Proc
	Block *Block
}

// NewBuilder starts a procedure body: the decl block receives allocas and
// jumps to the entry block, which becomes current.
func NewBuilder(p *Proc) *Builder {
	p.DeclBlock = p.NewBlock("decls")
	p.Entry = p.NewBlock("entry")
	b := &Builder{Proc: p, Block: p.DeclBlock}
	b.Br(p.Entry)
	b.Block = p.Entry
	return b
}

// SetBlock moves the insertion point to the end of blk.
func (b *Builder) SetBlock(blk *Block) { b.Block = blk }

func (b *Builder) emit(i *Instr) *Instr {
	if b.Block.Terminated() {
		// code after a return or branch lands in a fresh unreachable block
		b.Block = b.Proc.NewBlock(fmt.Sprintf("dead%d", len(b.Proc.Blocks)))
	}
	i.block = b.Block
	b.Block.Instrs = append(b.Block.Instrs, i)
	return i
}

// Alloca reserves stack storage in the decl block.
func (b *Builder) Alloca(t *Type, align int64, name string) *Instr {
	d := b.Proc.DeclBlock
	i := &Instr{Op: OpAlloca, Typ: Ptr(t), Elem: t, Align: align, Name: name, block: d}
	n := len(d.Instrs)
	if n > 0 && d.Instrs[n-1].Op.IsTerminator() {
		d.Instrs = append(d.Instrs[:n-1], i, d.Instrs[n-1])
	} else {
		d.Instrs = append(d.Instrs, i)
	}
	return i
}

func (b *Builder) Load(t *Type, ptr Value) *Instr {
	return b.emit(&Instr{Op: OpLoad, Typ: t, Elem: t, Args: []Value{ptr}})
}

func (b *Builder) AtomicLoad(t *Type, ptr Value, align int64) *Instr {
	return b.emit(&Instr{Op: OpLoad, Typ: t, Elem: t, Args: []Value{ptr}, Atomic: true, Align: align})
}

func (b *Builder) Store(v, ptr Value) *Instr {
	return b.emit(&Instr{Op: OpStore, Args: []Value{v, ptr}})
}

func (b *Builder) AtomicStore(v, ptr Value, align int64) *Instr {
	return b.emit(&Instr{Op: OpStore, Args: []Value{v, ptr}, Atomic: true, Align: align})
}

// GEP indexes a pointer. result is the resulting pointer type.
func (b *Builder) GEP(elem *Type, ptr Value, result *Type, indices ...Value) *Instr {
	args := append([]Value{ptr}, indices...)
	return b.emit(&Instr{Op: OpGEP, Typ: result, Elem: elem, Args: args})
}

func (b *Builder) Binary(op BinOp, x, y Value) *Instr {
	return b.emit(&Instr{Op: OpBinary, Typ: x.Type(), Bin: op, Args: []Value{x, y}})
}

func (b *Builder) Cmp(p Pred, x, y Value) *Instr {
	t := I1
	if xt := x.Type(); xt.Kind == TypeVector {
		t = Vector(xt.Len, I1)
	}
	return b.emit(&Instr{Op: OpCmp, Typ: t, Pred: p, Args: []Value{x, y}})
}

func (b *Builder) Conv(op ConvOp, v Value, to *Type) *Instr {
	return b.emit(&Instr{Op: OpConv, Typ: to, Conv: op, Args: []Value{v}})
}

// Call emits a call. fnType is the callee's function type.
func (b *Builder) Call(fnType *Type, callee Value, args ...Value) *Instr {
	return b.emit(&Instr{Op: OpCall, Typ: fnType.Ret, Elem: fnType, Args: append([]Value{callee}, args...)})
}

func (b *Builder) Select(c, x, y Value) *Instr {
	return b.emit(&Instr{Op: OpSelect, Typ: x.Type(), Args: []Value{c, x, y}})
}

// Phi creates a phi; incoming values pair with preds.
func (b *Builder) Phi(t *Type, vals []Value, preds []*Block) *Instr {
	return b.emit(&Instr{Op: OpPhi, Typ: t, Args: vals, Targets: preds})
}

func (b *Builder) ExtractValue(agg Value, result *Type, idx ...int64) *Instr {
	return b.emit(&Instr{Op: OpExtractValue, Typ: result, Args: []Value{agg}, Indices: idx})
}

func (b *Builder) InsertValue(agg, elem Value, idx ...int64) *Instr {
	return b.emit(&Instr{Op: OpInsertValue, Typ: agg.Type(), Args: []Value{agg, elem}, Indices: idx})
}

func (b *Builder) ExtractElement(vec, idx Value) *Instr {
	return b.emit(&Instr{Op: OpExtractElement, Typ: vec.Type().Elem, Args: []Value{vec, idx}})
}

func (b *Builder) InsertElement(vec, elem, idx Value) *Instr {
	return b.emit(&Instr{Op: OpInsertElement, Typ: vec.Type(), Args: []Value{vec, elem, idx}})
}

// Shuffle permutes lanes of x and y by the constant mask.
func (b *Builder) Shuffle(x, y Value, mask []int64) *Instr {
	t := Vector(int64(len(mask)), x.Type().Elem)
	return b.emit(&Instr{Op: OpShuffle, Typ: t, Args: []Value{x, y}, Indices: mask})
}

// AtomicRMW performs a seq_cst read-modify-write and returns the old value.
func (b *Builder) AtomicRMW(op BinOp, ptr, v Value) *Instr {
	return b.emit(&Instr{Op: OpAtomicRMW, Typ: v.Type(), Bin: op, Args: []Value{ptr, v}, Atomic: true})
}

// CmpXchg returns {old, ok}.
func (b *Builder) CmpXchg(ptr, old, nu Value) *Instr {
	t := Struct(false, old.Type(), I1)
	return b.emit(&Instr{Op: OpCmpXchg, Typ: t, Args: []Value{ptr, old, nu}, Atomic: true})
}

func (b *Builder) Br(target *Block) *Instr {
	return b.emit(&Instr{Op: OpBr, Targets: []*Block{target}})
}

func (b *Builder) CondBr(c Value, then, els *Block) *Instr {
	return b.emit(&Instr{Op: OpCondBr, Args: []Value{c}, Targets: []*Block{then, els}})
}

// Ret returns v, or nothing when v is nil.
func (b *Builder) Ret(v Value) *Instr {
	i := &Instr{Op: OpRet}
	if v != nil {
		i.Args = []Value{v}
	}
	return b.emit(i)
}

func (b *Builder) Unreachable() *Instr {
	return b.emit(&Instr{Op: OpUnreachable})
}

// Finish pads every unterminated block with unreachable and links edges.
func (b *Builder) Finish() {
	for _, blk := range b.Proc.Blocks {
		if !blk.Terminated() {
			blk.Instrs = append(blk.Instrs, &Instr{Op: OpUnreachable, block: blk})
		}
	}
	b.Proc.Link()
}
