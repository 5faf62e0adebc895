package ir

import "fmt"

// Op enumerates instruction kinds.
type Op uint8

const (
	OpAlloca Op = iota
	OpLoad
	OpStore
	OpGEP
	OpBinary
	OpCmp
	OpConv
	OpCall
	OpSelect
	OpPhi
	OpExtractValue
	OpInsertValue
	OpExtractElement
	OpInsertElement
	OpShuffle
	OpAtomicRMW
	OpCmpXchg
	// Terminators.
	OpBr
	OpCondBr
	OpRet
	OpUnreachable
)

var opNames = [...]string{
	OpAlloca:         "alloca",
	OpLoad:           "load",
	OpStore:          "store",
	OpGEP:            "getelementptr",
	OpBinary:         "binary",
	OpCmp:            "cmp",
	OpConv:           "conv",
	OpCall:           "call",
	OpSelect:         "select",
	OpPhi:            "phi",
	OpExtractValue:   "extractvalue",
	OpInsertValue:    "insertvalue",
	OpExtractElement: "extractelement",
	OpInsertElement:  "insertelement",
	OpShuffle:        "shufflevector",
	OpAtomicRMW:      "atomicrmw",
	OpCmpXchg:        "cmpxchg",
	OpBr:             "br",
	OpCondBr:         "br",
	OpRet:            "ret",
	OpUnreachable:    "unreachable",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

// IsTerminator reports block-ending instructions.
func (op Op) IsTerminator() bool { return op >= OpBr }

// BinOp is the operator of OpBinary and OpAtomicRMW.
type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	SDiv
	UDiv
	SRem
	URem
	FAdd
	FSub
	FMul
	FDiv
	FRem
	And
	Or
	Xor
	Shl
	LShr
	AShr
	// Xchg is only valid in atomicrmw.
	Xchg
)

var binNames = [...]string{
	Add: "add", Sub: "sub", Mul: "mul", SDiv: "sdiv", UDiv: "udiv", SRem: "srem", URem: "urem",
	FAdd: "fadd", FSub: "fsub", FMul: "fmul", FDiv: "fdiv", FRem: "frem",
	And: "and", Or: "or", Xor: "xor", Shl: "shl", LShr: "lshr", AShr: "ashr", Xchg: "xchg",
}

func (b BinOp) String() string { return binNames[b] }

// Pred is a comparison predicate.
type Pred uint8

const (
	EQ Pred = iota
	NE
	SLT
	SLE
	SGT
	SGE
	ULT
	ULE
	UGT
	UGE
	OEQ
	ONE
	OLT
	OLE
	OGT
	OGE
)

var predNames = [...]string{
	EQ: "eq", NE: "ne", SLT: "slt", SLE: "sle", SGT: "sgt", SGE: "sge",
	ULT: "ult", ULE: "ule", UGT: "ugt", UGE: "uge",
	OEQ: "oeq", ONE: "one", OLT: "olt", OLE: "ole", OGT: "ogt", OGE: "oge",
}

func (p Pred) String() string { return predNames[p] }

// IsFloat reports fcmp predicates.
func (p Pred) IsFloat() bool { return p >= OEQ }

// ConvOp is a conversion operator.
type ConvOp uint8

const (
	Trunc ConvOp = iota
	ZExt
	SExt
	FPTrunc
	FPExt
	FPToUI
	FPToSI
	UIToFP
	SIToFP
	PtrToInt
	IntToPtr
	BitCast
)

var convNames = [...]string{
	Trunc: "trunc", ZExt: "zext", SExt: "sext", FPTrunc: "fptrunc", FPExt: "fpext",
	FPToUI: "fptoui", FPToSI: "fptosi", UIToFP: "uitofp", SIToFP: "sitofp",
	PtrToInt: "ptrtoint", IntToPtr: "inttoptr", BitCast: "bitcast",
}

func (c ConvOp) String() string { return convNames[c] }

// Instr is one instruction. Which fields are meaningful depends on Op.
type Instr struct {
	Op   Op
	Typ  *Type
	Name string
	Args []Value

	Bin  BinOp
	Pred Pred
	Conv ConvOp
	// Elem is the allocated, loaded or indexed element type.
	Elem    *Type
	Indices []int64
	Align   int64
	// Atomic marks seq_cst loads and stores.
	Atomic bool

	// Branch targets and phi predecessors.
	Targets []*Block

	block *Block
	id    int
}

func (i *Instr) Type() *Type { return i.Typ }
func (*Instr) value()        {}

// HasResult reports instructions that define a value.
func (i *Instr) HasResult() bool {
	switch i.Op {
	case OpStore, OpBr, OpCondBr, OpRet, OpUnreachable:
		return false
	case OpCall:
		return i.Typ != nil && i.Typ.Kind != TypeVoid
	}
	return true
}

// Block returns the block that holds i.
func (i *Instr) Block() *Block { return i.block }
