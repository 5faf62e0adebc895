package lower

import (
	"fmt"

	"odinc/internal/types"
)

// ABIClass says how a value crosses a call boundary.
type ABIClass uint8

const (
	Direct ABIClass = iota
	Indirect
)

func (c ABIClass) String() string {
	if c == Indirect {
		return "indirect"
	}
	return "direct"
}

// ParamABI is the passing decision for one declared parameter.
type ParamABI struct {
	Name    string
	Type    types.TypeID
	Class   ABIClass
	NoAlias bool
}

// RawKind tags an entry of the raw parameter list.
type RawKind uint8

const (
	// RawArg is a declared parameter.
	RawArg RawKind = iota
	// RawSRet is the hidden pointer an indirect result is written through.
	RawSRet
	// RawOut is a hidden out-pointer for a split multi-return.
	RawOut
	RawContext
)

// RawParam is one entry of the lowered parameter list. Index refers to
// Params for RawArg and to Results for RawOut and RawSRet.
type RawParam struct {
	Kind  RawKind
	Index int
	Type  types.TypeID
	// ByPointer is set when the slot carries a pointer to Type.
	ByPointer bool
}

// ProcABI is the lowered signature of a procedure type.
type ProcABI struct {
	Conv     types.CallConv
	Variadic bool
	Params   []ParamABI
	Results  []types.TypeID
	// Split is set when all but the last result travel through hidden
	// out-pointers.
	Split       bool
	Result      types.TypeID
	ResultClass ABIClass
	Context     bool
	Raw         []RawParam
}

// Returns reports whether the raw function returns a value.
func (a *ProcABI) Returns() bool {
	return a.Result != types.NoTypeID && a.ResultClass == Direct
}

// ClassifyProc computes the ABI of a procedure type.
func (l *Lowerer) ClassifyProc(t types.TypeID) *ProcABI {
	base := l.Types.Base(t)
	l.mu.Lock()
	if a, ok := l.procs[base]; ok {
		l.mu.Unlock()
		return a
	}
	l.mu.Unlock()

	sig, ok := l.Types.Proc(base)
	if !ok {
		panic(fmt.Sprintf("internal compiler error: ABI of non-procedure %s", l.Types.TypeString(t)))
	}
	a := l.classify(sig)

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.procs[base]; ok {
		return prev
	}
	l.procs[base] = a
	return a
}

func (l *Lowerer) classify(sig *types.ProcInfo) *ProcABI {
	a := &ProcABI{
		Conv:     sig.CallConv,
		Variadic: sig.Variadic,
		Context:  sig.CallConv == types.ConvOdin,
	}
	if tup, ok := l.Types.Tuple(sig.Params); ok {
		for _, p := range tup.Vars {
			a.Params = append(a.Params, ParamABI{
				Name:    p.Name,
				Type:    p.Type,
				Class:   l.classOf(p.Type, p.NoAlias),
				NoAlias: p.NoAlias,
			})
		}
	}
	if tup, ok := l.Types.Tuple(sig.Results); ok {
		for _, r := range tup.Vars {
			a.Results = append(a.Results, r.Type)
		}
	}
	switch n := len(a.Results); {
	case n == 1:
		a.Result = a.Results[0]
	case n > 1:
		a.Split = true
		a.Result = a.Results[n-1]
	}
	if a.Result != types.NoTypeID {
		a.ResultClass = l.classOf(a.Result, false)
	}

	if a.Result != types.NoTypeID && a.ResultClass == Indirect {
		a.Raw = append(a.Raw, RawParam{Kind: RawSRet, Index: len(a.Results) - 1, Type: a.Result, ByPointer: true})
	}
	for i, p := range a.Params {
		a.Raw = append(a.Raw, RawParam{Kind: RawArg, Index: i, Type: p.Type, ByPointer: p.Class == Indirect})
	}
	if a.Split {
		for i, r := range a.Results[:len(a.Results)-1] {
			a.Raw = append(a.Raw, RawParam{Kind: RawOut, Index: i, Type: r, ByPointer: true})
		}
	}
	if a.Context {
		a.Raw = append(a.Raw, RawParam{Kind: RawContext, Index: -1, Type: l.Types.Builtin(types.Rawptr)})
	}
	return a
}

// classOf passes #no_alias parameters and aggregates wider than two words
// by pointer. Booleans and scalars always travel directly.
func (l *Lowerer) classOf(t types.TypeID, noAlias bool) ABIClass {
	if noAlias {
		return Indirect
	}
	if !l.IsAggregate(t) {
		return Direct
	}
	if l.Layout.Size(t) > 2*l.Target.PtrSize {
		return Indirect
	}
	return Direct
}
