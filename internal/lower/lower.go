// Package lower computes the representation decisions shared by both code
// generators: physical struct slots with their remap table, union shapes,
// the string shape of a target and per-procedure ABI classes. Results are
// memoised per TypeID and safe for concurrent use.
package lower

import (
	"sync"

	"odinc/internal/layout"
	"odinc/internal/types"
)

// Lowerer caches lowering decisions for one checked package.
type Lowerer struct {
	Types  *types.Interner
	Layout *layout.LayoutEngine
	Target layout.Target

	mu      sync.Mutex
	structs map[types.TypeID]*StructShape
	unions  map[types.TypeID]*UnionShape
	procs   map[types.TypeID]*ProcABI
}

// New creates a Lowerer over a layout engine.
func New(le *layout.LayoutEngine) *Lowerer {
	return &Lowerer{
		Types:   le.Types,
		Layout:  le,
		Target:  le.Target,
		structs: make(map[types.TypeID]*StructShape),
		unions:  make(map[types.TypeID]*UnionShape),
		procs:   make(map[types.TypeID]*ProcABI),
	}
}

// IsAggregate reports types that lower to a first-class aggregate.
func (l *Lowerer) IsAggregate(t types.TypeID) bool {
	base := l.Types.Base(t)
	tt, ok := l.Types.Lookup(base)
	if !ok {
		return false
	}
	switch tt.Kind {
	case types.KindArray, types.KindSlice, types.KindTuple, types.KindSoA:
		return true
	case types.KindRecord:
		return !l.Types.IsEnum(base) && !l.Types.IsBitField(base)
	case types.KindBasic:
		switch tt.Basic {
		case types.String, types.Any, types.Complex64, types.Complex128:
			return true
		}
	}
	return false
}

// AlignMarkerBits is the integer width of the zero-length member that
// forces the alignment of a byte-block aggregate.
func AlignMarkerBits(align int64) int {
	switch {
	case align >= 16:
		return 128
	case align >= 8:
		return 64
	case align >= 4:
		return 32
	case align >= 2:
		return 16
	}
	return 8
}
