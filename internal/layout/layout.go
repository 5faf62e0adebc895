package layout

import (
	"odinc/internal/types"
)

// TypeLayout is the ABI layout of a type for a specific Target.
type TypeLayout struct {
	Size  int64
	Align int64

	// Struct, raw_union and tuple: offsets by logical field index.
	Offsets []int64
	// Order lists logical field indices in memory order.
	Order []int

	// Tagged unions: the variant block precedes the int tag.
	BlockSize int64
	TagOffset int64
}

// LayoutEngine computes memory layout for types. Results are memoised per
// TypeID and safe to share between concurrently lowered modules.
type LayoutEngine struct {
	Target Target
	Types  *types.Interner

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target, typesIn *types.Interner) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		Types:  typesIn,
		cache:  newCache(),
	}
}

type layoutState struct {
	stack []types.TypeID
	index map[types.TypeID]int
}

func newLayoutState() *layoutState {
	return &layoutState{index: make(map[types.TypeID]int, 32)}
}

// LayoutOf computes and caches the layout of a type.
func (e *LayoutEngine) LayoutOf(t types.TypeID) (TypeLayout, error) {
	l, err := e.layoutOf(t, newLayoutState())
	if err != nil {
		return l, err
	}
	return l, nil
}

func (e *LayoutEngine) layoutOf(t types.TypeID, state *layoutState) (TypeLayout, *LayoutError) {
	if t == types.NoTypeID {
		return TypeLayout{Size: 0, Align: 1}, nil
	}
	if cached, ok := e.cache.get(t); ok {
		return cached.Layout, cached.Err
	}

	if idx, ok := state.index[t]; ok {
		cycle := append([]types.TypeID(nil), state.stack[idx:]...)
		cycle = append(cycle, t)
		err := &LayoutError{
			Kind:  LayoutErrRecursiveUnsized,
			Type:  t,
			Cycle: cycle,
		}
		return TypeLayout{Size: 0, Align: 1}, err
	}

	state.index[t] = len(state.stack)
	state.stack = append(state.stack, t)
	layout, err := e.computeLayout(t, state)
	state.stack = state.stack[:len(state.stack)-1]
	delete(state.index, t)

	if len(state.stack) == 0 || err == nil {
		e.cache.put(t, cacheEntry{Layout: layout, Err: err})
	}
	return layout, err
}

// Forget drops the memoised layout of t.
func (e *LayoutEngine) Forget(t types.TypeID) {
	e.cache.forget(t)
}

// SizeOf returns the size of a type in bytes.
func (e *LayoutEngine) SizeOf(t types.TypeID) (int64, error) {
	l, err := e.LayoutOf(t)
	return l.Size, err
}

// AlignOf returns the alignment requirement of a type in bytes.
func (e *LayoutEngine) AlignOf(t types.TypeID) (int64, error) {
	l, err := e.LayoutOf(t)
	return l.Align, err
}

// Size is SizeOf for callers that already reported layout errors.
func (e *LayoutEngine) Size(t types.TypeID) int64 {
	l, _ := e.LayoutOf(t)
	return l.Size
}

// Align is AlignOf for callers that already reported layout errors.
func (e *LayoutEngine) Align(t types.TypeID) int64 {
	l, _ := e.LayoutOf(t)
	return l.Align
}

// OffsetsOf returns the field offsets of a struct, raw_union or tuple by
// logical index.
func (e *LayoutEngine) OffsetsOf(t types.TypeID) ([]int64, error) {
	l, err := e.LayoutOf(t)
	return l.Offsets, err
}

// OffsetOf returns the byte offset of a field by logical index.
func (e *LayoutEngine) OffsetOf(t types.TypeID, fieldIdx int) (int64, error) {
	l, err := e.LayoutOf(t)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.Offsets) {
		return 0, nil
	}
	return l.Offsets[fieldIdx], nil
}
