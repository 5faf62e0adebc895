package lower

import (
	"fmt"

	"odinc/internal/layout"
	"odinc/internal/types"
)

// UnionShape is the lowered form of a tagged union.
type UnionShape struct {
	Repr      layout.UnionRepr
	Size      int64
	Align     int64
	Block     int64
	TagOffset int64
	TagType   types.TypeID
	Variants  []types.Field
}

// UnionShape returns the lowered shape of a union type.
func (l *Lowerer) UnionShape(t types.TypeID) *UnionShape {
	base := l.Types.Base(t)
	l.mu.Lock()
	if s, ok := l.unions[base]; ok {
		l.mu.Unlock()
		return s
	}
	l.mu.Unlock()

	rec, ok := l.Types.Record(base)
	if !ok || rec.Kind != types.RecordUnion {
		panic(fmt.Sprintf("internal compiler error: union shape of %s", l.Types.TypeString(t)))
	}
	tl, err := l.Layout.LayoutOf(base)
	if err != nil {
		panic(fmt.Sprintf("internal compiler error: layout of %s: %v", l.Types.TypeString(base), err))
	}
	s := &UnionShape{
		Repr:      l.Layout.UnionReprOf(rec),
		Size:      tl.Size,
		Align:     tl.Align,
		Block:     tl.BlockSize,
		TagOffset: tl.TagOffset,
		TagType:   l.Types.Builtin(types.Int),
		Variants:  rec.Variants(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.unions[base]; ok {
		return prev
	}
	l.unions[base] = s
	return s
}

// Tag returns the 1-based tag of variant, or false when variant is not one
// of the union's variants.
func (s *UnionShape) Tag(in *types.Interner, variant types.TypeID) (int64, bool) {
	for _, v := range s.Variants {
		if in.Identical(v.Type, variant) {
			return int64(v.Index), true
		}
	}
	return 0, false
}

// HasTag reports whether the representation stores a tag word.
func (s *UnionShape) HasTag() bool { return s.Repr == layout.UnionTagged }
