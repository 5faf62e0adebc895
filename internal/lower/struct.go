package lower

import (
	"fmt"

	"odinc/internal/types"
)

// SlotKind distinguishes a field slot from a padding filler.
type SlotKind uint8

const (
	SlotField SlotKind = iota
	SlotPad
)

// Slot is one member of a lowered struct.
type Slot struct {
	Kind SlotKind
	// Field is the logical field index; -1 for padding.
	Field  int
	Type   types.TypeID
	Offset int64
	// Bytes is the size of a padding filler.
	Bytes int64
}

// StructShape is the physical layout of a struct, tuple or #soa array. The
// slots of a #soa array are one [N]F array per field F of its element.
type StructShape struct {
	Slots []Slot
	// Remap maps a logical field index to its physical slot.
	Remap     []int
	Size      int64
	Align     int64
	Packed    bool
	Reordered bool
}

// Slot returns the physical slot of logical field i.
func (s *StructShape) Slot(i int) int {
	if i < 0 || i >= len(s.Remap) {
		panic(fmt.Sprintf("internal compiler error: field %d out of range for struct with %d fields", i, len(s.Remap)))
	}
	return s.Remap[i]
}

// StructShape returns the lowered shape of a struct, tuple or #soa type.
func (l *Lowerer) StructShape(t types.TypeID) *StructShape {
	base := l.Types.Base(t)
	l.mu.Lock()
	if s, ok := l.structs[base]; ok {
		l.mu.Unlock()
		return s
	}
	l.mu.Unlock()

	s := l.computeStructShape(base)

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.structs[base]; ok {
		return prev
	}
	l.structs[base] = s
	return s
}

func (l *Lowerer) fieldTypes(base types.TypeID) ([]types.TypeID, bool) {
	if l.Types.IsSoA(base) {
		rec, _ := l.Types.Record(l.Types.Base(l.Types.Elem(base)))
		count := l.Types.Count(base)
		out := make([]types.TypeID, len(rec.Fields))
		for i, f := range rec.Fields {
			out[i] = l.Types.Array(f.Type, count)
		}
		return out, false
	}
	if rec, ok := l.Types.Record(base); ok {
		out := make([]types.TypeID, len(rec.Fields))
		for i, f := range rec.Fields {
			out[i] = f.Type
		}
		return out, rec.Packed
	}
	if tup, ok := l.Types.Tuple(base); ok {
		out := make([]types.TypeID, len(tup.Vars))
		for i, v := range tup.Vars {
			out[i] = v.Type
		}
		return out, false
	}
	panic(fmt.Sprintf("internal compiler error: struct shape of %s", l.Types.TypeString(base)))
}

func (l *Lowerer) computeStructShape(base types.TypeID) *StructShape {
	fields, packed := l.fieldTypes(base)
	tl, err := l.Layout.LayoutOf(base)
	if err != nil {
		panic(fmt.Sprintf("internal compiler error: layout of %s: %v", l.Types.TypeString(base), err))
	}
	order := tl.Order
	if order == nil {
		order = make([]int, len(fields))
		for i := range order {
			order[i] = i
		}
	}
	s := &StructShape{
		Slots: make([]Slot, 0, len(fields)*2+1),
		Remap: make([]int, len(fields)),
		Size:  tl.Size,
		Align: tl.Align,
	}
	for pos, idx := range order {
		if idx != pos {
			s.Reordered = true
		}
	}
	s.Packed = packed || s.Reordered

	var running int64
	for _, idx := range order {
		off := tl.Offsets[idx]
		if off > running {
			s.Slots = append(s.Slots, Slot{Kind: SlotPad, Field: -1, Offset: running, Bytes: off - running})
		}
		s.Remap[idx] = len(s.Slots)
		s.Slots = append(s.Slots, Slot{Kind: SlotField, Field: idx, Type: fields[idx], Offset: off})
		running = off + l.Layout.Size(fields[idx])
	}
	if tl.Size > running {
		s.Slots = append(s.Slots, Slot{Kind: SlotPad, Field: -1, Offset: running, Bytes: tl.Size - running})
	}
	return s
}
