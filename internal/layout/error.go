package layout

import (
	"fmt"
	"strings"

	"odinc/internal/types"
)

// LayoutErrorKind classifies a failed size computation.
type LayoutErrorKind uint8

const (
	// LayoutErrRecursiveUnsized is a value type that contains itself.
	LayoutErrRecursiveUnsized LayoutErrorKind = iota + 1
	// LayoutErrNegativeLength is an array or #soa count below zero.
	LayoutErrNegativeLength
	// LayoutErrTooLarge is a size that does not fit the target's address
	// space; Value holds the limit.
	LayoutErrTooLarge
)

// LayoutError is returned by the engine queries; the zero layout is used
// in its place.
type LayoutError struct {
	Kind  LayoutErrorKind
	Type  types.TypeID
	Cycle []types.TypeID
	Value int64
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.render(func(id types.TypeID) string { return fmt.Sprintf("type#%d", id) })
}

// Describe is Error with type names taken from in.
func (e *LayoutError) Describe(in *types.Interner) string {
	if e == nil || in == nil {
		return e.Error()
	}
	return e.render(in.TypeString)
}

func (e *LayoutError) render(name func(types.TypeID) string) string {
	switch e.Kind {
	case LayoutErrRecursiveUnsized:
		if len(e.Cycle) == 0 {
			return fmt.Sprintf("%s contains itself by value", name(e.Type))
		}
		parts := make([]string, len(e.Cycle))
		for i, id := range e.Cycle {
			parts[i] = name(id)
		}
		return "value type cycle " + strings.Join(parts, " -> ")
	case LayoutErrNegativeLength:
		return fmt.Sprintf("%s has negative length %d", name(e.Type), e.Value)
	case LayoutErrTooLarge:
		return fmt.Sprintf("%s is larger than %d bytes", name(e.Type), e.Value)
	}
	return fmt.Sprintf("layout of %s failed (kind %d)", name(e.Type), e.Kind)
}
