package lower

// StringShape describes the {data, len} aggregate of a string. When the
// pointer is narrower than int a filler keeps len naturally aligned.
type StringShape struct {
	Padded   bool
	PadBytes int64
	Data     int
	Len      int
}

// StringShape returns the string representation for the target.
func (l *Lowerer) StringShape() StringShape {
	if !l.Target.PaddedString() {
		return StringShape{Data: 0, Len: 1}
	}
	return StringShape{
		Padded:   true,
		PadBytes: l.Target.IntSize - l.Target.PtrSize,
		Data:     0,
		Len:      2,
	}
}

// Slice fields are {data, len, cap}.
const (
	SliceData = 0
	SliceLen  = 1
	SliceCap  = 2
)

// Any fields are {data, typeid}.
const (
	AnyData = 0
	AnyType = 1
)
