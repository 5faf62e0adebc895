package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the type constructors.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBasic
	KindNamed
	KindPointer
	KindArray
	KindSlice
	KindVector
	KindTuple
	KindRecord
	KindProc
	KindMap
	KindSoA
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBasic:
		return "basic"
	case KindNamed:
		return "named"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindVector:
		return "vector"
	case KindTuple:
		return "tuple"
	case KindRecord:
		return "record"
	case KindProc:
		return "proc"
	case KindMap:
		return "map"
	case KindSoA:
		return "soa"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// OpenCount marks an [..]T array whose length comes from its literal.
const OpenCount int64 = -1

// Type is a compact descriptor. Nominal payloads (named, record, tuple,
// proc) live in side tables indexed by Payload. Maps keep their key in
// Key and their value in Elem; #soa arrays keep the struct in Elem.
type Type struct {
	Kind    Kind
	Basic   BasicKind
	Elem    TypeID
	Key     TypeID
	Count   int64
	Payload uint32
}

// RecordKind distinguishes the record flavours.
type RecordKind uint8

const (
	RecordStruct RecordKind = iota + 1
	RecordRawUnion
	RecordUnion
	RecordEnum
	RecordBitField
)

func (k RecordKind) String() string {
	switch k {
	case RecordStruct:
		return "struct"
	case RecordRawUnion:
		return "raw_union"
	case RecordUnion:
		return "union"
	case RecordEnum:
		return "enum"
	case RecordBitField:
		return "bit_field"
	}
	return "record"
}

// CallConv is a procedure calling convention.
type CallConv uint8

const (
	ConvOdin CallConv = iota
	ConvC
	ConvContextless
)

func (c CallConv) String() string {
	switch c {
	case ConvC:
		return "c"
	case ConvContextless:
		return "contextless"
	}
	return "odin"
}

// ParseCallConv maps the string after "proc" to a convention.
func ParseCallConv(s string) (CallConv, bool) {
	switch s {
	case "", "odin":
		return ConvOdin, true
	case "c", "cdecl":
		return ConvC, true
	case "contextless":
		return ConvContextless, true
	}
	return ConvOdin, false
}
