package ir

import (
	"fmt"
	"strings"
)

// TypeKind enumerates IR type constructors.
type TypeKind uint8

const (
	TypeVoid TypeKind = iota
	TypeInt
	TypeFloat
	TypePtr
	TypeArray
	TypeVector
	TypeStruct
	TypeFunc
	// TypeNamed refers to a Module type definition or a preamble alias.
	TypeNamed
)

// Type is an IR type. Types are compared structurally.
type Type struct {
	Kind     TypeKind
	Bits     int
	Elem     *Type
	Len      int64
	Fields   []*Type
	Packed   bool
	Name     string
	Params   []*Type
	Ret      *Type
	Variadic bool
}

var (
	Void = &Type{Kind: TypeVoid}
	I1   = &Type{Kind: TypeInt, Bits: 1}
	I8   = &Type{Kind: TypeInt, Bits: 8}
	I16  = &Type{Kind: TypeInt, Bits: 16}
	I32  = &Type{Kind: TypeInt, Bits: 32}
	I64  = &Type{Kind: TypeInt, Bits: 64}
	F32  = &Type{Kind: TypeFloat, Bits: 32}
	F64  = &Type{Kind: TypeFloat, Bits: 64}
	I8P  = Ptr(I8)
)

func Int(bits int) *Type {
	switch bits {
	case 1:
		return I1
	case 8:
		return I8
	case 16:
		return I16
	case 32:
		return I32
	case 64:
		return I64
	}
	return &Type{Kind: TypeInt, Bits: bits}
}

func Ptr(elem *Type) *Type { return &Type{Kind: TypePtr, Elem: elem} }

func Array(n int64, elem *Type) *Type { return &Type{Kind: TypeArray, Len: n, Elem: elem} }

func Vector(n int64, elem *Type) *Type { return &Type{Kind: TypeVector, Len: n, Elem: elem} }

func Struct(packed bool, fields ...*Type) *Type {
	return &Type{Kind: TypeStruct, Packed: packed, Fields: fields}
}

func Func(ret *Type, variadic bool, params ...*Type) *Type {
	return &Type{Kind: TypeFunc, Ret: ret, Params: params, Variadic: variadic}
}

// Named refers to a type by name. The body is looked up in the module.
func Named(name string) *Type { return &Type{Kind: TypeNamed, Name: name} }

// Preamble aliases printed at the top of every module.
var (
	StringT     = Named("..string")
	RawptrT     = Named("..rawptr")
	AnyT        = Named("..any")
	Complex64T  = Named("..complex64")
	Complex128T = Named("..complex128")
)

// Equal compares two types structurally; named types compare by name.
func (t *Type) Equal(u *Type) bool {
	if t == u {
		return true
	}
	if t == nil || u == nil || t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case TypeVoid:
		return true
	case TypeInt, TypeFloat:
		return t.Bits == u.Bits
	case TypePtr:
		return t.Elem.Equal(u.Elem)
	case TypeArray, TypeVector:
		return t.Len == u.Len && t.Elem.Equal(u.Elem)
	case TypeStruct:
		if t.Packed != u.Packed || len(t.Fields) != len(u.Fields) {
			return false
		}
		for i := range t.Fields {
			if !t.Fields[i].Equal(u.Fields[i]) {
				return false
			}
		}
		return true
	case TypeFunc:
		if t.Variadic != u.Variadic || len(t.Params) != len(u.Params) || !t.Ret.Equal(u.Ret) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(u.Params[i]) {
				return false
			}
		}
		return true
	case TypeNamed:
		return t.Name == u.Name
	}
	return false
}

func (t *Type) IsInt() bool   { return t != nil && t.Kind == TypeInt }
func (t *Type) IsFloat() bool { return t != nil && t.Kind == TypeFloat }
func (t *Type) IsPtr() bool   { return t != nil && t.Kind == TypePtr }

func (t *Type) String() string {
	var sb strings.Builder
	writeType(&sb, t)
	return sb.String()
}

func writeType(sb *strings.Builder, t *Type) {
	if t == nil {
		sb.WriteString("void")
		return
	}
	switch t.Kind {
	case TypeVoid:
		sb.WriteString("void")
	case TypeInt:
		fmt.Fprintf(sb, "i%d", t.Bits)
	case TypeFloat:
		if t.Bits == 32 {
			sb.WriteString("float")
		} else {
			sb.WriteString("double")
		}
	case TypePtr:
		writeType(sb, t.Elem)
		sb.WriteByte('*')
	case TypeArray:
		fmt.Fprintf(sb, "[%d x ", t.Len)
		writeType(sb, t.Elem)
		sb.WriteByte(']')
	case TypeVector:
		fmt.Fprintf(sb, "<%d x ", t.Len)
		writeType(sb, t.Elem)
		sb.WriteByte('>')
	case TypeStruct:
		if t.Packed {
			sb.WriteByte('<')
		}
		sb.WriteByte('{')
		for i, f := range t.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeType(sb, f)
		}
		sb.WriteByte('}')
		if t.Packed {
			sb.WriteByte('>')
		}
	case TypeFunc:
		writeType(sb, t.Ret)
		sb.WriteString(" (")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeType(sb, p)
		}
		if t.Variadic {
			if len(t.Params) > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("...")
		}
		sb.WriteByte(')')
	case TypeNamed:
		sb.WriteByte('%')
		sb.WriteString(EscapeName(t.Name))
	default:
		panic(fmt.Sprintf("internal compiler error: unknown IR type kind %d", t.Kind))
	}
}
