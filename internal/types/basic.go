package types

// BasicKind enumerates the predeclared types.
type BasicKind uint8

const (
	Invalid BasicKind = iota
	Bool
	B8
	B16
	B32
	B64
	I8
	I16
	I32
	I64
	Int
	U8
	U16
	U32
	U64
	Uint
	Uintptr
	F32
	F64
	Complex64
	Complex128
	Rawptr
	String
	Any
	// LLBool is the 1-bit boolean used for branch conditions.
	LLBool

	UntypedBool
	UntypedInteger
	UntypedFloat
	UntypedComplex
	UntypedRune
	UntypedString
	UntypedNil

	basicCount
)

// BasicFlags classify a basic kind.
type BasicFlags uint16

const (
	IsBooleanFlag BasicFlags = 1 << iota
	IsIntegerFlag
	IsUnsignedFlag
	IsFloatFlag
	IsComplexFlag
	IsStringFlag
	IsPointerFlag
	IsRuneFlag
	IsUntypedFlag

	IsNumericFlag      = IsIntegerFlag | IsFloatFlag | IsComplexFlag
	IsOrderedFlag      = IsIntegerFlag | IsFloatFlag | IsStringFlag | IsPointerFlag
	IsConstantTypeFlag = IsBooleanFlag | IsNumericFlag | IsPointerFlag | IsStringFlag | IsRuneFlag
)

// BasicInfo describes one predeclared type. Size -1 means target dependent.
type BasicInfo struct {
	Kind  BasicKind
	Flags BasicFlags
	Size  int64
	Name  string
}

var basicTable = [basicCount]BasicInfo{
	Invalid:    {Invalid, 0, 0, "invalid type"},
	Bool:       {Bool, IsBooleanFlag, 1, "bool"},
	B8:         {B8, IsBooleanFlag, 1, "b8"},
	B16:        {B16, IsBooleanFlag, 2, "b16"},
	B32:        {B32, IsBooleanFlag, 4, "b32"},
	B64:        {B64, IsBooleanFlag, 8, "b64"},
	I8:         {I8, IsIntegerFlag, 1, "i8"},
	I16:        {I16, IsIntegerFlag, 2, "i16"},
	I32:        {I32, IsIntegerFlag, 4, "i32"},
	I64:        {I64, IsIntegerFlag, 8, "i64"},
	Int:        {Int, IsIntegerFlag, -1, "int"},
	U8:         {U8, IsIntegerFlag | IsUnsignedFlag, 1, "u8"},
	U16:        {U16, IsIntegerFlag | IsUnsignedFlag, 2, "u16"},
	U32:        {U32, IsIntegerFlag | IsUnsignedFlag, 4, "u32"},
	U64:        {U64, IsIntegerFlag | IsUnsignedFlag, 8, "u64"},
	Uint:       {Uint, IsIntegerFlag | IsUnsignedFlag, -1, "uint"},
	Uintptr:    {Uintptr, IsIntegerFlag | IsUnsignedFlag, -1, "uintptr"},
	F32:        {F32, IsFloatFlag, 4, "f32"},
	F64:        {F64, IsFloatFlag, 8, "f64"},
	Complex64:  {Complex64, IsComplexFlag, 8, "complex64"},
	Complex128: {Complex128, IsComplexFlag, 16, "complex128"},
	Rawptr:     {Rawptr, IsPointerFlag, -1, "rawptr"},
	String:     {String, IsStringFlag, -1, "string"},
	Any:        {Any, 0, -1, "any"},
	LLBool:     {LLBool, IsBooleanFlag, 1, "llbool"},

	UntypedBool:    {UntypedBool, IsBooleanFlag | IsUntypedFlag, 0, "untyped bool"},
	UntypedInteger: {UntypedInteger, IsIntegerFlag | IsUntypedFlag, 0, "untyped integer"},
	UntypedFloat:   {UntypedFloat, IsFloatFlag | IsUntypedFlag, 0, "untyped float"},
	UntypedComplex: {UntypedComplex, IsComplexFlag | IsUntypedFlag, 0, "untyped complex"},
	UntypedRune:    {UntypedRune, IsIntegerFlag | IsRuneFlag | IsUntypedFlag, 0, "untyped rune"},
	UntypedString:  {UntypedString, IsStringFlag | IsUntypedFlag, 0, "untyped string"},
	UntypedNil:     {UntypedNil, IsUntypedFlag, 0, "untyped nil"},
}

// Basic returns the static description of k.
func Basic(k BasicKind) BasicInfo {
	if int(k) >= len(basicTable) {
		return basicTable[Invalid]
	}
	return basicTable[k]
}

func (k BasicKind) String() string { return Basic(k).Name }

// Universe lists the basic types visible by name. "byte" and "rune" are aliases.
func Universe() []BasicInfo {
	out := make([]BasicInfo, 0, int(LLBool))
	for k := Bool; k <= Any; k++ {
		out = append(out, basicTable[k])
	}
	return out
}
