package lower

import "odinc/internal/types"

// Runtime entry points provided by the C shim in runtime/. Both code
// generators declare them on first use with these C signatures (int is the
// target int, bool is u8).
const (
	// void (u8* file, int line, int col, int index, int len)
	RuntimeBoundsCheck = "odin_bounds_check_error"
	// void (u8* file, int line, int col, int lo, int hi, int len)
	RuntimeSliceCheck = "odin_slice_expr_error"
	// void (u8* file, int line, int col)
	RuntimeAssertFail = "odin_assert_fail"
	// u8* (int size, int align); memory is zeroed
	RuntimeAlloc = "odin_alloc"
	// void (u8* ptr)
	RuntimeFree = "odin_free"
	// bool (u8* slice, int elem_size, int elem_align, u8* items, int count)
	RuntimeAppend = "odin_append"
	// i32 (u8* a, int alen, u8* b, int blen)
	RuntimeStringCmp = "odin_string_cmp"
	// u8* (void); the context passed to the program's main procedure
	RuntimeContext = "odin_default_context"
	// void (u8* dst, u8* src, int n)
	RuntimeMemmove = "odin_memmove"

	// u8* (u8* map, u8* key, int key_size, bool string_key); nil when absent
	RuntimeMapGet = "odin_map_get"
	// u8* (u8** map, u8* key, int key_size, int value_size, bool string_key);
	// returns the value slot, creating the map and the entry as needed
	RuntimeMapSet = "odin_map_set"
	// int (u8* map)
	RuntimeMapLen = "odin_map_len"
	// void (u8* map, u8* key, int key_size, bool string_key)
	RuntimeMapDelete = "odin_map_delete"
	// void (u8* dst, u8* src, int bit_offset, int bit_size); dst is zeroed first
	RuntimeBitRead = "odin_bit_read"
	// void (u8* dst, int bit_offset, u8* src, int bit_size)
	RuntimeBitWrite = "odin_bit_write"
)

// EntryName is the symbol the program's main procedure is emitted under so
// the C entry point can be named main.
const EntryName = "odin.main"

// ProcSymbol returns the emitted symbol of a procedure link name.
func ProcSymbol(linkName string, foreign bool) string {
	if !foreign && linkName == "main" {
		return EntryName
	}
	return linkName
}

// TypeInfoKind is the kind word stored in a type info table entry.
type TypeInfoKind int64

const (
	TypeInfoInvalid TypeInfoKind = iota
	TypeInfoInteger
	TypeInfoFloat
	TypeInfoComplex
	TypeInfoBoolean
	TypeInfoString
	TypeInfoPointer
	TypeInfoAny
	TypeInfoArray
	TypeInfoSlice
	TypeInfoVector
	TypeInfoStruct
	TypeInfoUnion
	TypeInfoRawUnion
	TypeInfoEnum
	TypeInfoProc
	TypeInfoTuple
	TypeInfoMap
	TypeInfoSoA
	TypeInfoBitField
)

// TypeInfoKindOf classifies t for its type info entry.
func (l *Lowerer) TypeInfoKindOf(t types.TypeID) TypeInfoKind {
	in := l.Types
	base := in.Base(t)
	switch in.KindOf(base) {
	case types.KindBasic:
		switch {
		case in.IsBoolean(base):
			return TypeInfoBoolean
		case in.IsInteger(base):
			return TypeInfoInteger
		case in.IsFloat(base):
			return TypeInfoFloat
		case in.IsComplex(base):
			return TypeInfoComplex
		case in.IsString(base):
			return TypeInfoString
		case in.IsRawptr(base):
			return TypeInfoPointer
		case in.IsAny(base):
			return TypeInfoAny
		}
	case types.KindPointer:
		return TypeInfoPointer
	case types.KindArray:
		return TypeInfoArray
	case types.KindSlice:
		return TypeInfoSlice
	case types.KindVector:
		return TypeInfoVector
	case types.KindMap:
		return TypeInfoMap
	case types.KindSoA:
		return TypeInfoSoA
	case types.KindTuple:
		return TypeInfoTuple
	case types.KindProc:
		return TypeInfoProc
	case types.KindRecord:
		switch {
		case in.IsStruct(base):
			return TypeInfoStruct
		case in.IsUnion(base):
			return TypeInfoUnion
		case in.IsRawUnion(base):
			return TypeInfoRawUnion
		case in.IsEnum(base):
			return TypeInfoEnum
		case in.IsBitField(base):
			return TypeInfoBitField
		}
	}
	return TypeInfoInvalid
}
