package symbols

// BuiltinID identifies a builtin procedure.
type BuiltinID uint8

const (
	BuiltinInvalid BuiltinID = iota
	BuiltinNew
	BuiltinNewSlice
	BuiltinDelete
	BuiltinSizeOf
	BuiltinSizeOfVal
	BuiltinAlignOf
	BuiltinAlignOfVal
	BuiltinOffsetOf
	BuiltinOffsetOfVal
	BuiltinTypeOfVal
	BuiltinTypeInfo
	BuiltinAssert
	BuiltinLen
	BuiltinCap
	BuiltinCopy
	BuiltinAppend
	BuiltinSwizzle
	BuiltinPtrOffset
	BuiltinPtrSub
	BuiltinSlicePtr
	BuiltinMin
	BuiltinMax
	BuiltinAbs
	BuiltinAtomicLoad
	BuiltinAtomicStore
	BuiltinAtomicAdd
	BuiltinAtomicSub
	BuiltinAtomicXchg
	BuiltinAtomicCas
	BuiltinDeleteKey

	BuiltinCount
)

var builtinNames = [BuiltinCount]string{
	BuiltinInvalid:     "invalid",
	BuiltinNew:         "new",
	BuiltinNewSlice:    "new_slice",
	BuiltinDelete:      "delete",
	BuiltinSizeOf:      "size_of",
	BuiltinSizeOfVal:   "size_of_val",
	BuiltinAlignOf:     "align_of",
	BuiltinAlignOfVal:  "align_of_val",
	BuiltinOffsetOf:    "offset_of",
	BuiltinOffsetOfVal: "offset_of_val",
	BuiltinTypeOfVal:   "type_of_val",
	BuiltinTypeInfo:    "type_info",
	BuiltinAssert:      "assert",
	BuiltinLen:         "len",
	BuiltinCap:         "cap",
	BuiltinCopy:        "copy",
	BuiltinAppend:      "append",
	BuiltinSwizzle:     "swizzle",
	BuiltinPtrOffset:   "ptr_offset",
	BuiltinPtrSub:      "ptr_sub",
	BuiltinSlicePtr:    "slice_ptr",
	BuiltinMin:         "min",
	BuiltinMax:         "max",
	BuiltinAbs:         "abs",
	BuiltinAtomicLoad:  "atomic_load",
	BuiltinAtomicStore: "atomic_store",
	BuiltinAtomicAdd:   "atomic_add",
	BuiltinAtomicSub:   "atomic_sub",
	BuiltinAtomicXchg:  "atomic_xchg",
	BuiltinAtomicCas:   "atomic_cas",
	BuiltinDeleteKey:   "delete_key",
}

func (b BuiltinID) String() string {
	if b >= BuiltinCount {
		return "invalid"
	}
	return builtinNames[b]
}
