package types

// Base strips named types until a non-named descriptor is reached.
func (in *Interner) Base(id TypeID) TypeID {
	for range 64 {
		t, ok := in.Lookup(id)
		if !ok || t.Kind != KindNamed {
			return id
		}
		info, _ := in.Named(id)
		if info == nil || info.Base == NoTypeID {
			return id
		}
		id = info.Base
	}
	return id
}

// Underlying is Base, then an enum's base type.
func (in *Interner) Underlying(id TypeID) TypeID {
	id = in.Base(id)
	if rec, ok := in.Record(id); ok && rec.Kind == RecordEnum {
		return in.Base(rec.EnumBase)
	}
	return id
}

// Deref returns the element of a pointer type, or id itself.
func (in *Interner) Deref(id TypeID) TypeID {
	if t, ok := in.Lookup(in.Base(id)); ok && t.Kind == KindPointer {
		return t.Elem
	}
	return id
}

// Elem returns the element type of pointers, arrays, slices and vectors.
func (in *Interner) Elem(id TypeID) TypeID {
	t, ok := in.Lookup(in.Base(id))
	if !ok {
		return NoTypeID
	}
	switch t.Kind {
	case KindPointer, KindArray, KindSlice, KindVector, KindMap, KindSoA:
		return t.Elem
	}
	return NoTypeID
}

// Key returns the key type of a map.
func (in *Interner) Key(id TypeID) TypeID {
	if t, ok := in.Lookup(in.Base(id)); ok && t.Kind == KindMap {
		return t.Key
	}
	return NoTypeID
}

// Count returns the length of arrays, vectors and #soa arrays.
func (in *Interner) Count(id TypeID) int64 {
	t, ok := in.Lookup(in.Base(id))
	if !ok {
		return 0
	}
	switch t.Kind {
	case KindArray, KindVector, KindSoA:
		return t.Count
	}
	return 0
}

// KindOf returns the kind of the base type.
func (in *Interner) KindOf(id TypeID) Kind {
	t, _ := in.Lookup(in.Base(id))
	return t.Kind
}

// BasicOf returns the basic kind under names and enums, or Invalid.
func (in *Interner) BasicOf(id TypeID) BasicKind {
	t, ok := in.Lookup(in.Underlying(id))
	if !ok || t.Kind != KindBasic {
		return Invalid
	}
	return t.Basic
}

func (in *Interner) flags(id TypeID) BasicFlags {
	return Basic(in.BasicOf(id)).Flags
}

func (in *Interner) IsBasic(id TypeID) bool   { return in.KindOf(id) == KindBasic }
func (in *Interner) IsInteger(id TypeID) bool { return in.flags(id)&IsIntegerFlag != 0 }
func (in *Interner) IsUnsigned(id TypeID) bool {
	return in.flags(id)&IsUnsignedFlag != 0
}
func (in *Interner) IsFloat(id TypeID) bool   { return in.flags(id)&IsFloatFlag != 0 }
func (in *Interner) IsComplex(id TypeID) bool { return in.flags(id)&IsComplexFlag != 0 }
func (in *Interner) IsBoolean(id TypeID) bool { return in.flags(id)&IsBooleanFlag != 0 }
func (in *Interner) IsString(id TypeID) bool  { return in.flags(id)&IsStringFlag != 0 }
func (in *Interner) IsRune(id TypeID) bool    { return in.flags(id)&IsRuneFlag != 0 }
func (in *Interner) IsUntyped(id TypeID) bool { return in.flags(id)&IsUntypedFlag != 0 }
func (in *Interner) IsTyped(id TypeID) bool   { return !in.IsUntyped(id) }

// IsNumeric accepts numeric basics and vectors of them.
func (in *Interner) IsNumeric(id TypeID) bool {
	if in.IsVector(id) {
		return in.IsNumeric(in.Elem(id))
	}
	return in.flags(id)&IsNumericFlag != 0
}

func (in *Interner) IsRawptr(id TypeID) bool { return in.BasicOf(id) == Rawptr }
func (in *Interner) IsAny(id TypeID) bool    { return in.BasicOf(id) == Any }
func (in *Interner) IsNil(id TypeID) bool    { return in.BasicOf(id) == UntypedNil }

func (in *Interner) IsPointer(id TypeID) bool {
	if in.KindOf(id) == KindPointer {
		return true
	}
	return in.IsRawptr(id)
}

// IsTypedPointer reports ^T (not rawptr).
func (in *Interner) IsTypedPointer(id TypeID) bool { return in.KindOf(id) == KindPointer }

func (in *Interner) IsArray(id TypeID) bool  { return in.KindOf(id) == KindArray }
func (in *Interner) IsSlice(id TypeID) bool  { return in.KindOf(id) == KindSlice }
func (in *Interner) IsVector(id TypeID) bool { return in.KindOf(id) == KindVector }
func (in *Interner) IsTuple(id TypeID) bool  { return in.KindOf(id) == KindTuple }
func (in *Interner) IsProc(id TypeID) bool   { return in.KindOf(id) == KindProc }
func (in *Interner) IsMap(id TypeID) bool    { return in.KindOf(id) == KindMap }
func (in *Interner) IsSoA(id TypeID) bool    { return in.KindOf(id) == KindSoA }
func (in *Interner) IsNamed(id TypeID) bool {
	t, _ := in.Lookup(id)
	return t.Kind == KindNamed
}

func (in *Interner) recordKind(id TypeID) RecordKind {
	if rec, ok := in.Record(in.Base(id)); ok {
		return rec.Kind
	}
	return 0
}

func (in *Interner) IsStruct(id TypeID) bool   { return in.recordKind(id) == RecordStruct }
func (in *Interner) IsRawUnion(id TypeID) bool { return in.recordKind(id) == RecordRawUnion }
func (in *Interner) IsUnion(id TypeID) bool    { return in.recordKind(id) == RecordUnion }
func (in *Interner) IsEnum(id TypeID) bool     { return in.recordKind(id) == RecordEnum }
func (in *Interner) IsBitField(id TypeID) bool { return in.recordKind(id) == RecordBitField }

// IsMapKey reports types a map may be keyed by: booleans, integers,
// runes, enums, pointers and strings.
func (in *Interner) IsMapKey(id TypeID) bool {
	if in.IsTyped(id) && (in.IsInteger(id) || in.IsBoolean(id) || in.IsString(id) || in.IsRune(id)) {
		return true
	}
	return in.IsPointer(id) && !in.IsNil(id)
}

// IsU8Slice reports []u8.
func (in *Interner) IsU8Slice(id TypeID) bool {
	return in.IsSlice(id) && in.BasicOf(in.Elem(id)) == U8
}

// IsOrdered accepts numeric (non-complex), string and pointer bases.
func (in *Interner) IsOrdered(id TypeID) bool {
	switch in.KindOf(in.Underlying(id)) {
	case KindPointer:
		return true
	case KindVector:
		return in.IsOrdered(in.Elem(id))
	}
	return in.flags(id)&IsOrderedFlag != 0
}

// IsConstantType reports types whose values may be constants.
func (in *Interner) IsConstantType(id TypeID) bool {
	return in.flags(id)&IsConstantTypeFlag != 0
}

// IsComparable follows the equality rules: basics except any and nil,
// pointers, procs, enums and vectors of comparable elements.
func (in *Interner) IsComparable(id TypeID) bool {
	base := in.Base(id)
	t, ok := in.Lookup(base)
	if !ok {
		return false
	}
	switch t.Kind {
	case KindBasic:
		return t.Basic != UntypedNil && t.Basic != Any
	case KindPointer, KindProc:
		return true
	case KindRecord:
		if in.IsEnum(base) {
			return in.IsComparable(in.Underlying(base))
		}
		if rec, _ := in.Record(base); rec.Kind == RecordBitField {
			return true
		}
	case KindVector:
		return in.IsComparable(t.Elem)
	}
	return false
}

// IsIndexable reports arrays, slices, vectors, #soa arrays and strings.
func (in *Interner) IsIndexable(id TypeID) bool {
	switch in.KindOf(id) {
	case KindArray, KindSlice, KindVector, KindSoA:
		return true
	}
	return in.IsString(id)
}

// HasNil reports types that accept the nil constant.
func (in *Interner) HasNil(id TypeID) bool {
	base := in.Base(id)
	t, ok := in.Lookup(base)
	if !ok {
		return false
	}
	switch t.Kind {
	case KindBasic:
		return t.Basic == Rawptr || t.Basic == Any
	case KindSlice, KindProc, KindPointer, KindMap:
		return true
	case KindRecord:
		// nil is the union holding no variant
		return in.IsUnion(base)
	}
	return false
}

// IsEmptyStruct reports an unnamed or named struct with no storage fields.
func (in *Interner) IsEmptyStruct(id TypeID) bool {
	rec, ok := in.Record(in.Base(id))
	return ok && rec.Kind == RecordStruct && len(rec.Fields) == 0
}

// Default maps untyped kinds to their default typed counterpart.
func (in *Interner) Default(id TypeID) TypeID {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindBasic {
		return id
	}
	switch t.Basic {
	case UntypedBool:
		return in.Builtin(Bool)
	case UntypedInteger:
		return in.Builtin(Int)
	case UntypedFloat:
		return in.Builtin(F64)
	case UntypedComplex:
		return in.Builtin(Complex128)
	case UntypedString:
		return in.Builtin(String)
	case UntypedRune:
		return in.Builtin(I32)
	}
	return id
}
