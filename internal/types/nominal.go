package types

import "odinc/internal/constant"

// NamedInfo is the payload of a declared type name.
type NamedInfo struct {
	Name string
	Base TypeID
	// Obj is the declaring entity's ID, or 0 for synthesized union variants.
	Obj uint32
}

// Field is one storage slot, other-field, tuple element or enum member.
type Field struct {
	Name      string
	Type      TypeID
	Anonymous bool
	NoAlias   bool
	Index     int
	Obj       uint32
	Value     constant.Value
	// BitOffset and BitSize place a bit_field member inside the backing
	// integer, counting from the least significant bit.
	BitOffset int64
	BitSize   int64
}

// RecordInfo describes a struct, raw_union, union, enum or bit_field body.
type RecordInfo struct {
	Kind   RecordKind
	Fields []Field
	Other  []Field
	// Packed and Reorder are struct directives.
	Packed  bool
	Reorder bool
	// Order lists field indices in memory order; nil means source order.
	Order []int

	// EnumBase is the base of an enum and the backing integer of a
	// bit_field.
	EnumBase  TypeID
	EnumCount constant.Value
	EnumMin   constant.Value
	EnumMax   constant.Value
}

// Variants returns the union variant slots (everything after the tag slot).
func (r *RecordInfo) Variants() []Field {
	if r.Kind != RecordUnion || len(r.Fields) == 0 {
		return nil
	}
	return r.Fields[1:]
}

// FieldByName finds a storage field by name.
func (r *RecordInfo) FieldByName(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name && name != "" {
			return f, true
		}
	}
	return Field{}, false
}

// OtherByName finds a nested constant, type or enum member.
func (r *RecordInfo) OtherByName(name string) (Field, bool) {
	for _, f := range r.Other {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TupleInfo lists parameter or result variables.
type TupleInfo struct {
	Vars []Field
}

// ProcInfo describes a procedure signature.
type ProcInfo struct {
	Params   TypeID
	Results  TypeID
	Variadic bool
	CallConv CallConv
}

// NewNamed creates a fresh named type. base may be NoTypeID and set later.
func (in *Interner) NewNamed(name string, base TypeID, obj uint32) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := payloadIndex(len(in.named))
	in.named = append(in.named, &NamedInfo{Name: name, Base: base, Obj: obj})
	return in.newNominal(KindNamed, slot)
}

// SetNamedBase fills in the base type once the declaration is resolved.
func (in *Interner) SetNamedBase(id, base TypeID) {
	info, ok := in.Named(id)
	if !ok {
		return
	}
	in.mu.Lock()
	info.Base = base
	in.mu.Unlock()
}

// Named returns the payload of a named type.
func (in *Interner) Named(id TypeID) (*NamedInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindNamed {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.named[t.Payload], true
}

// NewRecord creates a fresh record type.
func (in *Interner) NewRecord(info RecordInfo) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := payloadIndex(len(in.records))
	in.records = append(in.records, &info)
	return in.newNominal(KindRecord, slot)
}

// SetRecord replaces the body of a record created earlier.
func (in *Interner) SetRecord(id TypeID, info RecordInfo) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindRecord {
		return
	}
	in.mu.Lock()
	*in.records[t.Payload] = info
	in.mu.Unlock()
}

// Record returns the payload of a record type (not following names).
func (in *Interner) Record(id TypeID) (*RecordInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindRecord {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.records[t.Payload], true
}

// NewTuple creates a tuple of the given variables.
func (in *Interner) NewTuple(vars []Field) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := payloadIndex(len(in.tuples))
	in.tuples = append(in.tuples, &TupleInfo{Vars: vars})
	return in.newNominal(KindTuple, slot)
}

// Tuple returns the payload of a tuple type.
func (in *Interner) Tuple(id TypeID) (*TupleInfo, bool) {
	t, ok := in.Lookup(id)
	if !ok || t.Kind != KindTuple {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.tuples[t.Payload], true
}

// TupleLen returns the number of variables, 0 for NoTypeID.
func (in *Interner) TupleLen(id TypeID) int {
	if tup, ok := in.Tuple(id); ok {
		return len(tup.Vars)
	}
	return 0
}

// NewProc creates a procedure type.
func (in *Interner) NewProc(info ProcInfo) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := payloadIndex(len(in.procs))
	in.procs = append(in.procs, &info)
	return in.newNominal(KindProc, slot)
}

// Proc returns the payload of a procedure type (following names).
func (in *Interner) Proc(id TypeID) (*ProcInfo, bool) {
	t, ok := in.Lookup(in.Base(id))
	if !ok || t.Kind != KindProc {
		return nil, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.procs[t.Payload], true
}
