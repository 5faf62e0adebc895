package types

// Identical reports type identity. Structural kinds are hash-consed, so
// equal IDs are enough there; records, tuples and procs compare their
// payloads; named types are identical only to themselves and enums are
// always unique.
func (in *Interner) Identical(x, y TypeID) bool {
	if x == y {
		return true
	}
	if x == NoTypeID || y == NoTypeID {
		return false
	}
	tx, _ := in.Lookup(x)
	ty, _ := in.Lookup(y)
	if tx.Kind != ty.Kind {
		return false
	}
	switch tx.Kind {
	case KindBasic:
		return tx.Basic == ty.Basic
	case KindPointer, KindSlice:
		return in.Identical(tx.Elem, ty.Elem)
	case KindArray, KindVector, KindSoA:
		return tx.Count == ty.Count && in.Identical(tx.Elem, ty.Elem)
	case KindMap:
		return in.Identical(tx.Key, ty.Key) && in.Identical(tx.Elem, ty.Elem)
	case KindRecord:
		return in.identicalRecords(x, y)
	case KindTuple:
		a, _ := in.Tuple(x)
		b, _ := in.Tuple(y)
		return in.identicalVars(a.Vars, b.Vars, false)
	case KindProc:
		a, _ := in.Proc(x)
		b, _ := in.Proc(y)
		return a.CallConv == b.CallConv &&
			a.Variadic == b.Variadic &&
			in.Identical(a.Params, b.Params) &&
			in.Identical(a.Results, b.Results)
	}
	return false
}

func (in *Interner) identicalRecords(x, y TypeID) bool {
	a, _ := in.Record(x)
	b, _ := in.Record(y)
	if a.Kind != b.Kind || a.Kind == RecordEnum {
		return false
	}
	if a.Packed != b.Packed || a.Reorder != b.Reorder {
		return false
	}
	if a.Kind == RecordBitField {
		if !in.Identical(a.EnumBase, b.EnumBase) || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].BitSize != b.Fields[i].BitSize {
				return false
			}
		}
	}
	return in.identicalVars(a.Fields, b.Fields, true)
}

func (in *Interner) identicalVars(a, b []Field, names bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if names && a[i].Name != b[i].Name {
			return false
		}
		if !in.Identical(a[i].Type, b[i].Type) {
			return false
		}
	}
	return true
}
