package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Interner provides stable TypeIDs. Structural descriptors are hash-consed;
// nominal ones (named, record, tuple, proc) always receive a fresh ID.
//
// The checker builds types on one goroutine, but backends intern pointer and
// slice types while lowering modules concurrently, so all access goes through
// a read/write lock.
type Interner struct {
	mu      sync.RWMutex
	types   []Type
	index   map[typeKey]TypeID
	basics  [basicCount]TypeID
	named   []*NamedInfo
	records []*RecordInfo
	tuples  []*TupleInfo
	procs   []*ProcInfo
}

// NewInterner constructs an interner seeded with every basic type.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 128),
	}
	// slot 0 of every payload table is the invalid sentinel
	in.named = append(in.named, nil)
	in.records = append(in.records, nil)
	in.tuples = append(in.tuples, nil)
	in.procs = append(in.procs, nil)
	in.internRaw(Type{Kind: KindInvalid})
	for k := Bool; k < basicCount; k++ {
		in.basics[k] = in.internLocked(Type{Kind: KindBasic, Basic: k})
	}
	return in
}

// Builtin returns the TypeID of a basic kind.
func (in *Interner) Builtin(k BasicKind) TypeID {
	if k == Invalid || int(k) >= len(in.basics) {
		return NoTypeID
	}
	return in.basics[k]
}

// Intern ensures the provided structural descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.internLocked(t)
}

func (in *Interner) internLocked(t Type) TypeID {
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	id := in.internRaw(t)
	in.index[key] = id
	return id
}

// internRaw adds the descriptor to the storage without consulting the map.
// Callers hold the write lock (or own the interner exclusively).
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("internal compiler error: invalid TypeID %d", id))
	}
	return tt
}

// Len reports how many type slots exist, including the invalid sentinel.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.types)
}

// Pointer returns ^elem.
func (in *Interner) Pointer(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindPointer, Elem: elem})
}

// Array returns [count]elem; OpenCount yields [..]elem.
func (in *Interner) Array(elem TypeID, count int64) TypeID {
	return in.Intern(Type{Kind: KindArray, Elem: elem, Count: count})
}

// Slice returns []elem.
func (in *Interner) Slice(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindSlice, Elem: elem})
}

// Vector returns [vector count]elem.
func (in *Interner) Vector(elem TypeID, count int64) TypeID {
	return in.Intern(Type{Kind: KindVector, Elem: elem, Count: count})
}

// Map returns map[key]value.
func (in *Interner) Map(key, value TypeID) TypeID {
	return in.Intern(Type{Kind: KindMap, Key: key, Elem: value})
}

// SoA returns #soa [count]elem; elem is a struct type.
func (in *Interner) SoA(elem TypeID, count int64) TypeID {
	return in.Intern(Type{Kind: KindSoA, Elem: elem, Count: count})
}

func payloadIndex(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("payload table overflow: %w", err))
	}
	return v
}

func (in *Interner) newNominal(kind Kind, payload uint32) TypeID {
	return in.internRaw(Type{Kind: kind, Payload: payload})
}

type typeKey struct {
	Kind    Kind
	Basic   BasicKind
	Elem    TypeID
	Key     TypeID
	Count   int64
	Payload uint32
}
