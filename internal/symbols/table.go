package symbols

import (
	"fmt"
	"sync"

	"fortio.org/safecast"

	"odinc/internal/source"
)

// Table owns every entity of a compilation and hands out stable IDs.
type Table struct {
	mu       sync.RWMutex
	entities []*Entity
}

// NewTable creates a table with the zero ID reserved.
func NewTable() *Table {
	return &Table{entities: make([]*Entity, 1, 256)}
}

// New allocates an entity and assigns its ID.
func (t *Table) New(kind EntityKind, name string, span source.Span, scope *Scope) *Entity {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, err := safecast.Conv[uint32](len(t.entities))
	if err != nil {
		panic(fmt.Errorf("entity table overflow: %w", err))
	}
	e := &Entity{ID: id, Kind: kind, Name: name, Span: span, Scope: scope}
	t.entities = append(t.entities, e)
	return e
}

// Get returns the entity with the given ID, or nil.
func (t *Table) Get(id uint32) *Entity {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if id == 0 || int(id) >= len(t.entities) {
		return nil
	}
	return t.entities[id]
}

// Len reports the number of allocated entities.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entities) - 1
}
