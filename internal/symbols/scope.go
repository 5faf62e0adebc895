package symbols

import "odinc/internal/source"

// ScopeKind enumerates scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeUniverse
	ScopePackage
	ScopeFile
	ScopeProc
	ScopeBlock
	ScopeRecord
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeUniverse:
		return "universe"
	case ScopePackage:
		return "package"
	case ScopeFile:
		return "file"
	case ScopeProc:
		return "proc"
	case ScopeBlock:
		return "block"
	case ScopeRecord:
		return "record"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent-child hierarchy.
type Scope struct {
	Kind     ScopeKind
	Parent   *Scope
	Span     source.Span
	Children []*Scope

	entries map[string]*Entity
	order   []*Entity
}

// NewScope creates a child of parent (nil for the universe).
func NewScope(parent *Scope, kind ScopeKind, span source.Span) *Scope {
	s := &Scope{
		Kind:    kind,
		Parent:  parent,
		Span:    span,
		entries: make(map[string]*Entity, 8),
	}
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Insert adds e unless the name is taken, in which case the existing entity
// is returned and the scope is left unchanged. "_" is never recorded.
func (s *Scope) Insert(e *Entity) *Entity {
	if e.Name == "_" || e.Name == "" {
		return nil
	}
	if prev, ok := s.entries[e.Name]; ok {
		return prev
	}
	s.entries[e.Name] = e
	s.order = append(s.order, e)
	if e.Scope == nil {
		e.Scope = s
	}
	return nil
}

// Lookup searches this scope only.
func (s *Scope) Lookup(name string) *Entity {
	if s == nil {
		return nil
	}
	return s.entries[name]
}

// LookupParent walks outward and returns the scope that declares name.
func (s *Scope) LookupParent(name string) (*Scope, *Entity) {
	for sc := s; sc != nil; sc = sc.Parent {
		if e, ok := sc.entries[name]; ok {
			return sc, e
		}
	}
	return nil, nil
}

// Entities returns the entities in insertion order.
func (s *Scope) Entities() []*Entity {
	return s.order
}

// Len reports how many names the scope declares.
func (s *Scope) Len() int { return len(s.order) }

// Enclosing returns the nearest ancestor (or self) of kind.
func (s *Scope) Enclosing(kind ScopeKind) *Scope {
	for sc := s; sc != nil; sc = sc.Parent {
		if sc.Kind == kind {
			return sc
		}
	}
	return nil
}
