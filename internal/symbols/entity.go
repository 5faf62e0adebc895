package symbols

import (
	"odinc/internal/ast"
	"odinc/internal/constant"
	"odinc/internal/source"
	"odinc/internal/types"
)

// EntityKind classifies the semantic meaning of a declaration.
type EntityKind uint8

const (
	EntityInvalid EntityKind = iota
	EntityConstant
	EntityVariable
	EntityTypeName
	EntityProcedure
	EntityBuiltin
	EntityNil
)

func (k EntityKind) String() string {
	switch k {
	case EntityConstant:
		return "constant"
	case EntityVariable:
		return "variable"
	case EntityTypeName:
		return "type name"
	case EntityProcedure:
		return "procedure"
	case EntityBuiltin:
		return "builtin"
	case EntityNil:
		return "nil"
	default:
		return "invalid"
	}
}

// ResolveState tracks lazy declaration checking.
type ResolveState uint8

const (
	Unresolved ResolveState = iota
	InProgress
	Resolved
)

// EntityFlags encode misc attributes for quick checks.
type EntityFlags uint16

const (
	FlagField EntityFlags = 1 << iota
	FlagAnonymous
	FlagParam
	FlagResult
	FlagUsed
	FlagVisited
	FlagNoAlias
	FlagGlobal
	FlagImmutable
)

// Strings returns textual flag labels.
func (f EntityFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	names := [...]string{"field", "anonymous", "param", "result", "used", "visited", "no_alias", "global", "immutable"}
	labels := make([]string, 0, 4)
	for i, n := range names {
		if f&(1<<i) != 0 {
			labels = append(labels, n)
		}
	}
	return labels
}

// DeferredKind selects which values a deferred companion receives.
type DeferredKind uint8

const (
	DeferredNone DeferredKind = iota
	// DeferredIn passes the call's arguments.
	DeferredIn
	// DeferredOut passes the call's results.
	DeferredOut
	// DeferredInOut passes arguments followed by results.
	DeferredInOut
)

func (k DeferredKind) String() string {
	switch k {
	case DeferredIn:
		return "deferred_in"
	case DeferredOut:
		return "deferred_out"
	case DeferredInOut:
		return "deferred_in_out"
	}
	return "none"
}

// ParseDeferredKind maps an attribute key to a hook kind.
func ParseDeferredKind(key string) (DeferredKind, bool) {
	switch key {
	case "deferred_in":
		return DeferredIn, true
	case "deferred_out":
		return DeferredOut, true
	case "deferred_in_out":
		return DeferredInOut, true
	}
	return DeferredNone, false
}

// DeferredHook names the procedure scheduled at scope exit after each call.
type DeferredHook struct {
	Kind DeferredKind
	Name string
	Span source.Span
	Proc *Entity
}

// Entity is a named declaration shared by the checker and the backends.
// Apart from the Used/Visited flags it is read-only once Resolved.
type Entity struct {
	ID    uint32
	Kind  EntityKind
	Name  string
	Span  source.Span
	Scope *Scope
	Type  types.TypeID
	Value constant.Value
	State ResolveState
	Flags EntityFlags

	// FieldIndex is the logical index inside a record or tuple.
	FieldIndex int

	// Decl is the declaring statement; Init and TypeExpr are this entity's
	// slice of it.
	Decl     *ast.ValueDecl
	Init     ast.Expr
	TypeExpr ast.Expr

	// Procedures.
	LinkName string
	Foreign  bool
	Deferred DeferredHook

	BuiltinID BuiltinID

	// UsingParent and UsingPath describe a field promoted into a body scope
	// through a "using" parameter or local.
	UsingParent *Entity
	UsingPath   []int
}

func (e *Entity) Has(f EntityFlags) bool { return e.Flags&f != 0 }

// IsGlobal reports package-level variables and procedures.
func (e *Entity) IsGlobal() bool { return e.Flags&FlagGlobal != 0 }
