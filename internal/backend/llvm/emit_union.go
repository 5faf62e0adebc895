package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"odinc/internal/ast"
	"odinc/internal/layout"
	"odinc/internal/lower"
	"odinc/internal/types"
)

// unionValue builds a union holding the variant v.
func (fe *funcEmitter) unionValue(v value.Value, from, to types.TypeID) value.Value {
	m := fe.m
	shape := m.s.low.UnionShape(to)
	lt := m.lbType(to)
	if m.s.in.IsNil(from) {
		return zeroOf(lt)
	}
	switch shape.Repr {
	case layout.UnionEmpty:
		return zeroOf(lt)
	case layout.UnionMaybePointer:
		// nil is the absent variant, so the pointer is the whole union
		return castPtr(fe.blk(), v, lt)
	}
	slot := fe.zeroTemp(to, "")
	fe.storeVariant(slot, to, v, from)
	return fe.load(to, slot)
}

// storeVariant writes v of type variant and its tag into the tagged union
// at ptr. Zero sized variants only set the tag; the block is expected to
// be zeroed already. Storing nil clears the whole union.
func (fe *funcEmitter) storeVariant(ptr value.Value, union types.TypeID, v value.Value, variant types.TypeID) {
	m := fe.m
	if m.s.in.IsNil(variant) {
		lt := m.lbType(union)
		b := fe.blk()
		b.NewStore(zeroOf(lt), castPtr(b, ptr, lltypes.NewPointer(lt)))
		return
	}
	shape := m.s.low.UnionShape(union)
	tag, ok := shape.Tag(m.s.in, variant)
	if !ok {
		m.failf("%s is not a variant of %s", m.s.in.TypeString(variant), m.s.in.TypeString(union))
	}
	if m.size(variant) > 0 {
		b := fe.blk()
		b.NewStore(v, castPtr(b, ptr, lltypes.NewPointer(v.Type())))
	}
	tagPtr := fe.gep(m.lbType(union), ptr, idx32(0), idx32(unionTag))
	fe.blk().NewStore(constI(m.intT, tag), tagPtr)
}

// matchSubject is the evaluated operand of a type match: its value, an
// address holding it and the union (or any) value behind a pointer.
type matchSubject struct {
	t, union types.TypeID
	byPtr    bool
	v, ptr   value.Value
	uv       value.Value
}

// matchStmt lowers a type match to a chain of tag comparisons ending in
// the default clause. The matched value is evaluated once.
func (fe *funcEmitter) matchStmt(s *ast.MatchStmt) {
	m, in, info := fe.m, fe.m.s.in, fe.m.s.info
	fe.pushScope()
	ms := matchSubject{t: info.TypeOf(s.Tag)}
	ms.union = ms.t
	if in.IsTypedPointer(ms.t) && in.IsUnion(in.Elem(ms.t)) {
		ms.union, ms.byPtr = in.Elem(ms.t), true
	}
	ms.v = fe.expr(s.Tag)
	if ms.byPtr {
		ms.ptr = ms.v
		ms.uv = fe.load(ms.union, ms.ptr)
	} else {
		ms.uv = ms.v
		ms.ptr = fe.spill(ms.v, ms.t)
	}
	tag := fe.matchTag(ms)

	done := fe.newBlock("match.done")
	var dflt *ast.CaseClause
	for _, c := range s.Clauses {
		if len(c.Types) == 0 {
			dflt = c
			continue
		}
		body := fe.newBlock("match.case")
		next := fe.newBlock("match.next")
		var hit value.Value
		for _, te := range c.Types {
			b := fe.blk()
			eq := b.NewICmp(enum.IPredEQ, tag, constI(m.intT, fe.caseTag(ms, info.TypeOf(te))))
			if hit == nil {
				hit = eq
			} else {
				hit = b.NewOr(hit, eq)
			}
		}
		fe.blk().NewCondBr(hit, body, next)
		fe.setBlock(body)
		fe.caseBody(c, ms, done)
		fe.setBlock(next)
	}
	if dflt != nil {
		fe.caseBody(dflt, ms, done)
	}
	fe.jump(done)
	fe.setBlock(done)
	fe.popScope()
}

// matchTag reads the 1-based variant tag of a union, zero meaning nil,
// or the typeid of an any.
func (fe *funcEmitter) matchTag(ms matchSubject) value.Value {
	m := fe.m
	b := fe.blk()
	if m.s.in.IsAny(ms.union) {
		return b.NewExtractValue(ms.uv, lower.AnyType)
	}
	switch m.s.low.UnionShape(ms.union).Repr {
	case layout.UnionEmpty:
		return constI(m.intT, 0)
	case layout.UnionMaybePointer:
		set := b.NewICmp(enum.IPredNE, ms.uv, zeroOf(ms.uv.Type()))
		return b.NewZExt(set, m.intT)
	}
	return b.NewExtractValue(ms.uv, unionTag)
}

func (fe *funcEmitter) caseTag(ms matchSubject, t types.TypeID) int64 {
	m := fe.m
	if m.s.in.IsAny(ms.union) {
		return int64(t)
	}
	tag, ok := m.s.low.UnionShape(ms.union).Tag(m.s.in, t)
	if !ok {
		m.failf("%s is not a variant of %s", m.s.in.TypeString(t), m.s.in.TypeString(ms.union))
	}
	return tag
}

// caseBody binds the match variable and lowers the statements of c; break
// inside the clause leaves the match.
func (fe *funcEmitter) caseBody(c *ast.CaseClause, ms matchSubject, done *ir.Block) {
	m := fe.m
	fe.loops = append(fe.loops, loopTarget{brk: done, depth: len(fe.scopes)})
	fe.pushScope()
	if ent := m.s.info.MatchVars[c]; ent != nil {
		var val value.Value
		switch {
		case ent.Type == ms.t:
			val = ms.v
		case m.s.in.IsAny(ms.union):
			b := fe.blk()
			data := b.NewExtractValue(ms.uv, lower.AnyData)
			val = fe.load(ent.Type, data)
		case ms.byPtr:
			val = castPtr(fe.blk(), ms.ptr, m.lbType(ent.Type))
		default:
			val = fe.load(ent.Type, ms.ptr)
		}
		fe.locals[ent] = fe.spill(val, ent.Type)
	}
	fe.stmtList(c.Body)
	fe.popScope()
	fe.loops = fe.loops[:len(fe.loops)-1]
	fe.jump(done)
}
