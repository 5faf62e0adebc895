package irgen

import (
	"odinc/internal/ir"
	"odinc/internal/types"
)

// buildTypeTable emits one {size, align, kind, id} record per type whose
// information is requested by type_info or an any conversion.
func (g *Generator) buildTypeTable() {
	if len(g.info.TypeInfoTypes) == 0 {
		return
	}
	i := g.intT
	entryT := ir.Struct(false, i, i, i, i)
	entries := make([]ir.Value, len(g.info.TypeInfoTypes))
	for n, t := range g.info.TypeInfoTypes {
		entries[n] = ir.Aggregate(entryT,
			ir.ConstI(i, g.size(t)),
			ir.ConstI(i, g.align(t)),
			ir.ConstI(i, int64(g.low.TypeInfoKindOf(t))),
			ir.ConstI(i, int64(t)))
		g.typeSlots[t] = n
	}
	arr := ir.Array(int64(len(entries)), entryT)
	gl := g.mod.NewGlobal(g.symbol("__$type_table"), arr, ir.Aggregate(arr, entries...))
	gl.Constant = true
	g.typeTable = gl
}

// typeInfoPtr returns a rawptr to the table record of t.
func (g *Generator) typeInfoPtr(t types.TypeID) ir.Value {
	slot, ok := g.typeSlots[t]
	if !ok {
		for other, n := range g.typeSlots {
			if g.in.Identical(other, t) {
				slot, ok = n, true
				break
			}
		}
	}
	if !ok || g.typeTable == nil {
		g.failf("no type information for %s", g.in.TypeString(t))
	}
	entryT := g.typeTable.Elem.Elem
	p := ir.ConstGEP(g.typeTable.Elem, g.typeTable, ir.Ptr(entryT), 0, int64(slot))
	return ir.ConstCast(ir.BitCast, p, ir.I8P)
}
