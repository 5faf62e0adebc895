package types

import (
	"fmt"
	"strings"
)

// TypeString renders id in source syntax.
func (in *Interner) TypeString(id TypeID) string {
	var sb strings.Builder
	in.writeType(&sb, id, 0)
	return sb.String()
}

func (in *Interner) writeType(sb *strings.Builder, id TypeID, depth int) {
	if depth > 32 {
		sb.WriteString("...")
		return
	}
	t, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("invalid type")
		return
	}
	switch t.Kind {
	case KindBasic:
		sb.WriteString(t.Basic.String())
	case KindNamed:
		info, _ := in.Named(id)
		sb.WriteString(info.Name)
	case KindPointer:
		sb.WriteString("^")
		in.writeType(sb, t.Elem, depth+1)
	case KindArray:
		if t.Count == OpenCount {
			sb.WriteString("[..]")
		} else {
			fmt.Fprintf(sb, "[%d]", t.Count)
		}
		in.writeType(sb, t.Elem, depth+1)
	case KindSlice:
		sb.WriteString("[]")
		in.writeType(sb, t.Elem, depth+1)
	case KindVector:
		fmt.Fprintf(sb, "[vector %d]", t.Count)
		in.writeType(sb, t.Elem, depth+1)
	case KindMap:
		sb.WriteString("map[")
		in.writeType(sb, t.Key, depth+1)
		sb.WriteString("]")
		in.writeType(sb, t.Elem, depth+1)
	case KindSoA:
		fmt.Fprintf(sb, "#soa [%d]", t.Count)
		in.writeType(sb, t.Elem, depth+1)
	case KindTuple:
		tup, _ := in.Tuple(id)
		sb.WriteString("(")
		in.writeVars(sb, tup.Vars, depth)
		sb.WriteString(")")
	case KindRecord:
		in.writeRecord(sb, id, depth)
	case KindProc:
		p, _ := in.Proc(id)
		sb.WriteString("proc")
		if p.CallConv != ConvOdin {
			fmt.Fprintf(sb, " %q", p.CallConv.String())
		}
		sb.WriteString("(")
		if tup, ok := in.Tuple(p.Params); ok {
			in.writeVars(sb, tup.Vars, depth)
		}
		sb.WriteString(")")
		if tup, ok := in.Tuple(p.Results); ok && len(tup.Vars) > 0 {
			sb.WriteString(" -> ")
			if len(tup.Vars) == 1 {
				in.writeType(sb, tup.Vars[0].Type, depth+1)
			} else {
				sb.WriteString("(")
				in.writeVars(sb, tup.Vars, depth)
				sb.WriteString(")")
			}
		}
	default:
		sb.WriteString("invalid type")
	}
}

func (in *Interner) writeVars(sb *strings.Builder, vars []Field, depth int) {
	for i, v := range vars {
		if i > 0 {
			sb.WriteString(", ")
		}
		if v.Name != "" {
			sb.WriteString(v.Name)
			sb.WriteString(": ")
		}
		in.writeType(sb, v.Type, depth+1)
	}
}

func (in *Interner) writeRecord(sb *strings.Builder, id TypeID, depth int) {
	rec, _ := in.Record(id)
	sb.WriteString(rec.Kind.String())
	if rec.Packed {
		sb.WriteString(" #packed")
	}
	if rec.Reorder {
		sb.WriteString(" #reorder")
	}
	if (rec.Kind == RecordEnum || rec.Kind == RecordBitField) && rec.EnumBase != NoTypeID {
		sb.WriteString(" ")
		in.writeType(sb, rec.EnumBase, depth+1)
	}
	sb.WriteString(" {")
	fields := rec.Fields
	if rec.Kind == RecordUnion {
		fields = rec.Variants()
	}
	if rec.Kind == RecordEnum {
		for i, f := range rec.Other {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
		}
	} else {
		for i, f := range fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			if f.Anonymous {
				sb.WriteString("using ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			if rec.Kind == RecordUnion {
				// variants are synthesized names wrapping the declared type
				if info, ok := in.Named(f.Type); ok && info.Base != NoTypeID {
					in.writeType(sb, info.Base, depth+1)
					continue
				}
			}
			in.writeType(sb, f.Type, depth+1)
			if rec.Kind == RecordBitField {
				fmt.Fprintf(sb, " | %d", f.BitSize)
			}
		}
	}
	sb.WriteString("}")
}
