package ast

import "strings"

// ExprString renders e in source-like form for diagnostics.
func ExprString(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch x := e.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *BadExpr:
		sb.WriteString("BadExpr")
	case *Ident:
		sb.WriteString(x.Name)
	case *BasicLit:
		sb.WriteString(x.Value)
	case *CompositeLit:
		if x.Type != nil {
			writeExpr(sb, x.Type)
		}
		sb.WriteString("{")
		writeList(sb, x.Elts)
		sb.WriteString("}")
	case *FieldValue:
		sb.WriteString(x.Field.Name)
		sb.WriteString(" = ")
		writeExpr(sb, x.Value)
	case *ProcLit:
		writeExpr(sb, x.Type)
		sb.WriteString(" {...}")
	case *ParenExpr:
		sb.WriteString("(")
		writeExpr(sb, x.X)
		sb.WriteString(")")
	case *SelectorExpr:
		writeExpr(sb, x.X)
		sb.WriteString(".")
		sb.WriteString(x.Sel.Name)
	case *IndexExpr:
		writeExpr(sb, x.X)
		sb.WriteString("[")
		writeExpr(sb, x.Index)
		sb.WriteString("]")
	case *SliceExpr:
		writeExpr(sb, x.X)
		sb.WriteString("[")
		writeOpt(sb, x.Low)
		sb.WriteString(":")
		writeOpt(sb, x.High)
		if x.Triple {
			sb.WriteString(":")
			writeOpt(sb, x.Max)
		}
		sb.WriteString("]")
	case *DerefExpr:
		writeExpr(sb, x.X)
		sb.WriteString("^")
	case *CallExpr:
		writeExpr(sb, x.Fun)
		sb.WriteString("(")
		writeList(sb, x.Args)
		if x.Spread {
			sb.WriteString("..")
		}
		sb.WriteString(")")
	case *UnaryExpr:
		sb.WriteString(x.Op.String())
		writeExpr(sb, x.X)
	case *BinaryExpr:
		writeExpr(sb, x.X)
		sb.WriteString(" ")
		sb.WriteString(x.Op.String())
		sb.WriteString(" ")
		writeExpr(sb, x.Y)
	case *PointerType:
		sb.WriteString("^")
		writeExpr(sb, x.Elem)
	case *ArrayType:
		if x.SoA {
			sb.WriteString("#soa ")
		}
		sb.WriteString("[")
		if x.Open {
			sb.WriteString("..")
		} else {
			writeExpr(sb, x.Len)
		}
		sb.WriteString("]")
		writeExpr(sb, x.Elem)
	case *SliceType:
		sb.WriteString("[]")
		writeExpr(sb, x.Elem)
	case *VectorType:
		sb.WriteString("[vector ")
		writeExpr(sb, x.Len)
		sb.WriteString("]")
		writeExpr(sb, x.Elem)
	case *EllipsisType:
		sb.WriteString("..")
		writeExpr(sb, x.Elem)
	case *MapType:
		sb.WriteString("map[")
		writeExpr(sb, x.Key)
		sb.WriteString("]")
		writeExpr(sb, x.Value)
	case *BitFieldType:
		sb.WriteString("bit_field ")
		writeExpr(sb, x.Backing)
		sb.WriteString(" {...}")
	case *StructType:
		if x.Raw {
			sb.WriteString("raw_union {...}")
		} else {
			sb.WriteString("struct {...}")
		}
	case *UnionType:
		sb.WriteString("union {...}")
	case *EnumType:
		sb.WriteString("enum {...}")
	case *ProcType:
		sb.WriteString("proc(")
		writeFields(sb, x.Params)
		sb.WriteString(")")
		if len(x.Results) > 0 {
			sb.WriteString(" -> ")
			if len(x.Results) == 1 && len(x.Results[0].Names) == 0 {
				writeExpr(sb, x.Results[0].Type)
			} else {
				sb.WriteString("(")
				writeFields(sb, x.Results)
				sb.WriteString(")")
			}
		}
	default:
		panic("internal compiler error: ExprString: unexpected node")
	}
}

func writeOpt(sb *strings.Builder, e Expr) {
	if e != nil {
		writeExpr(sb, e)
	}
}

func writeList(sb *strings.Builder, list []Expr) {
	for i, e := range list {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeExpr(sb, e)
	}
}

func writeFields(sb *strings.Builder, fields []*Field) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		for j, n := range f.Names {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(n.Name)
		}
		if len(f.Names) > 0 {
			sb.WriteString(": ")
		}
		writeExpr(sb, f.Type)
	}
}

// IsTypeLike reports whether e syntactically looks like a type that may
// start a composite literal.
func IsTypeLike(e Expr) bool {
	switch x := e.(type) {
	case *Ident:
		return true
	case *SelectorExpr:
		return IsTypeLike(x.X)
	case *ArrayType, *SliceType, *VectorType, *MapType, *StructType, *UnionType, *BitFieldType, *PointerType:
		return true
	}
	return false
}
