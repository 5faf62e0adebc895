package ast

// Inspect visits n and its children depth-first while f returns true.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch x := n.(type) {
	case *File:
		for _, d := range x.Decls {
			Inspect(d, f)
		}
	case *ValueDecl:
		for _, name := range x.Names {
			Inspect(name, f)
		}
		inspectExpr(x.Type, f)
		inspectExprs(x.Values, f)
	case *Field:
		inspectExpr(x.Type, f)
		inspectExpr(x.Value, f)

	case *BadExpr, *Ident, *BasicLit:
	case *CompositeLit:
		inspectExpr(x.Type, f)
		inspectExprs(x.Elts, f)
	case *FieldValue:
		inspectExpr(x.Value, f)
	case *ProcLit:
		Inspect(x.Type, f)
		if x.Body != nil {
			Inspect(x.Body, f)
		}
	case *ParenExpr:
		inspectExpr(x.X, f)
	case *SelectorExpr:
		inspectExpr(x.X, f)
	case *IndexExpr:
		inspectExpr(x.X, f)
		inspectExpr(x.Index, f)
	case *SliceExpr:
		inspectExpr(x.X, f)
		inspectExpr(x.Low, f)
		inspectExpr(x.High, f)
		inspectExpr(x.Max, f)
	case *DerefExpr:
		inspectExpr(x.X, f)
	case *CallExpr:
		inspectExpr(x.Fun, f)
		inspectExprs(x.Args, f)
	case *UnaryExpr:
		inspectExpr(x.X, f)
	case *BinaryExpr:
		inspectExpr(x.X, f)
		inspectExpr(x.Y, f)
	case *PointerType:
		inspectExpr(x.Elem, f)
	case *ArrayType:
		inspectExpr(x.Len, f)
		inspectExpr(x.Elem, f)
	case *SliceType:
		inspectExpr(x.Elem, f)
	case *VectorType:
		inspectExpr(x.Len, f)
		inspectExpr(x.Elem, f)
	case *EllipsisType:
		inspectExpr(x.Elem, f)
	case *MapType:
		inspectExpr(x.Key, f)
		inspectExpr(x.Value, f)
	case *BitFieldType:
		inspectExpr(x.Backing, f)
		for _, bf := range x.Fields {
			Inspect(bf.Name, f)
			inspectExpr(bf.Type, f)
			inspectExpr(bf.Bits, f)
		}
	case *StructType:
		inspectFields(x.Fields, f)
	case *UnionType:
		inspectFields(x.Fields, f)
	case *EnumType:
		inspectExpr(x.Base, f)
		for _, ef := range x.Fields {
			inspectExpr(ef.Value, f)
		}
	case *ProcType:
		inspectFields(x.Params, f)
		inspectFields(x.Results, f)

	case *BadStmt, *BranchStmt:
	case *DeclStmt:
		Inspect(x.Decl, f)
	case *ExprStmt:
		inspectExpr(x.X, f)
	case *AssignStmt:
		inspectExprs(x.Lhs, f)
		inspectExprs(x.Rhs, f)
	case *BlockStmt:
		for _, s := range x.List {
			Inspect(s, f)
		}
	case *IfStmt:
		inspectStmt(x.Init, f)
		inspectExpr(x.Cond, f)
		Inspect(x.Body, f)
		inspectStmt(x.Else, f)
	case *ForStmt:
		inspectStmt(x.Init, f)
		inspectExpr(x.Cond, f)
		inspectStmt(x.Post, f)
		Inspect(x.Body, f)
	case *ReturnStmt:
		inspectExprs(x.Results, f)
	case *DeferStmt:
		inspectStmt(x.Stmt, f)
	case *MatchStmt:
		Inspect(x.Var, f)
		inspectExpr(x.Tag, f)
		for _, c := range x.Clauses {
			Inspect(c, f)
		}
	case *CaseClause:
		inspectExprs(x.Types, f)
		for _, s := range x.Body {
			Inspect(s, f)
		}
	case *UsingStmt:
		inspectExprs(x.List, f)
		if x.Decl != nil {
			Inspect(x.Decl, f)
		}
	default:
		panic("internal compiler error: Inspect: unexpected node")
	}
}

// The helpers below avoid passing typed nil pointers as non-nil interfaces.

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectStmt(s Stmt, f func(Node) bool) {
	if s != nil {
		Inspect(s, f)
	}
}

func inspectExprs(list []Expr, f func(Node) bool) {
	for _, e := range list {
		inspectExpr(e, f)
	}
}

func inspectFields(list []*Field, f func(Node) bool) {
	for _, fld := range list {
		Inspect(fld, f)
	}
}
