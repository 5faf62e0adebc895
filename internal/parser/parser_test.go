package parser

import (
	"testing"

	"odinc/internal/ast"
	"odinc/internal/diag"
	"odinc/internal/source"
	"odinc/internal/token"
)

func parseSrc(t *testing.T, src string) (*ast.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.odin", []byte(src))
	bag := diag.NewBag(50)
	f := ParseFile(fs, id, Options{Reporter: diag.BagReporter{Bag: bag}})
	return f, bag
}

func mustParse(t *testing.T, src string) *ast.File {
	t.Helper()
	f, bag := parseSrc(t, src)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	return f
}

func TestTopLevelDecls(t *testing.T) {
	f := mustParse(t, `
Vec :: struct #reorder { x, y: f32, using base: Base, K :: 3 }
Shape :: union { circle: Circle, square: ^Square }
Color :: enum u8 { Red, Green = 4, Blue, }
count : int = 10;
name := "odin";
puts :: proc "c" (s: ^u8) -> i32 #foreign "puts";
@(deferred_in=close)
open :: proc(path: string, #no_alias buf: ^u8, args: ..int) -> (h: int, ok: bool) {
	return 0, true;
}
`)
	if len(f.Decls) != 7 {
		t.Fatalf("expected 7 decls, got %d", len(f.Decls))
	}
	st, ok := f.Decls[0].Values[0].(*ast.StructType)
	if !ok || !st.Reorder || len(st.Fields) != 3 || !st.Fields[1].Using || !st.Fields[2].IsConst() {
		t.Fatalf("bad struct: %+v", f.Decls[0].Values[0])
	}
	et := f.Decls[2].Values[0].(*ast.EnumType)
	if len(et.Fields) != 3 || et.Fields[1].Value == nil {
		t.Fatalf("bad enum: %+v", et)
	}
	if f.Decls[3].Const || f.Decls[3].Type == nil {
		t.Fatalf("bad var decl: %+v", f.Decls[3])
	}
	foreign := f.Decls[5].Values[0].(*ast.ProcLit)
	if !foreign.Foreign || foreign.ForeignName != "puts" || foreign.Type.CallConv != "c" {
		t.Fatalf("bad foreign proc: %+v", foreign)
	}
	open := f.Decls[6]
	if len(open.Attrs) != 1 || open.Attrs[0].Key.Name != "deferred_in" || open.Attrs[0].Value.Name != "close" {
		t.Fatalf("bad attrs: %+v", open.Attrs)
	}
	pt := open.Values[0].(*ast.ProcLit).Type
	if len(pt.Params) != 3 || !pt.Params[1].NoAlias || len(pt.Results) != 2 || pt.Results[0].Names[0].Name != "h" {
		t.Fatalf("bad proc type: %s", ast.ExprString(pt))
	}
	if _, ok := pt.Params[2].Type.(*ast.EllipsisType); !ok {
		t.Fatalf("variadic param not parsed: %s", ast.ExprString(pt.Params[2].Type))
	}
}

func TestPrecedence(t *testing.T) {
	f := mustParse(t, "x :: 1 + 2 * 3 << 1 == 7 || a && b;\ny :: p^.x as int + 1;")
	if got := ast.ExprString(f.Decls[0].Values[0]); got != "1 + 2 * 3 << 1 == 7 || a && b" {
		t.Fatalf("unexpected rendering %q", got)
	}
	or := f.Decls[0].Values[0].(*ast.BinaryExpr)
	if or.Op != token.CmpOr {
		t.Fatalf("expected || at the root, got %s", or.Op)
	}
	add := f.Decls[1].Values[0].(*ast.BinaryExpr)
	if add.Op != token.Add {
		t.Fatalf("expected + at the root, got %s", add.Op)
	}
	if cast, ok := add.X.(*ast.BinaryExpr); !ok || cast.Op != token.KwAs {
		t.Fatalf("expected as to bind tighter than +: %s", ast.ExprString(add))
	}
}

func TestCompositeLiteralInIfHeader(t *testing.T) {
	f := mustParse(t, `
main :: proc() {
	v := Vec{x = 1, y = 2};
	arr := [..]int{1, 2, 3};
	if v.x == 1 { v.y = 3; } else if ok { }
	for i := 0; i < 3; i += 1 { arr[i] = i; }
	s := arr[1:2];
	grid := [2][2]int{{1, 2}, {3, 4}};
	f(s..);
	defer free(p);
}
`)
	body := f.Decls[0].Values[0].(*ast.ProcLit).Body
	if len(body.List) != 8 {
		t.Fatalf("expected 8 statements, got %d", len(body.List))
	}
	lit := body.List[0].(*ast.DeclStmt).Decl.Values[0].(*ast.CompositeLit)
	if _, ok := lit.Elts[0].(*ast.FieldValue); !ok {
		t.Fatalf("expected field value element, got %T", lit.Elts[0])
	}
	ifs := body.List[2].(*ast.IfStmt)
	if _, ok := ifs.Else.(*ast.IfStmt); !ok {
		t.Fatalf("expected else-if chain")
	}
	grid := body.List[5].(*ast.DeclStmt).Decl.Values[0].(*ast.CompositeLit)
	if inner, ok := grid.Elts[0].(*ast.CompositeLit); !ok || inner.Type != nil {
		t.Fatalf("nested literal should be untyped: %T", grid.Elts[0])
	}
	call := body.List[6].(*ast.ExprStmt).X.(*ast.CallExpr)
	if !call.Spread {
		t.Fatalf("spread not recorded")
	}
	if _, ok := body.List[7].(*ast.DeferStmt); !ok {
		t.Fatalf("expected defer, got %T", body.List[7])
	}
}

func TestSyntaxErrorsRecover(t *testing.T) {
	f, bag := parseSrc(t, "a :: ;\nb :: 2;\nc d;\ne :: 3;")
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}
	names := map[string]bool{}
	for _, d := range f.Decls {
		names[d.Names[0].Name] = true
	}
	if !names["b"] || !names["e"] {
		t.Fatalf("parser did not recover: %v", names)
	}
}

func TestMapSoAAndBitFieldTypes(t *testing.T) {
	f := mustParse(t, `
Flags :: bit_field u16 { mode: u8 | 3, on: bool | 1, level: i8 | 5 }
Table :: map[string]int;
Points :: #soa [8]Point;
`)
	bf, ok := f.Decls[0].Values[0].(*ast.BitFieldType)
	if !ok || len(bf.Fields) != 3 || bf.Fields[1].Name.Name != "on" || bf.Fields[2].Bits == nil {
		t.Fatalf("bad bit_field: %+v", f.Decls[0].Values[0])
	}
	mt, ok := f.Decls[1].Values[0].(*ast.MapType)
	if !ok || ast.ExprString(mt) != "map[string]int" {
		t.Fatalf("bad map type: %+v", f.Decls[1].Values[0])
	}
	at, ok := f.Decls[2].Values[0].(*ast.ArrayType)
	if !ok || !at.SoA || ast.ExprString(at) != "#soa [8]Point" {
		t.Fatalf("bad soa type: %+v", f.Decls[2].Values[0])
	}
}

func TestSoARejectsOpenArray(t *testing.T) {
	_, bag := parseSrc(t, "P :: #soa [..]Point;\n")
	if bag.Len() == 0 {
		t.Fatal("expected a diagnostic for #soa [..]T")
	}
}

func TestMatchAndUsingStatements(t *testing.T) {
	f := mustParse(t, `
main :: proc() {
	match v in s {
	case int, f64:
		n := 1;
	case ^Node:
	default:
		break;
	}
	using p;
	using e: Entity;
}
`)
	body := f.Decls[0].Values[0].(*ast.ProcLit).Body
	if len(body.List) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(body.List))
	}
	ms, ok := body.List[0].(*ast.MatchStmt)
	if !ok || ms.Var.Name != "v" || ast.ExprString(ms.Tag) != "s" || len(ms.Clauses) != 3 {
		t.Fatalf("bad match: %+v", body.List[0])
	}
	if len(ms.Clauses[0].Types) != 2 || len(ms.Clauses[0].Body) != 1 {
		t.Fatalf("bad first clause: %+v", ms.Clauses[0])
	}
	if got := ast.ExprString(ms.Clauses[1].Types[0]); got != "^Node" {
		t.Fatalf("second clause type = %q", got)
	}
	if len(ms.Clauses[2].Types) != 0 || len(ms.Clauses[2].Body) != 1 {
		t.Fatalf("bad default clause: %+v", ms.Clauses[2])
	}
	if u, ok := body.List[1].(*ast.UsingStmt); !ok || len(u.List) != 1 || u.Decl != nil {
		t.Fatalf("bad using: %+v", body.List[1])
	}
	if u, ok := body.List[2].(*ast.UsingStmt); !ok || u.Decl == nil || u.Decl.Names[0].Name != "e" {
		t.Fatalf("bad using declaration: %+v", body.List[2])
	}
}
