package ir

import (
	"strings"
	"testing"
)

func TestEscapeName(t *testing.T) {
	cases := map[string]string{
		"main":        "main",
		"..string":    "..string",
		"a b":         `"a\20b"`,
		"pkg::proc":   `"pkg\3A\3Aproc"`,
		"1st":         `"1st"`,
		"$x-y_z.0":    "$x-y_z.0",
		"caf\xc3\xa9": `"caf\C3\A9"`,
	}
	for in, want := range cases {
		if got := EscapeName(in); got != want {
			t.Errorf("EscapeName(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestTypeString(t *testing.T) {
	cases := []struct {
		t    *Type
		want string
	}{
		{I32, "i32"},
		{F32, "float"},
		{Ptr(I8), "i8*"},
		{Array(4, F64), "[4 x double]"},
		{Vector(4, F32), "<4 x float>"},
		{Struct(false, I64, I8P), "{i64, i8*}"},
		{Struct(true, I8, I32), "<{i8, i32}>"},
		{Func(Void, true, I8P), "void (i8*, ...)"},
		{StringT, "%..string"},
	}
	for _, c := range cases {
		if got := c.t.String(); got != c.want {
			t.Errorf("got %s, want %s", got, c.want)
		}
	}
	if !Struct(false, I32, Ptr(I8)).Equal(Struct(false, I32, I8P)) {
		t.Fatalf("structural equality failed")
	}
	if Struct(true, I32).Equal(Struct(false, I32)) {
		t.Fatalf("packed and unpacked structs compare equal")
	}
}

func buildAdd(m *Module) *Proc {
	p := m.NewProc("add", Func(I64, false, I64, I64), []string{"x", "y"})
	b := NewBuilder(p)
	slot := b.Alloca(I64, 8, "sum")
	s := b.Binary(Add, p.Params[0], p.Params[1])
	b.Store(s, slot)
	v := b.Load(I64, slot)
	b.Ret(v)
	b.Finish()
	return p
}

func TestBuilderPlacesAllocasInDeclBlock(t *testing.T) {
	m := NewModule("test", "x86_64-pc-linux-gnu", "")
	p := buildAdd(m)
	if p.Blocks[0] != p.DeclBlock {
		t.Fatalf("decl block is not first")
	}
	d := p.DeclBlock.Instrs
	if len(d) != 2 || d[0].Op != OpAlloca || d[1].Op != OpBr {
		t.Fatalf("decl block = %v", d)
	}
	if len(p.Entry.Preds) != 1 || p.Entry.Preds[0] != p.DeclBlock {
		t.Fatalf("entry preds = %v", p.Entry.Preds)
	}
	if err := Validate(m); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestBuilderOpensDeadBlockAfterTerminator(t *testing.T) {
	m := NewModule("test", "", "")
	p := m.NewProc("f", Func(Void, false), nil)
	b := NewBuilder(p)
	b.Ret(nil)
	b.Alloca(I32, 4, "")
	b.Store(ConstI(I32, 1), Null(Ptr(I32)))
	b.Finish()
	if len(p.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(p.Blocks))
	}
	last := p.Blocks[2]
	if last.Terminator().Op != OpUnreachable {
		t.Fatalf("dead block not padded with unreachable")
	}
	if err := Validate(m); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateReportsBrokenBodies(t *testing.T) {
	m := NewModule("test", "", "")
	p := m.NewProc("broken", Func(Void, false), nil)
	b := NewBuilder(p)
	other := m.NewProc("other", Func(Void, false), nil)
	foreign := other.NewBlock("elsewhere")
	b.Br(foreign)

	stray := p.NewBlock("stray")
	stray.Instrs = append(stray.Instrs, &Instr{Op: OpAlloca, Typ: Ptr(I8), Elem: I8, block: stray})

	err := Validate(m)
	if err == nil {
		t.Fatalf("expected errors")
	}
	msg := err.Error()
	for _, want := range []string{
		"procedure broken",
		"stray: unterminated block",
		"stray: alloca outside the decl block",
		"refers to block elsewhere of another procedure",
		"procedure other",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestPrintModule(t *testing.T) {
	m := NewModule("demo", "x86_64-pc-linux-gnu", "e-m:e-i64:64-n8:16:32:64-S128")
	td, fresh := m.DefineType("demo.Point")
	if !fresh {
		t.Fatalf("first definition reported as existing")
	}
	td.Body = Struct(false, F32, F32)
	if _, again := m.DefineType("demo.Point"); again {
		t.Fatalf("redefinition reported as fresh")
	}
	m.DefineType("demo.Opaque")

	str := m.NewGlobal("str.0", Array(3, I8), Bytes([]byte("hi\n")))
	str.Constant, str.Private = true, true
	m.NewGlobal("counter", I64, nil).Align = 8

	puts := m.NewProc("puts", Func(I32, false, I8P), nil)
	puts.CallConv = "ccc"
	buildAdd(m)

	mainP := m.NewProc("main", Func(I32, false), nil)
	b := NewBuilder(mainP)
	b.Call(puts.Sig, puts.Ref(), ConstGEP(Array(3, I8), str, I8P, 0, 0))
	then, done := mainP.NewBlock("then"), mainP.NewBlock("done")
	c := b.Cmp(SLT, ConstI(I64, 1), ConstI(I64, 2))
	b.CondBr(c, then, done)
	b.SetBlock(then)
	b.Br(done)
	b.SetBlock(done)
	r := b.Phi(I32, []Value{ConstI(I32, 0), ConstI(I32, 1)}, []*Block{mainP.Entry, then})
	b.Ret(r)
	b.Finish()
	m.DebugInfo = true

	if err := Validate(m); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	out := m.String()
	for _, want := range []string{
		`target triple = "x86_64-pc-linux-gnu"`,
		`target datalayout = "e-m:e-i64:64-n8:16:32:64-S128"`,
		"%..string = type {i8*, i64}",
		"%..any = type {%..rawptr, i64}",
		"%demo.Point = type {float, float}",
		"%demo.Opaque = type opaque",
		`@str.0 = private unnamed_addr constant [3 x i8] c"hi\0A"`,
		"@counter = global i64 zeroinitializer, align 8",
		"declare ccc i32 @puts(i8*)",
		"define i64 @add(i64 %x, i64 %y) {",
		"%sum = alloca i64, align 8",
		"%0 = add i64 %x, %y",
		"store i64 %0, i64* %sum",
		"%1 = load i64, i64* %sum",
		"ret i64 %1",
		"call i32 @puts(i8* getelementptr inbounds ([3 x i8], [3 x i8]* @str.0, i32 0, i32 0))",
		"icmp slt i64 1, 2",
		"phi i32 [0, %entry], [1, %then]",
		`!0 = !{i32 2, !"Debug Info Version", i32 3}`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestPrintConstants(t *testing.T) {
	m := NewModule("c", "", "")
	p := &printer{m: m}
	if got := p.constant(ConstF(F64, 1.0)); got != "0x3FF0000000000000" {
		t.Fatalf("double = %s", got)
	}
	if got := p.constant(ConstF(F32, 0.1)); got != "0x3FB99999A0000000" {
		t.Fatalf("float = %s", got)
	}
	if got := p.constant(ConstBool(true)); got != "true" {
		t.Fatalf("bool = %s", got)
	}
	v := Aggregate(Vector(2, I32), ConstI(I32, 1), ConstI(I32, 2))
	if got := p.constant(v); got != "<i32 1, i32 2>" {
		t.Fatalf("vector = %s", got)
	}
	s := Aggregate(Struct(true, I8, I32), ConstI(I8, 1), Zero(I32))
	if got := p.constant(s); got != "<{i8 1, i32 zeroinitializer}>" {
		t.Fatalf("packed = %s", got)
	}
}
