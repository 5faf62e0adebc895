package ir

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

func (m *Module) preamble() string {
	bits := m.IntBits
	if bits == 0 {
		bits = 64
	}
	str := fmt.Sprintf("{i8*, i%d}", bits)
	if m.StringPad > 0 {
		str = fmt.Sprintf("{i8*, [%d x i8], i%d}", m.StringPad, bits)
	}
	return fmt.Sprintf(`%%..string = type %s
%%..rawptr = type i8*
%%..any = type {%%..rawptr, i%d}
%%..complex64 = type {float, float}
%%..complex128 = type {double, double}
`, str, bits)
}

// Print writes m as LLVM assembly.
func Print(w io.Writer, m *Module) error {
	p := &printer{m: m}
	p.module()
	_, err := io.WriteString(w, p.buf.String())
	return err
}

// String renders m as LLVM assembly.
func (m *Module) String() string {
	p := &printer{m: m}
	p.module()
	return p.buf.String()
}

func nameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '$' || c == '.' || c == '-' || c == '_'
}

// EscapeName makes s a valid LLVM identifier body. Names containing other
// bytes, or starting with a digit, are quoted with \XX escapes.
func EscapeName(s string) string {
	plain := s != "" && !(s[0] >= '0' && s[0] <= '9')
	for i := 0; i < len(s) && plain; i++ {
		plain = nameChar(s[i])
	}
	if plain {
		return s
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if nameChar(c) {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", c)
	}
	sb.WriteByte('"')
	return sb.String()
}

type printer struct {
	m   *Module
	buf strings.Builder

	// per-procedure value names
	names  map[Value]string
	blocks map[*Block]string
	used   map[string]int
	next   int
}

func (p *printer) module() {
	m := p.m
	if m == nil {
		return
	}
	fmt.Fprintf(&p.buf, "; ModuleID = '%s'\n", m.Name)
	fmt.Fprintf(&p.buf, "source_filename = %q\n", m.Name)
	if m.DataLayoutHint != "" {
		fmt.Fprintf(&p.buf, "target datalayout = %q\n", m.DataLayoutHint)
	}
	if m.Triple != "" {
		fmt.Fprintf(&p.buf, "target triple = %q\n", m.Triple)
	}
	p.buf.WriteString("\n")
	p.buf.WriteString(m.preamble())

	for _, td := range m.Types {
		fmt.Fprintf(&p.buf, "%%%s = type ", EscapeName(td.Name))
		if td.Body == nil {
			p.buf.WriteString("opaque\n")
			continue
		}
		writeType(&p.buf, td.Body)
		p.buf.WriteByte('\n')
	}
	if len(m.Globals) > 0 {
		p.buf.WriteByte('\n')
	}
	for _, g := range m.Globals {
		p.global(g)
	}
	for _, pr := range m.Procs {
		p.buf.WriteByte('\n')
		p.proc(pr)
	}
	if m.DebugInfo {
		p.buf.WriteString("\n!llvm.module.flags = !{!0}\n")
		p.buf.WriteString("!0 = !{i32 2, !\"Debug Info Version\", i32 3}\n")
	}
}

func (p *printer) global(g *Global) {
	fmt.Fprintf(&p.buf, "@%s = ", EscapeName(g.Name))
	switch {
	case g.External:
		p.buf.WriteString("external ")
	case g.Private:
		p.buf.WriteString("private unnamed_addr ")
	}
	if g.Constant {
		p.buf.WriteString("constant ")
	} else {
		p.buf.WriteString("global ")
	}
	writeType(&p.buf, g.Elem)
	if !g.External {
		p.buf.WriteByte(' ')
		if g.Init == nil {
			p.buf.WriteString("zeroinitializer")
		} else {
			p.buf.WriteString(p.ref(g.Init))
		}
	}
	if g.Align > 0 {
		fmt.Fprintf(&p.buf, ", align %d", g.Align)
	}
	p.buf.WriteByte('\n')
}

func (p *printer) proc(pr *Proc) {
	p.names = make(map[Value]string)
	p.blocks = make(map[*Block]string)
	p.used = make(map[string]int)
	p.next = 0

	kw := "define"
	if pr.IsDecl() {
		kw = "declare"
	}
	p.buf.WriteString(kw)
	if pr.CallConv != "" {
		p.buf.WriteByte(' ')
		p.buf.WriteString(pr.CallConv)
	}
	p.buf.WriteByte(' ')
	writeType(&p.buf, pr.Sig.Ret)
	fmt.Fprintf(&p.buf, " @%s(", EscapeName(pr.Name))
	for i, prm := range pr.Params {
		if i > 0 {
			p.buf.WriteString(", ")
		}
		writeType(&p.buf, prm.Typ)
		if prm.NoAlias {
			p.buf.WriteString(" noalias")
		}
		if !pr.IsDecl() {
			p.buf.WriteByte(' ')
			p.buf.WriteString(p.local(prm, prm.Name))
		}
	}
	if pr.Sig.Variadic {
		if len(pr.Params) > 0 {
			p.buf.WriteString(", ")
		}
		p.buf.WriteString("...")
	}
	p.buf.WriteByte(')')
	if pr.IsDecl() {
		p.buf.WriteByte('\n')
		return
	}
	p.buf.WriteString(" {\n")

	for _, b := range pr.Blocks {
		p.blocks[b] = p.unique(b.Name)
	}
	for _, b := range pr.Blocks {
		for _, in := range b.Instrs {
			if in.HasResult() {
				p.local(in, in.Name)
			}
		}
	}
	for i, b := range pr.Blocks {
		if i > 0 {
			p.buf.WriteByte('\n')
		}
		fmt.Fprintf(&p.buf, "%s:\n", EscapeName(p.blocks[b]))
		for _, in := range b.Instrs {
			p.buf.WriteString("  ")
			p.instr(in)
			p.buf.WriteByte('\n')
		}
	}
	p.buf.WriteString("}\n")
}

func (p *printer) unique(name string) string {
	if name == "" {
		name = "bb"
	}
	n, seen := p.used[name]
	p.used[name] = n + 1
	if !seen {
		return name
	}
	return name + "." + strconv.Itoa(n)
}

// local assigns a %name to v. Unnamed values take the next number.
func (p *printer) local(v Value, name string) string {
	if s, ok := p.names[v]; ok {
		return s
	}
	var s string
	if name == "" {
		s = "%" + strconv.Itoa(p.next)
		p.next++
	} else {
		s = "%" + EscapeName(p.unique(name))
	}
	p.names[v] = s
	return s
}

// ref prints an operand without its type.
func (p *printer) ref(v Value) string {
	switch v := v.(type) {
	case *Const:
		return p.constant(v)
	case *Global:
		return "@" + EscapeName(v.Name)
	case *ProcRef:
		return "@" + EscapeName(v.Proc.Name)
	case *Block:
		return "%" + EscapeName(p.blocks[v])
	case *Param, *Instr:
		if s, ok := p.names[v]; ok {
			return s
		}
		return "undef"
	}
	panic(fmt.Sprintf("internal compiler error: unknown IR value %T", v))
}

// typed prints "T v".
func (p *printer) typed(v Value) string {
	var sb strings.Builder
	writeType(&sb, v.Type())
	sb.WriteByte(' ')
	sb.WriteString(p.ref(v))
	return sb.String()
}

func (p *printer) label(b *Block) string { return "label %" + EscapeName(p.blocks[b]) }

func (p *printer) constant(c *Const) string {
	switch c.Kind {
	case ConstInt:
		if c.Typ.Bits == 1 {
			if c.Int.Sign() != 0 {
				return "true"
			}
			return "false"
		}
		return c.Int.String()
	case ConstFloat:
		v := c.Float
		if c.Typ.Bits == 32 {
			v = float64(float32(v))
		}
		return fmt.Sprintf("0x%016X", math.Float64bits(v))
	case ConstNull:
		return "null"
	case ConstZero:
		return "zeroinitializer"
	case ConstUndef:
		return "undef"
	case ConstBytes:
		return "c\"" + escapeBytes(c.Bytes) + "\""
	case ConstAggregate:
		open, close := "{", "}"
		t := c.Typ
		for t.Kind == TypeNamed {
			td := p.m.LookupType(t.Name)
			if td == nil || td.Body == nil {
				break
			}
			t = td.Body
		}
		switch t.Kind {
		case TypeArray:
			open, close = "[", "]"
		case TypeVector:
			open, close = "<", ">"
		case TypeStruct:
			if t.Packed {
				open, close = "<{", "}>"
			}
		}
		parts := make([]string, len(c.Elems))
		for i, e := range c.Elems {
			parts[i] = p.typed(e)
		}
		return open + strings.Join(parts, ", ") + close
	case ConstExpr:
		if c.Op == OpGEP {
			var sb strings.Builder
			sb.WriteString("getelementptr inbounds (")
			writeType(&sb, c.Elem)
			sb.WriteString(", ")
			sb.WriteString(p.typed(c.Operand))
			for _, idx := range c.Indices {
				fmt.Fprintf(&sb, ", i32 %d", idx)
			}
			sb.WriteByte(')')
			return sb.String()
		}
		return fmt.Sprintf("%s (%s to %s)", c.Conv, p.typed(c.Operand), c.Typ)
	}
	panic(fmt.Sprintf("internal compiler error: unknown constant kind %d", c.Kind))
}

func escapeBytes(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c < 0x7f && c != '"' && c != '\\' {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", c)
	}
	return sb.String()
}

func (p *printer) instr(in *Instr) {
	b := &p.buf
	if in.HasResult() {
		b.WriteString(p.names[in])
		b.WriteString(" = ")
	}
	switch in.Op {
	case OpAlloca:
		fmt.Fprintf(b, "alloca %s", in.Elem)
		if in.Align > 0 {
			fmt.Fprintf(b, ", align %d", in.Align)
		}
	case OpLoad:
		if in.Atomic {
			fmt.Fprintf(b, "load atomic %s, %s seq_cst, align %d", in.Elem, p.typed(in.Args[0]), max(in.Align, 1))
			return
		}
		fmt.Fprintf(b, "load %s, %s", in.Elem, p.typed(in.Args[0]))
		if in.Align > 0 {
			fmt.Fprintf(b, ", align %d", in.Align)
		}
	case OpStore:
		if in.Atomic {
			fmt.Fprintf(b, "store atomic %s, %s seq_cst, align %d", p.typed(in.Args[0]), p.typed(in.Args[1]), max(in.Align, 1))
			return
		}
		fmt.Fprintf(b, "store %s, %s", p.typed(in.Args[0]), p.typed(in.Args[1]))
		if in.Align > 0 {
			fmt.Fprintf(b, ", align %d", in.Align)
		}
	case OpGEP:
		fmt.Fprintf(b, "getelementptr inbounds %s", in.Elem)
		for _, a := range in.Args {
			b.WriteString(", ")
			b.WriteString(p.typed(a))
		}
	case OpBinary:
		fmt.Fprintf(b, "%s %s, %s", in.Bin, p.typed(in.Args[0]), p.ref(in.Args[1]))
	case OpCmp:
		op := "icmp"
		if in.Pred.IsFloat() {
			op = "fcmp"
		}
		fmt.Fprintf(b, "%s %s %s, %s", op, in.Pred, p.typed(in.Args[0]), p.ref(in.Args[1]))
	case OpConv:
		fmt.Fprintf(b, "%s %s to %s", in.Conv, p.typed(in.Args[0]), in.Typ)
	case OpCall:
		fn := in.Elem
		b.WriteString("call ")
		if fn.Variadic {
			b.WriteString(fn.String())
		} else {
			writeType(b, fn.Ret)
		}
		b.WriteByte(' ')
		b.WriteString(p.ref(in.Args[0]))
		b.WriteByte('(')
		for i, a := range in.Args[1:] {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.typed(a))
		}
		b.WriteByte(')')
	case OpSelect:
		fmt.Fprintf(b, "select %s, %s, %s", p.typed(in.Args[0]), p.typed(in.Args[1]), p.typed(in.Args[2]))
	case OpPhi:
		fmt.Fprintf(b, "phi %s ", in.Typ)
		for i, v := range in.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "[%s, %%%s]", p.ref(v), EscapeName(p.blocks[in.Targets[i]]))
		}
	case OpExtractValue:
		fmt.Fprintf(b, "extractvalue %s%s", p.typed(in.Args[0]), indexList(in.Indices))
	case OpInsertValue:
		fmt.Fprintf(b, "insertvalue %s, %s%s", p.typed(in.Args[0]), p.typed(in.Args[1]), indexList(in.Indices))
	case OpExtractElement:
		fmt.Fprintf(b, "extractelement %s, %s", p.typed(in.Args[0]), p.typed(in.Args[1]))
	case OpInsertElement:
		fmt.Fprintf(b, "insertelement %s, %s, %s", p.typed(in.Args[0]), p.typed(in.Args[1]), p.typed(in.Args[2]))
	case OpShuffle:
		mask := make([]string, len(in.Indices))
		for i, m := range in.Indices {
			mask[i] = "i32 " + strconv.FormatInt(m, 10)
		}
		fmt.Fprintf(b, "shufflevector %s, %s, <%d x i32> <%s>", p.typed(in.Args[0]), p.typed(in.Args[1]),
			len(in.Indices), strings.Join(mask, ", "))
	case OpAtomicRMW:
		fmt.Fprintf(b, "atomicrmw %s %s, %s seq_cst", in.Bin, p.typed(in.Args[0]), p.typed(in.Args[1]))
	case OpCmpXchg:
		fmt.Fprintf(b, "cmpxchg %s, %s, %s seq_cst seq_cst", p.typed(in.Args[0]), p.typed(in.Args[1]), p.typed(in.Args[2]))
	case OpBr:
		fmt.Fprintf(b, "br %s", p.label(in.Targets[0]))
	case OpCondBr:
		fmt.Fprintf(b, "br %s, %s, %s", p.typed(in.Args[0]), p.label(in.Targets[0]), p.label(in.Targets[1]))
	case OpRet:
		if len(in.Args) == 0 {
			b.WriteString("ret void")
			return
		}
		fmt.Fprintf(b, "ret %s", p.typed(in.Args[0]))
	case OpUnreachable:
		b.WriteString("unreachable")
	default:
		panic(fmt.Sprintf("internal compiler error: unknown IR op %s", in.Op))
	}
}

func indexList(idx []int64) string {
	var sb strings.Builder
	for _, i := range idx {
		fmt.Fprintf(&sb, ", %d", i)
	}
	return sb.String()
}
