package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"odinc/internal/diag"
	"odinc/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	gutterColor  = color.New(color.FgBlue)
	noteColor    = color.New(color.FgGreen)
)

// Pretty writes every diagnostic of bag as
//
//	path:line:col: SEV CODE: message
//	   3 | source line
//	     |     ^~~~
//
// followed by its notes. The bag is sorted first.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	bag.Sort()
	var sb strings.Builder
	for _, d := range bag.Items() {
		writeHeader(&sb, d, fs, opts)
		writeExcerpt(&sb, d.Primary, fs, opts, sevColor(d.Severity))
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(&sb, "  %s: %s: %s\n", location(n.Span, fs, opts.PathMode), label, n.Msg)
			writeExcerpt(&sb, n.Span, fs, PrettyOpts{Color: opts.Color, Width: opts.Width}, noteColor)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeHeader(sb *strings.Builder, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	sev := strings.ToUpper(d.Severity.String())
	if opts.Color {
		sev = sevColor(d.Severity).Sprint(sev)
	}
	fmt.Fprintf(sb, "%s: %s %s: %s\n", location(d.Primary, fs, opts.PathMode), sev, d.Code.ID(), d.Message)
}

func writeExcerpt(sb *strings.Builder, sp source.Span, fs *source.FileSet, opts PrettyOpts, mark *color.Color) {
	if fs == nil || int(sp.File) >= fs.Len() {
		return
	}
	f := fs.Get(sp.File)
	if len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	first := start.Line
	if opts.Context > 0 {
		first = uint32(max(int(start.Line)-opts.Context, 1))
	}
	width := len(strconv.Itoa(int(start.Line)))
	gutter := func(s string) string {
		if opts.Color {
			return gutterColor.Sprint(s)
		}
		return s
	}
	for ln := first; ln <= start.Line; ln++ {
		text := lineText(f, ln)
		if opts.Width > 0 {
			text = runewidth.Truncate(text, opts.Width, "...")
		}
		fmt.Fprintf(sb, "%s %s\n", gutter(fmt.Sprintf("%*d |", width+2, ln)), text)
	}

	from := displayCol(f, start.Line, start.Col)
	var to int
	if end.Line == start.Line {
		to = displayCol(f, start.Line, end.Col)
	} else {
		to = runewidth.StringWidth(lineText(f, start.Line))
	}
	marker := underline(from, to)
	if opts.Color {
		marker = mark.Sprint(marker)
	}
	fmt.Fprintf(sb, "%s %s\n", gutter(fmt.Sprintf("%*s |", width+2, "")), marker)
}

func location(sp source.Span, fs *source.FileSet, mode PathMode) string {
	if fs == nil || int(sp.File) >= fs.Len() {
		return sp.String()
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(fs.Get(sp.File), mode), start.Line, start.Col)
}

func sevColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}
