package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"odinc/internal/source"
)

// ShortOpts controls FormatShort output.
type ShortOpts struct {
	Color        bool
	IncludeNotes bool
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.Faint)
)

// FormatShort renders one line per diagnostic: "path:line:col: SEV ID: message".
func FormatShort(items []Diagnostic, fs *source.FileSet, opts ShortOpts) string {
	var sb strings.Builder
	for _, d := range items {
		sev := d.Severity.String()
		if opts.Color {
			sev = severityColor(d.Severity).Sprint(sev)
		}
		fmt.Fprintf(&sb, "%s: %s %s: %s\n", position(fs, d.Primary), sev, d.Code.ID(), d.Message)
		if !opts.IncludeNotes {
			continue
		}
		for _, n := range d.Notes {
			label := "note"
			if opts.Color {
				label = noteColor.Sprint(label)
			}
			fmt.Fprintf(&sb, "  %s: %s: %s\n", position(fs, n.Span), label, n.Msg)
		}
	}
	return sb.String()
}

// WriteShort writes the sorted contents of bag to w.
func WriteShort(w io.Writer, bag *Bag, fs *source.FileSet, opts ShortOpts) error {
	if bag == nil || bag.Len() == 0 {
		return nil
	}
	bag.Sort()
	_, err := io.WriteString(w, FormatShort(bag.Items(), fs, opts))
	return err
}

func severityColor(s Severity) *color.Color {
	switch s {
	case SevError:
		return errorColor
	case SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

func position(fs *source.FileSet, sp source.Span) string {
	if fs == nil {
		return sp.String()
	}
	return fs.Position(sp)
}
