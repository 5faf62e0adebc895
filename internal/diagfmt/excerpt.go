package diagfmt

import (
	"fmt"

	"fortio.org/safecast"
	"github.com/mattn/go-runewidth"

	"odinc/internal/source"
)

// lineBounds returns the byte range of line (1-based) without its newline.
func lineBounds(f *source.File, line uint32) (start, end uint32) {
	size, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("file content overflow: %w", err))
	}
	if line == 0 {
		return 0, 0
	}
	start = 0
	if line >= 2 && int(line-2) < len(f.LineIdx) {
		start = f.LineIdx[line-2] + 1
	} else if line >= 2 {
		return size, size
	}
	end = size
	if int(line-1) < len(f.LineIdx) {
		end = f.LineIdx[line-1]
	}
	return start, end
}

func lineText(f *source.File, line uint32) string {
	start, end := lineBounds(f, line)
	return expandTabs(string(f.Content[start:end]))
}

// displayCol converts a 1-based byte column on line into a 0-based
// terminal column, counting wide runes twice and tabs as four cells.
func displayCol(f *source.File, line, col uint32) int {
	start, end := lineBounds(f, line)
	off := min(start+col-1, end)
	return runewidth.StringWidth(expandTabs(string(f.Content[start:off])))
}

func expandTabs(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\t' {
			out = append(out, ' ', ' ', ' ', ' ')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// underline builds the marker for a span covering [from, to) display
// columns; empty spans still get one caret.
func underline(from, to int) string {
	if to <= from {
		to = from + 1
	}
	buf := make([]byte, 0, to)
	for range from {
		buf = append(buf, ' ')
	}
	buf = append(buf, '^')
	for i := from + 1; i < to; i++ {
		buf = append(buf, '~')
	}
	return string(buf)
}
