package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

var (
	cursorStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("255")).
			Foreground(lipgloss.Color("0"))
	lineNumStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// gutterWidth is the width of the line number column for n lines.
func gutterWidth(n int) int {
	return len(fmt.Sprint(n)) + 1
}

// scrollToCaret adjusts the scroll so the caret line is one of h visible
// lines.
func (e *Editor) scrollToCaret(h int) {
	if e.row < e.scrollY {
		e.scrollY = e.row
	}
	if e.row >= e.scrollY+h {
		e.scrollY = e.row - h + 1
	}
}

// ScreenCaret returns the caret's cell position relative to the top-left
// of the editor area, as last rendered.
func (e *Editor) ScreenCaret() (x, y int) {
	lines := e.doc.Lines()
	line := []rune(lines[min(e.row, len(lines)-1)])
	return gutterWidth(len(lines)) + ansi.StringWidth(string(line[:min(e.col, len(line))])), e.row - e.scrollY
}

// Render draws h lines of the document, w cells wide, with line numbers and
// the caret.
func (e *Editor) Render(w, h int) string {
	lines := e.doc.Lines()
	e.scrollToCaret(h)

	gw := gutterWidth(len(lines))
	textW := max(w-gw, 1)

	out := make([]string, h)
	for i := 0; i < h; i++ {
		idx := e.scrollY + i
		if idx >= len(lines) {
			out[i] = strings.Repeat(" ", w)
			continue
		}
		num := lineNumStyle.Render(fmt.Sprintf("%*d ", gw-1, idx+1))
		runes := []rune(lines[idx])
		var text string
		if idx == e.row {
			text = renderCaretLine(runes, e.col, textW)
		} else {
			text = fitWidth(string(runes), textW)
		}
		out[i] = num + text
	}
	return strings.Join(out, "\n")
}

// renderCaretLine renders a line with the caret highlighted at col, keeping
// the caret visible when the line is wider than w.
func renderCaretLine(runes []rune, col, w int) string {
	col = clamp(col, 0, len(runes))
	start := 0
	if col >= w {
		start = col - w + 1
	}
	runes = runes[start:]
	col -= start

	caret := " "
	after := ""
	if col < len(runes) {
		caret = string(runes[col])
		after = string(runes[col+1:])
	}
	return fitWidth(string(runes[:col])+cursorStyle.Render(caret)+after, w)
}
