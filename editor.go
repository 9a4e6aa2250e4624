package main

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/keymagic/kmsedit/internal/document"
)

// Editor holds the caret and scroll position for one open document. All
// edits go through the document so its modified flag stays correct.
type Editor struct {
	doc     *document.Document
	row     int // caret line
	col     int // caret column in runes
	scrollY int // first visible line
}

// NewEditor creates an editor with the caret at the start of d.
func NewEditor(d *document.Document) *Editor {
	return &Editor{doc: d}
}

// Document returns the edited document.
func (e *Editor) Document() *document.Document {
	return e.doc
}

// Caret returns the caret line and rune column.
func (e *Editor) Caret() (row, col int) {
	return e.row, e.col
}

// Line returns the caret line as runes.
func (e *Editor) Line() []rune {
	lines := e.doc.Lines()
	if e.row < 0 || e.row >= len(lines) {
		return nil
	}
	return []rune(lines[e.row])
}

// offset converts a line and rune column into a byte offset in the buffer.
func (e *Editor) offset(row, col int) int {
	lines := e.doc.Lines()
	off := 0
	for i := 0; i < row && i < len(lines); i++ {
		off += len(lines[i]) + 1
	}
	if row < len(lines) {
		runes := []rune(lines[row])
		col = min(col, len(runes))
		off += len(string(runes[:col]))
	}
	return off
}

// Insert types s at the caret. s may contain newlines.
func (e *Editor) Insert(s string) {
	e.doc.Insert(e.offset(e.row, e.col), s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		e.row += strings.Count(s, "\n")
		e.col = len([]rune(s[i+1:]))
		return
	}
	e.col += len([]rune(s))
}

// Replace swaps the runes between column from and the caret for s. It is
// how an accepted completion replaces the word being typed.
func (e *Editor) Replace(from int, s string) {
	from = max(min(from, e.col), 0)
	e.doc.Delete(e.offset(e.row, from), e.offset(e.row, e.col))
	e.col = from
	e.Insert(s)
}

// Backspace deletes the rune before the caret, joining lines at column 0.
func (e *Editor) Backspace() {
	switch {
	case e.col > 0:
		end := e.offset(e.row, e.col)
		e.col--
		e.doc.Delete(e.offset(e.row, e.col), end)
	case e.row > 0:
		prev := len([]rune(e.doc.Lines()[e.row-1]))
		end := e.offset(e.row, 0)
		e.doc.Delete(end-1, end)
		e.row--
		e.col = prev
	}
}

// DeleteForward deletes the rune after the caret, joining lines at the end
// of a line.
func (e *Editor) DeleteForward() {
	start := e.offset(e.row, e.col)
	if e.col < len(e.Line()) {
		e.doc.Delete(start, e.offset(e.row, e.col+1))
		return
	}
	e.doc.Delete(start, start+1)
}

// MoveLeft moves the caret back one rune, wrapping to the previous line.
func (e *Editor) MoveLeft() {
	if e.col > 0 {
		e.col--
	} else if e.row > 0 {
		e.row--
		e.col = len(e.Line())
	}
}

// MoveRight moves the caret forward one rune, wrapping to the next line.
func (e *Editor) MoveRight() {
	if e.col < len(e.Line()) {
		e.col++
	} else if e.row < len(e.doc.Lines())-1 {
		e.row++
		e.col = 0
	}
}

// MoveVertical moves the caret n lines down (negative for up).
func (e *Editor) MoveVertical(n int) {
	e.row = clamp(e.row+n, 0, len(e.doc.Lines())-1)
	e.col = min(e.col, len(e.Line()))
}

// Home moves the caret to the start of the line.
func (e *Editor) Home() {
	e.col = 0
}

// End moves the caret to the end of the line.
func (e *Editor) End() {
	e.col = len(e.Line())
}

// Clamp pulls the caret back inside the buffer after an outside change.
func (e *Editor) Clamp() {
	e.row = clamp(e.row, 0, len(e.doc.Lines())-1)
	e.col = clamp(e.col, 0, len(e.Line()))
}

// MoveTo puts the caret at row and rune column col, clamped to the buffer.
func (e *Editor) MoveTo(row, col int) {
	e.row, e.col = row, col
	e.Clamp()
}

// ColumnAt returns the rune column on row whose cell span covers x cells
// into the text. Past the end it returns the line length.
func (e *Editor) ColumnAt(row, x int) int {
	lines := e.doc.Lines()
	if row < 0 || row >= len(lines) {
		return 0
	}
	w := 0
	for i, r := range []rune(lines[row]) {
		w += ansi.StringWidth(string(r))
		if w > x {
			return i
		}
	}
	return len([]rune(lines[row]))
}
