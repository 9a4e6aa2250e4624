package main

import (
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// maxLogLines caps the in-memory debug log.
const maxLogLines = 500

// logRing keeps the last maxLogLines lines written to it. It is the
// logger's writer, so it may be written from command goroutines.
type logRing struct {
	mu      sync.Mutex
	lines   []string
	partial string
}

func (r *logRing) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	text := r.partial + string(p)
	parts := strings.Split(text, "\n")
	r.partial = parts[len(parts)-1]
	r.lines = append(r.lines, parts[:len(parts)-1]...)
	if len(r.lines) > maxLogLines {
		r.lines = r.lines[len(r.lines)-maxLogLines:]
	}
	return len(p), nil
}

// Lines returns a copy of the buffered lines.
func (r *logRing) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// DebugPane displays the debug log using a viewport
type DebugPane struct {
	viewport viewport.Model
	log      *logRing
	lastLen  int // for auto-scroll
}

// NewDebugPane creates a debug pane backed by the given log ring
func NewDebugPane(log *logRing) *DebugPane {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true
	return &DebugPane{viewport: vp, log: log}
}

func (d *DebugPane) Title() string {
	return "debug"
}

func (d *DebugPane) Render(w, h int) string {
	d.viewport.Width = w
	d.viewport.Height = h

	lines := d.log.Lines()
	d.viewport.SetContent(strings.Join(lines, "\n"))
	if len(lines) != d.lastLen {
		d.viewport.GotoBottom()
		d.lastLen = len(lines)
	}
	return d.viewport.View()
}

func (d *DebugPane) HandleKey(msg tea.KeyMsg) bool {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return cmd != nil
}

func (d *DebugPane) HandleMouse(x, y int, msg tea.MouseMsg) bool {
	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return cmd != nil
}
