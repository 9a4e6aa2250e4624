package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/cellbuf"
)

// PaneContent is what a floating pane displays.
type PaneContent interface {
	// Render returns the content inside the borders, w by h cells.
	Render(w, h int) string

	// HandleKey processes keyboard input while the pane has focus and
	// reports whether the key was consumed.
	HandleKey(msg tea.KeyMsg) bool

	// HandleMouse processes mouse input at content-relative x, y.
	HandleMouse(x, y int, msg tea.MouseMsg) bool

	Title() string
}

// Pane is a bordered window floating over the editor.
type Pane struct {
	ID      string
	X, Y    int
	Width   int // including borders
	Height  int
	Focused bool
	Content PaneContent

	dragging    bool
	dragOffsetX int
	dragOffsetY int
}

// NewPane creates a pane at x, y with outer size w by h.
func NewPane(id string, content PaneContent, x, y, w, h int) *Pane {
	return &Pane{ID: id, X: x, Y: y, Width: w, Height: h, Content: content}
}

// Contains reports whether screen cell x, y lies on the pane.
func (p *Pane) Contains(x, y int) bool {
	return x >= p.X && x < p.X+p.Width && y >= p.Y && y < p.Y+p.Height
}

// OnTitleBar reports whether x, y is on the pane's top border.
func (p *Pane) OnTitleBar(x, y int) bool {
	return p.Contains(x, y) && y == p.Y
}

// StartDrag begins moving the pane with the mouse.
func (p *Pane) StartDrag(mouseX, mouseY int) {
	p.dragging = true
	p.dragOffsetX = mouseX - p.X
	p.dragOffsetY = mouseY - p.Y
}

// UpdateDrag moves the pane, keeping its title bar on screen.
func (p *Pane) UpdateDrag(mouseX, mouseY, screenW, screenH int) {
	if !p.dragging {
		return
	}
	p.X = clamp(mouseX-p.dragOffsetX, 0, max(screenW-5, 0))
	p.Y = clamp(mouseY-p.dragOffsetY, 0, screenH-1)
}

// StopDrag ends a move.
func (p *Pane) StopDrag() {
	p.dragging = false
}

// Render draws the pane with its border. Focused panes get a double border.
func (p *Pane) Render() string {
	tl, tr, bl, br, h, v := "┌", "┐", "└", "┘", "─", "│"
	if p.Focused {
		tl, tr, bl, br, h, v = "╔", "╗", "╚", "╝", "═", "║"
	}

	contentW := max(p.Width-2, 1)
	contentH := max(p.Height-2, 1)

	content := ""
	title := ""
	if p.Content != nil {
		content = p.Content.Render(contentW, contentH)
		title = p.Content.Title()
	}

	titleRunes := []rune(title)
	if len(titleRunes) > contentW-2 {
		titleRunes = titleRunes[:max(contentW-2, 0)]
	}
	padding := max(contentW-len(titleRunes)-2, 0)

	lines := make([]string, 0, p.Height)
	lines = append(lines, tl+" "+string(titleRunes)+" "+strings.Repeat(h, padding)+tr)

	contentLines := strings.Split(content, "\n")
	for i := 0; i < contentH; i++ {
		line := ""
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines, v+fitWidth(line, contentW)+v)
	}
	lines = append(lines, bl+strings.Repeat(h, contentW)+br)
	return strings.Join(lines, "\n")
}

// fitWidth pads or truncates line to exactly w cells, keeping any styling.
func fitWidth(line string, w int) string {
	n := ansi.StringWidth(line)
	switch {
	case n < w:
		return line + strings.Repeat(" ", w-n)
	case n > w:
		return ansi.Truncate(line, w, "")
	}
	return line
}

// PaneManager tracks the floating panes in stacking order.
type PaneManager struct {
	panes     map[string]*Pane
	zOrder    []string // last = topmost
	focusedID string
	screenW   int
	screenH   int
}

// NewPaneManager creates an empty manager for a screen of w by h cells.
func NewPaneManager(screenW, screenH int) *PaneManager {
	return &PaneManager{
		panes:   make(map[string]*Pane),
		screenW: screenW,
		screenH: screenH,
	}
}

// Add adds a pane on top, replacing any pane with the same ID.
func (pm *PaneManager) Add(pane *Pane) {
	if _, ok := pm.panes[pane.ID]; ok {
		pm.Remove(pane.ID)
	}
	pm.panes[pane.ID] = pane
	pm.zOrder = append(pm.zOrder, pane.ID)
}

// AddCentered adds a pane of outer size w by h in the middle of the screen
// and focuses it.
func (pm *PaneManager) AddCentered(id string, content PaneContent, w, h int) *Pane {
	w = min(w, pm.screenW)
	h = min(h, pm.screenH)
	pane := NewPane(id, content, max((pm.screenW-w)/2, 0), max((pm.screenH-h)/2, 0), w, h)
	pm.Add(pane)
	pm.Focus(id)
	return pane
}

// Remove removes a pane. Removing the focused pane returns keys to the
// editor.
func (pm *PaneManager) Remove(id string) {
	delete(pm.panes, id)
	for i, pid := range pm.zOrder {
		if pid == id {
			pm.zOrder = append(pm.zOrder[:i], pm.zOrder[i+1:]...)
			break
		}
	}
	if pm.focusedID == id {
		pm.focusedID = ""
	}
}

// IDs returns the pane IDs from bottom to top.
func (pm *PaneManager) IDs() []string {
	return append([]string(nil), pm.zOrder...)
}

// Get returns a pane by ID
func (pm *PaneManager) Get(id string) *Pane {
	return pm.panes[id]
}

// Focus focuses a pane and raises it to the top
func (pm *PaneManager) Focus(id string) {
	if p := pm.panes[pm.focusedID]; p != nil {
		p.Focused = false
	}
	pm.focusedID = ""
	p := pm.panes[id]
	if p == nil {
		return
	}
	p.Focused = true
	pm.focusedID = id
	for i, pid := range pm.zOrder {
		if pid == id {
			pm.zOrder = append(append(pm.zOrder[:i:i], pm.zOrder[i+1:]...), id)
			break
		}
	}
}

// Blur leaves no pane focused, returning keys to the editor.
func (pm *PaneManager) Blur() {
	if p := pm.panes[pm.focusedID]; p != nil {
		p.Focused = false
	}
	pm.focusedID = ""
}

// FocusNext cycles focus through the panes from the bottom up.
func (pm *PaneManager) FocusNext() {
	if len(pm.zOrder) == 0 {
		return
	}
	if pm.focusedID == "" {
		pm.Focus(pm.zOrder[0])
		return
	}
	// Focus raises to the top, so the next pane is always the bottom one.
	pm.Focus(pm.zOrder[0])
}

// FocusedPane returns the focused pane, or nil.
func (pm *PaneManager) FocusedPane() *Pane {
	return pm.panes[pm.focusedID]
}

// PaneAt returns the topmost pane at x, y.
func (pm *PaneManager) PaneAt(x, y int) *Pane {
	for i := len(pm.zOrder) - 1; i >= 0; i-- {
		if pane := pm.panes[pm.zOrder[i]]; pane != nil && pane.Contains(x, y) {
			return pane
		}
	}
	return nil
}

// Dragging returns the pane being moved, or nil.
func (pm *PaneManager) Dragging() *Pane {
	for _, p := range pm.panes {
		if p.dragging {
			return p
		}
	}
	return nil
}

// UpdateSize records new screen dimensions and pulls panes back on screen.
func (pm *PaneManager) UpdateSize(w, h int) {
	pm.screenW = w
	pm.screenH = h
	for _, pane := range pm.panes {
		if pane.X > w-5 {
			pane.X = max(w-5, 0)
		}
		if pane.Y >= h {
			pane.Y = max(h-1, 0)
		}
	}
}

// HasPanes reports whether any pane is open.
func (pm *PaneManager) HasPanes() bool {
	return len(pm.zOrder) > 0
}

// Render composites the panes over base, bottom pane first.
func (pm *PaneManager) Render(base string) string {
	if len(pm.zOrder) == 0 {
		return base
	}
	return overlay(base, pm.screenW, func(buf *cellbuf.Buffer) {
		for _, id := range pm.zOrder {
			if pane := pm.panes[id]; pane != nil {
				paint(buf, pane.Render(), cellbuf.Rect(pane.X, pane.Y, pane.Width, pane.Height))
			}
		}
	})
}

// overlay renders base into a cell buffer, lets draw paint on top of it and
// returns the result.
func overlay(base string, w int, draw func(*cellbuf.Buffer)) string {
	h := strings.Count(base, "\n") + 1
	buf := cellbuf.NewBuffer(w, h)
	cellbuf.SetContent(buf, base)
	draw(buf)
	return cellbuf.Render(buf)
}

// paint draws block, styling included, into rect.
func paint(buf *cellbuf.Buffer, block string, rect cellbuf.Rectangle) {
	cellbuf.SetContentRect(buf, block, rect.Intersect(buf.Bounds()))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
