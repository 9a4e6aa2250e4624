package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// OutputPane is the append-only compiler output log.
type OutputPane struct {
	viewport viewport.Model
	lines    []string
	dirty    bool // new text since last render
}

func NewOutputPane() *OutputPane {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true
	return &OutputPane{viewport: vp}
}

// Append adds text to the end of the log. Text is never removed.
func (o *OutputPane) Append(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	o.lines = append(o.lines, strings.Split(strings.TrimRight(text, "\n"), "\n")...)
	o.dirty = true
}

// Text returns the whole log.
func (o *OutputPane) Text() string {
	return strings.Join(o.lines, "\n")
}

func (o *OutputPane) Title() string {
	return "output"
}

func (o *OutputPane) Render(w, h int) string {
	o.viewport.Width = w
	o.viewport.Height = h
	o.viewport.SetContent(o.Text())
	if o.dirty {
		o.viewport.GotoBottom()
		o.dirty = false
	}
	return o.viewport.View()
}

func (o *OutputPane) HandleKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		o.viewport, _ = o.viewport.Update(msg)
		return true
	}
	return false
}

func (o *OutputPane) HandleMouse(x, y int, msg tea.MouseMsg) bool {
	var cmd tea.Cmd
	o.viewport, cmd = o.viewport.Update(msg)
	return cmd != nil
}
