package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/keymagic/kmsedit/internal/tester"
)

const testerPaneID = "tester"

// TesterPane lets the user type through a compiled layout. Closing the pane
// ends the session, which deletes the temporary layout file.
type TesterPane struct {
	session *tester.Session
}

// echoNotice warns that keys reach the output unchanged.
const echoNotice = "keys are echoed; layout rules are not applied"

// appliesRules reports whether kb transforms keys. Keyboards that do not
// say are assumed to.
func appliesRules(kb tester.Keyboard) bool {
	if r, ok := kb.(interface{ AppliesRules() bool }); ok {
		return r.AppliesRules()
	}
	return true
}

func NewTesterPane(s *tester.Session) *TesterPane {
	return &TesterPane{session: s}
}

func (t *TesterPane) Title() string {
	name := t.session.Keyboard().Name()
	if name == "" {
		name = "layout"
	}
	return "test: " + name
}

func (t *TesterPane) Render(w, h int) string {
	f := t.session.Font()
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	header := hint.Render(fmt.Sprintf("font %s %gpt", f.Family, f.Size))
	top := 2
	if !appliesRules(t.session.Keyboard()) {
		header += "\n" + hint.Render(echoNotice)
		top++
	}

	var body []string
	for _, line := range strings.Split(t.session.Output(), "\n") {
		// wrap by cell width; layouts often produce wide or combining text
		for ansi.StringWidth(line) > w && w > 0 {
			cut := ansi.Truncate(line, w, "")
			if cut == "" {
				break
			}
			body = append(body, cut)
			line = line[len(cut):]
		}
		body = append(body, line)
	}
	if n := len(body); n > h-top {
		body = body[n-max(h-top, 0):]
	}
	if len(body) > 0 {
		body[len(body)-1] += cursorStyle.Render(" ")
	}
	return header + "\n\n" + strings.Join(body, "\n")
}

func (t *TesterPane) HandleKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			t.session.Type(r)
		}
	case tea.KeySpace:
		t.session.Type(' ')
	case tea.KeyEnter:
		t.session.Type('\n')
	case tea.KeyBackspace:
		t.session.Backspace()
	default:
		return false
	}
	return true
}

func (t *TesterPane) HandleMouse(x, y int, msg tea.MouseMsg) bool {
	return false
}

// Close ends the test session.
func (t *TesterPane) Close() error {
	return t.session.Close()
}
