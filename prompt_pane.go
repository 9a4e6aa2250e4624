package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/keymagic/kmsedit/internal/document"
)

const promptPaneID = "prompt"

type promptKind int

const (
	promptConfirm promptKind = iota // yes / no / cancel
	promptInput                     // free text, enter accepts
)

// PromptPane asks one question. When Done is set the model hands the pane to
// onDone, which decides what happens next.
type PromptPane struct {
	kind     promptKind
	title    string
	question string
	input    textinput.Model

	Done   bool
	Answer document.Answer // confirm prompts
	Value  string          // input prompts
	OK     bool            // input accepted rather than aborted

	onDone func(m *Model, p *PromptPane) tea.Cmd
}

// NewConfirmPrompt asks a yes/no/cancel question.
func NewConfirmPrompt(title, question string, onDone func(*Model, *PromptPane) tea.Cmd) *PromptPane {
	return &PromptPane{kind: promptConfirm, title: title, question: question, onDone: onDone}
}

// NewInputPrompt asks for a line of text, prefilled with value.
func NewInputPrompt(title, question, value string, onDone func(*Model, *PromptPane) tea.Cmd) *PromptPane {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	return &PromptPane{kind: promptInput, title: title, question: question, input: ti, onDone: onDone}
}

func (p *PromptPane) Title() string {
	return p.title
}

func (p *PromptPane) Render(w, h int) string {
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	lines := []string{fitWidth(p.question, w), ""}
	switch p.kind {
	case promptConfirm:
		lines = append(lines, hint.Render("[y]es  [n]o  [c]ancel"))
	case promptInput:
		p.input.Width = max(w-3, 1)
		lines = append(lines, p.input.View(), hint.Render("enter accept · esc cancel"))
	}
	return strings.Join(lines, "\n")
}

// HandleKey consumes every key; prompts are modal.
func (p *PromptPane) HandleKey(msg tea.KeyMsg) bool {
	if p.Done {
		return true
	}
	switch p.kind {
	case promptConfirm:
		switch strings.ToLower(msg.String()) {
		case "y":
			p.finish(document.AnswerYes)
		case "n":
			p.finish(document.AnswerNo)
		case "c", "esc":
			p.finish(document.AnswerCancel)
		}
	case promptInput:
		switch msg.Type {
		case tea.KeyEnter:
			p.Value = strings.TrimSpace(p.input.Value())
			p.OK = p.Value != ""
			p.Done = true
		case tea.KeyEsc:
			p.Done = true
		default:
			p.input, _ = p.input.Update(msg)
		}
	}
	return true
}

func (p *PromptPane) finish(a document.Answer) {
	p.Answer = a
	p.Done = true
}

func (p *PromptPane) HandleMouse(x, y int, msg tea.MouseMsg) bool {
	return false
}
