package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss/v2"

	"github.com/keymagic/kmsedit/internal/complete"
)

// maxPopupItems bounds the popup height.
const maxPopupItems = 8

// Autocomplete holds state for the completion popup overlay.
// This is NOT a pane - it's rendered as an overlay while the editor stays focused.
type Autocomplete struct {
	Options  []string
	Selected int
	Anchor   int // caret column the accepted option replaces from
	Word     string
}

// NewAutocomplete creates popup state from a trigger result, or nil when
// the popup should not show.
func NewAutocomplete(p complete.Popup) *Autocomplete {
	if !p.Show {
		return nil
	}
	return &Autocomplete{Options: p.Items, Anchor: p.Anchor, Word: p.Word}
}

// CycleNext moves selection to next option (wraps around)
func (a *Autocomplete) CycleNext() {
	if len(a.Options) == 0 {
		return
	}
	a.Selected = (a.Selected + 1) % len(a.Options)
}

// CyclePrev moves selection to previous option (wraps around)
func (a *Autocomplete) CyclePrev() {
	if len(a.Options) == 0 {
		return
	}
	a.Selected = (a.Selected - 1 + len(a.Options)) % len(a.Options)
}

// SelectedOption returns the currently selected option
func (a *Autocomplete) SelectedOption() string {
	if a.Selected >= 0 && a.Selected < len(a.Options) {
		return a.Options[a.Selected]
	}
	return ""
}

// Render returns the popup for overlay rendering, at most maxW wide and
// maxH high including borders.
func (a *Autocomplete) Render(maxW, maxH int) string {
	if len(a.Options) == 0 {
		return ""
	}

	selectedStyle := lipgloss.NewStyle().Background(AccentColor).Foreground(lipgloss.Color("0"))
	borderStyle := lipgloss.NewStyle().Foreground(AccentColor)

	contentW := min(a.Width()-2, max(maxW-2, 10))
	contentH := a.Height(maxH) - 2

	scroll := 0
	if a.Selected >= contentH {
		scroll = a.Selected - contentH + 1
	}

	lines := []string{borderStyle.Render("┌" + strings.Repeat("─", contentW) + "┐")}
	for i := scroll; i < len(a.Options) && i < scroll+contentH; i++ {
		opt := a.Options[i]
		if r := []rune(opt); len(r) > contentW {
			opt = string(r[:contentW-1]) + "…"
		}
		padded := opt + strings.Repeat(" ", contentW-len([]rune(opt)))
		if i == a.Selected {
			padded = selectedStyle.Render(padded)
		}
		lines = append(lines, borderStyle.Render("│")+padded+borderStyle.Render("│"))
	}
	lines = append(lines, borderStyle.Render("└"+strings.Repeat("─", contentW)+"┘"))
	return strings.Join(lines, "\n")
}

// Width returns the rendered width of the popup
func (a *Autocomplete) Width() int {
	w := 10
	for _, opt := range a.Options {
		w = max(w, len([]rune(opt)))
	}
	return w + 2
}

// Height returns the rendered height of the popup
func (a *Autocomplete) Height(maxH int) int {
	h := min(len(a.Options), maxPopupItems, max(maxH-2, 1))
	return h + 2
}
