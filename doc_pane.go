package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/keymagic/kmsedit/internal/complete"
)

// DocPane displays rendered markdown in a floating pane. Keyword names
// marked «like this» in the source are selectable with tab; enter picks the
// selected one.
type DocPane struct {
	title    string
	rawLines []string // glamour-rendered lines with «markers» intact
	lines    []string // display lines with styled keywords
	scroll   int
	keywords []string
	linkIdx  int   // -1 = no selection
	linkPos  []int // line index where each keyword marker appears

	Chosen string // set when enter is pressed on a keyword
}

// keywordMarkdown builds the keyword reference page.
func keywordMarkdown(ix *complete.Index) (string, []string) {
	var sb strings.Builder
	var names []string
	sb.WriteString("# Keywords\n\n")
	sb.WriteString("Tab selects a keyword, enter inserts it at the caret.\n\n")
	for _, k := range ix.Keywords() {
		names = append(names, k.Name)
		fmt.Fprintf(&sb, "- «%s»", k.Name)
		if k.Doc != "" {
			fmt.Fprintf(&sb, ": %s", k.Doc)
		}
		sb.WriteString("\n")
	}
	return sb.String(), names
}

// RenderMarkdown pre-renders markdown for terminal display at the given width.
func RenderMarkdown(markdown string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

// NewDocPane renders markdown at width. keywords lists the marked names in
// the order they appear.
func NewDocPane(title, markdown string, keywords []string, width int) *DocPane {
	rendered := RenderMarkdown(markdown, width)
	rawLines := strings.Split(strings.TrimRight(rendered, "\n"), "\n")
	dp := &DocPane{
		title:    title,
		keywords: keywords,
		linkIdx:  -1,
		linkPos:  findLinkPositions(rawLines, keywords),
		rawLines: rawLines,
	}
	dp.styleLinks()
	return dp
}

// NewKeywordPane shows the keyword reference for ix.
func NewKeywordPane(ix *complete.Index, width int) *DocPane {
	md, names := keywordMarkdown(ix)
	return NewDocPane("keywords", md, names, width)
}

func findLinkPositions(lines []string, keywords []string) []int {
	linkPos := make([]int, len(keywords))
	found := 0
	for i, line := range lines {
		plain := ansi.Strip(line)
		for found < len(keywords) && strings.Contains(plain, "«"+keywords[found]+"»") {
			linkPos[found] = i
			found++
		}
	}
	return linkPos
}

var (
	docLinkStyle     = lipgloss.NewStyle().Underline(true)
	docSelectedStyle = lipgloss.NewStyle().Underline(true).Bold(true).Reverse(true)
)

// styleLinks rebuilds d.lines from d.rawLines, replacing «name» markers
// with styled keyword text.
func (d *DocPane) styleLinks() {
	linkStyle := docLinkStyle.Foreground(AccentColor)

	d.lines = make([]string, len(d.rawLines))
	copy(d.lines, d.rawLines)

	for i, name := range d.keywords {
		marker := "«" + name + "»"
		styled := linkStyle.Render(name)
		if i == d.linkIdx {
			styled = docSelectedStyle.Render(name)
		}
		j := d.linkPos[i]
		if strings.Contains(d.lines[j], marker) {
			d.lines[j] = strings.Replace(d.lines[j], marker, styled, 1)
		}
	}
}

func (d *DocPane) Title() string {
	return d.title
}

func (d *DocPane) Render(w, h int) string {
	var sb strings.Builder
	view := h
	if len(d.lines) > h {
		view = h - 1
	}
	end := min(d.scroll+view, len(d.lines))

	for i := d.scroll; i < end; i++ {
		sb.WriteString(fitWidth(d.lines[i], w))
		if i < end-1 {
			sb.WriteRune('\n')
		}
	}

	// scroll position
	if len(d.lines) > h {
		sb.WriteRune('\n')
		pos := fmt.Sprintf(" %d/%d ", d.scroll+1, len(d.lines))
		if pad := w - len(pos); pad > 0 {
			sb.WriteString(strings.Repeat("─", pad))
		}
		sb.WriteString(pos)
	}
	return sb.String()
}

func (d *DocPane) HandleKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyUp:
		d.scrollUp(1)
	case tea.KeyDown:
		d.scrollDown(1)
	case tea.KeyPgUp:
		d.scrollUp(20)
	case tea.KeyPgDown:
		d.scrollDown(20)
	case tea.KeyTab:
		d.nextLink()
	case tea.KeyShiftTab:
		d.prevLink()
	case tea.KeyEnter:
		if d.linkIdx >= 0 && d.linkIdx < len(d.keywords) {
			d.Chosen = d.keywords[d.linkIdx]
		}
	default:
		if len(msg.Runes) != 1 {
			return false
		}
		switch msg.Runes[0] {
		case 'j':
			d.scrollDown(1)
		case 'k':
			d.scrollUp(1)
		default:
			return false
		}
	}
	return true
}

func (d *DocPane) HandleMouse(x, y int, msg tea.MouseMsg) bool {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		d.scrollUp(3)
		return true
	case tea.MouseButtonWheelDown:
		d.scrollDown(3)
		return true
	}
	return false
}

func (d *DocPane) scrollUp(n int) {
	d.scroll = max(d.scroll-n, 0)
}

func (d *DocPane) scrollDown(n int) {
	d.scroll = clamp(d.scroll+n, 0, max(len(d.lines)-10, 0))
}

func (d *DocPane) nextLink() {
	if len(d.keywords) == 0 {
		return
	}
	d.linkIdx = (d.linkIdx + 1) % len(d.keywords)
	d.scrollToLink()
	d.styleLinks()
}

func (d *DocPane) prevLink() {
	if len(d.keywords) == 0 {
		return
	}
	d.linkIdx--
	if d.linkIdx < 0 {
		d.linkIdx = len(d.keywords) - 1
	}
	d.scrollToLink()
	d.styleLinks()
}

func (d *DocPane) scrollToLink() {
	if d.linkIdx < 0 || d.linkIdx >= len(d.linkPos) {
		return
	}
	line := d.linkPos[d.linkIdx]
	if line < d.scroll+2 {
		d.scroll = max(line-2, 0)
	} else if line > d.scroll+20 {
		d.scroll = line - 5
	}
}
