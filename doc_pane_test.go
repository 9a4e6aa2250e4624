package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/keymagic/kmsedit/internal/complete"
)

func TestRenderMarkdown(t *testing.T) {
	md := "# Hello\n\nThis is a test paragraph.\n"
	out := RenderMarkdown(md, 60)
	if out == "" {
		t.Fatal("RenderMarkdown returned empty string")
	}
	if !strings.Contains(out, "Hello") {
		t.Errorf("rendered output missing title: %q", out)
	}
	if !strings.Contains(out, "test paragraph") {
		t.Errorf("rendered output missing body: %q", out)
	}
}

func TestNewDocPane(t *testing.T) {
	dp := NewDocPane("report", "# Test\n\nLine 1\n\nLine 2\n", nil, 40)

	if dp.Title() != "report" {
		t.Errorf("Title() = %q, want %q", dp.Title(), "report")
	}
	if len(dp.lines) == 0 {
		t.Fatal("DocPane has no lines")
	}
}

func TestDocPaneScroll(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 100; i++ {
		sb.WriteString("Line\n\n")
	}
	dp := NewDocPane("scroll", sb.String(), nil, 40)

	if dp.scroll != 0 {
		t.Errorf("initial scroll = %d, want 0", dp.scroll)
	}

	dp.scrollDown(5)
	if dp.scroll != 5 {
		t.Errorf("after scrollDown(5): scroll = %d, want 5", dp.scroll)
	}

	dp.scrollUp(3)
	if dp.scroll != 2 {
		t.Errorf("after scrollUp(3): scroll = %d, want 2", dp.scroll)
	}

	// Can't scroll above 0
	dp.scrollUp(100)
	if dp.scroll != 0 {
		t.Errorf("after scrollUp(100): scroll = %d, want 0", dp.scroll)
	}

	dp.scrollDown(10000)
	if want := len(dp.lines) - 10; dp.scroll != want {
		t.Errorf("after scrollDown(10000): scroll = %d, want %d", dp.scroll, want)
	}
}

func TestDocPaneRenderFitsBox(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("Content here.\n\n")
	}
	dp := NewDocPane("report", sb.String(), nil, 40)

	out := dp.Render(40, 20)
	lines := strings.Split(out, "\n")
	if len(lines) != 20 {
		t.Fatalf("Render produced %d lines, want 20", len(lines))
	}
	for i, l := range lines {
		if w := ansi.StringWidth(l); w > 40 {
			t.Errorf("line %d is %d cells wide", i, w)
		}
	}
	if !strings.Contains(lines[19], "1/") {
		t.Errorf("last line should show the position: %q", lines[19])
	}
}

func TestKeywordPaneSelection(t *testing.T) {
	ix, err := complete.Parse([]byte(`
keywords:
  - name: include
    doc: Pull in another script file.
  - name: ANY
    doc: Matches any one of the characters in a variable.
  - name: NULL
`))
	if err != nil {
		t.Fatal(err)
	}
	dp := NewKeywordPane(ix, 60)

	plain := ansi.Strip(strings.Join(dp.lines, "\n"))
	if !strings.Contains(plain, "Pull in another script file.") {
		t.Errorf("keyword docs missing:\n%s", plain)
	}

	// Enter with nothing selected chooses nothing
	dp.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if dp.Chosen != "" {
		t.Errorf("Chosen = %q before any selection", dp.Chosen)
	}

	dp.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	dp.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	dp.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if dp.Chosen != "ANY" {
		t.Errorf("Chosen = %q, want ANY", dp.Chosen)
	}

	// shift-tab wraps from the first keyword to the last
	dp.linkIdx = 0
	dp.HandleKey(tea.KeyMsg{Type: tea.KeyShiftTab})
	dp.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if dp.Chosen != "NULL" {
		t.Errorf("Chosen = %q, want NULL", dp.Chosen)
	}
}

func TestFindLinkPositions(t *testing.T) {
	lines := []string{
		"intro",
		"- \x1b[1m«a»\x1b[0m: first",
		"- «b»: second «c»",
	}
	got := findLinkPositions(lines, []string{"a", "b", "c"})
	want := []int{1, 2, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("linkPos = %v, want %v", got, want)
			break
		}
	}
}

func TestDocPaneIgnoresUnboundKeys(t *testing.T) {
	dp := NewDocPane("report", "text\n", nil, 40)
	if dp.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}) {
		t.Error("unbound rune should not be consumed")
	}
	if !dp.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}) {
		t.Error("j should scroll")
	}
}
