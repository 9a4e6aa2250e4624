package main

import (
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/v2"
)

// Command is an entry in the palette. Arg carries a path for entries that
// open a file.
type Command struct {
	Name string
	Help string
	Arg  string
}

// Command names dispatched by Model.runCommand.
const (
	cmdNew         = "new"
	cmdOpen        = "open"
	cmdSave        = "save"
	cmdSaveAs      = "save-as"
	cmdClose       = "close"
	cmdCompile     = "compile"
	cmdCheckSyntax = "check-syntax"
	cmdTest        = "test"
	cmdOutput      = "output"
	cmdKeywords    = "keywords"
	cmdRecent      = "recent"
	cmdClearRecent = "clear-recent"
	cmdDefaultFont = "default-font"
	cmdDebug       = "debug"
	cmdQuit        = "quit"
)

// menuCommands are the editor's menu actions.
var menuCommands = []Command{
	{Name: cmdNew, Help: "New script"},
	{Name: cmdOpen, Help: "Open a script"},
	{Name: cmdSave, Help: "Save the active script"},
	{Name: cmdSaveAs, Help: "Save the active script under a new name"},
	{Name: cmdClose, Help: "Close the active tab"},
	{Name: cmdCompile, Help: "Compile to a .km2 layout"},
	{Name: cmdCheckSyntax, Help: "Check the script without writing a layout"},
	{Name: cmdTest, Help: "Compile and try the layout"},
	{Name: cmdOutput, Help: "Show or hide compiler output"},
	{Name: cmdKeywords, Help: "Keyword reference"},
	{Name: cmdRecent, Help: "Recent files"},
	{Name: cmdClearRecent, Help: "Clear the recent file list"},
	{Name: cmdDefaultFont, Help: "Set the tester's default font"},
	{Name: cmdDebug, Help: "Show or hide the debug log"},
	{Name: cmdQuit, Help: "Quit"},
}

// recentCommands lists recent files, most recent first.
func recentCommands(recent []string) []Command {
	cmds := make([]Command, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		cmds = append(cmds, Command{Name: filepath.Base(recent[i]), Help: recent[i], Arg: recent[i]})
	}
	return cmds
}

// CommandPalette is a searchable command list
type CommandPalette struct {
	title        string
	commands     []Command
	filtered     []Command
	query        string
	selected     int
	scrollOffset int
	Chosen       *Command // set when Enter pressed
}

// NewCommandPalette creates a palette over commands.
func NewCommandPalette(title string, commands []Command) *CommandPalette {
	return &CommandPalette{
		title:    title,
		commands: commands,
		filtered: commands,
	}
}

func (c *CommandPalette) filter() {
	if c.query == "" {
		c.filtered = c.commands
	} else {
		q := strings.ToLower(c.query)
		c.filtered = nil
		for _, cmd := range c.commands {
			if strings.Contains(strings.ToLower(cmd.Name), q) ||
				strings.Contains(strings.ToLower(cmd.Help), q) {
				c.filtered = append(c.filtered, cmd)
			}
		}
	}
	c.selected = clamp(c.selected, 0, max(len(c.filtered)-1, 0))
	c.scrollOffset = 0
}

func (c *CommandPalette) Title() string {
	return c.title
}

func (c *CommandPalette) Render(w, h int) string {
	var sb strings.Builder

	promptStyle := lipgloss.NewStyle().Foreground(AccentColor)
	sb.WriteString(promptStyle.Render(": "))
	sb.WriteString(c.query)
	sb.WriteString(cursorStyle.Render(" "))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", w))

	selectedStyle := lipgloss.NewStyle().Background(AccentColor).Foreground(lipgloss.Color("0"))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	listH := max(h-2, 1)
	c.AdjustScroll(listH)

	nameW := max(w/3, 10)
	if len(c.filtered) == 0 {
		sb.WriteString("\n")
		sb.WriteString(helpStyle.Render("no matches"))
	}
	for i := c.scrollOffset; i < len(c.filtered) && i < c.scrollOffset+listH; i++ {
		cmd := c.filtered[i]
		name := cmd.Name
		if r := []rune(name); len(r) > nameW {
			name = string(r[:nameW-1]) + "…"
		}
		name = padRight(name, nameW)
		if i == c.selected {
			name = selectedStyle.Render(name)
		}
		sb.WriteString("\n")
		sb.WriteString(fitWidth(name+" "+helpStyle.Render(cmd.Help), w))
	}
	return sb.String()
}

func padRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

func (c *CommandPalette) HandleKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyUp:
		if c.selected > 0 {
			c.selected--
		}
		return true

	case tea.KeyDown:
		if c.selected < len(c.filtered)-1 {
			c.selected++
		}
		return true

	case tea.KeyEnter:
		if c.selected >= 0 && c.selected < len(c.filtered) {
			cmd := c.filtered[c.selected]
			c.Chosen = &cmd
		}
		return true

	case tea.KeyBackspace:
		if r := []rune(c.query); len(r) > 0 {
			c.query = string(r[:len(r)-1])
			c.filter()
		}
		return true

	case tea.KeySpace:
		c.query += " "
		c.filter()
		return true

	case tea.KeyRunes:
		c.query += string(msg.Runes)
		c.filter()
		return true
	}
	return false
}

// AdjustScroll ensures selected item is visible given the list height
func (c *CommandPalette) AdjustScroll(listH int) {
	listH = max(listH, 1)
	if c.selected >= c.scrollOffset+listH {
		c.scrollOffset = c.selected - listH + 1
	}
	if c.selected < c.scrollOffset {
		c.scrollOffset = c.selected
	}
}

func (c *CommandPalette) HandleMouse(x, y int, msg tea.MouseMsg) bool {
	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && y >= 2 {
		idx := c.scrollOffset + y - 2
		if idx >= 0 && idx < len(c.filtered) {
			c.selected = idx
			cmd := c.filtered[idx]
			c.Chosen = &cmd
			return true
		}
	}
	return false
}
