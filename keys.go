package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for kmsedit
type KeyMap struct {
	// File
	New      key.Binding
	Open     key.Binding
	Save     key.Binding
	SaveAs   key.Binding
	CloseTab key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding

	// Tools
	Compile     key.Binding
	CheckSyntax key.Binding
	Test        key.Binding

	// Panes
	ToggleOutput   key.Binding
	Keywords       key.Binding
	RecentFiles    key.Binding
	CommandPalette key.Binding
	ToggleDebug    key.Binding
	CyclePane      key.Binding
	ClosePane      key.Binding
	ShowKeys       key.Binding
	Quit           key.Binding
	Autocomplete   key.Binding

	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Home  key.Binding
	End   key.Binding
	PgUp  key.Binding
	PgDn  key.Binding

	// Editing
	Newline   key.Binding
	Indent    key.Binding
	Backspace key.Binding
	Delete    key.Binding
}

// ShortHelp returns keybindings for the short help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Save, k.Compile, k.Test, k.CommandPalette, k.ShowKeys, k.Quit}
}

// FullHelp returns keybindings for the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.New, k.Open, k.Save, k.SaveAs, k.CloseTab},
		{k.NextTab, k.PrevTab, k.RecentFiles, k.CommandPalette},
		{k.Compile, k.CheckSyntax, k.Test, k.ToggleOutput},
		{k.Keywords, k.ToggleDebug, k.CyclePane, k.ClosePane},
		{k.Autocomplete, k.ShowKeys, k.Quit},
	}
}
