package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss/v2"
)

//go:embed kmsedit.default.json
var defaultConfigJSON []byte

// AccentColor is the highlight colour for borders, selections and prompts.
var AccentColor color.Color = lipgloss.Color("214")

// Config holds all kmsedit configuration
type Config struct {
	Accent          string       `json:"accent"`
	Parser          string       `json:"parser"`
	CompileTimeout  string       `json:"compile_timeout"`
	DefaultFont     string       `json:"default_font"`
	DefaultFontSize float64      `json:"default_font_size"`
	Keywords        []string     `json:"keywords"`
	SettingsPath    string       `json:"settings_path"`
	Keys            KeyMapConfig `json:"keys"`
}

// KeyMapConfig defines key bindings in config file format
type KeyMapConfig struct {
	New            []string `json:"new"`
	Open           []string `json:"open"`
	Save           []string `json:"save"`
	SaveAs         []string `json:"save_as"`
	CloseTab       []string `json:"close_tab"`
	NextTab        []string `json:"next_tab"`
	PrevTab        []string `json:"prev_tab"`
	Compile        []string `json:"compile"`
	CheckSyntax    []string `json:"check_syntax"`
	Test           []string `json:"test"`
	ToggleOutput   []string `json:"toggle_output"`
	Keywords       []string `json:"keywords"`
	RecentFiles    []string `json:"recent_files"`
	CommandPalette []string `json:"command_palette"`
	ToggleDebug    []string `json:"toggle_debug"`
	CyclePane      []string `json:"cycle_pane"`
	ClosePane      []string `json:"close_pane"`
	ShowKeys       []string `json:"show_keys"`
	Quit           []string `json:"quit"`
	Autocomplete   []string `json:"autocomplete"`

	Up    []string `json:"up"`
	Down  []string `json:"down"`
	Left  []string `json:"left"`
	Right []string `json:"right"`
	Home  []string `json:"home"`
	End   []string `json:"end"`
	PgUp  []string `json:"pgup"`
	PgDn  []string `json:"pgdn"`

	Newline   []string `json:"newline"`
	Indent    []string `json:"indent"`
	Backspace []string `json:"backspace"`
	Delete    []string `json:"delete"`
}

// configDir is where the user config and the settings database live.
func configDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "kmsedit")
}

// defaultConfig decodes the embedded configuration.
func defaultConfig() Config {
	var cfg Config
	if err := json.Unmarshal(defaultConfigJSON, &cfg); err != nil {
		panic("embedded default config is invalid: " + err.Error())
	}
	return cfg
}

// LoadConfig loads configuration from path if given, else from the first
// config file found. Values missing from the file keep their defaults. It
// also returns the file that was used, or "" for the embedded default.
func LoadConfig(path string) (Config, string, error) {
	if path != "" {
		cfg, err := loadConfigFile(path)
		if err != nil {
			return Config{}, "", err
		}
		return cfg, path, nil
	}

	paths := []string{
		"kmsedit.json",
		filepath.Join(configDir(), "kmsedit.json"),
	}
	for _, p := range paths {
		if cfg, err := loadConfigFile(p); err == nil {
			return cfg, p, nil
		}
	}
	return defaultConfig(), "", nil
}

func loadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := defaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Timeout returns the compile timeout, falling back to five seconds when
// unset or malformed.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.CompileTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// SettingsFile returns the settings database path.
func (c Config) SettingsFile() string {
	p := c.SettingsPath
	if p == "" {
		return filepath.Join(configDir(), "settings.db")
	}
	if strings.HasPrefix(p, "~/") {
		p = filepath.Join(os.Getenv("HOME"), p[2:])
	}
	return p
}

// ToKeyMap converts config to KeyMap
func (c *Config) ToKeyMap() KeyMap {
	return KeyMap{
		New:            c.binding(c.Keys.New, "new"),
		Open:           c.binding(c.Keys.Open, "open"),
		Save:           c.binding(c.Keys.Save, "save"),
		SaveAs:         c.binding(c.Keys.SaveAs, "save as"),
		CloseTab:       c.binding(c.Keys.CloseTab, "close"),
		NextTab:        c.binding(c.Keys.NextTab, "next tab"),
		PrevTab:        c.binding(c.Keys.PrevTab, "prev tab"),
		Compile:        c.binding(c.Keys.Compile, "compile"),
		CheckSyntax:    c.binding(c.Keys.CheckSyntax, "check"),
		Test:           c.binding(c.Keys.Test, "test"),
		ToggleOutput:   c.binding(c.Keys.ToggleOutput, "output"),
		Keywords:       c.binding(c.Keys.Keywords, "keywords"),
		RecentFiles:    c.binding(c.Keys.RecentFiles, "recent"),
		CommandPalette: c.binding(c.Keys.CommandPalette, "commands"),
		ToggleDebug:    c.binding(c.Keys.ToggleDebug, "debug"),
		CyclePane:      c.binding(c.Keys.CyclePane, "cycle pane"),
		ClosePane:      c.binding(c.Keys.ClosePane, "close pane"),
		ShowKeys:       c.binding(c.Keys.ShowKeys, "keys"),
		Quit:           c.binding(c.Keys.Quit, "quit"),
		Autocomplete:   c.binding(c.Keys.Autocomplete, "complete"),

		Up:    c.binding(c.Keys.Up, "up"),
		Down:  c.binding(c.Keys.Down, "down"),
		Left:  c.binding(c.Keys.Left, "left"),
		Right: c.binding(c.Keys.Right, "right"),
		Home:  c.binding(c.Keys.Home, "line start"),
		End:   c.binding(c.Keys.End, "line end"),
		PgUp:  c.binding(c.Keys.PgUp, "page up"),
		PgDn:  c.binding(c.Keys.PgDn, "page down"),

		Newline:   c.binding(c.Keys.Newline, "newline"),
		Indent:    c.binding(c.Keys.Indent, "indent"),
		Backspace: c.binding(c.Keys.Backspace, "delete back"),
		Delete:    c.binding(c.Keys.Delete, "delete forward"),
	}
}

// binding creates a key binding, returning disabled binding if keys is empty
func (c *Config) binding(keys []string, help string) key.Binding {
	if len(keys) == 0 {
		return key.NewBinding(key.WithDisabled())
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(keys[0], help),
	)
}
