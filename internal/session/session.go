// Package session tracks the documents open in the editor, which one is
// active, and the recent-files history. It is pure data management with no
// UI dependency.
package session

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/keymagic/kmsedit/internal/document"
	"github.com/keymagic/kmsedit/internal/settings"
)

// MaxRecent is the number of recent files kept.
const MaxRecent = 10

// ErrNoDocument is returned by actions on the active document when there is
// none.
var ErrNoDocument = errors.New("no active document")

// ErrAlreadyOpen is returned when a document is saved under a path another
// tab is bound to.
var ErrAlreadyOpen = errors.New("already open in another tab")

// Manager owns the open documents in tab order.
type Manager struct {
	docs   []*document.Document
	active int // index into docs, or -1 if none
	recent []string

	store  settings.Store
	logger *log.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the settings store used by Persist and LoadState.
func WithStore(s settings.Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a Manager with no open documents.
func NewManager(opts ...Option) *Manager {
	m := &Manager{active: -1}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = log.New(io.Discard)
	}
	return m
}

// Count returns the number of open documents.
func (m *Manager) Count() int {
	return len(m.docs)
}

// Documents returns the open documents in tab order.
func (m *Manager) Documents() []*document.Document {
	return m.docs
}

// Document returns the document at index, or nil if out of range.
func (m *Manager) Document(index int) *document.Document {
	if index < 0 || index >= len(m.docs) {
		return nil
	}
	return m.docs[index]
}

// ActiveIndex returns the active tab index, or -1.
func (m *Manager) ActiveIndex() int {
	return m.active
}

// Active returns the active document, or nil.
func (m *Manager) Active() *document.Document {
	return m.Document(m.active)
}

// Activate makes the tab at index active. It reports false, changing
// nothing, if index is out of range.
func (m *Manager) Activate(index int) bool {
	if index < 0 || index >= len(m.docs) {
		return false
	}
	m.active = index
	return true
}

// IndexOf returns the tab index of the document bound to path, or -1.
func (m *Manager) IndexOf(path string) int {
	abs, err := document.NormalizePath(path)
	if err != nil {
		return -1
	}
	for i, d := range m.docs {
		if d.Path() == abs {
			return i
		}
	}
	return -1
}

// OpenOrFocus activates the tab already showing path, or opens path into a
// new tab. A path is never open in two tabs.
func (m *Manager) OpenOrFocus(path string) (*document.Document, error) {
	if i := m.IndexOf(path); i >= 0 {
		m.active = i
		return m.docs[i], nil
	}
	d, err := document.Open(path)
	if err != nil {
		return nil, err
	}
	m.add(d)
	m.logger.Debug("opened", "path", d.Path(), "tab", m.active)
	return d, nil
}

// Open is the user-initiated open: OpenOrFocus plus a recent-files entry.
func (m *Manager) Open(path string) (*document.Document, error) {
	d, err := m.OpenOrFocus(path)
	if err != nil {
		return nil, err
	}
	m.RecordRecent(d.Path())
	return d, nil
}

// CreateBlank opens a new untitled document and makes it active.
func (m *Manager) CreateBlank() *document.Document {
	d := document.New()
	m.add(d)
	return d
}

func (m *Manager) add(d *document.Document) {
	d.SetPathGuard(func(path string) error {
		if i := m.IndexOf(path); i >= 0 && m.docs[i] != d {
			return fmt.Errorf("save %s: %w", path, ErrAlreadyOpen)
		}
		return nil
	})
	m.docs = append(m.docs, d)
	m.active = len(m.docs) - 1
}

// Close runs the close protocol on the tab at index and removes it if the
// protocol proceeds. Closing the last tab leaves a fresh blank document.
func (m *Manager) Close(index int, p document.Prompter) (document.Decision, error) {
	d := m.Document(index)
	if d == nil {
		return document.Cancel, ErrNoDocument
	}
	dec, err := d.Close(p)
	if dec != document.Proceed {
		return dec, err
	}
	m.remove(index)
	m.logger.Debug("closed", "title", d.Title(), "remaining", len(m.docs))
	if len(m.docs) == 0 {
		m.CreateBlank()
	}
	return document.Proceed, nil
}

// CloseActive closes the active tab.
func (m *Manager) CloseActive(p document.Prompter) (document.Decision, error) {
	return m.Close(m.active, p)
}

func (m *Manager) remove(index int) {
	m.docs = append(m.docs[:index], m.docs[index+1:]...)

	if len(m.docs) == 0 {
		m.active = -1
		return
	}
	if index < m.active {
		m.active--
	} else if m.active >= len(m.docs) {
		m.active = len(m.docs) - 1
	}
}

// ConfirmQuit runs the close protocol on every document in tab order
// without removing any. It stops at the first Cancel.
func (m *Manager) ConfirmQuit(p document.Prompter) (document.Decision, error) {
	for i, d := range m.docs {
		dec, err := d.Close(p)
		if dec != document.Proceed {
			m.active = i
			return dec, err
		}
	}
	return document.Proceed, nil
}

// Save saves the active document and records it as recent on success.
func (m *Manager) Save(p document.Prompter) (document.SaveResult, error) {
	d := m.Active()
	if d == nil {
		return document.Failed, ErrNoDocument
	}
	return m.recordSave(d.Save(p))
}

// SaveAs saves the active document under a new name.
func (m *Manager) SaveAs(p document.Prompter) (document.SaveResult, error) {
	d := m.Active()
	if d == nil {
		return document.Failed, ErrNoDocument
	}
	return m.recordSave(d.SaveAs(p))
}

func (m *Manager) recordSave(res document.SaveResult, err error) (document.SaveResult, error) {
	if res == document.Saved {
		m.RecordRecent(m.Active().Path())
	}
	return res, err
}

// RecordRecent moves path to the end of the recent list, dropping the
// oldest entries beyond MaxRecent.
func (m *Manager) RecordRecent(path string) {
	if path == "" {
		return
	}
	for i, p := range m.recent {
		if p == path {
			m.recent = append(m.recent[:i], m.recent[i+1:]...)
			break
		}
	}
	m.recent = append(m.recent, path)
	if len(m.recent) > MaxRecent {
		m.recent = m.recent[len(m.recent)-MaxRecent:]
	}
}

// Recent returns the recent files, most recent last.
func (m *Manager) Recent() []string {
	out := make([]string, len(m.recent))
	copy(out, m.recent)
	return out
}

// ClearRecent empties the recent list.
func (m *Manager) ClearRecent() {
	m.recent = nil
}

// OpenPaths returns the paths of open documents in tab order. Untitled
// documents are skipped.
func (m *Manager) OpenPaths() []string {
	var paths []string
	for _, d := range m.docs {
		if p := d.Path(); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Persist writes the open tabs and recent files to the store. Untitled
// documents are not persisted.
func (m *Manager) Persist() error {
	if m.store == nil {
		return nil
	}
	if err := m.store.Set(settings.KeyLastTabs, JoinPaths(m.OpenPaths())); err != nil {
		return fmt.Errorf("persist tabs: %w", err)
	}
	if err := m.store.Set(settings.KeyRecentFiles, JoinPaths(m.recent)); err != nil {
		return fmt.Errorf("persist recent files: %w", err)
	}
	return nil
}

// LoadState reads the recent files from the store and returns the tabs
// that were open last time.
func (m *Manager) LoadState() ([]string, error) {
	if m.store == nil {
		return nil, nil
	}
	recent, err := m.store.Get(settings.KeyRecentFiles)
	if err != nil {
		return nil, fmt.Errorf("load recent files: %w", err)
	}
	for _, p := range SplitPaths(recent) {
		m.RecordRecent(p)
	}
	tabs, err := m.store.Get(settings.KeyLastTabs)
	if err != nil {
		return nil, fmt.Errorf("load tabs: %w", err)
	}
	return SplitPaths(tabs), nil
}

// Restore opens each of paths in order, then each of extra (command-line
// files), skipping any that cannot be opened. If nothing ends up open a
// blank document is created. It returns the number of open documents.
func (m *Manager) Restore(paths []string, extra ...string) int {
	for _, p := range append(append([]string{}, paths...), extra...) {
		if _, err := m.OpenOrFocus(p); err != nil {
			m.logger.Warn("skipping file", "path", p, "err", err)
		}
	}
	if len(m.docs) == 0 {
		m.CreateBlank()
	}
	return len(m.docs)
}

// SplitPaths parses a "|"-delimited path list, dropping empty entries.
func SplitPaths(s string) []string {
	var out []string
	for _, p := range strings.Split(s, "|") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinPaths builds a "|"-delimited path list.
func JoinPaths(paths []string) string {
	return strings.Join(paths, "|")
}
