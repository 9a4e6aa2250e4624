package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/cellbuf"

	"github.com/keymagic/kmsedit/internal/compiler"
	"github.com/keymagic/kmsedit/internal/complete"
	"github.com/keymagic/kmsedit/internal/document"
	"github.com/keymagic/kmsedit/internal/session"
	"github.com/keymagic/kmsedit/internal/settings"
	"github.com/keymagic/kmsedit/internal/tester"
	"github.com/keymagic/kmsedit/internal/workbench"
)

const (
	appName     = "KMS Editor"
	indentText  = "    "
	outputPaneW = 70
	outputPaneH = 12
)

// Pane IDs.
const (
	outputPaneID  = "output"
	reportPaneID  = "report"
	debugPaneID   = "debug"
	keywordPaneID = "keywords"
	commandPaneID = "commands"
	recentPaneID  = "recent"
)

// App is what the model drives.
type App struct {
	Session *session.Manager
	Bench   *workbench.Bench
	Vocab   *complete.Index
	Store   settings.Store // may be nil
	Logger  *log.Logger
	Log     *logRing
	Keys    KeyMap
}

// Model holds all state for the TUI. Document and session state is only
// touched from Update; compiles run in commands and report back by message.
type Model struct {
	sess   *session.Manager
	bench  *workbench.Bench
	vocab  *complete.Index
	store  settings.Store
	logger *log.Logger

	editors map[*document.Document]*Editor
	auto    *Autocomplete

	// Floating panes
	panes  *PaneManager
	output *OutputPane
	log    *logRing
	prompt *PromptPane // modal question, or nil

	busy    bool         // a compile is running
	pending *pendingTest // test build in flight, or nil
	status  string       // last message for the status line

	// Help
	help help.Model
	keys KeyMap

	// Terminal dimensions
	width  int
	height int

	windowTitle string
}

// compileDoneMsg carries a finished compile or syntax check.
type compileDoneMsg struct {
	action string
	res    compiler.Result
}

// testBuiltMsg carries a finished test build.
type testBuiltMsg struct {
	build workbench.TestBuild
	res   compiler.Result
}

// pendingTest is a test build running off the UI goroutine. Whichever of
// finish and abandon comes second decides who owns the artifact.
type pendingTest struct {
	mu        sync.Mutex
	build     workbench.TestBuild
	cancel    context.CancelFunc
	abandoned bool
}

// finish reports whether the build result should still be delivered.
func (p *pendingTest) finish() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.abandoned
}

func (p *pendingTest) abandon() {
	p.mu.Lock()
	p.abandoned = true
	p.mu.Unlock()
	p.cancel()
}

// NewModel creates a Model over an already restored session.
func NewModel(app App) Model {
	logger := app.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	ring := app.Log
	if ring == nil {
		ring = &logRing{}
	}
	return Model{
		sess:    app.Session,
		bench:   app.Bench,
		vocab:   app.Vocab,
		store:   app.Store,
		logger:  logger,
		editors: make(map[*document.Document]*Editor),
		panes:   NewPaneManager(80, 24), // updated on WindowSizeMsg
		output:  NewOutputPane(),
		log:     ring,
		help:    help.New(),
		keys:    app.Keys,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle(m.title())
}

// title is the window title for the active document.
func (m *Model) title() string {
	name := document.UntitledTitle
	if d := m.sess.Active(); d != nil {
		name = d.Title()
	}
	return name + " - " + appName
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if t := m.title(); t != m.windowTitle {
		m.windowTitle = t
		cmd = tea.Batch(cmd, tea.SetWindowTitle(t))
	}
	return m, cmd
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.panes.UpdateSize(msg.Width, msg.Height)
		return nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case compileDoneMsg:
		return m.compileDone(msg)

	case testBuiltMsg:
		return m.testBuilt(msg)
	}
	return nil
}

// editor returns the editor for the active document.
func (m *Model) editor() *Editor {
	d := m.sess.Active()
	if d == nil {
		d = m.sess.CreateBlank()
	}
	e, ok := m.editors[d]
	if !ok {
		e = NewEditor(d)
		m.editors[d] = e
	}
	return e
}

// pruneEditors drops editors whose documents were closed.
func (m *Model) pruneEditors() {
	open := make(map[*document.Document]bool)
	for _, d := range m.sess.Documents() {
		open[d] = true
	}
	for d := range m.editors {
		if !open[d] {
			delete(m.editors, d)
		}
	}
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Prompts are modal
	if m.prompt != nil {
		m.prompt.HandleKey(msg)
		if m.prompt.Done {
			return m.finishPrompt()
		}
		return nil
	}

	if m.auto != nil {
		if cmd, ok := m.handleAutocompleteKey(msg); ok {
			return cmd
		}
	}

	// Global shortcuts (always work regardless of focus)
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.New):
		m.sess.CreateBlank()
		m.auto = nil
		return nil
	case key.Matches(msg, m.keys.Open):
		return m.openPrompt()
	case key.Matches(msg, m.keys.Save):
		return m.save()
	case key.Matches(msg, m.keys.SaveAs):
		return m.saveAs()
	case key.Matches(msg, m.keys.CloseTab):
		return m.closeTab()
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(1)
		return nil
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(-1)
		return nil
	case key.Matches(msg, m.keys.Compile):
		return m.compile()
	case key.Matches(msg, m.keys.CheckSyntax):
		return m.checkSyntax()
	case key.Matches(msg, m.keys.Test):
		return m.test()
	case key.Matches(msg, m.keys.ToggleOutput):
		m.toggleOutput()
		return nil
	case key.Matches(msg, m.keys.Keywords):
		m.toggleKeywords()
		return nil
	case key.Matches(msg, m.keys.RecentFiles):
		m.openPalette(recentPaneID, "recent files", recentCommands(m.sess.Recent()))
		return nil
	case key.Matches(msg, m.keys.CommandPalette):
		m.openPalette(commandPaneID, "commands", menuCommands)
		return nil
	case key.Matches(msg, m.keys.ToggleDebug):
		m.toggleDebug()
		return nil
	case key.Matches(msg, m.keys.CyclePane):
		if m.panes.HasPanes() {
			m.panes.FocusNext()
		}
		return nil
	case key.Matches(msg, m.keys.ClosePane):
		if fp := m.panes.FocusedPane(); fp != nil {
			m.closePane(fp.ID)
		}
		return nil
	case key.Matches(msg, m.keys.ShowKeys):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	}

	// Route to focused pane first
	if fp := m.panes.FocusedPane(); fp != nil && fp.Content != nil {
		if fp.Content.HandleKey(msg) {
			return m.afterPaneInput(fp)
		}
	}

	return m.handleEditorKey(msg)
}

// handleAutocompleteKey handles keys while the popup is open. ok is false
// when the key should fall through to normal handling.
func (m *Model) handleAutocompleteKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Indent), key.Matches(msg, m.keys.Newline):
		e := m.editor()
		e.Replace(m.auto.Anchor, m.auto.SelectedOption())
		m.auto = nil
		return nil, true
	case key.Matches(msg, m.keys.Down):
		m.auto.CycleNext()
		return nil, true
	case key.Matches(msg, m.keys.Up):
		m.auto.CyclePrev()
		return nil, true
	case key.Matches(msg, m.keys.ClosePane):
		m.auto = nil
		return nil, true
	}
	// Anything else dismisses; typing re-triggers it.
	m.auto = nil
	return nil, false
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	e := m.editor()
	page := max(m.editorHeight()-1, 1)

	switch {
	case key.Matches(msg, m.keys.Autocomplete):
		m.trigger()
	case key.Matches(msg, m.keys.Up):
		e.MoveVertical(-1)
	case key.Matches(msg, m.keys.Down):
		e.MoveVertical(1)
	case key.Matches(msg, m.keys.Left):
		e.MoveLeft()
	case key.Matches(msg, m.keys.Right):
		e.MoveRight()
	case key.Matches(msg, m.keys.Home):
		e.Home()
	case key.Matches(msg, m.keys.End):
		e.End()
	case key.Matches(msg, m.keys.PgUp):
		e.MoveVertical(-page)
	case key.Matches(msg, m.keys.PgDn):
		e.MoveVertical(page)
	case key.Matches(msg, m.keys.Newline):
		e.Insert("\n")
	case key.Matches(msg, m.keys.Indent):
		e.Insert(indentText)
	case key.Matches(msg, m.keys.Backspace):
		e.Backspace()
	case key.Matches(msg, m.keys.Delete):
		e.DeleteForward()
	case msg.Type == tea.KeySpace:
		e.Insert(" ")
	case msg.Type == tea.KeyRunes && !msg.Alt:
		e.Insert(string(msg.Runes))
		m.trigger()
	}
	return nil
}

// trigger refreshes the completion popup for the word at the caret.
func (m *Model) trigger() {
	e := m.editor()
	_, col := e.Caret()
	m.auto = NewAutocomplete(m.vocab.Trigger(e.Line(), col))
}

func (m *Model) switchTab(delta int) {
	n := m.sess.Count()
	if n == 0 {
		return
	}
	m.sess.Activate(((m.sess.ActiveIndex()+delta)%n + n) % n)
	m.auto = nil
}

// afterPaneInput acts on selections made inside a pane.
func (m *Model) afterPaneInput(p *Pane) tea.Cmd {
	switch c := p.Content.(type) {
	case *CommandPalette:
		if c.Chosen != nil {
			cmd := *c.Chosen
			m.closePane(p.ID)
			return m.runCommand(cmd)
		}
	case *DocPane:
		if c.Chosen != "" {
			m.editor().Insert(c.Chosen)
			c.Chosen = ""
			m.closePane(p.ID)
		}
	}
	return nil
}

// runCommand dispatches a palette entry.
func (m *Model) runCommand(c Command) tea.Cmd {
	if c.Arg != "" {
		m.openFile(c.Arg)
		return nil
	}
	switch c.Name {
	case cmdNew:
		m.sess.CreateBlank()
	case cmdOpen:
		return m.openPrompt()
	case cmdSave:
		return m.save()
	case cmdSaveAs:
		return m.saveAs()
	case cmdClose:
		return m.closeTab()
	case cmdCompile:
		return m.compile()
	case cmdCheckSyntax:
		return m.checkSyntax()
	case cmdTest:
		return m.test()
	case cmdOutput:
		m.toggleOutput()
	case cmdKeywords:
		m.toggleKeywords()
	case cmdRecent:
		m.openPalette(recentPaneID, "recent files", recentCommands(m.sess.Recent()))
	case cmdClearRecent:
		m.sess.ClearRecent()
		m.setStatus("recent files cleared")
	case cmdDefaultFont:
		return m.defaultFontPrompt()
	case cmdDebug:
		m.toggleDebug()
	case cmdQuit:
		return m.quit()
	}
	return nil
}

// Prompts

// ask shows a modal prompt.
func (m *Model) ask(p *PromptPane) {
	m.prompt = p
	m.auto = nil
	m.panes.AddCentered(promptPaneID, p, 64, 7)
}

func (m *Model) finishPrompt() tea.Cmd {
	p := m.prompt
	m.prompt = nil
	m.panes.Remove(promptPaneID)
	if p.onDone == nil {
		return nil
	}
	return p.onDone(m, p)
}

// suggestedPath is the prefilled answer for a save-as prompt.
func suggestedPath(d *document.Document) string {
	if d.Path() != "" {
		return d.Path()
	}
	return d.Title() + ".kms"
}

// gatherPath asks where to save d and records the reply in s.
func (m *Model) gatherPath(d *document.Document, s *document.Scripted, next func(*Model) tea.Cmd) tea.Cmd {
	m.ask(NewInputPrompt("save as", "Save "+d.Title()+" as:", suggestedPath(d), func(m *Model, p *PromptPane) tea.Cmd {
		if p.OK {
			s.Path = p.Value
		}
		return next(m)
	}))
	return nil
}

// gatherSave collects, into s, the replies the save-changes protocol will
// need for d, then calls next. A clean document needs none.
func (m *Model) gatherSave(d *document.Document, s *document.Scripted, next func(*Model) tea.Cmd) tea.Cmd {
	if !d.Modified() {
		return next(m)
	}
	m.ask(NewConfirmPrompt("unsaved changes", "Save changes to "+d.Title()+"?", func(m *Model, p *PromptPane) tea.Cmd {
		s.Answer = p.Answer
		if p.Answer == document.AnswerYes && d.Untitled() {
			return m.gatherPath(d, s, next)
		}
		return next(m)
	}))
	return nil
}

// File actions

func (m *Model) openPrompt() tea.Cmd {
	dir := ""
	if d := m.sess.Active(); d != nil && d.Path() != "" {
		dir = filepath.Dir(d.Path()) + string(filepath.Separator)
	}
	m.ask(NewInputPrompt("open", "Open script:", dir, func(m *Model, p *PromptPane) tea.Cmd {
		if p.OK {
			m.openFile(p.Value)
		}
		return nil
	}))
	return nil
}

func (m *Model) openFile(path string) {
	d, err := m.sess.Open(path)
	if err != nil {
		m.logger.Error("open failed", "path", path, "err", err)
		m.setStatus("cannot open %s: %v", path, err)
		return
	}
	m.auto = nil
	m.setStatus("opened %s", d.Path())
}

func (m *Model) save() tea.Cmd {
	d := m.sess.Active()
	if d == nil {
		return nil
	}
	s := &document.Scripted{Answer: document.AnswerYes}
	if d.Untitled() {
		return m.gatherPath(d, s, func(m *Model) tea.Cmd {
			m.reportSave(m.sess.Save(s))
			return nil
		})
	}
	m.reportSave(m.sess.Save(s))
	return nil
}

func (m *Model) saveAs() tea.Cmd {
	d := m.sess.Active()
	if d == nil {
		return nil
	}
	s := &document.Scripted{Answer: document.AnswerYes}
	return m.gatherPath(d, s, func(m *Model) tea.Cmd {
		m.reportSave(m.sess.SaveAs(s))
		return nil
	})
}

func (m *Model) reportSave(res document.SaveResult, err error) {
	switch res {
	case document.Saved:
		m.setStatus("saved %s", m.sess.Active().Path())
	case document.Cancelled:
		m.setStatus("save cancelled")
	default:
		m.logger.Error("save failed", "err", err)
		m.setStatus("save failed: %v", err)
	}
}

func (m *Model) closeTab() tea.Cmd {
	d := m.sess.Active()
	if d == nil {
		return nil
	}
	s := &document.Scripted{}
	return m.gatherSave(d, s, func(m *Model) tea.Cmd {
		dec, err := m.sess.CloseActive(s)
		switch {
		case err != nil:
			m.logger.Error("close failed", "title", d.Title(), "err", err)
			m.setStatus("not closed: %v", err)
		case dec == document.Cancel:
			m.setStatus("close cancelled")
		default:
			m.pruneEditors()
			m.auto = nil
		}
		return nil
	})
}

// quit asks about each modified document in tab order, stopping at the
// first cancel, then runs the close protocol over all of them.
func (m *Model) quit() tea.Cmd {
	q := &document.Queue{}
	return m.gatherQuit(q, 0)
}

func (m *Model) gatherQuit(q *document.Queue, from int) tea.Cmd {
	docs := m.sess.Documents()
	for i := from; i < len(docs); i++ {
		d := docs[i]
		if !d.Modified() {
			continue
		}
		m.sess.Activate(i)
		s := &document.Scripted{}
		q.Push(s)
		return m.gatherSave(d, s, func(m *Model) tea.Cmd {
			if s.Answer == document.AnswerCancel {
				return m.finishQuit(q)
			}
			return m.gatherQuit(q, i+1)
		})
	}
	return m.finishQuit(q)
}

func (m *Model) finishQuit(q *document.Queue) tea.Cmd {
	dec, err := m.sess.ConfirmQuit(q)
	if dec != document.Proceed {
		if err != nil {
			m.logger.Error("save failed", "err", err)
			m.setStatus("not quitting: %v", err)
		} else {
			m.setStatus("quit cancelled")
		}
		return nil
	}
	m.shutdown()
	return tea.Quit
}

// shutdown closes panes holding resources, drops any test build still
// running and persists the session.
func (m *Model) shutdown() {
	if m.pending != nil {
		m.pending.abandon()
		m.bench.Abandon(m.pending.build)
		m.pending = nil
	}
	for _, id := range m.panes.IDs() {
		m.closePane(id)
	}
	if err := m.sess.Persist(); err != nil {
		m.logger.Error("session not saved", "err", err)
	}
}

// Compiler actions

func (m *Model) compilerBusy() bool {
	if m.busy {
		m.setStatus("compiler is busy")
	}
	return m.busy
}

// ensureSaved gathers save replies for the active document and hands the
// path to compile from to next.
func (m *Model) ensureSaved(next func(m *Model, src string) tea.Cmd) tea.Cmd {
	d := m.sess.Active()
	if d == nil {
		return nil
	}
	s := &document.Scripted{}
	return m.gatherSave(d, s, func(m *Model) tea.Cmd {
		src, err := m.bench.EnsureSaved(s)
		if err != nil {
			m.reportCancelled(err)
			return nil
		}
		return next(m, src)
	})
}

func (m *Model) reportCancelled(err error) {
	if errors.Is(err, workbench.ErrCancelled) {
		m.setStatus("cancelled")
		return
	}
	m.logger.Error("not compiled", "err", err)
	m.setStatus("%v", err)
}

func (m *Model) compile() tea.Cmd {
	if m.compilerBusy() {
		return nil
	}
	return m.ensureSaved(func(m *Model, src string) tea.Cmd {
		if src == "" {
			return m.startCompile("Compile", src, "")
		}
		m.ask(NewInputPrompt("compile", "Write layout to:", defaultOutput(src), func(m *Model, p *PromptPane) tea.Cmd {
			if !p.OK {
				m.setStatus("compile cancelled")
				return nil
			}
			return m.startCompile("Compile", src, p.Value)
		}))
		return nil
	})
}

func (m *Model) checkSyntax() tea.Cmd {
	if m.compilerBusy() {
		return nil
	}
	return m.ensureSaved(func(m *Model, src string) tea.Cmd {
		return m.startCompile("Check", src, "")
	})
}

// startCompile runs the compiler off the UI goroutine. An empty output
// means a syntax check.
func (m *Model) startCompile(action, src, output string) tea.Cmd {
	m.busy = true
	m.setStatus("%s running...", strings.ToLower(action))
	p := m.bench.Pipeline()
	if output != "" {
		if abs, err := filepath.Abs(output); err == nil {
			output = abs
		}
	}
	return func() tea.Msg {
		ctx := context.Background()
		if output == "" {
			return compileDoneMsg{action: action, res: p.CheckSyntax(ctx, src)}
		}
		return compileDoneMsg{action: action, res: p.Compile(ctx, src, output)}
	}
}

func (m *Model) compileDone(msg compileDoneMsg) tea.Cmd {
	m.busy = false
	m.showResult(msg.action, msg.res)
	return nil
}

// showResult logs a compile result to the output pane and reports it.
func (m *Model) showResult(action string, res compiler.Result) {
	m.output.Append(outputText(action, res))
	m.showOutput()
	if res.OK() {
		if res.Summary != "" {
			m.setStatus("%s succeeded: %s", strings.ToLower(action), res.Summary)
		} else {
			m.setStatus("%s succeeded", strings.ToLower(action))
		}
		return
	}
	m.setStatus("%s: %s", strings.ToLower(action), res.Outcome)
	m.showReport(action, res)
}

func (m *Model) test() tea.Cmd {
	if m.compilerBusy() {
		return nil
	}
	d := m.sess.Active()
	if d == nil {
		return nil
	}
	s := &document.Scripted{}
	return m.gatherSave(d, s, func(m *Model) tea.Cmd {
		tb, err := m.bench.PrepareTest(s)
		if err != nil {
			m.reportCancelled(err)
			return nil
		}
		m.busy = true
		m.setStatus("building test layout...")
		ctx, cancel := context.WithCancel(context.Background())
		run := &pendingTest{build: tb, cancel: cancel}
		m.pending = run
		bench := m.bench
		return func() tea.Msg {
			defer cancel()
			res := bench.Build(ctx, tb)
			if !run.finish() {
				bench.Abandon(tb)
				return nil
			}
			return testBuiltMsg{build: tb, res: res}
		}
	})
}

func (m *Model) testBuilt(msg testBuiltMsg) tea.Cmd {
	m.busy = false
	m.pending = nil
	m.showResult("Test build", msg.res)
	s, status, err := m.bench.StartTest(msg.build, msg.res)
	if status != tester.Started {
		if msg.res.OK() {
			m.logger.Error("test not started", "err", err)
			m.setStatus("%v", err)
		}
		return nil
	}
	m.closePane(testerPaneID)
	w, h := min(60, m.width), min(12, m.height)
	m.panes.AddCentered(testerPaneID, NewTesterPane(s), w, h)
	m.setStatus("testing %s", s.Keyboard().Name())
	return nil
}

func (m *Model) defaultFontPrompt() tea.Cmd {
	f := m.bench.DefaultFont()
	value := fmt.Sprintf("%s %g", f.Family, f.Size)
	m.ask(NewInputPrompt("default font", "Tester font (family size):", value, func(m *Model, p *PromptPane) tea.Cmd {
		if !p.OK {
			return nil
		}
		m.setDefaultFont(parseFont(p.Value, f.Size))
		return nil
	}))
	return nil
}

// parseFont reads "Family Name 12". A missing or bad size keeps size.
func parseFont(s string, size float64) tester.Font {
	fields := strings.Fields(s)
	if n := len(fields); n > 1 {
		if v, err := strconv.ParseFloat(fields[n-1], 64); err == nil && v > 0 {
			return tester.Font{Family: strings.Join(fields[:n-1], " "), Size: v}
		}
	}
	return tester.Font{Family: strings.Join(fields, " "), Size: size}
}

func (m *Model) setDefaultFont(f tester.Font) {
	m.bench.SetDefaultFont(f)
	m.setStatus("tester font %s %gpt", f.Family, f.Size)
	if m.store == nil {
		return
	}
	if err := m.store.Set(settings.KeyDefaultFontName, f.Family); err != nil {
		m.logger.Error("font not saved", "err", err)
		return
	}
	if err := m.store.Set(settings.KeyDefaultFontSize, strconv.FormatFloat(f.Size, 'g', -1, 64)); err != nil {
		m.logger.Error("font not saved", "err", err)
	}
}

// Panes

// closePane removes a pane, releasing whatever it holds.
func (m *Model) closePane(id string) {
	p := m.panes.Get(id)
	if p == nil {
		return
	}
	if c, ok := p.Content.(io.Closer); ok {
		if err := c.Close(); err != nil {
			m.logger.Warn("pane close", "pane", id, "err", err)
		}
	}
	m.panes.Remove(id)
}

func (m *Model) showOutput() {
	if m.panes.Get(outputPaneID) != nil {
		return
	}
	w := min(outputPaneW, m.width)
	h := min(outputPaneH, m.height)
	m.panes.Add(NewPane(outputPaneID, m.output, max(m.width-w, 0), max(m.height-h-2, 0), w, h))
}

func (m *Model) toggleOutput() {
	if m.panes.Get(outputPaneID) != nil {
		m.closePane(outputPaneID)
		return
	}
	m.showOutput()
	m.panes.Focus(outputPaneID)
}

func (m *Model) showReport(action string, res compiler.Result) {
	w := min(72, m.width)
	h := min(20, m.height-2)
	m.panes.AddCentered(reportPaneID, NewDocPane("report", reportMarkdown(action, res), nil, max(w-4, 20)), w, h)
}

func (m *Model) toggleKeywords() {
	if m.panes.Get(keywordPaneID) != nil {
		m.closePane(keywordPaneID)
		return
	}
	w := min(64, m.width)
	h := max(m.height-4, 10)
	m.panes.AddCentered(keywordPaneID, NewKeywordPane(m.vocab, max(w-4, 20)), w, h)
}

func (m *Model) toggleDebug() {
	if m.panes.Get(debugPaneID) != nil {
		m.closePane(debugPaneID)
		return
	}
	paneW := 50
	paneH := max(m.editorHeight(), 10)
	m.panes.Add(NewPane(debugPaneID, NewDebugPane(m.log), max(m.width-paneW-2, 0), 1, paneW, paneH))
	m.panes.Focus(debugPaneID)
}

func (m *Model) openPalette(id, title string, cmds []Command) {
	w := min(60, m.width)
	h := min(max(len(cmds)+4, 6), max(m.height-4, 6))
	m.panes.AddCentered(id, NewCommandPalette(title, cmds), w, h)
}

// Mouse

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.prompt != nil {
		return nil
	}

	if pane := m.panes.Dragging(); pane != nil {
		switch msg.Action {
		case tea.MouseActionMotion:
			pane.UpdateDrag(msg.X, msg.Y, m.width, m.height)
		case tea.MouseActionRelease:
			pane.StopDrag()
		}
		return nil
	}

	pane := m.panes.PaneAt(msg.X, msg.Y)

	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		if pane != nil && pane.Content != nil {
			pane.Content.HandleMouse(msg.X-pane.X-1, msg.Y-pane.Y-1, msg)
			return nil
		}
		if msg.Button == tea.MouseButtonWheelUp {
			m.editor().MoveVertical(-3)
		} else {
			m.editor().MoveVertical(3)
		}
		return nil
	}

	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return nil
	}

	if pane != nil {
		m.panes.Focus(pane.ID)
		if pane.OnTitleBar(msg.X, msg.Y) {
			pane.StartDrag(msg.X, msg.Y)
			return nil
		}
		if pane.Content != nil && pane.Content.HandleMouse(msg.X-pane.X-1, msg.Y-pane.Y-1, msg) {
			return m.afterPaneInput(pane)
		}
		return nil
	}

	// Click outside panes returns keys to the editor
	m.panes.Blur()
	m.auto = nil
	if msg.Y == 0 {
		if i := tabAt(m.tabLabels(), msg.X); i >= 0 {
			m.sess.Activate(i)
		}
		return nil
	}
	m.clickEditor(msg.X, msg.Y)
	return nil
}

// clickEditor moves the caret to the clicked cell.
func (m *Model) clickEditor(x, y int) {
	e := m.editor()
	row := e.scrollY + y - 2 // tab bar and top border
	if row < e.scrollY || row >= e.scrollY+m.editorHeight() {
		return
	}
	gw := gutterWidth(len(e.doc.Lines()))
	e.MoveTo(row, e.ColumnAt(row, x-1-gw))
}

// View

// tabLabels returns the tab bar labels in tab order.
func (m *Model) tabLabels() []string {
	docs := m.sess.Documents()
	labels := make([]string, len(docs))
	for i, d := range docs {
		label := d.Title()
		if d.Modified() {
			label = "* " + label
		}
		labels[i] = " " + label + " "
	}
	return labels
}

// tabAt returns the index of the tab label at cell x, or -1.
func tabAt(labels []string, x int) int {
	pos := 0
	for i, l := range labels {
		w := ansi.StringWidth(l)
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1
	}
	return -1
}

func (m Model) renderTabs(w int) string {
	active := lipgloss.NewStyle().Background(AccentColor).Foreground(lipgloss.Color("0")).Bold(true)
	inactive := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	var parts []string
	for i, l := range m.tabLabels() {
		if i == m.sess.ActiveIndex() {
			parts = append(parts, active.Render(l))
		} else {
			parts = append(parts, inactive.Render(l))
		}
	}
	return fitWidth(strings.Join(parts, " "), w)
}

// helpHeight is the number of lines the help view takes.
func (m *Model) helpHeight() int {
	if m.help.ShowAll {
		return 5
	}
	return 1
}

// editorHeight is the number of text lines inside the editor box.
func (m *Model) editorHeight() int {
	h := m.height
	if h < 5 {
		h = 24
	}
	return max(h-m.helpHeight()-4, 1) // tab bar, borders, status line
}

func (m Model) View() string {
	w := m.width
	if w < 20 {
		w = 80
	}

	e := m.editor()
	contentW := w - 2
	contentH := m.editorHeight()

	box := renderBox(e.Document().Title(), e.Render(contentW, contentH), contentW, contentH, AccentColor)
	base := m.renderTabs(w) + "\n" + box + "\n" + m.renderStatus(w)

	if m.auto != nil {
		base = m.overlayAutocomplete(base, w, contentH)
	}

	// Composite floating panes over the editor
	if m.panes.HasPanes() {
		base = m.panes.Render(base)
	}

	m.help.Width = w
	return base + "\n" + m.help.View(m.keys)
}

// overlayAutocomplete draws the completion popup under the word being
// completed, or above it when there is no room below.
func (m Model) overlayAutocomplete(base string, w, contentH int) string {
	cx, cy := m.editor().ScreenCaret()
	popup := m.auto.Render(w/2, contentH)
	pw := m.auto.Width()
	ph := m.auto.Height(contentH)

	x := clamp(1+cx-ansi.StringWidth(m.auto.Word), 0, max(w-pw, 0))
	y := 2 + cy + 1
	if y+ph > 2+contentH {
		y = max(2+cy-ph, 2)
	}
	return overlay(base, w, func(buf *cellbuf.Buffer) {
		paint(buf, popup, cellbuf.Rect(x, y, pw, ph))
	})
}

func (m Model) renderStatus(w int) string {
	row, col := m.editor().Caret()
	pos := fmt.Sprintf("Ln %d, Col %d", row+1, col+1)
	if m.busy {
		pos = "compiling · " + pos
	}
	left := fitWidth(m.status, max(w-ansi.StringWidth(pos)-1, 0))
	pad := max(w-ansi.StringWidth(left)-ansi.StringWidth(pos), 1)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	return style.Render(left + strings.Repeat(" ", pad) + pos)
}

func renderBox(title, content string, w, h int, borderColor color.Color) string {
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(borderColor).Bold(true)

	title = ansi.Truncate(title, max(w-4, 0), "…")
	fill := max(w-ansi.StringWidth(title)-3, 0)
	top := borderStyle.Render("╭─ ") + titleStyle.Render(title) + borderStyle.Render(" "+strings.Repeat("─", fill)+"╮")
	bottom := borderStyle.Render("╰" + strings.Repeat("─", w) + "╯")

	lines := strings.Split(content, "\n")
	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString("\n")
	for i := 0; i < h; i++ {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		sb.WriteString(borderStyle.Render("│"))
		sb.WriteString(fitWidth(line, w))
		sb.WriteString(borderStyle.Render("│"))
		sb.WriteString("\n")
	}
	sb.WriteString(bottom)
	return sb.String()
}
