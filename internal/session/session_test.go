package session

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/keymagic/kmsedit/internal/document"
	"github.com/keymagic/kmsedit/internal/settings"
)

func makeFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte(n), 0644); err != nil {
			t.Fatalf("setup: %v", err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestNewManagerEmpty(t *testing.T) {
	m := NewManager()
	if m.Count() != 0 || m.ActiveIndex() != -1 || m.Active() != nil {
		t.Errorf("new manager: count=%d active=%d", m.Count(), m.ActiveIndex())
	}
}

func TestOpenOrFocusNeverDuplicates(t *testing.T) {
	paths := makeFiles(t, "a.kms", "b.kms")
	m := NewManager()

	a1, err := m.OpenOrFocus(paths[0])
	if err != nil {
		t.Fatalf("OpenOrFocus: %v", err)
	}
	if _, err := m.OpenOrFocus(paths[1]); err != nil {
		t.Fatalf("OpenOrFocus: %v", err)
	}
	if m.ActiveIndex() != 1 {
		t.Errorf("Active = %d, want 1", m.ActiveIndex())
	}

	a2, err := m.OpenOrFocus(paths[0])
	if err != nil {
		t.Fatalf("OpenOrFocus again: %v", err)
	}
	if a1 != a2 {
		t.Error("second open returned a different document")
	}
	if m.Count() != 2 {
		t.Errorf("Count = %d, want 2", m.Count())
	}
	if m.ActiveIndex() != 0 {
		t.Errorf("Active = %d, want 0 after refocus", m.ActiveIndex())
	}

	// Same file through a non-clean path still matches.
	dirty := filepath.Join(filepath.Dir(paths[1]), ".", "b.kms")
	if _, err := m.OpenOrFocus(dirty); err != nil {
		t.Fatal(err)
	}
	if m.Count() != 2 || m.ActiveIndex() != 1 {
		t.Errorf("count=%d active=%d, want 2/1", m.Count(), m.ActiveIndex())
	}
}

func TestOpenOrFocusMissingFile(t *testing.T) {
	m := NewManager()
	if _, err := m.OpenOrFocus(filepath.Join(t.TempDir(), "gone.kms")); err == nil {
		t.Fatal("expected error")
	}
	if m.Count() != 0 || m.ActiveIndex() != -1 {
		t.Errorf("failed open changed state: count=%d active=%d", m.Count(), m.ActiveIndex())
	}
}

func TestOpenRecordsRecent(t *testing.T) {
	paths := makeFiles(t, "a.kms")
	m := NewManager()
	if _, err := m.Open(paths[0]); err != nil {
		t.Fatal(err)
	}
	if got := m.Recent(); !reflect.DeepEqual(got, []string{paths[0]}) {
		t.Errorf("Recent = %v", got)
	}
}

func TestRecordRecentMovesToEnd(t *testing.T) {
	m := NewManager()
	for _, p := range []string{"A", "B", "C", "A"} {
		m.RecordRecent(p)
	}
	if got := m.Recent(); !reflect.DeepEqual(got, []string{"B", "C", "A"}) {
		t.Errorf("Recent = %v, want [B C A]", got)
	}
}

func TestRecordRecentCapsAtTen(t *testing.T) {
	m := NewManager()
	for i := 0; i < 15; i++ {
		m.RecordRecent(string(rune('a' + i)))
	}
	got := m.Recent()
	if len(got) != MaxRecent {
		t.Fatalf("len(Recent) = %d, want %d", len(got), MaxRecent)
	}
	if got[0] != "f" || got[9] != "o" {
		t.Errorf("Recent = %v, want f..o", got)
	}

	m.RecordRecent("")
	if len(m.Recent()) != MaxRecent {
		t.Error("empty path should be ignored")
	}
	m.ClearRecent()
	if len(m.Recent()) != 0 {
		t.Error("ClearRecent left entries")
	}
}

func TestCreateBlankIsCleanAndActive(t *testing.T) {
	m := NewManager()
	m.CreateBlank()
	d := m.CreateBlank()
	if m.Active() != d || d.Modified() || !d.Untitled() {
		t.Error("blank document should be active, clean, and untitled")
	}
}

func TestCloseAdjustsActive(t *testing.T) {
	m := NewManager()
	m.CreateBlank()
	m.CreateBlank()
	third := m.CreateBlank()
	m.Activate(2)

	p := &document.Scripted{}
	if dec, _ := m.Close(0, p); dec != document.Proceed {
		t.Fatalf("Close = %v", dec)
	}
	if m.ActiveIndex() != 1 || m.Active() != third {
		t.Errorf("active = %d, want 1 pointing at the same document", m.ActiveIndex())
	}

	if dec, _ := m.Close(1, p); dec != document.Proceed {
		t.Fatal("close failed")
	}
	if m.ActiveIndex() != 0 {
		t.Errorf("active = %d, want 0", m.ActiveIndex())
	}
	if p.Confirms != 0 {
		t.Error("closing clean blank documents must not prompt")
	}
}

func TestCloseLastCreatesBlank(t *testing.T) {
	paths := makeFiles(t, "a.kms")
	m := NewManager()
	if _, err := m.OpenOrFocus(paths[0]); err != nil {
		t.Fatal(err)
	}
	if dec, _ := m.CloseActive(&document.Scripted{}); dec != document.Proceed {
		t.Fatal("close failed")
	}
	if m.Count() != 1 {
		t.Fatalf("Count = %d, want 1", m.Count())
	}
	if !m.Active().Untitled() {
		t.Error("replacement document should be untitled")
	}
}

func TestCloseCancelKeepsTab(t *testing.T) {
	m := NewManager()
	d := m.CreateBlank()
	d.SetText("unsaved")

	dec, err := m.CloseActive(&document.Scripted{Answer: document.AnswerCancel})
	if dec != document.Cancel || err != nil {
		t.Errorf("Close = %v, %v", dec, err)
	}
	if m.Count() != 1 || m.Active() != d || !d.Modified() {
		t.Error("cancelled close must leave the document open and modified")
	}
}

func TestCloseOutOfRange(t *testing.T) {
	m := NewManager()
	if _, err := m.Close(3, &document.Scripted{}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("err = %v, want ErrNoDocument", err)
	}
}

func TestActionsWithoutActiveDocument(t *testing.T) {
	m := NewManager()
	if _, err := m.Save(&document.Scripted{}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("Save err = %v", err)
	}
	if _, err := m.SaveAs(&document.Scripted{}); !errors.Is(err, ErrNoDocument) {
		t.Errorf("SaveAs err = %v", err)
	}
	if m.Activate(0) {
		t.Error("Activate on empty manager should fail")
	}
}

func TestSaveAsRecordsRecent(t *testing.T) {
	m := NewManager()
	d := m.CreateBlank()
	d.SetText("x")
	path := filepath.Join(t.TempDir(), "new.kms")

	res, err := m.Save(&document.Scripted{Path: path})
	if res != document.Saved || err != nil {
		t.Fatalf("Save = %v, %v", res, err)
	}
	if got := m.Recent(); len(got) != 1 || got[0] != path {
		t.Errorf("Recent = %v", got)
	}

	res, _ = m.SaveAs(&document.Scripted{})
	if res != document.Cancelled {
		t.Errorf("SaveAs with aborted picker = %v", res)
	}
	if len(m.Recent()) != 1 {
		t.Error("cancelled save should not touch recent files")
	}
}

func TestSaveAsRefusesPathOpenInAnotherTab(t *testing.T) {
	paths := makeFiles(t, "a.kms")
	m := NewManager()
	if _, err := m.Open(paths[0]); err != nil {
		t.Fatal(err)
	}
	d := m.CreateBlank()
	d.SetText("B")

	res, err := m.SaveAs(&document.Scripted{Path: paths[0]})
	if res != document.Failed || !errors.Is(err, ErrAlreadyOpen) {
		t.Fatalf("SaveAs = %v, %v; want Failed, ErrAlreadyOpen", res, err)
	}
	if data, _ := os.ReadFile(paths[0]); string(data) != "a.kms" {
		t.Errorf("file overwritten: %q", data)
	}
	if !d.Untitled() || !d.Modified() {
		t.Error("refused save must leave the document untouched")
	}
	if got := m.OpenPaths(); !reflect.DeepEqual(got, paths) {
		t.Errorf("OpenPaths = %v", got)
	}

	// the untitled route through Save is covered too
	if res, _ := m.Save(&document.Scripted{Path: paths[0]}); res != document.Failed {
		t.Errorf("Save = %v, want Failed", res)
	}

	// saving a tab under its own path is fine
	m.Activate(0)
	if res, err := m.SaveAs(&document.Scripted{Path: paths[0]}); res != document.Saved {
		t.Errorf("SaveAs own path = %v, %v", res, err)
	}
}

func TestConfirmQuitStopsAtCancel(t *testing.T) {
	m := NewManager()
	m.CreateBlank()
	dirty := m.CreateBlank()
	dirty.SetText("x")
	m.CreateBlank()

	p := &document.Scripted{Answer: document.AnswerCancel}
	if dec, _ := m.ConfirmQuit(p); dec != document.Cancel {
		t.Fatalf("ConfirmQuit = %v, want Cancel", dec)
	}
	if m.ActiveIndex() != 1 {
		t.Errorf("active = %d, want the cancelled tab", m.ActiveIndex())
	}
	if p.Confirms != 1 {
		t.Errorf("Confirms = %d, want 1", p.Confirms)
	}

	if dec, _ := m.ConfirmQuit(&document.Scripted{Answer: document.AnswerNo}); dec != document.Proceed {
		t.Error("ConfirmQuit with No should proceed")
	}
	if m.Count() != 3 {
		t.Error("ConfirmQuit must not remove documents")
	}
}

func TestPersistAndRestore(t *testing.T) {
	paths := makeFiles(t, "a.kms", "b.kms", "c.kms")
	store := settings.NewMemory()

	m := NewManager(WithStore(store))
	for _, p := range paths {
		if _, err := m.Open(p); err != nil {
			t.Fatal(err)
		}
	}
	m.CreateBlank().SetText("lost on restart")
	if err := m.Persist(); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	tabs, _ := store.Get(settings.KeyLastTabs)
	if tabs != JoinPaths(paths) {
		t.Errorf("LastTabs = %q", tabs)
	}

	// A stale path in the saved state is skipped.
	if err := os.Remove(paths[1]); err != nil {
		t.Fatal(err)
	}

	restored := NewManager(WithStore(store))
	last, err := restored.LoadState()
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if n := restored.Restore(last); n != 2 {
		t.Errorf("Restore opened %d, want 2", n)
	}
	if got := restored.OpenPaths(); !reflect.DeepEqual(got, []string{paths[0], paths[2]}) {
		t.Errorf("OpenPaths = %v", got)
	}
	if got := restored.Recent(); !reflect.DeepEqual(got, paths) {
		t.Errorf("Recent = %v, want %v", got, paths)
	}
}

func TestRestoreFreshInstall(t *testing.T) {
	m := NewManager(WithStore(settings.NewMemory()))
	tabs, err := m.LoadState()
	if err != nil {
		t.Fatal(err)
	}
	if n := m.Restore(tabs); n != 1 {
		t.Fatalf("Restore = %d, want 1", n)
	}
	if !m.Active().Untitled() {
		t.Error("fresh session should hold one blank document")
	}
}

func TestRestoreAllStaleFallsBackToBlank(t *testing.T) {
	dir := t.TempDir()
	stale := []string{filepath.Join(dir, "gone.kms"), filepath.Join(dir, "also-gone.kms")}

	m := NewManager()
	if n := m.Restore(stale); n != 1 {
		t.Fatalf("Restore = %d, want 1", n)
	}
	if m.Count() != 1 || m.ActiveIndex() != 0 {
		t.Errorf("Count = %d, active = %d", m.Count(), m.ActiveIndex())
	}
	if d := m.Active(); d == nil || !d.Untitled() || d.Modified() {
		t.Error("all-stale restore should leave one clean untitled document")
	}
}

func TestRestoreFocusesCommandLineFile(t *testing.T) {
	paths := makeFiles(t, "a.kms", "b.kms")
	m := NewManager()
	m.Restore(paths, paths[0])
	if m.Count() != 2 {
		t.Errorf("Count = %d, want 2", m.Count())
	}
	if m.ActiveIndex() != 0 {
		t.Errorf("active = %d, want the command-line file", m.ActiveIndex())
	}
}

func TestSplitPaths(t *testing.T) {
	got := SplitPaths("|a||b|")
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("SplitPaths = %v", got)
	}
	if len(SplitPaths("")) != 0 {
		t.Error("SplitPaths(\"\") should be empty")
	}
}
