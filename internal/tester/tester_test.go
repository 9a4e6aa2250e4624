package tester

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeKeyboard struct {
	font string
}

func (k fakeKeyboard) Name() string       { return "fake" }
func (k fakeKeyboard) FontFamily() string { return k.font }
func (k fakeKeyboard) Translate(key rune) string {
	if key == 'k' {
		return "က"
	}
	return string(key)
}

func engineFor(kb Keyboard, err error) Engine {
	return EngineFunc(func(string) (Keyboard, error) { return kb, err })
}

// countRemovals wraps os.Remove and counts calls.
func countRemovals(n *int) Option {
	return func(s *Session) {
		s.remove = func(p string) error {
			*n++
			return os.Remove(p)
		}
	}
}

func artifact(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "test.km2")
	if err := os.WriteFile(p, []byte("KMKL"), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func TestStartUsesLayoutFont(t *testing.T) {
	s, st, err := Start(engineFor(fakeKeyboard{font: "Padauk"}, nil), artifact(t), Font{"Myanmar3", 14})
	if st != Started || err != nil {
		t.Fatalf("Start = %v, %v", st, err)
	}
	if got := s.Font(); got.Family != "Padauk" || got.Size != 14 {
		t.Errorf("Font = %+v, want Padauk at 14", got)
	}
}

func TestStartFallsBackToDefaultFont(t *testing.T) {
	s, _, _ := Start(engineFor(fakeKeyboard{}, nil), artifact(t), Font{"Myanmar3", 12})
	if s.Font().Family != "Myanmar3" {
		t.Errorf("Font = %+v, want default", s.Font())
	}
}

func TestLoadFailedDeletesArtifact(t *testing.T) {
	p := artifact(t)
	var removals int
	s, st, err := Start(engineFor(nil, errors.New("corrupt")), p, Font{}, countRemovals(&removals))
	if st != LoadFailed || s != nil {
		t.Fatalf("Start = %v, session %v", st, s)
	}
	if err == nil || !strings.Contains(err.Error(), "cannot load keyboard file to test") {
		t.Errorf("err = %v", err)
	}
	if exists(p) {
		t.Error("artifact still present after load failure")
	}
	if removals != 1 {
		t.Errorf("removed %d times, want 1", removals)
	}
}

func TestCloseDeletesExactlyOnce(t *testing.T) {
	p := artifact(t)
	var removals int
	s, _, _ := Start(engineFor(fakeKeyboard{}, nil), p, Font{}, countRemovals(&removals))
	if !exists(p) {
		t.Fatal("artifact removed while session is open")
	}
	for i := 0; i < 3; i++ {
		if err := s.Close(); err != nil {
			t.Errorf("Close #%d: %v", i+1, err)
		}
	}
	if exists(p) {
		t.Error("artifact still present after Close")
	}
	if removals != 1 {
		t.Errorf("removed %d times, want 1", removals)
	}
}

func TestCloseToleratesMissingArtifact(t *testing.T) {
	p := artifact(t)
	s, _, _ := Start(engineFor(fakeKeyboard{}, nil), p, Font{})
	os.Remove(p)
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestTypeTranslates(t *testing.T) {
	s, _, _ := Start(engineFor(fakeKeyboard{}, nil), artifact(t), Font{})
	s.Type('k')
	if got := s.Type('a'); got != "ကa" {
		t.Errorf("output = %q", got)
	}
	if got := s.Backspace(); got != "က" {
		t.Errorf("after backspace = %q", got)
	}
	s.Backspace()
	if got := s.Backspace(); got != "" {
		t.Errorf("backspace on empty = %q", got)
	}
}
