package uitest

import (
	"fmt"
	"testing"
	"time"
)

// settle is how long a step waits for the program to redraw.
const settle = 300 * time.Millisecond

// Runner ties a tmux session to a test and a report.
type Runner struct {
	T       *testing.T
	Session *Session
	Report  *Report
}

// NewRunner starts cmd in dir and returns a runner recording into
// reportDir. The test is skipped when tmux is missing.
func NewRunner(t *testing.T, name string, width, height int, dir, cmd, reportDir string) *Runner {
	t.Helper()
	if err := RequireTmux(); err != nil {
		t.Skip(err)
	}
	s, err := NewSession(name, width, height, dir, cmd)
	if err != nil {
		t.Fatal(err)
	}
	r := &Runner{T: t, Session: s, Report: NewReport(name, reportDir)}
	t.Cleanup(func() { r.Session.Close() })
	return r
}

// Snapshot records the current screen under label.
func (r *Runner) Snapshot(label string) {
	screen, err := r.Session.Capture()
	if err != nil {
		r.T.Logf("snapshot %q: %v", label, err)
		return
	}
	r.Report.AddSnapshot(label, screen)
}

// Step sends keys, waits for a redraw and records a snapshot.
func (r *Runner) Step(label string, keys ...string) {
	r.T.Helper()
	if err := r.Session.SendKeys(keys...); err != nil {
		r.T.Fatalf("send keys for %q: %v", label, err)
	}
	time.Sleep(settle)
	r.Snapshot(label)
}

// Type sends literal text and waits for a redraw.
func (r *Runner) Type(text string) {
	r.T.Helper()
	if err := r.Session.Type(text); err != nil {
		r.T.Fatalf("type %q: %v", text, err)
	}
	time.Sleep(settle)
}

// Check records a named check, failing the test when ok is false.
func (r *Runner) Check(name string, ok bool) bool {
	r.T.Helper()
	r.Report.AddResult(name, ok)
	if !ok {
		r.T.Errorf("FAIL: %s", name)
		r.Snapshot(fmt.Sprintf("failed: %s", name))
	}
	return ok
}

// Shows reports whether the screen shows text within timeout.
func (r *Runner) Shows(text string, timeout time.Duration) bool {
	if err := r.Session.WaitFor(text, timeout); err != nil {
		r.T.Log(err)
		return false
	}
	return true
}

// Lacks reports whether the screen does not show text.
func (r *Runner) Lacks(text string) bool {
	found, err := r.Session.Contains(text)
	return err == nil && !found
}

// Finish writes the HTML report and logs where it went.
func (r *Runner) Finish() {
	path, err := r.Report.Generate()
	if err != nil {
		r.T.Errorf("write report: %v", err)
		return
	}
	r.T.Logf("report: %s", path)
}
