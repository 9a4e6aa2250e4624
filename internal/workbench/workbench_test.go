package workbench

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/keymagic/kmsedit/internal/compiler"
	"github.com/keymagic/kmsedit/internal/document"
	"github.com/keymagic/kmsedit/internal/km2"
	"github.com/keymagic/kmsedit/internal/session"
	"github.com/keymagic/kmsedit/internal/tester"
)

// fakeRunner stands in for the compiler process. On success it writes a
// minimal layout to the output path.
type fakeRunner struct {
	calls int
	args  []string
	exit  int
}

func (f *fakeRunner) Run(ctx context.Context, tool string, args []string, timeout time.Duration) (compiler.RunResult, error) {
	f.calls++
	f.args = args
	if f.exit == 1 {
		return compiler.RunResult{ExitCode: 1, Stderr: "error\n"}, nil
	}
	if len(args) == 2 {
		if err := os.WriteFile(args[1], layout("Padauk"), 0644); err != nil {
			return compiler.RunResult{}, err
		}
	}
	return compiler.RunResult{Stdout: "ok\n1 glyphs, 1 rules\n"}, nil
}

func layout(font string) []byte {
	var buf bytes.Buffer
	buf.WriteString("KMKL")
	le := binary.LittleEndian
	binary.Write(&buf, le, []uint8{1, 5})
	binary.Write(&buf, le, []uint16{0, 1, 0})
	buf.Write([]byte{0, 0, 0, 0, 0})
	binary.Write(&buf, le, km2.InfoFont)
	binary.Write(&buf, le, uint16(len(font)))
	buf.WriteString(font)
	return buf.Bytes()
}

func setup(t *testing.T, r *fakeRunner) (*Bench, *session.Manager) {
	t.Helper()
	tool := filepath.Join(t.TempDir(), "parser")
	if err := os.WriteFile(tool, nil, 0755); err != nil {
		t.Fatal(err)
	}
	m := session.NewManager()
	b := New(m, compiler.New(tool, compiler.WithRunner(r)),
		WithDefaultFont(tester.Font{Family: "Myanmar3", Size: 12}))
	return b, m
}

func openScript(t *testing.T, m *session.Manager) *document.Document {
	t.Helper()
	p := filepath.Join(t.TempDir(), "my.kms")
	if err := os.WriteFile(p, []byte("$a = 'a'\n"), 0644); err != nil {
		t.Fatal(err)
	}
	d, err := m.Open(p)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestCompileCleanDocumentDoesNotPrompt(t *testing.T) {
	r := &fakeRunner{}
	b, m := setup(t, r)
	d := openScript(t, m)

	p := &document.Scripted{}
	res, err := b.Compile(context.Background(), p, "out.km2")
	if err != nil || !res.OK() {
		t.Fatalf("Compile = %v, %v", res.Outcome, err)
	}
	if p.Confirms != 0 {
		t.Error("clean document should compile without asking")
	}
	if r.args[0] != d.Path() {
		t.Errorf("compiled %q, want %q", r.args[0], d.Path())
	}
	if res.Summary != "1 glyphs, 1 rules" {
		t.Errorf("Summary = %q", res.Summary)
	}
}

func TestCompileCancelNeverRuns(t *testing.T) {
	r := &fakeRunner{}
	b, m := setup(t, r)
	openScript(t, m).SetText("changed")

	_, err := b.Compile(context.Background(), &document.Scripted{Answer: document.AnswerCancel}, "out.km2")
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v, want ErrCancelled", err)
	}
	if r.calls != 0 {
		t.Errorf("runner called %d times after cancel", r.calls)
	}
}

func TestCompileYesSavesFirst(t *testing.T) {
	r := &fakeRunner{}
	b, m := setup(t, r)
	d := openScript(t, m)
	d.SetText("$b = 'b'\n")

	if _, err := b.CheckSyntax(context.Background(), &document.Scripted{Answer: document.AnswerYes}); err != nil {
		t.Fatal(err)
	}
	if d.Modified() {
		t.Error("document should be saved before compiling")
	}
	data, _ := os.ReadFile(d.Path())
	if string(data) != "$b = 'b'\n" {
		t.Errorf("on disk = %q", data)
	}
	if len(r.args) != 1 {
		t.Errorf("check syntax args = %v", r.args)
	}
}

func TestCompileNoUsesDiskContents(t *testing.T) {
	r := &fakeRunner{}
	b, m := setup(t, r)
	d := openScript(t, m)
	d.SetText("unsaved")

	if _, err := b.Compile(context.Background(), &document.Scripted{Answer: document.AnswerNo}, "o.km2"); err != nil {
		t.Fatal(err)
	}
	if !d.Modified() || r.calls != 1 {
		t.Errorf("modified=%v calls=%d", d.Modified(), r.calls)
	}
}

func TestCompileUntitledWithoutSaving(t *testing.T) {
	r := &fakeRunner{}
	b, m := setup(t, r)
	m.CreateBlank().SetText("x")

	res, err := b.Compile(context.Background(), &document.Scripted{Answer: document.AnswerNo}, "o.km2")
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != compiler.NoSource || r.calls != 0 {
		t.Errorf("Outcome = %v calls = %d", res.Outcome, r.calls)
	}

	_, err = b.Compile(context.Background(), &document.Scripted{Answer: document.AnswerYes}, "o.km2")
	if !errors.Is(err, ErrCancelled) {
		t.Errorf("aborted picker: err = %v, want ErrCancelled", err)
	}
}

func TestCompileNoDocument(t *testing.T) {
	b, _ := setup(t, &fakeRunner{})
	if _, err := b.Compile(context.Background(), &document.Scripted{}, "o.km2"); !errors.Is(err, session.ErrNoDocument) {
		t.Errorf("err = %v", err)
	}
}

func TestTestStartsSession(t *testing.T) {
	r := &fakeRunner{}
	b, m := setup(t, r)
	openScript(t, m)

	s, res, err := b.Test(context.Background(), &document.Scripted{})
	if err != nil || !res.OK() {
		t.Fatalf("Test = %v, %v", res.Outcome, err)
	}
	if s.Font().Family != "Padauk" || s.Font().Size != 12 {
		t.Errorf("Font = %+v", s.Font())
	}
	artifact := s.Artifact()
	if _, err := os.Stat(artifact); err != nil {
		t.Fatalf("artifact missing during test: %v", err)
	}
	s.Close()
	if _, err := os.Stat(artifact); !errors.Is(err, os.ErrNotExist) {
		t.Error("artifact left behind after Close")
	}
}

func TestFailedTestCompileDeletesArtifact(t *testing.T) {
	r := &fakeRunner{exit: 1}
	b, m := setup(t, r)
	openScript(t, m)

	tb, err := b.PrepareTest(&document.Scripted{})
	if err != nil {
		t.Fatal(err)
	}
	res := b.Build(context.Background(), tb)
	if res.Outcome != compiler.CompileFailure {
		t.Fatalf("Outcome = %v", res.Outcome)
	}
	s, st, err := b.StartTest(tb, res)
	if s != nil || st != tester.LoadFailed || err == nil {
		t.Errorf("StartTest = %v, %v, %v", s, st, err)
	}
	if _, err := os.Stat(tb.Artifact); !errors.Is(err, os.ErrNotExist) {
		t.Error("temp artifact not deleted after failed compile")
	}
}

func TestBadLayoutDeletesArtifact(t *testing.T) {
	r := &fakeRunner{}
	b, m := setup(t, r)
	openScript(t, m)
	tb, err := b.PrepareTest(&document.Scripted{})
	if err != nil {
		t.Fatal(err)
	}
	// A successful compile that leaves the reserved file empty.
	s, st, err := b.StartTest(tb, compiler.Result{Outcome: compiler.Success})
	if s != nil || st != tester.LoadFailed || err == nil {
		t.Errorf("StartTest = %v, %v, %v", s, st, err)
	}
	if _, err := os.Stat(tb.Artifact); !errors.Is(err, os.ErrNotExist) {
		t.Error("unloadable artifact not deleted")
	}
}
