// Package workbench ties the editing session to the compiler and the tester:
// the Compile, Check Syntax and Test actions of the editor.
package workbench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/keymagic/kmsedit/internal/compiler"
	"github.com/keymagic/kmsedit/internal/document"
	"github.com/keymagic/kmsedit/internal/km2"
	"github.com/keymagic/kmsedit/internal/session"
	"github.com/keymagic/kmsedit/internal/tester"
)

// ErrCancelled is returned when the user backs out of the save prompt, or
// the save it led to did not go through.
var ErrCancelled = errors.New("cancelled")

// Bench runs build actions on the active document of a session.
type Bench struct {
	session  *session.Manager
	pipeline *compiler.Pipeline
	engine   tester.Engine
	font     tester.Font
	logger   *log.Logger
}

// Option configures a Bench.
type Option func(*Bench)

// WithEngine replaces the layout engine used by Test.
func WithEngine(e tester.Engine) Option {
	return func(b *Bench) { b.engine = e }
}

// WithDefaultFont sets the tester font used when a layout names none.
func WithDefaultFont(f tester.Font) Option {
	return func(b *Bench) { b.font = f }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(b *Bench) { b.logger = l }
}

// New creates a Bench.
func New(s *session.Manager, p *compiler.Pipeline, opts ...Option) *Bench {
	b := &Bench{
		session:  s,
		pipeline: p,
		engine:   KM2Engine(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.New(io.Discard)
	}
	return b
}

// KM2Engine loads layouts with the km2 decoder.
func KM2Engine() tester.Engine {
	return tester.EngineFunc(func(path string) (tester.Keyboard, error) {
		kb, err := km2.Load(path)
		if err != nil {
			return nil, err
		}
		return kb, nil
	})
}

// Pipeline returns the compiler pipeline.
func (b *Bench) Pipeline() *compiler.Pipeline {
	return b.pipeline
}

// DefaultFont returns the tester fallback font.
func (b *Bench) DefaultFont() tester.Font {
	return b.font
}

// SetDefaultFont changes the fallback font for later test sessions.
func (b *Bench) SetDefaultFont(f tester.Font) {
	b.font = f
}

// EnsureSaved offers to save the active document when it has unsaved
// changes and returns the path to compile from. The path is "" for an
// untitled document the user chose not to save.
func (b *Bench) EnsureSaved(p document.Prompter) (string, error) {
	d := b.session.Active()
	if d == nil {
		return "", session.ErrNoDocument
	}
	if d.Modified() {
		switch p.ConfirmSave(d.Title()) {
		case document.AnswerYes:
			res, err := b.session.Save(p)
			if res != document.Saved {
				if err != nil {
					return "", fmt.Errorf("%w: %w", ErrCancelled, err)
				}
				return "", ErrCancelled
			}
		case document.AnswerNo:
		default:
			return "", ErrCancelled
		}
	}
	return d.Path(), nil
}

// Compile saves if needed and compiles the active document into output.
func (b *Bench) Compile(ctx context.Context, p document.Prompter, output string) (compiler.Result, error) {
	src, err := b.EnsureSaved(p)
	if err != nil {
		return compiler.Result{}, err
	}
	return b.pipeline.Compile(ctx, src, output), nil
}

// CheckSyntax saves if needed and syntax-checks the active document.
func (b *Bench) CheckSyntax(ctx context.Context, p document.Prompter) (compiler.Result, error) {
	src, err := b.EnsureSaved(p)
	if err != nil {
		return compiler.Result{}, err
	}
	return b.pipeline.CheckSyntax(ctx, src), nil
}

// NewArtifact reserves a temporary file for a test build.
func NewArtifact() (string, error) {
	f, err := os.CreateTemp("", "kmsedit-*.km2")
	if err != nil {
		return "", fmt.Errorf("create test artifact: %w", err)
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("create test artifact: %w", err)
	}
	return name, nil
}

// TestBuild is a test compile waiting to run.
type TestBuild struct {
	Source   string
	Artifact string
}

// PrepareTest saves if needed and reserves the artifact for a test build.
func (b *Bench) PrepareTest(p document.Prompter) (TestBuild, error) {
	src, err := b.EnsureSaved(p)
	if err != nil {
		return TestBuild{}, err
	}
	artifact, err := NewArtifact()
	if err != nil {
		return TestBuild{}, err
	}
	return TestBuild{Source: src, Artifact: artifact}, nil
}

// Build compiles a prepared test build. It may run off the UI goroutine.
func (b *Bench) Build(ctx context.Context, tb TestBuild) compiler.Result {
	return b.pipeline.Compile(ctx, tb.Source, tb.Artifact)
}

// Abandon deletes the artifact of a build that will never reach StartTest.
func (b *Bench) Abandon(tb TestBuild) {
	if err := os.Remove(tb.Artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.logger.Warn("test artifact not removed", "path", tb.Artifact, "err", err)
	}
}

// StartTest hands a finished build to the tester. A failed build's artifact
// is deleted and no session is started.
func (b *Bench) StartTest(tb TestBuild, res compiler.Result) (*tester.Session, tester.Status, error) {
	if !res.OK() {
		b.Abandon(tb)
		return nil, tester.LoadFailed, fmt.Errorf("compile %s", res.Outcome)
	}
	return tester.Start(b.engine, tb.Artifact, b.font, tester.WithLogger(b.logger))
}

// Test compiles the active document to a temporary artifact and, when that
// succeeds, starts a test session on it.
func (b *Bench) Test(ctx context.Context, p document.Prompter) (*tester.Session, compiler.Result, error) {
	tb, err := b.PrepareTest(p)
	if err != nil {
		return nil, compiler.Result{}, err
	}
	res := b.Build(ctx, tb)
	s, _, err := b.StartTest(tb, res)
	return s, res, err
}
