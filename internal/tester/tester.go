// Package tester runs a compiled layout in an interactive test session.
//
// A Session owns the temporary artifact it was started with and deletes it
// exactly once: either when the engine fails to load it or when the session
// is closed.
package tester

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Keyboard is a loaded layout.
type Keyboard interface {
	Name() string
	FontFamily() string
	Translate(key rune) string
}

// Engine loads compiled layouts.
type Engine interface {
	Load(path string) (Keyboard, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(path string) (Keyboard, error)

func (f EngineFunc) Load(path string) (Keyboard, error) {
	return f(path)
}

// Status is the result of starting a session.
type Status int

const (
	Started Status = iota
	LoadFailed
)

func (s Status) String() string {
	if s == Started {
		return "started"
	}
	return "load failed"
}

// Font is the font the tester shows output in.
type Font struct {
	Family string
	Size   float64
}

// Session is a live test of one compiled layout.
type Session struct {
	artifact string
	keyboard Keyboard
	font     Font
	output   []rune
	logger   *log.Logger
	remove   func(string) error

	once     sync.Once
	closeErr error
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// Start loads artifact through engine. On LoadFailed the artifact has
// already been deleted and the returned session is nil. The layout's own
// font family wins over defaultFont; the size always comes from defaultFont.
func Start(engine Engine, artifact string, defaultFont Font, opts ...Option) (*Session, Status, error) {
	s := &Session{artifact: artifact, remove: os.Remove}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}

	kb, err := engine.Load(artifact)
	if err != nil {
		s.logger.Warn("cannot load keyboard file to test", "path", artifact, "err", err)
		s.Close()
		return nil, LoadFailed, fmt.Errorf("cannot load keyboard file to test: %w", err)
	}
	s.keyboard = kb
	s.font = defaultFont
	if family := kb.FontFamily(); family != "" {
		s.font.Family = family
	}
	s.logger.Info("test session started", "layout", kb.Name(), "font", s.font.Family)
	return s, Started, nil
}

// Artifact returns the path of the layout under test.
func (s *Session) Artifact() string {
	return s.artifact
}

// Keyboard returns the loaded layout.
func (s *Session) Keyboard() Keyboard {
	return s.keyboard
}

// Font returns the resolved display font.
func (s *Session) Font() Font {
	return s.font
}

// Type feeds one key through the layout and returns the text so far.
func (s *Session) Type(key rune) string {
	s.output = append(s.output, []rune(s.keyboard.Translate(key))...)
	return string(s.output)
}

// Backspace removes the last character of the output.
func (s *Session) Backspace() string {
	if len(s.output) > 0 {
		s.output = s.output[:len(s.output)-1]
	}
	return string(s.output)
}

// Output returns the text typed so far.
func (s *Session) Output() string {
	return string(s.output)
}

// Close ends the session and deletes the artifact. Only the first call
// touches the file; later calls return the first result.
func (s *Session) Close() error {
	s.once.Do(func() {
		err := s.remove(s.artifact)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.closeErr = fmt.Errorf("remove %s: %w", s.artifact, err)
			s.logger.Warn("artifact not removed", "path", s.artifact, "err", err)
			return
		}
		s.logger.Debug("artifact removed", "path", s.artifact)
	})
	return s.closeErr
}
