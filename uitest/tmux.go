// Package uitest drives a TUI inside a detached tmux session and records
// what the screen showed.
package uitest

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pollInterval is how often WaitFor re-captures the screen.
const pollInterval = 100 * time.Millisecond

// RequireTmux reports an error when tmux is not installed.
func RequireTmux() error {
	if _, err := exec.LookPath("tmux"); err != nil {
		return fmt.Errorf("tmux not found: %w", err)
	}
	return nil
}

// Session wraps a tmux session running the program under test.
type Session struct {
	Name   string
	Width  int
	Height int
}

// NewSession starts cmd in a new detached tmux session of the given size,
// in directory dir. An existing session with the same name is replaced.
func NewSession(name string, width, height int, dir, cmd string) (*Session, error) {
	s := &Session{Name: name, Width: width, Height: height}

	exec.Command("tmux", "kill-session", "-t", name).Run()

	args := []string{
		"new-session", "-d",
		"-s", name,
		"-x", strconv.Itoa(width),
		"-y", strconv.Itoa(height),
	}
	if dir != "" {
		args = append(args, "-c", dir)
	}
	args = append(args, cmd)
	if out, err := exec.Command("tmux", args...).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("start tmux session: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return s, nil
}

// Close kills the tmux session.
func (s *Session) Close() error {
	return exec.Command("tmux", "kill-session", "-t", s.Name).Run()
}

// SendKeys sends keys using tmux key names ("C-s", "F5", "Escape").
func (s *Session) SendKeys(keys ...string) error {
	args := append([]string{"send-keys", "-t", s.Name}, keys...)
	return exec.Command("tmux", args...).Run()
}

// Type sends text literally, without key name lookup.
func (s *Session) Type(text string) error {
	return exec.Command("tmux", "send-keys", "-t", s.Name, "-l", text).Run()
}

// Capture returns the visible screen as plain text.
func (s *Session) Capture() (string, error) {
	out, err := exec.Command("tmux", "capture-pane", "-t", s.Name, "-p").Output()
	if err != nil {
		return "", fmt.Errorf("capture pane: %w", err)
	}
	return string(out), nil
}

// WaitFor polls until the screen contains text or timeout passes.
func (s *Session) WaitFor(text string, timeout time.Duration) error {
	return s.waitUntil(func(screen string) bool {
		return strings.Contains(screen, text)
	}, fmt.Sprintf("%q", text), timeout)
}

// WaitForRegex polls until the screen matches re or timeout passes.
func (s *Session) WaitForRegex(re *regexp.Regexp, timeout time.Duration) error {
	return s.waitUntil(re.MatchString, "/"+re.String()+"/", timeout)
}

func (s *Session) waitUntil(match func(string) bool, what string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		screen, err := s.Capture()
		if err != nil {
			return err
		}
		if match(screen) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for %s\nscreen:\n%s", what, screen)
		}
		time.Sleep(pollInterval)
	}
}

// Contains reports whether the screen currently shows text.
func (s *Session) Contains(text string) (bool, error) {
	screen, err := s.Capture()
	if err != nil {
		return false, err
	}
	return strings.Contains(screen, text), nil
}
