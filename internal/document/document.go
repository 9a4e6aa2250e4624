// Package document models one open script buffer and its save/close
// protocol. It has no UI dependency: questions for the user go through a
// Prompter supplied by the caller.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// UntitledTitle is the title of a document that has never been saved.
const UntitledTitle = "Untitled"

// ErrNoPath is returned when a path-bound operation runs on an untitled
// document.
var ErrNoPath = errors.New("document has no path")

// Document is one editable script buffer.
type Document struct {
	path     string // absolute, or "" if never saved
	text     string
	modified bool

	guard func(path string) error
}

// New creates an empty untitled document.
func New() *Document {
	return &Document{}
}

// Open reads the file at path into a new document. The stored path is made
// absolute.
func Open(path string) (*Document, error) {
	abs, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", abs, err)
	}
	return &Document{path: abs, text: string(data)}, nil
}

// NormalizePath returns the absolute, cleaned form of path used to compare
// documents.
func NormalizePath(path string) (string, error) {
	if path == "" {
		return "", ErrNoPath
	}
	return filepath.Abs(path)
}

// SetPathGuard installs a check run on the absolute destination of SaveAs
// before anything is written. An error from guard fails the save.
func (d *Document) SetPathGuard(guard func(path string) error) {
	d.guard = guard
}

// Path returns the absolute file path, or "" if the document is untitled.
func (d *Document) Path() string {
	return d.path
}

// Untitled reports whether the document has no file path.
func (d *Document) Untitled() bool {
	return d.path == ""
}

// Title returns the base file name, or UntitledTitle.
func (d *Document) Title() string {
	if d.path == "" {
		return UntitledTitle
	}
	return filepath.Base(d.path)
}

// Modified reports whether the buffer changed since it was opened or last
// saved.
func (d *Document) Modified() bool {
	return d.modified
}

// Text returns the buffer content.
func (d *Document) Text() string {
	return d.text
}

// Lines returns the buffer split on newlines. An empty buffer has one empty
// line.
func (d *Document) Lines() []string {
	return strings.Split(d.text, "\n")
}

// SetText replaces the whole buffer.
func (d *Document) SetText(text string) {
	if text == d.text {
		return
	}
	d.text = text
	d.modified = true
}

// Insert inserts s at byte offset. The offset is clamped to the buffer.
func (d *Document) Insert(offset int, s string) {
	if s == "" {
		return
	}
	offset = clampOffset(offset, len(d.text))
	d.text = d.text[:offset] + s + d.text[offset:]
	d.modified = true
}

// Delete removes the byte range [start, end).
func (d *Document) Delete(start, end int) {
	start = clampOffset(start, len(d.text))
	end = clampOffset(end, len(d.text))
	if start >= end {
		return
	}
	d.text = d.text[:start] + d.text[end:]
	d.modified = true
}

func clampOffset(off, n int) int {
	if off < 0 {
		return 0
	}
	if off > n {
		return n
	}
	return off
}

// write stores the buffer at path and, on success, binds the document to it
// and clears the modified flag.
func (d *Document) write(path string) error {
	if err := os.WriteFile(path, []byte(d.text), 0644); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	d.path = path
	d.modified = false
	return nil
}
