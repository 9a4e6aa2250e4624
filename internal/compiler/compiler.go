// Package compiler drives the external layout compiler ("parser") that turns
// a .kms script into a .km2 layout, and classifies what it did.
//
// The tool contract:
//
//	parser "<source>" ["<output>"]
//
// Without an output path the tool only checks syntax. Exit code 1 means the
// script did not compile; any other exit code is success, and the
// second-to-last line of stdout is a summary such as "12 glyphs, 4 rules".
package compiler

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds how long the compiler may run.
const DefaultTimeout = 5 * time.Second

// exitCompileFailed is the tool's "script has errors" exit code.
const exitCompileFailed = 1

// Outcome classifies a compile request.
type Outcome int

const (
	Success Outcome = iota
	CompileFailure
	ToolMissing
	Timeout
	LaunchFailure
	NoSource // nothing to compile; no process launched
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case CompileFailure:
		return "compile failure"
	case ToolMissing:
		return "tool missing"
	case Timeout:
		return "timeout"
	case LaunchFailure:
		return "launch failure"
	case NoSource:
		return "no source"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the structured outcome of one compile request. Output captured
// from the tool is kept whatever the outcome.
type Result struct {
	Outcome  Outcome
	ExitCode int // -1 when no exit code was observed
	Stdout   string
	Stderr   string
	Summary  string // success summary line, or ""
	Message  string // explanation for outcomes without tool output
	Command  string // display form of the invoked command line
	Duration time.Duration
}

// OK reports whether the compile succeeded.
func (r Result) OK() bool {
	return r.Outcome == Success
}

// Pipeline runs the compiler tool.
type Pipeline struct {
	tool    string
	timeout time.Duration
	runner  Runner
	logger  *log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(p *Pipeline) { p.runner = r }
}

// WithTimeout sets the wait bound. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline for the tool at path.
func New(tool string, opts ...Option) *Pipeline {
	p := &Pipeline{
		tool:    tool,
		timeout: DefaultTimeout,
		runner:  ExecRunner{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Tool returns the compiler path.
func (p *Pipeline) Tool() string {
	return p.tool
}

// Timeout returns the wait bound.
func (p *Pipeline) Timeout() time.Duration {
	return p.timeout
}

// ResolveTool turns a configured tool name into a path. Relative names are
// looked up next to the running executable; on Windows ".exe" is added when
// the name has no extension.
func ResolveTool(name string) string {
	if filepath.Ext(name) == "" {
		name += toolExt
	}
	if filepath.IsAbs(name) {
		return name
	}
	exe, err := os.Executable()
	if err != nil {
		return name
	}
	return filepath.Join(filepath.Dir(exe), name)
}

// CheckSyntax runs the tool in syntax-check mode.
func (p *Pipeline) CheckSyntax(ctx context.Context, source string) Result {
	return p.Compile(ctx, source, "")
}

// Compile compiles source into output. An empty output runs a syntax check
// only.
func (p *Pipeline) Compile(ctx context.Context, source, output string) Result {
	if source == "" {
		return Result{Outcome: NoSource, ExitCode: -1, Message: "nothing to compile: the script has not been saved"}
	}

	if _, err := os.Stat(p.tool); err != nil {
		p.logger.Warn("compiler not found", "tool", p.tool, "err", err)
		return Result{
			Outcome:  ToolMissing,
			ExitCode: -1,
			Message:  fmt.Sprintf("parser program not found at %s", p.tool),
		}
	}

	args := []string{source}
	if output != "" {
		args = append(args, output)
	}
	res := Result{Command: commandLine(p.tool, args)}
	p.logger.Info("compiling", "cmd", res.Command, "timeout", p.timeout)

	start := time.Now()
	rr, err := p.runner.Run(ctx, p.tool, args, p.timeout)
	res.Duration = time.Since(start)
	res.ExitCode = rr.ExitCode
	res.Stdout = rr.Stdout
	res.Stderr = rr.Stderr

	switch {
	case err != nil:
		res.Outcome = LaunchFailure
		res.Message = err.Error()
	case rr.TimedOut:
		res.Outcome = Timeout
		res.Message = fmt.Sprintf("compiler did not finish within %s", p.timeout)
	case rr.ExitCode == exitCompileFailed:
		res.Outcome = CompileFailure
	default:
		res.Outcome = Success
		res.Summary = SummaryLine(rr.Stdout)
	}
	p.logger.Info("compile finished", "outcome", res.Outcome, "exit", res.ExitCode, "took", res.Duration)
	return res
}

// SummaryLine returns the second-to-last line of the tool's stdout, which
// holds the success summary when stdout ends with a newline. Output with
// fewer than two lines has no summary.
func SummaryLine(stdout string) string {
	lines := strings.Split(stdout, "\n")
	if len(lines) < 2 {
		return ""
	}
	return strings.TrimRight(lines[len(lines)-2], "\r")
}

func commandLine(tool string, args []string) string {
	var sb strings.Builder
	sb.WriteString(filepath.Base(tool))
	for _, a := range args {
		sb.WriteString(` "`)
		sb.WriteString(a)
		sb.WriteString(`"`)
	}
	return sb.String()
}
