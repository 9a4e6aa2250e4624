package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// RunResult is what was observed from one tool invocation.
type RunResult struct {
	ExitCode int // -1 if the process did not exit normally
	Stdout   string
	Stderr   string
	TimedOut bool
}

// Runner starts a tool and waits for it up to timeout. A non-nil error means
// the process could not be launched or waited on; a non-zero exit code is
// not an error.
type Runner interface {
	Run(ctx context.Context, tool string, args []string, timeout time.Duration) (RunResult, error)
}

// ExecRunner runs tools as child processes. A process that outlives the
// timeout is killed and reaped; whatever it wrote before that is kept.
type ExecRunner struct {
	// WaitDelay bounds how long output pipes are drained after a kill.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, tool string, args []string, timeout time.Duration) (RunResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, tool, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = time.Second
	}
	hideWindow(cmd)

	if err := cmd.Start(); err != nil {
		return RunResult{ExitCode: -1}, fmt.Errorf("start %s: %w", tool, err)
	}
	err := cmd.Wait()

	res := RunResult{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	exited := false
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
		exited = cmd.ProcessState.Exited()
	}
	return classifyWait(res, err, ctx.Err(), exited, tool)
}

// classifyWait turns the outcome of Wait into a RunResult. The deadline only
// counts when Wait failed and the process did not exit on its own, so a tool
// finishing right at the deadline keeps its exit code.
func classifyWait(res RunResult, waitErr, ctxErr error, exited bool, tool string) (RunResult, error) {
	if waitErr == nil {
		return res, nil
	}
	if ctxErr != nil && !exited {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			res.TimedOut = true
			return res, nil
		}
		return res, ctxErr
	}
	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		return res, fmt.Errorf("wait %s: %w", tool, waitErr)
	}
	return res, nil
}
