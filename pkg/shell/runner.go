// Package shell runs external commands and locates programs and files
// on the host.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrTimeout indicates a command was killed after exceeding its timeout
var ErrTimeout = errors.New("command timed out")

// Runner executes a shell command line and returns its combined output
// split in lines. A non-nil error means the command failed.
type Runner interface {
	Run(ctx context.Context, command string) ([]string, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, command string) ([]string, error)

func (f RunnerFunc) Run(ctx context.Context, command string) ([]string, error) {
	return f(ctx, command)
}

// ExecRunner runs commands through "sh -c"
type ExecRunner struct {
	Dir     string        // Working directory
	Env     []string      // Environment (nil inherits the process environment)
	Timeout time.Duration // Per-command timeout, 0 disables it
	Log     zerolog.Logger
}

// NewExecRunner creates a runner bound to dir
func NewExecRunner(dir string, timeout time.Duration, log zerolog.Logger) *ExecRunner {
	return &ExecRunner{Dir: dir, Timeout: timeout, Log: log}
}

func (r *ExecRunner) Run(ctx context.Context, command string) ([]string, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = r.Dir
	cmd.Env = r.Env
	// children of sh may keep the output pipe open after a kill
	cmd.WaitDelay = time.Second

	start := time.Now()
	out, err := cmd.CombinedOutput()
	lines := SplitLines(out)

	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %s", ErrTimeout, r.Timeout, command)
	}

	r.Log.Debug().
		Str("cmd", command).
		Str("dir", r.Dir).
		Dur("took", time.Since(start)).
		Int("lines", len(lines)).
		Err(err).
		Msg("ran command")

	return lines, err
}

// SplitLines splits command output, dropping the trailing empty line
func SplitLines(out []byte) []string {
	out = bytes.TrimRight(out, "\n")
	if len(out) == 0 {
		return nil
	}
	return strings.Split(string(out), "\n")
}
