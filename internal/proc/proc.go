// Package proc runs child processes and captures their output. Provisioning
// and execution both go through the Runner interface so tests can script
// the isolation tool without it being installed.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Command describes one child process invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
}

// String renders the command line for logs and diagnostics.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Result holds the captured streams and exit status of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined joins stdout and stderr, which is what a user needs to see when
// the isolation tool fails.
func (r Result) Combined() string {
	out := strings.TrimSpace(r.Stdout)
	errOut := strings.TrimSpace(r.Stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// ErrNotFound reports that the executable could not be located.
var ErrNotFound = errors.New("executable not found")

// Runner starts a process and waits for it to exit.
//
// A non-zero exit is reported through Result.ExitCode with a nil error. The
// error return is reserved for processes that could not be started at all.
type Runner interface {
	LookPath(name string) (string, error)
	Run(ctx context.Context, cmd Command) (Result, error)
}

// OSRunner executes real processes with os/exec.
type OSRunner struct{}

// NewOSRunner returns a Runner backed by os/exec.
func NewOSRunner() OSRunner {
	return OSRunner{}
}

// LookPath resolves name against PATH.
func (OSRunner) LookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil || strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

// Run starts cmd, captures stdout and stderr fully and returns the exit code.
func (OSRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	if strings.TrimSpace(cmd.Dir) != "" {
		c.Dir = cmd.Dir
	}

	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf

	if err := c.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{ExitCode: -1}, fmt.Errorf("%w: %s", ErrNotFound, cmd.Path)
		}
		return Result{ExitCode: -1}, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}

	waitErr := c.Wait()
	res := Result{Stdout: outBuf.String(), Stderr: errBuf.String()}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
		res.ExitCode = c.ProcessState.ExitCode()
	case errors.As(waitErr, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("waiting for %s: %w", cmd.Path, waitErr)
	}
	return res, nil
}
