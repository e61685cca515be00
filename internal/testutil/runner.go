package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/vk/pylaunch/internal/proc"
)

// FakeRunner is a scripted proc.Runner. By default it behaves like a working
// uv installation: "venv" creates the .venv folder, installs succeed and the
// interpreter prints "ran <entry>". Every command is recorded.
type FakeRunner struct {
	mu    sync.Mutex
	calls []proc.Command

	// Missing lists executable names LookPath should fail for.
	Missing map[string]bool
	// Handler, when set, overrides the default behaviour. Returning
	// handled=false falls through to the default.
	Handler func(cmd proc.Command) (res proc.Result, err error, handled bool)
}

// NewFakeRunner returns a FakeRunner simulating a healthy uv.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{Missing: map[string]bool{}}
}

// LookPath implements proc.Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Missing[name] {
		return "", fmt.Errorf("%w: %s", proc.ErrNotFound, name)
	}
	return "/fake/bin/" + name, nil
}

// Run implements proc.Runner.
func (f *FakeRunner) Run(_ context.Context, cmd proc.Command) (proc.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	handler := f.Handler
	f.mu.Unlock()

	if handler != nil {
		if res, err, handled := handler(cmd); handled {
			return res, err
		}
	}
	return defaultUV(cmd)
}

// Calls returns a copy of the recorded commands.
func (f *FakeRunner) Calls() []proc.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallLines renders recorded commands as "<base> <args...>" with the
// executable's directory stripped, which keeps assertions short.
func (f *FakeRunner) CallLines() []string {
	var out []string
	for _, c := range f.Calls() {
		line := filepath.Base(c.Path)
		if len(c.Args) > 0 {
			line += " " + strings.Join(c.Args, " ")
		}
		out = append(out, line)
	}
	return out
}

// Count returns how many recorded commands contain all of the given args in order.
func (f *FakeRunner) Count(args ...string) int {
	n := 0
	for _, c := range f.Calls() {
		if IsCommand(c, args...) {
			n++
		}
	}
	return n
}

// IsCommand reports whether cmd's arguments start with args.
func IsCommand(cmd proc.Command, args ...string) bool {
	if len(cmd.Args) < len(args) {
		return false
	}
	return slices.Equal(cmd.Args[:len(args)], args)
}

func defaultUV(cmd proc.Command) (proc.Result, error) {
	switch {
	case IsCommand(cmd, "--version"):
		return proc.Result{Stdout: "uv 0.4.0\n"}, nil
	case IsCommand(cmd, "venv"):
		if err := os.MkdirAll(filepath.Join(cmd.Dir, ".venv"), 0o755); err != nil {
			return proc.Result{ExitCode: 1, Stderr: err.Error()}, nil
		}
		return proc.Result{Stderr: "Creating virtual environment at: .venv\n"}, nil
	case IsCommand(cmd, "pip", "install"):
		return proc.Result{Stderr: "Installed packages\n"}, nil
	case len(cmd.Args) == 1 && strings.HasSuffix(cmd.Args[0], ".py"):
		return proc.Result{Stdout: "ran " + cmd.Args[0] + "\n"}, nil
	default:
		return proc.Result{ExitCode: 127, Stderr: "unexpected command: " + cmd.String()}, nil
	}
}
