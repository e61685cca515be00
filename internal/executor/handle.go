package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vk/pylaunch/internal/project"
)

// ErrPending is returned by Handle.Result before the run has finished.
var ErrPending = errors.New("run still in progress")

// Status is the coarse lifecycle of one run.
type Status string

const (
	StatusPending      Status = "pending"
	StatusProvisioning Status = "provisioning"
	StatusExecuting    Status = "executing"
	StatusSucceeded    Status = "succeeded"
	StatusExited       Status = "exited"
	StatusFailed       Status = "failed"
)

// Terminal reports whether no further transitions will happen.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusExited || s == StatusFailed
}

// Result is what a finished child process produced.
type Result struct {
	RunID     string
	Project   string
	Stdout    string
	Stderr    string
	ExitCode  int
	StartedAt time.Time
	Duration  time.Duration
}

// Success reports a zero exit code.
func (r Result) Success() bool {
	return r.ExitCode == 0
}

// Handle tracks one run started by the Supervisor. It is shared by every
// caller whose request was coalesced into the same run.
type Handle struct {
	ID      string
	Project project.Descriptor

	done chan struct{}

	mu     sync.Mutex
	status Status
	result Result
	err    error
}

func newHandle(id string, d project.Descriptor) *Handle {
	return &Handle{ID: id, Project: d, done: make(chan struct{}), status: StatusPending}
}

// Done is closed once the run has finished, successfully or not.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Status returns the current lifecycle status.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Result returns the outcome once Done is closed, or ErrPending before that.
// A non-zero exit code is a Result with a nil error.
func (h *Handle) Result() (Result, error) {
	select {
	case <-h.done:
	default:
		return Result{}, ErrPending
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// Wait blocks until the run finishes or ctx ends. Ending ctx stops the
// wait only; the run itself continues.
func (h *Handle) Wait(ctx context.Context) (Result, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

func (h *Handle) setStatus(s Status) {
	h.mu.Lock()
	h.status = s
	h.mu.Unlock()
}

func (h *Handle) complete(res Result, err error) {
	h.mu.Lock()
	h.result = res
	h.err = err
	switch {
	case err != nil:
		h.status = StatusFailed
	case res.Success():
		h.status = StatusSucceeded
	default:
		h.status = StatusExited
	}
	h.mu.Unlock()
}
