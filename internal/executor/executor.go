// Package executor supervises project runs. Each run request provisions the
// project's environment and executes its entry point on a background
// goroutine; callers get a Handle back immediately and learn about
// completion through it, a callback, or a notify.Notifier.
package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/pylaunch/internal/ctxlog"
	"github.com/vk/pylaunch/internal/notify"
	"github.com/vk/pylaunch/internal/proc"
	"github.com/vk/pylaunch/internal/project"
	"github.com/vk/pylaunch/internal/provision"
)

// Provisioner prepares a project's environment before execution.
type Provisioner interface {
	Ensure(ctx context.Context, d project.Descriptor, observe func(provision.Stage)) (provision.Environment, error)
}

// LaunchError means the entry point could not be started at all. A child
// that starts and exits non-zero is not a LaunchError.
type LaunchError struct {
	Project     string
	Interpreter string
	Cause       error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s with %s: %v", e.Project, e.Interpreter, e.Cause)
}

func (e *LaunchError) Unwrap() error {
	return e.Cause
}

// Supervisor starts runs and tracks the ones still in flight.
type Supervisor struct {
	provisioner Provisioner
	runner      proc.Runner
	notifier    notify.Notifier
	onComplete  func(*Handle)
	now         func() time.Time

	seq atomic.Uint64
	wg  sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]*Handle
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithNotifier sends run events to n.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Supervisor) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithOnComplete registers a callback invoked on the worker goroutine after
// each run finishes.
func WithOnComplete(fn func(*Handle)) Option {
	return func(s *Supervisor) {
		s.onComplete = fn
	}
}

// New returns a Supervisor.
func New(p Provisioner, runner proc.Runner, opts ...Option) *Supervisor {
	s := &Supervisor{
		provisioner: p,
		runner:      runner,
		notifier:    notify.Nop{},
		now:         time.Now,
		inflight:    make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start requests a run of d and returns without waiting for it. While a run
// of the same project root is in flight, further requests are coalesced and
// receive that run's Handle. The run is detached from ctx's cancellation;
// only the logger is inherited.
func (s *Supervisor) Start(ctx context.Context, d project.Descriptor) *Handle {
	runCtx := ctxlog.Detach(ctx)

	s.mu.Lock()
	if h, ok := s.inflight[d.RootPath]; ok {
		s.mu.Unlock()
		s.notifier.Notify(runCtx, s.event(h, notify.PhaseCoalesced))
		return h
	}
	h := newHandle(fmt.Sprintf("%s-%d", d.Name, s.seq.Add(1)), d)
	s.inflight[d.RootPath] = h
	s.wg.Add(1)
	s.mu.Unlock()

	go s.work(runCtx, h)
	return h
}

// InFlight returns the number of runs not yet finished.
func (s *Supervisor) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

// Wait blocks until every started run has finished.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

func (s *Supervisor) work(ctx context.Context, h *Handle) {
	logger := ctxlog.FromContext(ctx).With("run_id", h.ID, "project", h.Project.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	started := s.now()

	var (
		res Result
		err error
	)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Run worker panicked.", "panic", r, "stack", string(debug.Stack()))
			res, err = Result{}, fmt.Errorf("run worker panicked: %v", r)
		}
		s.finish(ctx, h, res, err)
	}()

	s.notifier.Notify(ctx, s.event(h, notify.PhaseStarted))
	res, err = s.execute(ctx, h, started)
}

func (s *Supervisor) execute(ctx context.Context, h *Handle, started time.Time) (Result, error) {
	logger := ctxlog.FromContext(ctx)
	d := h.Project

	h.setStatus(StatusProvisioning)
	env, err := s.provisioner.Ensure(ctx, d, func(st provision.Stage) {
		ev := s.event(h, notify.PhaseStage)
		ev.Stage = st.String()
		s.notifier.Notify(ctx, ev)
	})
	if err != nil {
		return Result{}, err
	}

	h.setStatus(StatusExecuting)
	logger.Info("▶️ Executing entry point.", "entry", d.EntryPoint)
	cmd := proc.Command{Path: env.Interpreter, Args: []string{d.EntryPoint}, Dir: d.RootPath}
	out, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return Result{}, &LaunchError{Project: d.Name, Interpreter: env.Interpreter, Cause: err}
	}

	return Result{
		RunID:     h.ID,
		Project:   d.Name,
		Stdout:    out.Stdout,
		Stderr:    out.Stderr,
		ExitCode:  out.ExitCode,
		StartedAt: started,
		Duration:  s.now().Sub(started),
	}, nil
}

// finish publishes the outcome. The handle leaves the in-flight set before
// Done closes, so a caller reacting to Done can start a fresh run.
func (s *Supervisor) finish(ctx context.Context, h *Handle, res Result, err error) {
	h.complete(res, err)

	s.mu.Lock()
	if cur, ok := s.inflight[h.Project.RootPath]; ok && cur == h {
		delete(s.inflight, h.Project.RootPath)
	}
	s.mu.Unlock()

	ev := s.event(h, notify.PhaseFinished)
	if err != nil {
		ev.Phase = notify.PhaseFailed
		ev.Err = err
		ev.Stage = string(stageOf(err))
	} else {
		ev.ExitCode = res.ExitCode
		ev.Duration = res.Duration
	}
	s.notifier.Notify(ctx, ev)

	close(h.done)
	if s.onComplete != nil {
		s.onComplete(h)
	}
	s.wg.Done()
}

func (s *Supervisor) event(h *Handle, phase string) notify.Event {
	return notify.Event{RunID: h.ID, Project: h.Project.Name, Phase: phase, Time: s.now()}
}

// stageOf names the step an error came from, for notifications.
func stageOf(err error) Status {
	var launchErr *LaunchError
	switch {
	case errors.As(err, &launchErr):
		return StatusExecuting
	case errors.Is(err, provision.ErrToolMissing), provision.IsKind(err, provision.KindEnvCreationFailed), provision.IsKind(err, provision.KindInstallFailed):
		return StatusProvisioning
	default:
		return StatusFailed
	}
}
