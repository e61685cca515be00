// Package notify delivers run lifecycle events to observers outside the
// supervisor: the log, and optionally a socket.io listener such as a
// dashboard.
package notify

import (
	"context"
	"time"

	"github.com/vk/pylaunch/internal/ctxlog"
)

// Event phases published by the supervisor.
const (
	PhaseStarted   = "started"
	PhaseStage     = "stage"
	PhaseFinished  = "finished"
	PhaseFailed    = "failed"
	PhaseCoalesced = "coalesced"
)

// Event is one observation of a run.
type Event struct {
	RunID    string
	Project  string
	Phase    string
	Stage    string
	ExitCode int
	Duration time.Duration
	Err      error
	Time     time.Time
}

// Payload flattens the event into a JSON-friendly map.
func (e Event) Payload() map[string]any {
	p := map[string]any{
		"run_id":  e.RunID,
		"project": e.Project,
		"phase":   e.Phase,
		"time":    e.Time.UTC().Format(time.RFC3339Nano),
	}
	if e.Stage != "" {
		p["stage"] = e.Stage
	}
	if e.Phase == PhaseFinished {
		p["exit_code"] = e.ExitCode
		p["duration_ms"] = e.Duration.Milliseconds()
	}
	if e.Err != nil {
		p["error"] = e.Err.Error()
	}
	return p
}

// Notifier receives run events. Implementations must be safe for concurrent
// use and must not block the run for long; failures are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Log writes events to the context logger.
type Log struct{}

func (Log) Notify(ctx context.Context, ev Event) {
	logger := ctxlog.FromContext(ctx).With("run_id", ev.RunID, "project", ev.Project)
	switch ev.Phase {
	case PhaseStarted:
		logger.Info("🚀 Run started.")
	case PhaseStage:
		logger.Debug("Run stage changed.", "stage", ev.Stage)
	case PhaseCoalesced:
		logger.Info("Run already in progress, joining it.")
	case PhaseFinished:
		logger.Info("🏁 Run finished.", "exit_code", ev.ExitCode, "duration", ev.Duration)
	case PhaseFailed:
		logger.Error("Run failed.", "stage", ev.Stage, "error", ev.Err)
	}
}

// Multi fans one event out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, ev)
		}
	}
}
