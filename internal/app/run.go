package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/pylaunch/internal/config"
	"github.com/vk/pylaunch/internal/ctxlog"
	"github.com/vk/pylaunch/internal/executor"
	"github.com/vk/pylaunch/internal/project"
)

// ErrUnknownApp is returned when a name or number matches no catalog entry.
var ErrUnknownApp = errors.New("app not found")

// ExitStatusError reports a child that ran but exited non-zero. The caller
// mirrors Code as the process exit code.
type ExitStatusError struct {
	Project string
	Code    int
}

func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Project, e.Code)
}

// ReportedError wraps a failure whose details were already written to the
// App's output.
type ReportedError struct {
	Err error
}

func (e *ReportedError) Error() string {
	return e.Err.Error()
}

func (e *ReportedError) Unwrap() error {
	return e.Err
}

// Run executes the command named in the App's configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	var err error
	switch a.config.Command {
	case CmdList, "":
		a.write(a.renderCatalog(a.refresh(ctx)))
	case CmdRun:
		err = a.runOnce(ctx, a.config.Args[0])
	case CmdExport:
		err = a.export(ctx, a.config.Args[0])
	case CmdSetRoot:
		err = a.setRoot(ctx, a.config.Args[0])
	case CmdInit:
		err = a.initRecord(ctx)
	case CmdShell:
		err = a.Shell(ctx)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

// refresh rescans the projects folder and remembers the catalog for
// number lookups.
func (a *App) refresh(ctx context.Context) project.Catalog {
	cat := project.BuildCatalog(ctx, a.Root(), a.analyzer)
	a.mu.Lock()
	a.catalog = cat
	a.mu.Unlock()
	return cat
}

// lookup resolves ref against the last catalog, rescanning first when no
// catalog was built yet or ref is unknown to it.
func (a *App) lookup(ctx context.Context, ref string) (project.Descriptor, error) {
	a.mu.Lock()
	cat := a.catalog
	a.mu.Unlock()

	if d, ok := cat.Lookup(ref); ok {
		return d, nil
	}
	if d, ok := a.refresh(ctx).Lookup(ref); ok {
		return d, nil
	}
	return project.Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownApp, ref)
}

// start hands d to the supervisor and reports what happened.
func (a *App) start(ctx context.Context, d project.Descriptor) *executor.Handle {
	h := a.supervisor.Start(ctx, d)
	a.write(fmt.Sprintf("Running %s...\n", d.Name))
	return h
}

func (a *App) runOnce(ctx context.Context, ref string) error {
	d, err := a.lookup(ctx, ref)
	if err != nil {
		return err
	}

	res, err := a.start(ctx, d).Wait(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	a.write(a.renderOutcome(d.Name, res, err))
	if err != nil {
		return &ReportedError{Err: err}
	}
	if !res.Success() {
		return &ExitStatusError{Project: d.Name, Code: res.ExitCode}
	}
	return nil
}

// completed is the supervisor's completion callback. Only the shell prints
// from it; the one-shot run command prints after waiting on its handle.
func (a *App) completed(h *executor.Handle) {
	a.mu.Lock()
	announce := a.announce
	a.mu.Unlock()
	if !announce {
		return
	}
	res, err := h.Result()
	a.write("\n" + a.renderOutcome(h.Project.Name, res, err))
}

func (a *App) export(ctx context.Context, ref string) error {
	d, err := a.lookup(ctx, ref)
	if err != nil {
		return err
	}
	paths, err := a.emitter.Write(d)
	if err != nil {
		return fmt.Errorf("failed to create launchers: %w", err)
	}
	a.logger.Info("Launchers created.", "project", d.Name, "shell", paths.Shell, "batch", paths.Batch)
	a.write(a.renderExport(d, paths))
	return nil
}

// setRoot switches the projects folder and records it. A failed save leaves
// the switch in effect and is reported as a notice only.
func (a *App) setRoot(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("not a folder: %s", abs)
	}

	a.mu.Lock()
	a.root = abs
	a.catalog = project.Catalog{}
	a.mu.Unlock()

	if err := a.store.Save(ctx, abs); err != nil {
		a.logger.Warn("Could not save configuration.", "error", err)
		a.write(fmt.Sprintf("Projects folder set to %s (not saved: %v)\n", abs, err))
		return nil
	}
	a.write(fmt.Sprintf("Projects folder set to %s\n", abs))
	return nil
}

func (a *App) initRecord(ctx context.Context) error {
	err := a.store.Init(ctx, a.Root(), config.AnalyzerConfig{
		EntryCandidates:  orDefault(a.settings.Analyzer.EntryCandidates, project.DefaultEntryCandidates),
		StdlibExclusions: orDefault(a.settings.Analyzer.StdlibExclusions, project.DefaultStdlibExclusions),
	})
	if err != nil {
		return err
	}
	a.write(fmt.Sprintf("Configuration written to %s\n", a.store.Path()))
	return nil
}

func (a *App) write(s string) {
	if _, err := a.outW.Write([]byte(s)); err != nil {
		a.logger.Debug("Failed to write output.", "error", err)
	}
}

func orDefault(vals, def []string) []string {
	if len(vals) == 0 {
		return def
	}
	return vals
}
