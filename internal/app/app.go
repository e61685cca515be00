package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vk/pylaunch/internal/config"
	"github.com/vk/pylaunch/internal/ctxlog"
	"github.com/vk/pylaunch/internal/emitter"
	"github.com/vk/pylaunch/internal/executor"
	"github.com/vk/pylaunch/internal/notify"
	"github.com/vk/pylaunch/internal/proc"
	"github.com/vk/pylaunch/internal/project"
	"github.com/vk/pylaunch/internal/provision"
	"golang.org/x/term"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   *lockedWriter
	inR    io.Reader
	logger *slog.Logger
	config *Config

	store       *config.Store
	settings    config.Config
	analyzer    project.DirAnalyzer
	provisioner *provision.Provisioner
	supervisor  *executor.Supervisor
	emitter     *emitter.Emitter
	color       bool
	closers     []io.Closer

	mu       sync.Mutex
	root     string
	catalog  project.Catalog
	announce bool
}

type options struct {
	runner   proc.Runner
	notifier notify.Notifier
	color    *bool
}

// Option customises NewApp, mostly for tests.
type Option func(*options)

// WithRunner replaces the OS process runner.
func WithRunner(r proc.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithNotifier replaces the notifier built from configuration. The log
// notifier is always kept.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithColor forces coloured status lines on or off.
func WithColor(on bool) Option {
	return func(o *options) { o.color = &on }
}

// NewApp is the constructor for the main application. Results are written to
// outW, logs to errW, and the shell reads commands from inR.
func NewApp(ctx context.Context, outW, errW io.Writer, inR io.Reader, appConfig *Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, errW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	store, err := newStore(appConfig.ConfigPath)
	if err != nil {
		return nil, err
	}
	settings := store.Load(ctx)

	root := settings.ProjectsPath
	if appConfig.Root != "" {
		if root, err = filepath.Abs(appConfig.Root); err != nil {
			return nil, fmt.Errorf("failed to resolve projects folder %s: %w", appConfig.Root, err)
		}
	} else if err := store.EnsureDefault(settings); err != nil {
		logger.Warn("Could not create default projects folder.", "error", err)
	}
	logger.Debug("Projects folder resolved.", "root", root, "source", settings.Source)

	analyzer, err := project.NewCachedAnalyzer(project.NewAnalyzer(project.Rules{
		EntryCandidates:  settings.Analyzer.EntryCandidates,
		StdlibExclusions: settings.Analyzer.StdlibExclusions,
	}), project.DefaultCacheSize)
	if err != nil {
		return nil, err
	}

	runner := o.runner
	if runner == nil {
		runner = proc.NewOSRunner()
	}

	a := &App{
		outW:     &lockedWriter{w: outW},
		inR:      inR,
		logger:   logger,
		config:   appConfig,
		store:    store,
		settings: settings,
		analyzer: analyzer,
		root:     root,
		color:    isTerminal(outW),
	}
	if o.color != nil {
		a.color = *o.color
	}

	notifiers := notify.Multi{notify.Log{}}
	if o.notifier != nil {
		notifiers = append(notifiers, o.notifier)
	} else if n := a.dialNotifier(ctx); n != nil {
		notifiers = append(notifiers, n)
		a.closers = append(a.closers, n)
	}

	a.provisioner = provision.New(runner, provision.WithTool(appConfig.Tool))
	a.supervisor = executor.New(a.provisioner, runner,
		executor.WithNotifier(notifiers),
		executor.WithOnComplete(a.completed),
	)
	a.emitter = emitter.New(a.provisioner.Tool())

	logger.Debug("App initialized.", "tool", a.provisioner.Tool(), "config", store.Path())
	return a, nil
}

// Close waits for in-flight runs and releases the notifier connection.
func (a *App) Close() error {
	a.supervisor.Wait()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Root returns the projects folder currently in use.
func (a *App) Root() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.root
}

func (a *App) dialNotifier(ctx context.Context) *notify.SocketIO {
	url := a.config.NotifyURL
	if url == "" {
		url = a.settings.Notify.URL
	}
	if url == "" {
		return nil
	}
	namespace := a.config.NotifyNamespace
	if namespace == "" {
		namespace = a.settings.Notify.Namespace
	}

	n, err := notify.DialSocketIO(ctx, notify.SocketIOOptions{
		URL:                url,
		Namespace:          namespace,
		InsecureSkipVerify: a.settings.Notify.InsecureSkipVerify,
	})
	if err != nil {
		a.logger.Warn("Run notifications disabled.", "url", url, "error", err)
		return nil
	}
	return n
}

func newStore(path string) (*config.Store, error) {
	if path == "" {
		recordPath, projectsRoot, err := config.DefaultLocations()
		if err != nil {
			return nil, err
		}
		return config.NewStore(recordPath, projectsRoot), nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}
	return config.NewStore(abs, filepath.Join(filepath.Dir(abs), config.DefaultProjectsDir)), nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// lockedWriter serialises writes from the foreground command and run
// completion callbacks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
