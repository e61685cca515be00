// Package provision creates a project's isolated environment on first use
// and installs its dependencies into it, using the uv tool.
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/vk/pylaunch/internal/ctxlog"
	"github.com/vk/pylaunch/internal/proc"
	"github.com/vk/pylaunch/internal/project"
)

// DefaultTool is the isolation tool executable.
const DefaultTool = "uv"

// EnvDirName is the environment folder created inside each project.
const EnvDirName = ".venv"

// Stage is a step of the per-project provisioning state machine.
type Stage int

const (
	Uninitialized Stage = iota
	Creating
	Created
	InstallingDeps
	Ready
)

func (s Stage) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Creating:
		return "creating"
	case Created:
		return "created"
	case InstallingDeps:
		return "installing_deps"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// Environment locates a provisioned environment.
type Environment struct {
	Path        string
	Interpreter string
}

// EnvironmentFor returns the environment paths for a project root on goos.
func EnvironmentFor(root, goos string) Environment {
	envPath := filepath.Join(root, EnvDirName)
	if goos == "windows" {
		return Environment{Path: envPath, Interpreter: filepath.Join(envPath, "Scripts", "python.exe")}
	}
	return Environment{Path: envPath, Interpreter: filepath.Join(envPath, "bin", "python")}
}

// Exists reports whether the environment folder is present.
func (e Environment) Exists() bool {
	info, err := os.Stat(e.Path)
	return err == nil && info.IsDir()
}

// Provisioner drives uv through the tool check, environment creation and
// dependency installation.
type Provisioner struct {
	runner proc.Runner
	tool   string
	goos   string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithTool overrides the isolation tool executable name.
func WithTool(name string) Option {
	return func(p *Provisioner) {
		if name != "" {
			p.tool = name
		}
	}
}

// WithGOOS overrides the platform used to locate the interpreter.
func WithGOOS(goos string) Option {
	return func(p *Provisioner) {
		if goos != "" {
			p.goos = goos
		}
	}
}

// New returns a Provisioner that runs commands through runner.
func New(runner proc.Runner, opts ...Option) *Provisioner {
	p := &Provisioner{runner: runner, tool: DefaultTool, goos: runtime.GOOS}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tool returns the isolation tool executable name.
func (p *Provisioner) Tool() string {
	return p.tool
}

// Environment returns where d's environment lives, whether or not it exists.
func (p *Provisioner) Environment(d project.Descriptor) Environment {
	return EnvironmentFor(d.RootPath, p.goos)
}

// Ensure brings d's environment to Ready. Steps run strictly in order and
// the first failure aborts the rest; nothing is rolled back. observe, when
// non-nil, is called on every stage transition.
func (p *Provisioner) Ensure(ctx context.Context, d project.Descriptor, observe func(Stage)) (Environment, error) {
	logger := ctxlog.FromContext(ctx).With("project", d.Name)
	notify := func(s Stage) {
		logger.Debug("Provisioning stage.", "stage", s)
		if observe != nil {
			observe(s)
		}
	}
	notify(Uninitialized)

	toolPath, err := p.checkTool(ctx)
	if err != nil {
		return Environment{}, err
	}

	env := p.Environment(d)
	if !env.Exists() {
		notify(Creating)
		logger.Info("▶️ Creating environment...", "path", env.Path)
		cmd := proc.Command{Path: toolPath, Args: []string{"venv"}, Dir: d.RootPath}
		if err := p.step(ctx, cmd, d, KindEnvCreationFailed); err != nil {
			return Environment{}, err
		}
	}
	notify(Created)

	if cmd, ok := p.installCommand(toolPath, d); ok {
		notify(InstallingDeps)
		logger.Info("▶️ Installing dependencies...", "command", cmd.String())
		if err := p.step(ctx, cmd, d, KindInstallFailed); err != nil {
			return Environment{}, err
		}
	}

	notify(Ready)
	return env, nil
}

// checkTool resolves the tool on PATH and confirms it answers --version.
func (p *Provisioner) checkTool(ctx context.Context) (string, error) {
	toolPath, err := p.runner.LookPath(p.tool)
	if err != nil {
		return "", &ToolMissingError{Tool: p.tool, Cause: err}
	}
	res, err := p.runner.Run(ctx, proc.Command{Path: toolPath, Args: []string{"--version"}})
	if err != nil {
		return "", &ToolMissingError{Tool: p.tool, Cause: err}
	}
	if res.ExitCode != 0 {
		return "", &ToolMissingError{
			Tool:  p.tool,
			Cause: fmt.Errorf("version check exited with code %d: %s", res.ExitCode, res.Combined()),
		}
	}
	return toolPath, nil
}

// installCommand picks the manifest install when a manifest exists and the
// inferred list otherwise. The two are never merged.
func (p *Provisioner) installCommand(toolPath string, d project.Descriptor) (proc.Command, bool) {
	switch {
	case d.HasManifest:
		return proc.Command{
			Path: toolPath,
			Args: []string{"pip", "install", "-r", project.ManifestName},
			Dir:  d.RootPath,
		}, true
	case len(d.Dependencies) > 0:
		args := append([]string{"pip", "install"}, d.Dependencies...)
		return proc.Command{Path: toolPath, Args: args, Dir: d.RootPath}, true
	default:
		return proc.Command{}, false
	}
}

func (p *Provisioner) step(ctx context.Context, cmd proc.Command, d project.Descriptor, kind Kind) error {
	res, err := p.runner.Run(ctx, cmd)
	if err != nil {
		if errors.Is(err, proc.ErrNotFound) {
			return &ToolMissingError{Tool: p.tool, Cause: err}
		}
		return &Error{Kind: kind, Project: d.Name, Command: cmd.String(), Cause: err}
	}
	if res.ExitCode != 0 {
		return &Error{
			Kind:    kind,
			Project: d.Name,
			Command: cmd.String(),
			Output:  res.Combined(),
			Cause:   fmt.Errorf("exit code %d", res.ExitCode),
		}
	}
	return nil
}
