package app

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/vk/pylaunch/internal/emitter"
	"github.com/vk/pylaunch/internal/executor"
	"github.com/vk/pylaunch/internal/project"
	"github.com/vk/pylaunch/internal/provision"
)

const (
	guidanceAdd    = "Add Python apps to the 'projects' folder.\nEach app should be in its own subfolder with a .py file."
	maxDepsInLine  = 3
	outputHeading  = "=== Output ==="
	errorsHeading  = "=== Errors ==="
	successMessage = "Completed Successfully"
)

// DependencySummary is the one-line dependency description shown per app.
func DependencySummary(d project.Descriptor) string {
	switch {
	case d.HasManifest:
		return project.ManifestName
	case len(d.Dependencies) == 0:
		return "None"
	case len(d.Dependencies) > maxDepsInLine:
		return fmt.Sprintf("%s (+%d more)", strings.Join(d.Dependencies[:maxDepsInLine], ", "), len(d.Dependencies)-maxDepsInLine)
	default:
		return strings.Join(d.Dependencies, ", ")
	}
}

func (a *App) paint(c color.Color, s string) string {
	if !a.color {
		return s
	}
	return c.Sprint(s)
}

func (a *App) renderCatalog(cat project.Catalog) string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Projects folder: %s\n\n", cat.Root)

	switch cat.State {
	case project.RootMissing:
		fmt.Fprintf(&b, "%s\n%s\n", a.paint(color.Yellow, "Projects folder not found"), guidanceAdd)
		return b.String()
	case project.Empty:
		fmt.Fprintf(&b, "%s\n%s\n", a.paint(color.Yellow, "No apps found in projects folder"), guidanceAdd)
		if cat.Err != nil {
			fmt.Fprintf(&b, "(%v)\n", cat.Err)
		}
		return b.String()
	}

	noun := "apps"
	if len(cat.Projects) == 1 {
		noun = "app"
	}
	fmt.Fprintf(&b, "%d %s found\n\n", len(cat.Projects), noun)
	for i, d := range cat.Projects {
		fmt.Fprintf(&b, "%3d. %s\n", i+1, a.paint(color.Cyan, d.Name))
		fmt.Fprintf(&b, "     Entry: %s\n", d.EntryPoint)
		fmt.Fprintf(&b, "     Dependencies: %s\n", DependencySummary(d))
	}
	return b.String()
}

func (a *App) renderOutcome(name string, res executor.Result, err error) string {
	var b bytes.Buffer
	if err != nil {
		title, detail := describeError(err)
		fmt.Fprintf(&b, "%s: %s\n%s\n", a.paint(color.Red, title), name, detail)
		return b.String()
	}

	if res.Stdout != "" {
		fmt.Fprintf(&b, "%s\n%s", outputHeading, res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			b.WriteByte('\n')
		}
	}
	if res.Stderr != "" {
		if res.Stdout != "" {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s\n%s", errorsHeading, res.Stderr)
		if !strings.HasSuffix(res.Stderr, "\n") {
			b.WriteByte('\n')
		}
	}
	if res.Success() {
		fmt.Fprintf(&b, "%s: %s\n", name, a.paint(color.Green, successMessage))
	} else {
		fmt.Fprintf(&b, "%s: %s\n", name, a.paint(color.Red, fmt.Sprintf("Exited with code %d", res.ExitCode)))
	}
	return b.String()
}

func (a *App) renderExport(d project.Descriptor, paths emitter.Paths) string {
	return fmt.Sprintf("Launchers created for %s:\n  %s\n  %s\n\nDistribute the '%s' folder; users run %s or %s.\n",
		d.Name, paths.Shell, paths.Batch, d.Name, emitter.ShellScriptName, emitter.BatchScriptName)
}

// describeError turns a run failure into a title and user-facing detail.
func describeError(err error) (title, detail string) {
	var (
		provErr   *provision.Error
		launchErr *executor.LaunchError
	)
	switch {
	case errors.Is(err, provision.ErrToolMissing):
		return "Tool Not Found", err.Error()
	case errors.As(err, &provErr):
		return "Provisioning Error", err.Error()
	case errors.As(err, &launchErr):
		return "Execution Error", "Failed to run app:\n" + err.Error()
	default:
		return "Error", err.Error()
	}
}
