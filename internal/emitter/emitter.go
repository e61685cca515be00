// Package emitter writes standalone launcher scripts that repeat the
// provision-and-run sequence without pylaunch, for redistributing a project.
package emitter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"github.com/vk/pylaunch/internal/project"
	"github.com/vk/pylaunch/internal/provision"
)

const (
	// ShellScriptName is the POSIX launcher written into the project root.
	ShellScriptName = "run.sh"
	// BatchScriptName is the Windows launcher written into the project root.
	BatchScriptName = "run.bat"
)

var funcs = template.FuncMap{"join": strings.Join}

var shellTemplate = template.Must(template.New(ShellScriptName).Funcs(funcs).Parse(`#!/bin/bash
# Launcher for {{.Name}}

cd "$(dirname "$0")"

if ! command -v {{.Command}} &> /dev/null; then
    echo "{{.Tool}} is not installed. Install it with: {{.Remediation}}"
    exit 1
fi

if [ ! -d "{{.EnvDir}}" ]; then
    echo "Creating environment..."
    {{.Command}} venv
fi
{{- if .HasManifest}}

if [ -f "{{.Manifest}}" ]; then
    echo "Installing dependencies..."
    {{.Command}} pip install -r {{.Manifest}}
fi
{{- else if .Dependencies}}

echo "Installing dependencies..."
{{.Command}} pip install {{join .Dependencies " "}}
{{- end}}

echo "Running {{.EntryPoint}}..."
{{.EnvDir}}/bin/python "{{.EntryPoint}}"
`))

var batchTemplate = template.Must(template.New(BatchScriptName).Funcs(funcs).Parse(`@echo off
REM Launcher for {{.Name}}

cd /d "%~dp0"

where {{.Command}} >nul 2>nul
if %ERRORLEVEL% neq 0 (
    echo {{.Tool}} is not installed. Install it with: {{.Remediation}}
    pause
    exit /b 1
)

if not exist "{{.EnvDir}}" (
    echo Creating environment...
    {{.Command}} venv
)
{{- if .HasManifest}}

if exist "{{.Manifest}}" (
    echo Installing dependencies...
    {{.Command}} pip install -r {{.Manifest}}
)
{{- else if .Dependencies}}

echo Installing dependencies...
{{.Command}} pip install {{join .Dependencies " "}}
{{- end}}

echo Running {{.EntryPoint}}...
{{.EnvDir}}\Scripts\python.exe "{{.EntryPoint}}"

pause
`))

type scriptData struct {
	project.Descriptor
	Tool        string
	Command     string
	Remediation string
	EnvDir      string
	Manifest    string
}

// Scripts holds the rendered launcher texts.
type Scripts struct {
	Shell string
	Batch string
}

// Paths holds where Write put the scripts.
type Paths struct {
	Shell string
	Batch string
}

// Emitter renders and writes launcher scripts.
type Emitter struct {
	tool string
	goos string
}

// New returns an Emitter for the given isolation tool; an empty tool means
// provision.DefaultTool.
func New(tool string) *Emitter {
	if tool == "" {
		tool = provision.DefaultTool
	}
	return &Emitter{tool: tool, goos: runtime.GOOS}
}

// Render produces both scripts for d without touching the filesystem.
func (e *Emitter) Render(d project.Descriptor) (Scripts, error) {
	data := scriptData{
		Descriptor:  d,
		Tool:        e.tool,
		Command:     quoteTool(e.tool),
		Remediation: provision.Remediation,
		EnvDir:      provision.EnvDirName,
		Manifest:    project.ManifestName,
	}

	var sh, bat bytes.Buffer
	if err := shellTemplate.Execute(&sh, data); err != nil {
		return Scripts{}, fmt.Errorf("failed to render %s: %w", ShellScriptName, err)
	}
	if err := batchTemplate.Execute(&bat, data); err != nil {
		return Scripts{}, fmt.Errorf("failed to render %s: %w", BatchScriptName, err)
	}
	return Scripts{
		Shell: sh.String(),
		Batch: strings.ReplaceAll(bat.String(), "\n", "\r\n"),
	}, nil
}

// Write renders both scripts into d.RootPath. The shell script gets execute
// permission for owner, group and other on non-Windows hosts.
func (e *Emitter) Write(d project.Descriptor) (Paths, error) {
	scripts, err := e.Render(d)
	if err != nil {
		return Paths{}, err
	}

	paths := Paths{
		Shell: filepath.Join(d.RootPath, ShellScriptName),
		Batch: filepath.Join(d.RootPath, BatchScriptName),
	}
	if err := os.WriteFile(paths.Shell, []byte(scripts.Shell), 0o644); err != nil {
		return Paths{}, fmt.Errorf("failed to write %s: %w", paths.Shell, err)
	}
	if err := os.WriteFile(paths.Batch, []byte(scripts.Batch), 0o644); err != nil {
		return Paths{}, fmt.Errorf("failed to write %s: %w", paths.Batch, err)
	}

	if e.goos != "windows" {
		info, err := os.Stat(paths.Shell)
		if err != nil {
			return Paths{}, err
		}
		if err := os.Chmod(paths.Shell, info.Mode()|0o111); err != nil {
			return Paths{}, fmt.Errorf("failed to mark %s executable: %w", paths.Shell, err)
		}
	}
	return paths, nil
}

// quoteTool wraps a tool path holding spaces or shell metacharacters in
// double quotes so both script dialects see one word.
func quoteTool(tool string) string {
	if strings.ContainsAny(tool, " \t&()") {
		return `"` + tool + `"`
	}
	return tool
}
