package project

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/vk/pylaunch/internal/ctxlog"
)

const (
	// SourceExt is the recognised source file extension.
	SourceExt = ".py"
	// ManifestName is the dependency manifest looked up in each project.
	ManifestName = "requirements.txt"
)

// DefaultEntryCandidates are the canonical entry filenames, highest priority first.
var DefaultEntryCandidates = []string{"main.py", "app.py", "run.py", "__main__.py"}

// Rules holds the analyzer's tunable lists. Empty fields fall back to the
// package defaults.
type Rules struct {
	EntryCandidates  []string
	StdlibExclusions []string
}

// DirAnalyzer inspects one candidate folder.
type DirAnalyzer interface {
	Analyze(ctx context.Context, dir string) (Descriptor, bool)
}

// Analyzer is the filesystem-backed DirAnalyzer.
type Analyzer struct {
	entryCandidates []string
	excluded        map[string]struct{}
}

// NewAnalyzer builds an Analyzer from rules.
func NewAnalyzer(rules Rules) *Analyzer {
	candidates := rules.EntryCandidates
	if len(candidates) == 0 {
		candidates = DefaultEntryCandidates
	}
	exclusions := rules.StdlibExclusions
	if len(exclusions) == 0 {
		exclusions = DefaultStdlibExclusions
	}
	return &Analyzer{
		entryCandidates: append([]string(nil), candidates...),
		excluded:        exclusionSet(exclusions),
	}
}

// Analyze returns the descriptor for dir, or false when dir holds no source
// files. An unreadable entry file yields an empty dependency set instead of
// failing.
func (a *Analyzer) Analyze(ctx context.Context, dir string) (Descriptor, bool) {
	logger := ctxlog.FromContext(ctx).With("dir", dir)

	sources, err := listSources(dir)
	if err != nil {
		logger.Debug("Skipping unreadable folder.", "error", err)
		return Descriptor{}, false
	}
	if len(sources) == 0 {
		logger.Debug("No source files, not a project.")
		return Descriptor{}, false
	}

	entry := a.selectEntry(dir, sources)

	deps := []string{}
	src, err := os.ReadFile(filepath.Join(dir, entry))
	switch {
	case err != nil:
		logger.Debug("Entry file unreadable, dependency inference skipped.", "entry", entry, "error", err)
	case !utf8.Valid(src):
		logger.Debug("Entry file is not valid UTF-8, dependency inference skipped.", "entry", entry)
	default:
		deps = InferImports(string(src), a.excluded)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		absDir = dir
	}

	d := Descriptor{
		Name:         filepath.Base(dir),
		RootPath:     absDir,
		EntryPoint:   entry,
		SourceFiles:  sources,
		HasManifest:  fileExists(filepath.Join(dir, ManifestName)),
		Dependencies: deps,
	}
	logger.Debug("Project analyzed.", "entry", d.EntryPoint, "manifest", d.HasManifest, "deps", d.Dependencies)
	return d, true
}

// selectEntry returns the first canonical name present on disk, otherwise
// the first listed source file.
func (a *Analyzer) selectEntry(dir string, sources []string) string {
	for _, name := range a.entryCandidates {
		if fileExists(filepath.Join(dir, name)) {
			return name
		}
	}
	return sources[0]
}

// listSources returns the regular source files directly in dir, sorted by name.
func listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), SourceExt) {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
