package project

import (
	"context"
	"errors"
	"strconv"

	"github.com/vk/pylaunch/internal/ctxlog"
	"github.com/vk/pylaunch/internal/scanner"
)

// CatalogState tells the caller which guidance to show.
type CatalogState int

const (
	// RootMissing means the projects root does not exist.
	RootMissing CatalogState = iota
	// Empty means the root exists but holds no runnable project.
	Empty
	// Populated means at least one project was found.
	Populated
)

func (s CatalogState) String() string {
	switch s {
	case RootMissing:
		return "root_missing"
	case Empty:
		return "empty"
	case Populated:
		return "populated"
	default:
		return "unknown"
	}
}

// Catalog is the result of one scan of the projects root.
type Catalog struct {
	Root     string
	State    CatalogState
	Projects []Descriptor
	// Err holds a read failure other than a missing root, if any.
	Err error
}

// BuildCatalog scans root and analyzes every candidate folder. Failures are
// contained per folder; only an unreadable root empties the catalog.
func BuildCatalog(ctx context.Context, root string, a DirAnalyzer) Catalog {
	logger := ctxlog.FromContext(ctx).With("root", root)
	cat := Catalog{Root: root}

	candidates, err := scanner.Candidates(root)
	if err != nil {
		if errors.Is(err, scanner.ErrRootNotFound) {
			logger.Warn("Projects root not found.")
			cat.State = RootMissing
			return cat
		}
		logger.Error("Failed to scan projects root.", "error", err)
		cat.State = Empty
		cat.Err = err
		return cat
	}

	for dir := range candidates {
		if d, ok := a.Analyze(ctx, dir); ok {
			cat.Projects = append(cat.Projects, d)
		}
	}

	if len(cat.Projects) == 0 {
		cat.State = Empty
	} else {
		cat.State = Populated
	}
	logger.Debug("Catalog built.", "state", cat.State, "projects", len(cat.Projects))
	return cat
}

// Lookup finds a project by folder name, or by its 1-based position in the
// catalog when ref is a number that matches no folder name.
func (c Catalog) Lookup(ref string) (Descriptor, bool) {
	for _, d := range c.Projects {
		if d.Name == ref {
			return d, true
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(c.Projects) {
		return c.Projects[n-1], true
	}
	return Descriptor{}, false
}
