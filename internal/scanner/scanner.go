// Package scanner lists the candidate project folders directly under the
// projects root.
package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// ErrRootNotFound is returned when the projects root does not exist. Callers
// use it to tell "no folder" apart from "folder with nothing in it".
var ErrRootNotFound = errors.New("projects root not found")

// hiddenPrefix marks entries the scanner never offers as projects.
const hiddenPrefix = "."

// Candidates returns the immediate child directories of root, ordered by
// name. Hidden entries and plain files are skipped. The directory listing is
// read up front so a missing root is reported immediately; paths are then
// yielded lazily.
func Candidates(root string) (iter.Seq[string], error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
		}
		return nil, fmt.Errorf("failed to read projects root %s: %w", root, err)
	}

	return func(yield func(string) bool) {
		// os.ReadDir already sorts by filename.
		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), hiddenPrefix) {
				continue
			}
			if !isDir(root, entry) {
				continue
			}
			if !yield(filepath.Join(root, entry.Name())) {
				return
			}
		}
	}, nil
}

// isDir follows symlinks so a linked project folder is still offered.
func isDir(root string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(root, entry.Name()))
	return err == nil && info.IsDir()
}
