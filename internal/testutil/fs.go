// Package testutil holds fixtures shared by the package tests: a scripted
// process runner, project-tree builders and a thread-safe buffer.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTree creates every file in files under root. Keys are slash-separated
// relative paths; parent directories are created as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755), "failed to create parent of %s", rel)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644), "failed to write %s", rel)
	}
}

// NewProject creates root/name populated with files and returns its path.
func NewProject(t *testing.T, root, name string, files map[string]string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	WriteTree(t, dir, files)
	return dir
}
