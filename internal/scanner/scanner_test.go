package scanner

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCandidates(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root := t.TempDir()
	for _, dir := range []string{"zeta", "alpha", ".hidden", "mid"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, dir), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	// --- Act ---
	seq, err := Candidates(root)
	require.NoError(t, err)
	got := slices.Collect(seq)

	// --- Assert ---
	require.Equal(t, []string{
		filepath.Join(root, "alpha"),
		filepath.Join(root, "mid"),
		filepath.Join(root, "zeta"),
	}, got)
}

func TestCandidates_EmptyRoot(t *testing.T) {
	t.Parallel()

	seq, err := Candidates(t.TempDir())

	require.NoError(t, err, "an existing empty root is not an error")
	require.Empty(t, slices.Collect(seq))
}

func TestCandidates_MissingRoot(t *testing.T) {
	t.Parallel()

	seq, err := Candidates(filepath.Join(t.TempDir(), "does-not-exist"))

	require.ErrorIs(t, err, ErrRootNotFound)
	require.Nil(t, seq)
}

func TestCandidates_StopsEarly(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, dir := range []string{"a", "b", "c"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, dir), 0o755))
	}

	seq, err := Candidates(root)
	require.NoError(t, err)

	var seen []string
	for p := range seq {
		seen = append(seen, filepath.Base(p))
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []string{"a", "b"}, seen)
}
