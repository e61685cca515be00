package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/pylaunch/internal/testutil"
)

func TestBuildCatalog(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root := t.TempDir()
	testutil.NewProject(t, root, "foo", map[string]string{"main.py": "import requests\n"})
	testutil.NewProject(t, root, "bar", map[string]string{"app.py": "print(1)\n", "requirements.txt": "rich\n"})
	testutil.NewProject(t, root, "assets", map[string]string{"logo.svg": "<svg/>"})
	testutil.NewProject(t, root, ".venv", map[string]string{"main.py": "hidden\n"})

	// --- Act ---
	cat := BuildCatalog(context.Background(), root, NewAnalyzer(Rules{}))

	// --- Assert ---
	require.Equal(t, Populated, cat.State)
	require.NoError(t, cat.Err)
	require.Len(t, cat.Projects, 2)
	require.Equal(t, "bar", cat.Projects[0].Name)
	require.Equal(t, "foo", cat.Projects[1].Name)

	d, ok := cat.Lookup("foo")
	require.True(t, ok)
	require.Equal(t, []string{"requests"}, d.Dependencies)

	d, ok = cat.Lookup("1")
	require.True(t, ok)
	require.Equal(t, "bar", d.Name)

	_, ok = cat.Lookup("3")
	require.False(t, ok)
	_, ok = cat.Lookup("assets")
	require.False(t, ok)
}

func TestBuildCatalog_States(t *testing.T) {
	t.Parallel()

	missing := BuildCatalog(context.Background(), filepath.Join(t.TempDir(), "nope"), NewAnalyzer(Rules{}))
	require.Equal(t, RootMissing, missing.State)
	require.Empty(t, missing.Projects)

	root := t.TempDir()
	testutil.NewProject(t, root, "docs", map[string]string{"README.md": "x"})
	empty := BuildCatalog(context.Background(), root, NewAnalyzer(Rules{}))
	require.Equal(t, Empty, empty.State)
	require.NotEqual(t, missing.State, empty.State, "missing root must be distinguishable from an empty one")
}

type countingAnalyzer struct {
	calls int
	next  DirAnalyzer
}

func (c *countingAnalyzer) Analyze(ctx context.Context, dir string) (Descriptor, bool) {
	c.calls++
	return c.next.Analyze(ctx, dir)
}

func TestCachedAnalyzer(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := testutil.NewProject(t, root, "foo", map[string]string{"main.py": "import requests\n"})

	counter := &countingAnalyzer{next: NewAnalyzer(Rules{})}
	cached, err := NewCachedAnalyzer(counter, 8)
	require.NoError(t, err)

	first, ok := cached.Analyze(context.Background(), dir)
	require.True(t, ok)
	second, ok := cached.Analyze(context.Background(), dir)
	require.True(t, ok)
	require.Equal(t, first, second)
	require.Equal(t, 1, counter.calls, "unchanged folder must be served from cache")
	require.Equal(t, 1, cached.Len())

	// Editing the entry file changes the fingerprint.
	main := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(main, []byte("import requests\nimport rich\n"), 0o644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(main, later, later))

	third, ok := cached.Analyze(context.Background(), dir)
	require.True(t, ok)
	require.Equal(t, 2, counter.calls)
	require.Equal(t, []string{"requests", "rich"}, third.Dependencies)
}

func TestCatalogState_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "root_missing", RootMissing.String())
	require.Equal(t, "empty", Empty.String())
	require.Equal(t, "populated", Populated.String())
}
