package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/pylaunch/internal/testutil"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(filepath.Join(dir, FileName), filepath.Join(dir, DefaultProjectsDir)), dir
}

func TestLoad_MissingRecordFallsBack(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)

	cfg := s.Load(context.Background())

	require.Equal(t, filepath.Join(dir, DefaultProjectsDir), cfg.ProjectsPath)
	require.Equal(t, SourceDefault, cfg.Source)
}

func TestLoad_Record(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	s, dir := newStore(t)
	projects := filepath.Join(dir, "apps")
	require.NoError(t, os.Mkdir(projects, 0o755))
	testutil.WriteTree(t, dir, map[string]string{FileName: `
projects_path = "apps"

analyzer {
  entry_candidates  = ["start.py", "main.py"]
  stdlib_exclusions = ["os", "internal_lib"]
}

notify {
  url       = "http://localhost:3000/socket.io/"
  namespace = "/runs"
}
`})

	// --- Act ---
	cfg := s.Load(context.Background())

	// --- Assert ---
	want := Config{
		ProjectsPath: projects,
		Analyzer: AnalyzerConfig{
			EntryCandidates:  []string{"start.py", "main.py"},
			StdlibExclusions: []string{"os", "internal_lib"},
		},
		Notify: NotifyConfig{URL: "http://localhost:3000/socket.io/", Namespace: "/runs"},
		Source: SourceRecord,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_StalePathFallsBackButKeepsBlocks(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	testutil.WriteTree(t, dir, map[string]string{FileName: `
projects_path = "/definitely/not/here"
analyzer {
  entry_candidates = ["start.py"]
}
`})

	cfg := s.Load(context.Background())

	require.Equal(t, SourceDefault, cfg.Source)
	require.Equal(t, s.DefaultRoot(), cfg.ProjectsPath)
	require.Equal(t, []string{"start.py"}, cfg.Analyzer.EntryCandidates)
}

func TestLoad_MalformedRecordFallsBack(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	testutil.WriteTree(t, dir, map[string]string{FileName: `projects_path = {{{`})

	cfg := s.Load(context.Background())

	require.Equal(t, SourceDefault, cfg.Source)
	require.Equal(t, s.DefaultRoot(), cfg.ProjectsPath)
}

func TestLoad_LegacyJSON(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	projects := filepath.Join(dir, "old-projects")
	require.NoError(t, os.Mkdir(projects, 0o755))
	testutil.WriteTree(t, dir, map[string]string{
		LegacyFileName: `{"projects_path": "` + filepath.ToSlash(projects) + `"}`,
	})

	cfg := s.Load(context.Background())

	require.Equal(t, SourceLegacy, cfg.Source)
	require.Equal(t, filepath.Clean(projects), cfg.ProjectsPath)
}

func TestLoad_LegacyJSONInvalid(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	testutil.WriteTree(t, dir, map[string]string{LegacyFileName: `{not json`})

	cfg := s.Load(context.Background())

	require.Equal(t, SourceDefault, cfg.Source)
}

func TestSave_RoundTripPreservesOtherBlocks(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	s, dir := newStore(t)
	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")
	require.NoError(t, os.Mkdir(first, 0o755))
	require.NoError(t, os.Mkdir(second, 0o755))
	testutil.WriteTree(t, dir, map[string]string{FileName: `# launcher settings
projects_path = "first"

notify {
  url = "http://localhost:3000"
}
`})

	// --- Act ---
	require.NoError(t, s.Save(context.Background(), second))
	cfg := s.Load(context.Background())

	// --- Assert ---
	require.Equal(t, second, cfg.ProjectsPath)
	require.Equal(t, SourceRecord, cfg.Source)
	require.Equal(t, "http://localhost:3000", cfg.Notify.URL, "save must not drop unrelated blocks")

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Contains(t, string(raw), "# launcher settings")
}

func TestSave_CreatesRecord(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	projects := filepath.Join(dir, "p")
	require.NoError(t, os.Mkdir(projects, 0o755))

	require.NoError(t, s.Save(context.Background(), projects))

	require.Equal(t, projects, s.Load(context.Background()).ProjectsPath)
}

func TestSave_WriteFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	s := NewStore(filepath.Join(blocker, FileName), filepath.Join(dir, DefaultProjectsDir))

	err := s.Save(context.Background(), dir)

	require.Error(t, err)
}

func TestInit(t *testing.T) {
	t.Parallel()

	s, dir := newStore(t)
	projects := filepath.Join(dir, "p")
	require.NoError(t, os.Mkdir(projects, 0o755))
	analyzer := AnalyzerConfig{
		EntryCandidates:  []string{"main.py", "app.py"},
		StdlibExclusions: []string{"os", "sys"},
	}

	require.NoError(t, s.Init(context.Background(), projects, analyzer))
	cfg := s.Load(context.Background())

	require.Equal(t, projects, cfg.ProjectsPath)
	require.Equal(t, analyzer, cfg.Analyzer)

	err := s.Init(context.Background(), projects, analyzer)
	require.ErrorIs(t, err, ErrRecordExists)
}

func TestEnsureDefault(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)

	cfg := s.Load(context.Background())
	require.NoError(t, s.EnsureDefault(cfg))

	info, err := os.Stat(s.DefaultRoot())
	require.NoError(t, err)
	require.True(t, info.IsDir())

	other := Config{ProjectsPath: filepath.Join(t.TempDir(), "elsewhere"), Source: SourceRecord}
	require.NoError(t, s.EnsureDefault(other))
	_, err = os.Stat(other.ProjectsPath)
	require.True(t, os.IsNotExist(err), "only the default folder is created")
}
