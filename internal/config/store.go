package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/tidwall/gjson"
	"github.com/vk/pylaunch/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

const (
	// FileName is the HCL record written next to the executable.
	FileName = ".launcher.hcl"
	// LegacyFileName is the older JSON record, read only.
	LegacyFileName = ".launcher_config.json"
	// DefaultProjectsDir is the fallback projects folder next to the executable.
	DefaultProjectsDir = "projects"
)

// ErrRecordExists is returned by Init when a record is already present.
var ErrRecordExists = errors.New("config record already exists")

// Store reads and writes the record at a fixed path.
type Store struct {
	path        string
	legacyPath  string
	defaultRoot string
}

// NewStore returns a Store for the record at path. defaultRoot is used
// whenever the record cannot supply a usable projects folder.
func NewStore(path, defaultRoot string) *Store {
	return &Store{
		path:        path,
		legacyPath:  filepath.Join(filepath.Dir(path), LegacyFileName),
		defaultRoot: defaultRoot,
	}
}

// DefaultLocations returns the record path and default projects folder,
// both relative to the running executable's directory.
func DefaultLocations() (recordPath, projectsRoot string, err error) {
	exe, err := os.Executable()
	if err != nil {
		return "", "", fmt.Errorf("failed to locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	dir := filepath.Dir(exe)
	return filepath.Join(dir, FileName), filepath.Join(dir, DefaultProjectsDir), nil
}

// Path returns the record path.
func (s *Store) Path() string {
	return s.path
}

// DefaultRoot returns the fallback projects folder.
func (s *Store) DefaultRoot() string {
	return s.defaultRoot
}

// Load returns the effective configuration. Read and parse failures are
// logged at debug level and replaced by defaults.
func (s *Store) Load(ctx context.Context) Config {
	logger := ctxlog.FromContext(ctx).With("config", s.path)
	cfg := Config{ProjectsPath: s.defaultRoot, Source: SourceDefault}

	root, err := s.readRecord()
	switch {
	case err == nil:
		if root.Analyzer != nil {
			cfg.Analyzer = AnalyzerConfig{
				EntryCandidates:  root.Analyzer.EntryCandidates,
				StdlibExclusions: root.Analyzer.StdlibExclusions,
			}
		}
		if root.Notify != nil {
			cfg.Notify = NotifyConfig{
				URL:                root.Notify.URL,
				Namespace:          root.Notify.Namespace,
				InsecureSkipVerify: root.Notify.InsecureSkipVerify,
			}
		}
		if p := s.resolve(root.ProjectsPath); p != "" && isDir(p) {
			cfg.ProjectsPath = p
			cfg.Source = SourceRecord
		} else if root.ProjectsPath != "" {
			logger.Debug("Recorded projects path no longer exists, using default.", "recorded", root.ProjectsPath)
		}
	case errors.Is(err, fs.ErrNotExist):
		if p, ok := s.readLegacy(ctx); ok {
			cfg.ProjectsPath = p
			cfg.Source = SourceLegacy
		}
	default:
		logger.Debug("Config record unreadable, using defaults.", "error", err)
	}

	logger.Debug("Configuration loaded.", "projects_path", cfg.ProjectsPath, "source", cfg.Source)
	return cfg
}

// Save records projectsPath, keeping every other attribute and block of an
// existing record intact.
func (s *Store) Save(ctx context.Context, projectsPath string) error {
	abs, err := filepath.Abs(projectsPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", projectsPath, err)
	}

	f := s.editableRecord(ctx)
	f.Body().SetAttributeValue("projects_path", cty.StringVal(abs))

	if err := s.write(f); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Projects folder saved.", "projects_path", abs, "config", s.path)
	return nil
}

// Init writes a fresh record spelling out the analyzer lists so they can be
// edited. It refuses to overwrite an existing record.
func (s *Store) Init(ctx context.Context, projectsPath string, analyzer AnalyzerConfig) error {
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("%w: %s", ErrRecordExists, s.path)
	}
	abs, err := filepath.Abs(projectsPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", projectsPath, err)
	}

	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("projects_path", cty.StringVal(abs))
	body.AppendNewline()
	block := body.AppendNewBlock("analyzer", nil).Body()
	block.SetAttributeValue("entry_candidates", stringList(analyzer.EntryCandidates))
	block.SetAttributeValue("stdlib_exclusions", stringList(analyzer.StdlibExclusions))

	if err := s.write(f); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Config record created.", "config", s.path)
	return nil
}

// EnsureDefault creates the default projects folder when cfg fell back to it.
func (s *Store) EnsureDefault(cfg Config) error {
	if cfg.Source != SourceDefault || cfg.ProjectsPath != s.defaultRoot {
		return nil
	}
	if err := os.MkdirAll(s.defaultRoot, 0o755); err != nil {
		return fmt.Errorf("failed to create default projects folder: %w", err)
	}
	return nil
}

func (s *Store) readRecord() (*fileRoot, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, err
	}
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(s.path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, diags)
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, diags)
	}
	return &root, nil
}

func (s *Store) readLegacy(ctx context.Context) (string, bool) {
	data, err := os.ReadFile(s.legacyPath)
	if err != nil {
		return "", false
	}
	if !gjson.ValidBytes(data) {
		ctxlog.FromContext(ctx).Debug("Legacy config is not valid JSON, ignoring.", "path", s.legacyPath)
		return "", false
	}
	p := s.resolve(gjson.GetBytes(data, "projects_path").String())
	if p == "" || !isDir(p) {
		return "", false
	}
	ctxlog.FromContext(ctx).Debug("Imported projects path from legacy config.", "path", s.legacyPath, "projects_path", p)
	return p, true
}

// editableRecord returns the existing record for in-place editing, or an
// empty file when there is none or it cannot be parsed.
func (s *Store) editableRecord(ctx context.Context) *hclwrite.File {
	src, err := os.ReadFile(s.path)
	if err != nil {
		return hclwrite.NewEmptyFile()
	}
	f, diags := hclwrite.ParseConfig(src, s.path, hcl.InitialPos)
	if diags.HasErrors() {
		ctxlog.FromContext(ctx).Warn("Existing config record is malformed and will be replaced.", "config", s.path, "error", diags.Error())
		return hclwrite.NewEmptyFile()
	}
	return f
}

func (s *Store) write(f *hclwrite.File) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config folder: %w", err)
	}
	if err := os.WriteFile(s.path, f.Bytes(), 0o644); err != nil {
		return fmt.Errorf("could not save configuration: %w", err)
	}
	return nil
}

// resolve makes a recorded path absolute, relative to the record's folder.
func (s *Store) resolve(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(s.path), p)
	}
	return filepath.Clean(p)
}

func stringList(vals []string) cty.Value {
	if len(vals) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	out := make([]cty.Value, 0, len(vals))
	for _, v := range vals {
		out = append(out, cty.StringVal(v))
	}
	return cty.ListVal(out)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
