package config

// Source tells where the effective projects path came from.
type Source string

const (
	SourceRecord Source = "record"
	SourceLegacy Source = "legacy_json"
	// SourceDefault means the record was missing, unreadable, or pointed at a
	// folder that no longer exists.
	SourceDefault Source = "default"
)

// Config is the launcher's persisted configuration.
type Config struct {
	ProjectsPath string
	Analyzer     AnalyzerConfig
	Notify       NotifyConfig
	Source       Source
}

// AnalyzerConfig overrides the project analyzer's lists. Empty lists keep
// the built-in defaults.
type AnalyzerConfig struct {
	EntryCandidates  []string
	StdlibExclusions []string
}

// NotifyConfig enables the socket.io run-event notifier when URL is set.
type NotifyConfig struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
}

// fileRoot is the HCL shape of the record.
type fileRoot struct {
	ProjectsPath string       `hcl:"projects_path,optional"`
	Analyzer     *analyzerHCL `hcl:"analyzer,block"`
	Notify       *notifyHCL   `hcl:"notify,block"`
}

type analyzerHCL struct {
	EntryCandidates  []string `hcl:"entry_candidates,optional"`
	StdlibExclusions []string `hcl:"stdlib_exclusions,optional"`
}

type notifyHCL struct {
	URL                string `hcl:"url"`
	Namespace          string `hcl:"namespace,optional"`
	InsecureSkipVerify bool   `hcl:"insecure_skip_verify,optional"`
}
