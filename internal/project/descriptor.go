// Package project turns candidate folders into runnable project descriptors.
//
// The Analyzer picks an entry point, infers third-party imports from the
// entry file's text and notes whether a dependency manifest is present.
// BuildCatalog combines it with the scanner into an explicit Catalog value
// that the CLI renders and the supervisor acts on.
package project

// Descriptor describes one runnable subproject.
type Descriptor struct {
	// Name is the folder name, unique within one scan.
	Name string
	// RootPath is the absolute project folder.
	RootPath string
	// EntryPoint is the file to execute, relative to RootPath.
	EntryPoint string
	// SourceFiles lists the source files directly in RootPath, sorted.
	SourceFiles []string
	// HasManifest is true when the dependency manifest exists in RootPath.
	// Its contents are never parsed.
	HasManifest bool
	// Dependencies are the inferred top-level imports of EntryPoint, sorted,
	// with standard-library names removed.
	Dependencies []string
}

// NeedsInstall reports whether provisioning has a dependency step to run.
func (d Descriptor) NeedsInstall() bool {
	return d.HasManifest || len(d.Dependencies) > 0
}
