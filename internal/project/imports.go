package project

import (
	"regexp"
	"slices"
)

// importPattern matches import statements at the very start of a line and
// captures the root of the imported dotted path.
var importPattern = regexp.MustCompile(`(?m)^(?:from|import)\s+([A-Za-z0-9_]+)`)

// DefaultStdlibExclusions are import roots never treated as installable
// packages.
var DefaultStdlibExclusions = []string{
	"os", "sys", "json", "re", "pathlib", "subprocess",
	"datetime", "time", "math", "random", "collections",
	"itertools", "functools", "typing", "tkinter",
}

// InferImports returns the distinct import roots found in src that are not in
// excluded. Matching is case-sensitive and the result is sorted.
func InferImports(src string, excluded map[string]struct{}) []string {
	seen := make(map[string]struct{})
	for _, m := range importPattern.FindAllStringSubmatch(src, -1) {
		name := m[1]
		if _, skip := excluded[name]; skip {
			continue
		}
		seen[name] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// exclusionSet builds a lookup set from a list of module names.
func exclusionSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
