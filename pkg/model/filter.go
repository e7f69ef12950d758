package model

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter selects files of a reference by glob patterns.
//
// Paths are relative to the reference root and use forward slashes.
// An empty include set matches everything; excludes are evaluated after includes.
//
// A pattern matches a path when:
//   - it matches the full relative path ("src/*.go", "**/*.md"), or
//   - it has no slash and matches the file's base name ("*.md"), or
//   - it matches one of the path's parent directories ("tests", "vendor/**").
type Filter struct {
	Include []string `json:"include,omitempty" yaml:"include,omitempty" toml:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" toml:"exclude,omitempty"`
}

// IsEmpty tells if the filter selects everything
func (f Filter) IsEmpty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

// Validate checks the syntax of all patterns
func (f Filter) Validate() error {
	for _, pattern := range append(append([]string(nil), f.Include...), f.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return nil
}

// Match tells if the relative path is selected by the filter
func (f Filter) Match(relPath string) bool {
	p := path.Clean(strings.TrimPrefix(toSlash(relPath), "/"))
	if len(f.Include) > 0 && !matchAny(f.Include, p) {
		return false
	}
	return !matchAny(f.Exclude, p)
}

// Apply returns the selected paths, in the input order
func (f Filter) Apply(paths []string) []string {
	selected := make([]string, 0, len(paths))
	for _, p := range paths {
		if f.Match(p) {
			selected = append(selected, p)
		}
	}
	return selected
}

// Equal tells if two filters declare the same patterns
func (f Filter) Equal(other Filter) bool {
	return equalStrings(f.Include, other.Include) && equalStrings(f.Exclude, other.Exclude)
}

func (f Filter) String() string {
	if f.IsEmpty() {
		return "*"
	}
	var parts []string
	if len(f.Include) > 0 {
		parts = append(parts, "+"+strings.Join(f.Include, ",+"))
	}
	if len(f.Exclude) > 0 {
		parts = append(parts, "-"+strings.Join(f.Exclude, ",-"))
	}
	return strings.Join(parts, " ")
}

func matchAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, p string) bool {
	pattern = strings.TrimSuffix(strings.TrimPrefix(pattern, "/"), "/")
	if ok, _ := doublestar.Match(pattern, p); ok {
		return true
	}
	if !strings.Contains(pattern, "/") {
		if ok, _ := doublestar.Match(pattern, path.Base(p)); ok {
			return true
		}
	}
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if ok, _ := doublestar.Match(pattern, dir); ok {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
