package model

import (
	"path"
	"sort"
	"strings"

	"github.com/oneconcern/refstore/pkg/storage/localfs"
)

const (
	// ManifestVersion is the current version of the project manifest
	ManifestVersion = 1

	// ManifestFile is the name of the project manifest
	ManifestFile = "refstore.toml"

	// OutputDir is the directory receiving synced references, relative to the project root
	OutputDir = ".references"
)

// ManifestEntry declares a project's interest in one reference
type ManifestEntry struct {
	Path    string   `json:"path,omitempty" toml:"path,omitempty"`
	Version string   `json:"version,omitempty" toml:"version,omitempty"`
	Include []string `json:"include,omitempty" toml:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty" toml:"exclude,omitempty"`
}

// Filter of this entry
func (e ManifestEntry) Filter() Filter {
	return Filter{Include: e.Include, Exclude: e.Exclude}
}

// Pin of this entry, i.e. a tag or commit, or empty when unpinned
func (e ManifestEntry) Pin() string {
	return e.Version
}

// Destination of the synced content, relative to the output directory
func (e ManifestEntry) Destination(name string) string {
	if e.Path == "" {
		return name
	}
	return path.Clean(toSlash(e.Path))
}

// Manifest is a project's declared selection of references and bundles
type Manifest struct {
	Version             int                      `json:"version" toml:"version"`
	GitignoreReferences bool                     `json:"gitignore_references" toml:"gitignore_references"`
	Bundles             []string                 `json:"bundles,omitempty" toml:"bundles,omitempty"`
	References          map[string]ManifestEntry `json:"references" toml:"references"`
	BundleFilters       map[string]Filter        `json:"bundle_filters,omitempty" toml:"bundle_filters,omitempty"`
}

// NewManifest builds an empty manifest
func NewManifest(gitignore bool) *Manifest {
	return &Manifest{
		Version:             ManifestVersion,
		GitignoreReferences: gitignore,
		References:          make(map[string]ManifestEntry),
	}
}

// Normalize ensures maps are allocated after unmarshalling a sparse document
func (m *Manifest) Normalize() {
	if m.Version == 0 {
		m.Version = ManifestVersion
	}
	if m.References == nil {
		m.References = make(map[string]ManifestEntry)
	}
	sort.Strings(m.Bundles)
}

// HasBundle tells if the manifest lists this bundle
func (m Manifest) HasBundle(name string) bool {
	for _, b := range m.Bundles {
		if b == name {
			return true
		}
	}
	return false
}

// AddBundle lists a bundle, with optional filters inherited by its members
func (m *Manifest) AddBundle(name string, filter Filter) {
	if !m.HasBundle(name) {
		m.Bundles = append(m.Bundles, name)
		sort.Strings(m.Bundles)
	}
	if filter.IsEmpty() {
		delete(m.BundleFilters, name)
		return
	}
	if m.BundleFilters == nil {
		m.BundleFilters = make(map[string]Filter)
	}
	m.BundleFilters[name] = filter
}

// RemoveBundle drops a bundle and its filters. It returns false if the bundle was not listed.
func (m *Manifest) RemoveBundle(name string) bool {
	for i, b := range m.Bundles {
		if b == name {
			m.Bundles = append(m.Bundles[:i], m.Bundles[i+1:]...)
			delete(m.BundleFilters, name)
			if len(m.BundleFilters) == 0 {
				m.BundleFilters = nil
			}
			return true
		}
	}
	return false
}

// BundleFilter returns the filters declared for a bundle
func (m Manifest) BundleFilter(name string) Filter {
	if m.BundleFilters == nil {
		return Filter{}
	}
	return m.BundleFilters[name]
}

// ReferenceNames returns the sorted names of explicit entries
func (m Manifest) ReferenceNames() []string {
	names := make([]string, 0, len(m.References))
	for name := range m.References {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsEmpty tells if the manifest selects nothing
func (m Manifest) IsEmpty() bool {
	return len(m.References) == 0 && len(m.Bundles) == 0
}

// ValidDestination tells if a destination override stays inside the output directory
func ValidDestination(dest string) bool {
	if dest == "" {
		return true
	}
	p := path.Clean(toSlash(dest))
	if path.IsAbs(p) || p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return false
	}
	return p != localfs.StageName && !strings.HasPrefix(p, localfs.StageName+"/")
}
