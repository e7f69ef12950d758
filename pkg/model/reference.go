package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ReferenceKind tells how the content of a reference was obtained
type ReferenceKind string

// Supported reference kinds
const (
	KindFile      ReferenceKind = "file"
	KindDirectory ReferenceKind = "directory"
	KindGitRepo   ReferenceKind = "git_repo"
)

// ParseReferenceKind parses a kind as used in filters, e.g. "dir" or "git"
func ParseReferenceKind(s string) (ReferenceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "file":
		return KindFile, nil
	case "directory", "dir":
		return KindDirectory, nil
	case "git_repo", "git-repo", "git", "repo":
		return KindGitRepo, nil
	default:
		return "", fmt.Errorf("unknown reference kind %q", s)
	}
}

func (k ReferenceKind) String() string {
	return string(k)
}

// SourceType tells where a reference is fetched from
type SourceType string

// Supported source types
const (
	SourceLocal SourceType = "local"
	SourceGit   SourceType = "git"
)

// Source describes the original location of a reference's content
type Source struct {
	Type    SourceType `json:"type" yaml:"type"`
	Path    string     `json:"path,omitempty" yaml:"path,omitempty"`
	URL     string     `json:"url,omitempty" yaml:"url,omitempty"`
	Ref     string     `json:"ref,omitempty" yaml:"ref,omitempty"`
	Subpath string     `json:"subpath,omitempty" yaml:"subpath,omitempty"`
}

// LocalSource builds a source descriptor for a local file or directory
func LocalSource(path string) Source {
	return Source{Type: SourceLocal, Path: path}
}

// GitSource builds a source descriptor for an external git repository
func GitSource(url, ref, subpath string) Source {
	return Source{Type: SourceGit, URL: url, Ref: ref, Subpath: subpath}
}

func (s Source) String() string {
	switch s.Type {
	case SourceGit:
		var b strings.Builder
		b.WriteString(s.URL)
		if s.Ref != "" {
			fmt.Fprintf(&b, " (ref: %s)", s.Ref)
		}
		if s.Subpath != "" {
			fmt.Fprintf(&b, " [%s]", s.Subpath)
		}
		return b.String()
	default:
		return s.Path
	}
}

// Reference is a named unit of content
type Reference struct {
	Name        string        `json:"name" yaml:"name"`
	Kind        ReferenceKind `json:"kind" yaml:"kind"`
	Source      Source        `json:"source" yaml:"source"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	AddedAt     time.Time     `json:"added_at" yaml:"added_at"`
	UpdatedAt   time.Time     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Checksum    string        `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// NewReference builds a reference, stamped with the current time
func NewReference(name string, kind ReferenceKind, source Source, opts ...ReferenceOption) Reference {
	now := time.Now().UTC().Truncate(time.Second)
	r := Reference{
		Name:      name,
		Kind:      kind,
		Source:    source,
		AddedAt:   now,
		UpdatedAt: now,
	}
	for _, apply := range opts {
		apply(&r)
	}
	r.Tags = normalizeTags(r.Tags)
	return r
}

// HasTag tells if the reference carries this tag (case-insensitive)
func (r Reference) HasTag(tag string) bool {
	return hasTag(r.Tags, tag)
}

// References is a sortable collection of references
type References []Reference

func (r References) Len() int           { return len(r) }
func (r References) Less(i, j int) bool { return r[i].Name < r[j].Name }
func (r References) Swap(i, j int)      { r[i], r[j] = r[j], r[i] }

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	res := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		res = append(res, t)
	}
	sort.Strings(res)
	return res
}
