package core

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	units "github.com/docker/go-units"
	"github.com/oneconcern/refstore/pkg/model"
	"go.uber.org/zap"
)

// maxSearchFileSize is the size above which files are not searched
const maxSearchFileSize = 1 * units.MiB

// Fields of a reference matched by a search
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldTags        = "tags"
	FieldContent     = "content"
)

// SearchResult is a match of a search, either on the metadata of a reference or on a line of its content
type SearchResult struct {
	Registry  string `json:"registry"`
	Reference string `json:"reference"`
	Field     string `json:"field"`
	Path      string `json:"path,omitempty"`
	Line      int    `json:"line,omitempty"`
	Text      string `json:"text"`
}

func (s SearchResult) String() string {
	if s.Field == FieldContent {
		return fmt.Sprintf("%s:%s:%s:%d: %s", s.Registry, s.Reference, s.Path, s.Line, s.Text)
	}
	return fmt.Sprintf("%s:%s: %s: %s", s.Registry, s.Reference, s.Field, s.Text)
}

// Search references of all loaded registries, in precedence order.
//
// The search is case-insensitive. It matches the name, description and tags of references,
// and lines of their cached text files. Binary files and files larger than 1MiB are skipped.
func (r *Repository) Search(ctx context.Context, query string, opts ...SearchOption) ([]SearchResult, error) {
	settings := defaultSearchSettings()
	for _, apply := range opts {
		apply(&settings)
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []SearchResult{}, nil
	}

	res := make([]SearchResult, 0, settings.limit)
	for _, registry := range r.inPrecedence() {
		if settings.registry != "" && registry.Name() != settings.registry {
			continue
		}
		for _, ref := range registry.List(ListFilter{}) {
			if settings.scope != "" && ref.Name != settings.scope {
				continue
			}
			if settings.metadata {
				res = appendMetadataMatches(res, registry.Name(), ref, needle)
			}
			if settings.content {
				matches, err := r.searchContent(ctx, registry, ref.Name, needle, settings.limit-len(res))
				if err != nil {
					return nil, err
				}
				res = append(res, matches...)
			}
			if len(res) >= settings.limit {
				return res[:settings.limit], nil
			}
		}
	}
	return res, nil
}

func appendMetadataMatches(res []SearchResult, registry string, ref model.Reference, needle string) []SearchResult {
	match := func(field, text string) {
		if strings.Contains(strings.ToLower(text), needle) {
			res = append(res, SearchResult{Registry: registry, Reference: ref.Name, Field: field, Text: text})
		}
	}
	match(FieldName, ref.Name)
	match(FieldDescription, ref.Description)
	for _, tag := range ref.Tags {
		match(FieldTags, tag)
	}
	return res
}

func (r *Repository) searchContent(ctx context.Context, registry *Registry, name, needle string, limit int) ([]SearchResult, error) {
	files, err := registry.Files(ctx, name)
	if err != nil {
		return nil, err
	}
	root := registry.ContentPath(name)
	var res []SearchResult
	for _, file := range files {
		if len(res) >= limit {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, ok := readSearchable(filepath.Join(root, filepath.FromSlash(file)))
		if !ok {
			r.logger.Debug("skipping file in search", zap.String("reference", name), zap.String("path", file))
			continue
		}
		scanner := bufio.NewScanner(bytes.NewReader(content))
		scanner.Buffer(make([]byte, 0, 64*1024), int(maxSearchFileSize))
		for line := 1; scanner.Scan() && len(res) < limit; line++ {
			text := scanner.Text()
			if strings.Contains(strings.ToLower(text), needle) {
				res = append(res, SearchResult{
					Registry:  registry.Name(),
					Reference: name,
					Field:     FieldContent,
					Path:      file,
					Line:      line,
					Text:      strings.TrimSpace(text),
				})
			}
		}
	}
	return res, nil
}

// readSearchable reads a text file, unless it is too large or binary
func readSearchable(file string) ([]byte, bool) {
	fi, err := os.Stat(file)
	if err != nil || fi.Size() > maxSearchFileSize {
		return nil, false
	}
	content, err := os.ReadFile(file)
	if err != nil || isBinary(content) {
		return nil, false
	}
	return content, true
}
