package core

import (
	"github.com/oneconcern/refstore/pkg/model"
)

// ListFilter selects references by tag and kind. The zero value selects everything.
type ListFilter struct {
	Tag  string
	Kind model.ReferenceKind
}

// Matches tells if the reference is selected
func (f ListFilter) Matches(ref model.Reference) bool {
	if f.Tag != "" && !ref.HasTag(f.Tag) {
		return false
	}
	return f.Kind == "" || ref.Kind == f.Kind
}

// ListedReference is a reference tagged with the registry it comes from
type ListedReference struct {
	Registry  string          `json:"registry"`
	Reference model.Reference `json:"reference"`
	// Shadowed references are hidden by a reference with the same name in a registry of higher precedence
	Shadowed bool `json:"shadowed,omitempty"`
}

// ListedBundle is a bundle tagged with the registry it comes from
type ListedBundle struct {
	Registry string       `json:"registry"`
	Bundle   model.Bundle `json:"bundle"`
	Shadowed bool         `json:"shadowed,omitempty"`
}

// List references across all loaded registries, in precedence order, then by name
func (r *Repository) List(filter ListFilter) []ListedReference {
	seen := make(map[string]struct{})
	var res []ListedReference
	for _, registry := range r.inPrecedence() {
		for _, ref := range registry.List(ListFilter{}) {
			_, shadowed := seen[ref.Name]
			seen[ref.Name] = struct{}{}
			if !filter.Matches(ref) {
				continue
			}
			res = append(res, ListedReference{
				Registry:  registry.Name(),
				Reference: ref,
				Shadowed:  shadowed,
			})
		}
		for _, name := range registry.index.BundleNames() {
			seen[name] = struct{}{}
		}
	}
	return res
}

// ListBundles lists bundles across all loaded registries, in precedence order, then by name
func (r *Repository) ListBundles(tag string) []ListedBundle {
	seen := make(map[string]struct{})
	var res []ListedBundle
	for _, registry := range r.inPrecedence() {
		for _, b := range registry.Bundles("") {
			_, shadowed := seen[b.Name]
			seen[b.Name] = struct{}{}
			if tag != "" && !b.HasTag(tag) {
				continue
			}
			res = append(res, ListedBundle{
				Registry: registry.Name(),
				Bundle:   b,
				Shadowed: shadowed,
			})
		}
		for _, name := range registry.index.ReferenceNames() {
			seen[name] = struct{}{}
		}
	}
	return res
}
