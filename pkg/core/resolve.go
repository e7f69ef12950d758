package core

import (
	"context"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/model"
	"github.com/oneconcern/refstore/pkg/vcs"
)

// ResolvedKind tells what a name resolved to
type ResolvedKind string

// Outcomes of a resolution
const (
	ResolvedReference ResolvedKind = "reference"
	ResolvedBundle    ResolvedKind = "bundle"
)

// Resolved is the outcome of resolving a name: either a reference or a bundle, with the registry it comes from
type Resolved struct {
	Kind      ResolvedKind     `json:"kind"`
	Registry  string           `json:"registry"`
	Reference *model.Reference `json:"reference,omitempty"`
	Bundle    *model.Bundle    `json:"bundle,omitempty"`
}

// IsBundle tells if the name resolved to a bundle
func (r Resolved) IsBundle() bool {
	return r.Kind == ResolvedBundle
}

// Resolve a name to a reference or a bundle.
//
// The local registry is searched first, then remote registries by name. In each registry,
// references are looked up before bundles.
func (r *Repository) Resolve(name string) (Resolved, error) {
	resolved, _, err := r.resolveIn(name)
	return resolved, err
}

// ResolveReference resolves a name to a reference.
//
// Shadowing applies across namespaces: a bundle of a registry with a higher
// precedence hides a reference of the same name.
func (r *Repository) ResolveReference(name string) (model.Reference, *Registry, error) {
	resolved, registry, err := r.resolveIn(name)
	if err != nil {
		return model.Reference{}, nil, err
	}
	if resolved.IsBundle() {
		return model.Reference{}, nil, status.ErrNotFound.For(model.EntityReference, name).
			Wrapf("%q is a bundle of registry %q", name, registry.Name())
	}
	return *resolved.Reference, registry, nil
}

// ResolveBundle resolves a name to a bundle. A reference of a registry with a
// higher precedence hides a bundle of the same name.
func (r *Repository) ResolveBundle(name string) (model.Bundle, *Registry, error) {
	resolved, registry, err := r.resolveIn(name)
	if err != nil {
		return model.Bundle{}, nil, status.ErrNotFound.For(model.EntityBundle, name)
	}
	if !resolved.IsBundle() {
		return model.Bundle{}, nil, status.ErrNotFound.For(model.EntityBundle, name).
			Wrapf("%q is a reference of registry %q", name, registry.Name())
	}
	return *resolved.Bundle, registry, nil
}

// resolveIn stops at the first registry holding the name, in either namespace
func (r *Repository) resolveIn(name string) (Resolved, *Registry, error) {
	for _, registry := range r.inPrecedence() {
		if ref, ok := registry.index.References[name]; ok {
			return Resolved{Kind: ResolvedReference, Registry: registry.Name(), Reference: &ref}, registry, nil
		}
		if b, ok := registry.index.Bundles[name]; ok {
			return Resolved{Kind: ResolvedBundle, Registry: registry.Name(), Bundle: &b}, registry, nil
		}
	}
	return Resolved{}, nil, status.ErrNotFound.For(model.EntityReference, name)
}

// Info describes a resolved name. Content statistics are given for references.
type Info struct {
	Resolved
	ContentPath string   `json:"content_path,omitempty"`
	Files       int      `json:"files"`
	Size        int64    `json:"size"`
	Dependents  []string `json:"dependents,omitempty"`
}

// Info resolves a name and describes it
func (r *Repository) Info(name string) (Info, error) {
	resolved, err := r.Resolve(name)
	if err != nil {
		return Info{}, err
	}
	info := Info{Resolved: resolved}
	if resolved.IsBundle() {
		return info, nil
	}
	registry, err := r.Registry(resolved.Registry)
	if err != nil {
		return Info{}, err
	}
	info.ContentPath = registry.ContentPath(name)
	info.Dependents = registry.FindDependents(name)
	if info.Files, info.Size, err = treeSize(info.ContentPath); err != nil {
		return Info{}, err
	}
	return info, nil
}

// Versions returns the history of a reference, most recent first
func (r *Repository) Versions(ctx context.Context, name string) ([]vcs.Commit, error) {
	_, registry, err := r.ResolveReference(name)
	if err != nil {
		return nil, err
	}
	return registry.History(ctx, name)
}
