package model

import (
	"sort"
	"time"
)

// Bundle is a named set of reference names.
//
// Members are kept sorted: the order of members is irrelevant.
type Bundle struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	References  []string  `json:"references" yaml:"references"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NewBundle builds a bundle, stamped with the current time
func NewBundle(name string, members []string, opts ...BundleOption) Bundle {
	now := time.Now().UTC().Truncate(time.Second)
	b := Bundle{
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.AddMembers(members...)
	for _, apply := range opts {
		apply(&b)
	}
	b.Tags = normalizeTags(b.Tags)
	return b
}

// HasMember tells if the bundle lists this reference name
func (b Bundle) HasMember(name string) bool {
	i := sort.SearchStrings(b.References, name)
	return i < len(b.References) && b.References[i] == name
}

// HasTag tells if the bundle carries this tag (case-insensitive)
func (b Bundle) HasTag(tag string) bool {
	return hasTag(b.Tags, tag)
}

// AddMembers adds reference names, ignoring duplicates
func (b *Bundle) AddMembers(names ...string) {
	if b.References == nil {
		b.References = make([]string, 0, len(names))
	}
	for _, name := range names {
		if name == "" || b.HasMember(name) {
			continue
		}
		b.References = append(b.References, name)
		sort.Strings(b.References)
	}
}

// RemoveMembers removes reference names, ignoring absent ones
func (b *Bundle) RemoveMembers(names ...string) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name] = struct{}{}
	}
	kept := b.References[:0]
	for _, member := range b.References {
		if _, ok := drop[member]; !ok {
			kept = append(kept, member)
		}
	}
	b.References = kept
}

// Bundles is a sortable collection of bundles
type Bundles []Bundle

func (b Bundles) Len() int           { return len(b) }
func (b Bundles) Less(i, j int) bool { return b[i].Name < b[j].Name }
func (b Bundles) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
