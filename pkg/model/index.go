package model

import "sort"

// IndexVersion is the current version of the index document
const IndexVersion = 1

// Index is the durable mapping of names to references and bundles for one registry
type Index struct {
	Version    int                  `json:"version" yaml:"version"`
	References map[string]Reference `json:"references" yaml:"references"`
	Bundles    map[string]Bundle    `json:"bundles" yaml:"bundles"`
}

// NewIndex builds an empty index
func NewIndex() *Index {
	return &Index{
		Version:    IndexVersion,
		References: make(map[string]Reference),
		Bundles:    make(map[string]Bundle),
	}
}

// Normalize ensures maps are allocated after unmarshalling a sparse document
func (x *Index) Normalize() {
	if x.Version == 0 {
		x.Version = IndexVersion
	}
	if x.References == nil {
		x.References = make(map[string]Reference)
	}
	if x.Bundles == nil {
		x.Bundles = make(map[string]Bundle)
	}
}

// Has tells if a name is taken, either by a reference or a bundle
func (x *Index) Has(name string) bool {
	if _, ok := x.References[name]; ok {
		return true
	}
	_, ok := x.Bundles[name]
	return ok
}

// ReferenceNames returns the sorted names of all references
func (x *Index) ReferenceNames() []string {
	names := make([]string, 0, len(x.References))
	for name := range x.References {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BundleNames returns the sorted names of all bundles
func (x *Index) BundleNames() []string {
	names := make([]string, 0, len(x.Bundles))
	for name := range x.Bundles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the index, used to roll back failed mutations
func (x *Index) Clone() *Index {
	c := &Index{
		Version:    x.Version,
		References: make(map[string]Reference, len(x.References)),
		Bundles:    make(map[string]Bundle, len(x.Bundles)),
	}
	for k, v := range x.References {
		v.Tags = append([]string(nil), v.Tags...)
		c.References[k] = v
	}
	for k, v := range x.Bundles {
		v.Tags = append([]string(nil), v.Tags...)
		v.References = append([]string(nil), v.References...)
		c.Bundles[k] = v
	}
	return c
}
