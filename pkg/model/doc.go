// Package model describes the base objects manipulated by refstore.
//
// The object model for refstore is composed of:
//
//	References:
//	  A named unit of reusable content: a single file, a directory, or a snapshot of an
//	  external git repository. References are cached in a registry's content directory.
//
//	Bundles:
//	  A named set of reference names, expanded when a project selects the bundle.
//
//	Index:
//	  The durable mapping of names to references and bundles for one registry.
//
//	Manifest:
//	  A project's declared selection of references and bundles, with filters, pins and
//	  destination overrides.
//
//	Config:
//	  The global settings consumed by the engine (clone depth, default branch, tool scope).
package model
