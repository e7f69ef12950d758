/*
Package core implements the reference registry engine.

A Registry holds one index of references and bundles, plus the content cache of
these references, under version control. Every mutation of a registry is committed.

A Repository composes the local registry with read-only remote registries, fetched
as git submodules. Names resolve against the local registry first, then against remote
registries in lexicographic order of their names.

A Project resolves its manifest against a Repository into sync jobs, and materializes
the selected content of each job under the project's output directory.
*/
package core
