// Package vcs wraps the git command line to provide the version control
// primitives used by registries: commit, tag, log, and historical snapshot
// retrieval.
//
// Historical snapshots are read from git's object database (ls-tree and
// cat-file), so reading an old revision never touches the working tree.
package vcs
