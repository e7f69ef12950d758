// Package status exports errors produced by the core package.
//
// Errors returned to callers derive from one of these sentinels and
// usually name the entity they are about, e.g.:
//
//	reference "docs": not found
package status

import (
	"github.com/oneconcern/refstore/pkg/errors"
)

var (
	// ErrNotFound indicates a name is unresolvable in any loaded registry, bundle or manifest
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a duplicate name on add
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidName indicates a name that fails the validation pattern
	ErrInvalidName = errors.New("invalid name")

	// ErrResolutionFailed indicates that one or more manifest entries could not be resolved.
	// The wrapped error enumerates every unresolved entry (see go.uber.org/multierr).
	ErrResolutionFailed = errors.New("resolution failed")

	// ErrSourceFetchFailed indicates a network or filesystem error while fetching a reference's source
	ErrSourceFetchFailed = errors.New("source fetch failed")

	// ErrVersionControlFailed indicates that an underlying version control operation failed
	ErrVersionControlFailed = errors.New("version control operation failed")

	// ErrPinNotFound indicates a pinned tag or commit that does not exist in the reference's registry
	ErrPinNotFound = errors.New("pin not found")

	// ErrDependentExists indicates a removal blocked because a bundle still references the name
	ErrDependentExists = errors.New("dependent bundle exists")

	// ErrNotConfirmed indicates a destructive operation the caller did not confirm
	ErrNotConfirmed = errors.New("not confirmed")

	// ErrReadOnly indicates a mutation attempted on a read-only registry or scope
	ErrReadOnly = errors.New("read-only")

	// ErrManifestNotFound indicates no project manifest was found
	ErrManifestNotFound = errors.New("project manifest not found")

	// ErrManifestExists indicates a project manifest is already initialized
	ErrManifestExists = errors.New("project manifest already exists")

	// ErrInvalidPath indicates a path escaping its root, or otherwise unusable
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidConfig indicates an invalid configuration key or value
	ErrInvalidConfig = errors.New("invalid configuration")
)
