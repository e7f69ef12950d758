package model

import (
	"fmt"
	"strings"

	"github.com/oneconcern/refstore/pkg/core/status"
	"github.com/oneconcern/refstore/pkg/storage/localfs"
)

// Entity kinds, used to name the subject of errors
const (
	EntityReference     = "reference"
	EntityBundle        = "bundle"
	EntityRegistry      = "registry"
	EntityManifestEntry = "manifest entry"
	EntityPin           = "pin"
)

// LocalRegistry is the reserved name of the local registry
const LocalRegistry = "local"

// ValidateName checks that a reference, bundle or registry name only uses
// alphanumerics, hyphens, underscores and dots.
//
// Names "." and ".." are rejected, since names are used as directory names,
// as well as the names of the git directory and of the put staging area.
func ValidateName(entity, name string) error {
	if name == "" {
		return status.ErrInvalidName.For(entity, name).Wrap(fmt.Errorf("empty name"))
	}
	if name == "." || name == ".." {
		return status.ErrInvalidName.For(entity, name).Wrap(fmt.Errorf("reserved path component"))
	}
	if name == ".git" || name == localfs.StageName {
		return status.ErrInvalidName.For(entity, name).Wrap(fmt.Errorf("reserved directory name"))
	}
	for _, c := range name {
		if !isNameChar(c) {
			return status.ErrInvalidName.For(entity, name).
				Wrap(fmt.Errorf("contains unsupported character %q", string(c)))
		}
	}
	return nil
}

// ValidateRegistryName checks a remote registry name, which must not be the reserved "local"
func ValidateRegistryName(name string) error {
	if err := ValidateName(EntityRegistry, name); err != nil {
		return err
	}
	if strings.EqualFold(name, LocalRegistry) {
		return status.ErrInvalidName.For(EntityRegistry, name).
			Wrap(fmt.Errorf("%q is reserved for the local registry", LocalRegistry))
	}
	return nil
}

func isNameChar(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '_', c == '.':
		return true
	default:
		return false
	}
}
