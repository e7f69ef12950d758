package model

import "path"

const (
	// IndexFile is the registry index document
	IndexFile = "index.yaml"

	// ConfigFile is the global configuration document, kept out of version control
	ConfigFile = "config.yaml"

	// ContentDir is the content cache directory of a registry, keyed by reference name
	ContentDir = "content"

	// RegistriesDir holds remote registries, as version control sub-repositories
	RegistriesDir = "registries"

	// StagingDir receives content fetches before they are moved into the cache
	StagingDir = ".staging"
)

// GetPathToContent returns the cache path of a reference, relative to the registry root
func GetPathToContent(name string) string {
	return path.Join(ContentDir, name)
}

// GetPathToRegistry returns the path of a remote registry, relative to the repository root
func GetPathToRegistry(name string) string {
	return path.Join(RegistriesDir, name)
}

// GetPathToDestination returns the path of synced content, relative to the project root
func GetPathToDestination(dest string) string {
	return path.Join(OutputDir, dest)
}
