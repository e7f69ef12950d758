// Package paths resolves the location of the refstore data directory.
package paths

import (
	"os"
	"path/filepath"
)

const appName = "refstore"

// EnvDataDir overrides the data directory
const EnvDataDir = "REFSTORE_DATA_DIR"

// platformDir holds platform lookups that tests override
var platformDir = struct {
	homeDir func() (string, error)
	getenv  func(string) string
}{
	homeDir: os.UserHomeDir,
	getenv:  os.Getenv,
}

// DefaultDataDir returns $XDG_DATA_HOME/refstore, falling back to ~/.local/share/refstore
func DefaultDataDir() (string, error) {
	if xdg := platformDir.getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// ResolveDataDir picks the data directory: an explicit value first, then $REFSTORE_DATA_DIR, then the default
func ResolveDataDir(explicit string) (string, error) {
	if explicit == "" {
		explicit = platformDir.getenv(EnvDataDir)
	}
	if explicit != "" {
		return filepath.Abs(explicit)
	}
	return DefaultDataDir()
}
