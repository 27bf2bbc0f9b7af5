// conf/utils.go
package conf

import (
	"os"
	"path/filepath"
)

const appDirName = "scanctl"

// GetDefaultConfigPaths returns the directories searched for config.yaml, most specific first:
// $XDG_CONFIG_HOME/scanctl, ~/.config/scanctl and the working directory.
func GetDefaultConfigPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, appDirName))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", appDirName))
	}

	return append(paths, ".")
}

// DefaultConfigFile is where `scanctl config init` writes when no --config is given
func DefaultConfigFile() string {
	return filepath.Join(GetDefaultConfigPaths()[0], "config.yaml")
}

// FindConfigFile returns the first existing config.yaml on the search path
func FindConfigFile() (string, bool) {
	for _, dir := range GetDefaultConfigPaths() {
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// DefaultSessionPath places the session database next to the user's config
func DefaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "session.db")
	}
	return filepath.Join(dir, appDirName, "session.db")
}
