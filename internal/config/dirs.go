// Package config loads macinstall settings from built-in defaults, an
// optional TOML file and MACINSTALL_* environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the macinstall config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/macinstall if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "macinstall"), nil
}

// StateDir returns the macinstall state directory, respecting
// XDG_STATE_HOME. Defaults to ~/.local/state/macinstall.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(base, "macinstall"), nil
}

// ExpandHome replaces a leading "~" with home.
func ExpandHome(path, home string) string {
	switch {
	case path == "~":
		return home
	case strings.HasPrefix(path, "~/"):
		return filepath.Join(home, path[2:])
	default:
		return path
	}
}
