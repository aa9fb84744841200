// Package paths provides XDG-compliant path resolution for Scribe.
//
// Resolution order:
// 1. SCRIBE_HOME (portable root) → $SCRIBE_HOME/{config,data,state,cache}
// 2. XDG env vars → $XDG_*_HOME/scribe
// 3. Platform defaults → ~/.config/scribe, ~/.local/share/scribe, etc.
package paths

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every base directory.
const AppName = "scribe"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("SCRIBE_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getDataHome returns the base data home directory.
func getDataHome() string {
	if home := os.Getenv("SCRIBE_HOME"); home != "" {
		return filepath.Join(home, "data")
	}
	if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return xdgDataHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "share")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("SCRIBE_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// getCacheHome returns the base cache home directory.
func getCacheHome() string {
	if home := os.Getenv("SCRIBE_HOME"); home != "" {
		return filepath.Join(home, "cache")
	}
	if xdgCacheHome := os.Getenv("XDG_CACHE_HOME"); xdgCacheHome != "" {
		return xdgCacheHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".cache")
	}
	return ""
}

// ConfigDir returns the Scribe configuration directory.
// Holds scribe.yml and the persisted stores (settings.json, workspace.json, s3_config.json).
// Returns "" when no base directory can be resolved.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, AppName)
}

// DataDir returns the Scribe data directory.
func DataDir() string {
	base := getDataHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, AppName)
}

// StateDir returns the Scribe state directory.
// Used for logs and the daemon pid file.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, AppName)
}

// CacheDir returns the Scribe cache directory.
func CacheDir() string {
	base := getCacheHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, AppName)
}

// LogDir returns the directory for component log files.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RuntimeDir returns the Scribe runtime directory for sockets.
// Uses XDG_RUNTIME_DIR when available (Linux), falls back to StateDir (macOS).
func RuntimeDir() string {
	if home := os.Getenv("SCRIBE_HOME"); home != "" {
		return filepath.Join(home, "run")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, AppName)
	}
	return StateDir()
}

// SocketPath returns the path to the scribe daemon unix socket.
func SocketPath() string {
	return filepath.Join(RuntimeDir(), "scribed.sock")
}

// PidFilePath returns the path to the scribe daemon PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), "scribed.pid")
}

// EnsureDirs creates all Scribe directories if they don't exist.
func EnsureDirs() error {
	dirs := []string{
		ConfigDir(),
		DataDir(),
		StateDir(),
		CacheDir(),
		RuntimeDir(),
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
