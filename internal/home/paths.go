package home

import (
	"os"
	"path/filepath"
)

// Dir returns the chatzip data directory. CHATZIP_HOME overrides the
// default ~/.chatzip.
func Dir() string {
	if v := os.Getenv("CHATZIP_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatzip")
}

// DBPath returns the app-owned chatzip.db path.
func DBPath() string {
	return filepath.Join(Dir(), "chatzip.db")
}

// LockPath returns the lock file path.
func LockPath() string {
	return filepath.Join(Dir(), "LOCK")
}

// LogDir returns the log directory.
func LogDir() string {
	return filepath.Join(Dir(), "logs")
}

// LogPath returns the daemon log file path.
func LogPath() string {
	return filepath.Join(LogDir(), "chatzipd.log")
}

// ConfigPath returns the optional config file path.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// EnsureDir creates the data directory tree with proper permissions.
func EnsureDir() error {
	for _, d := range []string{Dir(), LogDir()} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
